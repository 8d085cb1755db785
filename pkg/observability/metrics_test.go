package observability_test

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"testing"

	"github.com/aretw0/squadchat/pkg/domain"
	"github.com/aretw0/squadchat/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// counterValue finds a sample by metric name and label values.
func counterValue(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
	metrics:
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if want, ok := labels[lp.GetName()]; ok && want != lp.GetValue() {
					continue metrics
				}
			}
			return m.GetCounter().GetValue()
		}
	}
	return 0
}

func TestMetrics_Hooks(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := observability.NewMetrics(reg)
	hooks := m.Hooks()
	ctx := context.Background()

	hooks.OnNodeEnter(ctx, &domain.NodeEvent{NodeID: domain.NodeValidate})
	hooks.OnNodeEnter(ctx, &domain.NodeEvent{NodeID: domain.NodeValidate})
	hooks.OnNodeLeave(ctx, &domain.NodeEvent{NodeID: domain.NodeValidate, Outcome: domain.OutcomeInvalid})
	hooks.OnNodeLeave(ctx, &domain.NodeEvent{
		NodeID: domain.NodeFetchSquad,
		Err:    fmt.Errorf("fetch: %w", domain.ErrCollaborator),
	})
	hooks.OnSuspend(ctx, &domain.NodeEvent{NodeID: domain.NodeInterpretClarification})
	hooks.OnFinish(ctx, &domain.NodeEvent{Outcome: domain.OutcomeInvalid})

	assert.Equal(t, 2.0, counterValue(t, reg, "squadchat_node_visits_total", map[string]string{"node_id": "Validate"}))
	assert.Equal(t, 1.0, counterValue(t, reg, "squadchat_node_failures_total", map[string]string{"node_id": "FetchSquad", "cause": "collaborator"}))
	assert.Equal(t, 1.0, counterValue(t, reg, "squadchat_suspensions_total", nil))
	assert.Equal(t, 1.0, counterValue(t, reg, "squadchat_finishes_total", map[string]string{"outcome": "invalid"}))
}

func TestMetrics_NilRegisterer(t *testing.T) {
	assert.NotPanics(t, func() {
		observability.NewMetrics(nil)
		observability.NewMetrics(nil)
	})
}

func TestLogHooks(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	hooks := domain.ChainHooks(observability.LogHooks(logger))
	ctx := context.Background()

	hooks.OnNodeLeave(ctx, &domain.NodeEvent{SessionID: "s1", NodeID: domain.NodeClarify, Outcome: domain.OutcomeNext})
	hooks.OnNodeLeave(ctx, &domain.NodeEvent{SessionID: "s1", NodeID: domain.NodeFetchSquad, Err: domain.ErrCollaborator})
	hooks.OnSuspend(ctx, &domain.NodeEvent{SessionID: "s1", NodeID: domain.NodeInterpretClarification})

	out := buf.String()
	assert.Contains(t, out, "node_id=Clarify")
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, `err="collaborator failure"`)
	assert.Contains(t, out, "msg=suspend")
}
