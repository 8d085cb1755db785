package workflow

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/squadchat/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func returning(outcome domain.Outcome) HandlerFunc {
	return func(_ context.Context, s domain.ConversationState) (domain.ConversationState, domain.Outcome, error) {
		return s, outcome, nil
	}
}

func step(run HandlerFunc, outcomes ...domain.Outcome) Step {
	return Step{Outcomes: outcomes, Run: run}
}

func inject(s domain.ConversationState, text string) domain.ConversationState {
	s.ClarificationResponse = text
	return s
}

func validGraph() *Builder {
	b := New().Entry("Ask")
	b.Add("Ask").
		Do(step(returning(domain.OutcomeFound), domain.OutcomeFound, domain.OutcomeNotFound)).
		On(domain.OutcomeFound, "Done").
		On(domain.OutcomeNotFound, "Wait")
	b.Add("Wait").
		InterruptBefore(inject).
		Do(step(returning(domain.OutcomeNext), domain.OutcomeNext)).
		Go("Done")
	b.Add("Done").
		Do(step(returning(domain.OutcomeNext), domain.OutcomeNext)).
		End(domain.OutcomeNext)
	return b
}

func TestBuilder_SimpleFlow(t *testing.T) {
	def, err := validGraph().Build()
	require.NoError(t, err)

	assert.Equal(t, domain.NodeID("Ask"), def.Entry())
	assert.Equal(t, domain.NodeID("Wait"), def.Interrupt())
	assert.True(t, def.IsInterrupt("Wait"))
	assert.False(t, def.IsInterrupt("Ask"))

	next, err := def.Route("Ask", domain.OutcomeNotFound)
	require.NoError(t, err)
	assert.Equal(t, domain.NodeID("Wait"), next)

	next, err = def.Route("Done", domain.OutcomeNext)
	require.NoError(t, err)
	assert.Equal(t, domain.Terminal, next)

	nodes := def.Nodes()
	require.Len(t, nodes, 3)
	assert.Equal(t, domain.NodeID("Ask"), nodes[0].ID)
	assert.Equal(t, domain.NodeID("Done"), nodes[1].ID)
	assert.Equal(t, domain.NodeID("Wait"), nodes[2].ID)
	assert.True(t, nodes[2].Interrupt)

	ask, ok := def.Node("Ask")
	require.True(t, ok)
	assert.Equal(t, []Edge{
		{Outcome: domain.OutcomeFound, To: "Done"},
		{Outcome: domain.OutcomeNotFound, To: "Wait"},
	}, ask.Edges)
}

func TestDefinition_RouteUnmapped(t *testing.T) {
	def, err := validGraph().Build()
	require.NoError(t, err)

	_, err = def.Route("Ask", domain.OutcomeUnresolved)
	assert.ErrorIs(t, err, domain.ErrUnmappedOutcome)

	_, err = def.Route("Missing", domain.OutcomeNext)
	assert.ErrorIs(t, err, domain.ErrInvariantViolation)
}

func TestDefinition_RunAndInject(t *testing.T) {
	def, err := validGraph().Build()
	require.NoError(t, err)

	state := domain.NewConversation("q")
	out, outcome, err := def.Run(context.Background(), "Ask", state)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeFound, outcome)
	assert.Equal(t, "q", out.Query)

	injected, err := def.Inject("Wait", state, "arsenal")
	require.NoError(t, err)
	assert.Equal(t, "arsenal", injected.ClarificationResponse)
	assert.Empty(t, state.ClarificationResponse, "inject must not touch the caller's copy")

	_, err = def.Inject("Ask", state, "x")
	assert.ErrorIs(t, err, domain.ErrInvariantViolation)
}

func TestDefinition_NodesAreCopies(t *testing.T) {
	def, err := validGraph().Build()
	require.NoError(t, err)

	info, _ := def.Node("Ask")
	info.Edges[0].To = "Elsewhere"

	next, err := def.Route("Ask", domain.OutcomeFound)
	require.NoError(t, err)
	assert.Equal(t, domain.NodeID("Done"), next)
}

func TestBuilder_Validation(t *testing.T) {
	tests := []struct {
		name  string
		build func() *Builder
		want  string
	}{
		{
			name: "missing entry",
			build: func() *Builder {
				b := validGraph()
				b.hasEntry = false
				return b
			},
			want: "no entry node",
		},
		{
			name:  "unknown entry",
			build: func() *Builder { return validGraph().Entry("Nowhere") },
			want:  `entry node "Nowhere" is not defined`,
		},
		{
			name: "declared outcome without edge",
			build: func() *Builder {
				b := validGraph()
				b.Add("Done").step.Outcomes = append(b.Add("Done").step.Outcomes, domain.OutcomeInvalid)
				return b
			},
			want: `node Done: outcome "invalid" has no edge`,
		},
		{
			name: "edge for undeclared outcome",
			build: func() *Builder {
				b := validGraph()
				b.Add("Done").On(domain.OutcomeUnresolved, "Ask")
				return b
			},
			want: `node Done: edge for undeclared outcome "unresolved"`,
		},
		{
			name: "edge to unknown node",
			build: func() *Builder {
				b := New().Entry("A")
				b.Add("A").InterruptBefore(inject).Do(step(returning(domain.OutcomeNext), domain.OutcomeNext)).Go("B")
				return b
			},
			want: `targets unknown node "B"`,
		},
		{
			name: "duplicate edge",
			build: func() *Builder {
				b := validGraph()
				b.Add("Done").End(domain.OutcomeNext)
				return b
			},
			want: "duplicate edge for outcome next",
		},
		{
			name: "node without step",
			build: func() *Builder {
				b := validGraph()
				b.Add("Orphan")
				return b
			},
			want: "node Orphan: no step bound",
		},
		{
			name: "no interrupt",
			build: func() *Builder {
				b := New().Entry("A")
				b.Add("A").Do(step(returning(domain.OutcomeNext), domain.OutcomeNext)).End(domain.OutcomeNext)
				return b
			},
			want: "no interrupt node",
		},
		{
			name: "two interrupts",
			build: func() *Builder {
				b := validGraph()
				b.Add("Done").InterruptBefore(inject)
				return b
			},
			want: "more than one interrupt node",
		},
		{
			name: "interrupt without inject",
			build: func() *Builder {
				b := validGraph()
				b.Add("Wait").InterruptBefore(nil)
				return b
			},
			want: "interrupt without inject function",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def, err := tt.build().Build()
			require.Error(t, err)
			assert.Nil(t, def)
			assert.True(t, errors.Is(err, domain.ErrInvalidDefinition))
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
