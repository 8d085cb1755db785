package eval

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"strings"
	"testing"

	"github.com/aretw0/squadchat"
	"github.com/aretw0/squadchat/internal/testutils"
	"github.com/aretw0/squadchat/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAssistant(t *testing.T) (*squadchat.Assistant, *testutils.Inference, *testutils.Roster) {
	t.Helper()
	inf := testutils.NewInference("arsenal", "chelsea")
	inf.RelevantFn = func(text string) (bool, error) {
		return !strings.Contains(text, "weather"), nil
	}
	roster := testutils.NewRoster(testutils.Squad("arsenal"), testutils.Squad("chelsea"))
	a, err := squadchat.New(inf, roster)
	require.NoError(t, err)
	return a, inf, roster
}

func TestRunner_RecordsHowEachTurnEnds(t *testing.T) {
	a, _, _ := newAssistant(t)

	results, err := NewRunner(a, nil).Run(context.Background(), Suite{
		Name: "mixed",
		Queries: []string{
			"Who plays for Arsenal?",
			"Who plays for the gunners?",
			"What is the weather in Warsaw?",
		},
	})
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, domain.ReplyAnswer, results[0].Kind)
	assert.True(t, results[0].Success)
	assert.Equal(t, "arsenal has 4 players.", results[0].Answer)

	assert.Equal(t, domain.ReplyClarification, results[1].Kind)
	assert.False(t, results[1].Success)
	assert.Contains(t, results[1].ClarificationRequest, "Which team did you mean")

	assert.Equal(t, domain.ReplyAnswer, results[2].Kind)
	assert.False(t, results[2].Success)
	assert.NoError(t, results[2].Err)

	assert.Equal(t, map[string][2]int{"mixed": {1, 3}}, Summary(results))
}

func TestRunner_EachQueryGetsItsOwnSession(t *testing.T) {
	a, inf, _ := newAssistant(t)

	_, err := NewRunner(a, nil).Run(context.Background(), Suite{
		Name:    "unclear",
		Queries: []string{"Squad of the gunners?", "Squad of the blues?"},
	})
	require.NoError(t, err)

	assert.Equal(t, 0, inf.Calls("InterpretClarification"), "a pending clarification is never answered by the next query")
	sessions, err := a.Sessions(context.Background())
	require.NoError(t, err)
	assert.Len(t, sessions, 2)
}

func TestRunner_KeepsGoingAfterFailure(t *testing.T) {
	a, inf, _ := newAssistant(t)
	inf.SynthesizeFn = func(squad *domain.Squad, _ string) (string, error) {
		if squad.Name == "arsenal" {
			return "", errors.New("model timeout")
		}
		return "ok", nil
	}

	results, err := NewRunner(a, nil).Run(context.Background(), Suite{
		Name:    "base",
		Queries: []string{"Arsenal squad?", "Chelsea squad?"},
	})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.ErrorIs(t, results[0].Err, domain.ErrCollaborator)
	assert.True(t, results[1].Success)
}

func TestRunner_StopsOnCancel(t *testing.T) {
	a, _, _ := newAssistant(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := NewRunner(a, nil).Run(ctx, DefaultSuites()...)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, results)
}

func TestTeamSuite(t *testing.T) {
	_, _, roster := newAssistant(t)

	suite, err := TeamSuite(context.Background(), roster)
	require.NoError(t, err)
	assert.Equal(t, "all_teams", suite.Name)
	assert.Equal(t, []string{
		"Please list all the current senior squad members for the arsenal men's team",
		"Please list all the current senior squad members for the chelsea men's team",
	}, suite.Queries)

	roster.Err = errors.New("offline")
	_, err = TeamSuite(context.Background(), roster)
	assert.ErrorContains(t, err, "failed to list teams")
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	err := WriteCSV(&buf, []Result{
		{Suite: "base", Query: "Arsenal, please", Kind: domain.ReplyAnswer, Answer: "long", Success: true},
		{Suite: "unclear", Query: "Man?", Kind: domain.ReplyClarification, ClarificationRequest: "Which one?"},
		{Suite: "base", Query: "Chelsea", Err: errors.New("boom")},
	})
	require.NoError(t, err)

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		Header,
		{"base", "Arsenal, please", "answer", "", "true", ""},
		{"unclear", "Man?", "clarification", "Which one?", "false", ""},
		{"base", "Chelsea", "", "", "false", "boom"},
	}, rows)
}

func TestDefaultSuites(t *testing.T) {
	names := make([]string, 0)
	for _, s := range DefaultSuites() {
		assert.NotEmpty(t, s.Queries, s.Name)
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{"base", "irrelevant", "not_premier_league", "precise", "unclear", "languages"}, names)
}
