package runtime_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/squadchat/internal/flow"
	"github.com/aretw0/squadchat/internal/runtime"
	"github.com/aretw0/squadchat/internal/testutils"
	"github.com/aretw0/squadchat/pkg/adapters/memory"
	"github.com/aretw0/squadchat/pkg/domain"
	"github.com/aretw0/squadchat/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type harness struct {
	dispatcher *runtime.Dispatcher
	store      *memory.Store
	inference  *testutils.Inference
	roster     *testutils.Roster
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	engine, inf, roster := newSquadEngine(t)
	store := memory.NewStore()
	return &harness{
		dispatcher: runtime.NewDispatcher(engine, session.NewManager(store)),
		store:      store,
		inference:  inf,
		roster:     roster,
	}
}

func (h *harness) checkpoint(t *testing.T, id string) *domain.Checkpoint {
	t.Helper()
	cp, err := h.store.Load(context.Background(), id)
	require.NoError(t, err)
	return cp
}

func TestClassify(t *testing.T) {
	assert.Equal(t, runtime.ModeFresh, runtime.Classify(nil))

	cp := domain.NewCheckpoint("s", domain.NewConversation("q"), domain.NodeExtractTeam, 1)
	assert.Equal(t, runtime.ModeFresh, runtime.Classify(cp), "mid-run checkpoint without request or answer")

	cp.State.ClarificationRequest = "Which team?"
	assert.Equal(t, runtime.ModeResume, runtime.Classify(cp))

	cp.State.Answer = "done"
	assert.Equal(t, runtime.ModeFresh, runtime.Classify(cp), "finished checkpoint starts a new turn")

	cp.State.ClarificationRequest = ""
	assert.Equal(t, runtime.ModeFresh, runtime.Classify(cp))
}

func TestDispatcher_Rejection(t *testing.T) {
	h := newHarness(t)
	h.inference.RelevantFn = func(string) (bool, error) { return false, nil }

	reply, err := h.dispatcher.Handle(context.Background(), "a", "What's the weather in London?")
	require.NoError(t, err)
	assert.Equal(t, domain.Reply{Kind: domain.ReplyAnswer, Text: flow.RejectionText}, reply)
	assert.Equal(t, 0, h.inference.Calls("ExtractTeamGuess"))

	cp := h.checkpoint(t, "a")
	assert.True(t, cp.State.Finished())
	assert.False(t, cp.State.Success)
	assert.Equal(t, domain.Terminal, cp.PendingNode)
}

func TestDispatcher_HappyPath(t *testing.T) {
	h := newHarness(t)

	reply, err := h.dispatcher.Handle(context.Background(), "b", "Who is in the Chelsea squad?")
	require.NoError(t, err)
	assert.Equal(t, domain.ReplyAnswer, reply.Kind)
	assert.Equal(t, "chelsea has 4 players.", reply.Text)

	cp := h.checkpoint(t, "b")
	assert.True(t, cp.State.Success)
	assert.NotNil(t, cp.State.Squad)
	assert.Equal(t, "chelsea", cp.State.TeamName)
	assert.Equal(t, 0, h.inference.Calls("ProposeClarification"))
}

func TestDispatcher_ClarificationRoundTrip(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	reply, err := h.dispatcher.Handle(ctx, "c", "Show me the gunners squad")
	require.NoError(t, err)
	assert.Equal(t, domain.ReplyClarification, reply.Kind)
	assert.NotEmpty(t, reply.Text)

	cp := h.checkpoint(t, "c")
	assert.True(t, cp.Suspended())
	assert.Equal(t, domain.NodeInterpretClarification, cp.PendingNode)
	assert.Equal(t, reply.Text, cp.State.ClarificationRequest)

	reply, err = h.dispatcher.Handle(ctx, "c", "I meant Arsenal")
	require.NoError(t, err)
	assert.Equal(t, domain.Reply{Kind: domain.ReplyAnswer, Text: "arsenal has 4 players."}, reply)

	cp = h.checkpoint(t, "c")
	assert.True(t, cp.State.Success)
	assert.Equal(t, "Show me the gunners squad", cp.State.Query, "the original query survives the resume")
	assert.Equal(t, "I meant Arsenal", cp.State.ClarificationResponse)

	assert.Equal(t, 1, h.inference.Calls("ClassifyRelevance"), "completed nodes are not re-executed")
	assert.Equal(t, 1, h.inference.Calls("ExtractTeamGuess"))

	// A finished session starts a new turn.
	reply, err = h.dispatcher.Handle(ctx, "c", "And Chelsea?")
	require.NoError(t, err)
	assert.Equal(t, "chelsea has 4 players.", reply.Text)
	assert.Equal(t, 2, h.inference.Calls("ClassifyRelevance"))
	assert.Empty(t, h.checkpoint(t, "c").State.ClarificationRequest, "a fresh turn overwrites the prior checkpoint")
}

func TestDispatcher_UnresolvedClarification(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.dispatcher.Handle(ctx, "d", "Show me the gunners squad")
	require.NoError(t, err)

	reply, err := h.dispatcher.Handle(ctx, "d", "the red ones from the north")
	require.NoError(t, err)
	assert.Equal(t, domain.Reply{Kind: domain.ReplyAnswer, Text: flow.FailureText}, reply)

	cp := h.checkpoint(t, "d")
	assert.False(t, cp.State.Success)
	assert.False(t, cp.State.TeamFound)
	assert.Equal(t, 0, h.roster.Calls("GetSquad"))
}

func TestDispatcher_ConcurrentResumes(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.dispatcher.Handle(ctx, "e", "Show me the gunners squad")
	require.NoError(t, err)

	// Widen the window in which two unserialized resumes would both see the stale checkpoint.
	h.inference.InterpretFn = func(request, response string) (string, error) {
		time.Sleep(20 * time.Millisecond)
		return "arsenal", nil
	}

	var wg sync.WaitGroup
	replies := make([]domain.Reply, 2)
	errs := make([]error, 2)
	for i := range 2 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			replies[i], errs[i] = h.dispatcher.Handle(ctx, "e", "arsenal")
		}(i)
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	assert.Equal(t, 1, h.inference.Calls("InterpretClarification"), "exactly one call observes the suspended checkpoint")
	assert.Equal(t, 2, h.inference.Calls("ClassifyRelevance"), "the other is serialized after it as a fresh turn")
	assert.Equal(t, domain.ReplyAnswer, replies[0].Kind)
	assert.Equal(t, domain.ReplyAnswer, replies[1].Kind)
}

func TestDispatcher_CollaboratorFailureIsRetryable(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.dispatcher.Handle(ctx, "f", "Show me the gunners squad")
	require.NoError(t, err)
	before := h.checkpoint(t, "f")

	h.inference.InterpretFn = func(string, string) (string, error) { return "", errors.New("model timeout") }
	_, err = h.dispatcher.Handle(ctx, "f", "arsenal")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrCollaborator)

	after := h.checkpoint(t, "f")
	assert.Equal(t, before.State, after.State, "failed step leaves the checkpoint untouched")
	assert.Equal(t, before.PendingNode, after.PendingNode)
	assert.Equal(t, before.Steps, after.Steps)

	h.inference.InterpretFn = nil
	reply, err := h.dispatcher.Handle(ctx, "f", "arsenal")
	require.NoError(t, err)
	assert.Equal(t, "arsenal has 4 players.", reply.Text)
	assert.Equal(t, 2, h.inference.Calls("InterpretClarification"), "the retry re-enters the same node")
	assert.Equal(t, 1, h.inference.Calls("ExtractTeamGuess"))
}

func TestDispatcher_RetriesStepFailedAfterClarification(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.dispatcher.Handle(ctx, "r", "Show me the gunners squad")
	require.NoError(t, err)

	h.roster.SquadErr = errors.New("upstream 503")
	_, err = h.dispatcher.Handle(ctx, "r", "arsenal")
	require.ErrorIs(t, err, domain.ErrCollaborator)

	cp := h.checkpoint(t, "r")
	assert.Equal(t, domain.NodeFetchSquad, cp.PendingNode)
	assert.Equal(t, runtime.ModeResume, runtime.Classify(cp))

	h.roster.SquadErr = nil
	reply, err := h.dispatcher.Handle(ctx, "r", "arsenal")
	require.NoError(t, err)
	assert.Equal(t, domain.ReplyAnswer, reply.Kind)
	assert.Equal(t, "arsenal has 4 players.", reply.Text)
	assert.Equal(t, 1, h.inference.Calls("InterpretClarification"), "the clarification is not interpreted twice")
}

func TestDispatcher_FreshFailureLeavesResumablePoint(t *testing.T) {
	h := newHarness(t)
	h.inference.RelevantFn = func(string) (bool, error) { return false, errors.New("quota") }

	_, err := h.dispatcher.Handle(context.Background(), "g", "Arsenal squad?")
	require.ErrorIs(t, err, domain.ErrCollaborator)

	cp := h.checkpoint(t, "g")
	assert.Equal(t, domain.NodeValidate, cp.PendingNode)
	assert.Equal(t, "Arsenal squad?", cp.State.Query)
}

func TestDispatcher_ResumeIsIdempotent(t *testing.T) {
	run := func() (domain.Reply, domain.ConversationState) {
		h := newHarness(t)
		ctx := context.Background()
		_, err := h.dispatcher.Handle(ctx, "i", "Show me the gunners squad")
		require.NoError(t, err)
		reply, err := h.dispatcher.Handle(ctx, "i", "chelsea")
		require.NoError(t, err)
		return reply, h.checkpoint(t, "i").State
	}

	r1, s1 := run()
	r2, s2 := run()
	assert.Equal(t, r1, r2)
	assert.Equal(t, s1, s2)
}

func TestDispatcher_InvariantsHoldAcrossScenarios(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	teams, err := h.roster.ListTeams(ctx)
	require.NoError(t, err)

	script := []struct{ id, text string }{
		{"x1", "Chelsea players"},
		{"x2", "gunners?"},
		{"x2", "arsenal"},
		{"x3", "gunners?"},
		{"x3", "no clue"},
		{"x1", "again, arsenal"},
	}
	for _, step := range script {
		_, err := h.dispatcher.Handle(ctx, step.id, step.text)
		require.NoError(t, err)

		cp := h.checkpoint(t, step.id)
		if cp.State.TeamFound {
			assert.Contains(t, teams, cp.State.TeamName)
		}
		if cp.State.Success {
			assert.NotEmpty(t, cp.State.Answer)
			assert.NotNil(t, cp.State.Squad)
		}
		assert.False(t, cp.State.Finished() && cp.State.AwaitingClarification())
	}
}
