package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/squadchat/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunCheckpointStoreContract runs a suite of tests to verify that a CheckpointStore
// implementation adheres to the defined interface contract.
func RunCheckpointStoreContract(t *testing.T, store CheckpointStore) {
	t.Helper()
	ctx := context.Background()
	sessionID := "contract-test-session-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		dob, err := domain.ParseDate("1993-01-16")
		require.NoError(t, err)

		state := domain.NewConversation("Who is the keeper of Arsenal?")
		state.Valid = true
		state.TeamName = "arsenal"
		state.TeamFound = true
		state.Squad = &domain.Squad{
			Name:    "arsenal",
			Players: []domain.Player{{Name: "David Raya", DateOfBirth: dob, Position: "Goalkeeper"}},
		}
		cp := domain.NewCheckpoint(sessionID, state, domain.NodeFormulateResponse, 3)

		require.NoError(t, store.Save(ctx, cp), "Save should not return error")

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, sessionID, loaded.SessionID)
		assert.Equal(t, domain.NodeFormulateResponse, loaded.PendingNode)
		assert.Equal(t, 3, loaded.Steps)
		assert.Equal(t, "arsenal", loaded.State.TeamName)
		assert.True(t, loaded.State.TeamFound)
		require.NotNil(t, loaded.State.Squad)
		require.Len(t, loaded.State.Squad.Players, 1)
		assert.Equal(t, "1993-01-16", loaded.State.Squad.Players[0].DateOfBirth.String())
	})

	t.Run("Overwrite", func(t *testing.T) {
		state := domain.NewConversation("Squad of Man Utd?")
		state.ClarificationRequest = "Did you mean manchester united?"
		require.NoError(t, store.Save(ctx, domain.NewCheckpoint(sessionID, state, domain.NodeInterpretClarification, 3)))

		state.Answer = "Sorry, I could not find the team you were asking about."
		require.NoError(t, store.Save(ctx, domain.NewCheckpoint(sessionID, state, domain.Terminal, 4)))

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, domain.Terminal, loaded.PendingNode)
		assert.True(t, loaded.State.Finished())
		assert.Nil(t, loaded.State.Squad)
	})

	t.Run("Load Isolation", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, domain.NewCheckpoint(sessionID, domain.NewConversation("q"), domain.NodeValidate, 0)))

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		loaded.State.Query = "mutated"

		again, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, "q", again.State.Query, "mutating a loaded checkpoint must not affect the store")
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, domain.NewCheckpoint(sessionID, domain.NewConversation("q"), domain.NodeValidate, 0)))

		require.NoError(t, store.Delete(ctx, sessionID), "Delete should not return error")

		_, err := store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")

		assert.NoError(t, store.Delete(ctx, sessionID), "Deleting a missing session is not an error")
	})

	t.Run("Bookkeeping-Like IDs", func(t *testing.T) {
		ids := []string{"index", sessionID + "-after"}
		for _, id := range ids {
			require.NoError(t, store.Save(ctx, domain.NewCheckpoint(id, domain.NewConversation(id), domain.NodeValidate, 0)), "Save(%q)", id)
		}
		defer func() {
			for _, id := range ids {
				_ = store.Delete(ctx, id)
			}
		}()

		sessions, err := store.List(ctx)
		require.NoError(t, err)
		for _, id := range ids {
			assert.Contains(t, sessions, id)
			loaded, err := store.Load(ctx, id)
			require.NoError(t, err)
			assert.Equal(t, id, loaded.State.Query)
		}
	})

	t.Run("List", func(t *testing.T) {
		id1 := sessionID + "-1"
		id2 := sessionID + "-2"
		_ = store.Save(ctx, domain.NewCheckpoint(id1, domain.NewConversation("a"), domain.NodeValidate, 0))
		_ = store.Save(ctx, domain.NewCheckpoint(id2, domain.NewConversation("b"), domain.NodeValidate, 0))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		sessions, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessions, id1)
		assert.Contains(t, sessions, id2)
	})
}
