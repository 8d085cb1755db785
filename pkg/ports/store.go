package ports

import (
	"context"

	"github.com/aretw0/squadchat/pkg/domain"
)

// CheckpointStore defines the interface for persisting conversation checkpoints.
// This allows for durable execution, enabling "Stop & Resume" conversations.
type CheckpointStore interface {
	// Save persists (overwrites) the checkpoint for cp.SessionID.
	Save(ctx context.Context, cp *domain.Checkpoint) error

	// Load retrieves the checkpoint for a given session ID.
	// Returns domain.ErrSessionNotFound if the session does not exist.
	Load(ctx context.Context, sessionID string) (*domain.Checkpoint, error)

	// Delete removes the checkpoint for a given session ID.
	Delete(ctx context.Context, sessionID string) error

	// List returns the IDs of all stored sessions.
	List(ctx context.Context) ([]string, error)
}
