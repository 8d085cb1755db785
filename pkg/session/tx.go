package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/aretw0/squadchat/pkg/domain"
	"github.com/aretw0/squadchat/pkg/ports"
)

// ErrTxClosed is returned when a Tx is used after its WithSession callback returned.
var ErrTxClosed = errors.New("session transaction closed")

// ErrEmptySessionID is returned when a session operation is given no id.
var ErrEmptySessionID = errors.New("session id must not be empty")

// ErrNotSuspended is returned by Resume when the checkpoint is not waiting on a clarification.
var ErrNotSuspended = errors.New("session is not awaiting clarification")

// Injector merges resumed text into the state for the pending node.
type Injector func(node domain.NodeID, state domain.ConversationState, text string) (domain.ConversationState, error)

// Tx is the serialized view of one session's checkpoint.
type Tx struct {
	sessionID string
	store     ports.CheckpointStore

	mu     sync.Mutex
	closed bool
}

// SessionID returns the id the Tx is bound to.
func (t *Tx) SessionID() string {
	return t.sessionID
}

// Load returns the current checkpoint or domain.ErrSessionNotFound.
func (t *Tx) Load(ctx context.Context) (*domain.Checkpoint, error) {
	if err := t.check(); err != nil {
		return nil, err
	}
	return t.store.Load(ctx, t.sessionID)
}

// Save overwrites the checkpoint. The checkpoint must belong to the Tx's session.
func (t *Tx) Save(ctx context.Context, cp *domain.Checkpoint) error {
	if err := t.check(); err != nil {
		return err
	}
	if cp.SessionID != t.sessionID {
		return fmt.Errorf("%w: checkpoint for %q saved in session %q", domain.ErrInvariantViolation, cp.SessionID, t.sessionID)
	}
	return t.store.Save(ctx, cp)
}

// Resume loads the suspended checkpoint and merges text into it.
// It returns the merged state and the node execution continues at; nothing is
// written until the engine commits its next step.
func (t *Tx) Resume(ctx context.Context, text string, inject Injector) (*domain.Checkpoint, error) {
	cp, err := t.Load(ctx)
	if err != nil {
		return nil, err
	}
	if !cp.Suspended() {
		return nil, fmt.Errorf("%w: %s", ErrNotSuspended, t.sessionID)
	}
	state, err := inject(cp.PendingNode, cp.State, text)
	if err != nil {
		return nil, fmt.Errorf("failed to resume %s at %s: %w", t.sessionID, cp.PendingNode, err)
	}
	out := cp.Clone()
	out.State = state
	return out, nil
}

func (t *Tx) check() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return ErrTxClosed
	}
	return nil
}

func (t *Tx) close() {
	t.mu.Lock()
	t.closed = true
	t.mu.Unlock()
}
