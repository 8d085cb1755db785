package domain

import "time"

// Checkpoint is the unit persisted per session: the state plus the node to run next.
type Checkpoint struct {
	SessionID string            `json:"session_id"`
	State     ConversationState `json:"state"`

	// PendingNode is the node execution resumes at. Terminal once the turn finished.
	PendingNode NodeID `json:"pending_node"`

	// Steps counts committed steps since the turn started.
	Steps int `json:"steps"`

	UpdatedAt time.Time `json:"updated_at"`

	// Sealed carries the encrypted state when the store is wrapped by an
	// encryption middleware. State is zero while Sealed is set.
	Sealed []byte `json:"sealed,omitempty"`
}

// NewCheckpoint builds a checkpoint stamped with the current time.
func NewCheckpoint(sessionID string, state ConversationState, pending NodeID, steps int) *Checkpoint {
	return &Checkpoint{
		SessionID:   sessionID,
		State:       state.Clone(),
		PendingNode: pending,
		Steps:       steps,
		UpdatedAt:   time.Now().UTC(),
	}
}

// Clone returns a deep copy of the checkpoint.
func (c *Checkpoint) Clone() *Checkpoint {
	if c == nil {
		return nil
	}
	out := *c
	out.State = c.State.Clone()
	if c.Sealed != nil {
		out.Sealed = append([]byte(nil), c.Sealed...)
	}
	return &out
}

// Suspended reports whether the checkpoint waits on a clarification answer.
func (c *Checkpoint) Suspended() bool {
	return c != nil && c.State.AwaitingClarification()
}
