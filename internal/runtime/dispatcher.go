package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/squadchat/internal/logging"
	"github.com/aretw0/squadchat/pkg/domain"
	"github.com/aretw0/squadchat/pkg/session"
)

// Mode is the dispatcher's decision for an inbound message.
type Mode string

const (
	ModeFresh  Mode = "fresh"
	ModeResume Mode = "resume"
)

// Classify decides how a message is handled given the stored checkpoint (nil when absent).
func Classify(cp *domain.Checkpoint) Mode {
	if cp == nil {
		return ModeFresh
	}
	if cp.State.ClarificationRequest != "" && cp.State.Answer == "" {
		return ModeResume
	}
	return ModeFresh
}

// Dispatcher routes each inbound message to a fresh run or a resume.
// The whole decision and run happen under the session lock.
type Dispatcher struct {
	engine   *Engine
	sessions *session.Manager
	logger   *slog.Logger
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithDispatcherLogger sets the structured logger.
func WithDispatcherLogger(logger *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// NewDispatcher creates a dispatcher over engine and sessions.
func NewDispatcher(engine *Engine, sessions *session.Manager, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		engine:   engine,
		sessions: sessions,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Handle processes one message for sessionID and returns the answer or the clarification prompt.
func (d *Dispatcher) Handle(ctx context.Context, sessionID, text string) (domain.Reply, error) {
	var reply domain.Reply
	err := d.sessions.WithSession(ctx, sessionID, func(ctx context.Context, tx *session.Tx) error {
		cp, err := tx.Load(ctx)
		if err != nil && !errors.Is(err, domain.ErrSessionNotFound) {
			return fmt.Errorf("failed to load session %s: %w", sessionID, err)
		}

		mode := Classify(cp)
		d.logger.DebugContext(ctx, "dispatching message", "session_id", sessionID, "mode", mode)

		var res Result
		switch mode {
		case ModeResume:
			res, err = d.resume(ctx, tx, cp, text)
		default:
			res, err = d.fresh(ctx, tx, text)
		}
		if err != nil {
			return err
		}

		reply = res.Reply()
		d.logger.InfoContext(ctx, "message handled",
			"session_id", sessionID, "mode", mode, "result", res.Kind, "steps", res.Steps)
		return nil
	})
	return reply, err
}

func (d *Dispatcher) fresh(ctx context.Context, tx *session.Tx, text string) (Result, error) {
	state := domain.NewConversation(text)
	entry := d.engine.Definition().Entry()

	// The turn exists from the first message on, even if its first step fails.
	if err := tx.Save(ctx, domain.NewCheckpoint(tx.SessionID(), state, entry, 0)); err != nil {
		return Result{}, fmt.Errorf("failed to create checkpoint: %w", err)
	}
	return d.engine.Run(ctx, tx, tx.SessionID(), state, Cursor{Node: entry})
}

func (d *Dispatcher) resume(ctx context.Context, tx *session.Tx, cp *domain.Checkpoint, text string) (Result, error) {
	def := d.engine.Definition()

	// The clarification was already consumed and a later step failed: retry that step.
	if !def.IsInterrupt(cp.PendingNode) {
		d.logger.InfoContext(ctx, "retrying step after clarification",
			"session_id", tx.SessionID(), "node", cp.PendingNode)
		return d.engine.Run(ctx, tx, tx.SessionID(), cp.State, Cursor{Node: cp.PendingNode, Steps: cp.Steps})
	}

	resumed, err := tx.Resume(ctx, text, def.Inject)
	if err != nil {
		return Result{}, err
	}
	return d.engine.Run(ctx, tx, tx.SessionID(), resumed.State, Cursor{
		Node:     resumed.PendingNode,
		Injected: true,
		Steps:    resumed.Steps,
	})
}
