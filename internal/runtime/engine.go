package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/squadchat/internal/logging"
	"github.com/aretw0/squadchat/pkg/domain"
	"github.com/aretw0/squadchat/pkg/workflow"
)

// DefaultMaxSteps bounds a single run so a miswired cycle cannot spin forever.
const DefaultMaxSteps = 32

// Saver persists the checkpoints produced by a run.
// Both ports.CheckpointStore and session.Tx satisfy it.
type Saver interface {
	Save(ctx context.Context, cp *domain.Checkpoint) error
}

// Cursor tells the engine where a run starts.
type Cursor struct {
	Node domain.NodeID

	// Injected is true when the resumed message was already merged into the state.
	// It only applies to the first node visited.
	Injected bool

	// Steps carries the committed step count of the turn being continued.
	Steps int
}

// Engine drives a workflow Definition for one session at a time.
// It holds no per-session state, so a single Engine serves every session.
type Engine struct {
	def      *workflow.Definition
	logger   *slog.Logger
	hooks    domain.LifecycleHooks
	maxSteps int
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithLifecycleHooks registers observability callbacks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) EngineOption {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithMaxSteps overrides DefaultMaxSteps.
func WithMaxSteps(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.maxSteps = n
		}
	}
}

// NewEngine creates a new engine for def.
func NewEngine(def *workflow.Definition, opts ...EngineOption) *Engine {
	e := &Engine{
		def:      def,
		logger:   logging.NewNop(),
		maxSteps: DefaultMaxSteps,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Definition returns the graph the engine runs.
func (e *Engine) Definition() *workflow.Definition {
	return e.def
}

// Run drives the graph from cur until the run suspends or terminates.
//
// A checkpoint is saved after every committed step and on suspension. When a
// handler fails nothing is saved for that step, so the previous checkpoint stays
// the resumable point.
func (e *Engine) Run(ctx context.Context, saver Saver, sessionID string, state domain.ConversationState, cur Cursor) (Result, error) {
	if !e.def.Has(cur.Node) {
		return Result{}, fmt.Errorf("%w: run cannot start at %s", domain.ErrInvariantViolation, cur.Node)
	}

	node := cur.Node
	injected := cur.Injected
	steps := cur.Steps
	state = state.Clone()

	for visited := 0; ; visited++ {
		if visited >= e.maxSteps {
			return Result{}, fmt.Errorf("%w: exceeded %d steps without suspending or finishing", domain.ErrInvariantViolation, e.maxSteps)
		}
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}

		next, status, err := e.step(ctx, saver, sessionID, node, state, injected, steps)
		if err != nil {
			return Result{}, err
		}
		injected = false

		switch status.Kind {
		case StatusSuspend:
			return Result{Kind: Suspended, State: next, Pending: node, Steps: steps}, nil
		case StatusTerminate:
			return Result{Kind: Finished, State: next, Pending: domain.Terminal, Steps: steps + 1}, nil
		case StatusContinue:
			state = next
			node = status.Next
			steps++
		default:
			return Result{}, fmt.Errorf("%w: unknown step status %d", domain.ErrInvariantViolation, status.Kind)
		}
	}
}

// step executes one iteration of the loop.
func (e *Engine) step(ctx context.Context, saver Saver, sessionID string, node domain.NodeID, state domain.ConversationState, injected bool, steps int) (domain.ConversationState, StepStatus, error) {
	if e.def.IsInterrupt(node) && !injected {
		if !state.AwaitingClarification() {
			return state, StepStatus{}, fmt.Errorf("%w: suspending at %s without a clarification request", domain.ErrInvariantViolation, node)
		}
		if err := saver.Save(ctx, domain.NewCheckpoint(sessionID, state, node, steps)); err != nil {
			return state, StepStatus{}, fmt.Errorf("failed to save checkpoint for %s: %w", sessionID, err)
		}
		e.logger.DebugContext(ctx, "suspended", "session_id", sessionID, "node", node)
		e.emit(ctx, e.hooks.OnSuspend, &domain.NodeEvent{Type: domain.EventSuspend, SessionID: sessionID, NodeID: node})
		return state, Suspend(), nil
	}

	e.emit(ctx, e.hooks.OnNodeEnter, &domain.NodeEvent{Type: domain.EventNodeEnter, SessionID: sessionID, NodeID: node})

	start := time.Now()
	next, outcome, err := e.def.Run(ctx, node, state)
	elapsed := time.Since(start)
	if err != nil {
		e.logger.DebugContext(ctx, "step failed", "session_id", sessionID, "node", node, "err", err)
		e.emit(ctx, e.hooks.OnNodeLeave, &domain.NodeEvent{
			Type: domain.EventNodeLeave, SessionID: sessionID, NodeID: node, Duration: elapsed, Err: err,
		})
		return state, StepStatus{}, fmt.Errorf("step %s: %w", node, err)
	}

	target, err := e.def.Route(node, outcome)
	if err != nil {
		return state, StepStatus{}, err
	}
	if err := checkState(next, target); err != nil {
		return state, StepStatus{}, fmt.Errorf("step %s: %w", node, err)
	}

	if err := saver.Save(ctx, domain.NewCheckpoint(sessionID, next, target, steps+1)); err != nil {
		return state, StepStatus{}, fmt.Errorf("failed to save checkpoint for %s: %w", sessionID, err)
	}

	if diff := domain.Diff(state, next); diff != nil {
		e.logger.DebugContext(ctx, "step committed",
			"session_id", sessionID, "node", node, "outcome", outcome, "next", target,
			"changed", diff.Fields(), "duration", elapsed)
	} else {
		e.logger.DebugContext(ctx, "step committed",
			"session_id", sessionID, "node", node, "outcome", outcome, "next", target, "duration", elapsed)
	}

	e.emit(ctx, e.hooks.OnNodeLeave, &domain.NodeEvent{
		Type: domain.EventNodeLeave, SessionID: sessionID, NodeID: node, Outcome: outcome, Duration: elapsed,
	})

	if target == domain.Terminal {
		e.emit(ctx, e.hooks.OnFinish, &domain.NodeEvent{Type: domain.EventFinish, SessionID: sessionID, NodeID: node, Outcome: outcome})
		return next, Terminate(), nil
	}
	return next, Continue(target), nil
}

func (e *Engine) emit(ctx context.Context, hook func(context.Context, *domain.NodeEvent), ev *domain.NodeEvent) {
	if hook == nil {
		return
	}
	ev.Timestamp = time.Now()
	hook(ctx, ev)
}

// checkState enforces the state invariants that must hold after every committed step.
func checkState(s domain.ConversationState, target domain.NodeID) error {
	var errs []error
	if s.Success && (s.Answer == "" || s.Squad == nil) {
		errs = append(errs, errors.New("success without answer and squad"))
	}
	if s.TeamFound && s.TeamName == "" {
		errs = append(errs, errors.New("team found without a team name"))
	}
	if target == domain.Terminal && !s.Finished() {
		errs = append(errs, errors.New("finished without an answer"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", domain.ErrInvariantViolation, errors.Join(errs...))
	}
	return nil
}
