package squadchat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/squadchat/internal/flow"
	"github.com/aretw0/squadchat/internal/logging"
	"github.com/aretw0/squadchat/internal/presentation/graph"
	"github.com/aretw0/squadchat/internal/runtime"
	"github.com/aretw0/squadchat/pkg/adapters/memory"
	"github.com/aretw0/squadchat/pkg/domain"
	"github.com/aretw0/squadchat/pkg/ports"
	"github.com/aretw0/squadchat/pkg/session"
	"github.com/aretw0/squadchat/pkg/workflow"
	"github.com/google/uuid"
)

// Version is the release of the squadchat library and CLI.
const Version = "0.1.0"

// Assistant answers roster questions, one conversation per session id.
// It is safe for concurrent use; messages for the same session are serialized.
type Assistant struct {
	dispatcher *runtime.Dispatcher
	engine     *runtime.Engine
	sessions   *session.Manager

	store        ports.CheckpointStore
	locker       ports.DistributedLocker
	hooks        domain.LifecycleHooks
	logger       *slog.Logger
	maxSteps     int
	maxInputSize int
}

var _ ports.Conversation = (*Assistant)(nil)

// Option defines a functional option for configuring the Assistant.
type Option func(*Assistant)

// WithStore sets the checkpoint backend (default: in memory).
func WithStore(store ports.CheckpointStore) Option {
	return func(a *Assistant) {
		a.store = store
	}
}

// WithLocker serializes sessions across processes sharing the store.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(a *Assistant) {
		a.locker = locker
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(a *Assistant) {
		a.hooks = hooks
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Assistant) {
		a.logger = logger
	}
}

// WithMaxSteps bounds the steps of a single turn.
func WithMaxSteps(n int) Option {
	return func(a *Assistant) {
		a.maxSteps = n
	}
}

// WithMaxInputSize overrides DefaultMaxInputSize.
func WithMaxInputSize(n int) Option {
	return func(a *Assistant) {
		a.maxInputSize = n
	}
}

// New builds an Assistant over the given collaborators.
func New(inference ports.TextInference, roster ports.RosterProvider, opts ...Option) (*Assistant, error) {
	if inference == nil || roster == nil {
		return nil, errors.New("inference and roster are required")
	}

	a := &Assistant{
		logger:       logging.NewNop(),
		maxSteps:     runtime.DefaultMaxSteps,
		maxInputSize: DefaultMaxInputSize,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.store == nil {
		a.store = memory.NewStore()
	}

	def, err := flow.NewGraph(flow.NewHandlers(inference, roster, flow.WithLogger(a.logger)))
	if err != nil {
		return nil, fmt.Errorf("failed to build workflow: %w", err)
	}

	a.engine = runtime.NewEngine(def,
		runtime.WithLogger(a.logger),
		runtime.WithLifecycleHooks(a.hooks),
		runtime.WithMaxSteps(a.maxSteps),
	)

	sessionOpts := []session.Option{session.WithLogger(a.logger)}
	if a.locker != nil {
		sessionOpts = append(sessionOpts, session.WithLocker(a.locker))
	}
	a.sessions = session.NewManager(a.store, sessionOpts...)
	a.dispatcher = runtime.NewDispatcher(a.engine, a.sessions, runtime.WithDispatcherLogger(a.logger))

	return a, nil
}

// NewSessionID returns a fresh random session id.
func NewSessionID() string {
	return uuid.NewString()
}

// Handle processes one user message. The reply is either the answer or a
// clarification question; in the latter case the next message for the same
// session is read as the clarification answer.
func (a *Assistant) Handle(ctx context.Context, sessionID, text string) (domain.Reply, error) {
	clean, err := SanitizeInput(text, a.maxInputSize)
	if err != nil {
		return domain.Reply{}, err
	}
	return a.dispatcher.Handle(ctx, sessionID, clean)
}

// Session returns the stored checkpoint, or domain.ErrSessionNotFound.
func (a *Assistant) Session(ctx context.Context, sessionID string) (*domain.Checkpoint, error) {
	return a.sessions.Load(ctx, sessionID)
}

// Sessions lists the ids of stored sessions.
func (a *Assistant) Sessions(ctx context.Context) ([]string, error) {
	return a.sessions.List(ctx)
}

// Reset forgets a session; its next message starts a fresh turn.
func (a *Assistant) Reset(ctx context.Context, sessionID string) error {
	return a.sessions.Delete(ctx, sessionID)
}

// Definition exposes the compiled workflow for introspection.
func (a *Assistant) Definition() *workflow.Definition {
	return a.engine.Definition()
}

// Graph renders the workflow as Mermaid. When sessionID names a suspended
// session its pending node is highlighted.
func (a *Assistant) Graph(ctx context.Context, sessionID string) (string, error) {
	if sessionID == "" {
		return graph.GenerateMermaid(a.Definition(), nil), nil
	}
	cp, err := a.sessions.Load(ctx, sessionID)
	if err != nil {
		return "", err
	}
	return graph.GenerateMermaid(a.Definition(), &graph.Overlay{Pending: cp.PendingNode}), nil
}
