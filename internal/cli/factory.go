package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/squadchat"
	"github.com/aretw0/squadchat/internal/config"
	"github.com/aretw0/squadchat/pkg/adapters/file"
	"github.com/aretw0/squadchat/pkg/adapters/memory"
	"github.com/aretw0/squadchat/pkg/adapters/redis"
	"github.com/aretw0/squadchat/pkg/adapters/sql"
	"github.com/aretw0/squadchat/pkg/domain"
	"github.com/aretw0/squadchat/pkg/inference"
	"github.com/aretw0/squadchat/pkg/observability"
	"github.com/aretw0/squadchat/pkg/persistence/middleware"
	"github.com/aretw0/squadchat/pkg/ports"
	"github.com/aretw0/squadchat/pkg/roster"
	"github.com/prometheus/client_golang/prometheus"
)

// lockPrefix namespaces the per-session locks next to the checkpoints.
const lockPrefix = "squadchat:"

// Stack is the assistant plus the resources it owns.
type Stack struct {
	Assistant *squadchat.Assistant
	Store     ports.CheckpointStore
	Roster    ports.RosterProvider
	closers   []func() error
}

// Close releases the stack's connections, last opened first.
func (s *Stack) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		errs = append(errs, s.closers[i]())
	}
	return errors.Join(errs...)
}

// BuildOptions carries the optional observers of a stack.
type BuildOptions struct {
	// Registerer receives the workflow metrics. Nil disables them.
	Registerer prometheus.Registerer
	// Hooks are chained after the logging and metrics hooks.
	Hooks domain.LifecycleHooks
	// Inference and Roster replace the configured collaborators when set.
	Inference ports.TextInference
	Roster    ports.RosterProvider
}

// Build validates cfg and wires the whole assistant.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts BuildOptions) (*Stack, error) {
	if opts.Inference == nil || opts.Roster == nil {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	} else if err := cfg.ValidateStore(); err != nil {
		return nil, err
	}

	inf := opts.Inference
	if inf == nil {
		var err error
		if inf, err = NewInference(ctx, cfg.Model, logger); err != nil {
			return nil, err
		}
	}
	provider := opts.Roster
	if provider == nil {
		var err error
		if provider, err = NewRoster(cfg.Roster, logger); err != nil {
			return nil, err
		}
	}

	stack := &Stack{Roster: provider}
	store, locker, closer, err := OpenStore(cfg.Store, logger)
	if err != nil {
		return nil, err
	}
	stack.Store = store
	if closer != nil {
		stack.closers = append(stack.closers, closer)
	}

	hooks := domain.ChainHooks(
		observability.LogHooks(logger),
		observability.NewMetrics(opts.Registerer).Hooks(),
		opts.Hooks,
	)

	assistantOpts := []squadchat.Option{
		squadchat.WithStore(store),
		squadchat.WithLogger(logger),
		squadchat.WithLifecycleHooks(hooks),
	}
	if locker != nil {
		assistantOpts = append(assistantOpts, squadchat.WithLocker(locker))
	}

	assistant, err := squadchat.New(inf, provider, assistantOpts...)
	if err != nil {
		_ = stack.Close()
		return nil, fmt.Errorf("error initializing assistant: %w", err)
	}
	stack.Assistant = assistant
	return stack, nil
}

// NewInference builds the text inference client for the configured provider.
func NewInference(ctx context.Context, cfg config.ModelConfig, logger *slog.Logger) (ports.TextInference, error) {
	var completer inference.Completer
	switch cfg.Provider {
	case config.ProviderAzure:
		c, err := inference.NewAzureCompleter(cfg.AzureEndpoint, cfg.AzureAPIKey, cfg.Name)
		if err != nil {
			return nil, err
		}
		completer = c
	case config.ProviderOpenAI:
		chatModel, err := inference.NewOpenAIModel(ctx, inference.OpenAIConfig{
			APIKey:    cfg.APIKey,
			BaseURL:   cfg.BaseURL,
			Model:     cfg.Name,
			MaxTokens: cfg.MaxTokens,
		})
		if err != nil {
			return nil, err
		}
		completer = inference.NewEinoCompleter(chatModel)
	default:
		return nil, fmt.Errorf("unknown model provider %q", cfg.Provider)
	}
	logger.Debug("Inference ready", "provider", cfg.Provider, "model", cfg.Name)
	return inference.NewClient(completer, inference.WithLogger(logger)), nil
}

// NewRoster opens the configured roster source.
func NewRoster(cfg config.RosterConfig, logger *slog.Logger) (ports.RosterProvider, error) {
	switch cfg.Source {
	case config.RosterLocal:
		local, err := roster.LoadLocal(cfg.CachePath)
		if err != nil {
			return nil, fmt.Errorf("failed to load roster cache: %w", err)
		}
		return local, nil
	case config.RosterSportsDB:
		return NewSportsDB(cfg, logger), nil
	default:
		return nil, fmt.Errorf("unknown roster source %q", cfg.Source)
	}
}

// NewSportsDB builds the remote roster client from cfg.
func NewSportsDB(cfg config.RosterConfig, logger *slog.Logger) *roster.SportsDB {
	opts := []roster.SportsDBOption{roster.WithLogger(logger)}
	if cfg.BaseURL != "" {
		opts = append(opts, roster.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, roster.WithTimeout(cfg.Timeout))
	}
	return roster.NewSportsDB(cfg.APIKey, opts...)
}

// OpenStore opens the checkpoint store for cfg, wrapped in encryption when a
// key is set. The locker is nil for single-process backends. The closer may be nil.
func OpenStore(cfg config.StoreConfig, logger *slog.Logger) (ports.CheckpointStore, ports.DistributedLocker, func() error, error) {
	var (
		store  ports.CheckpointStore
		locker ports.DistributedLocker
		closer func() error
	)

	switch cfg.Backend {
	case config.BackendMemory, "":
		store = memory.NewStore()
	case config.BackendFile:
		store = file.New(cfg.Path)
	case config.BackendRedis:
		rs := redis.New(cfg.RedisAddr, "", 0, redis.WithTTL(cfg.TTL))
		store = rs
		locker = redis.NewLocker(rs.Client(), lockPrefix)
		closer = rs.Close
	case config.BackendSQL:
		ss, err := sql.OpenSQLite(cfg.Path)
		if err != nil {
			return nil, nil, nil, err
		}
		store = ss
		closer = ss.Close
	default:
		return nil, nil, nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}

	key, fallback, err := cfg.Keys()
	if err != nil {
		if closer != nil {
			_ = closer()
		}
		return nil, nil, nil, err
	}
	if key != nil {
		mw, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
			ActiveKey:    key,
			FallbackKeys: fallback,
		})
		if err != nil {
			if closer != nil {
				_ = closer()
			}
			return nil, nil, nil, err
		}
		store = middleware.Chain(store, mw)
	}

	logger.Debug("Session store ready", "backend", cfg.Backend, "encrypted", key != nil, "fallback_keys", len(fallback))
	return store, locker, closer, nil
}
