package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/squadchat/internal/logging"
	"github.com/aretw0/squadchat/pkg/domain"
	"github.com/aretw0/squadchat/pkg/ports"
)

// DefaultLockTTL is how long a distributed lock survives a crashed holder.
// Lockers implementing ports.ExtendableLocker are renewed every third of it
// while the turn runs; plain lockers bound a turn to one TTL.
const DefaultLockTTL = 30 * time.Second

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager orchestrates session access, ensuring safe concurrent operations.
// It uses reference counting to garbage collect unused locks.
type Manager struct {
	store ports.CheckpointStore

	mu    sync.Mutex
	locks map[string]*lockEntry

	locker  ports.DistributedLocker
	lockTTL time.Duration
	logger  *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL overrides DefaultLockTTL.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.lockTTL = ttl
		}
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a new Session Manager with the given persistence store.
func NewManager(store ports.CheckpointStore, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		locks:   make(map[string]*lockEntry),
		lockTTL: DefaultLockTTL,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(sessionID) after unlocking.
func (m *Manager) acquire(sessionID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		entry = &lockEntry{}
		m.locks[sessionID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, sessionID)
	}
}

// WithSession runs fn while holding the lock for sessionID.
// The Tx is only valid until fn returns. If an extendable distributed lock is
// lost while fn runs, the context given to fn is cancelled with ports.ErrLockLost.
func (m *Manager) WithSession(ctx context.Context, sessionID string, fn func(context.Context, *Tx) error) error {
	if sessionID == "" {
		return ErrEmptySessionID
	}

	entry := m.acquire(sessionID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(sessionID)
	}()

	fnCtx := ctx
	if m.locker != nil {
		unlock, extend, err := m.lockDistributed(ctx, sessionID)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			// The caller's context may already be cancelled; the lock still has to go.
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				m.logger.Warn("failed to release distributed lock, it will expire via TTL",
					"session_id", sessionID,
					"err", err,
				)
			}
		}()
		if extend != nil {
			var stop func()
			fnCtx, stop = m.keepAlive(ctx, sessionID, extend)
			defer stop()
		}
	}

	tx := &Tx{sessionID: sessionID, store: m.store}
	defer tx.close()
	return fn(fnCtx, tx)
}

func (m *Manager) lockDistributed(ctx context.Context, sessionID string) (ports.UnlockFunc, ports.ExtendFunc, error) {
	if l, ok := m.locker.(ports.ExtendableLocker); ok {
		return l.LockExtendable(ctx, sessionID, m.lockTTL)
	}
	unlock, err := m.locker.Lock(ctx, sessionID, m.lockTTL)
	return unlock, nil, err
}

// keepAlive extends the distributed lock every third of its TTL until stop
// is called. Transient failures are retried on the next tick; a lost lock
// cancels the returned context.
func (m *Manager) keepAlive(ctx context.Context, sessionID string, extend ports.ExtendFunc) (context.Context, func()) {
	ctx, cancel := context.WithCancelCause(ctx)
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(max(m.lockTTL/3, time.Millisecond))
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				err := extend(ctx, m.lockTTL)
				if err == nil {
					continue
				}
				if errors.Is(err, ports.ErrLockLost) {
					m.logger.Error("distributed lock lost, abandoning turn", "session_id", sessionID, "err", err)
					cancel(err)
					return
				}
				m.logger.Warn("failed to extend distributed lock", "session_id", sessionID, "err", err)
			}
		}
	}()
	return ctx, func() {
		close(done)
		wg.Wait()
		cancel(nil)
	}
}

// Load retrieves a checkpoint under the session lock.
func (m *Manager) Load(ctx context.Context, sessionID string) (*domain.Checkpoint, error) {
	var cp *domain.Checkpoint
	err := m.WithSession(ctx, sessionID, func(ctx context.Context, tx *Tx) error {
		var err error
		cp, err = tx.Load(ctx)
		return err
	})
	return cp, err
}

// Save persists a checkpoint under the session lock.
func (m *Manager) Save(ctx context.Context, cp *domain.Checkpoint) error {
	return m.WithSession(ctx, cp.SessionID, func(ctx context.Context, tx *Tx) error {
		return tx.Save(ctx, cp)
	})
}

// Delete removes the session from the store.
func (m *Manager) Delete(ctx context.Context, sessionID string) error {
	return m.WithSession(ctx, sessionID, func(ctx context.Context, tx *Tx) error {
		return m.store.Delete(ctx, sessionID)
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Store returns the underlying checkpoint store.
func (m *Manager) Store() ports.CheckpointStore {
	return m.store
}
