package session

import (
	"context"
	"fmt"
	"testing"

	"github.com/aretw0/squadchat/pkg/domain"
)

type nopStore struct{}

func (nopStore) Save(ctx context.Context, cp *domain.Checkpoint) error { return nil }
func (nopStore) Load(ctx context.Context, sessionID string) (*domain.Checkpoint, error) {
	return nil, domain.ErrSessionNotFound
}
func (nopStore) Delete(ctx context.Context, sessionID string) error { return nil }
func (nopStore) List(ctx context.Context) ([]string, error)         { return nil, nil }

func TestManager_LockLifecycle(t *testing.T) {
	mgr := NewManager(nopStore{})
	ctx := context.Background()
	count := 10000

	for i := 0; i < count; i++ {
		sid := fmt.Sprintf("session-%d", i)
		_ = mgr.Save(ctx, domain.NewCheckpoint(sid, domain.NewConversation("q"), domain.NodeValidate, 0))
		_ = mgr.Delete(ctx, sid)
	}

	if lockCount := len(mgr.locks); lockCount != 0 {
		t.Errorf("Memory Leak Detected: %d locks remaining in memory after Delete", lockCount)
	}
}
