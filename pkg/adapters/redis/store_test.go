package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/squadchat/pkg/adapters/redis"
	"github.com/aretw0/squadchat/pkg/domain"
	"github.com/aretw0/squadchat/pkg/ports"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T) (*miniredis.Miniredis, *backend.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisStore_Contract(t *testing.T) {
	_, client := newClient(t)
	ports.RunCheckpointStoreContract(t, redis.NewFromClient(client))
}

func TestRedisStore_TTL(t *testing.T) {
	mr, client := newClient(t)
	store := redis.NewFromClient(client, redis.WithTTL(time.Minute), redis.WithPrefix("test:"))
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, domain.NewCheckpoint("s1", domain.NewConversation("q"), domain.NodeValidate, 0)))
	assert.True(t, mr.Exists("test:cp:s1"))
	assert.Equal(t, time.Minute, mr.TTL("test:cp:s1"))

	mr.FastForward(2 * time.Minute)
	_, err := store.Load(ctx, "s1")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestRedisStore_ListPrunesExpired(t *testing.T) {
	mr, client := newClient(t)
	store := redis.NewFromClient(client)
	ctx := context.Background()

	_, err := mr.ZAdd(redis.DefaultPrefix+"index", float64(time.Now().Add(-time.Hour).Unix()), "stale")
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, domain.NewCheckpoint("live", domain.NewConversation("q"), domain.NodeValidate, 0)))

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"live"}, ids)
}
