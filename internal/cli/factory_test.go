package cli

import (
	"bytes"
	"context"
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/squadchat/internal/config"
	"github.com/aretw0/squadchat/internal/logging"
	"github.com/aretw0/squadchat/internal/testutils"
	"github.com/aretw0/squadchat/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenStore_Backends(t *testing.T) {
	mr := miniredis.RunT(t)
	dir := t.TempDir()

	tests := []struct {
		name       string
		cfg        config.StoreConfig
		wantLocker bool
	}{
		{name: "memory", cfg: config.StoreConfig{Backend: config.BackendMemory}},
		{name: "file", cfg: config.StoreConfig{Backend: config.BackendFile, Path: filepath.Join(dir, "sessions")}},
		{name: "sql", cfg: config.StoreConfig{Backend: config.BackendSQL, Path: filepath.Join(dir, "squadchat.db")}},
		{name: "redis", cfg: config.StoreConfig{Backend: config.BackendRedis, RedisAddr: mr.Addr(), TTL: time.Hour}, wantLocker: true},
		{
			name: "encrypted memory",
			cfg: config.StoreConfig{
				Backend:       config.BackendMemory,
				EncryptionKey: base64.StdEncoding.EncodeToString([]byte("0123456789abcdef0123456789abcdef")),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			store, locker, closer, err := OpenStore(tt.cfg, logging.NewNop())
			require.NoError(t, err)
			if closer != nil {
				t.Cleanup(func() { _ = closer() })
			}
			assert.Equal(t, tt.wantLocker, locker != nil)

			cp := domain.NewCheckpoint("s1", domain.NewConversation("who plays for arsenal?"), domain.NodeInterpretClarification, 3)
			require.NoError(t, store.Save(ctx, cp))

			loaded, err := store.Load(ctx, "s1")
			require.NoError(t, err)
			assert.Equal(t, domain.NodeInterpretClarification, loaded.PendingNode)
			assert.Equal(t, "who plays for arsenal?", loaded.State.Query)
		})
	}
}

func TestOpenStore_Errors(t *testing.T) {
	_, _, _, err := OpenStore(config.StoreConfig{Backend: "etcd"}, logging.NewNop())
	assert.ErrorContains(t, err, "unknown store backend")

	_, _, _, err = OpenStore(config.StoreConfig{Backend: config.BackendMemory, EncryptionKey: "c2hvcnQ="}, logging.NewNop())
	assert.ErrorContains(t, err, "32 bytes")

	key := base64.StdEncoding.EncodeToString([]byte("0123456789abcdef0123456789abcdef"))
	_, _, _, err = OpenStore(config.StoreConfig{Backend: config.BackendMemory, EncryptionKey: key, FallbackKeys: []string{"c2hvcnQ="}}, logging.NewNop())
	assert.ErrorContains(t, err, "fallback key 0")
}

func TestOpenStore_RotatesEncryptionKey(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "sessions")
	oldKey := base64.StdEncoding.EncodeToString([]byte("0123456789abcdef0123456789abcdef"))
	newKey := base64.StdEncoding.EncodeToString([]byte("fedcba9876543210fedcba9876543210"))

	before, _, _, err := OpenStore(config.StoreConfig{Backend: config.BackendFile, Path: dir, EncryptionKey: oldKey}, logging.NewNop())
	require.NoError(t, err)
	cp := domain.NewCheckpoint("s1", domain.NewConversation("who plays for arsenal?"), domain.NodeInterpretClarification, 3)
	require.NoError(t, before.Save(ctx, cp))

	withoutFallback, _, _, err := OpenStore(config.StoreConfig{Backend: config.BackendFile, Path: dir, EncryptionKey: newKey}, logging.NewNop())
	require.NoError(t, err)
	_, err = withoutFallback.Load(ctx, "s1")
	require.Error(t, err, "the old checkpoint is unreadable with only the new key")

	after, _, _, err := OpenStore(config.StoreConfig{
		Backend:       config.BackendFile,
		Path:          dir,
		EncryptionKey: newKey,
		FallbackKeys:  []string{oldKey},
	}, logging.NewNop())
	require.NoError(t, err)
	loaded, err := after.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "who plays for arsenal?", loaded.State.Query)
}

func TestNewRoster(t *testing.T) {
	_, err := NewRoster(config.RosterConfig{Source: config.RosterLocal, CachePath: filepath.Join(t.TempDir(), "missing.json")}, logging.NewNop())
	assert.ErrorContains(t, err, "failed to load roster cache")

	provider, err := NewRoster(config.RosterConfig{Source: config.RosterSportsDB, APIKey: "3"}, logging.NewNop())
	require.NoError(t, err)
	assert.NotNil(t, provider)

	_, err = NewRoster(config.RosterConfig{Source: "fixture"}, logging.NewNop())
	assert.Error(t, err)
}

func TestBuild_WithCollaborators(t *testing.T) {
	cfg := config.Default()
	reg := prometheus.NewRegistry()

	var finished []domain.Outcome
	stack, err := Build(context.Background(), cfg, logging.NewNop(), BuildOptions{
		Registerer: reg,
		Inference:  testutils.NewInference("arsenal"),
		Roster:     testutils.NewRoster(testutils.Squad("arsenal")),
		Hooks: domain.LifecycleHooks{
			OnFinish: func(_ context.Context, e *domain.NodeEvent) { finished = append(finished, e.Outcome) },
		},
	})
	require.NoError(t, err)
	defer stack.Close()

	reply, err := stack.Assistant.Handle(context.Background(), "s1", "Who plays for Arsenal?")
	require.NoError(t, err)
	assert.Equal(t, domain.ReplyAnswer, reply.Kind)
	assert.Len(t, finished, 1)

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, mf := range families {
		names = append(names, mf.GetName())
	}
	assert.Contains(t, names, "squadchat_node_visits_total")
}

func TestBuild_RejectsInvalidConfig(t *testing.T) {
	cfg := config.Default()

	_, err := Build(context.Background(), cfg, logging.NewNop(), BuildOptions{})
	assert.ErrorContains(t, err, "OPENAI_API_KEY")
}

func TestNewLogger(t *testing.T) {
	logger, closeLog, err := NewLogger(&testWriter{}, "debug", "")
	require.NoError(t, err)
	assert.NotNil(t, logger)
	assert.NoError(t, closeLog())

	_, _, err = NewLogger(&testWriter{}, "loud", "")
	assert.Error(t, err)
}

func TestNewLogger_TeesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "squadchat.log")
	var stderr bytes.Buffer

	logger, closeLog, err := NewLogger(&stderr, "info", path)
	require.NoError(t, err)
	logger.Info("session resumed", "session", "s1")
	logger.Debug("hidden")
	require.NoError(t, closeLog())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "session resumed")
	assert.NotContains(t, string(data), "hidden")
	assert.Equal(t, stderr.String(), string(data))

	// Appends across runs.
	logger, closeLog, err = NewLogger(&stderr, "info", path)
	require.NoError(t, err)
	logger.Info("second run")
	require.NoError(t, closeLog())
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "session resumed")
	assert.Contains(t, string(data), "second run")
}

type testWriter struct{}

func (testWriter) Write(p []byte) (int, error) { return len(p), nil }

func TestSignalContext_CancelStopsListening(t *testing.T) {
	sc := NewSignalContext(context.Background())
	sc.Cancel()

	select {
	case <-sc.Done():
	case <-time.After(time.Second):
		t.Fatal("context was not cancelled")
	}
	assert.Nil(t, sc.Signal())
	sc.Cancel()
}
