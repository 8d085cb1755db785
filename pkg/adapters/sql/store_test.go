package sql_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/aretw0/squadchat/pkg/adapters/sql"
	"github.com/aretw0/squadchat/pkg/domain"
	"github.com/aretw0/squadchat/pkg/ports"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestSQLStore_Contract(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	store, err := sql.New(db)
	require.NoError(t, err)
	ports.RunCheckpointStoreContract(t, store)
}

func TestSQLStore_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "squadchat.db")
	ctx := context.Background()

	store, err := sql.OpenSQLite(path)
	require.NoError(t, err)

	state := domain.NewConversation("gunners?")
	state.ClarificationRequest = "Did you mean arsenal?"
	require.NoError(t, store.Save(ctx, domain.NewCheckpoint("s1", state, domain.NodeInterpretClarification, 3)))
	require.NoError(t, store.Close())

	reopened, err := sql.OpenSQLite(path)
	require.NoError(t, err)
	defer reopened.Close()

	cp, err := reopened.Load(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, cp.Suspended())
	assert.Equal(t, domain.NodeInterpretClarification, cp.PendingNode)
	assert.Equal(t, "Did you mean arsenal?", cp.State.ClarificationRequest)
}
