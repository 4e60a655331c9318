package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/sponsorwall/backend/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestOpenSQLite(t *testing.T) {
	cfg := &config.Config{
		StorageDriver: config.StorageDriverSQLite,
		SQLitePath:    filepath.Join(t.TempDir(), "wall.db"),
	}
	store, closeFn, err := Open(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	defer closeFn()

	assert.NotNil(t, store.Campaigns)
	assert.NotNil(t, store.Layouts)
	assert.NotNil(t, store.Sponsorships)
	assert.NotNil(t, store.Transactions)
}

func TestOpenUnknownDriver(t *testing.T) {
	_, _, err := Open(context.Background(), &config.Config{StorageDriver: "mongo"}, zap.NewNop())
	assert.Error(t, err)
}
