package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reqflux/reqflux/internal/domain"
)

func TestStore_OpenMigratesAndRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")

	store, err := Open(path, nil)
	require.NoError(t, err)
	defer store.Close()

	err = store.Record(context.Background(), domain.HistoryRecord{
		ItemID:    "item-1",
		Endpoint:  "https://example.com",
		Priority:  domain.PriorityHigh,
		Attempts:  2,
		Success:   false,
		Error:     "timeout",
		Duration:  time.Second,
		CreatedAt: time.Now(),
	})
	assert.NoError(t, err)
}

func TestStore_ReopenRunsMigrationsIdempotently(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")

	store1, err := Open(path, nil)
	require.NoError(t, err)
	require.NoError(t, store1.Close())

	store2, err := Open(path, nil)
	require.NoError(t, err)
	defer store2.Close()
}
