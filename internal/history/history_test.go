package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestRecordAndRecent(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	builds := []*Build{
		{OutputDir: "/out/a", Fingerprint: "aaaaaaaaaaaaaaaa", Seed: 1, Missions: 1, Variants: 2, Spawns: 100, Duration: 50 * time.Millisecond},
		{OutputDir: "/out/b", Fingerprint: "bbbbbbbbbbbbbbbb", Seed: 2, Variants: 40, Spawns: 4000, CacheHit: true},
		{OutputDir: "/out/a", Fingerprint: "cccccccccccccccc", Seed: 1},
	}
	for _, b := range builds {
		require.NoError(t, store.Record(ctx, b))
	}

	recent, err := store.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	for _, b := range recent {
		assert.NotZero(t, b.ID)
		assert.NotZero(t, b.CreatedAt)
	}

	fingerprints := make(map[string]Build)
	for _, b := range recent {
		fingerprints[b.Fingerprint] = b
	}
	assert.Equal(t, 40, fingerprints["bbbbbbbbbbbbbbbb"].Variants)
	assert.True(t, fingerprints["bbbbbbbbbbbbbbbb"].CacheHit)
	assert.Equal(t, 50*time.Millisecond, fingerprints["aaaaaaaaaaaaaaaa"].Duration)
}

func TestRecent_Limit(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, store.Record(ctx, &Build{OutputDir: "/out", Fingerprint: "f"}))
	}

	recent, err := store.Recent(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, recent, 3)
}

func TestRecent_Empty(t *testing.T) {
	store := openTestStore(t)

	recent, err := store.Recent(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, recent)
}

func TestOpen_BadPath(t *testing.T) {
	_, err := Open("/nonexistent/dir/history.db")
	assert.Error(t, err)
}
