package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisStore(t *testing.T) {
	// Skip if no redis configured
	addr := os.Getenv("REDIS_URI")
	if addr == "" {
		t.Skip("Skipping test - no redis configured")
	}

	ctx := context.Background()
	client, err := NewRedisClient(ctx, addr)
	require.NoError(t, err)
	defer client.Close()

	store := NewRedisStore(client, "test-secret", "test")
	defer store.Delete(ctx, KeyPosts)

	_, err = store.Get(ctx, KeyPosts)
	assert.ErrorIs(t, err, ErrMiss)

	fetchedAt := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, store.Set(ctx, KeyPosts, Entry{Data: []byte(`[{"id":1}]`), FetchedAt: fetchedAt}, 0))

	entry, err := store.Get(ctx, KeyPosts)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":1}]`, string(entry.Data))
	assert.True(t, entry.FetchedAt.Equal(fetchedAt))
}
