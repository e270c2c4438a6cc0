package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*RevocationStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRevocationStore(client, "identity:"), mr
}

func TestRevocationStore(t *testing.T) {
	t.Parallel()

	store, mr := newTestStore(t)
	ctx := context.Background()

	revoked, err := store.IsRevoked(ctx, "tok-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, store.Revoke(ctx, "tok-1", time.Now().Add(time.Hour)))
	assert.True(t, mr.Exists("identity:revoked:tok-1"))

	revoked, err = store.IsRevoked(ctx, "tok-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	mr.FastForward(2 * time.Hour)
	revoked, err = store.IsRevoked(ctx, "tok-1")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestRevocationStoreIgnoresExpiredTokens(t *testing.T) {
	t.Parallel()

	store, mr := newTestStore(t)
	require.NoError(t, store.Revoke(context.Background(), "old", time.Now().Add(-time.Minute)))
	assert.False(t, mr.Exists("identity:revoked:old"))
}

func TestRevocationStoreUnavailable(t *testing.T) {
	t.Parallel()

	store, mr := newTestStore(t)
	mr.Close()

	_, err := store.IsRevoked(context.Background(), "tok")
	assert.Error(t, err)
	assert.Error(t, store.Revoke(context.Background(), "tok", time.Now().Add(time.Hour)))
}
