package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRevocation(t *testing.T) {
	ctx := context.Background()
	store, cleanup := createTestStorage(t)
	defer cleanup()

	future := time.Now().Add(time.Hour)

	revoked, err := store.IsTokenRevoked(ctx, "unknown")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, store.RevokeToken(ctx, "token-a", future))
	// Revoking twice is harmless
	require.NoError(t, store.RevokeToken(ctx, "token-a", future))

	revoked, err = store.IsTokenRevoked(ctx, "token-a")
	require.NoError(t, err)
	assert.True(t, revoked)

	t.Run("expired revocations no longer block", func(t *testing.T) {
		past := time.Now().Add(-time.Minute)
		require.NoError(t, store.RevokeToken(ctx, "token-old", past))

		revoked, err := store.IsTokenRevoked(ctx, "token-old")
		require.NoError(t, err)
		assert.False(t, revoked)
	})

	t.Run("purge drops only expired rows", func(t *testing.T) {
		require.NoError(t, store.PurgeExpiredTokens(ctx, time.Now()))

		revoked, err := store.IsTokenRevoked(ctx, "token-a")
		require.NoError(t, err)
		assert.True(t, revoked)
	})
}
