package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mtobin/pennywise/internal/model"
)

// createTestStorage returns a migrated in-memory store and a cleanup func.
func createTestStorage(t *testing.T) (*SQLiteStorage, func()) {
	t.Helper()

	store, err := NewSQLiteStorage(":memory:")
	require.NoError(t, err)

	require.NoError(t, store.Migrate(context.Background()))

	return store, func() { _ = store.Close() }
}

// seedUser creates a user for ownership-scoped tests.
func seedUser(t *testing.T, store *SQLiteStorage, username string) *model.User {
	t.Helper()

	user, err := store.CreateUser(context.Background(), &model.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "hash",
	})
	require.NoError(t, err)
	return user
}

func TestMigrateIsIdempotent(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()

	// Second run is a no-op
	require.NoError(t, store.Migrate(context.Background()))
}

func TestBeginTxCommitAndRollback(t *testing.T) {
	ctx := context.Background()
	store, cleanup := createTestStorage(t)
	defer cleanup()

	user := seedUser(t, store, "alice")

	t.Run("rollback discards writes", func(t *testing.T) {
		tx, err := store.BeginTx(ctx)
		require.NoError(t, err)

		_, err = tx.CreateTag(ctx, &model.Tag{Name: "food", UserID: user.ID})
		require.NoError(t, err)
		require.NoError(t, tx.Rollback())

		tags, err := store.ListTags(ctx, user.ID)
		require.NoError(t, err)
		require.Empty(t, tags)
	})

	t.Run("commit keeps writes", func(t *testing.T) {
		tx, err := store.BeginTx(ctx)
		require.NoError(t, err)

		_, err = tx.CreateTag(ctx, &model.Tag{Name: "food", UserID: user.ID})
		require.NoError(t, err)
		require.NoError(t, tx.Commit())

		tags, err := store.ListTags(ctx, user.ID)
		require.NoError(t, err)
		require.Len(t, tags, 1)
	})

	t.Run("nested transactions rejected", func(t *testing.T) {
		tx, err := store.BeginTx(ctx)
		require.NoError(t, err)
		defer func() { _ = tx.Rollback() }()

		_, err = tx.BeginTx(ctx)
		require.Error(t, err)
	})
}
