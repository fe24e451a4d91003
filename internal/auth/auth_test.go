package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mtobin/pennywise/internal/auth"
	"github.com/mtobin/pennywise/internal/common"
	"github.com/mtobin/pennywise/internal/testutil"
)

func newTestService(t *testing.T) *auth.Service {
	t.Helper()
	store := testutil.SetupTestDB(t)
	svc, err := auth.New(store, []byte("test-secret"), time.Hour)
	require.NoError(t, err)
	return svc
}

func TestNew(t *testing.T) {
	store := testutil.SetupTestDB(t)

	_, err := auth.New(store, nil, time.Hour)
	require.ErrorIs(t, err, common.ErrMissingConfig)

	svc, err := auth.New(store, []byte("secret"), 0)
	require.NoError(t, err)
	assert.NotNil(t, svc)
}

func TestRegister(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	t.Run("success", func(t *testing.T) {
		user, err := svc.Register(ctx, "alice", "alice@example.com", "correct horse", "USD")
		require.NoError(t, err)
		assert.Positive(t, user.ID)
		assert.Zero(t, user.Budget)
		// The raw password never comes back
		assert.NotEqual(t, "correct horse", user.PasswordHash)
	})

	t.Run("duplicate username", func(t *testing.T) {
		_, err := svc.Register(ctx, "alice", "other@example.com", "correct horse", "USD")
		require.ErrorIs(t, err, common.ErrDuplicateEntry)
	})

	t.Run("short password", func(t *testing.T) {
		_, err := svc.Register(ctx, "bob", "bob@example.com", "short", "USD")
		require.ErrorIs(t, err, common.ErrInvalidInput)
	})

	t.Run("missing fields", func(t *testing.T) {
		_, err := svc.Register(ctx, "", "bob@example.com", "correct horse", "USD")
		require.ErrorIs(t, err, common.ErrInvalidInput)
	})
}

func TestLoginAndAuthenticate(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	user, err := svc.Register(ctx, "alice", "alice@example.com", "correct horse", "USD")
	require.NoError(t, err)

	t.Run("round trip", func(t *testing.T) {
		token, loggedIn, err := svc.Login(ctx, "alice", "correct horse")
		require.NoError(t, err)
		assert.NotEmpty(t, token)
		assert.Equal(t, user.ID, loggedIn.ID)

		userID, err := svc.Authenticate(ctx, token)
		require.NoError(t, err)
		assert.Equal(t, user.ID, userID)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, _, err := svc.Login(ctx, "alice", "wrong")
		require.ErrorIs(t, err, common.ErrInvalidCredentials)
	})

	t.Run("unknown user looks like wrong password", func(t *testing.T) {
		_, _, err := svc.Login(ctx, "nobody", "correct horse")
		require.ErrorIs(t, err, common.ErrInvalidCredentials)
	})

	t.Run("garbage token", func(t *testing.T) {
		_, err := svc.Authenticate(ctx, "not.a.token")
		require.ErrorIs(t, err, common.ErrUnauthorized)
	})

	t.Run("token signed with another secret", func(t *testing.T) {
		otherStore := testutil.SetupTestDB(t)
		other, err := auth.New(otherStore, []byte("different"), time.Hour)
		require.NoError(t, err)

		token, _, err := svc.Login(ctx, "alice", "correct horse")
		require.NoError(t, err)

		_, err = other.Authenticate(ctx, token)
		require.ErrorIs(t, err, common.ErrUnauthorized)
	})
}

func TestLogout(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	_, err := svc.Register(ctx, "alice", "alice@example.com", "correct horse", "USD")
	require.NoError(t, err)

	first, _, err := svc.Login(ctx, "alice", "correct horse")
	require.NoError(t, err)
	second, _, err := svc.Login(ctx, "alice", "correct horse")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, first))

	_, err = svc.Authenticate(ctx, first)
	require.ErrorIs(t, err, common.ErrTokenRevoked)

	// Each login gets its own token id, so the other session survives
	_, err = svc.Authenticate(ctx, second)
	require.NoError(t, err)

	t.Run("logging out twice is fine", func(t *testing.T) {
		require.NoError(t, svc.Logout(ctx, first))
	})
}
