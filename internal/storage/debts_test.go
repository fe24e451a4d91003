package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mtobin/pennywise/internal/common"
	"github.com/mtobin/pennywise/internal/model"
)

func mustCreateDebt(t *testing.T, store *SQLiteStorage, userID int64, amount model.Cents, source string, due time.Time) *model.Debt {
	t.Helper()
	debt, err := store.CreateDebt(context.Background(), &model.Debt{
		Amount:  amount,
		Source:  source,
		DueDate: due,
		UserID:  userID,
	})
	require.NoError(t, err)
	return debt
}

func TestCreateDebt(t *testing.T) {
	ctx := context.Background()
	store, cleanup := createTestStorage(t)
	defer cleanup()

	user := seedUser(t, store, "alice")

	t.Run("success", func(t *testing.T) {
		due := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
		debt := mustCreateDebt(t, store, user.ID, 5000, "car loan", due)
		assert.Positive(t, debt.ID)
		assert.False(t, debt.IsCleared)
		assert.True(t, debt.DueDate.Equal(due))
	})

	t.Run("zero due date stored as epoch", func(t *testing.T) {
		debt := mustCreateDebt(t, store, user.ID, 2500, "iou", time.Time{})
		assert.True(t, debt.DueDate.Equal(time.Unix(0, 0).UTC()))
	})

	t.Run("validation", func(t *testing.T) {
		_, err := store.CreateDebt(ctx, &model.Debt{Amount: 0, Source: "x", UserID: user.ID})
		require.Error(t, err)
	})
}

func TestFindMatchingDebt(t *testing.T) {
	ctx := context.Background()
	store, cleanup := createTestStorage(t)
	defer cleanup()

	user := seedUser(t, store, "alice")
	other := seedUser(t, store, "bob")

	t.Run("no match returns nil without error", func(t *testing.T) {
		debt, err := store.FindMatchingDebt(ctx, user.ID, 999)
		require.NoError(t, err)
		assert.Nil(t, debt)
	})

	later := mustCreateDebt(t, store, user.ID, 5000, "later", time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC))
	earlier := mustCreateDebt(t, store, user.ID, 5000, "earlier", time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))
	mustCreateDebt(t, store, other.ID, 5000, "other user", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))

	t.Run("earliest due date wins", func(t *testing.T) {
		debt, err := store.FindMatchingDebt(ctx, user.ID, 5000)
		require.NoError(t, err)
		require.NotNil(t, debt)
		assert.Equal(t, earlier.ID, debt.ID)
	})

	t.Run("lowest id breaks a due date tie", func(t *testing.T) {
		due := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
		first := mustCreateDebt(t, store, user.ID, 7700, "first", due)
		mustCreateDebt(t, store, user.ID, 7700, "second", due)

		debt, err := store.FindMatchingDebt(ctx, user.ID, 7700)
		require.NoError(t, err)
		require.NotNil(t, debt)
		assert.Equal(t, first.ID, debt.ID)
	})

	t.Run("cleared debts are skipped", func(t *testing.T) {
		require.NoError(t, store.MarkDebtCleared(ctx, user.ID, earlier.ID))

		debt, err := store.FindMatchingDebt(ctx, user.ID, 5000)
		require.NoError(t, err)
		require.NotNil(t, debt)
		assert.Equal(t, later.ID, debt.ID)
	})

	t.Run("exact amount only", func(t *testing.T) {
		debt, err := store.FindMatchingDebt(ctx, user.ID, 4999)
		require.NoError(t, err)
		assert.Nil(t, debt)
	})
}

func TestMarkDebtCleared(t *testing.T) {
	ctx := context.Background()
	store, cleanup := createTestStorage(t)
	defer cleanup()

	user := seedUser(t, store, "alice")
	debt := mustCreateDebt(t, store, user.ID, 3000, "loan", time.Now())

	require.NoError(t, store.MarkDebtCleared(ctx, user.ID, debt.ID))

	got, err := store.GetDebtByID(ctx, user.ID, debt.ID)
	require.NoError(t, err)
	assert.True(t, got.IsCleared)

	t.Run("clearing twice conflicts", func(t *testing.T) {
		err := store.MarkDebtCleared(ctx, user.ID, debt.ID)
		require.ErrorIs(t, err, common.ErrConflict)
	})

	t.Run("missing debt conflicts", func(t *testing.T) {
		err := store.MarkDebtCleared(ctx, user.ID, 9999)
		require.ErrorIs(t, err, common.ErrConflict)
	})
}

func TestListDebts(t *testing.T) {
	ctx := context.Background()
	store, cleanup := createTestStorage(t)
	defer cleanup()

	user := seedUser(t, store, "alice")
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 7; i++ {
		mustCreateDebt(t, store, user.ID, model.Cents(1000+i), "loan", base.AddDate(0, 0, i))
	}
	cleared := mustCreateDebt(t, store, user.ID, 9000, "paid off", base)
	require.NoError(t, store.MarkDebtCleared(ctx, user.ID, cleared.ID))

	t.Run("pending only by default", func(t *testing.T) {
		page, err := store.ListDebts(ctx, user.ID, false, 1, 10)
		require.NoError(t, err)
		assert.Equal(t, 7, page.TotalCount)
		assert.Len(t, page.Debts, 7)
	})

	t.Run("include cleared", func(t *testing.T) {
		page, err := store.ListDebts(ctx, user.ID, true, 1, 10)
		require.NoError(t, err)
		assert.Equal(t, 8, page.TotalCount)
	})

	t.Run("paginated by due date", func(t *testing.T) {
		page, err := store.ListDebts(ctx, user.ID, false, 2, 5)
		require.NoError(t, err)
		assert.Equal(t, 7, page.TotalCount)
		assert.Equal(t, 2, page.TotalPages)
		require.Len(t, page.Debts, 2)
		assert.Equal(t, model.Cents(1005), page.Debts[0].Amount)
		assert.Equal(t, model.Cents(1006), page.Debts[1].Amount)
	})
}

func TestDeleteDebt(t *testing.T) {
	ctx := context.Background()
	store, cleanup := createTestStorage(t)
	defer cleanup()

	alice := seedUser(t, store, "alice")
	bob := seedUser(t, store, "bob")
	debt := mustCreateDebt(t, store, alice.ID, 3000, "loan", time.Now())

	require.ErrorIs(t, store.DeleteDebt(ctx, bob.ID, debt.ID), common.ErrNotFound)

	require.NoError(t, store.DeleteDebt(ctx, alice.ID, debt.ID))
	_, err := store.GetDebtByID(ctx, alice.ID, debt.ID)
	require.ErrorIs(t, err, common.ErrNotFound)
}
