package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mtobin/pennywise/internal/model"
)

func TestGetSummary(t *testing.T) {
	ctx := context.Background()
	store, cleanup := createTestStorage(t)
	defer cleanup()

	user := seedUser(t, store, "alice")
	other := seedUser(t, store, "bob")

	t.Run("empty account is all zeroes", func(t *testing.T) {
		summary, err := store.GetSummary(ctx, user.ID)
		require.NoError(t, err)
		assert.Zero(t, summary.TotalInflow)
		assert.Zero(t, summary.TotalOutflow)
		assert.Zero(t, summary.TotalDebt)
	})

	now := time.Now()
	mustCreateTxn(t, store, user.ID, "salary", 300000, model.TypeCredit, now)
	mustCreateTxn(t, store, user.ID, "bonus", 50000, model.TypeCredit, now)
	mustCreateTxn(t, store, user.ID, "rent", 120000, model.TypeDebit, now)
	mustCreateTxn(t, store, user.ID, "loan", 40000, model.TypeDebt, now)

	cleared := mustCreateDebt(t, store, user.ID, 15000, "old loan", now)
	require.NoError(t, store.MarkDebtCleared(ctx, user.ID, cleared.ID))
	mustCreateDebt(t, store, user.ID, 40000, "loan", now)

	// Another user's activity must never bleed into the summary
	mustCreateTxn(t, store, other.ID, "noise", 999999, model.TypeCredit, now)
	mustCreateDebt(t, store, other.ID, 888888, "noise", now)

	summary, err := store.GetSummary(ctx, user.ID)
	require.NoError(t, err)

	assert.Equal(t, model.Cents(350000), summary.TotalInflow)
	assert.Equal(t, model.Cents(120000), summary.TotalOutflow)
	assert.Equal(t, model.Cents(15000), summary.ClearedDebt)
	assert.Equal(t, model.Cents(40000), summary.RemainingDebt)
	assert.Equal(t, summary.ClearedDebt+summary.RemainingDebt, summary.TotalDebt)
}

func TestGetExtremes(t *testing.T) {
	ctx := context.Background()
	store, cleanup := createTestStorage(t)
	defer cleanup()

	user := seedUser(t, store, "alice")

	t.Run("empty classes come back nil", func(t *testing.T) {
		extremes, err := store.GetExtremes(ctx, user.ID)
		require.NoError(t, err)
		assert.Nil(t, extremes.HighestInflow)
		assert.Nil(t, extremes.LowestInflow)
		assert.Nil(t, extremes.HighestOutflow)
		assert.Nil(t, extremes.LowestOutflow)
		assert.Nil(t, extremes.HighestDebt)
		assert.Nil(t, extremes.LowestDebt)
	})

	now := time.Now()
	mustCreateTxn(t, store, user.ID, "salary", 300000, model.TypeCredit, now)
	mustCreateTxn(t, store, user.ID, "refund", 2000, model.TypeCredit, now)
	mustCreateTxn(t, store, user.ID, "car loan", 500000, model.TypeDebt, now)
	mustCreateTxn(t, store, user.ID, "small iou", 1000, model.TypeDebt, now)

	t.Run("debt counts toward inflow", func(t *testing.T) {
		extremes, err := store.GetExtremes(ctx, user.ID)
		require.NoError(t, err)

		require.NotNil(t, extremes.HighestInflow)
		assert.Equal(t, "car loan", extremes.HighestInflow.Title)
		require.NotNil(t, extremes.LowestInflow)
		assert.Equal(t, "small iou", extremes.LowestInflow.Title)

		require.NotNil(t, extremes.HighestDebt)
		assert.Equal(t, "car loan", extremes.HighestDebt.Title)
		require.NotNil(t, extremes.LowestDebt)
		assert.Equal(t, "small iou", extremes.LowestDebt.Title)

		// No debits yet
		assert.Nil(t, extremes.HighestOutflow)
		assert.Nil(t, extremes.LowestOutflow)
	})

	t.Run("single debit is both outflow extremes", func(t *testing.T) {
		mustCreateTxn(t, store, user.ID, "rent", 120000, model.TypeDebit, now)

		extremes, err := store.GetExtremes(ctx, user.ID)
		require.NoError(t, err)
		require.NotNil(t, extremes.HighestOutflow)
		require.NotNil(t, extremes.LowestOutflow)
		assert.Equal(t, extremes.HighestOutflow.ID, extremes.LowestOutflow.ID)
	})
}
