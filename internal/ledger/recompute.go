package ledger

import (
	"context"
	"fmt"

	"github.com/mtobin/pennywise/internal/model"
)

// ReplayResult reports the outcome of a budget recomputation.
type ReplayResult struct {
	Expected model.Cents
	Actual   model.Cents
	Drift    model.Cents
	Repaired bool
}

// RecomputeBudget folds the user's transaction history into the budget the
// incremental updates should have produced and compares it with the stored
// balance. The budget is maintained incrementally at posting time, so a bug
// or partial failure can desynchronize it from the ledger; this routine is
// the consistency check. With repair set, the stored budget is overwritten
// with the replayed value.
//
// The replayed value is sum(credit) - sum(debit): credits always add, debits
// always subtract, and debt postings leave the budget alone. Deleted
// transactions therefore show up here as drift.
func (l *Ledger) RecomputeBudget(ctx context.Context, userID int64, repair bool) (*ReplayResult, error) {
	tx, err := l.store.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin recompute: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	user, err := tx.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	summary, err := tx.GetSummary(ctx, userID)
	if err != nil {
		return nil, err
	}

	result := &ReplayResult{
		Expected: summary.TotalInflow - summary.TotalOutflow,
		Actual:   user.Budget,
	}
	result.Drift = result.Actual - result.Expected

	if repair && result.Drift != 0 {
		if err := tx.UpdateUserBudget(ctx, userID, result.Expected); err != nil {
			return nil, err
		}
		result.Repaired = true
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return result, nil
}
