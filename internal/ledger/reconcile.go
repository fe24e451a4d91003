package ledger

import (
	"context"
	"log/slog"

	"github.com/mtobin/pennywise/internal/model"
	"github.com/mtobin/pennywise/internal/service"
)

// reconcileCredit attempts to settle an outstanding debt with a credit
// posting. The policy is exact-match, greedy, single debt per credit: the
// credit either fully covers one debt whose amount equals it exactly, or it
// clears nothing. Among matches the earliest due date wins, lowest id on
// ties. There is no partial or split settlement.
//
// Runs inside the posting's storage transaction, so the clear commits or
// rolls back with the rest of the unit. Returns the cleared debt, or nil if
// nothing matched.
func (l *Ledger) reconcileCredit(ctx context.Context, tx service.Transaction, userID int64, amount model.Cents) (*model.Debt, error) {
	debt, err := tx.FindMatchingDebt(ctx, userID, amount)
	if err != nil {
		return nil, err
	}
	if debt == nil {
		return nil, nil
	}

	if err := tx.MarkDebtCleared(ctx, userID, debt.ID); err != nil {
		return nil, err
	}
	debt.IsCleared = true

	slog.Debug("reconciled credit against debt",
		"user_id", userID,
		"debt_id", debt.ID,
		"amount", amount.String(),
		"source", debt.Source)
	return debt, nil
}
