package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mtobin/pennywise/internal/model"
	"github.com/mtobin/pennywise/internal/service"
)

// GetSummary computes the dashboard totals for a user in a single pass over
// transactions plus one over debts. Never mutates state.
func (s *SQLiteStorage) GetSummary(ctx context.Context, userID int64) (*service.Summary, error) {
	return s.getSummary(ctx, s.db, userID)
}

func (s *SQLiteStorage) getSummary(ctx context.Context, q dbtx, userID int64) (*service.Summary, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateID(userID, "userID"); err != nil {
		return nil, err
	}

	var summary service.Summary
	var inflow, outflow int64
	err := q.QueryRowContext(ctx, `
		SELECT
			COALESCE(SUM(CASE WHEN type = 'credit' THEN amount ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN type = 'debit' THEN amount ELSE 0 END), 0)
		FROM transactions WHERE user_id = ?`, userID).
		Scan(&inflow, &outflow)
	if err != nil {
		return nil, fmt.Errorf("failed to sum transactions: %w", err)
	}
	summary.TotalInflow = model.Cents(inflow)
	summary.TotalOutflow = model.Cents(outflow)

	var cleared, remaining int64
	err = q.QueryRowContext(ctx, `
		SELECT
			COALESCE(SUM(CASE WHEN is_cleared = 1 THEN amount ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN is_cleared = 0 THEN amount ELSE 0 END), 0)
		FROM debts WHERE user_id = ?`, userID).
		Scan(&cleared, &remaining)
	if err != nil {
		return nil, fmt.Errorf("failed to sum debts: %w", err)
	}
	summary.ClearedDebt = model.Cents(cleared)
	summary.RemainingDebt = model.Cents(remaining)
	summary.TotalDebt = summary.ClearedDebt + summary.RemainingDebt

	return &summary, nil
}

// GetExtremes returns the highest and lowest amount transaction per flow
// class: inflow (credit and debt), outflow (debit), debt. Nil entries mean
// the class is empty.
func (s *SQLiteStorage) GetExtremes(ctx context.Context, userID int64) (*service.Extremes, error) {
	return s.getExtremes(ctx, s.db, userID)
}

func (s *SQLiteStorage) getExtremes(ctx context.Context, q dbtx, userID int64) (*service.Extremes, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateID(userID, "userID"); err != nil {
		return nil, err
	}

	inflowTypes := []model.TransactionType{model.TypeCredit, model.TypeDebt}
	outflowTypes := []model.TransactionType{model.TypeDebit}
	debtTypes := []model.TransactionType{model.TypeDebt}

	var extremes service.Extremes
	var err error

	if extremes.HighestInflow, err = s.extreme(ctx, q, userID, inflowTypes, true); err != nil {
		return nil, err
	}
	if extremes.LowestInflow, err = s.extreme(ctx, q, userID, inflowTypes, false); err != nil {
		return nil, err
	}
	if extremes.HighestOutflow, err = s.extreme(ctx, q, userID, outflowTypes, true); err != nil {
		return nil, err
	}
	if extremes.LowestOutflow, err = s.extreme(ctx, q, userID, outflowTypes, false); err != nil {
		return nil, err
	}
	if extremes.HighestDebt, err = s.extreme(ctx, q, userID, debtTypes, true); err != nil {
		return nil, err
	}
	if extremes.LowestDebt, err = s.extreme(ctx, q, userID, debtTypes, false); err != nil {
		return nil, err
	}

	return &extremes, nil
}

func (s *SQLiteStorage) extreme(ctx context.Context, q dbtx, userID int64, types []model.TransactionType, highest bool) (*model.Transaction, error) {
	placeholders := ""
	args := []any{userID}
	for i, typ := range types {
		if i > 0 {
			placeholders += ", "
		}
		placeholders += "?"
		args = append(args, string(typ))
	}

	direction := "ASC"
	if highest {
		direction = "DESC"
	}

	var txn model.Transaction
	var amount int64
	var typ string
	err := q.QueryRowContext(ctx, `
		SELECT id, title, amount, date, type, notes, user_id, created_at
		FROM transactions
		WHERE user_id = ? AND type IN (`+placeholders+`)
		ORDER BY amount `+direction+`, id ASC
		LIMIT 1`, args...).
		Scan(&txn.ID, &txn.Title, &amount, &txn.Date, &typ, &txn.Notes, &txn.UserID, &txn.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query extreme transaction: %w", err)
	}
	txn.Amount = model.Cents(amount)
	txn.Type = model.TransactionType(typ)
	return &txn, nil
}
