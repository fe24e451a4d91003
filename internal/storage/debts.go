package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mtobin/pennywise/internal/common"
	"github.com/mtobin/pennywise/internal/model"
	"github.com/mtobin/pennywise/internal/service"
)

// CreateDebt inserts a new outstanding debt. A zero DueDate is stored as the
// epoch so due-date ordering stays total.
func (s *SQLiteStorage) CreateDebt(ctx context.Context, debt *model.Debt) (*model.Debt, error) {
	return s.createDebt(ctx, s.db, debt)
}

func (s *SQLiteStorage) createDebt(ctx context.Context, q dbtx, debt *model.Debt) (*model.Debt, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateDebt(debt); err != nil {
		return nil, err
	}

	dueDate := debt.DueDate
	if dueDate.IsZero() {
		dueDate = time.Unix(0, 0).UTC()
	}

	result, err := q.ExecContext(ctx, `
		INSERT INTO debts (amount, due_date, source, is_cleared, user_id)
		VALUES (?, ?, ?, ?, ?)`,
		int64(debt.Amount), dueDate.UTC(), debt.Source, debt.IsCleared, debt.UserID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert debt: %w", mapSQLiteError(err))
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get debt id: %w", err)
	}

	created := *debt
	created.ID = id
	created.DueDate = dueDate.UTC()
	created.CreatedAt = time.Now().UTC()

	slog.Debug("created debt",
		"debt_id", id,
		"user_id", debt.UserID,
		"amount", debt.Amount,
		"source", debt.Source)
	return &created, nil
}

// GetDebtByID returns a debt owned by userID.
func (s *SQLiteStorage) GetDebtByID(ctx context.Context, userID, id int64) (*model.Debt, error) {
	return s.getDebtByID(ctx, s.db, userID, id)
}

func (s *SQLiteStorage) getDebtByID(ctx context.Context, q dbtx, userID, id int64) (*model.Debt, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateID(userID, "userID"); err != nil {
		return nil, err
	}
	if err := validateID(id, "id"); err != nil {
		return nil, err
	}

	return scanDebt(q.QueryRowContext(ctx, `
		SELECT id, amount, due_date, source, is_cleared, user_id, created_at
		FROM debts WHERE id = ? AND user_id = ?`, id, userID))
}

func scanDebt(row *sql.Row) (*model.Debt, error) {
	var debt model.Debt
	var amount int64
	err := row.Scan(&debt.ID, &amount, &debt.DueDate, &debt.Source,
		&debt.IsCleared, &debt.UserID, &debt.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: debt", common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan debt: %w", err)
	}
	debt.Amount = model.Cents(amount)
	return &debt, nil
}

// ListDebts returns one page of the user's debts, pending only unless
// includeCleared is set. Ordered by due date, earliest first.
func (s *SQLiteStorage) ListDebts(ctx context.Context, userID int64, includeCleared bool, page, limit int) (*service.DebtPage, error) {
	return s.listDebts(ctx, s.db, userID, includeCleared, page, limit)
}

func (s *SQLiteStorage) listDebts(ctx context.Context, q dbtx, userID int64, includeCleared bool, page, limit int) (*service.DebtPage, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateID(userID, "userID"); err != nil {
		return nil, err
	}

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 5
	}

	where := "WHERE user_id = ?"
	if !includeCleared {
		where += " AND is_cleared = 0"
	}

	var total int
	if err := q.QueryRowContext(ctx, "SELECT COUNT(*) FROM debts "+where, userID).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count debts: %w", err)
	}
	totalPages := (total + limit - 1) / limit

	rows, err := q.QueryContext(ctx, `
		SELECT id, amount, due_date, source, is_cleared, user_id, created_at
		FROM debts `+where+`
		ORDER BY due_date ASC, id ASC
		LIMIT ? OFFSET ?`, userID, limit, (page-1)*limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query debts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var debts []model.Debt
	for rows.Next() {
		var debt model.Debt
		var amount int64
		if err := rows.Scan(&debt.ID, &amount, &debt.DueDate, &debt.Source,
			&debt.IsCleared, &debt.UserID, &debt.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan debt: %w", err)
		}
		debt.Amount = model.Cents(amount)
		debts = append(debts, debt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating debts: %w", err)
	}

	return &service.DebtPage{
		Debts:      debts,
		TotalCount: total,
		TotalPages: totalPages,
		Page:       page,
	}, nil
}

// FindMatchingDebt returns the user's uncleared debt whose amount exactly
// equals the given amount, earliest due date first (lowest id breaks ties).
// Returns (nil, nil) when no debt matches; that is the normal case, not an
// error.
func (s *SQLiteStorage) FindMatchingDebt(ctx context.Context, userID int64, amount model.Cents) (*model.Debt, error) {
	return s.findMatchingDebt(ctx, s.db, userID, amount)
}

func (s *SQLiteStorage) findMatchingDebt(ctx context.Context, q dbtx, userID int64, amount model.Cents) (*model.Debt, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateID(userID, "userID"); err != nil {
		return nil, err
	}
	if amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", common.ErrInvalidInput)
	}

	debt, err := scanDebt(q.QueryRowContext(ctx, `
		SELECT id, amount, due_date, source, is_cleared, user_id, created_at
		FROM debts
		WHERE user_id = ? AND is_cleared = 0 AND amount = ?
		ORDER BY due_date ASC, id ASC
		LIMIT 1`, userID, int64(amount)))
	if errors.Is(err, common.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return debt, nil
}

// MarkDebtCleared flips is_cleared on a pending debt. A row that is already
// cleared (or gone) means another posting won the race; that surfaces as
// common.ErrConflict so the caller can retry against a fresh match.
func (s *SQLiteStorage) MarkDebtCleared(ctx context.Context, userID, id int64) error {
	return s.markDebtCleared(ctx, s.db, userID, id)
}

func (s *SQLiteStorage) markDebtCleared(ctx context.Context, q dbtx, userID, id int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateID(userID, "userID"); err != nil {
		return err
	}
	if err := validateID(id, "id"); err != nil {
		return err
	}

	result, err := q.ExecContext(ctx, `
		UPDATE debts SET is_cleared = 1
		WHERE id = ? AND user_id = ? AND is_cleared = 0`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to clear debt: %w", mapSQLiteError(err))
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check clear result: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: debt %d already cleared or missing", common.ErrConflict, id)
	}

	slog.Debug("cleared debt", "debt_id", id, "user_id", userID)
	return nil
}

// DeleteDebt removes a debt owned by userID.
func (s *SQLiteStorage) DeleteDebt(ctx context.Context, userID, id int64) error {
	return s.deleteDebt(ctx, s.db, userID, id)
}

func (s *SQLiteStorage) deleteDebt(ctx context.Context, q dbtx, userID, id int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateID(userID, "userID"); err != nil {
		return err
	}
	if err := validateID(id, "id"); err != nil {
		return err
	}

	result, err := q.ExecContext(ctx,
		`DELETE FROM debts WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete debt: %w", mapSQLiteError(err))
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: debt", common.ErrNotFound)
	}

	return nil
}
