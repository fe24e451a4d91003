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
)

// CreateUser inserts a new user. Username and email are unique; violations
// surface as common.ErrDuplicateEntry.
func (s *SQLiteStorage) CreateUser(ctx context.Context, user *model.User) (*model.User, error) {
	return s.createUser(ctx, s.db, user)
}

func (s *SQLiteStorage) createUser(ctx context.Context, q dbtx, user *model.User) (*model.User, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateUser(user); err != nil {
		return nil, err
	}

	if user.Currency == "" {
		user.Currency = "USD"
	}

	result, err := q.ExecContext(ctx, `
		INSERT INTO users (username, email, password_hash, currency, budget)
		VALUES (?, ?, ?, ?, ?)`,
		user.Username, user.Email, user.PasswordHash, user.Currency, int64(user.Budget),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert user: %w", mapSQLiteError(err))
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get user id: %w", err)
	}

	created := *user
	created.ID = id
	created.CreatedAt = time.Now().UTC()

	slog.Debug("created user", "user_id", id, "username", user.Username)
	return &created, nil
}

// GetUserByID returns the user with the given id.
func (s *SQLiteStorage) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	return s.getUserByID(ctx, s.db, id)
}

func (s *SQLiteStorage) getUserByID(ctx context.Context, q dbtx, id int64) (*model.User, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateID(id, "id"); err != nil {
		return nil, err
	}

	return s.scanUser(q.QueryRowContext(ctx, `
		SELECT id, username, email, password_hash, currency, budget, created_at
		FROM users WHERE id = ?`, id))
}

// GetUserByUsername returns the user with the given username.
func (s *SQLiteStorage) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	return s.getUserByUsername(ctx, s.db, username)
}

func (s *SQLiteStorage) getUserByUsername(ctx context.Context, q dbtx, username string) (*model.User, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(username, "username"); err != nil {
		return nil, err
	}

	return s.scanUser(q.QueryRowContext(ctx, `
		SELECT id, username, email, password_hash, currency, budget, created_at
		FROM users WHERE username = ?`, username))
}

func (s *SQLiteStorage) scanUser(row *sql.Row) (*model.User, error) {
	var user model.User
	var budget int64
	err := row.Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash,
		&user.Currency, &budget, &user.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: user", common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	user.Budget = model.Cents(budget)
	return &user, nil
}

// UpdateUserBudget overwrites the user's running budget balance. Callers must
// have read the current balance in the same transaction.
func (s *SQLiteStorage) UpdateUserBudget(ctx context.Context, userID int64, budget model.Cents) error {
	return s.updateUserBudget(ctx, s.db, userID, budget)
}

func (s *SQLiteStorage) updateUserBudget(ctx context.Context, q dbtx, userID int64, budget model.Cents) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateID(userID, "userID"); err != nil {
		return err
	}

	result, err := q.ExecContext(ctx,
		`UPDATE users SET budget = ? WHERE id = ?`, int64(budget), userID)
	if err != nil {
		return fmt.Errorf("failed to update budget: %w", mapSQLiteError(err))
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: user", common.ErrNotFound)
	}

	return nil
}
