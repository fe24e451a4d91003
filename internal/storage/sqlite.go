package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mtobin/pennywise/internal/common"
	"github.com/mtobin/pennywise/internal/model"
	"github.com/mtobin/pennywise/internal/service"

	"github.com/mattn/go-sqlite3"
)

// SQLiteStorage implements the Storage interface using SQLite.
type SQLiteStorage struct {
	db     *sql.DB
	dbPath string
}

// dbtx is satisfied by both *sql.DB and *sql.Tx so that every query helper can
// run standalone or inside an explicit transaction.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// NewSQLiteStorage creates a new SQLite storage instance.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if err := validateString(dbPath, "dbPath"); err != nil {
		return nil, err
	}

	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite doesn't benefit from multiple connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &SQLiteStorage{
		db:     db,
		dbPath: dbPath,
	}, nil
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// BeginTx starts a new database transaction.
func (s *SQLiteStorage) BeginTx(ctx context.Context) (service.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", mapSQLiteError(err))
	}

	return &sqliteTransaction{
		tx:      tx,
		storage: s,
	}, nil
}

// mapSQLiteError translates driver errors into the application error kinds.
func mapSQLiteError(err error) error {
	if err == nil {
		return nil
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code {
		case sqlite3.ErrBusy, sqlite3.ErrLocked:
			return fmt.Errorf("%w: %v", common.ErrConflict, err)
		case sqlite3.ErrConstraint:
			switch sqliteErr.ExtendedCode {
			case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
				return fmt.Errorf("%w: %v", common.ErrDuplicateEntry, err)
			case sqlite3.ErrConstraintForeignKey:
				return fmt.Errorf("%w: %v", common.ErrInvalidInput, err)
			}
		}
	}

	return err
}

// sqliteTransaction wraps sql.Tx to implement service.Transaction.
type sqliteTransaction struct {
	tx      *sql.Tx
	storage *SQLiteStorage
}

func (t *sqliteTransaction) Commit() error {
	if err := t.tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", mapSQLiteError(err))
	}
	return nil
}

func (t *sqliteTransaction) Rollback() error {
	return t.tx.Rollback()
}

// Storage methods delegate to the main storage with the transaction.

func (t *sqliteTransaction) CreateUser(ctx context.Context, user *model.User) (*model.User, error) {
	return t.storage.createUser(ctx, t.tx, user)
}

func (t *sqliteTransaction) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	return t.storage.getUserByID(ctx, t.tx, id)
}

func (t *sqliteTransaction) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	return t.storage.getUserByUsername(ctx, t.tx, username)
}

func (t *sqliteTransaction) UpdateUserBudget(ctx context.Context, userID int64, budget model.Cents) error {
	return t.storage.updateUserBudget(ctx, t.tx, userID, budget)
}

func (t *sqliteTransaction) CreateTransaction(ctx context.Context, txn *model.Transaction, tagIDs []int64) (*model.Transaction, error) {
	return t.storage.createTransaction(ctx, t.tx, txn, tagIDs)
}

func (t *sqliteTransaction) GetTransactionByID(ctx context.Context, userID, id int64) (*model.Transaction, error) {
	return t.storage.getTransactionByID(ctx, t.tx, userID, id)
}

func (t *sqliteTransaction) ListTransactions(ctx context.Context, userID int64, filter service.TransactionFilter) (*service.TransactionPage, error) {
	return t.storage.listTransactions(ctx, t.tx, userID, filter)
}

func (t *sqliteTransaction) DeleteTransaction(ctx context.Context, userID, id int64) error {
	return t.storage.deleteTransaction(ctx, t.tx, userID, id)
}

func (t *sqliteTransaction) CreateDebt(ctx context.Context, debt *model.Debt) (*model.Debt, error) {
	return t.storage.createDebt(ctx, t.tx, debt)
}

func (t *sqliteTransaction) GetDebtByID(ctx context.Context, userID, id int64) (*model.Debt, error) {
	return t.storage.getDebtByID(ctx, t.tx, userID, id)
}

func (t *sqliteTransaction) ListDebts(ctx context.Context, userID int64, includeCleared bool, page, limit int) (*service.DebtPage, error) {
	return t.storage.listDebts(ctx, t.tx, userID, includeCleared, page, limit)
}

func (t *sqliteTransaction) FindMatchingDebt(ctx context.Context, userID int64, amount model.Cents) (*model.Debt, error) {
	return t.storage.findMatchingDebt(ctx, t.tx, userID, amount)
}

func (t *sqliteTransaction) MarkDebtCleared(ctx context.Context, userID, id int64) error {
	return t.storage.markDebtCleared(ctx, t.tx, userID, id)
}

func (t *sqliteTransaction) DeleteDebt(ctx context.Context, userID, id int64) error {
	return t.storage.deleteDebt(ctx, t.tx, userID, id)
}

func (t *sqliteTransaction) CreateTag(ctx context.Context, tag *model.Tag) (*model.Tag, error) {
	return t.storage.createTag(ctx, t.tx, tag)
}

func (t *sqliteTransaction) GetTagsByIDs(ctx context.Context, userID int64, ids []int64) ([]model.Tag, error) {
	return t.storage.getTagsByIDs(ctx, t.tx, userID, ids)
}

func (t *sqliteTransaction) ListTags(ctx context.Context, userID int64) ([]model.Tag, error) {
	return t.storage.listTags(ctx, t.tx, userID)
}

func (t *sqliteTransaction) RenameTag(ctx context.Context, userID, id int64, name string) error {
	return t.storage.renameTag(ctx, t.tx, userID, id, name)
}

func (t *sqliteTransaction) DeleteTag(ctx context.Context, userID, id int64) error {
	return t.storage.deleteTag(ctx, t.tx, userID, id)
}

func (t *sqliteTransaction) GetSummary(ctx context.Context, userID int64) (*service.Summary, error) {
	return t.storage.getSummary(ctx, t.tx, userID)
}

func (t *sqliteTransaction) GetExtremes(ctx context.Context, userID int64) (*service.Extremes, error) {
	return t.storage.getExtremes(ctx, t.tx, userID)
}

func (t *sqliteTransaction) RevokeToken(ctx context.Context, jti string, expiresAt time.Time) error {
	return t.storage.revokeToken(ctx, t.tx, jti, expiresAt)
}

func (t *sqliteTransaction) IsTokenRevoked(ctx context.Context, jti string) (bool, error) {
	return t.storage.isTokenRevoked(ctx, t.tx, jti)
}

func (t *sqliteTransaction) PurgeExpiredTokens(ctx context.Context, now time.Time) error {
	return t.storage.purgeExpiredTokens(ctx, t.tx, now)
}

func (t *sqliteTransaction) Migrate(_ context.Context) error {
	// Migrations should not be run within a transaction
	return fmt.Errorf("migrations cannot be run within a transaction")
}

func (t *sqliteTransaction) BeginTx(_ context.Context) (service.Transaction, error) {
	// Nested transactions not supported
	return nil, fmt.Errorf("nested transactions not supported")
}

func (t *sqliteTransaction) Close() error {
	// Transactions should be committed or rolled back, not closed
	return fmt.Errorf("transactions must be committed or rolled back, not closed")
}
