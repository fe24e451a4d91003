// Package ledger owns the budget invariant: a user's budget reflects the net
// effect of every posted transaction. It is the only writer of budgets and
// the only caller of debt reconciliation.
package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mtobin/pennywise/internal/common"
	"github.com/mtobin/pennywise/internal/model"
	"github.com/mtobin/pennywise/internal/service"
)

// Ledger posts transactions against a user's budget inside single storage
// transactions.
type Ledger struct {
	store service.Storage
}

// New creates a ledger backed by the given storage.
func New(store service.Storage) *Ledger {
	return &Ledger{store: store}
}

// PostRequest carries everything needed to post one transaction.
// DueDate and Source only apply to debt postings.
type PostRequest struct {
	Date    time.Time
	DueDate time.Time
	Title   string
	Notes   string
	Source  string
	Type    model.TransactionType
	TagIDs  []int64
	Amount  model.Cents
}

// PostTransaction records a transaction and applies its budget effect
// atomically: the transaction insert, any debt insert or clear, and the
// budget update commit together or not at all.
//
// Debits exceeding the budget fail with common.ErrInsufficientFunds. Credits
// run debt reconciliation first and then increase the budget whether or not
// a debt matched. Debt postings create an outstanding Debt and leave the
// budget untouched.
func (l *Ledger) PostTransaction(ctx context.Context, userID int64, req PostRequest) (*model.Transaction, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	date := req.Date
	if date.IsZero() {
		date = time.Now().UTC()
	}

	tx, err := l.store.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin posting: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	user, err := tx.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	var clearedDebt *model.Debt
	switch req.Type {
	case model.TypeDebit:
		if user.Budget < req.Amount {
			return nil, fmt.Errorf("%w: budget %s, debit %s",
				common.ErrInsufficientFunds, user.Budget, req.Amount)
		}
		if err := tx.UpdateUserBudget(ctx, userID, user.Budget-req.Amount); err != nil {
			return nil, err
		}

	case model.TypeCredit:
		clearedDebt, err = l.reconcileCredit(ctx, tx, userID, req.Amount)
		if err != nil {
			return nil, err
		}
		// Credited regardless of whether a debt matched
		if err := tx.UpdateUserBudget(ctx, userID, user.Budget+req.Amount); err != nil {
			return nil, err
		}

	case model.TypeDebt:
		source := req.Source
		if strings.TrimSpace(source) == "" {
			source = req.Title
		}
		if _, err := tx.CreateDebt(ctx, &model.Debt{
			Amount:  req.Amount,
			DueDate: req.DueDate,
			Source:  source,
			UserID:  userID,
		}); err != nil {
			return nil, err
		}
	}

	txn, err := tx.CreateTransaction(ctx, &model.Transaction{
		Title:  req.Title,
		Amount: req.Amount,
		Date:   date,
		Type:   req.Type,
		Notes:  req.Notes,
		UserID: userID,
	}, req.TagIDs)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	fields := common.Fields{
		"user_id":        userID,
		"transaction_id": txn.ID,
		"type":           req.Type,
		"amount":         req.Amount.String(),
	}
	if clearedDebt != nil {
		fields["cleared_debt_id"] = clearedDebt.ID
	}
	common.LogInfo("posted transaction", fields)

	return txn, nil
}

func validateRequest(req PostRequest) error {
	if strings.TrimSpace(req.Title) == "" {
		return fmt.Errorf("%w: title is required", common.ErrInvalidInput)
	}
	if req.Amount <= 0 {
		return fmt.Errorf("%w: amount must be positive", common.ErrInvalidInput)
	}
	if !req.Type.Valid() {
		return fmt.Errorf("%w: unknown transaction type %q", common.ErrInvalidInput, req.Type)
	}
	return nil
}

// GetTransaction returns one of the user's transactions.
func (l *Ledger) GetTransaction(ctx context.Context, userID, id int64) (*model.Transaction, error) {
	return l.store.GetTransactionByID(ctx, userID, id)
}

// DeleteTransaction removes a transaction. The budget is not re-adjusted;
// RecomputeBudget exposes the resulting drift.
func (l *Ledger) DeleteTransaction(ctx context.Context, userID, id int64) error {
	if err := l.store.DeleteTransaction(ctx, userID, id); err != nil {
		return err
	}
	slog.Info("deleted transaction", "user_id", userID, "transaction_id", id)
	return nil
}

// CreateDebt records a debt directly, outside any transaction posting.
func (l *Ledger) CreateDebt(ctx context.Context, userID int64, amount model.Cents, dueDate time.Time, source string) (*model.Debt, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", common.ErrInvalidInput)
	}
	if strings.TrimSpace(source) == "" {
		return nil, fmt.Errorf("%w: source is required", common.ErrInvalidInput)
	}

	return l.store.CreateDebt(ctx, &model.Debt{
		Amount:  amount,
		DueDate: dueDate,
		Source:  source,
		UserID:  userID,
	})
}

// GetDebt returns one of the user's debts.
func (l *Ledger) GetDebt(ctx context.Context, userID, id int64) (*model.Debt, error) {
	return l.store.GetDebtByID(ctx, userID, id)
}

// ListDebts returns a page of the user's debts, earliest due first.
func (l *Ledger) ListDebts(ctx context.Context, userID int64, includeCleared bool, page, limit int) (*service.DebtPage, error) {
	return l.store.ListDebts(ctx, userID, includeCleared, page, limit)
}

// DeleteDebt removes one of the user's debts.
func (l *Ledger) DeleteDebt(ctx context.Context, userID, id int64) error {
	return l.store.DeleteDebt(ctx, userID, id)
}

// CreateTag adds a tag to the user's tag set.
func (l *Ledger) CreateTag(ctx context.Context, userID int64, name string) (*model.Tag, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: name is required", common.ErrInvalidInput)
	}
	return l.store.CreateTag(ctx, &model.Tag{Name: name, UserID: userID})
}

// ListTags returns all of the user's tags.
func (l *Ledger) ListTags(ctx context.Context, userID int64) ([]model.Tag, error) {
	return l.store.ListTags(ctx, userID)
}

// RenameTag renames one of the user's tags.
func (l *Ledger) RenameTag(ctx context.Context, userID, id int64, name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: name is required", common.ErrInvalidInput)
	}
	return l.store.RenameTag(ctx, userID, id, name)
}

// DeleteTag removes one of the user's tags and its associations.
func (l *Ledger) DeleteTag(ctx context.Context, userID, id int64) error {
	return l.store.DeleteTag(ctx, userID, id)
}
