// Package storage provides the data persistence layer for the pennywise application.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mtobin/pennywise/internal/common"
	"github.com/mtobin/pennywise/internal/model"
)

// Validation errors. ErrInvalidDateRange carries the invalid-input kind so a
// caller-supplied filter mistake maps to a client error, not a server one.
var (
	ErrNilContext         = errors.New("context cannot be nil")
	ErrEmptyString        = errors.New("string parameter cannot be empty")
	ErrNilParameter       = errors.New("parameter cannot be nil")
	ErrInvalidID          = errors.New("id must be positive")
	ErrInvalidDateRange   = fmt.Errorf("%w: start date must be before end date", common.ErrInvalidInput)
	ErrInvalidTransaction = errors.New("invalid transaction")
	ErrInvalidDebt        = errors.New("invalid debt")
	ErrInvalidUser        = errors.New("invalid user")
	ErrInvalidTag         = errors.New("invalid tag")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateID ensures an identifier is positive.
func validateID(id int64, paramName string) error {
	if id <= 0 {
		return fmt.Errorf("%w: %s", ErrInvalidID, paramName)
	}
	return nil
}

// validateUser validates a user record before persisting it.
func validateUser(user *model.User) error {
	if user == nil {
		return fmt.Errorf("%w: user", ErrNilParameter)
	}
	if strings.TrimSpace(user.Username) == "" {
		return fmt.Errorf("%w: missing username", ErrInvalidUser)
	}
	if strings.TrimSpace(user.Email) == "" {
		return fmt.Errorf("%w: missing email", ErrInvalidUser)
	}
	if user.PasswordHash == "" {
		return fmt.Errorf("%w: missing password hash", ErrInvalidUser)
	}
	return nil
}

// validateTransactionRecord validates a transaction before persisting it.
func validateTransactionRecord(txn *model.Transaction) error {
	if txn == nil {
		return fmt.Errorf("%w: transaction", ErrNilParameter)
	}
	if strings.TrimSpace(txn.Title) == "" {
		return fmt.Errorf("%w: missing title", ErrInvalidTransaction)
	}
	if txn.Amount <= 0 {
		return fmt.Errorf("%w: amount must be positive", ErrInvalidTransaction)
	}
	if !txn.Type.Valid() {
		return fmt.Errorf("%w: unknown type %q", ErrInvalidTransaction, txn.Type)
	}
	if txn.Date.IsZero() {
		return fmt.Errorf("%w: missing date", ErrInvalidTransaction)
	}
	if txn.UserID <= 0 {
		return fmt.Errorf("%w: missing owner", ErrInvalidTransaction)
	}
	return nil
}

// validateDebt validates a debt before persisting it.
func validateDebt(debt *model.Debt) error {
	if debt == nil {
		return fmt.Errorf("%w: debt", ErrNilParameter)
	}
	if debt.Amount <= 0 {
		return fmt.Errorf("%w: amount must be positive", ErrInvalidDebt)
	}
	if strings.TrimSpace(debt.Source) == "" {
		return fmt.Errorf("%w: missing source", ErrInvalidDebt)
	}
	if debt.UserID <= 0 {
		return fmt.Errorf("%w: missing owner", ErrInvalidDebt)
	}
	return nil
}

// validateTag validates a tag before persisting it.
func validateTag(tag *model.Tag) error {
	if tag == nil {
		return fmt.Errorf("%w: tag", ErrNilParameter)
	}
	if strings.TrimSpace(tag.Name) == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidTag)
	}
	if tag.UserID <= 0 {
		return fmt.Errorf("%w: missing owner", ErrInvalidTag)
	}
	return nil
}
