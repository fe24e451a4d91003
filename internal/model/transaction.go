// Package model defines the domain types shared across the application.
package model

import "time"

// TransactionType classifies how a transaction affects the owner's budget.
type TransactionType string

const (
	// TypeCredit is money coming in; may clear a matching outstanding debt.
	TypeCredit TransactionType = "credit"
	// TypeDebit is money going out; rejected when it exceeds the budget.
	TypeDebit TransactionType = "debit"
	// TypeDebt records borrowed money; creates an outstanding Debt.
	TypeDebt TransactionType = "debt"
)

// Valid reports whether t is one of the known transaction types.
func (t TransactionType) Valid() bool {
	switch t {
	case TypeCredit, TypeDebit, TypeDebt:
		return true
	}
	return false
}

// Transaction is a single posted ledger entry. Transactions are immutable
// once created; there is no amount-adjustment workflow.
type Transaction struct {
	Date      time.Time
	CreatedAt time.Time
	Title     string
	Notes     string
	Type      TransactionType
	Tags      []string
	ID        int64
	UserID    int64
	Amount    Cents
}
