// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/mtobin/pennywise/internal/model"
)

// SortField selects the column a transaction listing is ordered by.
type SortField string

// Sort fields accepted by TransactionFilter.
const (
	SortByDate   SortField = "date"
	SortByTitle  SortField = "title"
	SortByAmount SortField = "amount"
)

// TransactionFilter defines filtering options for transaction queries.
// Zero-valued fields are ignored. Pagination applies after filtering and
// sorting; the default order is date descending.
type TransactionFilter struct {
	StartDate  *time.Time
	EndDate    *time.Time
	TitleQuery string
	SortBy     SortField
	Types      []model.TransactionType
	TagNames   []string
	Page       int
	Limit      int
	Ascending  bool
}

// TransactionPage is one page of a filtered transaction listing.
type TransactionPage struct {
	Transactions []model.Transaction
	TotalCount   int
	TotalPages   int
	Page         int
}

// DebtPage is one page of a debt listing.
type DebtPage struct {
	Debts      []model.Debt
	TotalCount int
	TotalPages int
	Page       int
}

// Summary holds the per-user dashboard totals. ClearedDebt+RemainingDebt
// always equals TotalDebt.
type Summary struct {
	TotalInflow   model.Cents
	TotalOutflow  model.Cents
	TotalDebt     model.Cents
	ClearedDebt   model.Cents
	RemainingDebt model.Cents
}

// Extremes reports the highest and lowest amount transaction per flow class.
// Entries are nil when the class is empty.
type Extremes struct {
	HighestInflow  *model.Transaction
	LowestInflow   *model.Transaction
	HighestOutflow *model.Transaction
	LowestOutflow  *model.Transaction
	HighestDebt    *model.Transaction
	LowestDebt     *model.Transaction
}

// Storage defines the contract for our persistence layer.
type Storage interface {
	// User operations
	CreateUser(ctx context.Context, user *model.User) (*model.User, error)
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	UpdateUserBudget(ctx context.Context, userID int64, budget model.Cents) error

	// Transaction operations
	CreateTransaction(ctx context.Context, txn *model.Transaction, tagIDs []int64) (*model.Transaction, error)
	GetTransactionByID(ctx context.Context, userID, id int64) (*model.Transaction, error)
	ListTransactions(ctx context.Context, userID int64, filter TransactionFilter) (*TransactionPage, error)
	DeleteTransaction(ctx context.Context, userID, id int64) error

	// Debt operations
	CreateDebt(ctx context.Context, debt *model.Debt) (*model.Debt, error)
	GetDebtByID(ctx context.Context, userID, id int64) (*model.Debt, error)
	ListDebts(ctx context.Context, userID int64, includeCleared bool, page, limit int) (*DebtPage, error)
	FindMatchingDebt(ctx context.Context, userID int64, amount model.Cents) (*model.Debt, error)
	MarkDebtCleared(ctx context.Context, userID, id int64) error
	DeleteDebt(ctx context.Context, userID, id int64) error

	// Tag operations
	CreateTag(ctx context.Context, tag *model.Tag) (*model.Tag, error)
	GetTagsByIDs(ctx context.Context, userID int64, ids []int64) ([]model.Tag, error)
	ListTags(ctx context.Context, userID int64) ([]model.Tag, error)
	RenameTag(ctx context.Context, userID, id int64, name string) error
	DeleteTag(ctx context.Context, userID, id int64) error

	// Aggregation operations
	GetSummary(ctx context.Context, userID int64) (*Summary, error)
	GetExtremes(ctx context.Context, userID int64) (*Extremes, error)

	// Token revocation
	RevokeToken(ctx context.Context, jti string, expiresAt time.Time) error
	IsTokenRevoked(ctx context.Context, jti string) (bool, error)
	PurgeExpiredTokens(ctx context.Context, now time.Time) error

	// Database management
	Migrate(ctx context.Context) error
	BeginTx(ctx context.Context) (Transaction, error)
	Close() error
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit() error
	Rollback() error
	// Include all Storage methods for use within transaction
	Storage
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
