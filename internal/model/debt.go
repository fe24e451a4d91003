package model

import "time"

// Debt is an outstanding amount owed to a source. IsCleared flips to true at
// most once, when a credit posting of exactly Amount reconciles against it.
type Debt struct {
	DueDate   time.Time
	CreatedAt time.Time
	Source    string
	ID        int64
	UserID    int64
	Amount    Cents
	IsCleared bool
}
