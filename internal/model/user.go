package model

import "time"

// User owns a budget and every transaction, debt, and tag recorded under it.
// Budget is the sole running balance and is only mutated by postings.
type User struct {
	CreatedAt    time.Time
	Username     string
	Email        string
	PasswordHash string
	Currency     string
	ID           int64
	Budget       Cents
}
