// Package report computes derived statistics from a user's ledger. Every
// operation is a read-only fold over transaction and debt history, computed
// per request.
package report

import (
	"context"

	"github.com/mtobin/pennywise/internal/service"
)

// Service answers dashboard and listing queries.
type Service struct {
	store service.Storage
}

// New creates a reporting service backed by the given storage.
func New(store service.Storage) *Service {
	return &Service{store: store}
}

// Summary returns the user's inflow, outflow, and debt totals.
func (s *Service) Summary(ctx context.Context, userID int64) (*service.Summary, error) {
	return s.store.GetSummary(ctx, userID)
}

// Extremes returns the highest and lowest amount transaction per flow class.
func (s *Service) Extremes(ctx context.Context, userID int64) (*service.Extremes, error) {
	return s.store.GetExtremes(ctx, userID)
}

// ListTransactions returns one page of the user's transactions, filtered and
// sorted per the filter. Defaults: date descending, page 1, limit 10.
func (s *Service) ListTransactions(ctx context.Context, userID int64, filter service.TransactionFilter) (*service.TransactionPage, error) {
	return s.store.ListTransactions(ctx, userID, filter)
}
