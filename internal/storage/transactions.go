package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mtobin/pennywise/internal/common"
	"github.com/mtobin/pennywise/internal/model"
	"github.com/mtobin/pennywise/internal/service"
)

// CreateTransaction inserts a transaction and its tag associations. Every tag
// id must belong to the transaction's owner or the insert fails with
// common.ErrInvalidInput.
func (s *SQLiteStorage) CreateTransaction(ctx context.Context, txn *model.Transaction, tagIDs []int64) (*model.Transaction, error) {
	return s.createTransaction(ctx, s.db, txn, tagIDs)
}

func (s *SQLiteStorage) createTransaction(ctx context.Context, q dbtx, txn *model.Transaction, tagIDs []int64) (*model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateTransactionRecord(txn); err != nil {
		return nil, err
	}

	// Resolve tags first so an unknown or foreign tag id rejects the whole
	// insert before any row is written.
	var tags []model.Tag
	if len(tagIDs) > 0 {
		var err error
		tags, err = s.getTagsByIDs(ctx, q, txn.UserID, tagIDs)
		if err != nil {
			return nil, err
		}
		if len(tags) != len(uniqueIDs(tagIDs)) {
			return nil, fmt.Errorf("%w: unknown tag id", common.ErrInvalidInput)
		}
	}

	result, err := q.ExecContext(ctx, `
		INSERT INTO transactions (title, amount, date, type, notes, user_id)
		VALUES (?, ?, ?, ?, ?, ?)`,
		txn.Title, int64(txn.Amount), txn.Date.UTC(), string(txn.Type), txn.Notes, txn.UserID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert transaction: %w", mapSQLiteError(err))
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction id: %w", err)
	}

	for _, tag := range tags {
		if _, err := q.ExecContext(ctx,
			`INSERT INTO transaction_tags (transaction_id, tag_id) VALUES (?, ?)`,
			id, tag.ID); err != nil {
			return nil, fmt.Errorf("failed to associate tag %d: %w", tag.ID, mapSQLiteError(err))
		}
	}

	created := *txn
	created.ID = id
	created.CreatedAt = time.Now().UTC()
	created.Tags = tagNames(tags)

	slog.Debug("created transaction",
		"transaction_id", id,
		"user_id", txn.UserID,
		"type", txn.Type,
		"amount", txn.Amount)
	return &created, nil
}

// GetTransactionByID returns a transaction owned by userID.
func (s *SQLiteStorage) GetTransactionByID(ctx context.Context, userID, id int64) (*model.Transaction, error) {
	return s.getTransactionByID(ctx, s.db, userID, id)
}

func (s *SQLiteStorage) getTransactionByID(ctx context.Context, q dbtx, userID, id int64) (*model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateID(userID, "userID"); err != nil {
		return nil, err
	}
	if err := validateID(id, "id"); err != nil {
		return nil, err
	}

	var txn model.Transaction
	var amount int64
	var typ string
	err := q.QueryRowContext(ctx, `
		SELECT id, title, amount, date, type, notes, user_id, created_at
		FROM transactions WHERE id = ? AND user_id = ?`, id, userID).
		Scan(&txn.ID, &txn.Title, &amount, &txn.Date, &typ, &txn.Notes, &txn.UserID, &txn.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: transaction", common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan transaction: %w", err)
	}
	txn.Amount = model.Cents(amount)
	txn.Type = model.TransactionType(typ)

	tagsByTxn, err := s.loadTags(ctx, q, []int64{txn.ID})
	if err != nil {
		return nil, err
	}
	txn.Tags = tagsByTxn[txn.ID]

	return &txn, nil
}

// ListTransactions returns one page of the user's transactions after
// filtering and sorting. The default order is date descending.
func (s *SQLiteStorage) ListTransactions(ctx context.Context, userID int64, filter service.TransactionFilter) (*service.TransactionPage, error) {
	return s.listTransactions(ctx, s.db, userID, filter)
}

func (s *SQLiteStorage) listTransactions(ctx context.Context, q dbtx, userID int64, filter service.TransactionFilter) (*service.TransactionPage, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateID(userID, "userID"); err != nil {
		return nil, err
	}
	if filter.StartDate != nil && filter.EndDate != nil && filter.EndDate.Before(*filter.StartDate) {
		return nil, fmt.Errorf("%w: %v is before %v", ErrInvalidDateRange, filter.EndDate, filter.StartDate)
	}

	where, args := buildTransactionFilter(userID, filter)

	var total int
	countQuery := "SELECT COUNT(*) FROM transactions t " + where
	if err := q.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count transactions: %w", err)
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	limit := filter.Limit
	if limit < 1 {
		limit = 10
	}
	totalPages := (total + limit - 1) / limit

	query := `SELECT t.id, t.title, t.amount, t.date, t.type, t.notes, t.user_id, t.created_at
		FROM transactions t ` + where + orderClause(filter) + ` LIMIT ? OFFSET ?`
	args = append(args, limit, (page-1)*limit)

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var transactions []model.Transaction
	var ids []int64
	for rows.Next() {
		var txn model.Transaction
		var amount int64
		var typ string
		if err := rows.Scan(&txn.ID, &txn.Title, &amount, &txn.Date, &typ, &txn.Notes, &txn.UserID, &txn.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txn.Amount = model.Cents(amount)
		txn.Type = model.TransactionType(typ)
		transactions = append(transactions, txn)
		ids = append(ids, txn.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}

	tagsByTxn, err := s.loadTags(ctx, q, ids)
	if err != nil {
		return nil, err
	}
	for i := range transactions {
		transactions[i].Tags = tagsByTxn[transactions[i].ID]
	}

	return &service.TransactionPage{
		Transactions: transactions,
		TotalCount:   total,
		TotalPages:   totalPages,
		Page:         page,
	}, nil
}

// buildTransactionFilter assembles the WHERE clause shared by the count and
// page queries.
func buildTransactionFilter(userID int64, filter service.TransactionFilter) (string, []any) {
	conditions := []string{"t.user_id = ?"}
	args := []any{userID}

	if len(filter.Types) > 0 {
		placeholders := make([]string, len(filter.Types))
		for i, typ := range filter.Types {
			placeholders[i] = "?"
			args = append(args, string(typ))
		}
		conditions = append(conditions, "t.type IN ("+strings.Join(placeholders, ", ")+")")
	}

	if len(filter.TagNames) > 0 {
		// Any-match across the supplied tag names
		placeholders := make([]string, len(filter.TagNames))
		for i, name := range filter.TagNames {
			placeholders[i] = "?"
			args = append(args, name)
		}
		conditions = append(conditions, `EXISTS (
			SELECT 1 FROM transaction_tags tt
			JOIN tags tg ON tg.id = tt.tag_id
			WHERE tt.transaction_id = t.id AND tg.name IN (`+strings.Join(placeholders, ", ")+`))`)
	}

	if filter.StartDate != nil {
		conditions = append(conditions, "t.date >= ?")
		args = append(args, filter.StartDate.UTC())
	}
	if filter.EndDate != nil {
		conditions = append(conditions, "t.date <= ?")
		args = append(args, filter.EndDate.UTC())
	}

	if strings.TrimSpace(filter.TitleQuery) != "" {
		conditions = append(conditions, "t.title LIKE '%' || ? || '%' COLLATE NOCASE")
		args = append(args, filter.TitleQuery)
	}

	return "WHERE " + strings.Join(conditions, " AND "), args
}

// orderClause maps the filter's sort field onto a whitelisted ORDER BY.
func orderClause(filter service.TransactionFilter) string {
	column := "t.date"
	switch filter.SortBy {
	case service.SortByTitle:
		column = "t.title COLLATE NOCASE"
	case service.SortByAmount:
		column = "t.amount"
	case service.SortByDate, "":
		column = "t.date"
	}

	direction := "DESC"
	if filter.Ascending {
		direction = "ASC"
	}

	// Stable order for paging when the sort key ties
	return fmt.Sprintf(" ORDER BY %s %s, t.id %s", column, direction, direction)
}

// DeleteTransaction removes a transaction owned by userID. Tag associations
// go with it via cascade. The owner's budget is intentionally left untouched;
// the recompute routine reports any resulting drift.
func (s *SQLiteStorage) DeleteTransaction(ctx context.Context, userID, id int64) error {
	return s.deleteTransaction(ctx, s.db, userID, id)
}

func (s *SQLiteStorage) deleteTransaction(ctx context.Context, q dbtx, userID, id int64) error {
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
		`DELETE FROM transactions WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete transaction: %w", mapSQLiteError(err))
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: transaction", common.ErrNotFound)
	}

	slog.Debug("deleted transaction", "transaction_id", id, "user_id", userID)
	return nil
}

// loadTags fetches tag names for a set of transaction ids in one query.
func (s *SQLiteStorage) loadTags(ctx context.Context, q dbtx, txnIDs []int64) (map[int64][]string, error) {
	result := make(map[int64][]string, len(txnIDs))
	if len(txnIDs) == 0 {
		return result, nil
	}

	placeholders := make([]string, len(txnIDs))
	args := make([]any, len(txnIDs))
	for i, id := range txnIDs {
		placeholders[i] = "?"
		args[i] = id
	}

	rows, err := q.QueryContext(ctx, `
		SELECT tt.transaction_id, tg.name
		FROM transaction_tags tt
		JOIN tags tg ON tg.id = tt.tag_id
		WHERE tt.transaction_id IN (`+strings.Join(placeholders, ", ")+`)
		ORDER BY tg.name`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transaction tags: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var txnID int64
		var name string
		if err := rows.Scan(&txnID, &name); err != nil {
			return nil, fmt.Errorf("failed to scan transaction tag: %w", err)
		}
		result[txnID] = append(result[txnID], name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transaction tags: %w", err)
	}

	return result, nil
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	unique := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	return unique
}

func tagNames(tags []model.Tag) []string {
	if len(tags) == 0 {
		return nil
	}
	names := make([]string, len(tags))
	for i, tag := range tags {
		names[i] = tag.Name
	}
	return names
}
