package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mtobin/pennywise/internal/common"
	"github.com/mtobin/pennywise/internal/model"
)

// CreateTag inserts a tag. Names are unique per owner; a duplicate surfaces
// as common.ErrDuplicateEntry.
func (s *SQLiteStorage) CreateTag(ctx context.Context, tag *model.Tag) (*model.Tag, error) {
	return s.createTag(ctx, s.db, tag)
}

func (s *SQLiteStorage) createTag(ctx context.Context, q dbtx, tag *model.Tag) (*model.Tag, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateTag(tag); err != nil {
		return nil, err
	}

	result, err := q.ExecContext(ctx,
		`INSERT INTO tags (name, user_id) VALUES (?, ?)`, tag.Name, tag.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to insert tag: %w", mapSQLiteError(err))
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get tag id: %w", err)
	}

	created := *tag
	created.ID = id

	slog.Debug("created tag", "tag_id", id, "user_id", tag.UserID, "name", tag.Name)
	return &created, nil
}

// GetTagsByIDs returns the tags among ids that belong to userID. Missing or
// foreign ids are simply absent from the result; callers compare lengths to
// detect them.
func (s *SQLiteStorage) GetTagsByIDs(ctx context.Context, userID int64, ids []int64) ([]model.Tag, error) {
	return s.getTagsByIDs(ctx, s.db, userID, ids)
}

func (s *SQLiteStorage) getTagsByIDs(ctx context.Context, q dbtx, userID int64, ids []int64) ([]model.Tag, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateID(userID, "userID"); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := make([]string, len(ids))
	args := []any{userID}
	for i, id := range ids {
		placeholders[i] = "?"
		args = append(args, id)
	}

	rows, err := q.QueryContext(ctx, `
		SELECT id, name, user_id FROM tags
		WHERE user_id = ? AND id IN (`+strings.Join(placeholders, ", ")+`)
		ORDER BY name`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tags: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return collectTags(rows)
}

// ListTags returns all of the user's tags ordered by name.
func (s *SQLiteStorage) ListTags(ctx context.Context, userID int64) ([]model.Tag, error) {
	return s.listTags(ctx, s.db, userID)
}

func (s *SQLiteStorage) listTags(ctx context.Context, q dbtx, userID int64) ([]model.Tag, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateID(userID, "userID"); err != nil {
		return nil, err
	}

	rows, err := q.QueryContext(ctx,
		`SELECT id, name, user_id FROM tags WHERE user_id = ? ORDER BY name`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query tags: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return collectTags(rows)
}

// RenameTag changes a tag's name, keeping per-user uniqueness.
func (s *SQLiteStorage) RenameTag(ctx context.Context, userID, id int64, name string) error {
	return s.renameTag(ctx, s.db, userID, id, name)
}

func (s *SQLiteStorage) renameTag(ctx context.Context, q dbtx, userID, id int64, name string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateID(userID, "userID"); err != nil {
		return err
	}
	if err := validateID(id, "id"); err != nil {
		return err
	}
	if err := validateString(name, "name"); err != nil {
		return err
	}

	result, err := q.ExecContext(ctx,
		`UPDATE tags SET name = ? WHERE id = ? AND user_id = ?`, name, id, userID)
	if err != nil {
		return fmt.Errorf("failed to rename tag: %w", mapSQLiteError(err))
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rename result: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: tag", common.ErrNotFound)
	}

	return nil
}

// DeleteTag removes a tag and, via cascade, its transaction associations.
func (s *SQLiteStorage) DeleteTag(ctx context.Context, userID, id int64) error {
	return s.deleteTag(ctx, s.db, userID, id)
}

func (s *SQLiteStorage) deleteTag(ctx context.Context, q dbtx, userID, id int64) error {
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
		`DELETE FROM tags WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete tag: %w", mapSQLiteError(err))
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: tag", common.ErrNotFound)
	}

	return nil
}

func collectTags(rows *sql.Rows) ([]model.Tag, error) {
	var tags []model.Tag
	for rows.Next() {
		var tag model.Tag
		if err := rows.Scan(&tag.ID, &tag.Name, &tag.UserID); err != nil {
			return nil, fmt.Errorf("failed to scan tag: %w", err)
		}
		tags = append(tags, tag)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tags: %w", err)
	}
	return tags, nil
}
