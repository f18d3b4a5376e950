package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/nhle/checklist-sync/internal/model"
)

// GetChecklistByName retrieves the current checklist template for a name.
// Multiple historical rows may share a name; the newest one wins.
func (s *SQLiteStore) GetChecklistByName(
	ctx context.Context,
	name string,
) (*model.Checklist, error) {
	row := s.db.QueryRowxContext(ctx,
		"SELECT * FROM checklists WHERE name = ? ORDER BY created_at DESC, id DESC LIMIT 1",
		name)

	cl, err := scanChecklist(row)
	if err != nil {
		return nil, fmt.Errorf("getting checklist %q: %w", name, notFoundOr(err))
	}
	return &cl, nil
}

// UpsertChecklist creates a checklist template if none exists for the name,
// otherwise updates its version in place, retaining the row id.
func (s *SQLiteStore) UpsertChecklist(
	ctx context.Context,
	name, version string,
) (*model.Checklist, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("checklist name must not be empty")
	}

	now := time.Now().UTC()

	existing, err := s.GetChecklistByName(ctx, name)
	switch {
	case err == nil:
		_, err = s.db.ExecContext(ctx,
			"UPDATE checklists SET version = ?, updated_at = ? WHERE id = ?",
			version, now, existing.ID)
		if err != nil {
			return nil, fmt.Errorf("updating checklist %q version: %w", name, err)
		}
		existing.Version = version
		existing.UpdatedAt = now
		return existing, nil

	case errors.Is(err, ErrNotFound):
		cl := model.Checklist{
			ID:        uuid.New().String(),
			Name:      name,
			Version:   version,
			CreatedAt: now,
			UpdatedAt: now,
		}
		_, err = s.db.ExecContext(ctx, `
			INSERT INTO checklists (id, name, version, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?)`,
			cl.ID, cl.Name, cl.Version, cl.CreatedAt, cl.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("creating checklist %q: %w", name, err)
		}
		return &cl, nil

	default:
		return nil, err
	}
}

// ListChecklists retrieves checklist templates ordered by name, along with
// the total count for paging.
func (s *SQLiteStore) ListChecklists(
	ctx context.Context,
	limit, offset int,
) ([]model.Checklist, int, error) {
	var count int
	if err := s.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM checklists"); err != nil {
		return nil, 0, fmt.Errorf("counting checklists: %w", err)
	}

	query := "SELECT * FROM checklists ORDER BY name, created_at"
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	} else if offset > 0 {
		// OFFSET is only valid after a LIMIT clause; -1 means unlimited.
		query += " LIMIT -1"
	}
	if offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", offset)
	}

	rows, err := s.db.QueryxContext(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("querying checklists: %w", err)
	}
	defer rows.Close()

	var checklists []model.Checklist
	for rows.Next() {
		cl, err := scanChecklist(rows)
		if err != nil {
			return nil, 0, err
		}
		checklists = append(checklists, cl)
	}
	return checklists, count, rows.Err()
}

// DeleteChecklistCascade removes a checklist template and everything that
// hangs off it: per-user items, per-user checklists, then template items,
// then the template row. The whole cascade is one transaction.
func (s *SQLiteStore) DeleteChecklistCascade(ctx context.Context, id string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		DELETE FROM user_checklist_items WHERE user_checklist_id IN (
			SELECT id FROM user_checklists WHERE checklist_id = ?
		)`, id)
	if err != nil {
		return fmt.Errorf("deleting user items for checklist %s: %w", id, err)
	}

	_, err = tx.ExecContext(ctx, "DELETE FROM user_checklists WHERE checklist_id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting user checklists for checklist %s: %w", id, err)
	}

	_, err = tx.ExecContext(ctx, "DELETE FROM checklist_items WHERE checklist_id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting items for checklist %s: %w", id, err)
	}

	result, err := tx.ExecContext(ctx, "DELETE FROM checklists WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting checklist %s: %w", id, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("deleting checklist %s: %w", id, ErrNotFound)
	}

	return tx.Commit()
}

// GetChecklistItems returns all template items for a checklist, ordered by
// display_index.
func (s *SQLiteStore) GetChecklistItems(
	ctx context.Context,
	checklistID string,
) ([]model.ChecklistItem, error) {
	rows, err := s.db.QueryxContext(ctx,
		"SELECT * FROM checklist_items WHERE checklist_id = ? ORDER BY display_index",
		checklistID)
	if err != nil {
		return nil, fmt.Errorf("querying checklist items: %w", err)
	}
	defer rows.Close()

	var items []model.ChecklistItem
	for rows.Next() {
		item, err := scanChecklistItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// GetItemByDisplayText retrieves the template item with the given display
// text under a checklist. This is the lookup behind update-vs-insert
// decisions during reconciliation.
func (s *SQLiteStore) GetItemByDisplayText(
	ctx context.Context,
	checklistID, displayText string,
) (*model.ChecklistItem, error) {
	row := s.db.QueryRowxContext(ctx,
		"SELECT * FROM checklist_items WHERE checklist_id = ? AND display_text = ?",
		checklistID, displayText)

	item, err := scanChecklistItem(row)
	if err != nil {
		return nil, fmt.Errorf("getting item %q: %w", displayText, notFoundOr(err))
	}
	return &item, nil
}

// CreateChecklistItem inserts a new template item. Generates a UUID if ID
// is empty. A duplicate display text under the same checklist surfaces as
// ErrConflict.
func (s *SQLiteStore) CreateChecklistItem(
	ctx context.Context,
	item model.ChecklistItem,
) (*model.ChecklistItem, error) {
	if strings.TrimSpace(item.DisplayText) == "" {
		return nil, fmt.Errorf("checklist item display text must not be empty")
	}
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	item.CreatedAt = time.Now().UTC()

	tags, err := json.Marshal(tagsOrEmpty(item.Tags))
	if err != nil {
		return nil, fmt.Errorf("marshaling tags for item %q: %w", item.DisplayText, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO checklist_items (
			id, checklist_id, display_index, display_text, detail_text,
			link_text, link_uri, is_required, tags, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ID, item.ChecklistID, item.DisplayIndex, item.DisplayText, item.DetailText,
		item.LinkText, item.LinkURI, boolToInt(item.IsRequired), string(tags), item.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("creating item %q: %w", item.DisplayText, ErrConflict)
		}
		return nil, fmt.Errorf("creating item %q: %w", item.DisplayText, err)
	}
	return &item, nil
}

// UpdateChecklistItem updates a template item's content fields and display
// index in place, preserving the row id.
func (s *SQLiteStore) UpdateChecklistItem(
	ctx context.Context,
	item model.ChecklistItem,
) error {
	tags, err := json.Marshal(tagsOrEmpty(item.Tags))
	if err != nil {
		return fmt.Errorf("marshaling tags for item %s: %w", item.ID, err)
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE checklist_items SET
			display_index = ?, detail_text = ?, link_text = ?,
			link_uri = ?, is_required = ?, tags = ?
		WHERE id = ?`,
		item.DisplayIndex, item.DetailText, item.LinkText,
		item.LinkURI, boolToInt(item.IsRequired), string(tags),
		item.ID,
	)
	if err != nil {
		return fmt.Errorf("updating item %s: %w", item.ID, err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("updating item %s: %w", item.ID, ErrNotFound)
	}
	return nil
}

// DeleteChecklistItems removes template items by id. Per-user rows
// referencing them are removed first so the template rows never dangle;
// both deletes run in one transaction.
func (s *SQLiteStore) DeleteChecklistItems(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	query, args, err := sqlx.In(
		"DELETE FROM user_checklist_items WHERE checklist_item_id IN (?)", ids)
	if err != nil {
		return fmt.Errorf("building user item delete: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("deleting user items for obsolete items: %w", err)
	}

	query, args, err = sqlx.In("DELETE FROM checklist_items WHERE id IN (?)", ids)
	if err != nil {
		return fmt.Errorf("building item delete: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("deleting obsolete items: %w", err)
	}

	return tx.Commit()
}

// scanChecklist scans a checklist row from any Scan-capable source.
func scanChecklist(row interface{ Scan(dest ...interface{}) error }) (model.Checklist, error) {
	var cl model.Checklist
	err := row.Scan(&cl.ID, &cl.Name, &cl.Version, &cl.CreatedAt, &cl.UpdatedAt)
	if err != nil {
		return model.Checklist{}, fmt.Errorf("scanning checklist row: %w", err)
	}
	return cl, nil
}

// scanChecklistItem scans a checklist_items row from any Scan-capable source.
func scanChecklistItem(row interface{ Scan(dest ...interface{}) error }) (model.ChecklistItem, error) {
	var (
		item        model.ChecklistItem
		requiredInt int
		tagsJSON    string
	)

	err := row.Scan(
		&item.ID, &item.ChecklistID, &item.DisplayIndex, &item.DisplayText,
		&item.DetailText, &item.LinkText, &item.LinkURI, &requiredInt,
		&tagsJSON, &item.CreatedAt,
	)
	if err != nil {
		return model.ChecklistItem{}, fmt.Errorf("scanning checklist item row: %w", err)
	}

	item.IsRequired = requiredInt != 0
	if tagsJSON != "" {
		if err := json.Unmarshal([]byte(tagsJSON), &item.Tags); err != nil {
			return model.ChecklistItem{}, fmt.Errorf("unmarshaling item tags: %w", err)
		}
	}
	return item, nil
}

// tagsOrEmpty normalizes nil tag slices so the column always holds a JSON
// array.
func tagsOrEmpty(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}
