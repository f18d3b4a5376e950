package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/checklist-sync/internal/model"
)

// GetUserChecklist retrieves the per-user copy for a (user, checklist)
// pair. At most one exists.
func (s *SQLiteStore) GetUserChecklist(
	ctx context.Context,
	userID, checklistID string,
) (*model.UserChecklist, error) {
	row := s.db.QueryRowxContext(ctx,
		"SELECT * FROM user_checklists WHERE user_id = ? AND checklist_id = ?",
		userID, checklistID)

	uc, err := scanUserChecklist(row)
	if err != nil {
		return nil, fmt.Errorf("getting user checklist for user %s: %w",
			userID, notFoundOr(err))
	}
	return &uc, nil
}

// ListUserChecklists returns every per-user copy referencing a checklist
// template. Used to fan structural template changes out to all users.
func (s *SQLiteStore) ListUserChecklists(
	ctx context.Context,
	checklistID string,
) ([]model.UserChecklist, error) {
	rows, err := s.db.QueryxContext(ctx,
		"SELECT * FROM user_checklists WHERE checklist_id = ? ORDER BY created_at",
		checklistID)
	if err != nil {
		return nil, fmt.Errorf("querying user checklists: %w", err)
	}
	defer rows.Close()

	var checklists []model.UserChecklist
	for rows.Next() {
		uc, err := scanUserChecklist(rows)
		if err != nil {
			return nil, err
		}
		checklists = append(checklists, uc)
	}
	return checklists, rows.Err()
}

// CreateUserChecklist inserts an empty per-user copy. Losing a race
// against the (user_id, checklist_id) unique constraint surfaces as
// ErrConflict; callers should re-read instead of failing.
func (s *SQLiteStore) CreateUserChecklist(
	ctx context.Context,
	userID, checklistID string,
) (*model.UserChecklist, error) {
	now := time.Now().UTC()
	uc := model.UserChecklist{
		ID:          uuid.New().String(),
		UserID:      userID,
		ChecklistID: checklistID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO user_checklists (id, user_id, checklist_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`,
		uc.ID, uc.UserID, uc.ChecklistID, uc.CreatedAt, uc.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("creating user checklist for user %s: %w",
				userID, ErrConflict)
		}
		return nil, fmt.Errorf("creating user checklist for user %s: %w", userID, err)
	}
	return &uc, nil
}

// DeleteUserChecklist removes a per-user copy and its items in one
// transaction.
func (s *SQLiteStore) DeleteUserChecklist(ctx context.Context, id string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"DELETE FROM user_checklist_items WHERE user_checklist_id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting items of user checklist %s: %w", id, err)
	}

	result, err := tx.ExecContext(ctx, "DELETE FROM user_checklists WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting user checklist %s: %w", id, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("deleting user checklist %s: %w", id, ErrNotFound)
	}

	return tx.Commit()
}

// TouchUserChecklist bumps a per-user copy's updated_at.
func (s *SQLiteStore) TouchUserChecklist(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE user_checklists SET updated_at = ? WHERE id = ?",
		time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("touching user checklist %s: %w", id, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("touching user checklist %s: %w", id, ErrNotFound)
	}
	return nil
}

// ReplaceUserChecklistItems deletes every item of a per-user copy and
// recreates one incomplete item per template item, in one transaction.
// The copy's updated_at is bumped as part of the rebuild.
func (s *SQLiteStore) ReplaceUserChecklistItems(
	ctx context.Context,
	userChecklist model.UserChecklist,
	items []model.ChecklistItem,
) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"DELETE FROM user_checklist_items WHERE user_checklist_id = ?",
		userChecklist.ID)
	if err != nil {
		return fmt.Errorf("clearing items of user checklist %s: %w", userChecklist.ID, err)
	}

	stmt, err := tx.PreparexContext(ctx, `
		INSERT INTO user_checklist_items (
			id, user_checklist_id, checklist_item_id, user_id, is_complete
		) VALUES (?, ?, ?, ?, 0)`)
	if err != nil {
		return fmt.Errorf("preparing user item insert: %w", err)
	}
	defer stmt.Close()

	for _, item := range items {
		_, err = stmt.ExecContext(ctx,
			uuid.New().String(), userChecklist.ID, item.ID, userChecklist.UserID)
		if err != nil {
			return fmt.Errorf("inserting user item for %q: %w", item.DisplayText, err)
		}
	}

	_, err = tx.ExecContext(ctx,
		"UPDATE user_checklists SET updated_at = ? WHERE id = ?",
		time.Now().UTC(), userChecklist.ID)
	if err != nil {
		return fmt.Errorf("touching user checklist %s: %w", userChecklist.ID, err)
	}

	return tx.Commit()
}

// GetUserChecklistItems returns a per-user copy's items joined with their
// backing template items, ordered by display_index.
func (s *SQLiteStore) GetUserChecklistItems(
	ctx context.Context,
	userChecklistID string,
) ([]model.UserChecklistItem, error) {
	rows, err := s.db.QueryxContext(ctx, `
		SELECT ui.id, ui.user_checklist_id, ui.checklist_item_id, ui.user_id, ui.is_complete,
		       ci.id, ci.checklist_id, ci.display_index, ci.display_text, ci.detail_text,
		       ci.link_text, ci.link_uri, ci.is_required, ci.tags, ci.created_at
		FROM user_checklist_items ui
		INNER JOIN checklist_items ci ON ci.id = ui.checklist_item_id
		WHERE ui.user_checklist_id = ?
		ORDER BY ci.display_index`,
		userChecklistID)
	if err != nil {
		return nil, fmt.Errorf("querying user checklist items: %w", err)
	}
	defer rows.Close()

	var items []model.UserChecklistItem
	for rows.Next() {
		item, err := scanUserChecklistItemJoined(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// GetUserChecklistItem retrieves a single per-user item by id, including
// its backing template item.
func (s *SQLiteStore) GetUserChecklistItem(
	ctx context.Context,
	id string,
) (*model.UserChecklistItem, error) {
	row := s.db.QueryRowxContext(ctx, `
		SELECT ui.id, ui.user_checklist_id, ui.checklist_item_id, ui.user_id, ui.is_complete,
		       ci.id, ci.checklist_id, ci.display_index, ci.display_text, ci.detail_text,
		       ci.link_text, ci.link_uri, ci.is_required, ci.tags, ci.created_at
		FROM user_checklist_items ui
		INNER JOIN checklist_items ci ON ci.id = ui.checklist_item_id
		WHERE ui.id = ?`,
		id)

	item, err := scanUserChecklistItemJoined(row)
	if err != nil {
		return nil, fmt.Errorf("getting user checklist item %s: %w", id, notFoundOr(err))
	}
	return &item, nil
}

// SetUserItemComplete updates a per-user item's completion flag and bumps
// the owning checklist's updated_at, in one transaction. No other field
// is touched.
func (s *SQLiteStore) SetUserItemComplete(
	ctx context.Context,
	id string,
	isComplete bool,
) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		"UPDATE user_checklist_items SET is_complete = ? WHERE id = ?",
		boolToInt(isComplete), id)
	if err != nil {
		return fmt.Errorf("updating user checklist item %s: %w", id, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("updating user checklist item %s: %w", id, ErrNotFound)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE user_checklists SET updated_at = ?
		WHERE id = (SELECT user_checklist_id FROM user_checklist_items WHERE id = ?)`,
		time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("touching owner of user checklist item %s: %w", id, err)
	}

	return tx.Commit()
}

// scanUserChecklist scans a user_checklists row from any Scan-capable source.
func scanUserChecklist(row interface{ Scan(dest ...interface{}) error }) (model.UserChecklist, error) {
	var uc model.UserChecklist
	err := row.Scan(&uc.ID, &uc.UserID, &uc.ChecklistID, &uc.CreatedAt, &uc.UpdatedAt)
	if err != nil {
		return model.UserChecklist{}, fmt.Errorf("scanning user checklist row: %w", err)
	}
	return uc, nil
}

// scanUserChecklistItemJoined scans a user item joined with its backing
// template item.
func scanUserChecklistItemJoined(row interface{ Scan(dest ...interface{}) error }) (model.UserChecklistItem, error) {
	var (
		item        model.UserChecklistItem
		completeInt int
		backing     model.ChecklistItem
		requiredInt int
		tagsJSON    string
	)

	err := row.Scan(
		&item.ID, &item.UserChecklistID, &item.ChecklistItemID, &item.UserID, &completeInt,
		&backing.ID, &backing.ChecklistID, &backing.DisplayIndex, &backing.DisplayText,
		&backing.DetailText, &backing.LinkText, &backing.LinkURI, &requiredInt,
		&tagsJSON, &backing.CreatedAt,
	)
	if err != nil {
		return model.UserChecklistItem{}, fmt.Errorf("scanning user checklist item row: %w", err)
	}

	item.IsComplete = completeInt != 0
	backing.IsRequired = requiredInt != 0
	if tagsJSON != "" {
		if err := json.Unmarshal([]byte(tagsJSON), &backing.Tags); err != nil {
			return model.UserChecklistItem{}, fmt.Errorf("unmarshaling item tags: %w", err)
		}
	}
	item.Item = &backing
	return item, nil
}
