package model

import "time"

// UserChecklist is one user's private, mutable copy of a checklist
// template. At most one exists per (user, checklist) pair. UpdatedAt is
// bumped on every toggle and on every template-driven rebuild.
type UserChecklist struct {
	ID          string    `json:"id" db:"id"`
	UserID      string    `json:"user_id" db:"user_id"`
	ChecklistID string    `json:"checklist_id" db:"checklist_id"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`

	// Items is populated by queries that load the full copy, ordered by
	// the backing item's display_index.
	Items []UserChecklistItem `json:"items,omitempty" db:"-"`
}

// UserChecklistItem is one line of a per-user checklist. IsComplete is
// the only user-owned state in the subsystem; everything else is a
// projection of the backing ChecklistItem.
type UserChecklistItem struct {
	ID              string `json:"id" db:"id"`
	UserChecklistID string `json:"user_checklist_id" db:"user_checklist_id"`
	ChecklistItemID string `json:"checklist_item_id" db:"checklist_item_id"`
	UserID          string `json:"user_id" db:"user_id"`
	IsComplete      bool   `json:"is_complete" db:"is_complete"`

	// Item is populated by queries that join with checklist_items.
	Item *ChecklistItem `json:"item,omitempty" db:"-"`
}
