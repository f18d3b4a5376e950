package model

import "time"

// Checklist is the authored, shared definition of an ordered checklist.
// Its items are the single source of truth that every per-user copy mirrors.
type Checklist struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Version   string    `json:"version" db:"version"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`

	// Items is populated by queries that load the full checklist,
	// ordered by display_index.
	Items []ChecklistItem `json:"items,omitempty" db:"-"`
}

// ChecklistItem is one line of a checklist template: text, optional link,
// required flag. Identity across template revisions is content-based, not
// id-based; the id is only stable while the display text stays put.
type ChecklistItem struct {
	ID           string    `json:"id" db:"id"`
	ChecklistID  string    `json:"checklist_id" db:"checklist_id"`
	DisplayIndex int       `json:"display_index" db:"display_index"`
	DisplayText  string    `json:"display_text" db:"display_text"`
	DetailText   string    `json:"detail_text" db:"detail_text"`
	LinkText     string    `json:"link_text" db:"link_text"`
	LinkURI      string    `json:"link_uri" db:"link_uri"`
	IsRequired   bool      `json:"is_required" db:"is_required"`
	Tags         []string  `json:"tags,omitempty" db:"-"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}
