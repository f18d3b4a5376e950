package store

import (
	"context"
	"errors"

	"github.com/nhle/checklist-sync/internal/model"
)

// ErrNotFound is returned when a lookup matches no row. Callers that must
// hide the existence of other users' rows return it for ownership misses
// as well.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when an insert loses a race against a unique
// constraint. Callers should retry as a read rather than fail hard.
var ErrConflict = errors.New("conflict")

// IsNotFound reports whether err wraps ErrNotFound.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsConflict reports whether err wraps ErrConflict.
func IsConflict(err error) bool { return errors.Is(err, ErrConflict) }

// Store defines the persistence interface for checklist templates and
// their per-user copies. Implementations must keep each multi-row method
// (ReplaceUserChecklistItems, DeleteChecklistItems, the cascade deletes)
// atomic.
type Store interface {
	// === Checklist templates ===

	GetChecklistByName(ctx context.Context, name string) (*model.Checklist, error)
	UpsertChecklist(ctx context.Context, name, version string) (*model.Checklist, error)
	ListChecklists(ctx context.Context, limit, offset int) ([]model.Checklist, int, error)
	DeleteChecklistCascade(ctx context.Context, id string) error

	// === Template items ===

	GetChecklistItems(ctx context.Context, checklistID string) ([]model.ChecklistItem, error)
	GetItemByDisplayText(ctx context.Context, checklistID, displayText string) (*model.ChecklistItem, error)
	CreateChecklistItem(ctx context.Context, item model.ChecklistItem) (*model.ChecklistItem, error)
	UpdateChecklistItem(ctx context.Context, item model.ChecklistItem) error
	DeleteChecklistItems(ctx context.Context, ids []string) error

	// === Per-user copies ===

	GetUserChecklist(ctx context.Context, userID, checklistID string) (*model.UserChecklist, error)
	ListUserChecklists(ctx context.Context, checklistID string) ([]model.UserChecklist, error)
	CreateUserChecklist(ctx context.Context, userID, checklistID string) (*model.UserChecklist, error)
	DeleteUserChecklist(ctx context.Context, id string) error
	TouchUserChecklist(ctx context.Context, id string) error
	ReplaceUserChecklistItems(ctx context.Context, userChecklist model.UserChecklist, items []model.ChecklistItem) error
	GetUserChecklistItems(ctx context.Context, userChecklistID string) ([]model.UserChecklistItem, error)
	GetUserChecklistItem(ctx context.Context, id string) (*model.UserChecklistItem, error)
	SetUserItemComplete(ctx context.Context, id string, isComplete bool) error
}
