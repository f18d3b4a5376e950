package checklist

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/nhle/checklist-sync/internal/model"
	"github.com/nhle/checklist-sync/internal/store"
)

// Service is the request-facing side of the engine: materializing a
// user's copy of a template on read and flipping completion flags on
// write. It assumes templates are already canonical; it never runs a
// reconciliation.
type Service struct {
	store store.Store
	log   *zap.Logger
}

// NewService returns a Service backed by the given store.
func NewService(st store.Store, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{store: st, log: log}
}

// GetOrCreate returns the user's copy of the named template, lazily
// creating it on first access. A copy that exists but has zero items
// while the template has some is treated as damaged (for example a crash
// between its creation and its population) and is deleted and rebuilt.
// The returned copy carries its
// items ordered by display index, joined with their template items.
func (s *Service) GetOrCreate(
	ctx context.Context,
	userID, templateName string,
) (*model.UserChecklist, error) {
	cl, err := s.store.GetChecklistByName(ctx, templateName)
	if err != nil {
		return nil, fmt.Errorf("looking up checklist %q: %w", templateName, err)
	}

	uc, err := s.store.GetUserChecklist(ctx, userID, cl.ID)
	switch {
	case err == nil:
		items, err := s.store.GetUserChecklistItems(ctx, uc.ID)
		if err != nil {
			return nil, fmt.Errorf("loading items of user checklist %s: %w", uc.ID, err)
		}

		damaged := false
		if len(items) == 0 {
			// Zero items only means a half-created copy when the template
			// actually has items; an empty template's copy is correctly
			// empty and must not churn through delete/recreate on reads.
			templateItems, err := s.store.GetChecklistItems(ctx, cl.ID)
			if err != nil {
				return nil, fmt.Errorf("loading items of checklist %q: %w", cl.Name, err)
			}
			damaged = len(templateItems) > 0
		}

		if !damaged {
			if err := s.store.TouchUserChecklist(ctx, uc.ID); err != nil {
				return nil, err
			}
			// Re-read so the caller sees the updated_at the store holds.
			refreshed, err := s.store.GetUserChecklist(ctx, userID, cl.ID)
			if err != nil {
				return nil, fmt.Errorf("re-reading user checklist %s: %w", uc.ID, err)
			}
			refreshed.Items = items
			return refreshed, nil
		}

		s.log.Warn("repairing empty user checklist",
			zap.String("user_checklist_id", uc.ID),
			zap.String("checklist", templateName))
		if err := s.store.DeleteUserChecklist(ctx, uc.ID); err != nil {
			return nil, fmt.Errorf("deleting empty user checklist %s: %w", uc.ID, err)
		}

	case store.IsNotFound(err):
		// First access; fall through to create.

	default:
		return nil, err
	}

	return s.materialize(ctx, userID, cl)
}

// materialize creates the per-user copy and populates one incomplete item
// per template item. A concurrent first access can win the create race;
// the unique constraint turns that into a conflict, which is retried as a
// read.
func (s *Service) materialize(
	ctx context.Context,
	userID string,
	cl *model.Checklist,
) (*model.UserChecklist, error) {
	uc, err := s.store.CreateUserChecklist(ctx, userID, cl.ID)
	if store.IsConflict(err) {
		existing, err := s.store.GetUserChecklist(ctx, userID, cl.ID)
		if err != nil {
			return nil, fmt.Errorf("re-reading user checklist after conflict: %w", err)
		}
		existing.Items, err = s.store.GetUserChecklistItems(ctx, existing.ID)
		if err != nil {
			return nil, fmt.Errorf("loading items of user checklist %s: %w", existing.ID, err)
		}
		return existing, nil
	}
	if err != nil {
		return nil, fmt.Errorf("creating user checklist: %w", err)
	}

	templateItems, err := s.store.GetChecklistItems(ctx, cl.ID)
	if err != nil {
		return nil, fmt.Errorf("loading items of checklist %q: %w", cl.Name, err)
	}
	if err := s.store.ReplaceUserChecklistItems(ctx, *uc, templateItems); err != nil {
		return nil, fmt.Errorf("populating user checklist %s: %w", uc.ID, err)
	}

	uc.Items, err = s.store.GetUserChecklistItems(ctx, uc.ID)
	if err != nil {
		return nil, fmt.Errorf("loading items of user checklist %s: %w", uc.ID, err)
	}

	s.log.Info("materialized user checklist",
		zap.String("checklist", cl.Name),
		zap.String("user_id", userID),
		zap.Int("items", len(uc.Items)))
	return uc, nil
}

// SetComplete flips a single per-user item's completion flag on behalf of
// actingUserID. Items owned by another user are reported as not found,
// never as forbidden, so their existence is not revealed. The owning
// checklist's updated_at is bumped; nothing else changes.
func (s *Service) SetComplete(
	ctx context.Context,
	actingUserID, itemID string,
	isComplete bool,
) (*model.UserChecklistItem, error) {
	item, err := s.store.GetUserChecklistItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.UserID != actingUserID {
		return nil, fmt.Errorf("getting user checklist item %s: %w", itemID, store.ErrNotFound)
	}

	if err := s.store.SetUserItemComplete(ctx, itemID, isComplete); err != nil {
		return nil, err
	}

	item.IsComplete = isComplete
	return item, nil
}
