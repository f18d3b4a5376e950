package checklist

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/nhle/checklist-sync/internal/model"
	"github.com/nhle/checklist-sync/internal/store"
)

// Reconciler brings a checklist template in line with a new seed and fans
// the structural changes out to every existing per-user copy. It is
// driven by the offline seeding process, never by end-user requests.
type Reconciler struct {
	store store.Store
	log   *zap.Logger
}

// NewReconciler returns a Reconciler backed by the given store.
func NewReconciler(st store.Store, log *zap.Logger) *Reconciler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Reconciler{store: st, log: log}
}

// Apply reconciles the named template against the seed's item list:
// upsert the template row, upsert each item by display text (preserving
// row ids so per-user references survive content edits), delete items
// whose content key no longer appears, verify the resulting count, then
// rebuild every per-user copy.
//
// The count check runs before fan-out on purpose: a diffing bug caught
// there corrupts one template, not every user's copy of it.
func (r *Reconciler) Apply(ctx context.Context, seed model.ChecklistSeed) (*model.Checklist, error) {
	if err := seed.Validate(); err != nil {
		return nil, err
	}

	r.log.Info("reconciling checklist",
		zap.String("name", seed.Name),
		zap.String("version", seed.Version),
		zap.Int("items", len(seed.Items)))

	cl, err := r.store.UpsertChecklist(ctx, seed.Name, seed.Version)
	if err != nil {
		return nil, fmt.Errorf("upserting checklist %q: %w", seed.Name, err)
	}

	if err := r.upsertItems(ctx, cl, seed.Items); err != nil {
		return nil, err
	}

	if err := r.deleteObsoleteItems(ctx, cl, seed.Items); err != nil {
		return nil, err
	}

	// Re-fetch the canonical item set and verify the count. This is the
	// load-bearing check that keeps a diffing bug from propagating.
	items, err := r.store.GetChecklistItems(ctx, cl.ID)
	if err != nil {
		return nil, fmt.Errorf("refetching items for %q: %w", seed.Name, err)
	}
	if len(items) != len(seed.Items) {
		return nil, &ConsistencyError{
			Checklist: seed.Name,
			Expected:  len(seed.Items),
			Actual:    len(items),
		}
	}

	if err := r.fanOut(ctx, cl, items); err != nil {
		return nil, err
	}

	r.log.Info("reconciled checklist", zap.String("name", seed.Name))
	cl.Items = items
	return cl, nil
}

// Replace destructively reseeds a template: the named checklist and its
// entire per-user cascade are deleted, then the seed is applied from
// scratch. Existing per-user copies are gone afterwards; users get fresh
// ones on next access.
func (r *Reconciler) Replace(ctx context.Context, seed model.ChecklistSeed) (*model.Checklist, error) {
	if err := seed.Validate(); err != nil {
		return nil, err
	}

	existing, err := r.store.GetChecklistByName(ctx, seed.Name)
	switch {
	case err == nil:
		r.log.Warn("deleting checklist before reseed",
			zap.String("name", seed.Name),
			zap.String("id", existing.ID))
		if err := r.store.DeleteChecklistCascade(ctx, existing.ID); err != nil {
			return nil, fmt.Errorf("deleting checklist %q: %w", seed.Name, err)
		}
	case store.IsNotFound(err):
		// Nothing to delete.
	default:
		return nil, err
	}

	return r.Apply(ctx, seed)
}

// upsertItems walks the seed list in order. The position in the list is
// the new display index. An existing item with the same display text is
// updated in place only when a field actually differs; anything else is
// created.
func (r *Reconciler) upsertItems(
	ctx context.Context,
	cl *model.Checklist,
	seedItems []model.SeedItem,
) error {
	for i, si := range seedItems {
		existing, err := r.store.GetItemByDisplayText(ctx, cl.ID, si.DisplayText)
		switch {
		case err == nil:
			changed := existing.DetailText != si.DetailText ||
				existing.IsRequired != si.IsRequired ||
				existing.LinkText != si.LinkText ||
				existing.LinkURI != si.LinkURI ||
				existing.DisplayIndex != i
			if !changed {
				continue
			}
			existing.DetailText = si.DetailText
			existing.IsRequired = si.IsRequired
			existing.LinkText = si.LinkText
			existing.LinkURI = si.LinkURI
			existing.DisplayIndex = i
			if len(si.Tags) > 0 {
				existing.Tags = si.Tags
			}
			if err := r.store.UpdateChecklistItem(ctx, *existing); err != nil {
				return fmt.Errorf("updating item %q: %w", si.DisplayText, err)
			}

		case store.IsNotFound(err):
			_, err := r.store.CreateChecklistItem(ctx, model.ChecklistItem{
				ChecklistID:  cl.ID,
				DisplayIndex: i,
				DisplayText:  si.DisplayText,
				DetailText:   si.DetailText,
				LinkText:     si.LinkText,
				LinkURI:      si.LinkURI,
				IsRequired:   si.IsRequired,
				Tags:         si.Tags,
			})
			if err != nil {
				return fmt.Errorf("creating item %q: %w", si.DisplayText, err)
			}

		default:
			return fmt.Errorf("looking up item %q: %w", si.DisplayText, err)
		}
	}
	return nil
}

// deleteObsoleteItems removes every stored item whose content key does
// not appear in the seed. The store deletes per-user references first so
// template rows never dangle.
func (r *Reconciler) deleteObsoleteItems(
	ctx context.Context,
	cl *model.Checklist,
	seedItems []model.SeedItem,
) error {
	current, err := r.store.GetChecklistItems(ctx, cl.ID)
	if err != nil {
		return fmt.Errorf("fetching items for %q: %w", cl.Name, err)
	}

	wanted := make(map[contentKey]struct{}, len(seedItems))
	for _, si := range seedItems {
		wanted[keyOfSeed(si)] = struct{}{}
	}

	var obsolete []string
	for _, item := range current {
		if _, ok := wanted[keyOfItem(item)]; !ok {
			obsolete = append(obsolete, item.ID)
		}
	}
	if len(obsolete) == 0 {
		return nil
	}

	r.log.Info("deleting obsolete items",
		zap.String("name", cl.Name),
		zap.Int("count", len(obsolete)))
	if err := r.store.DeleteChecklistItems(ctx, obsolete); err != nil {
		return fmt.Errorf("deleting obsolete items for %q: %w", cl.Name, err)
	}
	return nil
}

// fanOut rebuilds every per-user copy of the template so its item set
// mirrors the now-canonical template items. Each rebuild deletes all of
// the copy's items and recreates them incomplete, which resets the user's
// progress; that matches how the template has always behaved, and each
// per-user rebuild is atomic so no copy is ever observed half-built.
func (r *Reconciler) fanOut(
	ctx context.Context,
	cl *model.Checklist,
	items []model.ChecklistItem,
) error {
	userChecklists, err := r.store.ListUserChecklists(ctx, cl.ID)
	if err != nil {
		return fmt.Errorf("listing user checklists for %q: %w", cl.Name, err)
	}

	for _, uc := range userChecklists {
		if err := r.store.ReplaceUserChecklistItems(ctx, uc, items); err != nil {
			return fmt.Errorf("rebuilding user checklist %s: %w", uc.ID, err)
		}
	}

	if len(userChecklists) > 0 {
		r.log.Info("fanned out checklist changes",
			zap.String("name", cl.Name),
			zap.Int("users", len(userChecklists)))
	}
	return nil
}
