package checklist_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/checklist-sync/internal/checklist"
	"github.com/nhle/checklist-sync/internal/model"
	"github.com/nhle/checklist-sync/internal/store"
	"github.com/nhle/checklist-sync/tests/testutil"
)

func seedTemplate(t *testing.T, st store.Store, name string, texts ...string) {
	t.Helper()

	items := make([]model.SeedItem, len(texts))
	for i, text := range texts {
		items[i] = textItem(text)
	}
	_, err := checklist.NewReconciler(st, nil).Apply(context.Background(),
		seedOf(name, "v1", items...))
	require.NoError(t, err)
}

func TestGetOrCreateMaterializesOnFirstAccess(t *testing.T) {
	st := testutil.NewTestStore(t)
	svc := checklist.NewService(st, nil)
	ctx := context.Background()

	seedTemplate(t, st, "Onboarding", "Do A", "Do B")

	uc, err := svc.GetOrCreate(ctx, "user-1", "Onboarding")
	require.NoError(t, err)
	require.Len(t, uc.Items, 2)

	assert.Equal(t, "user-1", uc.UserID)
	assert.Equal(t, "Do A", uc.Items[0].Item.DisplayText)
	assert.Equal(t, "Do B", uc.Items[1].Item.DisplayText)
	for _, item := range uc.Items {
		assert.False(t, item.IsComplete)
		assert.Equal(t, "user-1", item.UserID)
	}
}

func TestGetOrCreateIsIdempotent(t *testing.T) {
	st := testutil.NewTestStore(t)
	svc := checklist.NewService(st, nil)
	ctx := context.Background()

	seedTemplate(t, st, "Onboarding", "Do A", "Do B")

	first, err := svc.GetOrCreate(ctx, "user-1", "Onboarding")
	require.NoError(t, err)

	second, err := svc.GetOrCreate(ctx, "user-1", "Onboarding")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	require.Len(t, second.Items, len(first.Items))
	for i := range first.Items {
		assert.Equal(t, first.Items[i].ID, second.Items[i].ID)
	}

	cl, err := st.GetChecklistByName(ctx, "Onboarding")
	require.NoError(t, err)
	users, err := st.ListUserChecklists(ctx, cl.ID)
	require.NoError(t, err)
	assert.Len(t, users, 1, "repeat access must not create a second copy")
}

func TestGetOrCreateTouchesHealthyCopy(t *testing.T) {
	st := testutil.NewTestStore(t)
	svc := checklist.NewService(st, nil)
	ctx := context.Background()

	seedTemplate(t, st, "Onboarding", "Do A")

	first, err := svc.GetOrCreate(ctx, "user-1", "Onboarding")
	require.NoError(t, err)

	time.Sleep(20 * time.Millisecond)

	second, err := svc.GetOrCreate(ctx, "user-1", "Onboarding")
	require.NoError(t, err)
	assert.True(t, second.UpdatedAt.After(first.UpdatedAt),
		"returned copy should carry the bumped updated_at")

	refreshed, err := st.GetUserChecklist(ctx, "user-1", first.ChecklistID)
	require.NoError(t, err)
	assert.True(t, refreshed.UpdatedAt.After(first.UpdatedAt),
		"read path should bump updated_at")
	assert.True(t, second.UpdatedAt.Equal(refreshed.UpdatedAt),
		"returned and stored timestamps must agree")
}

// racingCreateStore materializes a rival copy right before delegating the
// create, so the caller always loses the (user_id, checklist_id) race.
type racingCreateStore struct {
	store.Store
	rival        *checklist.Service
	userID, name string
	raced        bool
}

func (s *racingCreateStore) CreateUserChecklist(
	ctx context.Context,
	userID, checklistID string,
) (*model.UserChecklist, error) {
	if !s.raced {
		s.raced = true
		if _, err := s.rival.GetOrCreate(ctx, s.userID, s.name); err != nil {
			return nil, err
		}
	}
	return s.Store.CreateUserChecklist(ctx, userID, checklistID)
}

func TestGetOrCreateRetriesLostCreateRaceAsRead(t *testing.T) {
	st := testutil.NewTestStore(t)
	ctx := context.Background()

	seedTemplate(t, st, "Onboarding", "Do A")

	racing := &racingCreateStore{
		Store:  st,
		rival:  checklist.NewService(st, nil),
		userID: "user-1",
		name:   "Onboarding",
	}
	loser := checklist.NewService(racing, nil)

	uc, err := loser.GetOrCreate(ctx, "user-1", "Onboarding")
	require.NoError(t, err)
	require.Len(t, uc.Items, 1)
	assert.Equal(t, "Do A", uc.Items[0].Item.DisplayText)

	cl, err := st.GetChecklistByName(ctx, "Onboarding")
	require.NoError(t, err)
	users, err := st.ListUserChecklists(ctx, cl.ID)
	require.NoError(t, err)
	require.Len(t, users, 1, "losing the race must not leave a second copy")
	assert.Equal(t, users[0].ID, uc.ID, "loser adopts the winner's copy")
}

func TestGetOrCreateEmptyTemplateIsStable(t *testing.T) {
	st := testutil.NewTestStore(t)
	svc := checklist.NewService(st, nil)
	ctx := context.Background()

	_, err := checklist.NewReconciler(st, nil).Apply(ctx, seedOf("Empty", "v1"))
	require.NoError(t, err)

	first, err := svc.GetOrCreate(ctx, "user-1", "Empty")
	require.NoError(t, err)
	assert.Empty(t, first.Items)

	second, err := svc.GetOrCreate(ctx, "user-1", "Empty")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID,
		"an empty template's copy is healthy, not damaged")
}

func TestGetOrCreateRepairsEmptyCopy(t *testing.T) {
	st := testutil.NewTestStore(t)
	svc := checklist.NewService(st, nil)
	ctx := context.Background()

	seedTemplate(t, st, "Onboarding", "Do A", "Do B")

	uc, err := svc.GetOrCreate(ctx, "user-1", "Onboarding")
	require.NoError(t, err)

	// Wipe the items, leaving a zero-item copy behind.
	require.NoError(t, st.ReplaceUserChecklistItems(ctx, model.UserChecklist{
		ID: uc.ID, UserID: uc.UserID, ChecklistID: uc.ChecklistID,
	}, nil))

	repaired, err := svc.GetOrCreate(ctx, "user-1", "Onboarding")
	require.NoError(t, err)

	assert.NotEqual(t, uc.ID, repaired.ID, "repair replaces the damaged copy")
	require.Len(t, repaired.Items, 2)
	for _, item := range repaired.Items {
		assert.False(t, item.IsComplete)
	}
}

func TestGetOrCreateUnknownTemplate(t *testing.T) {
	st := testutil.NewTestStore(t)
	svc := checklist.NewService(st, nil)

	_, err := svc.GetOrCreate(context.Background(), "user-1", "No Such List")
	assert.True(t, store.IsNotFound(err), "expected not found, got %v", err)
}

func TestSetCompleteTogglesSingleItem(t *testing.T) {
	st := testutil.NewTestStore(t)
	svc := checklist.NewService(st, nil)
	ctx := context.Background()

	seedTemplate(t, st, "Onboarding", "Do A", "Do B")

	uc, err := svc.GetOrCreate(ctx, "user-1", "Onboarding")
	require.NoError(t, err)

	item, err := svc.SetComplete(ctx, "user-1", uc.Items[0].ID, true)
	require.NoError(t, err)
	assert.True(t, item.IsComplete)

	after, err := svc.GetOrCreate(ctx, "user-1", "Onboarding")
	require.NoError(t, err)
	assert.True(t, after.Items[0].IsComplete)
	assert.False(t, after.Items[1].IsComplete, "only the targeted item changes")

	item, err = svc.SetComplete(ctx, "user-1", uc.Items[0].ID, false)
	require.NoError(t, err)
	assert.False(t, item.IsComplete)
}

func TestSetCompleteHidesOtherUsersItems(t *testing.T) {
	st := testutil.NewTestStore(t)
	svc := checklist.NewService(st, nil)
	ctx := context.Background()

	seedTemplate(t, st, "Onboarding", "Do A")

	owner, err := svc.GetOrCreate(ctx, "user-x", "Onboarding")
	require.NoError(t, err)

	_, err = svc.SetComplete(ctx, "user-y", owner.Items[0].ID, true)
	assert.True(t, store.IsNotFound(err),
		"foreign items must look like they do not exist, got %v", err)

	item, err := st.GetUserChecklistItem(ctx, owner.Items[0].ID)
	require.NoError(t, err)
	assert.False(t, item.IsComplete, "denied toggle must not change state")
}

func TestSetCompleteUnknownItem(t *testing.T) {
	st := testutil.NewTestStore(t)
	svc := checklist.NewService(st, nil)

	_, err := svc.SetComplete(context.Background(), "user-1", "no-such-id", true)
	assert.True(t, store.IsNotFound(err))
}

func TestSetCompleteTouchesOwningChecklist(t *testing.T) {
	st := testutil.NewTestStore(t)
	svc := checklist.NewService(st, nil)
	ctx := context.Background()

	seedTemplate(t, st, "Onboarding", "Do A")

	uc, err := svc.GetOrCreate(ctx, "user-1", "Onboarding")
	require.NoError(t, err)

	time.Sleep(20 * time.Millisecond)

	_, err = svc.SetComplete(ctx, "user-1", uc.Items[0].ID, true)
	require.NoError(t, err)

	refreshed, err := st.GetUserChecklist(ctx, "user-1", uc.ChecklistID)
	require.NoError(t, err)
	assert.True(t, refreshed.UpdatedAt.After(uc.UpdatedAt))
}
