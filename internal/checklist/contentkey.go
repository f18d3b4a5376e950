package checklist

import "github.com/nhle/checklist-sync/internal/model"

// contentKey is the structural identity of a checklist item. Two items
// are the same logical item iff all five display fields are equal. The
// comparable struct keeps field boundaries intact, so ("ab","c") and
// ("a","bc") never collide the way concatenated keys would.
type contentKey struct {
	displayText string
	detailText  string
	linkText    string
	linkURI     string
	isRequired  bool
}

func keyOfItem(item model.ChecklistItem) contentKey {
	return contentKey{
		displayText: item.DisplayText,
		detailText:  item.DetailText,
		linkText:    item.LinkText,
		linkURI:     item.LinkURI,
		isRequired:  item.IsRequired,
	}
}

func keyOfSeed(item model.SeedItem) contentKey {
	return contentKey{
		displayText: item.DisplayText,
		detailText:  item.DetailText,
		linkText:    item.LinkText,
		linkURI:     item.LinkURI,
		isRequired:  item.IsRequired,
	}
}
