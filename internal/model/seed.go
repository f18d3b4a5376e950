package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ValidationError reports malformed seed input. It is returned before any
// write is issued.
type ValidationError struct {
	Checklist string
	Reason    string
}

func (e *ValidationError) Error() string {
	if e.Checklist == "" {
		return fmt.Sprintf("invalid checklist seed: %s", e.Reason)
	}
	return fmt.Sprintf("invalid checklist seed %q: %s", e.Checklist, e.Reason)
}

// ChecklistSeed is the versioned item list consumed by reconciliation.
// It mirrors the JSON shape produced by the out-of-band seeding process.
type ChecklistSeed struct {
	Name    string     `json:"name"`
	Version string     `json:"version"`
	Items   []SeedItem `json:"items"`
}

// SeedItem is a single seed entry. In JSON it is either a bare string
// (shorthand for an item with only display text) or a full object.
type SeedItem struct {
	DisplayText string   `json:"displayText"`
	DetailText  string   `json:"detailText"`
	IsRequired  bool     `json:"isRequired"`
	LinkText    string   `json:"linkText"`
	LinkURI     string   `json:"linkUri"`
	Tags        []string `json:"tags,omitempty"`
}

// UnmarshalJSON accepts both the bare-string shorthand and the object
// form. Object items default isRequired to true when the field is absent.
func (it *SeedItem) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		*it = SeedItem{DisplayText: text, IsRequired: true}
		return nil
	}

	type seedItemObject struct {
		DisplayText string   `json:"displayText"`
		DetailText  string   `json:"detailText"`
		IsRequired  *bool    `json:"isRequired"`
		LinkText    string   `json:"linkText"`
		LinkURI     string   `json:"linkUri"`
		Tags        []string `json:"tags"`
	}
	var obj seedItemObject
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("parsing seed item: %w", err)
	}

	required := true
	if obj.IsRequired != nil {
		required = *obj.IsRequired
	}
	*it = SeedItem{
		DisplayText: obj.DisplayText,
		DetailText:  obj.DetailText,
		IsRequired:  required,
		LinkText:    obj.LinkText,
		LinkURI:     obj.LinkURI,
		Tags:        obj.Tags,
	}
	return nil
}

// Validate checks the seed against the schema rules: non-empty name and
// version, non-empty display text on each item, and no duplicate display
// text within the batch. Duplicate display text is rejected up front
// because the update-vs-insert lookup keys on it; letting two entries
// share it would make the second silently overwrite the first.
func (c ChecklistSeed) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return &ValidationError{Reason: "name must not be empty"}
	}
	if strings.TrimSpace(c.Version) == "" {
		return &ValidationError{Checklist: c.Name, Reason: "version must not be empty"}
	}

	seen := make(map[string]int, len(c.Items))
	for i, item := range c.Items {
		if strings.TrimSpace(item.DisplayText) == "" {
			return &ValidationError{
				Checklist: c.Name,
				Reason:    fmt.Sprintf("item %d has empty display text", i),
			}
		}
		if prev, ok := seen[item.DisplayText]; ok {
			return &ValidationError{
				Checklist: c.Name,
				Reason: fmt.Sprintf("items %d and %d share display text %q",
					prev, i, item.DisplayText),
			}
		}
		seen[item.DisplayText] = i
	}
	return nil
}
