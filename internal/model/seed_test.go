package model_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/checklist-sync/internal/model"
)

func TestSeedItemAcceptsBareString(t *testing.T) {
	var seed model.ChecklistSeed
	err := json.Unmarshal([]byte(`{
		"name": "Onboarding",
		"version": "v1",
		"items": ["Do A", {"displayText": "Do B", "linkUri": "https://example.com"}]
	}`), &seed)
	require.NoError(t, err)
	require.Len(t, seed.Items, 2)

	assert.Equal(t, model.SeedItem{DisplayText: "Do A", IsRequired: true}, seed.Items[0])
	assert.Equal(t, "Do B", seed.Items[1].DisplayText)
	assert.Equal(t, "https://example.com", seed.Items[1].LinkURI)
	assert.True(t, seed.Items[1].IsRequired, "isRequired defaults to true when absent")
}

func TestSeedItemExplicitOptionalFlag(t *testing.T) {
	var item model.SeedItem
	err := json.Unmarshal([]byte(`{"displayText": "Do A", "isRequired": false}`), &item)
	require.NoError(t, err)
	assert.False(t, item.IsRequired)
}

func TestSeedValidate(t *testing.T) {
	valid := model.ChecklistSeed{
		Name:    "Onboarding",
		Version: "v1",
		Items: []model.SeedItem{
			{DisplayText: "Do A", IsRequired: true},
			{DisplayText: "Do B", IsRequired: true},
		},
	}
	assert.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*model.ChecklistSeed)
	}{
		{"empty name", func(s *model.ChecklistSeed) { s.Name = " " }},
		{"empty version", func(s *model.ChecklistSeed) { s.Version = "" }},
		{"empty display text", func(s *model.ChecklistSeed) { s.Items[1].DisplayText = "" }},
		{"duplicate display text", func(s *model.ChecklistSeed) { s.Items[1].DisplayText = "Do A" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seed := valid
			seed.Items = append([]model.SeedItem(nil), valid.Items...)
			tt.mutate(&seed)

			var verr *model.ValidationError
			assert.ErrorAs(t, seed.Validate(), &verr)
		})
	}
}

func TestSeedValidateRejectsDuplicateEvenWithDifferentLinks(t *testing.T) {
	// Display text is the only lookup identity; same text with different
	// links would silently collide during reconciliation, so it is
	// rejected up front.
	seed := model.ChecklistSeed{
		Name:    "List",
		Version: "v1",
		Items: []model.SeedItem{
			{DisplayText: "Same", LinkURI: "https://a.example.com", IsRequired: true},
			{DisplayText: "Same", LinkURI: "https://b.example.com", IsRequired: true},
		},
	}

	var verr *model.ValidationError
	assert.ErrorAs(t, seed.Validate(), &verr)
}
