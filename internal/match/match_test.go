package match_test

import (
	"testing"

	"lostlink/internal/match"
	"lostlink/pkg/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func foundItem(id string, category types.ItemCategory, description string) *types.Item {
	return &types.Item{
		ID:          id,
		Type:        types.ItemTypeFound,
		Category:    category,
		Description: description,
		Status:      types.ItemStatusAvailable,
	}
}

func lostItem(id string, category types.ItemCategory, description string) *types.Item {
	return &types.Item{
		ID:          id,
		Type:        types.ItemTypeLost,
		Category:    category,
		Description: description,
		Status:      types.ItemStatusOpen,
	}
}

func TestMatches(t *testing.T) {
	tests := []struct {
		name           string
		found          []*types.Item
		lost           []*types.Item
		wantCount      int
		wantConfidence match.Confidence
		wantKeywords   []string
	}{
		{
			name:           "same category with keyword overlap",
			found:          []*types.Item{foundItem("f1", types.CategoryDevices, "black dell laptop charger")},
			lost:           []*types.Item{lostItem("l1", types.CategoryDevices, "lost my dell charger black color")},
			wantCount:      1,
			wantConfidence: match.ConfidenceHigh,
			wantKeywords:   []string{"black", "charger", "dell"},
		},
		{
			name:      "category mismatch emits nothing",
			found:     []*types.Item{foundItem("f1", types.CategoryBooks, "math textbook")},
			lost:      []*types.Item{lostItem("l1", types.CategoryDevices, "math textbook")},
			wantCount: 0,
		},
		{
			name:           "same category without overlap is still emitted as low",
			found:          []*types.Item{foundItem("f1", types.CategoryKeys, "silver yale padlock")},
			lost:           []*types.Item{lostItem("l1", types.CategoryKeys, "hostel room keychain")},
			wantCount:      1,
			wantConfidence: match.ConfidenceLow,
			wantKeywords:   []string{},
		},
		{
			name:           "empty description yields low with no keywords",
			found:          []*types.Item{foundItem("f1", types.CategoryOthers, "")},
			lost:           []*types.Item{lostItem("l1", types.CategoryOthers, "blue umbrella")},
			wantCount:      1,
			wantConfidence: match.ConfidenceLow,
			wantKeywords:   []string{},
		},
		{
			name:           "short words do not count as overlap",
			found:          []*types.Item{foundItem("f1", types.CategoryOthers, "red bag on the bus")},
			lost:           []*types.Item{lostItem("l1", types.CategoryOthers, "red bag on the bus")},
			wantCount:      1,
			wantConfidence: match.ConfidenceLow,
			wantKeywords:   []string{},
		},
		{
			name:           "overlap is case insensitive",
			found:          []*types.Item{foundItem("f1", types.CategoryDocuments, "BLUE Passport Cover")},
			lost:           []*types.Item{lostItem("l1", types.CategoryDocuments, "blue passport missing")},
			wantCount:      1,
			wantConfidence: match.ConfidenceHigh,
			wantKeywords:   []string{"blue", "passport"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := match.Matches(tt.found, tt.lost)
			require.Len(t, got, tt.wantCount)

			if tt.wantCount == 0 {
				return
			}

			candidate := got[0]
			assert.Equal(t, tt.wantConfidence, candidate.Confidence)
			assert.Equal(t, tt.wantKeywords, candidate.SharedKeywords)
			assert.Same(t, tt.found[0], candidate.FoundItem)
			assert.Same(t, tt.lost[0], candidate.LostItem)
		})
	}
}

func TestMatchesEmitsEverySameCategoryPair(t *testing.T) {
	found := []*types.Item{
		foundItem("f1", types.CategoryDevices, "dell charger"),
		foundItem("f2", types.CategoryDevices, "lenovo thinkpad sleeve"),
		foundItem("f3", types.CategoryBooks, "calculus textbook"),
	}
	lost := []*types.Item{
		lostItem("l1", types.CategoryDevices, "lost dell charger"),
		lostItem("l2", types.CategoryBooks, "physics textbook"),
	}

	got := match.Matches(found, lost)

	// 2 DEVICES found x 1 DEVICES lost + 1 BOOKS found x 1 BOOKS lost.
	require.Len(t, got, 3)

	pairs := make(map[[2]string]match.Candidate, len(got))
	for _, c := range got {
		pairs[[2]string{c.FoundItem.ID, c.LostItem.ID}] = c
	}

	require.Contains(t, pairs, [2]string{"f1", "l1"})
	require.Contains(t, pairs, [2]string{"f2", "l1"})
	require.Contains(t, pairs, [2]string{"f3", "l2"})

	assert.Equal(t, match.ConfidenceHigh, pairs[[2]string{"f1", "l1"}].Confidence)
	assert.Equal(t, match.ConfidenceLow, pairs[[2]string{"f2", "l1"}].Confidence)
	assert.Equal(t, match.ConfidenceHigh, pairs[[2]string{"f3", "l2"}].Confidence)
	assert.Equal(t, []string{"textbook"}, pairs[[2]string{"f3", "l2"}].SharedKeywords)
}

func TestMatchesOrdersHighConfidenceFirst(t *testing.T) {
	found := []*types.Item{
		foundItem("f1", types.CategoryKeys, "brass hostel key"),
		foundItem("f2", types.CategoryKeys, "honda bike keys black keychain"),
	}
	lost := []*types.Item{
		lostItem("l1", types.CategoryKeys, "black honda keys with keychain"),
	}

	got := match.Matches(found, lost)
	require.Len(t, got, 2)
	assert.Equal(t, match.ConfidenceHigh, got[0].Confidence)
	assert.Equal(t, "f2", got[0].FoundItem.ID)
	assert.Equal(t, match.ConfidenceLow, got[1].Confidence)
}

func TestMatchesEmptyInputs(t *testing.T) {
	assert.Empty(t, match.Matches(nil, nil))
	assert.Empty(t, match.Matches([]*types.Item{foundItem("f1", types.CategoryKeys, "keys")}, nil))
	assert.Empty(t, match.Matches(nil, []*types.Item{lostItem("l1", types.CategoryKeys, "keys")}))
}
