// Package match computes candidate LOST/FOUND pairings for admin review.
// It is pure compute over item snapshots; it never touches a store and
// never changes any status.
package match

import (
	"sort"
	"strings"

	"lostlink/pkg/types"
)

type Confidence string

const (
	ConfidenceHigh Confidence = "HIGH"
	ConfidenceLow  Confidence = "LOW"
)

// Candidate is a computed pairing of one open FOUND item with one open
// LOST item in the same category. Candidates are recomputed on each query
// and never persisted.
type Candidate struct {
	FoundItem      *types.Item `json:"found_item"`
	LostItem       *types.Item `json:"lost_item"`
	Confidence     Confidence  `json:"confidence"`
	SharedKeywords []string    `json:"shared_keywords"`
}

// Matches pairs every FOUND item with every LOST item sharing its category
// and grades each pair by description keyword overlap. Every same-category
// pair is reported, including zero-overlap LOW pairs, so reviewers see the
// full picture. Callers pass only open items (FOUND in PENDING/AVAILABLE,
// LOST in OPEN).
func Matches(found, lost []*types.Item) []Candidate {
	// Tokenize once per item, not once per pair.
	foundTokens := make([]map[string]struct{}, len(found))
	for i, item := range found {
		foundTokens[i] = tokenize(item.Description)
	}

	lostTokens := make([]map[string]struct{}, len(lost))
	for i, item := range lost {
		lostTokens[i] = tokenize(item.Description)
	}

	candidates := make([]Candidate, 0)
	for i, foundItem := range found {
		for j, lostItem := range lost {
			if foundItem.Category != lostItem.Category {
				continue
			}

			shared := sharedTokens(foundTokens[i], lostTokens[j])

			confidence := ConfidenceLow
			if len(shared) > 0 {
				confidence = ConfidenceHigh
			}

			candidates = append(candidates, Candidate{
				FoundItem:      foundItem,
				LostItem:       lostItem,
				Confidence:     confidence,
				SharedKeywords: shared,
			})
		}
	}

	// Not a correctness requirement, but reviewers want strong leads first.
	sort.SliceStable(candidates, func(a, b int) bool {
		return candidates[a].Confidence == ConfidenceHigh && candidates[b].Confidence == ConfidenceLow
	})

	return candidates
}

// tokenize lowercases the description and keeps words longer than three
// characters. A missing description yields an empty token set.
func tokenize(description string) map[string]struct{} {
	tokens := make(map[string]struct{})
	for _, word := range strings.Fields(strings.ToLower(description)) {
		if len(word) > 3 {
			tokens[word] = struct{}{}
		}
	}
	return tokens
}

func sharedTokens(a, b map[string]struct{}) []string {
	shared := make([]string, 0)
	for token := range a {
		if _, ok := b[token]; ok {
			shared = append(shared, token)
		}
	}
	sort.Strings(shared)
	return shared
}
