package assembly

import "github.com/jonathan/recipe-scraper/internal/types"

// Merge collapses recipes that share a title into one record. The first
// recipe seen for a title keeps its fields; later duplicates only add their
// cuisines. Output order is the order titles were first seen.
func Merge(recipes []types.Recipe) []types.Recipe {
	index := make(map[string]int, len(recipes))
	merged := make([]types.Recipe, 0, len(recipes))

	for _, r := range recipes {
		if i, ok := index[r.Title]; ok {
			types.MergeCuisines(&merged[i], r)
			continue
		}
		index[r.Title] = len(merged)
		merged = append(merged, r)
	}
	return merged
}
