package assembly

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/jonathan/recipe-scraper/internal/types"
	"github.com/stretchr/testify/assert"
)

func TestMerge_UnionsCuisines(t *testing.T) {
	recipes := []types.Recipe{
		{Title: "Tuscan Heat Spice", Difficulty: "level 1", Cuisines: []string{"italian"}},
		{Title: "Pesto Pasta", Cuisines: []string{"italian"}},
		{Title: "Tuscan Heat Spice", Difficulty: "level 3", Cuisines: []string{"mediterranean"}},
	}

	got := Merge(recipes)

	want := []types.Recipe{
		{Title: "Tuscan Heat Spice", Difficulty: "level 1", Cuisines: []string{"italian", "mediterranean"}},
		{Title: "Pesto Pasta", Cuisines: []string{"italian"}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Merge() mismatch (-want +got):\n%s", diff)
	}
}

func TestMerge_KeepsFirstSeenFields(t *testing.T) {
	first := types.Recipe{
		Title:             "Soup",
		PrepTime:          20,
		IngredientAmounts: []types.IngredientAmount{{Ingredient: types.Ingredient{Food: "broth"}, Amount: 2, Unit: "cup"}},
	}
	second := types.Recipe{Title: "Soup", PrepTime: 45, Cuisines: []string{"french"}}

	got := Merge([]types.Recipe{first, second})
	assert.Len(t, got, 1)
	assert.Equal(t, types.PrepTime(20), got[0].PrepTime)
	assert.Equal(t, first.IngredientAmounts, got[0].IngredientAmounts)
	assert.Equal(t, []string{"french"}, got[0].Cuisines)
}

func TestMerge_Empty(t *testing.T) {
	assert.Empty(t, Merge(nil))
}

func TestMerge_DistinctTitlesUntouched(t *testing.T) {
	recipes := []types.Recipe{{Title: "A"}, {Title: "B"}, {Title: "C"}}
	assert.Equal(t, recipes, Merge(recipes))
}
