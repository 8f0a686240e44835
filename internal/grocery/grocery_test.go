package grocery

import (
	"testing"

	"github.com/jonathan/recipe-scraper/internal/catalog"
	"github.com/jonathan/recipe-scraper/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func amount(food string, n float64, unit string) types.IngredientAmount {
	return types.IngredientAmount{Ingredient: types.Ingredient{Food: food}, Amount: n, Unit: unit}
}

func TestList_CoalescesAndSorts(t *testing.T) {
	recipes := []types.Recipe{
		{Title: "Pesto Pasta", IngredientAmounts: []types.IngredientAmount{
			amount("basil", 2, "tablespoon"),
			amount("pasta", 6, "ounce"),
		}},
		{Title: "Basil Chicken", IngredientAmounts: []types.IngredientAmount{
			amount("Basil", 1.5, "Tablespoon"),
			amount("chicken breast", 2, "unit"),
			amount("basil", 1, "bunch"),
		}},
	}

	got := List(recipes, nil)
	assert.Equal(t, []Line{
		{Amount: 1, Unit: "bunch", Food: "basil"},
		{Amount: 3.5, Unit: "tablespoon", Food: "basil"},
		{Amount: 2, Unit: "unit", Food: "chicken breast"},
		{Amount: 6, Unit: "ounce", Food: "pasta"},
	}, got)
}

func TestList_Empty(t *testing.T) {
	assert.Empty(t, List(nil, nil))
}

func TestList_FollowParents(t *testing.T) {
	composites, err := catalog.Load()
	require.NoError(t, err)

	recipes := []types.Recipe{
		{Title: "Southwest Bowl", IngredientAmounts: []types.IngredientAmount{
			{Ingredient: types.Ingredient{Food: "southwest spice blend", ParentRecipe: "Southwest Spice Blend"}, Amount: 0.5, Unit: "unit"},
			amount("garlic powder", 1, "teaspoon"),
		}},
	}

	flat := List(recipes, nil)
	assert.Len(t, flat, 2)

	got := List(recipes, &Options{FollowParents: true, Composites: composites})
	assert.Equal(t, []Line{
		{Amount: 1, Unit: "teaspoon", Food: "chili powder"},
		{Amount: 1, Unit: "teaspoon", Food: "cumin"},
		{Amount: 3, Unit: "teaspoon", Food: "garlic powder"},
	}, got)
}

func TestList_FollowParentsUnknownComposite(t *testing.T) {
	composites, err := catalog.Load()
	require.NoError(t, err)

	recipes := []types.Recipe{
		{Title: "Mystery", IngredientAmounts: []types.IngredientAmount{
			{Ingredient: types.Ingredient{Food: "house rub", ParentRecipe: "House Rub"}, Amount: 1, Unit: "unit"},
		}},
	}

	got := List(recipes, &Options{FollowParents: true, Composites: composites})
	assert.Equal(t, []Line{{Amount: 1, Unit: "unit", Food: "house rub"}}, got)
}

func TestFormat(t *testing.T) {
	lines := []Line{
		{Amount: 3.5, Unit: "tablespoon", Food: "basil"},
		{Amount: 2, Unit: "unit", Food: "lemon"},
		{Amount: 0.25, Unit: "cup", Food: "lentils"},
	}

	assert.Equal(t, "3.5 tablespoon of basil\n2 unit of lemon\n0.25 cup of lentils", Format(lines))
	assert.Equal(t, "", Format(nil))
}
