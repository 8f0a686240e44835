package catalog

import (
	"testing"

	"github.com/jonathan/recipe-scraper/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	c, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9, c.Len())

	for _, r := range c.Recipes() {
		assert.Equal(t, "Hello Fresh", r.Source, r.Title)
		assert.Equal(t, types.PrepTime(10), r.PrepTime, r.Title)
		assert.Equal(t, "level 1", r.Difficulty, r.Title)
		assert.Equal(t, types.DefaultFeeds, r.Feeds, r.Title)
		assert.Equal(t, []string{"spice mix"}, r.Tags, r.Title)
		assert.NotEmpty(t, r.IngredientAmounts, r.Title)
		for _, ia := range r.IngredientAmounts {
			assert.Equal(t, "teaspoon", ia.Unit, r.Title)
			assert.Greater(t, ia.Amount, 0.0, r.Title)
		}
	}
}

func TestLookup(t *testing.T) {
	c, err := Load()
	require.NoError(t, err)

	tests := []struct {
		food  string
		title string
		ok    bool
	}{
		{"Tuscan Heat Spice", "Tuscan Heat Spice", true},
		{"tuscan heat spice", "Tuscan Heat Spice", true},
		{"  ZA'ATAR SPICE BLEND ", "Za'atar Spice Blend", true},
		{"basil", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.food, func(t *testing.T) {
			title, ok := c.Lookup(tt.food)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.title, title)
		})
	}
}

func TestGet_ZaatarComponents(t *testing.T) {
	c, err := Load()
	require.NoError(t, err)

	zaatar, ok := c.Get("za'atar spice blend")
	require.True(t, ok)
	assert.Equal(t, []string{
		"toasted sesame seeds", "salt", "ground cumin", "dried thyme", "oregano", "marjoram", "sumac",
	}, zaatar.Foods())
	assert.Equal(t, 0.5, zaatar.IngredientAmounts[2].Amount)
	assert.Equal(t, 3.0, zaatar.IngredientAmounts[3].Amount)
}

func TestRecipes_ReturnsCopies(t *testing.T) {
	c, err := Load()
	require.NoError(t, err)

	first := c.Recipes()
	first[0].Tags[0] = "changed"
	first[0].IngredientAmounts[0].Amount = 99

	second := c.Recipes()
	assert.Equal(t, "spice mix", second[0].Tags[0])
	assert.NotEqual(t, 99.0, second[0].IngredientAmounts[0].Amount)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"not yaml", "blends: [\n"},
		{"missing title", "blends:\n  - ingredients:\n      - {food: salt, amount: 1}\n"},
		{"missing food", "blends:\n  - title: Salt Mix\n    ingredients:\n      - {amount: 1}\n"},
		{"duplicate", "blends:\n  - title: Salt Mix\n  - title: salt mix\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestParse_UnitOverride(t *testing.T) {
	c, err := Parse([]byte(`
defaults:
  unit: teaspoon
blends:
  - title: House Rub
    ingredients:
      - {food: salt, amount: 1, unit: Tablespoon}
      - {food: pepper, amount: 2}
`))
	require.NoError(t, err)

	rub, ok := c.Get("house rub")
	require.True(t, ok)
	assert.Equal(t, "tablespoon", rub.IngredientAmounts[0].Unit)
	assert.Equal(t, "teaspoon", rub.IngredientAmounts[1].Unit)
}
