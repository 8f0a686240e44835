package types

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRecipe() Recipe {
	return Recipe{
		Title:      "Tuscan Heat Spice",
		Source:     "Hello Fresh",
		PrepTime:   10,
		Difficulty: "Level 1",
		Feeds:      DefaultFeeds,
		Tags:       []string{"Spice Mix"},
		Cuisines:   []string{"italian"},
		IngredientAmounts: []IngredientAmount{
			{Ingredient: Ingredient{Food: "Basil"}, Amount: 4, Unit: "Teaspoon"},
		},
		Nutrition: map[string]string{"Protein": "10 g"},
	}
}

func TestRecipe_Normalize(t *testing.T) {
	r := validRecipe()
	r.Tags = []string{"Spicy", "spicy", "Quick"}
	r.Normalize()

	assert.Equal(t, "level 1", r.Difficulty)
	assert.Equal(t, []string{"quick", "spicy"}, r.Tags)
	assert.Equal(t, "basil", r.IngredientAmounts[0].Ingredient.Food)
	assert.Equal(t, "teaspoon", r.IngredientAmounts[0].Unit)
	assert.Equal(t, map[string]string{"protein": "10 g"}, r.Nutrition)
	assert.NotNil(t, r.Allergies)
	assert.NotNil(t, r.Utensils)
}

func TestRecipe_Validate(t *testing.T) {
	r := validRecipe()
	r.Normalize()
	assert.NoError(t, r.Validate())
}

func TestRecipe_Validate_Failures(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *Recipe)
		field  string
	}{
		{"missing title", func(r *Recipe) { r.Title = "" }, "Recipe.Title"},
		{"invalid glamor url", func(r *Recipe) { r.GlamorShotURL = "not a url" }, "Recipe.GlamorShotURL"},
		{"invalid instructions url", func(r *Recipe) { r.InstructionsURL = "::" }, "Recipe.InstructionsURL"},
		{"negative prep time", func(r *Recipe) { r.PrepTime = -5 }, "Recipe.PrepTime"},
		{"empty food", func(r *Recipe) { r.IngredientAmounts[0].Ingredient.Food = "" }, "Recipe.IngredientAmounts[0].Ingredient.Food"},
		{"negative amount", func(r *Recipe) { r.IngredientAmounts[0].Amount = -1 }, "Recipe.IngredientAmounts[0].Amount"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := validRecipe()
			tt.mutate(&r)

			err := r.Validate()
			require.Error(t, err)

			var ve *ValidationError
			require.True(t, errors.As(err, &ve))
			require.NotEmpty(t, ve.Fields)
			assert.Equal(t, tt.field, ve.Fields[0].Field)
		})
	}
}

func TestRecipe_OptionalURLs(t *testing.T) {
	r := validRecipe()
	r.GlamorShotURL = ""
	r.InstructionsURL = ""
	assert.NoError(t, r.Validate())

	r.GlamorShotURL = "https://img.example.com/basil.jpg"
	r.InstructionsURL = "https://www.example.com/recipes/basil.pdf"
	assert.NoError(t, r.Validate())
}

func TestMergeCuisines(t *testing.T) {
	first := validRecipe()
	first.Cuisines = []string{"italian"}
	first.Difficulty = "level 1"

	second := validRecipe()
	second.Cuisines = []string{"mediterranean", "italian"}
	second.Difficulty = "level 3"

	MergeCuisines(&first, second)

	assert.Equal(t, []string{"italian", "mediterranean"}, first.Cuisines)
	assert.Equal(t, "level 1", first.Difficulty)
}

func TestPrepTime_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected PrepTime
		wantErr  bool
	}{
		{"integer", `{"prep_time": 45}`, 45, false},
		{"hours text", `{"prep_time": "2 hours"}`, 120, false},
		{"minutes text", `{"prep_time": "30 minutes"}`, 30, false},
		{"bad text", `{"prep_time": "soon"}`, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var r Recipe
			err := json.Unmarshal([]byte(tt.input), &r)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, r.PrepTime)
		})
	}
}

func TestRecipe_Foods(t *testing.T) {
	r := validRecipe()
	r.IngredientAmounts = append(r.IngredientAmounts, IngredientAmount{Ingredient: Ingredient{Food: "oregano"}, Amount: 2})
	assert.Equal(t, []string{"Basil", "oregano"}, r.Foods())
}

func TestRecipe_NutrientNames(t *testing.T) {
	r := validRecipe()
	r.Nutrition = map[string]string{"protein": "10 g", "calories": "500 kcal"}
	assert.Equal(t, []string{"calories", "protein"}, r.NutrientNames())
}
