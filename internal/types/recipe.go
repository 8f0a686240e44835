// Package types provides type definitions for structured data used throughout the recipe scraper.
package types

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/go-playground/validator/v10"
)

// DefaultFeeds is the serving count assumed when a page does not state one.
const DefaultFeeds = 2

// Recipe is a normalized, validated recipe record. Title is its natural key.
type Recipe struct {
	Title             string             `json:"title" validate:"required"`
	Source            string             `json:"source"`
	PrepTime          PrepTime           `json:"prep_time" validate:"gte=0"`
	Difficulty        string             `json:"difficulty"`
	Feeds             int                `json:"feeds" validate:"gte=0"`
	GlamorShotURL     string             `json:"glamor_shot_url,omitempty" validate:"omitempty,url"`
	InstructionsURL   string             `json:"instructions_url,omitempty" validate:"omitempty,url"`
	Tags              []string           `json:"tags" validate:"dive,required"`
	Allergies         []string           `json:"allergies" validate:"dive,required"`
	Utensils          []string           `json:"utensils" validate:"dive,required"`
	Cuisines          []string           `json:"cuisines" validate:"dive,required"`
	IngredientAmounts []IngredientAmount `json:"ingredient_amounts" validate:"dive"`
	Nutrition         map[string]string  `json:"nutrition,omitempty"`
}

// IngredientAmount is one line of a recipe's ingredient list.
type IngredientAmount struct {
	Ingredient Ingredient `json:"ingredient"`
	Amount     float64    `json:"amount" validate:"gte=0"`
	Unit       string     `json:"unit"`
}

// Ingredient is a food item. Food is its natural key.
//
// ParentRecipe holds the title of a composite recipe (e.g. a spice blend)
// that this ingredient is made from. It is a lookup reference only.
type Ingredient struct {
	Food         string `json:"food" validate:"required"`
	ParentRecipe string `json:"parent_recipe,omitempty"`
}

// PrepTime is a preparation time in minutes. It unmarshals from either an
// integer or a "<N> hours|minutes" string.
type PrepTime int

// UnmarshalJSON implements json.Unmarshaler.
func (p *PrepTime) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if f, ok := raw.(float64); ok {
		raw = int(f)
	}
	minutes, err := HoursToMinutes(raw)
	if err != nil {
		return err
	}
	*p = PrepTime(minutes)
	return nil
}

// Minutes returns the preparation time as an int.
func (p PrepTime) Minutes() int {
	return int(p)
}

// Normalize case-folds the recipe's text fields and rebuilds its sets in place.
func (r *Recipe) Normalize() {
	r.Difficulty = Fold(r.Difficulty)
	r.Tags = NewSet(r.Tags...)
	r.Allergies = NewSet(r.Allergies...)
	r.Utensils = NewSet(r.Utensils...)
	r.Cuisines = NewSet(r.Cuisines...)

	for i := range r.IngredientAmounts {
		ia := &r.IngredientAmounts[i]
		ia.Unit = Fold(ia.Unit)
		ia.Ingredient.Food = Fold(ia.Ingredient.Food)
	}

	if len(r.Nutrition) > 0 {
		folded := make(map[string]string, len(r.Nutrition))
		for name, value := range r.Nutrition {
			folded[Fold(name)] = value
		}
		r.Nutrition = folded
	}
}

// Validate validates the Recipe using the validator.
func (r *Recipe) Validate() error {
	validate := validator.New()
	if err := validate.Struct(r); err != nil {
		return newValidationError(r.Title, err)
	}
	return nil
}

// MergeCuisines unions src's regions into dst. All other fields of dst are kept.
func MergeCuisines(dst *Recipe, src Recipe) {
	dst.Cuisines = NewSet(append(append([]string{}, dst.Cuisines...), src.Cuisines...)...)
}

// Foods returns the food names of the recipe's ingredients in order.
func (r *Recipe) Foods() []string {
	foods := make([]string, 0, len(r.IngredientAmounts))
	for _, ia := range r.IngredientAmounts {
		foods = append(foods, ia.Ingredient.Food)
	}
	return foods
}

// NutrientNames returns the sorted nutrient names of the recipe.
func (r *Recipe) NutrientNames() []string {
	names := make([]string, 0, len(r.Nutrition))
	for name := range r.Nutrition {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// String implements fmt.Stringer.
func (r *Recipe) String() string {
	return fmt.Sprintf("%s (%d min, %d ingredients)", r.Title, r.PrepTime, len(r.IngredientAmounts))
}
