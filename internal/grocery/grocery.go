// Package grocery reduces recipes to a shopping list.
package grocery

import (
	"sort"
	"strconv"
	"strings"

	"github.com/jonathan/recipe-scraper/internal/types"
)

// Line is one shopping list entry: an amount of a unit of a food.
type Line struct {
	Amount float64 `json:"amount"`
	Unit   string  `json:"unit"`
	Food   string  `json:"food"`
}

// String renders the line as "<amount> <unit> of <food>".
func (l Line) String() string {
	return FormatAmount(l.Amount) + " " + l.Unit + " of " + l.Food
}

// FormatAmount renders an amount with no trailing zeros.
func FormatAmount(amount float64) string {
	return strconv.FormatFloat(amount, 'f', -1, 64)
}

// CompositeSource looks up composite recipes by title.
type CompositeSource interface {
	Get(title string) (types.Recipe, bool)
}

// Options configures List.
type Options struct {
	// FollowParents replaces an ingredient made from a composite recipe with
	// that recipe's own ingredients. One of the ingredient's units is taken
	// to be one batch of the composite.
	FollowParents bool
	Composites    CompositeSource
}

// List coalesces the ingredient lines of recipes. Lines with the same unit
// and food are summed. The result is sorted by food, then unit.
func List(recipes []types.Recipe, opts *Options) []Line {
	if opts == nil {
		opts = &Options{}
	}

	totals := make(map[[2]string]float64)
	var order [][2]string

	add := func(unit, food string, amount float64) {
		key := [2]string{types.Fold(unit), types.Fold(food)}
		if _, ok := totals[key]; !ok {
			order = append(order, key)
		}
		totals[key] += amount
	}

	for _, r := range recipes {
		for _, ia := range r.IngredientAmounts {
			if opts.FollowParents && opts.Composites != nil && ia.Ingredient.ParentRecipe != "" {
				if parent, ok := opts.Composites.Get(ia.Ingredient.ParentRecipe); ok {
					for _, comp := range parent.IngredientAmounts {
						add(comp.Unit, comp.Ingredient.Food, comp.Amount*ia.Amount)
					}
					continue
				}
			}
			add(ia.Unit, ia.Ingredient.Food, ia.Amount)
		}
	}

	lines := make([]Line, 0, len(order))
	for _, key := range order {
		lines = append(lines, Line{Amount: totals[key], Unit: key[0], Food: key[1]})
	}
	sort.SliceStable(lines, func(i, j int) bool {
		if lines[i].Food != lines[j].Food {
			return lines[i].Food < lines[j].Food
		}
		return lines[i].Unit < lines[j].Unit
	})
	return lines
}

// Format renders lines one per row.
func Format(lines []Line) string {
	rows := make([]string, 0, len(lines))
	for _, l := range lines {
		rows = append(rows, l.String())
	}
	return strings.Join(rows, "\n")
}
