// Package catalog holds the composite recipes (spice blends) that recipe
// pages list as a single ingredient.
package catalog

import (
	_ "embed"
	"fmt"
	"maps"
	"slices"

	"github.com/jonathan/recipe-scraper/internal/types"
	"gopkg.in/yaml.v3"
)

//go:embed blends.yaml
var blendsYAML []byte

type catalogFile struct {
	Defaults blendDefaults `yaml:"defaults"`
	Blends   []blend       `yaml:"blends"`
}

type blendDefaults struct {
	Source     string   `yaml:"source"`
	PrepTime   int      `yaml:"prep_time"`
	Difficulty string   `yaml:"difficulty"`
	Feeds      int      `yaml:"feeds"`
	Tags       []string `yaml:"tags"`
	Unit       string   `yaml:"unit"`
}

type blend struct {
	Title       string      `yaml:"title"`
	Ingredients []component `yaml:"ingredients"`
}

type component struct {
	Food   string  `yaml:"food"`
	Amount float64 `yaml:"amount"`
	Unit   string  `yaml:"unit"`
}

// Catalog is an immutable set of composite recipes keyed by folded title.
// It is safe for concurrent use.
type Catalog struct {
	recipes []types.Recipe
	byTitle map[string]int
}

// Load returns the built-in catalog.
func Load() (*Catalog, error) {
	return Parse(blendsYAML)
}

// Parse builds a catalog from YAML. Every blend must validate as a recipe.
func Parse(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}

	c := &Catalog{byTitle: make(map[string]int, len(file.Blends))}
	for _, b := range file.Blends {
		recipe := file.Defaults.recipe(b)
		recipe.Normalize()
		if err := recipe.Validate(); err != nil {
			return nil, fmt.Errorf("invalid catalog blend %q: %w", b.Title, err)
		}

		key := types.Fold(recipe.Title)
		if _, exists := c.byTitle[key]; exists {
			return nil, fmt.Errorf("duplicate catalog blend %q", b.Title)
		}
		c.byTitle[key] = len(c.recipes)
		c.recipes = append(c.recipes, recipe)
	}
	return c, nil
}

func (d blendDefaults) recipe(b blend) types.Recipe {
	feeds := d.Feeds
	if feeds == 0 {
		feeds = types.DefaultFeeds
	}

	recipe := types.Recipe{
		Title:      b.Title,
		Source:     d.Source,
		PrepTime:   types.PrepTime(d.PrepTime),
		Difficulty: d.Difficulty,
		Feeds:      feeds,
		Tags:       slices.Clone(d.Tags),
	}
	for _, comp := range b.Ingredients {
		unit := comp.Unit
		if unit == "" {
			unit = d.Unit
		}
		recipe.IngredientAmounts = append(recipe.IngredientAmounts, types.IngredientAmount{
			Ingredient: types.Ingredient{Food: comp.Food},
			Amount:     comp.Amount,
			Unit:       unit,
		})
	}
	return recipe
}

// Lookup returns the title of the composite recipe whose title matches food,
// ignoring case.
func (c *Catalog) Lookup(food string) (string, bool) {
	i, ok := c.byTitle[types.Fold(food)]
	if !ok {
		return "", false
	}
	return c.recipes[i].Title, true
}

// Get returns a copy of the composite recipe titled title, ignoring case.
func (c *Catalog) Get(title string) (types.Recipe, bool) {
	i, ok := c.byTitle[types.Fold(title)]
	if !ok {
		return types.Recipe{}, false
	}
	return clone(c.recipes[i]), true
}

// Recipes returns copies of every composite recipe in catalog order.
func (c *Catalog) Recipes() []types.Recipe {
	out := make([]types.Recipe, 0, len(c.recipes))
	for _, r := range c.recipes {
		out = append(out, clone(r))
	}
	return out
}

// Len returns the number of composite recipes.
func (c *Catalog) Len() int {
	return len(c.recipes)
}

func clone(r types.Recipe) types.Recipe {
	r.Tags = slices.Clone(r.Tags)
	r.Allergies = slices.Clone(r.Allergies)
	r.Utensils = slices.Clone(r.Utensils)
	r.Cuisines = slices.Clone(r.Cuisines)
	r.IngredientAmounts = slices.Clone(r.IngredientAmounts)
	r.Nutrition = maps.Clone(r.Nutrition)
	return r
}
