// Package assembly turns rendered recipe pages into validated recipe records.
//
// Each page moves through Fetching, Extracting and Normalizing and ends
// either Validated or Rejected. Per-page failures never escape as errors;
// they are carried on the Outcome so a batch can keep going.
package assembly

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/PuerkitoBio/goquery"
	"github.com/jonathan/recipe-scraper/internal/fetch"
	"github.com/jonathan/recipe-scraper/internal/parsing"
	"github.com/jonathan/recipe-scraper/internal/types"
)

// DefaultSource is recorded on every recipe scraped from the site.
const DefaultSource = "Hello Fresh"

// State is a stage of a single page's assembly.
type State int

const (
	// StateFetching means the page is being rendered
	StateFetching State = iota
	// StateExtracting means raw fields are being read from the document
	StateExtracting
	// StateNormalizing means raw fields are being converted and validated
	StateNormalizing
	// StateValidated is terminal: the recipe passed validation
	StateValidated
	// StateRejected is terminal: the page produced no recipe
	StateRejected
)

func (s State) String() string {
	switch s {
	case StateFetching:
		return "fetching"
	case StateExtracting:
		return "extracting"
	case StateNormalizing:
		return "normalizing"
	case StateValidated:
		return "validated"
	case StateRejected:
		return "rejected"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// CompositeIndex resolves a food name to the title of the composite recipe
// it is made from.
type CompositeIndex interface {
	Lookup(food string) (title string, ok bool)
}

// Outcome is the result of assembling one page.
type Outcome struct {
	Path string
	// State is StateValidated or StateRejected.
	State State
	// FailedAt is the stage that failed when State is StateRejected.
	FailedAt State
	Recipe   *types.Recipe
	Err      error
}

// Validated reports whether the outcome carries a recipe.
func (o Outcome) Validated() bool {
	return o.State == StateValidated && o.Recipe != nil
}

// Assembler renders, extracts and normalizes recipe pages.
type Assembler struct {
	Renderer   fetch.Renderer
	Composites CompositeIndex
	BaseURL    string
	Source     string
	Actions    []fetch.Action
	Logger     *slog.Logger
}

// Assemble renders the page at path and assembles it. The recipe is tagged
// with regions as its cuisines.
func (a *Assembler) Assemble(ctx context.Context, path string, regions ...string) Outcome {
	out := Outcome{Path: path, State: StateFetching}

	doc, err := a.Renderer.Render(ctx, path, a.actions()...)
	if err != nil {
		return a.reject(ctx, out, err)
	}
	return a.FromDocument(ctx, doc, path, regions...)
}

// FromDocument assembles an already rendered page.
func (a *Assembler) FromDocument(ctx context.Context, doc *goquery.Document, path string, regions ...string) Outcome {
	out := Outcome{Path: path, State: StateExtracting}

	raw, err := parsing.ParseDocument(doc)
	if err != nil {
		return a.reject(ctx, out, err)
	}

	out.State = StateNormalizing
	recipe, err := a.Normalize(raw, path, regions)
	if err != nil {
		return a.reject(ctx, out, err)
	}
	if err := recipe.Validate(); err != nil {
		return a.reject(ctx, out, err)
	}

	out.State = StateValidated
	out.Recipe = recipe
	a.logger().DebugContext(ctx, "validated recipe", "path", path, "title", recipe.Title)
	return out
}

// Normalize converts raw page fields into a recipe record. It does not
// validate the result.
func (a *Assembler) Normalize(raw *parsing.RawRecipe, path string, regions []string) (*types.Recipe, error) {
	prep, err := prepTime(raw.PrepTime)
	if err != nil {
		return nil, err
	}

	amounts := make([]types.IngredientAmount, 0, len(raw.Ingredients))
	for _, ing := range raw.Ingredients {
		amount, err := types.ParseAmount(ing.Amount)
		if err != nil {
			return nil, &parsing.MalformedFieldError{Field: "ingredient amount", Value: ing.Amount, Cause: err}
		}

		ingredient := types.Ingredient{Food: ing.Food}
		if a.Composites != nil {
			if title, ok := a.Composites.Lookup(ing.Food); ok {
				ingredient.ParentRecipe = title
			}
		}
		amounts = append(amounts, types.IngredientAmount{
			Ingredient: ingredient,
			Amount:     amount,
			Unit:       ing.Unit,
		})
	}

	recipe := &types.Recipe{
		Title:             raw.Title,
		Source:            a.source(),
		PrepTime:          types.PrepTime(prep),
		Difficulty:        raw.Difficulty,
		Feeds:             types.DefaultFeeds,
		GlamorShotURL:     raw.GlamorShotURL,
		InstructionsURL:   raw.InstructionsURL,
		Tags:              raw.Tags,
		Allergies:         raw.Allergens,
		Utensils:          raw.Utensils,
		Cuisines:          regions,
		IngredientAmounts: amounts,
		Nutrition:         raw.Nutrition,
	}
	if recipe.InstructionsURL == "" && a.BaseURL != "" {
		if u, err := fetch.ResolveURL(a.BaseURL, path); err == nil {
			recipe.InstructionsURL = u
		}
	}

	recipe.Normalize()
	return recipe, nil
}

func prepTime(text string) (int, error) {
	if text == "" {
		return 0, nil
	}
	minutes, err := types.HoursToMinutes(text)
	if err != nil {
		return 0, &parsing.MalformedFieldError{Field: "prep time", Value: text, Cause: err}
	}
	return minutes, nil
}

func (a *Assembler) reject(ctx context.Context, out Outcome, err error) Outcome {
	out.FailedAt = out.State
	out.State = StateRejected
	out.Err = err

	if errors.Is(err, fetch.ErrBackendUnavailable) || errors.Is(err, context.Canceled) {
		return out
	}
	a.logger().WarnContext(ctx, "rejected recipe page",
		"path", out.Path,
		"state", out.FailedAt.String(),
		"err", err,
	)
	return out
}

func (a *Assembler) actions() []fetch.Action {
	if a.Actions != nil {
		return a.Actions
	}
	return []fetch.Action{fetch.ActionDismissPopup}
}

func (a *Assembler) source() string {
	if a.Source != "" {
		return a.Source
	}
	return DefaultSource
}

func (a *Assembler) logger() *slog.Logger {
	if a.Logger != nil {
		return a.Logger
	}
	return slog.Default()
}
