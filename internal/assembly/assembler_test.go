package assembly

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/jonathan/recipe-scraper/internal/catalog"
	"github.com/jonathan/recipe-scraper/internal/fetch"
	"github.com/jonathan/recipe-scraper/internal/parsing"
	"github.com/jonathan/recipe-scraper/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const basilPage = `<html><body>
	<img src="https://img.example.com/basil-chicken.jpg" alt="Basil Chicken">
	<h1 data-test-id="recipeDetailFragment.recipe-name">Basil Chicken</h1>
	<span data-translation-id="recipe-detail.ingredients">Ingredients</span>
	<div><img src="basil.png"><div><p>2 tablespoon</p><p>basil</p></div></div>
	<span>Not included in your delivery</span>
	<div data-test-id="recipeDetailFragment.nutrition-values">
		<div><span>Protein</span><span>10 g</span></div>
	</div>
</body></html>`

const spicePage = `<html><body>
	<h1 data-test-id="recipeDetailFragment.recipe-name">Spiced Lentils</h1>
	<span data-translation-id="recipe-detail.preparation-time">Preparation Time</span><span>1 hours</span>
	<span data-translation-id="recipe-detail.cooking-difficulty">Difficulty</span><span>Easy</span>
	<span data-translation-id="recipe-detail.tags">Tags</span><div>Veggie • Spicy</div>
	<span data-translation-id="recipe-detail.ingredients">Ingredients</span>
	<div><img><div><p>¼ cup</p><p>Lentils</p></div></div>
	<div><img><div><p>1 unit</p><p>Tuscan Heat Spice</p></div></div>
</body></html>`

type stubRenderer struct {
	pages   map[string]string
	err     error
	actions []fetch.Action
}

func (s *stubRenderer) Render(_ context.Context, path string, actions ...fetch.Action) (*goquery.Document, error) {
	s.actions = actions
	if s.err != nil {
		return nil, s.err
	}
	page, ok := s.pages[path]
	if !ok {
		return nil, &fetch.Error{URL: path, Message: "HTTP status 404"}
	}
	return goquery.NewDocumentFromReader(strings.NewReader(page))
}

func newAssembler(t *testing.T, pages map[string]string) (*Assembler, *bytes.Buffer) {
	t.Helper()
	composites, err := catalog.Load()
	require.NoError(t, err)

	var logs bytes.Buffer
	return &Assembler{
		Renderer:   &stubRenderer{pages: pages},
		Composites: composites,
		BaseURL:    "https://www.example.com",
		Logger:     slog.New(slog.NewTextHandler(&logs, nil)),
	}, &logs
}

func TestAssemble_EndToEnd(t *testing.T) {
	a, _ := newAssembler(t, map[string]string{"/recipes/basil-chicken": basilPage})

	out := a.Assemble(context.Background(), "/recipes/basil-chicken", "Italian")
	require.NoError(t, out.Err)
	require.True(t, out.Validated())

	r := out.Recipe
	assert.Equal(t, "Basil Chicken", r.Title)
	assert.Equal(t, DefaultSource, r.Source)
	assert.Equal(t, types.DefaultFeeds, r.Feeds)
	assert.Equal(t, types.PrepTime(0), r.PrepTime)
	assert.Equal(t, "https://img.example.com/basil-chicken.jpg", r.GlamorShotURL)
	assert.Equal(t, "https://www.example.com/recipes/basil-chicken", r.InstructionsURL)
	assert.Equal(t, []string{"italian"}, r.Cuisines)
	assert.Equal(t, []types.IngredientAmount{
		{Ingredient: types.Ingredient{Food: "basil"}, Amount: 2, Unit: "tablespoon"},
	}, r.IngredientAmounts)
	assert.Equal(t, map[string]string{"protein": "10 g"}, r.Nutrition)
}

func TestAssemble_DismissesPopupByDefault(t *testing.T) {
	a, _ := newAssembler(t, map[string]string{"/r": basilPage})
	a.Assemble(context.Background(), "/r")

	assert.Equal(t, []fetch.Action{fetch.ActionDismissPopup}, a.Renderer.(*stubRenderer).actions)
}

func TestAssemble_NormalizesFields(t *testing.T) {
	a, _ := newAssembler(t, map[string]string{"/recipes/lentils": spicePage})

	out := a.Assemble(context.Background(), "/recipes/lentils", "indian", "Indian")
	require.True(t, out.Validated(), "err: %v", out.Err)

	r := out.Recipe
	assert.Equal(t, types.PrepTime(60), r.PrepTime)
	assert.Equal(t, "easy", r.Difficulty)
	assert.Equal(t, []string{"spicy", "veggie"}, r.Tags)
	assert.Equal(t, []string{"indian"}, r.Cuisines)
	assert.Equal(t, []string{}, r.Allergies)
	assert.Equal(t, []string{}, r.Utensils)

	require.Len(t, r.IngredientAmounts, 2)
	assert.Equal(t, 0.25, r.IngredientAmounts[0].Amount)
	assert.Equal(t, "lentils", r.IngredientAmounts[0].Ingredient.Food)
	assert.Empty(t, r.IngredientAmounts[0].Ingredient.ParentRecipe)
	assert.Equal(t, "tuscan heat spice", r.IngredientAmounts[1].Ingredient.Food)
	assert.Equal(t, "Tuscan Heat Spice", r.IngredientAmounts[1].Ingredient.ParentRecipe)
}

func TestAssemble_Rejections(t *testing.T) {
	tests := []struct {
		name     string
		page     string
		failedAt State
		check    func(t *testing.T, err error)
	}{
		{
			name:     "missing title",
			page:     `<span data-translation-id="recipe-detail.ingredients">Ingredients</span>`,
			failedAt: StateExtracting,
			check: func(t *testing.T, err error) {
				var missing *parsing.MissingSectionError
				require.ErrorAs(t, err, &missing)
				assert.Equal(t, "title", missing.Section)
			},
		},
		{
			name: "caption without space",
			page: `<h1 data-test-id="recipeDetailFragment.recipe-name">Soup</h1>
				<span data-translation-id="recipe-detail.ingredients">Ingredients</span>
				<div><img><div><p>nospaceamount</p><p>Salt</p></div></div>`,
			failedAt: StateExtracting,
			check: func(t *testing.T, err error) {
				var malformed *parsing.MalformedFieldError
				require.ErrorAs(t, err, &malformed)
			},
		},
		{
			name: "unparseable amount",
			page: `<h1 data-test-id="recipeDetailFragment.recipe-name">Soup</h1>
				<span data-translation-id="recipe-detail.ingredients">Ingredients</span>
				<div><img><div><p>some cup</p><p>Broth</p></div></div>`,
			failedAt: StateNormalizing,
			check: func(t *testing.T, err error) {
				var malformed *parsing.MalformedFieldError
				require.ErrorAs(t, err, &malformed)
				assert.Equal(t, "ingredient amount", malformed.Field)
			},
		},
		{
			name: "unparseable prep time",
			page: `<h1 data-test-id="recipeDetailFragment.recipe-name">Soup</h1>
				<span data-translation-id="recipe-detail.preparation-time">Prep</span><span>a while</span>
				<span data-translation-id="recipe-detail.ingredients">Ingredients</span>`,
			failedAt: StateNormalizing,
			check: func(t *testing.T, err error) {
				var malformed *parsing.MalformedFieldError
				require.ErrorAs(t, err, &malformed)
				assert.Equal(t, "prep time", malformed.Field)
			},
		},
		{
			name: "invalid image url",
			page: `<img src="::bad" alt="Soup">
				<h1 data-test-id="recipeDetailFragment.recipe-name">Soup</h1>
				<span data-translation-id="recipe-detail.ingredients">Ingredients</span>`,
			failedAt: StateNormalizing,
			check: func(t *testing.T, err error) {
				var validation *types.ValidationError
				require.ErrorAs(t, err, &validation)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, logs := newAssembler(t, map[string]string{"/recipes/x": tt.page})

			out := a.Assemble(context.Background(), "/recipes/x")
			assert.Equal(t, StateRejected, out.State)
			assert.Equal(t, tt.failedAt, out.FailedAt)
			assert.Nil(t, out.Recipe)
			assert.False(t, out.Validated())
			tt.check(t, out.Err)

			assert.Contains(t, logs.String(), "path=/recipes/x")
			assert.Contains(t, logs.String(), "state="+tt.failedAt.String())
		})
	}
}

func TestAssemble_FetchError(t *testing.T) {
	a, logs := newAssembler(t, nil)

	out := a.Assemble(context.Background(), "/recipes/missing")
	assert.Equal(t, StateRejected, out.State)
	assert.Equal(t, StateFetching, out.FailedAt)

	var fetchErr *fetch.Error
	assert.ErrorAs(t, out.Err, &fetchErr)
	assert.Contains(t, logs.String(), "rejected recipe page")
}

func TestAssemble_BackendUnavailableNotLogged(t *testing.T) {
	a, logs := newAssembler(t, nil)
	a.Renderer = &stubRenderer{err: errors.Join(fetch.ErrBackendUnavailable, errors.New("chrome crashed"))}

	out := a.Assemble(context.Background(), "/recipes/x")
	assert.ErrorIs(t, out.Err, fetch.ErrBackendUnavailable)
	assert.Empty(t, logs.String())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "fetching", StateFetching.String())
	assert.Equal(t, "validated", StateValidated.String())
	assert.Equal(t, "rejected", StateRejected.String())
	assert.Equal(t, "state(42)", State(42).String())
}
