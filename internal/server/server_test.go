package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/recipe-scraper/internal/catalog"
	"github.com/jonathan/recipe-scraper/internal/db"
	"github.com/jonathan/recipe-scraper/internal/grocery"
	"github.com/jonathan/recipe-scraper/internal/types"
)

// failingStore fails every read
type failingStore struct {
	db.Store
}

func (failingStore) ListRecipes(context.Context, db.ListFilter) ([]db.RecipeSummary, error) {
	return nil, errors.New("connection reset")
}

func (failingStore) GetRecipe(context.Context, string) (*types.Recipe, error) {
	return nil, errors.New("connection reset")
}

func newTestStore(t *testing.T) *db.DB {
	t.Helper()
	store, err := db.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(store.Close)

	for _, r := range []*types.Recipe{
		{
			Title:      "Tuscan Chicken",
			Source:     "Hello Fresh",
			PrepTime:   30,
			Difficulty: "medium",
			Feeds:      types.DefaultFeeds,
			Cuisines:   []string{"italian"},
			IngredientAmounts: []types.IngredientAmount{
				{Ingredient: types.Ingredient{Food: "basil"}, Amount: 2, Unit: "tablespoon"},
				{Ingredient: types.Ingredient{Food: "tuscan heat spice", ParentRecipe: "Tuscan Heat Spice"}, Amount: 1, Unit: "teaspoon"},
			},
		},
		{
			Title:      "Chicken Tacos",
			Source:     "Hello Fresh",
			PrepTime:   25,
			Difficulty: "easy",
			Feeds:      types.DefaultFeeds,
			Cuisines:   []string{"mexican"},
			IngredientAmounts: []types.IngredientAmount{
				{Ingredient: types.Ingredient{Food: "lime"}, Amount: 1, Unit: "unit"},
				{Ingredient: types.Ingredient{Food: "basil"}, Amount: 1, Unit: "tablespoon"},
			},
		},
	} {
		_, err := store.SaveRecipe(context.Background(), r)
		require.NoError(t, err)
	}
	return store
}

func newTestServer(t *testing.T, store db.Store) *Server {
	t.Helper()
	composites, err := catalog.Load()
	require.NoError(t, err)

	s, err := New(Config{
		Store:      store,
		Composites: composites,
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	require.NoError(t, err)
	return s
}

func get(t *testing.T, s *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	return v
}

func TestNew_RequiresStore(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}

func TestHandleHealth(t *testing.T) {
	s := newTestServer(t, newTestStore(t))
	w := get(t, s, "/health")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "ok", decode[map[string]string](t, w)["status"])
}

func TestHandleListRecipes(t *testing.T) {
	s := newTestServer(t, newTestStore(t))

	tests := []struct {
		name       string
		target     string
		wantStatus int
		wantTitles []string
		wantLimit  int
	}{
		{name: "all", target: "/recipes", wantStatus: http.StatusOK, wantTitles: []string{"Chicken Tacos", "Tuscan Chicken", "Tuscan Heat Spice"}, wantLimit: defaultListLimit},
		{name: "by cuisine", target: "/recipes?cuisine=Italian", wantStatus: http.StatusOK, wantTitles: []string{"Tuscan Chicken"}, wantLimit: defaultListLimit},
		{name: "limited", target: "/recipes?limit=1", wantStatus: http.StatusOK, wantTitles: []string{"Chicken Tacos"}, wantLimit: 1},
		{name: "limit capped", target: "/recipes?limit=100000", wantStatus: http.StatusOK, wantTitles: []string{"Chicken Tacos", "Tuscan Chicken", "Tuscan Heat Spice"}, wantLimit: maxListLimit},
		{name: "unknown cuisine", target: "/recipes?cuisine=thai", wantStatus: http.StatusOK, wantTitles: []string{}, wantLimit: defaultListLimit},
		{name: "bad limit", target: "/recipes?limit=ten", wantStatus: http.StatusBadRequest},
		{name: "negative limit", target: "/recipes?limit=-1", wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := get(t, s, tt.target)
			require.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus != http.StatusOK {
				assert.Contains(t, decode[map[string]string](t, w)["error"], "limit")
				return
			}

			resp := decode[RecipeListResponse](t, w)
			titles := []string{}
			for _, r := range resp.Recipes {
				titles = append(titles, r.Title)
			}
			assert.Equal(t, tt.wantTitles, titles)
			assert.Equal(t, len(tt.wantTitles), resp.Count)
			assert.Equal(t, tt.wantLimit, resp.Limit)
		})
	}
}

func TestHandleGetRecipe(t *testing.T) {
	s := newTestServer(t, newTestStore(t))

	w := get(t, s, "/recipes/"+url.PathEscape("Tuscan Chicken"))
	require.Equal(t, http.StatusOK, w.Code)

	recipe := decode[types.Recipe](t, w)
	assert.Equal(t, "Tuscan Chicken", recipe.Title)
	assert.Equal(t, types.PrepTime(30), recipe.PrepTime)
	assert.Equal(t, []string{"italian"}, recipe.Cuisines)
	require.Len(t, recipe.IngredientAmounts, 2)
	assert.Equal(t, "Tuscan Heat Spice", recipe.IngredientAmounts[1].Ingredient.ParentRecipe)
}

func TestHandleGetRecipe_NotFound(t *testing.T) {
	s := newTestServer(t, newTestStore(t))

	w := get(t, s, "/recipes/"+url.PathEscape("Beef Stew"))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "recipe not found: Beef Stew", decode[map[string]string](t, w)["error"])
}

func TestHandleGrocery(t *testing.T) {
	s := newTestServer(t, newTestStore(t))

	tests := []struct {
		name      string
		query     string
		wantLines []grocery.Line
	}{
		{
			name:  "combined",
			query: "title=Tuscan+Chicken&title=Chicken+Tacos",
			wantLines: []grocery.Line{
				{Amount: 3, Unit: "tablespoon", Food: "basil"},
				{Amount: 1, Unit: "unit", Food: "lime"},
				{Amount: 1, Unit: "teaspoon", Food: "tuscan heat spice"},
			},
		},
		{
			name:  "follow parents",
			query: "title=Tuscan+Chicken&follow_parents=true",
			wantLines: []grocery.Line{
				{Amount: 2, Unit: "tablespoon", Food: "basil"},
				{Amount: 4, Unit: "teaspoon", Food: "basil"},
				{Amount: 1, Unit: "teaspoon", Food: "cayenne"},
				{Amount: 2, Unit: "teaspoon", Food: "garlic powder"},
				{Amount: 1, Unit: "teaspoon", Food: "ground fennel"},
				{Amount: 2, Unit: "teaspoon", Food: "oregano"},
				{Amount: 2, Unit: "teaspoon", Food: "rosemary"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := get(t, s, "/grocery?"+tt.query)
			require.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.wantLines, decode[GroceryResponse](t, w).Lines)
		})
	}
}

func TestHandleGrocery_Errors(t *testing.T) {
	s := newTestServer(t, newTestStore(t))

	tests := []struct {
		name       string
		query      string
		wantStatus int
		wantError  string
	}{
		{name: "no titles", query: "", wantStatus: http.StatusBadRequest, wantError: "title"},
		{name: "bad flag", query: "title=Chicken+Tacos&follow_parents=maybe", wantStatus: http.StatusBadRequest, wantError: "follow_parents"},
		{name: "unknown recipe", query: "title=Beef+Stew", wantStatus: http.StatusNotFound, wantError: "Beef Stew"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := get(t, s, "/grocery?"+tt.query)
			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Contains(t, decode[map[string]string](t, w)["error"], tt.wantError)
		})
	}
}

func TestHandleGetRun(t *testing.T) {
	store := newTestStore(t)
	s := newTestServer(t, store)

	runID, err := store.CreateRun(context.Background())
	require.NoError(t, err)
	require.NoError(t, store.CompleteRun(context.Background(), runID, db.RunStatusCompleted, 2, 1))

	w := get(t, s, "/runs/"+runID.String())
	require.Equal(t, http.StatusOK, w.Code)

	run := decode[db.Run](t, w)
	assert.Equal(t, runID, run.ID)
	assert.Equal(t, db.RunStatusCompleted, run.Status)
	assert.Equal(t, 2, run.Validated)
	assert.Equal(t, 1, run.Rejected)
	assert.NotNil(t, run.CompletedAt)
}

func TestHandleGetRun_Errors(t *testing.T) {
	s := newTestServer(t, newTestStore(t))

	w := get(t, s, "/runs/not-a-uuid")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode[map[string]string](t, w)["error"], "invalid run ID")

	w = get(t, s, "/runs/"+uuid.New().String())
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStoreFailure(t *testing.T) {
	s := newTestServer(t, failingStore{})

	for _, target := range []string{"/recipes", "/recipes/Tacos", "/grocery?title=Tacos"} {
		t.Run(target, func(t *testing.T) {
			w := get(t, s, target)
			assert.Equal(t, http.StatusInternalServerError, w.Code)
			assert.Contains(t, decode[map[string]string](t, w)["error"], "connection reset")
		})
	}
}

func TestMethodNotAllowed(t *testing.T) {
	s := newTestServer(t, newTestStore(t))

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/recipes", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)

	w = httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/recipes", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "GET, OPTIONS", w.Header().Get("Access-Control-Allow-Methods"))
}

func TestStart_StopsOnCancel(t *testing.T) {
	s := newTestServer(t, newTestStore(t))
	s.httpServer.Addr = "127.0.0.1:0"

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()

	cancel()
	assert.NoError(t, <-done)
}
