package server

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/jonathan/recipe-scraper/internal/db"
	"github.com/jonathan/recipe-scraper/internal/grocery"
	"github.com/jonathan/recipe-scraper/internal/types"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// RecipeListResponse is the body of GET /recipes
type RecipeListResponse struct {
	Recipes []db.RecipeSummary `json:"recipes"`
	Count   int                `json:"count"`
	Limit   int                `json:"limit"`
}

// GroceryResponse is the body of GET /grocery
type GroceryResponse struct {
	Titles []string       `json:"titles"`
	Lines  []grocery.Line `json:"lines"`
}

// parseQueryInt parses an integer query parameter with default and max values
func parseQueryInt(r *http.Request, key string, defaultValue, maxValue int) (int, error) {
	valStr := r.URL.Query().Get(key)
	if valStr == "" {
		return defaultValue, nil
	}
	val, err := strconv.Atoi(valStr)
	if err != nil || val < 0 {
		return 0, &ErrValidation{Field: key, Message: "must be a non-negative integer"}
	}
	if maxValue > 0 && val > maxValue {
		return maxValue, nil
	}
	return val, nil
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleListRecipes lists stored recipes, optionally for one cuisine
func (s *Server) handleListRecipes(w http.ResponseWriter, r *http.Request) {
	limit, err := parseQueryInt(r, "limit", defaultListLimit, maxListLimit)
	if err != nil {
		s.writeError(w, err)
		return
	}

	summaries, err := s.store.ListRecipes(r.Context(), db.ListFilter{
		Cuisine: r.URL.Query().Get("cuisine"),
		Limit:   limit,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, RecipeListResponse{
		Recipes: summaries,
		Count:   len(summaries),
		Limit:   limit,
	})
}

// handleGetRecipe retrieves a recipe by title
func (s *Server) handleGetRecipe(w http.ResponseWriter, r *http.Request) {
	title := r.PathValue("title")
	if title == "" {
		s.writeError(w, &ErrValidation{Field: "title", Message: "is required"})
		return
	}

	recipe, err := s.store.GetRecipe(r.Context(), title)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if recipe == nil {
		s.writeError(w, &ErrNotFound{Kind: "recipe", Key: title})
		return
	}

	s.jsonResponse(w, http.StatusOK, recipe)
}

// handleGrocery combines the ingredients of the recipes named by repeated
// title parameters
func (s *Server) handleGrocery(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	titles := query["title"]
	if len(titles) == 0 {
		s.writeError(w, &ErrValidation{Field: "title", Message: "at least one is required"})
		return
	}

	var followParents bool
	if v := query.Get("follow_parents"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			s.writeError(w, &ErrValidation{Field: "follow_parents", Message: "must be a boolean"})
			return
		}
		followParents = parsed
	}

	recipes := make([]types.Recipe, 0, len(titles))
	for _, title := range titles {
		recipe, err := s.store.GetRecipe(r.Context(), title)
		if err != nil {
			s.writeError(w, err)
			return
		}
		if recipe == nil {
			s.writeError(w, &ErrNotFound{Kind: "recipe", Key: title})
			return
		}
		recipes = append(recipes, *recipe)
	}

	lines := grocery.List(recipes, &grocery.Options{
		FollowParents: followParents && s.composites != nil,
		Composites:    s.composites,
	})
	s.jsonResponse(w, http.StatusOK, GroceryResponse{Titles: titles, Lines: lines})
}

// handleGetRun retrieves a scrape run by ID
func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	idStr := r.PathValue("id")
	runID, err := uuid.Parse(idStr)
	if err != nil {
		s.writeError(w, &ErrValidation{Field: "id", Message: "invalid run ID"})
		return
	}

	run, err := s.store.GetRun(r.Context(), runID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if run == nil {
		s.writeError(w, &ErrNotFound{Kind: "run", Key: idStr})
		return
	}

	s.jsonResponse(w, http.StatusOK, run)
}
