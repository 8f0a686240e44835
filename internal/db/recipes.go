package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jonathan/recipe-scraper/internal/types"
)

// -----------------------------------------------------------------------------
// Recipe Methods
// -----------------------------------------------------------------------------

// recipeLink describes a many-to-many association between recipes and a
// natural-key entity.
type recipeLink struct {
	kind   EntityKind
	table  string
	column string
	values func(r *types.Recipe) []string
}

var recipeLinks = []recipeLink{
	{EntityTag, "recipe_tags", "tag_id", func(r *types.Recipe) []string { return r.Tags }},
	{EntityAllergy, "recipe_allergies", "allergy_id", func(r *types.Recipe) []string { return r.Allergies }},
	{EntityCuisine, "recipe_cuisines", "cuisine_id", func(r *types.Recipe) []string { return r.Cuisines }},
	{EntityUtensil, "recipe_utensils", "utensil_id", func(r *types.Recipe) []string { return r.Utensils }},
}

// SaveRecipe stores a recipe and all of its associations in one
// transaction and returns its id. Saving a title again replaces the previous
// record's fields and associations.
func (db *DB) SaveRecipe(ctx context.Context, r *types.Recipe) (int64, error) {
	if r == nil || strings.TrimSpace(r.Title) == "" {
		return 0, fmt.Errorf("recipe title cannot be empty")
	}

	var recipeID int64
	err := db.inTx(ctx, func(q querier) error {
		id, _, err := getOrCreate(ctx, q, EntityRecipe, r.Title)
		if err != nil {
			return err
		}
		recipeID = id

		err = q.exec(ctx,
			`UPDATE recipes
			 SET source = $1, prep_time = $2, difficulty = $3, feeds = $4,
			     glamor_shot_url = $5, instructions_url = $6
			 WHERE id = $7`,
			r.Source, r.PrepTime.Minutes(), r.Difficulty, r.Feeds,
			r.GlamorShotURL, r.InstructionsURL, id,
		)
		if err != nil {
			return fmt.Errorf("failed to update recipe: %w", err)
		}

		if err := clearAssociations(ctx, q, id); err != nil {
			return err
		}
		for _, link := range recipeLinks {
			if err := saveLinks(ctx, q, id, link, link.values(r)); err != nil {
				return err
			}
		}
		if err := saveIngredientAmounts(ctx, q, id, r.IngredientAmounts); err != nil {
			return err
		}
		return saveNutrition(ctx, q, id, r.Nutrition)
	})
	if err != nil {
		return 0, fmt.Errorf("failed to save recipe %q: %w", r.Title, err)
	}
	return recipeID, nil
}

func clearAssociations(ctx context.Context, q querier, recipeID int64) error {
	tables := []string{"ingredient_amounts", "recipe_nutrition"}
	for _, link := range recipeLinks {
		tables = append(tables, link.table)
	}
	for _, table := range tables {
		if err := q.exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE recipe_id = $1`, table), recipeID); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	return nil
}

func saveLinks(ctx context.Context, q querier, recipeID int64, link recipeLink, values []string) error {
	for _, v := range values {
		id, _, err := getOrCreate(ctx, q, link.kind, v)
		if err != nil {
			return err
		}
		err = q.exec(ctx,
			fmt.Sprintf(`INSERT INTO %s (recipe_id, %s) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
				link.table, link.column),
			recipeID, id,
		)
		if err != nil {
			return fmt.Errorf("failed to link %s: %w", link.kind, err)
		}
	}
	return nil
}

func saveIngredientAmounts(ctx context.Context, q querier, recipeID int64, amounts []types.IngredientAmount) error {
	for pos, ia := range amounts {
		ingredientID, _, err := getOrCreate(ctx, q, EntityIngredient, ia.Ingredient.Food)
		if err != nil {
			return err
		}

		if ia.Ingredient.ParentRecipe != "" {
			parentID, _, err := getOrCreate(ctx, q, EntityRecipe, ia.Ingredient.ParentRecipe)
			if err != nil {
				return err
			}
			err = q.exec(ctx,
				`UPDATE ingredients SET parent_recipe_id = $1 WHERE id = $2`,
				parentID, ingredientID,
			)
			if err != nil {
				return fmt.Errorf("failed to set parent recipe: %w", err)
			}
		}

		var measurementID *int64
		if ia.Unit != "" {
			id, _, err := getOrCreate(ctx, q, EntityMeasurement, ia.Unit)
			if err != nil {
				return err
			}
			measurementID = &id
		}

		err = q.exec(ctx,
			`INSERT INTO ingredient_amounts (recipe_id, position, ingredient_id, measurement_id, amount)
			 VALUES ($1, $2, $3, $4, $5)`,
			recipeID, pos, ingredientID, measurementID, ia.Amount,
		)
		if err != nil {
			return fmt.Errorf("failed to save ingredient %q: %w", ia.Ingredient.Food, err)
		}
	}
	return nil
}

func saveNutrition(ctx context.Context, q querier, recipeID int64, nutrition map[string]string) error {
	for nutrient, value := range nutrition {
		err := q.exec(ctx,
			`INSERT INTO recipe_nutrition (recipe_id, nutrient, value) VALUES ($1, $2, $3)`,
			recipeID, nutrient, value,
		)
		if err != nil {
			return fmt.Errorf("failed to save nutrient %q: %w", nutrient, err)
		}
	}
	return nil
}

// GetRecipe retrieves a recipe by title. It returns nil if none exists.
func (db *DB) GetRecipe(ctx context.Context, title string) (*types.Recipe, error) {
	var (
		r        types.Recipe
		id       int64
		prepTime int
	)
	err := db.b.queryRow(ctx,
		`SELECT id, title, source, prep_time, difficulty, feeds, glamor_shot_url, instructions_url
		 FROM recipes WHERE title = $1`,
		title,
	).Scan(&id, &r.Title, &r.Source, &prepTime, &r.Difficulty, &r.Feeds, &r.GlamorShotURL, &r.InstructionsURL)
	if err != nil {
		if errors.Is(err, errNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get recipe: %w", err)
	}
	r.PrepTime = types.PrepTime(prepTime)

	for _, link := range recipeLinks {
		values, err := db.linkedValues(ctx, id, link)
		if err != nil {
			return nil, err
		}
		switch link.kind {
		case EntityTag:
			r.Tags = values
		case EntityAllergy:
			r.Allergies = values
		case EntityCuisine:
			r.Cuisines = values
		case EntityUtensil:
			r.Utensils = values
		}
	}

	if r.IngredientAmounts, err = db.ingredientAmounts(ctx, id); err != nil {
		return nil, err
	}
	if r.Nutrition, err = db.nutrition(ctx, id); err != nil {
		return nil, err
	}
	return &r, nil
}

func (db *DB) linkedValues(ctx context.Context, recipeID int64, link recipeLink) ([]string, error) {
	e := entities[link.kind]
	rs, err := db.b.query(ctx,
		fmt.Sprintf(`SELECT e.%s FROM %s e JOIN %s l ON l.%s = e.id
		 WHERE l.recipe_id = $1 ORDER BY e.%s`,
			e.column, e.table, link.table, link.column, e.column),
		recipeID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", e.table, err)
	}
	defer rs.Close()

	values := []string{}
	for rs.Next() {
		var v string
		if err := rs.Scan(&v); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", e.table, err)
		}
		values = append(values, v)
	}
	return values, rs.Err()
}

func (db *DB) ingredientAmounts(ctx context.Context, recipeID int64) ([]types.IngredientAmount, error) {
	rs, err := db.b.query(ctx,
		`SELECT i.food, p.title, m.unit, ia.amount
		 FROM ingredient_amounts ia
		 JOIN ingredients i ON i.id = ia.ingredient_id
		 LEFT JOIN measurements m ON m.id = ia.measurement_id
		 LEFT JOIN recipes p ON p.id = i.parent_recipe_id
		 WHERE ia.recipe_id = $1
		 ORDER BY ia.position`,
		recipeID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get ingredient amounts: %w", err)
	}
	defer rs.Close()

	amounts := []types.IngredientAmount{}
	for rs.Next() {
		var (
			ia     types.IngredientAmount
			parent *string
			unit   *string
		)
		if err := rs.Scan(&ia.Ingredient.Food, &parent, &unit, &ia.Amount); err != nil {
			return nil, fmt.Errorf("failed to scan ingredient amount: %w", err)
		}
		if parent != nil {
			ia.Ingredient.ParentRecipe = *parent
		}
		if unit != nil {
			ia.Unit = *unit
		}
		amounts = append(amounts, ia)
	}
	return amounts, rs.Err()
}

func (db *DB) nutrition(ctx context.Context, recipeID int64) (map[string]string, error) {
	rs, err := db.b.query(ctx,
		`SELECT nutrient, value FROM recipe_nutrition WHERE recipe_id = $1`,
		recipeID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get nutrition: %w", err)
	}
	defer rs.Close()

	facts := map[string]string{}
	for rs.Next() {
		var nutrient, value string
		if err := rs.Scan(&nutrient, &value); err != nil {
			return nil, fmt.Errorf("failed to scan nutrition: %w", err)
		}
		facts[nutrient] = value
	}
	return facts, rs.Err()
}

// ListRecipes returns recipe summaries ordered by title.
func (db *DB) ListRecipes(ctx context.Context, filter ListFilter) ([]RecipeSummary, error) {
	var (
		sb   strings.Builder
		args []any
	)
	sb.WriteString(`SELECT r.id, r.title, r.prep_time, r.difficulty, r.feeds,
		(SELECT COUNT(*) FROM ingredient_amounts ia WHERE ia.recipe_id = r.id)
		FROM recipes r`)
	if filter.Cuisine != "" {
		args = append(args, types.Fold(filter.Cuisine))
		fmt.Fprintf(&sb, ` WHERE EXISTS (
			SELECT 1 FROM recipe_cuisines rc JOIN cuisines c ON c.id = rc.cuisine_id
			WHERE rc.recipe_id = r.id AND c.region = $%d)`, len(args))
	}
	sb.WriteString(` ORDER BY r.title`)
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		fmt.Fprintf(&sb, ` LIMIT $%d`, len(args))
	}

	rs, err := db.b.query(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list recipes: %w", err)
	}
	defer rs.Close()

	summaries := []RecipeSummary{}
	for rs.Next() {
		var s RecipeSummary
		if err := rs.Scan(&s.ID, &s.Title, &s.PrepTime, &s.Difficulty, &s.Feeds, &s.IngredientCount); err != nil {
			return nil, fmt.Errorf("failed to scan recipe summary: %w", err)
		}
		summaries = append(summaries, s)
	}
	return summaries, rs.Err()
}
