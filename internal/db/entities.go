package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// EntityKind names a table whose rows are identified by one natural key.
type EntityKind string

const (
	EntityRecipe      EntityKind = "recipe"
	EntityIngredient  EntityKind = "ingredient"
	EntityMeasurement EntityKind = "measurement"
	EntityTag         EntityKind = "tag"
	EntityAllergy     EntityKind = "allergy"
	EntityCuisine     EntityKind = "cuisine"
	EntityUtensil     EntityKind = "utensil"
)

type entity struct {
	table  string
	column string
}

var entities = map[EntityKind]entity{
	EntityRecipe:      {table: "recipes", column: "title"},
	EntityIngredient:  {table: "ingredients", column: "food"},
	EntityMeasurement: {table: "measurements", column: "unit"},
	EntityTag:         {table: "tags", column: "descriptor"},
	EntityAllergy:     {table: "allergies", column: "allergen"},
	EntityCuisine:     {table: "cuisines", column: "region"},
	EntityUtensil:     {table: "utensils", column: "item"},
}

// errConflict means a concurrent writer inserted the key between our
// SELECT and INSERT. It is recovered by re-reading the row.
var errConflict = errors.New("natural key conflict")

// GetOrCreate returns the id of the row with the given natural key,
// inserting it if absent. created reports whether this call inserted it.
func (db *DB) GetOrCreate(ctx context.Context, kind EntityKind, key string) (int64, bool, error) {
	return getOrCreate(ctx, db.b, kind, key)
}

func getOrCreate(ctx context.Context, q querier, kind EntityKind, key string) (int64, bool, error) {
	e, ok := entities[kind]
	if !ok {
		return 0, false, fmt.Errorf("unknown entity kind %q", kind)
	}
	if strings.TrimSpace(key) == "" {
		return 0, false, fmt.Errorf("%s key cannot be empty", kind)
	}

	id, err := findID(ctx, q, e, key)
	if err != nil {
		return 0, false, err
	}
	if id != 0 {
		return id, false, nil
	}

	id, err = insertID(ctx, q, e, key)
	if errors.Is(err, errConflict) {
		id, err = findID(ctx, q, e, key)
		if err == nil && id == 0 {
			err = fmt.Errorf("%s %q vanished after conflict", kind, key)
		}
		return id, false, err
	}
	if err != nil {
		return 0, false, err
	}
	return id, true, nil
}

// findID returns 0 when no row has the key.
func findID(ctx context.Context, q querier, e entity, key string) (int64, error) {
	var id int64
	err := q.queryRow(ctx,
		fmt.Sprintf(`SELECT id FROM %s WHERE %s = $1`, e.table, e.column),
		key,
	).Scan(&id)
	if err != nil {
		if errors.Is(err, errNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to find %s: %w", e.table, err)
	}
	return id, nil
}

func insertID(ctx context.Context, q querier, e entity, key string) (int64, error) {
	var id int64
	err := q.queryRow(ctx,
		fmt.Sprintf(`INSERT INTO %s (%s) VALUES ($1) ON CONFLICT (%s) DO NOTHING RETURNING id`,
			e.table, e.column, e.column),
		key,
	).Scan(&id)
	if err != nil {
		if errors.Is(err, errNoRows) {
			return 0, errConflict
		}
		return 0, fmt.Errorf("failed to create %s: %w", e.table, err)
	}
	return id, nil
}
