// Package schemas embeds the JSON Schemas for exported artifacts.
package schemas

import _ "embed"

// RecipeSchema is the JSON Schema of a recipe export: an array of recipes.
//
//go:embed recipe.schema.json
var RecipeSchema string
