// Package schemas provides JSON Schema validation for exported recipe data.
package schemas

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/jonathan/recipe-scraper/internal/types"
	schemadefs "github.com/jonathan/recipe-scraper/schemas"
)

// NoRecord marks a FieldError that is not inside one exported recipe.
const NoRecord = -1

// ValidationError lists every schema violation found in a document
type ValidationError struct {
	Errors []FieldError
}

// FieldError is one violation. Record is the index of the recipe it
// belongs to when the document is an array, otherwise NoRecord. Field is
// the path inside that recipe and is empty when the recipe itself is at
// fault, e.g. a missing required property.
type FieldError struct {
	Record  int
	Field   string
	Message string
}

func (fe FieldError) String() string {
	var sb strings.Builder
	if fe.Record != NoRecord {
		fmt.Fprintf(&sb, "recipe %d: ", fe.Record+1)
	}
	if fe.Field != "" {
		sb.WriteString(fe.Field)
		sb.WriteString(": ")
	}
	sb.WriteString(fe.Message)
	return sb.String()
}

// SchemaLoadError represents errors loading or parsing the schema itself
type SchemaLoadError struct {
	Path    string
	Message string
	Cause   error
}

func (e *SchemaLoadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("failed to load schema %s: %s: %v", e.Path, e.Message, e.Cause)
	}
	return fmt.Sprintf("failed to load schema %s: %s", e.Path, e.Message)
}

func (e *SchemaLoadError) Unwrap() error {
	return e.Cause
}

func (ve *ValidationError) Error() string {
	var sb strings.Builder
	sb.WriteString("validation failed:\n")
	for _, fe := range ve.Errors {
		fmt.Fprintf(&sb, "  - %s\n", fe)
	}
	return sb.String()
}

// Records returns the distinct indexes of the recipes with violations, in
// ascending order.
func (ve *ValidationError) Records() []int {
	seen := make(map[int]bool)
	var records []int
	for _, fe := range ve.Errors {
		if fe.Record == NoRecord || seen[fe.Record] {
			continue
		}
		seen[fe.Record] = true
		records = append(records, fe.Record)
	}
	sort.Ints(records)
	return records
}

// ValidateJSON validates a JSON file against a JSON Schema file
func ValidateJSON(schemaPath, jsonPath string) error {
	schema, err := readFile("schema", schemaPath)
	if err != nil {
		return err
	}
	document, err := readFile("JSON", jsonPath)
	if err != nil {
		return err
	}
	return validate(
		gojsonschema.NewBytesLoader(schema),
		gojsonschema.NewBytesLoader(document),
		schemaPath,
	)
}

func readFile(kind, path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s file not found: %s: %w", kind, path, err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s file %s: %w", kind, path, err)
	}
	return data, nil
}

// ValidateJSONString validates JSON string content against schema string content
func ValidateJSONString(schemaContent, jsonContent string) error {
	return validate(
		gojsonschema.NewStringLoader(schemaContent),
		gojsonschema.NewStringLoader(jsonContent),
		"(string schema)",
	)
}

// ValidateRecipes validates recipes as an export against the recipe schema.
func ValidateRecipes(recipes []types.Recipe) error {
	if recipes == nil {
		recipes = []types.Recipe{}
	}
	data, err := json.Marshal(recipes)
	if err != nil {
		return fmt.Errorf("failed to marshal recipes: %w", err)
	}
	return validate(
		gojsonschema.NewStringLoader(schemadefs.RecipeSchema),
		gojsonschema.NewBytesLoader(data),
		"recipe.schema.json",
	)
}

// ValidateRecipeFile validates a recipe export file against the recipe schema.
func ValidateRecipeFile(jsonPath string) error {
	data, err := readFile("JSON", jsonPath)
	if err != nil {
		return err
	}
	return validate(
		gojsonschema.NewStringLoader(schemadefs.RecipeSchema),
		gojsonschema.NewBytesLoader(data),
		"recipe.schema.json",
	)
}

func validate(schemaLoader, documentLoader gojsonschema.JSONLoader, schemaPath string) error {
	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return &SchemaLoadError{
			Path:    schemaPath,
			Message: "schema validation failed during load",
			Cause:   err,
		}
	}

	if result.Valid() {
		return nil
	}

	validationErr := &ValidationError{
		Errors: make([]FieldError, 0, len(result.Errors())),
	}
	for _, desc := range result.Errors() {
		record, field := splitRecord(desc.Field())
		validationErr.Errors = append(validationErr.Errors, FieldError{
			Record:  record,
			Field:   field,
			Message: desc.Description(),
		})
	}
	return validationErr
}

// splitRecord separates a leading array index from a gojsonschema field
// path: "0.title" is record 0, field "title".
func splitRecord(path string) (int, string) {
	if path == "" || path == "(root)" {
		return NoRecord, ""
	}
	head, rest, _ := strings.Cut(path, ".")
	index, err := strconv.Atoi(head)
	if err != nil || index < 0 {
		return NoRecord, path
	}
	return index, rest
}
