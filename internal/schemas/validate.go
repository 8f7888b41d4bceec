// Package schemas provides JSON Schema validation of imported and persisted records.
// Schemas are embedded at compile time.
package schemas

import (
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	"github.com/jonathan/resume-editor/internal/types"
)

//go:embed *.schema.json
var schemaFiles embed.FS

// Embedded schemas
const (
	DocumentSchema = "document.schema.json"
	VersionsSchema = "versions.schema.json"
)

// ValidationError represents a schema validation error with field paths
type ValidationError struct {
	Errors []FieldError
}

// FieldError represents a single validation error at a specific field
type FieldError struct {
	Field   string
	Message string
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
	for i, err := range ve.Errors {
		sb.WriteString(fmt.Sprintf("  %d. %s: %s\n", i+1, err.Field, err.Message))
	}
	return sb.String()
}

var (
	compiled   = make(map[string]*gojsonschema.Schema)
	compiledMu sync.Mutex
)

// Load compiles an embedded schema. Compiled schemas are cached.
func Load(name string) (*gojsonschema.Schema, error) {
	compiledMu.Lock()
	defer compiledMu.Unlock()

	if schema, ok := compiled[name]; ok {
		return schema, nil
	}
	data, err := schemaFiles.ReadFile(name)
	if err != nil {
		return nil, &SchemaLoadError{Path: name, Message: "schema not found", Cause: err}
	}
	schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, &SchemaLoadError{Path: name, Message: "schema does not compile", Cause: err}
	}
	compiled[name] = schema
	return schema, nil
}

// Names lists the embedded schemas.
func Names() []string {
	entries, _ := schemaFiles.ReadDir(".")
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

// Validate validates JSON bytes against an embedded schema.
func Validate(name string, data []byte) error {
	schema, err := Load(name)
	if err != nil {
		return err
	}
	result, err := schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		// The document itself could not be read as JSON
		return &ValidationError{Errors: []FieldError{{Field: "(root)", Message: err.Error()}}}
	}
	return resultError(result)
}

// ValidateDocument validates a serialized document record.
func ValidateDocument(data []byte) error {
	return Validate(DocumentSchema, data)
}

// ValidateFile validates a JSON file against an embedded schema.
func ValidateFile(name, jsonPath string) error {
	jsonAbsPath, err := filepath.Abs(jsonPath)
	if err != nil {
		return fmt.Errorf("failed to resolve JSON path: %w", err)
	}
	data, err := os.ReadFile(jsonAbsPath)
	if os.IsNotExist(err) {
		return fmt.Errorf("JSON file not found: %s", jsonAbsPath)
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", jsonAbsPath, err)
	}
	return Validate(name, data)
}

func resultError(result *gojsonschema.Result) error {
	if result.Valid() {
		return nil
	}

	// Build structured error
	validationErr := &ValidationError{
		Errors: make([]FieldError, 0, len(result.Errors())),
	}

	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		validationErr.Errors = append(validationErr.Errors, FieldError{
			Field:   field,
			Message: desc.Description(),
		})
	}

	return validationErr
}

// DecodeDocument validates a serialized document against the document schema and its
// structural rules, then decodes it. Nothing is returned unless every check passes.
func DecodeDocument(data []byte) (types.Document, error) {
	if err := ValidateDocument(data); err != nil {
		return types.Document{}, err
	}
	var doc types.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return types.Document{}, &ValidationError{Errors: []FieldError{{Field: "(root)", Message: err.Error()}}}
	}
	if err := doc.Validate(); err != nil {
		return types.Document{}, err
	}
	// Clone replaces null collections with empty ones.
	return doc.Clone(), nil
}

// DecodeVersions validates and decodes a serialized version list. Snapshots get the same
// structural checks as an imported document.
func DecodeVersions(data []byte) ([]types.Version, error) {
	if err := Validate(VersionsSchema, data); err != nil {
		return nil, err
	}
	var versions []types.Version
	if err := json.Unmarshal(data, &versions); err != nil {
		return nil, &ValidationError{Errors: []FieldError{{Field: "(root)", Message: err.Error()}}}
	}
	for i := range versions {
		versions[i] = versions[i].Clone()
		if err := versions[i].Snapshot.Validate(); err != nil {
			return nil, &ValidationError{Errors: []FieldError{{
				Field:   fmt.Sprintf("%d.snapshot", i),
				Message: err.Error(),
			}}}
		}
	}
	return versions, nil
}
