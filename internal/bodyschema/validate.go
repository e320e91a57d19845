package bodyschema

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Result is the outcome of validating one body.
type Result struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}

// Validator checks JSON bodies against a compiled JSON Schema.
type Validator struct {
	schema *jsonschema.Schema
}

// NewValidator compiles a raw JSON Schema document.
func NewValidator(schemaJSON []byte) (*Validator, error) {
	var schemaValue any
	if err := json.Unmarshal(schemaJSON, &schemaValue); err != nil {
		return nil, fmt.Errorf("parsing JSON Schema: %w", err)
	}

	compiler := jsonschema.NewCompiler()

	// Add the schema as a resource (doc must be valid json value, not io.Reader)
	if err := compiler.AddResource("body-schema.json", schemaValue); err != nil {
		return nil, fmt.Errorf("adding schema resource: %w", err)
	}

	compiled, err := compiler.Compile("body-schema.json")
	if err != nil {
		return nil, fmt.Errorf("compiling schema: %w", err)
	}
	return &Validator{schema: compiled}, nil
}

// Validate validates a JSON body.
func (v *Validator) Validate(data []byte) *Result {
	var value any
	if err := json.Unmarshal(data, &value); err != nil {
		return &Result{Errors: []string{fmt.Sprintf("invalid JSON: %s", err.Error())}}
	}

	err := v.schema.Validate(value)
	if err == nil {
		return &Result{Valid: true}
	}
	return &Result{Errors: extractValidationErrors(err)}
}

// extractValidationErrors extracts human-readable error messages from a validation error.
func extractValidationErrors(err error) []string {
	var validationErr *jsonschema.ValidationError
	if !errors.As(err, &validationErr) {
		return []string{err.Error()}
	}

	errorsByPath := make(map[string][]string)
	collectErrors(validationErr, errorsByPath)

	paths := make([]string, 0, len(errorsByPath))
	for p := range errorsByPath {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	var result []string
	for _, path := range paths {
		seen := make(map[string]bool)
		for _, msg := range errorsByPath[path] {
			if seen[msg] {
				continue
			}
			seen[msg] = true
			if path != "" {
				result = append(result, fmt.Sprintf("%s: %s", path, msg))
			} else {
				result = append(result, msg)
			}
		}
	}
	return result
}

// printer is a default English printer for localized error messages.
var printer = message.NewPrinter(language.English)

// collectErrors recursively collects leaf errors (those without causes).
func collectErrors(err *jsonschema.ValidationError, errorsByPath map[string][]string) {
	instancePath := ""
	if len(err.InstanceLocation) > 0 {
		instancePath = "/" + strings.Join(err.InstanceLocation, "/")
	}

	if err.ErrorKind != nil && len(err.Causes) == 0 {
		errMsg := err.ErrorKind.LocalizedString(printer)
		// $ref wrappers carry no information of their own
		if !strings.HasPrefix(errMsg, "$ref ") && !strings.HasPrefix(errMsg, "doesn't validate with") {
			errorsByPath[instancePath] = append(errorsByPath[instancePath], errMsg)
		}
	}

	for _, cause := range err.Causes {
		collectErrors(cause, errorsByPath)
	}
}
