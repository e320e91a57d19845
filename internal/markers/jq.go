package markers

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/itchyny/gojq"
	"gopkg.in/yaml.v3"

	"github.com/usestring/reqmin/pkg/contenttype"
)

func compileJQ(expression string) (*gojq.Code, error) {
	query, err := gojq.Parse(expression)
	if err != nil {
		var parseErr *gojq.ParseError
		if errors.As(err, &parseErr) {
			return nil, fmt.Errorf("invalid jq expression at position %d: %w", parseErr.Offset, err)
		}
		return nil, fmt.Errorf("invalid jq expression: %w", err)
	}

	code, err := gojq.Compile(query)
	if err != nil {
		return nil, fmt.Errorf("failed to compile jq expression: %w", err)
	}
	return code, nil
}

// queryJQ runs code against a body. JSON bodies are used directly; anything
// else is parsed as YAML first.
func queryJQ(code *gojq.Code, body []byte, contentType string) ([]string, error) {
	var input any
	if contenttype.IsJSON(contentType) {
		if err := json.Unmarshal(body, &input); err != nil {
			return nil, fmt.Errorf("invalid JSON data: %w", err)
		}
	} else {
		var yamlData any
		if err := yaml.Unmarshal(body, &yamlData); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
		input = convertYAMLToJSON(yamlData)
	}

	values := []string{}
	iter := code.Run(input)
	for {
		v, ok := iter.Next()
		if !ok {
			break
		}
		if err, isErr := v.(error); isErr {
			var haltErr *gojq.HaltError
			if errors.As(err, &haltErr) && haltErr.Value() == nil {
				break
			}
			return nil, err
		}
		if v == nil {
			continue
		}
		values = append(values, valueKey(v))
	}
	return values, nil
}

// valueKey renders a jq value as a comparable string.
func valueKey(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64, int, bool:
		return fmt.Sprintf("%v", val)
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprintf("%v", val)
		}
		return string(b)
	}
}

// convertYAMLToJSON recursively converts YAML-parsed values to JSON-compatible
// types. yaml.v3 may produce map[any]any for non-string keys.
func convertYAMLToJSON(v any) any {
	switch val := v.(type) {
	case map[string]any:
		result := make(map[string]any, len(val))
		for k, v := range val {
			result[k] = convertYAMLToJSON(v)
		}
		return result
	case map[any]any:
		result := make(map[string]any, len(val))
		for k, v := range val {
			result[fmt.Sprintf("%v", k)] = convertYAMLToJSON(v)
		}
		return result
	case []any:
		result := make([]any, len(val))
		for i, v := range val {
			result[i] = convertYAMLToJSON(v)
		}
		return result
	default:
		return v
	}
}
