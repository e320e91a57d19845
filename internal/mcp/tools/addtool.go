package tools

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// AddTool registers a tool after checking that the zero value of its output
// type satisfies the schema the SDK infers for it.
//
// Panics when the check fails, so a bad output type is caught at startup.
func AddTool[In, Out any](srv *sdkmcp.Server, t *sdkmcp.Tool, h sdkmcp.ToolHandlerFor[In, Out]) {
	CheckOutputSchema[Out](t.Name)
	sdkmcp.AddTool(srv, t, h)
}

// CheckOutputSchema panics when T cannot be served as structured tool
// output. Two mistakes are caught:
//
//   - nil slices without omitzero marshal as null, which the inferred
//     "type": "array" rejects;
//   - json.RawMessage fields are inferred as byte arrays but marshal as
//     arbitrary JSON.
//
// The untyped "any" output and types the schema package cannot infer are
// left to the SDK.
func CheckOutputSchema[T any](toolName string) {
	rt := reflect.TypeFor[T]()
	if rt == reflect.TypeFor[any]() {
		return
	}
	if rt.Kind() == reflect.Pointer {
		rt = rt.Elem()
	}

	if paths := rawMessagePaths(rt, nil, map[reflect.Type]bool{}); len(paths) > 0 {
		panic(fmt.Sprintf(
			"AddTool %q: output type %s uses json.RawMessage at %s\n"+
				"  the schema expects an array of integers but the value marshals as raw JSON\n"+
				"  Fix: change the field type to any (or []any) and round-trip the value through JSON",
			toolName, rt, strings.Join(paths, ", "),
		))
	}

	if data, err := zeroValueViolation(rt); err != nil {
		panic(fmt.Sprintf(
			"AddTool %q: zero value of output type %s fails schema validation: %v\n"+
				"  JSON: %s\n"+
				"  Fix: add `omitzero` to nil-defaulting slice fields, or initialize them to empty slices",
			toolName, rt, err, data,
		))
	}
}

// zeroValueViolation validates the marshaled zero value of rt against its
// inferred schema. Inference failures are not violations.
func zeroValueViolation(rt reflect.Type) ([]byte, error) {
	schema, err := jsonschema.ForType(rt, &jsonschema.ForOptions{})
	if err != nil {
		return nil, nil
	}
	resolved, err := schema.Resolve(&jsonschema.ResolveOptions{})
	if err != nil {
		return nil, nil
	}

	data, err := json.Marshal(reflect.Zero(rt).Interface())
	if err != nil {
		return nil, nil
	}
	var v map[string]any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, nil
	}
	return data, resolved.Validate(&v)
}

var rawMessageType = reflect.TypeFor[json.RawMessage]()

// rawMessagePaths returns the dotted paths of json.RawMessage values inside
// t. Slice elements are written "[]" and map values "[value]".
func rawMessagePaths(t reflect.Type, path []string, seen map[reflect.Type]bool) []string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == rawMessageType {
		return []string{strings.Join(path, ".")}
	}
	if seen[t] {
		return nil
	}
	seen[t] = true
	defer delete(seen, t)

	var found []string
	switch t.Kind() {
	case reflect.Struct:
		for i := range t.NumField() {
			f := t.Field(i)
			if !f.IsExported() {
				continue
			}
			found = append(found, rawMessagePaths(f.Type, append(path, f.Name), seen)...)
		}
	case reflect.Slice, reflect.Array:
		found = append(found, rawMessagePaths(t.Elem(), append(path, "[]"), seen)...)
	case reflect.Map:
		found = append(found, rawMessagePaths(t.Elem(), append(path, "[value]"), seen)...)
	}
	return found
}
