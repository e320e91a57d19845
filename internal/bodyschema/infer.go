// Package bodyschema describes minimized JSON bodies with JSON Schema and
// checks candidate bodies against caller-supplied constraints.
package bodyschema

import (
	"encoding/json"
	"math"
	"sort"
	"strings"

	"github.com/invopop/jsonschema"

	"github.com/usestring/reqmin/internal/reduce"
)

// Infer returns a Draft 2020-12 schema of a minimized JSON body. Every
// surviving object member is required: the reducer kept it because the
// response changed without it. Property order follows the body.
func Infer(v reduce.Value) *jsonschema.Schema {
	s := inferValue(v)
	s.Version = "https://json-schema.org/draft/2020-12/schema"
	return s
}

func inferValue(v reduce.Value) *jsonschema.Schema {
	switch v.Kind() {
	case reduce.Mapping:
		schema := &jsonschema.Schema{
			Type:       "object",
			Properties: jsonschema.NewProperties(),
		}
		for _, e := range v.Entries() {
			schema.Properties.Set(e.Key, inferValue(e.Value))
			schema.Required = append(schema.Required, e.Key)
		}
		return schema

	case reduce.Sequence:
		schema := &jsonschema.Schema{Type: "array"}
		if v.Len() == 0 {
			return schema
		}
		items := make([]*jsonschema.Schema, 0, v.Len())
		for _, e := range v.Entries() {
			items = append(items, inferValue(e.Value))
		}
		schema.Items = mergeSchemas(items)
		return schema

	default:
		return inferScalar(v.Text())
	}
}

// inferScalar types a JSON token.
func inferScalar(token string) *jsonschema.Schema {
	switch {
	case token == "null":
		return &jsonschema.Schema{Type: "null"}
	case token == "true" || token == "false":
		return &jsonschema.Schema{Type: "boolean"}
	case strings.HasPrefix(token, `"`):
		return &jsonschema.Schema{Type: "string"}
	}

	var f float64
	if err := json.Unmarshal([]byte(token), &f); err == nil {
		if math.Trunc(f) == f && !math.IsInf(f, 0) {
			return &jsonschema.Schema{Type: "integer"}
		}
		return &jsonschema.Schema{Type: "number"}
	}
	return &jsonschema.Schema{}
}

// mergeSchemas merges array item schemas. Items of one type collapse to a
// single schema; object items keep the union of their properties and only
// the members every item has stay required. Mixed types become anyOf.
func mergeSchemas(schemas []*jsonschema.Schema) *jsonschema.Schema {
	if len(schemas) == 1 {
		return schemas[0]
	}

	byType := make(map[string][]*jsonschema.Schema)
	for _, s := range schemas {
		byType[s.Type] = append(byType[s.Type], s)
	}

	types := make([]string, 0, len(byType))
	for t := range byType {
		types = append(types, t)
	}
	sort.Strings(types)

	merged := make([]*jsonschema.Schema, 0, len(types))
	for _, t := range types {
		group := byType[t]
		switch t {
		case "object":
			merged = append(merged, mergeObjects(group))
		case "array":
			var items []*jsonschema.Schema
			for _, s := range group {
				if s.Items != nil {
					items = append(items, s.Items)
				}
			}
			arr := &jsonschema.Schema{Type: "array"}
			if len(items) > 0 {
				arr.Items = mergeSchemas(items)
			}
			merged = append(merged, arr)
		default:
			merged = append(merged, group[0])
		}
	}

	if len(merged) == 1 {
		return merged[0]
	}
	return &jsonschema.Schema{AnyOf: merged}
}

func mergeObjects(schemas []*jsonschema.Schema) *jsonschema.Schema {
	if len(schemas) == 1 {
		return schemas[0]
	}

	props := make(map[string][]*jsonschema.Schema)
	var order []string
	counts := make(map[string]int)
	for _, s := range schemas {
		for pair := s.Properties.Oldest(); pair != nil; pair = pair.Next() {
			if _, ok := props[pair.Key]; !ok {
				order = append(order, pair.Key)
			}
			props[pair.Key] = append(props[pair.Key], pair.Value)
		}
		for _, r := range s.Required {
			counts[r]++
		}
	}

	out := &jsonschema.Schema{Type: "object", Properties: jsonschema.NewProperties()}
	for _, k := range order {
		out.Properties.Set(k, mergeSchemas(props[k]))
		if counts[k] == len(schemas) {
			out.Required = append(out.Required, k)
		}
	}
	return out
}
