package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/buger/jsonparser"

	"github.com/usestring/reqmin/internal/reduce"
)

// JSON maps objects to mappings and arrays to sequences, keeping member
// order. Scalars hold their JSON token text. Indent is the number of spaces
// per level; zero writes compact JSON.
type JSON struct {
	Indent int
}

func (JSON) Name() string { return "json" }

// Parse parses a JSON document.
func (JSON) Parse(body []byte) (reduce.Value, error) {
	trimmed := bytes.TrimSpace(body)
	if !json.Valid(trimmed) {
		return reduce.Value{}, fmt.Errorf("codec: invalid JSON body")
	}
	value, dt, _, err := jsonparser.Get(trimmed)
	if err != nil {
		return reduce.Value{}, fmt.Errorf("codec: parsing JSON: %w", err)
	}
	return parseJSONValue(value, dt)
}

func parseJSONValue(value []byte, dt jsonparser.ValueType) (reduce.Value, error) {
	switch dt {
	case jsonparser.Object:
		var fields []reduce.Field
		err := jsonparser.ObjectEach(value, func(key, val []byte, vt jsonparser.ValueType, _ int) error {
			name, err := jsonparser.ParseString(key)
			if err != nil {
				return fmt.Errorf("codec: object key %q: %w", key, err)
			}
			child, err := parseJSONValue(val, vt)
			if err != nil {
				return err
			}
			fields = append(fields, reduce.Field{Key: name, Value: child})
			return nil
		})
		if err != nil {
			return reduce.Value{}, err
		}
		return reduce.NewMapping(fields...), nil

	case jsonparser.Array:
		var items []reduce.Value
		var inner error
		_, err := jsonparser.ArrayEach(value, func(val []byte, vt jsonparser.ValueType, _ int, err error) {
			if inner != nil {
				return
			}
			if err != nil {
				inner = err
				return
			}
			child, err := parseJSONValue(val, vt)
			if err != nil {
				inner = err
				return
			}
			items = append(items, child)
		})
		if err == nil {
			err = inner
		}
		if err != nil {
			return reduce.Value{}, fmt.Errorf("codec: parsing JSON array: %w", err)
		}
		return reduce.NewSequence(items...), nil

	case jsonparser.String:
		// jsonparser strips the quotes but leaves escapes intact.
		return reduce.NewScalar(`"` + string(value) + `"`), nil

	default:
		return reduce.NewScalar(string(value)), nil
	}
}

// Encode serializes v. Empty objects and arrays are valid JSON.
func (j JSON) Encode(v reduce.Value) ([]byte, error) {
	var buf bytes.Buffer
	if err := j.write(&buf, v, 0); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (j JSON) write(buf *bytes.Buffer, v reduce.Value, depth int) error {
	switch v.Kind() {
	case reduce.Scalar:
		buf.WriteString(v.Text())
		return nil
	case reduce.Mapping, reduce.Sequence:
	default:
		return fmt.Errorf("codec: unknown value kind %v", v.Kind())
	}

	opening, closing := byte('['), byte(']')
	if v.Kind() == reduce.Mapping {
		opening, closing = '{', '}'
	}

	entries := v.Entries()
	buf.WriteByte(opening)
	if len(entries) == 0 {
		buf.WriteByte(closing)
		return nil
	}

	for i, e := range entries {
		if i > 0 {
			buf.WriteByte(',')
		}
		j.newline(buf, depth+1)
		if v.Kind() == reduce.Mapping {
			key, err := quoteKey(e.Key)
			if err != nil {
				return err
			}
			buf.Write(key)
			buf.WriteByte(':')
			if j.Indent > 0 {
				buf.WriteByte(' ')
			}
		}
		if err := j.write(buf, e.Value, depth+1); err != nil {
			return err
		}
	}
	j.newline(buf, depth)
	buf.WriteByte(closing)
	return nil
}

func (j JSON) newline(buf *bytes.Buffer, depth int) {
	if j.Indent <= 0 {
		return
	}
	buf.WriteByte('\n')
	buf.WriteString(strings.Repeat(" ", j.Indent*depth))
}

func quoteKey(key string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(key); err != nil {
		return nil, fmt.Errorf("codec: encoding key %q: %w", key, err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
