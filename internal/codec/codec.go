// Package codec converts JSON and XML request bodies to and from
// reduce.Value trees.
package codec

import (
	"errors"

	"github.com/usestring/reqmin/internal/reduce"
	"github.com/usestring/reqmin/pkg/contenttype"
)

// ErrEmptyDocument is returned when a value cannot be serialized because the
// format has no representation for it (an XML document without a root).
var ErrEmptyDocument = errors.New("codec: empty document")

// Codec parses a body into a tree and serializes a tree back to a body.
type Codec interface {
	Name() string
	Parse(body []byte) (reduce.Value, error)
	Encode(v reduce.Value) ([]byte, error)
}

// For returns the codec for a body category.
func For(c contenttype.Category, jsonIndent int) (Codec, bool) {
	switch c {
	case contenttype.JSON:
		return JSON{Indent: jsonIndent}, true
	case contenttype.XML:
		return XML{}, true
	}
	return nil, false
}
