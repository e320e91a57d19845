package reduce

import (
	"slices"
	"strconv"
	"strings"
)

// Kind discriminates the variants of Value.
type Kind int

const (
	Scalar Kind = iota
	Mapping
	Sequence
)

func (k Kind) String() string {
	switch k {
	case Mapping:
		return "mapping"
	case Sequence:
		return "sequence"
	default:
		return "scalar"
	}
}

// Entry is one direct child of a composite Value. Index is the entry's
// position in the original value and is used to restore order on reassembly;
// Key is empty for sequence entries.
type Entry struct {
	Key   string
	Index int
	Value Value
}

// Value is a tree of mappings, sequences, and opaque scalars. A scalar's
// text is interpreted only by the codec that produced it.
type Value struct {
	kind    Kind
	text    string
	entries []Entry
}

// NewScalar returns a leaf value.
func NewScalar(text string) Value {
	return Value{kind: Scalar, text: text}
}

// Field is a key/value pair for NewMapping.
type Field struct {
	Key   string
	Value Value
}

// NewMapping returns a mapping of the fields in order. Later duplicates of a
// key replace earlier ones in place.
func NewMapping(fields ...Field) Value {
	v := Value{kind: Mapping, entries: make([]Entry, 0, len(fields))}
	for _, f := range fields {
		if i := slices.IndexFunc(v.entries, func(e Entry) bool { return e.Key == f.Key }); i >= 0 {
			v.entries[i].Value = f.Value
			continue
		}
		v.entries = append(v.entries, Entry{Key: f.Key, Index: len(v.entries), Value: f.Value})
	}
	return v
}

// NewSequence returns a sequence of the values in order.
func NewSequence(values ...Value) Value {
	v := Value{kind: Sequence, entries: make([]Entry, len(values))}
	for i, item := range values {
		v.entries[i] = Entry{Index: i, Value: item}
	}
	return v
}

// Kind returns the variant of v.
func (v Value) Kind() Kind { return v.kind }

// IsComposite reports whether v is a mapping or a sequence.
func (v Value) IsComposite() bool { return v.kind != Scalar }

// Text returns a scalar's text, or "" for composites.
func (v Value) Text() string { return v.text }

// Len returns the number of direct entries.
func (v Value) Len() int { return len(v.entries) }

// Entries returns the direct entries in order.
func (v Value) Entries() []Entry {
	return slices.Clone(v.entries)
}

// Get returns the mapping entry for key.
func (v Value) Get(key string) (Value, bool) {
	if v.kind != Mapping {
		return Value{}, false
	}
	for _, e := range v.entries {
		if e.Key == key {
			return e.Value, true
		}
	}
	return Value{}, false
}

// At returns the i-th sequence item.
func (v Value) At(i int) (Value, bool) {
	if v.kind != Sequence || i < 0 || i >= len(v.entries) {
		return Value{}, false
	}
	return v.entries[i].Value, true
}

// Assemble returns a value of the same kind holding the given entries
// sorted by their original Index. For a sequence the indices are then
// renumbered, so relative order is kept and positions stay dense.
func (v Value) Assemble(entries []Entry) Value {
	out := Value{kind: v.kind, entries: slices.Clone(entries)}
	slices.SortStableFunc(out.entries, func(a, b Entry) int { return a.Index - b.Index })
	if v.kind == Sequence {
		for i := range out.entries {
			out.entries[i].Index = i
		}
	}
	return out
}

// Equal reports deep equality, including entry order.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind || v.text != o.text || len(v.entries) != len(o.entries) {
		return false
	}
	for i := range v.entries {
		a, b := v.entries[i], o.entries[i]
		if a.Key != b.Key || !a.Value.Equal(b.Value) {
			return false
		}
	}
	return true
}

// String renders v compactly for logs and test failures.
func (v Value) String() string {
	var sb strings.Builder
	v.write(&sb)
	return sb.String()
}

func (v Value) write(sb *strings.Builder) {
	switch v.kind {
	case Scalar:
		sb.WriteString(v.text)
	case Mapping:
		sb.WriteByte('{')
		for i, e := range v.entries {
			if i > 0 {
				sb.WriteByte(',')
			}
			sb.WriteString(strconv.Quote(e.Key))
			sb.WriteByte(':')
			e.Value.write(sb)
		}
		sb.WriteByte('}')
	case Sequence:
		sb.WriteByte('[')
		for i, e := range v.entries {
			if i > 0 {
				sb.WriteByte(',')
			}
			e.Value.write(sb)
		}
		sb.WriteByte(']')
	}
}

// Size returns the total number of nodes in v, including v itself.
func (v Value) Size() int {
	n := 1
	for _, e := range v.entries {
		n += e.Value.Size()
	}
	return n
}
