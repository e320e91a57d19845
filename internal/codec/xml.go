package codec

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/antchfx/xmlquery"

	"github.com/usestring/reqmin/internal/reduce"
)

// XML projects a document onto a tree the way xmltodict does:
//
//   - the document is a mapping with a single entry, root name to root value
//   - attributes become "@name" entries, text next to children or
//     attributes becomes "#text"
//   - repeated child elements with the same name become a sequence
//   - an element with neither attributes nor children is a scalar
//
// Removing the root entry leaves nothing to serialize, so Encode refuses an
// empty top-level mapping with ErrEmptyDocument.
type XML struct{}

const (
	xmlAttrPrefix = "@"
	xmlTextKey    = "#text"
	xmlHeader     = `<?xml version="1.0" encoding="utf-8"?>` + "\n"
)

func (XML) Name() string { return "xml" }

// Parse parses an XML document.
func (XML) Parse(body []byte) (reduce.Value, error) {
	doc, err := xmlquery.Parse(bytes.NewReader(body))
	if err != nil {
		return reduce.Value{}, fmt.Errorf("codec: parsing XML: %w", err)
	}

	var root *xmlquery.Node
	for n := doc.FirstChild; n != nil; n = n.NextSibling {
		if n.Type == xmlquery.ElementNode {
			root = n
			break
		}
	}
	if root == nil {
		return reduce.Value{}, fmt.Errorf("codec: XML body has no root element")
	}

	return reduce.NewMapping(reduce.Field{Key: qualifiedName(root.Prefix, root.Data), Value: elementValue(root)}), nil
}

func qualifiedName(prefix, local string) string {
	if prefix == "" {
		return local
	}
	return prefix + ":" + local
}

func elementValue(n *xmlquery.Node) reduce.Value {
	var fields []reduce.Field
	for _, a := range n.Attr {
		fields = append(fields, reduce.Field{
			Key:   xmlAttrPrefix + qualifiedName(a.Name.Space, a.Name.Local),
			Value: reduce.NewScalar(a.Value),
		})
	}

	// Group repeated children under their first occurrence.
	var names []string
	children := make(map[string][]reduce.Value)
	var text strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case xmlquery.ElementNode:
			name := qualifiedName(c.Prefix, c.Data)
			if _, ok := children[name]; !ok {
				names = append(names, name)
			}
			children[name] = append(children[name], elementValue(c))
		case xmlquery.TextNode, xmlquery.CharDataNode:
			text.WriteString(c.Data)
		}
	}
	content := strings.TrimSpace(text.String())

	if len(fields) == 0 && len(names) == 0 {
		return reduce.NewScalar(content)
	}

	for _, name := range names {
		vals := children[name]
		if len(vals) == 1 {
			fields = append(fields, reduce.Field{Key: name, Value: vals[0]})
		} else {
			fields = append(fields, reduce.Field{Key: name, Value: reduce.NewSequence(vals...)})
		}
	}
	if content != "" {
		fields = append(fields, reduce.Field{Key: xmlTextKey, Value: reduce.NewScalar(content)})
	}
	return reduce.NewMapping(fields...)
}

// Encode serializes v, tab-indented, with an XML declaration.
func (XML) Encode(v reduce.Value) ([]byte, error) {
	if v.Kind() != reduce.Mapping {
		return nil, fmt.Errorf("codec: XML document must be a mapping, got %v", v.Kind())
	}
	switch v.Len() {
	case 0:
		return nil, ErrEmptyDocument
	case 1:
	default:
		return nil, fmt.Errorf("codec: XML document must have exactly one root, got %d", v.Len())
	}

	var buf bytes.Buffer
	buf.WriteString(xmlHeader)

	enc := xml.NewEncoder(&buf)
	enc.Indent("", "\t")
	root := v.Entries()[0]
	if err := encodeElement(enc, root.Key, root.Value); err != nil {
		return nil, err
	}
	if err := enc.Flush(); err != nil {
		return nil, fmt.Errorf("codec: writing XML: %w", err)
	}
	return buf.Bytes(), nil
}

func encodeElement(enc *xml.Encoder, name string, v reduce.Value) error {
	if v.Kind() == reduce.Sequence {
		for _, e := range v.Entries() {
			if err := encodeElement(enc, name, e.Value); err != nil {
				return err
			}
		}
		return nil
	}

	start := xml.StartElement{Name: xml.Name{Local: name}}
	var text string
	var children []reduce.Entry

	if v.Kind() == reduce.Scalar {
		text = v.Text()
	} else {
		for _, e := range v.Entries() {
			switch {
			case strings.HasPrefix(e.Key, xmlAttrPrefix):
				start.Attr = append(start.Attr, xml.Attr{
					Name:  xml.Name{Local: strings.TrimPrefix(e.Key, xmlAttrPrefix)},
					Value: e.Value.Text(),
				})
			case e.Key == xmlTextKey:
				text = e.Value.Text()
			default:
				children = append(children, e)
			}
		}
	}

	if err := enc.EncodeToken(start); err != nil {
		return fmt.Errorf("codec: writing <%s>: %w", name, err)
	}
	for _, c := range children {
		if err := encodeElement(enc, c.Key, c.Value); err != nil {
			return err
		}
	}
	if text != "" {
		if err := enc.EncodeToken(xml.CharData(text)); err != nil {
			return fmt.Errorf("codec: writing text of <%s>: %w", name, err)
		}
	}
	if err := enc.EncodeToken(start.End()); err != nil {
		return fmt.Errorf("codec: writing </%s>: %w", name, err)
	}
	return nil
}
