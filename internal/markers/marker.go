// Package markers evaluates user-defined body markers against responses.
//
// A marker names a piece of the response body (a jq path, an XPath or CSS
// selector, a regex, or a form key). Its value becomes one more response
// attribute, so a candidate request is only equivalent to the baseline when
// the marked content is reproduced too.
package markers

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/andybalholm/cascadia"
	"github.com/antchfx/xpath"
	"github.com/itchyny/gojq"
)

// Mode constants for extraction languages.
const (
	ModeCSS   = "css"
	ModeXPath = "xpath"
	ModeRegex = "regex"
	ModeForm  = "form"
	ModeJQ    = "jq"
)

// errorPrefix marks a value that could not be extracted. Two responses that
// fail the same way still share the attribute.
const errorPrefix = "!error: "

// Marker is a named extraction over a response body. An empty Mode is
// detected from the response content type on every evaluation.
type Marker struct {
	Name       string `json:"name" jsonschema:"Attribute name suffix, unique per run"`
	Mode       string `json:"mode,omitempty" jsonschema:"One of jq, xpath, css, regex, form; empty detects from content type"`
	Expression string `json:"expression" jsonschema:"Expression in the chosen mode"`
}

// Compiled is a validated marker with its expression pre-compiled for the
// modes that support it.
type Compiled struct {
	Marker
	jq    *gojq.Code
	re    *regexp.Regexp
	xpath *xpath.Expr
}

// Compile validates m. Expressions are compiled for the explicit mode only;
// markers with an empty mode are compiled lazily per body.
func Compile(m Marker) (*Compiled, error) {
	if strings.TrimSpace(m.Name) == "" {
		return nil, fmt.Errorf("marker name is required")
	}
	if m.Expression == "" {
		return nil, fmt.Errorf("marker %q: expression is required", m.Name)
	}

	c := &Compiled{Marker: m}
	var err error
	switch m.Mode {
	case "":
	case ModeJQ:
		c.jq, err = compileJQ(m.Expression)
	case ModeRegex:
		c.re, err = regexp.Compile(m.Expression)
	case ModeXPath:
		c.xpath, err = xpath.Compile(m.Expression)
	case ModeCSS:
		_, err = cascadia.Compile(m.Expression)
	case ModeForm:
	default:
		err = fmt.Errorf("unknown mode: %q (valid: css, xpath, regex, form, jq)", m.Mode)
	}
	if err != nil {
		return nil, fmt.Errorf("marker %q: %w", m.Name, err)
	}
	return c, nil
}

// CompileAll compiles every marker and rejects duplicate names.
func CompileAll(ms []Marker) ([]*Compiled, error) {
	out := make([]*Compiled, 0, len(ms))
	seen := make(map[string]bool, len(ms))
	for _, m := range ms {
		if seen[m.Name] {
			return nil, fmt.Errorf("duplicate marker name %q", m.Name)
		}
		seen[m.Name] = true

		c, err := Compile(m)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// Evaluate extracts the marker from body and returns its canonical value:
// the sorted extracted values joined by newlines. Extraction failures
// return an error value instead of failing the comparison.
func (c *Compiled) Evaluate(body []byte, contentType string) string {
	values, err := c.extract(body, contentType)
	if err != nil {
		return errorPrefix + err.Error()
	}
	slices.Sort(values)
	return strings.Join(values, "\n")
}

func (c *Compiled) extract(body []byte, contentType string) ([]string, error) {
	mode := c.Mode
	if mode == "" {
		mode = DetectMode(contentType)
	}

	switch mode {
	case ModeJQ:
		code := c.jq
		if code == nil {
			var err error
			if code, err = compileJQ(c.Expression); err != nil {
				return nil, err
			}
		}
		return queryJQ(code, body, contentType)
	case ModeXPath:
		expr := c.xpath
		if expr == nil {
			var err error
			if expr, err = xpath.Compile(c.Expression); err != nil {
				return nil, fmt.Errorf("invalid XPath expression: %w", err)
			}
		}
		return queryXPath(body, contentType, expr)
	case ModeCSS:
		return queryCSS(body, c.Expression)
	case ModeRegex:
		re := c.re
		if re == nil {
			var err error
			if re, err = regexp.Compile(c.Expression); err != nil {
				return nil, fmt.Errorf("invalid regex: %w", err)
			}
		}
		return queryRegex(body, re), nil
	case ModeForm:
		return queryForm(body, c.Expression)
	default:
		return nil, fmt.Errorf("unknown mode: %q", mode)
	}
}
