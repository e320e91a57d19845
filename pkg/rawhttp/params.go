package rawhttp

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"strconv"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/buger/jsonparser"

	"github.com/usestring/reqmin/pkg/contenttype"
)

// ParamKind is the location a parameter was extracted from.
type ParamKind string

const (
	ParamURL       ParamKind = "url"
	ParamBody      ParamKind = "body"
	ParamCookie    ParamKind = "cookie"
	ParamJSON      ParamKind = "json"
	ParamXML       ParamKind = "xml"
	ParamMultipart ParamKind = "multipart"
)

// ParseParamKind maps a lowercase kind name to a ParamKind.
func ParseParamKind(s string) (ParamKind, error) {
	switch k := ParamKind(strings.ToLower(strings.TrimSpace(s))); k {
	case ParamURL, ParamBody, ParamCookie, ParamJSON, ParamXML, ParamMultipart:
		return k, nil
	}
	return "", fmt.Errorf("unknown parameter kind %q (valid: url, body, cookie, json, xml, multipart)", s)
}

// Errors returned by RemoveParameter.
var (
	ErrParamNotFound     = errors.New("rawhttp: parameter not found")
	ErrUnsupportedRemove = errors.New("rawhttp: parameter kind cannot be removed")
)

// Parameter is a (kind, name, value) triple. Name and Value are kept in
// their raw, still-encoded form so removal can match them exactly.
type Parameter struct {
	Kind  ParamKind `json:"kind"`
	Name  string    `json:"name"`
	Value string    `json:"value"`
}

func (p Parameter) String() string {
	return fmt.Sprintf("%s:%s=%s", p.Kind, p.Name, p.Value)
}

// Parameters enumerates the request's parameters in order: URL query,
// cookies, then body parameters according to the body content type.
func (r *Request) Parameters() []Parameter {
	var params []Parameter

	if _, query, ok := strings.Cut(r.RequestTarget(), "?"); ok {
		params = append(params, splitPairs(ParamURL, query, "&")...)
	}

	for _, l := range r.lines[1:] {
		if name, value, ok := splitHeaderLine(l); ok && strings.EqualFold(name, "Cookie") {
			params = append(params, splitPairs(ParamCookie, value, ";")...)
		}
	}

	switch r.ContentType() {
	case contenttype.Form:
		params = append(params, splitPairs(ParamBody, string(r.body), "&")...)
	case contenttype.JSON:
		params = append(params, jsonParams(r.body)...)
	case contenttype.XML:
		params = append(params, xmlParams(r.body)...)
	case contenttype.Multipart:
		ct, _ := r.Header("Content-Type")
		params = append(params, multipartParams(ct, r.body)...)
	}

	return params
}

// splitPairs splits "a=1<sep>b=2" into parameters. Empty segments are skipped.
func splitPairs(kind ParamKind, s, sep string) []Parameter {
	var out []Parameter
	for _, seg := range strings.Split(s, sep) {
		seg = strings.TrimSpace(seg)
		if seg == "" {
			continue
		}
		name, value, _ := strings.Cut(seg, "=")
		out = append(out, Parameter{Kind: kind, Name: name, Value: value})
	}
	return out
}

// jsonParams reports the members of a top-level JSON object, or the
// elements of a top-level array by index.
func jsonParams(body []byte) []Parameter {
	var out []Parameter
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil
	}

	switch trimmed[0] {
	case '{':
		_ = jsonparser.ObjectEach(trimmed, func(key, value []byte, _ jsonparser.ValueType, _ int) error {
			out = append(out, Parameter{Kind: ParamJSON, Name: string(key), Value: string(value)})
			return nil
		})
	case '[':
		i := 0
		_, _ = jsonparser.ArrayEach(trimmed, func(value []byte, _ jsonparser.ValueType, _ int, err error) {
			if err == nil {
				out = append(out, Parameter{Kind: ParamJSON, Name: strconv.Itoa(i), Value: string(value)})
			}
			i++
		})
	}
	return out
}

// xmlParams reports the attributes and child elements of the document root.
func xmlParams(body []byte) []Parameter {
	doc, err := xmlquery.Parse(bytes.NewReader(body))
	if err != nil {
		return nil
	}
	root := firstElement(doc)
	if root == nil {
		return nil
	}

	var out []Parameter
	for _, a := range root.Attr {
		out = append(out, Parameter{Kind: ParamXML, Name: "@" + a.Name.Local, Value: a.Value})
	}
	for n := root.FirstChild; n != nil; n = n.NextSibling {
		if n.Type == xmlquery.ElementNode {
			out = append(out, Parameter{Kind: ParamXML, Name: n.Data, Value: strings.TrimSpace(n.InnerText())})
		}
	}
	return out
}

func firstElement(doc *xmlquery.Node) *xmlquery.Node {
	for n := doc.FirstChild; n != nil; n = n.NextSibling {
		if n.Type == xmlquery.ElementNode {
			return n
		}
	}
	return nil
}

// multipartParams reports form field names of a multipart body.
func multipartParams(contentType string, body []byte) []Parameter {
	_, ps, err := mime.ParseMediaType(contentType)
	if err != nil || ps["boundary"] == "" {
		return nil
	}

	var out []Parameter
	mr := multipart.NewReader(bytes.NewReader(body), ps["boundary"])
	for {
		part, err := mr.NextPart()
		if err != nil {
			break
		}
		value, _ := io.ReadAll(io.LimitReader(part, 256))
		out = append(out, Parameter{Kind: ParamMultipart, Name: part.FormName(), Value: string(value)})
		part.Close()
	}
	return out
}

// RemoveParameter returns a copy of the request without one occurrence of p.
// URL, body, and cookie parameters are supported. Removing the last cookie
// of a Cookie header leaves the header with an empty value; see
// StripEmptyCookieHeaders.
func (r *Request) RemoveParameter(p Parameter) (*Request, error) {
	switch p.Kind {
	case ParamURL:
		return r.removeURLParam(p)
	case ParamCookie:
		return r.removeCookieParam(p)
	case ParamBody:
		joined, ok := removePair(string(r.body), "&", p)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrParamNotFound, p)
		}
		return r.WithBody([]byte(joined)), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedRemove, p.Kind)
	}
}

func (r *Request) removeURLParam(p Parameter) (*Request, error) {
	fields := strings.Fields(r.lines[0])
	path, query, ok := strings.Cut(fields[1], "?")
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrParamNotFound, p)
	}

	joined, ok := removePair(query, "&", p)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrParamNotFound, p)
	}

	fields[1] = path
	if joined != "" {
		fields[1] = path + "?" + joined
	}
	return r.WithRequestLine(strings.Join(fields, " ")), nil
}

func (r *Request) removeCookieParam(p Parameter) (*Request, error) {
	lines := r.Lines()
	for i := 1; i < len(lines); i++ {
		name, value, ok := splitHeaderLine(lines[i])
		if !ok || !strings.EqualFold(name, "Cookie") {
			continue
		}

		joined, ok := removePair(value, ";", p)
		if !ok {
			continue
		}
		lines[i] = name + ": " + joined
		return r.WithLines(lines), nil
	}
	return nil, fmt.Errorf("%w: %s", ErrParamNotFound, p)
}

// removePair drops the first segment matching p and rejoins the rest.
// Cookie segments are rejoined with "; ".
func removePair(s, sep string, p Parameter) (string, bool) {
	var kept []string
	removed := false
	for _, seg := range strings.Split(s, sep) {
		trimmed := strings.TrimSpace(seg)
		if trimmed == "" {
			continue
		}
		name, value, _ := strings.Cut(trimmed, "=")
		if !removed && name == p.Name && value == p.Value {
			removed = true
			continue
		}
		kept = append(kept, trimmed)
	}

	joiner := sep
	if sep == ";" {
		joiner = "; "
	}
	return strings.Join(kept, joiner), removed
}
