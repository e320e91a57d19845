// Package rawhttp parses and rebuilds raw HTTP/1.x messages without
// normalizing them.
//
// A Request is kept as its ordered header lines (the first line is the
// request line) plus the raw body bytes, exactly as an intercepting proxy
// shows it. Every mutation returns a new Request; the receiver is never
// modified, so callers can keep a linear chain of accepted requests.
//
//	req, err := rawhttp.Parse(raw)
//	smaller := req.WithoutLine(2)
//	wire := smaller.Bytes()
package rawhttp

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/usestring/reqmin/pkg/contenttype"
)

// ErrMalformedRequest is returned when the request line cannot be parsed.
var ErrMalformedRequest = errors.New("rawhttp: malformed request")

const (
	crlf          = "\r\n"
	headerBodySep = "\r\n\r\n"
)

// Request is an immutable raw HTTP request.
type Request struct {
	lines []string
	body  []byte
}

// Parse splits raw request bytes into header lines and body.
// Bare "\n" line endings are accepted and normalized to "\r\n".
func Parse(raw []byte) (*Request, error) {
	head, body := splitHeadBody(raw)

	text := strings.ReplaceAll(string(head), crlf, "\n")
	lines := strings.Split(text, "\n")
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: empty header block", ErrMalformedRequest)
	}

	if len(strings.Fields(lines[0])) < 2 {
		return nil, fmt.Errorf("%w: request line %q", ErrMalformedRequest, lines[0])
	}

	return &Request{lines: lines, body: bytes.Clone(body)}, nil
}

// MustParse is like Parse but panics on error. Intended for tests and
// literals known to be valid.
func MustParse(raw string) *Request {
	r, err := Parse([]byte(raw))
	if err != nil {
		panic(err)
	}
	return r
}

// splitHeadBody returns the header block and the body. A message without a
// blank line is all header.
func splitHeadBody(raw []byte) ([]byte, []byte) {
	if i := bytes.Index(raw, []byte(headerBodySep)); i >= 0 {
		return raw[:i], raw[i+len(headerBodySep):]
	}
	if i := bytes.Index(raw, []byte("\n\n")); i >= 0 {
		return raw[:i], raw[i+2:]
	}
	return raw, nil
}

// New builds a Request from header lines and body without validation.
func New(lines []string, body []byte) *Request {
	return &Request{lines: append([]string(nil), lines...), body: bytes.Clone(body)}
}

// Build joins header lines with CRLF, terminates the header block, and
// appends the body. This is the wire form sent to a target.
func Build(lines []string, body []byte) []byte {
	var buf bytes.Buffer
	for i, l := range lines {
		if i > 0 {
			buf.WriteString(crlf)
		}
		buf.WriteString(l)
	}
	buf.WriteString(headerBodySep)
	buf.Write(body)
	return buf.Bytes()
}

// Bytes returns the wire form of the request.
func (r *Request) Bytes() []byte {
	return Build(r.lines, r.body)
}

// String returns the wire form as a string.
func (r *Request) String() string {
	return string(r.Bytes())
}

// Lines returns a copy of all header lines, request line first.
func (r *Request) Lines() []string {
	return append([]string(nil), r.lines...)
}

// Body returns a copy of the body.
func (r *Request) Body() []byte {
	return bytes.Clone(r.body)
}

// BodyOffset is the index of the first body byte in Bytes().
func (r *Request) BodyOffset() int {
	n := len(headerBodySep)
	for i, l := range r.lines {
		if i > 0 {
			n += len(crlf)
		}
		n += len(l)
	}
	return n
}

// RequestLine returns the first header line.
func (r *Request) RequestLine() string {
	return r.lines[0]
}

// Method returns the request method.
func (r *Request) Method() string {
	return strings.Fields(r.lines[0])[0]
}

// RequestTarget returns the request-target (path and query, or absolute URL).
func (r *Request) RequestTarget() string {
	return strings.Fields(r.lines[0])[1]
}

// Proto returns the protocol version of the request line, or "HTTP/1.1"
// when the request line omits it.
func (r *Request) Proto() string {
	f := strings.Fields(r.lines[0])
	if len(f) >= 3 {
		return f[2]
	}
	return "HTTP/1.1"
}

// Header returns the value of the first header with the given name
// (case-insensitive).
func (r *Request) Header(name string) (string, bool) {
	for _, l := range r.lines[1:] {
		if n, v, ok := splitHeaderLine(l); ok && strings.EqualFold(n, name) {
			return v, true
		}
	}
	return "", false
}

// Headers returns the header lines after the request line.
func (r *Request) Headers() []string {
	return append([]string(nil), r.lines[1:]...)
}

// ContentType classifies the body using the Content-Type header, falling
// back to sniffing the body.
func (r *Request) ContentType() contenttype.Category {
	ct, _ := r.Header("Content-Type")
	return contenttype.ClassifyRequest(ct, r.body)
}

// WithoutLine returns a copy without header line i. The request line
// (index 0) cannot be removed.
func (r *Request) WithoutLine(i int) *Request {
	if i <= 0 || i >= len(r.lines) {
		return New(r.lines, r.body)
	}
	lines := make([]string, 0, len(r.lines)-1)
	lines = append(lines, r.lines[:i]...)
	lines = append(lines, r.lines[i+1:]...)
	return &Request{lines: lines, body: bytes.Clone(r.body)}
}

// WithLines returns a copy with the given header lines and the same body.
func (r *Request) WithLines(lines []string) *Request {
	return New(lines, r.body)
}

// WithRequestLine returns a copy with a replaced request line.
func (r *Request) WithRequestLine(line string) *Request {
	lines := r.Lines()
	lines[0] = line
	return &Request{lines: lines, body: bytes.Clone(r.body)}
}

// WithBody returns a copy with a new body and any Content-Length header
// recomputed to match it.
func (r *Request) WithBody(body []byte) *Request {
	return &Request{lines: FixContentLength(r.lines, len(body)), body: bytes.Clone(body)}
}

// FixContentLength rewrites every Content-Length header line to n. Lines
// without a Content-Length header are returned unchanged; no header is added.
func FixContentLength(lines []string, n int) []string {
	out := append([]string(nil), lines...)
	for i := 1; i < len(out); i++ {
		if name, _, ok := splitHeaderLine(out[i]); ok && strings.EqualFold(name, "Content-Length") {
			out[i] = "Content-Length: " + strconv.Itoa(n)
		}
	}
	return out
}

// StripEmptyCookieHeaders removes header lines that are a Cookie header
// with no value. Removing the last cookie parameter leaves such a line
// behind and some servers reject it.
func StripEmptyCookieHeaders(r *Request) *Request {
	lines := make([]string, 0, len(r.lines))
	changed := false
	for i, l := range r.lines {
		if i > 0 && strings.EqualFold(strings.TrimSpace(l), "cookie:") {
			changed = true
			continue
		}
		lines = append(lines, l)
	}
	if !changed {
		return r
	}
	return &Request{lines: lines, body: bytes.Clone(r.body)}
}

// HeaderName returns the lowercased name of a header line, or "" when the
// line has no colon.
func HeaderName(line string) string {
	name, _, ok := splitHeaderLine(line)
	if !ok {
		return ""
	}
	return strings.ToLower(name)
}

// splitHeaderLine splits "Name: value" into its parts.
func splitHeaderLine(line string) (name, value string, ok bool) {
	i := strings.IndexByte(line, ':')
	if i <= 0 {
		return "", "", false
	}
	return strings.TrimSpace(line[:i]), strings.TrimSpace(line[i+1:]), true
}
