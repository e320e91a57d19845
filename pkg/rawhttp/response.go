package rawhttp

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"net/http/httputil"
	"strconv"
	"strings"
)

// Headers is a slice of header key-value pairs in wire order.
type Headers [][]string

// Get returns the first value for the given header name (case-insensitive).
// Returns an empty string if the header is not found.
func (h Headers) Get(name string) string {
	for _, pair := range h {
		if len(pair) >= 2 && strings.EqualFold(pair[0], name) {
			return pair[1]
		}
	}
	return ""
}

// Values returns all values for the given header name (case-insensitive).
func (h Headers) Values(name string) []string {
	var values []string
	for _, pair := range h {
		if len(pair) >= 2 && strings.EqualFold(pair[0], name) {
			values = append(values, pair[1])
		}
	}
	return values
}

// Response is a parsed HTTP response. Body is already de-chunked.
type Response struct {
	Proto      string
	StatusCode int
	Reason     string
	Headers    Headers
	Body       []byte
}

// Bytes serializes the response. A chunked response is written with its
// decoded body and without the Transfer-Encoding header.
func (r *Response) Bytes() []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%s %d %s\r\n", r.Proto, r.StatusCode, r.Reason)
	for _, h := range r.Headers {
		if len(h) < 2 || strings.EqualFold(h[0], "Transfer-Encoding") {
			continue
		}
		buf.WriteString(h[0] + ": " + h[1] + "\r\n")
	}
	buf.WriteString("\r\n")
	buf.Write(r.Body)
	return buf.Bytes()
}

// ParseResponseHead parses a status line and header block (without the
// body). The returned Response has a nil Body.
func ParseResponseHead(head []byte) (*Response, error) {
	text := strings.ReplaceAll(string(head), crlf, "\n")
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	if len(lines) == 0 || lines[0] == "" {
		return nil, fmt.Errorf("rawhttp: empty response head")
	}

	proto, rest, ok := strings.Cut(lines[0], " ")
	if !ok || !strings.HasPrefix(proto, "HTTP/") {
		return nil, fmt.Errorf("rawhttp: malformed status line %q", lines[0])
	}
	codeStr, reason, _ := strings.Cut(strings.TrimSpace(rest), " ")
	code, err := strconv.Atoi(codeStr)
	if err != nil {
		return nil, fmt.Errorf("rawhttp: malformed status code %q", codeStr)
	}

	resp := &Response{Proto: proto, StatusCode: code, Reason: reason}
	for _, l := range lines[1:] {
		if name, value, ok := splitHeaderLine(l); ok {
			resp.Headers = append(resp.Headers, []string{name, value})
		}
	}
	return resp, nil
}

// ParseResponse parses complete raw response bytes. Chunked bodies are
// decoded; a Content-Length shorter than the remaining bytes truncates the
// body.
func ParseResponse(raw []byte) (*Response, error) {
	head, body := splitHeadBody(raw)
	resp, err := ParseResponseHead(head)
	if err != nil {
		return nil, err
	}

	if strings.EqualFold(resp.Headers.Get("Transfer-Encoding"), "chunked") {
		decoded, err := io.ReadAll(httputil.NewChunkedReader(bufio.NewReader(bytes.NewReader(body))))
		if err != nil {
			return nil, fmt.Errorf("rawhttp: decoding chunked body: %w", err)
		}
		resp.Body = decoded
		return resp, nil
	}

	if cl := resp.Headers.Get("Content-Length"); cl != "" {
		if n, err := strconv.Atoi(cl); err == nil && n >= 0 && n < len(body) {
			body = body[:n]
		}
	}
	resp.Body = bytes.Clone(body)
	return resp, nil
}
