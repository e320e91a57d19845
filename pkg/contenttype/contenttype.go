// Package contenttype classifies Content-Type header values for request
// bodies and response fingerprints.
package contenttype

import (
	"bytes"
	"mime"
	"strings"
	"unicode/utf8"
)

// Category represents a broad content-type classification.
type Category string

const (
	JSON      Category = "json"
	XML       Category = "xml"
	HTML      Category = "html"
	YAML      Category = "yaml"
	Form      Category = "form"
	Multipart Category = "multipart"
	Text      Category = "text"
	Binary    Category = "binary"
	None      Category = "none"
)

// mediaType strips parameters (charset, boundary, ...) from a header value.
// Falls back to a lowercased copy for malformed values.
func mediaType(contentType string) string {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mt = strings.ToLower(strings.TrimSpace(contentType))
		if i := strings.IndexByte(mt, ';'); i >= 0 {
			mt = strings.TrimSpace(mt[:i])
		}
	}
	return mt
}

// Classify returns the broad content category for a content-type header value.
// Returns None for empty content-type strings.
func Classify(contentType string) Category {
	if strings.TrimSpace(contentType) == "" {
		return None
	}

	mt := mediaType(contentType)

	switch {
	case strings.Contains(mt, "json"):
		return JSON
	case mt == "text/html" || mt == "application/xhtml+xml":
		return HTML
	case strings.Contains(mt, "xml"):
		return XML
	case strings.Contains(mt, "yaml"):
		return YAML
	case mt == "application/x-www-form-urlencoded":
		return Form
	case strings.HasPrefix(mt, "multipart/"):
		return Multipart
	case strings.HasPrefix(mt, "text/"), strings.Contains(mt, "javascript"):
		return Text
	}

	return Binary
}

// ClassifyRequest returns the body category of a request. The declared
// Content-Type wins; without one, a non-empty body is sniffed the way
// intercepting proxies do (leading '{' or '[' is JSON, leading '<' is XML,
// key=value pairs are a form).
func ClassifyRequest(contentType string, body []byte) Category {
	if c := Classify(contentType); c != None {
		return c
	}

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return None
	}

	switch trimmed[0] {
	case '{', '[':
		return JSON
	case '<':
		return XML
	}

	if bytes.IndexByte(trimmed, '=') > 0 && !bytes.ContainsAny(trimmed, " \r\n") {
		return Form
	}
	if utf8.Valid(trimmed) {
		return Text
	}
	return Binary
}

// IsJSON returns true if the content type indicates JSON (case-insensitive).
func IsJSON(contentType string) bool {
	return strings.Contains(strings.ToLower(contentType), "json")
}

// IsHTML returns true if the content type indicates an HTML document.
func IsHTML(contentType string) bool {
	return Classify(contentType) == HTML
}
