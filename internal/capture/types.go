package capture

import (
	"encoding/base64"

	"github.com/usestring/reqmin/pkg/rawhttp"
)

// Request is the captured request half of an entry.
type Request struct {
	Method      *string         `json:"method"`
	Path        *string         `json:"path"`
	HTTPVersion *string         `json:"httpVersion"`
	Headers     rawhttp.Headers `json:"headers"`
	Body        *string         `json:"body"` // Base64-encoded
}

// Response is the captured response half of an entry.
type Response struct {
	HTTPVersion *string         `json:"httpVersion"`
	StatusCode  *int            `json:"statusCode"`
	StatusText  *string         `json:"statusText"`
	Headers     rawhttp.Headers `json:"headers"`
	Body        *string         `json:"body"` // Base64-encoded
}

// Entry is one HTTP transaction captured in a powhttp session. Only the
// fields needed to replay the request are decoded.
type Entry struct {
	ID          string    `json:"id"`
	URL         string    `json:"url"`
	HTTPVersion string    `json:"httpVersion"`
	Request     Request   `json:"request"`
	Response    *Response `json:"response"`
}

// DecodeBody decodes a base64-encoded body.
// Returns nil if the input is nil.
func DecodeBody(encoded *string) ([]byte, error) {
	if encoded == nil {
		return nil, nil
	}
	return base64.StdEncoding.DecodeString(*encoded)
}
