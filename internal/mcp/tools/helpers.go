// Package tools contains MCP tool implementations for reqmin.
package tools

import (
	"encoding/json"
)

// MIME type constants.
const (
	MimeJSON = "application/json"
	MimeHTTP = "message/http"
)

// toAny round-trips v through JSON so typed values such as schemas surface
// as plain maps in tool output.
func toAny(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}
