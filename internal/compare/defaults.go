// Package compare fingerprints HTTP responses into named attributes and
// computes which attributes two responses share.
package compare

// DefaultIgnoreAttributes are attributes that vary between two identical
// requests on most servers and are dropped from baseline invariants.
var DefaultIgnoreAttributes = []string{
	AttrLastModifiedHeader,
}

// DefaultIgnoreHeaders are response headers that commonly vary and are
// usually noise in a header-level comparison. These are typically set by
// servers or infrastructure on every response.
var DefaultIgnoreHeaders = []string{
	"date",
	"x-request-id",
	"x-correlation-id",
	"x-trace-id",
	"x-amzn-requestid",
	"x-amzn-trace-id",
	"cf-ray",
	"x-cache",
	"age",
	"expires",
	"last-modified",
	"etag",
	"set-cookie",
	"content-length",
}

// Body prefix sizes used by the limited and initial content attributes.
const (
	limitedBodyBytes = 1024
	initialBodyBytes = 128
)
