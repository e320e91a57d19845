package markers

import (
	"github.com/usestring/reqmin/pkg/contenttype"
)

// DetectMode returns the appropriate extraction mode for a content-type header.
func DetectMode(ct string) string {
	switch contenttype.Classify(ct) {
	case contenttype.JSON:
		return ModeJQ
	case contenttype.HTML:
		return ModeCSS
	case contenttype.XML:
		return ModeXPath
	case contenttype.Form:
		return ModeForm
	case contenttype.YAML:
		return ModeJQ
	default:
		return ModeRegex
	}
}
