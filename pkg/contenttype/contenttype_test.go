package contenttype

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		want        Category
	}{
		// JSON
		{"application/json", "application/json", JSON},
		{"vendor json", "application/vnd.api+json", JSON},
		{"json with charset", "application/json; charset=utf-8", JSON},

		// HTML
		{"text/html", "text/html", HTML},
		{"html with charset", "text/html; charset=utf-8", HTML},
		{"xhtml", "application/xhtml+xml", HTML},

		// XML
		{"application/xml", "application/xml", XML},
		{"text/xml", "text/xml", XML},
		{"soap", "application/soap+xml; charset=utf-8", XML},

		// YAML
		{"application/yaml", "application/yaml", YAML},

		// Form and multipart
		{"form-urlencoded", "application/x-www-form-urlencoded", Form},
		{"multipart", "multipart/form-data; boundary=----x", Multipart},

		// Text
		{"text/plain", "text/plain", Text},
		{"javascript", "application/javascript", Text},

		// Binary
		{"image/png", "image/png", Binary},
		{"octet-stream", "application/octet-stream", Binary},

		// Edge cases
		{"empty", "", None},
		{"blank", "   ", None},
		{"uppercase", "Application/JSON", JSON},
		{"malformed with params", "application/xml;;charset", XML},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.contentType))
		})
	}
}

func TestClassifyRequest(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
		want        Category
	}{
		{"declared json", "application/json", `{"a":1}`, JSON},
		{"declared wins over sniffing", "application/xml", `{"a":1}`, XML},
		{"sniff object", "", `  {"a":1}`, JSON},
		{"sniff array", "", `[1,2]`, JSON},
		{"sniff xml", "", `<root/>`, XML},
		{"sniff form", "", `a=1&b=2`, Form},
		{"plain text", "", `hello world`, Text},
		{"no body", "", ``, None},
		{"binary", "", "\xff\xfe\x00", Binary},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyRequest(tt.contentType, []byte(tt.body)))
		})
	}
}

func TestIsJSON(t *testing.T) {
	assert.True(t, IsJSON("application/json"))
	assert.True(t, IsJSON("Application/Problem+JSON"))
	assert.False(t, IsJSON("text/html"))
	assert.False(t, IsJSON(""))
}

func TestIsHTML(t *testing.T) {
	assert.True(t, IsHTML("text/html; charset=utf-8"))
	assert.False(t, IsHTML("application/xml"))
}
