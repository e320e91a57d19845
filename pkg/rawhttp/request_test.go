package rawhttp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usestring/reqmin/pkg/contenttype"
)

const sampleRequest = "POST /api/items?id=7&debug=1 HTTP/1.1\r\n" +
	"Host: example.com\r\n" +
	"X-Foo: a\r\n" +
	"Cookie: session=abc; theme=dark\r\n" +
	"Content-Type: application/x-www-form-urlencoded\r\n" +
	"Content-Length: 12\r\n" +
	"\r\n" +
	"name=x&qty=2"

func TestParse(t *testing.T) {
	req, err := Parse([]byte(sampleRequest))
	require.NoError(t, err)

	assert.Equal(t, "POST", req.Method())
	assert.Equal(t, "/api/items?id=7&debug=1", req.RequestTarget())
	assert.Equal(t, "HTTP/1.1", req.Proto())
	assert.Len(t, req.Lines(), 6)
	assert.Equal(t, []byte("name=x&qty=2"), req.Body())

	host, ok := req.Header("host")
	assert.True(t, ok)
	assert.Equal(t, "example.com", host)

	assert.Equal(t, contenttype.Form, req.ContentType())
}

func TestParse_BareNewlines(t *testing.T) {
	req, err := Parse([]byte("GET / HTTP/1.1\nHost: a\n\nbody"))
	require.NoError(t, err)
	assert.Equal(t, []string{"GET / HTTP/1.1", "Host: a"}, req.Lines())
	assert.Equal(t, "body", string(req.Body()))
}

func TestParse_NoBody(t *testing.T) {
	req, err := Parse([]byte("GET / HTTP/1.1\r\nHost: a"))
	require.NoError(t, err)
	assert.Empty(t, req.Body())
	assert.Equal(t, "GET / HTTP/1.1\r\nHost: a\r\n\r\n", req.String())
}

func TestParse_Malformed(t *testing.T) {
	for _, raw := range []string{"", "\r\n\r\n", "GARBAGE\r\n\r\n"} {
		_, err := Parse([]byte(raw))
		assert.ErrorIs(t, err, ErrMalformedRequest, "raw=%q", raw)
	}
}

func TestBuildRoundTrip(t *testing.T) {
	req := MustParse(sampleRequest)
	assert.Equal(t, sampleRequest, req.String())
	assert.Equal(t, len(sampleRequest)-len("name=x&qty=2"), req.BodyOffset())
}

func TestWithoutLine(t *testing.T) {
	req := MustParse(sampleRequest)

	smaller := req.WithoutLine(2)
	assert.NotContains(t, smaller.Lines(), "X-Foo: a")
	assert.Contains(t, req.Lines(), "X-Foo: a", "receiver must not change")

	same := req.WithoutLine(0)
	assert.Equal(t, req.Lines(), same.Lines(), "request line is never removed")
}

func TestWithBody_FixesContentLength(t *testing.T) {
	req := MustParse(sampleRequest)
	out := req.WithBody([]byte("abc"))

	cl, ok := out.Header("Content-Length")
	require.True(t, ok)
	assert.Equal(t, "3", cl)
	assert.Equal(t, "abc", string(out.Body()))
}

func TestFixContentLength_NoHeaderAdded(t *testing.T) {
	lines := []string{"POST / HTTP/1.1", "Host: a"}
	assert.Equal(t, lines, FixContentLength(lines, 10))
}

func TestStripEmptyCookieHeaders(t *testing.T) {
	req := New([]string{"GET / HTTP/1.1", "Host: a", "Cookie: ", "cookie:", "Cookie: a=1"}, nil)
	out := StripEmptyCookieHeaders(req)
	assert.Equal(t, []string{"GET / HTTP/1.1", "Host: a", "Cookie: a=1"}, out.Lines())

	untouched := MustParse(sampleRequest)
	assert.Same(t, untouched, StripEmptyCookieHeaders(untouched))
}

func TestHeaderName(t *testing.T) {
	assert.Equal(t, "x-foo", HeaderName("X-Foo: bar"))
	assert.Equal(t, "", HeaderName("no colon here"))
}
