package compare

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/usestring/reqmin/pkg/rawhttp"
)

const samplePage = `<!DOCTYPE html>
<html>
<head>
  <title> Sign in </title>
  <link rel="canonical" href="https://example.com/login">
  <script src="/app.js"></script>
</head>
<body>
  <!-- build 42 -->
  <div id="main" class="box wide">
    <h1>Welcome</h1>
    <h2>Please log in</h2>
    <form action="/login">
      <input type="hidden" name="csrf" value="x">
      <input name="user">
      <input type="password" name="pw">
      <input type="submit" value="Go">
      <input type="image" alt="Logo">
      <button>Send</button>
      <button type="button">Cancel</button>
    </form>
    <a href="/help" class="box">Help</a>
  </div>
</body>
</html>`

func TestFingerprint_HTML(t *testing.T) {
	resp := &rawhttp.Response{
		StatusCode: 200,
		Reason:     "OK",
		Headers: rawhttp.Headers{
			{"Content-Type", "text/html; charset=utf-8"},
			{"Set-Cookie", "sid=1; Path=/"},
			{"Set-Cookie", "a=2"},
		},
		Body: []byte(samplePage),
	}

	fp := fingerprintResponse(resp)

	assert.Equal(t, "200", fp[AttrStatusCode])
	assert.Equal(t, "a,sid", fp[AttrSetCookieNames])
	assert.Equal(t, "content-type,set-cookie", fp[AttrHeaderNames])
	assert.Equal(t, "Sign in", fp[AttrPageTitle])
	assert.Equal(t, "main", fp[AttrTagIDs])
	assert.Equal(t, "main", fp[AttrDivIDs])
	assert.Equal(t, "box wide", fp[AttrCSSClasses])
	assert.Equal(t, "build 42", fp[AttrComments])
	assert.Equal(t, "Welcome", fp[AttrFirstHeaderTag])
	assert.Equal(t, "Welcome\nPlease log in", fp[AttrHeaderTags])
	assert.Equal(t, "Help", fp[AttrAnchorLabels])
	assert.Equal(t, "Send", fp[AttrButtonSubmitLabels])
	assert.Equal(t, "Go", fp[AttrInputSubmitLabels])
	assert.Equal(t, "Logo", fp[AttrInputImageLabels])
	assert.Equal(t, "text password submit image", fp[AttrNonHiddenFormInputTypes])
	assert.Equal(t, "https://example.com/login", fp[AttrCanonicalLink])
	assert.Equal(t, "4", fp[AttrOutboundEdgeCount])
	assert.Equal(t, "link script form a", fp[AttrOutboundEdgeTagNames])
	assert.Equal(t, "Welcome Please log in Send Cancel Help", fp[AttrVisibleText])
	assert.Equal(t, "7", fp[AttrVisibleWordCount])
}

func TestFingerprint_NonHTML(t *testing.T) {
	resp := &rawhttp.Response{
		StatusCode: 200,
		Headers:    rawhttp.Headers{{"Content-Type", "text/plain"}},
		Body:       []byte("one two\nthree"),
	}

	fp := fingerprintResponse(resp)
	assert.Equal(t, "2", fp[AttrLineCount])
	assert.Equal(t, "3", fp[AttrWordCount])
	assert.Equal(t, "one two three", fp[AttrVisibleText])
	assert.Equal(t, "", fp[AttrPageTitle])
	assert.Len(t, fp, len(Attributes))
}

func TestFingerprint_BodyPrefixes(t *testing.T) {
	long := make([]byte, 2000)
	for i := range long {
		long[i] = 'a'
	}
	other := append([]byte(nil), long...)
	other[1500] = 'b'

	fa := fingerprintResponse(&rawhttp.Response{Body: long})
	fb := fingerprintResponse(&rawhttp.Response{Body: other})

	assert.NotEqual(t, fa[AttrWholeBodyContent], fb[AttrWholeBodyContent])
	assert.Equal(t, fa[AttrLimitedBodyContent], fb[AttrLimitedBodyContent])
	assert.Equal(t, fa[AttrInitialBodyContent], fb[AttrInitialBodyContent])
	assert.Len(t, fa[AttrInitialBodyContent], initialBodyBytes)
}

func TestAttrSet(t *testing.T) {
	reg := NewRegistry()

	base := NewAttrSet(reg, AttrStatusCode, AttrContentType, "marker:x")
	cand := NewAttrSet(reg, AttrStatusCode, AttrContentType, "marker:x", AttrLocation)

	assert.Equal(t, 3, base.Len())
	assert.True(t, cand.IsSupersetOf(base))
	assert.False(t, base.IsSupersetOf(cand))
	assert.Equal(t, []string{AttrLocation}, base.Missing(cand))
	assert.Equal(t, []string{}, cand.Missing(base))

	trimmed := base.Without(AttrContentType, "unknown")
	assert.Equal(t, []string{AttrStatusCode, "marker:x"}, trimmed.Names())
	assert.True(t, base.Contains(AttrContentType), "Without must not modify the receiver")

	var empty AttrSet
	assert.True(t, base.IsSupersetOf(empty))
	assert.False(t, empty.IsSupersetOf(base))
	assert.Equal(t, 0, empty.Len())
	assert.Empty(t, empty.Names())
}

func TestRegistry_StableIDs(t *testing.T) {
	reg := NewRegistry()
	assert.Equal(t, uint32(0), reg.ID(AttrStatusCode))
	id := reg.ID("marker:new")
	assert.Equal(t, uint32(len(Attributes)), id)
	assert.Equal(t, id, reg.ID("marker:new"))
	assert.Equal(t, "marker:new", reg.Name(id))
	assert.Equal(t, "", reg.Name(9999))
}
