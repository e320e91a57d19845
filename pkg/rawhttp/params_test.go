package rawhttp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParameters(t *testing.T) {
	req := MustParse(sampleRequest)

	assert.Equal(t, []Parameter{
		{Kind: ParamURL, Name: "id", Value: "7"},
		{Kind: ParamURL, Name: "debug", Value: "1"},
		{Kind: ParamCookie, Name: "session", Value: "abc"},
		{Kind: ParamCookie, Name: "theme", Value: "dark"},
		{Kind: ParamBody, Name: "name", Value: "x"},
		{Kind: ParamBody, Name: "qty", Value: "2"},
	}, req.Parameters())
}

func TestParameters_JSON(t *testing.T) {
	req := MustParse("POST / HTTP/1.1\r\nContent-Type: application/json\r\n\r\n{\"a\":1,\"b\":{\"c\":2}}")

	params := req.Parameters()
	require.Len(t, params, 2)
	assert.Equal(t, Parameter{Kind: ParamJSON, Name: "a", Value: "1"}, params[0])
	assert.Equal(t, ParamJSON, params[1].Kind)
	assert.Equal(t, "b", params[1].Name)
}

func TestParameters_JSONArray(t *testing.T) {
	req := MustParse("POST / HTTP/1.1\r\nContent-Type: application/json\r\n\r\n[10,20]")

	assert.Equal(t, []Parameter{
		{Kind: ParamJSON, Name: "0", Value: "10"},
		{Kind: ParamJSON, Name: "1", Value: "20"},
	}, req.Parameters())
}

func TestParameters_XML(t *testing.T) {
	req := MustParse("POST / HTTP/1.1\r\nContent-Type: text/xml\r\n\r\n<order id=\"5\"><item>pen</item><qty>2</qty></order>")

	assert.Equal(t, []Parameter{
		{Kind: ParamXML, Name: "@id", Value: "5"},
		{Kind: ParamXML, Name: "item", Value: "pen"},
		{Kind: ParamXML, Name: "qty", Value: "2"},
	}, req.Parameters())
}

func TestParameters_Multipart(t *testing.T) {
	body := "--XX\r\n" +
		"Content-Disposition: form-data; name=\"field\"\r\n\r\n" +
		"value\r\n" +
		"--XX--\r\n"
	req := MustParse("POST / HTTP/1.1\r\nContent-Type: multipart/form-data; boundary=XX\r\n\r\n" + body)

	assert.Equal(t, []Parameter{{Kind: ParamMultipart, Name: "field", Value: "value"}}, req.Parameters())
}

func TestRemoveParameter_URL(t *testing.T) {
	req := MustParse(sampleRequest)

	out, err := req.RemoveParameter(Parameter{Kind: ParamURL, Name: "id", Value: "7"})
	require.NoError(t, err)
	assert.Equal(t, "POST /api/items?debug=1 HTTP/1.1", out.RequestLine())

	out, err = out.RemoveParameter(Parameter{Kind: ParamURL, Name: "debug", Value: "1"})
	require.NoError(t, err)
	assert.Equal(t, "POST /api/items HTTP/1.1", out.RequestLine())
}

func TestRemoveParameter_Cookie(t *testing.T) {
	req := MustParse(sampleRequest)

	out, err := req.RemoveParameter(Parameter{Kind: ParamCookie, Name: "session", Value: "abc"})
	require.NoError(t, err)
	v, _ := out.Header("Cookie")
	assert.Equal(t, "theme=dark", v)

	out, err = out.RemoveParameter(Parameter{Kind: ParamCookie, Name: "theme", Value: "dark"})
	require.NoError(t, err)
	assert.Contains(t, out.Lines(), "Cookie: ", "removal leaves an empty Cookie header behind")

	fixed := StripEmptyCookieHeaders(out)
	_, ok := fixed.Header("Cookie")
	assert.False(t, ok)
}

func TestRemoveParameter_Body(t *testing.T) {
	req := MustParse(sampleRequest)

	out, err := req.RemoveParameter(Parameter{Kind: ParamBody, Name: "name", Value: "x"})
	require.NoError(t, err)
	assert.Equal(t, "qty=2", string(out.Body()))
	cl, _ := out.Header("Content-Length")
	assert.Equal(t, "5", cl)
}

func TestRemoveParameter_Errors(t *testing.T) {
	req := MustParse(sampleRequest)

	_, err := req.RemoveParameter(Parameter{Kind: ParamURL, Name: "missing", Value: ""})
	assert.ErrorIs(t, err, ErrParamNotFound)

	_, err = req.RemoveParameter(Parameter{Kind: ParamCookie, Name: "session", Value: "other"})
	assert.ErrorIs(t, err, ErrParamNotFound)

	_, err = req.RemoveParameter(Parameter{Kind: ParamJSON, Name: "a", Value: "1"})
	assert.ErrorIs(t, err, ErrUnsupportedRemove)
}

func TestRemoveParameter_DuplicateRemovesOne(t *testing.T) {
	req := MustParse("GET /?a=1&a=1 HTTP/1.1\r\nHost: x\r\n\r\n")

	out, err := req.RemoveParameter(Parameter{Kind: ParamURL, Name: "a", Value: "1"})
	require.NoError(t, err)
	assert.Equal(t, "GET /?a=1 HTTP/1.1", out.RequestLine())
}

func TestParseParamKind(t *testing.T) {
	k, err := ParseParamKind(" Cookie ")
	require.NoError(t, err)
	assert.Equal(t, ParamCookie, k)

	_, err = ParseParamKind("header")
	assert.Error(t, err)
}
