package bodyschema

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usestring/reqmin/internal/codec"
)

func TestInfer(t *testing.T) {
	v, err := codec.JSON{}.Parse([]byte(`{"b":"x","a":1.5,"n":null,"ok":true,"items":[{"id":1,"tag":"t"},{"id":2}]}`))
	require.NoError(t, err)

	schema := Infer(v)
	assert.Equal(t, "object", schema.Type)
	assert.Equal(t, []string{"b", "a", "n", "ok", "items"}, schema.Required)

	b, _ := schema.Properties.Get("b")
	assert.Equal(t, "string", b.Type)
	a, _ := schema.Properties.Get("a")
	assert.Equal(t, "number", a.Type)
	n, _ := schema.Properties.Get("n")
	assert.Equal(t, "null", n.Type)
	ok, _ := schema.Properties.Get("ok")
	assert.Equal(t, "boolean", ok.Type)

	items, _ := schema.Properties.Get("items")
	require.Equal(t, "array", items.Type)
	require.NotNil(t, items.Items)
	assert.Equal(t, "object", items.Items.Type)
	assert.Equal(t, []string{"id"}, items.Items.Required, "tag is missing from one item")

	id, _ := items.Items.Properties.Get("id")
	assert.Equal(t, "integer", id.Type)
}

func TestInfer_MixedArray(t *testing.T) {
	v, err := codec.JSON{}.Parse([]byte(`[1,"a",2]`))
	require.NoError(t, err)

	schema := Infer(v)
	require.NotNil(t, schema.Items)
	require.Len(t, schema.Items.AnyOf, 2)
	assert.Equal(t, "integer", schema.Items.AnyOf[0].Type)
	assert.Equal(t, "string", schema.Items.AnyOf[1].Type)
}

func TestInfer_ValidatesItsSource(t *testing.T) {
	body := []byte(`{"user":{"name":"a","roles":["x"]},"page":2}`)
	v, err := codec.JSON{}.Parse(body)
	require.NoError(t, err)

	raw, err := json.Marshal(Infer(v))
	require.NoError(t, err)

	validator, err := NewValidator(raw)
	require.NoError(t, err)
	assert.True(t, validator.Validate(body).Valid)
	assert.False(t, validator.Validate([]byte(`{"user":{"name":"a","roles":["x"]}}`)).Valid)
}

func TestValidator(t *testing.T) {
	validator, err := NewValidator([]byte(`{
		"type": "object",
		"required": ["id"],
		"properties": {"id": {"type": "integer"}}
	}`))
	require.NoError(t, err)

	tests := []struct {
		name      string
		body      string
		wantValid bool
		wantErr   string
	}{
		{name: "valid", body: `{"id":1,"x":2}`, wantValid: true},
		{name: "missing required", body: `{"x":2}`, wantErr: "missing property"},
		{name: "wrong type", body: `{"id":"1"}`, wantErr: "/id"},
		{name: "not json", body: `{`, wantErr: "invalid JSON"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := validator.Validate([]byte(tt.body))
			assert.Equal(t, tt.wantValid, res.Valid)
			if tt.wantErr != "" {
				require.NotEmpty(t, res.Errors)
				assert.Contains(t, res.Errors[0], tt.wantErr)
			}
		})
	}
}

func TestNewValidator_Invalid(t *testing.T) {
	_, err := NewValidator([]byte(`not json`))
	assert.Error(t, err)

	_, err = NewValidator([]byte(`{"type": 12}`))
	assert.Error(t, err)
}
