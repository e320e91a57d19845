package prompts

import (
	"context"
	"testing"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func promptText(t *testing.T, cfg *Config, args map[string]string) string {
	t.Helper()
	res, err := HandleMinimizeRequest(cfg)(context.Background(), &sdkmcp.GetPromptRequest{
		Params: &sdkmcp.GetPromptParams{Name: "minimize_request", Arguments: args},
	})
	require.NoError(t, err)
	require.Len(t, res.Messages, 1)
	text, ok := res.Messages[0].Content.(*sdkmcp.TextContent)
	require.True(t, ok)
	return text.Text
}

func TestMinimizeRequest(t *testing.T) {
	tests := []struct {
		name     string
		cfg      Config
		args     map[string]string
		contains []string
		excludes []string
	}{
		{
			name:     "raw only",
			cfg:      Config{JSONIndent: 4},
			contains: []string{"reqmin_open_view(raw_request=", "indent of 4", "reqmin_minimize("},
			excludes: []string{"powhttp_entry_id", "**Goal**"},
		},
		{
			name:     "import available",
			cfg:      Config{ImportEnabled: true, JSONIndent: 2},
			contains: []string{"powhttp_entry_id=\"...\"", "indent of 2"},
		},
		{
			name:     "entry and goal",
			cfg:      Config{ImportEnabled: true},
			args:     map[string]string{"entry_id": "e42", "goal": "return the profile"},
			contains: []string{"powhttp_entry_id=\"e42\"", "**Goal**: the response must still return the profile."},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text := promptText(t, &tt.cfg, tt.args)
			for _, s := range tt.contains {
				assert.Contains(t, text, s)
			}
			for _, s := range tt.excludes {
				assert.NotContains(t, text, s)
			}
		})
	}
}
