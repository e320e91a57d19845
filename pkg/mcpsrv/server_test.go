package mcpsrv

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usestring/reqmin/internal/config"
	"github.com/usestring/reqmin/pkg/rawhttp"
)

type okTransport struct{}

func (okTransport) Send(ctx context.Context, _ rawhttp.Target, _ []byte) (*rawhttp.Response, error) {
	return &rawhttp.Response{Proto: "HTTP/1.1", StatusCode: 200, Reason: "OK"}, nil
}

type viewCountOutput struct {
	Count int `json:"count"`
}

func viewCount(d *Deps) func(context.Context, *mcp.CallToolRequest, struct{}) (*mcp.CallToolResult, viewCountOutput, error) {
	return func(context.Context, *mcp.CallToolRequest, struct{}) (*mcp.CallToolResult, viewCountOutput, error) {
		return nil, viewCountOutput{Count: len(d.Views.List())}, nil
	}
}

func connect(t *testing.T, s *Server) *mcp.ClientSession {
	t.Helper()
	serverT, clientT := mcp.NewInMemoryTransports()
	ctx := context.Background()
	go func() { _ = s.MCPServer().Run(ctx, serverT) }()

	session, err := mcp.NewClient(&mcp.Implementation{Name: "mcpsrv-test", Version: "0.1.0"}, nil).Connect(ctx, clientT, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = session.Close() })
	return session
}

func newServer(t *testing.T, opts ...Option) *Server {
	t.Helper()
	cfg := config.Load()
	cfg.PowHTTPBaseURL = ""
	s, err := NewServer(append([]Option{WithConfig(cfg), WithTransport(okTransport{}), WithLogLevel("error")}, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.Deps().Tasks.Shutdown(ctx)
		_ = s.Close()
	})
	return s
}

func TestNewServer_Deps(t *testing.T) {
	s := newServer(t)

	d := s.Deps()
	require.NotNil(t, d)
	assert.NotNil(t, d.Views)
	assert.NotNil(t, d.Tasks)
	assert.NotNil(t, d.Minimizer)
	assert.Nil(t, d.Importer, "import is disabled without a powhttp base URL")
}

func TestNewServer_CustomTools(t *testing.T) {
	tests := []struct {
		name      string
		opts      []Option
		wantTools []string
	}{
		{
			name: "builtin and deps tool",
			opts: []Option{WithDepsTool(&mcp.Tool{Name: "view_count", Description: "Number of open views"}, viewCount)},
			wantTools: []string{
				"reqmin_open_view", "reqmin_get_view", "reqmin_minimize",
				"reqmin_task_status", "reqmin_task_cancel", "reqmin_compare_responses",
				"view_count",
			},
		},
		{
			name: "custom only",
			opts: []Option{
				WithoutBuiltinTools(),
				WithDepsTool(&mcp.Tool{Name: "view_count", Description: "Number of open views"}, viewCount),
			},
			wantTools: []string{"view_count"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session := connect(t, newServer(t, tt.opts...))

			res, err := session.ListTools(context.Background(), &mcp.ListToolsParams{})
			require.NoError(t, err)
			var names []string
			for _, tool := range res.Tools {
				names = append(names, tool.Name)
			}
			assert.ElementsMatch(t, tt.wantTools, names)
		})
	}
}

func TestNewServer_DepsToolSeesViews(t *testing.T) {
	s := newServer(t, WithDepsTool(&mcp.Tool{Name: "view_count", Description: "Number of open views"}, viewCount))
	session := connect(t, s)

	req, err := rawhttp.Parse([]byte("GET / HTTP/1.1\r\nHost: a.test\r\n\r\n"))
	require.NoError(t, err)
	s.Deps().Views.Open(rawhttp.Target{Host: "a.test", Port: 80}, req, "a", "raw")

	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{Name: "view_count", Arguments: map[string]any{}})
	require.NoError(t, err)
	require.False(t, res.IsError)
	text, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok)

	var out viewCountOutput
	require.NoError(t, json.Unmarshal([]byte(text.Text), &out))
	assert.Equal(t, 1, out.Count)
}
