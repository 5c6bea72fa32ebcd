package tools

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/originlab/originpro/internal/origin"
	"github.com/originlab/originpro/internal/origin/origintest"
)

func newTestEnv(t *testing.T) (*Env, *origintest.Host) {
	t.Helper()
	host := origintest.NewHost()
	dialer := &origintest.DialRecorder{Host: host}
	logger := zaptest.NewLogger(t)
	conn := origin.NewConnection(dialer.Dial, origin.WithLogger(logger))
	return NewEnv(conn, logger, 6), host
}

func callTool(t *testing.T, handler server.ToolHandlerFunc, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	request := mcp.CallToolRequest{}
	request.Params.Arguments = args
	result, err := handler(context.Background(), request)
	require.NoError(t, err)
	require.NotNil(t, result)
	return result
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	var texts []string
	for _, c := range result.Content {
		text, ok := c.(mcp.TextContent)
		require.True(t, ok, "unexpected content %T", c)
		texts = append(texts, text.Text)
	}
	return strings.Join(texts, "\n")
}

// jsonResult decodes the fenced JSON block of a tool result into v.
func jsonResult(t *testing.T, result *mcp.CallToolResult, v any) {
	t.Helper()
	text := resultText(t, result)
	_, block, ok := strings.Cut(text, "```json\n")
	require.True(t, ok, "no JSON block in %q", text)
	block, _, ok = strings.Cut(block, "\n```")
	require.True(t, ok, "unterminated JSON block in %q", text)
	require.NoError(t, json.Unmarshal([]byte(block), v))
}
