package mcpserver

import (
	"context"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func connectSDK(t *testing.T) *mcp.ClientSession {
	t.Helper()
	ctx := context.Background()

	server := NewSDKServer("sdk-test-server")
	t1, t2 := mcp.NewInMemoryTransports()
	_, err := server.Connect(ctx, t1, nil)
	require.NoError(t, err)

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)
	session, err := client.Connect(ctx, t2, nil)
	require.NoError(t, err)
	t.Cleanup(func() { session.Close() })
	return session
}

func TestSDKServerTools(t *testing.T) {
	ctx := context.Background()
	session := connectSDK(t)

	var names []string
	for tool, err := range session.Tools(ctx, nil) {
		require.NoError(t, err)
		names = append(names, tool.Name)
	}
	assert.Contains(t, names, "calculate_sum")
	assert.Contains(t, names, "trigger_error")
	assert.Len(t, names, 6)

	res, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name:      "calculate_sum",
		Arguments: map[string]any{"a": 15, "b": 27},
	})
	require.NoError(t, err)
	require.False(t, res.IsError)
	assert.Equal(t, "The sum of 15 and 27 is 42", res.Content[0].(*mcp.TextContent).Text)
}

func TestSDKServerToolError(t *testing.T) {
	ctx := context.Background()
	session := connectSDK(t)

	res, err := session.CallTool(ctx, &mcp.CallToolParams{Name: "trigger_error"})
	require.NoError(t, err, "tool failures surface as isError results")
	require.True(t, res.IsError)
	assert.Contains(t, res.Content[0].(*mcp.TextContent).Text, "test error")
}

func TestSDKServerResources(t *testing.T) {
	ctx := context.Background()
	session := connectSDK(t)

	var uris []string
	for r, err := range session.Resources(ctx, nil) {
		require.NoError(t, err)
		uris = append(uris, r.URI)
	}
	assert.ElementsMatch(t, []string{"config://settings", "data://users", "data://stats"}, uris)

	res, err := session.ReadResource(ctx, &mcp.ReadResourceParams{URI: "data://stats"})
	require.NoError(t, err)
	require.Len(t, res.Contents, 1)
	assert.Equal(t, "application/json", res.Contents[0].MIMEType)
	assert.Contains(t, res.Contents[0].Text, `"requests": 42`)

	_, err = session.ReadResource(ctx, &mcp.ReadResourceParams{URI: "data://missing"})
	require.Error(t, err)
}

func TestSDKServerPrompts(t *testing.T) {
	ctx := context.Background()
	session := connectSDK(t)

	var names []string
	for p, err := range session.Prompts(ctx, nil) {
		require.NoError(t, err)
		names = append(names, p.Name)
	}
	assert.ElementsMatch(t, []string{"code_review", "debug_assistant", "sql_query_helper"}, names)

	res, err := session.GetPrompt(ctx, &mcp.GetPromptParams{
		Name:      "code_review",
		Arguments: map[string]string{"language": "go"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Code review prompt for go", res.Description)
	require.Len(t, res.Messages, 1)
	assert.Contains(t, res.Messages[0].Content.(*mcp.TextContent).Text, "expert go code reviewer")
}
