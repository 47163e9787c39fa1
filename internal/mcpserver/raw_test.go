package mcpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rawCall(t *testing.T, s *RawServer, method string, params any) rpcResponse {
	t.Helper()
	req := map[string]any{"jsonrpc": "2.0", "id": 1, "method": method}
	if params != nil {
		req["params"] = params
	}
	line, err := json.Marshal(req)
	require.NoError(t, err)

	resp, reply := s.handleLine(context.Background(), line)
	require.True(t, reply)
	assert.Equal(t, "2.0", resp.JSONRPC)
	assert.Equal(t, json.RawMessage("1"), resp.ID)
	return resp
}

func decodeResult(t *testing.T, resp rpcResponse) map[string]any {
	t.Helper()
	require.Nil(t, resp.Error, "unexpected rpc error")
	var result map[string]any
	require.NoError(t, json.Unmarshal(resp.Result, &result))
	return result
}

func TestRawInitialize(t *testing.T) {
	s := &RawServer{Name: "test-server"}
	result := decodeResult(t, rawCall(t, s, "initialize", map[string]any{
		"protocolVersion": protocolVersion,
		"clientInfo":      map[string]any{"name": "test", "version": "0.0.1"},
	}))

	assert.Equal(t, protocolVersion, result["protocolVersion"])
	info := result["serverInfo"].(map[string]any)
	assert.Equal(t, "test-server", info["name"])
}

func TestRawToolsList(t *testing.T) {
	s := &RawServer{}
	result := decodeResult(t, rawCall(t, s, "tools/list", nil))

	tools := result["tools"].([]any)
	require.Len(t, tools, 6)
	first := tools[0].(map[string]any)
	assert.Equal(t, "calculate_sum", first["name"])
	schema := first["inputSchema"].(map[string]any)
	assert.Equal(t, "object", schema["type"])
}

func TestRawToolsCall(t *testing.T) {
	s := &RawServer{}
	result := decodeResult(t, rawCall(t, s, "tools/call", map[string]any{
		"name":      "calculate_sum",
		"arguments": map[string]any{"a": 15, "b": 27},
	}))

	content := result["content"].([]any)
	require.Len(t, content, 1)
	block := content[0].(map[string]any)
	assert.Equal(t, "text", block["type"])
	assert.Equal(t, "The sum of 15 and 27 is 42", block["text"])
	assert.Nil(t, result["isError"])
}

func TestRawToolsCallStructured(t *testing.T) {
	s := &RawServer{}
	result := decodeResult(t, rawCall(t, s, "tools/call", map[string]any{
		"name":      "get_user_list",
		"arguments": map[string]any{"include_inactive": true},
	}))

	structured := result["structuredContent"].(map[string]any)
	assert.Equal(t, float64(5), structured["total"])
}

func TestRawToolsCallError(t *testing.T) {
	s := &RawServer{}
	result := decodeResult(t, rawCall(t, s, "tools/call", map[string]any{
		"name": "trigger_error",
	}))

	// Handler failures are results with isError, not protocol errors.
	assert.Equal(t, true, result["isError"])
	content := result["content"].([]any)
	block := content[0].(map[string]any)
	assert.Contains(t, block["text"], "test error")
}

func TestRawToolsCallUnknownTool(t *testing.T) {
	s := &RawServer{}
	resp := rawCall(t, s, "tools/call", map[string]any{"name": "nope"})
	require.NotNil(t, resp.Error)
	assert.Equal(t, int64(codeInvalidParams), resp.Error.Code)
}

func TestRawResources(t *testing.T) {
	s := &RawServer{}
	result := decodeResult(t, rawCall(t, s, "resources/list", nil))
	resources := result["resources"].([]any)
	require.Len(t, resources, 3)

	result = decodeResult(t, rawCall(t, s, "resources/read", map[string]any{
		"uri": "config://settings",
	}))
	contents := result["contents"].([]any)
	require.Len(t, contents, 1)
	entry := contents[0].(map[string]any)
	assert.Equal(t, "text/plain", entry["mimeType"])
	assert.Contains(t, entry["text"], "Max Connections: 100")
}

func TestRawPrompts(t *testing.T) {
	s := &RawServer{}
	result := decodeResult(t, rawCall(t, s, "prompts/list", nil))
	prompts := result["prompts"].([]any)
	require.Len(t, prompts, 3)

	result = decodeResult(t, rawCall(t, s, "prompts/get", map[string]any{
		"name":      "code_review",
		"arguments": map[string]any{"language": "go"},
	}))
	assert.Equal(t, "Code review prompt for go", result["description"])
	messages := result["messages"].([]any)
	require.Len(t, messages, 1)
}

func TestRawMethodNotFound(t *testing.T) {
	s := &RawServer{}
	resp := rawCall(t, s, "bogus/method", nil)
	require.NotNil(t, resp.Error)
	assert.Equal(t, int64(codeMethodNotFound), resp.Error.Code)
}

func TestRawNotificationGetsNoReply(t *testing.T) {
	s := &RawServer{}
	_, reply := s.handleLine(context.Background(), []byte(`{"jsonrpc":"2.0","method":"notifications/initialized"}`))
	assert.False(t, reply)
}

func TestRawParseError(t *testing.T) {
	s := &RawServer{}
	resp, reply := s.handleLine(context.Background(), []byte(`{not json`))
	require.True(t, reply)
	require.NotNil(t, resp.Error)
	assert.Equal(t, int64(codeParseError), resp.Error.Code)
}

func TestRawRunOverPipe(t *testing.T) {
	in := strings.Join([]string{
		`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{}}`,
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
		`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"greet_user","arguments":{"name":"Alice"}}}`,
	}, "\n") + "\n"
	var out bytes.Buffer

	s := &RawServer{}
	require.NoError(t, s.Run(context.Background(), strings.NewReader(in), &out))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2, "notification must not produce a response")

	var second rpcResponse
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))
	assert.Equal(t, json.RawMessage("2"), second.ID)
	assert.Contains(t, string(second.Result), "Hello, Alice!")
}
