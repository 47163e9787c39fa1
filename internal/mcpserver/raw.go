// Package mcpserver provides the example MCP server at three abstraction
// levels: a hand-rolled JSON-RPC loop (raw), the official MCP Go SDK (sdk),
// and mark3labs/mcp-go (mcpgo). All three serve the same mcpkit tools,
// resources and prompts; only the plumbing differs.
package mcpserver

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/bitop-dev/aiprobe/internal/mcpkit"
	"github.com/bitop-dev/aiprobe/internal/telemetry"
)

const (
	serverVersion   = "1.0.0"
	protocolVersion = "2025-06-18"
)

// JSON-RPC 2.0 envelope types (subset used by MCP). The request ID is kept
// raw so number and string IDs round-trip unchanged.

type rpcRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

type rpcError struct {
	Code    int64  `json:"code"`
	Message string `json:"message"`
}

const (
	codeParseError     = -32700
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeInternalError  = -32603
)

// RawServer is the low-level MCP server: line-delimited JSON-RPC over a
// reader/writer pair (stdio in production, pipes in tests).
type RawServer struct {
	Name string
}

// Run serves requests from in until EOF or ctx cancellation. One JSON-RPC
// message per line.
func (s *RawServer) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	w := bufio.NewWriter(out)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		resp, reply := s.handleLine(ctx, line)
		if !reply {
			continue
		}
		b, err := json.Marshal(resp)
		if err != nil {
			return err
		}
		if _, err := w.Write(b); err != nil {
			return err
		}
		if err := w.WriteByte('\n'); err != nil {
			return err
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}
	return scanner.Err()
}

// handleLine parses one message and dispatches it. reply is false for
// notifications, which get no response.
func (s *RawServer) handleLine(ctx context.Context, line []byte) (rpcResponse, bool) {
	var req rpcRequest
	if err := json.Unmarshal(line, &req); err != nil {
		return rpcResponse{
			JSONRPC: "2.0",
			Error:   &rpcError{Code: codeParseError, Message: "parse error: " + err.Error()},
		}, true
	}
	if len(req.ID) == 0 {
		// Notification (e.g. notifications/initialized).
		return rpcResponse{}, false
	}

	result, rpcErr := s.dispatch(ctx, req)
	resp := rpcResponse{JSONRPC: "2.0", ID: req.ID}
	if rpcErr != nil {
		resp.Error = rpcErr
		return resp, true
	}
	b, err := json.Marshal(result)
	if err != nil {
		resp.Error = &rpcError{Code: codeInternalError, Message: err.Error()}
		return resp, true
	}
	resp.Result = b
	return resp, true
}

func (s *RawServer) dispatch(ctx context.Context, req rpcRequest) (any, *rpcError) {
	switch req.Method {
	case "initialize":
		return s.initializeResult(), nil
	case "ping":
		return map[string]any{}, nil
	case "tools/list":
		return toolListResult(), nil
	case "tools/call":
		return s.callTool(ctx, req.Params)
	case "resources/list":
		return resourceListResult(), nil
	case "resources/read":
		return readResource(req.Params)
	case "prompts/list":
		return promptListResult(), nil
	case "prompts/get":
		return getPrompt(req.Params)
	}
	return nil, &rpcError{Code: codeMethodNotFound, Message: fmt.Sprintf("method not found: %s", req.Method)}
}

func (s *RawServer) initializeResult() any {
	name := s.Name
	if name == "" {
		name = "aiprobe-raw-server"
	}
	return map[string]any{
		"protocolVersion": protocolVersion,
		"capabilities": map[string]any{
			"tools":     map[string]any{},
			"resources": map[string]any{},
			"prompts":   map[string]any{},
		},
		"serverInfo": map[string]any{
			"name":    name,
			"version": serverVersion,
		},
	}
}

func toolListResult() any {
	type toolInfo struct {
		Name        string          `json:"name"`
		Description string          `json:"description,omitempty"`
		InputSchema json.RawMessage `json:"inputSchema"`
	}
	var tools []toolInfo
	for _, t := range mcpkit.Tools() {
		tools = append(tools, toolInfo{Name: t.Name, Description: t.Description, InputSchema: t.InputSchema})
	}
	return map[string]any{"tools": tools}
}

// callTool executes a tool inside a telemetry span. Handler failures become
// isError results, not protocol errors, and are captured.
func (s *RawServer) callTool(ctx context.Context, params json.RawMessage) (any, *rpcError) {
	var p struct {
		Name      string          `json:"name"`
		Arguments json.RawMessage `json:"arguments"`
	}
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, &rpcError{Code: codeInvalidParams, Message: err.Error()}
	}
	if _, ok := mcpkit.FindTool(p.Name); !ok {
		return nil, &rpcError{Code: codeInvalidParams, Message: "unknown tool: " + p.Name}
	}

	span := telemetry.StartToolSpan(ctx, p.Name)
	value, err := mcpkit.CallTool(p.Name, p.Arguments)
	telemetry.FinishToolSpan(span, err)
	if err != nil {
		telemetry.CaptureErr(err)
		return map[string]any{
			"content": []map[string]any{{"type": "text", "text": err.Error()}},
			"isError": true,
		}, nil
	}

	text, structured := renderToolValue(value)
	result := map[string]any{
		"content": []map[string]any{{"type": "text", "text": text}},
	}
	if structured != nil {
		result["structuredContent"] = structured
	}
	return result, nil
}

// renderToolValue flattens a tool result into text, preserving structured
// results alongside.
func renderToolValue(value any) (text string, structured any) {
	switch v := value.(type) {
	case string:
		return v, nil
	case mcpkit.TextStatistics, mcpkit.UserList:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v), nil
		}
		return string(b), v
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v), nil
		}
		return string(b), nil
	}
}

func resourceListResult() any {
	type resourceInfo struct {
		URI         string `json:"uri"`
		Name        string `json:"name,omitempty"`
		Description string `json:"description,omitempty"`
		MIMEType    string `json:"mimeType,omitempty"`
	}
	var resources []resourceInfo
	for _, r := range mcpkit.Resources() {
		resources = append(resources, resourceInfo{
			URI:         r.URI,
			Name:        r.Name,
			Description: r.Description,
			MIMEType:    r.MIMEType,
		})
	}
	return map[string]any{"resources": resources}
}

func readResource(params json.RawMessage) (any, *rpcError) {
	var p struct {
		URI string `json:"uri"`
	}
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, &rpcError{Code: codeInvalidParams, Message: err.Error()}
	}
	content, mimeType, err := mcpkit.ReadResource(p.URI)
	if err != nil {
		return nil, &rpcError{Code: codeInvalidParams, Message: err.Error()}
	}
	return map[string]any{
		"contents": []map[string]any{{
			"uri":      p.URI,
			"mimeType": mimeType,
			"text":     content,
		}},
	}, nil
}

func promptListResult() any {
	type argInfo struct {
		Name        string `json:"name"`
		Description string `json:"description,omitempty"`
		Required    bool   `json:"required,omitempty"`
	}
	type promptInfo struct {
		Name        string    `json:"name"`
		Description string    `json:"description,omitempty"`
		Arguments   []argInfo `json:"arguments,omitempty"`
	}
	var prompts []promptInfo
	for _, p := range mcpkit.Prompts() {
		info := promptInfo{Name: p.Name, Description: p.Description}
		for _, a := range p.Arguments {
			info.Arguments = append(info.Arguments, argInfo{
				Name:        a.Name,
				Description: a.Description,
				Required:    a.Required,
			})
		}
		prompts = append(prompts, info)
	}
	return map[string]any{"prompts": prompts}
}

func getPrompt(params json.RawMessage) (any, *rpcError) {
	var p struct {
		Name      string            `json:"name"`
		Arguments map[string]string `json:"arguments"`
	}
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, &rpcError{Code: codeInvalidParams, Message: err.Error()}
	}
	description, text, err := mcpkit.GetPrompt(p.Name, p.Arguments)
	if err != nil {
		return nil, &rpcError{Code: codeInvalidParams, Message: err.Error()}
	}
	return map[string]any{
		"description": description,
		"messages": []map[string]any{{
			"role":    "user",
			"content": map[string]any{"type": "text", "text": text},
		}},
	}, nil
}
