package mcpserver

import (
	"context"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/bitop-dev/aiprobe/internal/mcpkit"
	"github.com/bitop-dev/aiprobe/internal/telemetry"
)

// NewSDKServer builds the mid-level server on the official MCP Go SDK. Tools
// use the raw AddTool form so the hand-written schemas from mcpkit are served
// verbatim instead of being re-inferred.
func NewSDKServer(name string) *mcp.Server {
	if name == "" {
		name = "aiprobe-sdk-server"
	}
	server := mcp.NewServer(&mcp.Implementation{Name: name, Version: serverVersion}, nil)

	for _, tool := range mcpkit.Tools() {
		server.AddTool(&mcp.Tool{
			Name:        tool.Name,
			Description: tool.Description,
			InputSchema: tool.InputSchema,
		}, func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			span := telemetry.StartToolSpan(ctx, tool.Name)
			value, err := mcpkit.CallTool(tool.Name, req.Params.Arguments)
			telemetry.FinishToolSpan(span, err)
			if err != nil {
				telemetry.CaptureErr(err)
				return &mcp.CallToolResult{
					Content: []mcp.Content{&mcp.TextContent{Text: err.Error()}},
					IsError: true,
				}, nil
			}
			text, structured := renderToolValue(value)
			return &mcp.CallToolResult{
				Content:           []mcp.Content{&mcp.TextContent{Text: text}},
				StructuredContent: structured,
			}, nil
		})
	}

	for _, res := range mcpkit.Resources() {
		server.AddResource(&mcp.Resource{
			URI:         res.URI,
			Name:        res.Name,
			Description: res.Description,
			MIMEType:    res.MIMEType,
		}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
			content, mimeType, err := mcpkit.ReadResource(req.Params.URI)
			if err != nil {
				return nil, mcp.ResourceNotFoundError(req.Params.URI)
			}
			return &mcp.ReadResourceResult{
				Contents: []*mcp.ResourceContents{{
					URI:      req.Params.URI,
					MIMEType: mimeType,
					Text:     content,
				}},
			}, nil
		})
	}

	for _, prompt := range mcpkit.Prompts() {
		var args []*mcp.PromptArgument
		for _, a := range prompt.Arguments {
			args = append(args, &mcp.PromptArgument{
				Name:        a.Name,
				Description: a.Description,
				Required:    a.Required,
			})
		}
		server.AddPrompt(&mcp.Prompt{
			Name:        prompt.Name,
			Description: prompt.Description,
			Arguments:   args,
		}, func(ctx context.Context, req *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
			description, text := prompt.Render(req.Params.Arguments)
			return &mcp.GetPromptResult{
				Description: description,
				Messages: []*mcp.PromptMessage{
					{Role: "user", Content: &mcp.TextContent{Text: text}},
				},
			}, nil
		})
	}

	return server
}

// RunSDKStdio serves the SDK server over stdio until the client disconnects.
func RunSDKStdio(ctx context.Context, name string) error {
	return NewSDKServer(name).Run(ctx, &mcp.StdioTransport{})
}

// SDKHTTPHandler exposes the SDK server over streamable HTTP.
func SDKHTTPHandler(name string) http.Handler {
	server := NewSDKServer(name)
	return mcp.NewStreamableHTTPHandler(func(r *http.Request) *mcp.Server {
		return server
	}, nil)
}
