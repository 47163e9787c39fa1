package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/bitop-dev/aiprobe/internal/mcpkit"
	"github.com/bitop-dev/aiprobe/internal/telemetry"
)

// NewMCPGoServer builds the high-level server on mark3labs/mcp-go. Tools keep
// their hand-written schemas via the raw-schema constructor.
func NewMCPGoServer(name string) *server.MCPServer {
	if name == "" {
		name = "aiprobe-mcpgo-server"
	}
	s := server.NewMCPServer(
		name,
		serverVersion,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, true),
		server.WithPromptCapabilities(true),
	)

	var tools []server.ServerTool
	for _, tool := range mcpkit.Tools() {
		tools = append(tools, server.ServerTool{
			Tool:    mcp.NewToolWithRawSchema(tool.Name, tool.Description, tool.InputSchema),
			Handler: mcpGoToolHandler(tool.Name),
		})
	}
	s.AddTools(tools...)

	for _, res := range mcpkit.Resources() {
		s.AddResource(
			mcp.NewResource(res.URI, res.Name,
				mcp.WithResourceDescription(res.Description),
				mcp.WithMIMEType(res.MIMEType),
			),
			func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
				content, mimeType, err := mcpkit.ReadResource(req.Params.URI)
				if err != nil {
					return nil, err
				}
				return []mcp.ResourceContents{
					mcp.TextResourceContents{URI: req.Params.URI, MIMEType: mimeType, Text: content},
				}, nil
			},
		)
	}

	for _, prompt := range mcpkit.Prompts() {
		var opts []mcp.PromptOption
		opts = append(opts, mcp.WithPromptDescription(prompt.Description))
		for _, a := range prompt.Arguments {
			argOpts := []mcp.ArgumentOption{mcp.ArgumentDescription(a.Description)}
			if a.Required {
				argOpts = append(argOpts, mcp.RequiredArgument())
			}
			opts = append(opts, mcp.WithArgument(a.Name, argOpts...))
		}
		s.AddPrompt(
			mcp.NewPrompt(prompt.Name, opts...),
			func(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
				description, text := prompt.Render(req.Params.Arguments)
				return mcp.NewGetPromptResult(description, []mcp.PromptMessage{
					mcp.NewPromptMessage(mcp.RoleUser, mcp.NewTextContent(text)),
				}), nil
			},
		)
	}

	return s
}

func mcpGoToolHandler(name string) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		raw, err := json.Marshal(req.Params.Arguments)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		span := telemetry.StartToolSpan(ctx, name)
		value, err := mcpkit.CallTool(name, raw)
		telemetry.FinishToolSpan(span, err)
		if err != nil {
			telemetry.CaptureErr(err)
			return mcp.NewToolResultError(err.Error()), nil
		}
		text, _ := renderToolValue(value)
		return mcp.NewToolResultText(text), nil
	}
}

// RunMCPGoStdio serves the mcp-go server over stdio.
func RunMCPGoStdio(name string) error {
	return server.ServeStdio(NewMCPGoServer(name))
}

// MCPGoSSEServer wraps the mcp-go server in an SSE transport listening on
// host:port.
type MCPGoSSEServer struct {
	addr string
	sse  *server.SSEServer
}

func NewMCPGoSSEServer(name, host string, port int) *MCPGoSSEServer {
	if host == "" {
		host = "localhost"
	}
	if port == 0 {
		port = 8080
	}
	s := NewMCPGoServer(name)
	baseURL := fmt.Sprintf("http://%s:%d", host, port)
	sse := server.NewSSEServer(
		s,
		server.WithBaseURL(baseURL),
		server.WithSSEEndpoint("/sse"),
		server.WithMessageEndpoint("/message"),
		server.WithKeepAlive(true),
		server.WithKeepAliveInterval(30*time.Second),
	)
	return &MCPGoSSEServer{addr: fmt.Sprintf("%s:%d", host, port), sse: sse}
}

// Start blocks serving SSE until Shutdown is called.
func (s *MCPGoSSEServer) Start() error {
	if err := s.sse.Start(s.addr); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *MCPGoSSEServer) Shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.sse.Shutdown(shutdownCtx)
}

// Endpoint returns the SSE endpoint URL clients should connect to.
func (s *MCPGoSSEServer) Endpoint() string {
	return fmt.Sprintf("http://%s/sse", s.addr)
}
