// Package mcpcheck is the client-side smoke check for the MCP servers. It
// spawns a server subprocess over stdio, walks its tools, resources and
// prompts, and verifies the trigger_error tool actually fails.
package mcpcheck

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/exec"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/bitop-dev/aiprobe/internal/agent"
)

const clientVersion = "1.0.0"

// Connect spawns command as an MCP server and initializes a session over its
// stdio.
func Connect(ctx context.Context, command string, args ...string) (*mcp.ClientSession, error) {
	client := mcp.NewClient(&mcp.Implementation{Name: "aiprobe-check", Version: clientVersion}, nil)
	transport := &mcp.CommandTransport{Command: exec.Command(command, args...)}
	session, err := client.Connect(ctx, transport, nil)
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", command, err)
	}
	return session, nil
}

// ToolsFromSession exposes the session's tools as agent tools, so an agent can
// drive a live MCP server. Handlers return the first text content block;
// isError results come back as errors.
func ToolsFromSession(ctx context.Context, session *mcp.ClientSession) ([]agent.Tool, error) {
	var out []agent.Tool
	for tool, err := range session.Tools(ctx, nil) {
		if err != nil {
			return nil, err
		}
		schema, err := json.Marshal(tool.InputSchema)
		if err != nil {
			return nil, fmt.Errorf("tool %s schema: %w", tool.Name, err)
		}
		name := tool.Name
		out = append(out, agent.Tool{
			Name:        name,
			Description: tool.Description,
			InputSchema: schema,
			Handler: func(ctx context.Context, input json.RawMessage) (any, error) {
				var args map[string]any
				if len(input) > 0 {
					if err := json.Unmarshal(input, &args); err != nil {
						return nil, err
					}
				}
				res, err := session.CallTool(ctx, &mcp.CallToolParams{Name: name, Arguments: args})
				if err != nil {
					return nil, err
				}
				return toolResultValue(res)
			},
		})
	}
	return out, nil
}

// toolResultValue flattens a call result for model consumption.
func toolResultValue(res *mcp.CallToolResult) (any, error) {
	text := firstText(res)
	if res.IsError {
		return nil, fmt.Errorf("tool failed: %s", text)
	}
	if res.StructuredContent != nil {
		return res.StructuredContent, nil
	}
	return text, nil
}

func firstText(res *mcp.CallToolResult) string {
	for _, c := range res.Content {
		if t, ok := c.(*mcp.TextContent); ok {
			return t.Text
		}
	}
	return ""
}

// Run executes the full smoke check against a spawned server, writing a
// human-readable report to w. It returns an error only for protocol-level
// failures; expected tool errors are part of the check.
func Run(ctx context.Context, w io.Writer, command string, args ...string) error {
	session, err := Connect(ctx, command, args...)
	if err != nil {
		return err
	}
	defer session.Close()

	if err := checkTools(ctx, w, session); err != nil {
		return err
	}
	if err := checkResources(ctx, w, session); err != nil {
		return err
	}
	return checkPrompts(ctx, w, session)
}

func checkTools(ctx context.Context, w io.Writer, session *mcp.ClientSession) error {
	fmt.Fprintln(w, "tools:")
	var names []string
	for tool, err := range session.Tools(ctx, nil) {
		if err != nil {
			return fmt.Errorf("list tools: %w", err)
		}
		names = append(names, tool.Name)
		fmt.Fprintf(w, "  %s: %s\n", tool.Name, tool.Description)
	}
	if len(names) == 0 {
		return fmt.Errorf("server exposes no tools")
	}

	res, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name:      "calculate_sum",
		Arguments: map[string]any{"a": 15, "b": 27},
	})
	if err != nil {
		return fmt.Errorf("call calculate_sum: %w", err)
	}
	fmt.Fprintf(w, "calculate_sum(15, 27) -> %s\n", firstText(res))

	res, err = session.CallTool(ctx, &mcp.CallToolParams{
		Name:      "greet_user",
		Arguments: map[string]any{"name": "Alice"},
	})
	if err != nil {
		return fmt.Errorf("call greet_user: %w", err)
	}
	fmt.Fprintf(w, "greet_user(Alice) -> %s\n", firstText(res))

	res, err = session.CallTool(ctx, &mcp.CallToolParams{
		Name:      "analyze_text",
		Arguments: map[string]any{"text": "Hello, world! This is a test."},
	})
	if err != nil {
		return fmt.Errorf("call analyze_text: %w", err)
	}
	fmt.Fprintf(w, "analyze_text -> %s\n", firstText(res))

	res, err = session.CallTool(ctx, &mcp.CallToolParams{
		Name:      "get_user_list",
		Arguments: map[string]any{"include_inactive": false},
	})
	if err != nil {
		return fmt.Errorf("call get_user_list: %w", err)
	}
	fmt.Fprintf(w, "get_user_list -> %s\n", firstText(res))

	// trigger_error must fail; a clean result here means telemetry capture on
	// the server side was never exercised.
	res, err = session.CallTool(ctx, &mcp.CallToolParams{Name: "trigger_error"})
	if err != nil {
		return fmt.Errorf("call trigger_error: %w", err)
	}
	if !res.IsError {
		return fmt.Errorf("trigger_error returned a non-error result")
	}
	fmt.Fprintf(w, "trigger_error -> error as expected: %s\n", firstText(res))

	return nil
}

func checkResources(ctx context.Context, w io.Writer, session *mcp.ClientSession) error {
	fmt.Fprintln(w, "resources:")
	var uris []string
	for r, err := range session.Resources(ctx, nil) {
		if err != nil {
			return fmt.Errorf("list resources: %w", err)
		}
		uris = append(uris, r.URI)
		fmt.Fprintf(w, "  %s (%s)\n", r.URI, r.MIMEType)
	}

	for _, uri := range uris {
		res, err := session.ReadResource(ctx, &mcp.ReadResourceParams{URI: uri})
		if err != nil {
			return fmt.Errorf("read %s: %w", uri, err)
		}
		if len(res.Contents) == 0 || res.Contents[0].Text == "" {
			return fmt.Errorf("resource %s has no content", uri)
		}
	}
	fmt.Fprintf(w, "read %d resources\n", len(uris))
	return nil
}

func checkPrompts(ctx context.Context, w io.Writer, session *mcp.ClientSession) error {
	fmt.Fprintln(w, "prompts:")
	var names []string
	for p, err := range session.Prompts(ctx, nil) {
		if err != nil {
			return fmt.Errorf("list prompts: %w", err)
		}
		names = append(names, p.Name)
		fmt.Fprintf(w, "  %s: %s\n", p.Name, p.Description)
	}

	res, err := session.GetPrompt(ctx, &mcp.GetPromptParams{
		Name:      "code_review",
		Arguments: map[string]string{"language": "go"},
	})
	if err != nil {
		return fmt.Errorf("get code_review prompt: %w", err)
	}
	fmt.Fprintf(w, "code_review -> %s\n", res.Description)
	return nil
}
