// Package mcpkit holds the tools, resources and prompts served by every MCP
// server implementation in this repo. Keeping them here guarantees the three
// server levels expose identical behavior, so only the protocol plumbing
// differs.
package mcpkit

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrTriggered is returned by the trigger_error tool. It exists solely to
// verify that the telemetry integration captures tool failures.
var ErrTriggered = errors.New("this is a test error to verify telemetry capture is working")

// Tool is one server-side tool: a name, a JSON Schema for its input, and a
// handler from decoded arguments to a result value.
type Tool struct {
	Name        string
	Description string
	InputSchema json.RawMessage
	Handler     func(args map[string]any) (any, error)
}

func numberArg(args map[string]any, key string) float64 {
	// Missing or non-numeric arguments default to 0.
	if v, ok := args[key].(float64); ok {
		return v
	}
	return 0
}

func stringArg(args map[string]any, key, fallback string) string {
	if v, ok := args[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

func boolArg(args map[string]any, key string) bool {
	v, ok := args[key].(bool)
	return ok && v
}

// Tools returns the full tool set, in the order servers should list them.
func Tools() []Tool {
	numberSchema := json.RawMessage(`{
		"type": "object",
		"properties": {
			"a": {"type": "number", "description": "First number"},
			"b": {"type": "number", "description": "Second number"}
		},
		"required": ["a", "b"]
	}`)

	return []Tool{
		{
			Name:        "calculate_sum",
			Description: "Add two numbers together",
			InputSchema: numberSchema,
			Handler: func(args map[string]any) (any, error) {
				a, b := numberArg(args, "a"), numberArg(args, "b")
				return fmt.Sprintf("The sum of %v and %v is %v", a, b, a+b), nil
			},
		},
		{
			Name:        "calculate_product",
			Description: "Multiply two numbers together",
			InputSchema: numberSchema,
			Handler: func(args map[string]any) (any, error) {
				a, b := numberArg(args, "a"), numberArg(args, "b")
				return fmt.Sprintf("The product of %v and %v is %v", a, b, a*b), nil
			},
		},
		{
			Name:        "greet_user",
			Description: "Generate a personalized greeting",
			InputSchema: json.RawMessage(`{
				"type": "object",
				"properties": {
					"name": {"type": "string", "description": "User's name"}
				},
				"required": ["name"]
			}`),
			Handler: func(args map[string]any) (any, error) {
				name := stringArg(args, "name", "stranger")
				return fmt.Sprintf("Hello, %s! Welcome to the MCP server.", name), nil
			},
		},
		{
			Name:        "trigger_error",
			Description: "Trigger an error to test the telemetry integration",
			InputSchema: json.RawMessage(`{"type": "object", "properties": {}}`),
			Handler: func(args map[string]any) (any, error) {
				return nil, ErrTriggered
			},
		},
		{
			Name:        "analyze_text",
			Description: "Analyze text and return structured statistics",
			InputSchema: json.RawMessage(`{
				"type": "object",
				"properties": {
					"text": {"type": "string", "description": "Text to analyze"}
				},
				"required": ["text"]
			}`),
			Handler: func(args map[string]any) (any, error) {
				return AnalyzeText(stringArg(args, "text", "")), nil
			},
		},
		{
			Name:        "get_user_list",
			Description: "Get a list of users with structured information",
			InputSchema: json.RawMessage(`{
				"type": "object",
				"properties": {
					"include_inactive": {"type": "boolean", "description": "Include inactive users"}
				}
			}`),
			Handler: func(args map[string]any) (any, error) {
				return UserListing(boolArg(args, "include_inactive")), nil
			},
		},
	}
}

// FindTool returns the named tool.
func FindTool(name string) (Tool, bool) {
	for _, t := range Tools() {
		if t.Name == name {
			return t, true
		}
	}
	return Tool{}, false
}

// CallTool decodes raw arguments and runs the named tool.
func CallTool(name string, rawArgs json.RawMessage) (any, error) {
	t, ok := FindTool(name)
	if !ok {
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
	args := map[string]any{}
	if len(rawArgs) > 0 {
		if err := json.Unmarshal(rawArgs, &args); err != nil {
			return nil, fmt.Errorf("tool %s arguments: %w", name, err)
		}
	}
	return t.Handler(args)
}
