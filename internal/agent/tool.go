package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/bitop-dev/aiprobe/internal/telemetry"
)

// Tool is a function the model may call. InputSchema is a JSON Schema for the
// arguments; handlers never see input that fails it.
type Tool struct {
	Name        string
	Description string
	InputSchema json.RawMessage
	Handler     func(ctx context.Context, input json.RawMessage) (any, error)
}

// ValidateJSON checks raw against schema. An empty schema accepts everything.
func ValidateJSON(schema, raw json.RawMessage) error {
	if len(schema) == 0 {
		return nil
	}
	if len(raw) == 0 {
		return fmt.Errorf("empty json")
	}

	c := jsonschema.NewCompiler()
	if err := c.AddResource("schema.json", bytes.NewReader(schema)); err != nil {
		return fmt.Errorf("schema resource: %w", err)
	}
	s, err := c.Compile("schema.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}

	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("parse json: %w", err)
	}
	return s.Validate(doc)
}

func findTool(tools []Tool, name string) (Tool, bool) {
	for _, t := range tools {
		if t.Name == name {
			return t, true
		}
	}
	return Tool{}, false
}

// executeToolCalls runs each requested call and returns the tool result
// messages in call order. Each execution gets its own telemetry span.
func executeToolCalls(ctx context.Context, tools []Tool, calls []ToolCall) ([]Message, error) {
	if len(calls) == 0 {
		return nil, nil
	}
	if len(tools) == 0 {
		return nil, fmt.Errorf("model requested tool calls but no tools were provided")
	}

	results := make([]Message, 0, len(calls))
	for _, call := range calls {
		if call.ID == "" {
			return nil, fmt.Errorf("tool call missing id")
		}
		t, ok := findTool(tools, call.Name)
		if !ok {
			return nil, &NoSuchToolError{ToolName: call.Name}
		}
		if t.Handler == nil {
			return nil, fmt.Errorf("tool %q missing handler", call.Name)
		}

		if err := ValidateJSON(t.InputSchema, call.Args); err != nil {
			return nil, &InvalidToolInputError{ToolName: t.Name, ToolCallID: call.ID, Cause: err}
		}

		span := telemetry.StartToolSpan(ctx, t.Name)
		val, err := t.Handler(ctx, call.Args)
		telemetry.FinishToolSpan(span, err)
		if err != nil {
			return nil, &ToolExecutionError{ToolName: t.Name, ToolCallID: call.ID, Cause: err}
		}
		results = append(results, ToolResult(call.ID, t.Name, val))
	}
	return results, nil
}
