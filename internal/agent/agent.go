// Package agent is a small agent runtime: a model, instructions, tools and a
// bounded tool loop, with optional schema-validated structured output. It
// exists so the probes can exercise agentic execution paths (sync, streaming,
// tool calling, structured results) and verify the telemetry each emits.
package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/bitop-dev/aiprobe/internal/telemetry"
)

// finalResultTool captures structured output. The model is told to call it
// exactly once with the final object; the handler never runs.
const finalResultTool = "final_result"

// Agent bundles a model reference with instructions and tools.
//
// Model is a "provider:model" reference resolved against the registry, e.g.
// "openai:gpt-4o-mini" or "anthropic:claude-3-5-haiku-latest".
type Agent struct {
	Name         string
	Model        string
	Instructions string
	Tools        []Tool

	// OutputSchema, when set, requests structured output: the run finishes
	// with a JSON object validated against this schema instead of plain text.
	OutputSchema json.RawMessage

	Settings      Settings
	MaxIterations int
}

// Result is the outcome of a completed run.
type Result struct {
	Text      string
	RawOutput json.RawMessage

	Messages     []Message
	Usage        Usage
	FinishReason FinishReason
	Steps        int
}

// DecodeOutput unmarshals a structured result into T.
func DecodeOutput[T any](res *Result) (T, error) {
	var out T
	if res == nil || len(res.RawOutput) == 0 {
		return out, fmt.Errorf("result has no structured output")
	}
	if err := json.Unmarshal(res.RawOutput, &out); err != nil {
		return out, fmt.Errorf("decode output: %w", err)
	}
	return out, nil
}

// Run executes the agent until the model produces a final answer, running
// requested tools between steps. Each model step and tool execution is
// traced.
func (a Agent) Run(ctx context.Context, prompt string) (*Result, error) {
	model, modelName, err := Resolve(a.Model)
	if err != nil {
		return nil, err
	}

	span := telemetry.StartAgentSpan(ctx, a.runName())
	defer span.Finish()
	ctx = span.Context()

	messages := a.initialMessages(prompt)
	tools := a.loopTools()

	var aggUsage Usage
	maxIter := a.maxIterations()

	for step := 0; ; step++ {
		resp, err := a.generateStep(ctx, model, modelName, messages, tools)
		if err != nil {
			return nil, err
		}
		aggUsage = aggUsage.Add(resp.Usage)
		messages = append(messages, resp.Message)

		if raw, ok := a.takeStructuredOutput(resp.Message); ok {
			if err := ValidateJSON(a.OutputSchema, raw); err != nil {
				return nil, &InvalidToolInputError{ToolName: finalResultTool, Cause: err}
			}
			return &Result{
				RawOutput:    raw,
				Messages:     messages,
				Usage:        aggUsage,
				FinishReason: resp.FinishReason,
				Steps:        step + 1,
			}, nil
		}

		if len(resp.Message.ToolCalls) == 0 {
			if len(a.OutputSchema) > 0 {
				return nil, fmt.Errorf("agent %q finished without calling %s", a.Name, finalResultTool)
			}
			return &Result{
				Text:         resp.Message.Text,
				Messages:     messages,
				Usage:        aggUsage,
				FinishReason: resp.FinishReason,
				Steps:        step + 1,
			}, nil
		}

		if step >= maxIter-1 {
			return nil, fmt.Errorf("tool loop exceeded max iterations (%d)", maxIter)
		}

		results, err := executeToolCalls(ctx, tools, resp.Message.ToolCalls)
		if err != nil {
			return nil, err
		}
		messages = append(messages, results...)
	}
}

func (a Agent) generateStep(ctx context.Context, model Model, modelName string, messages []Message, tools []Tool) (*Response, error) {
	span := telemetry.StartModelSpan(ctx, a.Model)
	resp, err := model.Generate(ctx, Request{
		Model:    modelName,
		Messages: append([]Message(nil), messages...),
		Tools:    tools,
		Settings: a.Settings,
	})
	if err != nil {
		telemetry.FinishModelSpan(span, 0, 0, "error")
		return nil, err
	}
	telemetry.FinishModelSpan(span, resp.Usage.InputTokens, resp.Usage.OutputTokens, string(resp.FinishReason))
	return resp, nil
}

// takeStructuredOutput returns the final_result call arguments, if present.
func (a Agent) takeStructuredOutput(msg Message) (json.RawMessage, bool) {
	if len(a.OutputSchema) == 0 {
		return nil, false
	}
	for _, call := range msg.ToolCalls {
		if call.Name == finalResultTool {
			return call.Args, true
		}
	}
	return nil, false
}

func (a Agent) initialMessages(prompt string) []Message {
	var messages []Message
	instructions := a.Instructions
	if len(a.OutputSchema) > 0 {
		if instructions != "" {
			instructions += "\n\n"
		}
		instructions += "When you have the final answer, call the " + finalResultTool +
			" tool exactly once with the result object. Do not answer in plain text."
	}
	if instructions != "" {
		messages = append(messages, System(instructions))
	}
	if prompt != "" {
		messages = append(messages, User(prompt))
	}
	return messages
}

// loopTools returns the agent's tools plus the reserved structured-output
// tool when an output schema is set.
func (a Agent) loopTools() []Tool {
	tools := append([]Tool(nil), a.Tools...)
	if len(a.OutputSchema) == 0 {
		return tools
	}
	tools = append(tools, Tool{
		Name:        finalResultTool,
		Description: "Record the final structured result.",
		InputSchema: a.OutputSchema,
		Handler: func(ctx context.Context, input json.RawMessage) (any, error) {
			// Captured by the run loop before execution.
			return nil, nil
		},
	})
	return tools
}

func (a Agent) maxIterations() int {
	if a.MaxIterations > 0 {
		return a.MaxIterations
	}
	return 5
}

func (a Agent) runName() string {
	if a.Name != "" {
		return a.Name
	}
	return "agent"
}
