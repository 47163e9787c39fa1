package agent

import (
	"encoding/json"
	"fmt"
)

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is one turn of the conversation. Assistant messages may carry tool
// calls; tool messages carry the result for a single call.
type Message struct {
	Role Role
	Text string

	ToolCalls []ToolCall

	ToolCallID string
	ToolName   string
}

// ToolCall is a model-requested tool invocation.
type ToolCall struct {
	ID   string
	Name string
	Args json.RawMessage
}

func System(text string) Message {
	return Message{Role: RoleSystem, Text: text}
}

func User(text string) Message {
	return Message{Role: RoleUser, Text: text}
}

func Assistant(text string) Message {
	return Message{Role: RoleAssistant, Text: text}
}

// ToolResult builds a tool message carrying value as JSON.
func ToolResult(callID, toolName string, value any) Message {
	raw, err := json.Marshal(value)
	if err != nil {
		raw = json.RawMessage(fmt.Sprintf(`{"error":%q}`, err.Error()))
	}
	return Message{
		Role:       RoleTool,
		Text:       string(raw),
		ToolCallID: callID,
		ToolName:   toolName,
	}
}

type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

func (u Usage) Add(o Usage) Usage {
	return Usage{
		InputTokens:  u.InputTokens + o.InputTokens,
		OutputTokens: u.OutputTokens + o.OutputTokens,
		TotalTokens:  u.TotalTokens + o.TotalTokens,
	}
}

type FinishReason string

const (
	FinishStop      FinishReason = "stop"
	FinishToolCalls FinishReason = "tool_calls"
	FinishLength    FinishReason = "length"
	FinishUnknown   FinishReason = "unknown"
)

// Settings are the per-agent sampling controls the scenarios exercise.
type Settings struct {
	Temperature *float64
	MaxTokens   *int
}

func Float(v float64) *float64 { return &v }

func Int(v int) *int { return &v }
