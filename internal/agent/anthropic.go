package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/ssestream"
)

// anthropicDefaultMaxTokens applies when the agent does not set MaxTokens;
// the messages API requires an explicit limit.
const anthropicDefaultMaxTokens = 1024

// AnthropicModel adapts the Anthropic messages API to the Model interface.
type AnthropicModel struct {
	client anthropic.Client
}

func NewAnthropicModel(apiKey string, opts ...option.RequestOption) *AnthropicModel {
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	return &AnthropicModel{client: anthropic.NewClient(opts...)}
}

func (m *AnthropicModel) Generate(ctx context.Context, req Request) (*Response, error) {
	params, err := anthropicParams(req)
	if err != nil {
		return nil, err
	}
	msg, err := m.client.Messages.New(ctx, params)
	if err != nil {
		return nil, mapAnthropicError(err)
	}
	return anthropicResponse(msg)
}

func (m *AnthropicModel) Stream(ctx context.Context, req Request) (Stream, error) {
	params, err := anthropicParams(req)
	if err != nil {
		return nil, err
	}
	return &anthropicStream{stream: m.client.Messages.NewStreaming(ctx, params)}, nil
}

func anthropicParams(req Request) (anthropic.MessageNewParams, error) {
	maxTokens := anthropicDefaultMaxTokens
	if req.Settings.MaxTokens != nil {
		maxTokens = *req.Settings.MaxTokens
	}
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Model),
		MaxTokens: int64(maxTokens),
	}
	if req.Settings.Temperature != nil {
		params.Temperature = anthropic.Float(*req.Settings.Temperature)
	}

	for _, msg := range req.Messages {
		switch msg.Role {
		case RoleSystem:
			params.System = append(params.System, anthropic.TextBlockParam{Text: msg.Text})
		case RoleUser:
			params.Messages = append(params.Messages, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Text)))
		case RoleAssistant:
			var blocks []anthropic.ContentBlockParamUnion
			if msg.Text != "" {
				blocks = append(blocks, anthropic.NewTextBlock(msg.Text))
			}
			for _, call := range msg.ToolCalls {
				var input any
				if len(call.Args) > 0 {
					if err := json.Unmarshal(call.Args, &input); err != nil {
						return params, fmt.Errorf("tool call %q args: %w", call.Name, err)
					}
				}
				blocks = append(blocks, anthropic.ContentBlockParamUnion{
					OfToolUse: &anthropic.ToolUseBlockParam{
						ID:    call.ID,
						Name:  call.Name,
						Input: input,
					},
				})
			}
			params.Messages = append(params.Messages, anthropic.MessageParam{
				Role:    anthropic.MessageParamRoleAssistant,
				Content: blocks,
			})
		case RoleTool:
			// Anthropic tool results travel inside a user message.
			params.Messages = append(params.Messages, anthropic.NewUserMessage(anthropic.ContentBlockParamUnion{
				OfToolResult: &anthropic.ToolResultBlockParam{
					ToolUseID: msg.ToolCallID,
					Content: []anthropic.ToolResultBlockParamContentUnion{
						{OfText: &anthropic.TextBlockParam{Text: msg.Text}},
					},
				},
			}))
		default:
			return params, fmt.Errorf("unsupported message role %q", msg.Role)
		}
	}

	for _, t := range req.Tools {
		schema, err := anthropicSchema(t.InputSchema)
		if err != nil {
			return params, fmt.Errorf("tool %q schema: %w", t.Name, err)
		}
		params.Tools = append(params.Tools, anthropic.ToolUnionParam{
			OfTool: &anthropic.ToolParam{
				Name:        t.Name,
				Description: anthropic.String(t.Description),
				InputSchema: schema,
			},
		})
	}
	return params, nil
}

func anthropicSchema(raw json.RawMessage) (anthropic.ToolInputSchemaParam, error) {
	var out anthropic.ToolInputSchemaParam
	if len(raw) == 0 {
		return out, nil
	}
	var schema struct {
		Properties map[string]any `json:"properties"`
		Required   []string       `json:"required"`
	}
	if err := json.Unmarshal(raw, &schema); err != nil {
		return out, err
	}
	out.Properties = schema.Properties
	out.Required = schema.Required
	return out, nil
}

func anthropicResponse(msg *anthropic.Message) (*Response, error) {
	out := Message{Role: RoleAssistant}
	for _, block := range msg.Content {
		switch variant := block.AsAny().(type) {
		case anthropic.TextBlock:
			out.Text += variant.Text
		case anthropic.ToolUseBlock:
			args, err := json.Marshal(variant.Input)
			if err != nil {
				return nil, fmt.Errorf("tool use %q input: %w", variant.Name, err)
			}
			out.ToolCalls = append(out.ToolCalls, ToolCall{
				ID:   variant.ID,
				Name: variant.Name,
				Args: args,
			})
		}
	}
	return &Response{
		Message:      out,
		Usage:        anthropicUsage(msg.Usage),
		FinishReason: anthropicFinish(msg.StopReason),
	}, nil
}

func anthropicUsage(u anthropic.Usage) Usage {
	return Usage{
		InputTokens:  int(u.InputTokens),
		OutputTokens: int(u.OutputTokens),
		TotalTokens:  int(u.InputTokens + u.OutputTokens),
	}
}

func anthropicFinish(reason anthropic.StopReason) FinishReason {
	switch reason {
	case anthropic.StopReasonEndTurn, anthropic.StopReasonStopSequence:
		return FinishStop
	case anthropic.StopReasonToolUse:
		return FinishToolCalls
	case anthropic.StopReasonMaxTokens:
		return FinishLength
	default:
		return FinishUnknown
	}
}

func mapAnthropicError(err error) error {
	var apierr *anthropic.Error
	if errors.As(err, &apierr) {
		return &Error{
			Provider: "anthropic",
			Status:   apierr.StatusCode,
			Message:  apierr.Error(),
			Cause:    err,
		}
	}
	return err
}

type anthropicStream struct {
	stream *ssestream.Stream[anthropic.MessageStreamEventUnion]
	acc    anthropic.Message
	delta  string
	msg    *Message
	usage  Usage
	finish FinishReason
	err    error
}

func (s *anthropicStream) Next() bool {
	for s.stream.Next() {
		event := s.stream.Current()
		if err := s.acc.Accumulate(event); err != nil {
			s.err = err
			return false
		}
		if delta, ok := anthropicTextDelta(event); ok {
			s.delta = delta
			return true
		}
	}
	s.finalize()
	return false
}

func anthropicTextDelta(event anthropic.MessageStreamEventUnion) (string, bool) {
	variant, ok := event.AsAny().(anthropic.ContentBlockDeltaEvent)
	if !ok {
		return "", false
	}
	if text, ok := variant.Delta.AsAny().(anthropic.TextDelta); ok && text.Text != "" {
		return text.Text, true
	}
	return "", false
}

func (s *anthropicStream) finalize() {
	if s.msg != nil || s.err != nil || s.stream.Err() != nil {
		return
	}
	resp, err := anthropicResponse(&s.acc)
	if err != nil {
		s.err = err
		return
	}
	s.msg = &resp.Message
	s.usage = resp.Usage
	s.finish = resp.FinishReason
}

func (s *anthropicStream) Delta() string { return s.delta }

func (s *anthropicStream) Message() *Message { return s.msg }

func (s *anthropicStream) Usage() Usage { return s.usage }

func (s *anthropicStream) FinishReason() FinishReason { return s.finish }

func (s *anthropicStream) Err() error {
	if s.err != nil {
		return s.err
	}
	if err := s.stream.Err(); err != nil {
		return mapAnthropicError(err)
	}
	return nil
}

func (s *anthropicStream) Close() error { return s.stream.Close() }
