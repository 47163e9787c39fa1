package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/openai/openai-go/v2/packages/ssestream"
	"github.com/openai/openai-go/v2/shared"
)

// OpenAIModel adapts the OpenAI chat completions API to the Model interface.
type OpenAIModel struct {
	client openai.Client
}

func NewOpenAIModel(apiKey string, opts ...option.RequestOption) *OpenAIModel {
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	return &OpenAIModel{client: openai.NewClient(opts...)}
}

func (m *OpenAIModel) Generate(ctx context.Context, req Request) (*Response, error) {
	params, err := openaiParams(req)
	if err != nil {
		return nil, err
	}
	resp, err := m.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, mapOpenAIError(err)
	}
	if len(resp.Choices) == 0 {
		return nil, &Error{Provider: "openai", Message: "response has no choices"}
	}
	choice := resp.Choices[0]
	return &Response{
		Message:      openaiMessage(choice.Message.Content, choice.Message.ToolCalls),
		Usage:        openaiUsage(resp.Usage),
		FinishReason: openaiFinish(choice.FinishReason),
	}, nil
}

func (m *OpenAIModel) Stream(ctx context.Context, req Request) (Stream, error) {
	params, err := openaiParams(req)
	if err != nil {
		return nil, err
	}
	return &openaiStream{stream: m.client.Chat.Completions.NewStreaming(ctx, params)}, nil
}

func openaiParams(req Request) (openai.ChatCompletionNewParams, error) {
	params := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(req.Model),
	}
	if req.Settings.Temperature != nil {
		params.Temperature = openai.Float(*req.Settings.Temperature)
	}
	if req.Settings.MaxTokens != nil {
		params.MaxTokens = openai.Int(int64(*req.Settings.MaxTokens))
	}

	for _, msg := range req.Messages {
		switch msg.Role {
		case RoleSystem:
			params.Messages = append(params.Messages, openai.SystemMessage(msg.Text))
		case RoleUser:
			params.Messages = append(params.Messages, openai.UserMessage(msg.Text))
		case RoleAssistant:
			if len(msg.ToolCalls) == 0 {
				params.Messages = append(params.Messages, openai.AssistantMessage(msg.Text))
				continue
			}
			var asst openai.ChatCompletionAssistantMessageParam
			if msg.Text != "" {
				asst.Content.OfString = openai.String(msg.Text)
			}
			for _, call := range msg.ToolCalls {
				asst.ToolCalls = append(asst.ToolCalls, openai.ChatCompletionMessageToolCallUnionParam{
					OfFunction: &openai.ChatCompletionMessageFunctionToolCallParam{
						ID: call.ID,
						Function: openai.ChatCompletionMessageFunctionToolCallFunctionParam{
							Name:      call.Name,
							Arguments: string(call.Args),
						},
					},
				})
			}
			params.Messages = append(params.Messages, openai.ChatCompletionMessageParamUnion{OfAssistant: &asst})
		case RoleTool:
			params.Messages = append(params.Messages, openai.ToolMessage(msg.Text, msg.ToolCallID))
		default:
			return params, fmt.Errorf("unsupported message role %q", msg.Role)
		}
	}

	for _, t := range req.Tools {
		var schema map[string]any
		if len(t.InputSchema) > 0 {
			if err := json.Unmarshal(t.InputSchema, &schema); err != nil {
				return params, fmt.Errorf("tool %q schema: %w", t.Name, err)
			}
		}
		params.Tools = append(params.Tools, openai.ChatCompletionFunctionTool(shared.FunctionDefinitionParam{
			Name:        t.Name,
			Description: openai.String(t.Description),
			Parameters:  shared.FunctionParameters(schema),
		}))
	}
	return params, nil
}

func openaiMessage(content string, toolCalls []openai.ChatCompletionMessageToolCallUnion) Message {
	msg := Message{Role: RoleAssistant, Text: content}
	for _, tc := range toolCalls {
		msg.ToolCalls = append(msg.ToolCalls, ToolCall{
			ID:   tc.ID,
			Name: tc.Function.Name,
			Args: json.RawMessage(tc.Function.Arguments),
		})
	}
	return msg
}

func openaiUsage(u openai.CompletionUsage) Usage {
	return Usage{
		InputTokens:  int(u.PromptTokens),
		OutputTokens: int(u.CompletionTokens),
		TotalTokens:  int(u.TotalTokens),
	}
}

func openaiFinish(reason string) FinishReason {
	switch reason {
	case "stop":
		return FinishStop
	case "tool_calls", "function_call":
		return FinishToolCalls
	case "length":
		return FinishLength
	default:
		return FinishUnknown
	}
}

func mapOpenAIError(err error) error {
	var apierr *openai.Error
	if errors.As(err, &apierr) {
		return &Error{
			Provider: "openai",
			Status:   apierr.StatusCode,
			Message:  apierr.Error(),
			Cause:    err,
		}
	}
	return err
}

type openaiStream struct {
	stream *ssestream.Stream[openai.ChatCompletionChunk]
	acc    openai.ChatCompletionAccumulator
	delta  string
	msg    *Message
	usage  Usage
	finish FinishReason
}

func (s *openaiStream) Next() bool {
	for s.stream.Next() {
		chunk := s.stream.Current()
		s.acc.AddChunk(chunk)
		if len(chunk.Choices) > 0 && chunk.Choices[0].Delta.Content != "" {
			s.delta = chunk.Choices[0].Delta.Content
			return true
		}
	}
	s.finalize()
	return false
}

func (s *openaiStream) finalize() {
	if s.msg != nil || s.stream.Err() != nil {
		return
	}
	s.usage = openaiUsage(s.acc.Usage)
	if len(s.acc.Choices) > 0 {
		choice := s.acc.Choices[0]
		msg := openaiMessage(choice.Message.Content, choice.Message.ToolCalls)
		s.msg = &msg
		s.finish = openaiFinish(choice.FinishReason)
	}
}

func (s *openaiStream) Delta() string { return s.delta }

func (s *openaiStream) Message() *Message { return s.msg }

func (s *openaiStream) Usage() Usage { return s.usage }

func (s *openaiStream) FinishReason() FinishReason { return s.finish }

func (s *openaiStream) Err() error {
	if err := s.stream.Err(); err != nil {
		return mapOpenAIError(err)
	}
	return nil
}

func (s *openaiStream) Close() error { return s.stream.Close() }
