package probes

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/openai/openai-go/v2"

	"github.com/bitop-dev/aiprobe/internal/telemetry"
)

const (
	truncationModel        = "gpt-4o-mini"
	truncationMessageCount = 25
	truncationMessageLen   = 1000
)

const loremFiller = "Lorem ipsum dolor sit amet, consectetur adipiscing elit, sed do eiusmod tempor incididunt ut labore et dolore magna aliqua. "

// BuildTruncationMessages produces a long alternating conversation designed to
// overflow what the telemetry layer will record, plus a final summarization
// request. Every history message is padded to exactly truncationMessageLen
// characters.
func BuildTruncationMessages() []openai.ChatCompletionMessageParamUnion {
	var messages []openai.ChatCompletionMessageParamUnion
	for i := 0; i < truncationMessageCount; i++ {
		text := padMessage(fmt.Sprintf("Message number %d: ", i+1), truncationMessageLen)
		if i%2 == 0 {
			messages = append(messages, openai.UserMessage(text))
		} else {
			messages = append(messages, openai.AssistantMessage(text))
		}
	}
	messages = append(messages, openai.UserMessage("Please summarize our conversation so far in one sentence."))
	return messages
}

// padMessage extends prefix with lorem filler to exactly length characters.
func padMessage(prefix string, length int) string {
	var b strings.Builder
	b.WriteString(prefix)
	for b.Len() < length {
		b.WriteString(loremFiller)
	}
	return b.String()[:length]
}

// OpenAIProbe drives the OpenAI truncation probe.
type OpenAIProbe struct {
	Client openai.Client
	Out    io.Writer
}

// Truncation sends the oversized conversation and prints the summary. The
// point is the trace: the recorded request should show the message history
// being truncated rather than dropped.
func (p *OpenAIProbe) Truncation(ctx context.Context) error {
	tx := telemetry.StartTransaction(ctx, "openai-truncation-test", telemetry.OpChat)
	defer tx.Finish()
	ctx = tx.Context()

	messages := BuildTruncationMessages()
	fmt.Fprintf(p.Out, "sending %d messages, %d history chars\n",
		len(messages), truncationMessageCount*truncationMessageLen)

	span := telemetry.StartModelSpan(ctx, truncationModel)
	completion, err := p.Client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       truncationModel,
		Messages:    messages,
		MaxTokens:   openai.Int(100),
		Temperature: openai.Float(0.7),
	})
	if err != nil {
		telemetry.FinishModelSpan(span, 0, 0, "error")
		telemetry.CaptureErr(err)
		return fmt.Errorf("chat completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		telemetry.FinishModelSpan(span,
			int(completion.Usage.PromptTokens),
			int(completion.Usage.CompletionTokens),
			"error",
		)
		err := fmt.Errorf("chat completion: response has no choices")
		telemetry.CaptureErr(err)
		return err
	}
	telemetry.FinishModelSpan(span,
		int(completion.Usage.PromptTokens),
		int(completion.Usage.CompletionTokens),
		string(completion.Choices[0].FinishReason),
	)

	fmt.Fprintln(p.Out, completion.Choices[0].Message.Content)
	return nil
}
