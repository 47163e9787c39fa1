// Package probes holds the vendor SDK smoke probes. Each probe exercises one
// provider code path end to end inside its own telemetry transaction, so a
// single run produces a complete trace for that path.
package probes

import (
	"context"
	"fmt"
	"io"

	"golang.org/x/sync/errgroup"
	"google.golang.org/genai"

	"github.com/bitop-dev/aiprobe/internal/telemetry"
)

const (
	genaiModel     = "gemini-2.5-flash"
	genaiChatModel = "gemini-2.0-flash"

	weatherPrompt     = "What is weather like in Boston, MA?"
	weatherChatPrompt = "What is the weather like in San Francisco?"
)

// NewGenAIClient builds a Vertex AI backed client.
func NewGenAIClient(ctx context.Context, project, location string) (*genai.Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Project:     project,
		Location:    location,
		Backend:     genai.BackendVertexAI,
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return client, nil
}

// GenAIProbe drives the Gemini probes against one client.
type GenAIProbe struct {
	Client *genai.Client
	Out    io.Writer
}

func weatherTool() *genai.Tool {
	return &genai.Tool{
		FunctionDeclarations: []*genai.FunctionDeclaration{{
			Name:        "get_current_weather",
			Description: "Get the current weather in a given location",
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"location": {
						Type:        genai.TypeString,
						Description: "The city and state, e.g. Boston, MA",
					},
				},
				Required: []string{"location"},
			},
		}},
	}
}

// currentWeather is the canned tool implementation.
func currentWeather(location string) map[string]any {
	return map[string]any{"location": location, "weather": "sunny"}
}

func genaiConfig() *genai.GenerateContentConfig {
	return &genai.GenerateContentConfig{
		Temperature: genai.Ptr[float32](0.2),
		Tools:       []*genai.Tool{weatherTool()},
		SystemInstruction: genai.NewContentFromText(
			"You are a helpful weather assistant. Use the provided tools to answer.",
			genai.RoleUser,
		),
	}
}

// Generate runs the weather function round-trip: ask about Boston, answer the
// model's get_current_weather call, and print the final text.
func (p *GenAIProbe) Generate(ctx context.Context) error {
	tx := telemetry.StartTransaction(ctx, "test", "test-transaction")
	defer tx.Finish()
	ctx = tx.Context()

	text, err := p.weatherRoundTrip(ctx, weatherPrompt)
	if err != nil {
		telemetry.CaptureErr(err)
		return err
	}
	fmt.Fprintln(p.Out, text)
	return nil
}

// Concurrent fans three weather round-trips out in parallel, the errgroup
// standing in for the original's event-loop gather.
func (p *GenAIProbe) Concurrent(ctx context.Context) error {
	tx := telemetry.StartTransaction(ctx, "async-test", "async-test-transaction")
	defer tx.Finish()
	ctx = tx.Context()

	cities := []string{"Boston, MA", "San Francisco, CA", "New York, NY"}
	results := make([]string, len(cities))

	g, gctx := errgroup.WithContext(ctx)
	for i, city := range cities {
		g.Go(func() error {
			text, err := p.weatherRoundTrip(gctx, fmt.Sprintf("What is weather like in %s?", city))
			if err != nil {
				return fmt.Errorf("%s: %w", city, err)
			}
			results[i] = text
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		telemetry.CaptureErr(err)
		return err
	}

	for i, city := range cities {
		fmt.Fprintf(p.Out, "%s: %s\n", city, results[i])
	}
	return nil
}

func (p *GenAIProbe) weatherRoundTrip(ctx context.Context, prompt string) (string, error) {
	contents := []*genai.Content{
		genai.NewContentFromText(prompt, genai.RoleUser),
	}

	resp, err := p.generate(ctx, genaiModel, contents, genaiConfig())
	if err != nil {
		return "", err
	}

	calls := resp.FunctionCalls()
	if len(calls) == 0 {
		return resp.Text(), nil
	}

	contents = append(contents, resp.Candidates[0].Content)
	for _, call := range calls {
		location, _ := call.Args["location"].(string)
		span := telemetry.StartToolSpan(ctx, call.Name)
		result := currentWeather(location)
		telemetry.FinishToolSpan(span, nil)
		contents = append(contents, genai.NewContentFromFunctionResponse(call.Name, result, genai.RoleUser))
	}

	resp, err = p.generate(ctx, genaiModel, contents, genaiConfig())
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}

// generate wraps one GenerateContent call in a model span.
func (p *GenAIProbe) generate(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	span := telemetry.StartModelSpan(ctx, model)
	resp, err := p.Client.Models.GenerateContent(ctx, model, contents, cfg)
	if err != nil {
		telemetry.FinishModelSpan(span, 0, 0, "error")
		return nil, fmt.Errorf("generate content: %w", err)
	}
	in, out := genaiUsage(resp)
	telemetry.FinishModelSpan(span, in, out, genaiFinish(resp))
	return resp, nil
}

// Chat runs a multi-turn conversation on the chat surface.
func (p *GenAIProbe) Chat(ctx context.Context) error {
	tx := telemetry.StartTransaction(ctx, "test-chats", "test-transaction")
	defer tx.Finish()
	ctx = tx.Context()

	chat, err := p.Client.Chats.Create(ctx, genaiChatModel, &genai.GenerateContentConfig{
		Temperature: genai.Ptr[float32](0.2),
	}, nil)
	if err != nil {
		telemetry.CaptureErr(err)
		return fmt.Errorf("create chat: %w", err)
	}

	for _, prompt := range []string{weatherChatPrompt, "And how about tomorrow?"} {
		span := telemetry.StartModelSpan(ctx, genaiChatModel)
		resp, err := chat.SendMessage(ctx, genai.Part{Text: prompt})
		if err != nil {
			telemetry.FinishModelSpan(span, 0, 0, "error")
			telemetry.CaptureErr(err)
			return fmt.Errorf("send message: %w", err)
		}
		in, out := genaiUsage(resp)
		telemetry.FinishModelSpan(span, in, out, genaiFinish(resp))
		fmt.Fprintln(p.Out, resp.Text())
	}
	return nil
}

// Stream prints deltas from one streamed generation.
func (p *GenAIProbe) Stream(ctx context.Context) error {
	tx := telemetry.StartTransaction(ctx, "test-stream", "test-transaction")
	defer tx.Finish()
	ctx = tx.Context()

	span := telemetry.StartModelSpan(ctx, genaiModel)
	var inTokens, outTokens int
	finish := ""
	for resp, err := range p.Client.Models.GenerateContentStream(ctx, genaiModel, []*genai.Content{
		genai.NewContentFromText("Tell me a short story about a lighthouse keeper.", genai.RoleUser),
	}, &genai.GenerateContentConfig{Temperature: genai.Ptr[float32](0.2)}) {
		if err != nil {
			telemetry.FinishModelSpan(span, inTokens, outTokens, "error")
			telemetry.CaptureErr(err)
			return fmt.Errorf("stream: %w", err)
		}
		fmt.Fprint(p.Out, resp.Text())
		if in, out := genaiUsage(resp); in+out > 0 {
			inTokens, outTokens = in, out
		}
		if f := genaiFinish(resp); f != "" {
			finish = f
		}
	}
	fmt.Fprintln(p.Out)
	telemetry.FinishModelSpan(span, inTokens, outTokens, finish)
	return nil
}

func genaiUsage(resp *genai.GenerateContentResponse) (in, out int) {
	if resp == nil || resp.UsageMetadata == nil {
		return 0, 0
	}
	return int(resp.UsageMetadata.PromptTokenCount), int(resp.UsageMetadata.CandidatesTokenCount)
}

func genaiFinish(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	return string(resp.Candidates[0].FinishReason)
}
