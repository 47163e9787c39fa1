package scenarios

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitop-dev/aiprobe/internal/agent"
)

func callTool(t *testing.T, tools []agent.Tool, name, input string) any {
	t.Helper()
	for _, tool := range tools {
		if tool.Name != name {
			continue
		}
		require.NoError(t, agent.ValidateJSON(tool.InputSchema, json.RawMessage(input)))
		out, err := tool.Handler(context.Background(), json.RawMessage(input))
		require.NoError(t, err)
		return out
	}
	t.Fatalf("tool %q not found", name)
	return nil
}

func TestMathTools(t *testing.T) {
	tools := MathTools()

	assert.Equal(t, float64(42), callTool(t, tools, "add", `{"a": 25, "b": 17}`))
	assert.Equal(t, float64(126), callTool(t, tools, "multiply", `{"a": 42, "b": 3}`))
	assert.Equal(t, float64(42), callTool(t, tools, "calculate_percentage", `{"part": 42, "total": 100}`))
}

func TestPercentageZeroTotal(t *testing.T) {
	assert.Equal(t, float64(0), Percentage(42, 0))
}

func TestPerksForTier(t *testing.T) {
	assert.Contains(t, PerksForTier("gold"), "priority_support")
	assert.Contains(t, PerksForTier("gold"), "discount_10")
	assert.Equal(t, []string{"free_shipping"}, PerksForTier("silver"))
	assert.Empty(t, PerksForTier("bronze"))
}

func TestSupportAgentTools(t *testing.T) {
	a := NewSupportAgent("support_test", "test:model", GoldCustomer)

	out := callTool(t, a.Tools, "check_perk_eligibility", `{"perk": "priority_support"}`)
	assert.Equal(t, map[string]any{"perk": "priority_support", "eligible": true}, out)

	out = callTool(t, a.Tools, "check_perk_eligibility", `{"perk": "private_jet"}`)
	assert.Equal(t, map[string]any{"perk": "private_jet", "eligible": false}, out)

	summary := callTool(t, a.Tools, "account_summary", `{}`).(map[string]any)
	assert.Equal(t, "CUST001", summary["customer_id"])
	assert.Equal(t, "gold", summary["tier"])
}

func TestBuild(t *testing.T) {
	a, err := Build("math", "test:model", nil)
	require.NoError(t, err)
	assert.Equal(t, "math_test:model", a.Name)
	assert.NotEmpty(t, a.OutputSchema)

	_, err = Build("mcp", "test:model", nil)
	assert.Error(t, err, "mcp scenario requires bridged tools")

	_, err = Build("unknown", "test:model", nil)
	assert.Error(t, err)
}

func TestPrompt(t *testing.T) {
	for _, name := range Names {
		p, err := Prompt(name)
		require.NoError(t, err)
		assert.NotEmpty(t, p)
	}
	_, err := Prompt("bogus")
	assert.Error(t, err)
}

// matrixModel answers every request with a final_result call when the agent
// declares an output schema, and plain text otherwise.
type matrixModel struct{}

func (matrixModel) Generate(ctx context.Context, req agent.Request) (*agent.Response, error) {
	return matrixResponse(req), nil
}

func (matrixModel) Stream(ctx context.Context, req agent.Request) (agent.Stream, error) {
	return &staticStream{resp: matrixResponse(req)}, nil
}

func matrixResponse(req agent.Request) *agent.Response {
	for _, tool := range req.Tools {
		if tool.Name == "final_result" {
			return &agent.Response{
				Message: agent.Message{
					Role: agent.RoleAssistant,
					ToolCalls: []agent.ToolCall{{
						ID:   "call_final",
						Name: "final_result",
						Args: json.RawMessage(`{"result": 1, "operation": "noop", "advice": "ok", "eligible": true}`),
					}},
				},
				FinishReason: agent.FinishToolCalls,
			}
		}
	}
	return &agent.Response{
		Message:      agent.Assistant("done"),
		FinishReason: agent.FinishStop,
	}
}

type staticStream struct {
	resp *agent.Response
	done bool
}

func (s *staticStream) Next() bool {
	if s.done {
		return false
	}
	s.done = true
	return false
}

func (s *staticStream) Delta() string { return "" }

func (s *staticStream) Message() *agent.Message {
	msg := s.resp.Message
	return &msg
}

func (s *staticStream) Usage() agent.Usage               { return s.resp.Usage }
func (s *staticStream) FinishReason() agent.FinishReason { return s.resp.FinishReason }
func (s *staticStream) Err() error                       { return nil }
func (s *staticStream) Close() error                     { return nil }

func TestRunnerMatrix(t *testing.T) {
	require.NoError(t, agent.Register("matrix", matrixModel{}))

	var out strings.Builder
	r := &Runner{
		Models: []string{"matrix:model-a"},
		Out:    &out,
	}
	require.NoError(t, r.RunAll(context.Background()))

	// Two scenarios ran (mcp skipped without tools) in both modes.
	assert.Contains(t, out.String(), "[support matrix:model-a generate]")
	assert.Contains(t, out.String(), "[support matrix:model-a stream]")
	assert.Contains(t, out.String(), "[math matrix:model-a generate]")
	assert.Contains(t, out.String(), "skip mcp")
}
