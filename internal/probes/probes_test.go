package probes

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPadMessage(t *testing.T) {
	msg := padMessage("Message number 7: ", 1000)
	assert.Len(t, msg, 1000)
	assert.True(t, strings.HasPrefix(msg, "Message number 7: "))
	assert.Contains(t, msg, "Lorem ipsum")
}

func TestPadMessageLongPrefix(t *testing.T) {
	msg := padMessage(strings.Repeat("x", 50), 10)
	assert.Len(t, msg, 10)
}

func TestBuildTruncationMessages(t *testing.T) {
	messages := BuildTruncationMessages()

	// 25 padded history messages plus the summarization request.
	require.Len(t, messages, truncationMessageCount+1)

	for i := 0; i < truncationMessageCount; i++ {
		if i%2 == 0 {
			assert.NotNil(t, messages[i].OfUser, "message %d should be a user turn", i)
		} else {
			assert.NotNil(t, messages[i].OfAssistant, "message %d should be an assistant turn", i)
		}
	}
	assert.NotNil(t, messages[truncationMessageCount].OfUser)
}

// stubTransport answers every request with a fixed JSON body.
type stubTransport struct {
	body string
}

func (s stubTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	return &http.Response{
		StatusCode: http.StatusOK,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(s.body)),
		Request:    req,
	}, nil
}

func TestTruncationRejectsEmptyChoices(t *testing.T) {
	client := openai.NewClient(
		option.WithAPIKey("test-key"),
		option.WithHTTPClient(&http.Client{Transport: stubTransport{
			body: `{"id":"cmpl_1","object":"chat.completion","choices":[],"usage":{"prompt_tokens":10,"completion_tokens":0,"total_tokens":10}}`,
		}}),
	)

	var out bytes.Buffer
	p := &OpenAIProbe{Client: client, Out: &out}
	err := p.Truncation(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no choices")
}

func TestCurrentWeather(t *testing.T) {
	result := currentWeather("Boston, MA")
	assert.Equal(t, "sunny", result["weather"])
	assert.Equal(t, "Boston, MA", result["location"])
}

func TestWeatherToolDeclaration(t *testing.T) {
	tool := weatherTool()
	require.Len(t, tool.FunctionDeclarations, 1)
	decl := tool.FunctionDeclarations[0]
	assert.Equal(t, "get_current_weather", decl.Name)
	require.Contains(t, decl.Parameters.Properties, "location")
	assert.Equal(t, []string{"location"}, decl.Parameters.Required)
}

func TestGenaiUsageNilSafe(t *testing.T) {
	in, out := genaiUsage(nil)
	assert.Zero(t, in)
	assert.Zero(t, out)
	assert.Empty(t, genaiFinish(nil))
}
