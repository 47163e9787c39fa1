package mcpkit

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateSum(t *testing.T) {
	out, err := CallTool("calculate_sum", json.RawMessage(`{"a": 15, "b": 27}`))
	require.NoError(t, err)
	assert.Equal(t, "The sum of 15 and 27 is 42", out)
}

func TestCalculateSumDefaultsMissingArgs(t *testing.T) {
	out, err := CallTool("calculate_sum", json.RawMessage(`{}`))
	require.NoError(t, err)
	assert.Equal(t, "The sum of 0 and 0 is 0", out)
}

func TestCalculateProduct(t *testing.T) {
	out, err := CallTool("calculate_product", json.RawMessage(`{"a": 6, "b": 7}`))
	require.NoError(t, err)
	assert.Equal(t, "The product of 6 and 7 is 42", out)
}

func TestGreetUser(t *testing.T) {
	out, err := CallTool("greet_user", json.RawMessage(`{"name": "Alice"}`))
	require.NoError(t, err)
	assert.Equal(t, "Hello, Alice! Welcome to the MCP server.", out)

	out, err = CallTool("greet_user", nil)
	require.NoError(t, err)
	assert.Contains(t, out.(string), "stranger")
}

func TestTriggerError(t *testing.T) {
	_, err := CallTool("trigger_error", nil)
	require.ErrorIs(t, err, ErrTriggered)
}

func TestUnknownTool(t *testing.T) {
	_, err := CallTool("no_such_tool", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown tool")
}

func TestAnalyzeText(t *testing.T) {
	stats := AnalyzeText("Hello, world! This is a test.")

	assert.Equal(t, 29, stats.CharacterCount)
	assert.Equal(t, 6, stats.WordCount)
	assert.Equal(t, 1, stats.LineCount)
	assert.Equal(t, 2, stats.SentenceCount)
	assert.Equal(t, "Hello", stats.LongestWord)
	assert.Equal(t, "a", stats.ShortestWord)
}

func TestAnalyzeTextEmpty(t *testing.T) {
	stats := AnalyzeText("")

	assert.Equal(t, 0, stats.CharacterCount)
	assert.Equal(t, 0, stats.WordCount)
	assert.Equal(t, 1, stats.LineCount)
	assert.Equal(t, 1, stats.SentenceCount, "sentence count never drops below 1")
	assert.Equal(t, float64(0), stats.AverageWordLength)
	assert.Empty(t, stats.LongestWord)
}

func TestAnalyzeTextStripsPunctuation(t *testing.T) {
	stats := AnalyzeText(`"hi" (there)`)

	assert.Equal(t, "there", stats.LongestWord)
	assert.Equal(t, "hi", stats.ShortestWord)
	assert.Equal(t, float64(3.5), stats.AverageWordLength)
}

func TestAnalyzeTextMultiline(t *testing.T) {
	stats := AnalyzeText("one\ntwo\nthree")
	assert.Equal(t, 3, stats.LineCount)
	assert.Equal(t, 1, stats.SentenceCount)
}

func TestUserListing(t *testing.T) {
	active := UserListing(false)
	assert.Equal(t, 3, active.Total)
	for _, u := range active.Users {
		assert.True(t, u.Active)
	}

	all := UserListing(true)
	assert.Equal(t, 5, all.Total)
	assert.Equal(t, "Diana Prince", all.Users[3].Name)
}

func TestReadResource(t *testing.T) {
	content, mime, err := ReadResource("config://settings")
	require.NoError(t, err)
	assert.Equal(t, "text/plain", mime)
	assert.Contains(t, content, "Max Connections: 100")

	content, mime, err = ReadResource("data://users")
	require.NoError(t, err)
	assert.Equal(t, "text/plain", mime)
	assert.Contains(t, content, "1. Alice (admin@example.com)")
	assert.Contains(t, content, "4. Diana (diana@example.com)")

	content, mime, err = ReadResource("data://stats")
	require.NoError(t, err)
	assert.Equal(t, "application/json", mime)
	var stats map[string]any
	require.NoError(t, json.Unmarshal([]byte(content), &stats))
	assert.Equal(t, float64(42), stats["requests"])

	_, _, err = ReadResource("data://nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown resource URI")
}

func TestGetPrompt(t *testing.T) {
	desc, text, err := GetPrompt("code_review", map[string]string{"language": "go"})
	require.NoError(t, err)
	assert.Equal(t, "Code review prompt for go", desc)
	assert.Contains(t, text, "expert go code reviewer")

	desc, text, err = GetPrompt("code_review", nil)
	require.NoError(t, err)
	assert.Contains(t, desc, "python")

	_, text, err = GetPrompt("sql_query_helper", nil)
	require.NoError(t, err)
	assert.True(t, strings.Contains(text, "PostgreSQL"))

	_, _, err = GetPrompt("missing", nil)
	require.Error(t, err)
}

func TestToolSchemasAreValidJSON(t *testing.T) {
	for _, tool := range Tools() {
		var doc map[string]any
		require.NoError(t, json.Unmarshal(tool.InputSchema, &doc), tool.Name)
		assert.Equal(t, "object", doc["type"], tool.Name)
	}
}
