package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Without a DSN the SDK runs disabled; every helper must still be safe.
func TestHelpersWithoutDSN(t *testing.T) {
	require.NoError(t, Init(Options{Environment: "test"}))
	defer Flush(time.Millisecond)

	tx := StartTransaction(context.Background(), "probe", "test-transaction")
	require.NotNil(t, tx)

	span := StartModelSpan(tx.Context(), "gpt-4o-mini")
	require.NotNil(t, span)
	assert.Equal(t, OpChat, span.Op)
	assert.Equal(t, "gpt-4o-mini", span.Data["gen_ai.request.model"])
	FinishModelSpan(span, 12, 34, "stop")
	assert.Equal(t, 12, span.Data["gen_ai.usage.input_tokens"])
	assert.Equal(t, "stop", span.Data["gen_ai.response.finish_reason"])

	tool := StartToolSpan(tx.Context(), "calculate_sum")
	assert.Equal(t, OpExecuteTool, tool.Op)
	FinishToolSpan(tool, nil)

	tx.Finish()

	CaptureErr(nil)
	SetUser("test-user", "test@example.com")
	SetTag("test_type", "smoke")
}

func TestFinishModelSpanNil(t *testing.T) {
	FinishModelSpan(nil, 0, 0, "")
	FinishToolSpan(nil, nil)
}
