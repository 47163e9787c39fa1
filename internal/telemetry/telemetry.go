// Package telemetry wraps the Sentry SDK for the probes.
//
// Every probe runs inside a transaction; model calls and tool executions are
// child spans carrying gen_ai.* span data, mirroring what Sentry's AI
// integrations emit in other SDKs. When no DSN is configured the SDK is
// initialized disabled and all helpers degrade to no-ops, so probes can run
// offline.
package telemetry

import (
	"context"
	"time"

	"github.com/getsentry/sentry-go"
)

// Span operations emitted by the probes.
const (
	OpChat        = "gen_ai.chat"
	OpExecuteTool = "gen_ai.execute_tool"
	OpInvokeAgent = "gen_ai.invoke_agent"
	OpMCPServer   = "mcp.server"
)

type Options struct {
	DSN         string
	Environment string
	Release     string
	Debug       bool
}

// Init configures the global Sentry client. Tracing is always on with a
// sample rate of 1.0: these are smoke probes, every span matters.
func Init(opts Options) error {
	return sentry.Init(sentry.ClientOptions{
		Dsn:              opts.DSN,
		Environment:      opts.Environment,
		Release:          opts.Release,
		EnableTracing:    true,
		TracesSampleRate: 1.0,
		SendDefaultPII:   true,
		Debug:            opts.Debug,
	})
}

// Flush drains buffered events. Call before process exit.
func Flush(timeout time.Duration) {
	sentry.Flush(timeout)
}

// CaptureErr reports err to Sentry. Nil errors are ignored.
func CaptureErr(err error) {
	if err != nil {
		sentry.CaptureException(err)
	}
}

func SetUser(id, email string) {
	sentry.ConfigureScope(func(scope *sentry.Scope) {
		scope.SetUser(sentry.User{ID: id, Email: email})
	})
}

func SetTag(key, value string) {
	sentry.ConfigureScope(func(scope *sentry.Scope) {
		scope.SetTag(key, value)
	})
}

// StartTransaction begins the root span for one probe run. The returned
// span's context carries the transaction for child spans.
func StartTransaction(ctx context.Context, name, op string) *sentry.Span {
	return sentry.StartTransaction(ctx, name, sentry.WithOpName(op))
}

// StartAgentSpan begins a span for one agent run. It becomes a child of the
// current transaction, or the root of a new one when none is active.
func StartAgentSpan(ctx context.Context, agentName string) *sentry.Span {
	span := sentry.StartSpan(ctx, OpInvokeAgent, sentry.WithTransactionName(agentName))
	span.Description = "invoke_agent " + agentName
	span.SetData("gen_ai.agent.name", agentName)
	return span
}

// StartModelSpan begins a child span for one model generation step.
func StartModelSpan(ctx context.Context, model string) *sentry.Span {
	span := sentry.StartSpan(ctx, OpChat)
	span.Description = "chat " + model
	span.SetData("gen_ai.request.model", model)
	return span
}

// FinishModelSpan records usage on span and finishes it.
func FinishModelSpan(span *sentry.Span, inputTokens, outputTokens int, finishReason string) {
	if span == nil {
		return
	}
	if inputTokens > 0 {
		span.SetData("gen_ai.usage.input_tokens", inputTokens)
	}
	if outputTokens > 0 {
		span.SetData("gen_ai.usage.output_tokens", outputTokens)
	}
	if finishReason != "" {
		span.SetData("gen_ai.response.finish_reason", finishReason)
	}
	span.Finish()
}

// StartToolSpan begins a child span for one tool execution.
func StartToolSpan(ctx context.Context, toolName string) *sentry.Span {
	span := sentry.StartSpan(ctx, OpExecuteTool)
	span.Description = "execute_tool " + toolName
	span.SetData("gen_ai.tool.name", toolName)
	return span
}

// FinishToolSpan marks the span failed when err is non-nil and finishes it.
func FinishToolSpan(span *sentry.Span, err error) {
	if span == nil {
		return
	}
	if err != nil {
		span.Status = sentry.SpanStatusInternalError
	}
	span.Finish()
}
