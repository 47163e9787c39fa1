package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/getsentry/sentry-go"

	"github.com/bitop-dev/aiprobe/internal/telemetry"
)

// TextStream is the streaming counterpart of Run. It yields text deltas
// across all steps of the tool loop: when a step finishes with tool calls,
// the tools run and the next step starts streaming transparently.
type TextStream struct {
	ctx   context.Context
	model Model

	agentName    string
	modelRef     string
	modelName    string
	messages     []Message
	tools        []Tool
	settings     Settings
	maxIter      int
	outputSchema json.RawMessage

	cur       Stream
	curSpan   *sentry.Span
	runSpan   *sentry.Span
	step      int
	delta     string
	rawOutput []byte
	usage     Usage
	finish    FinishReason
	err       error
	done      bool
}

// RunStream starts a streaming run. The caller must drain the stream with
// Next and call Close when done.
func (a Agent) RunStream(ctx context.Context, prompt string) (*TextStream, error) {
	model, modelName, err := Resolve(a.Model)
	if err != nil {
		return nil, err
	}

	runSpan := telemetry.StartAgentSpan(ctx, a.runName())

	return &TextStream{
		ctx:          runSpan.Context(),
		model:        model,
		agentName:    a.Name,
		modelRef:     a.Model,
		modelName:    modelName,
		messages:     a.initialMessages(prompt),
		tools:        a.loopTools(),
		settings:     a.Settings,
		maxIter:      a.maxIterations(),
		outputSchema: a.OutputSchema,
		runSpan:      runSpan,
	}, nil
}

// Next advances to the next text delta. It returns false when the run is
// complete or failed; check Err afterwards.
func (s *TextStream) Next() bool {
	for {
		if s.err != nil || s.done {
			return false
		}
		if s.cur == nil {
			if !s.startStep() {
				return false
			}
		}
		if s.cur.Next() {
			s.delta = s.cur.Delta()
			return true
		}
		if !s.finishStep() {
			return false
		}
	}
}

func (s *TextStream) startStep() bool {
	if s.step >= s.maxIter {
		s.fail(fmt.Errorf("tool loop exceeded max iterations (%d)", s.maxIter))
		return false
	}
	s.curSpan = telemetry.StartModelSpan(s.ctx, s.modelRef)
	cur, err := s.model.Stream(s.ctx, Request{
		Model:    s.modelName,
		Messages: append([]Message(nil), s.messages...),
		Tools:    s.tools,
		Settings: s.settings,
	})
	if err != nil {
		telemetry.FinishModelSpan(s.curSpan, 0, 0, "error")
		s.curSpan = nil
		s.fail(err)
		return false
	}
	s.cur = cur
	s.step++
	return true
}

// finishStep consumes the exhausted step stream. It returns true when a new
// step was queued, false when the run is finished or failed.
func (s *TextStream) finishStep() bool {
	cur := s.cur
	s.cur = nil

	if err := cur.Err(); err != nil {
		telemetry.FinishModelSpan(s.curSpan, 0, 0, "error")
		s.curSpan = nil
		s.fail(err)
		return false
	}

	usage := cur.Usage()
	s.usage = s.usage.Add(usage)
	s.finish = cur.FinishReason()
	telemetry.FinishModelSpan(s.curSpan, usage.InputTokens, usage.OutputTokens, string(s.finish))
	s.curSpan = nil

	msg := cur.Message()
	_ = cur.Close()
	if msg == nil {
		s.fail(errMissingMessage)
		return false
	}
	s.messages = append(s.messages, *msg)

	// A structured-output run ends at the final_result call; there is nothing
	// further to stream.
	for _, call := range msg.ToolCalls {
		if call.Name == finalResultTool {
			if err := ValidateJSON(s.outputSchema, call.Args); err != nil {
				s.fail(&InvalidToolInputError{ToolName: finalResultTool, Cause: err})
				return false
			}
			s.rawOutput = call.Args
			s.done = true
			if s.runSpan != nil {
				s.runSpan.Finish()
				s.runSpan = nil
			}
			return false
		}
	}

	if len(msg.ToolCalls) == 0 {
		if len(s.outputSchema) > 0 {
			s.fail(fmt.Errorf("agent %q finished without calling %s", s.agentName, finalResultTool))
			return false
		}
		s.done = true
		if s.runSpan != nil {
			s.runSpan.Finish()
			s.runSpan = nil
		}
		return false
	}

	results, err := executeToolCalls(s.ctx, s.tools, msg.ToolCalls)
	if err != nil {
		s.fail(err)
		return false
	}
	s.messages = append(s.messages, results...)
	return true
}

func (s *TextStream) fail(err error) {
	s.err = err
	if s.runSpan != nil {
		s.runSpan.Status = sentry.SpanStatusInternalError
		s.runSpan.Finish()
		s.runSpan = nil
	}
}

// Delta returns the most recent text chunk.
func (s *TextStream) Delta() string { return s.delta }

// RawOutput returns the structured result of an output-schema run, if any.
func (s *TextStream) RawOutput() []byte { return s.rawOutput }

// Messages returns the conversation so far, including tool traffic.
func (s *TextStream) Messages() []Message {
	return append([]Message(nil), s.messages...)
}

func (s *TextStream) Usage() Usage { return s.usage }

func (s *TextStream) FinishReason() FinishReason { return s.finish }

func (s *TextStream) Err() error { return s.err }

func (s *TextStream) Close() error {
	if s.runSpan != nil {
		s.runSpan.Finish()
		s.runSpan = nil
	}
	if s.cur != nil {
		cur := s.cur
		s.cur = nil
		return cur.Close()
	}
	return nil
}

var errMissingMessage = &Error{Message: "stream ended without a final message"}
