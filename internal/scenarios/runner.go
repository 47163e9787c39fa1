package scenarios

import (
	"context"
	"fmt"
	"io"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/bitop-dev/aiprobe/internal/agent"
)

// Runner fans the scenario × model × mode matrix out concurrently, the way
// the async probes gather independent agent invocations.
type Runner struct {
	Models   []string
	MCPTools []agent.Tool
	Out      io.Writer

	mu sync.Mutex
}

// RunAll runs every scenario against every model in both generate and stream
// mode. The first failure cancels the rest.
func (r *Runner) RunAll(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, model := range r.Models {
		for _, scenario := range Names {
			if scenario == "mcp" && len(r.MCPTools) == 0 {
				r.printf("skip %s (no MCP tools bridged)\n", scenario)
				continue
			}
			for _, mode := range []string{"generate", "stream"} {
				model, scenario, mode := model, scenario, mode
				g.Go(func() error {
					return r.RunOne(ctx, scenario, model, mode)
				})
			}
		}
	}
	return g.Wait()
}

// RunOne executes a single cell of the matrix and prints its outcome.
func (r *Runner) RunOne(ctx context.Context, scenario, model, mode string) error {
	a, err := Build(scenario, model, r.MCPTools)
	if err != nil {
		return err
	}
	prompt, err := Prompt(scenario)
	if err != nil {
		return err
	}

	switch mode {
	case "generate":
		res, err := a.Run(ctx, prompt)
		if err != nil {
			return fmt.Errorf("%s/%s generate: %w", scenario, model, err)
		}
		r.printResult(scenario, model, mode, res)
		return nil
	case "stream":
		stream, err := a.RunStream(ctx, prompt)
		if err != nil {
			return fmt.Errorf("%s/%s stream: %w", scenario, model, err)
		}
		defer stream.Close()
		var text string
		for stream.Next() {
			text += stream.Delta()
		}
		if err := stream.Err(); err != nil {
			return fmt.Errorf("%s/%s stream: %w", scenario, model, err)
		}
		if raw := stream.RawOutput(); len(raw) > 0 {
			r.printf("[%s %s %s] %s\n", scenario, model, mode, raw)
		} else {
			r.printf("[%s %s %s] %s\n", scenario, model, mode, text)
		}
		return nil
	}
	return fmt.Errorf("unknown mode %q (known: generate, stream)", mode)
}

func (r *Runner) printResult(scenario, model, mode string, res *agent.Result) {
	if len(res.RawOutput) > 0 {
		r.printf("[%s %s %s] %s\n", scenario, model, mode, res.RawOutput)
		return
	}
	r.printf("[%s %s %s] %s\n", scenario, model, mode, res.Text)
}

func (r *Runner) printf(format string, args ...any) {
	if r.Out == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.Out, format, args...)
}
