// Package cli wires the probes into a cobra command tree. Telemetry is
// initialized once for the whole invocation and flushed on exit.
package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/bitop-dev/aiprobe/internal/envcfg"
	"github.com/bitop-dev/aiprobe/internal/telemetry"
)

const release = "aiprobe@1.0.0"

// environmentAnnotation lets a leaf command pick its own default Sentry
// environment, matching the per-probe defaults the scenarios were written
// with. ENV always overrides.
const environmentAnnotation = "environment"

var debugFlag bool

var rootCmd = &cobra.Command{
	Use:           "aiprobe",
	Short:         "Smoke probes for AI SDK and MCP telemetry",
	Long:          "aiprobe exercises AI provider SDKs, agent tool loops and MCP servers end to end, emitting Sentry traces for every run.",
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		envcfg.Load()

		fallback := "development"
		for c := cmd; c != nil; c = c.Parent() {
			if v, ok := c.Annotations[environmentAnnotation]; ok {
				fallback = v
				break
			}
		}
		if err := telemetry.Init(telemetry.Options{
			DSN:         envcfg.SentryDSN(),
			Environment: envcfg.Environment(fallback),
			Release:     release,
			Debug:       debugFlag,
		}); err != nil {
			return err
		}
		telemetry.SetUser("test-user-123", "test@example.com")
		telemetry.SetTag("test_type", cmd.Name())
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		telemetry.Flush(2 * time.Second)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "enable Sentry SDK debug logging")

	rootCmd.AddCommand(genaiCmd)
	rootCmd.AddCommand(openaiCmd)
	rootCmd.AddCommand(agentCmd)
	rootCmd.AddCommand(mcpCmd)
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}
