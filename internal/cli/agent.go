package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bitop-dev/aiprobe/internal/agent"
	"github.com/bitop-dev/aiprobe/internal/envcfg"
	"github.com/bitop-dev/aiprobe/internal/mcpcheck"
	"github.com/bitop-dev/aiprobe/internal/scenarios"
)

var (
	agentScenario  string
	agentModel     string
	agentMode      string
	agentAll       bool
	agentMCPServer string
)

var agentCmd = &cobra.Command{
	Use:         "agent",
	Short:       "Run agent scenarios against live providers",
	Annotations: map[string]string{environmentAnnotation: "agent-test"},
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := registerProviders(); err != nil {
			return err
		}

		var mcpTools []agent.Tool
		if agentAll || agentScenario == "mcp" {
			tools, cleanup, err := bridgeMCPTools(cmd)
			if err != nil {
				return err
			}
			defer cleanup()
			mcpTools = tools
		}

		runner := &scenarios.Runner{
			Models:   []string{agentModel},
			MCPTools: mcpTools,
			Out:      cmd.OutOrStdout(),
		}
		if agentAll {
			return runner.RunAll(cmd.Context())
		}
		return runner.RunOne(cmd.Context(), agentScenario, agentModel, agentMode)
	},
}

func init() {
	agentCmd.Flags().StringVar(&agentScenario, "scenario", "support",
		"scenario to run: "+strings.Join(scenarios.Names, ", "))
	agentCmd.Flags().StringVar(&agentModel, "model", "openai:gpt-4o-mini", "provider:model reference")
	agentCmd.Flags().StringVar(&agentMode, "mode", "generate", "generate or stream")
	agentCmd.Flags().BoolVar(&agentAll, "all", false, "run the full scenario x mode matrix")
	agentCmd.Flags().StringVar(&agentMCPServer, "mcp-server", "",
		"command to spawn as MCP server for the mcp scenario (default: this binary's sdk server)")
}

// registerProviders binds every provider whose API key is configured. At
// least one must be available.
func registerProviders() error {
	registered := 0
	if key, err := envcfg.OpenAIKey(); err == nil {
		if err := agent.Register("openai", agent.NewOpenAIModel(key)); err == nil {
			registered++
		}
	}
	if key, err := envcfg.AnthropicKey(); err == nil {
		if err := agent.Register("anthropic", agent.NewAnthropicModel(key)); err == nil {
			registered++
		}
	}
	if registered == 0 {
		return fmt.Errorf("no provider API keys configured (set OPENAI_API_KEY or ANTHROPIC_API_KEY)")
	}
	return nil
}

// bridgeMCPTools spawns an MCP server and exposes its tools to the agent.
// With no --mcp-server the binary re-invokes itself as the sdk server.
func bridgeMCPTools(cmd *cobra.Command) ([]agent.Tool, func(), error) {
	command := agentMCPServer
	var cmdArgs []string
	if command == "" {
		exe, err := os.Executable()
		if err != nil {
			return nil, nil, err
		}
		command = exe
		cmdArgs = []string{"mcp", "serve", "--impl", "sdk"}
	} else {
		fields := strings.Fields(command)
		command = fields[0]
		cmdArgs = fields[1:]
	}

	session, err := mcpcheck.Connect(cmd.Context(), command, cmdArgs...)
	if err != nil {
		return nil, nil, err
	}
	tools, err := mcpcheck.ToolsFromSession(cmd.Context(), session)
	if err != nil {
		session.Close()
		return nil, nil, err
	}
	return tools, func() { session.Close() }, nil
}
