package cli

import (
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bitop-dev/aiprobe/internal/mcpcheck"
	"github.com/bitop-dev/aiprobe/internal/mcpserver"
	"github.com/bitop-dev/aiprobe/internal/telemetry"
)

var (
	mcpImpl string
	mcpHTTP bool
	mcpHost string
	mcpPort int

	mcpCheckCommand string
)

var mcpCmd = &cobra.Command{
	Use:         "mcp",
	Short:       "Serve or smoke-check the example MCP server",
	Annotations: map[string]string{environmentAnnotation: "mcp-test"},
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve tools, resources and prompts at the chosen abstraction level",
	RunE: func(cmd *cobra.Command, args []string) error {
		tx := telemetry.StartTransaction(cmd.Context(), "mcp-serve-"+mcpImpl, telemetry.OpMCPServer)
		defer tx.Finish()
		ctx := tx.Context()

		switch mcpImpl {
		case "raw":
			if mcpHTTP {
				return fmt.Errorf("the raw server only speaks stdio")
			}
			s := &mcpserver.RawServer{Name: "aiprobe-raw-server"}
			return s.Run(ctx, os.Stdin, os.Stdout)
		case "sdk":
			if mcpHTTP {
				addr := fmt.Sprintf("%s:%d", mcpHost, mcpPort)
				fmt.Fprintf(cmd.ErrOrStderr(), "serving streamable HTTP on %s\n", addr)
				return http.ListenAndServe(addr, mcpserver.SDKHTTPHandler("aiprobe-sdk-server"))
			}
			return mcpserver.RunSDKStdio(ctx, "aiprobe-sdk-server")
		case "mcpgo":
			if mcpHTTP {
				s := mcpserver.NewMCPGoSSEServer("aiprobe-mcpgo-server", mcpHost, mcpPort)
				fmt.Fprintf(cmd.ErrOrStderr(), "serving SSE on %s\n", s.Endpoint())
				return s.Start()
			}
			return mcpserver.RunMCPGoStdio("aiprobe-mcpgo-server")
		}
		return fmt.Errorf("unknown impl %q (known: raw, sdk, mcpgo)", mcpImpl)
	},
}

var mcpCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Spawn a server over stdio and verify its tools, resources and prompts",
	RunE: func(cmd *cobra.Command, args []string) error {
		tx := telemetry.StartTransaction(cmd.Context(), "mcp-check", telemetry.OpMCPServer)
		defer tx.Finish()
		ctx := tx.Context()

		command := mcpCheckCommand
		var cmdArgs []string
		if command == "" {
			exe, err := os.Executable()
			if err != nil {
				return err
			}
			command = exe
			cmdArgs = []string{"mcp", "serve", "--impl", mcpImpl}
		} else {
			fields := strings.Fields(command)
			command = fields[0]
			cmdArgs = fields[1:]
		}

		if err := mcpcheck.Run(ctx, cmd.OutOrStdout(), command, cmdArgs...); err != nil {
			telemetry.CaptureErr(err)
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "check passed")
		return nil
	},
}

func init() {
	mcpCmd.PersistentFlags().StringVar(&mcpImpl, "impl", "sdk", "server implementation: raw, sdk or mcpgo")
	mcpServeCmd.Flags().BoolVar(&mcpHTTP, "http", false, "serve over HTTP instead of stdio")
	mcpServeCmd.Flags().StringVar(&mcpHost, "host", "localhost", "HTTP listen host")
	mcpServeCmd.Flags().IntVar(&mcpPort, "port", 8080, "HTTP listen port")
	mcpCheckCmd.Flags().StringVar(&mcpCheckCommand, "command", "",
		"server command to spawn (default: this binary's chosen --impl over stdio)")

	mcpCmd.AddCommand(mcpServeCmd)
	mcpCmd.AddCommand(mcpCheckCmd)
}
