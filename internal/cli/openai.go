package cli

import (
	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/spf13/cobra"

	"github.com/bitop-dev/aiprobe/internal/envcfg"
	"github.com/bitop-dev/aiprobe/internal/probes"
)

var openaiCmd = &cobra.Command{
	Use:   "openai",
	Short: "OpenAI probes",
}

var truncationCmd = &cobra.Command{
	Use:         "truncation",
	Short:       "Oversized conversation to exercise message truncation in traces",
	Annotations: map[string]string{environmentAnnotation: "openai-test-truncation"},
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := envcfg.OpenAIKey()
		if err != nil {
			return err
		}
		p := &probes.OpenAIProbe{
			Client: openai.NewClient(option.WithAPIKey(key)),
			Out:    cmd.OutOrStdout(),
		}
		return p.Truncation(cmd.Context())
	},
}

func init() {
	openaiCmd.AddCommand(truncationCmd)
}
