package cli

import (
	"github.com/spf13/cobra"

	"github.com/bitop-dev/aiprobe/internal/envcfg"
	"github.com/bitop-dev/aiprobe/internal/probes"
)

var genaiCmd = &cobra.Command{
	Use:         "genai",
	Short:       "Google GenAI (Vertex) probes",
	Annotations: map[string]string{environmentAnnotation: "genai-test"},
}

func genaiProbe(cmd *cobra.Command) (*probes.GenAIProbe, error) {
	project, err := envcfg.VertexProject()
	if err != nil {
		return nil, err
	}
	location, err := envcfg.VertexLocation()
	if err != nil {
		return nil, err
	}
	client, err := probes.NewGenAIClient(cmd.Context(), project, location)
	if err != nil {
		return nil, err
	}
	return &probes.GenAIProbe{Client: client, Out: cmd.OutOrStdout()}, nil
}

func init() {
	genaiCmd.AddCommand(
		&cobra.Command{
			Use:   "generate",
			Short: "Weather function round-trip via GenerateContent",
			RunE: func(cmd *cobra.Command, args []string) error {
				p, err := genaiProbe(cmd)
				if err != nil {
					return err
				}
				return p.Generate(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "concurrent",
			Short: "Parallel weather round-trips in one trace",
			RunE: func(cmd *cobra.Command, args []string) error {
				p, err := genaiProbe(cmd)
				if err != nil {
					return err
				}
				return p.Concurrent(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "chat",
			Short: "Multi-turn conversation on the chat surface",
			RunE: func(cmd *cobra.Command, args []string) error {
				p, err := genaiProbe(cmd)
				if err != nil {
					return err
				}
				return p.Chat(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "stream",
			Short: "Streamed generation with delta printing",
			RunE: func(cmd *cobra.Command, args []string) error {
				p, err := genaiProbe(cmd)
				if err != nil {
					return err
				}
				return p.Stream(cmd.Context())
			},
		},
	)
}
