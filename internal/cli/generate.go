package cli

import (
	"github.com/spf13/cobra"
)

// NewGenerateCmd ensures today's quiz exists, optionally regenerating it.
func NewGenerateCmd(configPath *string) *cobra.Command {
	var regenerate bool

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate today's quiz if it does not exist",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := buildEnv(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer e.Close()

			if regenerate {
				return e.lifecycle.RegenerateToday(cmd.Context())
			}
			return e.lifecycle.EnsureToday(cmd.Context(), true)
		},
	}

	cmd.Flags().BoolVar(&regenerate, "regenerate", false, "delete today's quiz and generate a fresh one")
	return cmd
}
