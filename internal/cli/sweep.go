package cli

import (
	"github.com/spf13/cobra"
)

// NewSweepCmd deletes quizzes older than the retention window.
func NewSweepCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Delete quizzes past the retention window",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := buildEnv(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer e.Close()

			deleted, err := e.sweeper.Sweep(cmd.Context())
			if err != nil {
				return err
			}
			e.log.Info("sweep finished", "deleted", deleted)
			return nil
		},
	}
}
