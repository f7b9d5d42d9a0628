package cli

import (
	"github.com/spf13/cobra"
)

func newCleanupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Cleanup commands",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "run",
		Short: "Run a cleanup sweep now (admin)",
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := client.Sweep(cmd.Context())
			if err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	})

	return cmd
}
