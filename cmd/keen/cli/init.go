package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize the application database",
		Long: `Run the startup sequence: test connectivity, apply schema and seed data,
and verify the administrator account. Exits non-zero if any phase fails.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(cmd)
		},
	}
}

func runInit(cmd *cobra.Command) error {
	orch, cfg, _, err := buildOrchestrator()
	if err != nil {
		return err
	}

	if err := orch.Initialize(context.Background()); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "database initialized; administrator %s verified\n", cfg.Admin.Email)
	return nil
}
