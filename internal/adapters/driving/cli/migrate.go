package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or upgrade the store to the latest schema",
	Long: `Open the store, creating it if it does not exist, and apply every
pending migration step. Each step runs in its own transaction; if one fails
the store stays at the last version that committed.`,
	Args: cobra.NoArgs,
	RunE: runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	s, err := loadServices()
	if err != nil {
		return err
	}

	status, err := s.Maintenance.Status(cmd.Context())
	if err != nil {
		return fmt.Errorf("migrating store: %w", err)
	}

	out := cmd.OutOrStdout()
	cmd.Printf("%s %s at schema v%d\n", render(out, okStyle, "ok"), status.Path, status.Version)
	return nil
}
