package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the schema version and row counts",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	s, err := loadServices()
	if err != nil {
		return err
	}

	status, err := s.Maintenance.Status(cmd.Context())
	if err != nil {
		return fmt.Errorf("reading status: %w", err)
	}

	out := cmd.OutOrStdout()
	cmd.Println(render(out, headingStyle, "Store"))
	cmd.Printf("  Path:    %s\n", status.Path)

	state := render(out, okStyle, "up to date")
	if !status.UpToDate() {
		state = render(out, warnStyle, fmt.Sprintf("latest is v%d", status.Latest))
	}
	cmd.Printf("  Schema:  v%d (%s)\n", status.Version, state)
	cmd.Println()

	cmd.Println(render(out, headingStyle, "Tables"))
	tables := make([]string, 0, len(status.RowCounts))
	for name := range status.RowCounts {
		tables = append(tables, name)
	}
	sort.Strings(tables)
	for _, name := range tables {
		cmd.Printf("  %-10s %d %s\n", name, status.RowCounts[name], render(out, dimStyle, "rows"))
	}
	return nil
}
