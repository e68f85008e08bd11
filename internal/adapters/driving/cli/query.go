package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/invoicedb/internal/core/domain"
)

var queryCmd = &cobra.Command{
	Use:   "query <statement> [args...]",
	Short: "Run a query and print the rows",
	Long: `Run a statement that returns rows. Remaining arguments are bound to
the ? placeholders in order, as text.

Example:
  invoicedb query "SELECT * FROM invoices WHERE username = ?" alice`,
	Args: cobra.MinimumNArgs(1),
	RunE: runQuery,
}

var execCmd = &cobra.Command{
	Use:   "exec <statement> [args...]",
	Short: "Run a statement and print the affected row count",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runExec,
}

func init() {
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(execCmd)
}

func bindArgs(args []string) []any {
	bound := make([]any, len(args))
	for i, a := range args {
		bound[i] = a
	}
	return bound
}

func runQuery(cmd *cobra.Command, args []string) error {
	s, err := loadServices()
	if err != nil {
		return err
	}

	rows, err := s.Store.Query(cmd.Context(), args[0], bindArgs(args[1:])...)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		cmd.Println("No rows.")
		return nil
	}

	out := cmd.OutOrStdout()
	cols := columnsOf(rows[0])
	fmt.Fprintln(out, render(out, headingStyle, strings.Join(cols, "\t")))
	for _, row := range rows {
		values := make([]string, len(cols))
		for i, col := range cols {
			values[i] = formatValue(row, col)
		}
		fmt.Fprintln(out, strings.Join(values, "\t"))
	}
	return nil
}

func runExec(cmd *cobra.Command, args []string) error {
	s, err := loadServices()
	if err != nil {
		return err
	}

	n, err := s.Store.Update(cmd.Context(), args[0], bindArgs(args[1:])...)
	if err != nil {
		return err
	}
	cmd.Printf("%d rows affected\n", n)
	return nil
}

func columnsOf(row domain.Row) []string {
	cols := make([]string, 0, len(row))
	for col := range row {
		cols = append(cols, col)
	}
	sort.Strings(cols)
	return cols
}

func formatValue(row domain.Row, col string) string {
	if row[col] == nil {
		return "NULL"
	}
	if f, ok := row[col].(float64); ok {
		return fmt.Sprintf("%g", f)
	}
	return row.String(col)
}
