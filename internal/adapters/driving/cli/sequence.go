package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var nextNumberCmd = &cobra.Command{
	Use:   "next-number <username>",
	Short: "Allocate the next invoice number of a user",
	Long: `Allocate the next invoice number of a user and print it. The user's
counter is advanced; the number is not attached to any invoice.`,
	Args: cobra.ExactArgs(1),
	RunE: runNextNumber,
}

func init() {
	rootCmd.AddCommand(nextNumberCmd)
}

func runNextNumber(cmd *cobra.Command, args []string) error {
	s, err := loadServices()
	if err != nil {
		return err
	}

	n, err := s.Invoices.NextNumber(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("allocating number: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), n)
	return nil
}
