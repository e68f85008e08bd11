package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var invoiceCmd = &cobra.Command{
	Use:   "invoice",
	Short: "Inspect invoices",
}

var invoiceListCmd = &cobra.Command{
	Use:   "list <username>",
	Short: "List a user's invoices",
	Args:  cobra.ExactArgs(1),
	RunE:  runInvoiceList,
}

func init() {
	invoiceCmd.AddCommand(invoiceListCmd)
	rootCmd.AddCommand(invoiceCmd)
}

func runInvoiceList(cmd *cobra.Command, args []string) error {
	s, err := loadServices()
	if err != nil {
		return err
	}

	invoices, err := s.Invoices.List(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("listing invoices: %w", err)
	}
	if len(invoices) == 0 {
		cmd.Println("No invoices.")
		return nil
	}

	for _, inv := range invoices {
		cmd.Printf("#%-5d %s %s  %-20s %8.2f  (%d items)\n",
			inv.Number, inv.Date, inv.Time, inv.CustomerName, inv.TotalAmount, len(inv.Items))
	}
	return nil
}
