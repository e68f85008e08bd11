package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var productCmd = &cobra.Command{
	Use:   "product",
	Short: "Inspect products",
}

var productListCmd = &cobra.Command{
	Use:   "list <username>",
	Short: "List a user's products",
	Args:  cobra.ExactArgs(1),
	RunE:  runProductList,
}

func init() {
	productCmd.AddCommand(productListCmd)
	rootCmd.AddCommand(productCmd)
}

func runProductList(cmd *cobra.Command, args []string) error {
	s, err := loadServices()
	if err != nil {
		return err
	}

	products, err := s.Products.List(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("listing products: %w", err)
	}
	if len(products) == 0 {
		cmd.Println("No products.")
		return nil
	}

	cmd.Printf("%-5s %-20s %8s %8s %8s\n", "ID", "Name", "Small", "Medium", "Large")
	for _, p := range products {
		cmd.Printf("%-5d %-20s %8.2f %8.2f %8.2f\n", p.ID, p.Name, p.PriceSmall, p.PriceMedium, p.PriceLarge)
	}
	return nil
}
