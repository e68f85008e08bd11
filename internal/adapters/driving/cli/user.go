package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var userPassword string

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage users",
}

var userAddCmd = &cobra.Command{
	Use:   "add <username>",
	Short: "Register a user",
	Long: `Register a user with an empty invoice counter. The password is read
from --password, or prompted for without echo on a terminal.`,
	Args: cobra.ExactArgs(1),
	RunE: runUserAdd,
}

var userShowCmd = &cobra.Command{
	Use:   "show <username>",
	Short: "Show a user and their invoice counter",
	Args:  cobra.ExactArgs(1),
	RunE:  runUserShow,
}

func init() {
	userAddCmd.Flags().StringVar(&userPassword, "password", "", "Password of the new user")
	userCmd.AddCommand(userAddCmd)
	userCmd.AddCommand(userShowCmd)
	rootCmd.AddCommand(userCmd)
}

func runUserAdd(cmd *cobra.Command, args []string) error {
	s, err := loadServices()
	if err != nil {
		return err
	}

	password := userPassword
	if password == "" {
		cmd.Print("Password: ")
		password = readPassword()
		cmd.Println()
	}

	user, err := s.Users.Register(cmd.Context(), args[0], password)
	if err != nil {
		return fmt.Errorf("registering user: %w", err)
	}
	cmd.Printf("Registered %s (id %d)\n", user.Username, user.ID)
	return nil
}

func runUserShow(cmd *cobra.Command, args []string) error {
	s, err := loadServices()
	if err != nil {
		return err
	}

	user, err := s.Users.Get(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	state := "logged out"
	if user.LoggedIn {
		state = "logged in"
	}
	cmd.Println(render(cmd.OutOrStdout(), headingStyle, user.Username))
	cmd.Printf("  ID:             %d\n", user.ID)
	cmd.Printf("  Status:         %s\n", state)
	cmd.Printf("  Invoice number: %d\n", user.InvoiceNumber)
	return nil
}
