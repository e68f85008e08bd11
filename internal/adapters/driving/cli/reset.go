package cli

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var resetForce bool

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete the store and recreate it empty",
	Long: `Delete the store file and recreate it at the latest schema version.
Every user, product and invoice is lost.

Without --force the command asks for confirmation on a terminal and refuses
to run otherwise.`,
	Args: cobra.NoArgs,
	RunE: runReset,
}

func init() {
	resetCmd.Flags().BoolVar(&resetForce, "force", false, "Reset without asking")
	rootCmd.AddCommand(resetCmd)
}

func runReset(cmd *cobra.Command, _ []string) error {
	if !resetForce {
		if !isTerminal(stdin) {
			return errors.New("refusing to reset without --force")
		}
		cmd.Print("This deletes every row in the store. Type 'yes' to continue: ")
		reader := bufio.NewReader(stdin)
		answer, _ := reader.ReadString('\n') //nolint:errcheck // empty answer aborts
		if strings.TrimSpace(answer) != "yes" {
			cmd.Println("Aborted.")
			return nil
		}
	}

	s, err := loadServices()
	if err != nil {
		return err
	}
	if err := s.Maintenance.Reset(cmd.Context()); err != nil {
		return fmt.Errorf("resetting store: %w", err)
	}

	cmd.Printf("%s store reset\n", render(cmd.OutOrStdout(), okStyle, "ok"))
	return nil
}
