package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/chatgate/chatgate/internal/service"
)

const minPasswordLen = 8

func newOperatorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "operator",
		Short: "Manage the operator console login",
	}

	cmd.AddCommand(newHashPasswordCmd())

	return cmd
}

// ---------- operator hash-password ----------

func newHashPasswordCmd() *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "hash-password",
		Short: "Print a bcrypt hash for auth.operator_password_hash",
		Example: `  chatgate operator hash-password            # prompts for the password
  chatgate operator hash-password --password secret`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHashPassword(password)
		},
	}

	cmd.Flags().StringVar(&password, "password", "", "Operator password (prompted if omitted)")

	return cmd
}

func runHashPassword(password string) error {
	// Prompt for password if not provided
	if password == "" {
		fmt.Fprint(os.Stderr, "Password: ")
		pwBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		fmt.Fprintln(os.Stderr)
		password = string(pwBytes)

		fmt.Fprint(os.Stderr, "Confirm password: ")
		confirmBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err != nil {
			return fmt.Errorf("failed to read confirmation: %w", err)
		}
		fmt.Fprintln(os.Stderr)

		if password != string(confirmBytes) {
			return fmt.Errorf("passwords do not match")
		}
	}

	if len(password) < minPasswordLen {
		return fmt.Errorf("password must be at least %d characters", minPasswordLen)
	}

	hash, err := service.HashPassword(password)
	if err != nil {
		return err
	}
	fmt.Println(hash)
	return nil
}
