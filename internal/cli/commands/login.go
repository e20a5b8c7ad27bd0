package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/iqtestim/iqadmin/internal/cli/client"
	"github.com/iqtestim/iqadmin/internal/cli/session"
	"github.com/iqtestim/iqadmin/internal/cli/tokenstore"
)

// NewLoginCmd creates the login command
func NewLoginCmd() *cobra.Command {
	var email, password, serverAlias string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate with an admin server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(email, password, serverAlias, tokenstore.Default)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address (or set IQADMIN_EMAIL)")
	cmd.Flags().StringVar(&password, "password", "", "Password (or set IQADMIN_PASSWORD, will prompt if not provided)")
	cmd.Flags().StringVar(&serverAlias, "server", "", "Server alias (uses selected server if not specified)")

	return cmd
}

func runLogin(email, password, serverAlias string, tokens tokenstore.Store) error {
	// Check for environment variables (useful for CI/CD)
	if email == "" {
		email = os.Getenv("IQADMIN_EMAIL")
	}
	if password == "" {
		password = os.Getenv("IQADMIN_PASSWORD")
	}

	if email == "" {
		return fmt.Errorf("email is required (use --email flag or IQADMIN_EMAIL env var)")
	}

	env, err := openSession(serverAlias, tokens)
	if err != nil {
		return err
	}

	// Prompt for password if not provided via flag or env var
	if password == "" {
		if term.IsTerminal(int(syscall.Stdin)) {
			fmt.Print("Password: ")
			bytePassword, err := term.ReadPassword(int(syscall.Stdin))
			if err != nil {
				return fmt.Errorf("failed to read password: %w", err)
			}
			password = string(bytePassword)
			fmt.Println() // New line after password input
		} else {
			return fmt.Errorf("password is required in non-interactive mode (use --password flag or IQADMIN_PASSWORD env var)")
		}
	}

	fmt.Printf("Logging in to %s (%s)...\n", env.server.Alias, env.server.Addr)

	identity, err := env.ctrl.Login(context.Background(), email, password)
	if err != nil {
		if errors.Is(err, session.ErrNotPrivileged) {
			return fmt.Errorf("login failed: %w", err)
		}
		var apiErr *client.APIError
		if errors.As(err, &apiErr) && apiErr.Status == 401 {
			return fmt.Errorf("login failed: invalid credentials")
		}
		return err
	}

	fmt.Println("✓ Login successful!")
	fmt.Printf("  User: %s (%s)\n", identity.Name, identity.Email)
	fmt.Printf("  Role: %s\n", identity.Role)

	return nil
}
