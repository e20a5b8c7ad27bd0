package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iqtestim/iqadmin/internal/cli/tokenstore"
)

// NewWhoamiCmd creates the whoami command
func NewWhoamiCmd() *cobra.Command {
	var serverAlias string

	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the account behind the current session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWhoami(serverAlias, tokenstore.Default)
		},
	}

	cmd.Flags().StringVar(&serverAlias, "server", "", "Server alias (uses selected server if not specified)")

	return cmd
}

func runWhoami(serverAlias string, tokens tokenstore.Store) error {
	env, err := openSession(serverAlias, tokens)
	if err != nil {
		return err
	}

	identity, err := env.guard.Ensure(context.Background())
	if err != nil {
		return err
	}

	fmt.Printf("Server: %s (%s)\n", env.server.Alias, env.server.Addr)
	fmt.Printf("User:   %s (%s)\n", identity.Name, identity.Email)
	fmt.Printf("Role:   %s\n", identity.Role)
	return nil
}
