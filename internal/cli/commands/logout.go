package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iqtestim/iqadmin/internal/cli/tokenstore"
)

// NewLogoutCmd creates the logout command
func NewLogoutCmd() *cobra.Command {
	var serverAlias string

	cmd := &cobra.Command{
		Use:   "logout",
		Short: "End the current session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogout(serverAlias, tokenstore.Default)
		},
	}

	cmd.Flags().StringVar(&serverAlias, "server", "", "Server alias (uses selected server if not specified)")

	return cmd
}

func runLogout(serverAlias string, tokens tokenstore.Store) error {
	server, err := getSelectedServer(serverAlias)
	if err != nil {
		return err
	}

	// Logging out without a session is fine, it stays a no-op
	if err := tokens.Clear(server.Addr); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}

	fmt.Printf("✓ Logged out of %s (%s)\n", server.Alias, server.Addr)
	return nil
}
