package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iqtestim/iqadmin/internal/cli/config"
	"github.com/iqtestim/iqadmin/internal/cli/serverselect"
	"github.com/iqtestim/iqadmin/internal/cli/userconfig"
)

// NewSelectServerCmd creates the select-server command
func NewSelectServerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "select-server [addr-or-alias]",
		Short: "Select the server to use for commands",
		Long: `Select the server to use for commands.

If no param is provided, an interactive prompt will be shown.

Examples:
  $ iqadmin select-server                   # Interactive selection
  $ iqadmin select-server admin.example.com # Select by address
  $ iqadmin select-server production        # Select by alias`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var addrOrAlias string
			if len(args) > 0 {
				addrOrAlias = args[0]
			}
			return runSelectServer(addrOrAlias)
		},
	}

	return cmd
}

func runSelectServer(addrOrAlias string) error {
	cfg, err := config.LoadFromCurrentDir()
	if err != nil {
		return fmt.Errorf("failed to load config: %w\nRun 'iqadmin init' to create a configuration file", err)
	}

	var server *config.Server

	if addrOrAlias != "" {
		server, err = serverselect.GetServerByAddrOrAlias(cfg, addrOrAlias)
		if err != nil {
			return err
		}
	} else {
		server, err = serverselect.PromptServerSelection(cfg)
		if err != nil {
			return err
		}
	}

	if err := userconfig.SetSelectedServer(server.Addr); err != nil {
		return fmt.Errorf("failed to save selected server: %w", err)
	}

	fmt.Printf("Selected server: %s (%s)\n", server.Alias, server.Addr)
	return nil
}
