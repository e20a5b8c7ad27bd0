package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/iqtestim/iqadmin/internal/cli/config"
)

// NewInitCmd creates the init command
func NewInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init <server-addr>",
		Short: "Register an admin server in iqadmin.json",
		Args:  cobra.ExactArgs(1),
		RunE:  runInit,
	}
}

func runInit(cmd *cobra.Command, args []string) error {
	serverAddr := args[0]

	currentDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get current directory: %w", err)
	}

	configPath := filepath.Join(currentDir, config.ConfigFileName)

	var cfg *config.Config
	isNewConfig := false

	// Check if config already exists
	if _, err := os.Stat(configPath); err == nil {
		cfg, err = config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load existing config: %w", err)
		}
		fmt.Println("Found existing iqadmin.json")
	} else {
		cfg = &config.Config{
			Servers: []config.Server{},
		}
		isNewConfig = true
	}

	// Check if server already exists
	for _, server := range cfg.Servers {
		if server.Addr == serverAddr {
			fmt.Printf("Server %s already exists in iqadmin.json\n", serverAddr)
			return nil
		}
	}

	alias := "production"
	if len(cfg.Servers) > 0 {
		alias = fmt.Sprintf("server-%d", len(cfg.Servers)+1)
	}

	cfg.Servers = append(cfg.Servers, config.Server{
		Addr:  serverAddr,
		Alias: alias,
	})

	if err := config.Save(configPath, cfg); err != nil {
		return err
	}

	if isNewConfig {
		fmt.Printf("✓ Created ./iqadmin.json with server %s (%s)\n", serverAddr, alias)
	} else {
		fmt.Printf("✓ Added server %s (%s) to ./iqadmin.json\n", serverAddr, alias)
	}

	fmt.Println("\nNext steps:")
	fmt.Println("  1. Complete first-run setup with 'curl -X POST https://<server>/api/setup' or the web console")
	fmt.Println("  2. Run 'iqadmin login' to authenticate")

	return nil
}
