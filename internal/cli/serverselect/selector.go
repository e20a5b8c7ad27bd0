package serverselect

import (
	"fmt"

	"github.com/manifoldco/promptui"

	"github.com/iqtestim/iqadmin/internal/cli/config"
	"github.com/iqtestim/iqadmin/internal/cli/userconfig"
)

// ResolveServer determines which server to use based on the following priority:
// 1. If serverAlias flag is provided, use that server
// 2. If user has a selected server in their local config, use that
// 3. If only one server in project config, use that
// 4. Otherwise, prompt user to select a server interactively
func ResolveServer(projectConfig *config.Config, serverAlias string) (*config.Server, error) {
	// Priority 1: Use server alias if provided
	if serverAlias != "" {
		server, err := projectConfig.GetServerByAlias(serverAlias)
		if err != nil {
			return nil, err
		}
		return server, nil
	}

	// Priority 2: Use selected server from user config
	selectedAddr, err := userconfig.GetSelectedServer()
	if err != nil {
		return nil, fmt.Errorf("failed to load user config: %w", err)
	}

	if selectedAddr != "" {
		server, err := getServerByAddr(projectConfig, selectedAddr)
		if err != nil {
			// Selected server no longer exists in project config, clear it and continue
			_ = userconfig.SetSelectedServer("")
		} else {
			return server, nil
		}
	}

	// Priority 3: If only one server, use it automatically
	if len(projectConfig.Servers) == 1 {
		server := &projectConfig.Servers[0]
		if err := userconfig.SetSelectedServer(server.Addr); err != nil {
			// Don't fail if we can't save, just continue
			fmt.Printf("Warning: failed to save selected server: %v\n", err)
		}
		return server, nil
	}

	// Priority 4: Prompt user to select a server
	server, err := PromptServerSelection(projectConfig)
	if err != nil {
		return nil, err
	}

	if err := userconfig.SetSelectedServer(server.Addr); err != nil {
		fmt.Printf("Warning: failed to save selected server: %v\n", err)
	}

	return server, nil
}

// PromptServerSelection shows an interactive prompt for the user to select a server
func PromptServerSelection(projectConfig *config.Config) (*config.Server, error) {
	if len(projectConfig.Servers) == 0 {
		return nil, fmt.Errorf("no servers configured in iqadmin.json")
	}

	type serverOption struct {
		Label  string
		Server *config.Server
	}

	options := make([]serverOption, len(projectConfig.Servers))
	for i := range projectConfig.Servers {
		server := &projectConfig.Servers[i]
		options[i] = serverOption{
			Label:  fmt.Sprintf("%s (%s)", server.Alias, server.Addr),
			Server: server,
		}
	}

	templates := &promptui.SelectTemplates{
		Label:    "{{ . }}",
		Active:   "> {{ .Label | cyan }}",
		Inactive: "  {{ .Label }}",
		Selected: "{{ .Label | green }}",
	}

	prompt := promptui.Select{
		Label:     "Select a server",
		Items:     options,
		Templates: templates,
		Size:      10,
	}

	index, _, err := prompt.Run()
	if err != nil {
		return nil, fmt.Errorf("server selection cancelled: %w", err)
	}

	return options[index].Server, nil
}

// getServerByAddr finds a server in the config by its address
func getServerByAddr(cfg *config.Config, addr string) (*config.Server, error) {
	for i := range cfg.Servers {
		if cfg.Servers[i].Addr == addr {
			return &cfg.Servers[i], nil
		}
	}
	return nil, fmt.Errorf("server with address '%s' not found in project config", addr)
}

// GetServerByAddrOrAlias finds a server by address or alias
func GetServerByAddrOrAlias(cfg *config.Config, addrOrAlias string) (*config.Server, error) {
	for i := range cfg.Servers {
		if cfg.Servers[i].Addr == addrOrAlias {
			return &cfg.Servers[i], nil
		}
	}

	for i := range cfg.Servers {
		if cfg.Servers[i].Alias == addrOrAlias {
			return &cfg.Servers[i], nil
		}
	}

	return nil, fmt.Errorf("server with address or alias '%s' not found", addrOrAlias)
}
