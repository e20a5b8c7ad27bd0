package commands

import (
	"context"
	"fmt"

	"github.com/iqtestim/iqadmin/internal/cli/client"
	"github.com/iqtestim/iqadmin/internal/cli/config"
	"github.com/iqtestim/iqadmin/internal/cli/serverselect"
	"github.com/iqtestim/iqadmin/internal/cli/session"
	"github.com/iqtestim/iqadmin/internal/cli/tokenstore"
)

// getSelectedServer loads the config and returns the selected server.
// This is common logic used by most commands.
func getSelectedServer(serverAlias string) (*config.Server, error) {
	cfg, err := config.LoadFromCurrentDir()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w\nRun 'iqadmin init' to create a configuration file", err)
	}

	server, err := serverselect.ResolveServer(cfg, serverAlias)
	if err != nil {
		return nil, err
	}

	if server.Addr == "" {
		return nil, fmt.Errorf("server address is empty. Please edit iqadmin.json and add a valid address")
	}

	return server, nil
}

// sessionEnv bundles the client and session machinery for one server
type sessionEnv struct {
	server *config.Server
	client *client.Client
	ctrl   *session.Controller
	guard  *session.Guard
}

// openSession resolves the server and starts session restore in the
// background. Commands go through guard.Ensure, which blocks until restore
// has resolved.
func openSession(serverAlias string, tokens tokenstore.Store) (*sessionEnv, error) {
	server, err := getSelectedServer(serverAlias)
	if err != nil {
		return nil, err
	}

	apiClient := client.New(server.Addr, tokens)
	ctrl := session.NewController(server.Addr, tokens, apiClient)

	go func() {
		_ = ctrl.Restore(context.Background())
	}()

	return &sessionEnv{
		server: server,
		client: apiClient,
		ctrl:   ctrl,
		guard:  session.NewGuard(ctrl),
	}, nil
}
