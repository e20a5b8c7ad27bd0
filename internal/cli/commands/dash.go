package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/iqtestim/iqadmin/internal/cli/session"
	"github.com/iqtestim/iqadmin/internal/cli/tokenstore"
)

// NewDashCmd creates the dash command
func NewDashCmd() *cobra.Command {
	var serverAlias string
	var web bool
	var watch bool

	cmd := &cobra.Command{
		Use:   "dash",
		Short: "Show the platform overview (or open the web console)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if web {
				return runDashWeb(serverAlias)
			}
			return runDash(serverAlias, tokenstore.Default, watch)
		},
	}

	cmd.Flags().StringVar(&serverAlias, "server", "", "Server alias (uses selected server if not specified)")
	cmd.Flags().BoolVar(&web, "web", false, "Open the web console in the browser instead")
	cmd.Flags().BoolVar(&watch, "watch", false, "Refresh the overview every 10 seconds until interrupted")

	return cmd
}

func runDash(serverAlias string, tokens tokenstore.Store, watch bool) error {
	env, err := openSession(serverAlias, tokens)
	if err != nil {
		return err
	}

	if _, err := env.guard.Ensure(context.Background()); err != nil {
		return err
	}

	if err := printOverview(env, os.Stdout); err != nil {
		return err
	}
	if !watch {
		return nil
	}

	// Abort the watch loop the moment a background 401 ends the session
	transitions := env.guard.Watch()
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case state := <-transitions:
			if state == session.StateAnonymous {
				return fmt.Errorf("session expired: %w", session.ErrNotAuthenticated)
			}
		case <-ticker.C:
			if err := printOverview(env, os.Stdout); err != nil {
				return err
			}
		}
	}
}

func printOverview(env *sessionEnv, out io.Writer) error {
	overview, err := env.client.DashboardOverview()
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Overview for %s (%s):\n\n", env.server.Alias, env.server.Addr)

	keys := make([]string, 0, len(overview))
	for key := range overview {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, key := range keys {
		fmt.Fprintf(w, "%s\t%v\n", key, overview[key])
	}
	return w.Flush()
}

func runDashWeb(serverAlias string) error {
	server, err := getSelectedServer(serverAlias)
	if err != nil {
		return err
	}

	dashboardURL := fmt.Sprintf("https://%s", server.Addr)

	fmt.Printf("Opening console for %s (%s)...\n", server.Alias, server.Addr)
	fmt.Printf("URL: %s\n", dashboardURL)

	if err := openBrowser(dashboardURL); err != nil {
		return fmt.Errorf("failed to open browser: %w\nPlease visit: %s", err, dashboardURL)
	}

	return nil
}

// openBrowser opens the URL in the default browser
func openBrowser(url string) error {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}

	return cmd.Start()
}
