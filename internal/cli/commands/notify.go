package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iqtestim/iqadmin/internal/cli/tokenstore"
)

// NewSendCmd creates the send command for dispatching notifications
func NewSendCmd() *cobra.Command {
	var serverAlias string

	cmd := &cobra.Command{
		Use:   "send <notification-id>",
		Short: "Dispatch a notification immediately",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSend(args[0], serverAlias, tokenstore.Default)
		},
	}

	cmd.Flags().StringVar(&serverAlias, "server", "", "Server alias (uses selected server if not specified)")

	return cmd
}

func runSend(notificationID, serverAlias string, tokens tokenstore.Store) error {
	env, err := openSession(serverAlias, tokens)
	if err != nil {
		return err
	}

	if _, err := env.guard.Ensure(context.Background()); err != nil {
		return err
	}

	if err := env.client.SendNotification(notificationID); err != nil {
		return fmt.Errorf("failed to send notification: %w", err)
	}

	fmt.Printf("✓ Notification %s queued for dispatch\n", notificationID)
	return nil
}
