package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/gido-dev/gido/internal/app"
	"github.com/gido-dev/gido/internal/errors"
	"github.com/gido-dev/gido/internal/monitor"
)

var notifyTestCmd = &cobra.Command{
	Use:   "notify-test",
	Short: "Send a test back-online notification",
	Long: `Sends the back-online notification for the configured target through
the configured notifiers, with "[test]" prefixed to the subject. Use it to
check SMTP credentials and the on_online hook without waiting for an outage.`,
	Args: cobra.NoArgs,
	RunE: runNotifyTest,
}

func init() {
	rootCmd.AddCommand(notifyTestCmd)
}

func runNotifyTest(cmd *cobra.Command, args []string) error {
	mc := appConfig().Monitor

	notifier, err := app.Default.Notifier()
	if err != nil {
		return err
	}

	msg := monitor.OnlineMessage(mc, time.Time{}, time.Now())
	msg.Subject = "[test] " + msg.Subject

	logInfo("Sending test notification via %s", notifier.Name())
	if err := notifier.Notify(cmd.Context(), msg); err != nil {
		var gidoErr *errors.Error
		if errors.As(err, &gidoErr) && gidoErr.Auth {
			logError("The mail server rejected the credentials; check smtp.username and the app password")
		}
		return err
	}

	logSuccess("Test notification sent")
	return nil
}
