package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gido-dev/gido/internal/config"
	"github.com/gido-dev/gido/internal/tui"
)

var auditLogCmd = &cobra.Command{
	Use:   "audit-log [target]",
	Short: "Display the monitor audit trail for a target",
	Long: `Displays the state changes and errors the monitor recorded for a
target (the configured monitor.name by default).`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAuditLog,
}

var (
	auditLogJSON   bool
	auditLogList   bool
	auditLogClear  bool
	auditLogBrowse bool
)

func init() {
	auditLogCmd.Flags().BoolVar(&auditLogJSON, "json", false, "Output events as JSON lines")
	auditLogCmd.Flags().BoolVar(&auditLogList, "list", false, "List targets that have an audit log")
	auditLogCmd.Flags().BoolVar(&auditLogClear, "clear", false, "Delete the target's audit log")
	auditLogCmd.Flags().BoolVar(&auditLogBrowse, "browse", false, "Browse events interactively")
	rootCmd.AddCommand(auditLogCmd)
}

func runAuditLog(cmd *cobra.Command, args []string) error {
	al := auditLogger()
	out := cmd.OutOrStdout()

	if auditLogList {
		targets, err := al.Targets()
		if err != nil {
			return err
		}
		if len(targets) == 0 {
			logInfo("No audit logs found")
			return nil
		}
		for _, t := range targets {
			fmt.Fprintln(out, t)
		}
		return nil
	}

	name := appConfig().Monitor.Name
	if len(args) == 1 {
		name = args[0]
	}
	if err := config.ValidateTargetName(name); err != nil {
		return err
	}

	if auditLogClear {
		if err := al.Remove(name); err != nil {
			return fmt.Errorf("failed to remove audit log: %w", err)
		}
		logSuccess("Cleared audit log for %s", name)
		return nil
	}

	events, err := al.Events(name)
	if err != nil {
		return fmt.Errorf("failed to read audit log: %w", err)
	}

	if auditLogBrowse {
		return tui.RunEventBrowser(name, events)
	}

	if len(events) == 0 {
		logInfo("No events found for %s", name)
		return nil
	}

	if auditLogJSON {
		for _, e := range events {
			data, err := json.Marshal(e)
			if err != nil {
				return fmt.Errorf("failed to marshal event: %w", err)
			}
			fmt.Fprintln(out, string(data))
		}
		return nil
	}

	fmt.Fprint(out, tui.FormatEvents(name, events))
	return nil
}
