package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gido-dev/gido/internal/health"
	"github.com/gido-dev/gido/internal/monitor"
	"github.com/gido-dev/gido/internal/page"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check the monitored page once",
	Long: `Fetches the monitored page once and reports whether it shows the
maintenance marker. Sends no notification and records nothing.

Exit codes: 0 online, 1 maintenance, 5 fetch failed.`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE:         runCheck,
}

var (
	checkURL    string
	checkMarker string
)

func init() {
	checkCmd.Flags().StringVar(&checkURL, "url", "", "Page to check (default from config)")
	checkCmd.Flags().StringVar(&checkMarker, "marker", "", "Maintenance marker text (default from config)")
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	mc, err := monitorConfig("", checkURL, checkMarker)
	if err != nil {
		return err
	}

	fetcher := page.NewFetcher(nil, mc.Timeout)
	status, err := monitor.Probe(cmd.Context(), fetcher, mc.URL, mc.Marker)
	if err != nil {
		return err
	}

	switch status {
	case health.StatusOnline:
		logSuccess("%s is online", mc.URL)
		return nil
	default:
		logWarning("%s is under maintenance", mc.URL)
		return fmt.Errorf("%s is under maintenance", mc.URL)
	}
}
