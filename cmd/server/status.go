package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/MimoJanra/StatusPulse/internal/models"
)

func newStatusCmd(configPath *string) *cobra.Command {
	var (
		days      int
		serviceID string
	)

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Load the current status once and print it",
		Example: `  statuspulse status
  statuspulse status --days 7
  statuspulse status --service 6f1c2a5e-4b0d-4d7e-9a51-0c7a3f1d2b10`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(*configPath)
			if err != nil {
				return err
			}
			defer func() { _ = a.logger.Sync() }()

			if days == 0 {
				days = a.cfg.DefaultWindowDays
			}

			snap, err := a.aggregator.LoadAll(cmd.Context(), days)
			if err != nil {
				return err
			}

			if serviceID != "" {
				st, ok := snap.Status(serviceID)
				if !ok {
					return fmt.Errorf("service %q not found", serviceID)
				}
				snap.Statuses = []models.ServiceStatus{st}
			}

			printStatus(cmd.OutOrStdout(), snap)
			return nil
		},
	}

	cmd.Flags().IntVar(&days, "days", 0, "lookback window in days (default from config)")
	cmd.Flags().StringVar(&serviceID, "service", "", "only show this service")
	return cmd
}

func stateColor(state models.HealthState) func(format string, a ...interface{}) string {
	switch state {
	case models.StateOperational:
		return color.GreenString
	case models.StateDegraded:
		return color.YellowString
	case models.StateMaintenance:
		return color.BlueString
	case models.StateOutage:
		return color.RedString
	default:
		return color.HiBlackString
	}
}

func printStatus(w io.Writer, snap *models.Snapshot) {
	headline := stateColor(snap.Overall)("%s", snap.Overall.Headline())
	fmt.Fprintf(w, "%s  (last %d days)\n\n", color.New(color.Bold).Sprint(headline), snap.WindowDays)

	nameWidth := len("SERVICE")
	for _, st := range snap.Statuses {
		if len(st.Name) > nameWidth {
			nameWidth = len(st.Name)
		}
	}

	fmt.Fprintf(w, "%-*s  %-12s  %8s  %10s\n", nameWidth, "SERVICE", "STATUS", "UPTIME", "LATENCY")
	fmt.Fprintln(w, strings.Repeat("-", nameWidth+38))
	for _, st := range snap.Statuses {
		// Pad before coloring; escape codes would break the column width.
		state := fmt.Sprintf("%-12s", st.HealthState)
		fmt.Fprintf(w, "%-*s  %s  %7.2f%%  %8.0fms\n",
			nameWidth, st.Name, stateColor(st.HealthState)("%s", state), st.UptimePct, st.LatencyMs)
	}
}
