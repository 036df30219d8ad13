package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"FocusSentry/database/postgres"
	"FocusSentry/internal/api/focus"
	focusRepository "FocusSentry/internal/api/focus/repository"
	focusService "FocusSentry/internal/api/focus/service"
	"FocusSentry/internal/entity"
	"FocusSentry/pkg/log"

	"github.com/spf13/cobra"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List the most recent focus sessions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		return runHistory(cmd.Context(), cmd.OutOrStdout(), historyLimit)
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", focus.DefaultHistoryLimit, "Number of sessions to show")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(ctx context.Context, out io.Writer, limit int) error {
	db, err := postgres.New()
	if err != nil {
		return err
	}
	defer db.Close()

	client, err := focusRepository.New(db, log.NewLogger()).NewClient(false)
	if err != nil {
		return err
	}

	sessions, err := client.Sessions.GetRecentSessions(ctx, focusService.NormalizeHistoryLimit(limit))
	if err != nil {
		return err
	}

	if len(sessions) == 0 {
		fmt.Fprintln(out, "No sessions recorded yet.")
		return nil
	}

	printSessions(out, sessions)
	return nil
}

func printSessions(out io.Writer, sessions []entity.FocusSession) {
	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "ID\tSTARTED\tPLANNED\tRECORDED\tFOCUS\tBREAKS\tEARLY")
	fmt.Fprintln(w, "--\t-------\t-------\t--------\t-----\t------\t-----")

	for _, s := range sessions {
		fmt.Fprintf(w, "%d\t%s\t%dm\t%s\t%s\t%s\t%s\n",
			s.ID,
			s.CreatedAt.Local().Format("2006-01-02 15:04"),
			s.DurationMinutes,
			optionalInt(s.TotalSeconds, "s"),
			optionalInt(s.FocusPercent, "%"),
			optionalInt(s.BreaksCount, ""),
			optionalBool(s.EndedEarly),
		)
	}
	w.Flush()
}

func optionalInt(v *int, unit string) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%d%s", *v, unit)
}

func optionalBool(v *bool) string {
	switch {
	case v == nil:
		return "-"
	case *v:
		return "yes"
	default:
		return "no"
	}
}
