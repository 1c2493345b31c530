package cmd

import (
	"fmt"

	"charm.land/lipgloss/v2"
	"github.com/abhisek/studyplan/internal/stats"
	"github.com/abhisek/studyplan/internal/ui/theme"
	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent plan generations, imports, resets and restores",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		svc, closeFn, err := openService(cmd)
		if err != nil {
			return err
		}
		defer closeFn()

		events, err := svc.History(cmd.Context(), limit)
		if err != nil {
			return fmt.Errorf("query history: %w", err)
		}
		out := cmd.OutOrStdout()
		if len(events) == 0 {
			lipgloss.Fprintln(out, theme.Hint.Render("No history yet."))
			return nil
		}

		var rows [][]string
		for _, e := range events {
			detail := e.Detail
			if e.Action == "generate" {
				detail = fmt.Sprintf("%d sessions, %s from %s", e.Sessions, stats.FormatDuration(e.Scheduled), e.StartDate)
				if e.Unscheduled > 0 {
					detail += ", " + stats.FormatDuration(e.Unscheduled) + " unscheduled"
				}
			}
			rows = append(rows, []string{
				fmt.Sprintf("%d", e.Sequence),
				e.Timestamp.Local().Format("2006-01-02 15:04"),
				e.Action,
				fmt.Sprintf("%d", e.Subjects),
				detail,
			})
		}
		lipgloss.Fprintln(out, theme.Table([]string{"#", "When", "Action", "Subjects", "Detail"}, rows,
			func(row int) bool { return events[row].Unscheduled > 0 }))
		return nil
	},
}

func init() {
	historyCmd.Flags().Int("limit", 20, "Maximum number of events to show (0 = all)")
}
