package cmd

import (
	"fmt"

	"charm.land/lipgloss/v2"
	"github.com/abhisek/studyplan/internal/stats"
	"github.com/abhisek/studyplan/internal/store"
	"github.com/abhisek/studyplan/internal/ui/theme"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show study progress and streak",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		days, _ := cmd.Flags().GetInt("days")

		svc, closeFn, err := openService(cmd)
		if err != nil {
			return err
		}
		defer closeFn()

		ctx := cmd.Context()
		if _, err := svc.RefreshPriorities(ctx); err != nil {
			return fmt.Errorf("refresh priorities: %w", err)
		}
		subjects, err := svc.Subjects(ctx)
		if err != nil {
			return fmt.Errorf("list subjects: %w", err)
		}
		sessions, err := svc.Sessions(ctx, store.SessionFilter{})
		if err != nil {
			return fmt.Errorf("list sessions: %w", err)
		}

		today := svc.Today()
		out := cmd.OutOrStdout()
		sum := stats.Summarize(sessions, today)

		lipgloss.Fprintln(out, theme.Title.Render("Study stats"))
		lipgloss.Fprintf(out, "  Sessions: %d/%d completed\n", sum.Completed, sum.Sessions)
		lipgloss.Fprintf(out, "  Studied:  %s of %s planned\n", stats.FormatDuration(sum.Studied), stats.FormatDuration(sum.Planned))
		lipgloss.Fprintf(out, "  Upcoming: %d session(s)\n", sum.Upcoming)
		lipgloss.Fprintf(out, "  Streak:   %d day(s)\n", sum.Streak)

		lipgloss.Fprintln(out)
		achievements := stats.Achievements(sum)
		var rows [][]string
		for _, a := range achievements {
			rows = append(rows, []string{
				theme.Check(a.Unlocked()) + " " + a.Title,
				a.Description,
				theme.Bar(a.Fraction(), 12),
				fmt.Sprintf("%d/%d", a.Progress, a.Goal),
			})
		}
		lipgloss.Fprintln(out, theme.Table([]string{"Achievement", "Goal", "Progress", ""}, rows,
			func(row int) bool { return !achievements[row].Unlocked() }))

		if progress := stats.Progress(subjects, today); len(progress) > 0 {
			lipgloss.Fprintln(out)
			var rows [][]string
			for _, p := range progress {
				rows = append(rows, []string{
					p.Name,
					daysLabel(p.DaysToExam),
					theme.Bar(p.Fraction(), 12),
					fmt.Sprintf("%d/%d", p.Completed, p.Total),
					fmt.Sprintf("%.2f", p.Priority),
				})
			}
			lipgloss.Fprintln(out, theme.Table([]string{"Subject", "Exam in", "Progress", "Chapters", "Priority"}, rows, nil))
		}

		if totals := stats.BySubject(sessions); len(totals) > 0 {
			lipgloss.Fprintln(out)
			var rows [][]string
			for _, t := range totals {
				rows = append(rows, []string{
					subjectByID(subjects, t.SubjectID).Name,
					stats.FormatDuration(t.Total),
				})
			}
			lipgloss.Fprintln(out, theme.Table([]string{"Subject", "Scheduled"}, rows, nil))
		}

		daily := stats.DailyStats(sessions)
		var recent []stats.Day
		for _, d := range daily {
			if d.Date.After(today) {
				continue
			}
			recent = append(recent, d)
			if len(recent) == days {
				break
			}
		}
		if len(recent) > 0 {
			lipgloss.Fprintln(out)
			var rows [][]string
			for _, d := range recent {
				rows = append(rows, []string{
					d.Date.String(),
					fmt.Sprintf("%d", d.Sessions),
					stats.FormatDuration(d.Completed),
					stats.FormatDuration(d.Total),
				})
			}
			lipgloss.Fprintln(out, theme.Table([]string{"Day", "Sessions", "Studied", "Scheduled"}, rows,
				func(row int) bool { return recent[row].Completed == 0 }))
		}
		return nil
	},
}

func init() {
	statsCmd.Flags().Int("days", 7, "Number of past days in the daily table")
}
