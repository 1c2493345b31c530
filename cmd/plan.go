package cmd

import (
	"fmt"

	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"
	"github.com/abhisek/studyplan/internal/planner"
	"github.com/abhisek/studyplan/internal/stats"
	"github.com/abhisek/studyplan/internal/store"
	"github.com/abhisek/studyplan/internal/study"
	"github.com/abhisek/studyplan/internal/ui/theme"
	"github.com/spf13/cobra"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Generate a fresh study plan starting today",
	Long: "Schedules every outstanding chapter from today on, replacing the previously\n" +
		"generated sessions. Sessions added by hand are kept.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, closeFn, err := openService(cmd)
		if err != nil {
			return err
		}
		defer closeFn()

		ctx := cmd.Context()
		res, err := svc.GeneratePlan(ctx)
		if err != nil {
			return fmt.Errorf("generate plan: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(res.Sessions) == 0 {
			lipgloss.Fprintln(out, theme.Hint.Render("Nothing to schedule: add subjects with chapters and some weekly hours."))
			return nil
		}
		subjects, err := svc.Subjects(ctx)
		if err != nil {
			return fmt.Errorf("list subjects: %w", err)
		}

		last := res.Sessions[len(res.Sessions)-1].Date
		lipgloss.Fprintf(out, "%s %d sessions, %s, %s to %s\n",
			theme.Done.Render("Planned"), len(res.Sessions), stats.FormatDuration(res.Scheduled()), res.Start, last)
		lipgloss.Fprintln(out, chapterPlanTable(subjects, res.Sessions))
		for _, sf := range res.Unscheduled {
			lipgloss.Fprintf(out, "%s %s has %s left beyond the %d-day horizon\n",
				theme.Warning.Render("!"), subjectByID(subjects, sf.SubjectID).Name,
				stats.FormatDuration(sf.Unscheduled()), svc.Config().HorizonDays)
		}
		return nil
	},
}

var planShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the schedule day by day",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		days, _ := cmd.Flags().GetInt("days")
		all, _ := cmd.Flags().GetBool("all")

		svc, closeFn, err := openService(cmd)
		if err != nil {
			return err
		}
		defer closeFn()

		ctx := cmd.Context()
		f := store.SessionFilter{}
		if !all {
			f.From = svc.Today()
			if days > 0 {
				f.To = f.From.AddDays(days - 1)
			}
		}
		sessions, err := svc.Sessions(ctx, f)
		if err != nil {
			return fmt.Errorf("list sessions: %w", err)
		}
		subjects, err := svc.Subjects(ctx)
		if err != nil {
			return fmt.Errorf("list subjects: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(sessions) == 0 {
			lipgloss.Fprintln(out, theme.Hint.Render("No sessions scheduled. Run: studyplan plan"))
			return nil
		}

		// Oldest first, grouped per day.
		daily := stats.DailyStats(sessions)
		for i := len(daily) - 1; i >= 0; i-- {
			d := daily[i]
			lipgloss.Fprintf(out, "%s %s  %s\n",
				theme.Title.Render(d.Date.String()), d.Date.Weekday().String()[:3],
				theme.Subtitle.Render(stats.FormatDuration(d.Total)))
			for _, s := range sessions {
				if s.Date != d.Date {
					continue
				}
				lipgloss.Fprintf(out, "  %s %-10s %-24s %-24s %s%s\n",
					theme.Check(s.Completed), s.ID,
					truncate(subjectByID(subjects, s.SubjectID).Name, 24),
					truncate(chapterName(subjects, s), 24),
					stats.FormatDuration(s.Duration), manualMark(s))
			}
		}
		return nil
	},
}

func init() {
	planShowCmd.Flags().Int("days", 7, "Number of days to show from today (0 = all upcoming)")
	planShowCmd.Flags().Bool("all", false, "Include past days")

	planCmd.AddCommand(planShowCmd)
}

// chapterPlanTable shows how much of each open chapter the plan covers.
func chapterPlanTable(subjects []study.Subject, sessions []study.Session) *table.Table {
	scheduled := planner.ScheduledByChapter(sessions)
	var rows [][]string
	var short []bool
	for _, sub := range subjects {
		for _, ch := range sub.Chapters {
			if ch.Completed || ch.EstimatedHours <= 0 {
				continue
			}
			got := scheduled[planner.ChapterKey{SubjectID: sub.ID, ChapterID: ch.ID}]
			want := study.HoursToDuration(ch.EstimatedHours)
			rows = append(rows, []string{
				truncate(sub.Name, 24),
				truncate(ch.Name, 24),
				stats.FormatDuration(got),
				stats.FormatDuration(want),
			})
			short = append(short, got < want)
		}
	}
	return theme.Table([]string{"Subject", "Chapter", "Planned", "Estimate"}, rows,
		func(row int) bool { return short[row] })
}

func chapterName(subjects []study.Subject, s study.Session) string {
	if ch, ok := subjectByID(subjects, s.SubjectID).Chapter(s.ChapterID); ok {
		return ch.Name
	}
	return s.ChapterID
}

func manualMark(s study.Session) string {
	if s.Manual {
		return theme.Hint.Render("  (manual)")
	}
	return ""
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
