package cmd

import (
	"fmt"
	"strconv"

	"charm.land/lipgloss/v2"
	"github.com/abhisek/studyplan/internal/stats"
	"github.com/abhisek/studyplan/internal/store"
	"github.com/abhisek/studyplan/internal/study"
	"github.com/abhisek/studyplan/internal/ui/theme"
	"github.com/spf13/cobra"
)

var sessionCmd = &cobra.Command{
	Use:     "session",
	Aliases: []string{"sessions"},
	Short:   "List, complete or log study sessions",
}

var sessionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List sessions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		subjectRef, _ := cmd.Flags().GetString("subject")
		from, _ := cmd.Flags().GetString("from")
		to, _ := cmd.Flags().GetString("to")
		pending, _ := cmd.Flags().GetBool("pending")

		var f store.SessionFilter
		f.Pending = pending
		var err error
		if from != "" {
			if f.From, err = study.ParseDate(from); err != nil {
				return err
			}
		}
		if to != "" {
			if f.To, err = study.ParseDate(to); err != nil {
				return err
			}
		}

		svc, closeFn, err := openService(cmd)
		if err != nil {
			return err
		}
		defer closeFn()

		ctx := cmd.Context()
		if subjectRef != "" {
			sub, err := svc.FindSubject(ctx, subjectRef)
			if err != nil {
				return err
			}
			f.SubjectID = sub.ID
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
			lipgloss.Fprintln(out, theme.Hint.Render("No sessions match."))
			return nil
		}
		var rows [][]string
		for _, s := range sessions {
			kind := "plan"
			if s.Manual {
				kind = "manual"
			}
			rows = append(rows, []string{
				theme.Check(s.Completed),
				s.ID,
				s.Date.String(),
				truncate(subjectByID(subjects, s.SubjectID).Name, 24),
				truncate(chapterName(subjects, s), 24),
				stats.FormatDuration(s.Duration),
				kind,
			})
		}
		lipgloss.Fprintln(out, theme.Table(
			[]string{"", "ID", "Date", "Subject", "Chapter", "Length", "Kind"},
			rows,
			func(row int) bool { return sessions[row].Completed },
		))
		return nil
	},
}

func sessionCompletionCmd(use, short string, completed bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <session-id>...",
		Short: short,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeFn, err := openService(cmd)
			if err != nil {
				return err
			}
			defer closeFn()

			ctx := cmd.Context()
			subjects, err := svc.Subjects(ctx)
			if err != nil {
				return fmt.Errorf("list subjects: %w", err)
			}
			for _, id := range args {
				s, err := svc.SetSessionCompleted(ctx, id, completed)
				if err != nil {
					return fmt.Errorf("update session: %w", err)
				}
				lipgloss.Fprintf(cmd.OutOrStdout(), "%s %s  %s / %s, %s on %s\n",
					theme.Check(completed), s.ID, subjectByID(subjects, s.SubjectID).Name,
					chapterName(subjects, s), stats.FormatDuration(s.Duration), s.Date)
			}
			return nil
		},
	}
}

var sessionAddCmd = &cobra.Command{
	Use:   "add <subject> <chapter> <date> <minutes>",
	Short: "Log a manual session; it is kept when the plan is regenerated",
	Args:  cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		date, err := study.ParseDate(args[2])
		if err != nil {
			return err
		}
		minutes, err := strconv.ParseFloat(args[3], 64)
		if err != nil {
			return fmt.Errorf("invalid minutes %q: %w", args[3], err)
		}
		completed, _ := cmd.Flags().GetBool("completed")

		svc, closeFn, err := openService(cmd)
		if err != nil {
			return err
		}
		defer closeFn()

		sub, ch, err := findChapter(cmd, svc, args[0], args[1])
		if err != nil {
			return err
		}
		sess, err := svc.AddSession(cmd.Context(), sub.ID, ch.ID, date, study.MinutesToDuration(minutes), completed)
		if err != nil {
			return fmt.Errorf("add session: %w", err)
		}
		lipgloss.Fprintf(cmd.OutOrStdout(), "%s %s: %s, %s on %s\n",
			theme.Done.Render("Added"), sess.ID, ch.Name, stats.FormatDuration(sess.Duration), sess.Date)
		return nil
	},
}

func init() {
	sessionListCmd.Flags().String("subject", "", "Only sessions of this subject (id or name)")
	sessionListCmd.Flags().String("from", "", "First date to include (YYYY-MM-DD)")
	sessionListCmd.Flags().String("to", "", "Last date to include (YYYY-MM-DD)")
	sessionListCmd.Flags().Bool("pending", false, "Only sessions not yet completed")

	sessionAddCmd.Flags().Bool("completed", false, "Mark the session as already done")

	sessionCmd.AddCommand(sessionListCmd)
	sessionCmd.AddCommand(sessionCompletionCmd("done", "Mark sessions as completed", true))
	sessionCmd.AddCommand(sessionCompletionCmd("undo", "Mark sessions as not completed", false))
	sessionCmd.AddCommand(sessionAddCmd)
}
