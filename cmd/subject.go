package cmd

import (
	"fmt"
	"strconv"

	"charm.land/lipgloss/v2"
	"cloud.google.com/go/civil"
	"github.com/abhisek/studyplan/internal/planner"
	"github.com/abhisek/studyplan/internal/stats"
	"github.com/abhisek/studyplan/internal/study"
	"github.com/abhisek/studyplan/internal/ui/theme"
	"github.com/spf13/cobra"
)

var subjectCmd = &cobra.Command{
	Use:     "subject",
	Aliases: []string{"subjects"},
	Short:   "Manage subjects and their exam dates",
}

var subjectListCmd = &cobra.Command{
	Use:   "list",
	Short: "List subjects by creation order",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
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

		out := cmd.OutOrStdout()
		if len(subjects) == 0 {
			lipgloss.Fprintln(out, theme.Hint.Render("No subjects yet. Add one with: studyplan subject add <name> <exam-date>"))
			return nil
		}

		today := svc.Today()
		var rows [][]string
		for _, p := range stats.Progress(subjects, today) {
			rows = append(rows, []string{
				p.Name,
				subjectByID(subjects, p.SubjectID).ExamDate.String(),
				daysLabel(p.DaysToExam),
				fmt.Sprintf("%d/%d", p.Completed, p.Total),
				theme.Bar(p.Fraction(), 10),
				strconv.FormatFloat(p.RemainingHours, 'f', -1, 64),
				fmt.Sprintf("%.2f", p.Priority),
			})
		}
		t := theme.Table(
			[]string{"Subject", "Exam", "In", "Chapters", "Progress", "Hours left", "Priority"},
			rows,
			func(row int) bool { return subjects[row].Priority == 0 },
		)
		lipgloss.Fprintln(out, t)
		return nil
	},
}

var subjectShowCmd = &cobra.Command{
	Use:   "show <subject>",
	Short: "Show a subject and its chapters",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, closeFn, err := openService(cmd)
		if err != nil {
			return err
		}
		defer closeFn()

		sub, err := svc.FindSubject(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		printSubject(cmd, sub, svc.Today())
		return nil
	},
}

var subjectAddCmd = &cobra.Command{
	Use:   "add <name> <exam-date>",
	Short: "Add a subject (exam date as YYYY-MM-DD)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		exam, err := study.ParseDate(args[1])
		if err != nil {
			return err
		}

		svc, closeFn, err := openService(cmd)
		if err != nil {
			return err
		}
		defer closeFn()

		sub, err := svc.AddSubject(cmd.Context(), args[0], exam)
		if err != nil {
			return fmt.Errorf("add subject: %w", err)
		}
		lipgloss.Fprintf(cmd.OutOrStdout(), "%s %s (exam %s)\n", theme.Done.Render("Added"), sub.Name, sub.ExamDate)
		return nil
	},
}

var subjectEditCmd = &cobra.Command{
	Use:   "edit <subject>",
	Short: "Rename a subject or move its exam date",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		examStr, _ := cmd.Flags().GetString("exam")
		if name == "" && examStr == "" {
			return fmt.Errorf("nothing to change: use --name and/or --exam")
		}

		svc, closeFn, err := openService(cmd)
		if err != nil {
			return err
		}
		defer closeFn()

		ctx := cmd.Context()
		sub, err := svc.FindSubject(ctx, args[0])
		if err != nil {
			return err
		}
		if name == "" {
			name = sub.Name
		}
		exam := sub.ExamDate
		if examStr != "" {
			if exam, err = study.ParseDate(examStr); err != nil {
				return err
			}
		}

		sub, err = svc.UpdateSubject(ctx, sub.ID, name, exam)
		if err != nil {
			return fmt.Errorf("update subject: %w", err)
		}
		lipgloss.Fprintf(cmd.OutOrStdout(), "%s %s (exam %s, priority %.2f)\n",
			theme.Done.Render("Updated"), sub.Name, sub.ExamDate, sub.Priority)
		return nil
	},
}

var subjectRemoveCmd = &cobra.Command{
	Use:     "rm <subject>",
	Aliases: []string{"remove", "delete"},
	Short:   "Delete a subject with its chapters and sessions",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, closeFn, err := openService(cmd)
		if err != nil {
			return err
		}
		defer closeFn()

		ctx := cmd.Context()
		sub, err := svc.FindSubject(ctx, args[0])
		if err != nil {
			return err
		}
		if err := svc.DeleteSubject(ctx, sub.ID); err != nil {
			return fmt.Errorf("delete subject: %w", err)
		}
		lipgloss.Fprintf(cmd.OutOrStdout(), "%s %s\n", theme.Warning.Render("Deleted"), sub.Name)
		return nil
	},
}

func init() {
	subjectEditCmd.Flags().String("name", "", "New subject name")
	subjectEditCmd.Flags().String("exam", "", "New exam date (YYYY-MM-DD)")

	subjectCmd.AddCommand(subjectListCmd)
	subjectCmd.AddCommand(subjectShowCmd)
	subjectCmd.AddCommand(subjectAddCmd)
	subjectCmd.AddCommand(subjectEditCmd)
	subjectCmd.AddCommand(subjectRemoveCmd)
}

func subjectByID(subjects []study.Subject, id string) study.Subject {
	for _, s := range subjects {
		if s.ID == id {
			return s
		}
	}
	return study.Subject{}
}

func daysLabel(days int) string {
	switch {
	case days < 0:
		return "past"
	case days == 0:
		return "today"
	case days == 1:
		return "1 day"
	default:
		return fmt.Sprintf("%d days", days)
	}
}

func printSubject(cmd *cobra.Command, sub study.Subject, today civil.Date) {
	out := cmd.OutOrStdout()
	lipgloss.Fprintln(out, theme.Title.Render(sub.Name))
	lipgloss.Fprintf(out, "%s  exam %s (%s)  priority %.2f\n",
		theme.Subtitle.Render(sub.ID), sub.ExamDate, daysLabel(planner.DaysToExam(sub.ExamDate, today)), sub.Priority)

	if len(sub.Chapters) == 0 {
		lipgloss.Fprintln(out, theme.Hint.Render("No chapters yet. Add one with: studyplan chapter add <subject> <name> <hours>"))
		return
	}
	var rows [][]string
	for i, ch := range sub.Chapters {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			theme.Check(ch.Completed),
			ch.Name,
			string(ch.Difficulty),
			strconv.FormatFloat(ch.EstimatedHours, 'f', -1, 64),
		})
	}
	t := theme.Table([]string{"#", "", "Chapter", "Difficulty", "Hours"}, rows,
		func(row int) bool { return sub.Chapters[row].Completed })
	lipgloss.Fprintln(out, t)
}
