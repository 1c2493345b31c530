package cmd

import (
	"fmt"
	"strconv"

	"charm.land/lipgloss/v2"
	"github.com/abhisek/studyplan/internal/study"
	"github.com/abhisek/studyplan/internal/studyplan"
	"github.com/abhisek/studyplan/internal/ui/theme"
	"github.com/spf13/cobra"
)

var chapterCmd = &cobra.Command{
	Use:     "chapter",
	Aliases: []string{"chapters"},
	Short:   "Manage the chapters of a subject",
	Long: "Chapters are studied in the order they were added. A chapter can be referred to by\n" +
		"its ID, its position (1, 2, ...) or its name.",
}

var chapterAddCmd = &cobra.Command{
	Use:   "add <subject> <name> <hours>",
	Short: "Append a chapter with an estimated study time in hours",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		hours, err := strconv.ParseFloat(args[2], 64)
		if err != nil {
			return fmt.Errorf("invalid hours %q: %w", args[2], err)
		}
		diffStr, _ := cmd.Flags().GetString("difficulty")
		difficulty, err := study.ParseDifficulty(diffStr)
		if err != nil {
			return err
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
		ch, err := svc.AddChapter(ctx, sub.ID, args[1], difficulty, hours)
		if err != nil {
			return fmt.Errorf("add chapter: %w", err)
		}
		lipgloss.Fprintf(cmd.OutOrStdout(), "%s %s to %s (%s h, %s)\n",
			theme.Done.Render("Added"), ch.Name, sub.Name,
			strconv.FormatFloat(ch.EstimatedHours, 'f', -1, 64), ch.Difficulty)
		return nil
	},
}

var chapterEditCmd = &cobra.Command{
	Use:   "edit <subject> <chapter>",
	Short: "Change a chapter's name, difficulty or estimated hours",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		if !flags.Changed("name") && !flags.Changed("difficulty") && !flags.Changed("hours") {
			return fmt.Errorf("nothing to change: use --name, --difficulty or --hours")
		}

		svc, closeFn, err := openService(cmd)
		if err != nil {
			return err
		}
		defer closeFn()

		ctx := cmd.Context()
		sub, ch, err := findChapter(cmd, svc, args[0], args[1])
		if err != nil {
			return err
		}
		if flags.Changed("name") {
			ch.Name, _ = flags.GetString("name")
		}
		if flags.Changed("difficulty") {
			s, _ := flags.GetString("difficulty")
			if ch.Difficulty, err = study.ParseDifficulty(s); err != nil {
				return err
			}
		}
		if flags.Changed("hours") {
			ch.EstimatedHours, _ = flags.GetFloat64("hours")
		}
		if err := svc.UpdateChapter(ctx, sub.ID, ch); err != nil {
			return fmt.Errorf("update chapter: %w", err)
		}
		lipgloss.Fprintf(cmd.OutOrStdout(), "%s %s in %s\n", theme.Done.Render("Updated"), ch.Name, sub.Name)
		return nil
	},
}

func chapterCompletionCmd(use, short string, completed bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <subject> <chapter>",
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeFn, err := openService(cmd)
			if err != nil {
				return err
			}
			defer closeFn()

			sub, ch, err := findChapter(cmd, svc, args[0], args[1])
			if err != nil {
				return err
			}
			if err := svc.SetChapterCompleted(cmd.Context(), sub.ID, ch.ID, completed); err != nil {
				return fmt.Errorf("update chapter: %w", err)
			}
			lipgloss.Fprintf(cmd.OutOrStdout(), "%s %s in %s\n", theme.Check(completed), ch.Name, sub.Name)
			return nil
		},
	}
}

var chapterRemoveCmd = &cobra.Command{
	Use:     "rm <subject> <chapter>",
	Aliases: []string{"remove", "delete"},
	Short:   "Delete a chapter and its sessions",
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, closeFn, err := openService(cmd)
		if err != nil {
			return err
		}
		defer closeFn()

		sub, ch, err := findChapter(cmd, svc, args[0], args[1])
		if err != nil {
			return err
		}
		if err := svc.DeleteChapter(cmd.Context(), sub.ID, ch.ID); err != nil {
			return fmt.Errorf("delete chapter: %w", err)
		}
		lipgloss.Fprintf(cmd.OutOrStdout(), "%s %s from %s\n", theme.Warning.Render("Deleted"), ch.Name, sub.Name)
		return nil
	},
}

func init() {
	chapterAddCmd.Flags().String("difficulty", string(study.DifficultyMedium), "easy, medium or hard")

	chapterEditCmd.Flags().String("name", "", "New chapter name")
	chapterEditCmd.Flags().String("difficulty", "", "easy, medium or hard")
	chapterEditCmd.Flags().Float64("hours", 0, "New estimated hours")

	chapterCmd.AddCommand(chapterAddCmd)
	chapterCmd.AddCommand(chapterEditCmd)
	chapterCmd.AddCommand(chapterCompletionCmd("done", "Mark a chapter as completed", true))
	chapterCmd.AddCommand(chapterCompletionCmd("undone", "Mark a chapter as not completed", false))
	chapterCmd.AddCommand(chapterRemoveCmd)
}

func findChapter(cmd *cobra.Command, svc *studyplan.Service, subjectRef, chapterRef string) (study.Subject, study.Chapter, error) {
	sub, err := svc.FindSubject(cmd.Context(), subjectRef)
	if err != nil {
		return study.Subject{}, study.Chapter{}, err
	}
	ch, err := studyplan.FindChapter(sub, chapterRef)
	if err != nil {
		return study.Subject{}, study.Chapter{}, err
	}
	return sub, ch, nil
}
