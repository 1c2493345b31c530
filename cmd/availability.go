package cmd

import (
	"fmt"
	"strconv"
	"time"

	"charm.land/lipgloss/v2"
	"github.com/abhisek/studyplan/internal/study"
	"github.com/abhisek/studyplan/internal/ui/theme"
	"github.com/spf13/cobra"
)

var availabilityCmd = &cobra.Command{
	Use:     "availability",
	Aliases: []string{"avail"},
	Short:   "Show or change weekly study hours",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, closeFn, err := openService(cmd)
		if err != nil {
			return err
		}
		defer closeFn()

		a, err := svc.Availability(cmd.Context())
		if err != nil {
			return fmt.Errorf("load availability: %w", err)
		}
		printAvailability(cmd, a)
		return nil
	},
}

var availabilitySetCmd = &cobra.Command{
	Use:   "set <weekday> <hours>",
	Short: "Set the study hours for one weekday (0=Sunday or a name like mon)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		day, err := study.ParseWeekday(args[0])
		if err != nil {
			return err
		}
		hours, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return fmt.Errorf("invalid hours %q: %w", args[1], err)
		}

		svc, closeFn, err := openService(cmd)
		if err != nil {
			return err
		}
		defer closeFn()

		a, err := svc.UpdateAvailability(cmd.Context(), day, hours)
		if err != nil {
			return fmt.Errorf("update availability: %w", err)
		}
		printAvailability(cmd, a)
		return nil
	},
}

func init() {
	availabilityCmd.AddCommand(availabilitySetCmd)
}

func printAvailability(cmd *cobra.Command, a study.Availability) {
	var rows [][]string
	var zero []bool
	for d := time.Sunday; d <= time.Saturday; d++ {
		h, _ := a.HoursOn(d)
		rows = append(rows, []string{d.String(), strconv.FormatFloat(h, 'f', -1, 64)})
		zero = append(zero, h <= 0)
	}
	out := cmd.OutOrStdout()
	lipgloss.Fprintln(out, theme.Table([]string{"Day", "Hours"}, rows, func(row int) bool { return zero[row] }))
	lipgloss.Fprintln(out, theme.Subtitle.Render(fmt.Sprintf("%s hours per week", strconv.FormatFloat(a.WeeklyHours(), 'f', -1, 64))))
}
