package cmd

import (
	"fmt"
	"io"
	"os"

	"charm.land/lipgloss/v2"
	"github.com/abhisek/studyplan/internal/planfile"
	"github.com/abhisek/studyplan/internal/ui/theme"
	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync [file]",
	Short: "Replace subjects with study plans exported by the backend",
	Long: "Reads the backend's study plan list (a JSON array of {id, subject, exam_date, ...})\n" +
		"from file, or stdin when file is omitted or \"-\". Each plan becomes a subject.\n" +
		"Subjects synced earlier keep their chapters; the others are removed.",
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, closeIn, err := openInput(cmd, args)
		if err != nil {
			return err
		}
		defer closeIn()

		plans, err := planfile.DecodeStudyPlans(r)
		if err != nil {
			return err
		}

		svc, closeFn, err := openService(cmd)
		if err != nil {
			return err
		}
		defer closeFn()

		res, err := svc.SyncStudyPlans(cmd.Context(), plans)
		if err != nil {
			return fmt.Errorf("sync study plans: %w", err)
		}
		lipgloss.Fprintf(cmd.OutOrStdout(), "%s %d added, %d kept, %d removed\n",
			theme.Done.Render("Synced"), res.Added, res.Kept, res.Removed)
		return nil
	},
}

// openInput opens args[0], or stdin when it is absent or "-".
func openInput(cmd *cobra.Command, args []string) (io.Reader, func(), error) {
	if len(args) == 0 || args[0] == "-" {
		return cmd.InOrStdin(), func() {}, nil
	}
	f, err := os.Open(args[0])
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", args[0], err)
	}
	return f, func() { f.Close() }, nil
}
