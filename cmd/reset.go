package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/abhisek/studyplan/internal/studyplan"
	"github.com/abhisek/studyplan/internal/ui/theme"
	"github.com/spf13/cobra"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete all subjects and sessions and restore default availability",
	Long: "Clears every subject, chapter and session and puts the default weekly hours\n" +
		"back. A snapshot is taken first, so the previous data can be brought back with\n" +
		"restore.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		yes, _ := cmd.Flags().GetBool("yes")
		if !yes {
			fmt.Fprint(cmd.OutOrStdout(), "This will delete all subjects and sessions. Continue? [y/N] ")
			line, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if a := strings.ToLower(strings.TrimSpace(line)); a != "y" && a != "yes" {
				fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
				return nil
			}
		}

		svc, closeFn, err := openService(cmd)
		if err != nil {
			return err
		}
		defer closeFn()

		if err := svc.Reset(cmd.Context()); err != nil {
			return fmt.Errorf("reset: %w", err)
		}
		lipgloss.Fprintln(cmd.OutOrStdout(), theme.Done.Render("Reset.")+" "+theme.Hint.Render("Undo with: studyplan restore"))
		return nil
	},
}

var restoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Bring back the data from before the last reset, import or sync",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, closeFn, err := openService(cmd)
		if err != nil {
			return err
		}
		defer closeFn()

		snap, err := svc.Restore(cmd.Context())
		if errors.Is(err, studyplan.ErrNoSnapshot) {
			lipgloss.Fprintln(cmd.OutOrStdout(), theme.Hint.Render("Nothing to restore."))
			return nil
		}
		if err != nil {
			return fmt.Errorf("restore: %w", err)
		}
		lipgloss.Fprintf(cmd.OutOrStdout(), "%s data from before %s at %s (%d subjects, %d sessions)\n",
			theme.Done.Render("Restored"), snap.Reason, snap.Timestamp.Local().Format("2006-01-02 15:04"),
			len(snap.Data.State.Subjects), len(snap.Data.State.Sessions))
		return nil
	},
}

func init() {
	resetCmd.Flags().BoolP("yes", "y", false, "Skip the confirmation prompt")
}
