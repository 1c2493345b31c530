package cmd

import (
	"fmt"

	"charm.land/lipgloss/v2"
	"github.com/abhisek/studyplan/internal/planfile"
	"github.com/abhisek/studyplan/internal/ui/theme"
	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Replace all data with a previously exported JSON document",
	Long: "Reads a document written by export (file, or stdin when omitted or \"-\") and\n" +
		"replaces every subject, the availability and all sessions with it. The current\n" +
		"data is snapshotted first and can be brought back with restore.",
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, closeIn, err := openInput(cmd, args)
		if err != nil {
			return err
		}
		defer closeIn()

		st, err := planfile.Decode(r)
		if err != nil {
			return err
		}

		svc, closeFn, err := openService(cmd)
		if err != nil {
			return err
		}
		defer closeFn()

		if err := svc.Import(cmd.Context(), st); err != nil {
			return fmt.Errorf("import: %w", err)
		}
		lipgloss.Fprintf(cmd.OutOrStdout(), "%s %d subjects, %d sessions\n",
			theme.Done.Render("Imported"), len(st.Subjects), len(st.Sessions))
		return nil
	},
}
