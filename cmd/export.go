package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/abhisek/studyplan/internal/planfile"
	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write subjects, availability and sessions as JSON",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		outPath, _ := cmd.Flags().GetString("out")

		svc, closeFn, err := openService(cmd)
		if err != nil {
			return err
		}
		defer closeFn()

		st, err := svc.Export(cmd.Context())
		if err != nil {
			return fmt.Errorf("export: %w", err)
		}

		if outPath == "" || outPath == "-" {
			return planfile.Encode(cmd.OutOrStdout(), st, time.Now())
		}
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create %s: %w", outPath, err)
		}
		if err := planfile.Encode(f, st, time.Now()); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("write %s: %w", outPath, err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Exported to %s\n", outPath)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringP("out", "o", "", "Output file (default stdout)")
}
