package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/abhisek/studyplan/internal/planner"
	"github.com/abhisek/studyplan/internal/store"
	"github.com/abhisek/studyplan/internal/studyplan"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "studyplan",
	Short: "Plan study sessions ahead of your exams",
	Long: "studyplan keeps track of subjects, chapters and weekly study hours, and schedules\n" +
		"short study sessions so the most urgent subjects get time first.",
	SilenceUsage: true,
}

func Execute() error {
	loadDotEnv()
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides STUDYPLAN_DB env var)")

	rootCmd.AddCommand(subjectCmd)
	rootCmd.AddCommand(chapterCmd)
	rootCmd.AddCommand(availabilityCmd)
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(sessionCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(restoreCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadDotEnv reads ./.env when present. Variables already set win.
func loadDotEnv() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "warning: failed to load .env: %v\n", err)
	}
}

// resolveDBPath returns the database path using --db flag (highest priority),
// then STUDYPLAN_DB env var, then the default XDG path.
func resolveDBPath(cmd *cobra.Command) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	return store.DefaultDBPath()
}

// openService opens the store and builds the Service on top of it. The
// returned close function releases the database.
func openService(cmd *cobra.Command) (*studyplan.Service, func(), error) {
	dbPath, err := resolveDBPath(cmd)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve database path: %w", err)
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}

	cfg := planner.ConfigFromEnv()
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v; using defaults\n", err)
		cfg = planner.DefaultConfig()
	}

	svc := studyplan.NewService(studyplan.ReposFrom(st), studyplan.Options{
		Config: cfg,
		Warn:   cmd.ErrOrStderr(),
	})
	return svc, func() { st.Close() }, nil
}
