package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/abhisek/studyplan/internal/study"
)

// stateRepo reads and writes every table at once for snapshots and imports.
type stateRepo struct {
	db *sql.DB
}

func (r *stateRepo) Load(ctx context.Context) (study.State, error) {
	var st study.State
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		var err error
		if st.Subjects, err = listSubjects(ctx, tx); err != nil {
			return err
		}
		if st.Availability, err = loadAvailability(ctx, tx); err != nil {
			return err
		}
		st.Sessions, err = listSessions(ctx, tx, SessionFilter{})
		return err
	})
	if err != nil {
		return study.State{}, fmt.Errorf("load state: %w", err)
	}
	return st, nil
}

func (r *stateRepo) Replace(ctx context.Context, st study.State) error {
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		for _, t := range []string{SessionsTable.Name, ChaptersTable.Name, SubjectsTable.Name} {
			if _, err := exec(ctx, tx, builder.Delete(t)); err != nil {
				return fmt.Errorf("clear %s: %w", t, err)
			}
		}
		for _, s := range st.Subjects {
			if err := insertSubject(ctx, tx, s); err != nil {
				return err
			}
		}
		if err := replaceAvailability(ctx, tx, st.Availability); err != nil {
			return err
		}
		return insertSessions(ctx, tx, st.Sessions)
	})
	if err != nil {
		return fmt.Errorf("replace state: %w", err)
	}
	return nil
}
