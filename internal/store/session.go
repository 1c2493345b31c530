package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/abhisek/studyplan/internal/study"
)

var sessionColumns = []string{"id", "subject_id", "chapter_id", "date", "duration_ns", "completed", "manual"}

type sessionRepo struct {
	db *sql.DB
}

func (r *sessionRepo) List(ctx context.Context, f SessionFilter) ([]study.Session, error) {
	return listSessions(ctx, r.db, f)
}

func listSessions(ctx context.Context, x execer, f SessionFilter) ([]study.Session, error) {
	sel := builder.Select(sessionColumns...).
		From(builder.Table(SessionsTable.Name)).
		OrderBy("date", "position")

	var preds []*entsql.Predicate
	if f.SubjectID != "" {
		preds = append(preds, entsql.EQ("subject_id", f.SubjectID))
	}
	// ISO dates compare correctly as strings.
	if !f.From.IsZero() {
		preds = append(preds, entsql.GTE("date", f.From.String()))
	}
	if !f.To.IsZero() {
		preds = append(preds, entsql.LTE("date", f.To.String()))
	}
	if f.Pending {
		preds = append(preds, entsql.EQ("completed", false))
	}
	if len(preds) > 0 {
		sel = sel.Where(entsql.And(preds...))
	}

	query, args := sel.Query()
	rows, err := x.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var out []study.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner) (study.Session, error) {
	var s study.Session
	var ns int64
	if err := row.Scan(&s.ID, &s.SubjectID, &s.ChapterID, &s.Date, &ns, &s.Completed, &s.Manual); err != nil {
		return study.Session{}, fmt.Errorf("scan session: %w", err)
	}
	s.Duration = time.Duration(ns)
	return s, nil
}

func (r *sessionRepo) Get(ctx context.Context, id string) (*study.Session, error) {
	query, args := builder.Select(sessionColumns...).
		From(builder.Table(SessionsTable.Name)).
		Where(entsql.EQ("id", id)).
		Query()

	s, err := scanSession(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

func (r *sessionRepo) ReplaceGenerated(ctx context.Context, sessions []study.Session) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := exec(ctx, tx, builder.Delete(SessionsTable.Name).Where(entsql.EQ("manual", false))); err != nil {
			return fmt.Errorf("clear generated sessions: %w", err)
		}
		return insertSessions(ctx, tx, sessions)
	})
}

func (r *sessionRepo) Add(ctx context.Context, s study.Session) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		return insertSessions(ctx, tx, []study.Session{s})
	})
}

func insertSessions(ctx context.Context, x execer, sessions []study.Session) error {
	if len(sessions) == 0 {
		return nil
	}
	pos, err := nextPosition(ctx, x, SessionsTable.Name, nil)
	if err != nil {
		return err
	}
	for i, s := range sessions {
		_, err := exec(ctx, x, builder.Insert(SessionsTable.Name).
			Columns(append(sessionColumns, "position")...).
			Values(s.ID, s.SubjectID, s.ChapterID, s.Date.String(), int64(s.Duration), s.Completed, s.Manual, pos+i))
		if err != nil {
			return fmt.Errorf("insert session %s: %w", s.ID, err)
		}
	}
	return nil
}

func (r *sessionRepo) SetCompleted(ctx context.Context, id string, completed bool) (bool, error) {
	res, err := exec(ctx, r.db, builder.Update(SessionsTable.Name).
		Set("completed", completed).
		Where(entsql.EQ("id", id)))
	if err != nil {
		return false, fmt.Errorf("update session %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

// deleteSessions removes the sessions matching where. Callers run it in the
// same transaction as the subject or chapter delete it belongs to.
func deleteSessions(ctx context.Context, x execer, where *entsql.Predicate) error {
	if _, err := exec(ctx, x, builder.Delete(SessionsTable.Name).Where(where)); err != nil {
		return fmt.Errorf("delete sessions: %w", err)
	}
	return nil
}
