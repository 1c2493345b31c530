package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/abhisek/studyplan/internal/study"
)

// subjectRepo implements SubjectRepo on the subjects and chapters tables.
type subjectRepo struct {
	db *sql.DB
}

func (r *subjectRepo) List(ctx context.Context) ([]study.Subject, error) {
	return listSubjects(ctx, r.db)
}

func listSubjects(ctx context.Context, x execer) ([]study.Subject, error) {
	query, args := builder.Select("id", "name", "exam_date", "priority").
		From(builder.Table(SubjectsTable.Name)).
		OrderBy("position").
		Query()
	rows, err := x.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query subjects: %w", err)
	}
	defer rows.Close()

	var subjects []study.Subject
	index := make(map[string]int)
	for rows.Next() {
		var s study.Subject
		if err := rows.Scan(&s.ID, &s.Name, &s.ExamDate, &s.Priority); err != nil {
			return nil, fmt.Errorf("scan subject: %w", err)
		}
		index[s.ID] = len(subjects)
		subjects = append(subjects, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate subjects: %w", err)
	}
	rows.Close()

	chapters, err := listChapters(ctx, x, nil)
	if err != nil {
		return nil, err
	}
	for _, c := range chapters {
		if i, ok := index[c.subjectID]; ok {
			subjects[i].Chapters = append(subjects[i].Chapters, c.Chapter)
		}
	}
	return subjects, nil
}

func (r *subjectRepo) Get(ctx context.Context, id string) (*study.Subject, error) {
	query, args := builder.Select("id", "name", "exam_date", "priority").
		From(builder.Table(SubjectsTable.Name)).
		Where(entsql.EQ("id", id)).
		Query()

	var s study.Subject
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&s.ID, &s.Name, &s.ExamDate, &s.Priority)
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query subject %s: %w", id, err)
	}

	chapters, err := listChapters(ctx, r.db, entsql.EQ("subject_id", id))
	if err != nil {
		return nil, err
	}
	for _, c := range chapters {
		s.Chapters = append(s.Chapters, c.Chapter)
	}
	return &s, nil
}

func (r *subjectRepo) Create(ctx context.Context, s study.Subject) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		return insertSubject(ctx, tx, s)
	})
}

func insertSubject(ctx context.Context, x execer, s study.Subject) error {
	pos, err := nextPosition(ctx, x, SubjectsTable.Name, nil)
	if err != nil {
		return err
	}
	_, err = exec(ctx, x, builder.Insert(SubjectsTable.Name).
		Columns("id", "name", "exam_date", "priority", "position", "created_at").
		Values(s.ID, s.Name, s.ExamDate.String(), s.Priority, pos, time.Now().UTC()))
	if err != nil {
		return fmt.Errorf("insert subject %s: %w", s.ID, err)
	}
	for _, ch := range s.Chapters {
		if err := insertChapter(ctx, x, s.ID, ch); err != nil {
			return err
		}
	}
	return nil
}

func (r *subjectRepo) Update(ctx context.Context, s study.Subject) error {
	_, err := exec(ctx, r.db, builder.Update(SubjectsTable.Name).
		Set("name", s.Name).
		Set("exam_date", s.ExamDate.String()).
		Set("priority", s.Priority).
		Where(entsql.EQ("id", s.ID)))
	if err != nil {
		return fmt.Errorf("update subject %s: %w", s.ID, err)
	}
	return nil
}

func (r *subjectRepo) SetPriority(ctx context.Context, id string, priority float64) error {
	_, err := exec(ctx, r.db, builder.Update(SubjectsTable.Name).
		Set("priority", priority).
		Where(entsql.EQ("id", id)))
	if err != nil {
		return fmt.Errorf("set priority %s: %w", id, err)
	}
	return nil
}

func (r *subjectRepo) Delete(ctx context.Context, id string) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		if err := deleteSessions(ctx, tx, entsql.EQ("subject_id", id)); err != nil {
			return err
		}
		// Chapters cascade through the foreign key; delete them explicitly
		// as well so the result does not depend on the pragma.
		if _, err := exec(ctx, tx, builder.Delete(ChaptersTable.Name).Where(entsql.EQ("subject_id", id))); err != nil {
			return fmt.Errorf("delete chapters of %s: %w", id, err)
		}
		if _, err := exec(ctx, tx, builder.Delete(SubjectsTable.Name).Where(entsql.EQ("id", id))); err != nil {
			return fmt.Errorf("delete subject %s: %w", id, err)
		}
		return nil
	})
}

func (r *subjectRepo) AddChapter(ctx context.Context, subjectID string, ch study.Chapter) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		return insertChapter(ctx, tx, subjectID, ch)
	})
}

func insertChapter(ctx context.Context, x execer, subjectID string, ch study.Chapter) error {
	pos, err := nextPosition(ctx, x, ChaptersTable.Name, entsql.EQ("subject_id", subjectID))
	if err != nil {
		return err
	}
	_, err = exec(ctx, x, builder.Insert(ChaptersTable.Name).
		Columns("subject_id", "id", "name", "difficulty", "estimated_hours", "completed", "position").
		Values(subjectID, ch.ID, ch.Name, string(ch.Difficulty), ch.EstimatedHours, ch.Completed, pos))
	if err != nil {
		return fmt.Errorf("insert chapter %s/%s: %w", subjectID, ch.ID, err)
	}
	return nil
}

func (r *subjectRepo) UpdateChapter(ctx context.Context, subjectID string, ch study.Chapter) error {
	_, err := exec(ctx, r.db, builder.Update(ChaptersTable.Name).
		Set("name", ch.Name).
		Set("difficulty", string(ch.Difficulty)).
		Set("estimated_hours", ch.EstimatedHours).
		Set("completed", ch.Completed).
		Where(entsql.And(entsql.EQ("subject_id", subjectID), entsql.EQ("id", ch.ID))))
	if err != nil {
		return fmt.Errorf("update chapter %s/%s: %w", subjectID, ch.ID, err)
	}
	return nil
}

func (r *subjectRepo) DeleteChapter(ctx context.Context, subjectID, chapterID string) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		if err := deleteSessions(ctx, tx, entsql.And(entsql.EQ("subject_id", subjectID), entsql.EQ("chapter_id", chapterID))); err != nil {
			return err
		}
		_, err := exec(ctx, tx, builder.Delete(ChaptersTable.Name).
			Where(entsql.And(entsql.EQ("subject_id", subjectID), entsql.EQ("id", chapterID))))
		if err != nil {
			return fmt.Errorf("delete chapter %s/%s: %w", subjectID, chapterID, err)
		}
		return nil
	})
}

type chapterRow struct {
	subjectID string
	study.Chapter
}

func listChapters(ctx context.Context, x execer, where *entsql.Predicate) ([]chapterRow, error) {
	sel := builder.Select("subject_id", "id", "name", "difficulty", "estimated_hours", "completed").
		From(builder.Table(ChaptersTable.Name)).
		OrderBy("subject_id", "position")
	if where != nil {
		sel = sel.Where(where)
	}
	query, args := sel.Query()

	rows, err := x.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query chapters: %w", err)
	}
	defer rows.Close()

	var out []chapterRow
	for rows.Next() {
		var c chapterRow
		var difficulty string
		if err := rows.Scan(&c.subjectID, &c.ID, &c.Name, &difficulty, &c.EstimatedHours, &c.Completed); err != nil {
			return nil, fmt.Errorf("scan chapter: %w", err)
		}
		c.Difficulty = study.Difficulty(difficulty)
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chapters: %w", err)
	}
	return out, nil
}

// nextPosition returns one past the highest position in table.
func nextPosition(ctx context.Context, x execer, table string, where *entsql.Predicate) (int, error) {
	sel := builder.Select(entsql.Max("position")).From(builder.Table(table))
	if where != nil {
		sel = sel.Where(where)
	}
	query, args := sel.Query()

	var top sql.NullInt64
	if err := x.QueryRowContext(ctx, query, args...).Scan(&top); err != nil {
		return 0, fmt.Errorf("query max position of %s: %w", table, err)
	}
	if !top.Valid {
		return 0, nil
	}
	return int(top.Int64) + 1, nil
}
