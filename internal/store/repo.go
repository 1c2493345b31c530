package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/abhisek/studyplan/internal/study"
)

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit  int       // max results (0 = unlimited)
	After  int64     // sequence > After
	Before int64     // sequence < Before
	From   time.Time // timestamp >= From
	To     time.Time // timestamp <= To
}

// SubjectRepo manages subjects and their ordered chapters.
type SubjectRepo interface {
	// List returns all subjects in insertion order, chapters included.
	List(ctx context.Context) ([]study.Subject, error)

	// Get returns one subject, or nil if it does not exist.
	Get(ctx context.Context, id string) (*study.Subject, error)

	// Create appends a subject (and any chapters it carries).
	Create(ctx context.Context, s study.Subject) error

	// Update overwrites name, exam date and priority. Chapters are untouched.
	Update(ctx context.Context, s study.Subject) error

	// SetPriority stores a recomputed priority score.
	SetPriority(ctx context.Context, id string, priority float64) error

	// Delete removes a subject with its chapters and sessions in one
	// transaction.
	Delete(ctx context.Context, id string) error

	// AddChapter appends a chapter to the end of a subject's chapter list.
	AddChapter(ctx context.Context, subjectID string, ch study.Chapter) error

	// UpdateChapter overwrites a chapter in place, keeping its position.
	UpdateChapter(ctx context.Context, subjectID string, ch study.Chapter) error

	// DeleteChapter removes one chapter and its sessions in one transaction.
	DeleteChapter(ctx context.Context, subjectID, chapterID string) error
}

// AvailabilityRepo manages the weekly availability template.
type AvailabilityRepo interface {
	// Get returns the stored template. It is empty until Set or Replace is called.
	Get(ctx context.Context) (study.Availability, error)

	// Set stores the hours for one weekday.
	Set(ctx context.Context, day time.Weekday, hours float64) error

	// Replace overwrites the whole template.
	Replace(ctx context.Context, a study.Availability) error
}

// SessionFilter narrows session listings.
type SessionFilter struct {
	SubjectID string
	From      civil.Date // inclusive, zero = unbounded
	To        civil.Date // inclusive, zero = unbounded
	Pending   bool       // only sessions not yet completed
}

// SessionRepo manages generated and manual study sessions.
type SessionRepo interface {
	// List returns sessions ordered by date, then generation order.
	List(ctx context.Context, f SessionFilter) ([]study.Session, error)

	// Get returns one session, or nil if it does not exist.
	Get(ctx context.Context, id string) (*study.Session, error)

	// ReplaceGenerated atomically swaps every generated session for the
	// given ones. Manual sessions are kept.
	ReplaceGenerated(ctx context.Context, sessions []study.Session) error

	// Add appends one session.
	Add(ctx context.Context, s study.Session) error

	// SetCompleted toggles the completion flag. It reports whether the
	// session exists.
	SetCompleted(ctx context.Context, id string, completed bool) (bool, error)
}

// StateRepo reads and replaces the whole data set in one transaction.
type StateRepo interface {
	Load(ctx context.Context) (study.State, error)
	Replace(ctx context.Context, st study.State) error
}

// PlanEventData captures one plan-level action.
type PlanEventData struct {
	Action      string // generate, reset, restore, import, sync
	StartDate   civil.Date
	HorizonDays int
	Subjects    int
	Sessions    int
	Scheduled   time.Duration
	Unscheduled time.Duration
	Detail      string
}

// PlanEventRecord is a stored PlanEventData.
type PlanEventRecord struct {
	ID        int
	Sequence  int64
	Timestamp time.Time
	PlanEventData
}

// EventRepo provides append and query access to plan events.
type EventRepo interface {
	// AppendPlanEvent records a plan-level action.
	AppendPlanEvent(ctx context.Context, data PlanEventData) error

	// QueryPlanEvents returns events newest first.
	QueryPlanEvents(ctx context.Context, opts QueryOpts) ([]PlanEventRecord, error)
}

// SnapshotData captures the full study state at a point in time.
type SnapshotData struct {
	Version int         `json:"version"`
	State   study.State `json:"state"`
}

// CurrentSnapshotVersion is written into every new snapshot.
const CurrentSnapshotVersion = 1

// Snapshot represents a point-in-time capture of study state.
type Snapshot struct {
	ID        int
	Sequence  int64
	Timestamp time.Time
	Reason    string
	Data      SnapshotData
}

// SnapshotRepo manages study state snapshots.
type SnapshotRepo interface {
	// Save stores a new snapshot. A zero Sequence is assigned from the
	// global event sequence.
	Save(ctx context.Context, snap *Snapshot) error

	// Latest returns the most recent snapshot, or nil if none exist.
	Latest(ctx context.Context) (*Snapshot, error)

	// Prune deletes all but the N most recent snapshots.
	Prune(ctx context.Context, keep int) error
}

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// withTx runs fn inside a transaction, committing on success.
func withTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		if rerr := tx.Rollback(); rerr != nil {
			return fmt.Errorf("%w (rollback: %v)", err, rerr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// exec runs a built statement.
func exec(ctx context.Context, x execer, q interface{ Query() (string, []any) }) (sql.Result, error) {
	query, args := q.Query()
	return x.ExecContext(ctx, query, args...)
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
