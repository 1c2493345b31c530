package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	entsql "entgo.io/ent/dialect/sql"
)

// planSequence is the counter shared by plan events and snapshots, which
// lets a snapshot be ordered among the events that preceded it.
const planSequence = "plan"

// sequenceCounter issues increasing numbers from one row of the
// sequences table.
type sequenceCounter struct {
	mu   sync.Mutex
	db   *sql.DB
	name string
}

// newSequenceCounter seeds the plan sequence row if it does not exist yet.
// The table itself is created by migration.
func newSequenceCounter(db *sql.DB) (*sequenceCounter, error) {
	seed := builder.Insert(SequencesTable.Name).
		Columns("name", "value").
		Values(planSequence, 0).
		OnConflict(entsql.ConflictColumns("name"), entsql.DoNothing())
	if _, err := exec(context.Background(), db, seed); err != nil {
		return nil, fmt.Errorf("seed sequence %q: %w", planSequence, err)
	}
	return &sequenceCounter{db: db, name: planSequence}, nil
}

// Next increments the counter and returns the new value. The first call on
// a fresh database returns 1.
func (sc *sequenceCounter) Next(ctx context.Context) (int64, error) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	query, args := builder.Update(SequencesTable.Name).
		Add("value", 1).
		Where(entsql.EQ("name", sc.name)).
		Returning("value").
		Query()

	var v int64
	if err := sc.db.QueryRowContext(ctx, query, args...).Scan(&v); err != nil {
		if isNoRows(err) {
			return 0, fmt.Errorf("sequence %q is not seeded", sc.name)
		}
		return 0, fmt.Errorf("next sequence %q: %w", sc.name, err)
	}
	return v, nil
}
