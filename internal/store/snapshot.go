package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

// snapshotRepo implements SnapshotRepo on the snapshots table.
type snapshotRepo struct {
	db  *sql.DB
	seq *sequenceCounter
}

func (r *snapshotRepo) Save(ctx context.Context, snap *Snapshot) error {
	if snap.Sequence == 0 {
		seq, err := r.seq.Next(ctx)
		if err != nil {
			return err
		}
		snap.Sequence = seq
	}
	if snap.Timestamp.IsZero() {
		snap.Timestamp = time.Now()
	}
	if snap.Data.Version == 0 {
		snap.Data.Version = CurrentSnapshotVersion
	}

	data, err := json.Marshal(snap.Data)
	if err != nil {
		return fmt.Errorf("marshal snapshot data: %w", err)
	}

	res, err := exec(ctx, r.db, builder.Insert(SnapshotsTable.Name).
		Columns("sequence", "timestamp", "reason", "data").
		Values(snap.Sequence, snap.Timestamp.UTC(), snap.Reason, string(data)))
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	if id, err := res.LastInsertId(); err == nil {
		snap.ID = int(id)
	}
	return nil
}

func (r *snapshotRepo) Latest(ctx context.Context) (*Snapshot, error) {
	query, args := builder.Select("id", "sequence", "timestamp", "reason", "data").
		From(builder.Table(SnapshotsTable.Name)).
		OrderBy(entsql.Desc("sequence"), entsql.Desc("id")).
		Limit(1).
		Query()

	var snap Snapshot
	var data string
	err := r.db.QueryRowContext(ctx, query, args...).
		Scan(&snap.ID, &snap.Sequence, &snap.Timestamp, &snap.Reason, &data)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("query latest snapshot: %w", err)
	}
	if err := json.Unmarshal([]byte(data), &snap.Data); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot %d: %w", snap.ID, err)
	}
	return &snap, nil
}

func (r *snapshotRepo) Prune(ctx context.Context, keep int) error {
	if keep <= 0 {
		_, err := exec(ctx, r.db, builder.Delete(SnapshotsTable.Name))
		if err != nil {
			return fmt.Errorf("prune snapshots: %w", err)
		}
		return nil
	}

	// Find the sequence of the oldest snapshot to keep.
	query, args := builder.Select("sequence").
		From(builder.Table(SnapshotsTable.Name)).
		OrderBy(entsql.Desc("sequence")).
		Offset(keep - 1).
		Limit(1).
		Query()

	var threshold int64
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&threshold)
	if err != nil {
		if isNoRows(err) {
			return nil // fewer than keep snapshots exist
		}
		return fmt.Errorf("query snapshots for prune: %w", err)
	}

	_, err = exec(ctx, r.db, builder.Delete(SnapshotsTable.Name).Where(entsql.LT("sequence", threshold)))
	if err != nil {
		return fmt.Errorf("prune snapshots: %w", err)
	}
	return nil
}
