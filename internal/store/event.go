package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

// eventRepo implements EventRepo on the plan_events table.
type eventRepo struct {
	db  *sql.DB
	seq *sequenceCounter
}

func (r *eventRepo) AppendPlanEvent(ctx context.Context, data PlanEventData) error {
	seq, err := r.seq.Next(ctx)
	if err != nil {
		return err
	}

	var detail sql.NullString
	if data.Detail != "" {
		detail = sql.NullString{String: data.Detail, Valid: true}
	}
	var start string
	if !data.StartDate.IsZero() {
		start = data.StartDate.String()
	}

	_, err = exec(ctx, r.db, builder.Insert(PlanEventsTable.Name).
		Columns("sequence", "timestamp", "action", "start_date", "horizon_days",
			"subjects", "sessions", "scheduled_ns", "unscheduled_ns", "detail").
		Values(seq, time.Now().UTC(), data.Action, start, data.HorizonDays,
			data.Subjects, data.Sessions, int64(data.Scheduled), int64(data.Unscheduled), detail))
	if err != nil {
		return fmt.Errorf("append plan event: %w", err)
	}
	return nil
}

func (r *eventRepo) QueryPlanEvents(ctx context.Context, opts QueryOpts) ([]PlanEventRecord, error) {
	sel := builder.Select("id", "sequence", "timestamp", "action", "start_date", "horizon_days",
		"subjects", "sessions", "scheduled_ns", "unscheduled_ns", "detail").
		From(builder.Table(PlanEventsTable.Name)).
		OrderBy(entsql.Desc("sequence"))

	var preds []*entsql.Predicate
	if opts.After > 0 {
		preds = append(preds, entsql.GT("sequence", opts.After))
	}
	if opts.Before > 0 {
		preds = append(preds, entsql.LT("sequence", opts.Before))
	}
	if !opts.From.IsZero() {
		preds = append(preds, entsql.GTE("timestamp", opts.From.UTC()))
	}
	if !opts.To.IsZero() {
		preds = append(preds, entsql.LTE("timestamp", opts.To.UTC()))
	}
	if len(preds) > 0 {
		sel = sel.Where(entsql.And(preds...))
	}
	if opts.Limit > 0 {
		sel = sel.Limit(opts.Limit)
	}

	query, args := sel.Query()
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query plan events: %w", err)
	}
	defer rows.Close()

	var out []PlanEventRecord
	for rows.Next() {
		var rec PlanEventRecord
		var start string
		var scheduled, unscheduled int64
		var detail sql.NullString
		err := rows.Scan(&rec.ID, &rec.Sequence, &rec.Timestamp, &rec.Action, &start, &rec.HorizonDays,
			&rec.Subjects, &rec.Sessions, &scheduled, &unscheduled, &detail)
		if err != nil {
			return nil, fmt.Errorf("scan plan event: %w", err)
		}
		if start != "" {
			if err := rec.StartDate.Scan(start); err != nil {
				return nil, fmt.Errorf("plan event %d: %w", rec.ID, err)
			}
		}
		rec.Scheduled = time.Duration(scheduled)
		rec.Unscheduled = time.Duration(unscheduled)
		rec.Detail = detail.String
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate plan events: %w", err)
	}
	return out, nil
}
