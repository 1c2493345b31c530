package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/abhisek/studyplan/internal/study"
)

type availabilityRepo struct {
	db *sql.DB
}

func (r *availabilityRepo) Get(ctx context.Context) (study.Availability, error) {
	return loadAvailability(ctx, r.db)
}

func loadAvailability(ctx context.Context, x execer) (study.Availability, error) {
	query, args := builder.Select("weekday", "hours").
		From(builder.Table(AvailabilityTable.Name)).
		OrderBy("weekday").
		Query()
	rows, err := x.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query availability: %w", err)
	}
	defer rows.Close()

	var a study.Availability
	for rows.Next() {
		var day int
		var hours float64
		if err := rows.Scan(&day, &hours); err != nil {
			return nil, fmt.Errorf("scan availability: %w", err)
		}
		a = append(a, study.DayAvailability{Day: time.Weekday(day), Hours: hours})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate availability: %w", err)
	}
	return a, nil
}

func (r *availabilityRepo) Set(ctx context.Context, day time.Weekday, hours float64) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		return upsertDay(ctx, tx, day, hours)
	})
}

func (r *availabilityRepo) Replace(ctx context.Context, a study.Availability) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		return replaceAvailability(ctx, tx, a)
	})
}

func replaceAvailability(ctx context.Context, x execer, a study.Availability) error {
	if _, err := exec(ctx, x, builder.Delete(AvailabilityTable.Name)); err != nil {
		return fmt.Errorf("clear availability: %w", err)
	}
	for _, d := range a {
		if err := upsertDay(ctx, x, d.Day, d.Hours); err != nil {
			return err
		}
	}
	return nil
}

func upsertDay(ctx context.Context, x execer, day time.Weekday, hours float64) error {
	if _, err := exec(ctx, x, builder.Delete(AvailabilityTable.Name).Where(entsql.EQ("weekday", int(day)))); err != nil {
		return fmt.Errorf("clear %s: %w", day, err)
	}
	_, err := exec(ctx, x, builder.Insert(AvailabilityTable.Name).
		Columns("weekday", "hours").
		Values(int(day), hours))
	if err != nil {
		return fmt.Errorf("store %s: %w", day, err)
	}
	return nil
}
