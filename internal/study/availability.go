package study

import (
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"
)

// DayAvailability is the number of hours available on one weekday.
type DayAvailability struct {
	Day   time.Weekday
	Hours float64
}

type dayAvailabilityJSON struct {
	Day            string  `json:"day"`
	AvailableHours float64 `json:"availableHours"`
}

// MarshalJSON encodes the weekday as "0".."6" (Sunday = "0").
func (d DayAvailability) MarshalJSON() ([]byte, error) {
	return json.Marshal(dayAvailabilityJSON{
		Day:            strconv.Itoa(int(d.Day)),
		AvailableHours: d.Hours,
	})
}

func (d *DayAvailability) UnmarshalJSON(data []byte) error {
	var v dayAvailabilityJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	day, err := strconv.Atoi(v.Day)
	if err != nil || day < 0 || day > 6 {
		return fmt.Errorf("invalid weekday %q", v.Day)
	}
	d.Day = time.Weekday(day)
	d.Hours = v.AvailableHours
	return nil
}

// Availability is the recurring weekly study template.
// A weekday without an entry has no study time.
type Availability []DayAvailability

// DefaultAvailability returns the preset template: 4h on weekends, 2h on weekdays.
func DefaultAvailability() Availability {
	return Availability{
		{Day: time.Sunday, Hours: 4},
		{Day: time.Monday, Hours: 2},
		{Day: time.Tuesday, Hours: 2},
		{Day: time.Wednesday, Hours: 2},
		{Day: time.Thursday, Hours: 2},
		{Day: time.Friday, Hours: 2},
		{Day: time.Saturday, Hours: 4},
	}
}

// HoursOn returns the hours available on day and whether an entry exists.
func (a Availability) HoursOn(day time.Weekday) (float64, bool) {
	for _, d := range a {
		if d.Day == day {
			return d.Hours, true
		}
	}
	return 0, false
}

// With returns a copy of a with day set to hours. Entries stay in weekday order.
func (a Availability) With(day time.Weekday, hours float64) Availability {
	out := make(Availability, 0, 7)
	found := false
	for _, d := range a {
		if d.Day == day {
			d.Hours = hours
			found = true
		}
		out = append(out, d)
	}
	if !found {
		out = append(out, DayAvailability{Day: day, Hours: hours})
	}
	slices.SortFunc(out, func(x, y DayAvailability) int { return int(x.Day) - int(y.Day) })
	return out
}

// WeeklyHours sums the hours across all weekdays.
func (a Availability) WeeklyHours() float64 {
	var total float64
	for _, d := range a {
		if d.Hours > 0 {
			total += d.Hours
		}
	}
	return total
}

// ParseWeekday accepts "0".."6" or an English weekday name or its
// three-letter prefix ("sun", "Monday", ...).
func ParseWeekday(s string) (time.Weekday, error) {
	if n, err := strconv.Atoi(s); err == nil {
		if n < 0 || n > 6 {
			return 0, fmt.Errorf("weekday %d out of range 0-6", n)
		}
		return time.Weekday(n), nil
	}
	lower := strings.ToLower(strings.TrimSpace(s))
	for d := time.Sunday; d <= time.Saturday; d++ {
		name := strings.ToLower(d.String())
		if lower == name || (len(lower) >= 3 && strings.HasPrefix(name, lower)) {
			return d, nil
		}
	}
	return 0, fmt.Errorf("unknown weekday %q", s)
}
