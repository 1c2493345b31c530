// Package stats derives study statistics from sessions and subjects.
package stats

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/abhisek/studyplan/internal/planner"
	"github.com/abhisek/studyplan/internal/study"
)

// Day aggregates the sessions dated on one calendar day.
type Day struct {
	Date      civil.Date
	Total     time.Duration
	Completed time.Duration
	Sessions  int
	BySubject map[string]time.Duration
}

// DailyStats groups sessions by date, newest first.
func DailyStats(sessions []study.Session) []Day {
	index := make(map[civil.Date]int)
	var days []Day
	for _, s := range sessions {
		i, ok := index[s.Date]
		if !ok {
			i = len(days)
			index[s.Date] = i
			days = append(days, Day{Date: s.Date, BySubject: make(map[string]time.Duration)})
		}
		d := &days[i]
		d.Total += s.Duration
		d.Sessions++
		d.BySubject[s.SubjectID] += s.Duration
		if s.Completed {
			d.Completed += s.Duration
		}
	}
	slices.SortFunc(days, func(a, b Day) int { return b.Date.Compare(a.Date) })
	return days
}

// Streak counts consecutive days, ending today, with at least one
// completed session. A day without one breaks the streak, so it is 0
// until something is finished today.
func Streak(sessions []study.Session, today civil.Date) int {
	done := make(map[civil.Date]bool)
	for _, s := range sessions {
		if s.Completed {
			done[s.Date] = true
		}
	}
	n := 0
	for d := today; done[d]; d = d.AddDays(-1) {
		n++
	}
	return n
}

// SubjectTotal is the study time attributed to one subject.
type SubjectTotal struct {
	SubjectID string
	Total     time.Duration
}

// BySubject totals session time per subject, largest first. Ties are
// broken by subject ID.
func BySubject(sessions []study.Session) []SubjectTotal {
	totals := make(map[string]time.Duration)
	for _, s := range sessions {
		totals[s.SubjectID] += s.Duration
	}
	out := make([]SubjectTotal, 0, len(totals))
	for id, d := range totals {
		out = append(out, SubjectTotal{SubjectID: id, Total: d})
	}
	slices.SortFunc(out, func(a, b SubjectTotal) int {
		if a.Total != b.Total {
			if a.Total > b.Total {
				return -1
			}
			return 1
		}
		return strings.Compare(a.SubjectID, b.SubjectID)
	})
	return out
}

// SubjectProgress summarizes how far a subject is from done.
type SubjectProgress struct {
	SubjectID      string
	Name           string
	Completed      int
	Total          int
	RemainingHours float64
	DaysToExam     int
	Priority       float64
}

// Fraction returns completed chapters over total, 0 for an empty subject.
func (p SubjectProgress) Fraction() float64 {
	if p.Total == 0 {
		return 0
	}
	return float64(p.Completed) / float64(p.Total)
}

// Progress reports chapter completion per subject, in input order.
func Progress(subjects []study.Subject, today civil.Date) []SubjectProgress {
	out := make([]SubjectProgress, 0, len(subjects))
	for _, s := range subjects {
		out = append(out, SubjectProgress{
			SubjectID:      s.ID,
			Name:           s.Name,
			Completed:      s.CompletedChapters(),
			Total:          len(s.Chapters),
			RemainingHours: s.RemainingHours(),
			DaysToExam:     planner.DaysToExam(s.ExamDate, today),
			Priority:       s.Priority,
		})
	}
	return out
}

// Summary is the headline numbers for a set of sessions.
type Summary struct {
	Sessions  int
	Completed int
	Planned   time.Duration
	Studied   time.Duration
	Upcoming  int // sessions dated today or later, not yet completed
	Streak    int
	Subjects  int // distinct subjects with at least one completed session
}

// Summarize computes the headline numbers as of today.
func Summarize(sessions []study.Session, today civil.Date) Summary {
	var sum Summary
	studied := make(map[string]bool)
	for _, s := range sessions {
		sum.Sessions++
		sum.Planned += s.Duration
		if s.Completed {
			sum.Completed++
			sum.Studied += s.Duration
			studied[s.SubjectID] = true
		} else if !s.Date.Before(today) {
			sum.Upcoming++
		}
	}
	sum.Streak = Streak(sessions, today)
	sum.Subjects = len(studied)
	return sum
}

// FormatDuration renders d as "45 min", "2 hr" or "1 hr 30 min".
// Seconds are rounded to the nearest minute.
func FormatDuration(d time.Duration) string {
	total := int(d.Round(time.Minute) / time.Minute)
	hours, mins := total/60, total%60
	switch {
	case hours == 0:
		return fmt.Sprintf("%d min", mins)
	case mins == 0:
		return fmt.Sprintf("%d hr", hours)
	default:
		return fmt.Sprintf("%d hr %d min", hours, mins)
	}
}
