package planner

import (
	"fmt"
	"slices"
	"time"

	"cloud.google.com/go/civil"
	"github.com/abhisek/studyplan/internal/study"
)

// Generator allocates study sessions day by day across a bounded horizon.
type Generator struct {
	cfg Config
}

// NewGenerator creates a Generator. An invalid cfg falls back to DefaultConfig.
func NewGenerator(cfg Config) *Generator {
	if cfg.Validate() != nil {
		cfg = DefaultConfig()
	}
	return &Generator{cfg: cfg}
}

// Config returns the limits the generator runs with.
func (g *Generator) Config() Config {
	return g.cfg
}

// GenerateStudyPlan runs a Generator with the default limits.
func GenerateStudyPlan(subjects []study.Subject, availability study.Availability, today civil.Date) []study.Session {
	return NewGenerator(DefaultConfig()).Generate(subjects, availability, today)
}

// workItem tracks the unscheduled part of one chapter.
type workItem struct {
	chapterID string
	remaining time.Duration
}

// subjectWork is the per-subject queue of incomplete chapters, oldest first.
type subjectWork struct {
	subjectID string
	remaining time.Duration
	queue     []*workItem
}

// Generate turns subjects and a weekly availability template into dated
// sessions, starting on today. Subjects are served highest priority first
// every day; each gets at most one session per day, capped at
// Config.SessionCap and by what is left of the day and of its current
// chapter. Sessions come back in date order, then priority order.
//
// Neither subjects nor availability is modified.
func (g *Generator) Generate(subjects []study.Subject, availability study.Availability, today civil.Date) []study.Session {
	if len(subjects) == 0 || len(availability) == 0 {
		return nil
	}

	ordered := slices.Clone(subjects)
	slices.SortStableFunc(ordered, func(a, b study.Subject) int {
		switch {
		case a.Priority > b.Priority:
			return -1
		case a.Priority < b.Priority:
			return 1
		}
		return 0
	})

	work := make([]*subjectWork, 0, len(ordered))
	for _, s := range ordered {
		work = append(work, newSubjectWork(s))
	}

	var sessions []study.Session
	date := today
	for day := 0; day < g.cfg.HorizonDays && hasRemaining(work); day++ {
		hours, ok := availability.HoursOn(date.Weekday())
		if ok && hours > 0 {
			sessions = g.allocateDay(sessions, work, date, study.HoursToDuration(hours))
		}
		date = date.AddDays(1)
	}
	return sessions
}

// allocateDay hands out one day's budget across subjects in priority order.
func (g *Generator) allocateDay(sessions []study.Session, work []*subjectWork, date civil.Date, budget time.Duration) []study.Session {
	for _, sw := range work {
		if sw.remaining <= 0 || len(sw.queue) == 0 {
			continue
		}

		ch := sw.queue[0]
		length := min(g.cfg.SessionCap, budget, ch.remaining)

		if length > 0 {
			sessions = append(sessions, study.Session{
				ID:        fmt.Sprintf("session-%d", len(sessions)+1),
				SubjectID: sw.subjectID,
				ChapterID: ch.chapterID,
				Date:      date,
				Duration:  length,
			})

			budget -= length
			sw.remaining -= length
			ch.remaining -= length

			if ch.remaining <= 0 {
				sw.queue = sw.queue[1:]
			}
		}

		if budget <= 0 {
			break
		}
	}
	return sessions
}

func newSubjectWork(s study.Subject) *subjectWork {
	sw := &subjectWork{subjectID: s.ID}
	for _, ch := range s.Chapters {
		if ch.Completed {
			continue
		}
		d := study.HoursToDuration(ch.EstimatedHours)
		// A chapter with no hours left needs no sessions; queuing it would
		// stall every chapter behind it.
		if d <= 0 {
			continue
		}
		sw.queue = append(sw.queue, &workItem{chapterID: ch.ID, remaining: d})
		sw.remaining += d
	}
	return sw
}

func hasRemaining(work []*subjectWork) bool {
	for _, sw := range work {
		if sw.remaining > 0 {
			return true
		}
	}
	return false
}
