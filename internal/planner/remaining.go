package planner

import (
	"time"

	"github.com/abhisek/studyplan/internal/study"
)

// Shortfall is work a generated plan left unscheduled for one subject.
type Shortfall struct {
	SubjectID string
	Remaining time.Duration // incomplete chapter hours before generation
	Scheduled time.Duration // hours covered by generated sessions
}

// Unscheduled returns the portion of Remaining not covered.
func (s Shortfall) Unscheduled() time.Duration {
	if s.Scheduled >= s.Remaining {
		return 0
	}
	return s.Remaining - s.Scheduled
}

// Unscheduled compares each subject's outstanding work with the time the
// given sessions cover and returns the subjects the plan could not finish
// within its horizon, in input order. Manual sessions are ignored.
func Unscheduled(subjects []study.Subject, sessions []study.Session) []Shortfall {
	scheduled := make(map[string]time.Duration, len(subjects))
	for _, s := range sessions {
		if s.Manual {
			continue
		}
		scheduled[s.SubjectID] += s.Duration
	}

	var out []Shortfall
	for _, s := range subjects {
		sf := Shortfall{SubjectID: s.ID, Scheduled: scheduled[s.ID]}
		for _, ch := range s.Chapters {
			if !ch.Completed && ch.EstimatedHours > 0 {
				sf.Remaining += study.HoursToDuration(ch.EstimatedHours)
			}
		}
		if sf.Unscheduled() > 0 {
			out = append(out, sf)
		}
	}
	return out
}

// ChapterKey identifies a chapter across subjects.
type ChapterKey struct {
	SubjectID string
	ChapterID string
}

// ScheduledByChapter totals generated session time per chapter.
func ScheduledByChapter(sessions []study.Session) map[ChapterKey]time.Duration {
	out := make(map[ChapterKey]time.Duration)
	for _, s := range sessions {
		if s.Manual {
			continue
		}
		out[ChapterKey{SubjectID: s.SubjectID, ChapterID: s.ChapterID}] += s.Duration
	}
	return out
}
