package study

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"cloud.google.com/go/civil"
)

// Difficulty is an informational tag on a chapter. The planner ignores it.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// AllDifficulties returns the difficulty tags in display order.
func AllDifficulties() []Difficulty {
	return []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard}
}

// ParseDifficulty maps a user-supplied tag to a Difficulty.
func ParseDifficulty(s string) (Difficulty, error) {
	for _, d := range AllDifficulties() {
		if string(d) == s {
			return d, nil
		}
	}
	return "", fmt.Errorf("unknown difficulty %q (want easy, medium or hard)", s)
}

// Chapter is a unit of work within a subject.
type Chapter struct {
	ID             string     `json:"id" validate:"required"`
	Name           string     `json:"name" validate:"required"`
	Difficulty     Difficulty `json:"difficulty" validate:"oneof=easy medium hard"`
	EstimatedHours float64    `json:"estimatedHours" validate:"gte=0,lte=10000"`
	Completed      bool       `json:"completed"`
}

// Subject is a course being studied towards an exam.
type Subject struct {
	ID       string     `json:"id" validate:"required"`
	Name     string     `json:"name" validate:"required"`
	Chapters []Chapter  `json:"chapters" validate:"dive"`
	ExamDate civil.Date `json:"examDate"`

	// Priority is derived from ExamDate and Chapters. It is stored so that
	// only changed scores are written back.
	Priority float64 `json:"priority" validate:"gte=0"`
}

// CompletedChapters returns the number of chapters marked complete.
func (s Subject) CompletedChapters() int {
	n := 0
	for _, ch := range s.Chapters {
		if ch.Completed {
			n++
		}
	}
	return n
}

// RemainingHours sums the estimated hours of incomplete chapters.
func (s Subject) RemainingHours() float64 {
	var total float64
	for _, ch := range s.Chapters {
		if !ch.Completed {
			total += ch.EstimatedHours
		}
	}
	return total
}

// Chapter returns the chapter with the given ID.
func (s Subject) Chapter(id string) (Chapter, bool) {
	for _, ch := range s.Chapters {
		if ch.ID == id {
			return ch, true
		}
	}
	return Chapter{}, false
}

// Clone returns a deep copy of the subject.
func (s Subject) Clone() Subject {
	c := s
	if s.Chapters != nil {
		c.Chapters = make([]Chapter, len(s.Chapters))
		copy(c.Chapters, s.Chapters)
	}
	return c
}

// Session is a block of study time on one chapter of one subject.
type Session struct {
	ID        string
	SubjectID string
	ChapterID string
	Date      civil.Date
	Duration  time.Duration
	Completed bool

	// Manual sessions were added by hand and survive plan regeneration.
	Manual bool
}

// Minutes returns the session length in minutes.
func (s Session) Minutes() float64 {
	return s.Duration.Minutes()
}

type sessionJSON struct {
	ID        string     `json:"id"`
	SubjectID string     `json:"subjectId"`
	ChapterID string     `json:"chapterId"`
	Date      civil.Date `json:"date"`
	Duration  float64    `json:"duration"`
	Completed bool       `json:"completed"`
	Manual    bool       `json:"manual,omitempty"`
}

// MarshalJSON encodes the duration in minutes.
func (s Session) MarshalJSON() ([]byte, error) {
	return json.Marshal(sessionJSON{
		ID:        s.ID,
		SubjectID: s.SubjectID,
		ChapterID: s.ChapterID,
		Date:      s.Date,
		Duration:  s.Minutes(),
		Completed: s.Completed,
		Manual:    s.Manual,
	})
}

// UnmarshalJSON decodes a duration given in minutes.
func (s *Session) UnmarshalJSON(data []byte) error {
	var v sessionJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*s = Session{
		ID:        v.ID,
		SubjectID: v.SubjectID,
		ChapterID: v.ChapterID,
		Date:      v.Date,
		Duration:  MinutesToDuration(v.Duration),
		Completed: v.Completed,
		Manual:    v.Manual,
	}
	return nil
}

// HoursToDuration converts fractional hours to a Duration, rounded to the
// nearest nanosecond so 2.3h is exactly 2h18m.
func HoursToDuration(h float64) time.Duration {
	return time.Duration(math.Round(h * float64(time.Hour)))
}

// MinutesToDuration converts fractional minutes to a Duration, rounded to
// the nearest nanosecond.
func MinutesToDuration(m float64) time.Duration {
	return time.Duration(math.Round(m * float64(time.Minute)))
}

// State is the complete user-owned data set.
type State struct {
	Subjects     []Subject    `json:"subjects"`
	Availability Availability `json:"availability"`
	Sessions     []Session    `json:"sessions"`
}
