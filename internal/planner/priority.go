package planner

import (
	"math"

	"cloud.google.com/go/civil"
	"github.com/abhisek/studyplan/internal/study"
)

// DaysToExam returns the number of whole days from today until the exam.
// It is zero or negative when the exam is today or already past.
func DaysToExam(examDate, today civil.Date) int {
	return examDate.DaysSince(today)
}

// CalculatePriority scores how urgently a subject needs study time.
// Closer exams and a larger share of unfinished chapters score higher.
// The score is rounded to two decimals and is never negative.
func CalculatePriority(s study.Subject, today civil.Date) float64 {
	days := DaysToExam(s.ExamDate, today)
	if days <= 0 {
		return 0
	}

	total := len(s.Chapters)
	if total == 0 {
		return 0
	}

	remaining := float64(total-s.CompletedChapters()) / float64(total)
	return math.Round((100/float64(days))*remaining*100) / 100
}

// PriorityChange is a subject whose stored priority is stale.
type PriorityChange struct {
	SubjectID string
	Old       float64
	New       float64
}

// RecomputePriorities scores every subject and returns only those whose
// score differs from the stored one, in input order. Callers persist the
// returned changes and nothing else.
func RecomputePriorities(subjects []study.Subject, today civil.Date) []PriorityChange {
	var changes []PriorityChange
	for _, s := range subjects {
		p := CalculatePriority(s, today)
		if p != s.Priority {
			changes = append(changes, PriorityChange{SubjectID: s.ID, Old: s.Priority, New: p})
		}
	}
	return changes
}

// ApplyPriorities returns copies of subjects with freshly computed scores.
func ApplyPriorities(subjects []study.Subject, today civil.Date) []study.Subject {
	out := make([]study.Subject, len(subjects))
	for i, s := range subjects {
		c := s.Clone()
		c.Priority = CalculatePriority(s, today)
		out[i] = c
	}
	return out
}
