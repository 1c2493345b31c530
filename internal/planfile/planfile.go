// Package planfile reads and writes the JSON documents exchanged with the
// outside world: full study-plan exports and the backend's study-plan list.
package planfile

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"cloud.google.com/go/civil"
	"github.com/abhisek/studyplan/internal/study"
)

// CurrentVersion is written into every export.
const CurrentVersion = 1

// ErrInvalidDocument reports a document that is not valid JSON or does not
// match its schema.
type ErrInvalidDocument struct {
	Kind string
	Err  error
}

func (e *ErrInvalidDocument) Error() string {
	return fmt.Sprintf("invalid %s document: %v", e.Kind, e.Err)
}

func (e *ErrInvalidDocument) Unwrap() error { return e.Err }

// Document is the export envelope around a study.State.
type Document struct {
	Version    int        `json:"version"`
	ExportedAt *time.Time `json:"exportedAt,omitempty"`
	study.State
}

// Encode writes st as an indented export document.
func Encode(w io.Writer, st study.State, now time.Time) error {
	doc := Document{Version: CurrentVersion, State: st}
	if !now.IsZero() {
		ts := now.UTC()
		doc.ExportedAt = &ts
	}
	// Empty lists are written as [] rather than null.
	if doc.Subjects == nil {
		doc.Subjects = []study.Subject{}
	}
	if doc.Availability == nil {
		doc.Availability = study.Availability{}
	}
	if doc.Sessions == nil {
		doc.Sessions = []study.Session{}
	}
	for i := range doc.Subjects {
		if doc.Subjects[i].Chapters == nil {
			doc.Subjects[i] = doc.Subjects[i].Clone()
			doc.Subjects[i].Chapters = []study.Chapter{}
		}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode study plan: %w", err)
	}
	return nil
}

// Decode reads an export document. The document is checked against
// StateSchema before it is decoded.
func Decode(r io.Reader) (study.State, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return study.State{}, fmt.Errorf("read study plan: %w", err)
	}
	if err := StateSchema.check(raw); err != nil {
		return study.State{}, err
	}

	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return study.State{}, &ErrInvalidDocument{Kind: StateSchema.Name, Err: err}
	}
	for i := range doc.Subjects {
		for j := range doc.Subjects[i].Chapters {
			if doc.Subjects[i].Chapters[j].Difficulty == "" {
				doc.Subjects[i].Chapters[j].Difficulty = study.DifficultyMedium
			}
		}
	}
	return doc.State, nil
}

// StudyPlanRecord is one entry of the backend's /api/study-plans listing.
type StudyPlanRecord struct {
	ID          int        `json:"id"`
	Subject     string     `json:"subject"`
	ExamDate    civil.Date `json:"exam_date"`
	Description *string    `json:"description,omitempty"`
	CreatedAt   string     `json:"created_at,omitempty"`
	UpdatedAt   *string    `json:"updated_at,omitempty"`
}

// DecodeStudyPlans reads a backend study-plan listing.
func DecodeStudyPlans(r io.Reader) ([]StudyPlanRecord, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read study plans: %w", err)
	}
	if err := StudyPlansSchema.check(raw); err != nil {
		return nil, err
	}

	var plans []StudyPlanRecord
	if err := json.Unmarshal(raw, &plans); err != nil {
		// Calendar-invalid dates such as 2025-02-30 pass the pattern check.
		return nil, &ErrInvalidDocument{Kind: StudyPlansSchema.Name, Err: err}
	}
	return plans, nil
}
