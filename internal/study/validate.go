package study

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidationError reports which fields of an input failed validation.
type ValidationError struct {
	Fields map[string]string // field -> failed rule
	Err    error
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return fmt.Sprintf("validation failed: %v", e.Err)
	}
	parts := make([]string, 0, len(e.Fields))
	for f, rule := range e.Fields {
		parts = append(parts, f+" ("+rule+")")
	}
	slices.Sort(parts)
	return "validation failed: " + strings.Join(parts, ", ")
}

func (e *ValidationError) Unwrap() error { return e.Err }

func wrapValidation(err error) error {
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return &ValidationError{Err: err}
	}
	fields := make(map[string]string, len(ve))
	for _, fe := range ve {
		fields[fe.Namespace()] = fe.Tag()
	}
	return &ValidationError{Fields: fields, Err: err}
}

// MaxChapterHours bounds a chapter estimate well below the point where the
// hours no longer fit in a time.Duration.
const MaxChapterHours = 10000

// ValidateChapter checks a chapter before it reaches the planner.
func ValidateChapter(ch Chapter) error {
	if err := checkFinite("Chapter.EstimatedHours", ch.EstimatedHours); err != nil {
		return err
	}
	return wrapValidation(validate.Struct(ch))
}

func checkFinite(field string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return &ValidationError{
			Fields: map[string]string{field: "finite"},
			Err:    fmt.Errorf("%s must be a finite number, got %v", field, v),
		}
	}
	return nil
}

// ValidateSubject checks a subject and all of its chapters.
func ValidateSubject(s Subject) error {
	for i, ch := range s.Chapters {
		if err := checkFinite(fmt.Sprintf("Subject.Chapters[%d].EstimatedHours", i), ch.EstimatedHours); err != nil {
			return err
		}
	}
	if err := wrapValidation(validate.Struct(s)); err != nil {
		return err
	}
	if !s.ExamDate.IsValid() {
		return &ValidationError{
			Fields: map[string]string{"Subject.ExamDate": "date"},
			Err:    fmt.Errorf("invalid exam date %v", s.ExamDate),
		}
	}
	return nil
}

// ValidateAvailability checks the weekly template: one non-negative entry per weekday at most.
func ValidateAvailability(a Availability) error {
	seen := make(map[int]bool, len(a))
	for _, d := range a {
		if d.Day < 0 || d.Day > 6 {
			return &ValidationError{Fields: map[string]string{"Availability.Day": "weekday"}, Err: fmt.Errorf("weekday %d out of range", d.Day)}
		}
		if seen[int(d.Day)] {
			return &ValidationError{Fields: map[string]string{"Availability.Day": "unique"}, Err: fmt.Errorf("duplicate entry for %s", d.Day)}
		}
		seen[int(d.Day)] = true
		if err := validate.Var(d.Hours, "gte=0,lte=24"); err != nil {
			return wrapValidation(err)
		}
	}
	return nil
}

// ValidateSession checks a manually entered session.
func ValidateSession(s Session) error {
	fields := map[string]string{}
	if s.SubjectID == "" {
		fields["Session.SubjectID"] = "required"
	}
	if s.ChapterID == "" {
		fields["Session.ChapterID"] = "required"
	}
	if s.Duration <= 0 {
		fields["Session.Duration"] = "gt"
	}
	if !s.Date.IsValid() {
		fields["Session.Date"] = "date"
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields, Err: errors.New("invalid session")}
	}
	return nil
}

// ParseDate parses an ISO calendar date (YYYY-MM-DD).
func ParseDate(s string) (civil.Date, error) {
	d, err := civil.ParseDate(strings.TrimSpace(s))
	if err != nil {
		return civil.Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return d, nil
}
