package planfile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// Schema is a named JSON Schema definition for one document kind. It is
// compiled on first use.
type Schema struct {
	Name       string
	Definition map[string]any

	once     sync.Once
	compiled *jsonschema.Schema
	err      error
}

var isoDate = map[string]any{
	"type":    "string",
	"pattern": `^\d{4}-\d{2}-\d{2}$`,
}

var chapterSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"id":             map[string]any{"type": "string", "minLength": 1},
		"name":           map[string]any{"type": "string", "minLength": 1},
		"difficulty":     map[string]any{"type": "string", "enum": []any{"easy", "medium", "hard"}},
		"estimatedHours": map[string]any{"type": "number", "minimum": 0, "maximum": 10000},
		"completed":      map[string]any{"type": "boolean"},
	},
	"required": []any{"id", "name", "estimatedHours"},
}

var subjectSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"id":       map[string]any{"type": "string", "minLength": 1},
		"name":     map[string]any{"type": "string", "minLength": 1},
		"examDate": isoDate,
		"priority": map[string]any{"type": "number", "minimum": 0},
		"chapters": map[string]any{"type": "array", "items": chapterSchema},
	},
	"required": []any{"id", "name", "examDate"},
}

var availabilitySchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"day":            map[string]any{"type": "string", "enum": []any{"0", "1", "2", "3", "4", "5", "6"}},
		"availableHours": map[string]any{"type": "number", "minimum": 0, "maximum": 24},
	},
	"required": []any{"day", "availableHours"},
}

var sessionSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"id":        map[string]any{"type": "string", "minLength": 1},
		"subjectId": map[string]any{"type": "string", "minLength": 1},
		"chapterId": map[string]any{"type": "string", "minLength": 1},
		"date":      isoDate,
		"duration":  map[string]any{"type": "number", "exclusiveMinimum": 0},
		"completed": map[string]any{"type": "boolean"},
		"manual":    map[string]any{"type": "boolean"},
	},
	"required": []any{"id", "subjectId", "chapterId", "date", "duration"},
}

// StateSchema describes an exported study plan. Version and export time
// are optional so that bare {subjects, availability, sessions} blobs load.
var StateSchema = &Schema{
	Name: "study-state",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"version":      map[string]any{"type": "integer", "minimum": 1, "maximum": CurrentVersion},
			"exportedAt":   map[string]any{"type": "string"},
			"subjects":     map[string]any{"type": "array", "items": subjectSchema},
			"availability": map[string]any{"type": "array", "items": availabilitySchema, "maxItems": 7},
			"sessions":     map[string]any{"type": "array", "items": sessionSchema},
		},
		"required": []any{"subjects"},
	},
}

// StudyPlansSchema describes the backend's study-plan listing.
var StudyPlansSchema = &Schema{
	Name: "study-plans",
	Definition: map[string]any{
		"type": "array",
		"items": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"id":          map[string]any{"type": "integer"},
				"subject":     map[string]any{"type": "string", "minLength": 1},
				"exam_date":   isoDate,
				"description": map[string]any{"type": []any{"string", "null"}},
				"created_at":  map[string]any{"type": "string"},
				"updated_at":  map[string]any{"type": []any{"string", "null"}},
			},
			"required": []any{"id", "subject", "exam_date"},
		},
	},
}

// check validates raw against the schema. Numbers are decoded as
// json.Number so integer checks see the literal value. Failures are
// *ErrInvalidDocument.
func (s *Schema) check(raw []byte) error {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return &ErrInvalidDocument{Kind: s.Name, Err: fmt.Errorf("invalid JSON: %w", err)}
	}
	s.once.Do(s.compile)
	if s.err != nil {
		return &ErrInvalidDocument{Kind: s.Name, Err: s.err}
	}
	if err := s.compiled.Validate(doc); err != nil {
		return &ErrInvalidDocument{Kind: s.Name, Err: err}
	}
	return nil
}

func (s *Schema) compile() {
	def, err := json.Marshal(s.Definition)
	if err != nil {
		s.err = fmt.Errorf("marshal %s schema: %w", s.Name, err)
		return
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(def))
	if err != nil {
		s.err = fmt.Errorf("decode %s schema: %w", s.Name, err)
		return
	}

	url := "mem://planfile/" + s.Name + ".json"
	c := jsonschema.NewCompiler()
	if err := c.AddResource(url, doc); err != nil {
		s.err = fmt.Errorf("load %s schema: %w", s.Name, err)
		return
	}
	s.compiled, s.err = c.Compile(url)
}
