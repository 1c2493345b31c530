package studyplan

import "errors"

var (
	ErrSubjectNotFound = errors.New("subject not found")
	ErrChapterNotFound = errors.New("chapter not found")
	ErrSessionNotFound = errors.New("session not found")
	ErrNoSnapshot      = errors.New("no snapshot to restore")
	ErrAmbiguous       = errors.New("reference matches more than one item")
)
