// Package studyplan is the application layer around the planner: it keeps
// priorities fresh as subjects change, persists generated plans and owns
// the destructive operations (reset, import, sync) and their snapshots.
package studyplan

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/abhisek/studyplan/internal/planner"
	"github.com/abhisek/studyplan/internal/store"
	"github.com/abhisek/studyplan/internal/study"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

// snapshotKeep is how many snapshots survive a prune.
const snapshotKeep = 5

// Repos bundles the repositories the Service works on.
type Repos struct {
	Subjects     store.SubjectRepo
	Availability store.AvailabilityRepo
	Sessions     store.SessionRepo
	Events       store.EventRepo
	Snapshots    store.SnapshotRepo
	State        store.StateRepo
}

// ReposFrom returns the repositories backed by st.
func ReposFrom(st *store.Store) Repos {
	return Repos{
		Subjects:     st.SubjectRepo(),
		Availability: st.AvailabilityRepo(),
		Sessions:     st.SessionRepo(),
		Events:       st.EventRepo(),
		Snapshots:    st.SnapshotRepo(),
		State:        st.StateRepo(),
	}
}

// Options tunes a Service. The zero value is usable.
type Options struct {
	Config planner.Config
	Now    func() time.Time // defaults to time.Now
	Warn   io.Writer        // non-fatal problems; defaults to os.Stderr
}

// Service implements the study-plan operations on top of the store.
type Service struct {
	repos Repos
	gen   *planner.Generator
	now   func() time.Time
	warn  io.Writer
}

// NewService creates a Service. An invalid Config falls back to the defaults.
func NewService(repos Repos, opts Options) *Service {
	s := &Service{
		repos: repos,
		gen:   planner.NewGenerator(opts.Config),
		now:   opts.Now,
		warn:  opts.Warn,
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.warn == nil {
		s.warn = os.Stderr
	}
	return s
}

// Today returns the current local calendar date.
func (s *Service) Today() civil.Date {
	return civil.DateOf(s.now())
}

// Config returns the generator limits in effect.
func (s *Service) Config() planner.Config {
	return s.gen.Config()
}

// Subjects lists all subjects in creation order.
func (s *Service) Subjects(ctx context.Context) ([]study.Subject, error) {
	return s.repos.Subjects.List(ctx)
}

// Subject returns one subject by ID.
func (s *Service) Subject(ctx context.Context, id string) (study.Subject, error) {
	sub, err := s.repos.Subjects.Get(ctx, id)
	if err != nil {
		return study.Subject{}, err
	}
	if sub == nil {
		return study.Subject{}, fmt.Errorf("%w: %s", ErrSubjectNotFound, id)
	}
	return *sub, nil
}

// FindSubject resolves ref as a subject ID, then as a name slug
// ("Organic Chemistry" matches "organic-chemistry").
func (s *Service) FindSubject(ctx context.Context, ref string) (study.Subject, error) {
	subjects, err := s.repos.Subjects.List(ctx)
	if err != nil {
		return study.Subject{}, err
	}
	for _, sub := range subjects {
		if sub.ID == ref {
			return sub, nil
		}
	}

	want := slug.Make(ref)
	var match []study.Subject
	for _, sub := range subjects {
		if slug.Make(sub.Name) == want {
			match = append(match, sub)
		}
	}
	switch len(match) {
	case 0:
		return study.Subject{}, fmt.Errorf("%w: %s", ErrSubjectNotFound, ref)
	case 1:
		return match[0], nil
	default:
		return study.Subject{}, fmt.Errorf("%w: %q names %d subjects", ErrAmbiguous, ref, len(match))
	}
}

// AddSubject creates a subject with no chapters.
func (s *Service) AddSubject(ctx context.Context, name string, examDate civil.Date) (study.Subject, error) {
	sub := study.Subject{
		ID:       uuid.NewString(),
		Name:     strings.TrimSpace(name),
		ExamDate: examDate,
		Chapters: []study.Chapter{},
	}
	sub.Priority = planner.CalculatePriority(sub, s.Today())
	if err := study.ValidateSubject(sub); err != nil {
		return study.Subject{}, err
	}
	if err := s.repos.Subjects.Create(ctx, sub); err != nil {
		return study.Subject{}, err
	}
	return sub, nil
}

// UpdateSubject renames a subject and moves its exam date.
func (s *Service) UpdateSubject(ctx context.Context, id, name string, examDate civil.Date) (study.Subject, error) {
	sub, err := s.Subject(ctx, id)
	if err != nil {
		return study.Subject{}, err
	}
	sub.Name = strings.TrimSpace(name)
	sub.ExamDate = examDate
	sub.Priority = planner.CalculatePriority(sub, s.Today())
	if err := study.ValidateSubject(sub); err != nil {
		return study.Subject{}, err
	}
	if err := s.repos.Subjects.Update(ctx, sub); err != nil {
		return study.Subject{}, err
	}
	return sub, nil
}

// DeleteSubject removes a subject, its chapters and all of its sessions.
func (s *Service) DeleteSubject(ctx context.Context, id string) error {
	if _, err := s.Subject(ctx, id); err != nil {
		return err
	}
	return s.repos.Subjects.Delete(ctx, id)
}

// FindChapter resolves ref within sub as a chapter ID, a 1-based position
// or a name slug.
func FindChapter(sub study.Subject, ref string) (study.Chapter, error) {
	if ch, ok := sub.Chapter(ref); ok {
		return ch, nil
	}
	if n, err := strconv.Atoi(ref); err == nil && n >= 1 && n <= len(sub.Chapters) {
		return sub.Chapters[n-1], nil
	}

	want := slug.Make(ref)
	var match []study.Chapter
	for _, ch := range sub.Chapters {
		if slug.Make(ch.Name) == want {
			match = append(match, ch)
		}
	}
	switch len(match) {
	case 0:
		return study.Chapter{}, fmt.Errorf("%w: %s in %s", ErrChapterNotFound, ref, sub.Name)
	case 1:
		return match[0], nil
	default:
		return study.Chapter{}, fmt.Errorf("%w: %q names %d chapters", ErrAmbiguous, ref, len(match))
	}
}

// AddChapter appends a chapter to a subject.
func (s *Service) AddChapter(ctx context.Context, subjectID, name string, difficulty study.Difficulty, hours float64) (study.Chapter, error) {
	if _, err := s.Subject(ctx, subjectID); err != nil {
		return study.Chapter{}, err
	}
	ch := study.Chapter{
		ID:             uuid.NewString(),
		Name:           strings.TrimSpace(name),
		Difficulty:     difficulty,
		EstimatedHours: hours,
	}
	if ch.Difficulty == "" {
		ch.Difficulty = study.DifficultyMedium
	}
	if err := study.ValidateChapter(ch); err != nil {
		return study.Chapter{}, err
	}
	if err := s.repos.Subjects.AddChapter(ctx, subjectID, ch); err != nil {
		return study.Chapter{}, err
	}
	if err := s.refreshSubject(ctx, subjectID); err != nil {
		return study.Chapter{}, err
	}
	return ch, nil
}

// UpdateChapter overwrites a chapter's fields, keeping its position.
func (s *Service) UpdateChapter(ctx context.Context, subjectID string, ch study.Chapter) error {
	sub, err := s.Subject(ctx, subjectID)
	if err != nil {
		return err
	}
	if _, ok := sub.Chapter(ch.ID); !ok {
		return fmt.Errorf("%w: %s in %s", ErrChapterNotFound, ch.ID, sub.Name)
	}
	ch.Name = strings.TrimSpace(ch.Name)
	if err := study.ValidateChapter(ch); err != nil {
		return err
	}
	if err := s.repos.Subjects.UpdateChapter(ctx, subjectID, ch); err != nil {
		return err
	}
	return s.refreshSubject(ctx, subjectID)
}

// SetChapterCompleted marks a chapter done or not done.
func (s *Service) SetChapterCompleted(ctx context.Context, subjectID, chapterID string, completed bool) error {
	sub, err := s.Subject(ctx, subjectID)
	if err != nil {
		return err
	}
	ch, ok := sub.Chapter(chapterID)
	if !ok {
		return fmt.Errorf("%w: %s in %s", ErrChapterNotFound, chapterID, sub.Name)
	}
	ch.Completed = completed
	return s.UpdateChapter(ctx, subjectID, ch)
}

// DeleteChapter removes a chapter and its sessions.
func (s *Service) DeleteChapter(ctx context.Context, subjectID, chapterID string) error {
	sub, err := s.Subject(ctx, subjectID)
	if err != nil {
		return err
	}
	if _, ok := sub.Chapter(chapterID); !ok {
		return fmt.Errorf("%w: %s in %s", ErrChapterNotFound, chapterID, sub.Name)
	}
	if err := s.repos.Subjects.DeleteChapter(ctx, subjectID, chapterID); err != nil {
		return err
	}
	return s.refreshSubject(ctx, subjectID)
}

// RefreshPriorities recomputes every subject's priority as of today and
// stores the ones that changed.
func (s *Service) RefreshPriorities(ctx context.Context) ([]planner.PriorityChange, error) {
	_, changes, err := s.refreshAll(ctx)
	return changes, err
}

// refreshAll returns the subjects with current priorities.
func (s *Service) refreshAll(ctx context.Context) ([]study.Subject, []planner.PriorityChange, error) {
	subjects, err := s.repos.Subjects.List(ctx)
	if err != nil {
		return nil, nil, err
	}
	changes := planner.RecomputePriorities(subjects, s.Today())
	for _, c := range changes {
		if err := s.repos.Subjects.SetPriority(ctx, c.SubjectID, c.New); err != nil {
			return nil, nil, err
		}
	}
	return planner.ApplyPriorities(subjects, s.Today()), changes, nil
}

func (s *Service) refreshSubject(ctx context.Context, id string) error {
	sub, err := s.Subject(ctx, id)
	if err != nil {
		return err
	}
	p := planner.CalculatePriority(sub, s.Today())
	if p == sub.Priority {
		return nil
	}
	return s.repos.Subjects.SetPriority(ctx, id, p)
}

// Availability returns the weekly template. A store that has never held
// one is seeded with the default template.
func (s *Service) Availability(ctx context.Context) (study.Availability, error) {
	a, err := s.repos.Availability.Get(ctx)
	if err != nil {
		return nil, err
	}
	if len(a) > 0 {
		return a, nil
	}
	a = study.DefaultAvailability()
	if err := s.repos.Availability.Replace(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// UpdateAvailability sets the hours for one weekday.
func (s *Service) UpdateAvailability(ctx context.Context, day time.Weekday, hours float64) (study.Availability, error) {
	current, err := s.Availability(ctx)
	if err != nil {
		return nil, err
	}
	next := current.With(day, hours)
	if err := study.ValidateAvailability(next); err != nil {
		return nil, err
	}
	if err := s.repos.Availability.Set(ctx, day, hours); err != nil {
		return nil, err
	}
	return next, nil
}

// PlanResult is the outcome of GeneratePlan.
type PlanResult struct {
	Start       civil.Date
	Sessions    []study.Session
	Unscheduled []planner.Shortfall
}

// Scheduled totals the generated session time.
func (r PlanResult) Scheduled() time.Duration {
	var d time.Duration
	for _, s := range r.Sessions {
		d += s.Duration
	}
	return d
}

// Shortfall totals the work left beyond the horizon.
func (r PlanResult) Shortfall() time.Duration {
	var d time.Duration
	for _, sf := range r.Unscheduled {
		d += sf.Unscheduled()
	}
	return d
}

// GeneratePlan schedules all outstanding chapters starting today and
// replaces the previously generated sessions. Manual sessions are kept.
func (s *Service) GeneratePlan(ctx context.Context) (PlanResult, error) {
	subjects, _, err := s.refreshAll(ctx)
	if err != nil {
		return PlanResult{}, fmt.Errorf("refresh priorities: %w", err)
	}
	avail, err := s.Availability(ctx)
	if err != nil {
		return PlanResult{}, err
	}

	today := s.Today()
	sessions := s.gen.Generate(subjects, avail, today)
	if err := s.repos.Sessions.ReplaceGenerated(ctx, sessions); err != nil {
		return PlanResult{}, fmt.Errorf("store plan: %w", err)
	}

	res := PlanResult{
		Start:       today,
		Sessions:    sessions,
		Unscheduled: planner.Unscheduled(subjects, sessions),
	}
	s.logEvent(ctx, store.PlanEventData{
		Action:      "generate",
		StartDate:   today,
		HorizonDays: s.gen.Config().HorizonDays,
		Subjects:    len(subjects),
		Sessions:    len(sessions),
		Scheduled:   res.Scheduled(),
		Unscheduled: res.Shortfall(),
	})
	return res, nil
}

// Sessions lists sessions matching f.
func (s *Service) Sessions(ctx context.Context, f store.SessionFilter) ([]study.Session, error) {
	return s.repos.Sessions.List(ctx, f)
}

// SetSessionCompleted marks a session done or not done and returns it.
func (s *Service) SetSessionCompleted(ctx context.Context, id string, completed bool) (study.Session, error) {
	sess, err := s.repos.Sessions.Get(ctx, id)
	if err != nil {
		return study.Session{}, err
	}
	if sess == nil {
		return study.Session{}, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	ok, err := s.repos.Sessions.SetCompleted(ctx, id, completed)
	if err != nil {
		return study.Session{}, err
	}
	if !ok {
		return study.Session{}, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	sess.Completed = completed
	return *sess, nil
}

// AddSession records a manual session. Manual sessions survive plan
// regeneration.
func (s *Service) AddSession(ctx context.Context, subjectID, chapterID string, date civil.Date, d time.Duration, completed bool) (study.Session, error) {
	sub, err := s.Subject(ctx, subjectID)
	if err != nil {
		return study.Session{}, err
	}
	if _, ok := sub.Chapter(chapterID); !ok {
		return study.Session{}, fmt.Errorf("%w: %s in %s", ErrChapterNotFound, chapterID, sub.Name)
	}
	sess := study.Session{
		ID:        "manual-" + uuid.NewString(),
		SubjectID: subjectID,
		ChapterID: chapterID,
		Date:      date,
		Duration:  d,
		Completed: completed,
		Manual:    true,
	}
	if err := study.ValidateSession(sess); err != nil {
		return study.Session{}, err
	}
	if err := s.repos.Sessions.Add(ctx, sess); err != nil {
		return study.Session{}, err
	}
	return sess, nil
}

// History returns recent plan events, newest first.
func (s *Service) History(ctx context.Context, limit int) ([]store.PlanEventRecord, error) {
	return s.repos.Events.QueryPlanEvents(ctx, store.QueryOpts{Limit: limit})
}

func (s *Service) logEvent(ctx context.Context, data store.PlanEventData) {
	if err := s.repos.Events.AppendPlanEvent(ctx, data); err != nil {
		fmt.Fprintf(s.warn, "warning: failed to log %s event: %v\n", data.Action, err)
	}
}
