package studyplan

import (
	"bytes"
	"context"
	"errors"
	"math"
	"path/filepath"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/abhisek/studyplan/internal/planfile"
	"github.com/abhisek/studyplan/internal/planner"
	"github.com/abhisek/studyplan/internal/store"
	"github.com/abhisek/studyplan/internal/study"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var today = civil.Date{Year: 2025, Month: time.March, Day: 10} // a Monday

type testEnv struct {
	svc   *Service
	st    *store.Store
	now   time.Time
	warn  *bytes.Buffer
	repos Repos
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "studyplan.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	env := &testEnv{
		st:    st,
		now:   today.In(time.Local).Add(9 * time.Hour),
		warn:  &bytes.Buffer{},
		repos: ReposFrom(st),
	}
	env.svc = NewService(env.repos, Options{
		Config: planner.DefaultConfig(),
		Now:    func() time.Time { return env.now },
		Warn:   env.warn,
	})
	return env
}

func (e *testEnv) addSubject(t *testing.T, name string, examIn int, hours ...float64) study.Subject {
	t.Helper()
	ctx := context.Background()
	sub, err := e.svc.AddSubject(ctx, name, today.AddDays(examIn))
	require.NoError(t, err)
	for _, h := range hours {
		_, err := e.svc.AddChapter(ctx, sub.ID, "Chapter", study.DifficultyMedium, h)
		require.NoError(t, err)
	}
	sub, err = e.svc.Subject(ctx, sub.ID)
	require.NoError(t, err)
	return sub
}

func TestAddSubjectAndChapterKeepPriorityFresh(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	sub, err := env.svc.AddSubject(ctx, "  Mathematics ", today.AddDays(10))
	require.NoError(t, err)
	assert.Equal(t, "Mathematics", sub.Name)
	assert.Zero(t, sub.Priority, "no chapters yet")

	ch, err := env.svc.AddChapter(ctx, sub.ID, "Limits", "", 2)
	require.NoError(t, err)
	assert.Equal(t, study.DifficultyMedium, ch.Difficulty)

	got, err := env.svc.Subject(ctx, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, 10.0, got.Priority)

	require.NoError(t, env.svc.SetChapterCompleted(ctx, sub.ID, ch.ID, true))
	got, err = env.svc.Subject(ctx, sub.ID)
	require.NoError(t, err)
	assert.Zero(t, got.Priority, "nothing left to study")
	assert.True(t, got.Chapters[0].Completed)

	_, err = env.svc.UpdateSubject(ctx, sub.ID, "Maths", today.AddDays(5))
	require.NoError(t, err)
	require.NoError(t, env.svc.SetChapterCompleted(ctx, sub.ID, ch.ID, false))
	got, err = env.svc.Subject(ctx, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, "Maths", got.Name)
	assert.Equal(t, 20.0, got.Priority)
}

func TestAddSubjectValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.svc.AddSubject(ctx, "   ", today)
	var ve *study.ValidationError
	require.True(t, errors.As(err, &ve))

	sub, err := env.svc.AddSubject(ctx, "Physics", today)
	require.NoError(t, err)
	_, err = env.svc.AddChapter(ctx, sub.ID, "Optics", study.DifficultyHard, -2)
	assert.True(t, errors.As(err, &ve))

	_, err = env.svc.AddChapter(ctx, "missing", "Optics", study.DifficultyHard, 2)
	assert.ErrorIs(t, err, ErrSubjectNotFound)
}

func TestChapterHoursMustBeFinite(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	sub, err := env.svc.AddSubject(ctx, "Math", today.AddDays(10))
	require.NoError(t, err)

	for _, hours := range []float64{math.Inf(1), math.NaN(), 1e7, study.MaxChapterHours + 1} {
		_, err := env.svc.AddChapter(ctx, sub.ID, "Calculus", study.DifficultyHard, hours)
		var ve *study.ValidationError
		assert.True(t, errors.As(err, &ve), "AddChapter(%v) = %v", hours, err)
	}

	ch, err := env.svc.AddChapter(ctx, sub.ID, "Calculus", study.DifficultyHard, 2)
	require.NoError(t, err)
	ch.EstimatedHours = math.Inf(1)
	var ve *study.ValidationError
	assert.True(t, errors.As(env.svc.UpdateChapter(ctx, sub.ID, ch), &ve))

	got, err := env.svc.Subject(ctx, sub.ID)
	require.NoError(t, err)
	require.Len(t, got.Chapters, 1)
	assert.Equal(t, 2.0, got.Chapters[0].EstimatedHours)

	res, err := env.svc.GeneratePlan(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2*time.Hour, res.Scheduled())
	require.NoError(t, env.svc.Reset(ctx), "snapshots still serialize")
}

func TestFindSubject(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	chem := env.addSubject(t, "Organic Chemistry", 10)
	env.addSubject(t, "History", 10)
	env.addSubject(t, "history", 12)

	got, err := env.svc.FindSubject(ctx, chem.ID)
	require.NoError(t, err)
	assert.Equal(t, chem.ID, got.ID)

	got, err = env.svc.FindSubject(ctx, "organic chemistry")
	require.NoError(t, err)
	assert.Equal(t, chem.ID, got.ID)

	got, err = env.svc.FindSubject(ctx, "organic-chemistry")
	require.NoError(t, err)
	assert.Equal(t, chem.ID, got.ID)

	_, err = env.svc.FindSubject(ctx, "History")
	assert.ErrorIs(t, err, ErrAmbiguous)

	_, err = env.svc.FindSubject(ctx, "Latin")
	assert.ErrorIs(t, err, ErrSubjectNotFound)
}

func TestFindChapter(t *testing.T) {
	sub := study.Subject{
		Name: "Math",
		Chapters: []study.Chapter{
			{ID: "c-1", Name: "Linear Algebra"},
			{ID: "c-2", Name: "Calculus"},
		},
	}
	for _, ref := range []string{"c-2", "2", "calculus", "Calculus"} {
		ch, err := FindChapter(sub, ref)
		require.NoError(t, err, ref)
		assert.Equal(t, "c-2", ch.ID, ref)
	}
	ch, err := FindChapter(sub, "linear algebra")
	require.NoError(t, err)
	assert.Equal(t, "c-1", ch.ID)

	_, err = FindChapter(sub, "3")
	assert.ErrorIs(t, err, ErrChapterNotFound)
	_, err = FindChapter(sub, "Topology")
	assert.ErrorIs(t, err, ErrChapterNotFound)
}

func TestAvailabilityDefaultsAndUpdate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	a, err := env.svc.Availability(ctx)
	require.NoError(t, err)
	assert.Equal(t, study.DefaultAvailability(), a)

	a, err = env.svc.UpdateAvailability(ctx, time.Tuesday, 0)
	require.NoError(t, err)
	h, _ := a.HoursOn(time.Tuesday)
	assert.Zero(t, h)

	stored, err := env.svc.Availability(ctx)
	require.NoError(t, err)
	assert.Equal(t, a, stored)

	_, err = env.svc.UpdateAvailability(ctx, time.Tuesday, 30)
	var ve *study.ValidationError
	assert.True(t, errors.As(err, &ve))
}

func TestGeneratePlanMathScenario(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	maths := env.addSubject(t, "Math", 10, 2)

	res, err := env.svc.GeneratePlan(ctx)
	require.NoError(t, err)
	require.Len(t, res.Sessions, 4)
	for i, s := range res.Sessions {
		assert.Equal(t, maths.ID, s.SubjectID)
		assert.Equal(t, today.AddDays(i), s.Date)
		assert.Equal(t, 30*time.Minute, s.Duration)
		assert.False(t, s.Completed)
	}
	assert.Equal(t, today, res.Start)
	assert.Equal(t, 2*time.Hour, res.Scheduled())
	assert.Empty(t, res.Unscheduled)
	assert.Zero(t, res.Shortfall())

	stored, err := env.svc.Sessions(ctx, store.SessionFilter{})
	require.NoError(t, err)
	assert.Equal(t, res.Sessions, stored)

	events, err := env.svc.History(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "generate", events[0].Action)
	assert.Equal(t, 4, events[0].Sessions)
	assert.Equal(t, today, events[0].StartDate)
	assert.Empty(t, env.warn.String())
}

func TestGeneratePlanReportsShortfall(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	big := env.addSubject(t, "Thesis", 40, 100)

	res, err := env.svc.GeneratePlan(ctx)
	require.NoError(t, err)
	assert.Len(t, res.Sessions, planner.DefaultHorizonDays)
	require.Len(t, res.Unscheduled, 1)
	assert.Equal(t, big.ID, res.Unscheduled[0].SubjectID)
	assert.Equal(t, 85*time.Hour, res.Shortfall())
}

func TestGeneratePlanKeepsManualSessions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	maths := env.addSubject(t, "Math", 10, 1)
	manual, err := env.svc.AddSession(ctx, maths.ID, maths.Chapters[0].ID, today.AddDays(-1), 45*time.Minute, true)
	require.NoError(t, err)
	assert.True(t, manual.Manual)

	_, err = env.svc.GeneratePlan(ctx)
	require.NoError(t, err)
	_, err = env.svc.GeneratePlan(ctx)
	require.NoError(t, err)

	all, err := env.svc.Sessions(ctx, store.SessionFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, manual.ID, all[0].ID)
	assert.Equal(t, "session-1", all[1].ID)
	assert.Equal(t, "session-2", all[2].ID)
}

func TestGeneratePlanRefreshesStalePriorities(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	a := env.addSubject(t, "A", 10, 1)
	b := env.addSubject(t, "B", 20, 1)
	assert.Equal(t, 10.0, a.Priority)
	assert.Equal(t, 5.0, b.Priority)

	env.now = env.now.AddDate(0, 0, 5)
	changes, err := env.svc.RefreshPriorities(ctx)
	require.NoError(t, err)
	assert.Equal(t, []planner.PriorityChange{
		{SubjectID: a.ID, Old: 10, New: 20},
		{SubjectID: b.ID, Old: 5, New: 6.67},
	}, changes)

	changes, err = env.svc.RefreshPriorities(ctx)
	require.NoError(t, err)
	assert.Empty(t, changes, "second refresh finds nothing stale")
}

func TestSessionCompletion(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.addSubject(t, "Math", 10, 1)
	res, err := env.svc.GeneratePlan(ctx)
	require.NoError(t, err)

	done, err := env.svc.SetSessionCompleted(ctx, res.Sessions[0].ID, true)
	require.NoError(t, err)
	assert.True(t, done.Completed)
	assert.Equal(t, res.Sessions[0].ChapterID, done.ChapterID)
	assert.Equal(t, 30*time.Minute, done.Duration)

	pending, err := env.svc.Sessions(ctx, store.SessionFilter{Pending: true})
	require.NoError(t, err)
	assert.Len(t, pending, 1)

	_, err = env.svc.SetSessionCompleted(ctx, "session-99", true)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestAddSessionValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	maths := env.addSubject(t, "Math", 10, 1)

	_, err := env.svc.AddSession(ctx, maths.ID, "nope", today, time.Hour, false)
	assert.ErrorIs(t, err, ErrChapterNotFound)

	_, err = env.svc.AddSession(ctx, "nope", maths.Chapters[0].ID, today, time.Hour, false)
	assert.ErrorIs(t, err, ErrSubjectNotFound)

	_, err = env.svc.AddSession(ctx, maths.ID, maths.Chapters[0].ID, today, 0, false)
	var ve *study.ValidationError
	assert.True(t, errors.As(err, &ve))
}

func TestDeleteCascadesToSessions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	a := env.addSubject(t, "A", 10, 1, 1)
	b := env.addSubject(t, "B", 10, 1)
	_, err := env.svc.GeneratePlan(ctx)
	require.NoError(t, err)

	require.NoError(t, env.svc.DeleteChapter(ctx, a.ID, a.Chapters[0].ID))
	left, err := env.svc.Sessions(ctx, store.SessionFilter{SubjectID: a.ID})
	require.NoError(t, err)
	for _, s := range left {
		assert.Equal(t, a.Chapters[1].ID, s.ChapterID)
	}

	require.NoError(t, env.svc.DeleteSubject(ctx, b.ID))
	left, err = env.svc.Sessions(ctx, store.SessionFilter{SubjectID: b.ID})
	require.NoError(t, err)
	assert.Empty(t, left)

	assert.ErrorIs(t, env.svc.DeleteSubject(ctx, b.ID), ErrSubjectNotFound)
	assert.ErrorIs(t, env.svc.DeleteChapter(ctx, a.ID, "gone"), ErrChapterNotFound)
}

func TestResetAndRestore(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.svc.Restore(ctx)
	assert.ErrorIs(t, err, ErrNoSnapshot)

	env.addSubject(t, "Math", 10, 2)
	_, err = env.svc.UpdateAvailability(ctx, time.Sunday, 6)
	require.NoError(t, err)
	_, err = env.svc.GeneratePlan(ctx)
	require.NoError(t, err)
	before, err := env.svc.Export(ctx)
	require.NoError(t, err)

	require.NoError(t, env.svc.Reset(ctx))
	cleared, err := env.svc.Export(ctx)
	require.NoError(t, err)
	assert.Empty(t, cleared.Subjects)
	assert.Empty(t, cleared.Sessions)
	assert.Equal(t, study.DefaultAvailability(), cleared.Availability)

	snap, err := env.svc.Restore(ctx)
	require.NoError(t, err)
	assert.Equal(t, "reset", snap.Reason)

	after, err := env.svc.Export(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	events, err := env.svc.History(ctx, 0)
	require.NoError(t, err)
	var actions []string
	for _, e := range events {
		actions = append(actions, e.Action)
	}
	assert.Equal(t, []string{"restore", "reset", "generate"}, actions)
}

func TestImport(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	orig := env.addSubject(t, "Original", 10, 1)

	bad := study.State{
		Subjects: []study.Subject{{ID: "s", Name: "S", ExamDate: today.AddDays(4),
			Chapters: []study.Chapter{{ID: "c", Name: "C", Difficulty: study.DifficultyEasy, EstimatedHours: 1}}}},
		Sessions: []study.Session{{ID: "x", SubjectID: "s", ChapterID: "missing", Date: today, Duration: time.Minute}},
	}
	err := env.svc.Import(ctx, bad)
	assert.ErrorIs(t, err, ErrChapterNotFound)

	subjects, err := env.svc.Subjects(ctx)
	require.NoError(t, err)
	require.Len(t, subjects, 1)
	assert.Equal(t, orig.ID, subjects[0].ID, "failed import leaves data alone")

	good := bad
	good.Sessions = []study.Session{{ID: "x", SubjectID: "s", ChapterID: "c", Date: today, Duration: time.Minute}}
	require.NoError(t, env.svc.Import(ctx, good))

	got, err := env.svc.Export(ctx)
	require.NoError(t, err)
	require.Len(t, got.Subjects, 1)
	assert.Equal(t, 25.0, got.Subjects[0].Priority, "priorities are recomputed on import")
	assert.Equal(t, study.DefaultAvailability(), got.Availability)
	assert.Len(t, got.Sessions, 1)

	snap, err := env.svc.Restore(ctx)
	require.NoError(t, err)
	assert.Equal(t, "import", snap.Reason)
	subjects, err = env.svc.Subjects(ctx)
	require.NoError(t, err)
	assert.Equal(t, orig.ID, subjects[0].ID)
}

func TestSyncStudyPlans(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	plans := []planfile.StudyPlanRecord{
		{ID: 7, Subject: "Chemistry", ExamDate: today.AddDays(10)},
		{ID: 9, Subject: "History", ExamDate: today.AddDays(20)},
	}
	res, err := env.svc.SyncStudyPlans(ctx, plans)
	require.NoError(t, err)
	assert.Equal(t, SyncResult{Added: 2}, res)

	subjects, err := env.svc.Subjects(ctx)
	require.NoError(t, err)
	require.Len(t, subjects, 2)
	chem := subjects[0]
	assert.Equal(t, "subject-7", chem.ID)
	assert.Equal(t, "Chemistry", chem.Name)
	assert.Equal(t, []study.Chapter{{
		ID: "chapter-7-1", Name: "Default Chapter", Difficulty: study.DifficultyMedium, EstimatedHours: 2,
	}}, chem.Chapters)
	assert.Equal(t, 10.0, chem.Priority)

	// Progress on a synced subject survives the next sync.
	_, err = env.svc.AddChapter(ctx, "subject-7", "Organic", study.DifficultyHard, 3)
	require.NoError(t, err)
	_, err = env.svc.GeneratePlan(ctx)
	require.NoError(t, err)

	res, err = env.svc.SyncStudyPlans(ctx, []planfile.StudyPlanRecord{
		{ID: 7, Subject: "Chemistry II", ExamDate: today.AddDays(10)},
		{ID: 11, Subject: "Biology", ExamDate: today.AddDays(30)},
	})
	require.NoError(t, err)
	assert.Equal(t, SyncResult{Added: 1, Kept: 1, Removed: 1}, res)

	subjects, err = env.svc.Subjects(ctx)
	require.NoError(t, err)
	require.Len(t, subjects, 2)
	assert.Equal(t, "Chemistry II", subjects[0].Name)
	assert.Len(t, subjects[0].Chapters, 2)
	assert.Equal(t, "subject-11", subjects[1].ID)

	sessions, err := env.svc.Sessions(ctx, store.SessionFilter{})
	require.NoError(t, err)
	require.NotEmpty(t, sessions)
	for _, s := range sessions {
		assert.Equal(t, "subject-7", s.SubjectID, "sessions of removed subjects are dropped")
	}
}

type failingEvents struct{ store.EventRepo }

func (failingEvents) AppendPlanEvent(context.Context, store.PlanEventData) error {
	return errors.New("disk full")
}

func TestEventFailureIsOnlyAWarning(t *testing.T) {
	env := newTestEnv(t)
	repos := env.repos
	repos.Events = failingEvents{repos.Events}
	svc := NewService(repos, Options{
		Now:  func() time.Time { return env.now },
		Warn: env.warn,
	})

	_, err := svc.GeneratePlan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "warning: failed to log generate event: disk full\n", env.warn.String())
}

func TestNewServiceFallsBackToDefaultConfig(t *testing.T) {
	svc := NewService(Repos{}, Options{Config: planner.Config{SessionCap: -1}})
	assert.Equal(t, planner.DefaultConfig(), svc.Config())
}
