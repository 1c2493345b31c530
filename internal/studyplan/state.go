package studyplan

import (
	"context"
	"fmt"
	"slices"

	"github.com/abhisek/studyplan/internal/planfile"
	"github.com/abhisek/studyplan/internal/store"
	"github.com/abhisek/studyplan/internal/study"
)

// Export returns the full data set.
func (s *Service) Export(ctx context.Context) (study.State, error) {
	st, err := s.repos.State.Load(ctx)
	if err != nil {
		return study.State{}, err
	}
	if len(st.Availability) == 0 {
		st.Availability = study.DefaultAvailability()
	}
	return st, nil
}

// Import replaces the data set with st after snapshotting the current one.
func (s *Service) Import(ctx context.Context, st study.State) error {
	if err := validateState(st); err != nil {
		return err
	}
	if len(st.Availability) == 0 {
		st.Availability = study.DefaultAvailability()
	}
	if err := s.snapshot(ctx, "import"); err != nil {
		return err
	}
	if err := s.repos.State.Replace(ctx, st); err != nil {
		return err
	}
	subjects, _, err := s.refreshAll(ctx)
	if err != nil {
		return err
	}
	s.logEvent(ctx, store.PlanEventData{
		Action:   "import",
		Subjects: len(subjects),
		Sessions: len(st.Sessions),
	})
	return nil
}

// Reset snapshots the data set, then clears it back to an empty plan with
// the default availability.
func (s *Service) Reset(ctx context.Context) error {
	if err := s.snapshot(ctx, "reset"); err != nil {
		return err
	}
	if err := s.repos.State.Replace(ctx, study.State{Availability: study.DefaultAvailability()}); err != nil {
		return err
	}
	s.logEvent(ctx, store.PlanEventData{Action: "reset"})
	return nil
}

// Restore brings back the data set saved by the most recent snapshot.
func (s *Service) Restore(ctx context.Context) (*store.Snapshot, error) {
	snap, err := s.repos.Snapshots.Latest(ctx)
	if err != nil {
		return nil, err
	}
	if snap == nil {
		return nil, ErrNoSnapshot
	}
	if err := s.repos.State.Replace(ctx, snap.Data.State); err != nil {
		return nil, err
	}
	if _, _, err := s.refreshAll(ctx); err != nil {
		return nil, err
	}
	s.logEvent(ctx, store.PlanEventData{
		Action:   "restore",
		Subjects: len(snap.Data.State.Subjects),
		Sessions: len(snap.Data.State.Sessions),
		Detail:   fmt.Sprintf("snapshot %d (%s)", snap.Sequence, snap.Reason),
	})
	return snap, nil
}

// SyncResult reports what SyncStudyPlans changed.
type SyncResult struct {
	Added   int
	Kept    int
	Removed int
}

// SyncStudyPlans replaces the subject list with the backend's study plans.
// Each plan becomes subject-<id> named after the plan, with one default
// two-hour chapter. A subject that was synced before keeps its chapters.
// Sessions of subjects that are no longer listed are dropped.
func (s *Service) SyncStudyPlans(ctx context.Context, plans []planfile.StudyPlanRecord) (SyncResult, error) {
	current, err := s.repos.State.Load(ctx)
	if err != nil {
		return SyncResult{}, err
	}
	existing := make(map[string]study.Subject, len(current.Subjects))
	for _, sub := range current.Subjects {
		existing[sub.ID] = sub
	}

	var res SyncResult
	next := study.State{Availability: current.Availability}
	keep := make(map[string]bool, len(plans))
	for _, p := range plans {
		sub := subjectFromPlan(p)
		if keep[sub.ID] {
			continue
		}
		if old, ok := existing[sub.ID]; ok {
			sub.Chapters = old.Chapters
			res.Kept++
		} else {
			res.Added++
		}
		keep[sub.ID] = true
		next.Subjects = append(next.Subjects, sub)
	}
	for _, sub := range current.Subjects {
		if !keep[sub.ID] {
			res.Removed++
		}
	}
	next.Sessions = slices.DeleteFunc(slices.Clone(current.Sessions), func(ss study.Session) bool {
		return !keep[ss.SubjectID]
	})

	if err := validateState(next); err != nil {
		return SyncResult{}, err
	}
	if err := s.snapshot(ctx, "sync"); err != nil {
		return SyncResult{}, err
	}
	if err := s.repos.State.Replace(ctx, next); err != nil {
		return SyncResult{}, err
	}
	if _, _, err := s.refreshAll(ctx); err != nil {
		return SyncResult{}, err
	}
	s.logEvent(ctx, store.PlanEventData{
		Action:   "sync",
		Subjects: len(next.Subjects),
		Sessions: len(next.Sessions),
		Detail:   fmt.Sprintf("%d added, %d kept, %d removed", res.Added, res.Kept, res.Removed),
	})
	return res, nil
}

func subjectFromPlan(p planfile.StudyPlanRecord) study.Subject {
	return study.Subject{
		ID:       fmt.Sprintf("subject-%d", p.ID),
		Name:     p.Subject,
		ExamDate: p.ExamDate,
		Chapters: []study.Chapter{{
			ID:             fmt.Sprintf("chapter-%d-1", p.ID),
			Name:           "Default Chapter",
			Difficulty:     study.DifficultyMedium,
			EstimatedHours: 2,
		}},
	}
}

// snapshot saves the current data set and prunes old snapshots.
func (s *Service) snapshot(ctx context.Context, reason string) error {
	st, err := s.repos.State.Load(ctx)
	if err != nil {
		return err
	}
	snap := &store.Snapshot{
		Timestamp: s.now(),
		Reason:    reason,
		Data:      store.SnapshotData{Version: store.CurrentSnapshotVersion, State: st},
	}
	if err := s.repos.Snapshots.Save(ctx, snap); err != nil {
		return fmt.Errorf("snapshot before %s: %w", reason, err)
	}
	if err := s.repos.Snapshots.Prune(ctx, snapshotKeep); err != nil {
		fmt.Fprintf(s.warn, "warning: failed to prune snapshots: %v\n", err)
	}
	return nil
}

// validateState checks every record and that IDs are unique and sessions
// point at existing chapters.
func validateState(st study.State) error {
	chapters := make(map[[2]string]bool)
	subjects := make(map[string]bool, len(st.Subjects))
	for _, sub := range st.Subjects {
		if err := study.ValidateSubject(sub); err != nil {
			return fmt.Errorf("subject %q: %w", sub.ID, err)
		}
		if subjects[sub.ID] {
			return fmt.Errorf("duplicate subject id %q", sub.ID)
		}
		subjects[sub.ID] = true
		for _, ch := range sub.Chapters {
			key := [2]string{sub.ID, ch.ID}
			if chapters[key] {
				return fmt.Errorf("duplicate chapter id %q in subject %q", ch.ID, sub.ID)
			}
			chapters[key] = true
		}
	}
	if err := study.ValidateAvailability(st.Availability); err != nil {
		return err
	}
	sessions := make(map[string]bool, len(st.Sessions))
	for _, ss := range st.Sessions {
		if err := study.ValidateSession(ss); err != nil {
			return fmt.Errorf("session %q: %w", ss.ID, err)
		}
		if sessions[ss.ID] {
			return fmt.Errorf("duplicate session id %q", ss.ID)
		}
		sessions[ss.ID] = true
		if !chapters[[2]string{ss.SubjectID, ss.ChapterID}] {
			return fmt.Errorf("session %q: %w: %s/%s", ss.ID, ErrChapterNotFound, ss.SubjectID, ss.ChapterID)
		}
	}
	return nil
}
