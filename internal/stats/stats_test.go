package stats

import (
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/abhisek/studyplan/internal/study"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var today = civil.Date{Year: 2025, Month: time.March, Day: 10}

func sess(subject string, daysAgo, minutes int, completed bool) study.Session {
	return study.Session{
		SubjectID: subject,
		ChapterID: subject + "-1",
		Date:      today.AddDays(-daysAgo),
		Duration:  time.Duration(minutes) * time.Minute,
		Completed: completed,
	}
}

func TestDailyStats(t *testing.T) {
	days := DailyStats([]study.Session{
		sess("math", 2, 30, true),
		sess("bio", 0, 30, false),
		sess("math", 0, 15, true),
		sess("math", 2, 30, false),
	})
	require.Len(t, days, 2)

	assert.Equal(t, today, days[0].Date, "newest first")
	assert.Equal(t, 45*time.Minute, days[0].Total)
	assert.Equal(t, 15*time.Minute, days[0].Completed)
	assert.Equal(t, 2, days[0].Sessions)
	assert.Equal(t, map[string]time.Duration{"bio": 30 * time.Minute, "math": 15 * time.Minute}, days[0].BySubject)

	assert.Equal(t, today.AddDays(-2), days[1].Date)
	assert.Equal(t, time.Hour, days[1].Total)
	assert.Equal(t, 2, days[1].Sessions)
}

func TestDailyStatsEmpty(t *testing.T) {
	assert.Empty(t, DailyStats(nil))
}

func TestStreak(t *testing.T) {
	tests := []struct {
		name     string
		sessions []study.Session
		want     int
	}{
		{"none", nil, 0},
		{"nothing today", []study.Session{sess("a", 1, 30, true), sess("a", 2, 30, true)}, 0},
		{"planned but not done today", []study.Session{sess("a", 0, 30, false), sess("a", 1, 30, true)}, 0},
		{"three days", []study.Session{sess("a", 0, 30, true), sess("b", 1, 30, true), sess("a", 2, 30, true)}, 3},
		{"gap breaks", []study.Session{sess("a", 0, 30, true), sess("a", 1, 30, true), sess("a", 3, 30, true)}, 2},
		{"future ignored", []study.Session{sess("a", -1, 30, true), sess("a", 0, 30, true)}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Streak(tt.sessions, today))
		})
	}
}

func TestStreakAcrossMonthBoundary(t *testing.T) {
	first := civil.Date{Year: 2025, Month: time.March, Day: 1}
	sessions := []study.Session{
		{Date: first, Completed: true},
		{Date: first.AddDays(-1), Completed: true}, // Feb 28
		{Date: first.AddDays(-2), Completed: true},
	}
	assert.Equal(t, 3, Streak(sessions, first))
}

func TestBySubject(t *testing.T) {
	got := BySubject([]study.Session{
		sess("chem", 0, 30, false),
		sess("math", 0, 30, false),
		sess("math", 1, 30, true),
		sess("bio", 0, 30, false),
	})
	assert.Equal(t, []SubjectTotal{
		{SubjectID: "math", Total: time.Hour},
		{SubjectID: "bio", Total: 30 * time.Minute},
		{SubjectID: "chem", Total: 30 * time.Minute},
	}, got)
}

func TestProgress(t *testing.T) {
	subjects := []study.Subject{
		{
			ID: "math", Name: "Math", ExamDate: today.AddDays(5), Priority: 13.33,
			Chapters: []study.Chapter{
				{ID: "1", EstimatedHours: 2, Completed: true},
				{ID: "2", EstimatedHours: 1.5},
				{ID: "3", EstimatedHours: 1},
			},
		},
		{ID: "empty", Name: "Empty", ExamDate: today.AddDays(-1)},
	}
	got := Progress(subjects, today)
	require.Len(t, got, 2)

	assert.Equal(t, "math", got[0].SubjectID)
	assert.Equal(t, 1, got[0].Completed)
	assert.Equal(t, 3, got[0].Total)
	assert.InDelta(t, 1.0/3, got[0].Fraction(), 1e-9)
	assert.Equal(t, 2.5, got[0].RemainingHours)
	assert.Equal(t, 5, got[0].DaysToExam)
	assert.Equal(t, 13.33, got[0].Priority)

	assert.Zero(t, got[1].Fraction())
	assert.Equal(t, -1, got[1].DaysToExam)
}

func TestSummarize(t *testing.T) {
	sum := Summarize([]study.Session{
		sess("a", 1, 30, true),
		sess("a", 0, 30, true),
		sess("a", 0, 15, false),
		sess("a", -3, 30, false),
		sess("a", 4, 30, false), // missed
	}, today)
	assert.Equal(t, Summary{
		Sessions:  5,
		Completed: 2,
		Planned:   135 * time.Minute,
		Studied:   time.Hour,
		Upcoming:  2,
		Streak:    2,
		Subjects:  1,
	}, sum)
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "0 min"},
		{45 * time.Minute, "45 min"},
		{2 * time.Hour, "2 hr"},
		{90 * time.Minute, "1 hr 30 min"},
		{29*time.Minute + 40*time.Second, "30 min"},
	}
	for _, tt := range tests {
		if got := FormatDuration(tt.in); got != tt.want {
			t.Errorf("FormatDuration(%s) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestAchievements(t *testing.T) {
	tests := []struct {
		name     string
		sum      Summary
		unlocked []string
		progress map[string]int
	}{
		{
			name:     "nothing yet",
			progress: map[string]int{"study-master": 0, "time-warrior": 0, "streak-champion": 0, "subject-explorer": 0},
		},
		{
			name:     "partial hours round down",
			sum:      Summary{Completed: 99, Studied: 49*time.Hour + 59*time.Minute, Streak: 6, Subjects: 4},
			progress: map[string]int{"study-master": 99, "time-warrior": 49, "streak-champion": 6, "subject-explorer": 4},
		},
		{
			name:     "all unlocked",
			sum:      Summary{Completed: 120, Studied: 50 * time.Hour, Streak: 7, Subjects: 5},
			unlocked: []string{"study-master", "time-warrior", "streak-champion", "subject-explorer"},
			progress: map[string]int{"study-master": 120, "time-warrior": 50, "streak-champion": 7, "subject-explorer": 5},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Achievements(tt.sum)
			require.Len(t, got, 4)
			var unlocked []string
			for _, a := range got {
				assert.Equal(t, tt.progress[a.ID], a.Progress, a.ID)
				if a.Unlocked() {
					unlocked = append(unlocked, a.ID)
					assert.Equal(t, 1.0, a.Fraction(), a.ID)
				}
			}
			assert.Equal(t, tt.unlocked, unlocked)
		})
	}
}

func TestAchievementFraction(t *testing.T) {
	assert.Equal(t, 0.5, Achievement{Progress: 50, Goal: 100}.Fraction())
	assert.Equal(t, 1.0, Achievement{Progress: 150, Goal: 100}.Fraction())
	assert.Zero(t, Achievement{Goal: 7}.Fraction())
}
