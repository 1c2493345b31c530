package study

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDifficulty(t *testing.T) {
	for _, d := range AllDifficulties() {
		got, err := ParseDifficulty(string(d))
		require.NoError(t, err)
		assert.Equal(t, d, got)
	}
	_, err := ParseDifficulty("brutal")
	assert.Error(t, err)
}

func TestSubjectHelpers(t *testing.T) {
	s := Subject{
		ID: "s",
		Chapters: []Chapter{
			{ID: "a", EstimatedHours: 1, Completed: true},
			{ID: "b", EstimatedHours: 2.5},
			{ID: "c", EstimatedHours: 0.5},
		},
	}
	assert.Equal(t, 1, s.CompletedChapters())
	assert.Equal(t, 3.0, s.RemainingHours())

	ch, ok := s.Chapter("b")
	assert.True(t, ok)
	assert.Equal(t, 2.5, ch.EstimatedHours)
	_, ok = s.Chapter("z")
	assert.False(t, ok)

	c := s.Clone()
	c.Chapters[0].Completed = false
	assert.True(t, s.Chapters[0].Completed, "clone must not share chapters")
}

func TestSessionJSON(t *testing.T) {
	s := Session{
		ID:        "session-1",
		SubjectID: "math",
		ChapterID: "math-1",
		Date:      civil.Date{Year: 2025, Month: time.March, Day: 10},
		Duration:  30 * time.Minute,
	}
	b, err := json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"session-1","subjectId":"math","chapterId":"math-1","date":"2025-03-10","duration":30,"completed":false}`, string(b))

	var back Session
	require.NoError(t, json.Unmarshal([]byte(`{"id":"m","subjectId":"x","chapterId":"y","date":"2025-03-11","duration":12.5,"completed":true,"manual":true}`), &back))
	assert.Equal(t, 12*time.Minute+30*time.Second, back.Duration)
	assert.True(t, back.Completed)
	assert.True(t, back.Manual)
	assert.Equal(t, civil.Date{Year: 2025, Month: time.March, Day: 11}, back.Date)
}

func TestAvailabilityJSON(t *testing.T) {
	b, err := json.Marshal(Availability{{Day: time.Sunday, Hours: 4}, {Day: time.Saturday, Hours: 1.5}})
	require.NoError(t, err)
	assert.JSONEq(t, `[{"day":"0","availableHours":4},{"day":"6","availableHours":1.5}]`, string(b))

	var a Availability
	require.NoError(t, json.Unmarshal([]byte(`[{"day":"3","availableHours":2}]`), &a))
	assert.Equal(t, Availability{{Day: time.Wednesday, Hours: 2}}, a)

	assert.Error(t, json.Unmarshal([]byte(`[{"day":"7","availableHours":2}]`), &a))
	assert.Error(t, json.Unmarshal([]byte(`[{"day":"mon","availableHours":2}]`), &a))
}

func TestDefaultAvailability(t *testing.T) {
	a := DefaultAvailability()
	require.Len(t, a, 7)
	assert.Equal(t, 18.0, a.WeeklyHours())
	h, ok := a.HoursOn(time.Sunday)
	assert.True(t, ok)
	assert.Equal(t, 4.0, h)
	h, _ = a.HoursOn(time.Tuesday)
	assert.Equal(t, 2.0, h)
}

func TestAvailabilityWith(t *testing.T) {
	a := Availability{{Day: time.Friday, Hours: 1}}
	b := a.With(time.Monday, 3).With(time.Friday, 0)

	assert.Equal(t, Availability{{Day: time.Monday, Hours: 3}, {Day: time.Friday, Hours: 0}}, b)
	assert.Equal(t, Availability{{Day: time.Friday, Hours: 1}}, a, "original untouched")

	_, ok := b.HoursOn(time.Sunday)
	assert.False(t, ok)
}

func TestParseWeekday(t *testing.T) {
	tests := []struct {
		in   string
		want time.Weekday
		ok   bool
	}{
		{"0", time.Sunday, true},
		{"6", time.Saturday, true},
		{"7", 0, false},
		{"monday", time.Monday, true},
		{"Wed", time.Wednesday, true},
		{"THURS", time.Thursday, true},
		{"fr", 0, false},
		{"caturday", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseWeekday(tt.in)
			if !tt.ok {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidateSubject(t *testing.T) {
	valid := Subject{
		ID:       "s",
		Name:     "Math",
		ExamDate: civil.Date{Year: 2025, Month: time.June, Day: 1},
		Chapters: []Chapter{{ID: "c", Name: "Limits", Difficulty: DifficultyEasy, EstimatedHours: 2}},
	}
	assert.NoError(t, ValidateSubject(valid))

	noName := valid.Clone()
	noName.Name = ""
	err := ValidateSubject(noName)
	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "required", ve.Fields["Subject.Name"])
	var verrs validator.ValidationErrors
	assert.True(t, errors.As(err, &verrs), "wraps the validator error")

	badChapter := valid.Clone()
	badChapter.Chapters[0].EstimatedHours = -1
	badChapter.Chapters[0].Difficulty = "extreme"
	err = ValidateSubject(badChapter)
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "gte", ve.Fields["Subject.Chapters[0].EstimatedHours"])
	assert.Equal(t, "oneof", ve.Fields["Subject.Chapters[0].Difficulty"])
	assert.Contains(t, err.Error(), "Subject.Chapters[0].Difficulty (oneof)")

	badDate := valid.Clone()
	badDate.ExamDate = civil.Date{Year: 2025, Month: time.February, Day: 30}
	assert.Error(t, ValidateSubject(badDate))
}

func TestValidateAvailability(t *testing.T) {
	assert.NoError(t, ValidateAvailability(DefaultAvailability()))
	assert.NoError(t, ValidateAvailability(nil))
	assert.Error(t, ValidateAvailability(Availability{{Day: 9, Hours: 1}}))
	assert.Error(t, ValidateAvailability(Availability{{Day: 1, Hours: 1}, {Day: 1, Hours: 2}}))
	assert.Error(t, ValidateAvailability(Availability{{Day: 1, Hours: -1}}))
	assert.Error(t, ValidateAvailability(Availability{{Day: 1, Hours: 25}}))
}

func TestValidateSession(t *testing.T) {
	ok := Session{SubjectID: "s", ChapterID: "c", Date: civil.Date{Year: 2025, Month: 1, Day: 1}, Duration: time.Minute}
	assert.NoError(t, ValidateSession(ok))

	err := ValidateSession(Session{})
	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Len(t, ve.Fields, 4)
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate(" 2025-03-10 ")
	require.NoError(t, err)
	assert.Equal(t, civil.Date{Year: 2025, Month: time.March, Day: 10}, d)

	_, err = ParseDate("10/03/2025")
	assert.Error(t, err)
}

func TestHoursAndMinutes(t *testing.T) {
	assert.Equal(t, 90*time.Minute, HoursToDuration(1.5))
	assert.Equal(t, 45*time.Second, MinutesToDuration(0.75))
	assert.Equal(t, 30.0, Session{Duration: 30 * time.Minute}.Minutes())
}

func TestHoursToDurationRoundsToNearest(t *testing.T) {
	tests := []struct {
		hours float64
		want  time.Duration
	}{
		{2.3, 2*time.Hour + 18*time.Minute},
		{0.3, 18 * time.Minute},
		{0.1, 6 * time.Minute},
		{1.15, time.Hour + 9*time.Minute},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, HoursToDuration(tt.hours), "%vh", tt.hours)
	}
	assert.Equal(t, 7*time.Minute, MinutesToDuration(7.0000000000001))
	assert.Equal(t, 42*time.Second, MinutesToDuration(0.7))
}

func TestValidateChapterHoursBounds(t *testing.T) {
	base := Chapter{ID: "c", Name: "Limits", Difficulty: DifficultyMedium}
	tests := []struct {
		name  string
		hours float64
		rule  string
	}{
		{"positive infinity", math.Inf(1), "finite"},
		{"negative infinity", math.Inf(-1), "finite"},
		{"not a number", math.NaN(), "finite"},
		{"too large", 1e7, "lte"},
		{"negative", -0.5, "gte"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ch := base
			ch.EstimatedHours = tt.hours
			var ve *ValidationError
			require.True(t, errors.As(ValidateChapter(ch), &ve))
			assert.Equal(t, tt.rule, ve.Fields["Chapter.EstimatedHours"])
		})
	}

	ch := base
	ch.EstimatedHours = MaxChapterHours
	assert.NoError(t, ValidateChapter(ch))

	sub := Subject{ID: "s", Name: "Math", ExamDate: civil.Date{Year: 2025, Month: time.June, Day: 1},
		Chapters: []Chapter{base, {ID: "d", Name: "Series", Difficulty: DifficultyHard, EstimatedHours: math.Inf(1)}}}
	sub.Chapters[0].EstimatedHours = 1
	var ve *ValidationError
	require.True(t, errors.As(ValidateSubject(sub), &ve))
	assert.Equal(t, "finite", ve.Fields["Subject.Chapters[1].EstimatedHours"])
}
