package stats

// Achievement is a milestone reached by accumulating completed study.
type Achievement struct {
	ID          string
	Title       string
	Description string
	Progress    int
	Goal        int
}

// Unlocked reports whether the goal has been reached.
func (a Achievement) Unlocked() bool { return a.Progress >= a.Goal }

// Fraction is Progress/Goal, capped at 1.
func (a Achievement) Fraction() float64 {
	if a.Goal <= 0 || a.Progress >= a.Goal {
		return 1
	}
	if a.Progress <= 0 {
		return 0
	}
	return float64(a.Progress) / float64(a.Goal)
}

// Achievements evaluates the fixed milestone set against sum.
func Achievements(sum Summary) []Achievement {
	return []Achievement{
		{
			ID:          "study-master",
			Title:       "Study Master",
			Description: "Complete 100 study sessions",
			Progress:    sum.Completed,
			Goal:        100,
		},
		{
			ID:          "time-warrior",
			Title:       "Time Warrior",
			Description: "Study for 50 hours total",
			Progress:    int(sum.Studied.Hours()),
			Goal:        50,
		},
		{
			ID:          "streak-champion",
			Title:       "Streak Champion",
			Description: "Maintain a 7-day study streak",
			Progress:    sum.Streak,
			Goal:        7,
		},
		{
			ID:          "subject-explorer",
			Title:       "Subject Explorer",
			Description: "Study 5 different subjects",
			Progress:    sum.Subjects,
			Goal:        5,
		},
	}
}
