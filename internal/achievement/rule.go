package achievement

// Progress is what one completed add contributes to the achievement rules.
type Progress struct {
	DeltaMl      int // the single amount just added
	DailyGoalMl  int
	Streak       int // current streak after the add
	TodayTotalMl int // today's total after the add; defaults to DeltaMl
}

// Tally holds the running counters rules read from.
type Tally struct {
	TotalIntakeMl     int
	DailyGoalsReached int
	GoalReachedToday  bool // true when this add made today's goal count
}

// Rule computes the new progress of one achievement. Implementations are
// pure; the engine owns all state.
type Rule interface {
	Category() Category
	Next(current int, p Progress, t Tally) int
}

// StreakRule tracks the current streak.
type StreakRule struct{}

func (StreakRule) Category() Category { return CategoryStreak }

func (StreakRule) Next(_ int, p Progress, _ Tally) int {
	return p.Streak
}

// FirstGoalRule flips to 1 the first time a daily goal is reached.
type FirstGoalRule struct{}

func (FirstGoalRule) Category() Category { return CategoryDaily }

func (FirstGoalRule) Next(current int, _ Progress, t Tally) int {
	if t.GoalReachedToday {
		return 1
	}
	return current
}

// GoalCountRule counts distinct days whose goal was reached.
type GoalCountRule struct{}

func (GoalCountRule) Category() Category { return CategoryDaily }

func (GoalCountRule) Next(_ int, _ Progress, t Tally) int {
	return t.DailyGoalsReached
}

// VolumeRule keeps the largest single amount added so far.
type VolumeRule struct{}

func (VolumeRule) Category() Category { return CategoryVolume }

func (VolumeRule) Next(current int, p Progress, _ Tally) int {
	return max(current, p.DeltaMl)
}

// MilestoneRule tracks lifetime intake.
type MilestoneRule struct{}

func (MilestoneRule) Category() Category { return CategoryMilestone }

func (MilestoneRule) Next(_ int, _ Progress, t Tally) int {
	return t.TotalIntakeMl
}
