package achievement

import (
	"slices"
	"sync"
	"time"

	"github.com/samber/lo"
)

const pointsPerLevel = 100

// State is the mutable part of an achievement. Unlocked only moves from
// false to true and UnlockedAt is stamped once.
type State struct {
	ID         string     `json:"id"`
	Progress   int        `json:"progress"`
	Unlocked   bool       `json:"unlocked"`
	UnlockedAt *time.Time `json:"unlocked_at,omitempty"`
}

// Achievement is a definition joined with its state.
type Achievement struct {
	Definition
	Progress   int        `json:"progress"`
	Unlocked   bool       `json:"unlocked"`
	UnlockedAt *time.Time `json:"unlocked_at,omitempty"`
}

// ProgressPercentage is progress toward the requirement, capped at 100.
func (a Achievement) ProgressPercentage() float64 {
	if a.Requirement <= 0 {
		return 100
	}
	return min(100, 100*float64(a.Progress)/float64(a.Requirement))
}

type UserStats struct {
	TotalWaterIntakeMl int `json:"total_water_intake_ml"`
	DaysTracked        int `json:"days_tracked"`
	CurrentStreak      int `json:"current_streak"`
	LongestStreak      int `json:"longest_streak"`
	DailyGoalsReached  int `json:"daily_goals_reached"`
	TotalPoints        int `json:"total_points"`
	Level              int `json:"level"`
}

// Snapshot is the persisted form of an Engine.
type Snapshot struct {
	States          []State   `json:"achievements"`
	Stats           UserStats `json:"stats"`
	LastGoalDate    string    `json:"last_goal_date,omitempty"`
	LastTrackedDate string    `json:"last_tracked_date,omitempty"`
}

type Option func(*Engine)

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func WithLocation(loc *time.Location) Option {
	return func(e *Engine) {
		if loc != nil {
			e.loc = loc
		}
	}
}

// Engine evaluates the catalog against intake progress for one user.
type Engine struct {
	mu     sync.Mutex
	defs   []Definition
	states []State
	stats  UserStats
	newly  []Achievement

	lastGoalDate    string
	lastTrackedDate string

	now func() time.Time
	loc *time.Location
}

func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		defs: Catalog(),
		now:  time.Now,
		loc:  time.Local,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.resetLocked()
	return e
}

// UpdateProgress applies one completed add and returns the achievements it
// unlocked, in catalog order.
func (e *Engine) UpdateProgress(p Progress) []Achievement {
	if p.DeltaMl <= 0 {
		return nil
	}
	if p.TodayTotalMl < p.DeltaMl {
		p.TodayTotalMl = p.DeltaMl
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	today := now.In(e.loc).Format(time.DateOnly)

	e.stats.TotalWaterIntakeMl += p.DeltaMl
	if e.lastTrackedDate != today {
		e.stats.DaysTracked++
		e.lastTrackedDate = today
	}
	e.stats.CurrentStreak = p.Streak
	e.stats.LongestStreak = max(e.stats.LongestStreak, p.Streak)

	tally := Tally{TotalIntakeMl: e.stats.TotalWaterIntakeMl}
	if p.DailyGoalMl > 0 && p.TodayTotalMl >= p.DailyGoalMl && e.lastGoalDate != today {
		e.stats.DailyGoalsReached++
		e.lastGoalDate = today
		tally.GoalReachedToday = true
	}
	tally.DailyGoalsReached = e.stats.DailyGoalsReached

	var unlocked []Achievement
	for i, def := range e.defs {
		st := &e.states[i]
		st.Progress = def.Rule.Next(st.Progress, p, tally)

		if st.Unlocked || st.Progress < def.Requirement {
			continue
		}
		st.Unlocked = true
		at := now
		st.UnlockedAt = &at
		e.stats.TotalPoints += def.Points
		unlocked = append(unlocked, join(def, *st))
	}

	e.stats.Level = Level(e.stats.TotalPoints)
	e.newly = append(e.newly, unlocked...)
	return unlocked
}

// Level is floor(points/100)+1.
func Level(points int) int {
	return points/pointsPerLevel + 1
}

func (e *Engine) Achievements() []Achievement {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]Achievement, len(e.defs))
	for i, def := range e.defs {
		out[i] = join(def, e.states[i])
	}
	return out
}

func (e *Engine) ByCategory(c Category) []Achievement {
	return lo.Filter(e.Achievements(), func(a Achievement, _ int) bool { return a.Category == c })
}

func (e *Engine) Unlocked() []Achievement {
	return lo.Filter(e.Achievements(), func(a Achievement, _ int) bool { return a.Unlocked })
}

// NewlyUnlocked returns unlocks not yet dismissed.
func (e *Engine) NewlyUnlocked() []Achievement {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.newly)
}

func (e *Engine) Dismiss() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.newly = nil
}

func (e *Engine) Stats() UserStats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stats
}

func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Snapshot{
		States:          slices.Clone(e.states),
		Stats:           e.stats,
		LastGoalDate:    e.lastGoalDate,
		LastTrackedDate: e.lastTrackedDate,
	}
}

// Restore loads a snapshot. Unknown ids are ignored; points and level are
// recomputed from the unlocked set.
func (e *Engine) Restore(snap Snapshot) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.resetLocked()

	saved := make(map[string]State, len(snap.States))
	for _, st := range snap.States {
		saved[st.ID] = st
	}

	points := 0
	for i, def := range e.defs {
		st, ok := saved[def.ID]
		if !ok {
			continue
		}
		e.states[i].Progress = st.Progress
		if st.Unlocked {
			e.states[i].Unlocked = true
			e.states[i].UnlockedAt = st.UnlockedAt
			points += def.Points
		}
	}

	e.stats = snap.Stats
	e.stats.TotalPoints = points
	e.stats.Level = Level(points)
	e.lastGoalDate = snap.LastGoalDate
	e.lastTrackedDate = snap.LastTrackedDate
}

// Reset returns every achievement to locked and zeroes the stats.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.resetLocked()
}

func (e *Engine) resetLocked() {
	e.states = make([]State, len(e.defs))
	for i, def := range e.defs {
		e.states[i] = State{ID: def.ID}
	}
	e.stats = UserStats{Level: 1}
	e.newly = nil
	e.lastGoalDate = ""
	e.lastTrackedDate = ""
}

func join(def Definition, st State) Achievement {
	return Achievement{
		Definition: def,
		Progress:   st.Progress,
		Unlocked:   st.Unlocked,
		UnlockedAt: st.UnlockedAt,
	}
}
