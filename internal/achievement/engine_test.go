package achievement

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

func (c *testClock) nextDay() { c.now = c.now.AddDate(0, 0, 1) }

func newTestEngine() (*Engine, *testClock) {
	clock := &testClock{now: time.Date(2025, 6, 15, 9, 0, 0, 0, time.UTC)}
	return NewEngine(WithClock(clock.Now), WithLocation(time.UTC)), clock
}

func achievementIDs(as []Achievement) []string {
	out := make([]string, len(as))
	for i, a := range as {
		out[i] = a.ID
	}
	return out
}

func TestCatalog(t *testing.T) {
	defs := Catalog()
	require.Len(t, defs, 14)

	seen := map[string]bool{}
	for _, d := range defs {
		assert.False(t, seen[d.ID], "duplicate id %s", d.ID)
		seen[d.ID] = true
		assert.NotNil(t, d.Rule)
		assert.Equal(t, d.Rule.Category(), d.Category)
		assert.Positive(t, d.Requirement)
		assert.Positive(t, d.Points)
	}

	def, ok := Lookup("volume-1l")
	require.True(t, ok)
	assert.Equal(t, "First Liter", def.Title)
	assert.Equal(t, 20, def.Points)
}

func TestCatalog_ReturnsCopy(t *testing.T) {
	defs := Catalog()
	defs[0].Points = 9999

	def, _ := Lookup(defs[0].ID)
	assert.Equal(t, 10, def.Points)
}

func TestEngine_FirstAdd(t *testing.T) {
	e, _ := newTestEngine()

	unlocked := e.UpdateProgress(Progress{DeltaMl: 1000, DailyGoalMl: 3000, Streak: 1})

	assert.Equal(t, []string{"first-day", "volume-1l"}, achievementIDs(unlocked))
	stats := e.Stats()
	assert.Equal(t, 30, stats.TotalPoints)
	assert.Equal(t, 1, stats.Level)
	assert.Equal(t, 1000, stats.TotalWaterIntakeMl)
	assert.Equal(t, 1, stats.DaysTracked)
	assert.Zero(t, stats.DailyGoalsReached)
}

func TestEngine_UnlockIsOneWay(t *testing.T) {
	e, clock := newTestEngine()

	e.UpdateProgress(Progress{DeltaMl: 500, DailyGoalMl: 3000, Streak: 3})
	first := e.Unlocked()
	require.NotEmpty(t, first)
	stamp := *first[0].UnlockedAt

	clock.nextDay()
	again := e.UpdateProgress(Progress{DeltaMl: 500, DailyGoalMl: 3000, Streak: 0})
	assert.Empty(t, again)

	for _, a := range e.Achievements() {
		if a.ID == "streak-3" {
			assert.True(t, a.Unlocked)
			assert.Zero(t, a.Progress, "streak progress follows the current streak")
			assert.True(t, a.UnlockedAt.Equal(stamp), "unlock time is stamped once")
		}
	}
	assert.Equal(t, 35, e.Stats().TotalPoints)
}

func TestEngine_PointsAwardedOnce(t *testing.T) {
	e, _ := newTestEngine()

	for range 5 {
		e.UpdateProgress(Progress{DeltaMl: 1000, DailyGoalMl: 3000, Streak: 1})
	}

	assert.Equal(t, 30, e.Stats().TotalPoints)
}

func TestEngine_DailyGoalCountedOncePerDay(t *testing.T) {
	e, clock := newTestEngine()

	e.UpdateProgress(Progress{DeltaMl: 2000, DailyGoalMl: 3000, Streak: 0, TodayTotalMl: 2000})
	assert.Zero(t, e.Stats().DailyGoalsReached)

	unlocked := e.UpdateProgress(Progress{DeltaMl: 1000, DailyGoalMl: 3000, Streak: 1, TodayTotalMl: 3000})
	assert.Contains(t, achievementIDs(unlocked), "daily-goal-1")
	assert.Equal(t, 1, e.Stats().DailyGoalsReached)

	e.UpdateProgress(Progress{DeltaMl: 500, DailyGoalMl: 3000, Streak: 1, TodayTotalMl: 3500})
	assert.Equal(t, 1, e.Stats().DailyGoalsReached)

	clock.nextDay()
	e.UpdateProgress(Progress{DeltaMl: 3000, DailyGoalMl: 3000, Streak: 2, TodayTotalMl: 3000})
	assert.Equal(t, 2, e.Stats().DailyGoalsReached)
	assert.Equal(t, 2, e.Stats().DaysTracked)
}

func TestEngine_GoalCountUnlocks(t *testing.T) {
	e, clock := newTestEngine()

	var unlocked []Achievement
	for day := 1; day <= 10; day++ {
		unlocked = e.UpdateProgress(Progress{DeltaMl: 3000, DailyGoalMl: 3000, Streak: day})
		clock.nextDay()
	}

	assert.Contains(t, achievementIDs(unlocked), "daily-goals-10")
	assert.Equal(t, 10, e.Stats().DailyGoalsReached)
}

func TestEngine_VolumeUsesSingleAmount(t *testing.T) {
	e, _ := newTestEngine()

	// two 600 ml adds reach 1200 today, but no single add reaches 1000
	e.UpdateProgress(Progress{DeltaMl: 600, DailyGoalMl: 3000, Streak: 0})
	unlocked := e.UpdateProgress(Progress{DeltaMl: 600, DailyGoalMl: 3000, Streak: 0, TodayTotalMl: 1200})

	assert.NotContains(t, achievementIDs(unlocked), "volume-1l")
	for _, a := range e.ByCategory(CategoryVolume) {
		assert.Equal(t, 600, a.Progress)
	}
}

func TestEngine_MilestoneTracksLifetimeTotal(t *testing.T) {
	e, clock := newTestEngine()

	var unlocked []Achievement
	for range 4 {
		unlocked = e.UpdateProgress(Progress{DeltaMl: 2500, DailyGoalMl: 3000})
		clock.nextDay()
	}

	assert.Contains(t, achievementIDs(unlocked), "total-10l")
	milestones := e.ByCategory(CategoryMilestone)
	require.Len(t, milestones, 3)
	assert.Equal(t, 10000, milestones[0].Progress)
	assert.InDelta(t, 10.0, milestones[1].ProgressPercentage(), 0.001)
}

func TestEngine_LevelFromPoints(t *testing.T) {
	assert.Equal(t, 1, Level(0))
	assert.Equal(t, 1, Level(99))
	assert.Equal(t, 2, Level(100))
	assert.Equal(t, 4, Level(385))
}

func TestEngine_LongestStreakIsMonotonic(t *testing.T) {
	e, _ := newTestEngine()

	e.UpdateProgress(Progress{DeltaMl: 100, Streak: 5})
	e.UpdateProgress(Progress{DeltaMl: 100, Streak: 2})

	stats := e.Stats()
	assert.Equal(t, 2, stats.CurrentStreak)
	assert.Equal(t, 5, stats.LongestStreak)
}

func TestEngine_NewlyUnlockedAndDismiss(t *testing.T) {
	e, _ := newTestEngine()

	e.UpdateProgress(Progress{DeltaMl: 1000, DailyGoalMl: 3000, Streak: 1})
	assert.Len(t, e.NewlyUnlocked(), 2)

	e.Dismiss()
	assert.Empty(t, e.NewlyUnlocked())
	assert.Len(t, e.Unlocked(), 2)
}

func TestEngine_IgnoresNonPositiveDelta(t *testing.T) {
	e, _ := newTestEngine()

	assert.Nil(t, e.UpdateProgress(Progress{DeltaMl: 0, Streak: 3}))
	assert.Equal(t, UserStats{Level: 1}, e.Stats())
}

func TestEngine_SnapshotRestore(t *testing.T) {
	e, _ := newTestEngine()
	e.UpdateProgress(Progress{DeltaMl: 3000, DailyGoalMl: 3000, Streak: 1})
	snap := e.Snapshot()

	restored, _ := newTestEngine()
	restored.Restore(snap)

	assert.Equal(t, e.Achievements(), restored.Achievements())
	assert.Equal(t, e.Stats(), restored.Stats())

	// the goal already counted today is not counted again
	restored.UpdateProgress(Progress{DeltaMl: 100, DailyGoalMl: 3000, Streak: 1, TodayTotalMl: 3100})
	assert.Equal(t, 1, restored.Stats().DailyGoalsReached)
}

func TestEngine_RestoreRecomputesPoints(t *testing.T) {
	e, _ := newTestEngine()
	e.Restore(Snapshot{
		States: []State{
			{ID: "first-day", Progress: 1, Unlocked: true},
			{ID: "streak-7", Progress: 7, Unlocked: true},
			{ID: "retired-badge", Progress: 1, Unlocked: true},
		},
		Stats: UserStats{TotalPoints: 12345},
	})

	stats := e.Stats()
	assert.Equal(t, 60, stats.TotalPoints)
	assert.Equal(t, 1, stats.Level)
}

func TestEngine_Reset(t *testing.T) {
	e, _ := newTestEngine()
	e.UpdateProgress(Progress{DeltaMl: 1000, DailyGoalMl: 3000, Streak: 1})

	e.Reset()

	assert.Empty(t, e.Unlocked())
	assert.Equal(t, UserStats{Level: 1}, e.Stats())
}
