package tracker

import (
	"fmt"
	"math"
	"time"

	"github.com/samber/lo"
)

// StreakWindow bounds how far back CurrentStreak looks.
const StreakWindow = 30

type DailyStat struct {
	DateKey       string `json:"date"`
	TotalIntakeMl int    `json:"total_intake_ml"`
	EventCount    int    `json:"intake_count"`
	GoalMl        int    `json:"goal_ml"`
	GoalReached   bool   `json:"goal_reached"`
}

type WeeklyStat struct {
	Label           string `json:"week"`
	AverageIntakeMl int    `json:"average_intake_ml"`
	DaysGoalReached int    `json:"days_goal_reached"`
	TotalDays       int    `json:"total_days"`
	TotalIntakeMl   int    `json:"total_intake_ml"`
}

// Summary aggregates a window of days for the analytics view.
type Summary struct {
	Days                 int        `json:"days"`
	DaysGoalReached      int        `json:"days_goal_reached"`
	TotalIntakeMl        int        `json:"total_intake_ml"`
	AverageDailyIntakeMl int        `json:"average_daily_intake_ml"`
	GoalCompletionRate   int        `json:"goal_completion_rate"`
	BestDay              *DailyStat `json:"best_day,omitempty"`
	CurrentStreak        int        `json:"current_streak"`
}

// GoalFunc returns the current daily goal in ml.
type GoalFunc func() int

// Stats derives aggregates from a Store on every call; nothing is cached.
type Stats struct {
	store *Store
	goal  GoalFunc
}

func NewStats(store *Store, goal GoalFunc) *Stats {
	if goal == nil {
		goal = func() int { return DefaultDailyGoalMl }
	}
	return &Stats{store: store, goal: goal}
}

func (s *Stats) Goal() int {
	return s.goal()
}

// DailyStats returns one entry per calendar day for the n days ending today,
// newest first. Days without intake are zero-filled.
func (s *Stats) DailyStats(n int) []DailyStat {
	if n <= 0 {
		return []DailyStat{}
	}

	goal := s.goal()
	now := s.store.Now()
	loc := s.store.Location()

	days := make([]DailyStat, n)
	index := make(map[string]int, n)
	for i := range n {
		// noon avoids DST edges when stepping back whole days
		d := time.Date(now.Year(), now.Month(), now.Day()-i, 12, 0, 0, 0, loc)
		key := d.Format(DateLayout)
		days[i] = DailyStat{DateKey: key, GoalMl: goal}
		index[key] = i
	}

	for _, ev := range s.store.Events() {
		i, ok := index[ev.DateKey]
		if !ok {
			continue
		}
		days[i].TotalIntakeMl += ev.AmountMl
		days[i].EventCount++
	}

	for i := range days {
		days[i].GoalReached = goal > 0 && days[i].TotalIntakeMl >= goal
	}
	return days
}

// WeeklyStats splits DailyStats(weeks*7) into consecutive 7-day blocks
// counting back from today.
func (s *Stats) WeeklyStats(weeks int) []WeeklyStat {
	if weeks <= 0 {
		return []WeeklyStat{}
	}

	chunks := lo.Chunk(s.DailyStats(weeks*7), 7)
	out := make([]WeeklyStat, 0, len(chunks))
	for i, days := range chunks {
		total := lo.SumBy(days, func(d DailyStat) int { return d.TotalIntakeMl })
		out = append(out, WeeklyStat{
			Label:           fmt.Sprintf("Week %d", i+1),
			AverageIntakeMl: roundDiv(total, len(days)),
			DaysGoalReached: lo.CountBy(days, func(d DailyStat) bool { return d.GoalReached }),
			TotalDays:       len(days),
			TotalIntakeMl:   total,
		})
	}
	return out
}

// CurrentStreak counts consecutive goal days from today backwards. A missed
// today yields 0.
func (s *Stats) CurrentStreak() int {
	streak := 0
	for _, d := range s.DailyStats(StreakWindow) {
		if !d.GoalReached {
			break
		}
		streak++
	}
	return streak
}

func (s *Stats) TodayPercentage() int {
	return Percentage(s.store.TodayTotal(), s.goal())
}

func (s *Stats) Summary(days int) Summary {
	stats := s.DailyStats(days)
	sum := Summary{
		Days:          len(stats),
		CurrentStreak: s.CurrentStreak(),
	}
	if len(stats) == 0 {
		return sum
	}

	sum.TotalIntakeMl = lo.SumBy(stats, func(d DailyStat) int { return d.TotalIntakeMl })
	sum.DaysGoalReached = lo.CountBy(stats, func(d DailyStat) bool { return d.GoalReached })
	sum.AverageDailyIntakeMl = roundDiv(sum.TotalIntakeMl, len(stats))
	sum.GoalCompletionRate = roundDiv(100*sum.DaysGoalReached, len(stats))

	best := lo.MaxBy(stats, func(a, b DailyStat) bool { return a.TotalIntakeMl > b.TotalIntakeMl })
	if best.TotalIntakeMl > 0 {
		sum.BestDay = &best
	}
	return sum
}

func roundDiv(a, b int) int {
	if b == 0 {
		return 0
	}
	return int(math.Round(float64(a) / float64(b)))
}
