package achievement

type Category string

const (
	CategoryStreak    Category = "streak"
	CategoryDaily     Category = "daily"
	CategoryVolume    Category = "volume"
	CategoryMilestone Category = "milestone"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryStreak, CategoryDaily, CategoryVolume, CategoryMilestone:
		return true
	}
	return false
}

type Rarity string

const (
	RarityCommon    Rarity = "common"
	RarityRare      Rarity = "rare"
	RarityEpic      Rarity = "epic"
	RarityLegendary Rarity = "legendary"
)

type Definition struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Icon        string   `json:"icon"`
	Category    Category `json:"category"`
	Requirement int      `json:"requirement"`
	Rarity      Rarity   `json:"rarity"`
	Points      int      `json:"points"`
	Rule        Rule     `json:"-"`
}

var catalog = []Definition{
	define("first-day", "First Drop", "Complete your first day of tracking", "droplet", 1, RarityCommon, 10, StreakRule{}),
	define("streak-3", "Getting Started", "Maintain a 3-day hydration streak", "flame", 3, RarityCommon, 25, StreakRule{}),
	define("streak-7", "Week Warrior", "Maintain a 7-day hydration streak", "calendar", 7, RarityRare, 50, StreakRule{}),
	define("streak-30", "Hydration Hero", "Maintain a 30-day hydration streak", "crown", 30, RarityEpic, 200, StreakRule{}),
	define("streak-100", "Legendary Hydrator", "Maintain a 100-day hydration streak", "star", 100, RarityLegendary, 500, StreakRule{}),

	define("daily-goal-1", "Goal Crusher", "Reach your daily goal for the first time", "target", 1, RarityCommon, 15, FirstGoalRule{}),
	define("daily-goals-10", "Consistent Achiever", "Reach your daily goal 10 times", "check-circle", 10, RarityRare, 75, GoalCountRule{}),
	define("daily-goals-50", "Goal Master", "Reach your daily goal 50 times", "trophy", 50, RarityEpic, 250, GoalCountRule{}),

	define("volume-1l", "First Liter", "Drink 1 liter in a single day", "glass-water", 1000, RarityCommon, 20, VolumeRule{}),
	define("volume-3l", "Hydration Champion", "Drink 3 liters in a single day", "waves", 3000, RarityRare, 60, VolumeRule{}),
	define("volume-5l", "Water Warrior", "Drink 5 liters in a single day", "zap", 5000, RarityEpic, 150, VolumeRule{}),

	define("total-10l", "10 Liter Club", "Drink a total of 10 liters", "award", 10000, RarityCommon, 30, MilestoneRule{}),
	define("total-100l", "Century Hydrator", "Drink a total of 100 liters", "medal", 100000, RarityRare, 100, MilestoneRule{}),
	define("total-1000l", "Hydration Legend", "Drink a total of 1000 liters", "gem", 1000000, RarityLegendary, 1000, MilestoneRule{}),
}

func define(id, title, description, icon string, requirement int, rarity Rarity, points int, rule Rule) Definition {
	return Definition{
		ID:          id,
		Title:       title,
		Description: description,
		Icon:        icon,
		Category:    rule.Category(),
		Requirement: requirement,
		Rarity:      rarity,
		Points:      points,
		Rule:        rule,
	}
}

// Catalog returns a copy of the built-in achievement definitions.
func Catalog() []Definition {
	out := make([]Definition, len(catalog))
	copy(out, catalog)
	return out
}

// Lookup returns the definition with the given id.
func Lookup(id string) (Definition, bool) {
	for _, d := range catalog {
		if d.ID == id {
			return d, true
		}
	}
	return Definition{}, false
}
