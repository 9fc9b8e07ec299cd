package localstate

import "time"

// MaxRecentActivity caps the recent-activity ring.
const MaxRecentActivity = 100

const (
	ActivityIntake       = "intake"
	ActivityUndo         = "undo"
	ActivityAchievement  = "achievement"
	ActivityReminder     = "reminder"
	ActivitySettings     = "settings"
	ActivityReset        = "reset"
	ActivitySoundChanged = "sound"
)

type Activity struct {
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	AmountMl  int       `json:"amount_ml,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// PushActivity puts a at the head of ring and trims it to MaxRecentActivity.
func PushActivity(ring []Activity, a Activity) []Activity {
	out := make([]Activity, 0, min(len(ring)+1, MaxRecentActivity))
	out = append(out, a)
	for _, prev := range ring {
		if len(out) == MaxRecentActivity {
			break
		}
		out = append(out, prev)
	}
	return out
}
