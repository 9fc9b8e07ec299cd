package session

import (
	"github.com/templui/hydrate/internal/model"
	"github.com/templui/hydrate/internal/tracker"
)

// ProfileFrom maps a stored profile onto the tracker's. The stored goal is
// carried as a custom goal so the server value stays authoritative.
func ProfileFrom(p *model.Profile) *tracker.Profile {
	if p == nil {
		return nil
	}
	out := &tracker.Profile{
		ActivityLevel: p.ActivityLevel,
		Climate:       p.Climate,
		CustomGoalMl:  p.DailyGoalMl,
	}
	if p.WeightKg != nil {
		out.WeightKg = *p.WeightKg
	}
	return out
}
