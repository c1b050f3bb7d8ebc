package rating

import (
	"time"

	"github.com/zatekoja/apprating/internal/domain/entities"
)

// DismissCooldown is how long a dismissed prompt stays hidden. Not configurable.
const DismissCooldown = 7 * 24 * time.Hour

const day = 24 * time.Hour

// ShouldShowRating decides whether the prompt may be shown at now.
//
// A rating blocks the prompt for cfg.DaysBetweenRatings days and a dismissal for
// DismissCooldown; both windows are exclusive at the boundary. Outside those
// windows the prompt shows once the action count reaches cfg.ActionsBeforeRating.
func ShouldShowRating(state entities.PromptState, cfg entities.PromptConfig, now time.Time) bool {
	if state.HasRated && state.LastRatingDate != nil {
		if daysSince(*state.LastRatingDate, now) < float64(cfg.DaysBetweenRatings) {
			return false
		}
	}

	if state.Dismissed && state.LastDismissedDate != nil {
		if now.Sub(*state.LastDismissedDate) < DismissCooldown {
			return false
		}
	}

	return state.ActionCount >= cfg.ActionsBeforeRating
}

func daysSince(then, now time.Time) float64 {
	return float64(now.Sub(then)) / float64(day)
}
