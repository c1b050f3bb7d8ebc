package entities

import "time"

// PromptState is the per-installation record behind the "rate this app" prompt.
type PromptState struct {
	HasRated          bool       `json:"has_rated"`
	LastRatingDate    *time.Time `json:"last_rating_date"`
	RatingValue       *int       `json:"rating_value"`
	ActionCount       int        `json:"action_count"`
	Dismissed         bool       `json:"dismissed"`
	LastDismissedDate *time.Time `json:"last_dismissed_date"`
}

// DefaultPromptState returns the zero state used for new installations and resets.
func DefaultPromptState() PromptState {
	return PromptState{}
}

// Clone returns a deep copy so callers cannot mutate cached state through pointers.
func (s PromptState) Clone() PromptState {
	out := s
	if s.LastRatingDate != nil {
		t := *s.LastRatingDate
		out.LastRatingDate = &t
	}
	if s.RatingValue != nil {
		v := *s.RatingValue
		out.RatingValue = &v
	}
	if s.LastDismissedDate != nil {
		t := *s.LastDismissedDate
		out.LastDismissedDate = &t
	}
	return out
}

// PromptConfig holds the thresholds used to decide whether to show the prompt.
type PromptConfig struct {
	ActionsBeforeRating int `json:"actions_before_rating"`
	DaysBetweenRatings  int `json:"days_between_ratings"`
}

// DefaultPromptConfig returns 3 actions and a 90 day cooldown.
func DefaultPromptConfig() PromptConfig {
	return PromptConfig{
		ActionsBeforeRating: 3,
		DaysBetweenRatings:  90,
	}
}

// RatingOutcome reports where a submitted app rating was routed.
type RatingOutcome struct {
	State                PromptState `json:"state"`
	StoreReviewRequested bool        `json:"store_review_requested"`
	FeedbackRequested    bool        `json:"feedback_requested"`
}
