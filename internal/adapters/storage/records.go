package storage

import (
	"time"

	"github.com/zatekoja/apprating/internal/domain/entities"
)

// Stored snapshots use the mobile clients' field names and epoch-millisecond
// timestamps.

type promptStateRecord struct {
	HasRated          bool   `json:"hasRated"`
	LastRatingDate    *int64 `json:"lastRatingDate"`
	RatingValue       *int   `json:"ratingValue"`
	ActionCount       int    `json:"actionCount"`
	Dismissed         bool   `json:"dismissed"`
	LastDismissedDate *int64 `json:"lastDismissedDate"`
}

func newPromptStateRecord(state *entities.PromptState) promptStateRecord {
	rec := promptStateRecord{
		HasRated:          state.HasRated,
		LastRatingDate:    millisPtr(state.LastRatingDate),
		ActionCount:       state.ActionCount,
		Dismissed:         state.Dismissed,
		LastDismissedDate: millisPtr(state.LastDismissedDate),
	}
	if state.RatingValue != nil {
		v := *state.RatingValue
		rec.RatingValue = &v
	}
	return rec
}

func (r promptStateRecord) entity() *entities.PromptState {
	return &entities.PromptState{
		HasRated:          r.HasRated,
		LastRatingDate:    timePtr(r.LastRatingDate),
		RatingValue:       r.RatingValue,
		ActionCount:       r.ActionCount,
		Dismissed:         r.Dismissed,
		LastDismissedDate: timePtr(r.LastDismissedDate),
	}
}

type reviewRecord struct {
	ID         string         `json:"id"`
	TargetID   string         `json:"targetId"`
	TargetType string         `json:"targetType"`
	UserID     string         `json:"userId"`
	UserName   string         `json:"userName,omitempty"`
	UserAvatar string         `json:"userAvatar,omitempty"`
	Rating     float64        `json:"rating"`
	Title      string         `json:"title,omitempty"`
	Comment    string         `json:"comment"`
	Photos     []string       `json:"photos,omitempty"`
	Helpful    int            `json:"helpful"`
	Verified   bool           `json:"verified,omitempty"`
	CreatedAt  int64          `json:"createdAt"`
	UpdatedAt  int64          `json:"updatedAt"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

func newReviewRecords(reviews []*entities.Review) []reviewRecord {
	out := make([]reviewRecord, 0, len(reviews))
	for _, r := range reviews {
		if r == nil {
			continue
		}
		out = append(out, reviewRecord{
			ID:         r.ID,
			TargetID:   r.TargetID,
			TargetType: r.TargetType,
			UserID:     r.UserID,
			UserName:   r.UserName,
			UserAvatar: r.UserAvatar,
			Rating:     r.Rating,
			Title:      r.Title,
			Comment:    r.Comment,
			Photos:     r.Photos,
			Helpful:    r.Helpful,
			Verified:   r.Verified,
			CreatedAt:  toMillis(r.CreatedAt),
			UpdatedAt:  toMillis(r.UpdatedAt),
			Metadata:   r.Metadata,
		})
	}
	return out
}

func (r reviewRecord) entity() *entities.Review {
	return &entities.Review{
		ID:         r.ID,
		TargetID:   r.TargetID,
		TargetType: r.TargetType,
		UserID:     r.UserID,
		UserName:   r.UserName,
		UserAvatar: r.UserAvatar,
		Rating:     r.Rating,
		Title:      r.Title,
		Comment:    r.Comment,
		Photos:     r.Photos,
		Helpful:    r.Helpful,
		Verified:   r.Verified,
		CreatedAt:  fromMillis(r.CreatedAt),
		UpdatedAt:  fromMillis(r.UpdatedAt),
		Metadata:   r.Metadata,
	}
}

func toMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}

func millisPtr(t *time.Time) *int64 {
	if t == nil {
		return nil
	}
	ms := toMillis(*t)
	return &ms
}

func timePtr(ms *int64) *time.Time {
	if ms == nil {
		return nil
	}
	t := fromMillis(*ms)
	return &t
}
