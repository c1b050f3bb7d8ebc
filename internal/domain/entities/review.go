package entities

import (
	"fmt"
	"strings"
	"time"
)

// Review is one user's feedback on one target.
type Review struct {
	ID         string         `json:"id"`
	TargetID   string         `json:"target_id"`
	TargetType string         `json:"target_type"`
	UserID     string         `json:"user_id"`
	UserName   string         `json:"user_name,omitempty"`
	UserAvatar string         `json:"user_avatar,omitempty"`
	Rating     float64        `json:"rating"`
	Title      string         `json:"title,omitempty"`
	Comment    string         `json:"comment"`
	Photos     []string       `json:"photos,omitempty"`
	Helpful    int            `json:"helpful"`
	Verified   bool           `json:"verified,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// Bucket returns the key of the bucket the review belongs to.
func (r *Review) Bucket() BucketKey {
	return BucketKey{TargetType: r.TargetType, TargetID: r.TargetID}
}

// Clone returns a copy that shares no slices or maps with r.
func (r *Review) Clone() *Review {
	out := *r
	if r.Photos != nil {
		out.Photos = append([]string(nil), r.Photos...)
	}
	if r.Metadata != nil {
		out.Metadata = make(map[string]any, len(r.Metadata))
		for k, v := range r.Metadata {
			out.Metadata[k] = v
		}
	}
	return &out
}

// ReviewInput is the data a user submits for a new review.
type ReviewInput struct {
	Rating     float64  `json:"rating" validate:"gte=0,lte=5,halfstep"`
	Title      string   `json:"title" validate:"max=200"`
	Comment    string   `json:"comment" validate:"max=2000"`
	Photos     []string `json:"photos" validate:"max=10,dive,url"`
	UserName   string   `json:"user_name" validate:"max=100"`
	UserAvatar string   `json:"user_avatar" validate:"omitempty,url"`
}

// Validate checks the input fields.
func (in *ReviewInput) Validate() error {
	return validateStruct(in)
}

// ReviewPatch is a partial update; nil fields are left untouched.
type ReviewPatch struct {
	Rating  *float64  `json:"rating" validate:"omitempty,gte=0,lte=5,halfstep"`
	Title   *string   `json:"title" validate:"omitempty,max=200"`
	Comment *string   `json:"comment" validate:"omitempty,max=2000"`
	Photos  *[]string `json:"photos" validate:"omitempty,max=10,dive,url"`
}

// Validate checks the patch fields that are present.
func (p *ReviewPatch) Validate() error {
	return validateStruct(p)
}

// Empty reports whether the patch changes nothing.
func (p *ReviewPatch) Empty() bool {
	return p.Rating == nil && p.Title == nil && p.Comment == nil && p.Photos == nil
}

// Apply merges the present fields into r.
func (p *ReviewPatch) Apply(r *Review) {
	if p.Rating != nil {
		r.Rating = *p.Rating
	}
	if p.Title != nil {
		r.Title = *p.Title
	}
	if p.Comment != nil {
		r.Comment = *p.Comment
	}
	if p.Photos != nil {
		r.Photos = append([]string(nil), (*p.Photos)...)
	}
}

// BucketKey identifies the set of reviews for one (target type, target id) pair.
type BucketKey struct {
	TargetType string `json:"target_type"`
	TargetID   string `json:"target_id"`
}

// String renders the key as "<type>:<id>".
func (k BucketKey) String() string {
	return k.TargetType + ":" + k.TargetID
}

// Valid reports whether both parts are set.
func (k BucketKey) Valid() bool {
	return strings.TrimSpace(k.TargetType) != "" && strings.TrimSpace(k.TargetID) != ""
}

// ParseBucketKey parses "<type>:<id>". The type may not contain a colon; the id may.
func ParseBucketKey(s string) (BucketKey, error) {
	targetType, targetID, ok := strings.Cut(s, ":")
	key := BucketKey{TargetType: targetType, TargetID: targetID}
	if !ok || !key.Valid() {
		return BucketKey{}, fmt.Errorf("invalid bucket key %q, want <type>:<id>", s)
	}
	return key, nil
}

// UserRatingKey identifies a single user's standalone star rating of a target.
type UserRatingKey struct {
	TargetType string `json:"target_type"`
	TargetID   string `json:"target_id"`
	UserID     string `json:"user_id"`
}

// SortKey selects the ordering applied by SortReviews.
type SortKey string

const (
	SortRecent  SortKey = "recent"
	SortHelpful SortKey = "helpful"
	SortRating  SortKey = "rating"
)
