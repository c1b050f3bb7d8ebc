package entities

import "time"

// ReviewEventType is the kind of bucket mutation being announced.
type ReviewEventType string

const (
	ReviewEventCreated ReviewEventType = "review.created"
	ReviewEventUpdated ReviewEventType = "review.updated"
	ReviewEventDeleted ReviewEventType = "review.deleted"
	ReviewEventHelpful ReviewEventType = "review.helpful"
)

// ReviewEvent announces that a bucket changed so other instances can refresh it.
type ReviewEvent struct {
	ID        string          `json:"id"`
	Type      ReviewEventType `json:"type"`
	Bucket    BucketKey       `json:"bucket"`
	ReviewID  string          `json:"review_id"`
	Origin    string          `json:"origin"`
	Timestamp time.Time       `json:"timestamp"`
}
