package rating

import "github.com/google/uuid"

// ReviewIDPrefix starts every generated review id.
const ReviewIDPrefix = "review_"

// GenerateReviewID returns a prefixed, time-ordered UUIDv7.
func GenerateReviewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return ReviewIDPrefix + id.String()
}
