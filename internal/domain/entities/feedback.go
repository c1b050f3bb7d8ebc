package entities

import "time"

// Feedback captures the private feedback a user leaves instead of a store review
// when their app rating is below the store-review threshold.
type Feedback struct {
	ID         string    `json:"id"`
	StorageKey string    `json:"storage_key"`
	Rating     int       `json:"rating" validate:"min=1,max=5"`
	Message    string    `json:"message" validate:"max=1000"`
	Email      string    `json:"email,omitempty" validate:"omitempty,max=200,email"`
	UserAgent  string    `json:"user_agent,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Validate checks the feedback fields.
func (f *Feedback) Validate() error {
	return validateStruct(f)
}
