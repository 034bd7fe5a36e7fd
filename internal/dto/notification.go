package dto

import (
	"encoding/json"
	"time"
)

// RecipientDTO identifies one recipient together with the channel
// addresses resolved from the event context. Missing addresses leave the
// corresponding channel attempt permanently undeliverable rather than
// blocking siblings.
type RecipientDTO struct {
	UserID       uint   `json:"user_id" validate:"required"`
	Email        string `json:"email" validate:"omitempty,email"`
	SocialHandle string `json:"social_handle"`
}

type EventDTO struct {
	EventType  string          `json:"event_type" validate:"required,oneof=promotion_created interest_shown collaboration_approved"`
	Title      string          `json:"title" validate:"required"`
	Message    string          `json:"message" validate:"required"`
	Payload    json.RawMessage `json:"payload"`
	Recipients []RecipientDTO  `json:"recipients" validate:"required,min=1,dive"`
}

type EventAcceptedDTO struct {
	EventID  string `json:"event_id"`
	Attempts int    `json:"attempts"`
}

// PreferenceDTO carries per-channel toggles; nil means "leave as is"
// on update and "default enabled" on read.
type PreferenceDTO struct {
	EventType     string `json:"event_type" validate:"required,oneof=promotion_created interest_shown collaboration_approved"`
	InAppEnabled  *bool  `json:"in_app_enabled"`
	EmailEnabled  *bool  `json:"email_enabled"`
	SocialEnabled *bool  `json:"social_enabled"`
}

type InboxItemDTO struct {
	ID        uint            `json:"id"`
	EventType string          `json:"event_type"`
	Title     string          `json:"title"`
	Message   string          `json:"message"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	ReadAt    *time.Time      `json:"read_at,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}
