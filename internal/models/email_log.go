package models

import (
	"time"

	"github.com/google/uuid"
)

// EmailType for notification mail.
const (
	EmailTypeInvitation     = "invitation"
	EmailTypeEventUpdated   = "event_updated"
	EmailTypeEventCancelled = "event_cancelled"
)

// EmailLogStatus for delivery.
const (
	EmailLogStatusSent   = "sent"
	EmailLogStatusFailed = "failed"
)

// EmailLog records the outcome of every notification email attempt, so
// partial fan-out failures stay observable after the fact.
type EmailLog struct {
	ID             uuid.UUID  `json:"id"`
	EventID        *uuid.UUID `json:"event_id,omitempty"`
	EmailType      string     `json:"email_type"`
	RecipientEmail string     `json:"recipient_email"`
	Subject        string     `json:"subject,omitempty"`
	Status         string     `json:"status"`
	SentAt         *time.Time `json:"sent_at,omitempty"`
	ErrorMessage   string     `json:"error_message,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}
