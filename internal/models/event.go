package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Event is a persisted gathering with an owner and an invitee list.
// Invitees hold normalized (lower-cased, trimmed) email addresses, each at
// most once.
type Event struct {
	ID              uuid.UUID `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	StartsAt        time.Time `json:"starts_at"`
	ImageURL        string    `json:"image_url,omitempty"`
	Category        string    `json:"category,omitempty"`
	OwnerID         uuid.UUID `json:"owner_id"`
	OwnerName       string    `json:"owner_name"`
	AttendeesAmount int       `json:"attendees_amount"`
	Invitees        []string  `json:"invitees"`
	Place           string    `json:"place"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// EventDoc is the wire form of an event snapshot as carried in change jobs.
// Date fields are Instants so snapshots produced from different store
// representations compare equal when they denote the same moment.
type EventDoc struct {
	ID              string   `json:"id"`
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	Date            Instant  `json:"date"`
	Image           string   `json:"image,omitempty"`
	Category        string   `json:"category,omitempty"`
	OwnerID         string   `json:"ownerId"`
	OwnerName       string   `json:"ownerName"`
	CreatedAt       Instant  `json:"createdAt"`
	AttendeesAmount int      `json:"attendeesAmount"`
	Invitees        []string `json:"invitees,omitempty"`
	Place           string   `json:"place"`
}

// Doc converts a persisted event into its snapshot form.
func (e *Event) Doc() *EventDoc {
	invitees := make([]string, len(e.Invitees))
	copy(invitees, e.Invitees)
	return &EventDoc{
		ID:              e.ID.String(),
		Title:           e.Title,
		Description:     e.Description,
		Date:            NewInstant(e.StartsAt),
		Image:           e.ImageURL,
		Category:        e.Category,
		OwnerID:         e.OwnerID.String(),
		OwnerName:       e.OwnerName,
		CreatedAt:       NewInstant(e.CreatedAt),
		AttendeesAmount: e.AttendeesAmount,
		Invitees:        invitees,
		Place:           e.Place,
	}
}

// NormalizeEmail lower-cases and trims an email address. All invitee
// addresses pass through this before storage or comparison.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
