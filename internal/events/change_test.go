package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/eventmate/backend/internal/models"
)

func snapshot() *models.EventDoc {
	return &models.EventDoc{
		ID:          "ev-1",
		Title:       "Team offsite",
		Description: "Annual planning",
		Date:        models.NewInstant(time.Date(2026, 9, 12, 10, 0, 0, 0, time.UTC)),
		OwnerID:     "owner-1",
		OwnerName:   "Ada",
		Invitees:    []string{"a@example.com", "b@example.com"},
		Place:       "Berlin",
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(before, after *models.EventDoc) (*models.EventDoc, *models.EventDoc)
		expected Change
	}{
		{
			name: "creation is not a notifiable change",
			mutate: func(_, after *models.EventDoc) (*models.EventDoc, *models.EventDoc) {
				return nil, after
			},
			expected: ChangeNone,
		},
		{
			name: "deletion is cancellation",
			mutate: func(before, _ *models.EventDoc) (*models.EventDoc, *models.EventDoc) {
				return before, nil
			},
			expected: ChangeCancelled,
		},
		{
			name: "both nil",
			mutate: func(_, _ *models.EventDoc) (*models.EventDoc, *models.EventDoc) {
				return nil, nil
			},
			expected: ChangeNone,
		},
		{
			name: "identical snapshots",
			mutate: func(before, after *models.EventDoc) (*models.EventDoc, *models.EventDoc) {
				return before, after
			},
			expected: ChangeNone,
		},
		{
			name: "title changed",
			mutate: func(before, after *models.EventDoc) (*models.EventDoc, *models.EventDoc) {
				after.Title = "Team offsite (rescheduled)"
				return before, after
			},
			expected: ChangeUpdated,
		},
		{
			name: "description changed",
			mutate: func(before, after *models.EventDoc) (*models.EventDoc, *models.EventDoc) {
				after.Description = "Quarterly planning"
				return before, after
			},
			expected: ChangeUpdated,
		},
		{
			name: "date changed",
			mutate: func(before, after *models.EventDoc) (*models.EventDoc, *models.EventDoc) {
				after.Date = models.NewInstant(after.Date.Add(24 * time.Hour))
				return before, after
			},
			expected: ChangeUpdated,
		},
		{
			name: "same moment in a different zone is not a change",
			mutate: func(before, after *models.EventDoc) (*models.EventDoc, *models.EventDoc) {
				loc := time.FixedZone("CEST", 2*3600)
				after.Date = models.NewInstant(before.Date.In(loc))
				return before, after
			},
			expected: ChangeNone,
		},
		{
			name: "place changed",
			mutate: func(before, after *models.EventDoc) (*models.EventDoc, *models.EventDoc) {
				after.Place = "Hamburg"
				return before, after
			},
			expected: ChangeUpdated,
		},
		{
			name: "invitee added",
			mutate: func(before, after *models.EventDoc) (*models.EventDoc, *models.EventDoc) {
				after.Invitees = append(after.Invitees, "c@example.com")
				return before, after
			},
			expected: ChangeUpdated,
		},
		{
			name: "invitee removed",
			mutate: func(before, after *models.EventDoc) (*models.EventDoc, *models.EventDoc) {
				after.Invitees = after.Invitees[:1]
				return before, after
			},
			expected: ChangeUpdated,
		},
		{
			name: "invitees reordered with identical content",
			mutate: func(before, after *models.EventDoc) (*models.EventDoc, *models.EventDoc) {
				after.Invitees = []string{"b@example.com", "a@example.com"}
				return before, after
			},
			expected: ChangeUpdated,
		},
		{
			name: "image change alone is not notifiable",
			mutate: func(before, after *models.EventDoc) (*models.EventDoc, *models.EventDoc) {
				after.Image = "https://cdn.example.com/new.png"
				return before, after
			},
			expected: ChangeNone,
		},
		{
			name: "attendees amount change alone is not notifiable",
			mutate: func(before, after *models.EventDoc) (*models.EventDoc, *models.EventDoc) {
				after.AttendeesAmount = 42
				return before, after
			},
			expected: ChangeNone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before, after := tt.mutate(snapshot(), snapshot())
			assert.Equal(t, tt.expected, Classify(before, after))
		})
	}
}
