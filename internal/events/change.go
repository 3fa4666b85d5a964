package events

import (
	"github.com/eventmate/backend/internal/models"
)

// Change classifies a write to an event document.
type Change string

const (
	// ChangeNone means nothing worth notifying happened (including pure creation).
	ChangeNone Change = ""
	// ChangeUpdated means a significant field changed on an existing event.
	ChangeUpdated Change = "updated"
	// ChangeCancelled means the document disappeared after having existed.
	ChangeCancelled Change = "cancelled"
)

// Classify compares the before/after snapshots of a single write and
// reports what kind of change occurred. Pure: no I/O, never fails.
//
// Significant fields are title, description, date (compared by resolved
// instant), place and the invitee list. The invitee comparison is
// position-sensitive: a reorder with identical content reports updated.
func Classify(before, after *models.EventDoc) Change {
	if after == nil && before != nil {
		return ChangeCancelled
	}
	if before == nil || after == nil {
		// Pure creation (or an empty write): creation alone does not
		// trigger notification fan-out.
		return ChangeNone
	}

	if before.Title != after.Title ||
		before.Description != after.Description ||
		!before.Date.Equal(after.Date) ||
		before.Place != after.Place ||
		inviteesChanged(before.Invitees, after.Invitees) {
		return ChangeUpdated
	}
	return ChangeNone
}

func inviteesChanged(before, after []string) bool {
	if len(before) != len(after) {
		return true
	}
	for i := range before {
		if before[i] != after[i] {
			return true
		}
	}
	return false
}
