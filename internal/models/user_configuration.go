package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// MinDeviceTokenLength is the shortest device token accepted for push
// delivery; anything shorter is treated as malformed and skipped.
const MinDeviceTokenLength = 20

// UserConfiguration is a registered account's notification profile, looked
// up by email during audience resolution.
type UserConfiguration struct {
	ID                   uuid.UUID `json:"id"`
	Email                string    `json:"email"`
	UserID               uuid.UUID `json:"user_id"`
	Role                 Role      `json:"role"`
	NotificationsEnabled bool      `json:"notifications_enabled"`
	DeviceToken          string    `json:"device_token,omitempty"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// HasValidDeviceToken reports whether the profile carries a token usable
// for push delivery.
func (c *UserConfiguration) HasValidDeviceToken() bool {
	return len(strings.TrimSpace(c.DeviceToken)) >= MinDeviceTokenLength
}
