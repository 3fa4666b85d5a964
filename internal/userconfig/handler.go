package userconfig

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/eventmate/backend/pkg/response"
)

// Handler handles notification settings HTTP endpoints.
type Handler struct {
	repo *Repository
}

// NewHandler creates a user configuration handler.
func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

// Get handles GET /settings/notifications.
func (h *Handler) Get(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)
	cfg, err := h.repo.GetByUserID(c.Request.Context(), userID)
	if err != nil {
		response.NotFound(c, "notification settings not found")
		return
	}
	response.OK(c, cfg)
}

// UpdateRequest is the body for PUT /settings/notifications.
type UpdateRequest struct {
	NotificationsEnabled *bool   `json:"notifications_enabled"`
	DeviceToken          *string `json:"device_token"`
}

// Update handles PUT /settings/notifications. Mutates the notification
// flag and/or device token for the caller's account.
func (h *Handler) Update(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if req.NotificationsEnabled == nil && req.DeviceToken == nil {
		response.BadRequest(c, "nothing to update")
		return
	}
	cfg, err := h.repo.UpdateSettings(c.Request.Context(), userID, req.NotificationsEnabled, req.DeviceToken)
	if err != nil {
		response.Internal(c, "failed to update settings")
		return
	}
	response.OK(c, cfg)
}
