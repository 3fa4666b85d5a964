package emaillog

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/eventmate/backend/internal/events"
	"github.com/eventmate/backend/internal/middleware"
	"github.com/eventmate/backend/pkg/response"
)

// Handler exposes email delivery history for an event.
type Handler struct {
	repo      *Repository
	eventRepo *events.Repository
}

// NewHandler creates an email log handler.
func NewHandler(repo *Repository, eventRepo *events.Repository) *Handler {
	return &Handler{repo: repo, eventRepo: eventRepo}
}

// ListByEvent handles GET /events/:id/emails (owner only).
func (h *Handler) ListByEvent(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)

	event, err := h.eventRepo.GetByID(c.Request.Context(), id)
	if err != nil {
		response.NotFound(c, "event not found")
		return
	}
	if event.OwnerID != userID {
		response.Forbidden(c, "only the owner can view email history")
		return
	}

	list, err := h.repo.ListByEvent(c.Request.Context(), id)
	if err != nil {
		response.Internal(c, "failed to list email logs")
		return
	}
	response.OK(c, list)
}
