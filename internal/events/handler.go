package events

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eventmate/backend/internal/auth"
	"github.com/eventmate/backend/internal/middleware"
	"github.com/eventmate/backend/internal/models"
	"github.com/eventmate/backend/pkg/queue"
	"github.com/eventmate/backend/pkg/response"
	"github.com/eventmate/backend/pkg/storage"
)

// CreateRequest is the body for POST /events.
type CreateRequest struct {
	Title       string   `json:"title" binding:"required"`
	Description string   `json:"description"`
	StartsAt    string   `json:"starts_at" binding:"required"`
	ImageURL    string   `json:"image_url"`
	Category    string   `json:"category"`
	Invitees    []string `json:"invitees"`
	Place       string   `json:"place"`
}

// UpdateRequest is the body for PATCH /events/:id.
type UpdateRequest struct {
	Title           *string  `json:"title"`
	Description     *string  `json:"description"`
	StartsAt        *string  `json:"starts_at"`
	ImageURL        *string  `json:"image_url"`
	Category        *string  `json:"category"`
	AttendeesAmount *int     `json:"attendees_amount"`
	Invitees        []string `json:"invitees"`
	Place           *string  `json:"place"`
}

// Handler handles event HTTP endpoints. Every successful write enqueues a
// change job carrying the before/after snapshots; the fan-out pipeline
// picks it up asynchronously.
type Handler struct {
	repo     *Repository
	userRepo *auth.Repository
	queue    *queue.Queue
	s3       *storage.S3
	logger   *zap.Logger
}

// NewHandler creates an events handler. s3 may be nil when image uploads
// are not configured.
func NewHandler(repo *Repository, userRepo *auth.Repository, q *queue.Queue, s3 *storage.S3, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, userRepo: userRepo, queue: q, s3: s3, logger: logger}
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}

func normalizeInvitees(raw []string) []string {
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, e := range raw {
		n := models.NormalizeEmail(e)
		if n == "" {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

// publishChange enqueues the before/after snapshots of a write. The trigger
// is fire-and-forget: enqueue failures are logged, never surfaced.
func (h *Handler) publishChange(c *gin.Context, eventID string, before, after *models.EventDoc) {
	err := h.queue.EnqueueEventChange(c.Request.Context(), queue.EventChangePayload{
		EventID: eventID,
		Before:  before,
		After:   after,
	})
	if err != nil {
		h.logger.Error("enqueue event change", zap.Error(err), zap.String("event_id", eventID))
	}
}

// Create handles POST /events.
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	startsAt, err := parseTime(req.StartsAt)
	if err != nil {
		response.BadRequest(c, "invalid starts_at")
		return
	}

	ownerID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	owner, err := h.userRepo.GetByID(c.Request.Context(), ownerID)
	if err != nil {
		response.Internal(c, "failed to load owner")
		return
	}

	e := &models.Event{
		Title:       req.Title,
		Description: req.Description,
		StartsAt:    startsAt,
		ImageURL:    req.ImageURL,
		Category:    req.Category,
		OwnerID:     ownerID,
		OwnerName:   owner.FullName,
		Invitees:    normalizeInvitees(req.Invitees),
		Place:       req.Place,
	}
	if err := h.repo.Create(c.Request.Context(), e); err != nil {
		response.Internal(c, "failed to create event")
		return
	}

	h.publishChange(c, e.ID.String(), nil, e.Doc())
	response.Created(c, e)
}

// GetByID handles GET /events/:id.
func (h *Handler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	e, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		response.NotFound(c, "event not found")
		return
	}
	response.OK(c, e)
}

// List handles GET /events. Returns events the caller owns or is invited to.
func (h *Handler) List(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	email, _ := c.MustGet(middleware.ContextUserEmail).(string)
	list, err := h.repo.List(c.Request.Context(), userID, models.NormalizeEmail(email))
	if err != nil {
		response.Internal(c, "failed to list events")
		return
	}
	response.OK(c, list)
}

// Update handles PATCH /events/:id (owner only).
func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)

	before, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		response.NotFound(c, "event not found")
		return
	}
	if before.OwnerID != userID {
		response.Forbidden(c, "only the owner can update this event")
		return
	}

	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request")
		return
	}

	p := UpdateParams{
		Title:           req.Title,
		Description:     req.Description,
		ImageURL:        req.ImageURL,
		Category:        req.Category,
		AttendeesAmount: req.AttendeesAmount,
		Place:           req.Place,
	}
	if req.StartsAt != nil {
		t, err := parseTime(*req.StartsAt)
		if err != nil {
			response.BadRequest(c, "invalid starts_at")
			return
		}
		p.StartsAt = &t
	}
	if req.Invitees != nil {
		p.Invitees = normalizeInvitees(req.Invitees)
	}

	after, err := h.repo.Update(c.Request.Context(), id, p)
	if err != nil {
		response.Internal(c, "failed to update event")
		return
	}

	h.publishChange(c, id.String(), before.Doc(), after.Doc())
	response.OK(c, after)
}

// Delete handles DELETE /events/:id (owner only). Deletion signals
// cancellation to the fan-out pipeline.
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)

	before, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		response.NotFound(c, "event not found")
		return
	}
	if before.OwnerID != userID {
		response.Forbidden(c, "only the owner can delete this event")
		return
	}

	if err := h.repo.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "event not found")
			return
		}
		response.Internal(c, "failed to delete event")
		return
	}

	h.publishChange(c, id.String(), before.Doc(), nil)
	response.NoContent(c)
}

// ImageUploadURLRequest is the body for POST /events/:id/image-upload-url.
type ImageUploadURLRequest struct {
	Filename    string `json:"filename" binding:"required"`
	ContentType string `json:"content_type"`
}

// GenerateImageUploadURL handles POST /events/:id/image-upload-url (owner
// only). Returns a pre-signed PUT URL for direct image upload to S3.
func (h *Handler) GenerateImageUploadURL(c *gin.Context) {
	if h.s3 == nil {
		response.Internal(c, "image storage not configured")
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	e, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		response.NotFound(c, "event not found")
		return
	}
	if e.OwnerID != userID {
		response.Forbidden(c, "only the owner can upload an image")
		return
	}

	var req ImageUploadURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if !storage.ValidateImageFileType(req.ContentType, req.Filename) {
		response.BadRequest(c, "unsupported image type")
		return
	}

	key := storage.ImageKey(id.String(), req.Filename)
	url, err := h.s3.GeneratePresignedUploadURL(c.Request.Context(), key, req.ContentType, h.s3.PresignExpire())
	if err != nil {
		h.logger.Error("presign image upload", zap.Error(err), zap.String("event_id", id.String()))
		response.Internal(c, "failed to generate upload url")
		return
	}
	response.OK(c, gin.H{
		"upload_url": url,
		"image_url":  h.s3.PublicObjectURL(key),
	})
}
