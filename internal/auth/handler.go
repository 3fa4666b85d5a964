package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/eventmate/backend/internal/models"
	"github.com/eventmate/backend/internal/userconfig"
	"github.com/eventmate/backend/pkg/response"
	"github.com/eventmate/backend/pkg/utils"
)

// RegisterRequest is the body for POST /auth/register.
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	FullName string `json:"full_name" binding:"required"`
	Role     string `json:"role"` // optional, defaults to user
}

// LoginRequest is the body for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// TokenResponse is the auth response with JWT.
type TokenResponse struct {
	Token string            `json:"token"`
	User  models.UserPublic `json:"user"`
}

// Handler handles auth HTTP endpoints.
type Handler struct {
	repo       *Repository
	configRepo *userconfig.Repository
	jwt        *JWTService
	logger     *zap.Logger
}

// NewHandler creates an auth handler.
func NewHandler(repo *Repository, configRepo *userconfig.Repository, jwt *JWTService, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, configRepo: configRepo, jwt: jwt, logger: logger}
}

// Register handles POST /auth/register. Creates the account and its
// notification profile.
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	role := models.RoleUser
	if req.Role != "" {
		switch req.Role {
		case "admin":
			role = models.RoleAdmin
		case "user":
			role = models.RoleUser
		default:
			response.BadRequest(c, "invalid role")
			return
		}
	}

	email := models.NormalizeEmail(req.Email)
	if _, err := h.repo.GetByEmail(c.Request.Context(), email); err == nil {
		response.BadRequest(c, "email already registered")
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		response.Internal(c, "failed to hash password")
		return
	}

	user, err := h.repo.Create(c.Request.Context(), email, hash, req.FullName, role)
	if err != nil {
		response.Internal(c, "failed to create user")
		return
	}

	cfg := &models.UserConfiguration{
		Email:                user.Email,
		UserID:               user.ID,
		Role:                 user.Role,
		NotificationsEnabled: true,
	}
	if err := h.configRepo.Create(c.Request.Context(), cfg); err != nil {
		h.logger.Error("create user configuration", zap.Error(err), zap.String("email", user.Email))
	}

	token, err := h.jwt.Generate(user.ID, user.Email, string(user.Role))
	if err != nil {
		response.Internal(c, "failed to generate token")
		return
	}

	response.Created(c, TokenResponse{Token: token, User: user.ToPublic()})
}

// List handles GET /users (admin only).
func (h *Handler) List(c *gin.Context) {
	users, err := h.repo.List(c.Request.Context())
	if err != nil {
		response.Internal(c, "failed to list users")
		return
	}
	public := make([]models.UserPublic, 0, len(users))
	for i := range users {
		public = append(public, users[i].ToPublic())
	}
	response.OK(c, public)
}

// Login handles POST /auth/login.
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	user, err := h.repo.GetByEmail(c.Request.Context(), models.NormalizeEmail(req.Email))
	if err != nil {
		response.Unauthorized(c, "invalid email or password")
		return
	}

	if !utils.CheckPassword(req.Password, user.Password) {
		response.Unauthorized(c, "invalid email or password")
		return
	}

	token, err := h.jwt.Generate(user.ID, user.Email, string(user.Role))
	if err != nil {
		response.Internal(c, "failed to generate token")
		return
	}

	c.JSON(http.StatusOK, response.Body{Success: true, Data: TokenResponse{Token: token, User: user.ToPublic()}})
}
