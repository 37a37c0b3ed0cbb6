package handler

import (
	"errors"
	"net/http"
	"strings"

	"collab-server/internal/apierrors"
	"collab-server/internal/auth/processor"
	"collab-server/internal/observability"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Handler handles authentication HTTP requests
type Handler struct {
	processor *processor.AuthProcessor
	logger    *observability.Logger
}

// New creates a new auth handler
func New(authProcessor *processor.AuthProcessor, logger *observability.Logger) *Handler {
	return &Handler{
		processor: authProcessor,
		logger:    logger,
	}
}

// SignupRequest represents the request body for account creation
type SignupRequest struct {
	Email           string  `json:"email" binding:"required,email"`
	Password        string  `json:"password" binding:"required,min=8"`
	Name            string  `json:"name" binding:"required,min=1,max=200"`
	Role            string  `json:"role" binding:"required,oneof=brand influencer"`
	PrimaryPlatform *string `json:"primary_platform" binding:"omitempty,oneof=instagram tiktok youtube twitter facebook"`
	Category        *string `json:"category"`
	FollowerCount   *int    `json:"follower_count" binding:"omitempty,gte=0"`
}

// HandleSignup creates a brand or influencer account
func (h *Handler) HandleSignup(c *gin.Context) {
	ctx := c.Request.Context()

	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.ValidationError(c, err)
		return
	}

	user, err := h.processor.Signup(ctx, processor.SignupParams{
		Email:           req.Email,
		Password:        req.Password,
		Name:            req.Name,
		Role:            req.Role,
		PrimaryPlatform: req.PrimaryPlatform,
		Category:        req.Category,
		FollowerCount:   req.FollowerCount,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, user)
}

// LoginRequest represents the request body for logging in
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

// HandleLogin verifies credentials and returns a JWT
func (h *Handler) HandleLogin(c *gin.Context) {
	ctx := c.Request.Context()

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.ValidationError(c, err)
		return
	}

	token, err := h.processor.Login(ctx, req.Email, req.Password)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}

// HandleJWTMiddleware authenticates protected routes. On success the user ID
// and role from the token are attached to the gin context.
func (h *Handler) HandleJWTMiddleware(c *gin.Context) {
	ctx := c.Request.Context()

	tokenHeader := c.GetHeader("Authorization")
	if tokenHeader == "" || !strings.HasPrefix(tokenHeader, "Bearer ") {
		apierrors.Unauthorized(c, "Authorization token is missing or invalid")
		c.Abort()
		return
	}
	tokenString := strings.TrimPrefix(tokenHeader, "Bearer ")

	claims, err := h.processor.ValidateJWTToken(ctx, tokenString)
	if err != nil {
		apierrors.Unauthorized(c, "Authorization token is invalid or expired")
		c.Abort()
		return
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		apierrors.Unauthorized(c, "Authorization token is missing its subject")
		c.Abort()
		return
	}

	c.Set("User-ID", sub)
	c.Set("User-Role", claims.Role)
	c.Next()
}

// HandleGetUser returns the authenticated user's account
func (h *Handler) HandleGetUser(c *gin.Context) {
	ctx := c.Request.Context()

	rawID, exists := c.Get("User-ID")
	if !exists {
		apierrors.Unauthorized(c, "User ID not found in request context")
		return
	}
	idStr, ok := rawID.(string)
	if !ok {
		apierrors.Unauthorized(c, "User ID has an unexpected type")
		return
	}
	userID, err := uuid.Parse(idStr)
	if err != nil {
		apierrors.BadRequest(c, "INVALID_USER_ID", "User ID must be a valid UUID")
		return
	}

	user, err := h.processor.GetUserByID(ctx, userID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, processor.ErrEmailAlreadyExists):
		apierrors.Conflict(c, "EMAIL_EXISTS", "An account with this email already exists")
	case errors.Is(err, processor.ErrInvalidCredentials):
		apierrors.Unauthorized(c, "Invalid email or password")
	case errors.Is(err, processor.ErrInvalidRole):
		apierrors.BadRequest(c, "INVALID_ROLE", "Role must be brand or influencer")
	case errors.Is(err, processor.ErrUserNotFound):
		apierrors.NotFound(c, "User not found")
	default:
		apierrors.InternalError(c, err)
	}
}
