package handler

import (
	"context"
	"errors"
	"net/http"

	"collab-server/internal/apierrors"
	"collab-server/internal/observability"
	"collab-server/internal/review/processor"
	"collab-server/internal/store"
	workflowprocessor "collab-server/internal/workflow/processor"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// TaskAccess answers whether the caller may act on a task. Callers outside
// the task's campaign get a not found.
type TaskAccess interface {
	GetTask(ctx context.Context, taskID, callerID uuid.UUID, role string) (store.Task, error)
}

// Handler handles review and feedback HTTP requests
type Handler struct {
	processor *processor.ReviewProcessor
	tasks     TaskAccess
	logger    *observability.Logger
}

// New creates a new review handler
func New(reviewProcessor *processor.ReviewProcessor, tasks TaskAccess, logger *observability.Logger) *Handler {
	return &Handler{
		processor: reviewProcessor,
		tasks:     tasks,
		logger:    logger,
	}
}

// authorizeTask rejects callers who may not see the task. It writes the
// error response itself so handlers can bail out on false.
func (h *Handler) authorizeTask(c *gin.Context, taskID, userID uuid.UUID, role string) bool {
	if _, err := h.tasks.GetTask(c.Request.Context(), taskID, userID, role); err != nil {
		h.handleError(c, err)
		return false
	}
	return true
}

// upgrader is a shared WebSocket upgrader
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// HandleGetUploadReview returns the effective review for an upload. When an
// upload was reviewed more than once the latest decision wins.
func (h *Handler) HandleGetUploadReview(c *gin.Context) {
	ctx := c.Request.Context()

	userID, role, ok := getUser(c)
	if !ok {
		return
	}
	uploadID, err := uuid.Parse(c.Param("upload_id"))
	if err != nil {
		apierrors.BadRequest(c, "INVALID_UPLOAD_ID", "Upload ID must be a valid UUID")
		return
	}

	review, err := h.processor.GetReviewForUpload(ctx, uploadID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	if !h.authorizeTask(c, review.TaskID, userID, role) {
		return
	}

	c.JSON(http.StatusOK, review)
}

// SendFeedbackRequest represents one feedback message in a phase conversation
type SendFeedbackRequest struct {
	Phase   string `json:"phase" binding:"required,oneof=content_requirement content_review publish_analytics"`
	Message string `json:"message" binding:"required,min=1,max=4000"`
}

// HandleSendFeedback appends a message to a task's phase conversation
func (h *Handler) HandleSendFeedback(c *gin.Context) {
	ctx := c.Request.Context()

	userID, role, ok := getUser(c)
	if !ok {
		return
	}
	taskID, ok := getTaskID(c)
	if !ok {
		return
	}
	if !h.authorizeTask(c, taskID, userID, role) {
		return
	}

	var req SendFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.ValidationError(c, err)
		return
	}

	feedback, err := h.processor.SendFeedback(ctx, processor.SendFeedbackParams{
		TaskID:     taskID,
		SenderID:   userID,
		SenderType: role,
		Phase:      req.Phase,
		Message:    req.Message,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, feedback)
}

// HandleListFeedback lists a task's feedback, optionally filtered by phase
func (h *Handler) HandleListFeedback(c *gin.Context) {
	ctx := c.Request.Context()

	userID, role, ok := getUser(c)
	if !ok {
		return
	}
	taskID, ok := getTaskID(c)
	if !ok {
		return
	}
	if !h.authorizeTask(c, taskID, userID, role) {
		return
	}

	phase := c.Query("phase")
	if phase != "" && store.PhaseIndex(phase) < 0 {
		apierrors.BadRequest(c, "INVALID_PHASE", "Unknown workflow phase")
		return
	}

	feedback, err := h.processor.ListFeedback(ctx, taskID, phase)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"feedback": feedback})
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, processor.ErrTaskNotFound), errors.Is(err, workflowprocessor.ErrTaskNotFound):
		apierrors.NotFound(c, "Task not found")
	case errors.Is(err, processor.ErrUploadNotFound):
		apierrors.NotFound(c, "Upload not found")
	case errors.Is(err, processor.ErrReviewNotFound):
		apierrors.NotFound(c, "No review exists for this upload")
	case errors.Is(err, processor.ErrMissingFeedback):
		apierrors.BadRequest(c, "MISSING_FEEDBACK", "A rejection requires feedback")
	case errors.Is(err, processor.ErrInvalidDecision):
		apierrors.BadRequest(c, "INVALID_DECISION", "Decision must be approved or rejected")
	case errors.Is(err, processor.ErrInvalidFeedback):
		apierrors.BadRequest(c, "INVALID_FEEDBACK", "Feedback message or sender is invalid")
	default:
		apierrors.InternalError(c, err)
	}
}

func getUser(c *gin.Context) (uuid.UUID, string, bool) {
	rawID, exists := c.Get("User-ID")
	if !exists {
		apierrors.Unauthorized(c, "User ID not found in request context")
		return uuid.UUID{}, "", false
	}
	idStr, ok := rawID.(string)
	if !ok {
		apierrors.Unauthorized(c, "User ID has an unexpected type")
		return uuid.UUID{}, "", false
	}
	userID, err := uuid.Parse(idStr)
	if err != nil {
		apierrors.BadRequest(c, "INVALID_USER_ID", "User ID must be a valid UUID")
		return uuid.UUID{}, "", false
	}

	rawRole, exists := c.Get("User-Role")
	if !exists {
		apierrors.Unauthorized(c, "User role not found in request context")
		return uuid.UUID{}, "", false
	}
	role, ok := rawRole.(string)
	if !ok {
		apierrors.Unauthorized(c, "User role has an unexpected type")
		return uuid.UUID{}, "", false
	}
	return userID, role, true
}

func getTaskID(c *gin.Context) (uuid.UUID, bool) {
	taskID, err := uuid.Parse(c.Param("task_id"))
	if err != nil {
		apierrors.BadRequest(c, "INVALID_TASK_ID", "Task ID must be a valid UUID")
		return uuid.UUID{}, false
	}
	return taskID, true
}
