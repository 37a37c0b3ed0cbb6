package handler

import (
	"context"
	"errors"
	"net/http"

	"collab-server/internal/apierrors"
	"collab-server/internal/content/processor"
	"collab-server/internal/observability"
	"collab-server/internal/store"
	workflowprocessor "collab-server/internal/workflow/processor"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// TaskAccess answers whether the caller may act on a task. Callers outside
// the task's campaign get a not found.
type TaskAccess interface {
	GetTask(ctx context.Context, taskID, callerID uuid.UUID, role string) (store.Task, error)
}

// Handler handles content artifact HTTP requests: requirement drafts,
// uploads, published content and analytics.
type Handler struct {
	processor *processor.ContentProcessor
	tasks     TaskAccess
	logger    *observability.Logger
}

// New creates a new content handler
func New(contentProcessor *processor.ContentProcessor, tasks TaskAccess, logger *observability.Logger) *Handler {
	return &Handler{
		processor: contentProcessor,
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

// CreateDraftRequest represents the request body for authoring a draft.
// When generate is true the content is produced by the AI assistant and
// content may be omitted.
type CreateDraftRequest struct {
	Content  string `json:"content"`
	Generate bool   `json:"generate"`
	Notes    string `json:"notes"`
}

// HandleCreateDraft authors a requirements draft for a task
func (h *Handler) HandleCreateDraft(c *gin.Context) {
	ctx := c.Request.Context()

	brandID, ok := requireRole(c, store.UserRoleBrand)
	if !ok {
		return
	}
	taskID, ok := getTaskID(c)
	if !ok {
		return
	}
	if !h.authorizeTask(c, taskID, brandID, store.UserRoleBrand) {
		return
	}

	var req CreateDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.ValidationError(c, err)
		return
	}

	var draft store.ContentDraft
	var err error
	if req.Generate {
		draft, err = h.processor.GenerateDraft(ctx, taskID, brandID, req.Notes)
	} else {
		draft, err = h.processor.CreateDraft(ctx, processor.CreateDraftParams{
			TaskID:      taskID,
			Content:     req.Content,
			AuthorID:    brandID,
			BrandEdited: true,
		})
	}
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, draft)
}

// HandleListDrafts lists a task's drafts visible to the caller's role
func (h *Handler) HandleListDrafts(c *gin.Context) {
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

	drafts, err := h.processor.ListDrafts(ctx, taskID, role)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"drafts": drafts})
}

// HandleShareDraft shares a draft with the influencer and seeds workflow
// phases for the task.
func (h *Handler) HandleShareDraft(c *gin.Context) {
	ctx := c.Request.Context()

	brandID, ok := requireRole(c, store.UserRoleBrand)
	if !ok {
		return
	}
	draftID, err := uuid.Parse(c.Param("draft_id"))
	if err != nil {
		apierrors.BadRequest(c, "INVALID_DRAFT_ID", "Draft ID must be a valid UUID")
		return
	}

	existing, err := h.processor.GetDraft(ctx, draftID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	if !h.authorizeTask(c, existing.TaskID, brandID, store.UserRoleBrand) {
		return
	}

	draft, err := h.processor.ShareDraft(ctx, draftID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, draft)
}

// HandleRecordUpload accepts a multipart content submission from the
// influencer. The first upload moves the task into review.
func (h *Handler) HandleRecordUpload(c *gin.Context) {
	ctx := c.Request.Context()

	influencerID, ok := requireRole(c, store.UserRoleInfluencer)
	if !ok {
		return
	}
	taskID, ok := getTaskID(c)
	if !ok {
		return
	}
	if !h.authorizeTask(c, taskID, influencerID, store.UserRoleInfluencer) {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		apierrors.BadRequest(c, "MISSING_FILE", "A file form field is required")
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		apierrors.BadRequest(c, "UNREADABLE_FILE", "The uploaded file could not be read")
		return
	}
	defer file.Close()

	params := processor.RecordUploadParams{
		TaskID:     taskID,
		UploaderID: influencerID,
		FileName:   fileHeader.Filename,
		MimeType:   fileHeader.Header.Get("Content-Type"),
		Contents:   file,
	}
	if caption := c.PostForm("caption"); caption != "" {
		params.Caption = &caption
	}
	if hashtags := c.PostForm("hashtags"); hashtags != "" {
		params.Hashtags = &hashtags
	}

	upload, err := h.processor.RecordUpload(ctx, params)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, upload)
}

// HandleListUploads lists a task's uploads, newest first
func (h *Handler) HandleListUploads(c *gin.Context) {
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

	uploads, err := h.processor.ListUploads(ctx, taskID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"uploads": uploads})
}

// HandleListPublished lists a task's publish history with analytics
func (h *Handler) HandleListPublished(c *gin.Context) {
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

	published, err := h.processor.ListPublished(ctx, taskID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"published": published})
}

// UpsertAnalyticsRequest represents raw platform metrics for one published
// content item.
type UpsertAnalyticsRequest struct {
	Impressions int64 `json:"impressions" binding:"gte=0"`
	Likes       int64 `json:"likes" binding:"gte=0"`
	Comments    int64 `json:"comments" binding:"gte=0"`
	Shares      int64 `json:"shares" binding:"gte=0"`
	Reach       int64 `json:"reach" binding:"gte=0"`
	Clicks      int64 `json:"clicks" binding:"gte=0"`
	Saves       int64 `json:"saves" binding:"gte=0"`
}

// HandleUpsertAnalytics writes the analytics row for a published content
func (h *Handler) HandleUpsertAnalytics(c *gin.Context) {
	ctx := c.Request.Context()

	userID, role, ok := getUser(c)
	if !ok {
		return
	}
	publishedID, err := uuid.Parse(c.Param("published_id"))
	if err != nil {
		apierrors.BadRequest(c, "INVALID_PUBLISHED_ID", "Published content ID must be a valid UUID")
		return
	}

	published, err := h.processor.GetPublished(ctx, publishedID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	if !h.authorizeTask(c, published.TaskID, userID, role) {
		return
	}

	var req UpsertAnalyticsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.ValidationError(c, err)
		return
	}

	analytics, err := h.processor.UpsertAnalytics(ctx, publishedID, processor.AnalyticsMetrics{
		Impressions: req.Impressions,
		Likes:       req.Likes,
		Comments:    req.Comments,
		Shares:      req.Shares,
		Reach:       req.Reach,
		Clicks:      req.Clicks,
		Saves:       req.Saves,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, analytics)
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, processor.ErrTaskNotFound), errors.Is(err, workflowprocessor.ErrTaskNotFound):
		apierrors.NotFound(c, "Task not found")
	case errors.Is(err, processor.ErrDraftNotFound):
		apierrors.NotFound(c, "Draft not found")
	case errors.Is(err, processor.ErrPublishedNotFound):
		apierrors.NotFound(c, "Published content not found")
	case errors.Is(err, processor.ErrEmptyDraft):
		apierrors.BadRequest(c, "EMPTY_DRAFT", "Draft content must not be empty")
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

func requireRole(c *gin.Context, role string) (uuid.UUID, bool) {
	userID, userRole, ok := getUser(c)
	if !ok {
		return uuid.UUID{}, false
	}
	if userRole != role {
		apierrors.Forbidden(c, "FORBIDDEN_ROLE", "This operation requires the "+role+" role")
		return uuid.UUID{}, false
	}
	return userID, true
}

func getTaskID(c *gin.Context) (uuid.UUID, bool) {
	taskID, err := uuid.Parse(c.Param("task_id"))
	if err != nil {
		apierrors.BadRequest(c, "INVALID_TASK_ID", "Task ID must be a valid UUID")
		return uuid.UUID{}, false
	}
	return taskID, true
}
