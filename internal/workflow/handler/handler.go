package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"collab-server/internal/apierrors"
	"collab-server/internal/observability"
	reviewprocessor "collab-server/internal/review/processor"
	"collab-server/internal/store"
	"collab-server/internal/workflow/processor"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ArtifactLister is the slice of the content layer the task detail view
// needs.
type ArtifactLister interface {
	ListDrafts(ctx context.Context, taskID uuid.UUID, role string) ([]store.ContentDraft, error)
	ListUploads(ctx context.Context, taskID uuid.UUID) ([]store.TaskUpload, error)
	ListPublished(ctx context.Context, taskID uuid.UUID) ([]store.PublishedContent, error)
}

// ConversationLister is the slice of the review layer the task detail view
// needs.
type ConversationLister interface {
	ListReviews(ctx context.Context, taskID uuid.UUID) ([]store.ContentReview, error)
	ListFeedback(ctx context.Context, taskID uuid.UUID, phase string) ([]store.TaskFeedback, error)
}

// Handler handles task workflow HTTP requests
type Handler struct {
	processor     *processor.WorkflowProcessor
	artifacts     ArtifactLister
	conversations ConversationLister
	logger        *observability.Logger
}

// New creates a new workflow handler
func New(workflowProcessor *processor.WorkflowProcessor, artifacts ArtifactLister,
	conversations ConversationLister, logger *observability.Logger) *Handler {
	return &Handler{
		processor:     workflowProcessor,
		artifacts:     artifacts,
		conversations: conversations,
		logger:        logger,
	}
}

// ShareRequirementsRequest represents the request body for sharing content
// requirements with a participant.
type ShareRequirementsRequest struct {
	ParticipantID string     `json:"participant_id" binding:"required,uuid"`
	Title         string     `json:"title" binding:"omitempty,max=200"`
	Requirements  string     `json:"requirements" binding:"required,min=1"`
	TaskType      string     `json:"task_type" binding:"required,oneof=post reel story video"`
	Deadline      *time.Time `json:"deadline"`
}

// HandleShareRequirements creates the task for a participant, seeds its
// workflow and shares the requirements draft.
func (h *Handler) HandleShareRequirements(c *gin.Context) {
	ctx := c.Request.Context()

	brandID, ok := requireRole(c, store.UserRoleBrand)
	if !ok {
		return
	}
	campaignID, err := uuid.Parse(c.Param("campaign_id"))
	if err != nil {
		apierrors.BadRequest(c, "INVALID_CAMPAIGN_ID", "Campaign ID must be a valid UUID")
		return
	}

	var req ShareRequirementsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.ValidationError(c, err)
		return
	}
	participantID, err := uuid.Parse(req.ParticipantID)
	if err != nil {
		apierrors.BadRequest(c, "INVALID_PARTICIPANT_ID", "participant_id must be a valid UUID")
		return
	}

	ctx = observability.WithFields(ctx,
		observability.Field{Key: "campaign_id", Value: campaignID.String()})

	result, err := h.processor.ShareRequirements(ctx, processor.ShareRequirementsParams{
		CampaignID:    campaignID,
		ParticipantID: participantID,
		Title:         req.Title,
		Requirements:  req.Requirements,
		TaskType:      req.TaskType,
		Deadline:      req.Deadline,
		BrandID:       brandID,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

// HandleListCampaignTasks lists tasks of a campaign visible to the caller
func (h *Handler) HandleListCampaignTasks(c *gin.Context) {
	ctx := c.Request.Context()

	userID, role, ok := getUser(c)
	if !ok {
		return
	}
	campaignID, err := uuid.Parse(c.Param("campaign_id"))
	if err != nil {
		apierrors.BadRequest(c, "INVALID_CAMPAIGN_ID", "Campaign ID must be a valid UUID")
		return
	}

	tasks, err := h.processor.ListCampaignTasks(ctx, campaignID, userID, role)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"tasks": tasks})
}

// HandleListMyTasks lists the authenticated influencer's tasks
func (h *Handler) HandleListMyTasks(c *gin.Context) {
	ctx := c.Request.Context()

	influencerID, ok := requireRole(c, store.UserRoleInfluencer)
	if !ok {
		return
	}

	tasks, err := h.processor.ListInfluencerTasks(ctx, influencerID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"tasks": tasks})
}

// HandleGetTask returns one task with its workflow states, the drafts
// visible to the caller, uploads, reviews, the feedback log and published
// content.
func (h *Handler) HandleGetTask(c *gin.Context) {
	ctx := c.Request.Context()

	userID, role, ok := getUser(c)
	if !ok {
		return
	}
	taskID, ok := getTaskID(c)
	if !ok {
		return
	}

	task, err := h.processor.GetTask(ctx, taskID, userID, role)
	if err != nil {
		h.handleError(c, err)
		return
	}
	states, err := h.processor.GetWorkflowStates(ctx, task.ID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	drafts, err := h.artifacts.ListDrafts(ctx, task.ID, role)
	if err != nil {
		h.handleError(c, err)
		return
	}
	uploads, err := h.artifacts.ListUploads(ctx, task.ID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	published, err := h.artifacts.ListPublished(ctx, task.ID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	reviews, err := h.conversations.ListReviews(ctx, task.ID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	feedback, err := h.conversations.ListFeedback(ctx, task.ID, "")
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"task":      task,
		"workflow":  states,
		"drafts":    drafts,
		"uploads":   uploads,
		"reviews":   reviews,
		"feedback":  feedback,
		"published": published,
	})
}

// HandleGetWorkflow returns the per-phase workflow states of a task
func (h *Handler) HandleGetWorkflow(c *gin.Context) {
	ctx := c.Request.Context()

	userID, role, ok := getUser(c)
	if !ok {
		return
	}
	taskID, ok := getTaskID(c)
	if !ok {
		return
	}

	if _, err := h.processor.GetTask(ctx, taskID, userID, role); err != nil {
		h.handleError(c, err)
		return
	}
	states, err := h.processor.GetWorkflowStates(ctx, taskID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"workflow": states})
}

// HandleGetVisibility returns the caller's per-phase visibility map
func (h *Handler) HandleGetVisibility(c *gin.Context) {
	ctx := c.Request.Context()

	userID, role, ok := getUser(c)
	if !ok {
		return
	}
	taskID, ok := getTaskID(c)
	if !ok {
		return
	}

	if _, err := h.processor.GetTask(ctx, taskID, userID, role); err != nil {
		h.handleError(c, err)
		return
	}
	visibility, err := h.processor.CheckPhaseVisibility(ctx, taskID, role)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"visibility": visibility})
}

// ReviewUploadRequest represents a brand decision on an upload
type ReviewUploadRequest struct {
	UploadID string `json:"upload_id" binding:"required,uuid"`
	Decision string `json:"decision" binding:"required,oneof=approved rejected"`
	Feedback string `json:"feedback"`
}

// HandleReviewUpload records a review decision on an upload. Approval
// completes the review phase and unlocks publishing.
func (h *Handler) HandleReviewUpload(c *gin.Context) {
	ctx := c.Request.Context()

	brandID, ok := requireRole(c, store.UserRoleBrand)
	if !ok {
		return
	}
	taskID, ok := getTaskID(c)
	if !ok {
		return
	}

	var req ReviewUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.ValidationError(c, err)
		return
	}
	uploadID, err := uuid.Parse(req.UploadID)
	if err != nil {
		apierrors.BadRequest(c, "INVALID_UPLOAD_ID", "upload_id must be a valid UUID")
		return
	}

	if _, err := h.processor.GetTask(ctx, taskID, brandID, store.UserRoleBrand); err != nil {
		h.handleError(c, err)
		return
	}

	review, err := h.processor.ReviewUpload(ctx, processor.ReviewUploadParams{
		TaskID:     taskID,
		UploadID:   uploadID,
		Decision:   req.Decision,
		Feedback:   req.Feedback,
		ReviewerID: brandID,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, review)
}

// PublishContentRequest represents an influencer publishing content live
type PublishContentRequest struct {
	Platform string  `json:"platform" binding:"required,oneof=instagram tiktok youtube twitter facebook"`
	URL      string  `json:"url" binding:"required,url"`
	Notes    *string `json:"notes"`
}

// HandlePublishContent records live content and completes the workflow
func (h *Handler) HandlePublishContent(c *gin.Context) {
	ctx := c.Request.Context()

	influencerID, ok := requireRole(c, store.UserRoleInfluencer)
	if !ok {
		return
	}
	taskID, ok := getTaskID(c)
	if !ok {
		return
	}

	var req PublishContentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.ValidationError(c, err)
		return
	}

	published, err := h.processor.PublishContent(ctx, processor.PublishContentParams{
		TaskID:       taskID,
		InfluencerID: influencerID,
		Platform:     req.Platform,
		URL:          req.URL,
		Notes:        req.Notes,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, published)
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, processor.ErrTaskNotFound):
		apierrors.NotFound(c, "Task not found")
	case errors.Is(err, processor.ErrCampaignNotFound):
		apierrors.NotFound(c, "Campaign not found")
	case errors.Is(err, processor.ErrParticipantNotFound):
		apierrors.NotFound(c, "Participant not found")
	case errors.Is(err, processor.ErrUploadNotFound):
		apierrors.NotFound(c, "Upload not found")
	case errors.Is(err, processor.ErrParticipantNotAccepted):
		apierrors.Conflict(c, "PARTICIPANT_NOT_ACCEPTED", "Participant has not accepted the campaign")
	case errors.Is(err, processor.ErrInvalidTransition):
		apierrors.UnprocessableEntity(c, "INVALID_TRANSITION", "The workflow does not allow this transition")
	case errors.Is(err, reviewprocessor.ErrMissingFeedback):
		apierrors.BadRequest(c, "MISSING_FEEDBACK", "A rejection requires feedback")
	case errors.Is(err, reviewprocessor.ErrInvalidDecision):
		apierrors.BadRequest(c, "INVALID_DECISION", "Decision must be approved or rejected")
	case errors.Is(err, processor.ErrPartialFailure):
		apierrors.ServiceUnavailable(c, "PARTIAL_FAILURE", "The operation partially completed, retry to finish it", err)
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
