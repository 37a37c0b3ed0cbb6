package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"collab-server/internal/apierrors"
	"collab-server/internal/campaign/processor"
	"collab-server/internal/observability"
	"collab-server/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Handler handles campaign and participant HTTP requests
type Handler struct {
	processor *processor.CampaignProcessor
	logger    *observability.Logger
}

// New creates a new campaign handler
func New(campaignProcessor *processor.CampaignProcessor, logger *observability.Logger) *Handler {
	return &Handler{
		processor: campaignProcessor,
		logger:    logger,
	}
}

// CreateCampaignRequest represents the request body for creating a campaign
type CreateCampaignRequest struct {
	Name        string     `json:"name" binding:"required,min=1,max=200"`
	Description *string    `json:"description"`
	BudgetCents *int       `json:"budget_cents" binding:"omitempty,gte=0"`
	Platforms   []string   `json:"platforms" binding:"omitempty,dive,oneof=instagram tiktok youtube twitter facebook"`
	StartDate   *time.Time `json:"start_date"`
	EndDate     *time.Time `json:"end_date"`
}

// HandleCreateCampaign creates a new campaign for the authenticated brand
func (h *Handler) HandleCreateCampaign(c *gin.Context) {
	ctx := c.Request.Context()

	brandID, ok := requireRole(c, store.UserRoleBrand)
	if !ok {
		return
	}

	var req CreateCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.ValidationError(c, err)
		return
	}

	campaign, err := h.processor.CreateCampaign(ctx, brandID, processor.CreateCampaignParams{
		Name:        req.Name,
		Description: req.Description,
		BudgetCents: req.BudgetCents,
		Platforms:   req.Platforms,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, campaign)
}

// HandleListCampaigns lists the authenticated brand's campaigns
func (h *Handler) HandleListCampaigns(c *gin.Context) {
	ctx := c.Request.Context()

	brandID, ok := requireRole(c, store.UserRoleBrand)
	if !ok {
		return
	}

	campaigns, err := h.processor.ListCampaigns(ctx, brandID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"campaigns": campaigns})
}

// HandleGetCampaign returns one campaign visible to the caller
func (h *Handler) HandleGetCampaign(c *gin.Context) {
	ctx := c.Request.Context()

	userID, role, ok := getUser(c)
	if !ok {
		return
	}
	campaignID, ok := getCampaignID(c)
	if !ok {
		return
	}

	campaign, err := h.processor.GetCampaign(ctx, userID, role, campaignID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, campaign)
}

// UpdateCampaignStatusRequest represents the request body for a status change
type UpdateCampaignStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=draft active paused completed"`
}

// HandleUpdateCampaignStatus moves a campaign through its lifecycle
func (h *Handler) HandleUpdateCampaignStatus(c *gin.Context) {
	ctx := c.Request.Context()

	brandID, ok := requireRole(c, store.UserRoleBrand)
	if !ok {
		return
	}
	campaignID, ok := getCampaignID(c)
	if !ok {
		return
	}

	var req UpdateCampaignStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.ValidationError(c, err)
		return
	}

	campaign, err := h.processor.UpdateCampaignStatus(ctx, brandID, campaignID, req.Status)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, campaign)
}

// HandleDeleteCampaign soft deletes a campaign
func (h *Handler) HandleDeleteCampaign(c *gin.Context) {
	ctx := c.Request.Context()

	brandID, ok := requireRole(c, store.UserRoleBrand)
	if !ok {
		return
	}
	campaignID, ok := getCampaignID(c)
	if !ok {
		return
	}

	if err := h.processor.DeleteCampaign(ctx, brandID, campaignID); err != nil {
		h.handleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// HandleGenerateStrategy generates and persists an AI strategy for a campaign
func (h *Handler) HandleGenerateStrategy(c *gin.Context) {
	ctx := c.Request.Context()

	brandID, ok := requireRole(c, store.UserRoleBrand)
	if !ok {
		return
	}
	campaignID, ok := getCampaignID(c)
	if !ok {
		return
	}

	ctx = observability.WithFields(ctx, observability.Field{Key: "campaign_id", Value: campaignID.String()})

	campaign, err := h.processor.GenerateStrategy(ctx, brandID, campaignID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, campaign)
}

// InviteParticipantRequest represents the request body for a brand invitation
type InviteParticipantRequest struct {
	InfluencerID string `json:"influencer_id" binding:"required,uuid"`
}

// HandleAddParticipant adds a participant to a campaign. Brands invite a
// named influencer; influencers apply for themselves.
func (h *Handler) HandleAddParticipant(c *gin.Context) {
	ctx := c.Request.Context()

	userID, role, ok := getUser(c)
	if !ok {
		return
	}
	campaignID, ok := getCampaignID(c)
	if !ok {
		return
	}

	var participant store.CampaignParticipant
	var err error
	switch role {
	case store.UserRoleBrand:
		var req InviteParticipantRequest
		if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
			apierrors.ValidationError(c, bindErr)
			return
		}
		influencerID, parseErr := uuid.Parse(req.InfluencerID)
		if parseErr != nil {
			apierrors.BadRequest(c, "INVALID_INFLUENCER_ID", "influencer_id must be a valid UUID")
			return
		}
		participant, err = h.processor.InviteParticipant(ctx, userID, campaignID, influencerID)
	case store.UserRoleInfluencer:
		participant, err = h.processor.ApplyToCampaign(ctx, userID, campaignID)
	default:
		apierrors.Forbidden(c, "INVALID_ROLE", "Unknown user role")
		return
	}
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, participant)
}

// HandleListParticipants lists participants of a brand's campaign
func (h *Handler) HandleListParticipants(c *gin.Context) {
	ctx := c.Request.Context()

	brandID, ok := requireRole(c, store.UserRoleBrand)
	if !ok {
		return
	}
	campaignID, ok := getCampaignID(c)
	if !ok {
		return
	}

	participants, err := h.processor.ListParticipants(ctx, brandID, campaignID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"participants": participants})
}

// DecideParticipantRequest represents the request body for a brand decision
type DecideParticipantRequest struct {
	Accept *bool `json:"accept" binding:"required"`
}

// HandleDecideParticipant accepts or declines a pending participant
func (h *Handler) HandleDecideParticipant(c *gin.Context) {
	ctx := c.Request.Context()

	brandID, ok := requireRole(c, store.UserRoleBrand)
	if !ok {
		return
	}

	participantID, err := uuid.Parse(c.Param("participant_id"))
	if err != nil {
		apierrors.BadRequest(c, "INVALID_PARTICIPANT_ID", "Participant ID must be a valid UUID")
		return
	}

	var req DecideParticipantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.ValidationError(c, err)
		return
	}

	participant, err := h.processor.DecideParticipant(ctx, brandID, participantID, *req.Accept)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, participant)
}

// HandleListInfluencers lists influencer accounts matching query filters
func (h *Handler) HandleListInfluencers(c *gin.Context) {
	ctx := c.Request.Context()

	if _, ok := requireRole(c, store.UserRoleBrand); !ok {
		return
	}

	var params processor.DiscoverInfluencersParams
	if platform := c.Query("platform"); platform != "" {
		params.Platform = &platform
	}
	if category := c.Query("category"); category != "" {
		params.Category = &category
	}
	if raw := c.Query("min_followers"); raw != "" {
		minFollowers, err := strconv.Atoi(raw)
		if err != nil || minFollowers < 0 {
			apierrors.BadRequest(c, "INVALID_MIN_FOLLOWERS", "min_followers must be a non-negative integer")
			return
		}
		params.MinFollowers = &minFollowers
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			apierrors.BadRequest(c, "INVALID_LIMIT", "limit must be a positive integer")
			return
		}
		params.Limit = limit
	}

	influencers, err := h.processor.DiscoverInfluencers(ctx, params)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"influencers": influencers})
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, processor.ErrCampaignNotFound):
		apierrors.NotFound(c, "Campaign not found")
	case errors.Is(err, processor.ErrParticipantNotFound):
		apierrors.NotFound(c, "Participant not found")
	case errors.Is(err, processor.ErrUserNotFound):
		apierrors.NotFound(c, "User not found")
	case errors.Is(err, processor.ErrNotCampaignOwner):
		apierrors.Forbidden(c, "NOT_CAMPAIGN_OWNER", "Campaign belongs to another brand")
	case errors.Is(err, processor.ErrInvalidRole):
		apierrors.BadRequest(c, "INVALID_ROLE", "User has the wrong role for this operation")
	case errors.Is(err, processor.ErrInvalidStatus):
		apierrors.BadRequest(c, "INVALID_STATUS", "Unknown campaign status")
	case errors.Is(err, processor.ErrCampaignNotActive):
		apierrors.Conflict(c, "CAMPAIGN_NOT_ACTIVE", "Campaign is not accepting applications")
	case errors.Is(err, processor.ErrParticipantExists):
		apierrors.Conflict(c, "PARTICIPANT_EXISTS", "Influencer is already part of this campaign")
	case errors.Is(err, processor.ErrDecisionNotPending):
		apierrors.Conflict(c, "DECISION_NOT_PENDING", "Participant decision has already been made")
	case errors.Is(err, processor.ErrStrategyUnavailable):
		apierrors.ServiceUnavailable(c, "UPSTREAM_UNAVAILABLE", "Strategy service is unavailable, try again later", err)
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

func getCampaignID(c *gin.Context) (uuid.UUID, bool) {
	campaignID, err := uuid.Parse(c.Param("campaign_id"))
	if err != nil {
		apierrors.BadRequest(c, "INVALID_CAMPAIGN_ID", "Campaign ID must be a valid UUID")
		return uuid.UUID{}, false
	}
	return campaignID, true
}
