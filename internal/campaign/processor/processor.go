package processor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"collab-server/internal/clients/openai"
	"collab-server/internal/observability"
	"collab-server/internal/store"

	"github.com/google/uuid"
)

// CampaignStore defines the database operations required by CampaignProcessor
type CampaignStore interface {
	// Campaigns
	CreateCampaign(ctx context.Context, params store.CreateCampaignParams) (store.Campaign, error)
	GetCampaignByID(ctx context.Context, campaignID uuid.UUID) (store.Campaign, error)
	ListCampaignsByBrand(ctx context.Context, brandID uuid.UUID) ([]store.Campaign, error)
	UpdateCampaign(ctx context.Context, campaignID uuid.UUID, params store.UpdateCampaignParams) (store.Campaign, error)
	UpdateCampaignStrategy(ctx context.Context, campaignID uuid.UUID, strategy store.JSONB) (store.Campaign, error)
	DeleteCampaign(ctx context.Context, campaignID uuid.UUID) error

	// Participants
	CreateParticipant(ctx context.Context, campaignID, influencerID uuid.UUID, status string) (store.CampaignParticipant, error)
	GetParticipantByID(ctx context.Context, participantID uuid.UUID) (store.CampaignParticipant, error)
	GetParticipantByCampaignAndInfluencer(ctx context.Context, campaignID, influencerID uuid.UUID) (store.CampaignParticipant, error)
	ListParticipantsByCampaign(ctx context.Context, campaignID uuid.UUID) ([]store.CampaignParticipant, error)
	UpdateParticipantStatus(ctx context.Context, participantID uuid.UUID, status string) (store.CampaignParticipant, error)
	UpdateParticipantStage(ctx context.Context, participantID uuid.UUID, stage string) (store.CampaignParticipant, error)

	// Users
	GetUserByID(ctx context.Context, userID uuid.UUID) (store.User, error)
	ListInfluencers(ctx context.Context, params store.ListInfluencersParams) ([]store.User, error)
}

// StrategyGenerator produces an AI campaign strategy document.
type StrategyGenerator interface {
	GenerateStrategy(ctx context.Context, req openai.StrategyRequest) (openai.StrategyPlan, error)
}

var (
	ErrCampaignNotFound    = errors.New("campaign not found")
	ErrParticipantNotFound = errors.New("participant not found")
	ErrParticipantExists   = errors.New("participant already exists for campaign")
	ErrNotCampaignOwner    = errors.New("caller does not own the campaign")
	ErrInvalidStatus       = errors.New("invalid campaign status")
	ErrInvalidRole         = errors.New("user has the wrong role for this operation")
	ErrUserNotFound        = errors.New("user not found")
	ErrCampaignNotActive   = errors.New("campaign is not accepting applications")
	ErrDecisionNotPending  = errors.New("participant decision already made")
	ErrStrategyUnavailable = errors.New("strategy service unavailable")
)

type CampaignProcessor struct {
	store     CampaignStore
	generator StrategyGenerator
	logger    *observability.Logger
}

func New(campaignStore CampaignStore, generator StrategyGenerator, logger *observability.Logger) *CampaignProcessor {
	return &CampaignProcessor{
		store:     campaignStore,
		generator: generator,
		logger:    logger,
	}
}

// CreateCampaignParams represents parameters for creating a campaign
type CreateCampaignParams struct {
	Name        string
	Description *string
	BudgetCents *int
	Platforms   []string
	StartDate   *time.Time
	EndDate     *time.Time
}

// CreateCampaign creates a draft campaign owned by the brand
func (p *CampaignProcessor) CreateCampaign(ctx context.Context, brandID uuid.UUID, params CreateCampaignParams) (store.Campaign, error) {
	campaign, err := p.store.CreateCampaign(ctx, store.CreateCampaignParams{
		BrandID:     brandID,
		Name:        params.Name,
		Description: params.Description,
		BudgetCents: params.BudgetCents,
		Platforms:   params.Platforms,
		StartDate:   params.StartDate,
		EndDate:     params.EndDate,
	})
	if err != nil {
		return store.Campaign{}, fmt.Errorf("failed to create campaign: %w", err)
	}

	ctx = observability.WithFields(ctx, observability.Field{Key: "campaign_id", Value: campaign.ID.String()})
	p.logger.Info(ctx, "campaign created")
	return campaign, nil
}

// GetCampaign returns a campaign the caller may see: its owning brand, or
// an influencer with a participant record in it.
func (p *CampaignProcessor) GetCampaign(ctx context.Context, callerID uuid.UUID, role string, campaignID uuid.UUID) (store.Campaign, error) {
	campaign, err := p.store.GetCampaignByID(ctx, campaignID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.Campaign{}, ErrCampaignNotFound
		}
		return store.Campaign{}, fmt.Errorf("failed to get campaign: %w", err)
	}

	switch role {
	case store.UserRoleBrand:
		if campaign.BrandID != callerID {
			return store.Campaign{}, ErrNotCampaignOwner
		}
	case store.UserRoleInfluencer:
		if _, err := p.store.GetParticipantByCampaignAndInfluencer(ctx, campaignID, callerID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return store.Campaign{}, ErrCampaignNotFound
			}
			return store.Campaign{}, fmt.Errorf("failed to check participation: %w", err)
		}
	default:
		return store.Campaign{}, ErrInvalidRole
	}
	return campaign, nil
}

// ListCampaigns returns all campaigns owned by a brand
func (p *CampaignProcessor) ListCampaigns(ctx context.Context, brandID uuid.UUID) ([]store.Campaign, error) {
	campaigns, err := p.store.ListCampaignsByBrand(ctx, brandID)
	if err != nil {
		return nil, fmt.Errorf("failed to list campaigns: %w", err)
	}
	return campaigns, nil
}

// UpdateCampaignStatus moves a campaign through its lifecycle
func (p *CampaignProcessor) UpdateCampaignStatus(ctx context.Context, brandID, campaignID uuid.UUID, status string) (store.Campaign, error) {
	switch status {
	case store.CampaignStatusDraft, store.CampaignStatusActive, store.CampaignStatusPaused, store.CampaignStatusCompleted:
	default:
		return store.Campaign{}, ErrInvalidStatus
	}

	if _, err := p.ownedCampaign(ctx, brandID, campaignID); err != nil {
		return store.Campaign{}, err
	}

	campaign, err := p.store.UpdateCampaign(ctx, campaignID, store.UpdateCampaignParams{Status: &status})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.Campaign{}, ErrCampaignNotFound
		}
		return store.Campaign{}, fmt.Errorf("failed to update campaign status: %w", err)
	}
	return campaign, nil
}

// DeleteCampaign soft deletes a campaign owned by the brand
func (p *CampaignProcessor) DeleteCampaign(ctx context.Context, brandID, campaignID uuid.UUID) error {
	if _, err := p.ownedCampaign(ctx, brandID, campaignID); err != nil {
		return err
	}
	if err := p.store.DeleteCampaign(ctx, campaignID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrCampaignNotFound
		}
		return fmt.Errorf("failed to delete campaign: %w", err)
	}
	return nil
}

// GenerateStrategy asks the AI planner for a campaign strategy and persists
// it on the campaign.
func (p *CampaignProcessor) GenerateStrategy(ctx context.Context, brandID, campaignID uuid.UUID) (store.Campaign, error) {
	campaign, err := p.ownedCampaign(ctx, brandID, campaignID)
	if err != nil {
		return store.Campaign{}, err
	}

	req := openai.StrategyRequest{
		CampaignName: campaign.Name,
		Platforms:    campaign.Platforms,
		BudgetCents:  campaign.BudgetCents,
	}
	if campaign.Description != nil {
		req.Description = *campaign.Description
	}

	plan, err := p.generator.GenerateStrategy(ctx, req)
	if err != nil {
		p.logger.Error(ctx, "strategy generation failed", err)
		return store.Campaign{}, fmt.Errorf("%w: %v", ErrStrategyUnavailable, err)
	}

	strategy := store.JSONB{
		"summary":          plan.Summary,
		"target_audience":  plan.TargetAudience,
		"content_themes":   plan.ContentThemes,
		"posting_schedule": plan.PostingSchedule,
		"kpis":             plan.KPIs,
	}
	campaign, err = p.store.UpdateCampaignStrategy(ctx, campaignID, strategy)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.Campaign{}, ErrCampaignNotFound
		}
		return store.Campaign{}, fmt.Errorf("failed to persist strategy: %w", err)
	}
	return campaign, nil
}

// InviteParticipant records a brand invitation for an influencer
func (p *CampaignProcessor) InviteParticipant(ctx context.Context, brandID, campaignID, influencerID uuid.UUID) (store.CampaignParticipant, error) {
	if _, err := p.ownedCampaign(ctx, brandID, campaignID); err != nil {
		return store.CampaignParticipant{}, err
	}

	user, err := p.store.GetUserByID(ctx, influencerID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.CampaignParticipant{}, ErrUserNotFound
		}
		return store.CampaignParticipant{}, fmt.Errorf("failed to load influencer: %w", err)
	}
	if user.Role != store.UserRoleInfluencer {
		return store.CampaignParticipant{}, ErrInvalidRole
	}

	return p.createParticipant(ctx, campaignID, influencerID, store.ParticipantStatusInvited)
}

// ApplyToCampaign records an influencer application to an active campaign
func (p *CampaignProcessor) ApplyToCampaign(ctx context.Context, influencerID, campaignID uuid.UUID) (store.CampaignParticipant, error) {
	campaign, err := p.store.GetCampaignByID(ctx, campaignID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.CampaignParticipant{}, ErrCampaignNotFound
		}
		return store.CampaignParticipant{}, fmt.Errorf("failed to get campaign: %w", err)
	}
	if campaign.Status != store.CampaignStatusActive {
		return store.CampaignParticipant{}, ErrCampaignNotActive
	}

	return p.createParticipant(ctx, campaignID, influencerID, store.ParticipantStatusApplied)
}

func (p *CampaignProcessor) createParticipant(ctx context.Context, campaignID, influencerID uuid.UUID, status string) (store.CampaignParticipant, error) {
	if _, err := p.store.GetParticipantByCampaignAndInfluencer(ctx, campaignID, influencerID); err == nil {
		return store.CampaignParticipant{}, ErrParticipantExists
	} else if !errors.Is(err, store.ErrNotFound) {
		return store.CampaignParticipant{}, fmt.Errorf("failed to check for existing participant: %w", err)
	}

	participant, err := p.store.CreateParticipant(ctx, campaignID, influencerID, status)
	if err != nil {
		return store.CampaignParticipant{}, fmt.Errorf("failed to create participant: %w", err)
	}
	return participant, nil
}

// DecideParticipant accepts or declines a pending invitation or application.
// Acceptance moves the participant into the negotiation stage.
func (p *CampaignProcessor) DecideParticipant(ctx context.Context, brandID, participantID uuid.UUID, accept bool) (store.CampaignParticipant, error) {
	participant, err := p.store.GetParticipantByID(ctx, participantID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.CampaignParticipant{}, ErrParticipantNotFound
		}
		return store.CampaignParticipant{}, fmt.Errorf("failed to load participant: %w", err)
	}
	if _, err := p.ownedCampaign(ctx, brandID, participant.CampaignID); err != nil {
		return store.CampaignParticipant{}, err
	}
	if participant.Status != store.ParticipantStatusInvited && participant.Status != store.ParticipantStatusApplied {
		return store.CampaignParticipant{}, ErrDecisionNotPending
	}

	status := store.ParticipantStatusDeclined
	if accept {
		status = store.ParticipantStatusAccepted
	}
	participant, err = p.store.UpdateParticipantStatus(ctx, participantID, status)
	if err != nil {
		return store.CampaignParticipant{}, fmt.Errorf("failed to update participant status: %w", err)
	}
	if accept {
		participant, err = p.store.UpdateParticipantStage(ctx, participantID, store.ParticipantStageNegotiation)
		if err != nil {
			return store.CampaignParticipant{}, fmt.Errorf("failed to update participant stage: %w", err)
		}
	}
	return participant, nil
}

// ListParticipants returns all participants of a brand's campaign
func (p *CampaignProcessor) ListParticipants(ctx context.Context, brandID, campaignID uuid.UUID) ([]store.CampaignParticipant, error) {
	if _, err := p.ownedCampaign(ctx, brandID, campaignID); err != nil {
		return nil, err
	}
	participants, err := p.store.ListParticipantsByCampaign(ctx, campaignID)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	return participants, nil
}

// DiscoverInfluencersParams represents discovery filters
type DiscoverInfluencersParams struct {
	Platform     *string
	Category     *string
	MinFollowers *int
	Limit        int
}

// DiscoverInfluencers lists influencer accounts matching the filters
func (p *CampaignProcessor) DiscoverInfluencers(ctx context.Context, params DiscoverInfluencersParams) ([]store.User, error) {
	influencers, err := p.store.ListInfluencers(ctx, store.ListInfluencersParams{
		Platform:     params.Platform,
		Category:     params.Category,
		MinFollowers: params.MinFollowers,
		Limit:        params.Limit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list influencers: %w", err)
	}
	return influencers, nil
}

func (p *CampaignProcessor) ownedCampaign(ctx context.Context, brandID, campaignID uuid.UUID) (store.Campaign, error) {
	campaign, err := p.store.GetCampaignByID(ctx, campaignID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.Campaign{}, ErrCampaignNotFound
		}
		return store.Campaign{}, fmt.Errorf("failed to get campaign: %w", err)
	}
	if campaign.BrandID != brandID {
		return store.Campaign{}, ErrNotCampaignOwner
	}
	return campaign, nil
}
