package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

const sqlCreateParticipant = `
INSERT INTO campaign_participants (campaign_id, influencer_id, status, stage)
VALUES ($1, $2, $3, $4)
RETURNING id, campaign_id, influencer_id, status, stage, created_at, updated_at
`

// CreateParticipant records an influencer's membership in a campaign. Brand
// invites start as invited, influencer applications as applied. Both begin
// in the outreach stage.
func (s *Store) CreateParticipant(ctx context.Context, campaignID, influencerID uuid.UUID, status string) (CampaignParticipant, error) {
	var participant CampaignParticipant
	err := s.db.GetContext(ctx, &participant, sqlCreateParticipant,
		campaignID,
		influencerID,
		status,
		ParticipantStageOutreach)
	if err != nil {
		s.logger.Error(ctx, "failed to create participant", err)
		return CampaignParticipant{}, fmt.Errorf("failed to create participant: %w", err)
	}
	return participant, nil
}

const sqlGetParticipantByID = `
SELECT id, campaign_id, influencer_id, status, stage, created_at, updated_at
FROM campaign_participants
WHERE id = $1
`

// GetParticipantByID retrieves a participant by ID
func (s *Store) GetParticipantByID(ctx context.Context, participantID uuid.UUID) (CampaignParticipant, error) {
	var participant CampaignParticipant
	err := s.db.GetContext(ctx, &participant, sqlGetParticipantByID, participantID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return CampaignParticipant{}, ErrNotFound
		}
		s.logger.Error(ctx, "failed to get participant by id", err)
		return CampaignParticipant{}, fmt.Errorf("failed to get participant by id: %w", err)
	}
	return participant, nil
}

const sqlGetParticipantByCampaignAndInfluencer = `
SELECT id, campaign_id, influencer_id, status, stage, created_at, updated_at
FROM campaign_participants
WHERE campaign_id = $1 AND influencer_id = $2
`

// GetParticipantByCampaignAndInfluencer retrieves the membership record for
// one influencer in one campaign.
func (s *Store) GetParticipantByCampaignAndInfluencer(ctx context.Context, campaignID, influencerID uuid.UUID) (CampaignParticipant, error) {
	var participant CampaignParticipant
	err := s.db.GetContext(ctx, &participant, sqlGetParticipantByCampaignAndInfluencer, campaignID, influencerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return CampaignParticipant{}, ErrNotFound
		}
		s.logger.Error(ctx, "failed to get participant by campaign and influencer", err)
		return CampaignParticipant{}, fmt.Errorf("failed to get participant by campaign and influencer: %w", err)
	}
	return participant, nil
}

const sqlListParticipantsByCampaign = `
SELECT id, campaign_id, influencer_id, status, stage, created_at, updated_at
FROM campaign_participants
WHERE campaign_id = $1
ORDER BY created_at ASC
`

// ListParticipantsByCampaign retrieves all participants of a campaign
func (s *Store) ListParticipantsByCampaign(ctx context.Context, campaignID uuid.UUID) ([]CampaignParticipant, error) {
	var participants []CampaignParticipant
	err := s.db.SelectContext(ctx, &participants, sqlListParticipantsByCampaign, campaignID)
	if err != nil {
		s.logger.Error(ctx, "failed to list participants by campaign", err)
		return nil, fmt.Errorf("failed to list participants by campaign: %w", err)
	}
	return participants, nil
}

const sqlUpdateParticipantStatus = `
UPDATE campaign_participants
SET status = $2, updated_at = CURRENT_TIMESTAMP
WHERE id = $1
RETURNING id, campaign_id, influencer_id, status, stage, created_at, updated_at
`

// UpdateParticipantStatus updates the membership status of a participant
func (s *Store) UpdateParticipantStatus(ctx context.Context, participantID uuid.UUID, status string) (CampaignParticipant, error) {
	var participant CampaignParticipant
	err := s.db.GetContext(ctx, &participant, sqlUpdateParticipantStatus, participantID, status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return CampaignParticipant{}, ErrNotFound
		}
		s.logger.Error(ctx, "failed to update participant status", err)
		return CampaignParticipant{}, fmt.Errorf("failed to update participant status: %w", err)
	}
	return participant, nil
}

const sqlUpdateParticipantStage = `
UPDATE campaign_participants
SET stage = $2, updated_at = CURRENT_TIMESTAMP
WHERE id = $1
RETURNING id, campaign_id, influencer_id, status, stage, created_at, updated_at
`

// UpdateParticipantStage moves a participant to a new collaboration stage
func (s *Store) UpdateParticipantStage(ctx context.Context, participantID uuid.UUID, stage string) (CampaignParticipant, error) {
	var participant CampaignParticipant
	err := s.db.GetContext(ctx, &participant, sqlUpdateParticipantStage, participantID, stage)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return CampaignParticipant{}, ErrNotFound
		}
		s.logger.Error(ctx, "failed to update participant stage", err)
		return CampaignParticipant{}, fmt.Errorf("failed to update participant stage: %w", err)
	}
	return participant, nil
}
