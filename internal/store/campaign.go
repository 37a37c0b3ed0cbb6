package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// CreateCampaignParams represents parameters for creating a campaign
type CreateCampaignParams struct {
	BrandID     uuid.UUID
	Name        string
	Description *string
	BudgetCents *int
	Platforms   StringArray
	StartDate   *time.Time
	EndDate     *time.Time
}

const sqlCreateCampaign = `
INSERT INTO campaigns (brand_id, name, description, status, budget_cents, platforms, start_date, end_date)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING id, brand_id, name, description, status, budget_cents, platforms, strategy, start_date, end_date, created_at, updated_at, deleted_at
`

// CreateCampaign creates a new campaign in draft status
func (s *Store) CreateCampaign(ctx context.Context, params CreateCampaignParams) (Campaign, error) {
	var campaign Campaign
	err := s.db.GetContext(ctx, &campaign, sqlCreateCampaign,
		params.BrandID,
		params.Name,
		params.Description,
		CampaignStatusDraft,
		params.BudgetCents,
		params.Platforms,
		params.StartDate,
		params.EndDate)
	if err != nil {
		s.logger.Error(ctx, "failed to create campaign", err)
		return Campaign{}, fmt.Errorf("failed to create campaign: %w", err)
	}
	return campaign, nil
}

const sqlGetCampaignByID = `
SELECT id, brand_id, name, description, status, budget_cents, platforms, strategy, start_date, end_date, created_at, updated_at, deleted_at
FROM campaigns
WHERE id = $1 AND deleted_at IS NULL
`

// GetCampaignByID retrieves a campaign by ID
func (s *Store) GetCampaignByID(ctx context.Context, campaignID uuid.UUID) (Campaign, error) {
	var campaign Campaign
	err := s.db.GetContext(ctx, &campaign, sqlGetCampaignByID, campaignID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Campaign{}, ErrNotFound
		}
		s.logger.Error(ctx, "failed to get campaign by id", err)
		return Campaign{}, fmt.Errorf("failed to get campaign by id: %w", err)
	}
	return campaign, nil
}

const sqlListCampaignsByBrand = `
SELECT id, brand_id, name, description, status, budget_cents, platforms, strategy, start_date, end_date, created_at, updated_at, deleted_at
FROM campaigns
WHERE brand_id = $1 AND deleted_at IS NULL
ORDER BY created_at DESC
`

// ListCampaignsByBrand retrieves all campaigns owned by a brand
func (s *Store) ListCampaignsByBrand(ctx context.Context, brandID uuid.UUID) ([]Campaign, error) {
	var campaigns []Campaign
	err := s.db.SelectContext(ctx, &campaigns, sqlListCampaignsByBrand, brandID)
	if err != nil {
		s.logger.Error(ctx, "failed to list campaigns by brand", err)
		return nil, fmt.Errorf("failed to list campaigns by brand: %w", err)
	}
	return campaigns, nil
}

// UpdateCampaignParams represents optional fields for a partial campaign
// update. Nil fields keep their current value.
type UpdateCampaignParams struct {
	Name        *string
	Description *string
	Status      *string
	BudgetCents *int
	Platforms   StringArray
	StartDate   *time.Time
	EndDate     *time.Time
}

const sqlUpdateCampaign = `
UPDATE campaigns
SET name = COALESCE($2, name),
    description = COALESCE($3, description),
    status = COALESCE($4, status),
    budget_cents = COALESCE($5, budget_cents),
    platforms = COALESCE($6, platforms),
    start_date = COALESCE($7, start_date),
    end_date = COALESCE($8, end_date),
    updated_at = CURRENT_TIMESTAMP
WHERE id = $1 AND deleted_at IS NULL
RETURNING id, brand_id, name, description, status, budget_cents, platforms, strategy, start_date, end_date, created_at, updated_at, deleted_at
`

// UpdateCampaign applies a partial update to a campaign
func (s *Store) UpdateCampaign(ctx context.Context, campaignID uuid.UUID, params UpdateCampaignParams) (Campaign, error) {
	var campaign Campaign
	err := s.db.GetContext(ctx, &campaign, sqlUpdateCampaign,
		campaignID,
		params.Name,
		params.Description,
		params.Status,
		params.BudgetCents,
		params.Platforms,
		params.StartDate,
		params.EndDate)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Campaign{}, ErrNotFound
		}
		s.logger.Error(ctx, "failed to update campaign", err)
		return Campaign{}, fmt.Errorf("failed to update campaign: %w", err)
	}
	return campaign, nil
}

const sqlUpdateCampaignStrategy = `
UPDATE campaigns
SET strategy = $2, updated_at = CURRENT_TIMESTAMP
WHERE id = $1 AND deleted_at IS NULL
RETURNING id, brand_id, name, description, status, budget_cents, platforms, strategy, start_date, end_date, created_at, updated_at, deleted_at
`

// UpdateCampaignStrategy stores the generated strategy document on a campaign
func (s *Store) UpdateCampaignStrategy(ctx context.Context, campaignID uuid.UUID, strategy JSONB) (Campaign, error) {
	var campaign Campaign
	err := s.db.GetContext(ctx, &campaign, sqlUpdateCampaignStrategy, campaignID, strategy)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Campaign{}, ErrNotFound
		}
		s.logger.Error(ctx, "failed to update campaign strategy", err)
		return Campaign{}, fmt.Errorf("failed to update campaign strategy: %w", err)
	}
	return campaign, nil
}

const sqlDeleteCampaign = `
UPDATE campaigns
SET deleted_at = CURRENT_TIMESTAMP, updated_at = CURRENT_TIMESTAMP
WHERE id = $1 AND deleted_at IS NULL
`

// DeleteCampaign soft deletes a campaign
func (s *Store) DeleteCampaign(ctx context.Context, campaignID uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, sqlDeleteCampaign, campaignID)
	if err != nil {
		s.logger.Error(ctx, "failed to delete campaign", err)
		return fmt.Errorf("failed to delete campaign: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete campaign: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}
