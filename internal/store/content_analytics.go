package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// UpsertAnalyticsParams represents the metric values for an analytics upsert.
// EngagementRate is computed by the content processor before the write.
type UpsertAnalyticsParams struct {
	PublishedContentID uuid.UUID
	Impressions        int64
	Likes              int64
	Comments           int64
	Shares             int64
	Reach              int64
	Clicks             int64
	Saves              int64
	EngagementRate     float64
}

const sqlUpsertAnalytics = `
INSERT INTO content_analytics (published_content_id, impressions, likes, comments, shares, reach, clicks, saves, engagement_rate, last_updated)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, CURRENT_TIMESTAMP)
ON CONFLICT (published_content_id) DO UPDATE
SET impressions = EXCLUDED.impressions,
    likes = EXCLUDED.likes,
    comments = EXCLUDED.comments,
    shares = EXCLUDED.shares,
    reach = EXCLUDED.reach,
    clicks = EXCLUDED.clicks,
    saves = EXCLUDED.saves,
    engagement_rate = EXCLUDED.engagement_rate,
    last_updated = CURRENT_TIMESTAMP
RETURNING id, published_content_id, impressions, likes, comments, shares, reach, clicks, saves, engagement_rate, last_updated
`

// UpsertAnalytics writes the single analytics row per published content,
// update-in-place semantics.
func (s *Store) UpsertAnalytics(ctx context.Context, params UpsertAnalyticsParams) (ContentAnalytics, error) {
	var analytics ContentAnalytics
	err := s.db.GetContext(ctx, &analytics, sqlUpsertAnalytics,
		params.PublishedContentID,
		params.Impressions,
		params.Likes,
		params.Comments,
		params.Shares,
		params.Reach,
		params.Clicks,
		params.Saves,
		params.EngagementRate)
	if err != nil {
		s.logger.Error(ctx, "failed to upsert analytics", err)
		return ContentAnalytics{}, fmt.Errorf("failed to upsert analytics: %w", err)
	}
	return analytics, nil
}

const sqlGetAnalyticsByPublishedContent = `
SELECT id, published_content_id, impressions, likes, comments, shares, reach, clicks, saves, engagement_rate, last_updated
FROM content_analytics
WHERE published_content_id = $1
`

// GetAnalyticsByPublishedContent retrieves the analytics row for a published
// content record.
func (s *Store) GetAnalyticsByPublishedContent(ctx context.Context, publishedID uuid.UUID) (ContentAnalytics, error) {
	var analytics ContentAnalytics
	err := s.db.GetContext(ctx, &analytics, sqlGetAnalyticsByPublishedContent, publishedID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ContentAnalytics{}, ErrNotFound
		}
		s.logger.Error(ctx, "failed to get analytics", err)
		return ContentAnalytics{}, fmt.Errorf("failed to get analytics: %w", err)
	}
	return analytics, nil
}
