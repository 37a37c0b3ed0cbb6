package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// CreatePublishedContentParams represents parameters for recording published content
type CreatePublishedContentParams struct {
	TaskID       uuid.UUID
	InfluencerID uuid.UUID
	Platform     string
	URL          string
	Notes        *string
}

const sqlCreatePublishedContent = `
INSERT INTO published_content (task_id, influencer_id, platform, url, notes, status)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, task_id, influencer_id, platform, url, notes, status, created_at, updated_at
`

// CreatePublishedContent records that content went live. Multiple records per
// task are allowed as history; the most recent one is authoritative.
func (s *Store) CreatePublishedContent(ctx context.Context, params CreatePublishedContentParams) (PublishedContent, error) {
	var published PublishedContent
	err := s.db.GetContext(ctx, &published, sqlCreatePublishedContent,
		params.TaskID,
		params.InfluencerID,
		params.Platform,
		params.URL,
		params.Notes,
		PublishedStatusActive)
	if err != nil {
		s.logger.Error(ctx, "failed to create published content", err)
		return PublishedContent{}, fmt.Errorf("failed to create published content: %w", err)
	}
	return published, nil
}

const sqlGetPublishedContentByID = `
SELECT id, task_id, influencer_id, platform, url, notes, status, created_at, updated_at
FROM published_content
WHERE id = $1
`

// GetPublishedContentByID retrieves a published content record by ID
func (s *Store) GetPublishedContentByID(ctx context.Context, publishedID uuid.UUID) (PublishedContent, error) {
	var published PublishedContent
	err := s.db.GetContext(ctx, &published, sqlGetPublishedContentByID, publishedID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return PublishedContent{}, ErrNotFound
		}
		s.logger.Error(ctx, "failed to get published content by id", err)
		return PublishedContent{}, fmt.Errorf("failed to get published content by id: %w", err)
	}
	return published, nil
}

const sqlGetLatestPublishedByTask = `
SELECT id, task_id, influencer_id, platform, url, notes, status, created_at, updated_at
FROM published_content
WHERE task_id = $1
ORDER BY created_at DESC
LIMIT 1
`

// GetLatestPublishedByTask retrieves the authoritative published record for a
// task.
func (s *Store) GetLatestPublishedByTask(ctx context.Context, taskID uuid.UUID) (PublishedContent, error) {
	var published PublishedContent
	err := s.db.GetContext(ctx, &published, sqlGetLatestPublishedByTask, taskID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return PublishedContent{}, ErrNotFound
		}
		s.logger.Error(ctx, "failed to get latest published content", err)
		return PublishedContent{}, fmt.Errorf("failed to get latest published content: %w", err)
	}
	return published, nil
}

const sqlListPublishedByTask = `
SELECT id, task_id, influencer_id, platform, url, notes, status, created_at, updated_at
FROM published_content
WHERE task_id = $1
ORDER BY created_at DESC
`

// ListPublishedByTask retrieves the publish history for a task, newest first
func (s *Store) ListPublishedByTask(ctx context.Context, taskID uuid.UUID) ([]PublishedContent, error) {
	var published []PublishedContent
	err := s.db.SelectContext(ctx, &published, sqlListPublishedByTask, taskID)
	if err != nil {
		s.logger.Error(ctx, "failed to list published content by task", err)
		return nil, fmt.Errorf("failed to list published content by task: %w", err)
	}
	if published == nil {
		published = []PublishedContent{}
	}
	return published, nil
}
