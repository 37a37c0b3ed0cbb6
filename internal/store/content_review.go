package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// CreateReviewParams represents parameters for creating a content review
type CreateReviewParams struct {
	TaskID     uuid.UUID
	UploadID   uuid.UUID
	Status     string
	Feedback   *string
	ReviewerID uuid.UUID
}

const sqlCreateReview = `
INSERT INTO content_reviews (task_id, upload_id, status, feedback, reviewer_id, reviewed_at)
VALUES ($1, $2, $3, $4, $5, CURRENT_TIMESTAMP)
RETURNING id, task_id, upload_id, status, feedback, reviewer_id, reviewed_at, created_at
`

// CreateReview records a brand decision on an upload. A single INSERT: a
// failed write leaves no review row behind.
func (s *Store) CreateReview(ctx context.Context, params CreateReviewParams) (ContentReview, error) {
	var review ContentReview
	err := s.db.GetContext(ctx, &review, sqlCreateReview,
		params.TaskID,
		params.UploadID,
		params.Status,
		params.Feedback,
		params.ReviewerID)
	if err != nil {
		s.logger.Error(ctx, "failed to create review", err)
		return ContentReview{}, fmt.Errorf("failed to create review: %w", err)
	}
	return review, nil
}

const sqlGetLatestReviewForUpload = `
SELECT id, task_id, upload_id, status, feedback, reviewer_id, reviewed_at, created_at
FROM content_reviews
WHERE upload_id = $1
ORDER BY reviewed_at DESC
LIMIT 1
`

// GetLatestReviewForUpload retrieves the authoritative review for an upload.
// Re-reviews append rows; the latest reviewed_at wins.
func (s *Store) GetLatestReviewForUpload(ctx context.Context, uploadID uuid.UUID) (ContentReview, error) {
	var review ContentReview
	err := s.db.GetContext(ctx, &review, sqlGetLatestReviewForUpload, uploadID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ContentReview{}, ErrNotFound
		}
		s.logger.Error(ctx, "failed to get latest review for upload", err)
		return ContentReview{}, fmt.Errorf("failed to get latest review for upload: %w", err)
	}
	return review, nil
}

const sqlListReviewsByTask = `
SELECT id, task_id, upload_id, status, feedback, reviewer_id, reviewed_at, created_at
FROM content_reviews
WHERE task_id = $1
ORDER BY reviewed_at DESC
`

// ListReviewsByTask retrieves all reviews for a task, newest first
func (s *Store) ListReviewsByTask(ctx context.Context, taskID uuid.UUID) ([]ContentReview, error) {
	var reviews []ContentReview
	err := s.db.SelectContext(ctx, &reviews, sqlListReviewsByTask, taskID)
	if err != nil {
		s.logger.Error(ctx, "failed to list reviews by task", err)
		return nil, fmt.Errorf("failed to list reviews by task: %w", err)
	}
	if reviews == nil {
		reviews = []ContentReview{}
	}
	return reviews, nil
}
