package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// CreateDraftParams represents parameters for creating a content draft
type CreateDraftParams struct {
	TaskID      uuid.UUID
	Content     string
	AuthorID    uuid.UUID
	AIGenerated bool
	BrandEdited bool
}

const sqlCreateDraft = `
INSERT INTO content_drafts (task_id, content, author_id, ai_generated, brand_edited, shared_with_influencer)
VALUES ($1, $2, $3, $4, $5, FALSE)
RETURNING id, task_id, content, ai_generated, brand_edited, shared_with_influencer, author_id, created_at, updated_at
`

// CreateDraft creates a content draft. Drafts always start unshared.
func (s *Store) CreateDraft(ctx context.Context, params CreateDraftParams) (ContentDraft, error) {
	var draft ContentDraft
	err := s.db.GetContext(ctx, &draft, sqlCreateDraft,
		params.TaskID,
		params.Content,
		params.AuthorID,
		params.AIGenerated,
		params.BrandEdited)
	if err != nil {
		s.logger.Error(ctx, "failed to create draft", err)
		return ContentDraft{}, fmt.Errorf("failed to create draft: %w", err)
	}
	return draft, nil
}

const sqlGetDraftByID = `
SELECT id, task_id, content, ai_generated, brand_edited, shared_with_influencer, author_id, created_at, updated_at
FROM content_drafts
WHERE id = $1
`

// GetDraftByID retrieves a content draft by ID
func (s *Store) GetDraftByID(ctx context.Context, draftID uuid.UUID) (ContentDraft, error) {
	var draft ContentDraft
	err := s.db.GetContext(ctx, &draft, sqlGetDraftByID, draftID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ContentDraft{}, ErrNotFound
		}
		s.logger.Error(ctx, "failed to get draft by id", err)
		return ContentDraft{}, fmt.Errorf("failed to get draft by id: %w", err)
	}
	return draft, nil
}

const sqlListDraftsByTask = `
SELECT id, task_id, content, ai_generated, brand_edited, shared_with_influencer, author_id, created_at, updated_at
FROM content_drafts
WHERE task_id = $1 AND ($2 = FALSE OR shared_with_influencer = TRUE)
ORDER BY created_at DESC
`

// ListDraftsByTask retrieves drafts for a task. With sharedOnly set, only
// drafts visible to the influencer are returned.
func (s *Store) ListDraftsByTask(ctx context.Context, taskID uuid.UUID, sharedOnly bool) ([]ContentDraft, error) {
	var drafts []ContentDraft
	err := s.db.SelectContext(ctx, &drafts, sqlListDraftsByTask, taskID, sharedOnly)
	if err != nil {
		s.logger.Error(ctx, "failed to list drafts by task", err)
		return nil, fmt.Errorf("failed to list drafts by task: %w", err)
	}
	if drafts == nil {
		drafts = []ContentDraft{}
	}
	return drafts, nil
}

const sqlMarkDraftShared = `
UPDATE content_drafts
SET shared_with_influencer = TRUE, updated_at = CURRENT_TIMESTAMP
WHERE id = $1 AND task_id = $2
RETURNING id, task_id, content, ai_generated, brand_edited, shared_with_influencer, author_id, created_at, updated_at
`

// MarkDraftShared flips a draft to shared. Sharing an already shared draft is
// a harmless no-op write.
func (s *Store) MarkDraftShared(ctx context.Context, draftID, taskID uuid.UUID) (ContentDraft, error) {
	var draft ContentDraft
	err := s.db.GetContext(ctx, &draft, sqlMarkDraftShared, draftID, taskID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ContentDraft{}, ErrNotFound
		}
		s.logger.Error(ctx, "failed to mark draft shared", err)
		return ContentDraft{}, fmt.Errorf("failed to mark draft shared: %w", err)
	}
	return draft, nil
}
