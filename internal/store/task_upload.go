package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// CreateUploadParams represents parameters for recording a task upload
type CreateUploadParams struct {
	TaskID     uuid.UUID
	UploaderID uuid.UUID
	FileName   string
	FileURL    string
	MimeType   string
	FileSize   int64
	Caption    *string
	Hashtags   *string
}

const sqlCreateUpload = `
INSERT INTO task_uploads (task_id, uploader_id, file_name, file_url, mime_type, file_size, caption, hashtags)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING id, task_id, uploader_id, file_name, file_url, mime_type, file_size, caption, hashtags, created_at
`

// CreateUpload records a content submission. Pure append; uploads are never
// mutated, only superseded by newer uploads.
func (s *Store) CreateUpload(ctx context.Context, params CreateUploadParams) (TaskUpload, error) {
	var upload TaskUpload
	err := s.db.GetContext(ctx, &upload, sqlCreateUpload,
		params.TaskID,
		params.UploaderID,
		params.FileName,
		params.FileURL,
		params.MimeType,
		params.FileSize,
		params.Caption,
		params.Hashtags)
	if err != nil {
		s.logger.Error(ctx, "failed to create upload", err)
		return TaskUpload{}, fmt.Errorf("failed to create upload: %w", err)
	}
	return upload, nil
}

const sqlGetUploadByID = `
SELECT id, task_id, uploader_id, file_name, file_url, mime_type, file_size, caption, hashtags, created_at
FROM task_uploads
WHERE id = $1
`

// GetUploadByID retrieves a task upload by ID
func (s *Store) GetUploadByID(ctx context.Context, uploadID uuid.UUID) (TaskUpload, error) {
	var upload TaskUpload
	err := s.db.GetContext(ctx, &upload, sqlGetUploadByID, uploadID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return TaskUpload{}, ErrNotFound
		}
		s.logger.Error(ctx, "failed to get upload by id", err)
		return TaskUpload{}, fmt.Errorf("failed to get upload by id: %w", err)
	}
	return upload, nil
}

const sqlListUploadsByTask = `
SELECT id, task_id, uploader_id, file_name, file_url, mime_type, file_size, caption, hashtags, created_at
FROM task_uploads
WHERE task_id = $1
ORDER BY created_at DESC
`

// ListUploadsByTask retrieves all uploads for a task, newest first
func (s *Store) ListUploadsByTask(ctx context.Context, taskID uuid.UUID) ([]TaskUpload, error) {
	var uploads []TaskUpload
	err := s.db.SelectContext(ctx, &uploads, sqlListUploadsByTask, taskID)
	if err != nil {
		s.logger.Error(ctx, "failed to list uploads by task", err)
		return nil, fmt.Errorf("failed to list uploads by task: %w", err)
	}
	if uploads == nil {
		uploads = []TaskUpload{}
	}
	return uploads, nil
}
