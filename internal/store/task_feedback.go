package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// CreateFeedbackParams represents parameters for appending a feedback message
type CreateFeedbackParams struct {
	TaskID     uuid.UUID
	SenderID   uuid.UUID
	SenderType string
	Phase      string
	Message    string
}

const sqlCreateFeedback = `
INSERT INTO task_feedback (task_id, sender_id, sender_type, phase, message)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, task_id, sender_id, sender_type, phase, message, created_at
`

// CreateFeedback appends a feedback message. The log is append-only; there is
// no edit or delete.
func (s *Store) CreateFeedback(ctx context.Context, params CreateFeedbackParams) (TaskFeedback, error) {
	var feedback TaskFeedback
	err := s.db.GetContext(ctx, &feedback, sqlCreateFeedback,
		params.TaskID,
		params.SenderID,
		params.SenderType,
		params.Phase,
		params.Message)
	if err != nil {
		s.logger.Error(ctx, "failed to create feedback", err)
		return TaskFeedback{}, fmt.Errorf("failed to create feedback: %w", err)
	}
	return feedback, nil
}

const sqlListFeedbackByTask = `
SELECT id, task_id, sender_id, sender_type, phase, message, created_at
FROM task_feedback
WHERE task_id = $1 AND ($2 = '' OR phase = $2)
ORDER BY created_at ASC
`

// ListFeedbackByTask retrieves the feedback conversation for a task in
// ascending creation order, optionally scoped to one phase.
func (s *Store) ListFeedbackByTask(ctx context.Context, taskID uuid.UUID, phase string) ([]TaskFeedback, error) {
	var feedback []TaskFeedback
	err := s.db.SelectContext(ctx, &feedback, sqlListFeedbackByTask, taskID, phase)
	if err != nil {
		s.logger.Error(ctx, "failed to list feedback by task", err)
		return nil, fmt.Errorf("failed to list feedback by task: %w", err)
	}
	if feedback == nil {
		feedback = []TaskFeedback{}
	}
	return feedback, nil
}

const sqlListFeedbackSince = `
SELECT id, task_id, sender_id, sender_type, phase, message, created_at
FROM task_feedback
WHERE task_id = $1 AND created_at > $2
ORDER BY created_at ASC
`

// ListFeedbackSince retrieves feedback created after a given instant. Used by
// the live feedback feed.
func (s *Store) ListFeedbackSince(ctx context.Context, taskID uuid.UUID, after time.Time) ([]TaskFeedback, error) {
	var feedback []TaskFeedback
	err := s.db.SelectContext(ctx, &feedback, sqlListFeedbackSince, taskID, after)
	if err != nil {
		s.logger.Error(ctx, "failed to list feedback since", err)
		return nil, fmt.Errorf("failed to list feedback since: %w", err)
	}
	if feedback == nil {
		feedback = []TaskFeedback{}
	}
	return feedback, nil
}
