package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

const sqlGetWorkflowStates = `
SELECT id, task_id, phase, status, created_at, updated_at, completed_at
FROM workflow_states
WHERE task_id = $1
ORDER BY CASE phase
    WHEN 'content_requirement' THEN 1
    WHEN 'content_review' THEN 2
    WHEN 'publish_analytics' THEN 3
END
`

// GetWorkflowStates retrieves all phase records for a task in phase order.
// Returns an empty slice when the task has no states yet.
func (s *Store) GetWorkflowStates(ctx context.Context, taskID uuid.UUID) ([]WorkflowState, error) {
	var states []WorkflowState
	err := s.db.SelectContext(ctx, &states, sqlGetWorkflowStates, taskID)
	if err != nil {
		s.logger.Error(ctx, "failed to get workflow states", err)
		return nil, fmt.Errorf("failed to get workflow states: %w", err)
	}
	if states == nil {
		states = []WorkflowState{}
	}
	return states, nil
}

const sqlGetWorkflowState = `
SELECT id, task_id, phase, status, created_at, updated_at, completed_at
FROM workflow_states
WHERE task_id = $1 AND phase = $2
`

// GetWorkflowState retrieves one phase record for a task
func (s *Store) GetWorkflowState(ctx context.Context, taskID uuid.UUID, phase string) (WorkflowState, error) {
	var state WorkflowState
	err := s.db.GetContext(ctx, &state, sqlGetWorkflowState, taskID, phase)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return WorkflowState{}, ErrNotFound
		}
		s.logger.Error(ctx, "failed to get workflow state", err)
		return WorkflowState{}, fmt.Errorf("failed to get workflow state: %w", err)
	}
	return state, nil
}

const sqlInitializeWorkflowStates = `
INSERT INTO workflow_states (task_id, phase, status)
VALUES ($1, 'content_requirement', 'in_progress'),
       ($1, 'content_review', 'not_started'),
       ($1, 'publish_analytics', 'not_started')
ON CONFLICT (task_id, phase) DO NOTHING
`

// InitializeWorkflowStates idempotently creates the three phase rows for a
// task, with content_requirement started. Existing rows are left untouched,
// so a second call never resets phase progress.
func (s *Store) InitializeWorkflowStates(ctx context.Context, taskID uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, sqlInitializeWorkflowStates, taskID)
	if err != nil {
		s.logger.Error(ctx, "failed to initialize workflow states", err)
		return fmt.Errorf("failed to initialize workflow states: %w", err)
	}
	return nil
}

const sqlUpdateWorkflowStatus = `
UPDATE workflow_states
SET status = $3,
    completed_at = CASE WHEN $3 = 'completed' THEN CURRENT_TIMESTAMP ELSE completed_at END,
    updated_at = CURRENT_TIMESTAMP
WHERE task_id = $1 AND phase = $2
RETURNING id, task_id, phase, status, created_at, updated_at, completed_at
`

// UpdateWorkflowStatus writes a phase's status. Ordering validation happens
// in the workflow processor against a snapshot read before this call.
func (s *Store) UpdateWorkflowStatus(ctx context.Context, taskID uuid.UUID, phase, status string) (WorkflowState, error) {
	var state WorkflowState
	err := s.db.GetContext(ctx, &state, sqlUpdateWorkflowStatus, taskID, phase, status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return WorkflowState{}, ErrNotFound
		}
		s.logger.Error(ctx, "failed to update workflow status", err)
		return WorkflowState{}, fmt.Errorf("failed to update workflow status: %w", err)
	}
	return state, nil
}
