package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// CreateTaskParams represents parameters for creating a task
type CreateTaskParams struct {
	CampaignID    uuid.UUID
	InfluencerID  uuid.UUID
	ParticipantID uuid.UUID
	Title         string
	Description   string
	TaskType      string
	Deadline      *time.Time
}

const sqlCreateTask = `
INSERT INTO tasks (campaign_id, influencer_id, participant_id, title, description, task_type, status, progress, deadline)
VALUES ($1, $2, $3, $4, $5, $6, $7, 0, $8)
RETURNING id, campaign_id, influencer_id, participant_id, title, description, task_type, status, progress, current_phase, deadline, created_at, updated_at
`

// CreateTask creates a new task for a campaign participant
func (s *Store) CreateTask(ctx context.Context, params CreateTaskParams) (Task, error) {
	var task Task
	err := s.db.GetContext(ctx, &task, sqlCreateTask,
		params.CampaignID,
		params.InfluencerID,
		params.ParticipantID,
		params.Title,
		params.Description,
		params.TaskType,
		TaskStatusPending,
		params.Deadline)
	if err != nil {
		s.logger.Error(ctx, "failed to create task", err)
		return Task{}, fmt.Errorf("failed to create task: %w", err)
	}
	return task, nil
}

const sqlGetTaskByID = `
SELECT id, campaign_id, influencer_id, participant_id, title, description, task_type, status, progress, current_phase, deadline, created_at, updated_at
FROM tasks
WHERE id = $1
`

// GetTaskByID retrieves a task by ID
func (s *Store) GetTaskByID(ctx context.Context, taskID uuid.UUID) (Task, error) {
	var task Task
	err := s.db.GetContext(ctx, &task, sqlGetTaskByID, taskID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Task{}, ErrNotFound
		}
		s.logger.Error(ctx, "failed to get task by id", err)
		return Task{}, fmt.Errorf("failed to get task by id: %w", err)
	}
	return task, nil
}

const sqlGetTaskByParticipantAndType = `
SELECT id, campaign_id, influencer_id, participant_id, title, description, task_type, status, progress, current_phase, deadline, created_at, updated_at
FROM tasks
WHERE participant_id = $1 AND task_type = $2
ORDER BY created_at DESC
LIMIT 1
`

// GetTaskByParticipantAndType retrieves the most recent task of a given type
// for a participant. Used by ShareRequirements for idempotent re-entry.
func (s *Store) GetTaskByParticipantAndType(ctx context.Context, participantID uuid.UUID, taskType string) (Task, error) {
	var task Task
	err := s.db.GetContext(ctx, &task, sqlGetTaskByParticipantAndType, participantID, taskType)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Task{}, ErrNotFound
		}
		s.logger.Error(ctx, "failed to get task by participant and type", err)
		return Task{}, fmt.Errorf("failed to get task by participant and type: %w", err)
	}
	return task, nil
}

const sqlListTasksByCampaign = `
SELECT id, campaign_id, influencer_id, participant_id, title, description, task_type, status, progress, current_phase, deadline, created_at, updated_at
FROM tasks
WHERE campaign_id = $1
ORDER BY created_at DESC
`

// ListTasksByCampaign retrieves all tasks for a campaign
func (s *Store) ListTasksByCampaign(ctx context.Context, campaignID uuid.UUID) ([]Task, error) {
	var tasks []Task
	err := s.db.SelectContext(ctx, &tasks, sqlListTasksByCampaign, campaignID)
	if err != nil {
		s.logger.Error(ctx, "failed to list tasks by campaign", err)
		return nil, fmt.Errorf("failed to list tasks by campaign: %w", err)
	}
	return tasks, nil
}

const sqlListTasksByInfluencer = `
SELECT id, campaign_id, influencer_id, participant_id, title, description, task_type, status, progress, current_phase, deadline, created_at, updated_at
FROM tasks
WHERE influencer_id = $1
ORDER BY created_at DESC
`

// ListTasksByInfluencer retrieves all tasks assigned to an influencer
func (s *Store) ListTasksByInfluencer(ctx context.Context, influencerID uuid.UUID) ([]Task, error) {
	var tasks []Task
	err := s.db.SelectContext(ctx, &tasks, sqlListTasksByInfluencer, influencerID)
	if err != nil {
		s.logger.Error(ctx, "failed to list tasks by influencer", err)
		return nil, fmt.Errorf("failed to list tasks by influencer: %w", err)
	}
	return tasks, nil
}

const sqlUpdateTaskProgress = `
UPDATE tasks
SET status = $2, progress = $3, current_phase = $4, updated_at = CURRENT_TIMESTAMP
WHERE id = $1
RETURNING id, campaign_id, influencer_id, participant_id, title, description, task_type, status, progress, current_phase, deadline, created_at, updated_at
`

// UpdateTaskProgress updates a task's overall status, numeric progress and
// current phase pointer in one statement, keeping the task row consistent
// with its workflow states.
func (s *Store) UpdateTaskProgress(ctx context.Context, taskID uuid.UUID, status string, progress int, currentPhase *string) (Task, error) {
	var task Task
	err := s.db.GetContext(ctx, &task, sqlUpdateTaskProgress, taskID, status, progress, currentPhase)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Task{}, ErrNotFound
		}
		s.logger.Error(ctx, "failed to update task progress", err)
		return Task{}, fmt.Errorf("failed to update task progress: %w", err)
	}
	return task, nil
}
