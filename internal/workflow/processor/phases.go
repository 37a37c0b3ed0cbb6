package processor

import (
	"context"
	"errors"
	"fmt"

	"collab-server/internal/observability"
	"collab-server/internal/store"

	"github.com/google/uuid"
)

// Task progress checkpoints reached when a phase becomes the active one.
var phaseProgress = map[string]int{
	store.PhaseContentRequirement: 10,
	store.PhaseContentReview:      40,
	store.PhasePublishAnalytics:   70,
}

// GetWorkflowStates returns all phase records for a task in phase order. An
// uninitialized task yields an empty slice, not an error.
func (p *WorkflowProcessor) GetWorkflowStates(ctx context.Context, taskID uuid.UUID) ([]store.WorkflowState, error) {
	states, err := p.store.GetWorkflowStates(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to get workflow states: %w", err)
	}
	return states, nil
}

// InitializePhases idempotently creates the three phase rows for a task,
// with content_requirement active and the rest not started. Re-invocation
// leaves existing rows untouched.
func (p *WorkflowProcessor) InitializePhases(ctx context.Context, taskID uuid.UUID) error {
	if _, err := p.store.GetTaskByID(ctx, taskID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrTaskNotFound
		}
		return fmt.Errorf("failed to load task: %w", err)
	}
	if err := p.store.InitializeWorkflowStates(ctx, taskID); err != nil {
		return fmt.Errorf("failed to initialize workflow states: %w", err)
	}
	p.invalidateVisibility(ctx, taskID)
	return nil
}

// TransitionPhase validates the phase ordering invariant against a snapshot
// read and writes the new status. The check is advisory under true
// concurrent writers.
func (p *WorkflowProcessor) TransitionPhase(ctx context.Context, taskID uuid.UUID, phase, newStatus string) (store.WorkflowState, error) {
	states, err := p.store.GetWorkflowStates(ctx, taskID)
	if err != nil {
		return store.WorkflowState{}, fmt.Errorf("failed to get workflow states: %w", err)
	}

	if err := validateTransition(states, phase, newStatus); err != nil {
		return store.WorkflowState{}, err
	}

	state, err := p.store.UpdateWorkflowStatus(ctx, taskID, phase, newStatus)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.WorkflowState{}, ErrInvalidTransition
		}
		return store.WorkflowState{}, fmt.Errorf("failed to update workflow status: %w", err)
	}

	p.invalidateVisibility(ctx, taskID)
	if newStatus == store.PhaseStatusCompleted && p.events != nil {
		var next *string
		if n := store.NextPhase(phase); n != "" {
			next = &n
		}
		p.events.PhaseCompleted(ctx, taskID, phase, next)
	}
	return state, nil
}

// validateTransition enforces the strict forward ordering of phases. The
// only backward edge is the content review resubmission loop (rejected back
// to in_progress); a started phase is never reset to not_started.
func validateTransition(states []store.WorkflowState, phase, newStatus string) error {
	idx := store.PhaseIndex(phase)
	if idx < 0 {
		return ErrInvalidTransition
	}

	switch newStatus {
	case store.PhaseStatusInProgress, store.PhaseStatusCompleted, store.PhaseStatusRejected:
	default:
		return ErrInvalidTransition
	}

	byPhase := make(map[string]string, len(states))
	for _, s := range states {
		byPhase[s.Phase] = s.Status
	}

	// A completed phase is final. The resubmission loop re-enters content
	// review from rejected, never from completed.
	if byPhase[phase] == store.PhaseStatusCompleted && newStatus != store.PhaseStatusCompleted {
		return ErrInvalidTransition
	}

	// Every earlier phase must already be completed.
	for _, earlier := range store.PhaseOrder[:idx] {
		if byPhase[earlier] != store.PhaseStatusCompleted {
			return ErrInvalidTransition
		}
	}

	// At most one phase may be active; activating this phase is legal only
	// when no other phase is currently in progress.
	if newStatus == store.PhaseStatusInProgress {
		for _, s := range states {
			if s.Phase != phase && s.Status == store.PhaseStatusInProgress {
				return ErrInvalidTransition
			}
		}
	}

	return nil
}

// ActivateNextPhase sets the successor of completedPhase to in_progress if
// it has not started yet. A no-op for the last phase.
func (p *WorkflowProcessor) ActivateNextPhase(ctx context.Context, taskID uuid.UUID, completedPhase string) error {
	next := store.NextPhase(completedPhase)
	if next == "" {
		return nil
	}

	state, err := p.store.GetWorkflowState(ctx, taskID, next)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrInvalidTransition
		}
		return fmt.Errorf("failed to get workflow state: %w", err)
	}
	if state.Status != store.PhaseStatusNotStarted {
		return nil
	}

	if _, err := p.store.UpdateWorkflowStatus(ctx, taskID, next, store.PhaseStatusInProgress); err != nil {
		return fmt.Errorf("failed to activate next phase: %w", err)
	}
	p.invalidateVisibility(ctx, taskID)
	return nil
}

// CompletePhase completes one phase, activates its successor and moves the
// task's status, progress and current phase pointer accordingly.
func (p *WorkflowProcessor) CompletePhase(ctx context.Context, taskID uuid.UUID, phase string) error {
	ctx = observability.WithFields(ctx, observability.Field{Key: "phase", Value: phase})

	if _, err := p.TransitionPhase(ctx, taskID, phase, store.PhaseStatusCompleted); err != nil {
		return err
	}
	if err := p.ActivateNextPhase(ctx, taskID, phase); err != nil {
		return err
	}

	status, progress, currentPhase := taskStateAfterPhase(phase)
	if _, err := p.store.UpdateTaskProgress(ctx, taskID, status, progress, currentPhase); err != nil {
		return fmt.Errorf("failed to update task progress: %w", err)
	}

	p.logger.Info(ctx, "workflow phase completed")
	return nil
}

// taskStateAfterPhase maps a completed phase to the task's overall status,
// progress checkpoint and current phase pointer.
func taskStateAfterPhase(completedPhase string) (string, int, *string) {
	next := store.NextPhase(completedPhase)
	if next == "" {
		return store.TaskStatusPublished, 100, nil
	}
	status := store.TaskStatusInProgress
	if next == store.PhaseContentReview {
		status = store.TaskStatusInReview
	}
	return status, phaseProgress[next], &next
}
