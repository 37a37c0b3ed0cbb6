package processor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"collab-server/internal/store"

	"github.com/google/uuid"
)

const visibilityCacheTTL = 30 * time.Second

// GetPhaseStatus returns the status of one phase for a task. An absent
// record reads as not_started.
func (p *WorkflowProcessor) GetPhaseStatus(ctx context.Context, taskID uuid.UUID, phase string) (string, error) {
	state, err := p.store.GetWorkflowState(ctx, taskID, phase)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.PhaseStatusNotStarted, nil
		}
		return "", fmt.Errorf("failed to get workflow state: %w", err)
	}
	return state.Status, nil
}

// IsPhaseVisible reports whether a phase is visible to the given role.
// Influencers see only phases that have started and whose predecessors are
// all completed; brands see every phase up to the furthest one reached.
func (p *WorkflowProcessor) IsPhaseVisible(ctx context.Context, taskID uuid.UUID, phase, role string) (bool, error) {
	states, err := p.store.GetWorkflowStates(ctx, taskID)
	if err != nil {
		return false, fmt.Errorf("failed to get workflow states: %w", err)
	}
	return visibilityMap(states, role)[phase], nil
}

// CheckPhaseVisibility returns the visibility of every phase for a role in
// one call. Results are cached per (task, role) and invalidated by any phase
// transition for the task.
func (p *WorkflowProcessor) CheckPhaseVisibility(ctx context.Context, taskID uuid.UUID, role string) (map[string]bool, error) {
	key := visibilityCacheKey(taskID, role)
	if p.cache != nil {
		cached := make(map[string]bool)
		hit, err := p.cache.GetJSON(ctx, key, &cached)
		if err != nil {
			p.logger.InfoWithError(ctx, "visibility cache read failed", err)
		} else if hit {
			return cached, nil
		}
	}

	states, err := p.store.GetWorkflowStates(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to get workflow states: %w", err)
	}
	visibility := visibilityMap(states, role)

	if p.cache != nil {
		if err := p.cache.SetJSON(ctx, key, visibility, visibilityCacheTTL); err != nil {
			p.logger.InfoWithError(ctx, "visibility cache write failed", err)
		}
	}
	return visibility, nil
}

// IsInReviewPhase reports whether the content review phase is currently
// active. This gates the brand's review actions: uploads existing is not
// enough, the phase itself must be active.
func (p *WorkflowProcessor) IsInReviewPhase(ctx context.Context, taskID uuid.UUID) (bool, error) {
	status, err := p.GetPhaseStatus(ctx, taskID, store.PhaseContentReview)
	if err != nil {
		return false, err
	}
	return status == store.PhaseStatusInProgress || status == store.PhaseStatusRejected, nil
}

// visibilityMap computes per-phase visibility from a snapshot of workflow
// states. Rejected counts as started: the resubmission loop keeps the phase
// active.
func visibilityMap(states []store.WorkflowState, role string) map[string]bool {
	byPhase := make(map[string]string, len(states))
	for _, s := range states {
		byPhase[s.Phase] = s.Status
	}

	visibility := make(map[string]bool, len(store.PhaseOrder))

	if role == store.UserRoleBrand {
		// Brands see everything up to the furthest phase reached.
		furthest := 0
		for i, phase := range store.PhaseOrder {
			if started(byPhase[phase]) {
				furthest = i
			}
		}
		for i, phase := range store.PhaseOrder {
			visibility[phase] = i <= furthest
		}
		return visibility
	}

	for i, phase := range store.PhaseOrder {
		visible := started(byPhase[phase])
		for _, earlier := range store.PhaseOrder[:i] {
			if byPhase[earlier] != store.PhaseStatusCompleted {
				visible = false
				break
			}
		}
		visibility[phase] = visible
	}
	return visibility
}

func started(status string) bool {
	switch status {
	case store.PhaseStatusInProgress, store.PhaseStatusCompleted, store.PhaseStatusRejected:
		return true
	}
	return false
}

func visibilityCacheKey(taskID uuid.UUID, role string) string {
	return fmt.Sprintf("visibility:%s:%s", taskID, role)
}

func (p *WorkflowProcessor) invalidateVisibility(ctx context.Context, taskID uuid.UUID) {
	if p.cache == nil {
		return
	}
	err := p.cache.Del(ctx,
		visibilityCacheKey(taskID, store.UserRoleBrand),
		visibilityCacheKey(taskID, store.UserRoleInfluencer))
	if err != nil {
		p.logger.InfoWithError(ctx, "visibility cache invalidation failed", err)
	}
}
