package processor

import (
	"context"
	"errors"
	"fmt"

	"collab-server/internal/store"

	"github.com/google/uuid"
)

// GetTask returns a task the caller is allowed to see. Influencers see their
// own tasks, brands see tasks of campaigns they own. Callers outside either
// set get a not found rather than a permission hint.
func (p *WorkflowProcessor) GetTask(ctx context.Context, taskID, callerID uuid.UUID, role string) (store.Task, error) {
	task, err := p.store.GetTaskByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.Task{}, ErrTaskNotFound
		}
		return store.Task{}, fmt.Errorf("failed to load task: %w", err)
	}
	if err := p.authorizeTaskAccess(ctx, task, callerID, role); err != nil {
		return store.Task{}, err
	}
	return task, nil
}

// ListCampaignTasks lists tasks of a campaign. The owning brand sees every
// task; a participating influencer sees only their own.
func (p *WorkflowProcessor) ListCampaignTasks(ctx context.Context, campaignID, callerID uuid.UUID, role string) ([]store.Task, error) {
	campaign, err := p.store.GetCampaignByID(ctx, campaignID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrCampaignNotFound
		}
		return nil, fmt.Errorf("failed to load campaign: %w", err)
	}

	tasks, err := p.store.ListTasksByCampaign(ctx, campaignID)
	if err != nil {
		return nil, fmt.Errorf("failed to list campaign tasks: %w", err)
	}

	switch role {
	case store.UserRoleBrand:
		if campaign.BrandID != callerID {
			return nil, ErrCampaignNotFound
		}
		return tasks, nil
	case store.UserRoleInfluencer:
		own := make([]store.Task, 0, len(tasks))
		for _, task := range tasks {
			if task.InfluencerID == callerID {
				own = append(own, task)
			}
		}
		return own, nil
	default:
		return nil, ErrCampaignNotFound
	}
}

// ListInfluencerTasks lists every task assigned to an influencer
func (p *WorkflowProcessor) ListInfluencerTasks(ctx context.Context, influencerID uuid.UUID) ([]store.Task, error) {
	tasks, err := p.store.ListTasksByInfluencer(ctx, influencerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list influencer tasks: %w", err)
	}
	return tasks, nil
}

func (p *WorkflowProcessor) authorizeTaskAccess(ctx context.Context, task store.Task, callerID uuid.UUID, role string) error {
	switch role {
	case store.UserRoleInfluencer:
		if task.InfluencerID != callerID {
			return ErrTaskNotFound
		}
	case store.UserRoleBrand:
		campaign, err := p.store.GetCampaignByID(ctx, task.CampaignID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrTaskNotFound
			}
			return fmt.Errorf("failed to load campaign: %w", err)
		}
		if campaign.BrandID != callerID {
			return ErrTaskNotFound
		}
	default:
		return ErrTaskNotFound
	}
	return nil
}
