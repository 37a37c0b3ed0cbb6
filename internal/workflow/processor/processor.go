package processor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"collab-server/internal/observability"
	"collab-server/internal/store"

	"github.com/google/uuid"
)

// WorkflowStore defines the database operations required by WorkflowProcessor
type WorkflowStore interface {
	// Participants
	GetParticipantByID(ctx context.Context, participantID uuid.UUID) (store.CampaignParticipant, error)
	UpdateParticipantStage(ctx context.Context, participantID uuid.UUID, stage string) (store.CampaignParticipant, error)

	// Campaigns
	GetCampaignByID(ctx context.Context, campaignID uuid.UUID) (store.Campaign, error)

	// Tasks
	CreateTask(ctx context.Context, params store.CreateTaskParams) (store.Task, error)
	GetTaskByID(ctx context.Context, taskID uuid.UUID) (store.Task, error)
	GetTaskByParticipantAndType(ctx context.Context, participantID uuid.UUID, taskType string) (store.Task, error)
	ListTasksByCampaign(ctx context.Context, campaignID uuid.UUID) ([]store.Task, error)
	ListTasksByInfluencer(ctx context.Context, influencerID uuid.UUID) ([]store.Task, error)
	UpdateTaskProgress(ctx context.Context, taskID uuid.UUID, status string, progress int, currentPhase *string) (store.Task, error)

	// Workflow states
	GetWorkflowStates(ctx context.Context, taskID uuid.UUID) ([]store.WorkflowState, error)
	GetWorkflowState(ctx context.Context, taskID uuid.UUID, phase string) (store.WorkflowState, error)
	InitializeWorkflowStates(ctx context.Context, taskID uuid.UUID) error
	UpdateWorkflowStatus(ctx context.Context, taskID uuid.UUID, phase, status string) (store.WorkflowState, error)

	// Content artifacts
	CreateDraft(ctx context.Context, params store.CreateDraftParams) (store.ContentDraft, error)
	ListDraftsByTask(ctx context.Context, taskID uuid.UUID, sharedOnly bool) ([]store.ContentDraft, error)
	MarkDraftShared(ctx context.Context, draftID, taskID uuid.UUID) (store.ContentDraft, error)
	GetUploadByID(ctx context.Context, uploadID uuid.UUID) (store.TaskUpload, error)
	CreatePublishedContent(ctx context.Context, params store.CreatePublishedContentParams) (store.PublishedContent, error)
}

// ReviewEngine records review decisions. Validation of the decision payload
// (rejections need feedback) lives behind this boundary.
type ReviewEngine interface {
	CreateReview(ctx context.Context, taskID, uploadID uuid.UUID, decision, feedback string, reviewerID uuid.UUID) (store.ContentReview, error)
}

// EventPublisher emits workflow events. Emission is best effort and never
// fails a workflow operation.
type EventPublisher interface {
	TaskCreated(ctx context.Context, taskID, campaignID uuid.UUID, taskType string)
	PhaseCompleted(ctx context.Context, taskID uuid.UUID, phase string, nextPhase *string)
	UploadReviewed(ctx context.Context, taskID, uploadID uuid.UUID, status string)
	ContentPublished(ctx context.Context, taskID, publishedID uuid.UUID, platform string)
}

// VisibilityCache caches per-role phase visibility maps. A nil cache is a
// valid no-op cache.
type VisibilityCache interface {
	GetJSON(ctx context.Context, key string, dest interface{}) (bool, error)
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

var (
	ErrCampaignNotFound       = errors.New("campaign not found")
	ErrTaskNotFound           = errors.New("task not found")
	ErrParticipantNotFound    = errors.New("participant not found")
	ErrParticipantNotAccepted = errors.New("participant has not accepted the campaign")
	ErrUploadNotFound         = errors.New("upload not found")
	ErrInvalidTransition      = errors.New("invalid phase transition")
	ErrPartialFailure         = errors.New("workflow operation partially completed")
)

// PartialFailureError reports a compound operation that failed after earlier
// steps already wrote state. Retrying the same operation is safe: every step
// re-checks existence before creating rows.
type PartialFailureError struct {
	Step string
	Err  error
}

func (e *PartialFailureError) Error() string {
	return fmt.Sprintf("step %s failed after earlier steps succeeded: %v", e.Step, e.Err)
}

func (e *PartialFailureError) Unwrap() error { return e.Err }

func (e *PartialFailureError) Is(target error) bool { return target == ErrPartialFailure }

// WorkflowProcessor coordinates task workflow operations so that workflow
// states, content artifacts and reviews stay consistent.
type WorkflowProcessor struct {
	store        WorkflowStore
	reviewEngine ReviewEngine
	events       EventPublisher
	cache        VisibilityCache
	logger       *observability.Logger
}

func New(workflowStore WorkflowStore, reviewEngine ReviewEngine, events EventPublisher,
	cache VisibilityCache, logger *observability.Logger) *WorkflowProcessor {
	return &WorkflowProcessor{
		store:        workflowStore,
		reviewEngine: reviewEngine,
		events:       events,
		cache:        cache,
		logger:       logger,
	}
}

// ShareRequirementsParams represents parameters for sharing content
// requirements with a campaign participant.
type ShareRequirementsParams struct {
	CampaignID    uuid.UUID
	ParticipantID uuid.UUID
	Title         string
	Requirements  string
	TaskType      string
	Deadline      *time.Time
	BrandID       uuid.UUID
}

// ShareRequirementsResult is the task and shared draft produced by
// ShareRequirements.
type ShareRequirementsResult struct {
	Task  store.Task         `json:"task"`
	Draft store.ContentDraft `json:"draft"`
}

// ShareRequirements creates (or re-enters) the task for a participant, seeds
// its workflow phases, shares the requirements draft and moves the
// participant into content creation. Steps run without a cross-step
// transaction; a mid-sequence failure is reported as a PartialFailureError
// and a retry completes the remaining steps.
func (p *WorkflowProcessor) ShareRequirements(ctx context.Context, params ShareRequirementsParams) (ShareRequirementsResult, error) {
	participant, err := p.store.GetParticipantByID(ctx, params.ParticipantID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ShareRequirementsResult{}, ErrParticipantNotFound
		}
		return ShareRequirementsResult{}, fmt.Errorf("failed to load participant: %w", err)
	}
	if participant.CampaignID != params.CampaignID {
		return ShareRequirementsResult{}, ErrParticipantNotFound
	}
	if participant.Status != store.ParticipantStatusAccepted {
		return ShareRequirementsResult{}, ErrParticipantNotAccepted
	}

	ctx = observability.WithFields(ctx,
		observability.Field{Key: "participant_id", Value: params.ParticipantID.String()})

	task, created, err := p.findOrCreateTask(ctx, participant, params)
	if err != nil {
		return ShareRequirementsResult{}, err
	}
	ctx = observability.WithFields(ctx, observability.Field{Key: "task_id", Value: task.ID.String()})
	if created && p.events != nil {
		p.events.TaskCreated(ctx, task.ID, task.CampaignID, task.TaskType)
	}

	if err := p.store.InitializeWorkflowStates(ctx, task.ID); err != nil {
		p.logger.Error(ctx, "share requirements failed at phase initialization", err)
		return ShareRequirementsResult{}, &PartialFailureError{Step: "initialize_phases", Err: err}
	}

	draft, found, err := p.findSharedDraft(ctx, task.ID, params.Requirements)
	if err != nil {
		p.logger.Error(ctx, "share requirements failed at draft lookup", err)
		return ShareRequirementsResult{}, &PartialFailureError{Step: "create_draft", Err: err}
	}
	if !found {
		draft, err = p.store.CreateDraft(ctx, store.CreateDraftParams{
			TaskID:   task.ID,
			Content:  params.Requirements,
			AuthorID: params.BrandID,
		})
		if err != nil {
			p.logger.Error(ctx, "share requirements failed at draft creation", err)
			return ShareRequirementsResult{}, &PartialFailureError{Step: "create_draft", Err: err}
		}

		draft, err = p.store.MarkDraftShared(ctx, draft.ID, task.ID)
		if err != nil {
			p.logger.Error(ctx, "share requirements failed at draft sharing", err)
			return ShareRequirementsResult{}, &PartialFailureError{Step: "share_draft", Err: err}
		}
	}

	if _, err := p.store.UpdateParticipantStage(ctx, participant.ID, store.ParticipantStageContentCreation); err != nil {
		p.logger.Error(ctx, "share requirements failed at participant stage update", err)
		return ShareRequirementsResult{}, &PartialFailureError{Step: "update_participant_stage", Err: err}
	}

	currentPhase := store.PhaseContentRequirement
	task, err = p.store.UpdateTaskProgress(ctx, task.ID, store.TaskStatusInProgress,
		phaseProgress[store.PhaseContentRequirement], &currentPhase)
	if err != nil {
		p.logger.Error(ctx, "share requirements failed at task progress update", err)
		return ShareRequirementsResult{}, &PartialFailureError{Step: "update_task_progress", Err: err}
	}

	p.invalidateVisibility(ctx, task.ID)
	p.logger.Info(ctx, "requirements shared with participant")
	return ShareRequirementsResult{Task: task, Draft: draft}, nil
}

func (p *WorkflowProcessor) findOrCreateTask(ctx context.Context, participant store.CampaignParticipant,
	params ShareRequirementsParams) (store.Task, bool, error) {
	task, err := p.store.GetTaskByParticipantAndType(ctx, participant.ID, params.TaskType)
	if err == nil {
		return task, false, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return store.Task{}, false, fmt.Errorf("failed to look up existing task: %w", err)
	}

	title := params.Title
	if title == "" {
		title = fmt.Sprintf("%s deliverable", params.TaskType)
	}
	task, err = p.store.CreateTask(ctx, store.CreateTaskParams{
		CampaignID:    participant.CampaignID,
		InfluencerID:  participant.InfluencerID,
		ParticipantID: participant.ID,
		Title:         title,
		Description:   params.Requirements,
		TaskType:      params.TaskType,
		Deadline:      params.Deadline,
	})
	if err != nil {
		return store.Task{}, false, fmt.Errorf("failed to create task: %w", err)
	}
	return task, true, nil
}

// findSharedDraft looks for a draft already shared with the same
// requirements text, so a retried ShareRequirements reuses it instead of
// authoring a second one.
func (p *WorkflowProcessor) findSharedDraft(ctx context.Context, taskID uuid.UUID, requirements string) (store.ContentDraft, bool, error) {
	drafts, err := p.store.ListDraftsByTask(ctx, taskID, true)
	if err != nil {
		return store.ContentDraft{}, false, fmt.Errorf("failed to list shared drafts: %w", err)
	}
	for _, draft := range drafts {
		if draft.Content == requirements {
			return draft, true, nil
		}
	}
	return store.ContentDraft{}, false, nil
}

// ReviewUploadParams represents a brand decision on one upload.
type ReviewUploadParams struct {
	TaskID     uuid.UUID
	UploadID   uuid.UUID
	Decision   string
	Feedback   string
	ReviewerID uuid.UUID
}

// ReviewUpload records the review decision and, on approval, completes the
// content review phase and activates publish analytics. A rejection leaves
// the phase active so the influencer can resubmit.
func (p *WorkflowProcessor) ReviewUpload(ctx context.Context, params ReviewUploadParams) (store.ContentReview, error) {
	task, err := p.store.GetTaskByID(ctx, params.TaskID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.ContentReview{}, ErrTaskNotFound
		}
		return store.ContentReview{}, fmt.Errorf("failed to load task: %w", err)
	}

	upload, err := p.store.GetUploadByID(ctx, params.UploadID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.ContentReview{}, ErrUploadNotFound
		}
		return store.ContentReview{}, fmt.Errorf("failed to load upload: %w", err)
	}
	if upload.TaskID != task.ID {
		return store.ContentReview{}, ErrUploadNotFound
	}

	inReview, err := p.IsInReviewPhase(ctx, task.ID)
	if err != nil {
		return store.ContentReview{}, err
	}
	if !inReview {
		return store.ContentReview{}, ErrInvalidTransition
	}

	review, err := p.reviewEngine.CreateReview(ctx, task.ID, upload.ID, params.Decision, params.Feedback, params.ReviewerID)
	if err != nil {
		return store.ContentReview{}, err
	}
	if p.events != nil {
		p.events.UploadReviewed(ctx, task.ID, upload.ID, review.Status)
	}

	if review.Status != store.ReviewStatusApproved {
		return review, nil
	}

	// Approval completes content review and unlocks publishing. The review
	// row already exists, so a failure here must surface for retry.
	if err := p.CompletePhase(ctx, task.ID, store.PhaseContentReview); err != nil {
		p.logger.Error(ctx, "review recorded but phase transition failed", err)
		return review, &PartialFailureError{Step: "complete_review_phase", Err: err}
	}
	return review, nil
}

// PublishContentParams represents an influencer publishing content live.
type PublishContentParams struct {
	TaskID       uuid.UUID
	InfluencerID uuid.UUID
	Platform     string
	URL          string
	Notes        *string
}

// PublishContent records the live content and completes the final workflow
// phase. Publishing requires the content review phase to be completed.
func (p *WorkflowProcessor) PublishContent(ctx context.Context, params PublishContentParams) (store.PublishedContent, error) {
	task, err := p.store.GetTaskByID(ctx, params.TaskID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.PublishedContent{}, ErrTaskNotFound
		}
		return store.PublishedContent{}, fmt.Errorf("failed to load task: %w", err)
	}
	if task.InfluencerID != params.InfluencerID {
		return store.PublishedContent{}, ErrTaskNotFound
	}

	reviewStatus, err := p.GetPhaseStatus(ctx, task.ID, store.PhaseContentReview)
	if err != nil {
		return store.PublishedContent{}, err
	}
	if reviewStatus != store.PhaseStatusCompleted {
		return store.PublishedContent{}, ErrInvalidTransition
	}

	published, err := p.store.CreatePublishedContent(ctx, store.CreatePublishedContentParams{
		TaskID:       task.ID,
		InfluencerID: params.InfluencerID,
		Platform:     params.Platform,
		URL:          params.URL,
		Notes:        params.Notes,
	})
	if err != nil {
		return store.PublishedContent{}, fmt.Errorf("failed to record published content: %w", err)
	}
	if p.events != nil {
		p.events.ContentPublished(ctx, task.ID, published.ID, published.Platform)
	}

	if err := p.CompletePhase(ctx, task.ID, store.PhasePublishAnalytics); err != nil {
		p.logger.Error(ctx, "content recorded but phase completion failed", err)
		return published, &PartialFailureError{Step: "complete_publish_phase", Err: err}
	}
	return published, nil
}
