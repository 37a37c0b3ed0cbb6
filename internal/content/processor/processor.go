package processor

import (
	"context"
	"errors"
	"fmt"
	"io"

	"collab-server/internal/clients/googleai"
	"collab-server/internal/observability"
	"collab-server/internal/store"

	"github.com/google/uuid"
)

// ContentStore defines the database operations required by ContentProcessor
type ContentStore interface {
	GetTaskByID(ctx context.Context, taskID uuid.UUID) (store.Task, error)
	GetCampaignByID(ctx context.Context, campaignID uuid.UUID) (store.Campaign, error)

	CreateDraft(ctx context.Context, params store.CreateDraftParams) (store.ContentDraft, error)
	GetDraftByID(ctx context.Context, draftID uuid.UUID) (store.ContentDraft, error)
	ListDraftsByTask(ctx context.Context, taskID uuid.UUID, sharedOnly bool) ([]store.ContentDraft, error)
	MarkDraftShared(ctx context.Context, draftID, taskID uuid.UUID) (store.ContentDraft, error)

	CreateUpload(ctx context.Context, params store.CreateUploadParams) (store.TaskUpload, error)
	ListUploadsByTask(ctx context.Context, taskID uuid.UUID) ([]store.TaskUpload, error)

	GetPublishedContentByID(ctx context.Context, publishedID uuid.UUID) (store.PublishedContent, error)
	ListPublishedByTask(ctx context.Context, taskID uuid.UUID) ([]store.PublishedContent, error)
	UpsertAnalytics(ctx context.Context, params store.UpsertAnalyticsParams) (store.ContentAnalytics, error)
	GetAnalyticsByPublishedContent(ctx context.Context, publishedID uuid.UUID) (store.ContentAnalytics, error)
}

// PhaseAdvancer is the slice of the workflow orchestrator the content layer
// needs: seeding phases when a draft is shared and advancing the workflow
// when the influencer submits content.
type PhaseAdvancer interface {
	InitializePhases(ctx context.Context, taskID uuid.UUID) error
	CompletePhase(ctx context.Context, taskID uuid.UUID, phase string) error
	GetPhaseStatus(ctx context.Context, taskID uuid.UUID, phase string) (string, error)
}

// DraftGenerator produces an AI first draft of content requirements.
type DraftGenerator interface {
	GenerateRequirementDraft(ctx context.Context, req googleai.DraftRequest) (string, error)
}

// BlobStore persists uploaded file contents and returns a stable URL.
type BlobStore interface {
	Put(ctx context.Context, fileName string, contents io.Reader) (key, url string, size int64, err error)
}

var (
	ErrTaskNotFound      = errors.New("task not found")
	ErrDraftNotFound     = errors.New("draft not found")
	ErrPublishedNotFound = errors.New("published content not found")
	ErrEmptyDraft        = errors.New("draft content is empty")
)

type ContentProcessor struct {
	store     ContentStore
	phases    PhaseAdvancer
	generator DraftGenerator
	blobs     BlobStore
	logger    *observability.Logger
}

func New(contentStore ContentStore, phases PhaseAdvancer, generator DraftGenerator,
	blobs BlobStore, logger *observability.Logger) *ContentProcessor {
	return &ContentProcessor{
		store:     contentStore,
		phases:    phases,
		generator: generator,
		blobs:     blobs,
		logger:    logger,
	}
}

// CreateDraftParams represents parameters for authoring a requirements draft
type CreateDraftParams struct {
	TaskID      uuid.UUID
	Content     string
	AuthorID    uuid.UUID
	BrandEdited bool
}

// CreateDraft authors a requirements draft. Drafts always start unshared and
// invisible to the influencer.
func (p *ContentProcessor) CreateDraft(ctx context.Context, params CreateDraftParams) (store.ContentDraft, error) {
	if params.Content == "" {
		return store.ContentDraft{}, ErrEmptyDraft
	}
	if _, err := p.store.GetTaskByID(ctx, params.TaskID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.ContentDraft{}, ErrTaskNotFound
		}
		return store.ContentDraft{}, fmt.Errorf("failed to load task: %w", err)
	}

	draft, err := p.store.CreateDraft(ctx, store.CreateDraftParams{
		TaskID:      params.TaskID,
		Content:     params.Content,
		AuthorID:    params.AuthorID,
		BrandEdited: params.BrandEdited,
	})
	if err != nil {
		return store.ContentDraft{}, fmt.Errorf("failed to create draft: %w", err)
	}
	return draft, nil
}

// GenerateDraft seeds a requirements draft from the AI generator. Generation
// failure degrades to an empty seed the brand can fill in by hand; it never
// fails the operation.
func (p *ContentProcessor) GenerateDraft(ctx context.Context, taskID, authorID uuid.UUID, notes string) (store.ContentDraft, error) {
	task, err := p.store.GetTaskByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.ContentDraft{}, ErrTaskNotFound
		}
		return store.ContentDraft{}, fmt.Errorf("failed to load task: %w", err)
	}

	req := googleai.DraftRequest{
		TaskTitle: task.Title,
		TaskType:  task.TaskType,
		Notes:     notes,
	}
	if campaign, err := p.store.GetCampaignByID(ctx, task.CampaignID); err == nil {
		req.CampaignName = campaign.Name
		req.Platforms = campaign.Platforms
	}

	content := ""
	aiGenerated := false
	if p.generator != nil {
		generated, err := p.generator.GenerateRequirementDraft(ctx, req)
		if err != nil {
			p.logger.InfoWithError(ctx, "draft generation degraded to empty seed", err)
		} else {
			content = generated
			aiGenerated = true
		}
	}

	draft, err := p.store.CreateDraft(ctx, store.CreateDraftParams{
		TaskID:      taskID,
		Content:     content,
		AuthorID:    authorID,
		AIGenerated: aiGenerated,
	})
	if err != nil {
		return store.ContentDraft{}, fmt.Errorf("failed to create draft: %w", err)
	}
	return draft, nil
}

// GetDraft returns one draft by ID
func (p *ContentProcessor) GetDraft(ctx context.Context, draftID uuid.UUID) (store.ContentDraft, error) {
	draft, err := p.store.GetDraftByID(ctx, draftID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.ContentDraft{}, ErrDraftNotFound
		}
		return store.ContentDraft{}, fmt.Errorf("failed to load draft: %w", err)
	}
	return draft, nil
}

// ShareDraft makes a draft visible to the influencer and seeds the task's
// workflow phases if they do not exist yet.
func (p *ContentProcessor) ShareDraft(ctx context.Context, draftID uuid.UUID) (store.ContentDraft, error) {
	draft, err := p.store.GetDraftByID(ctx, draftID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.ContentDraft{}, ErrDraftNotFound
		}
		return store.ContentDraft{}, fmt.Errorf("failed to load draft: %w", err)
	}

	draft, err = p.store.MarkDraftShared(ctx, draft.ID, draft.TaskID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.ContentDraft{}, ErrDraftNotFound
		}
		return store.ContentDraft{}, fmt.Errorf("failed to share draft: %w", err)
	}

	if err := p.phases.InitializePhases(ctx, draft.TaskID); err != nil {
		return store.ContentDraft{}, fmt.Errorf("draft shared but phase initialization failed: %w", err)
	}
	return draft, nil
}

// ListDrafts returns the drafts for a task visible to the caller's role.
// Influencers see only shared drafts.
func (p *ContentProcessor) ListDrafts(ctx context.Context, taskID uuid.UUID, role string) ([]store.ContentDraft, error) {
	sharedOnly := role == store.UserRoleInfluencer
	drafts, err := p.store.ListDraftsByTask(ctx, taskID, sharedOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to list drafts: %w", err)
	}
	return drafts, nil
}

// RecordUploadParams represents an influencer content submission
type RecordUploadParams struct {
	TaskID     uuid.UUID
	UploaderID uuid.UUID
	FileName   string
	MimeType   string
	Caption    *string
	Hashtags   *string
	Contents   io.Reader
}

// RecordUpload stores the file, appends the upload record and, when this is
// the first submission, completes the content requirement phase so the task
// enters review. Uploads are never mutated, only superseded.
func (p *ContentProcessor) RecordUpload(ctx context.Context, params RecordUploadParams) (store.TaskUpload, error) {
	task, err := p.store.GetTaskByID(ctx, params.TaskID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.TaskUpload{}, ErrTaskNotFound
		}
		return store.TaskUpload{}, fmt.Errorf("failed to load task: %w", err)
	}
	if task.InfluencerID != params.UploaderID {
		return store.TaskUpload{}, ErrTaskNotFound
	}

	_, url, size, err := p.blobs.Put(ctx, params.FileName, params.Contents)
	if err != nil {
		return store.TaskUpload{}, fmt.Errorf("failed to store upload: %w", err)
	}

	upload, err := p.store.CreateUpload(ctx, store.CreateUploadParams{
		TaskID:     task.ID,
		UploaderID: params.UploaderID,
		FileName:   params.FileName,
		FileURL:    url,
		MimeType:   params.MimeType,
		FileSize:   size,
		Caption:    params.Caption,
		Hashtags:   params.Hashtags,
	})
	if err != nil {
		return store.TaskUpload{}, fmt.Errorf("failed to record upload: %w", err)
	}

	status, err := p.phases.GetPhaseStatus(ctx, task.ID, store.PhaseContentRequirement)
	if err != nil {
		return upload, fmt.Errorf("upload recorded but phase lookup failed: %w", err)
	}
	if status == store.PhaseStatusInProgress {
		if err := p.phases.CompletePhase(ctx, task.ID, store.PhaseContentRequirement); err != nil {
			return upload, fmt.Errorf("upload recorded but phase advance failed: %w", err)
		}
	}
	return upload, nil
}

// ListUploads returns all uploads for a task, newest first
func (p *ContentProcessor) ListUploads(ctx context.Context, taskID uuid.UUID) ([]store.TaskUpload, error) {
	uploads, err := p.store.ListUploadsByTask(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to list uploads: %w", err)
	}
	return uploads, nil
}

// GetPublished returns one published content record by ID
func (p *ContentProcessor) GetPublished(ctx context.Context, publishedID uuid.UUID) (store.PublishedContent, error) {
	published, err := p.store.GetPublishedContentByID(ctx, publishedID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.PublishedContent{}, ErrPublishedNotFound
		}
		return store.PublishedContent{}, fmt.Errorf("failed to load published content: %w", err)
	}
	return published, nil
}

// AnalyticsMetrics holds raw platform metrics for one published content
type AnalyticsMetrics struct {
	Impressions int64
	Likes       int64
	Comments    int64
	Shares      int64
	Reach       int64
	Clicks      int64
	Saves       int64
}

// UpsertAnalytics writes the single analytics row for a published content,
// computing the engagement rate from the raw metrics. Zero impressions
// yields a zero rate.
func (p *ContentProcessor) UpsertAnalytics(ctx context.Context, publishedID uuid.UUID, metrics AnalyticsMetrics) (store.ContentAnalytics, error) {
	if _, err := p.store.GetPublishedContentByID(ctx, publishedID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.ContentAnalytics{}, ErrPublishedNotFound
		}
		return store.ContentAnalytics{}, fmt.Errorf("failed to load published content: %w", err)
	}

	analytics, err := p.store.UpsertAnalytics(ctx, store.UpsertAnalyticsParams{
		PublishedContentID: publishedID,
		Impressions:        metrics.Impressions,
		Likes:              metrics.Likes,
		Comments:           metrics.Comments,
		Shares:             metrics.Shares,
		Reach:              metrics.Reach,
		Clicks:             metrics.Clicks,
		Saves:              metrics.Saves,
		EngagementRate:     engagementRate(metrics),
	})
	if err != nil {
		return store.ContentAnalytics{}, fmt.Errorf("failed to upsert analytics: %w", err)
	}
	return analytics, nil
}

func engagementRate(m AnalyticsMetrics) float64 {
	if m.Impressions <= 0 {
		return 0
	}
	return float64(m.Likes+m.Comments+m.Shares) / float64(m.Impressions) * 100
}

// ListPublished returns the publish history for a task, newest first, with
// analytics attached where they exist.
func (p *ContentProcessor) ListPublished(ctx context.Context, taskID uuid.UUID) ([]store.PublishedContent, error) {
	published, err := p.store.ListPublishedByTask(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to list published content: %w", err)
	}
	for i := range published {
		analytics, err := p.store.GetAnalyticsByPublishedContent(ctx, published[i].ID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("failed to load analytics: %w", err)
		}
		published[i].Analytics = &analytics
	}
	return published, nil
}
