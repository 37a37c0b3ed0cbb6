package processor

import (
	"context"
	"errors"
	"testing"
	"time"

	"collab-server/internal/observability"
	"collab-server/internal/store"

	"github.com/google/uuid"
)

// fakeWorkflowStore is a stateful in-memory WorkflowStore
type fakeWorkflowStore struct {
	campaigns    map[uuid.UUID]store.Campaign
	participants map[uuid.UUID]store.CampaignParticipant
	tasks        map[uuid.UUID]store.Task
	states       map[uuid.UUID]map[string]store.WorkflowState
	drafts       map[uuid.UUID]store.ContentDraft
	uploads      map[uuid.UUID]store.TaskUpload
	published    map[uuid.UUID]store.PublishedContent
}

func newFakeWorkflowStore() *fakeWorkflowStore {
	return &fakeWorkflowStore{
		campaigns:    make(map[uuid.UUID]store.Campaign),
		participants: make(map[uuid.UUID]store.CampaignParticipant),
		tasks:        make(map[uuid.UUID]store.Task),
		states:       make(map[uuid.UUID]map[string]store.WorkflowState),
		drafts:       make(map[uuid.UUID]store.ContentDraft),
		uploads:      make(map[uuid.UUID]store.TaskUpload),
		published:    make(map[uuid.UUID]store.PublishedContent),
	}
}

func (f *fakeWorkflowStore) GetCampaignByID(ctx context.Context, campaignID uuid.UUID) (store.Campaign, error) {
	c, ok := f.campaigns[campaignID]
	if !ok {
		return store.Campaign{}, store.ErrNotFound
	}
	return c, nil
}

func (f *fakeWorkflowStore) GetParticipantByID(ctx context.Context, participantID uuid.UUID) (store.CampaignParticipant, error) {
	p, ok := f.participants[participantID]
	if !ok {
		return store.CampaignParticipant{}, store.ErrNotFound
	}
	return p, nil
}

func (f *fakeWorkflowStore) UpdateParticipantStage(ctx context.Context, participantID uuid.UUID, stage string) (store.CampaignParticipant, error) {
	p, ok := f.participants[participantID]
	if !ok {
		return store.CampaignParticipant{}, store.ErrNotFound
	}
	p.Stage = stage
	f.participants[participantID] = p
	return p, nil
}

func (f *fakeWorkflowStore) CreateTask(ctx context.Context, params store.CreateTaskParams) (store.Task, error) {
	task := store.Task{
		ID:            uuid.New(),
		CampaignID:    params.CampaignID,
		InfluencerID:  params.InfluencerID,
		ParticipantID: params.ParticipantID,
		Title:         params.Title,
		Description:   params.Description,
		TaskType:      params.TaskType,
		Status:        store.TaskStatusPending,
		Deadline:      params.Deadline,
		CreatedAt:     time.Now(),
	}
	f.tasks[task.ID] = task
	return task, nil
}

func (f *fakeWorkflowStore) GetTaskByID(ctx context.Context, taskID uuid.UUID) (store.Task, error) {
	t, ok := f.tasks[taskID]
	if !ok {
		return store.Task{}, store.ErrNotFound
	}
	return t, nil
}

func (f *fakeWorkflowStore) GetTaskByParticipantAndType(ctx context.Context, participantID uuid.UUID, taskType string) (store.Task, error) {
	for _, t := range f.tasks {
		if t.ParticipantID == participantID && t.TaskType == taskType {
			return t, nil
		}
	}
	return store.Task{}, store.ErrNotFound
}

func (f *fakeWorkflowStore) ListTasksByCampaign(ctx context.Context, campaignID uuid.UUID) ([]store.Task, error) {
	var out []store.Task
	for _, t := range f.tasks {
		if t.CampaignID == campaignID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeWorkflowStore) ListTasksByInfluencer(ctx context.Context, influencerID uuid.UUID) ([]store.Task, error) {
	var out []store.Task
	for _, t := range f.tasks {
		if t.InfluencerID == influencerID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeWorkflowStore) UpdateTaskProgress(ctx context.Context, taskID uuid.UUID, status string, progress int, currentPhase *string) (store.Task, error) {
	t, ok := f.tasks[taskID]
	if !ok {
		return store.Task{}, store.ErrNotFound
	}
	t.Status = status
	t.Progress = progress
	t.CurrentPhase = currentPhase
	f.tasks[taskID] = t
	return t, nil
}

func (f *fakeWorkflowStore) GetWorkflowStates(ctx context.Context, taskID uuid.UUID) ([]store.WorkflowState, error) {
	var out []store.WorkflowState
	for _, phase := range store.PhaseOrder {
		if s, ok := f.states[taskID][phase]; ok {
			out = append(out, s)
		}
	}
	if out == nil {
		out = []store.WorkflowState{}
	}
	return out, nil
}

func (f *fakeWorkflowStore) GetWorkflowState(ctx context.Context, taskID uuid.UUID, phase string) (store.WorkflowState, error) {
	s, ok := f.states[taskID][phase]
	if !ok {
		return store.WorkflowState{}, store.ErrNotFound
	}
	return s, nil
}

func (f *fakeWorkflowStore) InitializeWorkflowStates(ctx context.Context, taskID uuid.UUID) error {
	if f.states[taskID] == nil {
		f.states[taskID] = make(map[string]store.WorkflowState)
	}
	for _, phase := range store.PhaseOrder {
		if _, ok := f.states[taskID][phase]; ok {
			continue
		}
		status := store.PhaseStatusNotStarted
		if phase == store.PhaseContentRequirement {
			status = store.PhaseStatusInProgress
		}
		f.states[taskID][phase] = store.WorkflowState{
			ID:     uuid.New(),
			TaskID: taskID,
			Phase:  phase,
			Status: status,
		}
	}
	return nil
}

func (f *fakeWorkflowStore) UpdateWorkflowStatus(ctx context.Context, taskID uuid.UUID, phase, status string) (store.WorkflowState, error) {
	s, ok := f.states[taskID][phase]
	if !ok {
		return store.WorkflowState{}, store.ErrNotFound
	}
	s.Status = status
	if status == store.PhaseStatusCompleted {
		now := time.Now()
		s.CompletedAt = &now
	}
	f.states[taskID][phase] = s
	return s, nil
}

func (f *fakeWorkflowStore) CreateDraft(ctx context.Context, params store.CreateDraftParams) (store.ContentDraft, error) {
	draft := store.ContentDraft{
		ID:          uuid.New(),
		TaskID:      params.TaskID,
		Content:     params.Content,
		AuthorID:    params.AuthorID,
		AIGenerated: params.AIGenerated,
		BrandEdited: params.BrandEdited,
	}
	f.drafts[draft.ID] = draft
	return draft, nil
}

func (f *fakeWorkflowStore) ListDraftsByTask(ctx context.Context, taskID uuid.UUID, sharedOnly bool) ([]store.ContentDraft, error) {
	var out []store.ContentDraft
	for _, d := range f.drafts {
		if d.TaskID != taskID {
			continue
		}
		if sharedOnly && !d.SharedWithInfluencer {
			continue
		}
		out = append(out, d)
	}
	return out, nil
}

func (f *fakeWorkflowStore) MarkDraftShared(ctx context.Context, draftID, taskID uuid.UUID) (store.ContentDraft, error) {
	d, ok := f.drafts[draftID]
	if !ok || d.TaskID != taskID {
		return store.ContentDraft{}, store.ErrNotFound
	}
	d.SharedWithInfluencer = true
	f.drafts[draftID] = d
	return d, nil
}

func (f *fakeWorkflowStore) GetUploadByID(ctx context.Context, uploadID uuid.UUID) (store.TaskUpload, error) {
	u, ok := f.uploads[uploadID]
	if !ok {
		return store.TaskUpload{}, store.ErrNotFound
	}
	return u, nil
}

func (f *fakeWorkflowStore) CreatePublishedContent(ctx context.Context, params store.CreatePublishedContentParams) (store.PublishedContent, error) {
	published := store.PublishedContent{
		ID:           uuid.New(),
		TaskID:       params.TaskID,
		InfluencerID: params.InfluencerID,
		Platform:     params.Platform,
		URL:          params.URL,
		Notes:        params.Notes,
		Status:       store.PublishedStatusActive,
		CreatedAt:    time.Now(),
	}
	f.published[published.ID] = published
	return published, nil
}

var errMissingFeedback = errors.New("feedback is required when rejecting")

// fakeReviewEngine records decisions without its own persistence
type fakeReviewEngine struct {
	reviews []store.ContentReview
}

func (f *fakeReviewEngine) CreateReview(ctx context.Context, taskID, uploadID uuid.UUID, decision, feedback string, reviewerID uuid.UUID) (store.ContentReview, error) {
	if decision == store.ReviewStatusRejected && feedback == "" {
		return store.ContentReview{}, errMissingFeedback
	}
	now := time.Now()
	review := store.ContentReview{
		ID:         uuid.New(),
		TaskID:     taskID,
		UploadID:   uploadID,
		Status:     decision,
		ReviewerID: reviewerID,
		ReviewedAt: &now,
	}
	if feedback != "" {
		review.Feedback = &feedback
	}
	f.reviews = append(f.reviews, review)
	return review, nil
}

func newTestProcessor() (*WorkflowProcessor, *fakeWorkflowStore, *fakeReviewEngine) {
	fakeStore := newFakeWorkflowStore()
	reviewEngine := &fakeReviewEngine{}
	logger := observability.NewLogger()
	return New(fakeStore, reviewEngine, nil, nil, logger), fakeStore, reviewEngine
}

func seedAcceptedParticipant(f *fakeWorkflowStore) store.CampaignParticipant {
	participant := store.CampaignParticipant{
		ID:           uuid.New(),
		CampaignID:   uuid.New(),
		InfluencerID: uuid.New(),
		Status:       store.ParticipantStatusAccepted,
		Stage:        store.ParticipantStageNegotiation,
	}
	f.participants[participant.ID] = participant
	return participant
}

// seedTaskInPhase creates a task whose workflow has advanced so that the
// given phase is in progress and all earlier phases are completed.
func seedTaskInPhase(f *fakeWorkflowStore, phase string) store.Task {
	task := store.Task{
		ID:           uuid.New(),
		CampaignID:   uuid.New(),
		InfluencerID: uuid.New(),
		TaskType:     store.TaskTypePost,
		Status:       store.TaskStatusInProgress,
	}
	f.tasks[task.ID] = task
	f.states[task.ID] = make(map[string]store.WorkflowState)
	target := store.PhaseIndex(phase)
	for i, p := range store.PhaseOrder {
		status := store.PhaseStatusNotStarted
		if i < target {
			status = store.PhaseStatusCompleted
		} else if i == target {
			status = store.PhaseStatusInProgress
		}
		f.states[task.ID][p] = store.WorkflowState{
			ID: uuid.New(), TaskID: task.ID, Phase: p, Status: status,
		}
	}
	return task
}

func phaseStatus(t *testing.T, f *fakeWorkflowStore, taskID uuid.UUID, phase string) string {
	t.Helper()
	s, ok := f.states[taskID][phase]
	if !ok {
		t.Fatalf("no workflow state for phase %s", phase)
	}
	return s.Status
}

func TestShareRequirements_CreatesTaskAndSharesDraft(t *testing.T) {
	processor, fakeStore, _ := newTestProcessor()
	participant := seedAcceptedParticipant(fakeStore)

	result, err := processor.ShareRequirements(context.Background(), ShareRequirementsParams{
		CampaignID:    participant.CampaignID,
		ParticipantID: participant.ID,
		Title:         "Launch posts",
		Requirements:  "Create 3 posts",
		TaskType:      store.TaskTypePost,
		BrandID:       uuid.New(),
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if result.Task.Description != "Create 3 posts" {
		t.Errorf("expected task description %q, got %q", "Create 3 posts", result.Task.Description)
	}
	if got := phaseStatus(t, fakeStore, result.Task.ID, store.PhaseContentRequirement); got != store.PhaseStatusInProgress {
		t.Errorf("expected content_requirement in_progress, got %s", got)
	}
	if got := phaseStatus(t, fakeStore, result.Task.ID, store.PhaseContentReview); got != store.PhaseStatusNotStarted {
		t.Errorf("expected content_review not_started, got %s", got)
	}
	if !result.Draft.SharedWithInfluencer {
		t.Error("expected draft to be shared with influencer")
	}
	if fakeStore.participants[participant.ID].Stage != store.ParticipantStageContentCreation {
		t.Errorf("expected participant stage content_creation, got %s", fakeStore.participants[participant.ID].Stage)
	}
	if result.Task.Status != store.TaskStatusInProgress {
		t.Errorf("expected task status in_progress, got %s", result.Task.Status)
	}
	if result.Task.CurrentPhase == nil || *result.Task.CurrentPhase != store.PhaseContentRequirement {
		t.Errorf("expected current phase content_requirement, got %v", result.Task.CurrentPhase)
	}
}

func TestShareRequirements_IdempotentReentry(t *testing.T) {
	processor, fakeStore, _ := newTestProcessor()
	participant := seedAcceptedParticipant(fakeStore)

	params := ShareRequirementsParams{
		CampaignID:    participant.CampaignID,
		ParticipantID: participant.ID,
		Requirements:  "Create 3 posts",
		TaskType:      store.TaskTypePost,
		BrandID:       uuid.New(),
	}

	first, err := processor.ShareRequirements(context.Background(), params)
	if err != nil {
		t.Fatalf("first call failed: %v", err)
	}
	second, err := processor.ShareRequirements(context.Background(), params)
	if err != nil {
		t.Fatalf("second call failed: %v", err)
	}

	if first.Task.ID != second.Task.ID {
		t.Errorf("expected re-entry to reuse task %s, got new task %s", first.Task.ID, second.Task.ID)
	}
	if len(fakeStore.tasks) != 1 {
		t.Errorf("expected 1 task, got %d", len(fakeStore.tasks))
	}
	if len(fakeStore.states[first.Task.ID]) != 3 {
		t.Errorf("expected 3 workflow states, got %d", len(fakeStore.states[first.Task.ID]))
	}
	if got := phaseStatus(t, fakeStore, first.Task.ID, store.PhaseContentRequirement); got != store.PhaseStatusInProgress {
		t.Errorf("expected content_requirement still in_progress, got %s", got)
	}
}

// flakyStageStore fails the participant stage update a set number of times
// before delegating to the in-memory store.
type flakyStageStore struct {
	*fakeWorkflowStore
	stageFailures int
}

func (f *flakyStageStore) UpdateParticipantStage(ctx context.Context, participantID uuid.UUID, stage string) (store.CampaignParticipant, error) {
	if f.stageFailures > 0 {
		f.stageFailures--
		return store.CampaignParticipant{}, errors.New("connection reset by peer")
	}
	return f.fakeWorkflowStore.UpdateParticipantStage(ctx, participantID, stage)
}

func TestShareRequirements_RetryAfterStageFailureReusesDraft(t *testing.T) {
	fakeStore := newFakeWorkflowStore()
	flaky := &flakyStageStore{fakeWorkflowStore: fakeStore, stageFailures: 1}
	processor := New(flaky, &fakeReviewEngine{}, nil, nil, observability.NewLogger())
	participant := seedAcceptedParticipant(fakeStore)

	params := ShareRequirementsParams{
		CampaignID:    participant.CampaignID,
		ParticipantID: participant.ID,
		Requirements:  "Create 3 posts",
		TaskType:      store.TaskTypePost,
		BrandID:       uuid.New(),
	}

	_, err := processor.ShareRequirements(context.Background(), params)
	if !errors.Is(err, ErrPartialFailure) {
		t.Fatalf("expected ErrPartialFailure on first call, got %v", err)
	}
	var partial *PartialFailureError
	if !errors.As(err, &partial) || partial.Step != "update_participant_stage" {
		t.Fatalf("expected failure at update_participant_stage, got %v", err)
	}

	result, err := processor.ShareRequirements(context.Background(), params)
	if err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if !result.Draft.SharedWithInfluencer {
		t.Error("expected retry to return the shared draft")
	}
	if len(fakeStore.drafts) != 1 {
		t.Errorf("expected retry to reuse the shared draft, got %d drafts", len(fakeStore.drafts))
	}
	if fakeStore.participants[participant.ID].Stage != store.ParticipantStageContentCreation {
		t.Errorf("expected participant stage content_creation after retry, got %s",
			fakeStore.participants[participant.ID].Stage)
	}
}

func TestShareRequirements_ParticipantNotAccepted(t *testing.T) {
	processor, fakeStore, _ := newTestProcessor()
	participant := store.CampaignParticipant{
		ID:         uuid.New(),
		CampaignID: uuid.New(),
		Status:     store.ParticipantStatusInvited,
	}
	fakeStore.participants[participant.ID] = participant

	_, err := processor.ShareRequirements(context.Background(), ShareRequirementsParams{
		CampaignID:    participant.CampaignID,
		ParticipantID: participant.ID,
		Requirements:  "Create 3 posts",
		TaskType:      store.TaskTypePost,
	})
	if !errors.Is(err, ErrParticipantNotAccepted) {
		t.Errorf("expected ErrParticipantNotAccepted, got %v", err)
	}
}

func TestInitializePhases_Idempotent(t *testing.T) {
	processor, fakeStore, _ := newTestProcessor()
	task := store.Task{ID: uuid.New()}
	fakeStore.tasks[task.ID] = task

	if err := processor.InitializePhases(context.Background(), task.ID); err != nil {
		t.Fatalf("first initialization failed: %v", err)
	}
	if err := processor.InitializePhases(context.Background(), task.ID); err != nil {
		t.Fatalf("second initialization failed: %v", err)
	}

	if len(fakeStore.states[task.ID]) != 3 {
		t.Errorf("expected exactly 3 workflow states, got %d", len(fakeStore.states[task.ID]))
	}
	if got := phaseStatus(t, fakeStore, task.ID, store.PhaseContentRequirement); got != store.PhaseStatusInProgress {
		t.Errorf("expected content_requirement in_progress after re-initialization, got %s", got)
	}
}

func TestTransitionPhase_EnforcesOrdering(t *testing.T) {
	processor, fakeStore, _ := newTestProcessor()
	task := seedTaskInPhase(fakeStore, store.PhaseContentRequirement)

	_, err := processor.TransitionPhase(context.Background(), task.ID, store.PhaseContentReview, store.PhaseStatusCompleted)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition completing content_review early, got %v", err)
	}

	_, err = processor.TransitionPhase(context.Background(), task.ID, store.PhasePublishAnalytics, store.PhaseStatusInProgress)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition activating publish_analytics early, got %v", err)
	}

	_, err = processor.TransitionPhase(context.Background(), task.ID, store.PhaseContentRequirement, store.PhaseStatusCompleted)
	if err != nil {
		t.Errorf("expected completing the active phase to succeed, got %v", err)
	}
}

func TestTransitionPhase_CompletedPhaseIsFinal(t *testing.T) {
	processor, fakeStore, _ := newTestProcessor()
	task := seedTaskInPhase(fakeStore, store.PhasePublishAnalytics)

	if _, err := processor.TransitionPhase(context.Background(), task.ID, store.PhasePublishAnalytics, store.PhaseStatusCompleted); err != nil {
		t.Fatalf("completing the final phase failed: %v", err)
	}

	_, err := processor.TransitionPhase(context.Background(), task.ID, store.PhaseContentRequirement, store.PhaseStatusInProgress)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition reactivating a completed phase, got %v", err)
	}
	if got := phaseStatus(t, fakeStore, task.ID, store.PhaseContentRequirement); got != store.PhaseStatusCompleted {
		t.Errorf("expected content_requirement to stay completed, got %s", got)
	}

	_, err = processor.TransitionPhase(context.Background(), task.ID, store.PhaseContentReview, store.PhaseStatusRejected)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition rejecting a completed phase, got %v", err)
	}
}

func TestTransitionPhase_RejectsResetToNotStarted(t *testing.T) {
	processor, fakeStore, _ := newTestProcessor()
	task := seedTaskInPhase(fakeStore, store.PhaseContentReview)

	_, err := processor.TransitionPhase(context.Background(), task.ID, store.PhaseContentReview, store.PhaseStatusNotStarted)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition resetting a started phase, got %v", err)
	}
}

func TestReviewUpload_ApprovalActivatesPublishPhase(t *testing.T) {
	processor, fakeStore, _ := newTestProcessor()
	task := seedTaskInPhase(fakeStore, store.PhaseContentReview)
	upload := store.TaskUpload{ID: uuid.New(), TaskID: task.ID, FileName: "photo.jpg"}
	fakeStore.uploads[upload.ID] = upload

	review, err := processor.ReviewUpload(context.Background(), ReviewUploadParams{
		TaskID:     task.ID,
		UploadID:   upload.ID,
		Decision:   store.ReviewStatusApproved,
		ReviewerID: uuid.New(),
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if review.Status != store.ReviewStatusApproved {
		t.Errorf("expected approved review, got %s", review.Status)
	}
	if got := phaseStatus(t, fakeStore, task.ID, store.PhaseContentReview); got != store.PhaseStatusCompleted {
		t.Errorf("expected content_review completed, got %s", got)
	}
	if got := phaseStatus(t, fakeStore, task.ID, store.PhasePublishAnalytics); got != store.PhaseStatusInProgress {
		t.Errorf("expected publish_analytics in_progress, got %s", got)
	}

	active := 0
	for _, s := range fakeStore.states[task.ID] {
		if s.Status == store.PhaseStatusInProgress {
			active++
		}
	}
	if active != 1 {
		t.Errorf("expected exactly 1 active phase, got %d", active)
	}
}

func TestReviewUpload_RejectionKeepsPhaseActive(t *testing.T) {
	processor, fakeStore, reviewEngine := newTestProcessor()
	task := seedTaskInPhase(fakeStore, store.PhaseContentReview)
	upload := store.TaskUpload{ID: uuid.New(), TaskID: task.ID, FileName: "photo.jpg"}
	fakeStore.uploads[upload.ID] = upload

	review, err := processor.ReviewUpload(context.Background(), ReviewUploadParams{
		TaskID:     task.ID,
		UploadID:   upload.ID,
		Decision:   store.ReviewStatusRejected,
		Feedback:   "Lighting is poor",
		ReviewerID: uuid.New(),
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if review.Status != store.ReviewStatusRejected {
		t.Errorf("expected rejected review, got %s", review.Status)
	}
	if review.Feedback == nil || *review.Feedback != "Lighting is poor" {
		t.Errorf("expected feedback to be recorded, got %v", review.Feedback)
	}
	if got := phaseStatus(t, fakeStore, task.ID, store.PhaseContentReview); got != store.PhaseStatusInProgress {
		t.Errorf("expected content_review to remain in_progress, got %s", got)
	}
	if len(reviewEngine.reviews) != 1 {
		t.Errorf("expected 1 review row, got %d", len(reviewEngine.reviews))
	}
}

func TestReviewUpload_OutsideReviewPhase(t *testing.T) {
	processor, fakeStore, _ := newTestProcessor()
	task := seedTaskInPhase(fakeStore, store.PhaseContentRequirement)
	upload := store.TaskUpload{ID: uuid.New(), TaskID: task.ID, FileName: "photo.jpg"}
	fakeStore.uploads[upload.ID] = upload

	_, err := processor.ReviewUpload(context.Background(), ReviewUploadParams{
		TaskID:     task.ID,
		UploadID:   upload.ID,
		Decision:   store.ReviewStatusApproved,
		ReviewerID: uuid.New(),
	})
	if !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition outside review phase, got %v", err)
	}
}

func TestPublishContent_CompletesWorkflow(t *testing.T) {
	processor, fakeStore, _ := newTestProcessor()
	task := seedTaskInPhase(fakeStore, store.PhasePublishAnalytics)

	published, err := processor.PublishContent(context.Background(), PublishContentParams{
		TaskID:       task.ID,
		InfluencerID: task.InfluencerID,
		Platform:     store.PublishPlatformInstagram,
		URL:          "https://instagram.com/p/xyz",
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if published.Platform != store.PublishPlatformInstagram {
		t.Errorf("expected platform instagram, got %s", published.Platform)
	}
	if got := phaseStatus(t, fakeStore, task.ID, store.PhasePublishAnalytics); got != store.PhaseStatusCompleted {
		t.Errorf("expected publish_analytics completed, got %s", got)
	}

	updated := fakeStore.tasks[task.ID]
	if updated.Status != store.TaskStatusPublished {
		t.Errorf("expected task status published, got %s", updated.Status)
	}
	if updated.Progress != 100 {
		t.Errorf("expected task progress 100, got %d", updated.Progress)
	}
}

func TestPublishContent_RequiresCompletedReview(t *testing.T) {
	processor, fakeStore, _ := newTestProcessor()
	task := seedTaskInPhase(fakeStore, store.PhaseContentReview)

	_, err := processor.PublishContent(context.Background(), PublishContentParams{
		TaskID:       task.ID,
		InfluencerID: task.InfluencerID,
		Platform:     store.PublishPlatformInstagram,
		URL:          "https://instagram.com/p/xyz",
	})
	if !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition before review completion, got %v", err)
	}
	if len(fakeStore.published) != 0 {
		t.Errorf("expected no published content, got %d rows", len(fakeStore.published))
	}
}

func TestGetPhaseStatus_DefaultsToNotStarted(t *testing.T) {
	processor, fakeStore, _ := newTestProcessor()
	task := store.Task{ID: uuid.New()}
	fakeStore.tasks[task.ID] = task

	status, err := processor.GetPhaseStatus(context.Background(), task.ID, store.PhaseContentReview)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if status != store.PhaseStatusNotStarted {
		t.Errorf("expected not_started for absent state, got %s", status)
	}
}

func TestCheckPhaseVisibility_RoleAsymmetry(t *testing.T) {
	processor, fakeStore, _ := newTestProcessor()
	task := seedTaskInPhase(fakeStore, store.PhaseContentReview)

	influencer, err := processor.CheckPhaseVisibility(context.Background(), task.ID, store.UserRoleInfluencer)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	brand, err := processor.CheckPhaseVisibility(context.Background(), task.ID, store.UserRoleBrand)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	for _, role := range []map[string]bool{influencer, brand} {
		if !role[store.PhaseContentRequirement] || !role[store.PhaseContentReview] {
			t.Errorf("expected started phases visible, got %v", role)
		}
		if role[store.PhasePublishAnalytics] {
			t.Errorf("expected publish_analytics hidden, got %v", role)
		}
	}
}

func TestIsPhaseVisible_InfluencerRequiresStartedPhase(t *testing.T) {
	processor, fakeStore, _ := newTestProcessor()
	task := seedTaskInPhase(fakeStore, store.PhaseContentRequirement)

	visible, err := processor.IsPhaseVisible(context.Background(), task.ID, store.PhaseContentReview, store.UserRoleInfluencer)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if visible {
		t.Error("expected not_started phase to be invisible to influencer")
	}

	status, _ := processor.GetPhaseStatus(context.Background(), task.ID, store.PhaseContentReview)
	if status != store.PhaseStatusNotStarted {
		t.Errorf("expected not_started, got %s", status)
	}
}

func TestIsInReviewPhase(t *testing.T) {
	processor, fakeStore, _ := newTestProcessor()

	inReview := seedTaskInPhase(fakeStore, store.PhaseContentReview)
	got, err := processor.IsInReviewPhase(context.Background(), inReview.ID)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !got {
		t.Error("expected task in content_review to be in review phase")
	}

	notYet := seedTaskInPhase(fakeStore, store.PhaseContentRequirement)
	got, err = processor.IsInReviewPhase(context.Background(), notYet.ID)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got {
		t.Error("expected task in content_requirement not to be in review phase")
	}
}
