package processor

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"collab-server/internal/clients/googleai"
	"collab-server/internal/observability"
	"collab-server/internal/store"

	"github.com/google/uuid"
)

type fakeContentStore struct {
	tasks     map[uuid.UUID]store.Task
	campaigns map[uuid.UUID]store.Campaign
	drafts    map[uuid.UUID]store.ContentDraft
	uploads   []store.TaskUpload
	published map[uuid.UUID]store.PublishedContent
	analytics map[uuid.UUID]store.ContentAnalytics
}

func newFakeContentStore() *fakeContentStore {
	return &fakeContentStore{
		tasks:     make(map[uuid.UUID]store.Task),
		campaigns: make(map[uuid.UUID]store.Campaign),
		drafts:    make(map[uuid.UUID]store.ContentDraft),
		published: make(map[uuid.UUID]store.PublishedContent),
		analytics: make(map[uuid.UUID]store.ContentAnalytics),
	}
}

func (f *fakeContentStore) GetTaskByID(ctx context.Context, taskID uuid.UUID) (store.Task, error) {
	t, ok := f.tasks[taskID]
	if !ok {
		return store.Task{}, store.ErrNotFound
	}
	return t, nil
}

func (f *fakeContentStore) GetCampaignByID(ctx context.Context, campaignID uuid.UUID) (store.Campaign, error) {
	c, ok := f.campaigns[campaignID]
	if !ok {
		return store.Campaign{}, store.ErrNotFound
	}
	return c, nil
}

func (f *fakeContentStore) CreateDraft(ctx context.Context, params store.CreateDraftParams) (store.ContentDraft, error) {
	draft := store.ContentDraft{
		ID:          uuid.New(),
		TaskID:      params.TaskID,
		Content:     params.Content,
		AuthorID:    params.AuthorID,
		AIGenerated: params.AIGenerated,
		BrandEdited: params.BrandEdited,
		CreatedAt:   time.Now(),
	}
	f.drafts[draft.ID] = draft
	return draft, nil
}

func (f *fakeContentStore) GetDraftByID(ctx context.Context, draftID uuid.UUID) (store.ContentDraft, error) {
	d, ok := f.drafts[draftID]
	if !ok {
		return store.ContentDraft{}, store.ErrNotFound
	}
	return d, nil
}

func (f *fakeContentStore) ListDraftsByTask(ctx context.Context, taskID uuid.UUID, sharedOnly bool) ([]store.ContentDraft, error) {
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

func (f *fakeContentStore) MarkDraftShared(ctx context.Context, draftID, taskID uuid.UUID) (store.ContentDraft, error) {
	d, ok := f.drafts[draftID]
	if !ok || d.TaskID != taskID {
		return store.ContentDraft{}, store.ErrNotFound
	}
	d.SharedWithInfluencer = true
	f.drafts[draftID] = d
	return d, nil
}

func (f *fakeContentStore) CreateUpload(ctx context.Context, params store.CreateUploadParams) (store.TaskUpload, error) {
	upload := store.TaskUpload{
		ID:         uuid.New(),
		TaskID:     params.TaskID,
		UploaderID: params.UploaderID,
		FileName:   params.FileName,
		FileURL:    params.FileURL,
		MimeType:   params.MimeType,
		FileSize:   params.FileSize,
		Caption:    params.Caption,
		Hashtags:   params.Hashtags,
		CreatedAt:  time.Now(),
	}
	f.uploads = append(f.uploads, upload)
	return upload, nil
}

func (f *fakeContentStore) ListUploadsByTask(ctx context.Context, taskID uuid.UUID) ([]store.TaskUpload, error) {
	var out []store.TaskUpload
	for _, u := range f.uploads {
		if u.TaskID == taskID {
			out = append(out, u)
		}
	}
	return out, nil
}

func (f *fakeContentStore) GetPublishedContentByID(ctx context.Context, publishedID uuid.UUID) (store.PublishedContent, error) {
	p, ok := f.published[publishedID]
	if !ok {
		return store.PublishedContent{}, store.ErrNotFound
	}
	return p, nil
}

func (f *fakeContentStore) ListPublishedByTask(ctx context.Context, taskID uuid.UUID) ([]store.PublishedContent, error) {
	var out []store.PublishedContent
	for _, p := range f.published {
		if p.TaskID == taskID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeContentStore) UpsertAnalytics(ctx context.Context, params store.UpsertAnalyticsParams) (store.ContentAnalytics, error) {
	analytics := store.ContentAnalytics{
		ID:                 uuid.New(),
		PublishedContentID: params.PublishedContentID,
		Impressions:        params.Impressions,
		Likes:              params.Likes,
		Comments:           params.Comments,
		Shares:             params.Shares,
		Reach:              params.Reach,
		Clicks:             params.Clicks,
		Saves:              params.Saves,
		EngagementRate:     params.EngagementRate,
		LastUpdated:        time.Now(),
	}
	if existing, ok := f.analytics[params.PublishedContentID]; ok {
		analytics.ID = existing.ID
	}
	f.analytics[params.PublishedContentID] = analytics
	return analytics, nil
}

func (f *fakeContentStore) GetAnalyticsByPublishedContent(ctx context.Context, publishedID uuid.UUID) (store.ContentAnalytics, error) {
	a, ok := f.analytics[publishedID]
	if !ok {
		return store.ContentAnalytics{}, store.ErrNotFound
	}
	return a, nil
}

type fakePhaseAdvancer struct {
	statuses        map[string]string
	initialized     int
	completedPhases []string
}

func (f *fakePhaseAdvancer) InitializePhases(ctx context.Context, taskID uuid.UUID) error {
	f.initialized++
	return nil
}

func (f *fakePhaseAdvancer) CompletePhase(ctx context.Context, taskID uuid.UUID, phase string) error {
	f.completedPhases = append(f.completedPhases, phase)
	f.statuses[phase] = store.PhaseStatusCompleted
	return nil
}

func (f *fakePhaseAdvancer) GetPhaseStatus(ctx context.Context, taskID uuid.UUID, phase string) (string, error) {
	if s, ok := f.statuses[phase]; ok {
		return s, nil
	}
	return store.PhaseStatusNotStarted, nil
}

type fakeDraftGenerator struct {
	text string
	err  error
}

func (f *fakeDraftGenerator) GenerateRequirementDraft(ctx context.Context, req googleai.DraftRequest) (string, error) {
	return f.text, f.err
}

type fakeBlobStore struct {
	puts int
}

func (f *fakeBlobStore) Put(ctx context.Context, fileName string, contents io.Reader) (string, string, int64, error) {
	size, err := io.Copy(io.Discard, contents)
	if err != nil {
		return "", "", 0, err
	}
	f.puts++
	return "key-" + fileName, "http://localhost:8080/uploads/key-" + fileName, size, nil
}

func newTestProcessor(generator DraftGenerator) (*ContentProcessor, *fakeContentStore, *fakePhaseAdvancer, *fakeBlobStore) {
	fakeStore := newFakeContentStore()
	phases := &fakePhaseAdvancer{statuses: make(map[string]string)}
	blobs := &fakeBlobStore{}
	return New(fakeStore, phases, generator, blobs, observability.NewLogger()), fakeStore, phases, blobs
}

func seedTask(f *fakeContentStore) store.Task {
	task := store.Task{
		ID:           uuid.New(),
		CampaignID:   uuid.New(),
		InfluencerID: uuid.New(),
		Title:        "Launch post",
		TaskType:     store.TaskTypePost,
	}
	f.tasks[task.ID] = task
	return task
}

func TestCreateDraft_StartsUnshared(t *testing.T) {
	processor, fakeStore, _, _ := newTestProcessor(nil)
	task := seedTask(fakeStore)

	draft, err := processor.CreateDraft(context.Background(), CreateDraftParams{
		TaskID:   task.ID,
		Content:  "Create 3 posts",
		AuthorID: uuid.New(),
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if draft.SharedWithInfluencer {
		t.Error("expected new draft to be unshared")
	}
}

func TestShareDraft_InitializesPhases(t *testing.T) {
	processor, fakeStore, phases, _ := newTestProcessor(nil)
	task := seedTask(fakeStore)

	draft, err := processor.CreateDraft(context.Background(), CreateDraftParams{
		TaskID:   task.ID,
		Content:  "Create 3 posts",
		AuthorID: uuid.New(),
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	shared, err := processor.ShareDraft(context.Background(), draft.ID)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !shared.SharedWithInfluencer {
		t.Error("expected draft to be shared")
	}
	if phases.initialized != 1 {
		t.Errorf("expected phase initialization, got %d calls", phases.initialized)
	}
}

func TestListDrafts_InfluencerSeesOnlyShared(t *testing.T) {
	processor, fakeStore, _, _ := newTestProcessor(nil)
	task := seedTask(fakeStore)

	hidden, _ := processor.CreateDraft(context.Background(), CreateDraftParams{
		TaskID: task.ID, Content: "work in progress", AuthorID: uuid.New(),
	})
	shared, _ := processor.CreateDraft(context.Background(), CreateDraftParams{
		TaskID: task.ID, Content: "Create 3 posts", AuthorID: uuid.New(),
	})
	if _, err := processor.ShareDraft(context.Background(), shared.ID); err != nil {
		t.Fatalf("share failed: %v", err)
	}

	influencerView, err := processor.ListDrafts(context.Background(), task.ID, store.UserRoleInfluencer)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(influencerView) != 1 || influencerView[0].ID != shared.ID {
		t.Errorf("expected influencer to see only the shared draft, got %d drafts", len(influencerView))
	}

	brandView, err := processor.ListDrafts(context.Background(), task.ID, store.UserRoleBrand)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(brandView) != 2 {
		t.Errorf("expected brand to see both drafts, got %d", len(brandView))
	}
	_ = hidden
}

func TestGenerateDraft_DegradesOnFailure(t *testing.T) {
	generator := &fakeDraftGenerator{err: errors.New("quota exceeded")}
	processor, fakeStore, _, _ := newTestProcessor(generator)
	task := seedTask(fakeStore)

	draft, err := processor.GenerateDraft(context.Background(), task.ID, uuid.New(), "")
	if err != nil {
		t.Fatalf("expected graceful degradation, got %v", err)
	}
	if draft.Content != "" {
		t.Errorf("expected empty seed, got %q", draft.Content)
	}
	if draft.AIGenerated {
		t.Error("expected degraded draft not to be marked ai_generated")
	}
}

func TestGenerateDraft_MarksAIGenerated(t *testing.T) {
	generator := &fakeDraftGenerator{text: "Deliver 3 reels with product close-ups"}
	processor, fakeStore, _, _ := newTestProcessor(generator)
	task := seedTask(fakeStore)

	draft, err := processor.GenerateDraft(context.Background(), task.ID, uuid.New(), "focus on close-ups")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !draft.AIGenerated {
		t.Error("expected draft to be marked ai_generated")
	}
	if draft.Content != generator.text {
		t.Errorf("expected generated content, got %q", draft.Content)
	}
}

func TestRecordUpload_FirstUploadAdvancesPhase(t *testing.T) {
	processor, fakeStore, phases, blobs := newTestProcessor(nil)
	task := seedTask(fakeStore)
	phases.statuses[store.PhaseContentRequirement] = store.PhaseStatusInProgress

	upload, err := processor.RecordUpload(context.Background(), RecordUploadParams{
		TaskID:     task.ID,
		UploaderID: task.InfluencerID,
		FileName:   "photo.jpg",
		MimeType:   "image/jpeg",
		Contents:   strings.NewReader("jpeg bytes"),
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if upload.FileURL == "" {
		t.Error("expected upload to carry a file URL")
	}
	if blobs.puts != 1 {
		t.Errorf("expected 1 blob write, got %d", blobs.puts)
	}
	if len(phases.completedPhases) != 1 || phases.completedPhases[0] != store.PhaseContentRequirement {
		t.Errorf("expected content_requirement to complete on first upload, got %v", phases.completedPhases)
	}
}

func TestRecordUpload_LaterUploadsDoNotRetransition(t *testing.T) {
	processor, fakeStore, phases, _ := newTestProcessor(nil)
	task := seedTask(fakeStore)
	phases.statuses[store.PhaseContentRequirement] = store.PhaseStatusCompleted

	_, err := processor.RecordUpload(context.Background(), RecordUploadParams{
		TaskID:     task.ID,
		UploaderID: task.InfluencerID,
		FileName:   "photo-v2.jpg",
		MimeType:   "image/jpeg",
		Contents:   strings.NewReader("jpeg bytes"),
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(phases.completedPhases) != 0 {
		t.Errorf("expected no phase transition for resubmission, got %v", phases.completedPhases)
	}
}

func TestRecordUpload_RejectsNonOwner(t *testing.T) {
	processor, fakeStore, _, _ := newTestProcessor(nil)
	task := seedTask(fakeStore)

	_, err := processor.RecordUpload(context.Background(), RecordUploadParams{
		TaskID:     task.ID,
		UploaderID: uuid.New(),
		FileName:   "photo.jpg",
		Contents:   strings.NewReader("jpeg bytes"),
	})
	if !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("expected ErrTaskNotFound for non-owner upload, got %v", err)
	}
}

func TestUpsertAnalytics_EngagementRate(t *testing.T) {
	processor, fakeStore, _, _ := newTestProcessor(nil)
	publishedID := uuid.New()
	fakeStore.published[publishedID] = store.PublishedContent{ID: publishedID}

	analytics, err := processor.UpsertAnalytics(context.Background(), publishedID, AnalyticsMetrics{
		Impressions: 1000,
		Likes:       50,
		Comments:    30,
		Shares:      20,
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if analytics.EngagementRate != 10.0 {
		t.Errorf("expected engagement rate 10.0, got %v", analytics.EngagementRate)
	}

	analytics, err = processor.UpsertAnalytics(context.Background(), publishedID, AnalyticsMetrics{
		Impressions: 0,
		Likes:       50,
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if analytics.EngagementRate != 0 {
		t.Errorf("expected engagement rate 0 for zero impressions, got %v", analytics.EngagementRate)
	}
}

func TestUpsertAnalytics_UpdatesInPlace(t *testing.T) {
	processor, fakeStore, _, _ := newTestProcessor(nil)
	publishedID := uuid.New()
	fakeStore.published[publishedID] = store.PublishedContent{ID: publishedID}

	first, err := processor.UpsertAnalytics(context.Background(), publishedID, AnalyticsMetrics{Impressions: 100, Likes: 10})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	second, err := processor.UpsertAnalytics(context.Background(), publishedID, AnalyticsMetrics{Impressions: 200, Likes: 20})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if first.ID != second.ID {
		t.Error("expected analytics to update in place, got a new row")
	}
	if len(fakeStore.analytics) != 1 {
		t.Errorf("expected a single analytics row, got %d", len(fakeStore.analytics))
	}
}

func TestUpsertAnalytics_PublishedMissing(t *testing.T) {
	processor, _, _, _ := newTestProcessor(nil)

	_, err := processor.UpsertAnalytics(context.Background(), uuid.New(), AnalyticsMetrics{Impressions: 100})
	if !errors.Is(err, ErrPublishedNotFound) {
		t.Errorf("expected ErrPublishedNotFound, got %v", err)
	}
}

func TestListPublished_AttachesAnalytics(t *testing.T) {
	processor, fakeStore, _, _ := newTestProcessor(nil)
	taskID := uuid.New()
	publishedID := uuid.New()
	fakeStore.published[publishedID] = store.PublishedContent{ID: publishedID, TaskID: taskID}
	fakeStore.analytics[publishedID] = store.ContentAnalytics{
		ID: uuid.New(), PublishedContentID: publishedID, Impressions: 500, EngagementRate: 4.2,
	}

	published, err := processor.ListPublished(context.Background(), taskID)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(published) != 1 {
		t.Fatalf("expected 1 published record, got %d", len(published))
	}
	if published[0].Analytics == nil || published[0].Analytics.EngagementRate != 4.2 {
		t.Errorf("expected analytics attached, got %+v", published[0].Analytics)
	}
}
