package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"collab-server/internal/content/processor"
	"collab-server/internal/observability"
	"collab-server/internal/store"
	workflowprocessor "collab-server/internal/workflow/processor"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// fakeContentStore is a minimal ContentStore for handler tests. Only the
// methods the exercised endpoints reach carry state; the rest return not
// found.
type fakeContentStore struct {
	uploads         []store.TaskUpload
	published       map[uuid.UUID]store.PublishedContent
	listUploadCalls int
	upsertCalls     int
}

func (f *fakeContentStore) GetTaskByID(ctx context.Context, taskID uuid.UUID) (store.Task, error) {
	return store.Task{}, store.ErrNotFound
}

func (f *fakeContentStore) GetCampaignByID(ctx context.Context, campaignID uuid.UUID) (store.Campaign, error) {
	return store.Campaign{}, store.ErrNotFound
}

func (f *fakeContentStore) CreateDraft(ctx context.Context, params store.CreateDraftParams) (store.ContentDraft, error) {
	return store.ContentDraft{}, store.ErrNotFound
}

func (f *fakeContentStore) GetDraftByID(ctx context.Context, draftID uuid.UUID) (store.ContentDraft, error) {
	return store.ContentDraft{}, store.ErrNotFound
}

func (f *fakeContentStore) ListDraftsByTask(ctx context.Context, taskID uuid.UUID, sharedOnly bool) ([]store.ContentDraft, error) {
	return nil, nil
}

func (f *fakeContentStore) MarkDraftShared(ctx context.Context, draftID, taskID uuid.UUID) (store.ContentDraft, error) {
	return store.ContentDraft{}, store.ErrNotFound
}

func (f *fakeContentStore) CreateUpload(ctx context.Context, params store.CreateUploadParams) (store.TaskUpload, error) {
	return store.TaskUpload{}, store.ErrNotFound
}

func (f *fakeContentStore) ListUploadsByTask(ctx context.Context, taskID uuid.UUID) ([]store.TaskUpload, error) {
	f.listUploadCalls++
	return f.uploads, nil
}

func (f *fakeContentStore) GetPublishedContentByID(ctx context.Context, publishedID uuid.UUID) (store.PublishedContent, error) {
	p, ok := f.published[publishedID]
	if !ok {
		return store.PublishedContent{}, store.ErrNotFound
	}
	return p, nil
}

func (f *fakeContentStore) ListPublishedByTask(ctx context.Context, taskID uuid.UUID) ([]store.PublishedContent, error) {
	return nil, nil
}

func (f *fakeContentStore) UpsertAnalytics(ctx context.Context, params store.UpsertAnalyticsParams) (store.ContentAnalytics, error) {
	f.upsertCalls++
	return store.ContentAnalytics{PublishedContentID: params.PublishedContentID}, nil
}

func (f *fakeContentStore) GetAnalyticsByPublishedContent(ctx context.Context, publishedID uuid.UUID) (store.ContentAnalytics, error) {
	return store.ContentAnalytics{}, store.ErrNotFound
}

// fakeTaskAccess grants or denies task access wholesale
type fakeTaskAccess struct {
	task store.Task
	err  error
}

func (f *fakeTaskAccess) GetTask(ctx context.Context, taskID, callerID uuid.UUID, role string) (store.Task, error) {
	if f.err != nil {
		return store.Task{}, f.err
	}
	return f.task, nil
}

func newTestContext(t *testing.T, userID uuid.UUID, role string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Set("User-ID", userID.String())
	c.Set("User-Role", role)
	return c, w
}

func TestHandleListUploads_DeniesCallerOutsideCampaign(t *testing.T) {
	fakeStore := &fakeContentStore{uploads: []store.TaskUpload{{ID: uuid.New()}}}
	contentProc := processor.New(fakeStore, nil, nil, nil, observability.NewLogger())
	access := &fakeTaskAccess{err: workflowprocessor.ErrTaskNotFound}
	h := New(contentProc, access, observability.NewLogger())

	c, w := newTestContext(t, uuid.New(), store.UserRoleBrand)
	c.Params = gin.Params{{Key: "task_id", Value: uuid.New().String()}}

	h.HandleListUploads(c)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", w.Code)
	}
	if fakeStore.listUploadCalls != 0 {
		t.Errorf("expected the upload list to stay unread, got %d reads", fakeStore.listUploadCalls)
	}
}

func TestHandleListUploads_AllowsTaskMember(t *testing.T) {
	taskID := uuid.New()
	fakeStore := &fakeContentStore{uploads: []store.TaskUpload{{ID: uuid.New(), TaskID: taskID}}}
	contentProc := processor.New(fakeStore, nil, nil, nil, observability.NewLogger())
	access := &fakeTaskAccess{task: store.Task{ID: taskID}}
	h := New(contentProc, access, observability.NewLogger())

	c, w := newTestContext(t, uuid.New(), store.UserRoleInfluencer)
	c.Params = gin.Params{{Key: "task_id", Value: taskID.String()}}

	h.HandleListUploads(c)

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}
	if fakeStore.listUploadCalls != 1 {
		t.Errorf("expected 1 upload list read, got %d", fakeStore.listUploadCalls)
	}
}

func TestHandleUpsertAnalytics_DeniesCallerOutsideCampaign(t *testing.T) {
	publishedID := uuid.New()
	fakeStore := &fakeContentStore{
		published: map[uuid.UUID]store.PublishedContent{
			publishedID: {ID: publishedID, TaskID: uuid.New()},
		},
	}
	contentProc := processor.New(fakeStore, nil, nil, nil, observability.NewLogger())
	access := &fakeTaskAccess{err: workflowprocessor.ErrTaskNotFound}
	h := New(contentProc, access, observability.NewLogger())

	c, w := newTestContext(t, uuid.New(), store.UserRoleBrand)
	c.Params = gin.Params{{Key: "published_id", Value: publishedID.String()}}

	h.HandleUpsertAnalytics(c)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", w.Code)
	}
	if fakeStore.upsertCalls != 0 {
		t.Errorf("expected no analytics write, got %d", fakeStore.upsertCalls)
	}
}
