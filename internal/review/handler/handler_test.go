package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"collab-server/internal/observability"
	"collab-server/internal/review/processor"
	"collab-server/internal/store"
	workflowprocessor "collab-server/internal/workflow/processor"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// fakeReviewStore is a minimal ReviewStore for handler tests
type fakeReviewStore struct {
	reviews           map[uuid.UUID]store.ContentReview
	feedback          []store.TaskFeedback
	listFeedbackCalls int
}

func (f *fakeReviewStore) GetTaskByID(ctx context.Context, taskID uuid.UUID) (store.Task, error) {
	return store.Task{ID: taskID}, nil
}

func (f *fakeReviewStore) GetUploadByID(ctx context.Context, uploadID uuid.UUID) (store.TaskUpload, error) {
	return store.TaskUpload{ID: uploadID}, nil
}

func (f *fakeReviewStore) CreateReview(ctx context.Context, params store.CreateReviewParams) (store.ContentReview, error) {
	return store.ContentReview{}, store.ErrNotFound
}

func (f *fakeReviewStore) GetLatestReviewForUpload(ctx context.Context, uploadID uuid.UUID) (store.ContentReview, error) {
	r, ok := f.reviews[uploadID]
	if !ok {
		return store.ContentReview{}, store.ErrNotFound
	}
	return r, nil
}

func (f *fakeReviewStore) ListReviewsByTask(ctx context.Context, taskID uuid.UUID) ([]store.ContentReview, error) {
	return nil, nil
}

func (f *fakeReviewStore) CreateFeedback(ctx context.Context, params store.CreateFeedbackParams) (store.TaskFeedback, error) {
	return store.TaskFeedback{}, store.ErrNotFound
}

func (f *fakeReviewStore) ListFeedbackByTask(ctx context.Context, taskID uuid.UUID, phase string) ([]store.TaskFeedback, error) {
	f.listFeedbackCalls++
	return f.feedback, nil
}

func (f *fakeReviewStore) ListFeedbackSince(ctx context.Context, taskID uuid.UUID, after time.Time) ([]store.TaskFeedback, error) {
	return nil, nil
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

func TestHandleListFeedback_DeniesCallerOutsideCampaign(t *testing.T) {
	fakeStore := &fakeReviewStore{feedback: []store.TaskFeedback{{ID: uuid.New()}}}
	reviewProc := processor.New(fakeStore, observability.NewLogger())
	access := &fakeTaskAccess{err: workflowprocessor.ErrTaskNotFound}
	h := New(reviewProc, access, observability.NewLogger())

	c, w := newTestContext(t, uuid.New(), store.UserRoleInfluencer)
	c.Params = gin.Params{{Key: "task_id", Value: uuid.New().String()}}

	h.HandleListFeedback(c)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", w.Code)
	}
	if fakeStore.listFeedbackCalls != 0 {
		t.Errorf("expected the feedback log to stay unread, got %d reads", fakeStore.listFeedbackCalls)
	}
}

func TestHandleListFeedback_AllowsTaskMember(t *testing.T) {
	taskID := uuid.New()
	fakeStore := &fakeReviewStore{feedback: []store.TaskFeedback{{ID: uuid.New(), TaskID: taskID}}}
	reviewProc := processor.New(fakeStore, observability.NewLogger())
	access := &fakeTaskAccess{task: store.Task{ID: taskID}}
	h := New(reviewProc, access, observability.NewLogger())

	c, w := newTestContext(t, uuid.New(), store.UserRoleBrand)
	c.Params = gin.Params{{Key: "task_id", Value: taskID.String()}}

	h.HandleListFeedback(c)

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}
	if fakeStore.listFeedbackCalls != 1 {
		t.Errorf("expected 1 feedback read, got %d", fakeStore.listFeedbackCalls)
	}
}

func TestHandleGetUploadReview_DeniesCallerOutsideCampaign(t *testing.T) {
	uploadID := uuid.New()
	fakeStore := &fakeReviewStore{
		reviews: map[uuid.UUID]store.ContentReview{
			uploadID: {ID: uuid.New(), TaskID: uuid.New(), UploadID: uploadID, Status: store.ReviewStatusApproved},
		},
	}
	reviewProc := processor.New(fakeStore, observability.NewLogger())
	access := &fakeTaskAccess{err: workflowprocessor.ErrTaskNotFound}
	h := New(reviewProc, access, observability.NewLogger())

	c, w := newTestContext(t, uuid.New(), store.UserRoleInfluencer)
	c.Params = gin.Params{{Key: "upload_id", Value: uploadID.String()}}

	h.HandleGetUploadReview(c)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", w.Code)
	}
}
