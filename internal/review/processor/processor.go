package processor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"collab-server/internal/observability"
	"collab-server/internal/store"

	"github.com/google/uuid"
)

// ReviewStore defines the database operations required by ReviewProcessor
type ReviewStore interface {
	GetTaskByID(ctx context.Context, taskID uuid.UUID) (store.Task, error)
	GetUploadByID(ctx context.Context, uploadID uuid.UUID) (store.TaskUpload, error)
	CreateReview(ctx context.Context, params store.CreateReviewParams) (store.ContentReview, error)
	GetLatestReviewForUpload(ctx context.Context, uploadID uuid.UUID) (store.ContentReview, error)
	ListReviewsByTask(ctx context.Context, taskID uuid.UUID) ([]store.ContentReview, error)
	CreateFeedback(ctx context.Context, params store.CreateFeedbackParams) (store.TaskFeedback, error)
	ListFeedbackByTask(ctx context.Context, taskID uuid.UUID, phase string) ([]store.TaskFeedback, error)
	ListFeedbackSince(ctx context.Context, taskID uuid.UUID, after time.Time) ([]store.TaskFeedback, error)
}

var (
	ErrTaskNotFound    = errors.New("task not found")
	ErrUploadNotFound  = errors.New("upload not found")
	ErrReviewNotFound  = errors.New("no review exists for upload")
	ErrMissingFeedback = errors.New("rejection requires feedback")
	ErrInvalidDecision = errors.New("invalid review decision")
	ErrInvalidFeedback = errors.New("invalid feedback message")
)

type ReviewProcessor struct {
	store  ReviewStore
	logger *observability.Logger
}

func New(reviewStore ReviewStore, logger *observability.Logger) *ReviewProcessor {
	return &ReviewProcessor{
		store:  reviewStore,
		logger: logger,
	}
}

// CreateReview records a brand decision on one upload. A rejection without
// feedback text fails validation before anything reaches the store, so a
// failed call leaves no review row. Re-reviews append new rows; the latest
// by reviewed_at wins.
func (p *ReviewProcessor) CreateReview(ctx context.Context, taskID, uploadID uuid.UUID, decision, feedback string, reviewerID uuid.UUID) (store.ContentReview, error) {
	switch decision {
	case store.ReviewStatusApproved, store.ReviewStatusRejected, store.ReviewStatusPending:
	default:
		return store.ContentReview{}, ErrInvalidDecision
	}

	feedback = strings.TrimSpace(feedback)
	if decision == store.ReviewStatusRejected && feedback == "" {
		return store.ContentReview{}, ErrMissingFeedback
	}

	params := store.CreateReviewParams{
		TaskID:     taskID,
		UploadID:   uploadID,
		Status:     decision,
		ReviewerID: reviewerID,
	}
	if feedback != "" {
		params.Feedback = &feedback
	}

	review, err := p.store.CreateReview(ctx, params)
	if err != nil {
		return store.ContentReview{}, fmt.Errorf("failed to create review: %w", err)
	}

	ctx = observability.WithFields(ctx,
		observability.Field{Key: "upload_id", Value: uploadID.String()},
		observability.Field{Key: "decision", Value: decision})
	p.logger.Info(ctx, "review recorded")
	return review, nil
}

// GetReviewForUpload returns the authoritative review for an upload, the
// latest by reviewed_at.
func (p *ReviewProcessor) GetReviewForUpload(ctx context.Context, uploadID uuid.UUID) (store.ContentReview, error) {
	if _, err := p.store.GetUploadByID(ctx, uploadID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.ContentReview{}, ErrUploadNotFound
		}
		return store.ContentReview{}, fmt.Errorf("failed to load upload: %w", err)
	}

	review, err := p.store.GetLatestReviewForUpload(ctx, uploadID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.ContentReview{}, ErrReviewNotFound
		}
		return store.ContentReview{}, fmt.Errorf("failed to get review for upload: %w", err)
	}
	return review, nil
}

// ListReviews returns all reviews recorded for a task
func (p *ReviewProcessor) ListReviews(ctx context.Context, taskID uuid.UUID) ([]store.ContentReview, error) {
	reviews, err := p.store.ListReviewsByTask(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	return reviews, nil
}

// SendFeedbackParams represents one feedback message in a task's per-phase
// conversation.
type SendFeedbackParams struct {
	TaskID     uuid.UUID
	SenderID   uuid.UUID
	SenderType string
	Phase      string
	Message    string
}

// SendFeedback appends one message to the task's phase conversation.
// Messages are never edited or deleted.
func (p *ReviewProcessor) SendFeedback(ctx context.Context, params SendFeedbackParams) (store.TaskFeedback, error) {
	if strings.TrimSpace(params.Message) == "" {
		return store.TaskFeedback{}, ErrInvalidFeedback
	}
	if params.SenderType != store.SenderTypeBrand && params.SenderType != store.SenderTypeInfluencer {
		return store.TaskFeedback{}, ErrInvalidFeedback
	}
	if store.PhaseIndex(params.Phase) < 0 {
		return store.TaskFeedback{}, ErrInvalidFeedback
	}

	if _, err := p.store.GetTaskByID(ctx, params.TaskID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.TaskFeedback{}, ErrTaskNotFound
		}
		return store.TaskFeedback{}, fmt.Errorf("failed to load task: %w", err)
	}

	feedback, err := p.store.CreateFeedback(ctx, store.CreateFeedbackParams{
		TaskID:     params.TaskID,
		SenderID:   params.SenderID,
		SenderType: params.SenderType,
		Phase:      params.Phase,
		Message:    params.Message,
	})
	if err != nil {
		return store.TaskFeedback{}, fmt.Errorf("failed to create feedback: %w", err)
	}
	return feedback, nil
}

// ListFeedback returns the task's conversation in ascending created order,
// optionally filtered to one phase. An empty phase returns all messages.
func (p *ReviewProcessor) ListFeedback(ctx context.Context, taskID uuid.UUID, phase string) ([]store.TaskFeedback, error) {
	if phase != "" && store.PhaseIndex(phase) < 0 {
		return nil, ErrInvalidFeedback
	}
	feedback, err := p.store.ListFeedbackByTask(ctx, taskID, phase)
	if err != nil {
		return nil, fmt.Errorf("failed to list feedback: %w", err)
	}
	return feedback, nil
}

// ListFeedbackSince returns messages created after a point in time, used by
// the live feedback feed.
func (p *ReviewProcessor) ListFeedbackSince(ctx context.Context, taskID uuid.UUID, after time.Time) ([]store.TaskFeedback, error) {
	feedback, err := p.store.ListFeedbackSince(ctx, taskID, after)
	if err != nil {
		return nil, fmt.Errorf("failed to list feedback since: %w", err)
	}
	return feedback, nil
}
