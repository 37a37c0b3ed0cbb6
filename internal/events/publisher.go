package events

import (
	"context"
	"time"

	"collab-server/internal/clients/kafka"
	"collab-server/internal/observability"

	"github.com/google/uuid"
)

// Event types emitted on the workflow topic.
const (
	EventTaskCreated      = "task.created"
	EventPhaseCompleted   = "task.phase.completed"
	EventUploadReviewed   = "upload.reviewed"
	EventContentPublished = "content.published"
)

// Producer is the subset of the Kafka producer the publisher needs.
type Producer interface {
	PublishEvent(ctx context.Context, event kafka.EventMessage) error
}

// Publisher emits workflow events. Publishing is best effort: failures are
// logged and never surfaced to the caller, so a broker outage cannot fail a
// workflow transition.
type Publisher struct {
	producer Producer
	logger   *observability.Logger
}

// NewPublisher creates an event publisher. A nil producer disables emission.
func NewPublisher(producer Producer, logger *observability.Logger) *Publisher {
	return &Publisher{producer: producer, logger: logger}
}

// TaskCreated emits a task.created event
func (p *Publisher) TaskCreated(ctx context.Context, taskID, campaignID uuid.UUID, taskType string) {
	campaign := campaignID.String()
	p.emit(ctx, kafka.EventMessage{
		ID:         uuid.New().String(),
		Type:       EventTaskCreated,
		TaskID:     taskID.String(),
		CampaignID: &campaign,
		Data: map[string]interface{}{
			"task_type": taskType,
		},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// PhaseCompleted emits a task.phase.completed event
func (p *Publisher) PhaseCompleted(ctx context.Context, taskID uuid.UUID, phase string, nextPhase *string) {
	data := map[string]interface{}{
		"phase": phase,
	}
	if nextPhase != nil {
		data["next_phase"] = *nextPhase
	}
	p.emit(ctx, kafka.EventMessage{
		ID:        uuid.New().String(),
		Type:      EventPhaseCompleted,
		TaskID:    taskID.String(),
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// UploadReviewed emits an upload.reviewed event
func (p *Publisher) UploadReviewed(ctx context.Context, taskID, uploadID uuid.UUID, status string) {
	p.emit(ctx, kafka.EventMessage{
		ID:     uuid.New().String(),
		Type:   EventUploadReviewed,
		TaskID: taskID.String(),
		Data: map[string]interface{}{
			"upload_id": uploadID.String(),
			"status":    status,
		},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// ContentPublished emits a content.published event
func (p *Publisher) ContentPublished(ctx context.Context, taskID, publishedID uuid.UUID, platform string) {
	p.emit(ctx, kafka.EventMessage{
		ID:     uuid.New().String(),
		Type:   EventContentPublished,
		TaskID: taskID.String(),
		Data: map[string]interface{}{
			"published_content_id": publishedID.String(),
			"platform":             platform,
		},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func (p *Publisher) emit(ctx context.Context, event kafka.EventMessage) {
	if p == nil || p.producer == nil {
		return
	}
	if err := p.producer.PublishEvent(ctx, event); err != nil {
		ctx = observability.WithFields(ctx, observability.Field{Key: "event_type", Value: event.Type})
		p.logger.Error(ctx, "failed to publish workflow event", err)
	}
}
