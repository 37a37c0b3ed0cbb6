package bootstrap

import (
	"context"
	"fmt"
	"strings"

	"collab-server/internal/config"
	"collab-server/internal/events"
	"collab-server/internal/observability"
	"collab-server/internal/store"

	authHandler "collab-server/internal/auth/handler"
	authProcessor "collab-server/internal/auth/processor"
	campaignHandler "collab-server/internal/campaign/handler"
	campaignProcessor "collab-server/internal/campaign/processor"
	"collab-server/internal/clients/blob"
	"collab-server/internal/clients/googleai"
	kafkaClient "collab-server/internal/clients/kafka"
	"collab-server/internal/clients/openai"
	redisClient "collab-server/internal/clients/redis"
	contentHandler "collab-server/internal/content/handler"
	contentProcessor "collab-server/internal/content/processor"
	reviewHandler "collab-server/internal/review/handler"
	reviewProcessor "collab-server/internal/review/processor"
	workflowHandler "collab-server/internal/workflow/handler"
	workflowProcessor "collab-server/internal/workflow/processor"
)

// Dependencies holds all initialized application dependencies
type Dependencies struct {
	// Core
	Store  store.Store
	Logger *observability.Logger

	// Handlers
	AuthHandler     *authHandler.Handler
	CampaignHandler *campaignHandler.Handler
	WorkflowHandler *workflowHandler.Handler
	ContentHandler  *contentHandler.Handler
	ReviewHandler   *reviewHandler.Handler

	// Clients (for cleanup)
	KafkaProducer *kafkaClient.Producer
	RedisClient   *redisClient.Client
}

// Initialize sets up all application dependencies
func Initialize(ctx context.Context, cfg *config.Config, logger *observability.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Logger: logger,
	}

	var err error
	deps.Store, err = store.New(cfg.Database.ConnectionString(), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Clients
	openaiClient, err := openai.NewClient(cfg.Services.OpenAIAPIKey, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create openai client: %w", err)
	}
	googleaiClient, err := googleai.NewClient(cfg.Services.GoogleAIAPIKey, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create google ai client: %w", err)
	}
	blobStore, err := blob.NewStore(cfg.Blob.Dir, cfg.Blob.BaseURL, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create blob store: %w", err)
	}
	deps.RedisClient, err = redisClient.NewClient(cfg.Redis, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create redis client: %w", err)
	}

	deps.KafkaProducer = kafkaClient.NewProducer(kafkaClient.ProducerConfig{
		Brokers: strings.Split(cfg.Kafka.Brokers, ","),
		Topic:   cfg.Kafka.Topic,
	}, logger)
	eventPublisher := events.NewPublisher(deps.KafkaProducer, logger)

	// Auth
	authProc := authProcessor.New(&deps.Store, cfg.Auth.JWTSecret, logger)
	deps.AuthHandler = authHandler.New(authProc, logger)

	// Review and feedback
	reviewProc := reviewProcessor.New(&deps.Store, logger)

	// Workflow orchestration
	var cache workflowProcessor.VisibilityCache
	if deps.RedisClient != nil {
		cache = deps.RedisClient
	}
	workflowProc := workflowProcessor.New(&deps.Store, reviewProc, eventPublisher, cache, logger)
	deps.ReviewHandler = reviewHandler.New(reviewProc, workflowProc, logger)

	// Content artifacts
	contentProc := contentProcessor.New(&deps.Store, workflowProc, googleaiClient, blobStore, logger)
	deps.ContentHandler = contentHandler.New(contentProc, workflowProc, logger)
	deps.WorkflowHandler = workflowHandler.New(workflowProc, contentProc, reviewProc, logger)

	// Campaigns and participants
	campaignProc := campaignProcessor.New(&deps.Store, openaiClient, logger)
	deps.CampaignHandler = campaignHandler.New(campaignProc, logger)

	return deps, nil
}

// Cleanup releases client connections
func (d *Dependencies) Cleanup() {
	if d.KafkaProducer != nil {
		d.KafkaProducer.Close()
	}
	if d.RedisClient != nil {
		d.RedisClient.Close()
	}
}
