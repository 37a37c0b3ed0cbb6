package handler

import (
	"time"

	"collab-server/internal/apierrors"
	"collab-server/internal/observability"

	"github.com/gin-gonic/gin"
)

const feedbackPollInterval = 2 * time.Second

// HandleLiveFeedback streams new feedback messages for a task over a
// WebSocket connection. The feed polls the conversation and pushes every
// message created after the connection was opened.
func (h *Handler) HandleLiveFeedback(c *gin.Context) {
	ctx := c.Request.Context()

	userID, role, ok := getUser(c)
	if !ok {
		return
	}
	taskID, ok := getTaskID(c)
	if !ok {
		return
	}

	// The task must exist and be visible to the caller before upgrading;
	// protocol errors are unreadable on an open socket.
	if !h.authorizeTask(c, taskID, userID, role) {
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		apierrors.BadRequest(c, "UPGRADE_FAILED", "WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	ctx = observability.WithFields(ctx, observability.Field{Key: "task_id", Value: taskID.String()})
	h.logger.Info(ctx, "live feedback connection established")

	// Reader goroutine: its only job is to notice the peer going away.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(feedbackPollInterval)
	defer ticker.Stop()

	lastSeen := time.Now()
	for {
		select {
		case <-done:
			h.logger.Info(ctx, "live feedback connection closed by peer")
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			messages, err := h.processor.ListFeedbackSince(ctx, taskID, lastSeen)
			if err != nil {
				h.logger.Error(ctx, "live feedback poll failed", err)
				continue
			}
			for _, message := range messages {
				if err := conn.WriteJSON(message); err != nil {
					h.logger.InfoWithError(ctx, "live feedback write failed, closing", err)
					return
				}
				if message.CreatedAt.After(lastSeen) {
					lastSeen = message.CreatedAt
				}
			}
		}
	}
}
