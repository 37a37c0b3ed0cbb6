package api

import (
	"net/http"

	authHandler "collab-server/internal/auth/handler"
	campaignHandler "collab-server/internal/campaign/handler"
	contentHandler "collab-server/internal/content/handler"
	reviewHandler "collab-server/internal/review/handler"
	workflowHandler "collab-server/internal/workflow/handler"

	"github.com/gin-gonic/gin"
)

type API struct {
	router          *gin.RouterGroup
	authHandler     *authHandler.Handler
	campaignHandler *campaignHandler.Handler
	workflowHandler *workflowHandler.Handler
	contentHandler  *contentHandler.Handler
	reviewHandler   *reviewHandler.Handler
}

func New(router *gin.RouterGroup, auth *authHandler.Handler, campaign *campaignHandler.Handler,
	workflow *workflowHandler.Handler, content *contentHandler.Handler, review *reviewHandler.Handler) API {
	return API{
		router:          router,
		authHandler:     auth,
		campaignHandler: campaign,
		workflowHandler: workflow,
		contentHandler:  content,
		reviewHandler:   review,
	}
}

func (a *API) RegisterRoutes() {
	a.Health()
	apiGroup := a.router.Group("/api")
	{
		authGroup := apiGroup.Group("/auth")
		authGroup.POST("/signup", a.authHandler.HandleSignup)
		authGroup.POST("/login", a.authHandler.HandleLogin)
	}
	protectedGroup := apiGroup.Group("/protected", a.authHandler.HandleJWTMiddleware)
	{
		protectedGroup.GET("/user", a.authHandler.HandleGetUser)
		protectedGroup.GET("/influencers", a.campaignHandler.HandleListInfluencers)

		protectedGroup.POST("/campaigns", a.campaignHandler.HandleCreateCampaign)
		protectedGroup.GET("/campaigns", a.campaignHandler.HandleListCampaigns)
		protectedGroup.GET("/campaigns/:campaign_id", a.campaignHandler.HandleGetCampaign)
		protectedGroup.PATCH("/campaigns/:campaign_id/status", a.campaignHandler.HandleUpdateCampaignStatus)
		protectedGroup.DELETE("/campaigns/:campaign_id", a.campaignHandler.HandleDeleteCampaign)
		protectedGroup.POST("/campaigns/:campaign_id/strategy", a.campaignHandler.HandleGenerateStrategy)
		protectedGroup.POST("/campaigns/:campaign_id/participants", a.campaignHandler.HandleAddParticipant)
		protectedGroup.GET("/campaigns/:campaign_id/participants", a.campaignHandler.HandleListParticipants)
		protectedGroup.POST("/participants/:participant_id/decision", a.campaignHandler.HandleDecideParticipant)

		protectedGroup.POST("/campaigns/:campaign_id/share-requirements", a.workflowHandler.HandleShareRequirements)
		protectedGroup.GET("/campaigns/:campaign_id/tasks", a.workflowHandler.HandleListCampaignTasks)
		protectedGroup.GET("/tasks", a.workflowHandler.HandleListMyTasks)
		protectedGroup.GET("/tasks/:task_id", a.workflowHandler.HandleGetTask)
		protectedGroup.GET("/tasks/:task_id/workflow", a.workflowHandler.HandleGetWorkflow)
		protectedGroup.GET("/tasks/:task_id/visibility", a.workflowHandler.HandleGetVisibility)
		protectedGroup.POST("/tasks/:task_id/review", a.workflowHandler.HandleReviewUpload)
		protectedGroup.POST("/tasks/:task_id/publish", a.workflowHandler.HandlePublishContent)

		protectedGroup.GET("/tasks/:task_id/drafts", a.contentHandler.HandleListDrafts)
		protectedGroup.POST("/tasks/:task_id/drafts", a.contentHandler.HandleCreateDraft)
		protectedGroup.POST("/drafts/:draft_id/share", a.contentHandler.HandleShareDraft)
		protectedGroup.POST("/tasks/:task_id/uploads", a.contentHandler.HandleRecordUpload)
		protectedGroup.GET("/tasks/:task_id/uploads", a.contentHandler.HandleListUploads)
		protectedGroup.GET("/tasks/:task_id/published", a.contentHandler.HandleListPublished)
		protectedGroup.POST("/published/:published_id/analytics", a.contentHandler.HandleUpsertAnalytics)

		protectedGroup.GET("/uploads/:upload_id/review", a.reviewHandler.HandleGetUploadReview)
		protectedGroup.POST("/tasks/:task_id/feedback", a.reviewHandler.HandleSendFeedback)
		protectedGroup.GET("/tasks/:task_id/feedback", a.reviewHandler.HandleListFeedback)
		protectedGroup.GET("/tasks/:task_id/feedback/live", a.reviewHandler.HandleLiveFeedback)
	}
}

func (a *API) Health() {
	a.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "ok"})
	})
}
