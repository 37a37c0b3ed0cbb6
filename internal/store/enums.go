package store

// User ENUMs
const (
	UserRoleBrand      = "brand"
	UserRoleInfluencer = "influencer"
)

// Campaign ENUMs
const (
	CampaignStatusDraft     = "draft"
	CampaignStatusActive    = "active"
	CampaignStatusPaused    = "paused"
	CampaignStatusCompleted = "completed"
)

// Campaign Participant ENUMs
const (
	ParticipantStatusInvited  = "invited"
	ParticipantStatusApplied  = "applied"
	ParticipantStatusAccepted = "accepted"
	ParticipantStatusDeclined = "declined"
)

const (
	ParticipantStageOutreach        = "outreach"
	ParticipantStageNegotiation     = "negotiation"
	ParticipantStageContentCreation = "content_creation"
	ParticipantStageCompleted       = "completed"
)

// Task ENUMs
const (
	TaskTypePost  = "post"
	TaskTypeReel  = "reel"
	TaskTypeStory = "story"
	TaskTypeVideo = "video"
)

const (
	TaskStatusPending    = "pending"
	TaskStatusInProgress = "in_progress"
	TaskStatusInReview   = "in_review"
	TaskStatusPublished  = "published"
)

// Workflow Phase ENUMs
const (
	PhaseContentRequirement = "content_requirement"
	PhaseContentReview      = "content_review"
	PhasePublishAnalytics   = "publish_analytics"
)

// PhaseOrder is the fixed progression of workflow phases for every task.
var PhaseOrder = []string{
	PhaseContentRequirement,
	PhaseContentReview,
	PhasePublishAnalytics,
}

const (
	PhaseStatusNotStarted = "not_started"
	PhaseStatusInProgress = "in_progress"
	PhaseStatusCompleted  = "completed"
	PhaseStatusRejected   = "rejected"
)

// Content Review ENUMs
const (
	ReviewStatusPending  = "pending"
	ReviewStatusApproved = "approved"
	ReviewStatusRejected = "rejected"
)

// Feedback Sender ENUMs
const (
	SenderTypeBrand      = "brand"
	SenderTypeInfluencer = "influencer"
)

// Published Content ENUMs
const (
	PublishPlatformInstagram = "instagram"
	PublishPlatformTikTok    = "tiktok"
	PublishPlatformYouTube   = "youtube"
	PublishPlatformTwitter   = "twitter"
	PublishPlatformFacebook  = "facebook"
)

const (
	PublishedStatusActive    = "active"
	PublishedStatusCompleted = "completed"
	PublishedStatusArchived  = "archived"
)

// NextPhase returns the successor of a phase in PhaseOrder, or "" when the
// phase is the last one (or unknown).
func NextPhase(phase string) string {
	for i, p := range PhaseOrder {
		if p == phase && i+1 < len(PhaseOrder) {
			return PhaseOrder[i+1]
		}
	}
	return ""
}

// PhaseIndex returns the position of a phase in PhaseOrder, or -1 when unknown.
func PhaseIndex(phase string) int {
	for i, p := range PhaseOrder {
		if p == phase {
			return i
		}
	}
	return -1
}
