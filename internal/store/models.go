package store

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// JSONB is a custom type for JSONB fields
type JSONB map[string]interface{}

// Value implements the driver.Valuer interface for JSONB
func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

// Scan implements the sql.Scanner interface for JSONB
func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("incompatible type for JSONB")
	}

	// Handle empty or null JSON
	if len(bytes) == 0 || string(bytes) == "null" {
		*j = make(JSONB)
		return nil
	}

	result := make(JSONB)
	err := json.Unmarshal(bytes, &result)
	if err != nil {
		return err
	}
	*j = result
	return nil
}

// StringArray is a custom type for PostgreSQL text[] arrays
type StringArray []string

// Value implements the driver.Valuer interface for StringArray
func (a StringArray) Value() (driver.Value, error) {
	if a == nil {
		return nil, nil
	}
	if len(a) == 0 {
		return "{}", nil
	}
	// PostgreSQL array format: {item1,item2,item3}
	return "{" + strings.Join(a, ",") + "}", nil
}

// Scan implements the sql.Scanner interface for StringArray
func (a *StringArray) Scan(value interface{}) error {
	if value == nil {
		*a = nil
		return nil
	}

	var str string
	switch v := value.(type) {
	case []byte:
		str = string(v)
	case string:
		str = v
	default:
		return fmt.Errorf("unsupported type for StringArray: %T", value)
	}

	// Handle empty array
	str = strings.Trim(str, "{}")
	if str == "" {
		*a = []string{}
		return nil
	}

	*a = strings.Split(str, ",")
	return nil
}

// User represents a platform account, either a brand or an influencer
type User struct {
	ID              uuid.UUID  `db:"id" json:"id"`
	Email           string     `db:"email" json:"email"`
	HashedPassword  string     `db:"hashed_password" json:"-"`
	Name            string     `db:"name" json:"name"`
	Role            string     `db:"role" json:"role"`
	PrimaryPlatform *string    `db:"primary_platform" json:"primary_platform,omitempty"`
	Category        *string    `db:"category" json:"category,omitempty"`
	FollowerCount   *int       `db:"follower_count" json:"follower_count,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`
	DeletedAt       *time.Time `db:"deleted_at" json:"deleted_at,omitempty"`
}

// Campaign represents a brand marketing campaign
type Campaign struct {
	ID          uuid.UUID   `db:"id" json:"id"`
	BrandID     uuid.UUID   `db:"brand_id" json:"brand_id"`
	Name        string      `db:"name" json:"name"`
	Description *string     `db:"description" json:"description,omitempty"`
	Status      string      `db:"status" json:"status"`
	BudgetCents *int        `db:"budget_cents" json:"budget_cents,omitempty"`
	Platforms   StringArray `db:"platforms" json:"platforms"`
	Strategy    JSONB       `db:"strategy" json:"strategy,omitempty"`
	StartDate   *time.Time  `db:"start_date" json:"start_date,omitempty"`
	EndDate     *time.Time  `db:"end_date" json:"end_date,omitempty"`
	CreatedAt   time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time   `db:"updated_at" json:"updated_at"`
	DeletedAt   *time.Time  `db:"deleted_at" json:"deleted_at,omitempty"`
}

// CampaignParticipant represents an influencer's membership in a campaign.
// It precedes any Task: requirements can only be shared with accepted
// participants.
type CampaignParticipant struct {
	ID           uuid.UUID `db:"id" json:"id"`
	CampaignID   uuid.UUID `db:"campaign_id" json:"campaign_id"`
	InfluencerID uuid.UUID `db:"influencer_id" json:"influencer_id"`
	Status       string    `db:"status" json:"status"`
	Stage        string    `db:"stage" json:"stage"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// Task is a unit of assigned work linking one influencer to one campaign's
// content requirement. Overall status mirrors the current workflow phase.
type Task struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	CampaignID    uuid.UUID  `db:"campaign_id" json:"campaign_id"`
	InfluencerID  uuid.UUID  `db:"influencer_id" json:"influencer_id"`
	ParticipantID uuid.UUID  `db:"participant_id" json:"participant_id"`
	Title         string     `db:"title" json:"title"`
	Description   string     `db:"description" json:"description"`
	TaskType      string     `db:"task_type" json:"task_type"`
	Status        string     `db:"status" json:"status"`
	Progress      int        `db:"progress" json:"progress"`
	CurrentPhase  *string    `db:"current_phase" json:"current_phase,omitempty"`
	Deadline      *time.Time `db:"deadline" json:"deadline,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
}

// WorkflowState is one phase record of a task. Every task owns exactly one
// row per phase in PhaseOrder.
type WorkflowState struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	TaskID      uuid.UUID  `db:"task_id" json:"task_id"`
	Phase       string     `db:"phase" json:"phase"`
	Status      string     `db:"status" json:"status"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
	CompletedAt *time.Time `db:"completed_at" json:"completed_at,omitempty"`
}

// ContentDraft is a requirements document authored by the brand. It becomes
// visible to the influencer only once shared, and is immutable after that
// except by superseding it with a new draft.
type ContentDraft struct {
	ID                    uuid.UUID `db:"id" json:"id"`
	TaskID                uuid.UUID `db:"task_id" json:"task_id"`
	Content               string    `db:"content" json:"content"`
	AIGenerated           bool      `db:"ai_generated" json:"ai_generated"`
	BrandEdited           bool      `db:"brand_edited" json:"brand_edited"`
	SharedWithInfluencer  bool      `db:"shared_with_influencer" json:"shared_with_influencer"`
	AuthorID              uuid.UUID `db:"author_id" json:"author_id"`
	CreatedAt             time.Time `db:"created_at" json:"created_at"`
	UpdatedAt             time.Time `db:"updated_at" json:"updated_at"`
}

// TaskUpload is a content submission by the influencer for review. Uploads
// are never mutated, only superseded by newer uploads.
type TaskUpload struct {
	ID         uuid.UUID `db:"id" json:"id"`
	TaskID     uuid.UUID `db:"task_id" json:"task_id"`
	UploaderID uuid.UUID `db:"uploader_id" json:"uploader_id"`
	FileName   string    `db:"file_name" json:"file_name"`
	FileURL    string    `db:"file_url" json:"file_url"`
	MimeType   string    `db:"mime_type" json:"mime_type"`
	FileSize   int64     `db:"file_size" json:"file_size"`
	Caption    *string   `db:"caption" json:"caption,omitempty"`
	Hashtags   *string   `db:"hashtags" json:"hashtags,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// ContentReview is a brand decision on one TaskUpload. Re-reviews append new
// rows; the latest reviewed_at wins.
type ContentReview struct {
	ID         uuid.UUID  `db:"id" json:"id"`
	TaskID     uuid.UUID  `db:"task_id" json:"task_id"`
	UploadID   uuid.UUID  `db:"upload_id" json:"upload_id"`
	Status     string     `db:"status" json:"status"`
	Feedback   *string    `db:"feedback" json:"feedback,omitempty"`
	ReviewerID uuid.UUID  `db:"reviewer_id" json:"reviewer_id"`
	ReviewedAt *time.Time `db:"reviewed_at" json:"reviewed_at,omitempty"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
}

// TaskFeedback is one message of the per-phase conversation between brand
// and influencer. Append-only.
type TaskFeedback struct {
	ID         uuid.UUID `db:"id" json:"id"`
	TaskID     uuid.UUID `db:"task_id" json:"task_id"`
	SenderID   uuid.UUID `db:"sender_id" json:"sender_id"`
	SenderType string    `db:"sender_type" json:"sender_type"`
	Phase      string    `db:"phase" json:"phase"`
	Message    string    `db:"message" json:"message"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// PublishedContent records that influencer content has gone live on a
// platform. Multiple records per task are allowed (history); the most recent
// is authoritative.
type PublishedContent struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	TaskID       uuid.UUID  `db:"task_id" json:"task_id"`
	InfluencerID uuid.UUID  `db:"influencer_id" json:"influencer_id"`
	Platform     string     `db:"platform" json:"platform"`
	URL          string     `db:"url" json:"url"`
	Notes        *string    `db:"notes" json:"notes,omitempty"`
	Status       string     `db:"status" json:"status"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`

	Analytics *ContentAnalytics `db:"-" json:"analytics,omitempty"`
}

// ContentAnalytics holds the single metrics row per published content,
// updated in place.
type ContentAnalytics struct {
	ID                 uuid.UUID `db:"id" json:"id"`
	PublishedContentID uuid.UUID `db:"published_content_id" json:"published_content_id"`
	Impressions        int64     `db:"impressions" json:"impressions"`
	Likes              int64     `db:"likes" json:"likes"`
	Comments           int64     `db:"comments" json:"comments"`
	Shares             int64     `db:"shares" json:"shares"`
	Reach              int64     `db:"reach" json:"reach"`
	Clicks             int64     `db:"clicks" json:"clicks"`
	Saves              int64     `db:"saves" json:"saves"`
	EngagementRate     float64   `db:"engagement_rate" json:"engagement_rate"`
	LastUpdated        time.Time `db:"last_updated" json:"last_updated"`
}

// AuthenticatedUser is the identity the auth layer attaches to a request.
type AuthenticatedUser struct {
	UserID uuid.UUID `json:"user_id"`
	Role   string    `json:"role"`
}
