package googleai

import (
	"context"
	"fmt"
	"strings"

	"collab-server/internal/observability"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const draftModel = "gemini-1.5-flash"

// DraftRequest describes the task a requirement document is drafted for.
type DraftRequest struct {
	CampaignName string
	TaskTitle    string
	TaskType     string
	Platforms    []string
	Notes        string
}

// Client generates content requirement drafts via the Gemini API
type Client struct {
	apiKey string
	logger *observability.Logger
}

// NewClient creates a new Google AI client
func NewClient(apiKey string, logger *observability.Logger) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("Google AI API key is required")
	}
	return &Client{apiKey: apiKey, logger: logger}, nil
}

// GenerateRequirementDraft asks Gemini for a first draft of the content
// requirements for a task.
func (c *Client) GenerateRequirementDraft(ctx context.Context, req DraftRequest) (string, error) {
	prompt := buildDraftPrompt(req)

	client, err := genai.NewClient(ctx, option.WithAPIKey(c.apiKey))
	if err != nil {
		return "", fmt.Errorf("failed to create Gemini client: %w", err)
	}
	defer client.Close()

	model := client.GenerativeModel(draftModel)
	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		c.logger.Error(ctx, "failed to generate requirement draft", err)
		return "", fmt.Errorf("failed to generate requirement draft: %w", err)
	}

	// A safety-blocked candidate carries no Content at all.
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil ||
		len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no draft returned from Gemini")
	}

	part, ok := resp.Candidates[0].Content.Parts[0].(genai.Text)
	if !ok {
		return "", fmt.Errorf("unexpected response format")
	}

	return strings.TrimSpace(string(part)), nil
}

func buildDraftPrompt(req DraftRequest) string {
	var b strings.Builder
	b.WriteString("Write a content requirement brief for an influencer collaboration task.\n")
	b.WriteString("Cover deliverables, tone, messaging do's and don'ts, and required disclosures.\n\n")
	fmt.Fprintf(&b, "Campaign: %s\n", req.CampaignName)
	fmt.Fprintf(&b, "Task: %s (%s)\n", req.TaskTitle, req.TaskType)
	if len(req.Platforms) > 0 {
		fmt.Fprintf(&b, "Platforms: %s\n", strings.Join(req.Platforms, ", "))
	}
	if req.Notes != "" {
		fmt.Fprintf(&b, "Brand notes: %s\n", req.Notes)
	}
	return b.String()
}
