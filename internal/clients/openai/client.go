package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"collab-server/internal/observability"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const strategyModel = openai.ChatModelGPT4o

const strategySystemPrompt = `You are a marketing strategist for influencer campaigns.
Respond with a single JSON object and nothing else. The object must have these keys:
"summary" (string), "target_audience" (string), "content_themes" (array of strings),
"posting_schedule" (string), "kpis" (array of strings).`

// StrategyPlan is the structured campaign strategy returned by the model.
type StrategyPlan struct {
	Summary         string   `json:"summary"`
	TargetAudience  string   `json:"target_audience"`
	ContentThemes   []string `json:"content_themes"`
	PostingSchedule string   `json:"posting_schedule"`
	KPIs            []string `json:"kpis"`
}

// StrategyRequest describes the campaign the strategy is generated for.
type StrategyRequest struct {
	CampaignName string
	Description  string
	Platforms    []string
	BudgetCents  *int
}

// Client generates campaign strategies via the OpenAI chat API
type Client struct {
	apiKey string
	logger *observability.Logger
}

// NewClient creates a new OpenAI client
func NewClient(apiKey string, logger *observability.Logger) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}
	return &Client{apiKey: apiKey, logger: logger}, nil
}

// GenerateStrategy asks the model for a campaign strategy and decodes the
// JSON response. Missing fields come back zero-valued rather than failing.
func (c *Client) GenerateStrategy(ctx context.Context, req StrategyRequest) (StrategyPlan, error) {
	prompt := buildStrategyPrompt(req)

	client := openai.NewClient(option.WithAPIKey(c.apiKey))
	resp, err := client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(strategySystemPrompt),
			openai.UserMessage(prompt),
		},
		Model: strategyModel,
	})
	if err != nil {
		c.logger.Error(ctx, "failed to generate strategy", err)
		return StrategyPlan{}, fmt.Errorf("failed to generate strategy: %w", err)
	}
	if len(resp.Choices) == 0 {
		return StrategyPlan{}, fmt.Errorf("no strategy returned from OpenAI")
	}

	var plan StrategyPlan
	raw := extractJSON(resp.Choices[0].Message.Content)
	if err := json.Unmarshal([]byte(raw), &plan); err != nil {
		c.logger.Error(ctx, "failed to decode strategy response", err)
		return StrategyPlan{}, fmt.Errorf("failed to decode strategy response: %w", err)
	}
	return plan, nil
}

func buildStrategyPrompt(req StrategyRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Campaign: %s\n", req.CampaignName)
	if req.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", req.Description)
	}
	if len(req.Platforms) > 0 {
		fmt.Fprintf(&b, "Platforms: %s\n", strings.Join(req.Platforms, ", "))
	}
	if req.BudgetCents != nil {
		fmt.Fprintf(&b, "Budget: $%.2f\n", float64(*req.BudgetCents)/100)
	}
	b.WriteString("Generate the campaign strategy.")
	return b.String()
}

// extractJSON strips markdown code fences the model sometimes wraps around
// its JSON output.
func extractJSON(content string) string {
	content = strings.TrimSpace(content)
	if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimPrefix(content, "```")
		content = strings.TrimSuffix(content, "```")
		content = strings.TrimSpace(content)
	}
	return content
}
