package claude

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "claude-sonnet-4-5"

// ActivitySummary is the minimal activity info sent to Claude for predecessor inference.
type ActivitySummary struct {
	ID           string   `json:"id"`
	Description  string   `json:"description,omitempty"`
	Predecessors []string `json:"predecessors,omitempty"`
	Duration     float64  `json:"duration,omitempty"`
}

// DepEdge is a single inferred dependency.
type DepEdge struct {
	ActivityID    string `json:"activity_id"`    // activity that waits
	PredecessorID string `json:"predecessor_id"` // activity that must finish first
	Reason        string `json:"reason"`
}

// InferDepsResult holds the full response from Claude.
type InferDepsResult struct {
	Edges   []DepEdge `json:"edges"`
	Summary string    `json:"summary"`
}

// Client wraps the Anthropic SDK for Claude API calls.
type Client struct {
	inner anthropic.Client
	model anthropic.Model
}

// NewClient creates a Claude client. apiKey defaults to ANTHROPIC_API_KEY env.
// model defaults to DefaultModel.
func NewClient(apiKey, model string, opts ...option.RequestOption) (*Client, error) {
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("ANTHROPIC_API_KEY not set")
	}

	inner := anthropic.NewClient(
		append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)...,
	)

	if model == "" {
		model = DefaultModel
	}

	return &Client{inner: inner, model: anthropic.Model(model)}, nil
}

const inferDepsPrompt = `You are an experienced project planner. Given the activities of a project network, infer which activities must finish before others can start.

Rules:
- Only add a predecessor when there is a strong causal reason (activity B cannot start until activity A is complete).
- Prefer fewer edges; do not add transitive or speculative predecessors.
- Keep every predecessor an activity already lists.
- Do not create cycles.
- Only use activity IDs from the provided list.
- An activity cannot precede itself.

Return your answer as JSON with this exact structure:
{
  "edges": [
    {"activity_id": "<activity that waits>", "predecessor_id": "<activity that must finish first>", "reason": "<short explanation>"}
  ],
  "summary": "<one paragraph summary of the network structure>"
}

Only list edges that are not already declared. Return ONLY the JSON object. No markdown fences, no commentary outside the JSON.

Here are the activities:
`

// buildPrompt constructs the full prompt for predecessor inference.
func buildPrompt(activities []ActivitySummary) (string, error) {
	data, err := json.MarshalIndent(activities, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal activities: %w", err)
	}
	return inferDepsPrompt + string(data), nil
}

// InferPredecessors calls the Claude API to propose missing predecessor edges.
func (c *Client) InferPredecessors(ctx context.Context, activities []ActivitySummary) (*InferDepsResult, error) {
	prompt, err := buildPrompt(activities)
	if err != nil {
		return nil, err
	}

	resp, err := c.inner.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: int64(4096),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("claude API call: %w", err)
	}

	var text string
	for _, block := range resp.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}

	return ParseResult(text)
}

// ParseResult decodes a model reply, tolerating markdown fences around the JSON.
func ParseResult(text string) (*InferDepsResult, error) {
	text = stripJSONFences(text)

	var result InferDepsResult
	if err := json.Unmarshal([]byte(text), &result); err != nil {
		return nil, fmt.Errorf("parse claude response: %w\nraw: %s", err, text)
	}
	return &result, nil
}

// stripJSONFences removes markdown code fences that Claude sometimes adds.
func stripJSONFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		// Strip opening fence line
		if idx := strings.Index(s, "\n"); idx >= 0 {
			s = s[idx+1:]
		}
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}
	return s
}
