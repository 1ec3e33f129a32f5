// Package llm wraps the Anthropic API for pull-request diff review.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// ErrTimeout signals that the review call did not complete in time. The
// pipeline treats it as the fail-open path rather than a hard failure.
var ErrTimeout = errors.New("review request timed out")

// ReviewResponse carries the raw model reply and its token usage.
type ReviewResponse struct {
	Text      string
	TokensIn  int64
	TokensOut int64
}

// Client wraps the Anthropic API for code review.
type Client struct {
	api   *anthropic.Client
	model anthropic.Model
}

// NewClient creates an LLM client with the given API key and model.
func NewClient(apiKey, model string) *Client {
	opts := []option.RequestOption{}
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	client := anthropic.NewClient(opts...)
	return &Client{
		api:   &client,
		model: anthropic.Model(model),
	}
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return string(c.model)
}

// buildReviewPrompt constructs the system and user prompts for diff review.
func buildReviewPrompt(diff string) (system string, user string) {
	system = `You are a strict senior code reviewer. Review the pull request diff and return ONLY a JSON object with these fields:
- "score": overall code quality from 0.0 to 10.0 (one decimal place)
- "verdict": one of "approve", "request-changes", "reject"
- "findings": array of objects, each with:
  - "severity": one of "low", "medium", "high"
  - "file": file path the finding applies to (omit if not file-specific)
  - "line": line number in the new file (omit if not line-specific)
  - "issue": what is wrong
  - "fix": suggested fix (omit if obvious)

Rules:
- Score 9.0 or above means the change is ready to merge as-is
- Only report real problems; style nits below severity "low" do not belong in findings
- An empty findings array with a high score is a valid review
- Return valid JSON only, no markdown fencing or explanation`

	var sb strings.Builder
	sb.WriteString("Review this diff:\n\n")
	sb.WriteString(diff)
	user = sb.String()
	return
}

// Review sends a diff to the model and returns the raw response text with
// token usage. Deadline expiry maps to ErrTimeout.
func (c *Client) Review(ctx context.Context, diff string) (*ReviewResponse, error) {
	systemPrompt, userPrompt := buildReviewPrompt(diff)

	msg, err := c.api.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: 4096,
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
		},
	})
	if err != nil {
		if isTimeout(err) {
			return nil, ErrTimeout
		}
		return nil, fmt.Errorf("anthropic API call: %w", err)
	}

	// Extract text from response
	var text string
	for _, block := range msg.Content {
		if block.Type == "text" {
			text = block.Text
			break
		}
	}

	if text == "" {
		return nil, fmt.Errorf("no text content in API response")
	}

	return &ReviewResponse{
		Text:      text,
		TokensIn:  msg.Usage.InputTokens,
		TokensOut: msg.Usage.OutputTokens,
	}, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
