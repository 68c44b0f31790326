// Package explain wraps the external text-generation service that annotates
// scores and alerts. Callers use an Explainer, which never fails.
package explain

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	apperrors "paybaba/internal/errors"

	"github.com/valyala/fasthttp"
)

const (
	DefaultModel = "gpt-4o-mini"
	maxTokens    = 400
)

// ClientConfig configures an OpenAI-compatible chat completions endpoint.
type ClientConfig struct {
	URL     string
	APIKey  string
	Model   string
	Timeout time.Duration
}

type HTTPDoer interface {
	DoDeadline(req *fasthttp.Request, resp *fasthttp.Response, deadline time.Time) error
}

// Client calls a chat completions API over fasthttp.
type Client struct {
	config ClientConfig
	http   HTTPDoer
}

type chatRequest struct {
	Model     string        `json:"model"`
	MaxTokens int           `json:"max_tokens"`
	Messages  []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func NewClient(config ClientConfig, doer HTTPDoer) (*Client, error) {
	if config.URL == "" || config.APIKey == "" {
		return nil, fmt.Errorf("%w: text generation url and api key are required", apperrors.ErrConfiguration)
	}
	if config.Model == "" {
		config.Model = DefaultModel
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
	if doer == nil {
		doer = &fasthttp.Client{Name: "paybaba-explain"}
	}
	return &Client{config: config, http: doer}, nil
}

func (c *Client) ExplainScore(ctx context.Context, sc ScoreContext) (ScoreExplanation, error) {
	facts, err := json.Marshal(sc)
	if err != nil {
		return ScoreExplanation{}, err
	}
	text, err := c.complete(ctx,
		"You explain merchant credit scores. Reply with JSON: {\"explanation\": string, \"recommendation\": string}.",
		string(facts))
	if err != nil {
		return ScoreExplanation{}, err
	}

	var out ScoreExplanation
	if err := json.Unmarshal([]byte(stripFence(text)), &out); err != nil {
		return ScoreExplanation{}, fmt.Errorf("%w: decode score explanation: %v", apperrors.ErrCollaboratorUnavailable, err)
	}
	return out, nil
}

func (c *Client) ExplainAnomaly(ctx context.Context, ac AnomalyContext) (string, error) {
	facts, err := json.Marshal(ac)
	if err != nil {
		return "", err
	}
	return c.complete(ctx,
		"You analyse early-warning alerts for a merchant. Reply with two or three plain sentences.",
		string(facts))
}

func (c *Client) complete(ctx context.Context, system, user string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model:     c.config.Model,
		MaxTokens: maxTokens,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.config.URL)
	req.Header.SetMethod(http.MethodPost)
	req.Header.SetContentType("application/json")
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	req.SetBody(body)

	deadline := time.Now().Add(c.config.Timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := c.http.DoDeadline(req, resp, deadline); err != nil {
		return "", fmt.Errorf("%w: %v", apperrors.ErrCollaboratorUnavailable, err)
	}
	if resp.StatusCode() != fasthttp.StatusOK {
		return "", fmt.Errorf("%w: status %d", apperrors.ErrCollaboratorUnavailable, resp.StatusCode())
	}

	var parsed chatResponse
	if err := json.Unmarshal(resp.Body(), &parsed); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", apperrors.ErrCollaboratorUnavailable, err)
	}
	if len(parsed.Choices) == 0 || strings.TrimSpace(parsed.Choices[0].Message.Content) == "" {
		return "", fmt.Errorf("%w: empty response", apperrors.ErrCollaboratorUnavailable)
	}
	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}

// stripFence removes a surrounding markdown code fence, if any.
func stripFence(text string) string {
	cleaned := strings.TrimSpace(text)
	if !strings.HasPrefix(cleaned, "```") {
		return cleaned
	}
	if idx := strings.Index(cleaned, "\n"); idx >= 0 {
		cleaned = cleaned[idx+1:]
	}
	if idx := strings.LastIndex(cleaned, "```"); idx >= 0 {
		cleaned = cleaned[:idx]
	}
	return strings.TrimSpace(cleaned)
}
