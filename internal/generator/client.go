// Package generator talks to the external text-generation service that drafts
// repair plans.
package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ukydev/repair-planner/internal/models"
)

const maxErrorBody = 512

// Client calls an OpenAI-compatible chat completions endpoint.
type Client struct {
	endpoint    string
	apiKey      string
	model       string
	temperature float64
	httpClient  *http.Client
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(client *Client) {
		client.httpClient = c
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) Option {
	return func(client *Client) {
		client.temperature = t
	}
}

// NewClient creates a generator client. endpoint is the API base URL, e.g.
// https://host/v1.
func NewClient(endpoint, apiKey, model string, timeout time.Duration, opts ...Option) (*Client, error) {
	if endpoint == "" {
		return nil, errors.New("generator endpoint is required")
	}
	if model == "" {
		return nil, errors.New("generator model is required")
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	c := &Client{
		endpoint:    strings.TrimSuffix(endpoint, "/"),
		apiKey:      apiKey,
		model:       model,
		temperature: 0.2,
		httpClient:  &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	ResponseFormat responseFormat `json:"response_format"`
	Temperature    float64        `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

// GenerateDraftPlan sends prompt to the generator and parses the reply into a
// draft work order. Output that does not parse yields an error wrapping
// ErrMalformedDraft.
func (c *Client) GenerateDraftPlan(ctx context.Context, prompt models.Prompt) (models.DraftWorkOrder, error) {
	content, err := c.complete(ctx, prompt)
	if err != nil {
		return models.DraftWorkOrder{}, err
	}

	switch result := ParseDraft([]byte(content)).(type) {
	case ValidDraft:
		return result.Draft, nil
	case MalformedDraft:
		return models.DraftWorkOrder{}, fmt.Errorf("%w: %s", ErrMalformedDraft, result.Reason)
	default:
		return models.DraftWorkOrder{}, fmt.Errorf("%w: unexpected parse result %T", ErrMalformedDraft, result)
	}
}

func (c *Client) complete(ctx context.Context, prompt models.Prompt) (string, error) {
	payload, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: prompt.System},
			{Role: "user", Content: prompt.User},
		},
		ResponseFormat: responseFormat{Type: "json_object"},
		Temperature:    c.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("marshal generator request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build generator request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("generator request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return "", fmt.Errorf("generator returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var decoded chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("%w: decode completion: %v", ErrMalformedDraft, err)
	}
	if len(decoded.Choices) == 0 {
		return "", fmt.Errorf("%w: completion has no choices", ErrMalformedDraft)
	}
	return decoded.Choices[0].Message.Content, nil
}
