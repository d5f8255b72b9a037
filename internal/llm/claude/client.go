// Package claude implements port.ModelClient against the Anthropic Messages
// API.
package claude

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"cliniscribe/internal/config"
	"cliniscribe/internal/port"
	"cliniscribe/internal/resilience"
)

const (
	apiURL     = "https://api.anthropic.com/v1/messages"
	apiVersion = "2023-06-01"
)

// Client calls the Anthropic Messages API. Each request runs under the
// client's retry policy; transient failures (429, 5xx, network) are retried,
// everything else is surfaced to the caller as terminal.
type Client struct {
	apiKey   string
	endpoint string
	client   *http.Client
	retry    resilience.Policy
}

// NewClient creates a Client from model config.
func NewClient(cfg *config.ModelConfig) *Client {
	return NewClientWithEndpoint(cfg, apiURL)
}

// NewClientWithEndpoint creates a Client pointing at a custom API endpoint
// (for testing).
func NewClientWithEndpoint(cfg *config.ModelConfig, endpoint string) *Client {
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout == 0 {
		timeout = 120 * time.Second
	}
	retry := resilience.DefaultPolicy()
	if cfg.MaxRetries > 0 {
		retry.MaxAttempts = cfg.MaxRetries
	}
	return &Client{
		apiKey:   cfg.APIKey,
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
		retry:    retry,
	}
}

func (c *Client) GenerateText(ctx context.Context, input port.GenerateInput) (*port.GenerateOutput, error) {
	blocks := []map[string]any{
		{"type": "text", "text": input.Prompt},
	}
	return c.generate(ctx, input.Model, input.MaxTokens, input.Temperature, blocks)
}

func (c *Client) GenerateVision(ctx context.Context, input port.VisionInput) (*port.GenerateOutput, error) {
	encoded := base64.StdEncoding.EncodeToString(input.ImageBytes)

	var payload map[string]any
	switch input.ImageContentType {
	case "application/pdf":
		payload = map[string]any{
			"type": "document",
			"source": map[string]any{
				"type":       "base64",
				"media_type": "application/pdf",
				"data":       encoded,
			},
		}
	case "image/jpeg", "image/png":
		payload = map[string]any{
			"type": "image",
			"source": map[string]any{
				"type":       "base64",
				"media_type": input.ImageContentType,
				"data":       encoded,
			},
		}
	default:
		return nil, fmt.Errorf("unsupported image content type: %s", input.ImageContentType)
	}

	blocks := []map[string]any{
		payload,
		{"type": "text", "text": input.Prompt},
	}
	return c.generate(ctx, input.Model, input.MaxTokens, input.Temperature, blocks)
}

func (c *Client) generate(ctx context.Context, model string, maxTokens int, temperature float64, blocks []map[string]any) (*port.GenerateOutput, error) {
	if maxTokens == 0 {
		maxTokens = 8192
	}
	reqBody := map[string]any{
		"model":       model,
		"max_tokens":  maxTokens,
		"temperature": temperature,
		"messages": []map[string]any{
			{"role": "user", "content": blocks},
		},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	return resilience.Do(ctx, c.retry, func(ctx context.Context) (*port.GenerateOutput, error) {
		return c.doRequest(ctx, bodyBytes)
	})
}

func (c *Client) doRequest(ctx context.Context, body []byte) (*port.GenerateOutput, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", apiVersion)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling anthropic API: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		apiErr := fmt.Errorf("anthropic API error (status %d): %s", resp.StatusCode, truncate(string(respBody), 500))
		if resilience.RetryableStatus(resp.StatusCode) {
			return nil, resilience.Transient(apiErr, resp.StatusCode)
		}
		return nil, apiErr
	}

	return parseResponse(respBody)
}

// apiResponse models the Anthropic Messages API response.
type apiResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

func parseResponse(body []byte) (*port.GenerateOutput, error) {
	var resp apiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("unmarshaling response: %w", err)
	}

	if len(resp.Content) == 0 {
		return nil, fmt.Errorf("empty response from API")
	}
	if resp.StopReason == "max_tokens" {
		return nil, fmt.Errorf("output truncated (stop_reason: max_tokens): response exceeded output token limit")
	}

	return &port.GenerateOutput{
		Content:      resp.Content[0].Text,
		InputTokens:  resp.Usage.InputTokens,
		OutputTokens: resp.Usage.OutputTokens,
	}, nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
