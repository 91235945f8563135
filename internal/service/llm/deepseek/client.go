// Package deepseek is a wire-level client for the DeepSeek chat-completions
// API (OpenAI-compatible). It owns per-attempt timeouts, retry with backoff
// on transient failures, and classification of terminal failures into the
// domain error taxonomy.
package deepseek

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"anan/internal/domain"
	"anan/internal/domain/services"
)

const (
	// DefaultTimeout bounds each attempt (connect + read).
	DefaultTimeout = 30 * time.Second

	// maxAttempts is the total attempt budget, first try included.
	maxAttempts = 3

	// Backoff between attempts: initialBackoff, then multiplied by
	// backoffFactor after every failed attempt.
	initialBackoff = 1 * time.Second
	backoffFactor  = 1.5

	// temperature is fixed for the tutoring persona.
	temperature = 0.7
)

// Config carries the explicit client configuration. No ambient globals:
// the credential lives here and nowhere else.
type Config struct {
	BaseURL   string
	APIKey    string
	Model     string
	MaxTokens int
	Timeout   time.Duration
}

// Client calls the chat-completions endpoint. Safe for concurrent use.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	maxTokens  int
	httpClient *http.Client
	logger     *slog.Logger

	// sleep is swapped out by tests to observe backoff without waiting
	sleep func(time.Duration)
}

// NewClient creates a DeepSeek client from explicit configuration.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		maxTokens:  cfg.MaxTokens,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
		sleep:      time.Sleep,
	}
}

// chatCompletionRequest is the request body for /v1/chat/completions.
type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionResponse struct {
	ID      string   `json:"id"`
	Model   string   `json:"model"`
	Choices []choice `json:"choices"`
}

type choice struct {
	Index        int          `json:"index"`
	Message      *chatMessage `json:"message,omitempty"`
	FinishReason string       `json:"finish_reason,omitempty"`
}

type errorResponse struct {
	Error *apiError `json:"error"`
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code,omitempty"`
}

// Complete sends one logical completion request and returns the raw
// assistant text of the first choice. A missing credential short-circuits
// to domain.ErrUnconfigured before any network activity.
func (c *Client) Complete(ctx context.Context, messages []services.Message) (string, error) {
	if c.apiKey == "" {
		return "", domain.ErrUnconfigured
	}

	payload := chatCompletionRequest{
		Model:       c.model,
		Messages:    make([]chatMessage, 0, len(messages)),
		Temperature: temperature,
		MaxTokens:   c.maxTokens,
	}
	for _, m := range messages {
		payload.Messages = append(payload.Messages, chatMessage{
			Role:    string(m.Role),
			Content: m.Content,
		})
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	wait := initialBackoff
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			c.sleep(wait)
			wait = time.Duration(float64(wait) * backoffFactor)
		}

		text, retryable, err := c.attempt(ctx, body)
		if err == nil {
			return text, nil
		}
		if !retryable {
			return "", err
		}

		lastErr = err
		c.logger.Warn("completion attempt failed",
			"attempt", attempt,
			"max_attempts", maxAttempts,
			"error", err,
		)
	}
	return "", lastErr
}

// attempt performs one HTTP round trip. The returned error wraps the
// matching domain sentinel; retryable reports whether another attempt may
// be made.
func (c *Client) attempt(ctx context.Context, body []byte) (text string, retryable bool, err error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", false, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		// A dead caller context is not worth retrying; timeouts and
		// connection errors are transient
		if ctx.Err() != nil {
			return "", false, fmt.Errorf("%w: %v", domain.ErrNetwork, err)
		}
		return "", true, fmt.Errorf("%w: %v", domain.ErrNetwork, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", true, fmt.Errorf("%w: read response: %v", domain.ErrNetwork, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", retryableStatus(resp.StatusCode), classifyStatus(resp.StatusCode, respBody)
	}

	var result chatCompletionResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", false, fmt.Errorf("%w: %v", domain.ErrMalformedResponse, err)
	}
	if len(result.Choices) == 0 || result.Choices[0].Message == nil || result.Choices[0].Message.Content == "" {
		return "", false, fmt.Errorf("%w: no completion content", domain.ErrMalformedResponse)
	}

	return result.Choices[0].Message.Content, false, nil
}

// retryableStatus reports whether a status warrants another attempt.
func retryableStatus(status int) bool {
	switch status {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

// classifyStatus maps a non-2xx status onto the domain taxonomy, keeping
// the upstream error message for operator logs.
func classifyStatus(status int, body []byte) error {
	detail := upstreamDetail(body)

	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return fmt.Errorf("%w: status %d: %s", domain.ErrAuthFailure, status, detail)
	case status == http.StatusTooManyRequests:
		return fmt.Errorf("%w: status %d: %s", domain.ErrRateLimited, status, detail)
	default:
		return fmt.Errorf("%w: status %d: %s", domain.ErrUpstream, status, detail)
	}
}

// upstreamDetail extracts the API error message when the body carries the
// standard error envelope.
func upstreamDetail(body []byte) string {
	var errResp errorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != nil {
		return errResp.Error.Message
	}
	const maxDetail = 200
	s := string(body)
	if len(s) > maxDetail {
		s = s[:maxDetail]
	}
	return s
}
