// Package inference implements the chat-completion backend client used
// to generate assistant replies.
package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/mindflow/mindflow/internal/models"
)

// Config holds backend connection settings.
type Config struct {
	BaseURL           string  `yaml:"base_url"`
	APIKey            string  `yaml:"api_key"`
	Model             string  `yaml:"model"`
	Temperature       float64 `yaml:"temperature"`
	MaxTokens         int     `yaml:"max_tokens"`
	TimeoutSeconds    int     `yaml:"timeout_seconds"`
	RequestsPerMinute int     `yaml:"requests_per_minute"`
}

// DefaultConfig returns production defaults for the hosted backend.
func DefaultConfig() Config {
	return Config{
		BaseURL:           "https://api.deepseek.com",
		Model:             "deepseek-chat",
		Temperature:       0.7,
		MaxTokens:         1000,
		TimeoutSeconds:    60,
		RequestsPerMinute: 60,
	}
}

// BackendError reports a failed completion request. StatusCode is zero
// for transport-level failures.
type BackendError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *BackendError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("backend request failed: status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("backend request failed: %s", e.Message)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

// Client calls an OpenAI-compatible chat completions endpoint with
// client-side rate limiting. Requests are not retried.
type Client struct {
	config     Config
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a backend client from config, filling defaults for
// zero-valued fields.
func NewClient(config Config) *Client {
	defaults := DefaultConfig()
	if config.BaseURL == "" {
		config.BaseURL = defaults.BaseURL
	}
	if config.Model == "" {
		config.Model = defaults.Model
	}
	if config.Temperature == 0 {
		config.Temperature = defaults.Temperature
	}
	if config.MaxTokens == 0 {
		config.MaxTokens = defaults.MaxTokens
	}
	if config.TimeoutSeconds == 0 {
		config.TimeoutSeconds = defaults.TimeoutSeconds
	}
	if config.RequestsPerMinute == 0 {
		config.RequestsPerMinute = defaults.RequestsPerMinute
	}

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: time.Duration(config.TimeoutSeconds) * time.Second,
		},
		limiter: rate.NewLimiter(rate.Limit(float64(config.RequestsPerMinute)/60.0), 1),
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete sends the conversation to the backend and returns the
// assistant's reply text.
func (c *Client) Complete(ctx context.Context, messages []models.Message) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait: %w", err)
	}

	reqBody := chatRequest{
		Model:       c.config.Model,
		Temperature: c.config.Temperature,
		MaxTokens:   c.config.MaxTokens,
		Messages:    make([]chatMessage, 0, len(messages)),
	}
	for _, msg := range messages {
		reqBody.Messages = append(reqBody.Messages, chatMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
		})
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.config.BaseURL+"/v1/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &BackendError{Message: "request transport error", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &BackendError{StatusCode: resp.StatusCode, Message: "reading response body", Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &BackendError{StatusCode: resp.StatusCode, Message: string(body)}
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", &BackendError{StatusCode: resp.StatusCode, Message: "malformed response body", Err: err}
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return "", &BackendError{StatusCode: resp.StatusCode, Message: "response contained no completion"}
	}

	return parsed.Choices[0].Message.Content, nil
}
