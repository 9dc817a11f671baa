package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// OpenRouterClient implements Client against an OpenAI-compatible chat
// completions API. Constructed once at process start and injected into
// every generator call; never mutated afterwards.
type OpenRouterClient struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig(apiKey string) Config {
	return Config{
		APIKey:  apiKey,
		BaseURL: "https://openrouter.ai/api/v1",
		Model:   "anthropic/claude-3.5-sonnet",
		Timeout: 120 * time.Second,
	}
}

func NewOpenRouterClient(cfg Config) *OpenRouterClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultConfig("").BaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultConfig("").Model
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultConfig("").Timeout
	}
	return &OpenRouterClient{
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		model:   cfg.Model,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

func (c *OpenRouterClient) Model() string { return c.model }

func (c *OpenRouterClient) Enabled() bool { return c.apiKey != "" }

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    any    `json:"code"`
	} `json:"error,omitempty"`
}

// Complete sends one chat completion request. A single attempt: rate
// limits and timeouts surface as BackendError, never as silent retries.
func (c *OpenRouterClient) Complete(ctx context.Context, systemPrompt, userPrompt string, opts Options) (string, error) {
	if !c.Enabled() {
		return "", ErrNotConfigured
	}
	messages := make([]chatMessage, 0, 2)
	if systemPrompt != "" {
		messages = append(messages, chatMessage{Role: "system", Content: systemPrompt})
	}
	messages = append(messages, chatMessage{Role: "user", Content: userPrompt})

	body, err := json.Marshal(chatRequest{
		Model:       c.model,
		Messages:    messages,
		MaxTokens:   opts.MaxTokens,
		Temperature: opts.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &BackendError{Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &BackendError{Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return "", &BackendError{Err: fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))}
	}

	var parsed chatResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", &BackendError{Err: fmt.Errorf("decode response: %w", err)}
	}
	if parsed.Error != nil {
		return "", &BackendError{Err: fmt.Errorf("api error: %s", parsed.Error.Message)}
	}
	if len(parsed.Choices) == 0 {
		return "", &BackendError{Err: fmt.Errorf("no completion returned")}
	}
	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}
