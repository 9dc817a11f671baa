// Package planwisesdk is a minimal Planwise HTTP API client.
package planwisesdk

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

// Client talks to a running Planwise server.
type Client struct {
	BaseURL     string
	BearerToken string
	HTTPClient  *http.Client
	Timeout     time.Duration
}

// New creates a client with sane defaults.
func New(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		Timeout: 2 * time.Minute,
	}
}

// Request mirrors the agent execute payload.
type Request struct {
	Prompt  string         `json:"prompt"`
	Context map[string]any `json:"context,omitempty"`
	History []Message      `json:"history,omitempty"`
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Response is the unified agent result.
type Response struct {
	Success          bool            `json:"success"`
	Action           string          `json:"action"`
	Result           json.RawMessage `json:"result"`
	Message          string          `json:"message"`
	ExecutionDetails json.RawMessage `json:"execution_details,omitempty"`
}

// Capability describes one agent operation.
type Capability struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Keywords    []string `json:"keywords"`
	Example     string   `json:"example"`
}

// Status reports backend availability.
type Status struct {
	Enabled           bool   `json:"enabled"`
	Model             string `json:"model,omitempty"`
	Endpoint          string `json:"endpoint"`
	CapabilitiesCount int    `json:"capabilities_count"`
}

// APIError wraps non-2xx responses.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status=%d body=%s", e.StatusCode, e.Body)
}

// Execute sends a natural-language command to the agent.
func (c *Client) Execute(ctx context.Context, req Request) (Response, error) {
	var resp Response
	err := c.do(ctx, http.MethodPost, "v1/agent/execute", req, &resp)
	return resp, err
}

// Capabilities lists what the agent can do.
func (c *Client) Capabilities(ctx context.Context) ([]Capability, error) {
	var resp struct {
		Capabilities []Capability `json:"capabilities"`
	}
	err := c.do(ctx, http.MethodGet, "v1/agent/capabilities", nil, &resp)
	return resp.Capabilities, err
}

// Status checks whether the generative backend is configured.
func (c *Client) Status(ctx context.Context) (Status, error) {
	var resp Status
	err := c.do(ctx, http.MethodGet, "v1/agent/status", nil, &resp)
	return resp, err
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) error {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	url := strings.TrimRight(c.BaseURL, "/") + "/" + strings.TrimLeft(endpoint, "/")
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, url, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.BearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.BearerToken)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return &APIError{StatusCode: resp.StatusCode, Body: string(b)}
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
