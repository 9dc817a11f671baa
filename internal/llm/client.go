// Package llm talks to the generative language backend. The backend is a
// black box: text in, text out, may fail or time out. Nothing in here
// retries — a failed call surfaces immediately to the caller.
package llm

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotConfigured is returned before any network work when no API key
// has been provided.
var ErrNotConfigured = errors.New("generative backend not configured")

// Options are the per-call generation knobs. Each capability pins its
// own temperature and token budget.
type Options struct {
	Temperature float64
	MaxTokens   int
}

// Client is the single operation this core needs from the backend.
type Client interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string, opts Options) (string, error)
	Model() string
	Enabled() bool
}

// BackendError wraps a transport or API failure from the backend.
type BackendError struct {
	Err error
}

func (e *BackendError) Error() string { return fmt.Sprintf("generative backend: %v", e.Err) }
func (e *BackendError) Unwrap() error { return e.Err }
