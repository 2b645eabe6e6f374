package llm

import (
	"context"
	"errors"
	"fmt"
)

// Message represents a chat message in a provider-agnostic format
type Message struct {
	Role    string // "user", "assistant", "system"
	Content string
}

// Completion is the extracted first choice of a provider response.
type Completion struct {
	Content string
	Model   string
	Usage   map[string]interface{} // raw provider usage object, nil when absent
}

// Option allows for optional parameters like Temperature, MaxTokens, etc.
type Option func(*Options)

type Options struct {
	Temperature *float64
	MaxTokens   int
	Model       string // Override default model
}

func WithTemperature(temp float64) Option {
	return func(o *Options) {
		o.Temperature = &temp
	}
}

func WithMaxTokens(n int) Option {
	return func(o *Options) {
		o.MaxTokens = n
	}
}

func WithModel(model string) Option {
	return func(o *Options) {
		o.Model = model
	}
}

// LLMProvider defines the contract for any completion backend.
type LLMProvider interface {
	// Complete sends the ordered conversation and returns the first choice.
	Complete(ctx context.Context, history []Message, options ...Option) (*Completion, error)

	// Model is the configured default model name.
	Model() string
}

// ErrNoChoices is reported when the provider answers without any completion choice.
var ErrNoChoices = errors.New("provider returned no choices")

// ProviderError is the single error type of the provider layer. Transport, status,
// decoding and empty-response failures are all reported through it.
type ProviderError struct {
	Provider   string
	StatusCode int // 0 when no HTTP response was received
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}
