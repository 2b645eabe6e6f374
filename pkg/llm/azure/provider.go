package azure

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"chat-relay-be/internal/pkg/logger"
	"chat-relay-be/pkg/llm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const logModule = "ProviderClient"

// AzureProvider talks to an Azure OpenAI (or any OpenAI-compatible) chat-completions endpoint.
type AzureProvider struct {
	Name      string
	URL       string
	APIKey    string
	ModelName string
	Client    *http.Client
	logger    logger.ILogger
}

// Ensure AzureProvider implements LLMProvider
var _ llm.LLMProvider = &AzureProvider{}

func NewAzureProvider(name, url, apiKey, modelName string, timeout time.Duration, log logger.ILogger) *AzureProvider {
	if log == nil {
		log = logger.NewNopLogger()
	}
	if name == "" {
		name = "azure"
	}
	return &AzureProvider{
		Name:      name,
		URL:       url,
		APIKey:    apiKey,
		ModelName: modelName,
		Client: &http.Client{
			Timeout: timeout,
		},
		logger: log,
	}
}

// --- Request/Response structs (Internal to this package) ---

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature *float64      `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage map[string]interface{} `json:"usage,omitempty"`
}

// --- Interface Implementation ---

func (p *AzureProvider) Model() string {
	return p.ModelName
}

func (p *AzureProvider) Complete(ctx context.Context, history []llm.Message, opts ...llm.Option) (*llm.Completion, error) {
	ctx, span := otel.Tracer("chat-relay-be/pkg/llm/azure").Start(ctx, "azure.Complete")
	defer span.End()

	// 1. Process Options
	options := &llm.Options{}
	for _, opt := range opts {
		opt(options)
	}

	model := p.ModelName
	if options.Model != "" {
		model = options.Model
	}
	span.SetAttributes(
		attribute.String("llm.provider", p.Name),
		attribute.String("llm.model", model),
		attribute.Int("llm.messages", len(history)),
	)

	// 2. Map generic messages to wire messages
	messages := make([]chatMessage, len(history))
	for i, msg := range history {
		messages[i] = chatMessage{Role: msg.Role, Content: msg.Content}
	}

	// 3. Prepare Payload
	reqPayload := chatRequest{
		Model:       model,
		Messages:    messages,
		Temperature: options.Temperature,
		MaxTokens:   options.MaxTokens,
	}

	payloadBytes, err := json.Marshal(reqPayload)
	if err != nil {
		return nil, p.fail(span, 0, fmt.Errorf("marshal request: %w", err))
	}

	// 4. Send Request
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.URL, bytes.NewBuffer(payloadBytes))
	if err != nil {
		return nil, p.fail(span, 0, fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	// Azure reads api-key, OpenAI-compatible gateways read the bearer token.
	req.Header.Set("Authorization", "Bearer "+p.APIKey)
	req.Header.Set("api-key", p.APIKey)

	started := time.Now()
	p.logger.Info(logModule, "Calling provider", map[string]interface{}{
		"provider": p.Name,
		"url":      p.URL,
		"model":    model,
		"messages": len(messages),
	})

	resp, err := p.Client.Do(req)
	if err != nil {
		return nil, p.fail(span, 0, fmt.Errorf("request failed: %w", err))
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, p.fail(span, resp.StatusCode, fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, p.fail(span, resp.StatusCode, fmt.Errorf("unexpected response: %s", truncate(string(bodyBytes), 400)))
	}

	// 5. Parse Response
	var parsed chatResponse
	if err := json.Unmarshal(bodyBytes, &parsed); err != nil {
		return nil, p.fail(span, resp.StatusCode, fmt.Errorf("unmarshal response: %w", err))
	}

	if len(parsed.Choices) == 0 {
		return nil, p.fail(span, resp.StatusCode, llm.ErrNoChoices)
	}

	p.logger.Info(logModule, "Provider call succeeded", map[string]interface{}{
		"provider":   p.Name,
		"model":      model,
		"latency_ms": time.Since(started).Milliseconds(),
		"usage":      parsed.Usage,
	})

	responseModel := parsed.Model
	if responseModel == "" {
		responseModel = model
	}
	return &llm.Completion{
		Content: parsed.Choices[0].Message.Content,
		Model:   responseModel,
		Usage:   parsed.Usage,
	}, nil
}

func (p *AzureProvider) fail(span trace.Span, status int, err error) error {
	perr := &llm.ProviderError{Provider: p.Name, StatusCode: status, Err: err}
	span.RecordError(perr)
	span.SetStatus(codes.Error, perr.Error())
	p.logger.Error(logModule, "Provider call failed", map[string]interface{}{
		"provider": p.Name,
		"status":   status,
		"error":    perr.Error(),
	})
	return perr
}

func truncate(s string, maxChars int) string {
	runes := []rune(s)
	if len(runes) <= maxChars {
		return s
	}
	return string(runes[:maxChars])
}
