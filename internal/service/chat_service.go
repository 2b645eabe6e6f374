package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"chat-relay-be/internal/config"
	"chat-relay-be/internal/dto"
	"chat-relay-be/internal/entity"
	"chat-relay-be/internal/mapper"
	"chat-relay-be/internal/pkg/logger"
	"chat-relay-be/internal/repository/specification"
	"chat-relay-be/internal/repository/unitofwork"
	"chat-relay-be/pkg/events"
	"chat-relay-be/pkg/llm"
	"chat-relay-be/pkg/lock"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	chatModule = "ChatService"

	// Replies returned in place of the assistant text when the provider fails.
	DiagnosticNoResponse = "Provider returned no response."
	DiagnosticErrPrefix  = "Error calling provider: "

	chatLockPrefix = "chat:"
)

type IChatService interface {
	// SendPrompt records the prompt, asks the provider for a reply using the
	// chat's history, records the reply and returns it. Provider failures are
	// reported through the returned text, storage failures through the error.
	SendPrompt(ctx context.Context, chatId uuid.UUID, prompt string) (string, error)
	GetHistory(ctx context.Context, chatId uuid.UUID) ([]*dto.ChatMessageResponse, error)
	// ListProviderCalls returns the recorded provider calls of the chat, newest
	// first. A non-empty status keeps only calls with that outcome.
	ListProviderCalls(ctx context.Context, chatId uuid.UUID, status string) ([]*dto.ProviderCallResponse, error)
}

type chatService struct {
	uowFactory  unitofwork.RepositoryFactory
	llmProvider llm.LLMProvider
	locker      lock.Locker
	publisher   IPublisherService
	logger      logger.ILogger
	mapper      *mapper.ChatMapper

	preserveRoles bool
	historyWindow int
	callOptions   []llm.Option
}

func NewChatService(
	uowFactory unitofwork.RepositoryFactory,
	llmProvider llm.LLMProvider,
	locker lock.Locker,
	publisher IPublisherService,
	log logger.ILogger,
	cfg config.ChatConfig,
) IChatService {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &chatService{
		uowFactory:    uowFactory,
		llmProvider:   llmProvider,
		locker:        locker,
		publisher:     publisher,
		logger:        log,
		mapper:        mapper.NewChatMapper(),
		preserveRoles: cfg.PreserveRoles,
		historyWindow: cfg.HistoryWindow,
		callOptions:   callOptions(cfg),
	}
}

func callOptions(cfg config.ChatConfig) []llm.Option {
	var opts []llm.Option
	if cfg.Temperature != nil {
		opts = append(opts, llm.WithTemperature(*cfg.Temperature))
	}
	if cfg.MaxTokens > 0 {
		opts = append(opts, llm.WithMaxTokens(cfg.MaxTokens))
	}
	return opts
}

func (cs *chatService) SendPrompt(ctx context.Context, chatId uuid.UUID, prompt string) (string, error) {
	ctx, span := otel.Tracer("chat-relay-be/internal/service").Start(ctx, "ChatService.SendPrompt")
	defer span.End()
	span.SetAttributes(attribute.String("chat.id", chatId.String()))

	// Concurrent prompts on one chat would otherwise interleave their turns.
	if cs.locker != nil {
		unlock, err := cs.locker.Lock(ctx, chatLockPrefix+chatId.String())
		if err != nil {
			span.RecordError(err)
			return "", fmt.Errorf("failed to lock chat %s: %w", chatId, err)
		}
		defer unlock()
	}

	repo := cs.uowFactory.NewUnitOfWork(ctx).ChatMessageRepository()

	// 1. Record the user turn
	userTurn := &entity.ChatMessage{ChatId: chatId, Role: entity.RoleUser, Content: prompt}
	if err := repo.Create(ctx, userTurn); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "store user turn")
		return "", fmt.Errorf("failed to store user message: %w", err)
	}
	cs.publishTurn(ctx, userTurn)

	// 2. Load the conversation, user turn included
	history, err := repo.ListRecent(ctx, chatId, cs.historyWindow)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "load history")
		return "", fmt.Errorf("failed to load chat history: %w", err)
	}

	// 3. Ask the provider
	messages := toProviderMessages(history, prompt, cs.preserveRoles)
	span.SetAttributes(attribute.Int("chat.context_messages", len(messages)))

	started := time.Now()
	completion, callErr := cs.llmProvider.Complete(ctx, messages, cs.callOptions...)
	cs.publishProviderCall(ctx, chatId, len(messages), time.Since(started), completion, callErr)

	if callErr != nil {
		cs.logger.Warn(chatModule, "Provider call failed", map[string]interface{}{
			"chat_id": chatId,
			"error":   callErr.Error(),
		})
		return diagnosticFor(callErr), nil
	}

	// 4. Record the assistant turn
	assistantTurn := &entity.ChatMessage{ChatId: chatId, Role: entity.RoleAssistant, Content: completion.Content}
	if err := repo.Create(ctx, assistantTurn); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "store assistant turn")
		return "", fmt.Errorf("failed to store assistant message: %w", err)
	}
	cs.publishTurn(ctx, assistantTurn)

	return completion.Content, nil
}

func (cs *chatService) GetHistory(ctx context.Context, chatId uuid.UUID) ([]*dto.ChatMessageResponse, error) {
	uow := cs.uowFactory.NewUnitOfWork(ctx)

	turns, err := uow.ChatMessageRepository().ListOrdered(ctx, chatId)
	if err != nil {
		return nil, fmt.Errorf("failed to load chat history: %w", err)
	}

	res := make([]*dto.ChatMessageResponse, 0, len(turns))
	for _, turn := range turns {
		res = append(res, cs.mapper.ChatMessageToResponse(turn))
	}
	return res, nil
}

func (cs *chatService) ListProviderCalls(ctx context.Context, chatId uuid.UUID, status string) ([]*dto.ProviderCallResponse, error) {
	specs := []specification.Specification{specification.ByChatID{ChatID: chatId}}
	if status != "" {
		specs = append(specs, specification.Filter("status", status))
	}

	calls, err := cs.uowFactory.NewUnitOfWork(ctx).ProviderCallRepository().FindAll(ctx, specs...)
	if err != nil {
		return nil, fmt.Errorf("failed to load provider calls: %w", err)
	}

	res := make([]*dto.ProviderCallResponse, 0, len(calls))
	for _, call := range calls {
		res = append(res, cs.mapper.ProviderCallToResponse(call))
	}
	return res, nil
}

// toProviderMessages maps stored turns onto provider messages. With
// preserveRoles off every turn is sent as a user message. An empty history
// falls back to the prompt alone.
func toProviderMessages(turns []*entity.ChatMessage, prompt string, preserveRoles bool) []llm.Message {
	if len(turns) == 0 {
		return []llm.Message{{Role: entity.RoleUser, Content: prompt}}
	}

	messages := make([]llm.Message, 0, len(turns))
	for _, turn := range turns {
		role := entity.RoleUser
		if preserveRoles && turn.Role != "" {
			role = turn.Role
		}
		messages = append(messages, llm.Message{Role: role, Content: turn.Content})
	}
	return messages
}

func diagnosticFor(err error) string {
	if errors.Is(err, llm.ErrNoChoices) {
		return DiagnosticNoResponse
	}
	return DiagnosticErrPrefix + err.Error()
}

func (cs *chatService) publishTurn(ctx context.Context, turn *entity.ChatMessage) {
	cs.publish(ctx, events.TypeTurnRecorded, dto.TurnRecordedEvent{
		Id:      turn.Id,
		ChatId:  turn.ChatId,
		Role:    turn.Role,
		Content: turn.Content,
	})
}

func (cs *chatService) publishProviderCall(ctx context.Context, chatId uuid.UUID, messageCount int, latency time.Duration, completion *llm.Completion, callErr error) {
	payload := dto.ProviderCallEvent{
		CallId:       uuid.New(),
		ChatId:       chatId,
		Model:        cs.llmProvider.Model(),
		MessageCount: messageCount,
		LatencyMs:    latency.Milliseconds(),
	}

	switch {
	case callErr == nil:
		payload.Status = entity.ProviderCallSuccess
		payload.Usage = completion.Usage
		if completion.Model != "" {
			payload.Model = completion.Model
		}
	case errors.Is(callErr, llm.ErrNoChoices):
		payload.Status = entity.ProviderCallNoResponse
		payload.Error = callErr.Error()
	default:
		payload.Status = entity.ProviderCallError
		payload.Error = callErr.Error()
	}

	cs.publish(ctx, events.TypeProviderCallCompleted, payload)
}

// publish never fails the request. Events are an audit side channel.
func (cs *chatService) publish(ctx context.Context, eventType string, payload interface{}) {
	if cs.publisher == nil {
		return
	}

	event, err := newEvent(eventType, payload)
	if err == nil {
		err = cs.publisher.Publish(ctx, event)
	}
	if err != nil {
		cs.logger.Warn(chatModule, "Failed to publish event", map[string]interface{}{
			"type":  eventType,
			"error": err.Error(),
		})
	}
}
