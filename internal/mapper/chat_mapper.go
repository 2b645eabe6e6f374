package mapper

import (
	"encoding/json"
	"fmt"

	"chat-relay-be/internal/dto"
	"chat-relay-be/internal/entity"
	"chat-relay-be/internal/model"

	"gorm.io/datatypes"
)

type ChatMapper struct{}

func NewChatMapper() *ChatMapper {
	return &ChatMapper{}
}

// Message Mappers

func (m *ChatMapper) ChatMessageToEntity(msg *model.ChatMessage) *entity.ChatMessage {
	if msg == nil {
		return nil
	}

	return &entity.ChatMessage{
		Id:        msg.Id,
		ChatId:    msg.ChatId,
		Role:      msg.Role,
		Content:   msg.Content,
		Timestamp: msg.Timestamp,
	}
}

func (m *ChatMapper) ChatMessageToModel(msg *entity.ChatMessage) *model.ChatMessage {
	if msg == nil {
		return nil
	}

	return &model.ChatMessage{
		Id:        msg.Id,
		ChatId:    msg.ChatId,
		Role:      msg.Role,
		Content:   msg.Content,
		Timestamp: msg.Timestamp,
	}
}

// Provider Call Mappers

func (m *ChatMapper) ProviderCallToEntity(c *model.ProviderCall) (*entity.ProviderCall, error) {
	if c == nil {
		return nil, nil
	}

	var usage map[string]interface{}
	if len(c.Usage) > 0 {
		if err := json.Unmarshal(c.Usage, &usage); err != nil {
			return nil, fmt.Errorf("provider call %s: decode usage: %w", c.Id, err)
		}
	}

	return &entity.ProviderCall{
		Id:           c.Id,
		ChatId:       c.ChatId,
		Model:        c.Model,
		MessageCount: c.MessageCount,
		Status:       c.Status,
		Error:        c.Error,
		LatencyMs:    c.LatencyMs,
		Usage:        usage,
		CreatedAt:    c.CreatedAt,
	}, nil
}

func (m *ChatMapper) ProviderCallToModel(c *entity.ProviderCall) *model.ProviderCall {
	if c == nil {
		return nil
	}

	var usage datatypes.JSON
	if len(c.Usage) > 0 {
		if raw, err := json.Marshal(c.Usage); err == nil {
			usage = datatypes.JSON(raw)
		}
	}

	return &model.ProviderCall{
		Id:           c.Id,
		ChatId:       c.ChatId,
		Model:        c.Model,
		MessageCount: c.MessageCount,
		Status:       c.Status,
		Error:        c.Error,
		LatencyMs:    c.LatencyMs,
		Usage:        usage,
		CreatedAt:    c.CreatedAt,
	}
}

// Response Mappers

func (m *ChatMapper) ChatMessageToResponse(msg *entity.ChatMessage) *dto.ChatMessageResponse {
	if msg == nil {
		return nil
	}

	return &dto.ChatMessageResponse{
		Id:        msg.Id,
		ChatId:    msg.ChatId,
		Role:      msg.Role,
		Content:   msg.Content,
		Timestamp: msg.Timestamp,
	}
}

func (m *ChatMapper) ProviderCallToResponse(c *entity.ProviderCall) *dto.ProviderCallResponse {
	if c == nil {
		return nil
	}

	return &dto.ProviderCallResponse{
		Id:           c.Id,
		ChatId:       c.ChatId,
		Model:        c.Model,
		MessageCount: c.MessageCount,
		Status:       c.Status,
		Error:        c.Error,
		LatencyMs:    c.LatencyMs,
		Usage:        c.Usage,
		CreatedAt:    c.CreatedAt,
	}
}
