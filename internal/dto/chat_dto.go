package dto

import (
	"time"

	"github.com/google/uuid"
)

type SendPromptRequest struct {
	Prompt string `json:"prompt"`
	ChatId string `json:"chatId" validate:"required,uuid"`
}

type ChatMessageResponse struct {
	Id        int64     `json:"id"`
	ChatId    uuid.UUID `json:"chatId"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

type ProviderCallResponse struct {
	Id           uuid.UUID              `json:"id"`
	ChatId       uuid.UUID              `json:"chatId"`
	Model        string                 `json:"model"`
	MessageCount int                    `json:"messageCount"`
	Status       string                 `json:"status"`
	Error        string                 `json:"error,omitempty"`
	LatencyMs    int64                  `json:"latencyMs"`
	Usage        map[string]interface{} `json:"usage,omitempty"`
	CreatedAt    time.Time              `json:"createdAt"`
}

type HealthResponse struct {
	Status string `json:"status"`
}
