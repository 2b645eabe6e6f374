package dto

import "github.com/google/uuid"

// TurnRecordedEvent is the data of a TURN_RECORDED event.
type TurnRecordedEvent struct {
	Id      int64     `json:"id"`
	ChatId  uuid.UUID `json:"chat_id"`
	Role    string    `json:"role"`
	Content string    `json:"content"`
}

// ProviderCallEvent is the data of a PROVIDER_CALL_COMPLETED event.
type ProviderCallEvent struct {
	CallId       uuid.UUID              `json:"call_id"`
	ChatId       uuid.UUID              `json:"chat_id"`
	Model        string                 `json:"model"`
	MessageCount int                    `json:"message_count"`
	Status       string                 `json:"status"`
	Error        string                 `json:"error,omitempty"`
	LatencyMs    int64                  `json:"latency_ms"`
	Usage        map[string]interface{} `json:"usage,omitempty"`
}
