package entity

import (
	"time"

	"github.com/google/uuid"
)

const (
	ProviderCallSuccess    = "success"
	ProviderCallNoResponse = "no_response"
	ProviderCallError      = "error"
)

type ProviderCall struct {
	Id           uuid.UUID
	ChatId       uuid.UUID
	Model        string
	MessageCount int
	Status       string
	Error        string
	LatencyMs    int64
	Usage        map[string]interface{}
	CreatedAt    time.Time
}
