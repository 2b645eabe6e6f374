package entity

import (
	"time"

	"github.com/google/uuid"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is one recorded turn of a conversation. Turns are append-only.
type ChatMessage struct {
	Id        int64
	ChatId    uuid.UUID
	Role      string
	Content   string
	Timestamp time.Time
}
