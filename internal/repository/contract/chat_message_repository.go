package contract

import (
	"context"

	"chat-relay-be/internal/entity"
	"chat-relay-be/internal/repository/specification"

	"github.com/google/uuid"
)

// ChatMessageRepository is the append-only turn log. Turns are never updated or deleted.
type ChatMessageRepository interface {
	Create(ctx context.Context, message *entity.ChatMessage) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatMessage, error)

	// ListOrdered returns every turn of the chat, oldest first. Unknown chats yield an empty slice.
	ListOrdered(ctx context.Context, chatId uuid.UUID) ([]*entity.ChatMessage, error)
	// ListRecent returns the newest n turns of the chat, oldest first. n <= 0 means all.
	ListRecent(ctx context.Context, chatId uuid.UUID, n int) ([]*entity.ChatMessage, error)
}
