package unitofwork

import (
	"context"

	"chat-relay-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	ChatMessageRepository() contract.ChatMessageRepository
	ProviderCallRepository() contract.ProviderCallRepository
}
