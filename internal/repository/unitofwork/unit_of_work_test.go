package unitofwork

import (
	"context"
	"testing"

	"chat-relay-be/internal/entity"
	"chat-relay-be/pkg/database/dbtest"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnitOfWork_RollbackDiscardsWrites(t *testing.T) {
	db := dbtest.NewSQLite(t)
	uow := NewRepositoryFactory(db).NewUnitOfWork(context.Background())
	ctx := context.Background()
	chatId := uuid.New()

	require.NoError(t, uow.Begin(ctx))
	require.NoError(t, uow.ChatMessageRepository().Create(ctx, &entity.ChatMessage{ChatId: chatId, Role: entity.RoleUser, Content: "draft"}))
	require.NoError(t, uow.Rollback())

	turns, err := uow.ChatMessageRepository().ListOrdered(ctx, chatId)
	require.NoError(t, err)
	assert.Empty(t, turns)
}

func TestUnitOfWork_CommitPersists(t *testing.T) {
	db := dbtest.NewSQLite(t)
	uow := NewRepositoryFactory(db).NewUnitOfWork(context.Background())
	ctx := context.Background()
	chatId := uuid.New()

	require.NoError(t, uow.Begin(ctx))
	require.NoError(t, uow.ChatMessageRepository().Create(ctx, &entity.ChatMessage{ChatId: chatId, Role: entity.RoleUser, Content: "kept"}))
	require.NoError(t, uow.Commit())

	turns, err := uow.ChatMessageRepository().ListOrdered(ctx, chatId)
	require.NoError(t, err)
	require.Len(t, turns, 1)
	assert.Equal(t, "kept", turns[0].Content)
}

func TestUnitOfWork_StateErrors(t *testing.T) {
	db := dbtest.NewSQLite(t)
	uow := NewUnitOfWork(db)
	ctx := context.Background()

	assert.Error(t, uow.Commit())
	assert.Error(t, uow.Rollback())

	require.NoError(t, uow.Begin(ctx))
	assert.Error(t, uow.Begin(ctx))
	require.NoError(t, uow.Rollback())
}
