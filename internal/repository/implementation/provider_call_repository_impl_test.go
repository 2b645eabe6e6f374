package implementation

import (
	"context"
	"testing"
	"time"

	"chat-relay-be/internal/entity"
	"chat-relay-be/internal/model"
	"chat-relay-be/internal/repository/specification"
	"chat-relay-be/pkg/database/dbtest"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func TestProviderCallRepository_CreateAndFind(t *testing.T) {
	db := dbtest.NewSQLite(t)
	repo := NewProviderCallRepository(db)
	ctx := context.Background()
	chatId := uuid.New()

	call := &entity.ProviderCall{
		ChatId:       chatId,
		Model:        "gpt-4o",
		MessageCount: 3,
		Status:       entity.ProviderCallSuccess,
		LatencyMs:    120,
		Usage:        map[string]interface{}{"prompt_tokens": float64(12), "completion_tokens": float64(4)},
	}
	require.NoError(t, repo.Create(ctx, call))
	require.NotEqual(t, uuid.Nil, call.Id)

	found, err := repo.FindOne(ctx, specification.ByID{ID: call.Id})
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, chatId, found.ChatId)
	assert.Equal(t, "gpt-4o", found.Model)
	assert.Equal(t, 3, found.MessageCount)
	assert.Equal(t, float64(12), found.Usage["prompt_tokens"])

	missing, err := repo.FindOne(ctx, specification.ByID{ID: uuid.New()})
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestProviderCallRepository_FindAllByStatus(t *testing.T) {
	db := dbtest.NewSQLite(t)
	repo := NewProviderCallRepository(db)
	ctx := context.Background()
	chatId := uuid.New()

	require.NoError(t, repo.Create(ctx, &entity.ProviderCall{ChatId: chatId, Model: "m", Status: entity.ProviderCallSuccess}))
	require.NoError(t, repo.Create(ctx, &entity.ProviderCall{ChatId: chatId, Model: "m", Status: entity.ProviderCallError, Error: "timeout"}))

	failed, err := repo.FindAll(ctx, specification.Filter("status", entity.ProviderCallError))
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, "timeout", failed[0].Error)
	assert.Nil(t, failed[0].Usage)
}

func TestProviderCallRepository_FindAllNewestFirst(t *testing.T) {
	db := dbtest.NewSQLite(t)
	repo := NewProviderCallRepository(db)
	ctx := context.Background()
	chatId := uuid.New()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, m := range []string{"old", "mid", "new"} {
		require.NoError(t, repo.Create(ctx, &entity.ProviderCall{
			ChatId:    chatId,
			Model:     m,
			Status:    entity.ProviderCallSuccess,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	calls, err := repo.FindAll(ctx, specification.Filter("chat_id", chatId))
	require.NoError(t, err)
	require.Len(t, calls, 3)
	assert.Equal(t, "new", calls[0].Model)
	assert.Equal(t, "old", calls[2].Model)
}

func TestProviderCallRepository_CorruptUsageIsReported(t *testing.T) {
	db := dbtest.NewSQLite(t)
	repo := NewProviderCallRepository(db)
	ctx := context.Background()
	chatId := uuid.New()

	bad := &model.ProviderCall{
		Id:        uuid.New(),
		ChatId:    chatId,
		Model:     "m",
		Status:    entity.ProviderCallSuccess,
		Usage:     datatypes.JSON(`{"total_tokens":`),
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, db.Create(bad).Error)

	_, err := repo.FindOne(ctx, specification.ByID{ID: bad.Id})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode usage")

	_, err = repo.FindAll(ctx, specification.ByChatID{ChatID: chatId})
	assert.Error(t, err)
}
