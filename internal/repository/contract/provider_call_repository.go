package contract

import (
	"context"

	"chat-relay-be/internal/entity"
	"chat-relay-be/internal/repository/specification"
)

type ProviderCallRepository interface {
	Create(ctx context.Context, call *entity.ProviderCall) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ProviderCall, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ProviderCall, error)
}
