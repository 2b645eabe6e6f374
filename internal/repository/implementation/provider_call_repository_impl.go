package implementation

import (
	"context"
	"errors"

	"chat-relay-be/internal/entity"
	"chat-relay-be/internal/mapper"
	"chat-relay-be/internal/model"
	"chat-relay-be/internal/repository/contract"
	"chat-relay-be/internal/repository/scope"
	"chat-relay-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProviderCallRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ChatMapper
}

func NewProviderCallRepository(db *gorm.DB) contract.ProviderCallRepository {
	return &ProviderCallRepositoryImpl{
		db:     db,
		mapper: mapper.NewChatMapper(),
	}
}

func (r *ProviderCallRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *ProviderCallRepositoryImpl) Create(ctx context.Context, call *entity.ProviderCall) error {
	if call.Id == uuid.Nil {
		call.Id = uuid.New()
	}
	m := r.mapper.ProviderCallToModel(call)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	stored, err := r.mapper.ProviderCallToEntity(m)
	if err != nil {
		return err
	}
	*call = *stored
	return nil
}

func (r *ProviderCallRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ProviderCall, error) {
	var m model.ProviderCall
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ProviderCallToEntity(&m)
}

// FindAll returns matching calls. Newest first breaks any ordering the specifications leave open.
func (r *ProviderCallRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ProviderCall, error) {
	var models []*model.ProviderCall
	query := r.applySpecifications(r.db.WithContext(ctx), specs...).Scopes(scope.NewestFirst)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.ProviderCall, len(models))
	for i, m := range models {
		e, err := r.mapper.ProviderCallToEntity(m)
		if err != nil {
			return nil, err
		}
		entities[i] = e
	}
	return entities, nil
}
