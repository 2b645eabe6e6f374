package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type ProviderCall struct {
	Id           uuid.UUID      `gorm:"type:uuid;primaryKey"`
	ChatId       uuid.UUID      `gorm:"type:uuid;not null;index"`
	Model        string         `gorm:"type:varchar(128);not null"`
	MessageCount int            `gorm:"not null"`
	Status       string         `gorm:"type:varchar(32);not null;index"`
	Error        string         `gorm:"type:text"`
	LatencyMs    int64          `gorm:"not null"`
	Usage        datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt    time.Time      `gorm:"autoCreateTime"`
}

func (ProviderCall) TableName() string {
	return "provider_calls"
}
