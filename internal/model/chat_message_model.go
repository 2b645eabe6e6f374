package model

import (
	"time"

	"github.com/google/uuid"
)

type ChatMessage struct {
	Id        int64     `gorm:"primaryKey;autoIncrement"`
	ChatId    uuid.UUID `gorm:"type:uuid;not null;index:idx_chatmessages_chat_ts,priority:1"`
	Role      string    `gorm:"type:varchar(32);not null"`
	Content   string    `gorm:"type:text;not null"`
	Timestamp time.Time `gorm:"column:created_at;not null;index:idx_chatmessages_chat_ts,priority:2"`
}

func (ChatMessage) TableName() string {
	return "chatmessages"
}
