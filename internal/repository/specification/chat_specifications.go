package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ByChatID struct {
	ChatID uuid.UUID
}

func (s ByChatID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("chat_id = ?", s.ChatID)
}

// Chronological orders turns oldest first, breaking timestamp ties by insertion order.
type Chronological struct {
	Desc bool
}

func (s Chronological) Apply(db *gorm.DB) *gorm.DB {
	db = OrderBy{Field: "created_at", Desc: s.Desc}.Apply(db)
	return OrderBy{Field: "id", Desc: s.Desc}.Apply(db)
}
