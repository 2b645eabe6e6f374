package model

import "gorm.io/gorm"

// All lists every persisted model, in migration order.
func All() []interface{} {
	return []interface{}{
		&ChatMessage{},
		&ProviderCall{},
	}
}

func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(All()...)
}
