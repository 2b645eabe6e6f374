package scope

import "gorm.io/gorm"

// NewestFirst orders audit rows by creation time, latest first.
func NewestFirst(db *gorm.DB) *gorm.DB {
	return db.Order("created_at DESC")
}
