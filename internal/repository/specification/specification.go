package specification

import "gorm.io/gorm"

// Specification narrows or orders a repository query. Specifications compose in argument order.
type Specification interface {
	Apply(db *gorm.DB) *gorm.DB
}
