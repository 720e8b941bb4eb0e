package specification

import "gorm.io/gorm"

// Specification narrows a query. Repositories apply them in order, so ownership filters
// such as ByUserID compose with ByID and Pagination.
type Specification interface {
	Apply(db *gorm.DB) *gorm.DB
}
