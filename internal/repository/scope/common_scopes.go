package scope

import "gorm.io/gorm"

func OrderByCreatedDesc(db *gorm.DB) *gorm.DB {
	return db.Order("created_at DESC")
}

func OrderByCompletedDesc(db *gorm.DB) *gorm.DB {
	return db.Order("completed_at DESC")
}

// OrderByIdAsc keeps store-assigned ids in creation order.
func OrderByIdAsc(db *gorm.DB) *gorm.DB {
	return db.Order("id ASC")
}
