package database

import (
	"github.com/yukikurage/event-platform-api/internal/models"
	"github.com/yukikurage/event-platform-api/internal/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Paginate applies offset and limit to a GORM query
func Paginate(params utils.PaginationParams) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Offset(params.Offset).Limit(params.Limit)
	}
}

// InCategory keeps events of the given category. A nil category matches all.
func InCategory(category *models.Category) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if category == nil {
			return db
		}
		return db.Where("category = ?", *category)
	}
}

// OrderedBy sorts on column with id as the tiebreaker so pages are stable.
func OrderedBy(column string, desc bool) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.
			Order(clause.OrderByColumn{Column: clause.Column{Name: column}, Desc: desc}).
			Order("id ASC")
	}
}
