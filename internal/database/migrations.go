package database

import (
	"fmt"

	"github.com/yukikurage/event-platform-api/internal/models"
	"gorm.io/gorm"
)

// Migrate creates or updates the relational schema. Single-column indexes come
// from the model tags; the listing index below backs category-filtered,
// date-sorted pages.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Event{},
		&models.EventParticipant{},
	)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return AddIndexes(db)
}

// AddIndexes adds composite indexes that cannot be expressed per column.
func AddIndexes(db *gorm.DB) error {
	indexes := []struct {
		table   string
		name    string
		columns string
	}{
		{"events", "idx_events_category_date", "category, date"},
		{"events", "idx_events_created_by_date", "created_by, date"},
	}

	migrator := db.Migrator()
	for _, idx := range indexes {
		if migrator.HasIndex(idx.table, idx.name) {
			continue
		}

		sql := fmt.Sprintf("CREATE INDEX %s ON %s (%s)", idx.name, idx.table, idx.columns)
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}
	}

	return nil
}
