package postgres

import (
	"fmt"

	"github.com/lib/pq"
	"gorm.io/gorm"

	"qomex.backend/internal/infrastructure/models"
)

// Models lists every table owned by the service, parents first.
func Models() []interface{} {
	return []interface{}{
		&models.User{},
		&models.PostbackLog{},
	}
}

// Migrate creates or updates the schema
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

// Reset drops every service table and recreates the schema
func Reset(db *gorm.DB) error {
	tables := []string{models.PostbackLog{}.TableName(), models.User{}.TableName()}
	for _, table := range tables {
		if err := db.Exec("DROP TABLE IF EXISTS " + pq.QuoteIdentifier(table) + " CASCADE").Error; err != nil {
			return fmt.Errorf("failed to drop %s: %w", table, err)
		}
	}
	return Migrate(db)
}
