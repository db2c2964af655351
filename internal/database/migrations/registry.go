// Package migrations provides database migration management for supervideo.
package migrations

import (
	"gorm.io/gorm"

	"github.com/jmylchreest/supervideo/internal/models"
)

// AllMigrations returns all registered migrations in order.
//   - 001: views table
//   - 002: composite index for retention pruning
func AllMigrations() []Migration {
	return []Migration{
		migration001Views(),
		migration002ViewsRetentionIndex(),
	}
}

// migration001Views creates the views table using GORM AutoMigrate.
func migration001Views() Migration {
	return Migration{
		Version:     "001",
		Description: "Create views table",
		Up: func(tx *gorm.DB) error {
			return tx.AutoMigrate(&models.View{})
		},
		Down: func(tx *gorm.DB) error {
			if tx.Migrator().HasTable("views") {
				return tx.Migrator().DropTable("views")
			}
			return nil
		},
	}
}

const viewsRetentionIndex = "idx_views_kind_last_seen"

// migration002ViewsRetentionIndex indexes (kind, last_seen_at) for listing
// by kind and pruning by age.
func migration002ViewsRetentionIndex() Migration {
	return Migration{
		Version:     "002",
		Description: "Add views (kind, last_seen_at) index",
		Up: func(tx *gorm.DB) error {
			if tx.Migrator().HasIndex("views", viewsRetentionIndex) {
				return nil
			}
			return tx.Exec("CREATE INDEX " + viewsRetentionIndex + " ON views (kind, last_seen_at)").Error
		},
		Down: func(tx *gorm.DB) error {
			if !tx.Migrator().HasIndex("views", viewsRetentionIndex) {
				return nil
			}
			return tx.Migrator().DropIndex("views", viewsRetentionIndex)
		},
	}
}
