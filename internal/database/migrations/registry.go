// Package migrations provides database migration management for skilltheme.
package migrations

import (
	"gorm.io/gorm"

	"github.com/skilltree/skilltheme/internal/models"
)

const projectThemeSourceIndex = "idx_project_themes_source"

// AllMigrations returns all registered migrations in order.
//   - 001: Create the project_themes table
//   - 002: Index project themes by (source, source_path) for file reloads
func AllMigrations() []Migration {
	return []Migration{
		migration001ProjectThemes(),
		migration002ProjectThemeSourceIndex(),
	}
}

// migration001ProjectThemes creates the project theme table using GORM AutoMigrate.
func migration001ProjectThemes() Migration {
	return Migration{
		Version:     "001",
		Description: "Create project_themes table",
		Up: func(tx *gorm.DB) error {
			return tx.AutoMigrate(&models.ProjectTheme{})
		},
		Down: func(tx *gorm.DB) error {
			if tx.Migrator().HasTable("project_themes") {
				return tx.Migrator().DropTable("project_themes")
			}
			return nil
		},
	}
}

// migration002ProjectThemeSourceIndex adds the composite index used when a
// theme file is removed from disk.
func migration002ProjectThemeSourceIndex() Migration {
	return Migration{
		Version:     "002",
		Description: "Index project themes by source and source path",
		Up: func(tx *gorm.DB) error {
			if tx.Migrator().HasIndex(&models.ProjectTheme{}, projectThemeSourceIndex) {
				return nil
			}
			return tx.Exec("CREATE INDEX " + projectThemeSourceIndex + " ON project_themes (source, source_path)").Error
		},
		Down: func(tx *gorm.DB) error {
			if !tx.Migrator().HasIndex(&models.ProjectTheme{}, projectThemeSourceIndex) {
				return nil
			}
			return tx.Migrator().DropIndex(&models.ProjectTheme{}, projectThemeSourceIndex)
		},
	}
}
