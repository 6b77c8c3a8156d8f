// Package repository defines data access interfaces for skilltheme entities.
// All database access goes through these interfaces so services can be
// tested against fakes.
package repository

import (
	"context"

	"github.com/skilltree/skilltheme/internal/models"
)

// ProjectThemeRepository defines operations for project theme persistence.
type ProjectThemeRepository interface {
	// Create creates a new project theme.
	Create(ctx context.Context, theme *models.ProjectTheme) error
	// Update updates an existing project theme.
	Update(ctx context.Context, theme *models.ProjectTheme) error
	// Upsert creates or replaces the theme stored for theme.ProjectID.
	Upsert(ctx context.Context, theme *models.ProjectTheme) error
	// GetByProjectID retrieves a project theme, or nil if there is none.
	GetByProjectID(ctx context.Context, projectID string) (*models.ProjectTheme, error)
	// List retrieves project themes, optionally only enabled ones.
	List(ctx context.Context, enabledOnly bool) ([]*models.ProjectTheme, error)
	// DeleteByProjectID deletes a project theme.
	DeleteByProjectID(ctx context.Context, projectID string) (bool, error)
	// DeleteBySourcePath deletes file-backed themes loaded from path.
	DeleteBySourcePath(ctx context.Context, path string) ([]string, error)
}
