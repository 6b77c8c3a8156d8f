package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/skilltree/skilltheme/internal/models"
)

// projectThemeRepo implements ProjectThemeRepository using GORM.
type projectThemeRepo struct {
	db *gorm.DB
}

// NewProjectThemeRepository creates a new ProjectThemeRepository.
func NewProjectThemeRepository(db *gorm.DB) *projectThemeRepo {
	return &projectThemeRepo{db: db}
}

// Create creates a new project theme.
func (r *projectThemeRepo) Create(ctx context.Context, theme *models.ProjectTheme) error {
	if err := theme.Validate(); err != nil {
		return fmt.Errorf("validating project theme: %w", err)
	}
	if err := r.db.WithContext(ctx).Create(theme).Error; err != nil {
		return fmt.Errorf("creating project theme: %w", err)
	}
	return nil
}

// Update updates an existing project theme.
func (r *projectThemeRepo) Update(ctx context.Context, theme *models.ProjectTheme) error {
	if err := theme.Validate(); err != nil {
		return fmt.Errorf("validating project theme: %w", err)
	}
	if err := r.db.WithContext(ctx).Save(theme).Error; err != nil {
		return fmt.Errorf("updating project theme: %w", err)
	}
	return nil
}

// Upsert inserts the theme or replaces the stored one with the same project
// ID. On return theme holds the stored row, including its original ID.
func (r *projectThemeRepo) Upsert(ctx context.Context, theme *models.ProjectTheme) error {
	if err := theme.Validate(); err != nil {
		return fmt.Errorf("validating project theme: %w", err)
	}
	if theme.Source == "" {
		theme.Source = models.ThemeSourceAPI
	}
	if theme.Enabled == nil {
		theme.Enabled = models.BoolPtr(true)
	}

	db := r.db.WithContext(ctx)
	err := db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "project_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name", "description", "config",
			"source", "source_path", "enabled",
			"updated_at",
		}),
	}).Create(theme).Error
	if err != nil {
		return fmt.Errorf("upserting project theme: %w", err)
	}

	// On conflict the row keeps its ID and created_at; reload them. A fresh
	// struct is needed since First would filter on theme's unused ID.
	var stored models.ProjectTheme
	if err := db.Where("project_id = ?", theme.ProjectID).First(&stored).Error; err != nil {
		return fmt.Errorf("reloading project theme: %w", err)
	}
	*theme = stored
	return nil
}

// GetByProjectID retrieves a project theme. It returns nil, nil when the
// project has no theme.
func (r *projectThemeRepo) GetByProjectID(ctx context.Context, projectID string) (*models.ProjectTheme, error) {
	var theme models.ProjectTheme
	if err := r.db.WithContext(ctx).Where("project_id = ?", projectID).First(&theme).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting project theme: %w", err)
	}
	return &theme, nil
}

// List retrieves project themes ordered by project ID.
func (r *projectThemeRepo) List(ctx context.Context, enabledOnly bool) ([]*models.ProjectTheme, error) {
	var themes []*models.ProjectTheme
	q := r.db.WithContext(ctx).Order("project_id ASC")
	if enabledOnly {
		q = q.Where("enabled = ?", true)
	}
	if err := q.Find(&themes).Error; err != nil {
		return nil, fmt.Errorf("listing project themes: %w", err)
	}
	return themes, nil
}

// DeleteByProjectID hard-deletes the theme of a project and reports whether
// a row was removed.
func (r *projectThemeRepo) DeleteByProjectID(ctx context.Context, projectID string) (bool, error) {
	res := r.db.WithContext(ctx).Where("project_id = ?", projectID).Delete(&models.ProjectTheme{})
	if res.Error != nil {
		return false, fmt.Errorf("deleting project theme: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// DeleteBySourcePath removes file-backed themes loaded from path and returns
// the project IDs that were removed.
func (r *projectThemeRepo) DeleteBySourcePath(ctx context.Context, path string) ([]string, error) {
	var projectIDs []string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		scope := tx.Model(&models.ProjectTheme{}).
			Where("source = ? AND source_path = ?", models.ThemeSourceFile, path)
		if err := scope.Pluck("project_id", &projectIDs).Error; err != nil {
			return err
		}
		if len(projectIDs) == 0 {
			return nil
		}
		return tx.Where("project_id IN ?", projectIDs).Delete(&models.ProjectTheme{}).Error
	})
	if err != nil {
		return nil, fmt.Errorf("deleting project themes for %s: %w", path, err)
	}
	return projectIDs, nil
}

// Ensure projectThemeRepo implements ProjectThemeRepository at compile time.
var _ ProjectThemeRepository = (*projectThemeRepo)(nil)
