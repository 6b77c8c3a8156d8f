package models

import (
	"fmt"
	"regexp"

	"github.com/skilltree/skilltheme/internal/theme"
)

// ThemeSource indicates where a project theme comes from.
type ThemeSource string

const (
	// ThemeSourceAPI indicates a theme stored through the HTTP API.
	ThemeSourceAPI ThemeSource = "api"
	// ThemeSourceFile indicates a theme loaded from the themes directory.
	ThemeSourceFile ThemeSource = "file"
)

const maxProjectIDLen = 255

var projectIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ProjectTheme is the stored custom theme of one project.
type ProjectTheme struct {
	BaseModel

	// ProjectID identifies the project the theme styles.
	ProjectID string `gorm:"uniqueIndex;size:255;not null" json:"project_id"`

	Name        string `gorm:"size:255" json:"name"`
	Description string `gorm:"size:1024" json:"description,omitempty"`

	// Config is the theme document as ordered JSON.
	Config string `gorm:"type:text;not null" json:"-"`

	Source     ThemeSource `gorm:"size:16;not null;default:'api'" json:"source"`
	SourcePath string      `gorm:"size:1024;index" json:"source_path,omitempty"`

	// Enabled defaults to true; a disabled theme is kept but never served.
	Enabled *bool `gorm:"default:true" json:"enabled"`
}

// TableName returns the table name for ProjectTheme.
func (ProjectTheme) TableName() string {
	return "project_themes"
}

// IsEnabled reports whether the theme should be served.
func (p *ProjectTheme) IsEnabled() bool {
	return BoolVal(p.Enabled)
}

// ThemeConfig decodes the stored theme document.
func (p *ProjectTheme) ThemeConfig() (*theme.Config, error) {
	if p.Config == "" {
		return nil, ErrThemeConfigRequired
	}
	cfg, err := theme.ParseJSON([]byte(p.Config))
	if err != nil {
		return nil, fmt.Errorf("project %s: %w", p.ProjectID, err)
	}
	return cfg, nil
}

// SetThemeConfig stores cfg as the theme document.
func (p *ProjectTheme) SetThemeConfig(cfg *theme.Config) {
	if cfg == nil {
		p.Config = ""
		return
	}
	p.Config = cfg.JSON()
}

// Validate checks the theme for required fields. It does not compile the
// document.
func (p *ProjectTheme) Validate() error {
	if err := ValidateProjectID(p.ProjectID); err != nil {
		return err
	}
	if p.Config == "" {
		return ErrThemeConfigRequired
	}
	switch p.Source {
	case "", ThemeSourceAPI:
	case ThemeSourceFile:
		if p.SourcePath == "" {
			return ErrSourcePathRequired
		}
	default:
		return ErrInvalidThemeSource
	}
	return nil
}

// ValidateProjectID checks a project ID taken from a URL or file name.
func ValidateProjectID(id string) error {
	if id == "" {
		return ErrProjectIDRequired
	}
	if len(id) > maxProjectIDLen {
		return ErrValidation{Field: "project_id", Message: fmt.Sprintf("must be at most %d characters", maxProjectIDLen)}
	}
	if !projectIDPattern.MatchString(id) {
		return ErrInvalidProjectID
	}
	return nil
}
