// Package handlers provides the HTTP API handlers for skilltheme.
package handlers

import (
	"encoding/json"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/skilltree/skilltheme/internal/models"
	"github.com/skilltree/skilltheme/internal/theme"
	"github.com/skilltree/skilltheme/internal/themestate"
)

// ThemeDocument is a theme configuration object carried in a request or
// response body. Key order is kept in both directions.
type ThemeDocument struct {
	Config *theme.Config
}

// Schema describes a theme document as a free-form object; the compiler
// validates its keys against the selector schema.
func (ThemeDocument) Schema(huma.Registry) *huma.Schema {
	return &huma.Schema{
		Type:                 huma.TypeObject,
		Description:          "Theme configuration. See GET /api/v1/themes/schema for the supported keys.",
		AdditionalProperties: true,
	}
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *ThemeDocument) UnmarshalJSON(data []byte) error {
	cfg := theme.NewConfig()
	if err := cfg.UnmarshalJSON(data); err != nil {
		return err
	}
	d.Config = cfg
	return nil
}

// MarshalJSON implements json.Marshaler.
func (d ThemeDocument) MarshalJSON() ([]byte, error) {
	return d.Config.MarshalJSON()
}

var (
	_ json.Unmarshaler    = (*ThemeDocument)(nil)
	_ json.Marshaler      = ThemeDocument{}
	_ huma.SchemaProvider = ThemeDocument{}
)

// Project theme types

// ProjectThemeResponse represents a stored project theme in API responses.
type ProjectThemeResponse struct {
	ID          models.RecordID        `json:"id"`
	ProjectID   string             `json:"project_id"`
	Name        string             `json:"name"`
	Description string             `json:"description,omitempty"`
	Source      models.ThemeSource `json:"source" enum:"api,file"`
	SourcePath  string             `json:"source_path,omitempty"`
	Enabled     bool               `json:"enabled"`
	Theme       ThemeDocument      `json:"theme"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

// ProjectThemeFromModel converts a model to a response.
func ProjectThemeFromModel(t *models.ProjectTheme) (ProjectThemeResponse, error) {
	cfg, err := t.ThemeConfig()
	if err != nil {
		return ProjectThemeResponse{}, err
	}
	return ProjectThemeResponse{
		ID:          t.ID,
		ProjectID:   t.ProjectID,
		Name:        t.Name,
		Description: t.Description,
		Source:      t.Source,
		SourcePath:  t.SourcePath,
		Enabled:     t.IsEnabled(),
		Theme:       ThemeDocument{Config: cfg},
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}, nil
}

// SaveProjectThemeRequest is the request body for storing a project theme.
type SaveProjectThemeRequest struct {
	Name        string        `json:"name,omitempty" doc:"Display name, defaults to the project ID" maxLength:"255"`
	Description string        `json:"description,omitempty" doc:"Free-form description"`
	Enabled     *bool         `json:"enabled,omitempty" doc:"Whether the theme is served (default true)"`
	Theme       ThemeDocument `json:"theme" doc:"Theme configuration"`
}

// CompileResponse is a compiled theme.
type CompileResponse struct {
	CSS         string        `json:"css" doc:"Generated stylesheet"`
	ThemeModule ThemeDocument `json:"themeModule" doc:"Values handed to display components"`
}

// DisplaySettingsResponse is what a display session renders with.
type DisplaySettingsResponse struct {
	ProjectID                       string                 `json:"project_id"`
	DarkMode                        bool                   `json:"dark_mode"`
	LandingPageTitle                string                 `json:"landingPageTitle"`
	TextPrimaryColor                string                 `json:"textPrimaryColor,omitempty"`
	CircleProgressInteriorTextColor string                 `json:"circleProgressInteriorTextColor,omitempty"`
	Graph                           themestate.GraphColors `json:"graph"`
	InfoCardIconColors              []string               `json:"infoCardIconColors"`
	Colors                          themestate.Palette     `json:"colors"`
	Theme                           ThemeDocument          `json:"theme"`
	StyleID                         string                 `json:"styleId"`
	StyleElement                    string                 `json:"styleElement"`
}

// DisplaySettingsFromState converts a loaded display session to a response.
func DisplaySettingsFromState(projectID string, dark bool, st *themestate.State) DisplaySettingsResponse {
	snap := st.Snapshot()
	return DisplaySettingsResponse{
		ProjectID:                       projectID,
		DarkMode:                        dark,
		LandingPageTitle:                snap.LandingPageTitle,
		TextPrimaryColor:                snap.TextPrimaryColor,
		CircleProgressInteriorTextColor: snap.CircleProgressInteriorTextColor,
		Graph:                           snap.Graph,
		InfoCardIconColors:              snap.InfoCardIconColors[:],
		Colors:                          snap.Colors,
		Theme:                           ThemeDocument{Config: snap.Theme},
		StyleID:                         snap.StyleID,
		StyleElement:                    st.StyleElement(),
	}
}

// Health types

// HealthResponse is the response of the health endpoint.
type HealthResponse struct {
	Status        string           `json:"status" enum:"healthy,degraded"`
	Timestamp     string           `json:"timestamp"`
	Version       string           `json:"version"`
	Commit        string           `json:"commit"`
	Uptime        string           `json:"uptime"`
	UptimeSeconds float64          `json:"uptime_seconds"`
	CPUInfo       CPUInfo          `json:"cpu_info"`
	Memory        MemoryInfo       `json:"memory"`
	Components    HealthComponents `json:"components"`
}

// CPUInfo holds CPU load information.
type CPUInfo struct {
	Cores              int     `json:"cores"`
	Load1Min           float64 `json:"load_1min"`
	Load5Min           float64 `json:"load_5min"`
	Load15Min          float64 `json:"load_15min"`
	LoadPercentage1Min float64 `json:"load_percentage_1min"`
}

// MemoryInfo holds system and process memory information in megabytes.
type MemoryInfo struct {
	TotalMemoryMB     float64 `json:"total_memory_mb"`
	UsedMemoryMB      float64 `json:"used_memory_mb"`
	AvailableMemoryMB float64 `json:"available_memory_mb"`
	ProcessMemoryMB   float64 `json:"process_memory_mb"`
	HeapAllocMB       float64 `json:"heap_alloc_mb"`
	Goroutines        int     `json:"goroutines"`
}

// HealthComponents holds per-component health.
type HealthComponents struct {
	Database DatabaseHealth   `json:"database"`
	Themes   ThemeCacheHealth `json:"themes"`
}

// DatabaseHealth holds database connectivity and pool information.
type DatabaseHealth struct {
	Status                 string  `json:"status" enum:"ok,error,unknown"`
	ResponseTimeMS         float64 `json:"response_time_ms"`
	ResponseTimeStatus     string  `json:"response_time_status"`
	ConnectionPoolSize     int     `json:"connection_pool_size"`
	ActiveConnections      int     `json:"active_connections"`
	IdleConnections        int     `json:"idle_connections"`
	PoolUtilizationPercent float64 `json:"pool_utilization_percent"`
}

// ThemeCacheHealth holds theme cache occupancy.
type ThemeCacheHealth struct {
	CompiledThemes int `json:"compiled_themes"`
	Sessions       int `json:"sessions"`
}
