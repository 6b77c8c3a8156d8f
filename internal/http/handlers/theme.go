package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"

	"github.com/skilltree/skilltheme/internal/models"
	"github.com/skilltree/skilltheme/internal/observability"
	"github.com/skilltree/skilltheme/internal/service"
	"github.com/skilltree/skilltheme/internal/theme"
)

const (
	cssContentType = "text/css; charset=utf-8"
	// Stored themes change at runtime, so clients revalidate with the ETag.
	projectCSSCacheControl = "public, max-age=300, must-revalidate"
	previewCacheControl    = "no-cache"
)

// ThemeHandler handles theme compilation and project theme endpoints.
type ThemeHandler struct {
	themeService *service.ThemeService
	darkMode     bool
}

// NewThemeHandler creates a new theme handler.
func NewThemeHandler(themeService *service.ThemeService) *ThemeHandler {
	return &ThemeHandler{
		themeService: themeService,
	}
}

// WithDarkMode sets the display mode used when a request does not pick one.
func (h *ThemeHandler) WithDarkMode(dark bool) *ThemeHandler {
	h.darkMode = dark
	return h
}

// Register registers the theme routes with the Huma API.
func (h *ThemeHandler) Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "compileTheme",
		Method:      "POST",
		Path:        "/api/v1/themes/compile",
		Summary:     "Compile a theme",
		Description: "Compiles a theme configuration into CSS and the theme module",
		Tags:        []string{"Themes"},
	}, h.CompileTheme)

	huma.Register(api, huma.Operation{
		OperationID: "getThemeSchema",
		Method:      "GET",
		Path:        "/api/v1/themes/schema",
		Summary:     "List theme keys",
		Description: "Returns every supported theme key path with the CSS rules it drives",
		Tags:        []string{"Themes"},
	}, h.GetSchema)

	huma.Register(api, huma.Operation{
		OperationID: "listProjectThemes",
		Method:      "GET",
		Path:        "/api/v1/project-themes",
		Summary:     "List project themes",
		Tags:        []string{"Project Themes"},
	}, h.ListProjectThemes)

	huma.Register(api, huma.Operation{
		OperationID: "getProjectTheme",
		Method:      "GET",
		Path:        "/api/v1/project-themes/{projectId}",
		Summary:     "Get a project theme",
		Tags:        []string{"Project Themes"},
	}, h.GetProjectTheme)

	huma.Register(api, huma.Operation{
		OperationID: "saveProjectTheme",
		Method:      "PUT",
		Path:        "/api/v1/project-themes/{projectId}",
		Summary:     "Store a project theme",
		Description: "Validates the theme by compiling it and stores it, replacing any stored theme of the project",
		Tags:        []string{"Project Themes"},
	}, h.SaveProjectTheme)

	huma.Register(api, huma.Operation{
		OperationID:   "deleteProjectTheme",
		Method:        "DELETE",
		Path:          "/api/v1/project-themes/{projectId}",
		Summary:       "Delete a project theme",
		Tags:          []string{"Project Themes"},
		DefaultStatus: http.StatusNoContent,
	}, h.DeleteProjectTheme)

	huma.Register(api, huma.Operation{
		OperationID: "getProjectDisplaySettings",
		Method:      "GET",
		Path:        "/api/v1/project-themes/{projectId}/display",
		Summary:     "Get display settings",
		Description: "Returns the settings a skills display renders with for the project",
		Tags:        []string{"Project Themes"},
	}, h.GetDisplaySettings)
}

// RegisterChiRoutes registers the stylesheet routes. These are plain Chi
// routes because they answer with text/css and conditional responses.
func (h *ThemeHandler) RegisterChiRoutes(r chi.Router) {
	r.Get("/themes/preview.css", h.servePreviewCSS)
	r.Get("/themes/{projectId}.css", h.serveProjectCSS)
}

// CompileThemeInput is the input for compiling a theme.
type CompileThemeInput struct {
	Body ThemeDocument
}

// CompileThemeOutput is the output for compiling a theme.
type CompileThemeOutput struct {
	Body CompileResponse
}

// CompileTheme compiles the posted theme configuration.
func (h *ThemeHandler) CompileTheme(ctx context.Context, input *CompileThemeInput) (*CompileThemeOutput, error) {
	res, err := h.themeService.Compile(ctx, input.Body.Config)
	if err != nil {
		return nil, themeError(err)
	}
	return &CompileThemeOutput{
		Body: CompileResponse{CSS: res.CSS, ThemeModule: ThemeDocument{Config: res.Module}},
	}, nil
}

// GetSchemaInput is the input for listing theme keys.
type GetSchemaInput struct{}

// GetSchemaOutput is the output for listing theme keys.
type GetSchemaOutput struct {
	Body struct {
		Paths []theme.PathInfo `json:"paths"`
	}
}

// GetSchema lists every supported theme key.
func (h *ThemeHandler) GetSchema(_ context.Context, _ *GetSchemaInput) (*GetSchemaOutput, error) {
	out := &GetSchemaOutput{}
	out.Body.Paths = theme.DefaultSchema().Paths()
	return out, nil
}

// ListProjectThemesInput is the input for listing project themes.
type ListProjectThemesInput struct {
	EnabledOnly bool `query:"enabled_only" doc:"Only list enabled themes"`
}

// ListProjectThemesOutput is the output for listing project themes.
type ListProjectThemesOutput struct {
	Body struct {
		Themes []ProjectThemeResponse `json:"themes"`
	}
}

// ListProjectThemes returns stored project themes ordered by project ID.
func (h *ThemeHandler) ListProjectThemes(ctx context.Context, input *ListProjectThemesInput) (*ListProjectThemesOutput, error) {
	records, err := h.themeService.List(ctx, input.EnabledOnly)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to list project themes", err)
	}

	out := &ListProjectThemesOutput{}
	out.Body.Themes = make([]ProjectThemeResponse, 0, len(records))
	for _, record := range records {
		resp, err := ProjectThemeFromModel(record)
		if err != nil {
			return nil, huma.Error500InternalServerError("stored theme is unreadable", err)
		}
		out.Body.Themes = append(out.Body.Themes, resp)
	}
	return out, nil
}

// ProjectThemeInput identifies a project theme.
type ProjectThemeInput struct {
	ProjectID string `path:"projectId" doc:"Project ID" minLength:"1" maxLength:"255"`
}

// ProjectThemeOutput is a single project theme.
type ProjectThemeOutput struct {
	Body ProjectThemeResponse
}

// GetProjectTheme returns the stored theme of a project.
func (h *ThemeHandler) GetProjectTheme(ctx context.Context, input *ProjectThemeInput) (*ProjectThemeOutput, error) {
	record, err := h.themeService.Get(ctx, input.ProjectID)
	if err != nil {
		return nil, themeError(err)
	}
	return projectThemeOutput(record)
}

// SaveProjectThemeInput is the input for storing a project theme.
type SaveProjectThemeInput struct {
	ProjectID string `path:"projectId" doc:"Project ID" minLength:"1" maxLength:"255"`
	Body      SaveProjectThemeRequest
}

// SaveProjectTheme validates and stores the theme of a project.
func (h *ThemeHandler) SaveProjectTheme(ctx context.Context, input *SaveProjectThemeInput) (*ProjectThemeOutput, error) {
	record, err := h.themeService.Save(ctx, input.ProjectID, input.Body.Name, input.Body.Description, input.Body.Theme.Config)
	if err != nil {
		return nil, themeError(err)
	}
	if input.Body.Enabled != nil && !*input.Body.Enabled {
		if record, err = h.themeService.SetEnabled(ctx, input.ProjectID, false); err != nil {
			return nil, themeError(err)
		}
	}
	return projectThemeOutput(record)
}

func projectThemeOutput(record *models.ProjectTheme) (*ProjectThemeOutput, error) {
	resp, err := ProjectThemeFromModel(record)
	if err != nil {
		return nil, huma.Error500InternalServerError("stored theme is unreadable", err)
	}
	return &ProjectThemeOutput{Body: resp}, nil
}

// DeleteProjectThemeOutput is the output for deleting a project theme.
type DeleteProjectThemeOutput struct{}

// DeleteProjectTheme removes the stored theme of a project.
func (h *ThemeHandler) DeleteProjectTheme(ctx context.Context, input *ProjectThemeInput) (*DeleteProjectThemeOutput, error) {
	if err := h.themeService.Delete(ctx, input.ProjectID); err != nil {
		return nil, themeError(err)
	}
	return &DeleteProjectThemeOutput{}, nil
}

// DisplaySettingsInput is the input for reading display settings.
type DisplaySettingsInput struct {
	ProjectID string `path:"projectId" doc:"Project ID" minLength:"1" maxLength:"255"`
	Dark      string `query:"dark" enum:"true,false" doc:"Render for a dark display (defaults to the server setting)"`
}

// DisplaySettingsOutput is the output for reading display settings.
type DisplaySettingsOutput struct {
	Body DisplaySettingsResponse
}

// GetDisplaySettings returns the display session of a project, loading it on
// first use.
func (h *ThemeHandler) GetDisplaySettings(ctx context.Context, input *DisplaySettingsInput) (*DisplaySettingsOutput, error) {
	dark := h.darkMode
	if input.Dark != "" {
		dark = input.Dark == "true"
	}
	st, err := h.themeService.Session(ctx, input.ProjectID, dark)
	if err != nil {
		return nil, themeError(err)
	}
	return &DisplaySettingsOutput{Body: DisplaySettingsFromState(input.ProjectID, dark, st)}, nil
}

// themeError maps service errors to API errors.
func themeError(err error) error {
	var validation models.ErrValidation
	switch {
	case errors.Is(err, service.ErrThemeNotFound):
		return huma.Error404NotFound("project theme not found")
	case theme.IsUserError(err):
		return huma.Error400BadRequest(err.Error())
	case errors.Is(err, models.ErrProjectIDRequired),
		errors.Is(err, models.ErrInvalidProjectID),
		errors.Is(err, models.ErrThemeConfigRequired),
		errors.As(err, &validation):
		return huma.Error422UnprocessableEntity(err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return huma.Error503ServiceUnavailable("theme is still loading", err)
	default:
		return huma.Error500InternalServerError("theme operation failed", err)
	}
}

// serveProjectCSS serves the compiled stylesheet of a stored project theme.
func (h *ThemeHandler) serveProjectCSS(w http.ResponseWriter, r *http.Request) {
	projectID := strings.TrimSuffix(chi.URLParam(r, "projectId"), ".css")
	if err := models.ValidateProjectID(projectID); err != nil {
		http.Error(w, "invalid project ID", http.StatusBadRequest)
		return
	}

	compiled, err := h.themeService.ProjectCSS(r.Context(), projectID)
	if err != nil {
		if errors.Is(err, service.ErrThemeNotFound) {
			http.Error(w, "theme not found", http.StatusNotFound)
			return
		}
		observability.LoggerFromContext(r.Context()).ErrorContext(r.Context(), "serving project css failed",
			slog.String("project_id", projectID),
			slog.String("error", err.Error()),
		)
		http.Error(w, "failed to compile theme", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Cache-Control", projectCSSCacheControl)
	w.Header().Set("ETag", compiled.ETag)
	if !compiled.UpdatedAt.IsZero() {
		w.Header().Set("Last-Modified", compiled.UpdatedAt.UTC().Format(http.TimeFormat))
	}

	if etagMatches(r.Header.Get("If-None-Match"), compiled.ETag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	writeCSS(w, compiled.CSS)
}

// servePreviewCSS compiles themeParam query values into a stylesheet.
func (h *ThemeHandler) servePreviewCSS(w http.ResponseWriter, r *http.Request) {
	cfg, err := theme.FromQuery(r.URL.Query())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	res, err := h.themeService.Compile(r.Context(), cfg)
	if err != nil {
		if theme.IsUserError(err) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, "failed to compile theme", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Cache-Control", previewCacheControl)
	writeCSS(w, res.CSS)
}

func writeCSS(w http.ResponseWriter, css string) {
	w.Header().Set("Content-Type", cssContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(css)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(css))
}

// etagMatches reports whether an If-None-Match header value names etag.
func etagMatches(header, etag string) bool {
	if header == "" {
		return false
	}
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimPrefix(strings.TrimSpace(candidate), "W/")
		if candidate == "*" || candidate == etag {
			return true
		}
	}
	return false
}
