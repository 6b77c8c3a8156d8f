package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/skilltree/skilltheme/internal/models"
	"github.com/skilltree/skilltheme/internal/observability"
	"github.com/skilltree/skilltheme/internal/repository"
	"github.com/skilltree/skilltheme/internal/theme"
	"github.com/skilltree/skilltheme/internal/themestate"
)

// ErrThemeNotFound is returned when a project has no enabled theme.
var ErrThemeNotFound = errors.New("project theme not found")

// Theme file extensions accepted from the themes directory.
var themeFileExts = map[string]func([]byte) (*theme.Config, error){
	".json": theme.ParseJSON,
	".yaml": theme.ParseYAML,
	".yml":  theme.ParseYAML,
}

const (
	defaultCacheTTL    = 30 * time.Minute
	defaultSessionTTL  = 10 * time.Minute
	defaultLoadTimeout = 5 * time.Second
	etagHashLen        = 16
)

// ThemeServiceOptions tunes caching of compiled themes and display sessions.
type ThemeServiceOptions struct {
	CacheTTL    time.Duration
	SessionTTL  time.Duration
	LoadTimeout time.Duration
}

// CompiledTheme is the cached compilation of a stored project theme.
type CompiledTheme struct {
	ProjectID string
	Config    *theme.Config
	CSS       string
	Module    *theme.Config
	ETag      string
	UpdatedAt time.Time
}

// ThemeService compiles theme documents and manages stored project themes.
type ThemeService struct {
	repo        repository.ProjectThemeRepository
	compiled    *cache.Cache
	sessions    *cache.Cache
	sessionTTL  time.Duration
	loadTimeout time.Duration
	logger      *slog.Logger

	// generations counts invalidations per project. A compilation is only
	// cached if no invalidation happened since its record was read.
	genMu       sync.Mutex
	generations map[string]uint64
}

// NewThemeService creates a new theme service. Zero options fall back to
// defaults.
func NewThemeService(repo repository.ProjectThemeRepository, opts ThemeServiceOptions) *ThemeService {
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = defaultCacheTTL
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = defaultSessionTTL
	}
	if opts.LoadTimeout <= 0 {
		opts.LoadTimeout = defaultLoadTimeout
	}
	return &ThemeService{
		repo:        repo,
		compiled:    cache.New(opts.CacheTTL, 2*opts.CacheTTL),
		sessions:    cache.New(opts.SessionTTL, 2*opts.SessionTTL),
		sessionTTL:  opts.SessionTTL,
		loadTimeout: opts.LoadTimeout,
		logger:      slog.Default(),
		generations: make(map[string]uint64),
	}
}

// WithLogger sets the logger for the service.
func (s *ThemeService) WithLogger(logger *slog.Logger) *ThemeService {
	s.logger = observability.WithComponent(logger, "theme-service")
	return s
}

// Compile compiles a theme document.
func (s *ThemeService) Compile(ctx context.Context, cfg *theme.Config) (*theme.Result, error) {
	start := time.Now()
	res, err := theme.Build(cfg)
	if err != nil {
		level := slog.LevelError
		if theme.IsUserError(err) {
			level = slog.LevelDebug
		}
		s.logger.Log(ctx, level, "theme compilation failed", slog.String("error", err.Error()))
		return nil, err
	}
	s.logger.DebugContext(ctx, "theme compiled",
		slog.Int("css_bytes", len(res.CSS)),
		slog.Int("module_keys", res.Module.Len()),
		slog.Duration("elapsed", time.Since(start)),
	)
	return res, nil
}

// CompileParams decodes themeParam values and compiles the result.
func (s *ThemeService) CompileParams(ctx context.Context, params []string) (*theme.Result, error) {
	cfg, err := theme.ParseParams(params)
	if err != nil {
		return nil, err
	}
	return s.Compile(ctx, cfg)
}

// Save validates cfg by compiling it and stores it as the project's theme.
func (s *ThemeService) Save(ctx context.Context, projectID, name, description string, cfg *theme.Config) (*models.ProjectTheme, error) {
	record := &models.ProjectTheme{
		ProjectID:   projectID,
		Name:        name,
		Description: description,
		Source:      models.ThemeSourceAPI,
		Enabled:     models.BoolPtr(true),
	}
	return s.store(ctx, record, cfg)
}

func (s *ThemeService) store(ctx context.Context, record *models.ProjectTheme, cfg *theme.Config) (*models.ProjectTheme, error) {
	if err := models.ValidateProjectID(record.ProjectID); err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, models.ErrThemeConfigRequired
	}
	if _, err := s.Compile(ctx, cfg); err != nil {
		return nil, err
	}
	if record.Name == "" {
		record.Name = record.ProjectID
	}
	record.SetThemeConfig(cfg)

	if err := s.repo.Upsert(ctx, record); err != nil {
		return nil, err
	}
	s.Invalidate(record.ProjectID)

	s.logger.InfoContext(ctx, "project theme saved",
		slog.String("project_id", record.ProjectID),
		slog.String("source", string(record.Source)),
	)
	return record, nil
}

// Get returns the stored theme of a project, enabled or not.
func (s *ThemeService) Get(ctx context.Context, projectID string) (*models.ProjectTheme, error) {
	if err := models.ValidateProjectID(projectID); err != nil {
		return nil, err
	}
	record, err := s.repo.GetByProjectID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, ErrThemeNotFound
	}
	return record, nil
}

// List returns stored project themes.
func (s *ThemeService) List(ctx context.Context, enabledOnly bool) ([]*models.ProjectTheme, error) {
	return s.repo.List(ctx, enabledOnly)
}

// Delete removes the stored theme of a project.
func (s *ThemeService) Delete(ctx context.Context, projectID string) error {
	if err := models.ValidateProjectID(projectID); err != nil {
		return err
	}
	deleted, err := s.repo.DeleteByProjectID(ctx, projectID)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrThemeNotFound
	}
	s.Invalidate(projectID)
	s.logger.InfoContext(ctx, "project theme deleted", slog.String("project_id", projectID))
	return nil
}

// SetEnabled enables or disables the stored theme of a project.
func (s *ThemeService) SetEnabled(ctx context.Context, projectID string, enabled bool) (*models.ProjectTheme, error) {
	record, err := s.Get(ctx, projectID)
	if err != nil {
		return nil, err
	}
	record.Enabled = models.BoolPtr(enabled)
	if err := s.repo.Update(ctx, record); err != nil {
		return nil, err
	}
	s.Invalidate(projectID)
	return record, nil
}

// ProjectCSS returns the compiled theme of an enabled project theme. Results
// are cached until the theme changes or the cache TTL passes.
func (s *ThemeService) ProjectCSS(ctx context.Context, projectID string) (*CompiledTheme, error) {
	if cached, ok := s.compiled.Get(projectID); ok {
		return cached.(*CompiledTheme), nil
	}

	gen := s.generation(projectID)
	record, err := s.Get(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if !record.IsEnabled() {
		return nil, ErrThemeNotFound
	}

	cfg, err := record.ThemeConfig()
	if err != nil {
		return nil, err
	}
	res, err := s.Compile(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("compiling theme of project %s: %w", projectID, err)
	}

	compiled := &CompiledTheme{
		ProjectID: projectID,
		Config:    cfg,
		CSS:       res.CSS,
		Module:    res.Module,
		ETag:      etag(res.CSS),
		UpdatedAt: record.UpdatedAt,
	}
	s.cacheCompiled(gen, compiled)
	return compiled, nil
}

func (s *ThemeService) generation(projectID string) uint64 {
	s.genMu.Lock()
	defer s.genMu.Unlock()
	return s.generations[projectID]
}

// cacheCompiled stores compiled unless the project was invalidated after
// generation gen was observed.
func (s *ThemeService) cacheCompiled(gen uint64, compiled *CompiledTheme) {
	s.genMu.Lock()
	defer s.genMu.Unlock()
	if s.generations[compiled.ProjectID] != gen {
		s.logger.Debug("skipping cache of superseded theme",
			slog.String("project_id", compiled.ProjectID),
		)
		return
	}
	s.compiled.SetDefault(compiled.ProjectID, compiled)
}

func etag(css string) string {
	sum := sha256.Sum256([]byte(css))
	return `"` + hex.EncodeToString(sum[:])[:etagHashLen] + `"`
}

func sessionKey(projectID string, dark bool) string {
	if dark {
		return projectID + "|dark"
	}
	return projectID + "|light"
}

// Session returns the display state of a project. Concurrent callers share
// one state; the first caller starts loading it and everyone waits for the
// loaded signal. A failed load is not kept, so the next call retries.
func (s *ThemeService) Session(ctx context.Context, projectID string, dark bool) (*themestate.State, error) {
	if err := models.ValidateProjectID(projectID); err != nil {
		return nil, err
	}

	key := sessionKey(projectID, dark)
	var state *themestate.State
	for state == nil {
		fresh := themestate.New(
			themestate.WithDarkMode(dark),
			themestate.WithLogger(observability.WithProject(s.logger, projectID)),
		)
		if err := s.sessions.Add(key, fresh, s.sessionTTL); err == nil {
			state = fresh
			go s.loadSession(key, projectID, state)
			break
		}
		if existing, ok := s.sessions.Get(key); ok {
			state = existing.(*themestate.State)
		}
	}

	if err := state.WaitLoaded(ctx); err != nil {
		return nil, err
	}
	return state, nil
}

func (s *ThemeService) loadSession(key, projectID string, state *themestate.State) {
	ctx, cancel := context.WithTimeout(context.Background(), s.loadTimeout)
	defer cancel()

	compiled, err := s.ProjectCSS(ctx, projectID)
	if err != nil {
		// Drop the entry before waking waiters so a retry starts a new load.
		s.sessions.Delete(key)
		state.Fail(err)
		if !errors.Is(err, ErrThemeNotFound) {
			s.logger.WarnContext(ctx, "display session load failed",
				slog.String("project_id", projectID),
				slog.String("error", err.Error()),
			)
		}
		return
	}
	// compiled.Config already built once, so Init cannot fail here.
	_ = state.Init(compiled.Config)
}

// Invalidate drops the compiled theme and display sessions of a project.
func (s *ThemeService) Invalidate(projectID string) {
	s.genMu.Lock()
	s.generations[projectID]++
	s.compiled.Delete(projectID)
	s.genMu.Unlock()

	s.sessions.Delete(sessionKey(projectID, false))
	s.sessions.Delete(sessionKey(projectID, true))
}

// CacheStats returns the number of cached compiled themes and display
// sessions, expired entries included until the janitor runs.
func (s *ThemeService) CacheStats() (compiled, sessions int) {
	return s.compiled.ItemCount(), s.sessions.ItemCount()
}

// IsThemeFile reports whether path has a theme document extension.
func IsThemeFile(path string) bool {
	_, ok := themeFileExts[strings.ToLower(filepath.Ext(path))]
	return ok
}

// ProjectIDFromPath derives the project ID from a theme file name.
func ProjectIDFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// ParseThemeFile reads a JSON or YAML theme document.
func ParseThemeFile(path string) (*theme.Config, error) {
	parse, ok := themeFileExts[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return nil, fmt.Errorf("unsupported theme file %s: want .json, .yaml or .yml", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading theme file: %w", err)
	}
	cfg, err := parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// ImportFile loads a theme file and stores it as the theme of the project
// named by the file stem, replacing any stored theme of that project.
func (s *ThemeService) ImportFile(ctx context.Context, path string) (*models.ProjectTheme, error) {
	cfg, err := ParseThemeFile(path)
	if err != nil {
		return nil, err
	}
	projectID := ProjectIDFromPath(path)
	record := &models.ProjectTheme{
		ProjectID:  projectID,
		Name:       projectID,
		Source:     models.ThemeSourceFile,
		SourcePath: path,
		Enabled:    models.BoolPtr(true),
	}
	return s.store(ctx, record, cfg)
}

// RemoveFile deletes themes that were imported from path.
func (s *ThemeService) RemoveFile(ctx context.Context, path string) ([]string, error) {
	removed, err := s.repo.DeleteBySourcePath(ctx, path)
	if err != nil {
		return nil, err
	}
	for _, projectID := range removed {
		s.Invalidate(projectID)
		s.logger.InfoContext(ctx, "file theme removed",
			slog.String("project_id", projectID),
			slog.String("path", path),
		)
	}
	return removed, nil
}

// FileSourcePaths returns the distinct paths stored file themes were
// imported from.
func (s *ThemeService) FileSourcePaths(ctx context.Context) ([]string, error) {
	records, err := s.repo.List(ctx, false)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{})
	var paths []string
	for _, r := range records {
		if r.Source != models.ThemeSourceFile || r.SourcePath == "" {
			continue
		}
		if _, ok := seen[r.SourcePath]; ok {
			continue
		}
		seen[r.SourcePath] = struct{}{}
		paths = append(paths, r.SourcePath)
	}
	return paths, nil
}
