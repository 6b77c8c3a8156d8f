package service

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/sync/errgroup"

	"github.com/skilltree/skilltheme/internal/models"
	"github.com/skilltree/skilltheme/internal/observability"
)

const (
	defaultWatchDebounce = 250 * time.Millisecond
	defaultImportWorkers = 4
	debounceTick         = 50 * time.Millisecond
)

// ThemeFileStore imports and removes file-backed project themes.
type ThemeFileStore interface {
	ImportFile(ctx context.Context, path string) (*models.ProjectTheme, error)
	RemoveFile(ctx context.Context, path string) ([]string, error)
	FileSourcePaths(ctx context.Context) ([]string, error)
}

// ThemeWatcherOptions configures a ThemeWatcher.
type ThemeWatcherOptions struct {
	Debounce time.Duration
	Workers  int
}

// ThemeWatcher keeps file-backed project themes in sync with a directory.
type ThemeWatcher struct {
	dir      string
	store    ThemeFileStore
	debounce time.Duration
	workers  int
	logger   *slog.Logger

	mu      sync.Mutex
	pending map[string]time.Time
}

// NewThemeWatcher creates a watcher for the theme files in dir.
func NewThemeWatcher(dir string, store ThemeFileStore, opts ThemeWatcherOptions) *ThemeWatcher {
	if opts.Debounce <= 0 {
		opts.Debounce = defaultWatchDebounce
	}
	if opts.Workers <= 0 {
		opts.Workers = defaultImportWorkers
	}
	return &ThemeWatcher{
		dir:      dir,
		store:    store,
		debounce: opts.Debounce,
		workers:  opts.Workers,
		logger:   slog.Default(),
		pending:  make(map[string]time.Time),
	}
}

// WithLogger sets the logger for the watcher.
func (w *ThemeWatcher) WithLogger(logger *slog.Logger) *ThemeWatcher {
	w.logger = observability.WithComponent(logger, "theme-watcher")
	return w
}

// LoadAll imports every theme file in the directory and returns how many
// were stored. Invalid files are logged and skipped.
func (w *ThemeWatcher) LoadAll(ctx context.Context) (loaded int, err error) {
	done := observability.TimedOperationWithError(ctx, w.logger, "load_theme_files", &err)
	defer done()

	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return 0, fmt.Errorf("reading themes directory: %w", err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.Type().IsRegular() && IsThemeFile(entry.Name()) {
			paths = append(paths, filepath.Join(w.dir, entry.Name()))
		}
	}
	sort.Strings(paths)

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.workers)
	for _, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if _, err := w.store.ImportFile(gctx, path); err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				w.logger.WarnContext(gctx, "skipping invalid theme file",
					slog.String("path", path),
					slog.String("error", err.Error()),
				)
				return nil
			}
			mu.Lock()
			loaded++
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return loaded, err
	}
	return loaded, nil
}

// Resync loads the directory and removes stored file themes whose file no
// longer exists, catching up on changes made while nothing was watching.
func (w *ThemeWatcher) Resync(ctx context.Context) (loaded, removed int, err error) {
	loaded, err = w.LoadAll(ctx)
	if err != nil {
		return loaded, 0, err
	}

	paths, err := w.store.FileSourcePaths(ctx)
	if err != nil {
		return loaded, 0, fmt.Errorf("listing file themes: %w", err)
	}
	for _, path := range paths {
		if filepath.Dir(path) != filepath.Clean(w.dir) {
			continue
		}
		if _, statErr := os.Stat(path); !errors.Is(statErr, fs.ErrNotExist) {
			continue
		}
		ids, err := w.store.RemoveFile(ctx, path)
		if err != nil {
			return loaded, removed, fmt.Errorf("removing stale theme %s: %w", path, err)
		}
		removed += len(ids)
	}
	return loaded, removed, nil
}

// Run loads the directory and then applies file changes until ctx is done.
func (w *ThemeWatcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating file watcher: %w", err)
	}
	defer watcher.Close()

	// Watch before the initial scan so no change slips between the two.
	if err := watcher.Add(w.dir); err != nil {
		return fmt.Errorf("watching %s: %w", w.dir, err)
	}

	if _, _, err := w.Resync(ctx); err != nil {
		return err
	}

	w.logger.InfoContext(ctx, "watching theme files", slog.String("dir", w.dir))

	ticker := time.NewTicker(debounceTick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.ErrorContext(ctx, "file watcher error", slog.String("error", err.Error()))
		case <-ticker.C:
			w.flush(ctx)
		}
	}
}

func (w *ThemeWatcher) handleEvent(event fsnotify.Event) {
	if !IsThemeFile(event.Name) {
		return
	}
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return
	}

	w.mu.Lock()
	w.pending[event.Name] = time.Now()
	w.mu.Unlock()
}

// flush applies changes that have been quiet for the debounce window.
func (w *ThemeWatcher) flush(ctx context.Context) {
	now := time.Now()
	var ready []string

	w.mu.Lock()
	for path, at := range w.pending {
		if now.Sub(at) >= w.debounce {
			ready = append(ready, path)
			delete(w.pending, path)
		}
	}
	w.mu.Unlock()

	sort.Strings(ready)
	for _, path := range ready {
		w.apply(ctx, path)
	}
}

func (w *ThemeWatcher) apply(ctx context.Context, path string) {
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if _, err := w.store.RemoveFile(ctx, path); err != nil {
			w.logger.ErrorContext(ctx, "removing file theme failed",
				slog.String("path", path),
				slog.String("error", err.Error()),
			)
		}
	case err != nil:
		w.logger.WarnContext(ctx, "stat theme file failed",
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
	case info.Mode().IsRegular():
		record, err := w.store.ImportFile(ctx, path)
		if err != nil {
			w.logger.WarnContext(ctx, "theme file rejected",
				slog.String("path", path),
				slog.String("error", err.Error()),
			)
			return
		}
		w.logger.InfoContext(ctx, "theme file reloaded",
			slog.String("project_id", record.ProjectID),
			slog.String("path", path),
		)
	}
}
