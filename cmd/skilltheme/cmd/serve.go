package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/skilltree/skilltheme/internal/config"
	"github.com/skilltree/skilltheme/internal/database"
	"github.com/skilltree/skilltheme/internal/database/migrations"
	internalhttp "github.com/skilltree/skilltheme/internal/http"
	"github.com/skilltree/skilltheme/internal/http/handlers"
	"github.com/skilltree/skilltheme/internal/observability"
	"github.com/skilltree/skilltheme/internal/repository"
	"github.com/skilltree/skilltheme/internal/scheduler"
	"github.com/skilltree/skilltheme/internal/service"
	"github.com/skilltree/skilltheme/internal/theme"
	"github.com/skilltree/skilltheme/internal/version"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the skilltheme server",
	Long: `Start the skilltheme HTTP server and API.

The server provides:
- Theme compilation and schema endpoints
- Stored project themes with display settings
- Stylesheets at /themes/{projectId}.css and /themes/preview.css
- Theme files loaded and watched from themes.dir, with optional cron rescans
- OpenAPI documentation at /docs`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("host", "0.0.0.0", "Host to bind to")
	serveCmd.Flags().Int("port", 8080, "Port to listen on")
	serveCmd.Flags().String("themes-dir", "", "Directory of <project>.json|.yaml theme files")
	serveCmd.Flags().Bool("watch", true, "Reload theme files when they change")
	serveCmd.Flags().String("resync-schedule", "", "Cron expression for rescanning the themes directory")

	mustBindPFlag("server.host", serveCmd.Flags().Lookup("host"))
	mustBindPFlag("server.port", serveCmd.Flags().Lookup("port"))
	mustBindPFlag("themes.dir", serveCmd.Flags().Lookup("themes-dir"))
	mustBindPFlag("themes.watch", serveCmd.Flags().Lookup("watch"))
	mustBindPFlag("themes.resync_schedule", serveCmd.Flags().Lookup("resync-schedule"))
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := slog.Default()

	if err := checkSchema(theme.DefaultSchema()); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := openDatabase(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("closing database", slog.String("error", err.Error()))
		}
	}()

	themeService := service.NewThemeService(
		repository.NewProjectThemeRepository(db.DB),
		service.ThemeServiceOptions{
			CacheTTL:    cfg.Themes.CacheTTL,
			SessionTTL:  cfg.Themes.SessionTTL,
			LoadTimeout: cfg.Themes.LoadTimeout,
		},
	).WithLogger(logger)

	server := internalhttp.NewServer(cfg.Server, logger, version.Version)

	themeHandler := handlers.NewThemeHandler(themeService).WithDarkMode(cfg.Themes.DarkMode)
	themeHandler.Register(server.API())
	themeHandler.RegisterChiRoutes(server.Router())

	handlers.NewHealthHandler(version.Version).
		WithDB(db.DB).
		WithCacheStats(themeService).
		Register(server.API())

	g, gctx := errgroup.WithContext(ctx)

	if cfg.Themes.Dir != "" {
		watcher := service.NewThemeWatcher(cfg.Themes.Dir, themeService, service.ThemeWatcherOptions{
			Debounce: cfg.Themes.WatchDebounce,
			Workers:  cfg.Themes.ImportWorkers,
		}).WithLogger(logger)

		if cfg.Themes.Watch {
			g.Go(func() error { return watcher.Run(gctx) })
		} else if _, _, err := watcher.Resync(ctx); err != nil {
			return fmt.Errorf("loading theme files: %w", err)
		}

		if cfg.Themes.ResyncSchedule != "" {
			sched := scheduler.New().WithLogger(logger)
			err := sched.Add("resync-theme-files", cfg.Themes.ResyncSchedule, func(ctx context.Context) error {
				_, _, err := watcher.Resync(ctx)
				return err
			})
			if err != nil {
				return fmt.Errorf("scheduling theme resync: %w", err)
			}
			g.Go(func() error { return sched.Run(gctx) })
		}
	}

	logger.Info("starting skilltheme server",
		slog.String("address", cfg.Server.Address()),
		slog.String("version", version.Version),
		slog.String("themes_dir", cfg.Themes.Dir),
	)

	g.Go(func() error { return server.ListenAndServe(gctx) })

	return g.Wait()
}

// checkSchema refuses to serve with a schema that has malformed leaves.
func checkSchema(schema *theme.Schema) error {
	if err := schema.Validate(); err != nil {
		return fmt.Errorf("invalid theme schema: %w", err)
	}
	return nil
}

// openDatabase connects and applies pending migrations.
func openDatabase(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (*database.DB, error) {
	db, err := database.New(cfg, observability.WithComponent(logger, "database"), nil)
	if err != nil {
		return nil, fmt.Errorf("initializing database: %w", err)
	}

	migrator := newMigrator(db, logger)
	applied, err := migrator.Up(ctx)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	if applied > 0 {
		logger.Info("database migrated", slog.Int("applied", applied))
	}
	return db, nil
}

func newMigrator(db *database.DB, logger *slog.Logger) *migrations.Migrator {
	migrator := migrations.NewMigrator(db.DB, observability.WithComponent(logger, "migrations"))
	migrator.RegisterAll(migrations.AllMigrations())
	return migrator
}
