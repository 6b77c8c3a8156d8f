package http

import (
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/skilltree/skilltheme/internal/config"
	"github.com/skilltree/skilltheme/internal/http/handlers"
	"github.com/skilltree/skilltheme/internal/http/middleware"
	"github.com/skilltree/skilltheme/internal/models"
	"github.com/skilltree/skilltheme/internal/repository"
	"github.com/skilltree/skilltheme/internal/service"
)

func testServerConfig() config.ServerConfig {
	return config.ServerConfig{
		Host:            "127.0.0.1",
		Port:            0,
		ReadTimeout:     5 * time.Second,
		WriteTimeout:    5 * time.Second,
		ShutdownTimeout: 5 * time.Second,
		MaxBodySize:     config.KB,
	}
}

func newTestServer(t *testing.T) *Server {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "server.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.ProjectTheme{}))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	svc := service.NewThemeService(repository.NewProjectThemeRepository(db), service.ThemeServiceOptions{})
	srv := NewServer(testServerConfig(), slog.New(slog.NewTextHandler(io.Discard, nil)), "test")

	themeHandler := handlers.NewThemeHandler(svc)
	themeHandler.Register(srv.API())
	themeHandler.RegisterChiRoutes(srv.Router())
	handlers.NewHealthHandler("test").WithDB(db).Register(srv.API())
	return srv
}

func TestServer_Routes(t *testing.T) {
	srv := newTestServer(t)

	put := httptest.NewRequest(http.MethodPut, "/api/v1/project-themes/movies",
		strings.NewReader(`{"theme":{"textPrimaryColor":"white"}}`))
	put.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, put)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(middleware.RequestIDHeader))

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/themes/movies.css", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "color: white !important")

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/livez", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/openapi.json", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "compileTheme")
}

func TestServer_CompressesCSS(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/themes/preview.css?themeParam=textPrimaryColor%7Cwhite", nil)
	req.Header.Set("Accept-Encoding", "br")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "br", rec.Header().Get("Content-Encoding"))
}

func TestServer_RejectsOversizedBody(t *testing.T) {
	srv := newTestServer(t)

	body := `{"landingPageTitle":"` + strings.Repeat("x", int(config.KB)) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/themes/compile", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.GreaterOrEqual(t, rec.Code, http.StatusBadRequest)
}

func TestServer_ServeUntilDone(t *testing.T) {
	srv := newTestServer(t)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.serveUntilDone(ctx, ln) }()

	url := "http://" + ln.Addr().String() + "/livez"
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not stop")
	}
}
