package service

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/skilltree/skilltheme/internal/models"
	"github.com/skilltree/skilltheme/internal/repository"
	"github.com/skilltree/skilltheme/internal/theme"
	"github.com/skilltree/skilltheme/internal/themestate"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		// go-cache runs one janitor per cache until it is garbage collected.
		goleak.IgnoreTopFunction("github.com/patrickmn/go-cache.(*janitor).Run"),
	)
}

func setupThemeService(t *testing.T) (*ThemeService, repository.ProjectThemeRepository) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "themes.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.ProjectTheme{}))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	repo := repository.NewProjectThemeRepository(db)
	svc := NewThemeService(repo, ThemeServiceOptions{LoadTimeout: 5 * time.Second})
	return svc, repo
}

func mustParse(t *testing.T, doc string) *theme.Config {
	t.Helper()
	cfg, err := theme.ParseJSON([]byte(doc))
	require.NoError(t, err)
	return cfg
}

func TestThemeService_Compile(t *testing.T) {
	svc, _ := setupThemeService(t)

	res, err := svc.Compile(context.Background(), mustParse(t, `{"textPrimaryColor":"white"}`))
	require.NoError(t, err)
	assert.Contains(t, res.CSS, "color: white !important")
	assert.True(t, res.Module.IsSet("textPrimaryColor"))
}

func TestThemeService_Compile_UserError(t *testing.T) {
	svc, _ := setupThemeService(t)

	_, err := svc.Compile(context.Background(), mustParse(t, `{"bogusKey":"x"}`))
	require.Error(t, err)
	assert.True(t, theme.IsUserError(err))
}

func TestThemeService_CompileParams(t *testing.T) {
	svc, _ := setupThemeService(t)

	res, err := svc.CompileParams(context.Background(), []string{
		"textPrimaryColor|white",
		`tiles|{"backgroundColor":"black"}`,
	})
	require.NoError(t, err)
	assert.Contains(t, res.CSS, "color: white !important")
	assert.Contains(t, res.CSS, "background-color: black !important")

	_, err = svc.CompileParams(context.Background(), []string{"nopipe"})
	assert.ErrorIs(t, err, theme.ErrInvalidParam)
}

func TestThemeService_SaveAndGet(t *testing.T) {
	svc, _ := setupThemeService(t)
	ctx := context.Background()

	saved, err := svc.Save(ctx, "movies", "", "Dark cinema", mustParse(t, `{"backgroundColor":"#222"}`))
	require.NoError(t, err)
	assert.Equal(t, "movies", saved.Name, "name defaults to the project ID")
	assert.Equal(t, models.ThemeSourceAPI, saved.Source)

	got, err := svc.Get(ctx, "movies")
	require.NoError(t, err)
	assert.Equal(t, saved.ID, got.ID)
	assert.Equal(t, "Dark cinema", got.Description)
	assert.Equal(t, `{"backgroundColor":"#222"}`, got.Config)
}

func TestThemeService_Save_RejectsInvalidTheme(t *testing.T) {
	svc, repo := setupThemeService(t)
	ctx := context.Background()

	_, err := svc.Save(ctx, "movies", "Movies", "", mustParse(t, `{"tiles":{"bogus":"x"}}`))
	require.Error(t, err)
	assert.True(t, theme.IsUserError(err))

	stored, err := repo.GetByProjectID(ctx, "movies")
	require.NoError(t, err)
	assert.Nil(t, stored, "invalid themes are not stored")
}

func TestThemeService_Save_Validation(t *testing.T) {
	svc, _ := setupThemeService(t)
	ctx := context.Background()

	_, err := svc.Save(ctx, "", "x", "", theme.NewConfig())
	assert.ErrorIs(t, err, models.ErrProjectIDRequired)

	_, err = svc.Save(ctx, "movies", "x", "", nil)
	assert.ErrorIs(t, err, models.ErrThemeConfigRequired)
}

func TestThemeService_GetAndDelete_NotFound(t *testing.T) {
	svc, _ := setupThemeService(t)
	ctx := context.Background()

	_, err := svc.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrThemeNotFound)

	err = svc.Delete(ctx, "missing")
	assert.ErrorIs(t, err, ErrThemeNotFound)
}

func TestThemeService_ProjectCSS_CachedUntilSaved(t *testing.T) {
	svc, _ := setupThemeService(t)
	ctx := context.Background()

	_, err := svc.Save(ctx, "movies", "Movies", "", mustParse(t, `{"textPrimaryColor":"white"}`))
	require.NoError(t, err)

	first, err := svc.ProjectCSS(ctx, "movies")
	require.NoError(t, err)
	assert.Contains(t, first.CSS, "color: white !important")
	assert.Regexp(t, `^"[0-9a-f]{16}"$`, first.ETag)

	again, err := svc.ProjectCSS(ctx, "movies")
	require.NoError(t, err)
	assert.Same(t, first, again, "second call is served from the cache")

	_, err = svc.Save(ctx, "movies", "Movies", "", mustParse(t, `{"textPrimaryColor":"navy"}`))
	require.NoError(t, err)

	updated, err := svc.ProjectCSS(ctx, "movies")
	require.NoError(t, err)
	assert.Contains(t, updated.CSS, "color: navy !important")
	assert.NotEqual(t, first.ETag, updated.ETag)
}

// gatedThemeRepo holds the next GetByProjectID after the read completes
// until release is closed.
type gatedThemeRepo struct {
	repository.ProjectThemeRepository
	armed   atomic.Bool
	read    chan struct{}
	release chan struct{}
}

func (r *gatedThemeRepo) GetByProjectID(ctx context.Context, projectID string) (*models.ProjectTheme, error) {
	record, err := r.ProjectThemeRepository.GetByProjectID(ctx, projectID)
	if r.armed.CompareAndSwap(true, false) {
		close(r.read)
		<-r.release
	}
	return record, err
}

func TestThemeService_ProjectCSS_SaveDuringCompileIsNotCached(t *testing.T) {
	_, base := setupThemeService(t)
	repo := &gatedThemeRepo{
		ProjectThemeRepository: base,
		read:                   make(chan struct{}),
		release:                make(chan struct{}),
	}
	svc := NewThemeService(repo, ThemeServiceOptions{})
	ctx := context.Background()

	_, err := svc.Save(ctx, "p1", "", "", mustParse(t, `{"backgroundColor":"red"}`))
	require.NoError(t, err)

	repo.armed.Store(true)
	type result struct {
		compiled *CompiledTheme
		err      error
	}
	done := make(chan result, 1)
	go func() {
		compiled, err := svc.ProjectCSS(ctx, "p1")
		done <- result{compiled, err}
	}()

	<-repo.read
	_, err = svc.Save(ctx, "p1", "", "", mustParse(t, `{"backgroundColor":"blue"}`))
	require.NoError(t, err)
	close(repo.release)

	stale := <-done
	require.NoError(t, stale.err)
	assert.Contains(t, stale.compiled.CSS, "background-color: red !important")

	compiled, _ := svc.CacheStats()
	assert.Zero(t, compiled, "superseded compilation is not cached")

	fresh, err := svc.ProjectCSS(ctx, "p1")
	require.NoError(t, err)
	assert.Contains(t, fresh.CSS, "background-color: blue !important")

	state, err := svc.Session(ctx, "p1", false)
	require.NoError(t, err)
	bg, _ := state.Theme().String("backgroundColor")
	assert.Equal(t, "blue", bg)
}

func TestThemeService_ProjectCSS_DisabledIsNotFound(t *testing.T) {
	svc, repo := setupThemeService(t)
	ctx := context.Background()

	_, err := svc.Save(ctx, "movies", "Movies", "", mustParse(t, `{}`))
	require.NoError(t, err)
	_, err = svc.ProjectCSS(ctx, "movies")
	require.NoError(t, err)

	updated, err := svc.SetEnabled(ctx, "movies", false)
	require.NoError(t, err)
	assert.False(t, updated.IsEnabled())

	_, err = svc.ProjectCSS(ctx, "movies")
	assert.ErrorIs(t, err, ErrThemeNotFound)

	enabled, err := repo.List(ctx, true)
	require.NoError(t, err)
	assert.Empty(t, enabled)

	_, err = svc.SetEnabled(ctx, "movies", true)
	require.NoError(t, err)
	_, err = svc.ProjectCSS(ctx, "movies")
	assert.NoError(t, err)
}

func TestThemeService_Delete(t *testing.T) {
	svc, _ := setupThemeService(t)
	ctx := context.Background()

	_, err := svc.Save(ctx, "movies", "Movies", "", mustParse(t, `{}`))
	require.NoError(t, err)
	_, err = svc.ProjectCSS(ctx, "movies")
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, "movies"))

	_, err = svc.ProjectCSS(ctx, "movies")
	assert.ErrorIs(t, err, ErrThemeNotFound, "cache is dropped on delete")
}

func TestThemeService_List(t *testing.T) {
	svc, _ := setupThemeService(t)
	ctx := context.Background()

	for _, id := range []string{"books", "movies"} {
		_, err := svc.Save(ctx, id, id, "", mustParse(t, `{}`))
		require.NoError(t, err)
	}

	all, err := svc.List(ctx, false)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "books", all[0].ProjectID)
}

func TestThemeService_Session(t *testing.T) {
	svc, _ := setupThemeService(t)
	ctx := context.Background()

	_, err := svc.Save(ctx, "movies", "Movies", "", mustParse(t,
		`{"landingPageTitle":"Movie Skills","textPrimaryColor":"white"}`))
	require.NoError(t, err)

	const callers = 8
	states := make([]*themestate.State, callers)
	var wg sync.WaitGroup
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			st, err := svc.Session(ctx, "movies", false)
			assert.NoError(t, err)
			states[i] = st
		}()
	}
	wg.Wait()

	for i := 1; i < callers; i++ {
		assert.Same(t, states[0], states[i], "concurrent callers share one session")
	}

	light, err := svc.Session(ctx, "movies", false)
	require.NoError(t, err)
	assert.True(t, light.IsLoaded())
	assert.Equal(t, "Movie Skills", light.LandingPageTitle())
	assert.Contains(t, light.CSS(), "color: white !important")

	dark, err := svc.Session(ctx, "movies", true)
	require.NoError(t, err)
	assert.NotSame(t, light, dark)
}

func TestThemeService_Session_FailureIsNotCached(t *testing.T) {
	svc, _ := setupThemeService(t)
	ctx := context.Background()

	_, err := svc.Session(ctx, "movies", false)
	require.ErrorIs(t, err, ErrThemeNotFound)

	_, err = svc.Save(ctx, "movies", "Movies", "", mustParse(t, `{"landingPageTitle":"Now Themed"}`))
	require.NoError(t, err)

	st, err := svc.Session(ctx, "movies", false)
	require.NoError(t, err)
	assert.Equal(t, "Now Themed", st.LandingPageTitle())
}

func TestThemeService_Session_ReloadAfterSave(t *testing.T) {
	svc, _ := setupThemeService(t)
	ctx := context.Background()

	_, err := svc.Save(ctx, "movies", "Movies", "", mustParse(t, `{"landingPageTitle":"Before"}`))
	require.NoError(t, err)
	before, err := svc.Session(ctx, "movies", false)
	require.NoError(t, err)

	_, err = svc.Save(ctx, "movies", "Movies", "", mustParse(t, `{"landingPageTitle":"After"}`))
	require.NoError(t, err)
	after, err := svc.Session(ctx, "movies", false)
	require.NoError(t, err)

	assert.NotSame(t, before, after)
	assert.Equal(t, "After", after.LandingPageTitle())
}

func TestThemeService_Session_ContextCanceled(t *testing.T) {
	svc, _ := setupThemeService(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Session(ctx, "movies", false)
	assert.Error(t, err)
	// let the background load finish before the leak check
	time.Sleep(50 * time.Millisecond)
}

func writeThemeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestThemeService_ImportFile(t *testing.T) {
	svc, _ := setupThemeService(t)
	ctx := context.Background()
	dir := t.TempDir()

	jsonPath := writeThemeFile(t, dir, "movies.json", `{"textPrimaryColor":"white"}`)
	yamlPath := writeThemeFile(t, dir, "books.yaml", "pageTitle:\n  textColor: navy\n  fontSize: 2rem\n")

	movies, err := svc.ImportFile(ctx, jsonPath)
	require.NoError(t, err)
	assert.Equal(t, "movies", movies.ProjectID)
	assert.Equal(t, models.ThemeSourceFile, movies.Source)
	assert.Equal(t, jsonPath, movies.SourcePath)

	books, err := svc.ImportFile(ctx, yamlPath)
	require.NoError(t, err)
	assert.Equal(t, `{"pageTitle":{"textColor":"navy","fontSize":"2rem"}}`, books.Config)

	compiled, err := svc.ProjectCSS(ctx, "books")
	require.NoError(t, err)
	assert.Contains(t, compiled.CSS, "navy")

	removed, err := svc.RemoveFile(ctx, yamlPath)
	require.NoError(t, err)
	assert.Equal(t, []string{"books"}, removed)

	_, err = svc.ProjectCSS(ctx, "books")
	assert.ErrorIs(t, err, ErrThemeNotFound)
}

func TestThemeService_FileSourcePaths(t *testing.T) {
	svc, _ := setupThemeService(t)
	ctx := context.Background()
	dir := t.TempDir()

	path := writeThemeFile(t, dir, "movies.json", `{}`)
	_, err := svc.ImportFile(ctx, path)
	require.NoError(t, err)
	_, err = svc.Save(ctx, "books", "Books", "", mustParse(t, `{}`))
	require.NoError(t, err)

	paths, err := svc.FileSourcePaths(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{path}, paths)
}

func TestThemeService_ImportFile_Errors(t *testing.T) {
	svc, _ := setupThemeService(t)
	ctx := context.Background()
	dir := t.TempDir()

	_, err := svc.ImportFile(ctx, writeThemeFile(t, dir, "movies.txt", `{}`))
	assert.Error(t, err)

	_, err = svc.ImportFile(ctx, writeThemeFile(t, dir, "broken.json", `{"a":`))
	assert.Error(t, err)

	_, err = svc.ImportFile(ctx, writeThemeFile(t, dir, "bad name.json", `{}`))
	assert.ErrorIs(t, err, models.ErrInvalidProjectID)

	_, err = svc.ImportFile(ctx, filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}

func TestThemeFileHelpers(t *testing.T) {
	assert.True(t, IsThemeFile("/themes/movies.json"))
	assert.True(t, IsThemeFile("books.YML"))
	assert.False(t, IsThemeFile("notes.txt"))
	assert.False(t, IsThemeFile("movies.json.swp"))
	assert.Equal(t, "movies", ProjectIDFromPath("/themes/movies.json"))
}

func TestThemeService_CacheStats(t *testing.T) {
	svc, _ := setupThemeService(t)
	ctx := context.Background()

	compiled, sessions := svc.CacheStats()
	assert.Zero(t, compiled)
	assert.Zero(t, sessions)

	_, err := svc.Save(ctx, "movies", "Movies", "", mustParse(t, `{}`))
	require.NoError(t, err)
	_, err = svc.Session(ctx, "movies", true)
	require.NoError(t, err)

	compiled, sessions = svc.CacheStats()
	assert.Equal(t, 1, compiled)
	assert.Equal(t, 1, sessions)
}
