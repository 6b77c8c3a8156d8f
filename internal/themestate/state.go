// Package themestate holds the theme of one skills-display session: the
// compiled stylesheet, the raw values UI components read, and the defaults
// they fall back to.
package themestate

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/skilltree/skilltheme/internal/theme"
)

// Palette is the fixed set of colors components use when a theme is silent.
type Palette struct {
	Info                           string `json:"info"`
	Primary                        string `json:"primary"`
	Secondary                      string `json:"secondary"`
	Warning                        string `json:"warning"`
	Success                        string `json:"success"`
	Danger                         string `json:"danger"`
	White                          string `json:"white"`
	PointHistoryGradientStartColor string `json:"pointHistoryGradientStartColor"`
}

// Colors is the default palette.
var Colors = Palette{
	Info:                           "#146c75",
	Primary:                        "#143740",
	Secondary:                      "#60737b",
	Warning:                        "#ffc42b",
	Success:                        "#007c49",
	Danger:                         "#290000",
	White:                          "#fff",
	PointHistoryGradientStartColor: "#00a4e8",
}

const (
	defaultLandingPageTitle = "User Skills"
	darkDangerColor         = "#e46c6c"
	styleIDPrefix           = "custom-theme-style-node-"
)

var styleSeq atomic.Uint64

// State is the theme of a display session. It is safe for concurrent use.
type State struct {
	mu      sync.RWMutex
	theme   *theme.Config
	css     string
	dark    bool
	styleID string
	logger  *slog.Logger

	loadedCh   chan struct{}
	loadedOnce sync.Once
	loadErr    error
}

// Option configures a State.
type Option func(*State)

// WithDarkMode selects the dark fallbacks.
func WithDarkMode(dark bool) Option {
	return func(s *State) { s.dark = dark }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *State) { s.logger = logger }
}

// New returns an empty, not yet loaded state.
func New(opts ...Option) *State {
	s := &State{
		theme:    theme.NewConfig(),
		styleID:  fmt.Sprintf("%s%d", styleIDPrefix, styleSeq.Add(1)),
		logger:   slog.Default(),
		loadedCh: make(chan struct{}),
	}
	s.theme.Set("charts", theme.NewConfig())
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Init compiles cfg, copies its theme module into the state and marks the
// state loaded. A nil cfg marks the state loaded without a stylesheet.
// A compile error is recorded and reported to every waiter.
func (s *State) Init(cfg *theme.Config) error {
	if cfg == nil {
		s.markLoaded(nil)
		return nil
	}

	res, err := theme.Build(cfg)
	if err != nil {
		s.markLoaded(err)
		return err
	}

	s.mu.Lock()
	for _, key := range res.Module.Keys() {
		v, _ := res.Module.Get(key)
		s.theme.Merge(key, v)
	}
	s.css = res.CSS
	s.mu.Unlock()

	s.logger.Debug("theme css prepared",
		slog.String("style_id", s.styleID),
		slog.Int("css_bytes", len(res.CSS)),
	)
	s.markLoaded(nil)
	return nil
}

// Fail marks the state loaded with err, releasing waiters.
func (s *State) Fail(err error) {
	s.markLoaded(err)
}

func (s *State) markLoaded(err error) {
	s.loadedOnce.Do(func() {
		s.mu.Lock()
		s.loadErr = err
		s.mu.Unlock()
		close(s.loadedCh)
	})
}

// Loaded is closed once the state has been initialised or has failed.
func (s *State) Loaded() <-chan struct{} {
	return s.loadedCh
}

// IsLoaded reports whether Loaded has been closed.
func (s *State) IsLoaded() bool {
	select {
	case <-s.loadedCh:
		return true
	default:
		return false
	}
}

// WaitLoaded blocks until the state is loaded or ctx is done. It returns
// the load error, if any.
func (s *State) WaitLoaded(ctx context.Context) error {
	select {
	case <-s.loadedCh:
		s.mu.RLock()
		defer s.mu.RUnlock()
		return s.loadErr
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SetByKey stores value under a top level key. Objects are merged into the
// existing object; anything else replaces it.
func (s *State) SetByKey(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.theme.Merge(key, value)
}

// Theme returns a copy of the current theme values.
func (s *State) Theme() *theme.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.theme.Clone()
}

// CSS returns the compiled stylesheet.
func (s *State) CSS() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.css
}

// StyleID is the element id the stylesheet is injected under.
func (s *State) StyleID() string {
	return s.styleID
}

// StyleElement renders the stylesheet as a style element, or "" when there
// is nothing to inject.
func (s *State) StyleElement() string {
	css := s.CSS()
	if css == "" {
		return ""
	}
	return fmt.Sprintf(`<style id="%s" data-cy="skills-display-custom-theme">%s</style>`,
		html.EscapeString(s.styleID), escapeStyleText(css))
}

// escapeStyleText stops a value from closing the style element early.
func escapeStyleText(css string) string {
	out := make([]byte, 0, len(css))
	for i := 0; i < len(css); i++ {
		if css[i] == '<' && i+1 < len(css) && css[i+1] == '/' {
			out = append(out, `\3c `...)
			continue
		}
		out = append(out, css[i])
	}
	return string(out)
}

func (s *State) str(key string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, _ := s.theme.String(key)
	return v
}

func (s *State) nested(group, key string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, _ := s.theme.Child(group).String(key)
	return v
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// LandingPageTitle is the title of the display landing page.
func (s *State) LandingPageTitle() string {
	return orDefault(s.str("landingPageTitle"), defaultLandingPageTitle)
}

// TextPrimaryColor returns the configured primary text color.
func (s *State) TextPrimaryColor() (string, bool) {
	v := s.str("textPrimaryColor")
	return v, v != ""
}

// CircleProgressInteriorTextColor returns the configured text color inside
// circular progress indicators.
func (s *State) CircleProgressInteriorTextColor() (string, bool) {
	v := s.str("circleProgressInteriorTextColor")
	return v, v != ""
}

// GraphColors are the prerequisite graph colors.
type GraphColors struct {
	Badge            string `json:"badgeColor"`
	Skill            string `json:"skillColor"`
	Achieved         string `json:"achievedColor"`
	ThisSkill        string `json:"thisSkillColor"`
	NavButtons       string `json:"navButtonsColor"`
	TextPrimaryColor string `json:"textPrimaryColor"`
}

// Graph returns the prerequisite graph colors with defaults applied.
func (s *State) Graph() GraphColors {
	return GraphColors{
		Badge:            orDefault(s.nested("prerequisites", "badgeColor"), "indigo"),
		Skill:            orDefault(s.nested("prerequisites", "skillColor"), "orange"),
		Achieved:         orDefault(s.nested("prerequisites", "achievedColor"), "green"),
		ThisSkill:        orDefault(s.nested("prerequisites", "thisSkillColor"), "#00a4e8"),
		NavButtons:       s.nested("prerequisites", "navButtonsColor"),
		TextPrimaryColor: s.str("textPrimaryColor"),
	}
}

// InfoCardIconColors returns the four summary card icon colors, filling any
// the theme leaves out.
func (s *State) InfoCardIconColors() [4]string {
	fallback := [4]string{Colors.Success, Colors.Warning, Colors.Info, Colors.Danger}
	if s.dark {
		fallback[3] = darkDangerColor
	}

	s.mu.RLock()
	v, _ := s.theme.Child("infoCards").Get("iconColors")
	s.mu.RUnlock()

	list, _ := v.([]any)
	out := fallback
	for i := range out {
		if i < len(list) {
			if c, ok := list[i].(string); ok {
				out[i] = c
			}
		}
	}
	return out
}

// Settings is a snapshot of everything display components read.
type Settings struct {
	LandingPageTitle                string        `json:"landingPageTitle"`
	TextPrimaryColor                string        `json:"textPrimaryColor,omitempty"`
	CircleProgressInteriorTextColor string        `json:"circleProgressInteriorTextColor,omitempty"`
	Graph                           GraphColors   `json:"graph"`
	InfoCardIconColors              [4]string     `json:"infoCardIconColors"`
	Colors                          Palette       `json:"colors"`
	Theme                           *theme.Config `json:"theme"`
	StyleID                         string        `json:"styleId"`
	CSS                             string        `json:"css"`
}

// Snapshot collects the current settings.
func (s *State) Snapshot() Settings {
	primary, _ := s.TextPrimaryColor()
	circle, _ := s.CircleProgressInteriorTextColor()
	return Settings{
		LandingPageTitle:                s.LandingPageTitle(),
		TextPrimaryColor:                primary,
		CircleProgressInteriorTextColor: circle,
		Graph:                           s.Graph(),
		InfoCardIconColors:              s.InfoCardIconColors(),
		Colors:                          Colors,
		Theme:                           s.Theme(),
		StyleID:                         s.styleID,
		CSS:                             s.CSS(),
	}
}
