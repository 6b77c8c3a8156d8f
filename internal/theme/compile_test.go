package theme

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const chartFixSuffix = "body #app .sd-theme-home .apexcharts-menu.open { color: black !important; }" +
	" body #app .sd-theme-home .apexcharts-tooltip { color: black !important; }"

func mustParse(t *testing.T, doc string) *Config {
	t.Helper()
	cfg, err := ParseJSON([]byte(doc))
	require.NoError(t, err)
	return cfg
}

func TestBuild_ExactCSS(t *testing.T) {
	tests := []struct {
		name   string
		theme  string
		css    string
		module string
	}{
		{
			name:  "stars",
			theme: `{"stars":{"unearnedColor":"#787886","earnedColor":"gold"}}`,
			css: "body #app .sd-theme-home .p-rating .p-rating-option .p-icon.p-rating-icon.p-rating-off-icon { color: #787886 !important } " +
				"body #app .sd-theme-home .p-rating .p-rating-option.p-rating-option-active .p-icon.p-rating-icon.p-rating-on-icon { color: gold !important } " +
				chartFixSuffix,
			module: `{}`,
		},
		{
			name:  "back button",
			theme: `{"backButton":{"padding":"5px 10px","fontSize":"12px","lineHeight":"1.5"}}`,
			css: "body #app .sd-theme-home .skills-theme-page-title .skills-theme-btn { padding: 5px 10px !important } " +
				"body #app .sd-theme-home .skills-theme-page-title .skills-theme-btn { font-size: 12px !important } " +
				"body #app .sd-theme-home .skills-theme-page-title .skills-theme-btn { line-height: 1.5 !important } " +
				chartFixSuffix,
			module: `{}`,
		},
		{
			name:  "page title with injection attempt and breadcrumb",
			theme: `{"pageTitle":{"borderColor":"red; } body { display:none","textColor":"blue"},"breadcrumb":{"align":"start"}}`,
			css: "body #app .sd-theme-home .p-card.p-component.skills-theme-page-title { border-color: red !important } " +
				".sd-theme-home .skills-theme-page-title.p-card { border-width: 2px !important; }" +
				".sd-theme-home .p-card.p-component.skills-theme-page-title,.sd-theme-home .p-card.p-component.skills-theme-page-title .poweredByContainer { color: blue !important } " +
				"body #app .sd-theme-home .skills-theme-breadcrumb-container { -ms-flex-pack: start !important } " +
				"body #app .sd-theme-home .skills-theme-breadcrumb-container { justify-content: start !important } " +
				".sd-theme-home .poweredByContainer .skills-theme-brand { color: blue !important } " +
				chartFixSuffix,
			module: `{"pageTitle":{"borderColor":"red; } body { display:none","textColor":"blue"},"breadcrumb":{"align":"start"},"skillTreeBrandColor":"blue"}`,
		},
		{
			name:  "page title font size",
			theme: `{"pageTitleFontSize":"2rem"}`,
			css: "body #app .sd-theme-home .skills-page-title-text-color .skills-title { font-size: 2rem !important } " +
				chartFixSuffix,
			module: `{}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Build(mustParse(t, tt.theme))
			require.NoError(t, err)
			assert.Equal(t, tt.css, res.CSS)
			assert.JSONEq(t, tt.module, res.Module.JSON())
		})
	}
}

func TestBuild_TilesBackgroundDerivedRules(t *testing.T) {
	res, err := Build(mustParse(t, `{"tiles":{"backgroundColor":"black"}}`))
	require.NoError(t, err)

	tiles := defaultSchema.Root().Child("tiles").Child("backgroundColor").Rules()
	require.Len(t, tiles, 2)

	expected := "body #app .sd-theme-home .answer-row.surface-200 { background-color: #1a1a1a !important; } " +
		tiles[0].Selector + " { background-color: black !important } " +
		tiles[1].Selector + " { color: black !important } " +
		keyPathCSS["tiles.backgroundColor"] +
		menuHoverRule.Selector + " { background-color: #1a1a1a !important } " +
		chartFixSuffix
	assert.Equal(t, expected, res.CSS)

	// backgroundColor is a dual key at any depth, so the nested entry lands
	// in the module ahead of its parent.
	assert.Equal(t, []string{"backgroundColor", "tiles"}, res.Module.Keys())
	bg, _ := res.Module.Get("backgroundColor")
	assert.Equal(t, "black", bg)
}

func TestBuild_FunctionalTilesColorKeepsDerivedRules(t *testing.T) {
	res, err := Build(mustParse(t, `{"tiles":{"backgroundColor":"rgb(255, 0, 0)"}}`))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(res.CSS,
		answerRowSelector+" { background-color: rgb(255, 51, 51) !important; } "))
	assert.Contains(t, res.CSS, menuHoverRule.Selector+" { background-color: rgb(255, 51, 51) !important }")

	res, err = Build(mustParse(t, `{"tiles":{"backgroundColor":"hsl(120, 100%, 25%)"}}`))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(res.CSS,
		answerRowSelector+" { background-color: hsl(120, 100%, 35%) !important; } "))
}

func TestBuild_WhiteTilesSkipMenuHover(t *testing.T) {
	res, err := Build(mustParse(t, `{"tiles":{"backgroundColor":"#fff"}}`))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(res.CSS, answerRowSelector+" { background-color: #ffffff !important; } "))
	assert.NotContains(t, res.CSS, menuHoverRule.Selector)
}

func TestBuild_UnparseableTilesColorSkipsDerivedRules(t *testing.T) {
	res, err := Build(mustParse(t, `{"tiles":{"backgroundColor":"var(--surface)"}}`))
	require.NoError(t, err)

	assert.NotContains(t, res.CSS, answerRowSelector)
	assert.NotContains(t, res.CSS, menuHoverRule.Selector)
	assert.Contains(t, res.CSS, "{ background-color: var(--surface) !important }")
}

func TestBuild_PrimaryColorBackfillsTiles(t *testing.T) {
	input := mustParse(t, `{"textPrimaryColor":"#fff"}`)

	res, err := Build(input)
	require.NoError(t, err)

	tiles := res.Module.Child("tiles")
	require.NotNil(t, tiles)
	assert.Equal(t, `{"backgroundColor":"#fff"}`, tiles.JSON())

	brand, ok := res.Module.String("skillTreeBrandColor")
	assert.True(t, ok)
	assert.Equal(t, "#fff", brand)

	primary := defaultSchema.Root().Child("textPrimaryColor").Rules()
	for _, r := range primary {
		assert.Contains(t, res.CSS, r.Selector+" { "+r.StyleName+": #fff !important } ")
	}
	for _, r := range defaultSchema.Root().Child("tiles").Child("backgroundColor").Rules() {
		assert.Contains(t, res.CSS, r.Selector+" { "+r.StyleName+": #fff !important } ")
	}
	assert.Contains(t, res.CSS, keyPathCSS["textPrimaryColor"])
	assert.True(t, strings.HasSuffix(res.CSS, chartFixSuffix))

	// The backfill happened before the answer row rule is considered.
	assert.NotContains(t, res.CSS, answerRowSelector)

	// The caller's configuration is untouched.
	assert.Equal(t, []string{"textPrimaryColor"}, input.Keys())
}

func TestBuild_PageTitleColorWinsOverLegacy(t *testing.T) {
	res, err := Build(mustParse(t, `{"pageTitleTextColor":"#00ff80","pageTitle":{"textColor":"#00FFFF"}}`))
	require.NoError(t, err)

	_, legacy := res.Module.Get("pageTitleTextColor")
	assert.False(t, legacy)

	brand, _ := res.Module.String("skillTreeBrandColor")
	assert.Equal(t, "#00FFFF", brand)
	assert.NotContains(t, res.CSS, "#00ff80")
}

func TestBuild_BrandColorFallbacks(t *testing.T) {
	tests := []struct {
		name  string
		theme string
		brand string
	}{
		{"explicit brand kept", `{"skillTreeBrandColor":"red","textPrimaryColor":"blue"}`, "red"},
		{"primary text", `{"textPrimaryColor":"blue","pageTitleTextColor":"green"}`, "blue"},
		{"legacy title", `{"pageTitleTextColor":"green"}`, "green"},
		{"null brand replaced", `{"skillTreeBrandColor":null,"pageTitle":{"textColor":"teal"}}`, "teal"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Build(mustParse(t, tt.theme))
			require.NoError(t, err)
			brand, _ := res.Module.String("skillTreeBrandColor")
			assert.Equal(t, tt.brand, brand)
			assert.Contains(t, res.CSS, ".sd-theme-home .poweredByContainer .skills-theme-brand { color: "+tt.brand+" !important } ")
		})
	}
}

func TestBuild_UnknownKey(t *testing.T) {
	_, err := Build(mustParse(t, `{"bogusKey":"red"}`))
	require.Error(t, err)

	var mismatch *SchemaMismatchError
	require.True(t, errors.As(err, &mismatch))
	assert.Equal(t, "bogusKey", mismatch.Key)
	assert.Equal(t, ReasonUnsupported, mismatch.Reason)
	assert.Equal(t,
		`Skills Theme Error! Failed to process provided custom theme due to invalid format! JSON key of [bogusKey] is not supported (Is it misspelled?). Theme is {"bogusKey":"red"}`,
		err.Error())
	assert.True(t, IsUserError(err))
}

func TestBuild_MisspelledNestedKeyReportsWorkingTheme(t *testing.T) {
	_, err := Build(mustParse(t, `{"textPrimaryColor":"white","stars":{"earnedColour":"gold"}}`))
	require.Error(t, err)

	var mismatch *SchemaMismatchError
	require.True(t, errors.As(err, &mismatch))
	assert.Equal(t, "earnedColour", mismatch.Key)
	assert.Equal(t, "stars.earnedColour", mismatch.Path)
	assert.Equal(t,
		`{"textPrimaryColor":"white","stars":{"earnedColour":"gold"},"tiles":{"backgroundColor":"#fff"},"skillTreeBrandColor":"white"}`,
		mismatch.Theme)
}

func TestBuild_InvalidValues(t *testing.T) {
	tests := []struct {
		name   string
		theme  string
		key    string
		reason string
	}{
		{"empty string", `{"stars":{"unearnedColor":"#787886","earnedColor":""}}`, "earnedColor", ReasonEmpty},
		{"null", `{"maxWidth":null}`, "maxWidth", ReasonEmpty},
		{"false", `{"maxWidth":false}`, "maxWidth", ReasonEmpty},
		{"number", `{"maxWidth":1200}`, "maxWidth", ReasonUnsupportedValue},
		{"object at leaf", `{"maxWidth":{"value":"10px"}}`, "maxWidth", ReasonUnsupportedValue},
		{"scalar at group", `{"stars":"gold"}`, "stars", ReasonNotObject},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build(mustParse(t, tt.theme))
			var mismatch *SchemaMismatchError
			require.True(t, errors.As(err, &mismatch), "got %v", err)
			assert.Equal(t, tt.key, mismatch.Key)
			assert.Equal(t, tt.reason, mismatch.Reason)
		})
	}
}

func TestBuild_NonCSSKeysOnlyReachModule(t *testing.T) {
	theme := `{"charts":{"axisLabelColor":"#f9f1f1"},"landingPageTitle":"My Skills",` +
		`"infoCards":{"borderColor":"purple","iconColors":["blue","red"]},"disableBreadcrumb":true}`
	res, err := Build(mustParse(t, theme))
	require.NoError(t, err)

	assert.Equal(t, []string{"charts", "landingPageTitle", "iconColors", "infoCards", "disableBreadcrumb"}, res.Module.Keys())
	assert.Equal(t, `{"axisLabelColor":"#f9f1f1"}`, res.Module.Child("charts").JSON())

	icons, _ := res.Module.Get("iconColors")
	if diff := cmp.Diff([]any{"blue", "red"}, icons); diff != "" {
		t.Errorf("iconColors mismatch (-want +got):\n%s", diff)
	}

	assert.NotContains(t, res.CSS, "My Skills")
	assert.NotContains(t, res.CSS, "#f9f1f1")
	assert.Contains(t, res.CSS, "body #app .sd-theme-home .sd-theme-summary-cards .p-card { border-color: purple !important } ")
}

func TestBuild_Deterministic(t *testing.T) {
	input := mustParse(t, `{"textPrimaryColor":"white","tiles":{"borderColor":"blue"},"backgroundColor":"#626d7d"}`)

	first, err := Build(input)
	require.NoError(t, err)
	second, err := Build(input)
	require.NoError(t, err)

	assert.Equal(t, first.CSS, second.CSS)
	assert.Equal(t, first.Module.JSON(), second.Module.JSON())
}

func TestBuild_RulePerPair(t *testing.T) {
	res, err := Build(mustParse(t, `{"buttons":{"backgroundColor":"green","foregroundColor":"white","borderColor":"purple"}}`))
	require.NoError(t, err)

	buttons := defaultSchema.Root().Child("buttons")
	want := len(buttons.Child("backgroundColor").Rules()) +
		len(buttons.Child("foregroundColor").Rules()) +
		len(buttons.Child("borderColor").Rules())
	assert.Equal(t, want+2, strings.Count(res.CSS, "!important"))
}

func TestBuild_NilConfig(t *testing.T) {
	res, err := Build(nil)
	require.NoError(t, err)
	assert.Equal(t, chartFixSuffix, res.CSS)
	assert.Equal(t, 0, res.Module.Len())
}

func TestCompiler_SchemaAuthoringError(t *testing.T) {
	schema := NewSchema(map[string]*Node{
		"broken": Leaf(Rule{Selector: ".x"}),
		"empty":  Leaf(),
	}, SchemaOptions{})
	c := NewCompiler(schema)

	_, err := c.Build(mustParse(t, `{"broken":"red"}`))
	var authoring *SchemaAuthoringError
	require.True(t, errors.As(err, &authoring))
	assert.Equal(t, "broken", authoring.Path)
	assert.True(t, strings.HasPrefix(err.Error(), "Bug in the custom theme code. Both selector and styleName must be present for ["))
	assert.False(t, IsUserError(err))

	_, err = c.Build(mustParse(t, `{"empty":"red"}`))
	require.True(t, errors.As(err, &authoring))
	assert.Equal(t, "empty", authoring.Path)
}

func TestSanitize(t *testing.T) {
	assert.Equal(t, "red", Sanitize("red; color: blue"))
	assert.Equal(t, "", Sanitize(";"))
	assert.Equal(t, "1px solid grey", Sanitize("1px solid grey"))
}
