// Package theme compiles skills-display theme configurations into CSS and
// the theme module handed to UI components.
package theme

import (
	"strings"
)

const (
	// chartFixCSS keeps the chart context menu and tooltip readable on dark
	// themes. It ends every compiled stylesheet.
	chartFixCSS = "body #app .sd-theme-home .apexcharts-menu.open { color: black !important; }" +
		" body #app .sd-theme-home .apexcharts-tooltip { color: black !important; }"

	answerRowSelector = "body #app .sd-theme-home .answer-row.surface-200"

	defaultTilesBackground = "#fff"
	lightenAmount          = 10
)

var menuHoverRule = Rule{
	Selector: ".p-popover.p-component .p-panelmenu-panel .p-panelmenu-item-content:hover," +
		" .p-popover.p-component .p-panelmenu-panel .p-panelmenu-header-content:hover",
	StyleName: "background-color",
}

// Result is a compiled theme.
type Result struct {
	// CSS is the stylesheet text, one rule per emitted selector.
	CSS string
	// Module holds the raw value of every non-CSS and dual-purpose key,
	// keyed by the bare key name.
	Module *Config
}

// Compiler validates configurations against a schema and emits CSS.
type Compiler struct {
	schema *Schema
}

// NewCompiler returns a compiler bound to schema.
func NewCompiler(schema *Schema) *Compiler {
	return &Compiler{schema: schema}
}

var defaultCompiler = NewCompiler(defaultSchema)

// Build compiles cfg with the default schema.
func Build(cfg *Config) (*Result, error) {
	return defaultCompiler.Build(cfg)
}

// Build compiles cfg. The input is left untouched; defaults are applied to
// a copy.
func (c *Compiler) Build(cfg *Config) (*Result, error) {
	working := cfg.Clone()
	if working == nil {
		working = NewConfig()
	}

	b := &builder{schema: c.schema, theme: working, module: NewConfig()}

	// The answer row shade follows the background as supplied, before the
	// white default is filled in.
	if bg, ok := working.Child("tiles").String("backgroundColor"); ok {
		if lighter, ok := Lighten(bg, lightenAmount); ok {
			b.css.WriteString(answerRowSelector + " { background-color: " + lighter + " !important; } ")
		}
	}

	applyDefaults(working)

	var menuHover string
	if bg, ok := working.Child("tiles").String("backgroundColor"); ok && bg != defaultTilesBackground {
		menuHover, _ = Lighten(bg, lightenAmount)
	}

	if err := b.populate(c.schema.Root(), working, ""); err != nil {
		return nil, err
	}
	if menuHover != "" {
		b.writeRule(menuHoverRule, menuHover)
	}
	b.css.WriteString(chartFixCSS)

	return &Result{CSS: b.css.String(), Module: b.module}, nil
}

// applyDefaults backfills the tile background when only the primary text
// color is given and resolves the brand color from its legacy sources.
func applyDefaults(t *Config) {
	tiles, _ := t.Get("tiles")
	tilesObj, isObj := tiles.(*Config)
	if !(isObj && tilesObj.IsSet("backgroundColor")) && t.IsSet("textPrimaryColor") {
		switch {
		case isEmpty(tiles):
			fresh := NewConfig()
			fresh.Set("backgroundColor", defaultTilesBackground)
			t.Set("tiles", fresh)
		case isObj:
			tilesObj.Set("backgroundColor", defaultTilesBackground)
		}
	}

	pageTitleColor, hasPageTitleColor := t.Child("pageTitle").Get("textColor")
	hasPageTitleColor = hasPageTitleColor && !isEmpty(pageTitleColor)

	if !t.IsSet("skillTreeBrandColor") {
		switch {
		case hasPageTitleColor:
			t.Set("skillTreeBrandColor", cloneValue(pageTitleColor))
		case t.IsSet("textPrimaryColor"):
			v, _ := t.Get("textPrimaryColor")
			t.Set("skillTreeBrandColor", cloneValue(v))
		case t.IsSet("pageTitleTextColor"):
			v, _ := t.Get("pageTitleTextColor")
			t.Set("skillTreeBrandColor", cloneValue(v))
		}
	}
	if hasPageTitleColor && t.IsSet("pageTitleTextColor") {
		t.Delete("pageTitleTextColor")
	}
}

type builder struct {
	schema *Schema
	theme  *Config
	css    strings.Builder
	module *Config
}

func (b *builder) populate(schema *Node, input *Config, parent string) error {
	for _, key := range input.Keys() {
		value, _ := input.Get(key)
		path := key
		if parent != "" {
			path = parent + "." + key
		}

		if b.schema.IsCSS(key) {
			node := schema.Child(key)
			if node == nil {
				return b.mismatch(key, path, ReasonUnsupported)
			}
			if isEmpty(value) {
				return b.mismatch(key, path, ReasonEmpty)
			}

			if node.IsLeaf() {
				s, ok := value.(string)
				if !ok {
					return b.mismatch(key, path, ReasonUnsupportedValue)
				}
				if err := b.emitLeaf(node, path, s); err != nil {
					return err
				}
			} else {
				child, ok := value.(*Config)
				if !ok {
					return b.mismatch(key, path, ReasonNotObject)
				}
				if err := b.populate(node, child, path); err != nil {
					return err
				}
			}
		}

		if b.schema.IsThemeModule(key) {
			b.module.Set(key, value)
		}
	}
	return nil
}

func (b *builder) emitLeaf(node *Node, path, value string) error {
	if len(node.rules) == 0 {
		return &SchemaAuthoringError{Path: path}
	}
	for _, r := range node.rules {
		if !r.Valid() {
			return &SchemaAuthoringError{Path: path, Rule: r}
		}
		b.writeRule(r, value)
	}
	b.css.WriteString(b.schema.KeyPathCSS(path))
	return nil
}

func (b *builder) writeRule(r Rule, value string) {
	b.css.WriteString(r.Selector)
	b.css.WriteString(" { ")
	b.css.WriteString(r.StyleName)
	b.css.WriteString(": ")
	b.css.WriteString(Sanitize(value))
	b.css.WriteString(" !important } ")
}

func (b *builder) mismatch(key, path, reason string) error {
	return &SchemaMismatchError{Key: key, Path: path, Reason: reason, Theme: b.theme.JSON()}
}

// Sanitize cuts a CSS value at its first semicolon so a value cannot close
// the declaration and start another.
func Sanitize(value string) string {
	if i := strings.IndexByte(value, ';'); i >= 0 {
		return value[:i]
	}
	return value
}
