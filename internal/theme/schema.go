package theme

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Rule pairs a CSS selector with the property a theme value is written to.
type Rule struct {
	Selector  string `json:"selector" yaml:"selector"`
	StyleName string `json:"styleName" yaml:"styleName"`
}

// Valid reports whether both halves of the rule are present.
func (r Rule) Valid() bool {
	return r.Selector != "" && r.StyleName != ""
}

// Node is one entry of the selector schema. A node with rules is a leaf:
// its configuration value is written to every rule. A node without rules is
// a group and its configuration value must be an object matching children.
type Node struct {
	rules    []Rule
	children map[string]*Node
}

// Leaf returns a schema leaf that writes a value to each rule in order.
func Leaf(rules ...Rule) *Node {
	return &Node{rules: rules}
}

// Group returns a schema node holding nested keys.
func Group(children map[string]*Node) *Node {
	return &Node{children: children}
}

// IsLeaf reports whether the node emits CSS directly.
func (n *Node) IsLeaf() bool {
	return n.children == nil
}

// Rules returns a copy of the leaf rules.
func (n *Node) Rules() []Rule {
	out := make([]Rule, len(n.rules))
	copy(out, n.rules)
	return out
}

// Child returns the nested node for key, or nil.
func (n *Node) Child(key string) *Node {
	if n == nil || n.children == nil {
		return nil
	}
	return n.children[key]
}

// SchemaOptions carries the key classification and the extra CSS attached
// to specific key paths.
type SchemaOptions struct {
	// NonCSS keys are never emitted as CSS and always land in the theme module.
	NonCSS []string
	// Dual keys are emitted as CSS and also land in the theme module.
	Dual []string
	// KeyPathCSS is appended verbatim after a leaf at that dotted path.
	KeyPathCSS map[string]string
}

// Schema is the immutable selector schema the compiler validates against.
type Schema struct {
	root       *Node
	nonCSS     map[string]bool
	dual       map[string]bool
	keyPathCSS map[string]string
}

// NewSchema builds a schema from its top level nodes.
func NewSchema(root map[string]*Node, opts SchemaOptions) *Schema {
	s := &Schema{
		root:       Group(root),
		nonCSS:     make(map[string]bool, len(opts.NonCSS)),
		dual:       make(map[string]bool, len(opts.Dual)),
		keyPathCSS: make(map[string]string, len(opts.KeyPathCSS)),
	}
	for _, k := range opts.NonCSS {
		s.nonCSS[k] = true
	}
	for _, k := range opts.Dual {
		s.dual[k] = true
	}
	for k, v := range opts.KeyPathCSS {
		s.keyPathCSS[k] = v
	}
	return s
}

// Root returns the top level group.
func (s *Schema) Root() *Node {
	return s.root
}

// IsCSS reports whether values under key are emitted as CSS.
func (s *Schema) IsCSS(key string) bool {
	return !s.nonCSS[key]
}

// IsThemeModule reports whether values under key are passed through to the
// theme module.
func (s *Schema) IsThemeModule(key string) bool {
	return s.nonCSS[key] || s.dual[key]
}

// KeyPathCSS returns the extra CSS registered for a dotted path.
func (s *Schema) KeyPathCSS(path string) string {
	return s.keyPathCSS[path]
}

// PathInfo describes one leaf of the schema.
type PathInfo struct {
	Path        string `json:"path" yaml:"path"`
	Label       string `json:"label" yaml:"label"`
	ThemeModule bool   `json:"themeModule" yaml:"themeModule"`
	Rules       []Rule `json:"rules" yaml:"rules"`
	ExtraCSS    string `json:"extraCss,omitempty" yaml:"extraCss,omitempty"`
}

// Paths lists every leaf and every non-CSS top level key, sorted by path.
func (s *Schema) Paths() []PathInfo {
	var out []PathInfo
	var walk func(n *Node, prefix string, module bool)
	walk = func(n *Node, prefix string, module bool) {
		for key, child := range n.children {
			path := key
			if prefix != "" {
				path = prefix + "." + key
			}
			inModule := module || s.IsThemeModule(key)
			if !child.IsLeaf() {
				walk(child, path, inModule)
				continue
			}
			out = append(out, PathInfo{
				Path:        path,
				Label:       pathLabel(path),
				ThemeModule: inModule,
				Rules:       child.Rules(),
				ExtraCSS:    s.keyPathCSS[path],
			})
		}
	}
	walk(s.root, "", false)

	for key := range s.nonCSS {
		out = append(out, PathInfo{Path: key, Label: pathLabel(key), ThemeModule: true})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// Validate walks the schema and reports every malformed leaf.
func (s *Schema) Validate() error {
	var problems []string
	var walk func(n *Node, prefix string)
	walk = func(n *Node, prefix string) {
		for key, child := range n.children {
			path := key
			if prefix != "" {
				path = prefix + "." + key
			}
			if child == nil {
				problems = append(problems, path+": nil node")
				continue
			}
			if !child.IsLeaf() {
				walk(child, path)
				continue
			}
			if len(child.rules) == 0 {
				problems = append(problems, path+": no rules")
			}
			for i, r := range child.rules {
				if !r.Valid() {
					problems = append(problems, fmt.Sprintf("%s[%d]: selector and styleName are required", path, i))
				}
			}
		}
	}
	walk(s.root, "")
	if len(problems) == 0 {
		return nil
	}
	sort.Strings(problems)
	return fmt.Errorf("invalid theme schema: %s", strings.Join(problems, "; "))
}

// pathLabel turns "tiles.backgroundColor" into "Tiles Background Color".
func pathLabel(path string) string {
	var words []string
	for _, part := range strings.Split(path, ".") {
		var word strings.Builder
		for i, r := range part {
			if i > 0 && r >= 'A' && r <= 'Z' {
				words = append(words, word.String())
				word.Reset()
			}
			word.WriteRune(r)
		}
		words = append(words, word.String())
	}
	return cases.Title(language.English).String(strings.Join(words, " "))
}
