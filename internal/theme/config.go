package theme

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config is a theme configuration object that keeps its keys in document
// order. Values are string, json.Number, bool, nil, []any or *Config.
//
// The zero value is an empty configuration ready to use.
type Config struct {
	keys   []string
	values map[string]any
}

// NewConfig returns an empty configuration.
func NewConfig() *Config {
	return &Config{values: make(map[string]any)}
}

// Len returns the number of keys.
func (c *Config) Len() int {
	if c == nil {
		return 0
	}
	return len(c.keys)
}

// Keys returns the keys in insertion order.
func (c *Config) Keys() []string {
	if c == nil {
		return nil
	}
	out := make([]string, len(c.keys))
	copy(out, c.keys)
	return out
}

// Get returns the value stored under key.
func (c *Config) Get(key string) (any, bool) {
	if c == nil || c.values == nil {
		return nil, false
	}
	v, ok := c.values[key]
	return v, ok
}

// Set stores value under key. A new key is appended to the key order; an
// existing key keeps its position.
func (c *Config) Set(key string, value any) {
	if c.values == nil {
		c.values = make(map[string]any)
	}
	if _, ok := c.values[key]; !ok {
		c.keys = append(c.keys, key)
	}
	c.values[key] = value
}

// Delete removes key.
func (c *Config) Delete(key string) {
	if c == nil || c.values == nil {
		return
	}
	if _, ok := c.values[key]; !ok {
		return
	}
	delete(c.values, key)
	for i, k := range c.keys {
		if k == key {
			c.keys = append(c.keys[:i], c.keys[i+1:]...)
			break
		}
	}
}

// IsSet reports whether key holds a non-empty value.
func (c *Config) IsSet(key string) bool {
	v, ok := c.Get(key)
	return ok && !isEmpty(v)
}

// String returns the value under key when it is a non-empty string.
func (c *Config) String(key string) (string, bool) {
	v, _ := c.Get(key)
	s, ok := v.(string)
	return s, ok && s != ""
}

// Child returns the nested object under key, or nil.
func (c *Config) Child(key string) *Config {
	v, _ := c.Get(key)
	child, _ := v.(*Config)
	return child
}

// Merge stores value under key. Objects are merged shallowly into an
// existing object under the same key; any other value replaces it.
func (c *Config) Merge(key string, value any) {
	incoming, ok := value.(*Config)
	if !ok {
		c.Set(key, value)
		return
	}
	merged := NewConfig()
	if existing := c.Child(key); existing != nil {
		for _, k := range existing.keys {
			merged.Set(k, cloneValue(existing.values[k]))
		}
	}
	for _, k := range incoming.keys {
		merged.Set(k, cloneValue(incoming.values[k]))
	}
	c.Set(key, merged)
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	out := &Config{
		keys:   make([]string, len(c.keys)),
		values: make(map[string]any, len(c.values)),
	}
	copy(out.keys, c.keys)
	for k, v := range c.values {
		out.values[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case *Config:
		return t.Clone()
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}

// isEmpty mirrors the truthiness check theme values have always been held
// to: null, "", false and 0 count as missing.
func isEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case bool:
		return !t
	case json.Number:
		f, err := t.Float64()
		return err == nil && f == 0
	case *Config:
		return t == nil
	default:
		return false
	}
}

// ParseJSON decodes a JSON object into a Config, keeping key order.
func ParseJSON(data []byte) (*Config, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	v, err := decodeValue(dec)
	if err != nil {
		return nil, fmt.Errorf("decoding theme: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("decoding theme: unexpected data after top-level object")
	}
	cfg, ok := v.(*Config)
	if !ok {
		return nil, errors.New("decoding theme: document must be a JSON object")
	}
	return cfg, nil
}

func decodeValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}

	delim, ok := tok.(json.Delim)
	if !ok {
		return tok, nil
	}

	switch delim {
	case '{':
		cfg := NewConfig()
		for dec.More() {
			kt, err := dec.Token()
			if err != nil {
				return nil, err
			}
			key, ok := kt.(string)
			if !ok {
				return nil, fmt.Errorf("unexpected object key %v", kt)
			}
			v, err := decodeValue(dec)
			if err != nil {
				return nil, err
			}
			cfg.Set(key, v)
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return cfg, nil
	case '[':
		list := []any{}
		for dec.More() {
			v, err := decodeValue(dec)
			if err != nil {
				return nil, err
			}
			list = append(list, v)
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return list, nil
	default:
		return nil, fmt.Errorf("unexpected delimiter %q", delim)
	}
}

// UnmarshalJSON implements json.Unmarshaler.
func (c *Config) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*c = Config{values: make(map[string]any)}
		return nil
	}
	parsed, err := ParseJSON(data)
	if err != nil {
		return err
	}
	*c = *parsed
	return nil
}

// MarshalJSON implements json.Marshaler. Keys are written in order and HTML
// characters are left unescaped.
func (c *Config) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	if c != nil {
		for i, k := range c.keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeJSON(&buf, k); err != nil {
				return nil, err
			}
			buf.WriteByte(':')
			if err := writeJSON(&buf, c.values[k]); err != nil {
				return nil, err
			}
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeJSON(buf *bytes.Buffer, v any) error {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return err
	}
	// Encode terminates every value with a newline.
	buf.Truncate(buf.Len() - 1)
	return nil
}

// JSON returns the compact JSON form, or "{}" if encoding fails.
func (c *Config) JSON() string {
	b, err := c.MarshalJSON()
	if err != nil {
		return "{}"
	}
	return string(b)
}

// ParseYAML decodes a YAML mapping into a Config, keeping key order.
func ParseYAML(data []byte) (*Config, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decoding theme: %w", err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return NewConfig(), nil
	}
	v, err := fromYAML(doc.Content[0])
	if err != nil {
		return nil, fmt.Errorf("decoding theme: %w", err)
	}
	cfg, ok := v.(*Config)
	if !ok {
		return nil, errors.New("decoding theme: document must be a mapping")
	}
	return cfg, nil
}

func fromYAML(n *yaml.Node) (any, error) {
	switch n.Kind {
	case yaml.AliasNode:
		return fromYAML(n.Alias)
	case yaml.MappingNode:
		cfg := NewConfig()
		for i := 0; i+1 < len(n.Content); i += 2 {
			keyNode, valNode := n.Content[i], n.Content[i+1]
			if keyNode.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("line %d: mapping keys must be scalars", keyNode.Line)
			}
			v, err := fromYAML(valNode)
			if err != nil {
				return nil, err
			}
			cfg.Set(keyNode.Value, v)
		}
		return cfg, nil
	case yaml.SequenceNode:
		list := make([]any, 0, len(n.Content))
		for _, item := range n.Content {
			v, err := fromYAML(item)
			if err != nil {
				return nil, err
			}
			list = append(list, v)
		}
		return list, nil
	case yaml.ScalarNode:
		switch n.ShortTag() {
		case "!!null":
			return nil, nil
		case "!!bool":
			b, err := strconv.ParseBool(n.Value)
			if err != nil {
				var v bool
				if derr := n.Decode(&v); derr != nil {
					return nil, fmt.Errorf("line %d: %w", n.Line, derr)
				}
				return v, nil
			}
			return b, nil
		case "!!int", "!!float":
			return json.Number(n.Value), nil
		default:
			return n.Value, nil
		}
	default:
		return nil, fmt.Errorf("line %d: unsupported YAML node", n.Line)
	}
}
