package theme

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
)

// ParamName is the query parameter carrying theme entries.
const ParamName = "themeParam"

// FromQuery builds a configuration from every themeParam in q.
func FromQuery(q url.Values) (*Config, error) {
	return ParseParams(q[ParamName])
}

// ParseParams builds a configuration from key|value entries. A repeated key
// with an object value is merged into the earlier object.
func ParseParams(params []string) (*Config, error) {
	cfg := NewConfig()
	for _, p := range params {
		key, value, err := ParseParam(p)
		if err != nil {
			return nil, err
		}
		cfg.Merge(key, value)
	}
	return cfg, nil
}

// ParseParam splits one key|value entry. The value is decoded as JSON when
// it is valid JSON and kept as a plain string otherwise. Segments after a
// second separator are ignored unless they belong to a JSON value.
func ParseParam(raw string) (string, any, error) {
	key, rest, ok := strings.Cut(raw, "|")
	key = strings.TrimSpace(key)
	if !ok || key == "" {
		return "", nil, fmt.Errorf("%w: %q", ErrInvalidParam, raw)
	}

	if v, ok := decodeParamValue(rest); ok {
		return key, v, nil
	}
	first, _, _ := strings.Cut(rest, "|")
	if v, ok := decodeParamValue(first); ok {
		return key, v, nil
	}
	return key, first, nil
}

func decodeParamValue(s string) (any, bool) {
	if strings.TrimSpace(s) == "" {
		return nil, false
	}
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	v, err := decodeValue(dec)
	if err != nil {
		return nil, false
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, false
	}
	return v, true
}
