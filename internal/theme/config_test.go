package theme

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseJSON_KeepsOrder(t *testing.T) {
	cfg, err := ParseJSON([]byte(`{"z":"1","a":{"y":true,"b":[1,"x",null]},"m":null}`))
	require.NoError(t, err)

	assert.Equal(t, []string{"z", "a", "m"}, cfg.Keys())
	assert.Equal(t, []string{"y", "b"}, cfg.Child("a").Keys())
	assert.Equal(t, `{"z":"1","a":{"y":true,"b":[1,"x",null]},"m":null}`, cfg.JSON())
}

func TestParseJSON_Errors(t *testing.T) {
	for _, doc := range []string{`[]`, `"red"`, `{"a":`, `{"a":1} {"b":2}`, ``} {
		_, err := ParseJSON([]byte(doc))
		assert.Error(t, err, doc)
	}
}

func TestConfig_DuplicateKeyKeepsFirstPosition(t *testing.T) {
	cfg, err := ParseJSON([]byte(`{"a":"1","b":"2","a":"3"}`))
	require.NoError(t, err)
	assert.Equal(t, `{"a":"3","b":"2"}`, cfg.JSON())
}

func TestConfig_SetDelete(t *testing.T) {
	var cfg Config
	cfg.Set("a", "1")
	cfg.Set("b", "2")
	cfg.Set("a", "3")
	assert.Equal(t, []string{"a", "b"}, cfg.Keys())

	cfg.Delete("a")
	cfg.Delete("missing")
	assert.Equal(t, []string{"b"}, cfg.Keys())
	_, ok := cfg.Get("a")
	assert.False(t, ok)
}

func TestConfig_IsSet(t *testing.T) {
	cfg, err := ParseJSON([]byte(`{"s":"x","e":"","n":null,"f":false,"t":true,"z":0,"o":{},"l":[]}`))
	require.NoError(t, err)

	assert.True(t, cfg.IsSet("s"))
	assert.False(t, cfg.IsSet("e"))
	assert.False(t, cfg.IsSet("n"))
	assert.False(t, cfg.IsSet("f"))
	assert.True(t, cfg.IsSet("t"))
	assert.False(t, cfg.IsSet("z"))
	assert.True(t, cfg.IsSet("o"))
	assert.True(t, cfg.IsSet("l"))
	assert.False(t, cfg.IsSet("missing"))
}

func TestConfig_CloneIsDeep(t *testing.T) {
	orig, err := ParseJSON([]byte(`{"tiles":{"backgroundColor":"black"},"list":[{"a":"b"}]}`))
	require.NoError(t, err)

	clone := orig.Clone()
	clone.Child("tiles").Set("backgroundColor", "white")
	list, _ := clone.Get("list")
	list.([]any)[0].(*Config).Set("a", "c")

	assert.Equal(t, `{"tiles":{"backgroundColor":"black"},"list":[{"a":"b"}]}`, orig.JSON())
}

func TestConfig_Merge(t *testing.T) {
	cfg := NewConfig()
	first, _ := ParseJSON([]byte(`{"backgroundColor":"gray","borderColor":"blue"}`))
	second, _ := ParseJSON([]byte(`{"backgroundColor":"black"}`))

	cfg.Merge("tiles", first)
	cfg.Merge("tiles", second)
	cfg.Merge("textPrimaryColor", "white")
	cfg.Merge("textPrimaryColor", "black")

	assert.Equal(t, `{"tiles":{"backgroundColor":"black","borderColor":"blue"},"textPrimaryColor":"black"}`, cfg.JSON())

	// The merged object is a copy.
	first.Set("extra", "x")
	assert.Nil(t, cfg.Child("tiles").Child("extra"))
	_, ok := cfg.Child("tiles").Get("extra")
	assert.False(t, ok)
}

func TestConfig_JSONRoundTripThroughStruct(t *testing.T) {
	type envelope struct {
		Name  string  `json:"name"`
		Theme *Config `json:"theme"`
	}
	var env envelope
	require.NoError(t, json.Unmarshal([]byte(`{"name":"dark","theme":{"b":"<1>","a":"&"}}`), &env))
	assert.Equal(t, []string{"b", "a"}, env.Theme.Keys())

	out, err := json.Marshal(env)
	require.NoError(t, err)
	assert.Equal(t, `{"name":"dark","theme":{"b":"\u003c1\u003e","a":"\u0026"}}`, string(out))

	// JSON leaves HTML characters alone.
	assert.Equal(t, `{"b":"<1>","a":"&"}`, env.Theme.JSON())
}

func TestParseYAML(t *testing.T) {
	doc := `
textPrimaryColor: white
tiles:
  backgroundColor: "#152E4d"
  borderColor: blue
infoCards:
  iconColors: [blue, red]
disableBreadcrumb: true
maxWidth: 1200
landingPageTitle: ~
`
	cfg, err := ParseYAML([]byte(doc))
	require.NoError(t, err)

	assert.Equal(t, []string{"textPrimaryColor", "tiles", "infoCards", "disableBreadcrumb", "maxWidth", "landingPageTitle"}, cfg.Keys())
	assert.Equal(t,
		`{"textPrimaryColor":"white","tiles":{"backgroundColor":"#152E4d","borderColor":"blue"},"infoCards":{"iconColors":["blue","red"]},"disableBreadcrumb":true,"maxWidth":1200,"landingPageTitle":null}`,
		cfg.JSON())
}

func TestParseYAML_RejectsSequenceDocument(t *testing.T) {
	_, err := ParseYAML([]byte("- a\n- b\n"))
	assert.Error(t, err)

	cfg, err := ParseYAML([]byte(""))
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.Len())
}
