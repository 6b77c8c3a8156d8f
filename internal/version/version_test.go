package version

import (
	"encoding/json"
	"runtime"
	"runtime/debug"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetInfo(t *testing.T) {
	info := GetInfo()

	assert.Equal(t, Version, info.Version)
	assert.Equal(t, runtime.Version(), info.GoVersion)
	assert.Equal(t, runtime.GOOS+"/"+runtime.GOARCH, info.Platform())
}

func TestApplyBuildSettings(t *testing.T) {
	settings := []debug.BuildSetting{
		{Key: "vcs.revision", Value: "0123456789abcdef"},
		{Key: "vcs.time", Value: "2024-05-01T10:00:00Z"},
		{Key: "vcs.modified", Value: "true"},
	}

	t.Run("fills unknown fields", func(t *testing.T) {
		info := Info{Version: "dev", Commit: "unknown", Date: "unknown"}
		applyBuildSettings(&info, settings)
		assert.Equal(t, "0123456789abcdef", info.Commit)
		assert.Equal(t, "2024-05-01T10:00:00Z", info.Date)
		assert.True(t, info.Modified)
	})

	t.Run("ldflags win", func(t *testing.T) {
		info := Info{Commit: "fedcba9876543210", Date: "2025-01-01T00:00:00Z"}
		applyBuildSettings(&info, settings)
		assert.Equal(t, "fedcba9876543210", info.Commit)
		assert.Equal(t, "2025-01-01T00:00:00Z", info.Date)
	})
}

func TestInfo_ShortCommit(t *testing.T) {
	tests := []struct {
		name string
		info Info
		want string
	}{
		{"unknown", Info{Commit: "unknown"}, ""},
		{"too short", Info{Commit: "abc"}, ""},
		{"clean", Info{Commit: "0123456789abcdef"}, "01234567"},
		{"modified", Info{Commit: "0123456789abcdef", Modified: true}, "01234567*"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.info.ShortCommit())
		})
	}
}

func TestInfo_String(t *testing.T) {
	info := Info{Version: "1.2.0", Commit: "unknown", GoVersion: "go1.25.4", OS: "linux", Arch: "amd64"}
	assert.Equal(t, "skilltheme version 1.2.0 (go1.25.4, linux/amd64)", info.String())

	info.Commit = "0123456789abcdef"
	info.Date = "2024-05-01T10:00:00Z"
	assert.Equal(t,
		"skilltheme version 1.2.0 (commit: 01234567, built: 2024-05-01T10:00:00Z, go1.25.4, linux/amd64)",
		info.String())
}

func TestJSON(t *testing.T) {
	var decoded Info
	require.NoError(t, json.Unmarshal([]byte(JSON()), &decoded))
	assert.Equal(t, Version, decoded.Version)
	assert.Equal(t, runtime.GOOS, decoded.OS)
}

func TestShort(t *testing.T) {
	assert.Contains(t, Short(), Version)
}
