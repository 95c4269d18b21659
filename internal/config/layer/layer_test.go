package layer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	l := New(SourceEnv, nil)

	assert.Equal(t, SourceEnv, l.Source)
	assert.NotNil(t, l.Data, "Data should be initialized")
}

func TestLayer_Clone(t *testing.T) {
	original := New(SourceFile, map[string]any{
		"log":   map[string]any{"level": "info"},
		"array": []any{"a", "b"},
	})
	original.Path = "/etc/picorope.toml"

	cloned := original.Clone()
	assert.Equal(t, original.Path, cloned.Path)
	assert.Equal(t, original.Source, cloned.Source)

	original.Data["log"].(map[string]any)["level"] = "debug"
	val, _ := GetByPath(cloned.Data, "log.level")
	assert.Equal(t, "info", val)
}

func TestSource_String(t *testing.T) {
	tests := []struct {
		source   Source
		expected string
	}{
		{SourceDefaults, "defaults"},
		{SourceFile, "file"},
		{SourceEnv, "environment"},
		{SourceFlags, "flags"},
		{Source(255), "unknown"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, tt.source.String())
	}
}

func TestMerge(t *testing.T) {
	defaults := New(SourceDefaults, map[string]any{
		"log":   map[string]any{"level": "info", "format": "console"},
		"bench": map[string]any{"n": 1000},
	})
	file := New(SourceFile, map[string]any{
		"log": map[string]any{"level": "debug"},
	})
	env := New(SourceEnv, map[string]any{
		"bench": map[string]any{"n": 10},
	})

	got := Merge(defaults, nil, file, env)
	assert.Equal(t, map[string]any{
		"log":   map[string]any{"level": "debug", "format": "console"},
		"bench": map[string]any{"n": 10},
	}, got)

	val, _ := GetByPath(defaults.Data, "log.level")
	assert.Equal(t, "info", val, "Merge modified its input")
}

func TestOrigin(t *testing.T) {
	defaults := New(SourceDefaults, map[string]any{"log": map[string]any{"level": "info", "format": "console"}})
	flags := New(SourceFlags, map[string]any{"log": map[string]any{"level": "warn"}})

	src, ok := Origin("log.level", defaults, flags)
	assert.True(t, ok)
	assert.Equal(t, SourceFlags, src)

	src, ok = Origin("log.format", defaults, flags)
	assert.True(t, ok)
	assert.Equal(t, SourceDefaults, src)

	_, ok = Origin("log.file", defaults, flags)
	assert.False(t, ok)
}
