package config

import (
	"errors"
	"io/fs"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/picorope/internal/config/layer"
	"github.com/dshills/picorope/internal/config/loader"
	"github.com/dshills/picorope/internal/engine/template"
)

type memFS map[string]string

func (m memFS) ReadFile(path string) ([]byte, error) {
	data, ok := m[path]
	if !ok {
		return nil, fs.ErrNotExist
	}
	return []byte(data), nil
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "auto", cfg.Log.Format)
	assert.Equal(t, 10, cfg.Log.MaxSizeMB)
	assert.Equal(t, template.DefaultLeftDelim, cfg.Template.LeftDelim)
	assert.Equal(t, template.DefaultRightDelim, cfg.Template.RightDelim)
	assert.Equal(t, "empty", cfg.Template.MissingKey)
	assert.Equal(t, 5*time.Second, cfg.Script.Timeout)
	assert.Equal(t, 100000, cfg.Bench.N)
	assert.Empty(t, cfg.Unknown)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_File(t *testing.T) {
	fsys := memFS{
		"/picorope.toml": `
[log]
level = "debug"
format = "json"

[template]
missingKey = "error"

[script]
timeout = "250ms"
`,
	}

	cfg, err := Load(Options{Path: "/picorope.toml", FS: fsys, SkipEnv: true})
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "error", cfg.Template.MissingKey)
	assert.Equal(t, 250*time.Millisecond, cfg.Script.Timeout)
	assert.Equal(t, 100000, cfg.Bench.N, "unset keys keep their defaults")
	assert.Equal(t, "/picorope.toml", cfg.FilePath())
}

func TestLoad_FormatsAgree(t *testing.T) {
	fsys := memFS{
		"/c.toml": "[bench]\nn = 7\n",
		"/c.json": `{"bench":{"n":7}}`,
		"/c.yaml": "bench:\n  n: 7\n",
	}

	for path := range fsys {
		t.Run(path, func(t *testing.T) {
			cfg, err := Load(Options{Path: path, FS: fsys, SkipEnv: true})
			require.NoError(t, err)
			assert.Equal(t, 7, cfg.Bench.N)
		})
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(Options{Path: "/absent.toml", FS: memFS{}, SkipEnv: true})
	require.NoError(t, err)

	assert.Equal(t, Default().Log, cfg.Log)
	assert.Empty(t, cfg.FilePath())
}

func TestLoad_ParseError(t *testing.T) {
	_, err := Load(Options{Path: "/bad.json", FS: memFS{"/bad.json": `{"log":`}, SkipEnv: true})

	var perr *loader.ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "/bad.json", perr.Path)
}

func TestLoad_Precedence(t *testing.T) {
	fsys := memFS{"/c.toml": "[bench]\nn = 1\n\n[log]\nlevel = \"warn\"\nformat = \"json\"\n"}
	t.Setenv("PICOROPE_BENCH_N", "42")
	t.Setenv("PICOROPE_LOG_LEVEL", "error")

	cfg, err := Load(Options{
		Path:      "/c.toml",
		FS:        fsys,
		Overrides: map[string]any{"log.level": "debug"},
	})
	require.NoError(t, err)

	assert.Equal(t, 42, cfg.Bench.N, "environment overrides the file")
	assert.Equal(t, "debug", cfg.Log.Level, "overrides win over the environment")
	assert.Equal(t, "json", cfg.Log.Format, "file overrides defaults")

	tests := []struct {
		path string
		want layer.Source
	}{
		{"bench.n", layer.SourceEnv},
		{"log.level", layer.SourceFlags},
		{"log.format", layer.SourceFile},
		{"log.maxSizeMB", layer.SourceDefaults},
	}
	for _, tt := range tests {
		src, ok := cfg.Origin(tt.path)
		assert.True(t, ok, tt.path)
		assert.Equal(t, tt.want, src, tt.path)
	}
}

func TestLoad_ConfigEnvIsNotASetting(t *testing.T) {
	t.Setenv(ConfigEnv, "/somewhere/picorope.toml")

	cfg, err := Load(Options{})
	require.NoError(t, err)
	assert.NotContains(t, cfg.Unknown, "config")
}

func TestLoad_UnknownKeys(t *testing.T) {
	fsys := memFS{"/c.json": `{"log":{"level":"info","colour":true},"extra":1}`}

	cfg, err := Load(Options{Path: "/c.json", FS: fsys, SkipEnv: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"extra", "log.colour"}, cfg.Unknown)
}

func TestLoad_WeakTyping(t *testing.T) {
	cfg, err := Load(Options{
		SkipEnv: true,
		Overrides: map[string]any{
			"bench.n":        "12",
			"log.compress":   "true",
			"script.timeout": "1m",
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 12, cfg.Bench.N)
	assert.True(t, cfg.Log.Compress)
	assert.Equal(t, time.Minute, cfg.Script.Timeout)
}

func TestLoad_DecodeError(t *testing.T) {
	_, err := Load(Options{SkipEnv: true, Overrides: map[string]any{"bench.n": "many"}})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		path   string
	}{
		{"log level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"log format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
		{"log size", func(c *Config) { c.Log.MaxSizeMB = 0 }, "log.maxSizeMB"},
		{"log backups", func(c *Config) { c.Log.MaxBackups = -1 }, "log.maxBackups"},
		{"log age", func(c *Config) { c.Log.MaxAgeDays = -1 }, "log.maxAgeDays"},
		{"left delim", func(c *Config) { c.Template.LeftDelim = "" }, "template.leftDelim"},
		{"right delim", func(c *Config) { c.Template.RightDelim = "" }, "template.rightDelim"},
		{"missing key", func(c *Config) { c.Template.MissingKey = "zero" }, "template.missingKey"},
		{"timeout", func(c *Config) { c.Script.Timeout = 0 }, "script.timeout"},
		{"bench n", func(c *Config) { c.Bench.N = -5 }, "bench.n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			require.ErrorIs(t, err, ErrInvalidConfig)

			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.path, verr.Path)
		})
	}
}

func TestValidate_JoinsErrors(t *testing.T) {
	cfg := Default()
	cfg.Log.Level = "loud"
	cfg.Bench.N = 0

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log.level")
	assert.Contains(t, err.Error(), "bench.n")
}

func TestLoad_RejectsInvalid(t *testing.T) {
	_, err := Load(Options{SkipEnv: true, Overrides: map[string]any{"log.level": "loud"}})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestSettings(t *testing.T) {
	cfg, err := Load(Options{SkipEnv: true, Overrides: map[string]any{"template.leftDelim": "<%"}})
	require.NoError(t, err)

	settings := cfg.Settings()
	assert.Equal(t, "<%", settings["template.leftDelim"])
	assert.Equal(t, "info", settings["log.level"])

	keys := cfg.SortedKeys()
	assert.Len(t, keys, len(settings))
	assert.IsIncreasing(t, keys)
	assert.Contains(t, keys, "script.timeout")
}

func TestTemplateOptions(t *testing.T) {
	cfg := Default()
	cfg.Template.LeftDelim = "<<"
	cfg.Template.RightDelim = ">>"
	cfg.Template.MissingKey = "error"

	opts, err := cfg.Template.Options()
	require.NoError(t, err)

	tmpl, err := template.Compile("a<<x>>b", opts...)
	require.NoError(t, err)
	defer tmpl.Release()

	_, err = tmpl.Render([]byte(`{}`))
	assert.ErrorIs(t, err, template.ErrMissingValue)

	cfg.Template.MissingKey = "zero"
	_, err = cfg.Template.Options()
	assert.Error(t, err)
}
