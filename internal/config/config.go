package config

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"

	"github.com/dshills/picorope/internal/config/layer"
	"github.com/dshills/picorope/internal/config/loader"
	"github.com/dshills/picorope/internal/engine/template"
)

// ConfigEnv names the variable holding the config file path. It is not a
// setting and the env layer skips it.
const ConfigEnv = loader.DefaultPrefix + "CONFIG"

// Config is the effective picorope configuration.
type Config struct {
	Log      LogConfig      `mapstructure:"log"`
	Template TemplateConfig `mapstructure:"template"`
	Script   ScriptConfig   `mapstructure:"script"`
	Bench    BenchConfig    `mapstructure:"bench"`

	// Unknown lists dot-separated keys that no field claims, sorted.
	Unknown []string `mapstructure:"-"`

	layers []*layer.Layer
	merged map[string]any
}

// LogConfig controls the logger.
type LogConfig struct {
	// Level is one of "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`

	// Format is "console", "json" or "auto" (console on a terminal).
	Format string `mapstructure:"format"`

	// File is the log file path. Empty logs to stderr.
	File string `mapstructure:"file"`

	MaxSizeMB  int  `mapstructure:"maxSizeMB"`
	MaxBackups int  `mapstructure:"maxBackups"`
	MaxAgeDays int  `mapstructure:"maxAgeDays"`
	Compress   bool `mapstructure:"compress"`
}

// TemplateConfig holds template compile options.
type TemplateConfig struct {
	LeftDelim  string `mapstructure:"leftDelim"`
	RightDelim string `mapstructure:"rightDelim"`

	// MissingKey is "empty" or "error".
	MissingKey string `mapstructure:"missingKey"`
}

// Options converts the settings into template options.
func (c TemplateConfig) Options() ([]template.Option, error) {
	missing, err := template.ParseMissingKey(c.MissingKey)
	if err != nil {
		return nil, err
	}
	return []template.Option{
		template.WithDelims(c.LeftDelim, c.RightDelim),
		template.WithMissingKey(missing),
	}, nil
}

// ScriptConfig holds Lua script settings.
type ScriptConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

// BenchConfig holds benchmark settings.
type BenchConfig struct {
	// N is the number of appends in the benchmark chain.
	N int `mapstructure:"n"`
}

var (
	logLevels  = []string{"debug", "info", "warn", "error"}
	logFormats = []string{"auto", "console", "json"}
)

// defaults returns the built-in layer data.
func defaults() map[string]any {
	return map[string]any{
		"log": map[string]any{
			"level":      "info",
			"format":     "auto",
			"file":       "",
			"maxSizeMB":  10,
			"maxBackups": 3,
			"maxAgeDays": 28,
			"compress":   false,
		},
		"template": map[string]any{
			"leftDelim":  template.DefaultLeftDelim,
			"rightDelim": template.DefaultRightDelim,
			"missingKey": "empty",
		},
		"script": map[string]any{
			"timeout": "5s",
		},
		"bench": map[string]any{
			"n": 100000,
		},
	}
}

// Default returns the built-in configuration.
func Default() *Config {
	cfg, err := build([]*layer.Layer{layer.New(layer.SourceDefaults, defaults())})
	if err != nil {
		panic(fmt.Sprintf("config: invalid defaults: %v", err))
	}
	return cfg
}

// Options selects the sources Load reads.
type Options struct {
	// Path is the config file. Empty means no file layer.
	Path string

	// FS reads the config file. Nil uses the OS file system.
	FS loader.FileSystem

	// SkipEnv disables the environment layer.
	SkipEnv bool

	// Overrides are dot-separated keys applied last, typically from flags.
	Overrides map[string]any
}

// Load reads, merges, decodes and validates the configuration.
func Load(opts Options) (*Config, error) {
	layers := []*layer.Layer{layer.New(layer.SourceDefaults, defaults())}

	if opts.Path != "" {
		fsys := opts.FS
		if fsys == nil {
			fsys = loader.DefaultFS()
		}
		data, err := loader.NewFileLoaderWithFS(fsys, opts.Path).Load()
		if err != nil {
			return nil, err
		}
		if data != nil {
			l := layer.New(layer.SourceFile, data)
			l.Path = opts.Path
			layers = append(layers, l)
		}
	}

	if !opts.SkipEnv {
		env := loader.NewEnvLoader(loader.DefaultPrefix)
		env.Ignore(ConfigEnv)
		data, err := env.Load()
		if err != nil {
			return nil, fmt.Errorf("loading environment: %w", err)
		}
		if len(data) > 0 {
			layers = append(layers, layer.New(layer.SourceEnv, data))
		}
	}

	if len(opts.Overrides) > 0 {
		data := make(map[string]any)
		for path, val := range opts.Overrides {
			layer.SetByPath(data, path, val)
		}
		layers = append(layers, layer.New(layer.SourceFlags, data))
	}

	cfg, err := build(layers)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func build(layers []*layer.Layer) (*Config, error) {
	cfg := &Config{
		layers: layers,
		merged: layer.Merge(layers...),
	}

	var md mapstructure.Metadata
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		WeaklyTypedInput: true,
		Metadata:         &md,
		Result:           cfg,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(cfg.merged); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	cfg.Unknown = md.Unused
	sort.Strings(cfg.Unknown)
	return cfg, nil
}

// Validate checks every setting and joins all failures.
func (c *Config) Validate() error {
	var errs []error
	fail := func(path, msg string, val any) {
		errs = append(errs, &ValidationError{Path: path, Message: msg, Value: val})
	}

	if !slices.Contains(logLevels, strings.ToLower(c.Log.Level)) {
		fail("log.level", "must be one of "+strings.Join(logLevels, ", "), c.Log.Level)
	}
	if !slices.Contains(logFormats, strings.ToLower(c.Log.Format)) {
		fail("log.format", "must be one of "+strings.Join(logFormats, ", "), c.Log.Format)
	}
	if c.Log.MaxSizeMB <= 0 {
		fail("log.maxSizeMB", "must be positive", c.Log.MaxSizeMB)
	}
	if c.Log.MaxBackups < 0 {
		fail("log.maxBackups", "must not be negative", c.Log.MaxBackups)
	}
	if c.Log.MaxAgeDays < 0 {
		fail("log.maxAgeDays", "must not be negative", c.Log.MaxAgeDays)
	}

	if c.Template.LeftDelim == "" {
		fail("template.leftDelim", "must not be empty", c.Template.LeftDelim)
	}
	if c.Template.RightDelim == "" {
		fail("template.rightDelim", "must not be empty", c.Template.RightDelim)
	}
	if _, err := template.ParseMissingKey(c.Template.MissingKey); err != nil {
		fail("template.missingKey", "must be empty or error", c.Template.MissingKey)
	}

	if c.Script.Timeout <= 0 {
		fail("script.timeout", "must be positive", c.Script.Timeout)
	}
	if c.Bench.N <= 0 {
		fail("bench.n", "must be positive", c.Bench.N)
	}

	return errors.Join(errs...)
}

// Settings returns the merged configuration flattened to dot-separated keys.
func (c *Config) Settings() map[string]any {
	return layer.FlattenMap(c.merged)
}

// SortedKeys returns the keys of Settings in order.
func (c *Config) SortedKeys() []string {
	settings := c.Settings()
	keys := make([]string, 0, len(settings))
	for k := range settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Origin reports which layer supplied the value at path.
func (c *Config) Origin(path string) (layer.Source, bool) {
	return layer.Origin(path, c.layers...)
}

// FilePath returns the config file that contributed a layer, if any.
func (c *Config) FilePath() string {
	for _, l := range c.layers {
		if l.Source == layer.SourceFile {
			return l.Path
		}
	}
	return ""
}
