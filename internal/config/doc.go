// Package config loads picorope settings.
//
// Settings come from four layers, lowest priority first:
//
//	┌─────────────────────────────┐
//	│  4. Overrides (CLI flags)   │  ← Highest priority
//	├─────────────────────────────┤
//	│  3. Environment Variables   │  ← PICOROPE_*
//	├─────────────────────────────┤
//	│  2. Config File             │  ← .toml, .json, .yaml
//	├─────────────────────────────┤
//	│  1. Built-in Defaults       │  ← Lowest priority
//	└─────────────────────────────┘
//
// The layers are deep-merged and decoded into a Config. Keys no field
// claims are kept in Config.Unknown rather than failing the load.
//
// # Basic Usage
//
//	cfg, err := config.Load(config.Options{Path: "picorope.toml"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, key := range cfg.Unknown {
//	    logger.Warn().Str("key", key).Msg("unknown setting")
//	}
//
// # Configuration Files
//
//	# picorope.toml
//	[log]
//	level = "debug"
//	format = "json"
//
//	[template]
//	missingKey = "error"
//
//	[script]
//	timeout = "2s"
//
// # Sub-packages
//
//   - loader: file parsing (TOML, JSON, YAML) and environment variables
//   - layer: layer merging and dot-path helpers
//   - watcher: change notification for config, template and data files
package config
