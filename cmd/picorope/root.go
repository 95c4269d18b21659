package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/dshills/picorope/internal/app"
	"github.com/dshills/picorope/internal/config"
)

// cli holds state shared by the subcommands of one invocation.
type cli struct {
	configPath string
	logLevel   string
	logFormat  string

	cfg *config.Config
	app *app.App
}

// flagOverrides maps command flags onto the settings they override.
var flagOverrides = map[string]string{
	"log-level":  "log.level",
	"log-format": "log.format",
	"missing":    "template.missingKey",
	"n":          "bench.n",
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:           "picorope",
		Short:         "Build text from shared immutable ropes",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if c.app == nil {
				return nil
			}
			return c.app.Close()
		},
	}

	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", os.Getenv(config.ConfigEnv), "configuration file (.toml, .json, .yaml)")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "log level: debug, info, warn, error")
	root.PersistentFlags().StringVar(&c.logFormat, "log-format", "", "log format: auto, console, json")

	root.AddCommand(
		newRenderCmd(c),
		newScriptCmd(c),
		newInspectCmd(c),
		newBenchCmd(c),
		newConfigCmd(c),
		newVersionCmd(),
	)
	return root
}

// setup loads the configuration, applying the flags the user set, and
// creates the App.
func (c *cli) setup(cmd *cobra.Command) error {
	overrides := make(map[string]any)
	for name, path := range flagOverrides {
		f := cmd.Flags().Lookup(name)
		if f != nil && f.Changed {
			overrides[path] = f.Value.String()
		}
	}

	cfg, err := config.Load(config.Options{Path: c.configPath, Overrides: overrides})
	if err != nil {
		return err
	}
	c.cfg = cfg

	c.app, err = app.New(cfg, app.WithStderr(cmd.ErrOrStderr()))
	return err
}
