package main

import (
	"github.com/spf13/cobra"

	"github.com/dshills/picorope/internal/app"
)

func newScriptCmd(c *cli) *cobra.Command {
	var (
		opts app.ScriptOptions
		sets []string
	)

	cmd := &cobra.Command{
		Use:   "script FILE.lua [ARG...]",
		Short: "Run a Lua generator and print the rope it returns",
		Long: `Run a Lua generator and print the rope it returns.

With --call the script is run for its definitions and the named global
function is called with ARGs; its return values become the output. Values
given to --set and ARGs are read as JSON when they parse, as strings
otherwise.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(sets) > 0 {
				opts.Globals = make(map[string]any, len(sets))
			}
			for _, s := range sets {
				name, v, err := app.ParseSetting(s)
				if err != nil {
					return err
				}
				opts.Globals[name] = v
			}
			for _, arg := range args[1:] {
				opts.Args = append(opts.Args, app.ParseValue(arg))
			}

			out, err := c.app.RunScript(cmd.Context(), args[0], opts)
			if err != nil {
				return err
			}
			defer out.Release()

			_, err = out.WriteTo(cmd.OutOrStdout())
			return err
		},
	}

	cmd.Flags().StringVarP(&opts.DataPath, "data", "d", "", "JSON file exposed to the script as data")
	cmd.Flags().StringArrayVar(&sets, "set", nil, "set a global before the script runs (name=value, repeatable)")
	cmd.Flags().StringVar(&opts.Call, "call", "", "global function to call after the script has run")
	return cmd
}
