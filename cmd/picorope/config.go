package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newConfigCmd(c *cli) *cobra.Command {
	var origin bool

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			settings := c.cfg.Settings()
			for _, key := range c.cfg.SortedKeys() {
				if !origin {
					fmt.Fprintf(w, "%s = %v\n", key, settings[key])
					continue
				}
				src, _ := c.cfg.Origin(key)
				fmt.Fprintf(w, "%s = %v  # %s\n", key, settings[key], src)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&origin, "origin", false, "show which layer set each value")
	return cmd
}
