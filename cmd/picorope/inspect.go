package main

import (
	"github.com/spf13/cobra"

	"github.com/dshills/picorope/internal/app"
)

func newInspectCmd(c *cli) *cobra.Command {
	var (
		split int
		opts  app.InspectOptions
	)

	cmd := &cobra.Command{
		Use:   "inspect FILE",
		Short: "Show the tree of a rope built from a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.app.InspectFile(args[0], split, cmd.OutOrStdout(), opts)
		},
	}

	cmd.Flags().IntVar(&split, "split", 64, "bytes per appended leaf")
	cmd.Flags().BoolVar(&opts.JSON, "json", false, "print a JSON summary instead of the tree")
	cmd.Flags().BoolVar(&opts.Color, "color", false, "colorize the JSON summary")
	cmd.Flags().IntVar(&opts.PreviewWidth, "preview", app.DefaultPreviewWidth, "grapheme clusters shown per leaf")
	return cmd
}
