package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/dshills/picorope/internal/app"
)

func newRenderCmd(c *cli) *cobra.Command {
	var (
		wrap  string
		watch bool
	)

	cmd := &cobra.Command{
		Use:   "render TEMPLATE [DATA.json]",
		Short: "Render a template against JSON data",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			tmplPath, dataPath := args[0], ""
			if len(args) > 1 {
				dataPath = args[1]
			}

			render := func() error {
				out, err := c.app.Render(cmd.Context(), tmplPath, dataPath)
				if err != nil {
					return err
				}
				defer out.Release()

				w := cmd.OutOrStdout()
				if wrap != "" {
					doc, err := app.Wrap(wrap, out)
					if err != nil {
						return err
					}
					_, err = fmt.Fprintln(w, string(doc))
					return err
				}
				_, err = out.WriteTo(w)
				return err
			}

			if !watch {
				return render()
			}
			if err := render(); err != nil {
				log := c.app.Logger()
				log.Error().Err(err).Msg("render failed")
			}
			paths := []string{tmplPath}
			if dataPath != "" {
				paths = append(paths, dataPath)
			}
			return c.app.Watch(cmd.Context(), paths, func() error {
				_, _ = io.WriteString(cmd.OutOrStdout(), "\n")
				return render()
			})
		},
	}

	cmd.Flags().String("missing", "", "missing value policy: empty or error")
	cmd.Flags().StringVar(&wrap, "wrap", "", "emit a JSON object holding the output at this path")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "render again whenever the template or data changes")
	return cmd
}
