package cli

import (
	"path/filepath"

	"github.com/spf13/cobra"

	errs "github.com/matzehuels/trazo/pkg/errors"
	"github.com/matzehuels/trazo/pkg/export"
)

// exportCommand creates the export command.
func (c *CLI) exportCommand() *cobra.Command {
	var (
		format string
		scale  float64
		stdout bool
	)

	cmd := &cobra.Command{
		Use:   "export [path]",
		Short: "Export the diagram as PNG, SVG, DOT or JSON",
		Long: `Export the workspace's diagram. The format is taken from the path's
extension unless --format is given. An empty workspace exports a blank canvas.`,
		Example: `  trazo export diagram.png --scale 2
  trazo export --format svg --stdout > diagram.svg`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && !stdout {
				return errs.New(errs.ErrCodeInvalidInput, "give a path or --stdout")
			}
			opts := export.Options{Scale: scale}
			switch {
			case format != "":
				f, err := export.ParseFormat(format)
				if err != nil {
					return err
				}
				opts.Format = f
			case len(args) == 1:
				f, err := export.ParseFormat(filepath.Ext(args[0]))
				if err != nil {
					return err
				}
				opts.Format = f
			}

			ctx := cmd.Context()
			ws, closeWS, err := c.openWorkspace(ctx, nil)
			if err != nil {
				return err
			}
			defer closeWS()

			prog := newProgress(c.Logger)
			if stdout {
				data, err := ws.Export(ctx, opts)
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}

			path := args[0]
			if format != "" && filepath.Ext(path) == "" {
				path += "." + string(opts.Format)
			}
			if err := ws.ExportFile(ctx, opts, path); err != nil {
				return err
			}
			prog.done("Exported diagram")
			printSuccess("Exported workspace %s", StyleHighlight.Render(ws.ID()))
			printFile(path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "", "output format: png, svg, dot, json")
	cmd.Flags().Float64Var(&scale, "scale", 1, "raster scale factor (png only, max 4)")
	cmd.Flags().BoolVar(&stdout, "stdout", false, "write to stdout instead of a file")
	return cmd
}
