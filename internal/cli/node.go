package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/matzehuels/trazo/pkg/diagram"
	errs "github.com/matzehuels/trazo/pkg/errors"
)

// moveCommand creates the move command.
func (c *CLI) moveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "move <node> <x> <y>",
		Short: "Move a node to new canvas coordinates",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			x, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return errs.Wrap(errs.ErrCodeInvalidInput, err, "invalid x %q", args[1])
			}
			y, err := strconv.ParseFloat(args[2], 64)
			if err != nil {
				return errs.Wrap(errs.ErrCodeInvalidInput, err, "invalid y %q", args[2])
			}
			p := diagram.Point{X: x, Y: y}
			if !p.Finite() {
				return errs.New(errs.ErrCodeInvalidInput, "position must be finite")
			}

			ws, closeWS, err := c.openWorkspace(cmd.Context(), nil)
			if err != nil {
				return err
			}
			defer closeWS()

			if !ws.MoveNode(args[0], p) {
				return errs.New(errs.ErrCodeNotFound, "node %q not found", args[0])
			}
			printSuccess("Moved %s to (%s, %s)", StyleHighlight.Render(args[0]), args[1], args[2])
			return nil
		},
	}
}

// editCommand creates the edit command.
func (c *CLI) editCommand() *cobra.Command {
	var label, color, shape string

	cmd := &cobra.Command{
		Use:   "edit <node>",
		Short: "Change a node's label, color or shape",
		Example: `  trazo edit n-3f2a --label "Plan"
  trazo edit n-3f2a --color "#FDE68A" --shape diamond`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var patch diagram.NodePatch
			if cmd.Flags().Changed("label") {
				patch.Label = diagram.StringPtr(label)
			}
			if color != "" {
				if !diagram.ValidColor(color) {
					return errs.New(errs.ErrCodeInvalidInput, "color %q is not #RRGGBB", color)
				}
				patch.Color = diagram.StringPtr(color)
			}
			if shape != "" {
				s := diagram.Shape(shape)
				if !s.Valid() {
					return errs.New(errs.ErrCodeInvalidInput, "unknown shape %q", shape)
				}
				patch.Shape = diagram.ShapePtr(s)
			}
			if patch.Sanitize().Empty() {
				return errs.New(errs.ErrCodeInvalidInput, "nothing to change: pass --label, --color or --shape")
			}

			ws, closeWS, err := c.openWorkspace(cmd.Context(), nil)
			if err != nil {
				return err
			}
			defer closeWS()

			if !ws.EditNode(args[0], patch) {
				return errs.New(errs.ErrCodeNotFound, "node %q not found", args[0])
			}
			n, _ := ws.Diagram().Node(args[0])
			printSuccess("Updated %s", StyleHighlight.Render(args[0]))
			printKeyValue("label", n.Label)
			printKeyValue("style", fmt.Sprintf("%s %s", n.Style.Shape, n.Style.Color))
			return nil
		},
	}

	cmd.Flags().StringVar(&label, "label", "", "new label")
	cmd.Flags().StringVar(&color, "color", "", "fill color as #RRGGBB")
	cmd.Flags().StringVar(&shape, "shape", "", "shape: rectangle, circle, ellipse, diamond")
	return cmd
}

// styleCommand creates the style command, which switches the diagram's
// variant while keeping node identities and user edits.
func (c *CLI) styleCommand() *cobra.Command {
	return &cobra.Command{
		Use:       "style <variant>",
		Short:     "Switch the diagram to another variant",
		ValidArgs: []string{"flow", "cycle", "infographic", "mindmap", "auto"},
		Args:      cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := diagram.ParseVariant(args[0]); err != nil {
				return err
			}
			ctx := cmd.Context()
			ws, closeWS, err := c.openWorkspace(ctx, nil)
			if err != nil {
				return err
			}
			defer closeWS()

			d, err := ws.Restyle(ctx, args[0])
			if err != nil {
				return err
			}
			printSuccess("Switched workspace %s to %s", StyleHighlight.Render(ws.ID()), d.Variant)
			printStats(string(d.Variant), d.NodeCount(), d.EdgeCount(), true)
			return nil
		},
	}
}
