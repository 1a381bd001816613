package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/trazo/pkg/diagram"
	errs "github.com/matzehuels/trazo/pkg/errors"
	dio "github.com/matzehuels/trazo/pkg/io"
)

// showCommand creates the show command.
func (c *CLI) showCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the workspace's diagram",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ws, closeWS, err := c.openWorkspace(ctx, nil)
			if err != nil {
				return err
			}
			defer closeWS()

			d := ws.Diagram()
			if d == nil {
				return errs.New(errs.ErrCodeNotFound, "workspace %q has no diagram; run '%s generate' first", ws.ID(), appName)
			}
			if asJSON {
				return dio.WriteJSON(d, cmd.OutOrStdout())
			}
			renderDiagram(cmd.OutOrStdout(), d)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the diagram as JSON")
	return cmd
}

// renderDiagram writes a human-readable summary of d.
func renderDiagram(w io.Writer, d *diagram.Diagram) {
	title := d.Title
	if title == "" {
		title = "(untitled)"
	}
	fmt.Fprintln(w, StyleTitle.Render(title))
	fmt.Fprintln(w, StyleDim.Render(fmt.Sprintf("%s · %d nodes · %d edges · updated %s",
		d.Variant, d.NodeCount(), d.EdgeCount(), d.UpdatedAt.Local().Format("2006-01-02 15:04"))))
	fmt.Fprintln(w)

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	rows := [][]string{}
	for _, n := range d.Nodes() {
		label := n.Label
		if n.Edited {
			label += " *"
		}
		rows = append(rows, []string{
			n.ID,
			label,
			string(n.Kind),
			fmt.Sprintf("%.0f,%.0f", n.Position.X, n.Position.Y),
			string(n.Style.Shape),
			n.Style.Color,
		})
	}
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("ID", "Label", "Kind", "Position", "Shape", "Color").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if col == 0 {
				return lipgloss.NewStyle().Foreground(colorDim)
			}
			return lipgloss.NewStyle()
		})
	fmt.Fprintln(w, t.Render())

	if d.EdgeCount() > 0 {
		fmt.Fprintln(w)
		var b strings.Builder
		for _, e := range d.Edges() {
			fmt.Fprintf(&b, "  %s %s %s  %s\n", e.From, iconArrow, e.To, StyleDim.Render(string(e.Kind)))
		}
		fmt.Fprint(w, b.String())
	}
}
