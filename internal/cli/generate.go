package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/trazo/pkg/diagram"
	errs "github.com/matzehuels/trazo/pkg/errors"
	"github.com/matzehuels/trazo/pkg/events"
	"github.com/matzehuels/trazo/pkg/export"
	"github.com/matzehuels/trazo/pkg/pipeline"
)

// generateCommand creates the generate command.
func (c *CLI) generateCommand() *cobra.Command {
	var (
		text    string
		variant string
		output  string
	)

	cmd := &cobra.Command{
		Use:   "generate [file|-]",
		Short: "Generate a diagram from text",
		Long: `Generate a diagram from free-form text and make it the workspace's diagram.

Text is read from --text, the given file, or stdin. The variant is picked from
the text unless --variant names one (flow, cycle, infographic, mindmap, or a
menu label such as "Diagrama de Flujo").`,
		Example: `  trazo generate notes.txt
  echo "Planificación. Desarrollo. Lanzamiento." | trazo generate --variant flow
  trazo generate -w roadmap --text "Guerra Mundial" --variant infographic -o guerra.png`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := readText(cmd, text, args)
			if err != nil {
				return err
			}
			if _, err := diagram.ParseVariant(variant); err != nil {
				return err
			}
			return c.runGenerate(cmd.Context(), src, variant, output)
		},
	}

	cmd.Flags().StringVarP(&text, "text", "t", "", "text to convert (instead of a file)")
	cmd.Flags().StringVar(&variant, "variant", "auto", "diagram variant: auto, flow, cycle, infographic, mindmap")
	cmd.Flags().StringVarP(&output, "output", "o", "", "also export to this file (format from extension)")

	return cmd
}

func (c *CLI) runGenerate(ctx context.Context, text, variant, output string) error {
	spinner := newSpinnerWithContext(ctx, pipeline.StageAnalyzing.Label())
	emitter := events.Func(func(_ context.Context, e events.Event) {
		if e.Name == events.StageChanged {
			spinner.SetMessage(pipeline.Stage(e.Stage).Label())
		}
	})

	ws, closeWS, err := c.openWorkspace(ctx, emitter)
	if err != nil {
		return err
	}
	defer closeWS()
	ws.Store().SetEditorText(text)

	spinner.Start()
	job := ws.Start(ctx, text, variant)
	d, err := job.Wait(ctx)
	if err != nil {
		if ctx.Err() != nil {
			spinner.Stop()
			return ctx.Err()
		}
		spinner.StopWithError(errs.UserMessage(err))
		return err
	}
	spinner.StopWithSuccess(fmt.Sprintf("Generated diagram in workspace %s", StyleHighlight.Render(ws.ID())))
	printStats(string(d.Variant), d.NodeCount(), d.EdgeCount(), job.ReusedOutline())

	if output != "" {
		prog := newProgress(c.Logger)
		if err := ws.ExportFile(ctx, export.Options{}, output); err != nil {
			return err
		}
		prog.done("Exported diagram")
		printFile(output)
	}

	printNewline()
	printNextStep("Inspect it", fmt.Sprintf("%s show -w %s", appName, ws.ID()))
	return nil
}
