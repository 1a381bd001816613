package cli

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/matzehuels/trazo/internal/server"
	"github.com/matzehuels/trazo/pkg/events"
	"github.com/matzehuels/trazo/pkg/observability"
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Serve workspaces over HTTP. Generation, node edits and exports are
exposed per workspace under /workspaces/{id}; Prometheus metrics are served
at /metrics.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if addr == "" {
				addr = c.cfg.Server.Addr
			}

			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
			observability.NewPrometheus(reg).Install()
			defer observability.Reset()

			logEvents := events.Func(func(_ context.Context, e events.Event) {
				switch e.Name {
				case events.StageChanged:
					c.Logger.Debug("stage", "workspace", e.WorkspaceID, "job", e.JobID, "stage", e.Stage)
				case events.JobFailed:
					c.Logger.Warn("job failed", "workspace", e.WorkspaceID, "job", e.JobID, "code", e.Code, "reason", e.Reason)
				}
			})
			m, closeFn, err := c.openManager(ctx, logEvents)
			if err != nil {
				return err
			}
			defer closeFn()

			srv := server.New(m, server.Options{Gatherer: reg, Logger: c.Logger})
			return srv.ListenAndServe(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")
	return cmd
}
