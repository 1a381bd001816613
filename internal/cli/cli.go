// Package cli implements the trazo command-line interface.
//
// # Commands
//
//   - generate: turn text into a diagram in a workspace
//   - show: print the workspace's diagram
//   - move, edit: change a node's position, label or style
//   - style: switch the diagram to another variant
//   - export: write the diagram as PNG, SVG, DOT or JSON
//   - watch: regenerate whenever a text file changes
//   - serve: run the HTTP API
//   - mcp: run the MCP tool server on stdio
//   - cache: manage the stage cache
//
// All commands accept --verbose (-v), --config and --workspace (-w).
package cli

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/trazo/internal/config"
	"github.com/matzehuels/trazo/pkg/buildinfo"
	"github.com/matzehuels/trazo/pkg/cache"
	errs "github.com/matzehuels/trazo/pkg/errors"
	"github.com/matzehuels/trazo/pkg/events"
	"github.com/matzehuels/trazo/pkg/workspace"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for display.
	appName = "trazo"

	// defaultWorkspace is used when --workspace is not given.
	defaultWorkspace = "default"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
	LogError = log.ErrorLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	workspace  string
	noCache    bool
	cfg        config.Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           appName,
		Short:         "Trazo turns text into auto-laid-out diagrams",
		Long:          `Trazo converts free-form text into flow, cycle, infographic and mindmap diagrams, keeps them editable per workspace, and exports them as images.`,
		Version:       buildinfo.Get().Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.loadConfig()
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/trazo/config.toml)")
	root.PersistentFlags().StringVarP(&c.workspace, "workspace", "w", defaultWorkspace, "workspace ID")
	root.PersistentFlags().BoolVar(&c.noCache, "no-cache", false, "disable the stage cache")

	root.AddCommand(c.generateCommand())
	root.AddCommand(c.showCommand())
	root.AddCommand(c.moveCommand())
	root.AddCommand(c.editCommand())
	root.AddCommand(c.styleCommand())
	root.AddCommand(c.exportCommand())
	root.AddCommand(c.watchCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.mcpCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

func (c *CLI) loadConfig() error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	c.cfg = cfg
	c.Logger.Debug("loaded config", "store", cfg.Store.Backend, "cache", cfg.Cache.Backend)
	return nil
}

// =============================================================================
// Manager Factory
// =============================================================================

// openManager opens the configured blob store and cache and returns a
// workspace manager over them. The returned func flushes and closes both.
func (c *CLI) openManager(ctx context.Context, emitter events.Emitter) (*workspace.Manager, func(), error) {
	blobs, err := c.cfg.OpenBlobs(ctx)
	if err != nil {
		return nil, nil, errs.Wrap(errs.ErrCodePersistence, err, "open %s store", c.cfg.Store.Backend)
	}
	stageCache := cache.NewNullCache()
	if !c.noCache {
		if stageCache, err = c.cfg.OpenCache(ctx); err != nil {
			c.Logger.Warn("cache unavailable, continuing without", "err", err)
			stageCache = cache.NewNullCache()
		}
	}

	m := workspace.NewManager(workspace.Options{
		Blobs:    blobs,
		Store:    c.cfg.StoreOptions(),
		Pipeline: c.cfg.PipelineOptions(),
		Cache:    stageCache,
		Emitter:  emitter,
		Logger:   c.Logger,
	})
	closeFn := func() {
		if err := m.Close(context.WithoutCancel(ctx)); err != nil {
			c.Logger.Error("closing workspaces", "err", err)
		}
		stageCache.Close()
	}
	return m, closeFn, nil
}

// openWorkspace opens the --workspace workspace. Callers must call the
// returned func when done.
func (c *CLI) openWorkspace(ctx context.Context, emitter events.Emitter) (*workspace.Workspace, func(), error) {
	m, closeFn, err := c.openManager(ctx, emitter)
	if err != nil {
		return nil, nil, err
	}
	ws, err := m.Open(ctx, c.workspace)
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	return ws, closeFn, nil
}

// =============================================================================
// Input Helpers
// =============================================================================

// readText returns the --text flag, the contents of the file argument, or
// stdin when the argument is "-" or absent.
func readText(cmd *cobra.Command, text string, args []string) (string, error) {
	if text != "" {
		return text, nil
	}
	var (
		data []byte
		err  error
	)
	if len(args) == 0 || args[0] == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(args[0])
	}
	if err != nil {
		return "", errs.Wrap(errs.ErrCodeInvalidInput, err, "read input")
	}
	return strings.TrimRight(string(data), "\n"), nil
}
