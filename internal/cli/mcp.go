package cli

import (
	"github.com/spf13/cobra"

	mcpserver "github.com/matzehuels/trazo/internal/mcp"
)

// mcpCommand creates the mcp command.
func (c *CLI) mcpCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Run the MCP tool server on stdio",
		Long: `Run a Model Context Protocol server on stdin/stdout so assistants can
generate, edit and export diagrams. Logs go to stderr.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, closeFn, err := c.openManager(cmd.Context(), nil)
			if err != nil {
				return err
			}
			defer closeFn()

			c.Logger.Info("serving MCP on stdio")
			return mcpserver.New(m, c.Logger).ServeStdio()
		},
	}
}
