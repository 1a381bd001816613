// Package mcpserver exposes workspaces as Model Context Protocol tools so
// agents can generate, inspect, edit and export diagrams.
package mcpserver

import (
	"context"
	"encoding/json"
	"io"

	"github.com/charmbracelet/log"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/matzehuels/trazo/pkg/buildinfo"
	errs "github.com/matzehuels/trazo/pkg/errors"
	"github.com/matzehuels/trazo/pkg/workspace"
)

// DefaultWorkspace is used when a tool call names no workspace.
const DefaultWorkspace = "default"

// Server is the MCP server.
type Server struct {
	mcp     *server.MCPServer
	manager *workspace.Manager
	logger  *log.Logger
}

// New creates a server with every tool registered.
func New(m *workspace.Manager, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	s := &Server{manager: m, logger: logger}
	s.mcp = server.NewMCPServer(
		"trazo",
		buildinfo.Get().Version,
		server.WithToolCapabilities(true),
	)
	s.registerDiagramTools()
	return s
}

// MCP returns the underlying MCP server.
func (s *Server) MCP() *server.MCPServer { return s.mcp }

// ServeStdio serves on stdin/stdout until the client disconnects.
func (s *Server) ServeStdio() error {
	s.logger.Info("starting MCP stdio server")
	return server.ServeStdio(s.mcp)
}

// ── Helpers ────────────────────────────────────────────────

func (s *Server) workspace(ctx context.Context, req mcp.CallToolRequest) (*workspace.Workspace, error) {
	return s.manager.Open(ctx, req.GetString("workspace", DefaultWorkspace))
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

// jsonResult serializes v to JSON and wraps it in a text tool result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return textResult(string(data)), nil
}

// errorResult reports coded errors to the agent as tool errors; anything
// else fails the call.
func errorResult(err error) (*mcp.CallToolResult, error) {
	if errs.GetCode(err) == "" {
		return nil, err
	}
	return mcp.NewToolResultError(string(errs.GetCode(err)) + ": " + errs.UserMessage(err)), nil
}
