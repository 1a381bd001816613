package mcpserver

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/matzehuels/trazo/pkg/diagram"
	errs "github.com/matzehuels/trazo/pkg/errors"
	"github.com/matzehuels/trazo/pkg/export"
	dio "github.com/matzehuels/trazo/pkg/io"
)

func (s *Server) registerDiagramTools() {
	workspaceArg := mcp.WithString("workspace", mcp.Description("Workspace ID (optional, defaults to \"default\")"))

	s.mcp.AddTool(mcp.NewTool("generate_diagram",
		mcp.WithDescription("Generate a diagram from free-form text. Replaces the workspace's diagram; nodes of unchanged items keep their IDs, edited labels and styles."),
		workspaceArg,
		mcp.WithString("text", mcp.Description("Source text, e.g. one step per sentence or line"), mcp.Required()),
		mcp.WithString("variant", mcp.Description("flow, cycle, infographic, mindmap or auto (default)")),
	), s.handleGenerateDiagram)

	s.mcp.AddTool(mcp.NewTool("get_diagram",
		mcp.WithDescription("Return the workspace's diagram as JSON: nodes with positions, sizes and styles, plus edges"),
		workspaceArg,
	), s.handleGetDiagram)

	s.mcp.AddTool(mcp.NewTool("move_node",
		mcp.WithDescription("Move a node to new canvas coordinates (top-left corner)"),
		workspaceArg,
		mcp.WithString("nodeId", mcp.Description("Node ID"), mcp.Required()),
		mcp.WithNumber("x", mcp.Description("New X position"), mcp.Required()),
		mcp.WithNumber("y", mcp.Description("New Y position"), mcp.Required()),
	), s.handleMoveNode)

	s.mcp.AddTool(mcp.NewTool("edit_node",
		mcp.WithDescription("Change a node's label, color or shape"),
		workspaceArg,
		mcp.WithString("nodeId", mcp.Description("Node ID"), mcp.Required()),
		mcp.WithString("label", mcp.Description("New label (optional)")),
		mcp.WithString("color", mcp.Description("Fill color as #RRGGBB (optional)")),
		mcp.WithString("shape", mcp.Description("rectangle, circle, ellipse or diamond (optional)")),
	), s.handleEditNode)

	s.mcp.AddTool(mcp.NewTool("export_diagram",
		mcp.WithDescription("Export the diagram as png (image), svg, dot or json (scene graph). With path, writes the file instead."),
		workspaceArg,
		mcp.WithString("format", mcp.Description("png (default), svg, dot or json")),
		mcp.WithNumber("scale", mcp.Description("Raster scale factor for png (default 1, max 4)")),
		mcp.WithString("path", mcp.Description("Output file path (optional)")),
	), s.handleExportDiagram)
}

func (s *Server) handleGenerateDiagram(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ws, err := s.workspace(ctx, req)
	if err != nil {
		return errorResult(err)
	}
	d, err := ws.Generate(ctx, req.GetString("text", ""), req.GetString("variant", ""))
	if err != nil {
		return errorResult(err)
	}
	return diagramResult(d)
}

func (s *Server) handleGetDiagram(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ws, err := s.workspace(ctx, req)
	if err != nil {
		return errorResult(err)
	}
	d := ws.Diagram()
	if d == nil {
		return errorResult(errs.New(errs.ErrCodeNotFound, "workspace %q has no diagram", ws.ID()))
	}
	return diagramResult(d)
}

func (s *Server) handleMoveNode(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ws, err := s.workspace(ctx, req)
	if err != nil {
		return errorResult(err)
	}
	nodeID := req.GetString("nodeId", "")
	p := diagram.Point{X: req.GetFloat("x", 0), Y: req.GetFloat("y", 0)}
	if !p.Finite() {
		return errorResult(errs.New(errs.ErrCodeInvalidInput, "position must be finite"))
	}
	if !ws.MoveNode(nodeID, p) {
		return errorResult(errs.New(errs.ErrCodeNotFound, "node %q not found", nodeID))
	}
	return textResult(fmt.Sprintf("Node %s moved to (%.0f, %.0f)", nodeID, p.X, p.Y)), nil
}

func (s *Server) handleEditNode(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ws, err := s.workspace(ctx, req)
	if err != nil {
		return errorResult(err)
	}
	nodeID := req.GetString("nodeId", "")
	if d := ws.Diagram(); d == nil {
		return errorResult(errs.New(errs.ErrCodeNotFound, "node %q not found", nodeID))
	} else if _, ok := d.Node(nodeID); !ok {
		return errorResult(errs.New(errs.ErrCodeNotFound, "node %q not found", nodeID))
	}

	var patch diagram.NodePatch
	if v := req.GetString("label", ""); v != "" {
		patch.Label = diagram.StringPtr(v)
	}
	if v := req.GetString("color", ""); v != "" {
		patch.Color = diagram.StringPtr(v)
	}
	if v := req.GetString("shape", ""); v != "" {
		patch.Shape = diagram.ShapePtr(diagram.Shape(v))
	}
	if !ws.EditNode(nodeID, patch) {
		return errorResult(errs.New(errs.ErrCodeInvalidInput, "nothing to change: give a label, a #RRGGBB color or a known shape"))
	}
	n, _ := ws.Diagram().Node(nodeID)
	return jsonResult(n)
}

func (s *Server) handleExportDiagram(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ws, err := s.workspace(ctx, req)
	if err != nil {
		return errorResult(err)
	}
	format, err := export.ParseFormat(req.GetString("format", string(export.FormatPNG)))
	if err != nil {
		return errorResult(err)
	}
	opts := export.Options{Format: format, Scale: req.GetFloat("scale", 1)}

	if path := req.GetString("path", ""); path != "" {
		if err := ws.ExportFile(ctx, opts, path); err != nil {
			return errorResult(err)
		}
		return textResult("Exported to " + path), nil
	}

	data, err := ws.Export(ctx, opts)
	if err != nil {
		return errorResult(err)
	}
	if format == export.FormatPNG {
		return mcp.NewToolResultImage(
			fmt.Sprintf("Diagram of workspace %s", ws.ID()),
			base64.StdEncoding.EncodeToString(data),
			format.ContentType(),
		), nil
	}
	return textResult(string(data)), nil
}

func diagramResult(d *diagram.Diagram) (*mcp.CallToolResult, error) {
	data, err := dio.Marshal(d)
	if err != nil {
		return nil, err
	}
	return textResult(string(data)), nil
}
