package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/trazo/pkg/diagram"
	errs "github.com/matzehuels/trazo/pkg/errors"
	"github.com/matzehuels/trazo/pkg/export"
	dio "github.com/matzehuels/trazo/pkg/io"
	"github.com/matzehuels/trazo/pkg/pipeline"
	"github.com/matzehuels/trazo/pkg/workspace"
)

// GenerateRequest is the body of POST /workspaces/{id}/generate.
type GenerateRequest struct {
	Text string `json:"text"`
	// Hint is a variant name or menu label; empty means auto.
	Hint string `json:"hint,omitempty"`
	// Async returns 202 with the job instead of waiting for the diagram.
	Async bool `json:"async,omitempty"`
}

// JobResponse describes a generation job.
type JobResponse struct {
	ID          string `json:"id"`
	WorkspaceID string `json:"workspace_id"`
	Stage       string `json:"stage"`
	Label       string `json:"label"`
	Error       string `json:"error,omitempty"`
}

// PositionRequest is the body of PUT .../position.
type PositionRequest struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func jobResponse(j *pipeline.Job) JobResponse {
	resp := JobResponse{
		ID:          j.ID,
		WorkspaceID: j.WorkspaceID,
		Stage:       string(j.Stage()),
		Label:       j.Stage().Label(),
	}
	if err := j.Err(); err != nil {
		resp.Error = errs.UserMessage(err)
	}
	return resp
}

func (s *Server) workspace(w http.ResponseWriter, r *http.Request) (*workspace.Workspace, bool) {
	ws, err := s.manager.Open(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, err)
		return nil, false
	}
	return ws, true
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.respondError(w, errs.Wrap(errs.ErrCodeInvalidInput, err, "invalid request body"))
		return false
	}
	return true
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	ws, ok := s.workspace(w, r)
	if !ok {
		return
	}
	var req GenerateRequest
	if !s.decode(w, r, &req) {
		return
	}

	// Jobs outlive the request when async; they stop only when superseded.
	job := ws.Start(context.WithoutCancel(r.Context()), req.Text, req.Hint)
	if req.Async {
		s.respondJSON(w, http.StatusAccepted, jobResponse(job))
		return
	}
	d, err := job.Wait(r.Context())
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondDiagram(w, http.StatusOK, d)
}

func (s *Server) handleGetDiagram(w http.ResponseWriter, r *http.Request) {
	ws, ok := s.workspace(w, r)
	if !ok {
		return
	}
	d := ws.Diagram()
	if d == nil {
		s.respondError(w, errs.New(errs.ErrCodeNotFound, "workspace %q has no diagram", ws.ID()))
		return
	}
	s.respondDiagram(w, http.StatusOK, d)
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	ws, ok := s.workspace(w, r)
	if !ok {
		return
	}
	j := s.manager.Runner().Last(ws.ID())
	if j == nil {
		s.respondError(w, errs.New(errs.ErrCodeNotFound, "no job"))
		return
	}
	s.respondJSON(w, http.StatusOK, jobResponse(j))
}

func (s *Server) handleEditNode(w http.ResponseWriter, r *http.Request) {
	ws, ok := s.workspace(w, r)
	if !ok {
		return
	}
	var patch diagram.NodePatch
	if !s.decode(w, r, &patch) {
		return
	}
	nodeID := chi.URLParam(r, "node")
	if _, exists := nodeOf(ws, nodeID); !exists {
		s.respondError(w, errs.New(errs.ErrCodeNotFound, "node %q not found", nodeID))
		return
	}
	if !ws.EditNode(nodeID, patch) {
		s.respondError(w, errs.New(errs.ErrCodeInvalidInput, "patch changes nothing"))
		return
	}
	s.respondDiagram(w, http.StatusOK, ws.Diagram())
}

func (s *Server) handleMoveNode(w http.ResponseWriter, r *http.Request) {
	ws, ok := s.workspace(w, r)
	if !ok {
		return
	}
	var req PositionRequest
	if !s.decode(w, r, &req) {
		return
	}
	p := diagram.Point{X: req.X, Y: req.Y}
	if !p.Finite() {
		s.respondError(w, errs.New(errs.ErrCodeInvalidInput, "position must be finite"))
		return
	}
	nodeID := chi.URLParam(r, "node")
	if !ws.MoveNode(nodeID, p) {
		s.respondError(w, errs.New(errs.ErrCodeNotFound, "node %q not found", nodeID))
		return
	}
	s.respondDiagram(w, http.StatusOK, ws.Diagram())
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	ws, ok := s.workspace(w, r)
	if !ok {
		return
	}
	format, err := export.ParseFormat(chi.URLParam(r, "format"))
	if err != nil {
		s.respondError(w, err)
		return
	}
	opts := export.Options{Format: format}
	if v := r.URL.Query().Get("scale"); v != "" {
		scale, err := strconv.ParseFloat(v, 64)
		if err != nil {
			s.respondError(w, errs.Wrap(errs.ErrCodeInvalidInput, err, "invalid scale %q", v))
			return
		}
		opts.Scale = scale
	}

	data, err := ws.Export(r.Context(), opts)
	if err != nil {
		s.respondError(w, err)
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", ws.ID()+"."+string(format)))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.manager.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func nodeOf(ws *workspace.Workspace, id string) (diagram.Node, bool) {
	d := ws.Diagram()
	if d == nil {
		return diagram.Node{}, false
	}
	return d.Node(id)
}

func (s *Server) respondDiagram(w http.ResponseWriter, status int, d *diagram.Diagram) {
	data, err := dio.Marshal(d)
	if err != nil {
		s.respondError(w, errs.Wrap(errs.ErrCodeInternal, err, "encode diagram"))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data)
}
