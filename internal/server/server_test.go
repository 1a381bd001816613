package server

import (
	"bytes"
	"encoding/json"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/trazo/pkg/blob"
	"github.com/matzehuels/trazo/pkg/diagram"
	dio "github.com/matzehuels/trazo/pkg/io"
	"github.com/matzehuels/trazo/pkg/observability"
	"github.com/matzehuels/trazo/pkg/store"
	"github.com/matzehuels/trazo/pkg/workspace"
)

const steps = "Planificación.\nDesarrollo.\nLanzamiento."

func newTestServer(t *testing.T) (*httptest.Server, *workspace.Manager) {
	t.Helper()
	m := workspace.NewManager(workspace.Options{
		Blobs: blob.NewMemory(),
		Store: store.Options{Debounce: time.Hour},
	})
	ts := httptest.NewServer(New(m, Options{Gatherer: prometheus.NewRegistry()}).Handler())
	t.Cleanup(ts.Close)
	return ts, m
}

func do(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeError(t *testing.T, resp *http.Response) ErrorResponse {
	t.Helper()
	var e ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&e))
	return e
}

func generate(t *testing.T, ts *httptest.Server) []string {
	t.Helper()
	resp := do(t, http.MethodPost, ts.URL+"/workspaces/notes/generate", GenerateRequest{Text: steps, Hint: "flow"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	d, err := dio.ReadJSON(resp.Body)
	require.NoError(t, err)
	require.Equal(t, 3, d.NodeCount())
	return d.NodeIDs()
}

func TestHealth(t *testing.T) {
	ts, _ := newTestServer(t)
	resp := do(t, http.MethodGet, ts.URL+"/healthz", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
}

func TestGenerateAndGet(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := do(t, http.MethodGet, ts.URL+"/workspaces/notes/diagram", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", decodeError(t, resp).Code)

	ids := generate(t, ts)

	resp = do(t, http.MethodGet, ts.URL+"/workspaces/notes/diagram", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	d, err := dio.ReadJSON(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, ids, d.NodeIDs())
	assert.Equal(t, 2, d.EdgeCount())
}

func TestGenerateErrors(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := do(t, http.MethodPost, ts.URL+"/workspaces/notes/generate", GenerateRequest{Text: "   "})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "EMPTY_INPUT", decodeError(t, resp).Code)

	resp = do(t, http.MethodPost, ts.URL+"/workspaces/notes/generate", GenerateRequest{Text: steps, Hint: "pie"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_VARIANT", decodeError(t, resp).Code)

	resp = do(t, http.MethodPost, ts.URL+"/workspaces/bad..id/generate", GenerateRequest{Text: steps})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_WORKSPACE", decodeError(t, resp).Code)

	req, _ := http.NewRequest(http.MethodPost, ts.URL+"/workspaces/notes/generate", strings.NewReader("{"))
	raw, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer raw.Body.Close()
	assert.Equal(t, http.StatusBadRequest, raw.StatusCode)
}

func TestGenerateAsync(t *testing.T) {
	ts, m := newTestServer(t)

	resp := do(t, http.MethodPost, ts.URL+"/workspaces/notes/generate", GenerateRequest{Text: steps, Async: true})
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	var job JobResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&job))
	assert.NotEmpty(t, job.ID)
	assert.Equal(t, "notes", job.WorkspaceID)

	assert.Eventually(t, func() bool {
		ws, ok := m.Get("notes")
		return ok && ws.Diagram() != nil
	}, 5*time.Second, 10*time.Millisecond)
}

func TestEditAndMoveNode(t *testing.T) {
	ts, _ := newTestServer(t)
	ids := generate(t, ts)
	base := ts.URL + "/workspaces/notes/nodes/"

	resp := do(t, http.MethodPatch, base+ids[0], map[string]string{"label": "Plan", "color": "#BFDBFE"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	d, err := dio.ReadJSON(resp.Body)
	require.NoError(t, err)
	n, _ := d.Node(ids[0])
	assert.Equal(t, "Plan", n.Label)
	assert.Equal(t, "#BFDBFE", n.Style.Color)

	resp = do(t, http.MethodPatch, base+ids[0], map[string]string{"color": "blue"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = do(t, http.MethodPatch, base+"missing", map[string]string{"label": "x"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = do(t, http.MethodPut, base+ids[1]+"/position", PositionRequest{X: 10, Y: 20})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	d, err = dio.ReadJSON(resp.Body)
	require.NoError(t, err)
	n, _ = d.Node(ids[1])
	assert.Equal(t, 10.0, n.Position.X)
	assert.Equal(t, 20.0, n.Position.Y)

	resp = do(t, http.MethodPut, base+"missing/position", PositionRequest{X: 1, Y: 1})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp = do(t, http.MethodPut, base+ids[1]+"/position", PositionRequest{X: 1e9, Y: 1})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	d, err = dio.ReadJSON(resp.Body)
	require.NoError(t, err)
	n, _ = d.Node(ids[1])
	assert.Equal(t, diagram.MaxCoordinate, n.Position.X)
	assert.Equal(t, 1.0, n.Position.Y)
}

func TestExport(t *testing.T) {
	ts, _ := newTestServer(t)

	// blank canvas before any generation
	resp := do(t, http.MethodGet, ts.URL+"/workspaces/notes/export.png", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	_, err := png.Decode(resp.Body)
	require.NoError(t, err)

	generate(t, ts)

	resp = do(t, http.MethodGet, ts.URL+"/workspaces/notes/export.json?scale=2", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var scene map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&scene))
	assert.Len(t, scene["nodes"], 3)

	resp = do(t, http.MethodGet, ts.URL+"/workspaces/notes/export.gif", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_FORMAT", decodeError(t, resp).Code)

	resp = do(t, http.MethodGet, ts.URL+"/workspaces/notes/export.png?scale=abc", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDeleteWorkspace(t *testing.T) {
	ts, _ := newTestServer(t)
	generate(t, ts)

	resp := do(t, http.MethodDelete, ts.URL+"/workspaces/notes", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = do(t, http.MethodGet, ts.URL+"/workspaces/notes/diagram", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestJobEndpoint(t *testing.T) {
	ts, _ := newTestServer(t)
	resp := do(t, http.MethodGet, ts.URL+"/workspaces/notes/job", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	generate(t, ts)

	resp = do(t, http.MethodGet, ts.URL+"/workspaces/notes/job", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var job JobResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&job))
	assert.Equal(t, "notes", job.WorkspaceID)
	assert.Equal(t, "done", job.Stage)
	assert.Empty(t, job.Error)
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	observability.NewPrometheus(reg).Install()
	t.Cleanup(observability.Reset)

	m := workspace.NewManager(workspace.Options{Store: store.Options{Debounce: time.Hour}})
	ts := httptest.NewServer(New(m, Options{Gatherer: reg}).Handler())
	defer ts.Close()

	do(t, http.MethodGet, ts.URL+"/healthz", nil)
	resp := do(t, http.MethodGet, ts.URL+"/metrics", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var buf bytes.Buffer
	_, err := buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "trazo_http_requests_total")
}

func TestStatusOf(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, statusOf(assert.AnError))
}
