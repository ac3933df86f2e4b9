package viewer

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshharrison/pertloom/internal/cpm"
	"github.com/joshharrison/pertloom/internal/export"
)

const diamondDoc = `{
  "diagramType": "CPM",
  "activities": [
    {"id": "A", "duration": 5, "predecessors": []},
    {"id": "B", "duration": 5, "predecessors": ["A"]},
    {"id": "C", "duration": 3, "predecessors": "A"},
    {"id": "D", "duration": 5, "predecessors": "B, C"}
  ]
}`

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestPostGraph_Created(t *testing.T) {
	h := New(cpm.Options{}, nil).Handler()

	rec := do(t, h, http.MethodPost, "/graph", diamondDoc)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var g export.Graph
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &g))
	assert.Len(t, g.Nodes, 4)
	assert.Equal(t, 15.0, g.Metadata.ProjectDuration)
	assert.Equal(t, []string{"A", "B", "D"}, g.CriticalPath)
}

func TestGetGraph(t *testing.T) {
	h := New(cpm.Options{}, nil).Handler()

	rec := do(t, h, http.MethodGet, "/graph", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	require.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, "/graph", diamondDoc).Code)

	rec = do(t, h, http.MethodGet, "/graph", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var g export.Graph
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &g))
	assert.Equal(t, 4, g.Metadata.TotalActivities)
}

func TestPostGraph_ModeOverride(t *testing.T) {
	h := New(cpm.Options{}, nil).Handler()

	body := `[{"id": "a", "duration": 9, "optimistic": 1, "mostLikely": 1, "pessimistic": 1}]`
	rec := do(t, h, http.MethodPost, "/graph?mode=PERT", body)
	require.Equal(t, http.StatusCreated, rec.Code)

	var g export.Graph
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &g))
	assert.Equal(t, "PERT", string(g.Metadata.Mode))
	assert.Equal(t, 1.0, g.Metadata.ProjectDuration)
}

func TestPostGraph_EngineErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		kind string
	}{
		{
			name: "cycle",
			body: `[{"id": "X", "duration": 1, "predecessors": ["Y"]}, {"id": "Y", "duration": 1, "predecessors": ["X"]}]`,
			kind: "cyclic_dependency",
		},
		{
			name: "missing predecessor",
			body: `[{"id": "Z", "duration": 1, "predecessors": ["Q"]}]`,
			kind: "invalid_reference",
		},
		{
			name: "duplicate id",
			body: `[{"id": "A", "duration": 1}, {"id": "A", "duration": 2}]`,
			kind: "duplicate_activity_id",
		},
		{
			name: "negative duration",
			body: `[{"id": "A", "duration": -1}]`,
			kind: "invalid_activity",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := New(cpm.Options{}, nil).Handler()

			rec := do(t, h, http.MethodPost, "/graph", tt.body)
			require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

			var resp errorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.kind, resp.Kind)
			assert.NotEmpty(t, resp.Error)

			// A rejected document leaves nothing loaded
			assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/graph", "").Code)
		})
	}
}

func TestPostGraph_BadJSON(t *testing.T) {
	h := New(cpm.Options{}, nil).Handler()

	rec := do(t, h, http.MethodPost, "/graph", `{"activities": [`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGraph_MethodNotAllowed(t *testing.T) {
	h := New(cpm.Options{}, nil).Handler()

	rec := do(t, h, http.MethodDelete, "/graph", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHealthz(t *testing.T) {
	h := New(cpm.Options{}, nil).Handler()

	rec := do(t, h, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok\n", rec.Body.String())
}

func TestHandler_OverHTTP(t *testing.T) {
	srv := New(cpm.Options{}, nil)

	ln := httptest.NewServer(srv.Handler())
	defer ln.Close()

	resp, err := http.Get(ln.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, IsPortOpen(strings.TrimPrefix(ln.URL, "http://")))
}
