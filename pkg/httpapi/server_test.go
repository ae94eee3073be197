package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cuemby/shipwright/pkg/lifecycle"
	"github.com/cuemby/shipwright/pkg/orchestrator"
	"github.com/cuemby/shipwright/pkg/tooladapter"
	"github.com/cuemby/shipwright/pkg/types"
	"github.com/stretchr/testify/require"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	dir := t.TempDir()
	engine, err := lifecycle.New(dir, "demo", tooladapter.New(tooladapter.Paths{}))
	require.NoError(t, err)
	t.Cleanup(func() { engine.Close() })

	cluster := &types.Cluster{
		Root: "demo",
		Dir:  dir,
		Machines: []*types.Machine{
			{Name: "master", Master: true},
			{Name: "worker-1"},
		},
	}
	return New(orchestrator.New(cluster, engine))
}

func TestHandleLsReturnsMachines(t *testing.T) {
	s := testServer(t)

	req := httptest.NewRequest(http.MethodGet, "/cluster/ls", nil)
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "demo-master")
}

func TestHandleEnvReturnsEmptyCache(t *testing.T) {
	s := testServer(t)

	req := httptest.NewRequest(http.MethodGet, "/cluster/env", nil)
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, "{}", w.Body.String())
}

func TestHandleDestroyReturnsStatusShape(t *testing.T) {
	s := testServer(t)

	req := httptest.NewRequest(http.MethodPost, "/cluster/destroy", nil)
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"per_machine"`)
}

func TestUnknownRouteIs404(t *testing.T) {
	s := testServer(t)

	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)

	require.Equal(t, http.StatusNotFound, w.Code)
}
