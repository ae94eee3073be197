package client

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/cuemby/shipwright/pkg/httpapi"
	"github.com/cuemby/shipwright/pkg/lifecycle"
	"github.com/cuemby/shipwright/pkg/orchestrator"
	"github.com/cuemby/shipwright/pkg/tooladapter"
	"github.com/cuemby/shipwright/pkg/types"
	"github.com/stretchr/testify/require"
)

func testClientAndServer(t *testing.T) (*Client, *httptest.Server) {
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
	srv := httptest.NewServer(httpapi.New(orchestrator.New(cluster, engine)))
	t.Cleanup(srv.Close)
	return New(srv.URL), srv
}

func TestClientLs(t *testing.T) {
	c, _ := testClientAndServer(t)

	summaries, err := c.Ls(context.Background(), nil, nil)
	require.NoError(t, err)
	require.Len(t, summaries, 2)
}

func TestClientEnv(t *testing.T) {
	c, _ := testClientAndServer(t)

	env, err := c.Env(context.Background())
	require.NoError(t, err)
	require.Empty(t, env)
}

func TestClientDestroy(t *testing.T) {
	c, _ := testClientAndServer(t)

	results, err := c.Destroy(context.Background(), nil, nil)
	require.NoError(t, err)
	require.Len(t, results, 2)
}
