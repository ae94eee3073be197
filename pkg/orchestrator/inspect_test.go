package orchestrator

import (
	"testing"

	"github.com/cuemby/shipwright/pkg/lifecycle"
	"github.com/cuemby/shipwright/pkg/tooladapter"
	"github.com/cuemby/shipwright/pkg/types"
	"github.com/stretchr/testify/require"
)

func TestLsReportsLogicalAndRealNames(t *testing.T) {
	dir := t.TempDir()
	engine, err := lifecycle.New(dir, "demo", tooladapter.New(tooladapter.Paths{}))
	require.NoError(t, err)
	defer engine.Close()

	c := testCluster()
	o := New(c, engine)

	summaries := o.Ls(nil, nil)
	require.Len(t, summaries, 3)

	SortSummaries(summaries)
	require.Equal(t, "demo-master", summaries[0].Real)
	require.Equal(t, types.StateAbsent, summaries[0].State)
}

func TestLsNarrowsByPattern(t *testing.T) {
	dir := t.TempDir()
	engine, err := lifecycle.New(dir, "demo", tooladapter.New(tooladapter.Paths{}))
	require.NoError(t, err)
	defer engine.Close()

	o := New(testCluster(), engine)
	summaries := o.Ls([]string{"worker-*"}, nil)
	require.Len(t, summaries, 2)
}
