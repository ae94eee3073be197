package orchestrator

import (
	"testing"

	"github.com/cuemby/shipwright/pkg/types"
	"github.com/stretchr/testify/assert"
)

func testCluster() *types.Cluster {
	return &types.Cluster{
		Root: "demo",
		Machines: []*types.Machine{
			{Name: "master", Master: true, Aliases: []string{"leader"}},
			{Name: "worker-1", Aliases: []string{"w1"}},
			{Name: "worker-2", Aliases: []string{"w2"}},
		},
	}
}

func TestMatchesLogicalName(t *testing.T) {
	c := testCluster()
	assert.True(t, Matches(c, c.Machines[0], "master"))
}

func TestMatchesRealName(t *testing.T) {
	c := testCluster()
	assert.True(t, Matches(c, c.Machines[0], "demo-master"))
}

func TestMatchesAlias(t *testing.T) {
	c := testCluster()
	assert.True(t, Matches(c, c.Machines[0], "leader"))
}

func TestMatchesGlob(t *testing.T) {
	c := testCluster()
	assert.True(t, Matches(c, c.Machines[1], "worker-*"))
	assert.False(t, Matches(c, c.Machines[0], "worker-*"))
}

func TestSelectEmptyPatternsSelectsAll(t *testing.T) {
	c := testCluster()
	assert.Len(t, Select(c, nil, nil), 3)
}

func TestSelectPatternNarrowsSet(t *testing.T) {
	c := testCluster()
	got := Select(c, []string{"worker-*"}, nil)
	assert.Len(t, got, 2)
}

func TestSelectRestrictIntersects(t *testing.T) {
	c := testCluster()
	got := Select(c, []string{"worker-*"}, []string{"w1"})
	assert.Len(t, got, 1)
	assert.Equal(t, "worker-1", got[0].Name)
}
