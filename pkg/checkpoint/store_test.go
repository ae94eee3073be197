package checkpoint

import (
	"testing"

	"github.com/cuemby/shipwright/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetMissingMachineNotFound(t *testing.T) {
	s, err := Open(t.TempDir(), "cluster")
	require.NoError(t, err)
	defer s.Close()

	_, ok, err := s.Get("node-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSetThenGetRoundTrips(t *testing.T) {
	s, err := Open(t.TempDir(), "cluster")
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Set("node-1", types.StateConfigured, 1))

	rec, ok, err := s.Get("node-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, types.StateConfigured, rec.State)
	assert.Equal(t, 1, rec.Attempts)
}

func TestAllReturnsEveryMachine(t *testing.T) {
	s, err := Open(t.TempDir(), "cluster")
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Set("master", types.StateRunning, 0))
	require.NoError(t, s.Set("worker-1", types.StateCreated, 2))

	all, err := s.All()
	require.NoError(t, err)
	assert.Equal(t, types.StateRunning, all["master"].State)
	assert.Equal(t, types.StateCreated, all["worker-1"].State)
}

func TestReopenPersistsAcrossInstances(t *testing.T) {
	dir := t.TempDir()
	s1, err := Open(dir, "cluster")
	require.NoError(t, err)
	require.NoError(t, s1.Set("node-1", types.StateInitialised, 0))
	require.NoError(t, s1.Close())

	s2, err := Open(dir, "cluster")
	require.NoError(t, err)
	defer s2.Close()

	rec, ok, err := s2.Get("node-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, types.StateInitialised, rec.State)
}
