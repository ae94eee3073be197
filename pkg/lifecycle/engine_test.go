package lifecycle

import (
	"testing"

	"github.com/cuemby/shipwright/pkg/tooladapter"
	"github.com/cuemby/shipwright/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := New(t.TempDir(), "cluster", tooladapter.New(tooladapter.Paths{}))
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func TestCurrentStateDefaultsToAbsent(t *testing.T) {
	e := newTestEngine(t)
	state, err := e.CurrentState("node-1")
	require.NoError(t, err)
	assert.Equal(t, types.StateAbsent, state)
}

func TestCurrentStateReflectsLastCheckpoint(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.Checkpoint.Set("node-1", types.StateConfigured, 0))

	state, err := e.CurrentState("node-1")
	require.NoError(t, err)
	assert.Equal(t, types.StateConfigured, state)
}

func TestOrderIsTheSpecSequence(t *testing.T) {
	assert.Equal(t, []types.MachineState{
		types.StateAbsent,
		types.StateCreated,
		types.StateTagged,
		types.StateConfigured,
		types.StateInitialised,
		types.StateRunning,
	}, order)
}

func TestIndexOfUnknownStateIsNegative(t *testing.T) {
	assert.Equal(t, -1, indexOf(types.StateFailed))
	assert.Equal(t, 0, indexOf(types.StateAbsent))
	assert.Equal(t, 5, indexOf(types.StateRunning))
}
