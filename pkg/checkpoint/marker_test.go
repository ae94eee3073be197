package checkpoint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitialisedFalseBeforeMarked(t *testing.T) {
	dir := t.TempDir()
	ok, err := Initialised(dir, "cluster", "node-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMarkInitialisedThenInitialisedTrue(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, MarkInitialised(dir, "cluster", "node-1"))

	ok, err := Initialised(dir, "cluster", "node-1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestClearInitialisedRemovesMarker(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, MarkInitialised(dir, "cluster", "node-1"))
	require.NoError(t, ClearInitialised(dir, "cluster", "node-1"))

	ok, err := Initialised(dir, "cluster", "node-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestClearInitialisedOnMissingMarkerIsNoop(t *testing.T) {
	dir := t.TempDir()
	assert.NoError(t, ClearInitialised(dir, "cluster", "ghost"))
}
