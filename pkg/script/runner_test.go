package script

import (
	"context"
	"testing"

	"github.com/cuemby/shipwright/pkg/filetransfer"
	"github.com/cuemby/shipwright/pkg/sshtarget"
	"github.com/cuemby/shipwright/pkg/tooladapter"
	"github.com/cuemby/shipwright/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunAllLocalScriptSucceeds(t *testing.T) {
	adapter := tooladapter.New(tooladapter.Paths{})
	r := New(adapter, filetransfer.New(adapter, t.TempDir()))

	entries := []types.ScriptEntry{
		{Exec: "true"},
	}
	err := r.RunAll(context.Background(), sshtarget.Target{}, entries, nil)
	require.NoError(t, err)
}

func TestRunAllAbortsOnFirstFailure(t *testing.T) {
	adapter := tooladapter.New(tooladapter.Paths{})
	r := New(adapter, filetransfer.New(adapter, t.TempDir()))

	entries := []types.ScriptEntry{
		{Exec: "false"},
		{Exec: "touch", Args: []string{"/should/not/run"}},
	}
	err := r.RunAll(context.Background(), sshtarget.Target{}, entries, nil)
	assert.Error(t, err)
}
