package tooladapter

import (
	"context"
	"testing"
	"time"

	"github.com/cuemby/shipwright/pkg/clustererr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunCapturesOutput(t *testing.T) {
	a := New(Paths{})
	res, err := a.Run(context.Background(), Tool("echo"), []string{"hello"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "hello\n", res.Stdout)
	assert.Equal(t, 0, res.ExitCode)
}

func TestRunNonZeroExit(t *testing.T) {
	a := New(Paths{})
	_, err := a.Run(context.Background(), Tool("false"), nil, nil)
	require.Error(t, err)
	kind, ok := clustererr.KindOf(err)
	assert.True(t, ok)
	assert.Equal(t, "AdapterError", string(kind))
}

func TestBinaryPathOverride(t *testing.T) {
	a := New(Paths{Docker: "/opt/bin/docker"})
	assert.Equal(t, "/opt/bin/docker", a.binary(ToolDocker))
	assert.Equal(t, "VBoxManage", a.binary(ToolVBoxManage))
}

func TestRunCancellation(t *testing.T) {
	a := New(Paths{})
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := a.Run(ctx, Tool("sleep"), []string{"5"}, nil)
	require.Error(t, err)
}

func TestNormalizeLevel(t *testing.T) {
	assert.Contains(t, normalizeLevel("time=now level=info msg=hi"), "level=INFO")
	assert.Equal(t, "no level token here", normalizeLevel("no level token here"))
}
