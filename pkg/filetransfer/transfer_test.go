package filetransfer

import (
	"context"
	"testing"

	"github.com/cuemby/shipwright/pkg/clustererr"
	"github.com/cuemby/shipwright/pkg/sshtarget"
	"github.com/cuemby/shipwright/pkg/tooladapter"
	"github.com/cuemby/shipwright/pkg/types"
	"github.com/stretchr/testify/assert"
)

func TestCopyMissingSourceIsConfigError(t *testing.T) {
	tr := New(tooladapter.New(tooladapter.Paths{}), t.TempDir())
	err := tr.Copy(context.Background(), sshtarget.Target{Host: "example"}, types.FileEntry{
		Source:      "does-not-exist.txt",
		Destination: "/etc/shipwright/does-not-exist.txt",
	}, nil)
	assert.Error(t, err)
	kind, ok := clustererr.KindOf(err)
	assert.True(t, ok)
	assert.Equal(t, clustererr.Config, kind)
}
