package lifecycle

import (
	"testing"

	"github.com/cuemby/shipwright/pkg/types"
	"github.com/stretchr/testify/assert"
)

func TestSizeFlagsVirtualbox(t *testing.T) {
	m := &types.Machine{Driver: "virtualbox", CPUs: 2, MemoryMB: 2048, DiskMB: 40000}
	flags := sizeFlags("virtualbox", m)
	assert.Equal(t, []string{
		"--virtualbox-cpu-count", "2",
		"--virtualbox-memory", "2048",
		"--virtualbox-disk-size", "40000",
	}, flags)
}

func TestSizeFlagsGenericDriverFallback(t *testing.T) {
	m := &types.Machine{Driver: "amazonec2", MemoryMB: 4096}
	flags := sizeFlags("amazonec2", m)
	assert.Equal(t, []string{"--amazonec2-memory", "4096"}, flags)
}

func TestSizeFlagsOmitsZeroValues(t *testing.T) {
	m := &types.Machine{Driver: "virtualbox"}
	assert.Empty(t, sizeFlags("virtualbox", m))
}

func TestDriverOptFlagsScalarAndList(t *testing.T) {
	opts := map[string]interface{}{
		"ami":      "ami-123",
		"zone":     "a",
		"security": []string{"sg-1", "sg-2"},
	}
	flags := driverOptFlags("amazonec2", opts)
	assert.Equal(t, []string{
		"--amazonec2-ami", "ami-123",
		"--amazonec2-security", "sg-1",
		"--amazonec2-security", "sg-2",
		"--amazonec2-zone", "a",
	}, flags)
}

func TestDriverOptFlagsBoolOnlyEmitsFlagWhenTrue(t *testing.T) {
	assert.Equal(t, []string{"--virtualbox-no-share"}, driverOptFlags("virtualbox", map[string]interface{}{"no-share": true}))
	assert.Empty(t, driverOptFlags("virtualbox", map[string]interface{}{"no-share": false}))
}

func TestSortedKeysIsDeterministic(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, sortedKeys(map[string]string{"c": "1", "a": "2", "b": "3"}))
}
