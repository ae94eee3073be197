package discovery

import (
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/cuemby/shipwright/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var keyShape = regexp.MustCompile(`^MACHINERY_[A-Z0-9_]+_(IP|[A-Z0-9]+_INET6?)$`)

func TestKeysMatchCanonicalShape(t *testing.T) {
	d := &types.Discovery{
		Machine:   "test-test",
		MainInet4: "192.168.99.111",
		Interfaces: []types.Interface{
			{Name: "eth1", Inet4: "192.168.99.111", Inet6: "fe80::1"},
		},
	}
	keys := Keys(d)
	assert.Equal(t, "192.168.99.111", keys["MACHINERY_TEST_TEST_ETH1_INET"])
	assert.Equal(t, "192.168.99.111", keys["MACHINERY_TEST_TEST_IP"])
	assert.Equal(t, "fe80::1", keys["MACHINERY_TEST_TEST_ETH1_INET6"])
	for k := range keys {
		assert.Regexp(t, keyShape, k)
	}
}

func TestKeysOmitsAbsentInterfaceFields(t *testing.T) {
	d := &types.Discovery{
		Machine: "m",
		Interfaces: []types.Interface{
			{Name: "eth0", Inet4: "10.0.0.1"},
		},
	}
	keys := Keys(d)
	_, hasInet6 := keys["MACHINERY_M_ETH0_INET6"]
	assert.False(t, hasInet6)
	_, hasIP := keys["MACHINERY_M_IP"]
	assert.False(t, hasIP)
}

func TestCacheUpdateIsWholeFileRewrite(t *testing.T) {
	dir := t.TempDir()
	c := New(dir, "mycluster")

	err := c.Update([]*types.Discovery{
		{Machine: "mycluster-master", MainInet4: "10.0.0.1"},
	})
	require.NoError(t, err)

	kv, err := c.Read()
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.1", kv["MACHINERY_MYCLUSTER_MASTER_IP"])

	err = c.Update([]*types.Discovery{
		{Machine: "mycluster-worker", MainInet4: "10.0.0.2"},
	})
	require.NoError(t, err)

	kv, err = c.Read()
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.1", kv["MACHINERY_MYCLUSTER_MASTER_IP"], "prior records survive an update")
	assert.Equal(t, "10.0.0.2", kv["MACHINERY_MYCLUSTER_WORKER_IP"])

	data, err := os.ReadFile(filepath.Join(dir, ".mycluster.env"))
	require.NoError(t, err)
	assert.NotEmpty(t, data)
}

func TestCacheReadMissingFileIsEmpty(t *testing.T) {
	c := New(t.TempDir(), "absent")
	kv, err := c.Read()
	require.NoError(t, err)
	assert.Empty(t, kv)
}
