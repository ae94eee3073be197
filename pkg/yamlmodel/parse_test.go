package yamlmodel

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeDescriptor(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestParseClusterSimpleSingleMaster(t *testing.T) {
	dir := t.TempDir()
	path := writeDescriptor(t, dir, "cluster.yml", `
master:
  driver: virtualbox
  master: true
  cpus: 1
  memory: 1GiB
node1:
  driver: virtualbox
  cpus: 2
  memory: 2GiB
`)
	cluster, err := ParseCluster(path)
	require.NoError(t, err)
	assert.Equal(t, "", cluster.Name)
	assert.Equal(t, "cluster", cluster.Root)
	assert.Len(t, cluster.Machines, 2)

	var masterName string
	for _, m := range cluster.Machines {
		if m.Master {
			masterName = m.Name
		}
		assert.Equal(t, m.Name, cluster.RealName(m.Name), "root \"cluster\" leaves logical names unchanged")
	}
	assert.Equal(t, "master", masterName)
}

func TestParseClusterRejectsMultipleMastersInV1(t *testing.T) {
	dir := t.TempDir()
	path := writeDescriptor(t, dir, "cluster.yml", `
m1:
  driver: virtualbox
  master: true
m2:
  driver: virtualbox
  master: true
`)
	_, err := ParseCluster(path)
	assert.Error(t, err)
}

func TestParseClusterRequiresMasterWhenSwarmParticipants(t *testing.T) {
	dir := t.TempDir()
	path := writeDescriptor(t, dir, "cluster.yml", `
node1:
  driver: virtualbox
  swarm: true
`)
	_, err := ParseCluster(path)
	assert.Error(t, err)
}

func TestParseClusterRejectsRelativeSharePath(t *testing.T) {
	dir := t.TempDir()
	path := writeDescriptor(t, dir, "cluster.yml", `
master:
  driver: virtualbox
  master: true
  shares:
    - hostPath: ./data
      guestPath: relative/path
`)
	_, err := ParseCluster(path)
	assert.Error(t, err)
}

func TestParseClusterResolvesInclude(t *testing.T) {
	dir := t.TempDir()
	writeDescriptor(t, dir, "common.yml", `
master:
  driver: virtualbox
  master: true
  cpus: 1
`)
	path := writeDescriptor(t, dir, "cluster.yml", `
include: common.yml
node1:
  driver: virtualbox
  cpus: 2
`)
	cluster, err := ParseCluster(path)
	require.NoError(t, err)
	assert.Len(t, cluster.Machines, 2)
}

func TestParseClusterDetectsIncludeCycle(t *testing.T) {
	dir := t.TempDir()
	writeDescriptor(t, dir, "a.yml", "include: b.yml\n")
	writeDescriptor(t, dir, "b.yml", "include: a.yml\n")
	_, err := ParseCluster(filepath.Join(dir, "a.yml"))
	assert.Error(t, err)
}

func TestParseClusterHidesDotPrefixedMachines(t *testing.T) {
	dir := t.TempDir()
	path := writeDescriptor(t, dir, "cluster.yml", `
.base:
  driver: virtualbox
  cpus: 2
master:
  extends: .base
  master: true
`)
	cluster, err := ParseCluster(path)
	require.NoError(t, err)
	assert.Len(t, cluster.Machines, 1)
	assert.Len(t, cluster.Hidden, 1)
	assert.Equal(t, 2, cluster.Machines[0].CPUs)
}

func TestParseClusterNamedDescriptorPrefixesRealNames(t *testing.T) {
	dir := t.TempDir()
	path := writeDescriptor(t, dir, "staging.yml", `
master:
  driver: virtualbox
  master: true
`)
	cluster, err := ParseCluster(path)
	require.NoError(t, err)
	assert.Equal(t, "staging", cluster.Name)
	assert.Equal(t, "staging-master", cluster.RealName("master"))
}
