package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yml"))
	require.NoError(t, err)
	require.Equal(t, &Config{}, cfg)
}

func TestLoadEmptyPath(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, &Config{}, cfg)
}

func TestLoadParsesFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "shipwright.yml")
	content := "driver: virtualbox\nssh: \"ssh -i %identity% %user%@%host%\"\ncache: named\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "virtualbox", cfg.Driver)
	require.Equal(t, "named", cfg.Cache)
	require.Contains(t, cfg.SSH, "%identity%")
}

func TestMerge(t *testing.T) {
	require.Equal(t, "flag", Merge("flag", "file"))
	require.Equal(t, "file", Merge("", "file"))
	require.Equal(t, "", Merge("", ""))
}
