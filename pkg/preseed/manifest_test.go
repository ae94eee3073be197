package preseed

import (
	"archive/tar"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func buildTar(t *testing.T, files map[string]string) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	for name, content := range files {
		hdr := &tar.Header{Name: name, Size: int64(len(content)), Mode: 0o644}
		assert.NoError(t, tw.WriteHeader(hdr))
		_, err := tw.Write([]byte(content))
		assert.NoError(t, err)
	}
	assert.NoError(t, tw.Close())
	return &buf
}

func TestValidateSaveTarAcceptsWellFormedManifest(t *testing.T) {
	manifest := `[{"Config":"abc123.json","RepoTags":["nginx:latest"],"Layers":["layer1/layer.tar"]}]`
	buf := buildTar(t, map[string]string{"manifest.json": manifest})
	assert.NoError(t, ValidateSaveTar(buf))
}

func TestValidateSaveTarRejectsMissingManifest(t *testing.T) {
	buf := buildTar(t, map[string]string{"layer1/layer.tar": "data"})
	assert.Error(t, ValidateSaveTar(buf))
}

func TestValidateSaveTarRejectsEmptyManifest(t *testing.T) {
	buf := buildTar(t, map[string]string{"manifest.json": `[]`})
	assert.Error(t, ValidateSaveTar(buf))
}

func TestValidateSaveTarRejectsEntryWithNoLayers(t *testing.T) {
	manifest := `[{"Config":"abc123.json","RepoTags":["nginx:latest"],"Layers":[]}]`
	buf := buildTar(t, map[string]string{"manifest.json": manifest})
	assert.Error(t, ValidateSaveTar(buf))
}
