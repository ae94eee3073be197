package preseed

import (
	"archive/tar"
	"encoding/json"
	"io"

	"github.com/cuemby/shipwright/pkg/clustererr"
)

// dockerManifestEntry mirrors one element of the manifest.json a "docker
// save" tar carries at its root, per the Docker image tar format.
type dockerManifestEntry struct {
	Config   string   `json:"Config"`
	RepoTags []string `json:"RepoTags"`
	Layers   []string `json:"Layers"`
}

// ValidateSaveTar scans a "docker save" tar stream for a well-formed
// manifest.json referencing a config blob and at least one layer, catching a
// truncated or corrupt save before it is streamed over ssh to "docker load"
// (spec §4.7). It does not extract or verify layer contents: that is
// "docker load"'s job on the target. The whole stream is read to EOF (not
// just up to manifest.json) so callers teeing r onward, e.g. into a
// "docker load" pipe, forward every byte.
func ValidateSaveTar(r io.Reader) error {
	tr := tar.NewReader(r)
	var manifest []dockerManifestEntry
	found := false

	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return clustererr.WrapAdapter(err, "read save-tar entry")
		}
		if hdr.Name != "manifest.json" {
			continue
		}
		found = true
		if err := json.NewDecoder(tr).Decode(&manifest); err != nil {
			return clustererr.WrapAdapter(err, "decode manifest.json")
		}
	}

	if !found {
		return clustererr.AdapterError("save tar has no manifest.json")
	}
	if len(manifest) == 0 {
		return clustererr.AdapterError("manifest.json declares no images")
	}
	for _, entry := range manifest {
		if entry.Config == "" {
			return clustererr.AdapterError("manifest.json entry missing Config blob")
		}
		if len(entry.Layers) == 0 {
			return clustererr.AdapterError("manifest.json entry %q declares no layers", entry.Config)
		}
	}
	return nil
}
