package checkpoint

import (
	"os"
	"path/filepath"

	"github.com/cuemby/shipwright/pkg/clustererr"
)

// initDir returns "<dir>/.<root>.init".
func initDir(dir, root string) string {
	return filepath.Join(dir, "."+root+".init")
}

// Initialised reports whether machine's one-shot initialisation marker
// exists (spec §6/§4.10: "<R>.init/<machine>", presence = initialised).
func Initialised(dir, root, machine string) (bool, error) {
	path := filepath.Join(initDir(dir, root), machine)
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, clustererr.Internal("stat init marker for %s: %v", machine, err)
}

// MarkInitialised creates machine's init marker, making the machine's
// "configured → initialised" transition permanent for this lifetime (spec
// §4.10: "Initialisation is exactly once per machine lifetime").
func MarkInitialised(dir, root, machine string) error {
	d := initDir(dir, root)
	if err := os.MkdirAll(d, 0755); err != nil {
		return clustererr.Internal("create init marker dir: %v", err)
	}
	path := filepath.Join(d, machine)
	if err := os.WriteFile(path, nil, 0644); err != nil {
		return clustererr.Internal("write init marker for %s: %v", machine, err)
	}
	return nil
}

// ClearInitialised removes machine's init marker (destroy tears the
// machine down to absent, so a future create must re-initialise).
func ClearInitialised(dir, root, machine string) error {
	path := filepath.Join(initDir(dir, root), machine)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return clustererr.Internal("remove init marker for %s: %v", machine, err)
	}
	return nil
}
