package token

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/cuemby/shipwright/pkg/clustererr"
	"github.com/cuemby/shipwright/pkg/metrics"
	"github.com/cuemby/shipwright/pkg/tooladapter"
	"github.com/gofrs/flock"
)

// tokenShape is the provisioner's output shape (spec §8's token-validity
// property): a 32-character lowercase hex string.
var tokenShape = regexp.MustCompile(`^[0-9a-f]{32}$`)

// Store is the file-backed singleton for one cluster's ".<root>.tkn".
type Store struct {
	path    string
	lock    *flock.Flock
	adapter *tooladapter.Adapter
	mu      sync.Mutex // serialises Create within this process (spec §4.5)
}

// New returns a Store backed by "<dir>/.<root>.tkn".
func New(dir, root string, adapter *tooladapter.Adapter) *Store {
	path := filepath.Join(dir, "."+root+".tkn")
	return &Store{path: path, lock: flock.New(path + ".lock"), adapter: adapter}
}

// Read returns the cached token, or "" if none is cached yet.
func (s *Store) Read() (string, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", clustererr.WrapConfig(err, "read token %s", s.path)
	}
	return strings.TrimSpace(string(data)), nil
}

// Create returns the cached token unless force is true, in which case (or
// when nothing is cached) it runs a one-shot "swarm create" container on
// the local docker daemon, validates the output, and persists it atomically.
func (s *Store) Create(ctx context.Context, force bool) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !force {
		if cached, err := s.Read(); err != nil {
			return "", err
		} else if cached != "" {
			return cached, nil
		}
	}

	res, err := s.adapter.Run(ctx, tooladapter.ToolDocker, []string{"run", "--rm", "swarm", "create"}, nil)
	if err != nil {
		return "", err
	}
	tok := strings.TrimSpace(res.Stdout)
	if !tokenShape.MatchString(tok) {
		return "", clustererr.AdapterError("swarm create returned malformed token %q", tok)
	}

	if err := s.lock.Lock(); err != nil {
		return "", clustererr.WrapConfig(err, "lock token file %s", s.path)
	}
	defer s.lock.Unlock()

	if err := writeAtomic(s.path, tok); err != nil {
		return "", err
	}
	metrics.TokenRegenerations.WithLabelValues(strconv.FormatBool(force)).Inc()
	return tok, nil
}

func writeAtomic(path, content string) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(content), 0o600); err != nil {
		return clustererr.WrapConfig(err, "stage token %s", tmp)
	}
	if err := os.Rename(tmp, path); err != nil {
		return clustererr.WrapConfig(err, "replace token %s", path)
	}
	return nil
}
