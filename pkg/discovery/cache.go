package discovery

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/cuemby/shipwright/pkg/clustererr"
	"github.com/cuemby/shipwright/pkg/metrics"
	"github.com/cuemby/shipwright/pkg/types"
	"github.com/gofrs/flock"
)

// Cache is the file-backed singleton for one cluster's ".<root>.env"
// sidecar (spec §4.4).
type Cache struct {
	path string
	lock *flock.Flock
}

// New returns a Cache for the descriptor at dir with root name R, backed by
// "<dir>/.<R>.env".
func New(dir, root string) *Cache {
	path := filepath.Join(dir, "."+root+".env")
	return &Cache{path: path, lock: flock.New(path + ".lock")}
}

// Read parses the cache file into a flat KEY=VALUE map. A missing file
// yields an empty map, not an error: discovery is populated lazily as
// machines come up.
func (c *Cache) Read() (map[string]string, error) {
	f, err := os.Open(c.path)
	if os.IsNotExist(err) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, clustererr.WrapConfig(err, "read discovery cache %s", c.path)
	}
	defer f.Close()

	out := map[string]string{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		k, v, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		out[k] = v
	}
	return out, scanner.Err()
}

// Update merges records (one Discovery per machine) into the cache and
// rewrites the file atomically and wholesale under a write-exclusive lock
// (spec §4.4, §5(ii)): no partial writes are ever observable.
func (c *Cache) Update(records []*types.Discovery) error {
	if err := c.lock.Lock(); err != nil {
		return clustererr.WrapConfig(err, "lock discovery cache %s", c.path)
	}
	defer c.lock.Unlock()

	existing, err := c.Read()
	if err != nil {
		return err
	}
	for _, r := range records {
		for k, v := range Keys(r) {
			existing[k] = v
		}
	}
	return c.writeAll(existing)
}

func (c *Cache) writeAll(kv map[string]string) error {
	keys := make([]string, 0, len(kv))
	for k := range kv {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	tmp := c.path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return clustererr.WrapConfig(err, "stage discovery cache %s", tmp)
	}
	w := bufio.NewWriter(f)
	for _, k := range keys {
		if _, err := fmt.Fprintf(w, "%s=%s\n", k, kv[k]); err != nil {
			f.Close()
			return clustererr.WrapConfig(err, "write discovery cache %s", tmp)
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return clustererr.WrapConfig(err, "flush discovery cache %s", tmp)
	}
	if err := f.Close(); err != nil {
		return clustererr.WrapConfig(err, "close discovery cache %s", tmp)
	}
	if err := os.Rename(tmp, c.path); err != nil {
		return clustererr.WrapConfig(err, "replace discovery cache %s", c.path)
	}
	metrics.DiscoveryCacheWrites.Inc()
	return nil
}

var keyUnsafe = regexp.MustCompile(`[^A-Z0-9_]`)

// Prefix returns "MACHINERY_<REALNAME>_" with hyphens folded to underscores
// and the name upper-cased, per spec §4.4's key derivation rule.
func Prefix(realMachineName string) string {
	sanitized := keyUnsafe.ReplaceAllString(strings.ToUpper(strings.ReplaceAll(realMachineName, "-", "_")), "_")
	return "MACHINERY_" + sanitized + "_"
}

// Keys derives the full set of env-style keys for one machine's discovery
// record (spec §4.4, testable property in §8): "<prefix><IF>_INET"/"_INET6"
// per interface, plus "<prefix>IP" for the main IPv4.
func Keys(d *types.Discovery) map[string]string {
	out := map[string]string{}
	prefix := Prefix(d.Machine)
	for _, iface := range d.Interfaces {
		ifname := keyUnsafe.ReplaceAllString(strings.ToUpper(iface.Name), "_")
		if iface.Inet4 != "" {
			out[prefix+ifname+"_INET"] = iface.Inet4
		}
		if iface.Inet6 != "" {
			out[prefix+ifname+"_INET6"] = iface.Inet6
		}
	}
	if d.MainInet4 != "" {
		out[prefix+"IP"] = d.MainInet4
	}
	return out
}
