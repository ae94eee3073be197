package lifecycle

import (
	"fmt"
	"sort"

	"github.com/cuemby/shipwright/pkg/types"
)

// sizeFlags translates a machine's cpu/memory/disk into the docker-machine
// create flags the named driver recognises (spec §4.10, item 1: "cpu/memory/
// size translations"). virtualbox is the only driver with well-known,
// stable flag names across docker-machine's lifetime; everything else falls
// back to the "--<driver>-{cpu-count,memory,disk-size}" convention the
// majority of third-party drivers follow.
func sizeFlags(driver string, m *types.Machine) []string {
	var flags []string
	cpuFlag, memFlag, diskFlag := "--"+driver+"-cpu-count", "--"+driver+"-memory", "--"+driver+"-disk-size"
	if driver == "virtualbox" {
		cpuFlag, memFlag, diskFlag = "--virtualbox-cpu-count", "--virtualbox-memory", "--virtualbox-disk-size"
	}
	if m.CPUs > 0 {
		flags = append(flags, cpuFlag, fmt.Sprintf("%d", m.CPUs))
	}
	if m.MemoryMB > 0 {
		flags = append(flags, memFlag, fmt.Sprintf("%d", m.MemoryMB))
	}
	if m.DiskMB > 0 {
		flags = append(flags, diskFlag, fmt.Sprintf("%d", m.DiskMB))
	}
	return flags
}

// sortedKeys returns m's keys in lexical order, for deterministic argv
// construction.
func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// driverOptFlags renders a machine's raw DriverOpts into "--<driver>-<key>
// value" flags, repeating the flag for each element of a []string value.
func driverOptFlags(driver string, opts map[string]interface{}) []string {
	keys := make([]string, 0, len(opts))
	for k := range opts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var flags []string
	for _, k := range keys {
		v := opts[k]
		flagName := fmt.Sprintf("--%s-%s", driver, k)
		switch val := v.(type) {
		case []string:
			for _, item := range val {
				flags = append(flags, flagName, item)
			}
		case []interface{}:
			for _, item := range val {
				flags = append(flags, flagName, fmt.Sprintf("%v", item))
			}
		case bool:
			if val {
				flags = append(flags, flagName)
			}
		default:
			flags = append(flags, flagName, fmt.Sprintf("%v", v))
		}
	}
	return flags
}
