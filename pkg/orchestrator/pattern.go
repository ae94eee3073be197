package orchestrator

import (
	"path"

	"github.com/cuemby/shipwright/pkg/types"
)

// Matches reports whether m's logical name, real name, or any alias
// matches glob pattern (spec §4.11).
func Matches(cluster *types.Cluster, m *types.Machine, pattern string) bool {
	candidates := append([]string{m.Name, cluster.RealName(m.Name)}, m.Aliases...)
	for _, c := range candidates {
		if ok, err := path.Match(pattern, c); err == nil && ok {
			return true
		}
	}
	return false
}

// Select returns cluster's non-hidden machines matching any of patterns (an
// empty list selects all), further narrowed to those also matching any of
// restrict when restrict is non-empty (the "-restrict" flag, spec §4.11).
func Select(cluster *types.Cluster, patterns, restrict []string) []*types.Machine {
	var out []*types.Machine
	for _, m := range cluster.Machines {
		if !matchesAny(cluster, m, patterns) {
			continue
		}
		if len(restrict) > 0 && !matchesAny(cluster, m, restrict) {
			continue
		}
		out = append(out, m)
	}
	return out
}

func matchesAny(cluster *types.Cluster, m *types.Machine, patterns []string) bool {
	if len(patterns) == 0 {
		return true
	}
	for _, p := range patterns {
		if Matches(cluster, m, p) {
			return true
		}
	}
	return false
}
