package compose

import "strings"

// nonInherited lists the service keys that are pass-through only within the
// same file and are never carried across an "extends: {file: ...}" boundary
// (spec §4.2, matching Compose v2 semantics).
var nonInherited = map[string]bool{
	"extends":      true,
	"links":        true,
	"volumes_from": true,
	"depends_on":   true,
	"net":          true,
}

// listKeyOf returns the semantic de-duplication key extractor for a known
// list-valued service field, or nil if the field replaces outright.
func listKeyOf(field string) func(interface{}) string {
	switch field {
	case "environment":
		return envKey
	case "ports":
		return portKey
	case "volumes":
		return volumeKey
	case "labels":
		return labelKey
	default:
		return nil
	}
}

// envKey extracts the variable name from either "NAME=value" or "NAME"
// list-string forms.
func envKey(v interface{}) string {
	s, ok := v.(string)
	if !ok {
		return ""
	}
	if i := strings.IndexByte(s, '='); i >= 0 {
		return s[:i]
	}
	return s
}

// portKey extracts "hostPort/protocol" from a "host:guest[/proto]" or bare
// "port[/proto]" mapping string.
func portKey(v interface{}) string {
	s, ok := v.(string)
	if !ok {
		return ""
	}
	proto := "tcp"
	if i := strings.IndexByte(s, '/'); i >= 0 {
		proto = s[i+1:]
		s = s[:i]
	}
	host := s
	if i := strings.IndexByte(s, ':'); i >= 0 {
		host = s[:i]
	}
	return host + "/" + proto
}

// volumeKey extracts the container-side path from a "host:container[:mode]"
// or bare "container" volume string.
func volumeKey(v interface{}) string {
	s, ok := v.(string)
	if !ok {
		return ""
	}
	parts := strings.Split(s, ":")
	if len(parts) >= 2 {
		return parts[1]
	}
	return parts[0]
}

// labelKey extracts the label name from either "KEY=value" list-string form
// or (when labels is a mapping) the map key directly via mergeMapping.
func labelKey(v interface{}) string {
	return envKey(v)
}

// mergeService merges child onto parent: mappings merge key by key (child
// wins on scalars), known lists de-duplicate by their semantic key with the
// child's entry replacing the parent's at the parent's position, and the
// non-inherited keys are only ever taken from child, never from parent,
// when parent came from a different file (crossFile).
func mergeService(parent, child map[string]interface{}, crossFile bool) map[string]interface{} {
	out := map[string]interface{}{}
	for k, v := range parent {
		if crossFile && nonInherited[k] {
			continue
		}
		out[k] = v
	}
	for k, cv := range child {
		pv, exists := out[k]
		if !exists {
			out[k] = cv
			continue
		}
		if keyer := listKeyOf(k); keyer != nil {
			if pl, ok := pv.([]interface{}); ok {
				if cl, ok := cv.([]interface{}); ok {
					out[k] = mergeListByKey(pl, cl, keyer)
					continue
				}
			}
		}
		if pm, ok := pv.(map[string]interface{}); ok {
			if cm, ok := cv.(map[string]interface{}); ok {
				out[k] = mergeMapping(pm, cm)
				continue
			}
		}
		out[k] = cv
	}
	return out
}

// mergeListByKey concatenates parent then child, a child entry whose key
// matches a parent entry replacing it in place; entries with no semantic
// key (keyer returns "") are kept as-is from both sides.
func mergeListByKey(parent, child []interface{}, keyer func(interface{}) string) []interface{} {
	out := make([]interface{}, 0, len(parent)+len(child))
	index := map[string]int{}
	for _, e := range parent {
		k := keyer(e)
		if k != "" {
			index[k] = len(out)
		}
		out = append(out, e)
	}
	for _, e := range child {
		k := keyer(e)
		if k != "" {
			if idx, ok := index[k]; ok {
				out[idx] = e
				continue
			}
			index[k] = len(out)
		}
		out = append(out, e)
	}
	return out
}

// mergeMapping merges a map-form field (e.g. "labels:" written as a
// mapping rather than a list), child winning per key.
func mergeMapping(parent, child map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(parent)+len(child))
	for k, v := range parent {
		out[k] = v
	}
	for k, v := range child {
		out[k] = v
	}
	return out
}
