package yamlmodel

import (
	"strings"

	"github.com/cuemby/shipwright/pkg/clustererr"
)

const maxExtendsDepth = 10

// listKeyFields maps a raw-machine list field name to the field(s) within
// each list element that form its semantic identity for append-unique
// merging (spec §4.1). A single string names one field; entries joined with
// "+" name a composite key.
var listKeyFields = map[string]string{
	"ports":    "hostPort+protocol",
	"shares":   "guestPath",
	"files":    "destination",
	"images":   "",
	"compose":  "file",
	"prelude":  "exec+args",
	"addendum": "exec+args",
}

// resolveExtends returns the fully merged raw definition for machine name,
// recursively resolving its extends chain: resolve(P1), resolve(P2), ...,
// resolve(Pk), with the machine's own keys layered on top.
func resolveExtends(name string, all map[string]map[string]interface{}, visiting map[string]bool, depth int) (map[string]interface{}, error) {
	if depth > maxExtendsDepth {
		return nil, clustererr.ConfigError("machine %q: extends depth exceeds %d", name, maxExtendsDepth)
	}
	def, ok := all[name]
	if !ok {
		return nil, clustererr.ConfigError("extends references unknown machine %q", name)
	}
	if visiting[name] {
		return nil, clustererr.ConfigError("extends cycle detected at %q", name)
	}

	parents, err := parentNames(def["extends"])
	if err != nil {
		return nil, clustererr.WrapConfig(err, "machine %q: invalid extends", name)
	}
	if len(parents) == 0 {
		return copyRaw(def), nil
	}

	visiting[name] = true
	defer delete(visiting, name)

	merged := map[string]interface{}{}
	for _, p := range parents {
		presolved, err := resolveExtends(p, all, visiting, depth+1)
		if err != nil {
			return nil, err
		}
		merged = mergeRaw(merged, presolved).(map[string]interface{})
	}
	own := copyRaw(def)
	delete(own, "extends")
	merged = mergeRaw(merged, own).(map[string]interface{})
	return merged, nil
}

func parentNames(v interface{}) ([]string, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case string:
		return []string{t}, nil
	case []interface{}:
		names := make([]string, 0, len(t))
		for _, e := range t {
			s, ok := e.(string)
			if !ok {
				return nil, clustererr.ConfigError("extends list entries must be strings")
			}
			names = append(names, s)
		}
		return names, nil
	default:
		return nil, clustererr.ConfigError("extends must be a string or list of strings")
	}
}

// mergeRaw recursively merges b onto a: mappings merge key by key, scalars
// are replaced by b, and lists matching a known semantic key in
// listKeyFields are appended-unique (b's entries keyed the same as an a
// entry are merged onto it at the parent's position; new keys append at the
// end in b's order). Lists with no known key are replaced outright (spec
// §4.1). Compose service merging lives in pkg/compose and does not use this
// function.
func mergeRaw(a, b interface{}) interface{} {
	am, aIsMap := a.(map[string]interface{})
	bm, bIsMap := b.(map[string]interface{})
	if aIsMap && bIsMap {
		out := map[string]interface{}{}
		for k, v := range am {
			out[k] = v
		}
		for k, bv := range bm {
			av, exists := out[k]
			if !exists {
				out[k] = bv
				continue
			}
			if key, ok := listKeyFields[k]; ok {
				if al, aok := av.([]interface{}); aok {
					if bl, bok := bv.([]interface{}); bok {
						out[k] = mergeListByKey(al, bl, key)
						continue
					}
				}
			}
			out[k] = mergeRaw(av, bv)
		}
		return out
	}
	// Scalars (and type mismatches, and unregistered lists): b replaces a.
	return b
}

// mergeListByKey appends b onto a, keyed by key: an element of b whose key
// matches an element of a is merged onto it (mergeRaw) in a's position; elements of b with a
// new key are appended in b's order after a's elements.
func mergeListByKey(a, b []interface{}, key string) []interface{} {
	if key == "" {
		// No semantic key (e.g. "images"): de-duplicate by the scalar
		// value itself; a duplicate replaces the earlier entry in its position.
		seen := map[string]int{}
		out := make([]interface{}, 0, len(a)+len(b))
		for _, e := range a {
			k := elemKey(e, "")
			if idx, ok := seen[k]; ok {
				out[idx] = e
				continue
			}
			seen[k] = len(out)
			out = append(out, e)
		}
		for _, e := range b {
			k := elemKey(e, "")
			if idx, ok := seen[k]; ok {
				out[idx] = e
				continue
			}
			seen[k] = len(out)
			out = append(out, e)
		}
		return out
	}

	out := make([]interface{}, 0, len(a)+len(b))
	index := map[string]int{}
	for _, e := range a {
		k := elemKey(e, key)
		index[k] = len(out)
		out = append(out, e)
	}
	for _, e := range b {
		k := elemKey(e, key)
		if idx, ok := index[k]; ok {
			out[idx] = mergeRaw(out[idx], e)
			continue
		}
		index[k] = len(out)
		out = append(out, e)
	}
	return out
}

// elemKey computes the semantic identity of a list element for a composite
// key spec like "hostPort+protocol" or "exec+args", or for a plain scalar
// when key is "".
func elemKey(e interface{}, key string) string {
	if key == "" {
		return toString(e)
	}
	m, ok := e.(map[string]interface{})
	if !ok {
		return toString(e)
	}
	parts := strings.Split(key, "+")
	var out string
	for i, p := range parts {
		if i > 0 {
			out += "\x00"
		}
		out += toString(m[p])
	}
	return out
}

func copyRaw(m map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
