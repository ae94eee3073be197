package compose

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/cuemby/shipwright/pkg/clustererr"
	"gopkg.in/yaml.v3"
)

const maxExtendsDepth = 10

// document is one loaded Compose file.
type document struct {
	path     string
	version  string
	services map[string]map[string]interface{}
	order    []string            // service names, in source order
	keyOrder map[string][]string // service name -> its own field key order
}

// Order captures the source ordering Linearize observed so Marshal can
// reproduce it: service order, and each merged service's field-key order
// (parent-then-child, spec §4.2's output contract).
type Order struct {
	Services []string
	Keys     map[string][]string
}

// Linearize loads the Compose file at path and returns a document with every
// service's "extends" fully expanded: no "extends" key remains under any
// service, the top-level "version" is preserved, and services are ordered
// as they first appeared in the root file (spec §4.2's output contract). The
// returned *Order lets Marshal reproduce that source order and the merged
// parent-then-child field order on output.
func Linearize(path string) (map[string]interface{}, *Order, error) {
	cache := map[string]*document{}
	root, err := load(path, cache)
	if err != nil {
		return nil, nil, err
	}

	resolved := map[string]map[string]interface{}{}
	keyOrders := map[string][]string{}
	visiting := map[string]bool{}
	for _, name := range root.order {
		svc, keys, err := resolve(root, name, cache, visiting, 0)
		if err != nil {
			return nil, nil, err
		}
		resolved[name] = svc
		keyOrders[name] = keys
	}

	out := map[string]interface{}{}
	if root.version != "" {
		out["version"] = root.version
	}
	services := map[string]interface{}{}
	for _, name := range root.order {
		services[name] = resolved[name]
	}
	out["services"] = services
	order := &Order{Services: append([]string(nil), root.order...), Keys: keyOrders}
	return out, order, nil
}

// load reads and caches the Compose document at path.
func load(path string, cache map[string]*document) (*document, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, clustererr.WrapConfig(err, "resolve compose path %s", path)
	}
	if d, ok := cache[abs]; ok {
		return d, nil
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, clustererr.WrapConfig(err, "read compose file %s", abs)
	}

	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, clustererr.WrapConfig(err, "parse compose YAML %s", abs)
	}
	var docNode *yaml.Node
	if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		docNode = root.Content[0]
	}

	var raw map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, clustererr.WrapConfig(err, "parse compose YAML %s", abs)
	}

	d := &document{path: abs}
	if v, ok := raw["version"]; ok {
		d.version, _ = v.(string)
	}

	var svcRaw map[string]interface{}
	var svcNode *yaml.Node
	if v2, ok := raw["services"].(map[string]interface{}); ok {
		svcRaw = v2
		svcNode = mappingValue(docNode, "services")
	} else {
		// v1 Compose files have no top-level "version" or "services" key:
		// every non-reserved top-level key is itself a service.
		svcRaw = map[string]interface{}{}
		for k, v := range raw {
			if k == "version" {
				continue
			}
			svcRaw[k] = v
		}
		svcNode = docNode
	}

	d.services = map[string]map[string]interface{}{}
	for name, v := range svcRaw {
		m, ok := v.(map[string]interface{})
		if !ok {
			return nil, clustererr.ConfigError("service %q in %s: definition must be a mapping", name, abs)
		}
		d.services[name] = m
	}

	// Recover the true source order from the YAML node tree (the map
	// decode above loses it); fall back to a sorted order if the node
	// walk can't find a matching mapping (e.g. an empty document).
	d.keyOrder = map[string][]string{}
	seen := map[string]bool{}
	for i := 0; i+1 < len(nodeContent(svcNode)); i += 2 {
		name := nodeContent(svcNode)[i].Value
		if _, ok := d.services[name]; !ok || seen[name] {
			continue
		}
		seen[name] = true
		d.order = append(d.order, name)
		d.keyOrder[name] = mappingKeysOf(nodeContent(svcNode)[i+1])
	}
	if len(d.order) != len(d.services) {
		d.order = d.order[:0]
		for name := range d.services {
			d.order = append(d.order, name)
		}
		sort.Strings(d.order)
	}

	cache[abs] = d
	return d, nil
}

// mappingValue returns the value node mapped to key in mapping node n, or
// nil if n is not a mapping or has no such key.
func mappingValue(n *yaml.Node, key string) *yaml.Node {
	if n == nil || n.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Value == key {
			return n.Content[i+1]
		}
	}
	return nil
}

// nodeContent returns n.Content, or nil if n is nil.
func nodeContent(n *yaml.Node) []*yaml.Node {
	if n == nil {
		return nil
	}
	return n.Content
}

// mappingKeysOf returns the top-level keys of mapping node n, in document
// order.
func mappingKeysOf(n *yaml.Node) []string {
	if n == nil || n.Kind != yaml.MappingNode {
		return nil
	}
	keys := make([]string, 0, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		keys = append(keys, n.Content[i].Value)
	}
	return keys
}

// extendsTarget is the parsed form of a service's "extends:" value.
type extendsTarget struct {
	file    string
	service string
}

func parseExtends(v interface{}) (*extendsTarget, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case string:
		return &extendsTarget{service: t}, nil
	case map[string]interface{}:
		target := &extendsTarget{}
		if s, ok := t["service"].(string); ok {
			target.service = s
		} else {
			return nil, clustererr.ConfigError("extends mapping missing \"service\"")
		}
		if f, ok := t["file"].(string); ok {
			target.file = f
		}
		return target, nil
	default:
		return nil, clustererr.ConfigError("extends must be a string or mapping")
	}
}

// resolve linearises service name in doc, recursively resolving its extends
// chain first, and returns the merged field-key order alongside the merged
// values: parent's keys (minus any the child also sets) followed by the
// child's keys, so an overridden key takes the child's position (spec
// §4.2's "merged mappings preserve parent-then-child key order with
// duplicates removed keeping child position"). visiting keys are
// "path\x00service" for cross-file cycle detection.
func resolve(doc *document, name string, cache map[string]*document, visiting map[string]bool, depth int) (map[string]interface{}, []string, error) {
	if depth > maxExtendsDepth {
		return nil, nil, clustererr.ConfigError("service %q: extends depth exceeds %d", name, depth)
	}
	key := doc.path + "\x00" + name
	if visiting[key] {
		return nil, nil, clustererr.ConfigError("extends cycle detected at service %q in %s", name, doc.path)
	}
	own, ok := doc.services[name]
	if !ok {
		return nil, nil, clustererr.ConfigError("service %q not found in %s", name, doc.path)
	}
	ownKeys := doc.keyOrder[name]

	target, err := parseExtends(own["extends"])
	if err != nil {
		return nil, nil, clustererr.WrapConfig(err, "service %q in %s", name, doc.path)
	}
	if target == nil {
		return copyMap(own), append([]string(nil), ownKeys...), nil
	}

	visiting[key] = true
	defer delete(visiting, key)

	parentDoc := doc
	crossFile := false
	if target.file != "" {
		parentPath := filepath.Join(filepath.Dir(doc.path), target.file)
		parentDoc, err = load(parentPath, cache)
		if err != nil {
			return nil, nil, err
		}
		crossFile = true
	}

	parentResolved, parentKeys, err := resolve(parentDoc, target.service, cache, visiting, depth+1)
	if err != nil {
		return nil, nil, err
	}

	childOwn := copyMap(own)
	delete(childOwn, "extends")
	childKeys := removeKey(ownKeys, "extends")

	merged := mergeService(parentResolved, childOwn, crossFile)
	mergedKeys := mergeKeyOrder(parentKeys, childKeys)
	return merged, mergedKeys, nil
}

func copyMap(m map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// removeKey returns keys without any occurrence of target.
func removeKey(keys []string, target string) []string {
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if k != target {
			out = append(out, k)
		}
	}
	return out
}

// mergeKeyOrder implements spec §4.2's merged-key-order rule: parent's
// unique keys first, then all of the child's keys (so a key the child also
// sets is dropped from the parent position and appears at its child
// position instead).
func mergeKeyOrder(parentKeys, childKeys []string) []string {
	childSet := make(map[string]bool, len(childKeys))
	for _, k := range childKeys {
		childSet[k] = true
	}
	out := make([]string, 0, len(parentKeys)+len(childKeys))
	for _, k := range parentKeys {
		if !childSet[k] {
			out = append(out, k)
		}
	}
	out = append(out, childKeys...)
	return out
}
