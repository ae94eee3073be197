package compose

import (
	"sort"

	"github.com/cuemby/shipwright/pkg/clustererr"
	"gopkg.in/yaml.v3"
)

// Marshal renders a linearised document (as returned by Linearize) back to
// YAML bytes. order, if non-nil, reproduces the document's source service
// order and each service's merged parent-then-child field order (spec
// §4.2's output contract) rather than the arbitrary order Go's map
// iteration or a plain yaml.Marshal would produce; a nil order falls back
// to a sorted, still-deterministic rendering.
func Marshal(doc map[string]interface{}, order *Order) ([]byte, error) {
	node := documentNode(doc, order)
	out, err := yaml.Marshal(node)
	if err != nil {
		return nil, clustererr.WrapConfig(err, "marshal linearised compose document")
	}
	return out, nil
}

// documentNode builds the top-level {version, services} mapping node for
// doc, ordering services per order.Services and each service's fields per
// order.Keys, falling back to a sorted order for anything order doesn't
// cover.
func documentNode(doc map[string]interface{}, order *Order) *yaml.Node {
	root := &yaml.Node{Kind: yaml.MappingNode}
	if v, ok := doc["version"]; ok {
		root.Content = append(root.Content, scalarPair("version", v)...)
	}

	services, _ := doc["services"].(map[string]interface{})
	svcNode := &yaml.Node{Kind: yaml.MappingNode}
	for _, name := range serviceOrder(services, order) {
		svc, _ := services[name].(map[string]interface{})
		var keys []string
		if order != nil {
			keys = order.Keys[name]
		}
		keyNode := &yaml.Node{Kind: yaml.ScalarNode, Value: name}
		svcNode.Content = append(svcNode.Content, keyNode, mappingNode(svc, keys))
	}
	root.Content = append(root.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: "services"}, svcNode)
	return root
}

// serviceOrder returns services' names per order.Services, appending any
// name order doesn't mention (sorted, for determinism) at the end.
func serviceOrder(services map[string]interface{}, order *Order) []string {
	seen := make(map[string]bool, len(services))
	var out []string
	if order != nil {
		for _, name := range order.Services {
			if _, ok := services[name]; ok && !seen[name] {
				out = append(out, name)
				seen[name] = true
			}
		}
	}
	var extra []string
	for name := range services {
		if !seen[name] {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	return append(out, extra...)
}

// mappingNode builds a mapping node for m, fields ordered per keys first,
// then any field keys doesn't mention (sorted, for determinism).
func mappingNode(m map[string]interface{}, keys []string) *yaml.Node {
	node := &yaml.Node{Kind: yaml.MappingNode}
	seen := make(map[string]bool, len(m))
	for _, k := range keys {
		v, ok := m[k]
		if !ok || seen[k] {
			continue
		}
		seen[k] = true
		node.Content = append(node.Content, scalarPair(k, v)...)
	}
	var extra []string
	for k := range m {
		if !seen[k] {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	for _, k := range extra {
		node.Content = append(node.Content, scalarPair(k, m[k])...)
	}
	return node
}

// scalarPair encodes a (key, value) pair as a [keyNode, valueNode] slice
// ready to append to a mapping node's Content.
func scalarPair(key string, value interface{}) []*yaml.Node {
	keyNode := &yaml.Node{Kind: yaml.ScalarNode, Value: key}
	valNode := &yaml.Node{}
	_ = valNode.Encode(value)
	return []*yaml.Node{keyNode, valNode}
}

// ServiceNames returns the service names of a linearised document, sorted,
// for callers that want a deterministic listing.
func ServiceNames(doc map[string]interface{}) []string {
	services, _ := doc["services"].(map[string]interface{})
	names := make([]string, 0, len(services))
	for name := range services {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
