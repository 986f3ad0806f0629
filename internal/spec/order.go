package spec

import (
	"sort"

	"gopkg.in/yaml.v3"
)

// kin-openapi stores paths, properties and responses in Go maps. The helpers
// below walk the raw yaml.Node tree in parallel so Build can restore the order
// in which the author wrote them.

func parseNodeTree(raw []byte) *yaml.Node {
	var root yaml.Node
	if err := yaml.Unmarshal(raw, &root); err != nil {
		return nil
	}
	if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		return root.Content[0]
	}
	return &root
}

func deref(n *yaml.Node) *yaml.Node {
	for n != nil && n.Kind == yaml.AliasNode {
		n = n.Alias
	}
	return n
}

// child returns the value stored under key in mapping node n.
func child(n *yaml.Node, key string) *yaml.Node {
	n = deref(n)
	if n == nil || n.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Value == key {
			return deref(n.Content[i+1])
		}
	}
	return nil
}

// walk follows keys from n, stopping at the first missing step.
func walk(n *yaml.Node, keys ...string) *yaml.Node {
	for _, k := range keys {
		n = child(n, k)
		if n == nil {
			return nil
		}
	}
	return n
}

func item(n *yaml.Node, i int) *yaml.Node {
	n = deref(n)
	if n == nil || n.Kind != yaml.SequenceNode || i < 0 || i >= len(n.Content) {
		return nil
	}
	return deref(n.Content[i])
}

func keysOf(n *yaml.Node) []string {
	n = deref(n)
	if n == nil || n.Kind != yaml.MappingNode {
		return nil
	}
	out := make([]string, 0, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		out = append(out, n.Content[i].Value)
	}
	return out
}

// orderedKeys returns the keys of m in the order they appear in n. Keys that
// n does not mention follow in lexical order.
func orderedKeys[V any](m map[string]V, n *yaml.Node) []string {
	out := make([]string, 0, len(m))
	seen := make(map[string]struct{}, len(m))
	for _, k := range keysOf(n) {
		if _, ok := m[k]; !ok {
			continue
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	var rest []string
	for k := range m {
		if _, ok := seen[k]; !ok {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	return append(out, rest...)
}

// findParamNode locates the parameter node matching name and location in a
// parameters sequence.
func findParamNode(seq *yaml.Node, name, in string) *yaml.Node {
	seq = deref(seq)
	if seq == nil || seq.Kind != yaml.SequenceNode {
		return nil
	}
	for _, n := range seq.Content {
		n = deref(n)
		nameNode, inNode := child(n, "name"), child(n, "in")
		if nameNode != nil && inNode != nil && nameNode.Value == name && inNode.Value == in {
			return n
		}
	}
	return nil
}
