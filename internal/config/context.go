package config

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/codex-k8s/werkschrift/internal/marker"
)

// Context is a marker context decoded from a YAML mapping in document order.
// Quoted and plain string scalars become strings; numbers, booleans, nulls and
// nested collections keep their YAML type and are ignored by the marker codec.
type Context struct {
	marker.Context
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (c *Context) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode && node.Tag == "!!null" {
		c.Context = nil
		return nil
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: context must be a mapping", node.Line)
	}

	out := make(marker.Context, 0, len(node.Content)/2)
	seen := make(map[string]struct{}, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode, valueNode := node.Content[i], node.Content[i+1]
		if keyNode.Kind != yaml.ScalarNode {
			return fmt.Errorf("line %d: context keys must be scalars", keyNode.Line)
		}
		name := keyNode.Value
		if _, dup := seen[name]; dup {
			return fmt.Errorf("line %d: duplicate context key %q", keyNode.Line, name)
		}
		seen[name] = struct{}{}

		var value any
		if valueNode.Kind == yaml.ScalarNode && valueNode.ShortTag() == "!!str" {
			value = valueNode.Value
		} else if err := valueNode.Decode(&value); err != nil {
			return fmt.Errorf("line %d: decode context value %q: %w", valueNode.Line, name, err)
		}
		out = append(out, marker.Attribute{Name: name, Value: value})
	}
	c.Context = out
	return nil
}

// MarshalYAML implements yaml.Marshaler, keeping attribute order.
func (c Context) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, attr := range c.Context {
		var value yaml.Node
		if err := value.Encode(attr.Value); err != nil {
			return nil, fmt.Errorf("encode context value %q: %w", attr.Name, err)
		}
		node.Content = append(node.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: attr.Name}, &value)
	}
	return node, nil
}
