package value

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// FromYAML decodes a YAML document into a Value. JSON documents are valid
// YAML and decode the same way.
//
// Mapping order is preserved, integers and floats stay distinct, and null
// entries are dropped from maps. An empty document yields an empty map.
func FromYAML(data []byte) (Value, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Missing(), fmt.Errorf("decoding data: %w", err)
	}
	if doc.Kind == 0 {
		return FromMap(NewMap()), nil
	}
	return fromNode(&doc)
}

// FromYAMLNode converts an already decoded YAML node, such as a field of a
// larger document. A nil or zero node yields an empty map.
func FromYAMLNode(n *yaml.Node) (Value, error) {
	if n == nil || n.Kind == 0 {
		return FromMap(NewMap()), nil
	}
	return fromNode(n)
}

func fromNode(n *yaml.Node) (Value, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return FromMap(NewMap()), nil
		}
		return fromNode(n.Content[0])
	case yaml.AliasNode:
		return fromNode(n.Alias)
	case yaml.MappingNode:
		m := NewMap()
		for i := 0; i+1 < len(n.Content); i += 2 {
			key, val := n.Content[i], n.Content[i+1]
			v, err := fromNode(val)
			if err != nil {
				return Missing(), err
			}
			if v.IsMissing() {
				continue
			}
			m.Set(key.Value, v)
		}
		return FromMap(m), nil
	case yaml.SequenceNode:
		items := make([]Value, 0, len(n.Content))
		for _, child := range n.Content {
			v, err := fromNode(child)
			if err != nil {
				return Missing(), err
			}
			items = append(items, v)
		}
		return FromList(items), nil
	case yaml.ScalarNode:
		return fromScalar(n)
	default:
		return Missing(), fmt.Errorf("line %d: unsupported yaml node kind %d", n.Line, n.Kind)
	}
}

func fromScalar(n *yaml.Node) (Value, error) {
	switch n.ShortTag() {
	case "!!null":
		return Missing(), nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return Missing(), fmt.Errorf("line %d: %w", n.Line, err)
		}
		return FromBool(b), nil
	case "!!int":
		var i int64
		if err := n.Decode(&i); err == nil {
			return FromInt(i), nil
		}
		var f float64
		if err := n.Decode(&f); err != nil {
			return Missing(), fmt.Errorf("line %d: %w", n.Line, err)
		}
		return FromFloat(f), nil
	case "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			return Missing(), fmt.Errorf("line %d: %w", n.Line, err)
		}
		return FromFloat(f), nil
	default:
		return FromString(n.Value), nil
	}
}
