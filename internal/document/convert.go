// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package document

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// =============================================================================
// GO VALUE BRIDGE
// =============================================================================

// ToGo converts v into plain Go values: nil, bool, int64, float64, string,
// []interface{} and map[string]interface{}. Mapping order is lost.
func ToGo(v Value) interface{} {
	switch v.kind {
	case KindBool:
		return v.b
	case KindNumber:
		if v.isFloat {
			return v.f
		}
		return v.i
	case KindString:
		return v.s
	case KindSequence:
		out := make([]interface{}, len(v.seq))
		for i, e := range v.seq {
			out[i] = ToGo(e)
		}
		return out
	case KindMapping:
		out := make(map[string]interface{}, v.m.Len())
		for p := v.m.Oldest(); p != nil; p = p.Next() {
			out[p.Key] = ToGo(p.Value)
		}
		return out
	default:
		return nil
	}
}

// FromGo converts plain Go values into a Value. Go maps have no order, so
// their keys are sorted. Structs are not supported.
func FromGo(x interface{}) (Value, error) {
	switch t := x.(type) {
	case nil:
		return Null(), nil
	case Value:
		return t, nil
	case bool:
		return Bool(t), nil
	case string:
		return String(t), nil
	case int:
		return Int(int64(t)), nil
	case int64:
		return Int(t), nil
	case int32:
		return Int(int64(t)), nil
	case uint32:
		return Int(int64(t)), nil
	case float32:
		return Float(float64(t)), nil
	case float64:
		return Float(t), nil
	case []string:
		return Strings(t), nil
	case time.Time:
		return String(t.Format(time.RFC3339Nano)), nil
	case []interface{}:
		seq := make([]Value, len(t))
		for i, e := range t {
			ev, err := FromGo(e)
			if err != nil {
				return Value{}, err
			}
			seq[i] = ev
		}
		return Value{kind: KindSequence, seq: seq}, nil
	case map[string]interface{}:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		members := make([]Member, 0, len(keys))
		for _, k := range keys {
			ev, err := FromGo(t[k])
			if err != nil {
				return Value{}, err
			}
			members = append(members, Pair(k, ev))
		}
		return Mapping(members...), nil
	}

	rv := reflect.ValueOf(x)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Int(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return Int(int64(rv.Uint())), nil
	case reflect.Float32, reflect.Float64:
		return Float(rv.Float()), nil
	case reflect.String:
		return String(rv.String()), nil
	case reflect.Bool:
		return Bool(rv.Bool()), nil
	}
	return Value{}, fmt.Errorf("cannot convert %T to a document value", x)
}

// =============================================================================
// YAML
// =============================================================================

// ToYAML renders v as a YAML document, keeping mapping order.
func ToYAML(v Value) (string, error) {
	out, err := yaml.Marshal(yamlNode(v))
	if err != nil {
		return "", fmt.Errorf("failed to encode yaml: %w", err)
	}
	return string(out), nil
}

func yamlNode(v Value) *yaml.Node {
	switch v.kind {
	case KindSequence:
		n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, e := range v.seq {
			n.Content = append(n.Content, yamlNode(e))
		}
		return n
	case KindMapping:
		n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for p := v.m.Oldest(); p != nil; p = p.Next() {
			n.Content = append(n.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: p.Key},
				yamlNode(p.Value))
		}
		return n
	case KindBool:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: strconv.FormatBool(v.b)}
	case KindNumber:
		if v.isFloat {
			return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: formatFloat(v.f)}
		}
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.FormatInt(v.i, 10)}
	case KindString:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v.s}
	default:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
	}
}

// FromYAML parses a YAML document into a Value, keeping mapping order.
func FromYAML(text string) (Value, error) {
	var root yaml.Node
	if err := yaml.Unmarshal([]byte(text), &root); err != nil {
		return Value{}, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	if root.Kind == 0 {
		return Null(), nil
	}
	return fromYAMLNode(&root)
}

func fromYAMLNode(n *yaml.Node) (Value, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return Null(), nil
		}
		return fromYAMLNode(n.Content[0])
	case yaml.AliasNode:
		return fromYAMLNode(n.Alias)
	case yaml.SequenceNode:
		seq := make([]Value, 0, len(n.Content))
		for _, c := range n.Content {
			ev, err := fromYAMLNode(c)
			if err != nil {
				return Value{}, err
			}
			seq = append(seq, ev)
		}
		return Value{kind: KindSequence, seq: seq}, nil
	case yaml.MappingNode:
		members := make([]Member, 0, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			ev, err := fromYAMLNode(n.Content[i+1])
			if err != nil {
				return Value{}, err
			}
			members = append(members, Pair(n.Content[i].Value, ev))
		}
		return Mapping(members...), nil
	case yaml.ScalarNode:
		var x interface{}
		if err := n.Decode(&x); err != nil {
			return Value{}, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
		}
		return FromGo(x)
	}
	return Value{}, fmt.Errorf("%w: unsupported yaml node kind %d", ErrMalformedDocument, n.Kind)
}
