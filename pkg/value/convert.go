package value

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"

	"gopkg.in/yaml.v3"
)

// FromGo converts a native Go value into a Value. It accepts nil, bool, all
// integer and float kinds, string, []byte (as a string), json.Number, Value,
// slices and arrays, and maps with string keys. Map keys are sorted because
// Go maps carry no order.
func FromGo(x any) (Value, error) {
	switch t := x.(type) {
	case nil:
		return Null(), nil
	case Value:
		return t, nil
	case *Array:
		return FromArray(t), nil
	case *Object:
		return FromObject(t), nil
	case bool:
		return Bool(t), nil
	case string:
		return String(t), nil
	case []byte:
		return String(string(t)), nil
	case json.Number:
		f, err := strconv.ParseFloat(string(t), 64)
		if err != nil {
			return Value{}, fmt.Errorf("value: invalid number %q: %w", t, err)
		}
		return Number(f), nil
	case float64:
		return Number(t), nil
	case float32:
		return Number(float64(t)), nil
	case int:
		return Int(int64(t)), nil
	case int64:
		return Int(t), nil
	case []any:
		arr := NewArray()
		for i, item := range t {
			v, err := FromGo(item)
			if err != nil {
				return Value{}, fmt.Errorf("[%d]: %w", i, err)
			}
			arr.Append(v)
		}
		return FromArray(arr), nil
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		obj := NewObject()
		for _, k := range keys {
			v, err := FromGo(t[k])
			if err != nil {
				return Value{}, fmt.Errorf(".%s: %w", k, err)
			}
			obj.Set(k, v)
		}
		return FromObject(obj), nil
	}
	return fromReflect(reflect.ValueOf(x))
}

func fromReflect(rv reflect.Value) (Value, error) {
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Int(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return Number(float64(rv.Uint())), nil
	case reflect.Float32, reflect.Float64:
		return Number(rv.Float()), nil
	case reflect.Bool:
		return Bool(rv.Bool()), nil
	case reflect.String:
		return String(rv.String()), nil
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return Null(), nil
		}
		return FromGo(rv.Elem().Interface())
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return FromArray(nil), nil
		}
		arr := NewArray()
		for i := 0; i < rv.Len(); i++ {
			v, err := FromGo(rv.Index(i).Interface())
			if err != nil {
				return Value{}, fmt.Errorf("[%d]: %w", i, err)
			}
			arr.Append(v)
		}
		return FromArray(arr), nil
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return Value{}, fmt.Errorf("value: unsupported map key type %s", rv.Type().Key())
		}
		keys := make([]string, 0, rv.Len())
		for _, k := range rv.MapKeys() {
			keys = append(keys, k.String())
		}
		sort.Strings(keys)
		obj := NewObject()
		for _, k := range keys {
			v, err := FromGo(rv.MapIndex(reflect.ValueOf(k).Convert(rv.Type().Key())).Interface())
			if err != nil {
				return Value{}, fmt.Errorf(".%s: %w", k, err)
			}
			obj.Set(k, v)
		}
		return FromObject(obj), nil
	case reflect.Invalid:
		return Null(), nil
	}
	return Value{}, fmt.Errorf("value: unsupported type %s", rv.Type())
}

// ToGo converts v into plain Go data: nil, bool, float64, string, []any and
// map[string]any. Object order is lost. Inputs must be acyclic.
func (v Value) ToGo() any {
	switch v.kind {
	case KindBool:
		return v.b
	case KindNumber:
		return v.n
	case KindString:
		return v.s
	case KindArray:
		out := make([]any, 0, v.arr.Len())
		for _, item := range v.arr.items {
			out = append(out, item.ToGo())
		}
		return out
	case KindObject:
		out := make(map[string]any, v.obj.Len())
		for i, k := range v.obj.keys {
			out[k] = v.obj.vals[i].ToGo()
		}
		return out
	}
	return nil
}

// FromYAML converts a YAML node into a Value, keeping mapping order.
// Aliases are resolved; anchors must not be recursive.
func FromYAML(node *yaml.Node) (Value, error) {
	return fromYAML(node, 0)
}

func fromYAML(node *yaml.Node, depth int) (Value, error) {
	if node == nil {
		return Null(), nil
	}
	if depth > maxDepth {
		return Value{}, fmt.Errorf("value: yaml nesting too deep at line %d", node.Line)
	}
	switch node.Kind {
	case yaml.DocumentNode:
		if len(node.Content) == 0 {
			return Null(), nil
		}
		return fromYAML(node.Content[0], depth+1)
	case yaml.AliasNode:
		return fromYAML(node.Alias, depth+1)
	case yaml.SequenceNode:
		arr := NewArray()
		for _, child := range node.Content {
			v, err := fromYAML(child, depth+1)
			if err != nil {
				return Value{}, err
			}
			arr.Append(v)
		}
		return FromArray(arr), nil
	case yaml.MappingNode:
		obj := NewObject()
		for i := 0; i+1 < len(node.Content); i += 2 {
			key := node.Content[i]
			if key.Kind != yaml.ScalarNode {
				return Value{}, fmt.Errorf("value: non-scalar mapping key at line %d", key.Line)
			}
			v, err := fromYAML(node.Content[i+1], depth+1)
			if err != nil {
				return Value{}, err
			}
			obj.Set(key.Value, v)
		}
		return FromObject(obj), nil
	case yaml.ScalarNode:
		return fromYAMLScalar(node)
	}
	return Value{}, fmt.Errorf("value: unsupported yaml node kind %d at line %d", node.Kind, node.Line)
}

func fromYAMLScalar(node *yaml.Node) (Value, error) {
	switch node.ShortTag() {
	case "!!null":
		return Null(), nil
	case "!!bool":
		var b bool
		if err := node.Decode(&b); err != nil {
			return Value{}, err
		}
		return Bool(b), nil
	case "!!int", "!!float":
		var f float64
		if err := node.Decode(&f); err != nil {
			return Value{}, err
		}
		return Number(f), nil
	default:
		return String(node.Value), nil
	}
}

// ToYAML converts v into a YAML node tree, keeping object key order.
// Inputs must be acyclic.
func ToYAML(v Value) *yaml.Node {
	switch v.kind {
	case KindBool:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: strconv.FormatBool(v.b)}
	case KindNumber:
		if math.IsNaN(v.n) || math.IsInf(v.n, 0) {
			break
		}
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: numberTag(v.n), Value: string(appendNumber(nil, v.n))}
	case KindString:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v.s}
	case KindArray:
		node := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, item := range v.arr.items {
			node.Content = append(node.Content, ToYAML(item))
		}
		return node
	case KindObject:
		node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for i, k := range v.obj.keys {
			node.Content = append(node.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k},
				ToYAML(v.obj.vals[i]))
		}
		return node
	}
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
}

func numberTag(f float64) string {
	if isIntegral(f) && math.Abs(f) < 1e21 {
		return "!!int"
	}
	return "!!float"
}
