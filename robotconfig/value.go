package robotconfig

import (
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"
)

// ValueKind tags the variant held by a Value.
type ValueKind int

// Value variants.
const (
	KindNull ValueKind = iota
	KindString
	KindNumber
	KindBool
	KindSequence
	KindMapping
)

// String returns the variant name.
func (k ValueKind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindSequence:
		return "sequence"
	case KindMapping:
		return "mapping"
	default:
		return "null"
	}
}

// Value is one node of a schema-less plugin document: a string, number,
// bool, sequence, mapping or null. Accessors report whether the value holds
// the requested variant instead of failing.
type Value struct {
	kind ValueKind
	str  string
	num  float64
	b    bool
	seq  []Value
	m    Descriptor
}

// String, Number, Bool, Sequence and Mapping build Values.
func String(s string) Value         { return Value{kind: KindString, str: s} }
func Number(f float64) Value        { return Value{kind: KindNumber, num: f} }
func Bool(b bool) Value             { return Value{kind: KindBool, b: b} }
func Sequence(items ...Value) Value { return Value{kind: KindSequence, seq: items} }
func Mapping(d Descriptor) Value    { return Value{kind: KindMapping, m: d} }

// Kind returns the held variant.
func (v Value) Kind() ValueKind { return v.kind }

// AsString returns the string held by v.
func (v Value) AsString() (string, bool) {
	return v.str, v.kind == KindString
}

// AsNumber returns the number held by v.
func (v Value) AsNumber() (float64, bool) {
	return v.num, v.kind == KindNumber
}

// AsBool returns the bool held by v.
func (v Value) AsBool() (bool, bool) {
	return v.b, v.kind == KindBool
}

// AsSequence returns the items held by v.
func (v Value) AsSequence() ([]Value, bool) {
	return v.seq, v.kind == KindSequence
}

// AsMapping returns the mapping held by v.
func (v Value) AsMapping() (Descriptor, bool) {
	return v.m, v.kind == KindMapping
}

// Interface converts v into plain Go values (string, float64, bool, []any,
// map[string]any, nil), suitable for JSON encoding.
func (v Value) Interface() any {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return v.num
	case KindBool:
		return v.b
	case KindSequence:
		out := make([]any, len(v.seq))
		for i, item := range v.seq {
			out[i] = item.Interface()
		}
		return out
	case KindMapping:
		return v.m.Interface()
	default:
		return nil
	}
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (v *Value) UnmarshalYAML(node *yaml.Node) error {
	parsed, err := valueFromNode(node)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

func valueFromNode(node *yaml.Node) (Value, error) {
	switch node.Kind {
	case yaml.DocumentNode:
		if len(node.Content) == 0 {
			return Value{}, nil
		}
		return valueFromNode(node.Content[0])
	case yaml.AliasNode:
		return valueFromNode(node.Alias)
	case yaml.ScalarNode:
		return scalarValue(node)
	case yaml.SequenceNode:
		items := make([]Value, 0, len(node.Content))
		for _, child := range node.Content {
			item, err := valueFromNode(child)
			if err != nil {
				return Value{}, err
			}
			items = append(items, item)
		}
		return Sequence(items...), nil
	case yaml.MappingNode:
		d := make(Descriptor, len(node.Content)/2)
		for i := 0; i+1 < len(node.Content); i += 2 {
			key := node.Content[i].Value
			item, err := valueFromNode(node.Content[i+1])
			if err != nil {
				return Value{}, fmt.Errorf("key %q: %w", key, err)
			}
			d[key] = item
		}
		return Mapping(d), nil
	default:
		return Value{}, fmt.Errorf("line %d: unsupported yaml node", node.Line)
	}
}

func scalarValue(node *yaml.Node) (Value, error) {
	switch node.ShortTag() {
	case "!!null":
		return Value{}, nil
	case "!!bool":
		b, err := strconv.ParseBool(node.Value)
		if err != nil {
			// explicitly tagged !!bool with a value ParseBool rejects
			return String(node.Value), nil
		}
		return Bool(b), nil
	case "!!int", "!!float":
		var f float64
		if err := node.Decode(&f); err != nil {
			return Value{}, fmt.Errorf("line %d: %w", node.Line, err)
		}
		return Number(f), nil
	default:
		return String(node.Value), nil
	}
}
