package types

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Kind identifies the type of a script Value.
type Kind int

const (
	BoolKind Kind = iota
	IntKind
	StringKind
)

// String returns the manifest name of the kind ("bool", "int", "string").
func (k Kind) String() string {
	switch k {
	case BoolKind:
		return "bool"
	case IntKind:
		return "int"
	case StringKind:
		return "string"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// KindFromName parses a manifest type name into a Kind.
func KindFromName(name string) (Kind, bool) {
	switch name {
	case "bool":
		return BoolKind, true
	case "int":
		return IntKind, true
	case "string":
		return StringKind, true
	default:
		return 0, false
	}
}

// Value is a typed script value: bool, int, or string.
// The zero Value is the boolean false.
type Value struct {
	Kind Kind
	B    bool
	I    int
	S    string
}

// BoolVal, IntVal, and StringVal construct Values.
func BoolVal(b bool) Value   { return Value{Kind: BoolKind, B: b} }
func IntVal(i int) Value     { return Value{Kind: IntKind, I: i} }
func StringVal(s string) Value { return Value{Kind: StringKind, S: s} }

// ZeroOf returns the default value for a kind: false, 0, or "".
// Scripts routinely probe flags that have never been set; those reads
// must produce the kind's zero, not an error.
func ZeroOf(k Kind) Value {
	return Value{Kind: k}
}

// Truthy reports whether the value counts as true in a boolean context.
// false, 0, and "" are falsy; everything else is truthy.
func (v Value) Truthy() bool {
	switch v.Kind {
	case BoolKind:
		return v.B
	case IntKind:
		return v.I != 0
	case StringKind:
		return v.S != ""
	default:
		return false
	}
}

// Display returns the value rendered for inclusion in dialogue text.
func (v Value) Display() string {
	switch v.Kind {
	case BoolKind:
		return strconv.FormatBool(v.B)
	case IntKind:
		return strconv.Itoa(v.I)
	case StringKind:
		return v.S
	default:
		return ""
	}
}

// savedValue is the JSON wire form. The explicit type tag is what makes
// save/load round-trip values exactly, including type.
type savedValue struct {
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value"`
}

// MarshalJSON encodes the value with an explicit type tag.
func (v Value) MarshalJSON() ([]byte, error) {
	var raw []byte
	var err error
	switch v.Kind {
	case BoolKind:
		raw, err = json.Marshal(v.B)
	case IntKind:
		raw, err = json.Marshal(v.I)
	case StringKind:
		raw, err = json.Marshal(v.S)
	default:
		return nil, fmt.Errorf("marshal value: unknown kind %d", v.Kind)
	}
	if err != nil {
		return nil, err
	}
	return json.Marshal(savedValue{Type: v.Kind.String(), Value: raw})
}

// UnmarshalJSON decodes a type-tagged value.
func (v *Value) UnmarshalJSON(data []byte) error {
	var sv savedValue
	if err := json.Unmarshal(data, &sv); err != nil {
		return err
	}
	kind, ok := KindFromName(sv.Type)
	if !ok {
		return fmt.Errorf("unmarshal value: unknown type %q", sv.Type)
	}
	out := Value{Kind: kind}
	var err error
	switch kind {
	case BoolKind:
		err = json.Unmarshal(sv.Value, &out.B)
	case IntKind:
		err = json.Unmarshal(sv.Value, &out.I)
	case StringKind:
		err = json.Unmarshal(sv.Value, &out.S)
	}
	if err != nil {
		return err
	}
	*v = out
	return nil
}
