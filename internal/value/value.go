// Package value defines the untyped tree the recovery parser produces
// before type binding. Objects preserve insertion order so union
// resolution and partial updates stay deterministic.
package value

import (
	"sort"
	"strconv"
	"strings"
)

type Kind int

const (
	Null Kind = iota
	String
	Int
	Real
	Bool
	Array
	Object
)

// Member is one key/value pair of an object, in insertion order.
type Member struct {
	Key string
	Val *Value
}

// Value is one node of the tree. Exactly the field matching Kind is
// meaningful; the others stay zero.
type Value struct {
	Kind Kind
	Str  string
	Int  int64
	Real float64
	Bool bool
	Arr  []*Value
	Obj  []Member
}

func Str(s string) *Value     { return &Value{Kind: String, Str: s} }
func Num(i int64) *Value      { return &Value{Kind: Int, Int: i} }
func Float(f float64) *Value  { return &Value{Kind: Real, Real: f} }
func Boolean(b bool) *Value   { return &Value{Kind: Bool, Bool: b} }
func NullValue() *Value       { return &Value{Kind: Null} }
func Arr(vs ...*Value) *Value { return &Value{Kind: Array, Arr: vs} }

func Obj(members ...Member) *Value {
	return &Value{Kind: Object, Obj: members}
}

// Get looks a key up in an object. Later duplicates win, matching the
// parser's set-value behavior.
func (v *Value) Get(key string) (*Value, bool) {
	var out *Value
	for _, m := range v.Obj {
		if m.Key == key {
			out = m.Val
		}
	}
	return out, out != nil
}

// Set inserts or replaces a key, preserving first-insertion order.
func (v *Value) Set(key string, val *Value) {
	for i, m := range v.Obj {
		if m.Key == key {
			v.Obj[i].Val = val
			return
		}
	}
	v.Obj = append(v.Obj, Member{Key: key, Val: val})
}

// Native converts the tree to plain Go values: map[string]any for objects
// (insertion order is lost), []any for arrays, and the matching scalar
// otherwise. Used for Primitive(any) binding and diagnostics.
func (v *Value) Native() any {
	if v == nil {
		return nil
	}
	switch v.Kind {
	case Null:
		return nil
	case String:
		return v.Str
	case Int:
		return v.Int
	case Real:
		return v.Real
	case Bool:
		return v.Bool
	case Array:
		out := make([]any, len(v.Arr))
		for i, e := range v.Arr {
			out[i] = e.Native()
		}
		return out
	case Object:
		out := make(map[string]any, len(v.Obj))
		for _, m := range v.Obj {
			out[m.Key] = m.Val.Native()
		}
		return out
	}
	return nil
}

// Equal compares two trees structurally. Object member order is ignored;
// duplicate keys compare by their last value.
func Equal(a, b *Value) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case Null:
		return true
	case String:
		return a.Str == b.Str
	case Int:
		return a.Int == b.Int
	case Real:
		return a.Real == b.Real
	case Bool:
		return a.Bool == b.Bool
	case Array:
		if len(a.Arr) != len(b.Arr) {
			return false
		}
		for i := range a.Arr {
			if !Equal(a.Arr[i], b.Arr[i]) {
				return false
			}
		}
		return true
	case Object:
		ak, bk := keys(a), keys(b)
		if len(ak) != len(bk) {
			return false
		}
		for i := range ak {
			if ak[i] != bk[i] {
				return false
			}
			av, _ := a.Get(ak[i])
			bv, _ := b.Get(bk[i])
			if !Equal(av, bv) {
				return false
			}
		}
		return true
	}
	return false
}

func keys(v *Value) []string {
	seen := map[string]bool{}
	var ks []string
	for _, m := range v.Obj {
		if !seen[m.Key] {
			seen[m.Key] = true
			ks = append(ks, m.Key)
		}
	}
	sort.Strings(ks)
	return ks
}

// Describe renders a short JSON-ish form for error messages.
func (v *Value) Describe() string {
	var b strings.Builder
	describe(v, &b)
	return b.String()
}

func describe(v *Value, b *strings.Builder) {
	if v == nil {
		b.WriteString("null")
		return
	}
	switch v.Kind {
	case Null:
		b.WriteString("null")
	case String:
		b.WriteString(strconv.Quote(v.Str))
	case Int:
		b.WriteString(strconv.FormatInt(v.Int, 10))
	case Real:
		b.WriteString(strconv.FormatFloat(v.Real, 'g', -1, 64))
	case Bool:
		b.WriteString(strconv.FormatBool(v.Bool))
	case Array:
		b.WriteByte('[')
		for i, e := range v.Arr {
			if i > 0 {
				b.WriteString(", ")
			}
			describe(e, b)
		}
		b.WriteByte(']')
	case Object:
		b.WriteByte('{')
		for i, m := range v.Obj {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(strconv.Quote(m.Key))
			b.WriteString(": ")
			describe(m.Val, b)
		}
		b.WriteByte('}')
	}
}
