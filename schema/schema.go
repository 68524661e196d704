package schema

import (
	"fmt"
	"strings"
)

// Kind discriminates the descriptor variants.
type Kind int

const (
	KindInvalid Kind = iota
	KindString
	KindInt
	KindReal
	KindBool
	KindNull
	KindAny
	KindOptional
	KindList
	KindTuple
	KindSet
	KindMapping
	KindUnion
	KindClass
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt:
		return "integer"
	case KindReal:
		return "real"
	case KindBool:
		return "bool"
	case KindNull:
		return "null"
	case KindAny:
		return "any"
	case KindOptional:
		return "Optional"
	case KindList:
		return "List"
	case KindTuple:
		return "Tuple"
	case KindSet:
		return "Set"
	case KindMapping:
		return "Mapping"
	case KindUnion:
		return "Union"
	case KindClass:
		return "Class"
	}
	return "invalid"
}

// Field is one declared field of a class. Declaration order is part of the
// class contract; binders and printers iterate fields in this order.
type Field struct {
	Name     string
	Type     *Descriptor
	Required bool
	Default  any
	Doc      string
}

// Descriptor is one node of the type model. Descriptors are immutable once
// built; a descriptor handed to a parser must not be mutated afterwards.
type Descriptor struct {
	Kind     Kind
	Name     string        // class name
	Elem     *Descriptor   // Optional / List / Set element, Mapping value
	Key      *Descriptor   // Mapping key
	Elems    []*Descriptor // Tuple members, fixed arity
	Variants []*Descriptor // Union members, declaration order
	Fields   []Field       // Class fields, declaration order
	Doc      string
}

// Shared primitive descriptors. These carry no state, so handing out the
// same pointer everywhere is safe.
var (
	StringType = &Descriptor{Kind: KindString}
	IntType    = &Descriptor{Kind: KindInt}
	RealType   = &Descriptor{Kind: KindReal}
	BoolType   = &Descriptor{Kind: KindBool}
	NullType   = &Descriptor{Kind: KindNull}
	AnyType    = &Descriptor{Kind: KindAny}
)

func Optional(inner *Descriptor) *Descriptor {
	return &Descriptor{Kind: KindOptional, Elem: inner}
}

func List(elem *Descriptor) *Descriptor {
	return &Descriptor{Kind: KindList, Elem: elem}
}

func Tuple(elems ...*Descriptor) *Descriptor {
	return &Descriptor{Kind: KindTuple, Elems: elems}
}

func Set(elem *Descriptor) *Descriptor {
	return &Descriptor{Kind: KindSet, Elem: elem}
}

func Mapping(key, value *Descriptor) *Descriptor {
	return &Descriptor{Kind: KindMapping, Key: key, Elem: value}
}

func Union(variants ...*Descriptor) *Descriptor {
	return &Descriptor{Kind: KindUnion, Variants: variants}
}

func Class(name string, fields []Field, doc string) *Descriptor {
	return &Descriptor{Kind: KindClass, Name: name, Fields: fields, Doc: doc}
}

// Validate checks the structural invariants of a descriptor tree: no nil
// children, unions with at least two variants, no duplicate field names,
// and no recursion that is not broken by Optional or a container.
func Validate(d *Descriptor) error {
	return validate(d, map[*Descriptor]bool{}, false)
}

func validate(d *Descriptor, onPath map[*Descriptor]bool, broken bool) error {
	if d == nil {
		return fmt.Errorf("schema: nil descriptor")
	}
	if onPath[d] {
		if !broken {
			return fmt.Errorf("schema: cyclic descriptor %s is not broken by Optional or a container", describeName(d))
		}
		return nil
	}
	onPath[d] = true
	defer delete(onPath, d)

	switch d.Kind {
	case KindString, KindInt, KindReal, KindBool, KindNull, KindAny:
		return nil
	case KindOptional:
		return validate(d.Elem, onPath, true)
	case KindList, KindSet:
		return validate(d.Elem, onPath, true)
	case KindTuple:
		if len(d.Elems) == 0 {
			return fmt.Errorf("schema: empty tuple")
		}
		for _, e := range d.Elems {
			if err := validate(e, onPath, broken); err != nil {
				return err
			}
		}
		return nil
	case KindMapping:
		if err := validate(d.Key, onPath, broken); err != nil {
			return err
		}
		return validate(d.Elem, onPath, true)
	case KindUnion:
		if len(d.Variants) < 2 {
			return fmt.Errorf("schema: union needs at least two variants, got %d", len(d.Variants))
		}
		for _, v := range d.Variants {
			if err := validate(v, onPath, broken); err != nil {
				return err
			}
		}
		return nil
	case KindClass:
		if d.Name == "" {
			return fmt.Errorf("schema: class with empty name")
		}
		seen := map[string]bool{}
		for _, f := range d.Fields {
			if seen[f.Name] {
				return fmt.Errorf("schema: class %s declares field %q twice", d.Name, f.Name)
			}
			seen[f.Name] = true
			if err := validate(f.Type, onPath, false); err != nil {
				return err
			}
		}
		return nil
	}
	return fmt.Errorf("schema: invalid descriptor kind %d", int(d.Kind))
}

func describeName(d *Descriptor) string {
	if d.Name != "" {
		return d.Name
	}
	return d.Kind.String()
}

// Format renders the canonical textual form of a descriptor: primitives by
// keyword, containers as List[elem] / Tuple[a, b] / Set[elem] /
// Mapping[key, value], optionals as Optional[inner], unions as the variants
// joined by " | ", and classes as Name{field: type, ...} in declaration
// order.
func Format(d *Descriptor) string {
	var b strings.Builder
	format(d, &b)
	return b.String()
}

func format(d *Descriptor, b *strings.Builder) {
	switch d.Kind {
	case KindString, KindInt, KindReal, KindBool, KindNull, KindAny:
		b.WriteString(d.Kind.String())
	case KindOptional:
		b.WriteString("Optional[")
		format(d.Elem, b)
		b.WriteByte(']')
	case KindList:
		b.WriteString("List[")
		format(d.Elem, b)
		b.WriteByte(']')
	case KindSet:
		b.WriteString("Set[")
		format(d.Elem, b)
		b.WriteByte(']')
	case KindTuple:
		b.WriteString("Tuple[")
		for i, e := range d.Elems {
			if i > 0 {
				b.WriteString(", ")
			}
			format(e, b)
		}
		b.WriteByte(']')
	case KindMapping:
		b.WriteString("Mapping[")
		format(d.Key, b)
		b.WriteString(", ")
		format(d.Elem, b)
		b.WriteByte(']')
	case KindUnion:
		for i, v := range d.Variants {
			if i > 0 {
				b.WriteString(" | ")
			}
			format(v, b)
		}
	case KindClass:
		b.WriteString(d.Name)
		b.WriteByte('{')
		for i, f := range d.Fields {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(f.Name)
			b.WriteString(": ")
			format(f.Type, b)
			if !f.Required {
				b.WriteString(" (optional)")
			}
		}
		b.WriteByte('}')
	default:
		b.WriteString("invalid")
	}
}

// TagName reports the wire tag a root descriptor answers to: the class name
// for classes and the structural names for containers. Unions and
// primitives have no single tag and yield ""; RootTags lists a union's
// variant tags.
func TagName(d *Descriptor) string {
	switch d.Kind {
	case KindClass:
		return d.Name
	case KindList:
		return "list"
	case KindTuple:
		return "tuple"
	case KindSet:
		return "set"
	case KindMapping:
		return "dict"
	case KindOptional:
		return TagName(d.Elem)
	}
	return ""
}

// RootTags reports all wire tags acceptable for a root descriptor. For a
// union every variant answers with its own tag; the variant is selected by
// the tag that actually opens.
func RootTags(d *Descriptor) []string {
	if d.Kind == KindUnion {
		var tags []string
		for _, v := range d.Variants {
			tags = append(tags, RootTags(v)...)
			if v.Kind == KindClass {
				tags = append(tags, "union:"+v.Name)
			}
		}
		return tags
	}
	if t := TagName(d); t != "" {
		return []string{t}
	}
	return nil
}

// VariantByTag resolves the union variant matching an opened tag name.
// Tag names are matched exactly; the union:Name form is accepted too.
func VariantByTag(union *Descriptor, tag string) *Descriptor {
	for _, v := range union.Variants {
		if v.Kind == KindClass && (v.Name == tag || "union:"+v.Name == tag) {
			return v
		}
		if TagName(v) == tag {
			return v
		}
	}
	return nil
}
