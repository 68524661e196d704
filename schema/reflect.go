package schema

import (
	"fmt"
	"reflect"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// descCache memoizes FromType results. Descriptor construction walks the
// whole type graph, so repeated parser construction over the same host
// types should not pay for it twice.
var descCache, _ = lru.New[reflect.Type, *Descriptor](256)

// FromType builds a descriptor from a Go type using reflection. Structs
// become classes named after the type; struct fields are declared in source
// order. A field is optional when it is a pointer, or when its `schema` tag
// carries "optional". The `json` tag, when present, names the field.
//
// Supported shapes: string, integral and float kinds, bool, slices (List),
// arrays (Tuple of the element type repeated), maps (Mapping), pointers
// (Optional), interface{} (any), and nested structs.
func FromType(t reflect.Type) (*Descriptor, error) {
	if d, ok := descCache.Get(t); ok {
		return d, nil
	}
	d, err := fromType(t, map[reflect.Type]*Descriptor{})
	if err != nil {
		return nil, err
	}
	if err := Validate(d); err != nil {
		return nil, err
	}
	descCache.Add(t, d)
	return d, nil
}

func fromType(t reflect.Type, inFlight map[reflect.Type]*Descriptor) (*Descriptor, error) {
	if d, ok := inFlight[t]; ok {
		// Self-reference: legal only through Optional or a container,
		// which Validate checks after construction.
		return d, nil
	}
	switch t.Kind() {
	case reflect.String:
		return StringType, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return IntType, nil
	case reflect.Float32, reflect.Float64:
		return RealType, nil
	case reflect.Bool:
		return BoolType, nil
	case reflect.Interface:
		return AnyType, nil
	case reflect.Pointer:
		inner, err := fromType(t.Elem(), inFlight)
		if err != nil {
			return nil, err
		}
		return Optional(inner), nil
	case reflect.Slice:
		elem, err := fromType(t.Elem(), inFlight)
		if err != nil {
			return nil, err
		}
		return List(elem), nil
	case reflect.Array:
		elem, err := fromType(t.Elem(), inFlight)
		if err != nil {
			return nil, err
		}
		elems := make([]*Descriptor, t.Len())
		for i := range elems {
			elems[i] = elem
		}
		return Tuple(elems...), nil
	case reflect.Map:
		key, err := fromType(t.Key(), inFlight)
		if err != nil {
			return nil, err
		}
		val, err := fromType(t.Elem(), inFlight)
		if err != nil {
			return nil, err
		}
		return Mapping(key, val), nil
	case reflect.Struct:
		d := &Descriptor{Kind: KindClass, Name: t.Name()}
		inFlight[t] = d
		defer delete(inFlight, t)
		for i := 0; i < t.NumField(); i++ {
			sf := t.Field(i)
			if !sf.IsExported() {
				continue
			}
			ft, err := fromType(sf.Type, inFlight)
			if err != nil {
				return nil, err
			}
			name := fieldName(sf)
			optional := sf.Type.Kind() == reflect.Pointer || tagHas(sf, "optional")
			if optional && ft.Kind != KindOptional {
				ft = Optional(ft)
			}
			d.Fields = append(d.Fields, Field{
				Name:     name,
				Type:     ft,
				Required: !optional,
				Doc:      sf.Tag.Get("doc"),
			})
		}
		return d, nil
	}
	return nil, fmt.Errorf("schema: unsupported host type %s", t)
}

func fieldName(sf reflect.StructField) string {
	if tag := sf.Tag.Get("json"); tag != "" {
		if name, _, _ := strings.Cut(tag, ","); name != "" && name != "-" {
			return name
		}
	}
	return sf.Name
}

func tagHas(sf reflect.StructField, opt string) bool {
	for _, part := range strings.Split(sf.Tag.Get("schema"), ",") {
		if strings.TrimSpace(part) == opt {
			return true
		}
	}
	return false
}

// StructRegistry resolves descriptors built with FromType back to their Go
// struct types and instantiates real struct values. It is the reflection
// rendition of the host introspection facility.
type StructRegistry struct {
	types map[string]reflect.Type
	descs map[string]*Descriptor
}

// NewStructRegistry registers the given struct types (pass zero values or
// pointers; pointers are dereferenced). Nested struct fields are registered
// transitively.
func NewStructRegistry(examples ...any) (*StructRegistry, error) {
	r := &StructRegistry{
		types: map[string]reflect.Type{},
		descs: map[string]*Descriptor{},
	}
	for _, ex := range examples {
		t := reflect.TypeOf(ex)
		for t.Kind() == reflect.Pointer {
			t = t.Elem()
		}
		if err := r.register(t); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *StructRegistry) register(t reflect.Type) error {
	switch t.Kind() {
	case reflect.Struct:
		if _, ok := r.types[t.Name()]; ok {
			return nil
		}
		d, err := FromType(t)
		if err != nil {
			return err
		}
		r.types[t.Name()] = t
		r.descs[t.Name()] = d
		for i := 0; i < t.NumField(); i++ {
			if sf := t.Field(i); sf.IsExported() {
				if err := r.register(deref(sf.Type)); err != nil {
					return err
				}
			}
		}
	case reflect.Slice, reflect.Array, reflect.Map, reflect.Pointer:
		return r.register(deref(t.Elem()))
	}
	return nil
}

func deref(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Pointer || t.Kind() == reflect.Slice ||
		t.Kind() == reflect.Array {
		t = t.Elem()
	}
	return t
}

func (r *StructRegistry) Describe(name string) (*Descriptor, error) {
	d, ok := r.descs[name]
	if !ok {
		return nil, fmt.Errorf("schema: unknown class %q", name)
	}
	return d, nil
}

func (r *StructRegistry) Instantiate(class *Descriptor, fields map[string]any) (any, error) {
	return r.build(class, fields, false)
}

func (r *StructRegistry) InstantiatePartial(class *Descriptor, fields map[string]any) (any, error) {
	return r.build(class, fields, true)
}

func (r *StructRegistry) build(class *Descriptor, fields map[string]any, partial bool) (any, error) {
	t, ok := r.types[class.Name]
	if !ok {
		return nil, fmt.Errorf("schema: no host type registered for class %q", class.Name)
	}
	pv := reflect.New(t)
	sv := pv.Elem()
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		name := fieldName(sf)
		v, present := fields[name]
		if !present {
			if fieldRequired(class, name) && !partial {
				return nil, fmt.Errorf("schema: %s missing required field %q", class.Name, name)
			}
			continue
		}
		if err := assign(sv.Field(i), v); err != nil {
			return nil, fmt.Errorf("schema: %s.%s: %w", class.Name, name, err)
		}
	}
	return pv.Interface(), nil
}

func fieldRequired(class *Descriptor, name string) bool {
	for _, f := range class.Fields {
		if f.Name == name {
			return f.Required
		}
	}
	return false
}

// assign stores a bound value into a struct field, bridging the small gap
// between the binder's native shapes (int64, float64, []any, map[string]any,
// *T host objects) and the field's static type.
func assign(dst reflect.Value, v any) error {
	if v == nil {
		dst.Set(reflect.Zero(dst.Type()))
		return nil
	}
	sv := reflect.ValueOf(v)
	if sv.Type().AssignableTo(dst.Type()) {
		dst.Set(sv)
		return nil
	}
	switch dst.Kind() {
	case reflect.Pointer:
		p := reflect.New(dst.Type().Elem())
		if err := assign(p.Elem(), v); err != nil {
			return err
		}
		dst.Set(p)
		return nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if sv.CanInt() {
			dst.SetInt(sv.Int())
			return nil
		}
		if sv.CanFloat() {
			dst.SetInt(int64(sv.Float()))
			return nil
		}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if sv.CanInt() {
			dst.SetUint(uint64(sv.Int()))
			return nil
		}
	case reflect.Float32, reflect.Float64:
		if sv.CanFloat() {
			dst.SetFloat(sv.Float())
			return nil
		}
		if sv.CanInt() {
			dst.SetFloat(float64(sv.Int()))
			return nil
		}
	case reflect.Slice:
		items, ok := v.([]any)
		if !ok {
			return fmt.Errorf("cannot assign %T to %s", v, dst.Type())
		}
		out := reflect.MakeSlice(dst.Type(), len(items), len(items))
		for i, item := range items {
			if err := assign(out.Index(i), item); err != nil {
				return err
			}
		}
		dst.Set(out)
		return nil
	case reflect.Map:
		items, ok := v.(map[string]any)
		if !ok {
			return fmt.Errorf("cannot assign %T to %s", v, dst.Type())
		}
		out := reflect.MakeMapWithSize(dst.Type(), len(items))
		for k, item := range items {
			ev := reflect.New(dst.Type().Elem()).Elem()
			if err := assign(ev, item); err != nil {
				return err
			}
			out.SetMapIndex(reflect.ValueOf(k), ev)
		}
		dst.Set(out)
		return nil
	case reflect.Struct:
		// Host object produced by a nested Instantiate arrives as *T.
		if sv.Kind() == reflect.Pointer && sv.Type().Elem() == dst.Type() {
			dst.Set(sv.Elem())
			return nil
		}
		if m, ok := v.(map[string]any); ok {
			for i := 0; i < dst.NumField(); i++ {
				sf := dst.Type().Field(i)
				if !sf.IsExported() {
					continue
				}
				if fv, present := m[fieldName(sf)]; present {
					if err := assign(dst.Field(i), fv); err != nil {
						return err
					}
				}
			}
			return nil
		}
	case reflect.Interface:
		dst.Set(sv)
		return nil
	}
	return fmt.Errorf("cannot assign %T to %s", v, dst.Type())
}
