package schema

import "fmt"

// Registry resolves nominal names against a schema and builds host objects.
// The parser core never constructs host objects itself; every class value
// goes through Instantiate.
type Registry interface {
	// Describe resolves a nominal class name to its descriptor.
	Describe(name string) (*Descriptor, error)
	// Instantiate builds a host object from a field-to-value mapping.
	// Missing optional fields take the class defaults.
	Instantiate(class *Descriptor, fields map[string]any) (any, error)
}

// PartialRegistry is an optional capability: registries that can build an
// object from an incomplete field map participate in streaming partial
// materialization. Detected once at parser construction.
type PartialRegistry interface {
	InstantiatePartial(class *Descriptor, fields map[string]any) (any, error)
}

// Updatable is an optional capability on instantiated objects: when present,
// the parser calls Update with the grown field map instead of rebuilding the
// object on every version bump.
type Updatable interface {
	Update(fields map[string]any) error
}

// MapRegistry is the default registry. It resolves names against a fixed set
// of class descriptors and instantiates plain map[string]any objects.
type MapRegistry struct {
	classes map[string]*Descriptor
}

// NewMapRegistry indexes every class reachable from the given descriptors,
// including classes nested in containers, unions and fields.
func NewMapRegistry(roots ...*Descriptor) *MapRegistry {
	r := &MapRegistry{classes: map[string]*Descriptor{}}
	seen := map[*Descriptor]bool{}
	for _, d := range roots {
		r.index(d, seen)
	}
	return r
}

func (r *MapRegistry) index(d *Descriptor, seen map[*Descriptor]bool) {
	if d == nil || seen[d] {
		return
	}
	seen[d] = true
	if d.Kind == KindClass {
		r.classes[d.Name] = d
		for _, f := range d.Fields {
			r.index(f.Type, seen)
		}
		return
	}
	r.index(d.Key, seen)
	r.index(d.Elem, seen)
	for _, e := range d.Elems {
		r.index(e, seen)
	}
	for _, v := range d.Variants {
		r.index(v, seen)
	}
}

func (r *MapRegistry) Describe(name string) (*Descriptor, error) {
	d, ok := r.classes[name]
	if !ok {
		return nil, fmt.Errorf("schema: unknown class %q", name)
	}
	return d, nil
}

// Instantiate returns a map[string]any holding the declared fields. Missing
// optional fields adopt their defaults; fields the class does not declare
// are not copied.
func (r *MapRegistry) Instantiate(class *Descriptor, fields map[string]any) (any, error) {
	out := make(map[string]any, len(class.Fields))
	for _, f := range class.Fields {
		if v, ok := fields[f.Name]; ok {
			out[f.Name] = v
			continue
		}
		if f.Required {
			return nil, fmt.Errorf("schema: %s missing required field %q", class.Name, f.Name)
		}
		if f.Default != nil {
			out[f.Name] = f.Default
		} else {
			out[f.Name] = nil
		}
	}
	return out, nil
}

// InstantiatePartial builds the same map shape but tolerates missing
// required fields, so callers can observe objects mid-stream.
func (r *MapRegistry) InstantiatePartial(class *Descriptor, fields map[string]any) (any, error) {
	out := make(map[string]any, len(class.Fields))
	for _, f := range class.Fields {
		if v, ok := fields[f.Name]; ok {
			out[f.Name] = v
		}
	}
	return out, nil
}
