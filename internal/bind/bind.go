// Package bind maps value trees onto the type model. Binding applies a
// fixed set of coercions, disambiguates unions deterministically, and
// supports partial trees so callers can materialize objects while parsing
// is still in progress.
package bind

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"typestream/internal/fault"
	"typestream/internal/value"
	"typestream/schema"
)

// Binder binds value trees against descriptors, constructing host objects
// through the registry. The partial-construction capability is discovered
// once, at construction.
type Binder struct {
	reg        schema.Registry
	partialReg schema.PartialRegistry
	rec        *fault.Recorder
	mute       int // suppress recording during union trial binds
}

func (b *Binder) record(kind fault.Kind, format string, args ...any) {
	if b.mute == 0 {
		b.rec.Record(kind, 0, format, args...)
	}
}

func New(reg schema.Registry, rec *fault.Recorder) *Binder {
	b := &Binder{reg: reg, rec: rec}
	if pr, ok := reg.(schema.PartialRegistry); ok {
		b.partialReg = pr
	}
	return b
}

// Bind performs a strict bind: every required field present, every
// coercion legal. Coercion warnings (singleton-to-list, unknown fields)
// are recorded on the way.
func (b *Binder) Bind(v *value.Value, d *schema.Descriptor) (any, error) {
	return b.bind(v, d, false)
}

// BindPartial binds a still-growing tree: missing required fields and
// short tuples are tolerated, and nothing is recorded. Classes materialize
// through the registry's partial capability when it has one, and as a
// plain field map otherwise.
func (b *Binder) BindPartial(v *value.Value, d *schema.Descriptor) (any, error) {
	return b.bind(v, d, true)
}

func (b *Binder) bind(v *value.Value, d *schema.Descriptor, partial bool) (any, error) {
	if d.Kind == schema.KindOptional {
		if v == nil || v.Kind == value.Null {
			return nil, nil
		}
		return b.bind(v, d.Elem, partial)
	}
	if v == nil {
		return nil, fmt.Errorf("bind: no value for %s", schema.Format(d))
	}

	switch d.Kind {
	case schema.KindAny:
		return v.Native(), nil
	case schema.KindString:
		return bindString(v)
	case schema.KindInt:
		return bindInt(v)
	case schema.KindReal:
		return bindReal(v)
	case schema.KindBool:
		return bindBool(v)
	case schema.KindNull:
		if v.Kind == value.Null {
			return nil, nil
		}
		return nil, incompatible(v, d)
	case schema.KindList:
		return b.bindList(v, d, partial)
	case schema.KindSet:
		return b.bindSet(v, d, partial)
	case schema.KindTuple:
		return b.bindTuple(v, d, partial)
	case schema.KindMapping:
		return b.bindMapping(v, d, partial)
	case schema.KindClass:
		return b.bindClass(v, d, partial)
	case schema.KindUnion:
		return b.bindUnion(v, d, partial)
	}
	return nil, fmt.Errorf("bind: invalid descriptor kind %d", int(d.Kind))
}

func bindString(v *value.Value) (any, error) {
	switch v.Kind {
	case value.String:
		return v.Str, nil
	case value.Int:
		return strconv.FormatInt(v.Int, 10), nil
	case value.Real:
		return strconv.FormatFloat(v.Real, 'g', -1, 64), nil
	case value.Bool:
		return strconv.FormatBool(v.Bool), nil
	}
	return nil, incompatible(v, schema.StringType)
}

func bindInt(v *value.Value) (any, error) {
	switch v.Kind {
	case value.Int:
		return v.Int, nil
	case value.Real:
		if v.Real == float64(int64(v.Real)) {
			return int64(v.Real), nil
		}
		return nil, fmt.Errorf("bind: real %v has a fractional part, integer expected", v.Real)
	case value.String:
		if n, err := strconv.ParseInt(strings.TrimSpace(v.Str), 10, 64); err == nil {
			return n, nil
		}
	}
	return nil, incompatible(v, schema.IntType)
}

func bindReal(v *value.Value) (any, error) {
	switch v.Kind {
	case value.Int:
		return float64(v.Int), nil
	case value.Real:
		return v.Real, nil
	case value.String:
		if f, err := strconv.ParseFloat(strings.TrimSpace(v.Str), 64); err == nil {
			return f, nil
		}
	}
	return nil, incompatible(v, schema.RealType)
}

func bindBool(v *value.Value) (any, error) {
	switch v.Kind {
	case value.Bool:
		return v.Bool, nil
	case value.String:
		switch strings.ToLower(strings.TrimSpace(v.Str)) {
		case "true":
			return true, nil
		case "false":
			return false, nil
		}
	}
	return nil, incompatible(v, schema.BoolType)
}

func (b *Binder) bindList(v *value.Value, d *schema.Descriptor, partial bool) (any, error) {
	if v.Kind != value.Array {
		if v.Kind == value.Null {
			return nil, incompatible(v, d)
		}
		if partial && v.Kind == value.String && v.Str == "" {
			// The empty stand-in a snapshot shows for a pending key: the
			// list has no elements yet, so containers only grow.
			return []any{}, nil
		}
		// Singleton-to-list: a lone value stands in for a one-element
		// list.
		elem, err := b.bind(v, d.Elem, partial)
		if err != nil {
			return nil, err
		}
		if !partial {
			b.record(fault.SingletonList, "single value coerced to %s", schema.Format(d))
		}
		return []any{elem}, nil
	}
	out := make([]any, 0, len(v.Arr))
	for i, e := range v.Arr {
		bound, err := b.bind(e, d.Elem, partial)
		if err != nil {
			if partial {
				continue
			}
			return nil, fmt.Errorf("bind: element %d: %w", i, err)
		}
		out = append(out, bound)
	}
	return out, nil
}

func (b *Binder) bindSet(v *value.Value, d *schema.Descriptor, partial bool) (any, error) {
	bound, err := b.bindList(v, d, partial)
	if err != nil {
		return nil, err
	}
	items := bound.([]any)
	out := make([]any, 0, len(items))
	for _, item := range items {
		dup := false
		for _, have := range out {
			if reflect.DeepEqual(have, item) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, item)
		}
	}
	return out, nil
}

func (b *Binder) bindTuple(v *value.Value, d *schema.Descriptor, partial bool) (any, error) {
	if v.Kind != value.Array {
		return nil, incompatible(v, d)
	}
	if len(v.Arr) != len(d.Elems) && !partial {
		return nil, fault.Fault{
			Kind:    fault.ArityMismatch,
			Message: fmt.Sprintf("tuple arity mismatch: want %d, got %d", len(d.Elems), len(v.Arr)),
		}
	}
	n := len(v.Arr)
	if n > len(d.Elems) {
		n = len(d.Elems)
	}
	out := make([]any, 0, n)
	for i := 0; i < n; i++ {
		bound, err := b.bind(v.Arr[i], d.Elems[i], partial)
		if err != nil {
			if partial {
				continue
			}
			return nil, fmt.Errorf("bind: tuple element %d: %w", i, err)
		}
		out = append(out, bound)
	}
	return out, nil
}

func (b *Binder) bindMapping(v *value.Value, d *schema.Descriptor, partial bool) (any, error) {
	if v.Kind != value.Object {
		return nil, incompatible(v, d)
	}
	out := make(map[string]any, len(v.Obj))
	for _, m := range v.Obj {
		key, err := b.bind(value.Str(m.Key), d.Key, partial)
		if err != nil {
			if partial {
				continue
			}
			return nil, fmt.Errorf("bind: key %q: %w", m.Key, err)
		}
		bound, err := b.bind(m.Val, d.Elem, partial)
		if err != nil {
			if partial {
				continue
			}
			return nil, fmt.Errorf("bind: value for key %q: %w", m.Key, err)
		}
		out[keyString(key, m.Key)] = bound
	}
	return out, nil
}

// keyString folds a bound key back to a map key. Non-string keys keep
// their textual spelling so the mapping stays addressable.
func keyString(bound any, raw string) string {
	if s, ok := bound.(string); ok {
		return s
	}
	return raw
}

// BindFields binds the declared fields of a class against an object tree,
// without instantiating. Used by the facade to drive update hooks.
func (b *Binder) BindFields(v *value.Value, d *schema.Descriptor, partial bool) (map[string]any, error) {
	if v.Kind != value.Object {
		return nil, incompatible(v, d)
	}
	fields := make(map[string]any, len(d.Fields))
	for _, f := range d.Fields {
		fv, ok := v.Get(f.Name)
		if !ok {
			if partial || !f.Required || f.Default != nil {
				continue
			}
			return nil, fault.Fault{
				Kind:    fault.MissingField,
				Message: fmt.Sprintf("%s missing required field %q", d.Name, f.Name),
			}
		}
		bound, err := b.bind(fv, f.Type, partial)
		if err != nil {
			if partial {
				continue
			}
			return nil, fmt.Errorf("bind: field %q: %w", f.Name, err)
		}
		fields[f.Name] = bound
	}
	if !partial {
		for _, m := range v.Obj {
			if !declares(d, m.Key) {
				b.record(fault.UnknownField, "%s does not declare field %q", d.Name, m.Key)
			}
		}
	}
	return fields, nil
}

func (b *Binder) bindClass(v *value.Value, d *schema.Descriptor, partial bool) (any, error) {
	fields, err := b.BindFields(v, d, partial)
	if err != nil {
		return nil, err
	}
	if partial {
		if b.partialReg != nil {
			return b.partialReg.InstantiatePartial(d, fields)
		}
		// No partial capability: surface the raw field map until the
		// value closes.
		return fields, nil
	}
	return b.reg.Instantiate(d, fields)
}

func (b *Binder) bindUnion(v *value.Value, d *schema.Descriptor, partial bool) (any, error) {
	// Field-set matching keeps class unions stable when variants are
	// appended later: the first variant whose required fields are all
	// present wins, ahead of plain declaration order.
	if v.Kind == value.Object && allClasses(d) {
		for _, variant := range d.Variants {
			if requiredPresent(v, variant) {
				return b.bindClass(v, variant, partial)
			}
		}
	}
	for _, variant := range d.Variants {
		b.mute++
		bound, err := b.bind(v, variant, partial)
		b.mute--
		if err == nil {
			// Re-bind unmuted so the winner's coercion warnings are
			// still recorded.
			if b.mute == 0 {
				return b.bind(v, variant, partial)
			}
			return bound, nil
		}
	}
	return nil, fault.Fault{
		Kind:    fault.NoUnionVariant,
		Message: fmt.Sprintf("no variant of %s admits %s", schema.Format(d), v.Describe()),
	}
}

func allClasses(d *schema.Descriptor) bool {
	for _, v := range d.Variants {
		if v.Kind != schema.KindClass {
			return false
		}
	}
	return true
}

func requiredPresent(v *value.Value, class *schema.Descriptor) bool {
	for _, f := range class.Fields {
		if !f.Required {
			continue
		}
		if _, ok := v.Get(f.Name); !ok {
			return false
		}
	}
	return true
}

func declares(d *schema.Descriptor, name string) bool {
	for _, f := range d.Fields {
		if f.Name == name {
			return true
		}
	}
	return false
}

func incompatible(v *value.Value, d *schema.Descriptor) error {
	return fault.Fault{
		Kind:    fault.Incompatible,
		Message: fmt.Sprintf("cannot bind %s to %s", v.Describe(), schema.Format(d)),
	}
}
