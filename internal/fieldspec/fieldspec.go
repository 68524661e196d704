// Package fieldspec builds class descriptors from the compact field
// notation the command-line tools accept, e.g.
//
//	name:string,age:integer?,interests:[]string,scores:map[string]real
//
// A trailing '?' marks a field optional.
package fieldspec

import (
	"fmt"
	"strings"

	"typestream/schema"
)

// Parse builds a class descriptor named tag from a comma-separated field
// spec.
func Parse(tag, spec string) (*schema.Descriptor, error) {
	if tag == "" {
		return nil, fmt.Errorf("fieldspec: empty tag name")
	}
	var fields []schema.Field
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, typ, ok := strings.Cut(part, ":")
		if !ok {
			return nil, fmt.Errorf("fieldspec: field %q needs name:type", part)
		}
		name = strings.TrimSpace(name)
		typ = strings.TrimSpace(typ)
		required := true
		if strings.HasSuffix(typ, "?") {
			required = false
			typ = strings.TrimSuffix(typ, "?")
		}
		d, err := ParseType(typ)
		if err != nil {
			return nil, err
		}
		if !required {
			d = schema.Optional(d)
		}
		fields = append(fields, schema.Field{Name: name, Type: d, Required: required})
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("fieldspec: no fields in %q", spec)
	}
	return schema.Class(tag, fields, ""), nil
}

// ParseType resolves one type expression.
func ParseType(typ string) (*schema.Descriptor, error) {
	switch typ {
	case "string", "str":
		return schema.StringType, nil
	case "integer", "int":
		return schema.IntType, nil
	case "real", "float":
		return schema.RealType, nil
	case "bool":
		return schema.BoolType, nil
	case "any":
		return schema.AnyType, nil
	}
	if elem, ok := strings.CutPrefix(typ, "[]"); ok {
		d, err := ParseType(elem)
		if err != nil {
			return nil, err
		}
		return schema.List(d), nil
	}
	if elem, ok := strings.CutPrefix(typ, "set[]"); ok {
		d, err := ParseType(elem)
		if err != nil {
			return nil, err
		}
		return schema.Set(d), nil
	}
	if elem, ok := strings.CutPrefix(typ, "map[string]"); ok {
		d, err := ParseType(elem)
		if err != nil {
			return nil, err
		}
		return schema.Mapping(schema.StringType, d), nil
	}
	return nil, fmt.Errorf("fieldspec: unknown type %q", typ)
}
