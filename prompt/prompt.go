// Package prompt renders type descriptors into the human-readable hints a
// prompt template embeds, so the model knows which tag to open and what
// shape to put inside it.
package prompt

import (
	"fmt"
	"strings"

	"typestream/schema"
)

// ReturnTypeToken is the substitution token templates use where the root
// type's format instructions belong.
const ReturnTypeToken = "{{return_type}}"

// FormatType renders the canonical textual form of a descriptor.
func FormatType(d *schema.Descriptor) string {
	return schema.Format(d)
}

// TypeDescription renders the canonical form followed by the class
// docstring, when one is declared.
func TypeDescription(d *schema.Descriptor) string {
	form := schema.Format(d)
	if d.Kind == schema.KindClass && d.Doc != "" {
		return form + "\n" + d.Doc
	}
	return form
}

// FormatInstructions renders XML-tagged output instructions for a root
// descriptor: the tag to open, one element per field carrying a
// type="..." attribute, an "(optional)" marker on optional fields, and an
// Option list for unions.
func FormatInstructions(d *schema.Descriptor) string {
	switch d.Kind {
	case schema.KindOptional:
		return FormatInstructions(d.Elem) + " (optional)"
	case schema.KindUnion:
		var b strings.Builder
		for i, v := range d.Variants {
			if i > 0 {
				b.WriteByte('\n')
			}
			fmt.Fprintf(&b, "Option %d:\n%s", i+1, FormatInstructions(v))
		}
		return b.String()
	case schema.KindClass:
		var b strings.Builder
		fmt.Fprintf(&b, "<%s>\n", d.Name)
		for _, f := range d.Fields {
			b.WriteString("    ")
			b.WriteString(formatField(f))
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "</%s>", d.Name)
		return b.String()
	case schema.KindList, schema.KindSet:
		tag := schema.TagName(d)
		item := exampleBody(d.Elem)
		return fmt.Sprintf("<%s type=\"list\">\n    <item>%s</item>\n    <item>%s</item>\n    ...\n</%s>",
			tag, item, item, tag)
	case schema.KindTuple:
		var b strings.Builder
		b.WriteString("<tuple type=\"" + typeAttr(d) + "\">\n")
		for _, e := range d.Elems {
			fmt.Fprintf(&b, "    <item>%s</item>\n", exampleBody(e))
		}
		b.WriteString("</tuple>")
		return b.String()
	case schema.KindMapping:
		return "<dict type=\"dict\">\n    <item key=\"key1\">value1</item>\n    <item key=\"key2\">value2</item>\n    ...\n</dict>"
	}
	return exampleBody(d)
}

// formatField renders one class field. Optional fields show an elided body
// and the "(optional)" marker; list fields nest item placeholders.
func formatField(f schema.Field) string {
	typ := f.Type
	optional := !f.Required || typ.Kind == schema.KindOptional
	if typ.Kind == schema.KindOptional {
		typ = typ.Elem
	}
	if optional {
		return fmt.Sprintf("<%s type=%q>...</%s> (optional)", f.Name, typeAttr(typ), f.Name)
	}
	if typ.Kind == schema.KindList || typ.Kind == schema.KindSet {
		return fmt.Sprintf("<%s type=%q>\n        <item>%s</item>\n        ...\n    </%s>",
			f.Name, typeAttr(typ), exampleBody(typ.Elem), f.Name)
	}
	return fmt.Sprintf("<%s type=%q>%s</%s>", f.Name, typeAttr(typ), exampleBody(typ), f.Name)
}

// typeAttr is the type="..." attribute value for a descriptor.
func typeAttr(d *schema.Descriptor) string {
	switch d.Kind {
	case schema.KindString:
		return "str"
	case schema.KindInt:
		return "int"
	case schema.KindReal:
		return "float"
	case schema.KindBool:
		return "bool"
	case schema.KindNull:
		return "None"
	case schema.KindAny:
		return "any"
	case schema.KindOptional:
		return typeAttr(d.Elem)
	case schema.KindList:
		return "list[" + typeName(d.Elem) + "]"
	case schema.KindSet:
		return "set[" + typeName(d.Elem) + "]"
	case schema.KindTuple:
		parts := make([]string, len(d.Elems))
		for i, e := range d.Elems {
			parts[i] = typeName(e)
		}
		return "tuple[" + strings.Join(parts, ", ") + "]"
	case schema.KindMapping:
		return "dict"
	case schema.KindUnion:
		parts := make([]string, len(d.Variants))
		for i, v := range d.Variants {
			parts[i] = typeName(v)
		}
		return strings.Join(parts, " | ")
	case schema.KindClass:
		return d.Name
	}
	return "object"
}

// typeName is the short name of a type, for use inside attributes.
func typeName(d *schema.Descriptor) string {
	switch d.Kind {
	case schema.KindString:
		return "str"
	case schema.KindInt:
		return "int"
	case schema.KindReal:
		return "float"
	case schema.KindBool:
		return "bool"
	case schema.KindNull:
		return "None"
	case schema.KindAny:
		return "any"
	case schema.KindOptional:
		return typeName(d.Elem)
	case schema.KindList:
		return "list"
	case schema.KindSet:
		return "set"
	case schema.KindTuple:
		return "tuple"
	case schema.KindMapping:
		return "dict"
	case schema.KindClass:
		return d.Name
	case schema.KindUnion:
		parts := make([]string, len(d.Variants))
		for i, v := range d.Variants {
			parts[i] = typeName(v)
		}
		return strings.Join(parts, " | ")
	}
	return "object"
}

// exampleBody is the placeholder content between a field's tags.
func exampleBody(d *schema.Descriptor) string {
	switch d.Kind {
	case schema.KindString:
		return "string value"
	case schema.KindInt:
		return "42"
	case schema.KindReal:
		return "3.14"
	case schema.KindBool:
		return "true"
	case schema.KindNull:
		return "null"
	case schema.KindAny:
		return "..."
	case schema.KindOptional:
		return exampleBody(d.Elem)
	case schema.KindList, schema.KindSet:
		return "[" + typeName(d.Elem) + " items]"
	case schema.KindTuple:
		parts := make([]string, len(d.Elems))
		for i, e := range d.Elems {
			parts[i] = typeName(e)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case schema.KindMapping:
		return "{key: value pairs}"
	case schema.KindUnion:
		parts := make([]string, len(d.Variants))
		for i, v := range d.Variants {
			parts[i] = typeName(v)
		}
		return strings.Join(parts, " or ")
	case schema.KindClass:
		return d.Name
	}
	return "..."
}

// Interpolate replaces the {{return_type}} token in a template with the
// root descriptor's format instructions, keeping the token's indentation
// for every inserted line.
func Interpolate(template string, d *schema.Descriptor) string {
	idx := strings.Index(template, ReturnTypeToken)
	if idx < 0 {
		return template
	}
	lineStart := strings.LastIndexByte(template[:idx], '\n') + 1
	indent := countIndent(template[lineStart:idx])

	body := FormatInstructions(d)
	lines := strings.Split(body, "\n")
	for i := 1; i < len(lines); i++ {
		lines[i] = strings.Repeat(" ", indent) + lines[i]
	}
	return strings.Replace(template, ReturnTypeToken, strings.Join(lines, "\n"), 1)
}

func countIndent(s string) int {
	n := 0
	for _, r := range s {
		if r != ' ' && r != '\t' {
			break
		}
		n++
	}
	return n
}
