package prompt

import (
	"strings"
	"testing"

	"typestream/schema"
)

func personDesc() *schema.Descriptor {
	return schema.Class("Person", []schema.Field{
		{Name: "name", Type: schema.StringType, Required: true},
		{Name: "age", Type: schema.IntType, Required: true},
		{Name: "interests", Type: schema.List(schema.StringType), Required: true},
		{Name: "nickname", Type: schema.Optional(schema.StringType)},
	}, "A person extracted from the conversation.")
}

func TestFormatType(t *testing.T) {
	if got := FormatType(schema.List(schema.IntType)); got != "List[integer]" {
		t.Fatalf("FormatType = %q", got)
	}
}

func TestTypeDescriptionIncludesDoc(t *testing.T) {
	out := TypeDescription(personDesc())
	if !strings.Contains(out, "Person{") {
		t.Fatalf("missing canonical form: %q", out)
	}
	if !strings.Contains(out, "A person extracted from the conversation.") {
		t.Fatalf("missing docstring: %q", out)
	}
}

func TestFormatInstructionsClass(t *testing.T) {
	out := FormatInstructions(personDesc())
	if !strings.HasPrefix(out, "<Person>") || !strings.HasSuffix(out, "</Person>") {
		t.Fatalf("not wrapped in class tags: %q", out)
	}
	for _, want := range []string{
		`<name type="str">string value</name>`,
		`<age type="int">42</age>`,
		`<interests type="list[str]">`,
		`<item>string value</item>`,
		`<nickname type="str">...</nickname> (optional)`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
}

func TestFormatInstructionsContainers(t *testing.T) {
	out := FormatInstructions(schema.List(schema.IntType))
	want := "<list type=\"list\">\n    <item>42</item>\n    <item>42</item>\n    ...\n</list>"
	if out != want {
		t.Fatalf("list instructions = %q", out)
	}

	out = FormatInstructions(schema.Mapping(schema.StringType, schema.IntType))
	if !strings.Contains(out, `<dict type="dict">`) {
		t.Fatalf("dict instructions = %q", out)
	}
	if !strings.Contains(out, `<item key="key1">value1</item>`) {
		t.Fatalf("dict instructions = %q", out)
	}

	out = FormatInstructions(schema.Tuple(schema.StringType, schema.IntType))
	if !strings.Contains(out, `<tuple type="tuple[str, int]">`) {
		t.Fatalf("tuple instructions = %q", out)
	}
}

func TestFormatInstructionsUnion(t *testing.T) {
	cat := schema.Class("Cat", []schema.Field{
		{Name: "meow_volume", Type: schema.IntType, Required: true},
	}, "")
	dog := schema.Class("Dog", []schema.Field{
		{Name: "bark_pitch", Type: schema.IntType, Required: true},
	}, "")
	out := FormatInstructions(schema.Union(cat, dog))
	for _, want := range []string{"Option 1:", "Option 2:", "<Cat>", "<Dog>"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
}

func TestFormatInstructionsOptionalRoot(t *testing.T) {
	out := FormatInstructions(schema.Optional(schema.List(schema.IntType)))
	if !strings.HasSuffix(out, " (optional)") {
		t.Fatalf("missing optional marker: %q", out)
	}
}

func TestInterpolateKeepsIndent(t *testing.T) {
	template := "Answer the question.\n    {{return_type}}\nThanks."
	out := Interpolate(template, schema.List(schema.IntType))
	if strings.Contains(out, ReturnTypeToken) {
		t.Fatalf("token not replaced: %q", out)
	}
	if !strings.Contains(out, "    <list type=\"list\">") {
		t.Fatalf("first line lost its place: %q", out)
	}
	if !strings.Contains(out, "\n        <item>42</item>") {
		t.Fatalf("inserted lines not indented: %q", out)
	}

	multi := Interpolate("  {{return_type}}", personDesc())
	for i, line := range strings.Split(multi, "\n") {
		if i == 0 {
			continue
		}
		if !strings.HasPrefix(line, "  ") {
			t.Fatalf("line %d not indented: %q", i, line)
		}
	}
}

func TestInterpolateWithoutToken(t *testing.T) {
	if got := Interpolate("plain", personDesc()); got != "plain" {
		t.Fatalf("got %q", got)
	}
}
