package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormat(t *testing.T) {
	person := Class("Person", []Field{
		{Name: "name", Type: StringType, Required: true},
		{Name: "age", Type: IntType, Required: true},
		{Name: "tags", Type: List(StringType), Required: false},
	}, "")

	cases := []struct {
		d    *Descriptor
		want string
	}{
		{StringType, "string"},
		{IntType, "integer"},
		{List(IntType), "List[integer]"},
		{Tuple(StringType, RealType), "Tuple[string, real]"},
		{Set(BoolType), "Set[bool]"},
		{Mapping(StringType, AnyType), "Mapping[string, any]"},
		{Optional(IntType), "Optional[integer]"},
		{Union(IntType, StringType), "integer | string"},
		{person, "Person{name: string, age: integer, tags: List[string] (optional)}"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Format(tc.d))
	}
}

func TestValidateRejectsBadShapes(t *testing.T) {
	// Union arity.
	require.Error(t, Validate(Union(IntType)))

	// Duplicate field names.
	require.Error(t, Validate(Class("X", []Field{
		{Name: "a", Type: IntType},
		{Name: "a", Type: StringType},
	}, "")))

	// Nil child.
	require.Error(t, Validate(List(nil)))

	// Empty tuple.
	require.Error(t, Validate(Tuple()))
}

func TestValidateCycles(t *testing.T) {
	// Direct self-reference with no break.
	node := &Descriptor{Kind: KindClass, Name: "Node"}
	node.Fields = []Field{{Name: "next", Type: node, Required: true}}
	require.Error(t, Validate(node))

	// The same shape through Optional is fine.
	tree := &Descriptor{Kind: KindClass, Name: "Tree"}
	tree.Fields = []Field{
		{Name: "label", Type: StringType, Required: true},
		{Name: "left", Type: Optional(tree)},
		{Name: "children", Type: List(tree)},
	}
	require.NoError(t, Validate(tree))
}

func TestRootTags(t *testing.T) {
	person := Class("Person", nil, "")
	assert.Equal(t, []string{"Person"}, RootTags(person))
	assert.Equal(t, []string{"list"}, RootTags(List(IntType)))
	assert.Equal(t, []string{"tuple"}, RootTags(Tuple(IntType)))
	assert.Equal(t, []string{"set"}, RootTags(Set(IntType)))
	assert.Equal(t, []string{"dict"}, RootTags(Mapping(StringType, IntType)))
	assert.Equal(t, []string{"Person"}, RootTags(Optional(person)))

	cat := Class("Cat", nil, "")
	dog := Class("Dog", nil, "")
	tags := RootTags(Union(cat, dog))
	assert.Contains(t, tags, "Cat")
	assert.Contains(t, tags, "Dog")
	assert.Contains(t, tags, "union:Cat")
}

func TestVariantByTag(t *testing.T) {
	cat := Class("Cat", nil, "")
	dog := Class("Dog", nil, "")
	u := Union(cat, dog)

	assert.Equal(t, dog, VariantByTag(u, "Dog"))
	assert.Equal(t, cat, VariantByTag(u, "union:Cat"))
	assert.Nil(t, VariantByTag(u, "Bird"))
}

func TestMapRegistry(t *testing.T) {
	person := Class("Person", []Field{
		{Name: "name", Type: StringType, Required: true},
		{Name: "pet", Type: Optional(Class("Pet", []Field{
			{Name: "kind", Type: StringType, Required: true},
		}, ""))},
	}, "")
	reg := NewMapRegistry(person)

	d, err := reg.Describe("Pet")
	require.NoError(t, err)
	assert.Equal(t, "Pet", d.Name)

	_, err = reg.Describe("Ghost")
	require.Error(t, err)

	obj, err := reg.Instantiate(person, map[string]any{"name": "A"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"name": "A", "pet": nil}, obj)

	_, err = reg.Instantiate(person, map[string]any{})
	require.Error(t, err)
}
