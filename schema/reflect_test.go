package schema

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pet struct {
	Kind string `json:"kind"`
	Name string `json:"name"`
}

type person struct {
	Name      string   `json:"name"`
	Age       int      `json:"age"`
	Nickname  *string  `json:"nickname"`
	Interests []string `json:"interests" schema:"optional"`
	Pet       pet      `json:"pet" schema:"optional"`
	Scores    map[string]float64
}

func TestFromType(t *testing.T) {
	d, err := FromType(reflect.TypeOf(person{}))
	require.NoError(t, err)
	require.Equal(t, KindClass, d.Kind)
	assert.Equal(t, "person", d.Name)
	require.Len(t, d.Fields, 6)

	assert.Equal(t, "name", d.Fields[0].Name)
	assert.Equal(t, KindString, d.Fields[0].Type.Kind)
	assert.True(t, d.Fields[0].Required)

	assert.Equal(t, KindInt, d.Fields[1].Type.Kind)

	assert.Equal(t, "nickname", d.Fields[2].Name)
	assert.Equal(t, KindOptional, d.Fields[2].Type.Kind)
	assert.False(t, d.Fields[2].Required)

	assert.Equal(t, KindOptional, d.Fields[3].Type.Kind)
	assert.Equal(t, KindList, d.Fields[3].Type.Elem.Kind)

	assert.Equal(t, KindOptional, d.Fields[4].Type.Kind)
	assert.Equal(t, KindClass, d.Fields[4].Type.Elem.Kind)

	assert.Equal(t, "Scores", d.Fields[5].Name)
	assert.Equal(t, KindMapping, d.Fields[5].Type.Kind)
}

func TestFromTypeCached(t *testing.T) {
	a, err := FromType(reflect.TypeOf(pet{}))
	require.NoError(t, err)
	b, err := FromType(reflect.TypeOf(pet{}))
	require.NoError(t, err)
	assert.Same(t, a, b)
}

func TestStructRegistryInstantiate(t *testing.T) {
	reg, err := NewStructRegistry(person{})
	require.NoError(t, err)

	d, err := reg.Describe("person")
	require.NoError(t, err)

	obj, err := reg.Instantiate(d, map[string]any{
		"name":      "Alice",
		"age":       int64(30),
		"interests": []any{"coding", "hiking"},
		"Scores":    map[string]any{"math": 9.5},
	})
	require.NoError(t, err)

	p, ok := obj.(*person)
	require.True(t, ok)
	assert.Equal(t, "Alice", p.Name)
	assert.Equal(t, 30, p.Age)
	assert.Nil(t, p.Nickname)
	assert.Equal(t, []string{"coding", "hiking"}, p.Interests)
	assert.Equal(t, map[string]float64{"math": 9.5}, p.Scores)
}

func TestStructRegistryMissingRequired(t *testing.T) {
	reg, err := NewStructRegistry(person{})
	require.NoError(t, err)
	d, err := reg.Describe("person")
	require.NoError(t, err)

	_, err = reg.Instantiate(d, map[string]any{"name": "Alice"})
	require.Error(t, err)

	obj, err := reg.InstantiatePartial(d, map[string]any{"name": "Alice"})
	require.NoError(t, err)
	assert.Equal(t, "Alice", obj.(*person).Name)
}

func TestStructRegistryNestedClass(t *testing.T) {
	reg, err := NewStructRegistry(person{})
	require.NoError(t, err)
	d, err := reg.Describe("pet")
	require.NoError(t, err)

	obj, err := reg.Instantiate(d, map[string]any{"kind": "cat", "name": "Mia"})
	require.NoError(t, err)
	assert.Equal(t, &pet{Kind: "cat", Name: "Mia"}, obj)
}
