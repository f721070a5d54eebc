package metamodel

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtendsMergesAttributesChildOverrides(t *testing.T) {
	doc := Document{
		Types: []TypeDoc{
			{ID: "Base", Attributes: []AttributeDoc{
				{Name: "name", Kind: KindString, Required: true},
				{Name: "owner", Kind: KindString},
			}},
			{ID: "Child", Extends: "Base", Attributes: []AttributeDoc{
				{Name: "owner", Kind: KindString, Required: true},
				{Name: "extra", Kind: KindNumber},
			}},
		},
	}
	reg, err := NewRegistry(doc)
	require.NoError(t, err)

	child := reg.types["Child"]
	require.Len(t, child.Attributes, 3)
	require.True(t, child.Attributes["owner"].Required, "child override should win")
	require.True(t, child.Attributes["name"].Required, "inherited attribute survives")
	require.Equal(t, KindNumber, child.Attributes["extra"].Kind)
}

func TestExtendsChainOfThreeMergesTransitively(t *testing.T) {
	doc := Document{
		Types: []TypeDoc{
			{ID: "Grandparent", Attributes: []AttributeDoc{{Name: "g", Kind: KindString}}},
			{ID: "Parent", Extends: "Grandparent", Attributes: []AttributeDoc{{Name: "p", Kind: KindString}}},
			{ID: "Child", Extends: "Parent", Attributes: []AttributeDoc{{Name: "c", Kind: KindString}}},
		},
	}
	reg, err := NewRegistry(doc)
	require.NoError(t, err)
	child := reg.types["Child"]
	require.Len(t, child.Attributes, 3)
}

func TestExtendsCycleIsRejected(t *testing.T) {
	doc := Document{
		Types: []TypeDoc{
			{ID: "A", Extends: "B"},
			{ID: "B", Extends: "A"},
		},
	}
	_, err := NewRegistry(doc)
	require.Error(t, err)
	require.ErrorIs(t, err, ErrSchema)
}

func TestExtendsUnknownParentIsRejected(t *testing.T) {
	doc := Document{Types: []TypeDoc{{ID: "A", Extends: "Missing"}}}
	_, err := NewRegistry(doc)
	require.ErrorIs(t, err, ErrSchema)
}

func TestRelationshipFlagsResolveFromValidationBlock(t *testing.T) {
	doc := Document{
		Relationships: []RelationshipDoc{{ID: "rel", From: []string{"A"}, To: []string{"A"}}},
		Validation:    ValidationDoc{Relationships: map[string]RelationshipFlags{"rel": {AllowDuplicate: true}}},
	}
	reg, err := NewRegistry(doc)
	require.NoError(t, err)
	require.True(t, reg.RelationshipAllowsDuplicate("rel"))
	require.False(t, reg.RelationshipAllowsDuplicate("unknown"))
}
