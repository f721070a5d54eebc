package metamodel

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func rulesDoc() ValidationDoc {
	return ValidationDoc{MaxStringLength: 5, MaxTextLength: 10, EnumCaseSensitive: false}
}

func testRegistry(t *testing.T, doc Document) *Registry {
	t.Helper()
	reg, err := NewRegistry(doc)
	require.NoError(t, err)
	return reg
}

func TestValidateNodeRejectsMissingType(t *testing.T) {
	reg := testRegistry(t, Document{Validation: rulesDoc()})
	err := reg.ValidateNode("n1", "", nil)
	require.ErrorIs(t, err, ErrValidation)
	require.Contains(t, err.Error(), "missing type")
}

func TestValidateNodeChecksRequiredAttributesAndTypes(t *testing.T) {
	doc := Document{
		Validation: rulesDoc(),
		Types: []TypeDoc{
			{ID: "Capability", Attributes: []AttributeDoc{{Name: "name", Kind: KindString, Required: true}}},
		},
	}
	reg := testRegistry(t, doc)

	err := reg.ValidateNode("n1", "Capability", nil)
	require.ErrorIs(t, err, ErrValidation)
	require.Contains(t, err.Error(), "missing required attributes")

	require.NoError(t, reg.ValidateNode("n1", "Capability", map[string]any{"name": "ok"}))
}

func TestValidateNodeRejectsNullOrOverlongStringValues(t *testing.T) {
	doc := Document{
		Validation: rulesDoc(),
		Types: []TypeDoc{
			{ID: "Capability", Attributes: []AttributeDoc{{Name: "name", Kind: KindString, Required: true}}},
		},
	}
	reg := testRegistry(t, doc)

	err := reg.ValidateNode("n1", "Capability", map[string]any{"name": nil})
	require.Error(t, err)
	require.Contains(t, err.Error(), "cannot be null")

	err = reg.ValidateNode("n1", "Capability", map[string]any{"name": "too-long"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "exceeds max length")
}

func TestValidateEdgeEnforcesEndpointsAndEnumValues(t *testing.T) {
	doc := Document{
		Validation: rulesDoc(),
		Relationships: []RelationshipDoc{
			{ID: "rel_aa", From: []string{"A"}, To: []string{"A"}},
			{ID: "rel_ab", From: []string{"A"}, To: []string{"B"},
				Attributes: []AttributeDoc{{Name: "state", Kind: KindEnum, Required: true, Enum: []string{"open", "closed"}}}},
		},
	}
	doc.Validation.Relationships = map[string]RelationshipFlags{
		"rel_aa": {AllowSelf: false},
		"rel_ab": {AllowSelf: false},
	}
	reg := testRegistry(t, doc)

	err := reg.ValidateEdge("a", "a", "rel_aa", "A", "A", nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "forbids self-links")

	require.NoError(t, reg.ValidateEdge("a", "b", "rel_ab", "A", "B", map[string]any{"state": "OPEN"}))

	err = reg.ValidateEdge("a", "b", "rel_ab", "A", "B", map[string]any{"state": "invalid"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "not in")
}

func TestValidateEdgeRejectsUnknownRelationshipAndEndpoints(t *testing.T) {
	doc := Document{
		Validation:    rulesDoc(),
		Relationships: []RelationshipDoc{{ID: "rel_ab", From: []string{"A"}, To: []string{"B"}}},
	}
	reg := testRegistry(t, doc)

	require.ErrorIs(t, reg.ValidateEdge("a", "b", "unknown", "A", "B", nil), ErrValidation)
	require.ErrorIs(t, reg.ValidateEdge("a", "b", "rel_ab", "Z", "B", nil), ErrValidation)
	require.ErrorIs(t, reg.ValidateEdge("a", "b", "rel_ab", "A", "Z", nil), ErrValidation)
}

func TestValidateNumberBooleanDatetimeBlob(t *testing.T) {
	doc := Document{
		Validation: rulesDoc(),
		Types: []TypeDoc{{ID: "T", Attributes: []AttributeDoc{
			{Name: "n", Kind: KindNumber},
			{Name: "b", Kind: KindBoolean},
			{Name: "d", Kind: KindDatetime},
			{Name: "blob", Kind: KindBlob},
		}}},
	}
	reg := testRegistry(t, doc)

	require.NoError(t, reg.ValidateNode("x", "T", map[string]any{"n": 1.0}))
	require.Error(t, reg.ValidateNode("x", "T", map[string]any{"n": "nope"}))

	require.NoError(t, reg.ValidateNode("x", "T", map[string]any{"b": true}))
	require.Error(t, reg.ValidateNode("x", "T", map[string]any{"b": "nope"}))

	require.NoError(t, reg.ValidateNode("x", "T", map[string]any{"d": "2024-01-01T00:00:00Z"}))
	require.Error(t, reg.ValidateNode("x", "T", map[string]any{"d": "not-a-date"}))

	require.NoError(t, reg.ValidateNode("x", "T", map[string]any{"blob": map[string]any{"a": 1}}))
	require.Error(t, reg.ValidateNode("x", "T", map[string]any{"blob": 5.0}))
}

func TestAllErrorsWrapErrValidation(t *testing.T) {
	doc := Document{Validation: rulesDoc()}
	reg := testRegistry(t, doc)
	err := reg.ValidateNode("n", "missing", nil)
	require.True(t, errors.Is(err, ErrValidation))
}
