package metamodel

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMergeDocumentsOverlayWinsByID(t *testing.T) {
	base := Document{
		Version: "1",
		Types:   []TypeDoc{{ID: "A", Attributes: []AttributeDoc{{Name: "x", Kind: KindString}}}},
	}
	overlay := Document{
		Version: "1",
		Types:   []TypeDoc{{ID: "A", Attributes: []AttributeDoc{{Name: "y", Kind: KindNumber}}}},
	}
	merged, err := MergeDocuments(base, overlay)
	require.NoError(t, err)
	require.Len(t, merged.Types, 1)
	require.Len(t, merged.Types[0].Attributes, 1)
	require.Equal(t, "y", merged.Types[0].Attributes[0].Name)
}

func TestMergeDocumentsAppendsNewIDs(t *testing.T) {
	base := Document{Version: "1", Types: []TypeDoc{{ID: "A"}}}
	overlay := Document{Version: "1", Types: []TypeDoc{{ID: "B"}}}
	merged, err := MergeDocuments(base, overlay)
	require.NoError(t, err)
	require.Len(t, merged.Types, 2)
}

func TestMergeDocumentsRejectsVersionMismatch(t *testing.T) {
	base := Document{Version: "1"}
	overlay := Document{Version: "2"}
	_, err := MergeDocuments(base, overlay)
	require.ErrorIs(t, err, ErrSchema)
}

func TestMergeDocumentsOverlayReplacesValidationWholesale(t *testing.T) {
	base := Document{Version: "1", Validation: ValidationDoc{MaxStringLength: 5}}
	overlay := Document{Version: "1", Validation: ValidationDoc{MaxTextLength: 50}}
	merged, err := MergeDocuments(base, overlay)
	require.NoError(t, err)
	require.Equal(t, 0, merged.Validation.MaxStringLength)
	require.Equal(t, 50, merged.Validation.MaxTextLength)
}

func TestLoadFromDirectoryReadsBaseAndOverlays(t *testing.T) {
	dir := t.TempDir()
	writeYAML(t, filepath.Join(dir, "base.yaml"), `
version: "1"
types:
  - id: A
    attributes:
      - name: x
        kind: string
`)
	writeYAML(t, filepath.Join(dir, "010-overlay.yaml"), `
version: "1"
types:
  - id: A
    attributes:
      - name: y
        kind: number
`)

	reg, err := Load(dir)
	require.NoError(t, err)
	require.True(t, reg.HasType("A"))
}

func TestLoadEmptyPathUsesDefaultDocument(t *testing.T) {
	reg, err := Load("")
	require.NoError(t, err)
	require.True(t, reg.HasType("Entity"))
	require.True(t, reg.HasRelationship("related_to"))
}

func writeYAML(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}
