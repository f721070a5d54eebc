package metamodel

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// Load reads a schema document (and its overlays, if any) and builds a
// Registry. path may name:
//
//   - the empty string, in which case the embedded default document is used;
//   - a single YAML file, used as the base document with no overlays;
//   - a directory containing "base.yaml" plus zero or more additional
//     "*.yaml" files, applied as overlays in lexical filename order.
func Load(path string) (*Registry, error) {
	docs, err := loadDocuments(path)
	if err != nil {
		return nil, err
	}
	merged, err := MergeDocuments(docs...)
	if err != nil {
		return nil, err
	}
	return NewRegistry(merged)
}

func loadDocuments(path string) ([]Document, error) {
	if path == "" {
		return []Document{DefaultDocument()}, nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat meta-model path %q: %w: %w", path, ErrSchema, err)
	}

	if !info.IsDir() {
		doc, err := decodeFile(path)
		if err != nil {
			return nil, err
		}
		return []Document{doc}, nil
	}

	basePath := filepath.Join(path, "base.yaml")
	base, err := decodeFile(basePath)
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("read meta-model directory %q: %w: %w", path, ErrSchema, err)
	}
	var overlayNames []string
	for _, e := range entries {
		if e.IsDir() || e.Name() == "base.yaml" || filepath.Ext(e.Name()) != ".yaml" {
			continue
		}
		overlayNames = append(overlayNames, e.Name())
	}
	sort.Strings(overlayNames)

	docs := []Document{base}
	for _, name := range overlayNames {
		overlay, err := decodeFile(filepath.Join(path, name))
		if err != nil {
			return nil, err
		}
		docs = append(docs, overlay)
	}
	return docs, nil
}

func decodeFile(path string) (Document, error) {
	data, err := os.ReadFile(path) // #nosec G304 - operator-supplied schema path
	if err != nil {
		return Document{}, fmt.Errorf("read meta-model document %q: %w: %w", path, ErrSchema, err)
	}
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("parse meta-model document %q: %w: %w", path, ErrSchema, err)
	}
	return doc, nil
}

// MergeDocuments folds a base document and its overlays into one document.
// Overlays must share the base's version; types and relationships are merged
// by id, the overlay winning wholesale on a match. A nonzero Validation block
// in an overlay replaces the base's wholesale.
func MergeDocuments(docs ...Document) (Document, error) {
	if len(docs) == 0 {
		return Document{}, fmt.Errorf("merge meta-model documents: %w: no documents supplied", ErrSchema)
	}
	merged := docs[0]
	for _, overlay := range docs[1:] {
		if overlay.Version != "" && merged.Version != "" && overlay.Version != merged.Version {
			return Document{}, fmt.Errorf("merge meta-model documents: %w: overlay version %q does not match base version %q",
				ErrSchema, overlay.Version, merged.Version)
		}
		merged.Types = mergeTypeDocs(merged.Types, overlay.Types)
		merged.Relationships = mergeRelationshipDocs(merged.Relationships, overlay.Relationships)
		if !isZeroValidation(overlay.Validation) {
			merged.Validation = overlay.Validation
		}
	}
	return merged, nil
}

func mergeTypeDocs(base, overlay []TypeDoc) []TypeDoc {
	index := make(map[string]int, len(base))
	result := make([]TypeDoc, len(base))
	copy(result, base)
	for i, t := range result {
		index[t.ID] = i
	}
	for _, t := range overlay {
		if i, ok := index[t.ID]; ok {
			result[i] = t
			continue
		}
		index[t.ID] = len(result)
		result = append(result, t)
	}
	return result
}

func mergeRelationshipDocs(base, overlay []RelationshipDoc) []RelationshipDoc {
	index := make(map[string]int, len(base))
	result := make([]RelationshipDoc, len(base))
	copy(result, base)
	for i, r := range result {
		index[r.ID] = i
	}
	for _, r := range overlay {
		if i, ok := index[r.ID]; ok {
			result[i] = r
			continue
		}
		index[r.ID] = len(result)
		result = append(result, r)
	}
	return result
}

func isZeroValidation(v ValidationDoc) bool {
	return v.MaxStringLength == 0 && v.MaxTextLength == 0 && !v.EnumCaseSensitive && len(v.Relationships) == 0
}

// DefaultDocument is the minimal schema used when no meta-model path is
// configured: a single generic "Entity" type with no required attributes and
// a single generic "related_to" relationship permitted between any two
// entities.
func DefaultDocument() Document {
	return Document{
		Version: "1",
		Types: []TypeDoc{
			{ID: "Entity"},
		},
		Relationships: []RelationshipDoc{
			{ID: "related_to", From: []string{"Entity"}, To: []string{"Entity"}},
		},
		Validation: ValidationDoc{
			MaxStringLength:   255,
			MaxTextLength:     65536,
			EnumCaseSensitive: true,
		},
	}
}
