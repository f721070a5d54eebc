// Package metamodel parses and merges schema documents describing the
// permissible node and edge shapes of a graph, and exposes validators that
// the graph snapshot algebra calls on every mutation.
package metamodel

// Registry is a shared, read-only handle over a resolved schema: every
// type's `extends` chain has been merged and every relationship's endpoint
// and flag rules are ready to check. A Registry never mutates after
// construction, so it needs no lock on the read path.
type Registry struct {
	document      Document
	types         map[string]*TypeDescriptor
	relationships map[string]*RelationshipDescriptor
}

// NewRegistry resolves a merged Document into a Registry, returning an error
// wrapping ErrSchema if `extends` forms a cycle or names an unknown parent.
func NewRegistry(doc Document) (*Registry, error) {
	types, err := buildTypeDescriptors(doc.Types)
	if err != nil {
		return nil, err
	}
	relationships := buildRelationshipDescriptors(doc.Relationships, doc.Validation.Relationships)
	return &Registry{document: doc, types: types, relationships: relationships}, nil
}

// Document returns the merged schema document, for callers that expose it
// verbatim (e.g. the engine's meta_model operation).
func (r *Registry) Document() Document {
	return r.document
}

// HasType reports whether id names a registered node type.
func (r *Registry) HasType(id string) bool {
	_, ok := r.types[id]
	return ok
}

// HasRelationship reports whether id names a registered relationship type.
func (r *Registry) HasRelationship(id string) bool {
	_, ok := r.relationships[id]
	return ok
}

// RelationshipAllowsDuplicate reports whether more than one edge of the
// given relationship type is permitted between the same ordered (from, to)
// pair. Unknown relationship types conservatively disallow duplicates.
func (r *Registry) RelationshipAllowsDuplicate(relType string) bool {
	rel, ok := r.relationships[relType]
	return ok && rel.AllowDuplicate
}
