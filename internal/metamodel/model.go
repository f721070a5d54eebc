package metamodel

import "fmt"

// TypeDescriptor is a node type after `extends` resolution: the attribute
// set is the full merge of every ancestor in the chain, child overriding.
type TypeDescriptor struct {
	ID         string
	Attributes map[string]AttributeDoc
}

// RelationshipDescriptor is a relationship type after flag resolution.
type RelationshipDescriptor struct {
	ID             string
	From           map[string]bool
	To             map[string]bool
	Attributes     map[string]AttributeDoc
	AllowSelf      bool
	AllowDuplicate bool
}

// buildTypeDescriptors resolves every type's `extends` chain iteratively
// (no call-stack recursion, so depth is bounded only by available heap),
// memoizing each ancestor as it is resolved so repeated extends targets
// across many types are only merged once.
func buildTypeDescriptors(typeDocs []TypeDoc) (map[string]*TypeDescriptor, error) {
	byID := make(map[string]TypeDoc, len(typeDocs))
	for _, t := range typeDocs {
		byID[t.ID] = t
	}
	resolved := make(map[string]*TypeDescriptor, len(typeDocs))
	for _, t := range typeDocs {
		if _, err := resolveType(t.ID, byID, resolved); err != nil {
			return nil, err
		}
	}
	return resolved, nil
}

func resolveType(id string, byID map[string]TypeDoc, resolved map[string]*TypeDescriptor) (*TypeDescriptor, error) {
	if d, ok := resolved[id]; ok {
		return d, nil
	}

	chain, ancestor, err := extendsChain(id, byID, resolved)
	if err != nil {
		return nil, err
	}
	// chain is leaf-to-root; reverse so the merge below applies ancestors
	// first and lets the child win.
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}

	attrs := make(map[string]AttributeDoc)
	if ancestor != nil {
		for k, v := range ancestor.Attributes {
			attrs[k] = v
		}
	}
	for _, cid := range chain {
		doc := byID[cid]
		for _, a := range doc.Attributes {
			attrs[a.Name] = a
		}
		snapshot := make(map[string]AttributeDoc, len(attrs))
		for k, v := range attrs {
			snapshot[k] = v
		}
		resolved[cid] = &TypeDescriptor{ID: cid, Attributes: snapshot}
	}
	return resolved[id], nil
}

// extendsChain walks from id upward through `extends` links, stopping at a
// type that is either already resolved (returned as ancestor) or has no
// further parent. It returns an error wrapping ErrSchema if the walk
// revisits a type already on the current path (a cycle) or names an
// unknown extends target.
func extendsChain(id string, byID map[string]TypeDoc, resolved map[string]*TypeDescriptor) ([]string, *TypeDescriptor, error) {
	var chain []string
	onPath := make(map[string]bool)
	cur := id
	for {
		if onPath[cur] {
			return nil, nil, fmt.Errorf("resolve type %q: %w: extends cycle at %q", id, ErrSchema, cur)
		}
		onPath[cur] = true

		if d, ok := resolved[cur]; ok {
			return chain, d, nil
		}
		doc, ok := byID[cur]
		if !ok {
			return nil, nil, fmt.Errorf("resolve type %q: %w: unknown extends target %q", id, ErrSchema, cur)
		}
		chain = append(chain, cur)
		if doc.Extends == "" {
			return chain, nil, nil
		}
		cur = doc.Extends
	}
}

func buildRelationshipDescriptors(docs []RelationshipDoc, flags map[string]RelationshipFlags) map[string]*RelationshipDescriptor {
	result := make(map[string]*RelationshipDescriptor, len(docs))
	for _, r := range docs {
		attrs := make(map[string]AttributeDoc, len(r.Attributes))
		for _, a := range r.Attributes {
			attrs[a.Name] = a
		}
		f := flags[r.ID]
		result[r.ID] = &RelationshipDescriptor{
			ID:             r.ID,
			From:           toSet(r.From),
			To:             toSet(r.To),
			Attributes:     attrs,
			AllowSelf:      f.AllowSelf,
			AllowDuplicate: f.AllowDuplicate,
		}
	}
	return result
}

func toSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}
