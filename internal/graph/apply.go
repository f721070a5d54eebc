package graph

import "fmt"

// Apply applies change to the receiver in the fixed order node deletes,
// node creates, node updates, edge deletes, edge creates, edge updates,
// validating every mutation against registry, and returns the resulting
// snapshot. The receiver is never mutated.
func (s Snapshot) Apply(change Changeset, registry Validator) (Snapshot, error) {
	next := s.clone()
	if err := applyNodeChanges(&next, change, registry); err != nil {
		return Snapshot{}, err
	}
	if err := applyEdgeChanges(&next, change, registry); err != nil {
		return Snapshot{}, err
	}
	if err := next.validate(); err != nil {
		return Snapshot{}, err
	}
	return next, nil
}

func (s Snapshot) validate() error {
	for key, edge := range s.edges {
		if _, ok := s.nodes[edge.From]; ok {
			if _, ok := s.nodes[edge.To]; ok {
				continue
			}
		}
		ref := key.ID
		if ref == "" {
			ref = fmt.Sprintf("%s->%s", edge.From, edge.To)
		}
		return fmt.Errorf("edge %q references missing endpoint(s): %w", ref, ErrIntegrity)
	}
	return nil
}

// sanitizeNode and sanitizeEdge are the identity function over a nil Props
// map: a JSON `null` props value is normalized to absent at the JSON
// decoding boundary (internal/store/sqlite), not here, since Go's nil map
// already is that boundary's "absent" representation.
func sanitizeNode(n Node) Node { return n }

func sanitizeEdge(e Edge) Edge { return e }

func applyNodeChanges(snapshot *Snapshot, change Changeset, registry Validator) error {
	for _, tomb := range change.NodeDeletes {
		if _, ok := snapshot.nodes[tomb.ID]; !ok {
			return fmt.Errorf("node %q does not exist for delete: %w", tomb.ID, ErrValidation)
		}
		delete(snapshot.nodes, tomb.ID)
	}

	for _, node := range change.NodeCreates {
		if err := registry.ValidateNode(node.ID, node.Type, node.Props); err != nil {
			return err
		}
		if _, ok := snapshot.nodes[node.ID]; ok {
			return fmt.Errorf("node %q already exists: %w", node.ID, ErrValidation)
		}
		snapshot.nodes[node.ID] = sanitizeNode(node)
	}

	for _, node := range change.NodeUpdates {
		if err := registry.ValidateNode(node.ID, node.Type, node.Props); err != nil {
			return err
		}
		if _, ok := snapshot.nodes[node.ID]; !ok {
			return fmt.Errorf("node %q missing for update: %w", node.ID, ErrValidation)
		}
		snapshot.nodes[node.ID] = sanitizeNode(node)
	}
	return nil
}

func applyEdgeChanges(snapshot *Snapshot, change Changeset, registry Validator) error {
	for _, tomb := range change.EdgeDeletes {
		if err := removeEdgesMatching(snapshot.edges, tomb); err != nil {
			return err
		}
	}

	for _, edge := range change.EdgeCreates {
		if err := ensureEndpointsExist(snapshot.nodes, edge); err != nil {
			return err
		}
		fromType := snapshot.nodes[edge.From].Type
		toType := snapshot.nodes[edge.To].Type
		if err := registry.ValidateEdge(edge.From, edge.To, edge.Type, fromType, toType, edge.Props); err != nil {
			return err
		}
		key := edgeKey(edge)
		if _, ok := snapshot.edges[key]; ok {
			return fmt.Errorf("edge %q already exists: %w", edgeRef(edge), ErrValidation)
		}
		if !registry.RelationshipAllowsDuplicate(edge.Type) {
			if err := assertNoDuplicateEdge(snapshot.edges, edge); err != nil {
				return err
			}
		}
		snapshot.edges[key] = sanitizeEdge(edge)
	}

	for _, edge := range change.EdgeUpdates {
		if err := ensureEndpointsExist(snapshot.nodes, edge); err != nil {
			return err
		}
		key, err := resolveEdgeKey(snapshot.edges, edge)
		if err != nil {
			return err
		}
		delete(snapshot.edges, key)
		fromType := snapshot.nodes[edge.From].Type
		toType := snapshot.nodes[edge.To].Type
		if err := registry.ValidateEdge(edge.From, edge.To, edge.Type, fromType, toType, edge.Props); err != nil {
			return err
		}
		if !registry.RelationshipAllowsDuplicate(edge.Type) {
			if err := assertNoDuplicateEdge(snapshot.edges, edge); err != nil {
				return err
			}
		}
		snapshot.edges[edgeKey(edge)] = sanitizeEdge(edge)
	}
	return nil
}

func resolveEdgeKey(edges map[EdgeKey]Edge, edge Edge) (EdgeKey, error) {
	if edge.ID != "" {
		for k := range edges {
			if k.ID == edge.ID {
				return k, nil
			}
		}
		return EdgeKey{}, fmt.Errorf("edge %q missing for update: %w", edge.ID, ErrValidation)
	}

	var matches []EdgeKey
	for k := range edges {
		if k.From == edge.From && k.To == edge.To {
			matches = append(matches, k)
		}
	}
	switch len(matches) {
	case 0:
		return EdgeKey{}, fmt.Errorf("edge %q missing for update: %w", edgeRef(edge), ErrValidation)
	case 1:
		return matches[0], nil
	default:
		return EdgeKey{}, fmt.Errorf("edge %q update is ambiguous (%d matches): %w", edgeRef(edge), len(matches), ErrValidation)
	}
}

func assertNoDuplicateEdge(edges map[EdgeKey]Edge, candidate Edge) error {
	for _, e := range edges {
		if e.From == candidate.From && e.To == candidate.To && e.Type == candidate.Type {
			return fmt.Errorf("relationship %q already exists between %q and %q: %w",
				candidate.Type, candidate.From, candidate.To, ErrValidation)
		}
	}
	return nil
}

func ensureEndpointsExist(nodes map[string]Node, edge Edge) error {
	_, fromOK := nodes[edge.From]
	_, toOK := nodes[edge.To]
	if !fromOK || !toOK {
		return fmt.Errorf("edge %q references missing node(s): %w", edgeRef(edge), ErrValidation)
	}
	return nil
}

func removeEdgesMatching(edges map[EdgeKey]Edge, tomb EdgeTombstone) error {
	var keys []EdgeKey
	for k := range edges {
		if k.matchesTombstone(tomb) {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return fmt.Errorf("edge %q->%q does not exist for delete: %w", tomb.From, tomb.To, ErrValidation)
	}
	for _, k := range keys {
		delete(edges, k)
	}
	return nil
}

func edgeRef(e Edge) string {
	if e.ID != "" {
		return e.ID
	}
	return fmt.Sprintf("%s->%s", e.From, e.To)
}
