package graph

import "github.com/google/go-cmp/cmp"

// Diff computes the structural difference from s to other: six sequences
// of adds, mods, and deletes over nodes and edges. An entry lands in *Mods
// iff the key exists in both snapshots and the payload differs by value
// equality.
func (s Snapshot) Diff(other Snapshot) Patch {
	var patch Patch

	for id, node := range other.nodes {
		if existing, ok := s.nodes[id]; !ok {
			patch.NodeAdds = append(patch.NodeAdds, node)
		} else if !cmp.Equal(existing, node) {
			patch.NodeMods = append(patch.NodeMods, node)
		}
	}
	for id := range s.nodes {
		if _, ok := other.nodes[id]; !ok {
			patch.NodeDels = append(patch.NodeDels, NodeTombstone{ID: id})
		}
	}

	for key, edge := range other.edges {
		if existing, ok := s.edges[key]; !ok {
			patch.EdgeAdds = append(patch.EdgeAdds, edge)
		} else if !cmp.Equal(existing, edge) {
			patch.EdgeMods = append(patch.EdgeMods, edge)
		}
	}
	for key := range s.edges {
		if _, ok := other.edges[key]; !ok {
			patch.EdgeDels = append(patch.EdgeDels, EdgeTombstone{From: key.From, To: key.To})
		}
	}

	return patch
}
