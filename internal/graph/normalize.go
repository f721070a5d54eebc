package graph

import "sort"

// Normalize returns a copy of c with each of the six sequences sorted by a
// stable key: node sequences by id; edge creates/updates by (id, from, to);
// edge deletes by (from, to). Order within a sequence is otherwise
// insignificant, but a canonical order is required so hashing the changeset
// is deterministic.
func (c Changeset) Normalize() Changeset {
	out := Changeset{
		NodeCreates: append([]Node(nil), c.NodeCreates...),
		NodeUpdates: append([]Node(nil), c.NodeUpdates...),
		NodeDeletes: append([]NodeTombstone(nil), c.NodeDeletes...),
		EdgeCreates: append([]Edge(nil), c.EdgeCreates...),
		EdgeUpdates: append([]Edge(nil), c.EdgeUpdates...),
		EdgeDeletes: append([]EdgeTombstone(nil), c.EdgeDeletes...),
	}
	sort.SliceStable(out.NodeCreates, func(i, j int) bool { return out.NodeCreates[i].ID < out.NodeCreates[j].ID })
	sort.SliceStable(out.NodeUpdates, func(i, j int) bool { return out.NodeUpdates[i].ID < out.NodeUpdates[j].ID })
	sort.SliceStable(out.NodeDeletes, func(i, j int) bool { return out.NodeDeletes[i].ID < out.NodeDeletes[j].ID })
	sort.SliceStable(out.EdgeCreates, func(i, j int) bool { return edgeSortKey(out.EdgeCreates[i]) < edgeSortKey(out.EdgeCreates[j]) })
	sort.SliceStable(out.EdgeUpdates, func(i, j int) bool { return edgeSortKey(out.EdgeUpdates[i]) < edgeSortKey(out.EdgeUpdates[j]) })
	sort.SliceStable(out.EdgeDeletes, func(i, j int) bool {
		a, b := out.EdgeDeletes[i], out.EdgeDeletes[j]
		if a.From != b.From {
			return a.From < b.From
		}
		return a.To < b.To
	})
	return out
}

func edgeSortKey(e Edge) string {
	return e.ID + "\x00" + e.From + "\x00" + e.To
}
