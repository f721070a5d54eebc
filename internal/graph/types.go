// Package graph implements the immutable graph snapshot value type and its
// change-application algebra: apply(changeset) and diff(other).
package graph

import "errors"

// ErrValidation marks a changeset rejection: a referenced node/edge missing,
// a duplicate id, an ambiguous update target, or a schema rejection bubbled
// up from the meta-model registry.
var ErrValidation = errors.New("validation failed")

// ErrIntegrity marks a snapshot that failed its own post-apply invariant
// check (a dangling edge reference) despite every per-step validation
// passing — this indicates a buggy changeset, not a malformed single op.
var ErrIntegrity = errors.New("integrity violation")

// Node is one vertex in a snapshot. Props is nil when the node carries no
// properties; a present-but-null props value decodes to nil via encoding/json
// (Apply itself does not rewrite Props).
type Node struct {
	ID    string         `json:"id"`
	Type  string         `json:"type"`
	Props map[string]any `json:"props,omitempty"`
}

// NodeTombstone names a node to delete.
type NodeTombstone struct {
	ID string `json:"id"`
}

// Edge is one relationship instance in a snapshot. ID is empty when the
// caller did not supply one; Directed is nil when unspecified.
type Edge struct {
	ID       string         `json:"id,omitempty"`
	From     string         `json:"from"`
	To       string         `json:"to"`
	Type     string         `json:"type"`
	Directed *bool          `json:"directed,omitempty"`
	Props    map[string]any `json:"props,omitempty"`
}

// EdgeTombstone names an (from, to) pair whose edges should be deleted; all
// edges matching the pair are removed, regardless of id or type.
type EdgeTombstone struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// EdgeKey is the deterministic key edges are stored under inside a snapshot.
type EdgeKey struct {
	ID   string
	From string
	To   string
}

func edgeKey(e Edge) EdgeKey {
	return EdgeKey{ID: e.ID, From: e.From, To: e.To}
}

func (k EdgeKey) matchesTombstone(t EdgeTombstone) bool {
	return k.From == t.From && k.To == t.To
}

// Changeset is the six ordered mutation sequences a single commit applies.
type Changeset struct {
	NodeCreates []Node          `json:"node_creates,omitempty"`
	NodeUpdates []Node          `json:"node_updates,omitempty"`
	NodeDeletes []NodeTombstone `json:"node_deletes,omitempty"`
	EdgeCreates []Edge          `json:"edge_creates,omitempty"`
	EdgeUpdates []Edge          `json:"edge_updates,omitempty"`
	EdgeDeletes []EdgeTombstone `json:"edge_deletes,omitempty"`
}

// Len returns the total number of operations across all six sequences —
// the canonical source for a commit's change_count.
func (c Changeset) Len() int {
	return len(c.NodeCreates) + len(c.NodeUpdates) + len(c.NodeDeletes) +
		len(c.EdgeCreates) + len(c.EdgeUpdates) + len(c.EdgeDeletes)
}

// IsEmpty reports whether the changeset carries no operations at all.
func (c Changeset) IsEmpty() bool {
	return c.Len() == 0
}

// Validator is the subset of the meta-model registry the snapshot algebra
// needs. Satisfied by *metamodel.Registry without an import cycle.
type Validator interface {
	ValidateNode(id, typeID string, props map[string]any) error
	ValidateEdge(from, to, relType, fromType, toType string, props map[string]any) error
	RelationshipAllowsDuplicate(relType string) bool
}

// Patch is the six-sequence structural difference between two snapshots.
type Patch struct {
	NodeAdds []Node
	NodeMods []Node
	NodeDels []NodeTombstone
	EdgeAdds []Edge
	EdgeMods []Edge
	EdgeDels []EdgeTombstone
}

// AsChangeset reinterprets a diff patch as the changeset that would produce
// it when applied to the base snapshot the diff was computed against.
func (p Patch) AsChangeset() Changeset {
	return Changeset{
		NodeCreates: p.NodeAdds,
		NodeUpdates: p.NodeMods,
		NodeDeletes: p.NodeDels,
		EdgeCreates: p.EdgeAdds,
		EdgeUpdates: p.EdgeMods,
		EdgeDeletes: p.EdgeDels,
	}
}
