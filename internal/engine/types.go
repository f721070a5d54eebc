package engine

import (
	"encoding/json"
	"fmt"

	"github.com/steveyegge/graphengine/internal/graph"
)

// CommitRef names a commit: either a bare id/branch-name string, or an
// explicit branch-at-commit pair. On the wire it is an untagged union: a
// JSON string for the first form, or {"branch":...,"at":...} for the
// second.
type CommitRef struct {
	id     string
	branch string
	at     string
}

// RefID builds a CommitRef that resolves v as either a known commit id or
// (if not) a branch name.
func RefID(v string) CommitRef { return CommitRef{id: v} }

// RefBranch builds a CommitRef pinned to branch, optionally at an explicit
// commit id (empty means "branch head").
func RefBranch(branch, at string) CommitRef { return CommitRef{branch: branch, at: at} }

func (r CommitRef) isBranchForm() bool { return r.branch != "" }

func (r CommitRef) MarshalJSON() ([]byte, error) {
	if r.isBranchForm() {
		obj := struct {
			Branch string `json:"branch"`
			At     string `json:"at,omitempty"`
		}{Branch: r.branch, At: r.at}
		return json.Marshal(obj)
	}
	return json.Marshal(r.id)
}

func (r *CommitRef) UnmarshalJSON(data []byte) error {
	var asString string
	if err := json.Unmarshal(data, &asString); err == nil {
		*r = CommitRef{id: asString}
		return nil
	}
	var obj struct {
		Branch string `json:"branch"`
		At     string `json:"at"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("decode CommitRef: %w", err)
	}
	*r = CommitRef{branch: obj.Branch, at: obj.At}
	return nil
}

// CommitRequest is the input to Commit.
type CommitRequest struct {
	Branch  string          `json:"branch"`
	Parent  *string         `json:"parent,omitempty"`
	Author  string          `json:"author,omitempty"`
	Time    string          `json:"time,omitempty"`
	Message string          `json:"message"`
	Tags    []string        `json:"tags,omitempty"`
	Changes graph.Changeset `json:"changes"`
}

// CommitSummary is the durable, replay-free metadata of a commit.
type CommitSummary struct {
	ID          string   `json:"id"`
	Parents     []string `json:"parents,omitempty"`
	Branch      string   `json:"branch"`
	Author      string   `json:"author,omitempty"`
	Time        string   `json:"time,omitempty"`
	Message     string   `json:"message"`
	Tags        []string `json:"tags,omitempty"`
	ChangeCount uint64   `json:"changeCount"`
}

// BranchInfo names a branch and its current head (absent for an empty
// branch).
type BranchInfo struct {
	Name string  `json:"name"`
	Head *string `json:"head,omitempty"`
}

// StateAtArgs is the input to StateAt.
type StateAtArgs struct {
	AsOf       CommitRef
	Scenario   string
	Confidence string
}

// StateAtResult is the output of StateAt.
type StateAtResult struct {
	AsOf       string `json:"asOf"`
	Scenario   string `json:"scenario,omitempty"`
	Confidence string `json:"confidence,omitempty"`
	Nodes      uint64 `json:"nodes"`
	Edges      uint64 `json:"edges"`
}

// DiffArgs is the input to DiffSummary and TopologyDelta.
type DiffArgs struct {
	From CommitRef
	To   CommitRef
}

// DiffSummary is the six-count output of DiffSummary.
type DiffSummary struct {
	From       string `json:"from"`
	To         string `json:"to"`
	NodeAdds   uint64 `json:"nodeAdds"`
	NodeMods   uint64 `json:"nodeMods"`
	NodeDels   uint64 `json:"nodeDels"`
	EdgeAdds   uint64 `json:"edgeAdds"`
	EdgeMods   uint64 `json:"edgeMods"`
	EdgeDels   uint64 `json:"edgeDels"`
}

// TopologyDeltaResult is the adds/dels-only output of TopologyDelta.
type TopologyDeltaResult struct {
	From     string `json:"from"`
	To       string `json:"to"`
	NodeAdds uint64 `json:"nodeAdds"`
	NodeDels uint64 `json:"nodeDels"`
	EdgeAdds uint64 `json:"edgeAdds"`
	EdgeDels uint64 `json:"edgeDels"`
}

// MergeRequest is the input to Merge.
type MergeRequest struct {
	Source string
	Target string
}

// MergeConflict describes one overlapping change a merge could not
// reconcile automatically.
type MergeConflict struct {
	Reference string `json:"reference"`
	Kind      string `json:"kind"`
	Message   string `json:"message"`
}

// MergeResponse is the output of Merge: either a commit id (the new merge
// commit, or the unchanged target head when source brings nothing the
// target lacks), or a non-empty conflict list (never both).
type MergeResponse struct {
	Result    *string         `json:"result,omitempty"`
	Conflicts []MergeConflict `json:"conflicts,omitempty"`
}
