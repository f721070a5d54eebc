package main

import (
	"strings"

	"github.com/steveyegge/graphengine"
)

// refFromString parses a CLI-supplied commit reference. "branch@commit"
// pins an explicit commit on a branch; anything else is the bare id/branch
// form, resolved by the engine as either a known commit id or a branch
// name at its current head.
func refFromString(s string) graphengine.CommitRef {
	if branch, at, ok := strings.Cut(s, "@"); ok {
		return graphengine.RefBranch(branch, at)
	}
	return graphengine.RefID(s)
}
