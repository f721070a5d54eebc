package engine

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"

	"github.com/steveyegge/graphengine/internal/graph"
	"github.com/steveyegge/graphengine/internal/store"
)

// validateBranchName enforces the same rule the datastore path and ref
// naming both rely on: non-empty, '/'-separated segments, each a non-empty,
// non-'.'/'..' run of ASCII alphanumerics, '-', '_', or '.'.
func validateBranchName(name string) error {
	if strings.TrimSpace(name) == "" {
		return newError(ErrValidationFailed, "branch name cannot be empty")
	}
	for _, segment := range strings.Split(name, "/") {
		if segment == "" {
			return newError(ErrValidationFailed, "branch segments cannot be empty")
		}
		if segment == "." || segment == ".." {
			return newError(ErrValidationFailed, "branch segments may not be '.' or '..'")
		}
		for _, ch := range segment {
			if !isBranchChar(ch) {
				return newError(ErrValidationFailed, "branch segment %q contains invalid characters", segment)
			}
		}
	}
	return nil
}

func isBranchChar(ch rune) bool {
	switch {
	case ch >= 'a' && ch <= 'z', ch >= 'A' && ch <= 'Z', ch >= '0' && ch <= '9':
		return true
	case ch == '-' || ch == '_' || ch == '.':
		return true
	default:
		return false
	}
}

// commitIdentity is the exact payload shape a commit id is derived from;
// field order and names are part of the hash's stability contract.
type commitIdentity struct {
	Branch  string          `json:"branch"`
	Parents []string        `json:"parents"`
	Author  string          `json:"author,omitempty"`
	Message string          `json:"message"`
	Tags    []string        `json:"tags"`
	Changes graph.Changeset `json:"changes"`
}

// deriveCommitID hashes the normalized commit identity with SHA-256 and
// returns prefix + the first 32 hex characters (128 bits) of the digest.
func deriveCommitID(prefix, branch string, parents []string, author, message string, tags []string, changes graph.Changeset) (string, error) {
	identity := commitIdentity{
		Branch:  branch,
		Parents: parents,
		Author:  author,
		Message: message,
		Tags:    tags,
		Changes: changes,
	}
	payload, err := json.Marshal(identity)
	if err != nil {
		return "", wrapError(ErrIntegrityViolation, err, "encode commit identity")
	}
	sum := sha256.Sum256(payload)
	digest := hex.EncodeToString(sum[:])
	return prefix + digest[:32], nil
}

func currentTimestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func snapshotTag(commitID string) string {
	return "snapshot/" + commitID
}

// vacuumer is implemented by store backends that support rate-limited
// housekeeping. Not every store.Store does (a replay/seeding store, say,
// might not), so this is a type assertion rather than a Store method.
type vacuumer interface {
	MaybeVacuum(ctx context.Context) error
}

// maybeVacuum gives st a chance to run best-effort housekeeping after a
// commit lands. Errors are deliberately swallowed: housekeeping never
// invalidates a commit that already succeeded.
func maybeVacuum(ctx context.Context, st store.Store) {
	if v, ok := st.(vacuumer); ok {
		_ = v.MaybeVacuum(ctx)
	}
}
