package engine

import "log/slog"

// Config is the engine's tunable policy, layered in by internal/config
// from defaults, a config file, environment variables, and flags.
type Config struct {
	// MetaModelPath is a schema file or directory (base.yaml + overlays);
	// empty uses the built-in default document.
	MetaModelPath string

	// DefaultBranch is created automatically if absent on engine startup.
	DefaultBranch string

	// AllowEmptyCommits permits committing a changeset that normalizes to
	// zero operations. Disabled by default, matching the reference
	// engine's own default policy.
	AllowEmptyCommits bool

	// CommitIDPrefix is prepended to every derived commit id.
	CommitIDPrefix string

	// Logger receives Info-level commit/merge/branch lifecycle events. The
	// CLI/embedder wires its own handler in here; nil falls back to
	// slog.Default().
	Logger *slog.Logger
}

// DefaultConfig returns the engine's zero-config defaults.
func DefaultConfig() Config {
	return Config{
		DefaultBranch:     "main",
		AllowEmptyCommits: false,
		CommitIDPrefix:    "gc-",
	}
}
