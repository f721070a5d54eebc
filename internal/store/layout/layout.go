// Package layout resolves the on-disk datastore directory format: a
// metadata file naming the active database file, plus the database file
// itself. Resolution never creates a database; provisioning is a separate,
// explicit step.
package layout

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultDBName is the database filename used when a directory has never
// been provisioned with an explicit name.
const DefaultDBName = "graph.sqlite"

const stateFile = "datastore.json"

// ErrMissing indicates neither the metadata file nor the default database
// file exists under the base directory.
var ErrMissing = errors.New("datastore missing")

type datastoreState struct {
	Name string `json:"name"`
}

// Resolve locates the active database file under base without mutating the
// filesystem. It first consults datastore.json; if that is absent or stale,
// it falls back to the default name only if that file already exists. It
// returns an error wrapping ErrMissing rather than silently creating an
// empty database — callers that expect a provisioned store should treat
// that as fatal.
func Resolve(base string) (string, error) {
	if name, ok := readState(base); ok {
		candidate := filepath.Join(base, name)
		if fileExists(candidate) {
			return candidate, nil
		}
	}

	def := filepath.Join(base, DefaultDBName)
	if fileExists(def) {
		return def, nil
	}

	return "", fmt.Errorf("datastore missing under %q: %w", base, ErrMissing)
}

// Provision ensures base exists, creates the database file named
// preferredName (or the name recorded in datastore.json, or DefaultDBName)
// if it does not already exist, and (re)writes datastore.json to record the
// choice. It returns the resolved database path.
func Provision(base, preferredName string) (string, error) {
	if err := os.MkdirAll(base, 0o755); err != nil {
		return "", fmt.Errorf("create datastore directory %q: %w", base, err)
	}

	name := preferredName
	if name == "" {
		if existing, ok := readState(base); ok {
			name = existing
		} else {
			name = DefaultDBName
		}
	}

	path := filepath.Join(base, name)
	if !fileExists(path) {
		f, err := os.Create(path) // #nosec G304 - operator-supplied datastore path
		if err != nil {
			return "", fmt.Errorf("create database file %q: %w", path, err)
		}
		if err := f.Close(); err != nil {
			return "", fmt.Errorf("close database file %q: %w", path, err)
		}
	}

	if err := writeState(base, name); err != nil {
		return "", err
	}
	return path, nil
}

// MetadataPath returns the path of the directory's metadata file, for
// callers that want to watch it for externally-triggered database swaps.
func MetadataPath(base string) string {
	return filepath.Join(base, stateFile)
}

func readState(base string) (string, bool) {
	data, err := os.ReadFile(filepath.Join(base, stateFile)) // #nosec G304
	if err != nil {
		return "", false
	}
	var state datastoreState
	if err := json.Unmarshal(data, &state); err != nil {
		return "", false
	}
	if state.Name == "" {
		return "", false
	}
	return state.Name, true
}

func writeState(base, name string) error {
	data, err := json.MarshalIndent(datastoreState{Name: name}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode datastore state: %w", err)
	}
	if err := os.WriteFile(filepath.Join(base, stateFile), data, 0o644); err != nil {
		return fmt.Errorf("write datastore state: %w", err)
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
