package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	v := New()
	s, err := Load(v, "")
	require.NoError(t, err)

	assert.Equal(t, ".graphengine", s.StorePath)
	assert.Equal(t, "sha256", s.CommitIDHash)
	assert.True(t, s.AnalyticsEnabled)
	assert.Equal(t, "main", s.Engine.DefaultBranch)
	assert.Equal(t, "gc-", s.Engine.CommitIDPrefix)
}

func TestLoadYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("store:\n  path: /data/scenarios\nengine:\n  default_branch: trunk\n"), 0o600))

	v := New()
	s, err := Load(v, path)
	require.NoError(t, err)

	assert.Equal(t, "/data/scenarios", s.StorePath)
	assert.Equal(t, "trunk", s.Engine.DefaultBranch)
}

func TestLoadTOMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[store]\npath = \"/data/scenarios\"\n"), 0o600))

	v := New()
	s, err := Load(v, path)
	require.NoError(t, err)

	assert.Equal(t, "/data/scenarios", s.StorePath)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("store:\n  path: /from-file\n"), 0o600))

	t.Setenv("GRAPHENGINE_STORE_PATH", "/from-env")

	v := New()
	s, err := Load(v, path)
	require.NoError(t, err)

	assert.Equal(t, "/from-env", s.StorePath)
}

func TestLoadRejectsUnsupportedHash(t *testing.T) {
	v := New()
	v.Set("commit.hash", "blake3")

	_, err := Load(v, "")
	require.Error(t, err)
}
