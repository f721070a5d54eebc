// Package config resolves engine settings from the same layered sources
// beads uses for its own CLI config: defaults, an optional project config
// file (YAML or TOML, selected by extension), environment variables under
// a GRAPHENGINE_ prefix, and command-line flags — in increasing order of
// precedence.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/viper"

	"github.com/steveyegge/graphengine/internal/engine"
)

// Settings is the fully-resolved configuration for a graphengine process:
// where its datastore lives plus the engine.Config it should start with.
type Settings struct {
	// StorePath is the datastore directory passed to sqlite.Open/OpenOrCreate.
	StorePath string

	// CommitIDHash names the hash algorithm backing derived commit ids.
	// Only "sha256" is implemented today; the field exists so a future
	// algorithm can be selected without an engine.Config wire change.
	CommitIDHash string

	// AnalyticsEnabled toggles whether commits populate the per-change
	// analytics projection (commit_summaries/commit_changes). Disabling it
	// skips that bookkeeping for callers that only need history and state.
	AnalyticsEnabled bool

	Engine engine.Config
}

func defaults() Settings {
	ec := engine.DefaultConfig()
	return Settings{
		StorePath:        ".graphengine",
		CommitIDHash:     "sha256",
		AnalyticsEnabled: true,
		Engine:           ec,
	}
}

// New builds a viper instance wired with graphengine's env prefix and key
// replacer, ready for Load or for a caller to bind cobra flags onto before
// calling Load.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("graphengine")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

// Load resolves Settings from v, layering in this order (later wins):
// built-in defaults, configPath if non-empty (YAML or TOML, by extension),
// GRAPHENGINE_* environment variables, and any flags already bound to v.
//
// configPath may be empty, in which case only defaults/env/flags apply.
func Load(v *viper.Viper, configPath string) (Settings, error) {
	d := defaults()
	v.SetDefault("store.path", d.StorePath)
	v.SetDefault("commit.hash", d.CommitIDHash)
	v.SetDefault("analytics.enabled", d.AnalyticsEnabled)
	v.SetDefault("engine.metamodel_path", d.Engine.MetaModelPath)
	v.SetDefault("engine.default_branch", d.Engine.DefaultBranch)
	v.SetDefault("engine.allow_empty_commits", d.Engine.AllowEmptyCommits)
	v.SetDefault("engine.commit_id_prefix", d.Engine.CommitIDPrefix)

	if configPath != "" {
		if configType(configPath) == "toml" {
			var raw map[string]interface{}
			if _, err := toml.DecodeFile(configPath, &raw); err != nil {
				return Settings{}, fmt.Errorf("read config %q: %w", configPath, err)
			}
			if err := v.MergeConfigMap(raw); err != nil {
				return Settings{}, fmt.Errorf("merge config %q: %w", configPath, err)
			}
		} else {
			v.SetConfigFile(configPath)
			v.SetConfigType(configType(configPath))
			if err := v.ReadInConfig(); err != nil {
				return Settings{}, fmt.Errorf("read config %q: %w", configPath, err)
			}
		}
	}

	hash := v.GetString("commit.hash")
	if hash != "sha256" {
		return Settings{}, fmt.Errorf("commit.hash: unsupported algorithm %q (only \"sha256\" is implemented)", hash)
	}

	s := Settings{
		StorePath:        v.GetString("store.path"),
		CommitIDHash:     hash,
		AnalyticsEnabled: v.GetBool("analytics.enabled"),
		Engine: engine.Config{
			MetaModelPath:     v.GetString("engine.metamodel_path"),
			DefaultBranch:     v.GetString("engine.default_branch"),
			AllowEmptyCommits: v.GetBool("engine.allow_empty_commits"),
			CommitIDPrefix:    v.GetString("engine.commit_id_prefix"),
		},
	}
	return s, nil
}

// configType maps a config file's extension to the viper config type name.
// BurntSushi/toml backs ".toml"; yaml.v3 (via viper's codec registry) backs
// everything else, matching config.yaml's role in the teacher repository.
func configType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return "toml"
	case ".yml", ".yaml":
		return "yaml"
	default:
		return "yaml"
	}
}
