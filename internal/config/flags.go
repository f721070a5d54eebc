package config

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// BindFlags registers the persistent flags cmd/graphengine exposes for
// overriding Settings, and binds each one into v so Load's later GetX calls
// see the flag value when it was set explicitly (flags outrank env, which
// outranks the config file, which outranks defaults).
func BindFlags(cmd *cobra.Command, v *viper.Viper) {
	flags := cmd.PersistentFlags()
	flags.String("store", "", "Datastore directory (default: .graphengine)")
	flags.String("metamodel", "", "Meta-model schema file or directory")
	flags.String("default-branch", "", "Branch created automatically on first use")
	flags.Bool("allow-empty-commits", false, "Permit commits whose changeset normalizes to empty")
	flags.Bool("analytics", true, "Populate the commit analytics projection")

	bind := func(key, flag string) {
		_ = v.BindPFlag(key, flags.Lookup(flag))
	}
	bind("store.path", "store")
	bind("engine.metamodel_path", "metamodel")
	bind("engine.default_branch", "default-branch")
	bind("engine.allow_empty_commits", "allow-empty-commits")
	bind("analytics.enabled", "analytics")
}
