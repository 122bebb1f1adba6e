package cli

// AdbsyncConfig is the flag set for the adbsync CLI. It holds only the
// shared BaseConfig, which already carries the sync-specific flags (spec
// §6's external interfaces have no persisted state of their own; this is
// purely the CLI binary's surface).
type AdbsyncConfig struct {
	BaseConfig
}

// RegisterAdbsyncFlags registers every flag adbsync's main command accepts.
// Per-subcommand positional arguments (paths) are registered separately by
// each kingpin.Command.
func RegisterAdbsyncFlags(config *AdbsyncConfig) {
	registerBaseFlags(&config.BaseConfig)
}
