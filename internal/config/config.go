package config

import (
	"path/filepath"
)

// DefaultFileName is the configuration file looked up when none is given.
const DefaultFileName = "rebased.toml"

// EnvPrefix prefixes environment overrides, e.g. REBASED_STORAGE_BACKEND.
const EnvPrefix = "REBASED"

// Config is the complete rebased configuration.
type Config struct {
	Storage    StorageConfig    `toml:"storage" mapstructure:"storage"`
	Log        LogConfig        `toml:"log" mapstructure:"log"`
	Identity   IdentityConfig   `toml:"identity" mapstructure:"identity"`
	Simulation SimulationConfig `toml:"simulation" mapstructure:"simulation"`

	configPath string `toml:"-" mapstructure:"-"`
}

// IdentityConfig represents the [identity] section.
type IdentityConfig struct {
	// Seed is the hex-encoded seed of the account that signs requests.
	Seed string `toml:"seed" mapstructure:"seed"`
}

// SimulationConfig represents the [simulation] section, the defaults of the
// simulate command.
type SimulationConfig struct {
	Pools      int    `toml:"pools" mapstructure:"pools"`
	Steps      int    `toml:"steps" mapstructure:"steps"`
	Seed       int64  `toml:"seed" mapstructure:"seed"`
	MaxDeposit uint64 `toml:"max_deposit" mapstructure:"max_deposit"`
}

// SearchPaths returns the locations checked for DefaultFileName, in order.
func SearchPaths(home string) []string {
	paths := []string{DefaultFileName}
	if home != "" {
		paths = append(paths, filepath.Join(home, ".config", "rebased", DefaultFileName))
	}
	return paths
}

// GetConfigPath returns the file the configuration was read from, or "" when
// only defaults and environment were used.
func (c *Config) GetConfigPath() string {
	return c.configPath
}
