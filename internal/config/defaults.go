package config

import "github.com/spf13/viper"

// setDefaults sets every key so that environment overrides apply to all of them.
func setDefaults(v *viper.Viper) {
	v.SetDefault("storage.backend", "pebble")
	v.SetDefault("storage.path", "data")
	v.SetDefault("storage.compression", "lz4")
	v.SetDefault("storage.cache_size", 4096)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	v.SetDefault("identity.seed", "")

	v.SetDefault("simulation.pools", 4)
	v.SetDefault("simulation.steps", 1000)
	v.SetDefault("simulation.seed", 1)
	v.SetDefault("simulation.max_deposit", 1_000_000)
}
