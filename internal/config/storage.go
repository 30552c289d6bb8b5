package config

import (
	"fmt"
	"slices"

	"github.com/LeJamon/gorebase/internal/storage/database"
	_ "github.com/LeJamon/gorebase/internal/storage/database/all"
	"github.com/LeJamon/gorebase/internal/store/compression"
)

// StorageConfig represents the [storage] section.
type StorageConfig struct {
	// Backend names a registered database backend.
	Backend string `toml:"backend" mapstructure:"backend"`
	// Path is the data directory, or the connection string for postgres.
	Path string `toml:"path" mapstructure:"path"`
	// Compression names a registered compressor.
	Compression string `toml:"compression" mapstructure:"compression"`
	CacheSize   int    `toml:"cache_size" mapstructure:"cache_size"`
}

// Backends that cannot run without a path. badger and sqlite fall back to
// in-memory databases.
var pathRequired = []string{"pebble", "leveldb", "bbolt", "postgres"}

// Validate performs validation on the storage configuration.
func (s *StorageConfig) Validate() error {
	if s.Backend == "" {
		return fmt.Errorf("backend is required")
	}
	if !database.IsRegistered(s.Backend) {
		return fmt.Errorf("invalid backend: %s (valid options: %v)", s.Backend, database.Backends())
	}
	if s.Path == "" && slices.Contains(pathRequired, s.Backend) {
		return fmt.Errorf("path is required for the %s backend", s.Backend)
	}
	if !compression.IsAvailable(s.Compression) {
		return fmt.Errorf("invalid compression: %s (valid options: %v)", s.Compression, compression.Available())
	}
	if s.CacheSize < 0 {
		return fmt.Errorf("cache_size must be non-negative, got %d", s.CacheSize)
	}
	return nil
}

// Persistent reports whether data outlives the process.
func (s *StorageConfig) Persistent() bool {
	switch s.Backend {
	case "memory":
		return false
	case "badger", "sqlite":
		return s.Path != ""
	default:
		return true
	}
}
