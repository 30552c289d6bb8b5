package database

import (
	"fmt"
	"sort"
	"sync"
)

// Opener opens a database rooted at path. Backends that do not live on disk
// interpret path as a connection string or ignore it.
type Opener func(path string) (DB, error)

var (
	backendMu sync.RWMutex
	backends  = make(map[string]Opener)
)

// Register makes a backend available under name. Backends register
// themselves from init; import internal/storage/database/all to get all of them.
func Register(name string, open Opener) {
	backendMu.Lock()
	defer backendMu.Unlock()
	backends[name] = open
}

// Open opens the backend registered under name.
func Open(name, path string) (DB, error) {
	backendMu.RLock()
	open, ok := backends[name]
	backendMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownBackend, name)
	}

	db, err := open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database at %q: %w", name, path, err)
	}
	return db, nil
}

// Backends returns the registered backend names in sorted order.
func Backends() []string {
	backendMu.RLock()
	defer backendMu.RUnlock()

	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsRegistered reports whether a backend with the given name is available.
func IsRegistered(name string) bool {
	backendMu.RLock()
	_, ok := backends[name]
	backendMu.RUnlock()
	return ok
}
