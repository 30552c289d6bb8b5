// Package all registers every storage backend with the database package.
package all

import (
	_ "github.com/LeJamon/gorebase/internal/storage/database/badger"
	_ "github.com/LeJamon/gorebase/internal/storage/database/bbolt"
	_ "github.com/LeJamon/gorebase/internal/storage/database/leveldb"
	_ "github.com/LeJamon/gorebase/internal/storage/database/memory"
	_ "github.com/LeJamon/gorebase/internal/storage/database/pebble"
	_ "github.com/LeJamon/gorebase/internal/storage/database/sqldb"
)
