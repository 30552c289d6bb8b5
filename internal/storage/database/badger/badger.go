// Package badger stores data in a Badger v4 key-value store.
package badger

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/dgraph-io/badger/v4"

	"github.com/LeJamon/gorebase/internal/storage/database"
)

func init() {
	database.Register("badger", func(path string) (database.DB, error) {
		return Open(path)
	})
}

// DB wraps a badger handle.
type DB struct {
	db     *badger.DB
	closed atomic.Bool
}

// Open opens or creates the database in dir. An empty dir opens an in-memory store.
func Open(dir string) (*DB, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database %s: %w", dir, err)
	}
	return &DB{db: db}, nil
}

func (b *DB) Read(ctx context.Context, key []byte) ([]byte, error) {
	if b.closed.Load() {
		return nil, database.ErrDBClosed
	}

	var value []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, database.ErrKeyNotFound
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}

func (b *DB) Write(ctx context.Context, key, value []byte) error {
	return b.Batch(ctx, []database.BatchOperation{database.Put(key, value)})
}

func (b *DB) Delete(ctx context.Context, key []byte) error {
	return b.Batch(ctx, []database.BatchOperation{database.Del(key)})
}

func (b *DB) Batch(ctx context.Context, ops []database.BatchOperation) error {
	if b.closed.Load() {
		return database.ErrDBClosed
	}

	return b.db.Update(func(txn *badger.Txn) error {
		for _, op := range ops {
			var err error
			switch op.Type {
			case database.BatchPut:
				err = txn.Set(op.Key, op.Value)
			case database.BatchDelete:
				err = txn.Delete(op.Key)
			default:
				err = fmt.Errorf("%w: %d", database.ErrUnknownBatchOp, op.Type)
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func (b *DB) Iterator(ctx context.Context, start, end []byte) (database.Iterator, error) {
	if b.closed.Load() {
		return nil, database.ErrDBClosed
	}

	txn := b.db.NewTransaction(false)
	iter := txn.NewIterator(badger.DefaultIteratorOptions)
	return &Iterator{txn: txn, iter: iter, start: start, end: end}, nil
}

func (b *DB) Close() error {
	if b.closed.Swap(true) {
		return nil
	}
	return b.db.Close()
}

// Iterator holds a read transaction open until Close.
type Iterator struct {
	txn        *badger.Txn
	iter       *badger.Iterator
	start, end []byte
	started    bool
	key, value []byte
	err        error
}

func (it *Iterator) Next() bool {
	if !it.started {
		it.started = true
		if it.start != nil {
			it.iter.Seek(it.start)
		} else {
			it.iter.Rewind()
		}
	} else {
		it.iter.Next()
	}

	if !it.iter.Valid() {
		it.key, it.value = nil, nil
		return false
	}

	item := it.iter.Item()
	if it.end != nil && bytes.Compare(item.Key(), it.end) >= 0 {
		it.key, it.value = nil, nil
		return false
	}

	value, err := item.ValueCopy(nil)
	if err != nil {
		it.err = err
		return false
	}
	it.key = item.KeyCopy(nil)
	it.value = append([]byte{}, value...)
	return true
}

func (it *Iterator) Key() []byte   { return it.key }
func (it *Iterator) Value() []byte { return it.value }
func (it *Iterator) Error() error  { return it.err }

func (it *Iterator) Close() error {
	it.iter.Close()
	it.txn.Discard()
	return nil
}
