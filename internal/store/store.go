// Package store persists rebases, share handles and owner sequences in a
// database.DB. Records are msgpack encoded, optionally compressed, and cached
// after decoding.
package store

import (
	"context"
	"errors"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/LeJamon/gorebase/internal/core/keylet"
	"github.com/LeJamon/gorebase/internal/crypto"
	"github.com/LeJamon/gorebase/internal/storage/database"
	"github.com/LeJamon/gorebase/internal/store/compression"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("record not found")

// DefaultCacheSize is the number of decoded records of each kind kept in memory.
const DefaultCacheSize = 4096

// Options configures a Store.
type Options struct {
	// Compression names a registered compressor. Empty means "none".
	Compression string
	// CacheSize is the per-kind record cache size. Zero means DefaultCacheSize.
	CacheSize int
	Logger    *zap.Logger
}

// Store is the typed view over a database.DB.
type Store struct {
	db         database.DB
	compressor compression.Compressor
	rebases    *lru.Cache[keylet.ID, RebaseRecord]
	shares     *lru.Cache[keylet.ID, ShareRecord]
	log        *zap.Logger
}

// New wraps db. The Store takes ownership of db and closes it in Close.
func New(db database.DB, opts Options) (*Store, error) {
	name := opts.Compression
	if name == "" {
		name = "none"
	}
	compressor, err := compression.Get(name)
	if err != nil {
		return nil, err
	}

	size := opts.CacheSize
	if size <= 0 {
		size = DefaultCacheSize
	}
	rebases, err := lru.New[keylet.ID, RebaseRecord](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create rebase cache: %w", err)
	}
	shares, err := lru.New[keylet.ID, ShareRecord](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create share cache: %w", err)
	}

	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return &Store{
		db:         db,
		compressor: compressor,
		rebases:    rebases,
		shares:     shares,
		log:        log.Named("store"),
	}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	s.rebases.Purge()
	s.shares.Purge()
	return s.db.Close()
}

func (s *Store) read(ctx context.Context, key []byte, v any) error {
	data, err := s.db.Read(ctx, key)
	if errors.Is(err, database.ErrKeyNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return decode(data, v)
}

// Account returns the owner record, or a zero record if the owner has none yet.
func (s *Store) Account(ctx context.Context, id crypto.AccountID) (AccountRecord, error) {
	var rec AccountRecord
	err := s.read(ctx, accountKey(id), &rec)
	if errors.Is(err, ErrNotFound) {
		return AccountRecord{}, nil
	}
	return rec, err
}

// Rebase loads a rebase record.
func (s *Store) Rebase(ctx context.Context, id keylet.ID) (RebaseRecord, error) {
	if rec, ok := s.rebases.Get(id); ok {
		return rec, nil
	}

	var rec RebaseRecord
	if err := s.read(ctx, rebaseKey(id), &rec); err != nil {
		if errors.Is(err, ErrNotFound) {
			return RebaseRecord{}, fmt.Errorf("rebase %s: %w", id, err)
		}
		return RebaseRecord{}, err
	}
	s.rebases.Add(id, rec)
	return rec, nil
}

// Share loads a share record.
func (s *Store) Share(ctx context.Context, id keylet.ID) (ShareRecord, error) {
	if rec, ok := s.shares.Get(id); ok {
		return rec, nil
	}

	var rec ShareRecord
	if err := s.read(ctx, shareKey(id), &rec); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ShareRecord{}, fmt.Errorf("share %s: %w", id, err)
		}
		return ShareRecord{}, err
	}
	s.shares.Add(id, rec)
	return rec, nil
}

// ShareIDs lists the IDs of the live shares of a rebase in key order.
func (s *Store) ShareIDs(ctx context.Context, rebase keylet.ID) ([]keylet.ID, error) {
	prefix := shareIndexPrefix(rebase)
	it, err := s.db.Iterator(ctx, prefix, database.PrefixEnd(prefix))
	if err != nil {
		return nil, err
	}
	defer it.Close()

	var ids []keylet.ID
	for it.Next() {
		key := it.Key()
		if len(key) != len(prefix)+len(keylet.ID{}) {
			return nil, fmt.Errorf("malformed share index key %x", key)
		}
		var id keylet.ID
		copy(id[:], key[len(prefix):])
		ids = append(ids, id)
	}
	return ids, it.Error()
}

// RebaseIDs lists every stored rebase in key order.
func (s *Store) RebaseIDs(ctx context.Context) ([]keylet.ID, error) {
	prefix := []byte{prefixRebase}
	it, err := s.db.Iterator(ctx, prefix, database.PrefixEnd(prefix))
	if err != nil {
		return nil, err
	}
	defer it.Close()

	var ids []keylet.ID
	for it.Next() {
		var id keylet.ID
		copy(id[:], it.Key()[1:])
		ids = append(ids, id)
	}
	return ids, it.Error()
}

// Batch collects writes that are committed together.
type Batch struct {
	ops      []database.BatchOperation
	rebases  map[keylet.ID]*RebaseRecord
	shares   map[keylet.ID]*ShareRecord
	accounts map[crypto.AccountID]AccountRecord
	err      error
}

// NewBatch returns an empty batch.
func (s *Store) NewBatch() *Batch {
	return &Batch{
		rebases:  make(map[keylet.ID]*RebaseRecord),
		shares:   make(map[keylet.ID]*ShareRecord),
		accounts: make(map[crypto.AccountID]AccountRecord),
	}
}

func (b *Batch) put(c compression.Compressor, key []byte, v any) {
	if b.err != nil {
		return
	}
	data, err := encode(c, v)
	if err != nil {
		b.err = err
		return
	}
	b.ops = append(b.ops, database.Put(key, data))
}

// Len returns the number of database operations queued.
func (b *Batch) Len() int { return len(b.ops) }

// PutAccount queues an owner record. A later put of the same owner in the
// same batch replaces it.
func (s *Store) PutAccount(b *Batch, id crypto.AccountID, rec AccountRecord) {
	s.put(b, accountKey(id), rec)
	b.accounts[id] = rec
}

// PendingAccount returns the owner record as the batch would leave it: the
// last queued put, or the stored record.
func (s *Store) PendingAccount(ctx context.Context, b *Batch, id crypto.AccountID) (AccountRecord, error) {
	if rec, ok := b.accounts[id]; ok {
		return rec, nil
	}
	return s.Account(ctx, id)
}

// PutRebase queues a rebase record.
func (s *Store) PutRebase(b *Batch, id keylet.ID, rec RebaseRecord) {
	s.put(b, rebaseKey(id), rec)
	b.rebases[id] = &rec
}

// DeleteRebase queues the removal of a rebase record.
func (s *Store) DeleteRebase(b *Batch, id keylet.ID) {
	b.ops = append(b.ops, database.Del(rebaseKey(id)))
	b.rebases[id] = nil
}

// PutShare queues a share record and its index entry.
func (s *Store) PutShare(b *Batch, id keylet.ID, rec ShareRecord) {
	s.put(b, shareKey(id), rec)
	b.ops = append(b.ops, database.Put(shareIndexKey(rec.Rebase, id), []byte{}))
	b.shares[id] = &rec
}

// DeleteShare queues the removal of a share record and its index entry.
func (s *Store) DeleteShare(b *Batch, id keylet.ID, rebase keylet.ID) {
	b.ops = append(b.ops,
		database.Del(shareKey(id)),
		database.Del(shareIndexKey(rebase, id)),
	)
	b.shares[id] = nil
}

func (s *Store) put(b *Batch, key []byte, v any) {
	b.put(s.compressor, key, v)
}

// Commit writes the batch atomically and then updates the caches.
func (s *Store) Commit(ctx context.Context, b *Batch) error {
	if b.err != nil {
		return b.err
	}
	if len(b.ops) == 0 {
		return nil
	}

	if err := s.db.Batch(ctx, b.ops); err != nil {
		return fmt.Errorf("failed to commit %d operations: %w", len(b.ops), err)
	}

	for id, rec := range b.rebases {
		if rec == nil {
			s.rebases.Remove(id)
		} else {
			s.rebases.Add(id, *rec)
		}
	}
	for id, rec := range b.shares {
		if rec == nil {
			s.shares.Remove(id)
		} else {
			s.shares.Add(id, *rec)
		}
	}

	s.log.Debug("committed batch",
		zap.Int("ops", len(b.ops)),
		zap.Int("rebases", len(b.rebases)),
		zap.Int("shares", len(b.shares)),
	)
	return nil
}
