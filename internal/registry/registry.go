// Package registry is the object table for rebases and share handles.
//
// Objects are addressed by keylet IDs and owned by accounts. Each mutation
// loads the touched records, applies one engine operation, and writes every
// touched record back in a single storage batch. Mutations are serialized, so
// each rebase has exactly one writer at a time.
package registry

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/LeJamon/gorebase/internal/core/keylet"
	"github.com/LeJamon/gorebase/internal/core/rebase"
	"github.com/LeJamon/gorebase/internal/crypto"
	"github.com/LeJamon/gorebase/internal/store"
)

var (
	// ErrNotFound is returned for unknown rebase or share IDs.
	ErrNotFound = store.ErrNotFound

	// ErrInvariant is returned by CheckInvariants when stored shares do not
	// add up to the rebase's base.
	ErrInvariant = errors.New("share sum does not match base")
)

// Share is a stored share handle with its ID.
type Share struct {
	ID keylet.ID
	store.ShareRecord
}

// Registry owns the persisted rebases and shares.
type Registry struct {
	mu    sync.Mutex
	store *store.Store
	log   *zap.Logger
}

// New returns a registry over s. A nil logger disables logging.
func New(s *store.Store, log *zap.Logger) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	return &Registry{store: s, log: log.Named("registry")}
}

// Close closes the underlying store.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.store.Close()
}

// loaded is a rebase record together with its live engine value.
type loaded struct {
	id     keylet.ID
	record store.RebaseRecord
	ledger *rebase.Rebase
}

func (r *Registry) loadRebase(ctx context.Context, id keylet.ID) (*loaded, error) {
	rec, err := r.store.Rebase(ctx, id)
	if err != nil {
		return nil, err
	}
	return &loaded{id: id, record: rec, ledger: rebase.Restore(rebase.ID(id), rec.State())}, nil
}

// save queues the rebase with the ledger's current state.
func (r *Registry) save(b *store.Batch, l *loaded) {
	s := l.ledger.Snapshot()
	l.record.Elastic, l.record.Base = s.Elastic, s.Base
	r.store.PutRebase(b, l.id, l.record)
}

// nextShareID reserves the next share sequence of l.
func nextShareID(l *loaded) (keylet.ID, uint64) {
	seq := l.record.NextShare
	l.record.NextShare++
	return keylet.Share(l.id, seq), seq
}

func (r *Registry) loadShare(ctx context.Context, id keylet.ID) (store.ShareRecord, *rebase.Base, error) {
	rec, err := r.store.Share(ctx, id)
	if err != nil {
		return store.ShareRecord{}, nil, err
	}
	return rec, rebase.RestoreBase(rebase.ID(rec.Rebase), rec.Amount), nil
}

func requireOwner(caller, owner crypto.AccountID, what string) error {
	if caller != owner {
		return rebase.NotOwner.New("%s is owned by %s, not %s", what, owner, caller)
	}
	return nil
}

// CreateRebase creates an empty rebase owned by owner.
func (r *Registry) CreateRebase(ctx context.Context, owner crypto.AccountID) (keylet.ID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	acct, err := r.store.Account(ctx, owner)
	if err != nil {
		return keylet.ID{}, err
	}
	id := keylet.Rebase(owner, acct.NextRebase)

	b := r.store.NewBatch()
	r.store.PutRebase(b, id, store.RebaseRecord{Owner: owner, Sequence: acct.NextRebase})
	acct.NextRebase++
	r.store.PutAccount(b, owner, acct)
	if err := r.commit(ctx, b); err != nil {
		return keylet.ID{}, err
	}

	r.log.Debug("created rebase", zap.Stringer("rebase", id), zap.Stringer("owner", owner))
	return id, nil
}

// Rebase returns the stored rebase record.
func (r *Registry) Rebase(ctx context.Context, id keylet.ID) (store.RebaseRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.store.Rebase(ctx, id)
}

// Share returns the stored share record.
func (r *Registry) Share(ctx context.Context, id keylet.ID) (store.ShareRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.store.Share(ctx, id)
}

// Rebases lists every rebase ID.
func (r *Registry) Rebases(ctx context.Context) ([]keylet.ID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.store.RebaseIDs(ctx)
}

// Shares lists the live share handles of a rebase.
func (r *Registry) Shares(ctx context.Context, rebaseID keylet.ID) ([]Share, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.shares(ctx, rebaseID)
}

func (r *Registry) shares(ctx context.Context, rebaseID keylet.ID) ([]Share, error) {
	if _, err := r.store.Rebase(ctx, rebaseID); err != nil {
		return nil, err
	}
	ids, err := r.store.ShareIDs(ctx, rebaseID)
	if err != nil {
		return nil, err
	}

	out := make([]Share, 0, len(ids))
	for _, id := range ids {
		rec, err := r.store.Share(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("indexed share %s: %w", id, err)
		}
		out = append(out, Share{ID: id, ShareRecord: rec})
	}
	return out, nil
}

// Value returns what a share would redeem for now.
func (r *Registry) Value(ctx context.Context, shareID keylet.ID, roundUp bool) (uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, h, err := r.loadShare(ctx, shareID)
	if err != nil {
		return 0, err
	}
	l, err := r.loadRebase(ctx, rec.Rebase)
	if err != nil {
		return 0, err
	}
	return l.ledger.ValueOf(h, roundUp)
}

// CheckInvariants verifies that the live shares of a rebase add up to its base.
func (r *Registry) CheckInvariants(ctx context.Context, rebaseID keylet.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, err := r.store.Rebase(ctx, rebaseID)
	if err != nil {
		return err
	}
	shares, err := r.shares(ctx, rebaseID)
	if err != nil {
		return err
	}

	var sum uint64
	for _, s := range shares {
		if s.Rebase != rebaseID {
			return fmt.Errorf("%w: share %s indexed under %s belongs to %s", ErrInvariant, s.ID, rebaseID, s.Rebase)
		}
		if s.Amount > ^uint64(0)-sum {
			return fmt.Errorf("%w: share amounts overflow", ErrInvariant)
		}
		sum += s.Amount
	}
	if sum != rec.Base {
		return fmt.Errorf("%w: rebase %s base %d, shares %d", ErrInvariant, rebaseID, rec.Base, sum)
	}
	return nil
}
