// Package pool binds a rebase ledger to the custody holding the value its
// elastic stands for.
//
// Every operation either changes both the ledger and the custody or neither.
// After each successful operation the custody amount equals the ledger's elastic.
package pool

import (
	"errors"
	"fmt"
	"sync"

	"github.com/LeJamon/gorebase/internal/core/custody"
	"github.com/LeJamon/gorebase/internal/core/rebase"
	"github.com/LeJamon/gorebase/internal/crypto"
)

// ErrUnbacked is returned when a custody does not hold exactly the elastic of
// the rebase it is paired with.
var ErrUnbacked = errors.New("custody does not back rebase elastic")

// Pool is a rebase whose elastic is real value held in a custody.
type Pool[P custody.Payload] struct {
	mu        sync.Mutex
	ledger    *rebase.Rebase
	custody   custody.Custody[P]
	authority crypto.AccountID
}

// New pairs ledger with store. authority must be the store's withdrawal authority.
func New[P custody.Payload](ledger *rebase.Rebase, store custody.Custody[P], authority crypto.AccountID) (*Pool[P], error) {
	if owner := store.Authority(); owner != authority {
		return nil, rebase.NotOwner.New("custody is withdrawable by %s, not %s", owner, authority)
	}
	if store.Amount() != ledger.Elastic() {
		return nil, fmt.Errorf("%w: custody %d, elastic %d", ErrUnbacked, store.Amount(), ledger.Elastic())
	}
	return &Pool[P]{ledger: ledger, custody: store, authority: authority}, nil
}

// Rebase returns the ledger. Mutating it directly bypasses the custody.
func (p *Pool[P]) Rebase() *rebase.Rebase { return p.ledger }

// Custody returns the custody.
func (p *Pool[P]) Custody() custody.Custody[P] { return p.custody }

// State returns a snapshot of the ledger.
func (p *Pool[P]) State() rebase.State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ledger.Snapshot()
}

// Value returns what share would redeem for.
func (p *Pool[P]) Value(share *rebase.Base, roundUp bool) (uint64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ledger.ValueOf(share, roundUp)
}

// Deposit takes payload into custody and mints shares for its value.
func (p *Pool[P]) Deposit(payload P, roundUp bool) (*rebase.Base, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	value := payload.Value()
	share, err := p.ledger.AddElastic(value, roundUp)
	if err != nil {
		return nil, err
	}
	if err := p.custody.Deposit(payload); err != nil {
		return nil, withRevert(err, p.ledger.DecreaseElasticAndBase(value, share))
	}
	return share, nil
}

// Redeem consumes share and releases the value it converts to.
func (p *Pool[P]) Redeem(share *rebase.Base, roundUp bool) (P, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	var zero P
	value, err := p.ledger.ValueOf(share, roundUp)
	if err != nil {
		return zero, err
	}
	out, err := p.custody.Withdraw(p.authority, value)
	if err != nil {
		return zero, err
	}
	if _, err := p.ledger.SubBase(share, roundUp); err != nil {
		return zero, withRevert(err, p.custody.Deposit(out))
	}
	return out, nil
}

// Withdraw releases amount of value and burns the matching base parts from
// share. It returns the payload and the number of base parts burned.
func (p *Pool[P]) Withdraw(amount uint64, share *rebase.Base, roundUp bool) (P, uint64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	var zero P
	out, err := p.custody.Withdraw(p.authority, amount)
	if err != nil {
		return zero, 0, err
	}
	burned, err := p.ledger.SubElastic(amount, share, roundUp)
	if err != nil {
		return zero, 0, withRevert(err, p.custody.Deposit(out))
	}
	return out, burned, nil
}

// Accrue adds yield. Every outstanding share gains value; no base is minted.
func (p *Pool[P]) Accrue(payload P) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.custody.Deposit(payload); err != nil {
		return err
	}
	if err := p.ledger.IncreaseElastic(payload.Value()); err != nil {
		_, rerr := p.custody.Withdraw(p.authority, payload.Value())
		return withRevert(err, rerr)
	}
	return nil
}

// Slash removes amount of value as a loss shared by every holder.
func (p *Pool[P]) Slash(amount uint64) (P, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	var zero P
	out, err := p.custody.Withdraw(p.authority, amount)
	if err != nil {
		return zero, err
	}
	if err := p.ledger.DecreaseElastic(amount); err != nil {
		return zero, withRevert(err, p.custody.Deposit(out))
	}
	return out, nil
}

// Liquidate consumes share and releases amount of value for it, regardless of
// what the share converts to at the current ratio.
func (p *Pool[P]) Liquidate(amount uint64, share *rebase.Base) (P, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	var zero P
	out, err := p.custody.Withdraw(p.authority, amount)
	if err != nil {
		return zero, err
	}
	if err := p.ledger.DecreaseElasticAndBase(amount, share); err != nil {
		return zero, withRevert(err, p.custody.Deposit(out))
	}
	return out, nil
}

// Close checks that both the ledger and the custody are empty.
func (p *Pool[P]) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.ledger.Destroy(); err != nil {
		return err
	}
	if amount := p.custody.Amount(); amount != 0 {
		return rebase.NonZeroDestruction.New("custody still holds %d", amount)
	}
	return nil
}

// withRevert attaches the failure of an undo step to err.
func withRevert(err, revertErr error) error {
	if revertErr == nil {
		return err
	}
	return errors.Join(err, fmt.Errorf("revert failed: %w", revertErr))
}
