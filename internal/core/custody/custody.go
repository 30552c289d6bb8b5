// Package custody holds the real value a pool's elastic stands for.
//
// A Custody is a capability: anyone may deposit into it, only its authority
// may withdraw. Pools are generic over the payload a custody stores.
package custody

import (
	"sync"

	"github.com/LeJamon/gorebase/internal/core/rebase"
	"github.com/LeJamon/gorebase/internal/crypto"
)

// Payload is a quantity of value that can be held in custody.
type Payload interface {
	Value() uint64
}

// Custody stores payloads of a single kind.
type Custody[P Payload] interface {
	// Amount returns the total value held.
	Amount() uint64
	// Deposit takes p into custody.
	Deposit(p P) error
	// Withdraw releases amount of value to the authority.
	Withdraw(authority crypto.AccountID, amount uint64) (P, error)
	// Authority returns the account allowed to withdraw.
	Authority() crypto.AccountID
}

// balance is the counter shared by the store implementations.
type balance struct {
	mu        sync.Mutex
	authority crypto.AccountID
	amount    uint64
}

func (b *balance) Amount() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.amount
}

// Authority returns the account allowed to withdraw.
func (b *balance) Authority() crypto.AccountID {
	return b.authority
}

func (b *balance) credit(amount uint64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if amount > ^uint64(0)-b.amount {
		return rebase.Overflow.New("custody holds %d, deposit of %d", b.amount, amount)
	}
	b.amount += amount
	return nil
}

func (b *balance) debit(authority crypto.AccountID, amount uint64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if authority != b.authority {
		return rebase.NotOwner.New("%s cannot withdraw from custody of %s", authority, b.authority)
	}
	if amount > b.amount {
		return rebase.Underflow.New("custody holds %d, withdrawal of %d", b.amount, amount)
	}
	b.amount -= amount
	return nil
}
