package store

import (
	"github.com/LeJamon/gorebase/internal/core/keylet"
	"github.com/LeJamon/gorebase/internal/core/rebase"
	"github.com/LeJamon/gorebase/internal/crypto"
)

// Key prefixes. A key is the prefix byte followed by the object's ID.
const (
	prefixAccount    byte = 'a'
	prefixRebase     byte = 'r'
	prefixShare      byte = 's'
	prefixShareIndex byte = 'i' // 'i' || rebase ID || share ID
)

// AccountRecord tracks the per-owner rebase sequence and the sequence the
// owner's next signed request must carry.
type AccountRecord struct {
	NextRebase uint64 `codec:"next_rebase"`
	Sequence   uint64 `codec:"sequence"`
}

// RebaseRecord is a persisted rebase ledger and its ownership.
type RebaseRecord struct {
	Owner     crypto.AccountID `codec:"owner"`
	Sequence  uint64           `codec:"seq"`
	Elastic   uint64           `codec:"elastic"`
	Base      uint64           `codec:"base"`
	NextShare uint64           `codec:"next_share"`
}

// State returns the {elastic, base} pair.
func (r RebaseRecord) State() rebase.State {
	return rebase.State{Elastic: r.Elastic, Base: r.Base}
}

// ShareRecord is a persisted share handle.
type ShareRecord struct {
	Rebase   keylet.ID        `codec:"rebase"`
	Owner    crypto.AccountID `codec:"owner"`
	Sequence uint64           `codec:"seq"`
	Amount   uint64           `codec:"amount"`
}

func accountKey(id crypto.AccountID) []byte {
	return append([]byte{prefixAccount}, id[:]...)
}

func rebaseKey(id keylet.ID) []byte {
	return append([]byte{prefixRebase}, id[:]...)
}

func shareKey(id keylet.ID) []byte {
	return append([]byte{prefixShare}, id[:]...)
}

func shareIndexPrefix(rebase keylet.ID) []byte {
	return append([]byte{prefixShareIndex}, rebase[:]...)
}

func shareIndexKey(rebase, share keylet.ID) []byte {
	return append(shareIndexPrefix(rebase), share[:]...)
}
