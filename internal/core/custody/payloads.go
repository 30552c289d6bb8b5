package custody

import (
	"fmt"

	"github.com/LeJamon/gorebase/internal/core/keylet"
	"github.com/LeJamon/gorebase/internal/core/rebase"
	"github.com/LeJamon/gorebase/internal/crypto"
)

// Number is a plain count with no asset attached.
type Number uint64

func (n Number) Value() uint64 { return uint64(n) }

// NumberStore counts Numbers.
type NumberStore struct {
	balance
}

// NewNumberStore returns an empty store withdrawable by authority.
func NewNumberStore(authority crypto.AccountID) *NumberStore {
	return &NumberStore{balance: balance{authority: authority}}
}

func (s *NumberStore) Deposit(n Number) error {
	return s.credit(uint64(n))
}

func (s *NumberStore) Withdraw(authority crypto.AccountID, amount uint64) (Number, error) {
	if err := s.debit(authority, amount); err != nil {
		return 0, err
	}
	return Number(amount), nil
}

// Coin is an amount of a named asset.
type Coin struct {
	Asset  string
	Amount uint64
}

func (c Coin) Value() uint64 { return c.Amount }

func (c Coin) String() string { return fmt.Sprintf("%d %s", c.Amount, c.Asset) }

// CoinStore holds coins of one asset.
type CoinStore struct {
	balance
	asset string
}

// NewCoinStore returns an empty store of asset withdrawable by authority.
func NewCoinStore(authority crypto.AccountID, asset string) *CoinStore {
	return &CoinStore{balance: balance{authority: authority}, asset: asset}
}

// Asset returns the asset the store accepts.
func (s *CoinStore) Asset() string { return s.asset }

func (s *CoinStore) Deposit(c Coin) error {
	if c.Asset != s.asset {
		return rebase.AssetMismatch.New("store of %s offered %s", s.asset, c)
	}
	return s.credit(c.Amount)
}

func (s *CoinStore) Withdraw(authority crypto.AccountID, amount uint64) (Coin, error) {
	if err := s.debit(authority, amount); err != nil {
		return Coin{}, err
	}
	return Coin{Asset: s.asset, Amount: amount}, nil
}

// FungibleAsset is an amount of an asset identified by its metadata object.
type FungibleAsset struct {
	Metadata keylet.ID
	Amount   uint64
}

func (f FungibleAsset) Value() uint64 { return f.Amount }

// FungibleStore holds fungible assets bound to one metadata object.
type FungibleStore struct {
	balance
	metadata keylet.ID
}

// NewFungibleStore returns an empty store for metadata withdrawable by authority.
func NewFungibleStore(authority crypto.AccountID, metadata keylet.ID) *FungibleStore {
	return &FungibleStore{balance: balance{authority: authority}, metadata: metadata}
}

// Metadata returns the metadata object the store accepts.
func (s *FungibleStore) Metadata() keylet.ID { return s.metadata }

func (s *FungibleStore) Deposit(f FungibleAsset) error {
	if f.Metadata != s.metadata {
		return rebase.AssetMismatch.New("store of %s offered %d of %s", s.metadata, f.Amount, f.Metadata)
	}
	return s.credit(f.Amount)
}

func (s *FungibleStore) Withdraw(authority crypto.AccountID, amount uint64) (FungibleAsset, error) {
	if err := s.debit(authority, amount); err != nil {
		return FungibleAsset{}, err
	}
	return FungibleAsset{Metadata: s.metadata, Amount: amount}, nil
}

var (
	_ Custody[Number]        = (*NumberStore)(nil)
	_ Custody[Coin]          = (*CoinStore)(nil)
	_ Custody[FungibleAsset] = (*FungibleStore)(nil)
)
