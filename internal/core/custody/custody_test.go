package custody

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeebo/errs"

	"github.com/LeJamon/gorebase/internal/core/keylet"
	"github.com/LeJamon/gorebase/internal/core/rebase"
	"github.com/LeJamon/gorebase/internal/crypto"
)

var (
	authority = crypto.AccountID{0xAA}
	stranger  = crypto.AccountID{0xBB}
)

func TestCoinStore(t *testing.T) {
	s := NewCoinStore(authority, "USD")
	assert.Equal(t, "USD", s.Asset())
	assert.Equal(t, authority, s.Authority())

	require.NoError(t, s.Deposit(Coin{Asset: "USD", Amount: 100}))
	assert.Equal(t, uint64(100), s.Amount())

	tests := []struct {
		name  string
		run   func() error
		class *errs.Class
	}{
		{
			name:  "wrong asset",
			run:   func() error { return s.Deposit(Coin{Asset: "EUR", Amount: 1}) },
			class: &rebase.AssetMismatch,
		},
		{
			name:  "not the authority",
			run:   func() error { _, err := s.Withdraw(stranger, 1); return err },
			class: &rebase.NotOwner,
		},
		{
			name:  "more than held",
			run:   func() error { _, err := s.Withdraw(authority, 101); return err },
			class: &rebase.Underflow,
		},
		{
			name:  "overflow",
			run:   func() error { return s.Deposit(Coin{Asset: "USD", Amount: math.MaxUint64}) },
			class: &rebase.Overflow,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.run()
			require.Error(t, err)
			assert.True(t, tt.class.Has(err), "got %v", err)
			assert.Equal(t, uint64(100), s.Amount())
		})
	}

	c, err := s.Withdraw(authority, 40)
	require.NoError(t, err)
	assert.Equal(t, Coin{Asset: "USD", Amount: 40}, c)
	assert.Equal(t, "40 USD", c.String())
	assert.Equal(t, uint64(60), s.Amount())
}

func TestFungibleStore(t *testing.T) {
	gold := keylet.Metadata("GOLD")
	s := NewFungibleStore(authority, gold)
	assert.Equal(t, gold, s.Metadata())

	require.NoError(t, s.Deposit(FungibleAsset{Metadata: gold, Amount: 5}))

	err := s.Deposit(FungibleAsset{Metadata: keylet.Metadata("SILVER"), Amount: 5})
	require.Error(t, err)
	assert.True(t, rebase.AssetMismatch.Has(err))

	f, err := s.Withdraw(authority, 5)
	require.NoError(t, err)
	assert.Equal(t, FungibleAsset{Metadata: gold, Amount: 5}, f)
	assert.Equal(t, uint64(0), s.Amount())
}

func TestNumberStore(t *testing.T) {
	s := NewNumberStore(authority)
	require.NoError(t, s.Deposit(Number(7)))

	n, err := s.Withdraw(authority, 3)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), n.Value())
	assert.Equal(t, uint64(4), s.Amount())

	_, err = s.Withdraw(stranger, 1)
	assert.True(t, rebase.NotOwner.Has(err))
}
