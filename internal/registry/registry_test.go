package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/LeJamon/gorebase/internal/core/keylet"
	"github.com/LeJamon/gorebase/internal/core/rebase"
	"github.com/LeJamon/gorebase/internal/crypto"
	"github.com/LeJamon/gorebase/internal/storage/database"
	_ "github.com/LeJamon/gorebase/internal/storage/database/all"
	"github.com/LeJamon/gorebase/internal/store"
)

var (
	alice = crypto.AccountID{0xA1}
	bob   = crypto.AccountID{0xB0}
)

func openRegistry(t *testing.T, backend, path string) *Registry {
	t.Helper()
	db, err := database.Open(backend, path)
	require.NoError(t, err)
	s, err := store.New(db, store.Options{Compression: "lz4"})
	require.NoError(t, err)
	return New(s, zaptest.NewLogger(t))
}

func newRegistry(t *testing.T) *Registry {
	t.Helper()
	r := openRegistry(t, "memory", "")
	t.Cleanup(func() { r.Close() })
	return r
}

func requireState(t *testing.T, r *Registry, id keylet.ID, want rebase.State) {
	t.Helper()
	rec, err := r.Rebase(context.Background(), id)
	require.NoError(t, err)
	require.Equal(t, want, rec.State())
	require.NoError(t, r.CheckInvariants(context.Background(), id))
}

func TestYieldScenario(t *testing.T) {
	ctx := context.Background()
	r := newRegistry(t)

	rid, err := r.CreateRebase(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, keylet.Rebase(alice, 0), rid)

	a, err := r.Deposit(ctx, alice, rid, 1000, false)
	require.NoError(t, err)
	requireState(t, r, rid, rebase.State{Elastic: 1000, Base: 1000})

	require.NoError(t, r.Accrue(ctx, alice, rid, 1000))
	requireState(t, r, rid, rebase.State{Elastic: 2000, Base: 1000})

	b, err := r.Deposit(ctx, bob, rid, 500, false)
	require.NoError(t, err)
	rec, err := r.Share(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, store.ShareRecord{Rebase: rid, Owner: bob, Sequence: 1, Amount: 250}, rec)
	requireState(t, r, rid, rebase.State{Elastic: 2500, Base: 1250})

	v, err := r.Value(ctx, a, false)
	require.NoError(t, err)
	assert.Equal(t, uint64(2000), v)

	burned, err := r.WithdrawElastic(ctx, bob, b, 100, false)
	require.NoError(t, err)
	assert.Equal(t, uint64(50), burned)
	requireState(t, r, rid, rebase.State{Elastic: 2400, Base: 1200})

	out, err := r.Redeem(ctx, bob, b, false)
	require.NoError(t, err)
	assert.Equal(t, uint64(400), out)
	_, err = r.Share(ctx, b)
	assert.ErrorIs(t, err, ErrNotFound)
	requireState(t, r, rid, rebase.State{Elastic: 2000, Base: 1000})

	require.NoError(t, r.Slash(ctx, alice, rid, 1000))
	requireState(t, r, rid, rebase.State{Elastic: 1000, Base: 1000})

	out, err = r.Redeem(ctx, alice, a, false)
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), out)

	require.NoError(t, r.DeleteRebase(ctx, alice, rid))
	_, err = r.Rebase(ctx, rid)
	assert.ErrorIs(t, err, ErrNotFound)

	next, err := r.CreateRebase(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, keylet.Rebase(alice, 1), next, "owner sequence keeps counting")
}

func TestNotOwner(t *testing.T) {
	ctx := context.Background()
	r := newRegistry(t)

	rid, err := r.CreateRebase(ctx, alice)
	require.NoError(t, err)
	share, err := r.Deposit(ctx, alice, rid, 100, false)
	require.NoError(t, err)

	tests := []struct {
		name string
		run  func() error
	}{
		{"redeem", func() error { _, err := r.Redeem(ctx, bob, share, false); return err }},
		{"withdraw", func() error { _, err := r.WithdrawElastic(ctx, bob, share, 1, false); return err }},
		{"split", func() error { _, err := r.Split(ctx, bob, share, 1); return err }},
		{"transfer", func() error { return r.Transfer(ctx, bob, share, bob) }},
		{"destroy share", func() error { return r.DestroyShare(ctx, bob, share) }},
		{"accrue", func() error { return r.Accrue(ctx, bob, rid, 1) }},
		{"slash", func() error { return r.Slash(ctx, bob, rid, 1) }},
		{"liquidate", func() error { return r.Liquidate(ctx, bob, share, 1) }},
		{"delete rebase", func() error { return r.DeleteRebase(ctx, bob, rid) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.run()
			require.Error(t, err)
			assert.True(t, rebase.NotOwner.Has(err), "got %v", err)
			requireState(t, r, rid, rebase.State{Elastic: 100, Base: 100})
		})
	}
}

func TestSplitMergeTransfer(t *testing.T) {
	ctx := context.Background()
	r := newRegistry(t)

	rid, err := r.CreateRebase(ctx, alice)
	require.NoError(t, err)
	a, err := r.Deposit(ctx, alice, rid, 900, false)
	require.NoError(t, err)

	part, err := r.Split(ctx, alice, a, 300)
	require.NoError(t, err)
	assert.Equal(t, keylet.Share(rid, 1), part)
	requireState(t, r, rid, rebase.State{Elastic: 900, Base: 900})

	_, err = r.Split(ctx, alice, a, 601)
	assert.True(t, rebase.Underflow.Has(err))

	require.NoError(t, r.Transfer(ctx, alice, part, bob))
	rec, err := r.Share(ctx, part)
	require.NoError(t, err)
	assert.Equal(t, bob, rec.Owner)

	err = r.Merge(ctx, alice, a, part)
	assert.True(t, rebase.NotOwner.Has(err), "merging requires owning both")

	require.NoError(t, r.Transfer(ctx, bob, part, alice))
	require.NoError(t, r.Merge(ctx, alice, a, part))
	_, err = r.Share(ctx, part)
	assert.ErrorIs(t, err, ErrNotFound)

	err = r.Merge(ctx, alice, a, a)
	assert.True(t, rebase.Consumed.Has(err))

	shares, err := r.Shares(ctx, rid)
	require.NoError(t, err)
	require.Len(t, shares, 1)
	assert.Equal(t, a, shares[0].ID)
	assert.Equal(t, uint64(900), shares[0].Amount)
	requireState(t, r, rid, rebase.State{Elastic: 900, Base: 900})
}

func TestMergeAcrossRebases(t *testing.T) {
	ctx := context.Background()
	r := newRegistry(t)

	r1, err := r.CreateRebase(ctx, alice)
	require.NoError(t, err)
	r2, err := r.CreateRebase(ctx, alice)
	require.NoError(t, err)
	assert.NotEqual(t, r1, r2)

	s1, err := r.Deposit(ctx, alice, r1, 10, false)
	require.NoError(t, err)
	s2, err := r.Deposit(ctx, alice, r2, 10, false)
	require.NoError(t, err)

	err = r.Merge(ctx, alice, s1, s2)
	require.Error(t, err)
	assert.True(t, rebase.DifferentRebase.Has(err))

	for _, id := range []keylet.ID{s1, s2} {
		rec, err := r.Share(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, uint64(10), rec.Amount)
	}
	requireState(t, r, r1, rebase.State{Elastic: 10, Base: 10})
	requireState(t, r, r2, rebase.State{Elastic: 10, Base: 10})
}

func TestDestruction(t *testing.T) {
	ctx := context.Background()
	r := newRegistry(t)

	rid, err := r.CreateRebase(ctx, alice)
	require.NoError(t, err)
	a, err := r.Deposit(ctx, alice, rid, 50, false)
	require.NoError(t, err)

	err = r.DeleteRebase(ctx, alice, rid)
	assert.True(t, rebase.NonZeroDestruction.Has(err))

	err = r.DestroyShare(ctx, alice, a)
	assert.True(t, rebase.NonZeroDestruction.Has(err))

	empty, err := r.Split(ctx, alice, a, 0)
	require.NoError(t, err)

	_, err = r.Redeem(ctx, alice, a, false)
	require.NoError(t, err)

	err = r.DeleteRebase(ctx, alice, rid)
	assert.True(t, rebase.NonZeroDestruction.Has(err), "empty handles must be destroyed first")

	require.NoError(t, r.DestroyShare(ctx, alice, empty))
	require.NoError(t, r.DeleteRebase(ctx, alice, rid))
}

func TestLiquidate(t *testing.T) {
	ctx := context.Background()
	r := newRegistry(t)

	rid, err := r.CreateRebase(ctx, alice)
	require.NoError(t, err)
	_, err = r.Deposit(ctx, alice, rid, 600, false)
	require.NoError(t, err)
	b, err := r.Deposit(ctx, bob, rid, 400, false)
	require.NoError(t, err)

	require.NoError(t, r.Liquidate(ctx, alice, b, 250))
	_, err = r.Share(ctx, b)
	assert.ErrorIs(t, err, ErrNotFound)
	requireState(t, r, rid, rebase.State{Elastic: 750, Base: 600})
}

func TestUnknownObjects(t *testing.T) {
	ctx := context.Background()
	r := newRegistry(t)

	_, err := r.Deposit(ctx, alice, keylet.ID{1}, 1, false)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = r.Redeem(ctx, alice, keylet.ID{2}, false)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = r.Shares(ctx, keylet.ID{3})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPersistence(t *testing.T) {
	for _, backend := range []string{"pebble", "leveldb", "badger", "bbolt", "sqlite"} {
		t.Run(backend, func(t *testing.T) {
			ctx := context.Background()
			dir := t.TempDir()

			r := openRegistry(t, backend, dir)
			rid, err := r.CreateRebase(ctx, alice)
			require.NoError(t, err)
			a, err := r.Deposit(ctx, alice, rid, 1000, false)
			require.NoError(t, err)
			require.NoError(t, r.Accrue(ctx, alice, rid, 500))
			b, err := r.Split(ctx, alice, a, 400)
			require.NoError(t, err)
			require.NoError(t, r.Close())

			r = openRegistry(t, backend, dir)
			defer r.Close()

			requireState(t, r, rid, rebase.State{Elastic: 1500, Base: 1000})
			shares, err := r.Shares(ctx, rid)
			require.NoError(t, err)
			assert.Len(t, shares, 2)

			v, err := r.Value(ctx, b, false)
			require.NoError(t, err)
			assert.Equal(t, uint64(600), v)

			rebases, err := r.Rebases(ctx)
			require.NoError(t, err)
			assert.Equal(t, []keylet.ID{rid}, rebases)

			c, err := r.Deposit(ctx, alice, rid, 3, false)
			require.NoError(t, err)
			assert.Equal(t, keylet.Share(rid, 2), c, "share sequence survives reopen")
		})
	}
}
