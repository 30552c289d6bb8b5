package rebase

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedAndRedeem(t *testing.T) {
	r := New()

	share, err := r.AddElastic(1_000_000, false)
	require.NoError(t, err)
	assert.Equal(t, uint64(1_000_000), share.Amount())
	assert.Equal(t, State{Elastic: 1_000_000, Base: 1_000_000}, r.Snapshot())

	out, err := r.SubBase(share, false)
	require.NoError(t, err)
	assert.Equal(t, uint64(1_000_000), out)
	assert.True(t, r.IsEmpty())
	assert.True(t, share.Consumed())
	require.NoError(t, r.Destroy())
}

func TestYieldAccrual(t *testing.T) {
	r := Restore(ID{1}, State{Elastic: 1000, Base: 10})

	v, err := r.ToElastic(1, false)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), v)

	require.NoError(t, r.IncreaseElastic(1000))
	assert.Equal(t, State{Elastic: 2000, Base: 10}, r.Snapshot())

	v, err = r.ToElastic(1, false)
	require.NoError(t, err)
	assert.Equal(t, uint64(200), v)
}

func TestPartialWithdrawal(t *testing.T) {
	r := New()

	h, err := r.AddElastic(100_000_000, false)
	require.NoError(t, err)
	require.Equal(t, uint64(100_000_000), h.Amount())

	h2, err := h.Split(50_000_000)
	require.NoError(t, err)
	assert.Equal(t, uint64(50_000_000), h.Amount())

	out, err := r.SubBase(h2, false)
	require.NoError(t, err)
	assert.Equal(t, uint64(50_000_000), out)
	assert.Equal(t, State{Elastic: 50_000_000, Base: 50_000_000}, r.Snapshot())
}

func TestSubBaseUnderflowRejected(t *testing.T) {
	id := ID{2}
	r := Restore(id, State{Elastic: 1000, Base: 10})
	share := RestoreBase(id, 1000)

	_, err := r.SubBase(share, false)
	require.Error(t, err)
	assert.True(t, Underflow.Has(err))

	assert.Equal(t, State{Elastic: 1000, Base: 10}, r.Snapshot(), "state must be untouched")
	assert.False(t, share.Consumed())
	assert.Equal(t, uint64(1000), share.Amount())
}

func TestSubElastic(t *testing.T) {
	r := Restore(ID{3}, State{Elastic: 1000, Base: 10})
	share := RestoreBase(ID{3}, 10)

	burned, err := r.SubElastic(350, share, true)
	require.NoError(t, err)
	assert.Equal(t, uint64(4), burned)
	assert.Equal(t, uint64(6), share.Amount())
	assert.Equal(t, State{Elastic: 650, Base: 6}, r.Snapshot())

	t.Run("more than the handle covers", func(t *testing.T) {
		small := RestoreBase(ID{3}, 1)
		_, err := r.SubElastic(300, small, false)
		require.Error(t, err)
		assert.True(t, Underflow.Has(err))
		assert.Equal(t, uint64(1), small.Amount())
		assert.Equal(t, State{Elastic: 650, Base: 6}, r.Snapshot())
	})

	t.Run("more than the pool holds", func(t *testing.T) {
		_, err := r.SubElastic(651, share, false)
		require.Error(t, err)
		assert.True(t, Underflow.Has(err))
		assert.Equal(t, State{Elastic: 650, Base: 6}, r.Snapshot())
	})
}

func TestElasticOnlyAndBaseOnly(t *testing.T) {
	r := Restore(ID{4}, State{Elastic: 10, Base: 10})

	require.NoError(t, r.DecreaseElastic(10))
	assert.Equal(t, uint64(0), r.Elastic())

	err := r.DecreaseElastic(1)
	require.Error(t, err)
	assert.True(t, Underflow.Has(err))

	require.NoError(t, r.IncreaseBase(5))
	assert.Equal(t, uint64(15), r.Base())
	require.NoError(t, r.DecreaseBase(15))
	assert.Equal(t, uint64(0), r.Base())

	err = r.DecreaseBase(1)
	require.Error(t, err)
	assert.True(t, Underflow.Has(err))

	r = Restore(ID{4}, State{Elastic: math.MaxUint64, Base: math.MaxUint64})
	err = r.IncreaseElastic(1)
	require.Error(t, err)
	assert.True(t, Overflow.Has(err))
	err = r.IncreaseBase(1)
	require.Error(t, err)
	assert.True(t, Overflow.Has(err))
}

func TestAddElasticOverflow(t *testing.T) {
	r := Restore(ID{5}, State{Elastic: math.MaxUint64 - 1, Base: 1})

	_, err := r.AddElastic(2, false)
	require.Error(t, err)
	assert.True(t, Overflow.Has(err))
	assert.Equal(t, State{Elastic: math.MaxUint64 - 1, Base: 1}, r.Snapshot())
}

func TestDecreaseElasticAndBase(t *testing.T) {
	r := New()
	a, err := r.AddElastic(1000, false)
	require.NoError(t, err)
	b, err := a.Split(400)
	require.NoError(t, err)

	// liquidate b at a price of its own choosing
	require.NoError(t, r.DecreaseElasticAndBase(300, b))
	assert.True(t, b.Consumed())
	assert.Equal(t, State{Elastic: 700, Base: 600}, r.Snapshot())

	err = r.DecreaseElasticAndBase(701, a)
	require.Error(t, err)
	assert.True(t, Underflow.Has(err))
	assert.False(t, a.Consumed())
}

func TestDrainedRebaseReseeds(t *testing.T) {
	r := New()
	a, err := r.AddElastic(100, false)
	require.NoError(t, err)

	// a total loss leaves base outstanding with nothing behind it
	require.NoError(t, r.DecreaseElastic(100))
	v, err := r.ValueOf(a, true)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), v)

	b, err := r.AddElastic(50, false)
	require.NoError(t, err)
	assert.Equal(t, uint64(50), b.Amount())
	assert.Equal(t, State{Elastic: 50, Base: 150}, r.Snapshot())
}

func TestDifferentRebase(t *testing.T) {
	r1, r2 := New(), New()
	s1, err := r1.AddElastic(10, false)
	require.NoError(t, err)
	s2, err := r2.AddElastic(10, false)
	require.NoError(t, err)

	_, err = r2.SubBase(s1, false)
	require.Error(t, err)
	assert.True(t, DifferentRebase.Has(err))

	_, err = r2.SubElastic(1, s1, false)
	assert.True(t, DifferentRebase.Has(err))

	err = r2.DecreaseElasticAndBase(1, s1)
	assert.True(t, DifferentRebase.Has(err))

	err = Merge(s1, s2)
	assert.True(t, DifferentRebase.Has(err))
	assert.Equal(t, uint64(10), s1.Amount())
	assert.Equal(t, uint64(10), s2.Amount())
}

func TestDestroyNonEmpty(t *testing.T) {
	r := New()
	_, err := r.AddElastic(1, false)
	require.NoError(t, err)

	err = r.Destroy()
	require.Error(t, err)
	assert.True(t, NonZeroDestruction.Has(err))
}

func TestSumInvariant(t *testing.T) {
	rng := rand.New(rand.NewSource(1234))
	r := New()
	var live []*Base

	sum := func() uint64 {
		var s uint64
		for _, h := range live {
			s += h.Amount()
		}
		return s
	}
	remove := func(i int) {
		live[i] = live[len(live)-1]
		live = live[:len(live)-1]
	}

	for step := 0; step < 5000; step++ {
		before := r.Snapshot()

		switch op := rng.Intn(6); {
		case op == 0 || len(live) == 0:
			var existing *Base
			var valueBefore uint64
			if len(live) > 0 && before.Elastic > 0 && before.Base > 0 {
				existing = live[rng.Intn(len(live))]
				v, err := r.ValueOf(existing, false)
				require.NoError(t, err)
				valueBefore = v
			}

			h, err := r.AddElastic(uint64(rng.Int63n(1_000_000_000)), false)
			require.NoError(t, err)
			live = append(live, h)

			if existing != nil {
				v, err := r.ValueOf(existing, false)
				require.NoError(t, err)
				require.GreaterOrEqual(t, v, valueBefore, "a deposit must not dilute existing holders")
			}
		case op == 1:
			i := rng.Intn(len(live))
			_, err := r.SubBase(live[i], rng.Intn(2) == 0)
			require.NoError(t, err)
			remove(i)
		case op == 2:
			h := live[rng.Intn(len(live))]
			if h.Amount() == 0 {
				continue
			}
			part, err := h.Split(uint64(rng.Int63n(int64(h.Amount()) + 1)))
			require.NoError(t, err)
			live = append(live, part)
		case op == 3 && len(live) > 1:
			i, j := rng.Intn(len(live)), rng.Intn(len(live))
			if i == j {
				continue
			}
			require.NoError(t, Merge(live[i], live[j]))
			remove(j)
		case op == 4:
			require.NoError(t, r.IncreaseElastic(uint64(rng.Int63n(1_000_000))))
		case op == 5:
			h := live[rng.Intn(len(live))]
			value, err := r.ValueOf(h, false)
			require.NoError(t, err)
			if value == 0 {
				continue
			}
			_, err = r.SubElastic(uint64(rng.Int63n(int64(value))+1), h, rng.Intn(2) == 0)
			if err != nil {
				require.True(t, Underflow.Has(err), "unexpected error %v", err)
				require.Equal(t, before, r.Snapshot())
			}
		}

		require.Equal(t, r.Base(), sum(), "step %d", step)
	}

	for len(live) > 0 {
		_, err := r.SubBase(live[0], false)
		require.NoError(t, err)
		remove(0)
	}
	assert.Equal(t, uint64(0), r.Base())
}
