package rebase

import "fmt"

// Base is a share handle: amount base parts of one Rebase.
//
// Handles move rather than copy. Operations that take a handle by value in the
// accounting sense (SubBase, DecreaseElasticAndBase, Merge as source, DestroyZero)
// mark it consumed, after which every use fails with ErrConsumed.
type Base struct {
	rebase   ID
	amount   uint64
	consumed bool
}

// Zero returns an empty handle drawn from r.
func (r *Rebase) Zero() *Base {
	return &Base{rebase: r.id}
}

// RestoreBase rebuilds a handle from a persisted record. It must only be used
// with records whose amounts are already accounted for in the rebase's base.
func RestoreBase(rebase ID, amount uint64) *Base {
	return &Base{rebase: rebase, amount: amount}
}

// Amount returns the number of base parts held.
func (b *Base) Amount() uint64 { return b.amount }

// Rebase returns the ID of the originating Rebase.
func (b *Base) Rebase() ID { return b.rebase }

// Consumed reports whether the handle has been moved out.
func (b *Base) Consumed() bool { return b.consumed }

func (b *Base) String() string {
	if b.consumed {
		return fmt.Sprintf("base of %s (consumed)", b.rebase)
	}
	return fmt.Sprintf("base of %s {amount: %d}", b.rebase, b.amount)
}

// Split moves amount base parts out of b into a new handle.
func (b *Base) Split(amount uint64) (*Base, error) {
	if b.consumed {
		return nil, ErrConsumed
	}
	rest, err := sub(b.amount, amount)
	if err != nil {
		return nil, err
	}
	b.amount = rest
	return &Base{rebase: b.rebase, amount: amount}, nil
}

// SplitAll moves the whole amount of b into a new handle, leaving b at zero.
func (b *Base) SplitAll() (*Base, error) {
	if b.consumed {
		return nil, ErrConsumed
	}
	out := &Base{rebase: b.rebase, amount: b.amount}
	b.amount = 0
	return out, nil
}

// Merge adds src into dst and consumes src. Both must come from the same Rebase.
func Merge(dst, src *Base) error {
	if dst == nil || src == nil || dst.consumed || src.consumed {
		return ErrConsumed
	}
	if dst == src {
		return Consumed.New("merge of a handle into itself")
	}
	if dst.rebase != src.rebase {
		return DifferentRebase.New("merge of %s into %s", src.rebase, dst.rebase)
	}
	sum, err := add(dst.amount, src.amount)
	if err != nil {
		return err
	}
	dst.amount = sum
	src.consume()
	return nil
}

// DestroyZero consumes an empty handle.
func DestroyZero(b *Base) error {
	if b == nil || b.consumed {
		return ErrConsumed
	}
	if b.amount != 0 {
		return NonZeroDestruction.New("%s", b)
	}
	b.consume()
	return nil
}

func (b *Base) consume() {
	b.amount = 0
	b.consumed = true
}
