// Package rebase implements the elastic/base share accounting engine.
//
// A Rebase tracks a pooled, freely fluctuating quantity (elastic) and the
// number of shares (base) that claim it. Shares are carried by Base handles;
// the sum of the live handles drawn from a Rebase always equals its base.
//
// The engine performs no locking. At most one mutation may be in flight per
// Rebase; serializing callers is the job of the layer that owns the Rebase.
package rebase

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// ID identifies a Rebase. Share handles carry the ID of the Rebase they were drawn from.
type ID [32]byte

// String returns the upper-case hex form of the ID.
func (id ID) String() string {
	return fmt.Sprintf("%X", id[:])
}

// ParseID decodes a 64 character hex string.
func ParseID(s string) (ID, error) {
	var id ID
	b, err := hex.DecodeString(s)
	if err != nil {
		return id, fmt.Errorf("invalid rebase id %q: %w", s, err)
	}
	if len(b) != len(id) {
		return id, fmt.Errorf("invalid rebase id %q: want %d bytes, got %d", s, len(id), len(b))
	}
	copy(id[:], b)
	return id, nil
}

// State is a point-in-time copy of the {elastic, base} pair.
type State struct {
	Elastic uint64
	Base    uint64
}

// IsEmpty reports whether both sides are zero.
func (s State) IsEmpty() bool {
	return s.Elastic == 0 && s.Base == 0
}

// Rebase is the {elastic, base} ledger.
type Rebase struct {
	id      ID
	elastic uint64
	base    uint64
}

// New returns an empty Rebase with a random ID.
func New() *Rebase {
	var id ID
	if _, err := rand.Read(id[:]); err != nil {
		panic(fmt.Sprintf("rebase: reading random id: %v", err))
	}
	return NewWithID(id)
}

// NewWithID returns an empty Rebase with the given ID.
func NewWithID(id ID) *Rebase {
	return &Rebase{id: id}
}

// Restore rebuilds a Rebase from a persisted state.
func Restore(id ID, s State) *Rebase {
	return &Rebase{id: id, elastic: s.Elastic, base: s.Base}
}

// ID returns the identifier of the Rebase.
func (r *Rebase) ID() ID { return r.id }

// Elastic returns the pooled total.
func (r *Rebase) Elastic() uint64 { return r.elastic }

// Base returns the outstanding share total.
func (r *Rebase) Base() uint64 { return r.base }

// IsEmpty reports whether both elastic and base are zero.
func (r *Rebase) IsEmpty() bool { return r.elastic == 0 && r.base == 0 }

// Snapshot returns a copy of the current state.
func (r *Rebase) Snapshot() State {
	return State{Elastic: r.elastic, Base: r.base}
}

func (r *Rebase) String() string {
	return fmt.Sprintf("rebase %s {elastic: %d, base: %d}", r.id, r.elastic, r.base)
}

// ToBase converts elastic to base parts at the current ratio.
func (r *Rebase) ToBase(elastic uint64, roundUp bool) (uint64, error) {
	return ElasticToBase(r.elastic, r.base, elastic, roundUp)
}

// ToElastic converts base parts to elastic at the current ratio.
func (r *Rebase) ToElastic(base uint64, roundUp bool) (uint64, error) {
	return BaseToElastic(r.elastic, r.base, base, roundUp)
}

// ValueOf returns the elastic the share would redeem for right now.
func (r *Rebase) ValueOf(share *Base, roundUp bool) (uint64, error) {
	if err := r.owns(share); err != nil {
		return 0, err
	}
	return r.ToElastic(share.amount, roundUp)
}

// AddElastic adds elastic and mints the matching base parts as a new handle.
func (r *Rebase) AddElastic(elastic uint64, roundUp bool) (*Base, error) {
	base, err := r.ToBase(elastic, roundUp)
	if err != nil {
		return nil, err
	}
	newElastic, err := add(r.elastic, elastic)
	if err != nil {
		return nil, err
	}
	newBase, err := add(r.base, base)
	if err != nil {
		return nil, err
	}

	r.elastic, r.base = newElastic, newBase
	return &Base{rebase: r.id, amount: base}, nil
}

// SubBase consumes share and removes its base parts together with the elastic
// they convert to, which is returned.
func (r *Rebase) SubBase(share *Base, roundUp bool) (uint64, error) {
	if err := r.owns(share); err != nil {
		return 0, err
	}
	elastic, err := r.ToElastic(share.amount, roundUp)
	if err != nil {
		return 0, err
	}
	newElastic, err := sub(r.elastic, elastic)
	if err != nil {
		return 0, err
	}
	newBase, err := sub(r.base, share.amount)
	if err != nil {
		return 0, err
	}

	r.elastic, r.base = newElastic, newBase
	share.consume()
	return elastic, nil
}

// SubElastic removes elastic and burns the matching base parts from share.
// It returns the number of base parts burned.
func (r *Rebase) SubElastic(elastic uint64, share *Base, roundUp bool) (uint64, error) {
	if err := r.owns(share); err != nil {
		return 0, err
	}
	base, err := r.ToBase(elastic, roundUp)
	if err != nil {
		return 0, err
	}
	newElastic, err := sub(r.elastic, elastic)
	if err != nil {
		return 0, err
	}
	newBase, err := sub(r.base, base)
	if err != nil {
		return 0, err
	}
	newAmount, err := sub(share.amount, base)
	if err != nil {
		return 0, Underflow.New("share holds %d base parts, %d elastic needs %d", share.amount, elastic, base)
	}

	r.elastic, r.base = newElastic, newBase
	share.amount = newAmount
	return base, nil
}

// IncreaseElastic adds elastic without minting base. Every outstanding share
// gains value proportionally.
func (r *Rebase) IncreaseElastic(elastic uint64) error {
	v, err := add(r.elastic, elastic)
	if err != nil {
		return err
	}
	r.elastic = v
	return nil
}

// DecreaseElastic removes elastic without burning base.
func (r *Rebase) DecreaseElastic(elastic uint64) error {
	v, err := sub(r.elastic, elastic)
	if err != nil {
		return err
	}
	r.elastic = v
	return nil
}

// IncreaseBase adds base without elastic. The caller must mint the matching
// handle amount itself to keep the handle sum equal to base.
func (r *Rebase) IncreaseBase(base uint64) error {
	v, err := add(r.base, base)
	if err != nil {
		return err
	}
	r.base = v
	return nil
}

// DecreaseBase removes base without elastic. The caller must burn the matching
// handle amount itself.
func (r *Rebase) DecreaseBase(base uint64) error {
	v, err := sub(r.base, base)
	if err != nil {
		return err
	}
	r.base = v
	return nil
}

// DecreaseElasticAndBase consumes share and removes elastic and the share's
// base parts without deriving one from the other. The caller supplies a
// pairing computed elsewhere, e.g. a liquidation price.
func (r *Rebase) DecreaseElasticAndBase(elastic uint64, share *Base) error {
	if err := r.owns(share); err != nil {
		return err
	}
	newElastic, err := sub(r.elastic, elastic)
	if err != nil {
		return err
	}
	newBase, err := sub(r.base, share.amount)
	if err != nil {
		return err
	}

	r.elastic, r.base = newElastic, newBase
	share.consume()
	return nil
}

// Destroy checks that the Rebase is empty. A non-empty Rebase cannot be
// written off.
func (r *Rebase) Destroy() error {
	if !r.IsEmpty() {
		return NonZeroDestruction.New("%s", r)
	}
	return nil
}

func (r *Rebase) owns(share *Base) error {
	if share == nil {
		return ErrConsumed
	}
	if share.consumed {
		return ErrConsumed
	}
	if share.rebase != r.id {
		return DifferentRebase.New("share of %s used with %s", share.rebase, r.id)
	}
	return nil
}
