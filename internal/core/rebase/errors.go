package rebase

import "github.com/zeebo/errs"

// Error classes. Every failure returned by this package belongs to exactly one
// class; callers test membership with Class.Has.
var (
	// Underflow is returned when a subtraction would go below zero.
	Underflow = errs.Class("underflow")

	// Overflow is returned when an addition or a conversion result does not fit in 64 bits.
	Overflow = errs.Class("overflow")

	// DifferentRebase is returned when a share handle is used against a rebase
	// it was not drawn from, or two handles from different rebases are merged.
	DifferentRebase = errs.Class("different rebase")

	// NonZeroDestruction is returned when destroying a rebase or share that still holds value.
	NonZeroDestruction = errs.Class("non-zero destruction")

	// AssetMismatch is returned when a payload of the wrong asset is offered to a custody store.
	AssetMismatch = errs.Class("asset mismatch")

	// NotOwner is returned when the caller is not authorized for an object.
	NotOwner = errs.Class("not owner")

	// Consumed is returned when a share handle is used after it was moved out.
	Consumed = errs.Class("consumed share")
)

// ErrConsumed is the error returned for any operation on a consumed handle.
var ErrConsumed = Consumed.New("share handle already consumed")
