package registry

import (
	"context"

	"go.uber.org/zap"

	"github.com/LeJamon/gorebase/internal/core/keylet"
	"github.com/LeJamon/gorebase/internal/core/rebase"
	"github.com/LeJamon/gorebase/internal/crypto"
	"github.com/LeJamon/gorebase/internal/store"
)

// Deposit adds elastic to a rebase and mints a share owned by caller.
func (r *Registry) Deposit(ctx context.Context, caller crypto.AccountID, rebaseID keylet.ID, elastic uint64, roundUp bool) (keylet.ID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, err := r.loadRebase(ctx, rebaseID)
	if err != nil {
		return keylet.ID{}, err
	}
	h, err := l.ledger.AddElastic(elastic, roundUp)
	if err != nil {
		return keylet.ID{}, err
	}
	shareID, seq := nextShareID(l)

	b := r.store.NewBatch()
	r.save(b, l)
	r.store.PutShare(b, shareID, store.ShareRecord{Rebase: rebaseID, Owner: caller, Sequence: seq, Amount: h.Amount()})
	if err := r.commit(ctx, b); err != nil {
		return keylet.ID{}, err
	}

	r.log.Debug("deposit",
		zap.Stringer("rebase", rebaseID),
		zap.Stringer("share", shareID),
		zap.Stringer("owner", caller),
		zap.Uint64("elastic", elastic),
		zap.Uint64("base", h.Amount()),
	)
	return shareID, nil
}

// Redeem consumes a share and returns the elastic it converted to.
func (r *Registry) Redeem(ctx context.Context, caller crypto.AccountID, shareID keylet.ID, roundUp bool) (uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, h, err := r.loadShare(ctx, shareID)
	if err != nil {
		return 0, err
	}
	if err := requireOwner(caller, rec.Owner, "share "+shareID.String()); err != nil {
		return 0, err
	}
	l, err := r.loadRebase(ctx, rec.Rebase)
	if err != nil {
		return 0, err
	}
	elastic, err := l.ledger.SubBase(h, roundUp)
	if err != nil {
		return 0, err
	}

	b := r.store.NewBatch()
	r.save(b, l)
	r.store.DeleteShare(b, shareID, rec.Rebase)
	if err := r.commit(ctx, b); err != nil {
		return 0, err
	}

	r.log.Debug("redeem",
		zap.Stringer("rebase", rec.Rebase),
		zap.Stringer("share", shareID),
		zap.Uint64("base", rec.Amount),
		zap.Uint64("elastic", elastic),
	)
	return elastic, nil
}

// WithdrawElastic removes elastic from a rebase and burns the matching base
// from a share. It returns the number of base parts burned.
func (r *Registry) WithdrawElastic(ctx context.Context, caller crypto.AccountID, shareID keylet.ID, elastic uint64, roundUp bool) (uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, h, err := r.loadShare(ctx, shareID)
	if err != nil {
		return 0, err
	}
	if err := requireOwner(caller, rec.Owner, "share "+shareID.String()); err != nil {
		return 0, err
	}
	l, err := r.loadRebase(ctx, rec.Rebase)
	if err != nil {
		return 0, err
	}
	burned, err := l.ledger.SubElastic(elastic, h, roundUp)
	if err != nil {
		return 0, err
	}

	b := r.store.NewBatch()
	r.save(b, l)
	rec.Amount = h.Amount()
	r.store.PutShare(b, shareID, rec)
	if err := r.commit(ctx, b); err != nil {
		return 0, err
	}

	r.log.Debug("withdraw",
		zap.Stringer("rebase", rec.Rebase),
		zap.Stringer("share", shareID),
		zap.Uint64("elastic", elastic),
		zap.Uint64("burned", burned),
	)
	return burned, nil
}

// Accrue adds elastic without minting base. Only the rebase owner may accrue.
func (r *Registry) Accrue(ctx context.Context, caller crypto.AccountID, rebaseID keylet.ID, elastic uint64) error {
	return r.adjust(ctx, caller, rebaseID, "accrue", elastic, (*rebase.Rebase).IncreaseElastic)
}

// Slash removes elastic without burning base. Only the rebase owner may slash.
func (r *Registry) Slash(ctx context.Context, caller crypto.AccountID, rebaseID keylet.ID, elastic uint64) error {
	return r.adjust(ctx, caller, rebaseID, "slash", elastic, (*rebase.Rebase).DecreaseElastic)
}

func (r *Registry) adjust(ctx context.Context, caller crypto.AccountID, rebaseID keylet.ID, op string, elastic uint64, apply func(*rebase.Rebase, uint64) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, err := r.loadRebase(ctx, rebaseID)
	if err != nil {
		return err
	}
	if err := requireOwner(caller, l.record.Owner, "rebase "+rebaseID.String()); err != nil {
		return err
	}
	if err := apply(l.ledger, elastic); err != nil {
		return err
	}

	b := r.store.NewBatch()
	r.save(b, l)
	if err := r.commit(ctx, b); err != nil {
		return err
	}

	r.log.Debug(op,
		zap.Stringer("rebase", rebaseID),
		zap.Uint64("elastic", elastic),
		zap.Uint64("total_elastic", l.record.Elastic),
	)
	return nil
}

// Liquidate consumes a share in exchange for elastic chosen by the rebase
// owner, independent of the current ratio.
func (r *Registry) Liquidate(ctx context.Context, caller crypto.AccountID, shareID keylet.ID, elastic uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, h, err := r.loadShare(ctx, shareID)
	if err != nil {
		return err
	}
	l, err := r.loadRebase(ctx, rec.Rebase)
	if err != nil {
		return err
	}
	if err := requireOwner(caller, l.record.Owner, "rebase "+rec.Rebase.String()); err != nil {
		return err
	}
	if err := l.ledger.DecreaseElasticAndBase(elastic, h); err != nil {
		return err
	}

	b := r.store.NewBatch()
	r.save(b, l)
	r.store.DeleteShare(b, shareID, rec.Rebase)
	if err := r.commit(ctx, b); err != nil {
		return err
	}

	r.log.Debug("liquidate",
		zap.Stringer("rebase", rec.Rebase),
		zap.Stringer("share", shareID),
		zap.Uint64("base", rec.Amount),
		zap.Uint64("elastic", elastic),
	)
	return nil
}

// Split moves amount base parts of a share into a new share owned by caller.
func (r *Registry) Split(ctx context.Context, caller crypto.AccountID, shareID keylet.ID, amount uint64) (keylet.ID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, h, err := r.loadShare(ctx, shareID)
	if err != nil {
		return keylet.ID{}, err
	}
	if err := requireOwner(caller, rec.Owner, "share "+shareID.String()); err != nil {
		return keylet.ID{}, err
	}
	l, err := r.loadRebase(ctx, rec.Rebase)
	if err != nil {
		return keylet.ID{}, err
	}
	part, err := h.Split(amount)
	if err != nil {
		return keylet.ID{}, err
	}
	newID, seq := nextShareID(l)

	b := r.store.NewBatch()
	r.save(b, l)
	rec.Amount = h.Amount()
	r.store.PutShare(b, shareID, rec)
	r.store.PutShare(b, newID, store.ShareRecord{Rebase: rec.Rebase, Owner: caller, Sequence: seq, Amount: part.Amount()})
	if err := r.commit(ctx, b); err != nil {
		return keylet.ID{}, err
	}

	r.log.Debug("split",
		zap.Stringer("share", shareID),
		zap.Stringer("new_share", newID),
		zap.Uint64("amount", amount),
	)
	return newID, nil
}

// Merge moves all base parts of src into dst and removes src. The caller must
// own both and both must come from the same rebase.
func (r *Registry) Merge(ctx context.Context, caller crypto.AccountID, dstID, srcID keylet.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	dstRec, dst, err := r.loadShare(ctx, dstID)
	if err != nil {
		return err
	}
	srcRec, src, err := r.loadShare(ctx, srcID)
	if err != nil {
		return err
	}
	if err := requireOwner(caller, dstRec.Owner, "share "+dstID.String()); err != nil {
		return err
	}
	if err := requireOwner(caller, srcRec.Owner, "share "+srcID.String()); err != nil {
		return err
	}
	if dstID == srcID {
		return rebase.Consumed.New("merge of share %s into itself", dstID)
	}
	if err := rebase.Merge(dst, src); err != nil {
		return err
	}

	b := r.store.NewBatch()
	dstRec.Amount = dst.Amount()
	r.store.PutShare(b, dstID, dstRec)
	r.store.DeleteShare(b, srcID, srcRec.Rebase)
	if err := r.commit(ctx, b); err != nil {
		return err
	}

	r.log.Debug("merge",
		zap.Stringer("dst", dstID),
		zap.Stringer("src", srcID),
		zap.Uint64("amount", dstRec.Amount),
	)
	return nil
}

// Transfer hands a share to another account.
func (r *Registry) Transfer(ctx context.Context, caller crypto.AccountID, shareID keylet.ID, to crypto.AccountID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, err := r.store.Share(ctx, shareID)
	if err != nil {
		return err
	}
	if err := requireOwner(caller, rec.Owner, "share "+shareID.String()); err != nil {
		return err
	}

	b := r.store.NewBatch()
	rec.Owner = to
	r.store.PutShare(b, shareID, rec)
	if err := r.commit(ctx, b); err != nil {
		return err
	}

	r.log.Debug("transfer",
		zap.Stringer("share", shareID),
		zap.Stringer("from", caller),
		zap.Stringer("to", to),
	)
	return nil
}

// DestroyShare removes an empty share.
func (r *Registry) DestroyShare(ctx context.Context, caller crypto.AccountID, shareID keylet.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, h, err := r.loadShare(ctx, shareID)
	if err != nil {
		return err
	}
	if err := requireOwner(caller, rec.Owner, "share "+shareID.String()); err != nil {
		return err
	}
	if err := rebase.DestroyZero(h); err != nil {
		return err
	}

	b := r.store.NewBatch()
	r.store.DeleteShare(b, shareID, rec.Rebase)
	if err := r.commit(ctx, b); err != nil {
		return err
	}

	r.log.Debug("destroyed share", zap.Stringer("share", shareID))
	return nil
}

// DeleteRebase removes an empty rebase. Every share handle drawn from it,
// including empty ones, must have been destroyed first.
func (r *Registry) DeleteRebase(ctx context.Context, caller crypto.AccountID, rebaseID keylet.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, err := r.loadRebase(ctx, rebaseID)
	if err != nil {
		return err
	}
	if err := requireOwner(caller, l.record.Owner, "rebase "+rebaseID.String()); err != nil {
		return err
	}
	if err := l.ledger.Destroy(); err != nil {
		return err
	}
	ids, err := r.store.ShareIDs(ctx, rebaseID)
	if err != nil {
		return err
	}
	if len(ids) > 0 {
		return rebase.NonZeroDestruction.New("rebase %s has %d share handles outstanding", rebaseID, len(ids))
	}

	b := r.store.NewBatch()
	r.store.DeleteRebase(b, rebaseID)
	if err := r.commit(ctx, b); err != nil {
		return err
	}

	r.log.Debug("deleted rebase", zap.Stringer("rebase", rebaseID))
	return nil
}
