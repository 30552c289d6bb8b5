package registry

import (
	"context"
	"errors"
	"fmt"

	"github.com/ugorji/go/codec"

	"github.com/LeJamon/gorebase/internal/core/keylet"
	"github.com/LeJamon/gorebase/internal/crypto"
	"github.com/LeJamon/gorebase/internal/store"
)

// ErrBadSignature is returned when a signed request does not verify.
var ErrBadSignature = errors.New("invalid request signature")

// ErrUnknownOp is returned for a request naming no registry operation.
var ErrUnknownOp = errors.New("unknown operation")

// ErrBadSequence is returned when a request does not carry the signer's
// current sequence, which rejects replayed requests.
var ErrBadSequence = errors.New("bad request sequence")

// Operation names carried in requests.
const (
	OpCreateRebase = "create_rebase"
	OpDeposit      = "deposit"
	OpRedeem       = "redeem"
	OpWithdraw     = "withdraw"
	OpAccrue       = "accrue"
	OpSlash        = "slash"
	OpLiquidate    = "liquidate"
	OpSplit        = "split"
	OpMerge        = "merge"
	OpTransfer     = "transfer"
	OpDestroyShare = "destroy_share"
	OpDeleteRebase = "delete_rebase"
)

// Request is one registry mutation. Target is the rebase or share the
// operation acts on; Source is the merged share for OpMerge. Sequence must
// equal the signer's current account sequence; each applied request
// advances it by one.
type Request struct {
	Op       string           `codec:"op"`
	Sequence uint64           `codec:"sequence"`
	Target   keylet.ID        `codec:"target"`
	Source   keylet.ID        `codec:"source"`
	Amount   uint64           `codec:"amount"`
	To       crypto.AccountID `codec:"to"`
	RoundUp  bool             `codec:"round_up"`
}

// Result reports what a request produced.
type Result struct {
	// Object is the created rebase or share, if any.
	Object keylet.ID
	// Amount is the elastic released (redeem) or base burned (withdraw).
	Amount uint64
}

// SignedRequest is an encoded Request with the signer's public key.
type SignedRequest struct {
	PublicKey []byte `codec:"public_key"`
	Payload   []byte `codec:"payload"`
	Signature []byte `codec:"signature"`
}

var requestHandle = &codec.MsgpackHandle{}

// Encode returns the canonical bytes that are signed.
func (q Request) Encode() ([]byte, error) {
	var out []byte
	if err := codec.NewEncoderBytes(&out, requestHandle).Encode(q); err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	return out, nil
}

// DecodeRequest parses a request payload.
func DecodeRequest(payload []byte) (Request, error) {
	var q Request
	if err := codec.NewDecoderBytes(payload, requestHandle).Decode(&q); err != nil {
		return Request{}, fmt.Errorf("decode request: %w", err)
	}
	return q, nil
}

// Sign encodes q and signs it with id.
func Sign(id *crypto.Identity, q Request) (SignedRequest, error) {
	payload, err := q.Encode()
	if err != nil {
		return SignedRequest{}, err
	}
	return SignedRequest{
		PublicKey: id.PublicKey(),
		Payload:   payload,
		Signature: id.Sign(payload),
	}, nil
}

// Authenticate verifies the signature and returns the signer's account.
func Authenticate(req SignedRequest) (crypto.AccountID, error) {
	if !crypto.Verify(req.PublicKey, req.Payload, req.Signature) {
		return crypto.AccountID{}, ErrBadSignature
	}
	return crypto.CalcAccountID(req.PublicKey), nil
}

// Execute authenticates req and applies the operation it carries on behalf
// of the signer. The request's sequence is checked and advanced in the same
// batch as the operation's writes, so a rejected operation consumes nothing.
func (r *Registry) Execute(ctx context.Context, req SignedRequest) (Result, error) {
	caller, err := Authenticate(req)
	if err != nil {
		return Result{}, err
	}
	q, err := DecodeRequest(req.Payload)
	if err != nil {
		return Result{}, err
	}
	ctx = context.WithValue(ctx, claimKey{}, claim{account: caller, sequence: q.Sequence})
	return r.apply(ctx, caller, q)
}

// Sequence returns the sequence the account's next request must carry.
func (r *Registry) Sequence(ctx context.Context, account crypto.AccountID) (uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	acct, err := r.store.Account(ctx, account)
	if err != nil {
		return 0, err
	}
	return acct.Sequence, nil
}

type claimKey struct{}

// claim is the signer's sequence carried from Execute to the commit.
type claim struct {
	account  crypto.AccountID
	sequence uint64
}

// commit writes b. Under Execute it first checks the signer's sequence and
// queues the advanced account record into b. Callers hold r.mu.
func (r *Registry) commit(ctx context.Context, b *store.Batch) error {
	if c, ok := ctx.Value(claimKey{}).(claim); ok {
		acct, err := r.store.PendingAccount(ctx, b, c.account)
		if err != nil {
			return err
		}
		if c.sequence != acct.Sequence {
			return fmt.Errorf("%w: got %d, want %d", ErrBadSequence, c.sequence, acct.Sequence)
		}
		acct.Sequence++
		r.store.PutAccount(b, c.account, acct)
	}
	return r.store.Commit(ctx, b)
}

func (r *Registry) apply(ctx context.Context, caller crypto.AccountID, q Request) (Result, error) {
	switch q.Op {
	case OpCreateRebase:
		id, err := r.CreateRebase(ctx, caller)
		return Result{Object: id}, err
	case OpDeposit:
		id, err := r.Deposit(ctx, caller, q.Target, q.Amount, q.RoundUp)
		return Result{Object: id}, err
	case OpRedeem:
		elastic, err := r.Redeem(ctx, caller, q.Target, q.RoundUp)
		return Result{Amount: elastic}, err
	case OpWithdraw:
		burned, err := r.WithdrawElastic(ctx, caller, q.Target, q.Amount, q.RoundUp)
		return Result{Amount: burned}, err
	case OpAccrue:
		return Result{}, r.Accrue(ctx, caller, q.Target, q.Amount)
	case OpSlash:
		return Result{}, r.Slash(ctx, caller, q.Target, q.Amount)
	case OpLiquidate:
		return Result{}, r.Liquidate(ctx, caller, q.Target, q.Amount)
	case OpSplit:
		id, err := r.Split(ctx, caller, q.Target, q.Amount)
		return Result{Object: id}, err
	case OpMerge:
		return Result{}, r.Merge(ctx, caller, q.Target, q.Source)
	case OpTransfer:
		return Result{}, r.Transfer(ctx, caller, q.Target, q.To)
	case OpDestroyShare:
		return Result{}, r.DestroyShare(ctx, caller, q.Target)
	case OpDeleteRebase:
		return Result{}, r.DeleteRebase(ctx, caller, q.Target)
	default:
		return Result{}, fmt.Errorf("%w: %q", ErrUnknownOp, q.Op)
	}
}
