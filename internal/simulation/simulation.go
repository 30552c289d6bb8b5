// Package simulation drives independent pools with random operation
// sequences and checks their accounting after every step.
//
// Each pool runs on its own goroutine and is only ever touched by that
// goroutine.
package simulation

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/LeJamon/gorebase/internal/core/custody"
	"github.com/LeJamon/gorebase/internal/core/pool"
	"github.com/LeJamon/gorebase/internal/core/rebase"
	"github.com/LeJamon/gorebase/internal/crypto"
)

// ErrInvariant is returned when a pool's books stop adding up.
var ErrInvariant = errors.New("pool invariant violated")

const asset = "SIM"

// Config controls a run.
type Config struct {
	Pools int
	Steps int
	Seed  int64
	// MaxDeposit bounds a single deposit. Zero means DefaultMaxDeposit.
	MaxDeposit uint64
}

// DefaultMaxDeposit is the deposit bound used when Config.MaxDeposit is zero.
const DefaultMaxDeposit = 1_000_000

// Report summarizes one pool after its run.
type Report struct {
	Pool     int
	Ops      map[string]int
	Rejected int
	// Peak is the highest elastic seen during the run.
	Peak    uint64
	Holders int
	State   rebase.State
}

// Run simulates cfg.Pools pools concurrently and returns one report per pool
// in pool order. Every pool is drained and closed at the end of its run.
func Run(ctx context.Context, cfg Config, log *zap.Logger) ([]Report, error) {
	if cfg.Pools <= 0 || cfg.Steps < 0 {
		return nil, fmt.Errorf("invalid simulation size: %d pools, %d steps", cfg.Pools, cfg.Steps)
	}
	if cfg.MaxDeposit == 0 {
		cfg.MaxDeposit = DefaultMaxDeposit
	}
	if log == nil {
		log = zap.NewNop()
	}

	reports := make([]Report, cfg.Pools)
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < cfg.Pools; i++ {
		i := i
		g.Go(func() error {
			s, err := newSim(i, cfg)
			if err != nil {
				return err
			}
			report, err := s.run(ctx)
			if err != nil {
				return fmt.Errorf("pool %d: %w", i, err)
			}
			reports[i] = report
			log.Debug("pool finished",
				zap.Int("pool", i),
				zap.Int("rejected", report.Rejected),
				zap.Uint64("peak", report.Peak),
			)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}

type sim struct {
	index    int
	rng      *rand.Rand
	cfg      Config
	pool     *pool.Pool[custody.Coin]
	holdings []*rebase.Base
	report   Report
}

func newSim(index int, cfg Config) (*sim, error) {
	authority := crypto.AccountID{byte(index), byte(index >> 8), 'S'}
	p, err := pool.New[custody.Coin](rebase.New(), custody.NewCoinStore(authority, asset), authority)
	if err != nil {
		return nil, err
	}
	return &sim{
		index:  index,
		rng:    rand.New(rand.NewSource(cfg.Seed + int64(index))),
		cfg:    cfg,
		pool:   p,
		report: Report{Pool: index, Ops: make(map[string]int)},
	}, nil
}

func (s *sim) run(ctx context.Context) (Report, error) {
	for step := 0; step < s.cfg.Steps; step++ {
		if err := ctx.Err(); err != nil {
			return Report{}, err
		}
		op, err := s.step()
		if err != nil {
			if !rejected(err) {
				return Report{}, fmt.Errorf("step %d %s: %w", step, op, err)
			}
			s.report.Rejected++
		}
		s.report.Ops[op]++
		if err := s.check(); err != nil {
			return Report{}, fmt.Errorf("step %d %s: %w", step, op, err)
		}
		if e := s.pool.State().Elastic; e > s.report.Peak {
			s.report.Peak = e
		}
	}

	s.report.Holders = len(s.holdings)
	s.report.State = s.pool.State()
	if err := s.drain(); err != nil {
		return Report{}, fmt.Errorf("drain: %w", err)
	}
	return s.report, nil
}

// rejected reports whether err is an ordinary refusal by the engine rather
// than a broken pool.
func rejected(err error) bool {
	return rebase.Underflow.Has(err) || rebase.Overflow.Has(err)
}

func (s *sim) step() (string, error) {
	state := s.pool.State()
	if len(s.holdings) == 0 {
		return "deposit", s.deposit()
	}

	switch n := s.rng.Intn(100); {
	case n < 30:
		return "deposit", s.deposit()
	case n < 40:
		return "redeem", s.redeem()
	case n < 55:
		return "withdraw", s.withdraw()
	case n < 65:
		return "accrue", s.pool.Accrue(custody.Coin{Asset: asset, Amount: s.amount(state.Elastic/20 + 1)})
	case n < 72:
		_, err := s.pool.Slash(s.amount(state.Elastic/10 + 1))
		return "slash", err
	case n < 82:
		return "split", s.split()
	case n < 92:
		return "merge", s.merge()
	default:
		return "liquidate", s.liquidate()
	}
}

// amount returns a value in [0, limit).
func (s *sim) amount(limit uint64) uint64 {
	if limit == 0 {
		return 0
	}
	return uint64(s.rng.Int63n(int64(min(limit, 1<<62))))
}

func (s *sim) pick() int { return s.rng.Intn(len(s.holdings)) }

func (s *sim) remove(i int) {
	last := len(s.holdings) - 1
	s.holdings[i] = s.holdings[last]
	s.holdings = s.holdings[:last]
}

func (s *sim) deposit() error {
	amount := s.amount(s.cfg.MaxDeposit) + 1
	share, err := s.pool.Deposit(custody.Coin{Asset: asset, Amount: amount}, s.rng.Intn(2) == 0)
	if err != nil {
		return err
	}
	s.holdings = append(s.holdings, share)
	return nil
}

func (s *sim) redeem() error {
	i := s.pick()
	if _, err := s.pool.Redeem(s.holdings[i], false); err != nil {
		return err
	}
	s.remove(i)
	return nil
}

func (s *sim) withdraw() error {
	share := s.holdings[s.pick()]
	value, err := s.pool.Value(share, false)
	if err != nil {
		return err
	}
	_, _, err = s.pool.Withdraw(s.amount(value+1), share, s.rng.Intn(2) == 0)
	return err
}

func (s *sim) split() error {
	share := s.holdings[s.pick()]
	part, err := share.Split(s.amount(share.Amount() + 1))
	if err != nil {
		return err
	}
	s.holdings = append(s.holdings, part)
	return nil
}

func (s *sim) merge() error {
	if len(s.holdings) < 2 {
		return nil
	}
	i, j := s.pick(), s.pick()
	if i == j {
		return nil
	}
	if err := rebase.Merge(s.holdings[i], s.holdings[j]); err != nil {
		return err
	}
	s.remove(j)
	return nil
}

func (s *sim) liquidate() error {
	i := s.pick()
	value, err := s.pool.Value(s.holdings[i], false)
	if err != nil {
		return err
	}
	if _, err := s.pool.Liquidate(s.amount(value+1), s.holdings[i]); err != nil {
		return err
	}
	s.remove(i)
	return nil
}

func (s *sim) check() error {
	state := s.pool.State()
	if held := s.pool.Custody().Amount(); held != state.Elastic {
		return fmt.Errorf("%w: custody %d, elastic %d", ErrInvariant, held, state.Elastic)
	}
	var sum uint64
	for _, h := range s.holdings {
		if h.Consumed() {
			return fmt.Errorf("%w: consumed handle still held", ErrInvariant)
		}
		sum += h.Amount()
	}
	if sum != state.Base {
		return fmt.Errorf("%w: shares %d, base %d", ErrInvariant, sum, state.Base)
	}
	return nil
}

// drain redeems every holding, slashes leftover rounding dust and closes the pool.
func (s *sim) drain() error {
	for len(s.holdings) > 0 {
		if _, err := s.pool.Redeem(s.holdings[0], false); err != nil {
			return err
		}
		s.remove(0)
	}
	if dust := s.pool.State().Elastic; dust > 0 {
		if _, err := s.pool.Slash(dust); err != nil {
			return err
		}
	}
	return s.pool.Close()
}
