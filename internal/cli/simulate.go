package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/LeJamon/gorebase/internal/simulation"
)

func newSimulateCmd(a *app) *cobra.Command {
	var (
		pools      int
		steps      int
		seed       int64
		maxDeposit uint64
	)

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run random operations against independent in-memory pools",
		Long: `Run random deposits, redemptions, withdrawals, accruals, slashes, splits,
merges and liquidations against independent pools, one goroutine per pool,
checking after every step that custody matches elastic and shares match base.

Defaults come from the [simulation] section of the configuration.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := simulation.Config{
				Pools:      a.cfg.Simulation.Pools,
				Steps:      a.cfg.Simulation.Steps,
				Seed:       a.cfg.Simulation.Seed,
				MaxDeposit: a.cfg.Simulation.MaxDeposit,
			}
			flags := cmd.Flags()
			if flags.Changed("pools") {
				cfg.Pools = pools
			}
			if flags.Changed("steps") {
				cfg.Steps = steps
			}
			if flags.Changed("sim-seed") {
				cfg.Seed = seed
			}
			if flags.Changed("max-deposit") {
				cfg.MaxDeposit = maxDeposit
			}

			a.log.Info("starting simulation",
				zap.Int("pools", cfg.Pools),
				zap.Int("steps", cfg.Steps),
				zap.Int64("seed", cfg.Seed),
			)
			reports, err := simulation.Run(cmd.Context(), cfg, a.log)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, r := range reports {
				fmt.Fprintf(out, "pool %d: elastic=%d base=%d holders=%d peak=%d rejected=%d ops=%s\n",
					r.Pool, r.State.Elastic, r.State.Base, r.Holders, r.Peak, r.Rejected, formatOps(r.Ops))
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.IntVar(&pools, "pools", 0, "number of pools")
	flags.IntVar(&steps, "steps", 0, "operations per pool")
	flags.Int64Var(&seed, "sim-seed", 0, "random seed")
	flags.Uint64Var(&maxDeposit, "max-deposit", 0, "largest single deposit")
	return cmd
}

func formatOps(ops map[string]int) string {
	names := make([]string, 0, len(ops))
	for name := range ops {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = fmt.Sprintf("%s:%d", name, ops[name])
	}
	return strings.Join(parts, ",")
}
