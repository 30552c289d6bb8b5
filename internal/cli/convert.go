package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/LeJamon/gorebase/internal/core/rebase"
)

func newConvertCmd() *cobra.Command {
	var (
		elasticTotal uint64
		baseTotal    uint64
		amount       uint64
		roundUp      bool
	)

	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Convert between elastic and base against given totals",
		Long: `Convert an amount against an {elastic, base} snapshot without touching storage.

Examples:
    rebased convert to-base --elastic-total 1500 --base-total 1000 --amount 300
    rebased convert to-elastic --elastic-total 3 --base-total 2 --amount 1 --round-up`,
	}
	flags := cmd.PersistentFlags()
	flags.Uint64Var(&elasticTotal, "elastic-total", 0, "elastic of the snapshot")
	flags.Uint64Var(&baseTotal, "base-total", 0, "base of the snapshot")
	flags.Uint64Var(&amount, "amount", 0, "amount to convert")
	flags.BoolVar(&roundUp, "round-up", false, "round up instead of down")

	conv := func(use, short string, f func(e, b, x uint64, up bool) (uint64, error)) *cobra.Command {
		return &cobra.Command{
			Use:   use,
			Short: short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				v, err := f(elasticTotal, baseTotal, amount, roundUp)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), v)
				return nil
			},
		}
	}

	cmd.AddCommand(
		conv("to-base", "Convert elastic to base", rebase.ElasticToBase),
		conv("to-elastic", "Convert base to elastic", rebase.BaseToElastic),
	)
	return cmd
}
