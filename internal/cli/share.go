package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/LeJamon/gorebase/internal/registry"
)

func newShareCmd(a *app) *cobra.Command {
	var roundUp bool

	cmd := &cobra.Command{
		Use:   "share",
		Short: "Deposit into rebases and manage share handles",
	}
	cmd.PersistentFlags().BoolVar(&roundUp, "round-up", false, "round conversions up instead of down")

	// printResult runs q and prints the field of the result it is asked for.
	printResult := func(cmd *cobra.Command, q registry.Request, object bool) error {
		q.RoundUp = roundUp
		res, err := a.execute(cmd.Context(), q)
		if err != nil {
			return err
		}
		if object {
			fmt.Fprintln(cmd.OutOrStdout(), res.Object)
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), res.Amount)
		}
		return nil
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "deposit <rebase> <elastic>",
			Short: "Add elastic to a rebase and receive a new share",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := parseID("rebase", args[0])
				if err != nil {
					return err
				}
				amount, err := parseAmount(args[1])
				if err != nil {
					return err
				}
				return printResult(cmd, registry.Request{Op: registry.OpDeposit, Target: id, Amount: amount}, true)
			},
		},
		&cobra.Command{
			Use:   "redeem <share>",
			Short: "Consume a share and print the elastic it released",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := parseID("share", args[0])
				if err != nil {
					return err
				}
				return printResult(cmd, registry.Request{Op: registry.OpRedeem, Target: id}, false)
			},
		},
		&cobra.Command{
			Use:   "withdraw <share> <elastic>",
			Short: "Withdraw elastic against a share and print the base burned",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := parseID("share", args[0])
				if err != nil {
					return err
				}
				amount, err := parseAmount(args[1])
				if err != nil {
					return err
				}
				return printResult(cmd, registry.Request{Op: registry.OpWithdraw, Target: id, Amount: amount}, false)
			},
		},
		&cobra.Command{
			Use:   "split <share> <base>",
			Short: "Move base parts into a new share",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := parseID("share", args[0])
				if err != nil {
					return err
				}
				amount, err := parseAmount(args[1])
				if err != nil {
					return err
				}
				return printResult(cmd, registry.Request{Op: registry.OpSplit, Target: id, Amount: amount}, true)
			},
		},
		&cobra.Command{
			Use:   "merge <dst> <src>",
			Short: "Merge src into dst",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				dst, err := parseID("share", args[0])
				if err != nil {
					return err
				}
				src, err := parseID("share", args[1])
				if err != nil {
					return err
				}
				_, err = a.execute(cmd.Context(), registry.Request{Op: registry.OpMerge, Target: dst, Source: src})
				return err
			},
		},
		&cobra.Command{
			Use:   "transfer <share> <account>",
			Short: "Hand a share to another account",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := parseID("share", args[0])
				if err != nil {
					return err
				}
				to, err := parseAccount(args[1])
				if err != nil {
					return err
				}
				_, err = a.execute(cmd.Context(), registry.Request{Op: registry.OpTransfer, Target: id, To: to})
				return err
			},
		},
		amountCmd(a, "liquidate <share> <elastic>", "Consume a share for a fixed amount of elastic (rebase owner)", registry.OpLiquidate, "share"),
		targetCmd(a, "destroy <share>", "Destroy an empty share", registry.OpDestroyShare, "share"),
		&cobra.Command{
			Use:   "list <rebase>",
			Short: "List the shares of a rebase",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := parseID("rebase", args[0])
				if err != nil {
					return err
				}
				reg, err := a.registry()
				if err != nil {
					return err
				}
				shares, err := reg.Shares(cmd.Context(), id)
				if err != nil {
					return err
				}
				for _, s := range shares {
					fmt.Fprintf(cmd.OutOrStdout(), "%s %s %d\n", s.ID, s.Owner, s.Amount)
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "value <share>",
			Short: "Print what a share would redeem for",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := parseID("share", args[0])
				if err != nil {
					return err
				}
				reg, err := a.registry()
				if err != nil {
					return err
				}
				v, err := reg.Value(cmd.Context(), id, roundUp)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), v)
				return nil
			},
		},
	)
	return cmd
}
