package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/LeJamon/gorebase/internal/registry"
)

func newRebaseCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rebase",
		Short: "Create, inspect and adjust rebases",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "create",
			Short: "Create a rebase owned by the signing identity",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				res, err := a.execute(cmd.Context(), registry.Request{Op: registry.OpCreateRebase})
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), res.Object)
				return nil
			},
		},
		&cobra.Command{
			Use:   "show <rebase>",
			Short: "Show the state of a rebase",
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
				rec, err := reg.Rebase(cmd.Context(), id)
				if err != nil {
					return err
				}
				shares, err := reg.Shares(cmd.Context(), id)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "rebase:  %s\n", id)
				fmt.Fprintf(out, "owner:   %s\n", rec.Owner)
				fmt.Fprintf(out, "elastic: %d\n", rec.Elastic)
				fmt.Fprintf(out, "base:    %d\n", rec.Base)
				fmt.Fprintf(out, "shares:  %d\n", len(shares))
				return nil
			},
		},
		&cobra.Command{
			Use:   "list",
			Short: "List every rebase",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				reg, err := a.registry()
				if err != nil {
					return err
				}
				ids, err := reg.Rebases(cmd.Context())
				if err != nil {
					return err
				}
				for _, id := range ids {
					fmt.Fprintln(cmd.OutOrStdout(), id)
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "check <rebase>",
			Short: "Verify that the shares of a rebase add up to its base",
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
				if err := reg.CheckInvariants(cmd.Context(), id); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "ok")
				return nil
			},
		},
		targetCmd(a, "delete <rebase>", "Delete an empty rebase", registry.OpDeleteRebase, "rebase"),
		amountCmd(a, "accrue <rebase> <amount>", "Add yield to a rebase without minting base", registry.OpAccrue, "rebase"),
		amountCmd(a, "slash <rebase> <amount>", "Remove elastic from a rebase without burning base", registry.OpSlash, "rebase"),
	)
	return cmd
}

// targetCmd builds a command that applies op to the object named by its only argument.
func targetCmd(a *app, use, short, op, what string) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(what, args[0])
			if err != nil {
				return err
			}
			_, err = a.execute(cmd.Context(), registry.Request{Op: op, Target: id})
			return err
		},
	}
}

// amountCmd builds a command that applies op with an amount to an object.
func amountCmd(a *app, use, short, op, what string) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(what, args[0])
			if err != nil {
				return err
			}
			amount, err := parseAmount(args[1])
			if err != nil {
				return err
			}
			_, err = a.execute(cmd.Context(), registry.Request{Op: op, Target: id, Amount: amount})
			return err
		},
	}
}
