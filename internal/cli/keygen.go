package cli

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/LeJamon/gorebase/internal/crypto"
)

func newKeygenCmd() *cobra.Command {
	var fromSeed string

	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate an identity",
		Long: `Generate a secp256k1 identity and print its seed, public key and account.
Pass the seed to --seed (or identity.seed) to sign requests as that account.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				seed []byte
				err  error
			)
			if fromSeed != "" {
				seed, err = crypto.ParseSeed(fromSeed)
			} else {
				seed, err = crypto.GenerateSeed()
			}
			if err != nil {
				return err
			}

			id, err := crypto.NewIdentityFromSeed(seed)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "seed:       %s\n", hex.EncodeToString(seed))
			fmt.Fprintf(out, "public_key: %s\n", hex.EncodeToString(id.PublicKey()))
			fmt.Fprintf(out, "account:    %s\n", id.AccountID())
			return nil
		},
	}
	cmd.Flags().StringVar(&fromSeed, "from-seed", "", "derive from this hex seed instead of a random one")
	return cmd
}
