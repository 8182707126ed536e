package main

import (
	"fmt"
	"io"

	"github.com/backkem/beacon/pkg/crypto"
	"github.com/backkem/beacon/pkg/provision"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newKeygenCommand(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate a group key",
		Long:  "Generate a random 32-byte group key. The key is written to --out with owner-only permissions, or printed when --out is empty.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runKeygen(v.GetString("out"), cmd.OutOrStdout())
		},
	}
	cmd.Flags().String("out", "", "Key file to create (must not exist)")
	return cmd
}

func runKeygen(out string, stdout io.Writer) error {
	key, text, err := provision.GenerateGroupKey(crypto.DefaultRandom)
	if err != nil {
		return err
	}

	if out == "" {
		_, err := fmt.Fprintln(stdout, text)
		return err
	}

	if err := provision.WriteGroupKey(out, key); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Wrote group key to %s\n", out)
	return nil
}
