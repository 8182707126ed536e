package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/backkem/beacon/pkg/crypto"
	"github.com/backkem/beacon/pkg/envelope"
	"github.com/backkem/beacon/pkg/provision"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newInspectCommand(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect <envelope-hex>",
		Short: "Open an envelope with the group key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(v.GetString("key-file"), v.GetString("asset"), args[0], cmd.OutOrStdout())
		},
	}
	cmd.Flags().String("key-file", provision.DefaultKeyFile, "Base64 group key file")
	cmd.Flags().String("asset", "", "Asset identifier to compare against")
	return cmd
}

func runInspect(keyFile, assetID, envHex string, stdout io.Writer) error {
	raw, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(envHex), "0x"))
	if err != nil {
		return fmt.Errorf("decode envelope: %w", err)
	}

	parts, err := envelope.Parse(raw)
	if err != nil {
		return err
	}

	key, err := provision.LoadGroupKey(keyFile)
	if err != nil {
		return err
	}

	fp, err := envelope.Open(raw, key)
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "Version:     %s (%s)\n", parts.Version, parts.Version.Suite())
	fmt.Fprintf(stdout, "Nonce:       %x\n", parts.Nonce)
	fmt.Fprintf(stdout, "Fingerprint: %s\n", fp)

	if assetID != "" {
		match := fp == crypto.DeriveFingerprint([]byte(assetID))
		fmt.Fprintf(stdout, "Asset %q:   match=%t\n", assetID, match)
		if !match {
			return fmt.Errorf("fingerprint does not match asset %q", assetID)
		}
	}
	return nil
}
