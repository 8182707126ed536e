// beacon broadcasts an encrypted asset beacon.
//
// The asset identifier is fingerprinted and sealed under a pre-shared group
// key; only listeners holding the key can tell which asset is nearby.
//
// Usage:
//
//	beacon advertise [options]     advertise until Enter or Ctrl-C
//	beacon keygen [--out FILE]     generate a group key
//	beacon inspect ENVELOPE_HEX    open an envelope with the group key
//
// Example:
//
//	beacon keygen --out group-key
//	echo tag-42 > asset-tag
//	beacon advertise --rotate 15m
//
// Every flag can also be set through a BEACON_* environment variable
// (BEACON_KEY_FILE, BEACON_TRANSPORT, ...) or a --config file.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/backkem/beacon/pkg/envelope"
	"github.com/backkem/beacon/pkg/provision"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if hint := errorHint(err); hint != "" {
			fmt.Fprintf(os.Stderr, "Hint: %s\n", hint)
		}
		os.Exit(1)
	}
}

// errorHint returns operator guidance for configuration failures.
func errorHint(err error) string {
	var pe *provision.Error
	switch {
	case errors.As(err, &pe):
		return "check the group key and asset files; `beacon keygen` creates a key"
	case envelope.IsConfig(err):
		return "check the envelope version and key configuration"
	default:
		return ""
	}
}
