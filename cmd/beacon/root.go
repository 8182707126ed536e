package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/pion/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// envPrefix namespaces environment overrides, e.g. BEACON_KEY_FILE.
const envPrefix = "BEACON"

// newRootCommand builds the command tree around a single viper instance.
func newRootCommand() *cobra.Command {
	v := viper.New()
	setDefaults(v)

	root := &cobra.Command{
		Use:           "beacon",
		Short:         "Encrypted asset beacon",
		Long:          "Broadcast an asset fingerprint sealed under a pre-shared group key.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return initViper(v, cmd)
		},
	}

	root.PersistentFlags().String("config", "", "Config file (yaml, toml or json)")
	root.PersistentFlags().String("log-level", "info", "Log level: disabled, error, warn, info, debug, trace")

	root.AddCommand(
		newAdvertiseCommand(v),
		newKeygenCommand(v),
		newInspectCommand(v),
	)
	return root
}

// initViper layers flags, BEACON_* environment and the optional config file.
func initViper(v *viper.Viper, cmd *cobra.Command) error {
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("bind flags: %w", err)
	}

	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}
	return nil
}

// newLoggerFactory returns a pion logger factory writing to w.
func newLoggerFactory(level logging.LogLevel, w io.Writer) logging.LoggerFactory {
	f := logging.NewDefaultLoggerFactory()
	f.DefaultLogLevel = level
	f.Writer = w
	return f
}
