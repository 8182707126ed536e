package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/backkem/beacon/pkg/advertise"
	"github.com/backkem/beacon/pkg/beacon"
	"github.com/backkem/beacon/pkg/envelope"
	"github.com/backkem/beacon/pkg/provision"
	"github.com/pion/logging"
	"github.com/spf13/viper"
)

// Transport names accepted by --transport.
const (
	transportBlueZ = "bluez"
	transportMDNS  = "mdns"
)

// Options holds the settings of the advertise command.
type Options struct {
	// KeyFile is the base64 group key file.
	KeyFile string

	// AssetFile is the asset identifier file.
	AssetFile string

	// Transport is "bluez" or "mdns".
	Transport string

	// Adapter is the HCI adapter for the bluez transport.
	Adapter string

	// Rotate is the envelope rotation interval; 0 disables rotation.
	Rotate time.Duration

	// Linger is the pause after removing the advertisement.
	Linger time.Duration

	// Version is the envelope layout.
	Version envelope.Version

	// LocalName is an optional advertised name.
	LocalName string

	// LogLevel for the pion logger factory.
	LogLevel logging.LogLevel
}

// DefaultOptions returns Options matching a stock deployment.
func DefaultOptions() Options {
	return Options{
		KeyFile:   provision.DefaultKeyFile,
		AssetFile: provision.DefaultAssetFile,
		Transport: transportBlueZ,
		Adapter:   advertise.DefaultAdapter,
		Linger:    beacon.DefaultLinger,
		Version:   envelope.DefaultVersion,
		LogLevel:  logging.LogLevelInfo,
	}
}

// setDefaults registers DefaultOptions with v.
func setDefaults(v *viper.Viper) {
	d := DefaultOptions()
	v.SetDefault("key-file", d.KeyFile)
	v.SetDefault("asset-file", d.AssetFile)
	v.SetDefault("transport", d.Transport)
	v.SetDefault("adapter", d.Adapter)
	v.SetDefault("rotate", d.Rotate)
	v.SetDefault("linger", d.Linger)
	v.SetDefault("version", "a1")
	v.SetDefault("log-level", "info")
}

// optionsFromViper reads Options from v.
func optionsFromViper(v *viper.Viper) (Options, error) {
	o := Options{
		KeyFile:   v.GetString("key-file"),
		AssetFile: v.GetString("asset-file"),
		Transport: strings.ToLower(v.GetString("transport")),
		Adapter:   v.GetString("adapter"),
		Rotate:    v.GetDuration("rotate"),
		Linger:    v.GetDuration("linger"),
		LocalName: v.GetString("name"),
	}

	ver, err := parseVersion(v.GetString("version"))
	if err != nil {
		return o, err
	}
	o.Version = ver

	level, err := parseLogLevel(v.GetString("log-level"))
	if err != nil {
		return o, err
	}
	o.LogLevel = level

	return o, o.Validate()
}

// Validate checks the options for errors.
func (o Options) Validate() error {
	if o.KeyFile == "" {
		return fmt.Errorf("key file must be set")
	}
	if o.Transport != transportBlueZ && o.Transport != transportMDNS {
		return fmt.Errorf("unknown transport %q (want %s or %s)", o.Transport, transportBlueZ, transportMDNS)
	}
	if o.Transport == transportBlueZ && o.Adapter == "" {
		return fmt.Errorf("adapter must be set for the %s transport", transportBlueZ)
	}
	if o.Rotate < 0 {
		return fmt.Errorf("rotate interval must not be negative, got %s", o.Rotate)
	}
	if o.Rotate > 0 && o.Rotate < time.Second {
		return fmt.Errorf("rotate interval must be at least 1s, got %s", o.Rotate)
	}
	if !o.Version.IsValid() {
		return fmt.Errorf("unsupported envelope version %s", o.Version)
	}
	return nil
}

// parseVersion accepts "a1", "A1", "0xa1" or "161".
func parseVersion(s string) (envelope.Version, error) {
	s = strings.TrimSpace(strings.ToLower(s))

	var (
		v   uint64
		err error
	)
	switch {
	case strings.HasPrefix(s, "0x"):
		v, err = strconv.ParseUint(s[2:], 16, 8)
	case strings.ContainsAny(s, "abcdef"):
		v, err = strconv.ParseUint(s, 16, 8)
	default:
		v, err = strconv.ParseUint(s, 10, 8)
	}
	if err != nil {
		return 0, fmt.Errorf("invalid envelope version %q", s)
	}

	ver := envelope.Version(v)
	if !ver.IsValid() {
		return 0, fmt.Errorf("unsupported envelope version %s", ver)
	}
	return ver, nil
}

// parseLogLevel maps a level name onto a pion log level.
func parseLogLevel(s string) (logging.LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "disabled", "off", "none":
		return logging.LogLevelDisabled, nil
	case "error":
		return logging.LogLevelError, nil
	case "warn", "warning":
		return logging.LogLevelWarn, nil
	case "info", "":
		return logging.LogLevelInfo, nil
	case "debug":
		return logging.LogLevelDebug, nil
	case "trace":
		return logging.LogLevelTrace, nil
	default:
		return logging.LogLevelDisabled, fmt.Errorf("unknown log level %q", s)
	}
}
