package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/backkem/beacon/pkg/advertise"
	"github.com/backkem/beacon/pkg/beacon"
	"github.com/backkem/beacon/pkg/envelope"
	"github.com/backkem/beacon/pkg/provision"
	"github.com/pion/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newAdvertiseCommand(v *viper.Viper) *cobra.Command {
	d := DefaultOptions()

	cmd := &cobra.Command{
		Use:   "advertise",
		Short: "Advertise the asset beacon until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts, err := optionsFromViper(v)
			if err != nil {
				return err
			}
			return runAdvertise(cmd.Context(), opts, cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	f := cmd.Flags()
	f.String("key-file", d.KeyFile, "Base64 group key file")
	f.String("asset-file", d.AssetFile, "Asset identifier file")
	f.String("transport", d.Transport, "Advertising transport: bluez or mdns")
	f.String("adapter", d.Adapter, "Bluetooth adapter (bluez transport)")
	f.Duration("rotate", d.Rotate, "Envelope rotation interval (0 disables)")
	f.Duration("linger", d.Linger, "Pause after removing the advertisement")
	f.String("version", "a1", "Envelope version: a1 (AES-256-GCM) or a2 (ChaCha20-Poly1305, bound)")
	f.String("name", "", "Advertised local name")

	return cmd
}

// runAdvertise wires provisioning, transport and broadcaster for one session.
func runAdvertise(ctx context.Context, opts Options, stdin io.Reader, stdout, stderr io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	lf := newLoggerFactory(opts.LogLevel, stderr)
	log := lf.NewLogger("beacon")

	key, err := provision.LoadGroupKey(opts.KeyFile)
	if err != nil {
		return err
	}
	assetID, err := provision.LoadAssetID(opts.AssetFile)
	if err != nil {
		return err
	}

	builder, err := beacon.NewBuilder(beacon.BuilderConfig{
		Key:           key,
		AssetID:       assetID,
		Version:       opts.Version,
		LoggerFactory: lf,
	})
	if err != nil {
		return err
	}

	transport, closeTransport, err := newTransport(opts, lf, stdout)
	if err != nil {
		return err
	}
	defer closeTransport()

	adv, err := advertise.NewAdvertiser(advertise.AdvertiserConfig{
		Transport:     transport,
		LoggerFactory: lf,
	})
	if err != nil {
		return err
	}
	defer adv.Close()

	bc, err := beacon.NewBroadcaster(beacon.BroadcasterConfig{
		Builder:        builder,
		Advertiser:     adv,
		RotateInterval: opts.Rotate,
		Linger:         lingerOrDisabled(opts.Linger),
		LocalName:      opts.LocalName,
		OnRotate: func(env envelope.Envelope) {
			fmt.Fprintf(stdout, "Envelope %s\n", env)
		},
		LoggerFactory: lf,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go waitForEnter(stdin, cancel)

	log.Infof("Advertising fingerprint %s (version %s, transport %s)", builder.Fingerprint().Short(), builder.Version(), opts.Transport)
	fmt.Fprintln(stdout, "Press enter to quit")

	if err := bc.Run(ctx); err != nil {
		return err
	}
	log.Info("Advertisement removed")
	return nil
}

// newTransport opens the transport selected in opts.
func newTransport(opts Options, lf logging.LoggerFactory, stdout io.Writer) (advertise.Transport, func(), error) {
	switch opts.Transport {
	case transportMDNS:
		t := advertise.NewZeroconfTransport(advertise.ZeroconfConfig{LoggerFactory: lf})
		return t, func() {}, nil
	default:
		t, err := advertise.NewBlueZTransport(advertise.BlueZConfig{
			Adapter:       opts.Adapter,
			LoggerFactory: lf,
		})
		if err != nil {
			return nil, nil, err
		}
		info, err := t.AdapterInfo()
		if err != nil {
			t.Close()
			return nil, nil, err
		}
		fmt.Fprintf(stdout, "Adapter %s (%s)\n", info.Name, info.Address)
		return t, func() { t.Close() }, nil
	}
}

// lingerOrDisabled maps an explicit zero linger onto the broadcaster's
// disabled value; the broadcaster reads zero as DefaultLinger.
func lingerOrDisabled(d time.Duration) time.Duration {
	if d == 0 {
		return -1
	}
	return d
}

// waitForEnter cancels once a line is read. EOF leaves the session running so
// the command can be supervised with stdin closed.
func waitForEnter(r io.Reader, cancel context.CancelFunc) {
	if r == nil {
		return
	}
	if _, err := bufio.NewReader(r).ReadString('\n'); err == nil {
		cancel()
	}
}
