package beacon

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/backkem/beacon/pkg/advertise"
	"github.com/backkem/beacon/pkg/envelope"
	"github.com/pion/logging"
)

// DefaultLinger is how long Run waits after removing the advertisement so the
// radio stack can finish tearing it down.
const DefaultLinger = time.Second

// Errors for broadcaster configuration.
var (
	ErrNoBuilder    = errors.New("beacon: builder is required")
	ErrNoAdvertiser = errors.New("beacon: advertiser is required")
	ErrBadInterval  = errors.New("beacon: rotate interval must not be negative")
)

// EnvelopeSource produces fresh envelopes. *Builder implements it.
type EnvelopeSource interface {
	Build() (envelope.Envelope, error)
}

// Publisher makes envelopes discoverable. *advertise.Advertiser implements it.
type Publisher interface {
	Start(ad advertise.Advertisement) error
	Update(ad advertise.Advertisement) error
	Stop() error
}

// BroadcasterConfig holds configuration for a Broadcaster.
type BroadcasterConfig struct {
	// Builder produces envelopes. Required.
	Builder EnvelopeSource

	// Advertiser publishes them. Required.
	Advertiser Publisher

	// RotateInterval is how often a fresh envelope replaces the live one.
	// Zero advertises a single envelope until Run returns.
	RotateInterval time.Duration

	// Linger is the pause after removal (default: DefaultLinger).
	// Negative disables it.
	Linger time.Duration

	// LocalName is passed through to the advertisement.
	LocalName string

	// OnRotate is called with every envelope after it is published.
	OnRotate func(env envelope.Envelope)

	// LoggerFactory for creating loggers.
	LoggerFactory logging.LoggerFactory
}

// Validate checks the configuration for errors.
func (c *BroadcasterConfig) Validate() error {
	if c.Builder == nil {
		return ErrNoBuilder
	}
	if c.Advertiser == nil {
		return ErrNoAdvertiser
	}
	if c.RotateInterval < 0 {
		return ErrBadInterval
	}
	return nil
}

// applyDefaults fills in default values for unset fields.
func (c *BroadcasterConfig) applyDefaults() {
	if c.Linger == 0 {
		c.Linger = DefaultLinger
	}
}

// Broadcaster keeps a beacon advertised, rotating to a fresh envelope on an
// interval.
type Broadcaster struct {
	config BroadcasterConfig
	log    logging.LeveledLogger
}

// NewBroadcaster creates a Broadcaster with the given configuration.
func NewBroadcaster(config BroadcasterConfig) (*Broadcaster, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	config.applyDefaults()

	b := &Broadcaster{config: config}
	if config.LoggerFactory != nil {
		b.log = config.LoggerFactory.NewLogger("broadcast")
	}
	return b, nil
}

// Run advertises until ctx is cancelled, then removes the advertisement.
//
// Envelope or transport failures end Run with an error; the advertisement, if
// any, is removed first. Run returns nil after a clean cancellation.
func (b *Broadcaster) Run(ctx context.Context) error {
	env, err := b.config.Builder.Build()
	if err != nil {
		return fmt.Errorf("beacon: build envelope: %w", err)
	}

	if err := b.config.Advertiser.Start(b.advertisement(env)); err != nil {
		return fmt.Errorf("beacon: start advertising: %w", err)
	}
	b.published(env)

	var tick <-chan time.Time
	if b.config.RotateInterval > 0 {
		ticker := time.NewTicker(b.config.RotateInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	var runErr error
loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case <-tick:
			env, err := b.config.Builder.Build()
			if err != nil {
				runErr = fmt.Errorf("beacon: build envelope: %w", err)
				break loop
			}
			if err := b.config.Advertiser.Update(b.advertisement(env)); err != nil {
				runErr = fmt.Errorf("beacon: rotate advertisement: %w", err)
				break loop
			}
			b.published(env)
		}
	}

	if err := b.config.Advertiser.Stop(); err != nil && !errors.Is(err, advertise.ErrNotStarted) {
		if runErr == nil {
			runErr = fmt.Errorf("beacon: stop advertising: %w", err)
		} else if b.log != nil {
			b.log.Warnf("Failed to remove advertisement: %v", err)
		}
	}

	if b.config.Linger > 0 {
		time.Sleep(b.config.Linger)
	}

	return runErr
}

func (b *Broadcaster) advertisement(env envelope.Envelope) advertise.Advertisement {
	return advertise.Advertisement{
		ServiceUUID:  envelope.ServiceUUID,
		ServiceData:  env,
		LocalName:    b.config.LocalName,
		Discoverable: true,
	}
}

func (b *Broadcaster) published(env envelope.Envelope) {
	if b.log != nil {
		b.log.Debugf("Published envelope version=%s", env.Version())
	}
	if b.config.OnRotate != nil {
		b.config.OnRotate(env)
	}
}
