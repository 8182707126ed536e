// Package beacon builds encrypted beacon envelopes for an asset and keeps
// them advertised.
//
// # Building envelopes
//
//	b, err := beacon.NewBuilder(beacon.BuilderConfig{
//	    Key:     key,
//	    AssetID: "tag-42",
//	})
//	env, err := b.Build() // fresh nonce every call
//
// # Broadcasting
//
//	bc, err := beacon.NewBroadcaster(beacon.BroadcasterConfig{
//	    Builder:        b,
//	    Advertiser:     adv,
//	    RotateInterval: 15 * time.Minute,
//	})
//	err = bc.Run(ctx) // returns after ctx is cancelled
package beacon

import (
	"errors"
	"io"

	"github.com/backkem/beacon/pkg/crypto"
	"github.com/backkem/beacon/pkg/envelope"
	"github.com/pion/logging"
)

// Errors for builder configuration.
var (
	// ErrZeroKey is returned when the group key is all zero bytes.
	ErrZeroKey = errors.New("beacon: group key is all zero")

	// ErrEmptyAssetID is returned when no asset identifier is configured.
	ErrEmptyAssetID = errors.New("beacon: asset identifier is empty")
)

// BuilderConfig holds the inputs of a Builder.
type BuilderConfig struct {
	// Key is the pre-shared group key. Required.
	Key crypto.GroupKey

	// AssetID is the trimmed asset identifier. Required.
	AssetID string

	// Version selects the envelope layout (default: envelope.DefaultVersion).
	Version envelope.Version

	// Random is the nonce source (default: crypto/rand). It must be a CSPRNG.
	Random io.Reader

	// AllowZeroKey permits an all-zero key. Only test fixtures should set it.
	AllowZeroKey bool

	// LoggerFactory for creating loggers.
	LoggerFactory logging.LoggerFactory
}

// Validate checks the configuration for errors.
func (c *BuilderConfig) Validate() error {
	if c.AssetID == "" {
		return ErrEmptyAssetID
	}
	if c.Key.IsZero() && !c.AllowZeroKey {
		return ErrZeroKey
	}
	if c.Version != 0 && !c.Version.IsValid() {
		return envelope.ErrUnknownVersion
	}
	return nil
}

// applyDefaults fills in default values for unset fields.
func (c *BuilderConfig) applyDefaults() {
	if c.Version == 0 {
		c.Version = envelope.DefaultVersion
	}
	if c.Random == nil {
		c.Random = crypto.DefaultRandom
	}
}

// Builder produces fresh envelopes for one asset under one group key.
//
// All state is fixed at construction, so a Builder is safe for concurrent use
// as long as its random source is.
type Builder struct {
	key         crypto.GroupKey
	fingerprint crypto.Fingerprint
	version     envelope.Version
	random      io.Reader
	log         logging.LeveledLogger
}

// NewBuilder validates config and derives the asset fingerprint.
func NewBuilder(config BuilderConfig) (*Builder, error) {
	if err := config.Validate(); err != nil {
		return nil, &envelope.Error{Kind: envelope.KindConfig, Op: "new builder", Err: err}
	}
	config.applyDefaults()

	b := &Builder{
		key:         config.Key,
		fingerprint: crypto.DeriveFingerprint([]byte(config.AssetID)),
		version:     config.Version,
		random:      config.Random,
	}

	if config.LoggerFactory != nil {
		b.log = config.LoggerFactory.NewLogger("beacon")
		b.log.Debugf("Builder ready: fingerprint=%s… version=%s suite=%s",
			b.fingerprint.Short(), b.version, b.version.Suite())
	}

	return b, nil
}

// Build seals the fingerprint into a new envelope with a fresh nonce.
//
// A failed Build leaves no state behind; calling it again draws a new nonce.
func (b *Builder) Build() (envelope.Envelope, error) {
	env, err := envelope.EncodeVersion(b.version, b.fingerprint, b.key, b.random)
	if err != nil {
		if b.log != nil {
			b.log.Errorf("Envelope construction failed: %v", err)
		}
		return nil, err
	}
	return env, nil
}

// Fingerprint returns the asset fingerprint.
func (b *Builder) Fingerprint() crypto.Fingerprint {
	return b.fingerprint
}

// Version returns the envelope version the builder produces.
func (b *Builder) Version() envelope.Version {
	return b.version
}
