// Package advertise publishes beacon payloads through a radio or network
// advertisement stack.
//
// This package provides:
//   - Advertiser, a transport-independent start/update/stop lifecycle
//   - BlueZTransport, BLE advertisements through BlueZ over D-Bus
//   - ZeroconfTransport, DNS-SD (mDNS) records for hosts without a radio
package advertise

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pion/logging"
)

// Advertisement is the data a transport makes discoverable.
type Advertisement struct {
	// ServiceUUID keys the service data.
	ServiceUUID uuid.UUID

	// ServiceData is the opaque payload, here a beacon envelope.
	ServiceData []byte

	// LocalName is an optional human-readable name.
	LocalName string

	// Discoverable requests general discoverable mode where supported.
	Discoverable bool
}

// Validate checks the advertisement for errors.
func (a Advertisement) Validate() error {
	if a.ServiceUUID == uuid.Nil {
		return ErrInvalidServiceUUID
	}
	if len(a.ServiceData) == 0 {
		return ErrEmptyServiceData
	}
	return nil
}

// Clone returns a copy that does not alias a's service data.
func (a Advertisement) Clone() Advertisement {
	a.ServiceData = append([]byte(nil), a.ServiceData...)
	return a
}

// Registration is a live advertisement.
type Registration interface {
	// Shutdown removes the advertisement.
	Shutdown() error
}

// Transport registers advertisements with an underlying stack.
// This allows for dependency injection in tests.
type Transport interface {
	// Register makes ad discoverable until the returned Registration is shut down.
	Register(ad Advertisement) (Registration, error)
}

// activeAdvertisement tracks the current registration.
type activeAdvertisement struct {
	reg     Registration
	ad      Advertisement
	started time.Time
}

// AdvertiserConfig holds configuration for the Advertiser.
type AdvertiserConfig struct {
	// Transport registers advertisements. Required.
	Transport Transport

	// LoggerFactory for creating loggers.
	LoggerFactory logging.LoggerFactory
}

// Advertiser owns at most one live advertisement and replaces it on update.
type Advertiser struct {
	transport Transport
	log       logging.LeveledLogger
	mu        sync.Mutex
	active    *activeAdvertisement
	closed    bool
}

// NewAdvertiser creates a new Advertiser with the given configuration.
func NewAdvertiser(config AdvertiserConfig) (*Advertiser, error) {
	if config.Transport == nil {
		return nil, ErrNoTransport
	}

	a := &Advertiser{
		transport: config.Transport,
	}

	if config.LoggerFactory != nil {
		a.log = config.LoggerFactory.NewLogger("advertise")
	}

	return a, nil
}

// Start begins advertising ad.
func (a *Advertiser) Start(ad Advertisement) error {
	if err := ad.Validate(); err != nil {
		return err
	}
	ad = ad.Clone()

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return ErrClosed
	}

	if a.active != nil {
		return ErrAlreadyStarted
	}

	reg, err := a.transport.Register(ad)
	if err != nil {
		return fmt.Errorf("advertise: registration failed for %s: %w", ad.ServiceUUID, err)
	}

	if a.log != nil {
		a.log.Infof("Advertising service %s (%d bytes)", ad.ServiceUUID, len(ad.ServiceData))
		a.log.Tracef("Service data: %x", ad.ServiceData)
	}

	a.active = &activeAdvertisement{reg: reg, ad: ad, started: time.Now()}
	return nil
}

// Update replaces the live advertisement with ad.
//
// The new advertisement is registered before the old one is removed, so the
// beacon is never absent. If registration fails the old advertisement stays live.
func (a *Advertiser) Update(ad Advertisement) error {
	if err := ad.Validate(); err != nil {
		return err
	}
	ad = ad.Clone()

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return ErrClosed
	}

	if a.active == nil {
		return ErrNotStarted
	}

	reg, err := a.transport.Register(ad)
	if err != nil {
		return fmt.Errorf("advertise: re-registration failed for %s: %w", ad.ServiceUUID, err)
	}

	old := a.active
	a.active = &activeAdvertisement{reg: reg, ad: ad, started: time.Now()}

	if a.log != nil {
		a.log.Debugf("Rotated advertisement for %s after %s", ad.ServiceUUID, time.Since(old.started).Round(time.Millisecond))
		a.log.Tracef("Service data: %x", ad.ServiceData)
	}

	if err := old.reg.Shutdown(); err != nil {
		if a.log != nil {
			a.log.Warnf("Failed to remove previous advertisement: %v", err)
		}
	}

	return nil
}

// Stop removes the live advertisement.
func (a *Advertiser) Stop() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return ErrClosed
	}

	return a.stopLocked()
}

func (a *Advertiser) stopLocked() error {
	if a.active == nil {
		return ErrNotStarted
	}

	active := a.active
	a.active = nil

	if a.log != nil {
		a.log.Infof("Removing advertisement for %s", active.ad.ServiceUUID)
	}

	if err := active.reg.Shutdown(); err != nil {
		return fmt.Errorf("advertise: shutdown failed: %w", err)
	}
	return nil
}

// Close removes any live advertisement and closes the advertiser.
func (a *Advertiser) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return ErrClosed
	}
	a.closed = true

	if a.active == nil {
		return nil
	}
	return a.stopLocked()
}

// IsAdvertising returns true if an advertisement is live.
func (a *Advertiser) IsAdvertising() bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.active != nil
}

// Current returns a copy of the live advertisement.
func (a *Advertiser) Current() (Advertisement, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.active == nil {
		return Advertisement{}, false
	}
	return a.active.ad.Clone(), true
}
