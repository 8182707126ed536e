package advertise

import "errors"

// Package-level sentinel errors for advertising operations.
var (
	// ErrClosed is returned when an operation is attempted on a closed component.
	ErrClosed = errors.New("advertise: closed")

	// ErrAlreadyStarted is returned when starting an advertiser that is already advertising.
	ErrAlreadyStarted = errors.New("advertise: already started")

	// ErrNotStarted is returned when updating or stopping an idle advertiser.
	ErrNotStarted = errors.New("advertise: not started")

	// ErrEmptyServiceData is returned for an advertisement without payload.
	ErrEmptyServiceData = errors.New("advertise: empty service data")

	// ErrInvalidServiceUUID is returned for a nil service UUID.
	ErrInvalidServiceUUID = errors.New("advertise: invalid service UUID")

	// ErrNoTransport is returned when an Advertiser is configured without a transport.
	ErrNoTransport = errors.New("advertise: no transport configured")

	// ErrAdapterNotFound is returned when the requested Bluetooth adapter does not exist.
	ErrAdapterNotFound = errors.New("advertise: bluetooth adapter not found")
)
