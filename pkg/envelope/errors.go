package envelope

import (
	"errors"
	"fmt"
)

// Package-level sentinel errors for envelope operations.
var (
	// ErrUnknownVersion is returned for a version tag with no registered layout.
	ErrUnknownVersion = errors.New("envelope: unknown version")

	// ErrTooShort is returned when an envelope is shorter than its header.
	ErrTooShort = errors.New("envelope: too short")

	// ErrBadLength is returned when an envelope does not have the fixed 61-byte length.
	ErrBadLength = errors.New("envelope: bad length")

	// ErrAuthFailed is returned when an envelope fails authentication.
	ErrAuthFailed = errors.New("envelope: authentication failed")
)

// Kind classifies envelope failures.
type Kind int

// Kind constants.
const (
	// KindConfig is an operator-fixable setup problem (wrong key length,
	// unsupported version). Retrying with the same inputs will fail again.
	KindConfig Kind = iota + 1

	// KindCrypto is a failure of the cryptographic primitive or random
	// source. A new attempt must draw a new nonce.
	KindCrypto
)

// String returns a human-readable string for the kind.
func (k Kind) String() string {
	switch k {
	case KindConfig:
		return "configuration"
	case KindCrypto:
		return "cryptographic"
	default:
		return "unknown"
	}
}

// Error is the typed failure returned by envelope operations.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("envelope: %s: %s error: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func configError(op string, err error) error {
	return &Error{Kind: KindConfig, Op: op, Err: err}
}

func cryptoError(op string, err error) error {
	return &Error{Kind: KindCrypto, Op: op, Err: err}
}

// IsConfig reports whether err is a configuration failure.
func IsConfig(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == KindConfig
}

// IsCrypto reports whether err is a cryptographic failure.
func IsCrypto(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == KindCrypto
}
