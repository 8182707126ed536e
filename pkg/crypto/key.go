// Group key handling.

package crypto

import (
	"errors"
	"fmt"
	"io"
)

// GroupKeySize is the size of a group key in bytes (256 bits).
const GroupKeySize = 32

// ErrInvalidKeySize is returned when key material is not exactly 32 bytes.
var ErrInvalidKeySize = errors.New("group: invalid key size, must be 32 bytes")

// GroupKey is a pre-shared 256-bit symmetric secret.
//
// The formatting methods redact the key so it cannot leak through logs or
// error messages by accident.
type GroupKey [GroupKeySize]byte

// NewGroupKey copies b into a GroupKey. b must be exactly 32 bytes.
func NewGroupKey(b []byte) (GroupKey, error) {
	var k GroupKey
	if len(b) != GroupKeySize {
		return k, fmt.Errorf("%w (got %d)", ErrInvalidKeySize, len(b))
	}
	copy(k[:], b)
	return k, nil
}

// GenerateGroupKey draws a new random group key from rng.
func GenerateGroupKey(rng io.Reader) (GroupKey, error) {
	var k GroupKey
	if rng == nil {
		return k, ErrNilRandom
	}
	if _, err := io.ReadFull(rng, k[:]); err != nil {
		return GroupKey{}, fmt.Errorf("group: read random: %w", err)
	}
	return k, nil
}

// String implements fmt.Stringer without revealing key material.
func (k GroupKey) String() string {
	return "GroupKey(REDACTED)"
}

// GoString implements fmt.GoStringer without revealing key material.
func (k GroupKey) GoString() string {
	return k.String()
}

// Format implements fmt.Formatter so that %x, %v and friends all redact.
func (k GroupKey) Format(f fmt.State, _ rune) {
	_, _ = io.WriteString(f, k.String())
}

// IsZero reports whether the key is all zero bytes.
func (k GroupKey) IsZero() bool {
	var acc byte
	for _, b := range k {
		acc |= b
	}
	return acc == 0
}
