// Nonce drawing for envelope sealing.

package crypto

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
)

// NonceSize is the AEAD nonce length in bytes for every beacon suite.
const NonceSize = 12

// Errors for nonce operations.
var (
	ErrNilRandom   = errors.New("nonce: nil random source")
	ErrShortRandom = errors.New("nonce: random source returned too few bytes")
)

// DefaultRandom is the random source used when callers pass nil where allowed.
// It must stay a cryptographically secure generator.
var DefaultRandom io.Reader = rand.Reader

// NewNonce draws NonceSize fresh bytes from rng.
//
// A nonce must never repeat under the same key, so rng must be a CSPRNG.
// A short or failed read is reported rather than returning a partially filled nonce.
func NewNonce(rng io.Reader) ([NonceSize]byte, error) {
	var nonce [NonceSize]byte
	if rng == nil {
		return nonce, ErrNilRandom
	}

	if _, err := io.ReadFull(rng, nonce[:]); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
			return [NonceSize]byte{}, ErrShortRandom
		}
		return [NonceSize]byte{}, fmt.Errorf("nonce: read random: %w", err)
	}

	return nonce, nil
}
