// AEAD suites for sealing beacon fingerprints.
// Every suite uses a 256-bit key, a 12-byte nonce and a 128-bit tag, so all
// envelopes have the same length regardless of suite.

package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

// TagSize is the authentication tag length in bytes.
const TagSize = 16

// Suite identifies an AEAD construction.
type Suite int

// Suite constants.
const (
	// SuiteUnknown is the zero value and never valid.
	SuiteUnknown Suite = iota

	// SuiteAES256GCM is AES-256 in Galois/Counter Mode.
	SuiteAES256GCM

	// SuiteChaCha20Poly1305 is ChaCha20-Poly1305 (RFC 8439).
	SuiteChaCha20Poly1305
)

// Errors for AEAD operations.
var (
	ErrUnknownSuite       = errors.New("aead: unknown suite")
	ErrInvalidNonceSize   = errors.New("aead: invalid nonce size, must be 12 bytes")
	ErrCiphertextTooShort = errors.New("aead: ciphertext too short")
	ErrAuthFailed         = errors.New("aead: message authentication failed")
)

// String returns a human-readable name for the suite.
func (s Suite) String() string {
	switch s {
	case SuiteAES256GCM:
		return "AES-256-GCM"
	case SuiteChaCha20Poly1305:
		return "ChaCha20-Poly1305"
	default:
		return "Unknown"
	}
}

// IsValid returns true if the suite is a known construction.
func (s Suite) IsValid() bool {
	return s == SuiteAES256GCM || s == SuiteChaCha20Poly1305
}

// NewAEAD returns a cipher.AEAD for the suite keyed with key.
func NewAEAD(s Suite, key GroupKey) (cipher.AEAD, error) {
	var (
		aead cipher.AEAD
		err  error
	)

	switch s {
	case SuiteAES256GCM:
		var block cipher.Block
		block, err = aes.NewCipher(key[:])
		if err != nil {
			return nil, fmt.Errorf("aead: %s: %w", s, err)
		}
		aead, err = cipher.NewGCM(block)
	case SuiteChaCha20Poly1305:
		aead, err = chacha20poly1305.New(key[:])
	default:
		return nil, ErrUnknownSuite
	}
	if err != nil {
		return nil, fmt.Errorf("aead: %s: %w", s, err)
	}

	if aead.NonceSize() != NonceSize || aead.Overhead() != TagSize {
		return nil, fmt.Errorf("aead: %s: unexpected nonce/tag size %d/%d", s, aead.NonceSize(), aead.Overhead())
	}

	return aead, nil
}

// Seal encrypts and authenticates plaintext.
// Returns ciphertext || tag (len(plaintext) + TagSize bytes).
func Seal(s Suite, key GroupKey, nonce, plaintext, aad []byte) ([]byte, error) {
	if len(nonce) != NonceSize {
		return nil, ErrInvalidNonceSize
	}

	aead, err := NewAEAD(s, key)
	if err != nil {
		return nil, err
	}

	return aead.Seal(nil, nonce, plaintext, aad), nil
}

// Open decrypts and verifies ciphertext || tag.
func Open(s Suite, key GroupKey, nonce, ciphertext, aad []byte) ([]byte, error) {
	if len(nonce) != NonceSize {
		return nil, ErrInvalidNonceSize
	}
	if len(ciphertext) < TagSize {
		return nil, ErrCiphertextTooShort
	}

	aead, err := NewAEAD(s, key)
	if err != nil {
		return nil, err
	}

	plaintext, err := aead.Open(nil, nonce, ciphertext, aad)
	if err != nil {
		return nil, ErrAuthFailed
	}
	return plaintext, nil
}
