// Package crypto provides the cryptographic primitives behind the group beacon:
// asset fingerprinting, group key handling, nonce drawing and the AEAD suites
// used to seal fingerprints.
package crypto

import (
	"encoding/hex"

	"lukechampine.com/blake3"
)

// FingerprintSize is the fingerprint length in bytes (BLAKE3-256 output).
const FingerprintSize = 32

// Fingerprint is a fixed-size digest standing in for an asset identifier.
type Fingerprint [FingerprintSize]byte

// DeriveFingerprint reduces an asset identifier to a 32-byte BLAKE3 digest.
//
// The function is total: any byte sequence, including an empty one, is accepted.
// Callers are expected to have trimmed surrounding whitespace already.
func DeriveFingerprint(identifier []byte) Fingerprint {
	return Fingerprint(blake3.Sum256(identifier))
}

// Bytes returns the fingerprint as a slice.
func (f Fingerprint) Bytes() []byte {
	return f[:]
}

// String returns the hex encoding of the fingerprint.
func (f Fingerprint) String() string {
	return hex.EncodeToString(f[:])
}

// Short returns the first 8 hex characters, suitable for logs.
func (f Fingerprint) Short() string {
	return hex.EncodeToString(f[:4])
}
