// Package envelope frames sealed asset fingerprints into fixed-size beacon payloads.
//
// Wire layout:
//
//	[version:1][nonce:12][ciphertext_with_tag:48]
//
// for a total of 61 bytes. The version tag selects the AEAD suite and whether
// associated data is bound:
//
//	0xA1  AES-256-GCM, no associated data
//	0xA2  ChaCha20-Poly1305, associated data = version || service UUID
package envelope

import (
	"encoding/hex"
	"fmt"
	"io"

	"github.com/backkem/beacon/pkg/crypto"
	"github.com/google/uuid"
)

// Envelope layout sizes.
const (
	// VersionSize is the size of the version tag.
	VersionSize = 1

	// HeaderSize is the version tag plus the nonce.
	HeaderSize = VersionSize + crypto.NonceSize

	// CiphertextSize is the sealed fingerprint including the tag.
	CiphertextSize = crypto.FingerprintSize + crypto.TagSize

	// Size is the total envelope length.
	Size = HeaderSize + CiphertextSize
)

// ServiceUUID is the well-known 128-bit service identifier under which
// envelopes are advertised.
var ServiceUUID = uuid.MustParse("c193b907-6f78-4769-aafa-83e807c9c0a6")

// Version identifies an envelope layout.
type Version byte

// Version constants.
const (
	// VersionAESGCM is AES-256-GCM without associated data.
	VersionAESGCM Version = 0xA1

	// VersionChaChaBound is ChaCha20-Poly1305 binding the version and service
	// UUID as associated data.
	VersionChaChaBound Version = 0xA2

	// DefaultVersion is used by Encode.
	DefaultVersion = VersionAESGCM
)

// Suite returns the AEAD suite for the version.
func (v Version) Suite() crypto.Suite {
	switch v {
	case VersionAESGCM:
		return crypto.SuiteAES256GCM
	case VersionChaChaBound:
		return crypto.SuiteChaCha20Poly1305
	default:
		return crypto.SuiteUnknown
	}
}

// IsValid returns true if the version has a registered layout.
func (v Version) IsValid() bool {
	return v.Suite().IsValid()
}

// String returns the version as 0xNN.
func (v Version) String() string {
	return fmt.Sprintf("0x%02X", byte(v))
}

// AssociatedData returns the data bound into the AEAD for this version.
// Returns nil for versions that bind nothing.
func (v Version) AssociatedData() []byte {
	if v != VersionChaChaBound {
		return nil
	}
	ad := make([]byte, 0, VersionSize+len(ServiceUUID))
	ad = append(ad, byte(v))
	ad = append(ad, ServiceUUID[:]...)
	return ad
}

// Envelope is a framed, sealed fingerprint ready for transport.
type Envelope []byte

// Version returns the version tag, or 0 for an empty envelope.
func (e Envelope) Version() Version {
	if len(e) == 0 {
		return 0
	}
	return Version(e[0])
}

// String returns the hex encoding of the envelope.
func (e Envelope) String() string {
	return hex.EncodeToString(e)
}

// Encode seals fp under key with a fresh nonce from rng using DefaultVersion.
func Encode(fp crypto.Fingerprint, key crypto.GroupKey, rng io.Reader) (Envelope, error) {
	return EncodeVersion(DefaultVersion, fp, key, rng)
}

// EncodeVersion seals fp under key with a fresh nonce from rng using version v.
//
// Every call draws a new nonce. On error no envelope is returned.
func EncodeVersion(v Version, fp crypto.Fingerprint, key crypto.GroupKey, rng io.Reader) (Envelope, error) {
	if !v.IsValid() {
		return nil, configError("encode", fmt.Errorf("%w: %s", ErrUnknownVersion, v))
	}

	nonce, err := crypto.NewNonce(rng)
	if err != nil {
		return nil, cryptoError("encode", err)
	}

	return Seal(v, fp, key, nonce)
}

// Seal frames fp sealed under key with the given nonce.
//
// Seal is deterministic; callers other than EncodeVersion must guarantee the
// nonce is never reused under the same key.
func Seal(v Version, fp crypto.Fingerprint, key crypto.GroupKey, nonce [crypto.NonceSize]byte) (Envelope, error) {
	suite := v.Suite()
	if !suite.IsValid() {
		return nil, configError("seal", fmt.Errorf("%w: %s", ErrUnknownVersion, v))
	}

	ct, err := crypto.Seal(suite, key, nonce[:], fp[:], v.AssociatedData())
	if err != nil {
		return nil, cryptoError("seal", err)
	}
	if len(ct) != CiphertextSize {
		return nil, cryptoError("seal", fmt.Errorf("ciphertext length %d, want %d", len(ct), CiphertextSize))
	}

	out := make(Envelope, 0, Size)
	out = append(out, byte(v))
	out = append(out, nonce[:]...)
	out = append(out, ct...)
	return out, nil
}
