package envelope

import (
	"fmt"

	"github.com/backkem/beacon/pkg/crypto"
)

// Parts is an envelope split into its fields. The slices alias the envelope.
type Parts struct {
	Version    Version
	Nonce      []byte
	Ciphertext []byte
}

// Parse splits env into its fields without decrypting.
func Parse(env []byte) (*Parts, error) {
	if len(env) < HeaderSize {
		return nil, configError("parse", fmt.Errorf("%w: %d bytes", ErrTooShort, len(env)))
	}

	v := Version(env[0])
	if !v.IsValid() {
		return nil, configError("parse", fmt.Errorf("%w: %s", ErrUnknownVersion, v))
	}

	if len(env) != Size {
		return nil, configError("parse", fmt.Errorf("%w: %d bytes, want %d", ErrBadLength, len(env), Size))
	}

	return &Parts{
		Version:    v,
		Nonce:      env[VersionSize:HeaderSize],
		Ciphertext: env[HeaderSize:],
	}, nil
}

// Open verifies env under key and returns the sealed fingerprint.
//
// This is the listener-side counterpart of Encode, used for verification
// and inspection.
func Open(env []byte, key crypto.GroupKey) (crypto.Fingerprint, error) {
	var fp crypto.Fingerprint

	parts, err := Parse(env)
	if err != nil {
		return fp, err
	}

	pt, err := crypto.Open(parts.Version.Suite(), key, parts.Nonce, parts.Ciphertext, parts.Version.AssociatedData())
	if err != nil {
		return fp, cryptoError("open", fmt.Errorf("%w: %v", ErrAuthFailed, err))
	}
	if len(pt) != crypto.FingerprintSize {
		return fp, cryptoError("open", fmt.Errorf("%w: plaintext length %d", ErrBadLength, len(pt)))
	}

	copy(fp[:], pt)
	return fp, nil
}
