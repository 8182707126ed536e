package crypto

import (
	"bytes"
	"encoding/hex"
	"testing"
)

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	if err != nil {
		t.Fatalf("bad hex %q: %v", s, err)
	}
	return b
}

// GCM test cases 13 and 14 from the original McGrew/Viega GCM specification
// (256-bit zero key, 96-bit zero IV).
func TestSealAES256GCMVectors(t *testing.T) {
	var key GroupKey
	nonce := make([]byte, NonceSize)

	tests := []struct {
		name       string
		plaintext  string
		ciphertext string
		tag        string
	}{
		{
			name:       "Test Case 13",
			plaintext:  "",
			ciphertext: "",
			tag:        "530f8afbc74536b9a963b4f1c4cb738b",
		},
		{
			name:       "Test Case 14",
			plaintext:  "00000000000000000000000000000000",
			ciphertext: "cea7403d4d606b6e074ec5d3baf39d18",
			tag:        "d0d1c8a799996bf0265b98b5d48ab919",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Seal(SuiteAES256GCM, key, nonce, mustHex(t, tc.plaintext), nil)
			if err != nil {
				t.Fatalf("Seal() error = %v", err)
			}
			want := append(mustHex(t, tc.ciphertext), mustHex(t, tc.tag)...)
			if !bytes.Equal(got, want) {
				t.Errorf("Seal() =\n  got:  %x\n  want: %x", got, want)
			}

			pt, err := Open(SuiteAES256GCM, key, nonce, got, nil)
			if err != nil {
				t.Fatalf("Open() error = %v", err)
			}
			if !bytes.Equal(pt, mustHex(t, tc.plaintext)) {
				t.Errorf("Open() = %x, want %s", pt, tc.plaintext)
			}
		})
	}
}

func TestSealOpenRoundTrip(t *testing.T) {
	key, err := GenerateGroupKey(DefaultRandom)
	if err != nil {
		t.Fatal(err)
	}
	fp := DeriveFingerprint([]byte("tag-42"))

	for _, suite := range []Suite{SuiteAES256GCM, SuiteChaCha20Poly1305} {
		t.Run(suite.String(), func(t *testing.T) {
			nonce, err := NewNonce(DefaultRandom)
			if err != nil {
				t.Fatal(err)
			}
			aad := []byte("context")

			ct, err := Seal(suite, key, nonce[:], fp.Bytes(), aad)
			if err != nil {
				t.Fatalf("Seal() error = %v", err)
			}
			if len(ct) != FingerprintSize+TagSize {
				t.Errorf("ciphertext length = %d, want %d", len(ct), FingerprintSize+TagSize)
			}

			pt, err := Open(suite, key, nonce[:], ct, aad)
			if err != nil {
				t.Fatalf("Open() error = %v", err)
			}
			if !bytes.Equal(pt, fp.Bytes()) {
				t.Errorf("Open() = %x, want %s", pt, fp)
			}

			if _, err := Open(suite, key, nonce[:], ct, []byte("other")); err != ErrAuthFailed {
				t.Errorf("Open() with wrong aad error = %v, want ErrAuthFailed", err)
			}

			for i := range ct {
				tampered := append([]byte(nil), ct...)
				tampered[i] ^= 0x01
				if _, err := Open(suite, key, nonce[:], tampered, aad); err != ErrAuthFailed {
					t.Fatalf("Open() with byte %d flipped error = %v, want ErrAuthFailed", i, err)
				}
			}
		})
	}
}

func TestSuitesDiffer(t *testing.T) {
	var key GroupKey
	nonce := make([]byte, NonceSize)
	pt := make([]byte, FingerprintSize)

	gcm, err := Seal(SuiteAES256GCM, key, nonce, pt, nil)
	if err != nil {
		t.Fatal(err)
	}
	chacha, err := Seal(SuiteChaCha20Poly1305, key, nonce, pt, nil)
	if err != nil {
		t.Fatal(err)
	}
	if bytes.Equal(gcm, chacha) {
		t.Error("suites produced identical ciphertext")
	}
	if _, err := Open(SuiteChaCha20Poly1305, key, nonce, gcm, nil); err != ErrAuthFailed {
		t.Errorf("cross-suite Open() error = %v, want ErrAuthFailed", err)
	}
}

func TestSealInvalidInput(t *testing.T) {
	var key GroupKey

	if _, err := Seal(SuiteAES256GCM, key, make([]byte, 13), nil, nil); err != ErrInvalidNonceSize {
		t.Errorf("Seal() with 13-byte nonce error = %v, want ErrInvalidNonceSize", err)
	}
	if _, err := Seal(SuiteUnknown, key, make([]byte, NonceSize), nil, nil); err != ErrUnknownSuite {
		t.Errorf("Seal() with unknown suite error = %v, want ErrUnknownSuite", err)
	}
	if _, err := Open(SuiteAES256GCM, key, make([]byte, NonceSize), make([]byte, TagSize-1), nil); err != ErrCiphertextTooShort {
		t.Errorf("Open() with short ciphertext error = %v, want ErrCiphertextTooShort", err)
	}
	if _, err := Open(SuiteAES256GCM, key, make([]byte, 8), make([]byte, TagSize), nil); err != ErrInvalidNonceSize {
		t.Errorf("Open() with 8-byte nonce error = %v, want ErrInvalidNonceSize", err)
	}
}

func TestSuiteString(t *testing.T) {
	tests := []struct {
		suite Suite
		want  string
		valid bool
	}{
		{SuiteUnknown, "Unknown", false},
		{SuiteAES256GCM, "AES-256-GCM", true},
		{SuiteChaCha20Poly1305, "ChaCha20-Poly1305", true},
		{Suite(99), "Unknown", false},
	}
	for _, tc := range tests {
		if got := tc.suite.String(); got != tc.want {
			t.Errorf("Suite(%d).String() = %q, want %q", tc.suite, got, tc.want)
		}
		if got := tc.suite.IsValid(); got != tc.valid {
			t.Errorf("Suite(%d).IsValid() = %v, want %v", tc.suite, got, tc.valid)
		}
	}
}
