// Package provision loads the group key and asset identifier a beacon is
// built from, and generates new group keys.
//
// Key files hold the base64 (standard alphabet) encoding of exactly 32 bytes.
// Asset files hold the identifier as text. Surrounding whitespace is trimmed
// from both.
package provision

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/backkem/beacon/pkg/crypto"
)

// Default file names, relative to the working directory.
const (
	DefaultKeyFile   = "group-key"
	DefaultAssetFile = "asset-tag"
)

// Errors for provisioning.
var (
	// ErrInvalidKeyEncoding is returned when key text is not valid base64.
	ErrInvalidKeyEncoding = errors.New("provision: key is not valid base64")

	// ErrEmptyAssetID is returned when the identifier is empty after trimming.
	ErrEmptyAssetID = errors.New("provision: asset identifier is empty")
)

// Error is a provisioning failure. Provisioning failures are always
// configuration problems that an operator must fix.
type Error struct {
	Op   string
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("provision: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("provision: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ParseGroupKey decodes base64 key text into a GroupKey.
// The decoded key must be exactly 32 bytes.
func ParseGroupKey(text string) (crypto.GroupKey, error) {
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(text))
	if err != nil {
		// The decoder error names the offending offset only, never key bytes.
		return crypto.GroupKey{}, &Error{Op: "parse key", Err: fmt.Errorf("%w: %v", ErrInvalidKeyEncoding, err)}
	}

	key, err := crypto.NewGroupKey(raw)
	clear(raw)
	if err != nil {
		return crypto.GroupKey{}, &Error{Op: "parse key", Err: err}
	}
	return key, nil
}

// LoadGroupKey reads and parses the key file at path.
func LoadGroupKey(path string) (crypto.GroupKey, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return crypto.GroupKey{}, &Error{Op: "read key", Path: path, Err: err}
	}
	defer clear(b)

	key, err := ParseGroupKey(string(b))
	if err != nil {
		var pe *Error
		if errors.As(err, &pe) {
			pe.Path = path
		}
		return crypto.GroupKey{}, err
	}
	return key, nil
}

// ParseAssetID trims text and returns it as an asset identifier.
func ParseAssetID(text string) (string, error) {
	id := strings.TrimSpace(text)
	if id == "" {
		return "", &Error{Op: "parse asset", Err: ErrEmptyAssetID}
	}
	return id, nil
}

// LoadAssetID reads and trims the asset identifier file at path.
func LoadAssetID(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", &Error{Op: "read asset", Path: path, Err: err}
	}

	id, err := ParseAssetID(string(b))
	if err != nil {
		return "", &Error{Op: "read asset", Path: path, Err: ErrEmptyAssetID}
	}
	return id, nil
}

// EncodeGroupKey returns the base64 text form of key, as stored in key files.
func EncodeGroupKey(key crypto.GroupKey) string {
	return base64.StdEncoding.EncodeToString(key[:])
}

// GenerateGroupKey draws a new key from rng and returns it with its text form.
func GenerateGroupKey(rng io.Reader) (crypto.GroupKey, string, error) {
	key, err := crypto.GenerateGroupKey(rng)
	if err != nil {
		return crypto.GroupKey{}, "", &Error{Op: "generate key", Err: err}
	}
	return key, EncodeGroupKey(key), nil
}

// WriteGroupKey writes the text form of key to path with owner-only permissions.
// An existing file is not overwritten.
func WriteGroupKey(path string, key crypto.GroupKey) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return &Error{Op: "write key", Path: path, Err: err}
	}

	if _, err := io.WriteString(f, EncodeGroupKey(key)+"\n"); err != nil {
		f.Close()
		return &Error{Op: "write key", Path: path, Err: err}
	}
	if err := f.Close(); err != nil {
		return &Error{Op: "write key", Path: path, Err: err}
	}
	return nil
}
