package provision

import (
	"bytes"
	"encoding/base64"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/backkem/beacon/pkg/crypto"
)

func TestParseGroupKey(t *testing.T) {
	valid := bytes.Repeat([]byte{0x11}, crypto.GroupKeySize)

	tests := []struct {
		name    string
		text    string
		wantErr error
	}{
		{"valid", base64.StdEncoding.EncodeToString(valid), nil},
		{"valid with newline", base64.StdEncoding.EncodeToString(valid) + "\n", nil},
		{"valid with surrounding space", "  " + base64.StdEncoding.EncodeToString(valid) + " \r\n", nil},
		{"16 bytes", base64.StdEncoding.EncodeToString(valid[:16]), crypto.ErrInvalidKeySize},
		{"33 bytes", base64.StdEncoding.EncodeToString(append(valid, 0)), crypto.ErrInvalidKeySize},
		{"empty", "", crypto.ErrInvalidKeySize},
		{"not base64", "not*base64!", ErrInvalidKeyEncoding},
		{"url alphabet", strings.Repeat("_", 43) + "=", ErrInvalidKeyEncoding},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			key, err := ParseGroupKey(tc.text)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Errorf("ParseGroupKey() error = %v, want %v", err, tc.wantErr)
				}
				var pe *Error
				if !errors.As(err, &pe) {
					t.Errorf("error %T is not *provision.Error", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseGroupKey() error = %v", err)
			}
			if !bytes.Equal(key[:], valid) {
				t.Errorf("key mismatch")
			}
		})
	}
}

func TestLoadGroupKey(t *testing.T) {
	dir := t.TempDir()

	key, text, err := GenerateGroupKey(crypto.DefaultRandom)
	if err != nil {
		t.Fatalf("GenerateGroupKey() error = %v", err)
	}

	path := filepath.Join(dir, DefaultKeyFile)
	if err := os.WriteFile(path, []byte(text+"\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	got, err := LoadGroupKey(path)
	if err != nil {
		t.Fatalf("LoadGroupKey() error = %v", err)
	}
	if got != key {
		t.Error("loaded key differs from generated key")
	}

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadGroupKey(filepath.Join(dir, "missing"))
		if !errors.Is(err, os.ErrNotExist) {
			t.Errorf("error = %v, want os.ErrNotExist", err)
		}
	})

	t.Run("short key names path", func(t *testing.T) {
		short := filepath.Join(dir, "short")
		if err := os.WriteFile(short, []byte(base64.StdEncoding.EncodeToString(make([]byte, 31))), 0o600); err != nil {
			t.Fatal(err)
		}
		_, err := LoadGroupKey(short)
		if !errors.Is(err, crypto.ErrInvalidKeySize) {
			t.Errorf("error = %v, want ErrInvalidKeySize", err)
		}
		if !strings.Contains(err.Error(), short) {
			t.Errorf("error %q does not name the file", err)
		}
	})
}

func TestLoadAssetID(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
		want    string
		wantErr error
	}{
		{"plain", "tag-42", "tag-42", nil},
		{"trailing newline", "tag-42\n", "tag-42", nil},
		{"surrounding whitespace", "\t tag 42 \r\n", "tag 42", nil},
		{"empty", "", "", ErrEmptyAssetID},
		{"whitespace only", " \n\t", "", ErrEmptyAssetID},
	}

	for i, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(dir, DefaultAssetFile+string(rune('a'+i)))
			if err := os.WriteFile(path, []byte(tc.content), 0o600); err != nil {
				t.Fatal(err)
			}
			got, err := LoadAssetID(path)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Errorf("LoadAssetID() error = %v, want %v", err, tc.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("LoadAssetID() error = %v", err)
			}
			if got != tc.want {
				t.Errorf("LoadAssetID() = %q, want %q", got, tc.want)
			}
		})
	}

	if _, err := LoadAssetID(filepath.Join(dir, "missing")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file error = %v, want os.ErrNotExist", err)
	}
}

func TestWriteGroupKey(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, DefaultKeyFile)

	key, _, err := GenerateGroupKey(crypto.DefaultRandom)
	if err != nil {
		t.Fatal(err)
	}

	if err := WriteGroupKey(path, key); err != nil {
		t.Fatalf("WriteGroupKey() error = %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("permissions = %o, want 600", perm)
	}

	got, err := LoadGroupKey(path)
	if err != nil {
		t.Fatalf("LoadGroupKey() error = %v", err)
	}
	if got != key {
		t.Error("round-tripped key differs")
	}

	if err := WriteGroupKey(path, key); !errors.Is(err, os.ErrExist) {
		t.Errorf("second WriteGroupKey() error = %v, want os.ErrExist", err)
	}
}

func TestGenerateGroupKeyShortRandom(t *testing.T) {
	if _, _, err := GenerateGroupKey(bytes.NewReader(make([]byte, 4))); err == nil {
		t.Error("expected error for short random source")
	}
}
