package utils

import (
	"encoding/base64"
	"encoding/hex"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

func writeTestFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "abc.txt")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write test file: %v", err)
	}
	return path
}

func TestComputeChecksum(t *testing.T) {
	path := writeTestFile(t, "abc")

	sha256Hex := "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	raw, _ := hex.DecodeString(sha256Hex)

	tests := []struct {
		algorithm string
		want      string
	}{
		{MD5, "900150983cd24fb0d6963f7d28e17f72"},
		{SHA1, "a9993e364706816aba3e25717850c26c9cd0d89d"},
		{SHA256, sha256Hex},
		{SHA256Base64, base64.StdEncoding.EncodeToString(raw)},
		{RMD160, "8eb208f7e05d987a9b044a8e98c6b087f15a0bfc"},
		{"ripemd160", "8eb208f7e05d987a9b044a8e98c6b087f15a0bfc"},
	}

	for _, tt := range tests {
		t.Run(tt.algorithm, func(t *testing.T) {
			got, err := ComputeChecksum(path, tt.algorithm)
			if err != nil {
				t.Fatalf("ComputeChecksum(%q) failed: %v", tt.algorithm, err)
			}
			if got != tt.want {
				t.Errorf("ComputeChecksum(%q) = %s, want %s", tt.algorithm, got, tt.want)
			}
		})
	}
}

func TestComputeChecksumUnsupportedAlgorithm(t *testing.T) {
	path := writeTestFile(t, "abc")

	_, err := ComputeChecksum(path, "crc32")
	if !errors.Is(err, ErrUnsupportedAlgorithm) {
		t.Fatalf("Expected ErrUnsupportedAlgorithm, got %v", err)
	}

	// The algorithm is checked before the file is touched
	_, err = ComputeChecksum("/does/not/exist", "crc32")
	if !errors.Is(err, ErrUnsupportedAlgorithm) {
		t.Fatalf("Expected ErrUnsupportedAlgorithm for missing file, got %v", err)
	}
}

func TestComputeChecksumMissingFile(t *testing.T) {
	_, err := ComputeChecksum(filepath.Join(t.TempDir(), "missing"), SHA256)
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("Expected fs.ErrNotExist, got %v", err)
	}
}

func TestSupportsAlgorithm(t *testing.T) {
	for _, name := range []string{MD5, SHA1, SHA256, SHA256Base64, SHA512, RMD160} {
		if !SupportsAlgorithm(name) {
			t.Errorf("Expected %s to be supported", name)
		}
	}
	if SupportsAlgorithm("whirlpool") {
		t.Error("Did not expect whirlpool to be supported")
	}
}
