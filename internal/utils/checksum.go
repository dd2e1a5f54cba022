package utils

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"os"

	"golang.org/x/crypto/ripemd160"
)

// Algorithm names understood by ComputeChecksum
const (
	MD5          = "md5"
	SHA1         = "sha1"
	SHA256       = "sha256"
	SHA256Base64 = "sha256_base64"
	SHA512       = "sha512"
	RMD160       = "rmd160"
)

// ErrUnsupportedAlgorithm is returned for unknown hash algorithm names
var ErrUnsupportedAlgorithm = errors.New("unsupported hash algorithm")

type digest struct {
	newHash func() hash.Hash
	encode  func([]byte) string
}

var digests = map[string]digest{
	MD5:          {md5.New, hex.EncodeToString},
	SHA1:         {sha1.New, hex.EncodeToString},
	SHA256:       {sha256.New, hex.EncodeToString},
	SHA256Base64: {sha256.New, base64.StdEncoding.EncodeToString},
	SHA512:       {sha512.New, hex.EncodeToString},
	RMD160:       {ripemd160.New, hex.EncodeToString},
	"ripemd160":  {ripemd160.New, hex.EncodeToString},
}

// SupportsAlgorithm reports whether ComputeChecksum knows the algorithm
func SupportsAlgorithm(algorithm string) bool {
	_, ok := digests[algorithm]
	return ok
}

// ComputeChecksum streams the file at path through the named hash algorithm.
// Hex digests are lowercase; sha256_base64 is the standard base64 encoding of
// the raw sha256 digest.
func ComputeChecksum(path, algorithm string) (string, error) {
	d, ok := digests[algorithm]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, algorithm)
	}

	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := d.newHash()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}

	return d.encode(h.Sum(nil)), nil
}
