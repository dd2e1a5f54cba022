package signer

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/ProtonMail/go-crypto/openpgp/armor"
)

func armoredPrivateKey(t *testing.T) ([]byte, *openpgp.Entity) {
	t.Helper()
	entity, err := openpgp.NewEntity("upt", "test", "upt@example.com", nil)
	if err != nil {
		t.Fatalf("NewEntity failed: %v", err)
	}

	var buf bytes.Buffer
	w, err := armor.Encode(&buf, openpgp.PrivateKeyType, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := entity.SerializePrivate(w, nil); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes(), entity
}

func TestSignDetached(t *testing.T) {
	key, entity := armoredPrivateKey(t)
	path := filepath.Join(t.TempDir(), "key.asc")
	if err := os.WriteFile(path, key, 0600); err != nil {
		t.Fatal(err)
	}

	s, err := NewGPGSigner(path, "")
	if err != nil {
		t.Fatalf("NewGPGSigner failed: %v", err)
	}

	data := []byte("pkgname=python-requests\n")
	signature, err := s.SignDetached(data)
	if err != nil {
		t.Fatalf("SignDetached failed: %v", err)
	}
	if !bytes.HasPrefix(signature, []byte("-----BEGIN PGP SIGNATURE-----")) {
		t.Errorf("Expected an armored signature, got %q", signature)
	}

	keyring := openpgp.EntityList{entity}
	if _, err := openpgp.CheckArmoredDetachedSignature(keyring, bytes.NewReader(data), bytes.NewReader(signature), nil); err != nil {
		t.Errorf("Signature does not verify: %v", err)
	}
	if _, err := openpgp.CheckArmoredDetachedSignature(keyring, bytes.NewReader([]byte("tampered")), bytes.NewReader(signature), nil); err == nil {
		t.Error("Expected a tampered payload to fail verification")
	}
}

func TestPublicKey(t *testing.T) {
	key, _ := armoredPrivateKey(t)
	s, err := ReadGPGSigner(bytes.NewReader(key), "")
	if err != nil {
		t.Fatal(err)
	}

	pub, err := s.PublicKey()
	if err != nil {
		t.Fatalf("PublicKey failed: %v", err)
	}
	if !bytes.HasPrefix(pub, []byte("-----BEGIN PGP PUBLIC KEY BLOCK-----")) {
		t.Errorf("Unexpected public key: %q", pub)
	}
}

func TestNewGPGSignerErrors(t *testing.T) {
	if _, err := NewGPGSigner("", ""); err == nil {
		t.Error("Expected an error for an empty path")
	}
	if _, err := NewGPGSigner(filepath.Join(t.TempDir(), "missing"), ""); err == nil {
		t.Error("Expected an error for a missing key")
	}
	if _, err := ReadGPGSigner(bytes.NewReader([]byte("not a key")), ""); err == nil {
		t.Error("Expected an error for garbage")
	}
}
