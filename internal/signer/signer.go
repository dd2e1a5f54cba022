// Package signer produces OpenPGP signatures for the files written by backends.
package signer

// Signer signs backend output
type Signer interface {
	// SignDetached creates an armored detached signature of data
	SignDetached(data []byte) ([]byte, error)

	// PublicKey returns the armored public key matching the signatures
	PublicKey() ([]byte, error)
}
