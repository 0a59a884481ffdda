package keys

import (
	"context"
	"fmt"

	"github.com/Klingon-tech/klingnet-wallet/pkg/crypto"
)

// SoftwareSigner wraps a decrypted private key held in process memory.
// It exposes only the canonical key (index 0).
type SoftwareSigner struct {
	SingleIndex

	key *crypto.PrivateKey
}

// NewSoftwareSigner creates a signer around an in-memory private key.
func NewSoftwareSigner(key *crypto.PrivateKey) (*SoftwareSigner, error) {
	if key == nil {
		return nil, fmt.Errorf("nil private key")
	}
	return &SoftwareSigner{key: key}, nil
}

// SoftwareSignerFromBytes creates a signer from a raw 32-byte secret.
func SoftwareSignerFromBytes(curve crypto.Curve, secret []byte) (*SoftwareSigner, error) {
	key, err := crypto.PrivateKeyFromBytes(curve, secret)
	if err != nil {
		return nil, fmt.Errorf("software signer: %w", err)
	}
	return &SoftwareSigner{key: key}, nil
}

// Sign produces a detached signature with the canonical key.
func (s *SoftwareSigner) Sign(ctx context.Context, index int32, message []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if index != 0 {
		return nil, fmt.Errorf("software signer holds only the canonical key, got index %d", index)
	}
	return s.key.Sign(message)
}

// PublicKey returns the canonical public key.
func (s *SoftwareSigner) PublicKey(index int32) ([]byte, bool) {
	if index != 0 {
		return nil, false
	}
	return s.key.PublicKey(), true
}

// PrivateKey returns the canonical private key.
func (s *SoftwareSigner) PrivateKey(index int32) (*crypto.PrivateKey, bool) {
	if index != 0 {
		return nil, false
	}
	return s.key, true
}

// HasPrivateKey reports that the key material is extractable.
func (s *SoftwareSigner) HasPrivateKey() bool { return true }

// Curve returns the key's curve.
func (s *SoftwareSigner) Curve() crypto.Curve { return s.key.Curve() }
