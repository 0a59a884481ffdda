package crypto

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	secpecdsa "github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
)

// Key sizes in bytes.
const (
	// SecretSize is the length of a raw private key scalar/seed on both curves.
	SecretSize = 32
	// Ed25519PubKeySize is the length of an Ed25519 public key.
	Ed25519PubKeySize = ed25519.PublicKeySize
	// Secp256k1PubKeySize is the length of a compressed secp256k1 public key.
	Secp256k1PubKeySize = 33
)

// PrivateKey holds a private key for one of the supported curves.
// Ed25519 keys sign the message directly; secp256k1 keys sign the
// BLAKE3-256 hash of the message with ECDSA (DER-encoded signature).
type PrivateKey struct {
	curve Curve
	ed    ed25519.PrivateKey
	secp  *secp256k1.PrivateKey
}

// GenerateKey creates a new random private key on the given curve.
func GenerateKey(curve Curve) (*PrivateKey, error) {
	switch curve {
	case CurveEd25519:
		_, key, err := ed25519.GenerateKey(rand.Reader)
		if err != nil {
			return nil, fmt.Errorf("generate ed25519 key: %w", err)
		}
		return &PrivateKey{curve: curve, ed: key}, nil
	case CurveSecp256k1:
		key, err := secp256k1.GeneratePrivateKey()
		if err != nil {
			return nil, fmt.Errorf("generate secp256k1 key: %w", err)
		}
		return &PrivateKey{curve: curve, secp: key}, nil
	default:
		return nil, fmt.Errorf("unknown curve %q", curve)
	}
}

// PrivateKeyFromBytes creates a PrivateKey from a 32-byte secret.
// For Ed25519 the secret is the RFC 8032 seed; for secp256k1 it is the
// raw scalar.
func PrivateKeyFromBytes(curve Curve, b []byte) (*PrivateKey, error) {
	if len(b) != SecretSize {
		return nil, fmt.Errorf("private key must be %d bytes, got %d", SecretSize, len(b))
	}
	switch curve {
	case CurveEd25519:
		return &PrivateKey{curve: curve, ed: ed25519.NewKeyFromSeed(b)}, nil
	case CurveSecp256k1:
		return &PrivateKey{curve: curve, secp: secp256k1.PrivKeyFromBytes(b)}, nil
	default:
		return nil, fmt.Errorf("unknown curve %q", curve)
	}
}

// Curve returns the key's curve.
func (pk *PrivateKey) Curve() Curve {
	return pk.curve
}

// Sign produces a detached signature over the message.
func (pk *PrivateKey) Sign(message []byte) ([]byte, error) {
	switch pk.curve {
	case CurveEd25519:
		return ed25519.Sign(pk.ed, message), nil
	case CurveSecp256k1:
		digest := Hash(message)
		sig := secpecdsa.Sign(pk.secp, digest[:])
		return sig.Serialize(), nil
	default:
		return nil, fmt.Errorf("unknown curve %q", pk.curve)
	}
}

// PublicKey returns the public key bytes: 32 bytes for Ed25519,
// 33-byte compressed for secp256k1.
func (pk *PrivateKey) PublicKey() []byte {
	switch pk.curve {
	case CurveEd25519:
		pub := make([]byte, Ed25519PubKeySize)
		copy(pub, pk.ed.Public().(ed25519.PublicKey))
		return pub
	case CurveSecp256k1:
		return pk.secp.PubKey().SerializeCompressed()
	default:
		return nil
	}
}

// Serialize returns the 32-byte private key secret.
func (pk *PrivateKey) Serialize() []byte {
	switch pk.curve {
	case CurveEd25519:
		b := make([]byte, SecretSize)
		copy(b, pk.ed.Seed())
		return b
	case CurveSecp256k1:
		return pk.secp.Serialize()
	default:
		return nil
	}
}

// Zero overwrites the private key memory where the underlying
// implementation supports it.
func (pk *PrivateKey) Zero() {
	if pk.secp != nil {
		pk.secp.Zero()
	}
	for i := range pk.ed {
		pk.ed[i] = 0
	}
}

// VerifySignature checks a detached signature against a message and public
// key for the given curve. Returns false on any error.
func VerifySignature(curve Curve, message, signature, publicKey []byte) bool {
	switch curve {
	case CurveEd25519:
		if len(publicKey) != Ed25519PubKeySize {
			return false
		}
		return ed25519.Verify(ed25519.PublicKey(publicKey), message, signature)
	case CurveSecp256k1:
		pubKey, err := secp256k1.ParsePubKey(publicKey)
		if err != nil {
			return false
		}
		sig, err := secpecdsa.ParseDERSignature(signature)
		if err != nil {
			return false
		}
		digest := Hash(message)
		return sig.Verify(digest[:], pubKey)
	default:
		return false
	}
}
