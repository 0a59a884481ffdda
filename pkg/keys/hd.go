package keys

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/Klingon-tech/klingnet-wallet/pkg/crypto"
	"github.com/tyler-smith/go-bip32"
	"github.com/tyler-smith/go-bip39"
	"github.com/zeebo/blake3"
)

// SeedSize is the length of a BIP-39 derived seed in bytes (512 bits).
const SeedSize = 64

// ed25519DerivationContext domain-separates Ed25519 child key derivation.
const ed25519DerivationContext = "klingnet-wallet ed25519 child key v1"

// HDSigner derives keys from a wallet seed. Index 0 is the canonical key;
// positive indices up to maxIndex are additional derivations. On secp256k1
// children are hardened BIP-32 child keys; on Ed25519 (which BIP-32 cannot
// derive) the child secret is a keyed BLAKE3 of the seed and index.
type HDSigner struct {
	curve    crypto.Curve
	seed     []byte
	maxIndex int32
}

// NewHDSigner creates a signer over a 64-byte wallet seed.
// maxIndex is the highest valid derivation index (0 for canonical-only).
func NewHDSigner(curve crypto.Curve, seed []byte, maxIndex int32) (*HDSigner, error) {
	if len(seed) != SeedSize {
		return nil, fmt.Errorf("seed must be %d bytes, got %d", SeedSize, len(seed))
	}
	if !curve.Valid() {
		return nil, fmt.Errorf("unknown curve %q", curve)
	}
	if maxIndex < 0 {
		return nil, fmt.Errorf("max index must be >= 0, got %d", maxIndex)
	}
	s := make([]byte, SeedSize)
	copy(s, seed)
	return &HDSigner{curve: curve, seed: s, maxIndex: maxIndex}, nil
}

// HDSignerFromMnemonic derives the wallet seed from a BIP-39 mnemonic and
// optional passphrase.
func HDSignerFromMnemonic(curve crypto.Curve, mnemonic, passphrase string, maxIndex int32) (*HDSigner, error) {
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, fmt.Errorf("invalid mnemonic")
	}
	seed, err := bip39.NewSeedWithErrorChecking(mnemonic, passphrase)
	if err != nil {
		return nil, fmt.Errorf("derive seed: %w", err)
	}
	return NewHDSigner(curve, seed, maxIndex)
}

// derive returns the private key at index.
func (s *HDSigner) derive(index int32) (*crypto.PrivateKey, error) {
	if index < 0 || index > s.maxIndex {
		return nil, fmt.Errorf("index %d out of range [0,%d]", index, s.maxIndex)
	}

	switch s.curve {
	case crypto.CurveSecp256k1:
		master, err := bip32.NewMasterKey(s.seed)
		if err != nil {
			return nil, fmt.Errorf("derive master key: %w", err)
		}
		child, err := master.NewChildKey(bip32.FirstHardenedChild + uint32(index))
		if err != nil {
			return nil, fmt.Errorf("derive child %d: %w", index, err)
		}
		return crypto.PrivateKeyFromBytes(s.curve, child.Key)
	case crypto.CurveEd25519:
		h := blake3.NewDeriveKey(ed25519DerivationContext)
		h.Write(s.seed)
		var idx [4]byte
		binary.LittleEndian.PutUint32(idx[:], uint32(index))
		h.Write(idx[:])
		secret := h.Sum(nil)[:crypto.SecretSize]
		return crypto.PrivateKeyFromBytes(s.curve, secret)
	default:
		return nil, fmt.Errorf("unknown curve %q", s.curve)
	}
}

// Sign produces a detached signature with the key at index.
func (s *HDSigner) Sign(ctx context.Context, index int32, message []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	key, err := s.derive(index)
	if err != nil {
		return nil, err
	}
	defer key.Zero()
	return key.Sign(message)
}

// PublicKey returns the public key at index.
func (s *HDSigner) PublicKey(index int32) ([]byte, bool) {
	key, err := s.derive(index)
	if err != nil {
		return nil, false
	}
	defer key.Zero()
	return key.PublicKey(), true
}

// PrivateKey returns the private key at index. The caller owns the copy and
// should Zero it after use.
func (s *HDSigner) PrivateKey(index int32) (*crypto.PrivateKey, bool) {
	key, err := s.derive(index)
	if err != nil {
		return nil, false
	}
	return key, true
}

// HasPrivateKey reports that the key material is extractable.
func (s *HDSigner) HasPrivateKey() bool { return true }

// MinIndex returns 0: negative device-slot indices are not supported by
// software wallets.
func (s *HDSigner) MinIndex() int32 { return 0 }

// MaxIndex returns the highest valid derivation index.
func (s *HDSigner) MaxIndex() int32 { return s.maxIndex }

// Curve returns the signer's curve.
func (s *HDSigner) Curve() crypto.Curve { return s.curve }
