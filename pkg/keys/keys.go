// Package keys defines the signing capability every wallet variant exposes.
//
// A Signer produces detached signatures for an account without revealing how
// the key is held: in process memory (SoftwareSigner, HDSigner) or on an
// external device that approves each signature interactively. Callers only
// ever program against the Signer interface; no code switches on the
// concrete variant.
//
// Index semantics: index 0 is the account's canonical key. Positive indices
// select additional derivations where the variant supports them (HDSigner
// derives them from the wallet seed). Negative indices are reserved for
// device wallets with vendor-specific slots; the in-process variants reject
// them. MinIndex and MaxIndex bound the valid range.
package keys

import (
	"context"

	"github.com/Klingon-tech/klingnet-wallet/pkg/crypto"
)

// Signer is the capability an account key holder exposes.
//
// Sign must not retry internally: repeated signing of the same payload is
// security-sensitive for some schemes, so retry policy belongs to the
// caller. Sign honors ctx because device-backed variants block on human
// approval.
type Signer interface {
	// Sign produces a detached signature over message with the key at index.
	Sign(ctx context.Context, index int32, message []byte) ([]byte, error)

	// PublicKey returns the public key at index, or false if the index is
	// out of range.
	PublicKey(index int32) ([]byte, bool)

	// PrivateKey returns the raw private key at index when the variant can
	// expose it. Device-backed variants always return false.
	PrivateKey(index int32) (*crypto.PrivateKey, bool)

	// HasPrivateKey reports whether the variant holds extractable private
	// key material.
	HasPrivateKey() bool

	// MinIndex and MaxIndex bound the valid index range, inclusive.
	MinIndex() int32
	MaxIndex() int32

	// Curve returns the signature scheme all of this signer's keys use.
	Curve() crypto.Curve
}

// NoPrivateKey provides the default "key material is not extractable"
// behavior for variants that hold keys externally. Embed it to satisfy
// PrivateKey and HasPrivateKey.
type NoPrivateKey struct{}

// PrivateKey reports that no raw key material is available.
func (NoPrivateKey) PrivateKey(int32) (*crypto.PrivateKey, bool) { return nil, false }

// HasPrivateKey reports that no raw key material is available.
func (NoPrivateKey) HasPrivateKey() bool { return false }

// SingleIndex provides the default index range: only the canonical key.
// Embed it in variants without alternate derivations.
type SingleIndex struct{}

// MinIndex returns 0.
func (SingleIndex) MinIndex() int32 { return 0 }

// MaxIndex returns 0.
func (SingleIndex) MaxIndex() int32 { return 0 }
