package crypto

import "fmt"

// Curve identifies the signature scheme an account key uses.
// It is immutable per account: the ledger records the curve alongside the
// public key at account creation, and signatures in the wrong scheme are
// rejected as invalid.
type Curve uint8

const (
	// CurveEd25519 is the Ed25519 signature scheme.
	CurveEd25519 Curve = iota
	// CurveSecp256k1 is ECDSA over secp256k1.
	CurveSecp256k1
)

// String returns the canonical lowercase name of the curve.
func (c Curve) String() string {
	switch c {
	case CurveEd25519:
		return "ed25519"
	case CurveSecp256k1:
		return "secp256k1"
	default:
		return fmt.Sprintf("curve(%d)", uint8(c))
	}
}

// Valid returns true for a known curve value.
func (c Curve) Valid() bool {
	return c == CurveEd25519 || c == CurveSecp256k1
}

// ParseCurve converts a curve name to a Curve.
func ParseCurve(s string) (Curve, error) {
	switch s {
	case "ed25519":
		return CurveEd25519, nil
	case "secp256k1":
		return CurveSecp256k1, nil
	default:
		return 0, fmt.Errorf("unknown curve %q", s)
	}
}

// MarshalText encodes the curve as its name.
func (c Curve) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("unknown curve %d", uint8(c))
	}
	return []byte(c.String()), nil
}

// UnmarshalText decodes a curve from its name.
func (c *Curve) UnmarshalText(text []byte) error {
	parsed, err := ParseCurve(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
