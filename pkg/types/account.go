package types

import (
	"fmt"
	"strings"
)

// AccountID is a ledger-assigned account identifier (decimal string).
// The empty string is the "no account" value.
type AccountID string

// IsZero returns true if the account ID is unset.
func (a AccountID) IsZero() bool {
	return a == ""
}

// String returns the account ID as a string.
func (a AccountID) String() string {
	return string(a)
}

// ParseAccountID validates and returns an account ID.
// Ledger account IDs are non-empty decimal numbers without leading zeros.
func ParseAccountID(s string) (AccountID, error) {
	if s == "" {
		return "", fmt.Errorf("empty account id")
	}
	if len(s) > 1 && s[0] == '0' {
		return "", fmt.Errorf("account id %q has a leading zero", s)
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return "", fmt.Errorf("account id %q is not a decimal number", s)
		}
	}
	return AccountID(s), nil
}

// AssetNative is the asset ID of the network's base unit of value.
const AssetNative AssetID = "NATIVE"

// NativeDecimals is the fixed decimal precision of the native asset.
// One display unit equals 10^NativeDecimals raw units.
const NativeDecimals = 8

// AssetID identifies an asset in a transfer: either AssetNative or the
// hex-encoded TokenID of an issued token.
type AssetID string

// IsNative returns true if the asset is the network's base currency.
func (a AssetID) IsNative() bool {
	return a == AssetNative
}

// TokenID returns the token ID for a non-native asset.
func (a AssetID) TokenID() (TokenID, error) {
	if a.IsNative() {
		return TokenID{}, fmt.Errorf("native asset has no token id")
	}
	h, err := HexToHash(string(a))
	if err != nil {
		return TokenID{}, fmt.Errorf("asset id %q: %w", a, err)
	}
	return TokenID(h), nil
}

// String returns the asset ID as a string.
func (a AssetID) String() string {
	return string(a)
}

// ParseAssetID normalizes and validates an asset ID string.
// Accepts "NATIVE" (any case) or a 64-character hex token ID.
func ParseAssetID(s string) (AssetID, error) {
	if strings.EqualFold(s, string(AssetNative)) {
		return AssetNative, nil
	}
	lowered := strings.ToLower(s)
	if _, err := HexToHash(lowered); err != nil {
		return "", fmt.Errorf("asset id must be %q or a 64-char hex token id: %w", AssetNative, err)
	}
	return AssetID(lowered), nil
}

// AssetFromToken returns the asset ID for a token.
func AssetFromToken(id TokenID) AssetID {
	return AssetID(id.String())
}
