package types

import (
	"fmt"
	"strings"
)

// Addresses render as bech32 (BIP-173) strings under a network HRP,
// "kgx" on mainnet and "tkgx" on testnet. The payload is always the
// 20-byte public key hash, so encoded addresses sit well under the 90
// character bech32 limit.

// bech32Alphabet is the 32-character data alphabet.
const bech32Alphabet = "qpzry9x8gf2tvdw0s3jn54khce6mua7l"

// bech32MaxLen caps a full encoded string per BIP-173.
const bech32MaxLen = 90

// bech32Gen holds the checksum generator coefficients.
var bech32Gen = [5]uint32{0x3b6a57b2, 0x26508e6d, 0x1ea119fa, 0x3d4233dd, 0x2a1462b3}

// bech32Encode renders hrp plus payload as a checksummed bech32 string.
func bech32Encode(hrp string, payload []byte) (string, error) {
	if hrp == "" {
		return "", fmt.Errorf("bech32: empty HRP")
	}
	for _, c := range hrp {
		if c < 33 || c > 126 {
			return "", fmt.Errorf("bech32: HRP character %q out of range", c)
		}
	}

	groups, err := regroupBits(payload, 8, 5, true)
	if err != nil {
		return "", fmt.Errorf("bech32: %w", err)
	}
	groups = append(groups, bech32Checksum(hrp, groups)...)

	var sb strings.Builder
	sb.Grow(len(hrp) + 1 + len(groups))
	sb.WriteString(hrp)
	sb.WriteByte('1')
	for _, g := range groups {
		sb.WriteByte(bech32Alphabet[g])
	}
	if sb.Len() > bech32MaxLen {
		return "", fmt.Errorf("bech32: encoded length %d exceeds %d", sb.Len(), bech32MaxLen)
	}
	return sb.String(), nil
}

// bech32Decode splits and verifies a bech32 string, returning the HRP and
// the decoded payload.
func bech32Decode(s string) (string, []byte, error) {
	switch {
	case s == "":
		return "", nil, fmt.Errorf("bech32: empty string")
	case len(s) > bech32MaxLen:
		return "", nil, fmt.Errorf("bech32: length %d exceeds %d", len(s), bech32MaxLen)
	case strings.ToLower(s) != s && strings.ToUpper(s) != s:
		return "", nil, fmt.Errorf("bech32: mixed case")
	}
	s = strings.ToLower(s)

	sep := strings.LastIndexByte(s, '1')
	if sep < 1 {
		return "", nil, fmt.Errorf("bech32: missing separator")
	}
	hrp, rest := s[:sep], s[sep+1:]
	if len(rest) < 6 {
		return "", nil, fmt.Errorf("bech32: truncated checksum")
	}

	groups := make([]byte, len(rest))
	for i := 0; i < len(rest); i++ {
		v := strings.IndexByte(bech32Alphabet, rest[i])
		if v < 0 {
			return "", nil, fmt.Errorf("bech32: invalid character %q", rest[i])
		}
		groups[i] = byte(v)
	}
	if bech32Polymod(hrp, groups, false) != 1 {
		return "", nil, fmt.Errorf("bech32: checksum mismatch")
	}

	payload, err := regroupBits(groups[:len(groups)-6], 5, 8, false)
	if err != nil {
		return "", nil, fmt.Errorf("bech32: %w", err)
	}
	return hrp, payload, nil
}

// bech32Polymod runs the BCH checksum polynomial over the expanded HRP
// and the data groups. A well-formed full string evaluates to 1. With
// pad set, six zero groups are appended for checksum derivation.
func bech32Polymod(hrp string, groups []byte, pad bool) uint32 {
	chk := uint32(1)
	step := func(v byte) {
		top := chk >> 25
		chk = (chk&0x1ffffff)<<5 ^ uint32(v)
		for i := uint(0); i < 5; i++ {
			if top>>i&1 == 1 {
				chk ^= bech32Gen[i]
			}
		}
	}
	for i := 0; i < len(hrp); i++ {
		step(hrp[i] >> 5)
	}
	step(0)
	for i := 0; i < len(hrp); i++ {
		step(hrp[i] & 31)
	}
	for _, g := range groups {
		step(g)
	}
	if pad {
		for i := 0; i < 6; i++ {
			step(0)
		}
	}
	return chk
}

// bech32Checksum derives the six checksum groups for hrp plus data.
func bech32Checksum(hrp string, groups []byte) []byte {
	mod := bech32Polymod(hrp, groups, true) ^ 1
	chk := make([]byte, 6)
	for i := range chk {
		chk[i] = byte(mod >> uint(5*(5-i)) & 31)
	}
	return chk
}

// regroupBits repacks a byte stream from "from"-bit groups into "to"-bit
// groups. Encoding zero-pads the final group; decoding requires the
// padding to be empty.
func regroupBits(in []byte, from, to uint, pad bool) ([]byte, error) {
	var acc uint32
	var n uint
	mask := uint32(1)<<to - 1
	out := make([]byte, 0, (len(in)*int(from)+int(to)-1)/int(to))

	for _, b := range in {
		if uint32(b) >= 1<<from {
			return nil, fmt.Errorf("value %d exceeds %d bits", b, from)
		}
		acc = acc<<from | uint32(b)
		n += from
		for n >= to {
			n -= to
			out = append(out, byte(acc>>n&mask))
		}
	}

	if pad {
		if n > 0 {
			out = append(out, byte(acc<<(to-n)&mask))
		}
	} else if n >= from || acc<<(to-n)&mask != 0 {
		return nil, fmt.Errorf("invalid padding")
	}
	return out, nil
}
