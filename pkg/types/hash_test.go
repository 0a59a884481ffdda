package types

import (
	"strings"
	"testing"
)

func TestHash_IsZero(t *testing.T) {
	var zero Hash
	if !zero.IsZero() {
		t.Error("zero-value Hash should be zero")
	}
	if (Hash{0x01}).IsZero() {
		t.Error("non-zero Hash should not be zero")
	}
}

func TestHash_String(t *testing.T) {
	var h Hash
	if s := h.String(); s != strings.Repeat("0", 64) {
		t.Errorf("zero hash String() = %s", s)
	}

	h[0], h[31] = 0xab, 0xcd
	s := h.String()
	if !strings.HasPrefix(s, "ab") || !strings.HasSuffix(s, "cd") {
		t.Errorf("String() = %s, want ab...cd", s)
	}
}

func TestHash_BytesCopy(t *testing.T) {
	h := Hash{0x01, 0x02, 0x03}
	b := h.Bytes()
	if len(b) != HashSize {
		t.Fatalf("Bytes() length = %d, want %d", len(b), HashSize)
	}
	b[0] = 0xff
	if h[0] == 0xff {
		t.Error("Bytes() should return a copy, not a reference")
	}
}

func TestHexToHash(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid 64 hex chars", "af1349b9f5f9a1a6a0404dea36dcc9499bcb25c9adc112b7cc9a93cae41f3262", false},
		{"all zeros", strings.Repeat("0", 64), false},
		{"too short", "abcd", true},
		{"too long", strings.Repeat("a", 66), true},
		{"invalid hex character", strings.Repeat("g", 64), true},
		{"empty", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := HexToHash(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("HexToHash(%q) should have failed", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("HexToHash(%q): %v", tt.input, err)
			}
			if h.String() != tt.input {
				t.Errorf("roundtrip: got %s, want %s", h.String(), tt.input)
			}
		})
	}
}

func TestTokenID(t *testing.T) {
	var zero TokenID
	if !zero.IsZero() {
		t.Error("zero-value TokenID should be zero")
	}

	tid := TokenID{0xde, 0xad}
	if tid.IsZero() {
		t.Error("non-zero TokenID should not be zero")
	}
	if s := tid.String(); !strings.HasPrefix(s, "dead") {
		t.Errorf("TokenID.String() = %s, want dead prefix", s)
	}
}
