package client

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"github.com/Klingon-tech/klingnet-wallet/pkg/ledger"
)

// TxReceipt is the canonical, normalized confirmation record returned by
// every mutating operation. All arbitrary-precision integers are decimal
// strings (never truncated to a machine integer) and all byte fields are
// lower-case hex without a prefix. Normalization is idempotent: a receipt
// already in canonical form normalizes to itself.
type TxReceipt struct {
	Status string `json:"status"`

	AccountID  string `json:"account_id,omitempty"`
	TokenID    string `json:"token_id,omitempty"`
	TopicID    string `json:"topic_id,omitempty"`
	ContractID string `json:"contract_id,omitempty"`
	FileID     string `json:"file_id,omitempty"`
	ScheduleID string `json:"schedule_id,omitempty"`

	ExchangeRate *ExchangeRate `json:"exchange_rate,omitempty"`

	TopicSequenceNumber uint64 `json:"topic_sequence_number,omitempty"`
	RunningHash         string `json:"running_hash,omitempty"`

	TotalSupply string `json:"total_supply,omitempty"`

	ScheduledTransactionID string `json:"scheduled_transaction_id,omitempty"`

	Serials    []uint64 `json:"serials,omitempty"`
	Duplicates []string `json:"duplicates,omitempty"`
	Children   []string `json:"children,omitempty"`
}

// ExchangeRate is the native-to-cents rate in effect when the transaction
// executed.
type ExchangeRate struct {
	NativeEquiv int64 `json:"native_equiv"`
	CentsEquiv  int64 `json:"cents_equiv"`
	Expiration  int64 `json:"expiration"`
}

// Normalize converts a raw node receipt into the canonical form.
func Normalize(r *ledger.Receipt) (*TxReceipt, error) {
	if r == nil {
		return nil, fmt.Errorf("nil receipt")
	}

	out := &TxReceipt{
		Status:                 r.Status.String(),
		AccountID:              r.AccountID.String(),
		TokenID:                strings.ToLower(r.TokenID),
		TopicID:                strings.ToLower(r.TopicID),
		ContractID:             strings.ToLower(r.ContractID),
		FileID:                 strings.ToLower(r.FileID),
		ScheduleID:             strings.ToLower(r.ScheduleID),
		TopicSequenceNumber:    r.TopicSequenceNumber,
		ScheduledTransactionID: r.ScheduledTransactionID,
	}

	if r.ExchangeRate != nil {
		out.ExchangeRate = &ExchangeRate{
			NativeEquiv: r.ExchangeRate.NativeEquiv,
			CentsEquiv:  r.ExchangeRate.CentsEquiv,
			Expiration:  r.ExchangeRate.Expiration,
		}
	}

	if r.TopicRunningHash != "" {
		h, err := normalizeHex(r.TopicRunningHash)
		if err != nil {
			return nil, fmt.Errorf("running hash: %w", err)
		}
		out.RunningHash = h
	}

	if r.TotalSupply != "" {
		supply, err := normalizeWideInt(string(r.TotalSupply))
		if err != nil {
			return nil, fmt.Errorf("total supply: %w", err)
		}
		out.TotalSupply = supply
	}

	if len(r.Serials) > 0 {
		out.Serials = append([]uint64(nil), r.Serials...)
	}
	for _, d := range r.Duplicates {
		out.Duplicates = append(out.Duplicates, d.String())
	}
	for _, c := range r.Children {
		out.Children = append(out.Children, c.String())
	}

	return out, nil
}

// normalizeHex canonicalizes a byte-field encoding to lower-case hex with
// no prefix. Accepts "0x"-prefixed hex, bare hex in either case, or
// standard base64 (some node versions emitted that).
func normalizeHex(s string) (string, error) {
	trimmed := strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if b, err := hex.DecodeString(trimmed); err == nil {
		return hex.EncodeToString(b), nil
	}
	if b, err := base64.StdEncoding.DecodeString(s); err == nil {
		return hex.EncodeToString(b), nil
	}
	return "", fmt.Errorf("value %q is neither hex nor base64", s)
}

// normalizeWideInt renders an arbitrary-precision integer as a decimal
// string. Scientific notation and fractions are rejected: supplies are
// integers on the wire.
func normalizeWideInt(s string) (string, error) {
	n, ok := new(big.Int).SetString(strings.TrimSpace(s), 10)
	if !ok {
		return "", fmt.Errorf("value %q is not a decimal integer", s)
	}
	return n.String(), nil
}
