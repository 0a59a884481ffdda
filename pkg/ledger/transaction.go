package ledger

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Klingon-tech/klingnet-wallet/pkg/crypto"
	"github.com/Klingon-tech/klingnet-wallet/pkg/keys"
	"github.com/Klingon-tech/klingnet-wallet/pkg/types"
)

// Kind is the transaction body type.
type Kind uint8

// Transaction kinds.
const (
	KindTransfer Kind = iota + 1
	KindAssociate
	KindStake
	KindAllowanceApprove
	KindAllowanceRevoke
	KindAccountDelete
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindTransfer:
		return "transfer"
	case KindAssociate:
		return "associate"
	case KindStake:
		return "stake"
	case KindAllowanceApprove:
		return "allowance_approve"
	case KindAllowanceRevoke:
		return "allowance_revoke"
	case KindAccountDelete:
		return "account_delete"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// MaxMemoLength is the ledger's memo size limit in bytes.
const MaxMemoLength = 100

// Leg is a single signed balance change: positive amounts credit the
// account, negative amounts debit it. Amounts are in the asset's lowest
// denomination.
type Leg struct {
	Asset   types.AssetID   `json:"asset"`
	Account types.AccountID `json:"account"`
	Amount  int64           `json:"amount"`
}

// StakeTarget selects what the operator stakes to. Exactly one of NodeID or
// Delegate is set; both nil clears any existing staking election.
type StakeTarget struct {
	NodeID   *uint64          `json:"node_id,omitempty"`
	Delegate *types.AccountID `json:"delegate,omitempty"`
}

// Allowance authorizes (or, for revocations, de-authorizes) a spender to
// move the operator's holdings. AllSerials grants an NFT collection-wide
// allowance; Amount is ignored in that case.
type Allowance struct {
	Asset      types.AssetID   `json:"asset"`
	Spender    types.AccountID `json:"spender,omitempty"`
	Amount     int64           `json:"amount"`
	AllSerials bool            `json:"all_serials,omitempty"`
}

// Body is the signed content of a transaction. Exactly one kind-specific
// section is populated, matching Kind.
type Body struct {
	Kind       Kind            `json:"kind"`
	Operator   types.AccountID `json:"operator"`
	Node       string          `json:"node,omitempty"`
	ValidStart time.Time       `json:"valid_start"`
	MaxFee     uint64          `json:"max_fee"`
	Memo       string          `json:"memo,omitempty"`

	Transfers  []Leg            `json:"transfers,omitempty"`
	Associate  []types.AssetID  `json:"associate,omitempty"`
	Stake      *StakeTarget     `json:"stake,omitempty"`
	Allowance  *Allowance       `json:"allowance,omitempty"`
	TransferTo *types.AccountID `json:"transfer_to,omitempty"`
}

// Signature is a detached signature over the transaction's signing bytes.
type Signature struct {
	Curve     crypto.Curve
	PublicKey []byte
	Sig       []byte
}

// signatureJSON is the JSON representation with hex-encoded byte fields.
type signatureJSON struct {
	Curve     crypto.Curve `json:"curve"`
	PublicKey string       `json:"public_key"`
	Sig       string       `json:"sig"`
}

// MarshalJSON encodes the signature with hex byte fields.
func (s Signature) MarshalJSON() ([]byte, error) {
	return json.Marshal(signatureJSON{
		Curve:     s.Curve,
		PublicKey: hex.EncodeToString(s.PublicKey),
		Sig:       hex.EncodeToString(s.Sig),
	})
}

// UnmarshalJSON decodes a signature with hex byte fields.
func (s *Signature) UnmarshalJSON(data []byte) error {
	var j signatureJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	pub, err := hex.DecodeString(j.PublicKey)
	if err != nil {
		return fmt.Errorf("invalid public key hex: %w", err)
	}
	sig, err := hex.DecodeString(j.Sig)
	if err != nil {
		return fmt.Errorf("invalid signature hex: %w", err)
	}
	s.Curve = j.Curve
	s.PublicKey = pub
	s.Sig = sig
	return nil
}

// Transaction is a body plus its collected signatures. A transaction must
// be frozen (network parameters attached) before it can be signed, and the
// body is immutable from then on.
type Transaction struct {
	Body       Body        `json:"body"`
	Signatures []Signature `json:"signatures,omitempty"`

	frozen bool
}

// NewTransaction wraps a body in an unfrozen transaction.
func NewTransaction(body Body) *Transaction {
	return &Transaction{Body: body}
}

// Frozen reports whether network parameters have been attached.
func (t *Transaction) Frozen() bool {
	return t.frozen
}

// Freeze attaches the target node and validity start and seals the body.
func (t *Transaction) Freeze(node string, validStart time.Time) error {
	if t.frozen {
		return fmt.Errorf("transaction already frozen")
	}
	if t.Body.Operator.IsZero() {
		return fmt.Errorf("transaction has no operator")
	}
	if len(t.Body.Memo) > MaxMemoLength {
		return fmt.Errorf("memo exceeds %d bytes", MaxMemoLength)
	}
	t.Body.Node = node
	t.Body.ValidStart = validStart.UTC()
	t.frozen = true
	return nil
}

// SignWith signs the frozen transaction with the signer's key at index and
// appends the signature.
func (t *Transaction) SignWith(ctx context.Context, signer keys.Signer, index int32) error {
	if !t.frozen {
		return fmt.Errorf("sign before freeze")
	}
	msg := t.SigningBytes()
	sig, err := signer.Sign(ctx, index, msg)
	if err != nil {
		return fmt.Errorf("sign %s transaction: %w", t.Body.Kind, err)
	}
	pub, ok := signer.PublicKey(index)
	if !ok {
		return fmt.Errorf("no public key at index %d", index)
	}
	t.Signatures = append(t.Signatures, Signature{
		Curve:     signer.Curve(),
		PublicKey: pub,
		Sig:       sig,
	})
	return nil
}

// Hash computes the transaction ID hash (BLAKE3 of the signing bytes).
func (t *Transaction) Hash() types.Hash {
	return crypto.Hash(t.SigningBytes())
}

// ID returns the transaction identifier: operator account + validity start.
func (t *Transaction) ID() TransactionID {
	return NewTransactionID(t.Body.Operator, t.Body.ValidStart)
}

// SigningBytes returns the canonical byte representation of the body used
// for signing. Signatures are excluded. All integers are little-endian;
// variable-length fields are length-prefixed.
func (t *Transaction) SigningBytes() []byte {
	var buf []byte

	buf = append(buf, byte(t.Body.Kind))
	buf = appendString(buf, string(t.Body.Operator))
	buf = binary.LittleEndian.AppendUint64(buf, uint64(t.Body.ValidStart.UnixNano()))
	buf = binary.LittleEndian.AppendUint64(buf, t.Body.MaxFee)
	buf = appendString(buf, t.Body.Memo)
	buf = appendString(buf, t.Body.Node)

	switch t.Body.Kind {
	case KindTransfer:
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(t.Body.Transfers)))
		for _, leg := range t.Body.Transfers {
			buf = appendString(buf, string(leg.Asset))
			buf = appendString(buf, string(leg.Account))
			buf = binary.LittleEndian.AppendUint64(buf, uint64(leg.Amount))
		}
	case KindAssociate:
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(t.Body.Associate)))
		for _, asset := range t.Body.Associate {
			buf = appendString(buf, string(asset))
		}
	case KindStake:
		switch {
		case t.Body.Stake == nil:
			buf = append(buf, 0)
		case t.Body.Stake.NodeID != nil:
			buf = append(buf, 1)
			buf = binary.LittleEndian.AppendUint64(buf, *t.Body.Stake.NodeID)
		case t.Body.Stake.Delegate != nil:
			buf = append(buf, 2)
			buf = appendString(buf, string(*t.Body.Stake.Delegate))
		default:
			buf = append(buf, 0)
		}
	case KindAllowanceApprove, KindAllowanceRevoke:
		if a := t.Body.Allowance; a != nil {
			buf = appendString(buf, string(a.Asset))
			buf = appendString(buf, string(a.Spender))
			buf = binary.LittleEndian.AppendUint64(buf, uint64(a.Amount))
			if a.AllSerials {
				buf = append(buf, 1)
			} else {
				buf = append(buf, 0)
			}
		}
	case KindAccountDelete:
		if t.Body.TransferTo != nil {
			buf = appendString(buf, string(*t.Body.TransferTo))
		}
	}

	return buf
}

// ValidateBalanced checks the zero-sum invariant: for every asset in a
// transfer body, credits and debits cancel exactly. The network rejects
// unbalanced transactions, so a violation here is a programming error in
// the builder, not a user input problem.
func (t *Transaction) ValidateBalanced() error {
	if t.Body.Kind != KindTransfer {
		return nil
	}
	sums := make(map[types.AssetID]int64)
	for _, leg := range t.Body.Transfers {
		sums[leg.Asset] += leg.Amount
	}
	for asset, sum := range sums {
		if sum != 0 {
			return fmt.Errorf("asset %s is unbalanced by %d raw units", asset, sum)
		}
	}
	return nil
}

// appendString appends a length-prefixed string.
func appendString(buf []byte, s string) []byte {
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(s)))
	return append(buf, s...)
}
