package ledger

import (
	"encoding/json"

	"github.com/Klingon-tech/klingnet-wallet/pkg/types"
)

// Receipt is the node's raw confirmation record for a transaction, exactly
// as received. Numeric fields that can exceed 64 bits arrive as
// json.Number; byte fields arrive in whatever encoding the node used.
// Client code normalizes receipts before exposing them (see
// internal/client).
type Receipt struct {
	Status Status `json:"status"`

	// Created-entity identifiers, set when the transaction created one.
	AccountID  types.AccountID `json:"account_id,omitempty"`
	TokenID    string          `json:"token_id,omitempty"`
	TopicID    string          `json:"topic_id,omitempty"`
	ContractID string          `json:"contract_id,omitempty"`
	FileID     string          `json:"file_id,omitempty"`
	ScheduleID string          `json:"schedule_id,omitempty"`

	ExchangeRate *ExchangeRate `json:"exchange_rate,omitempty"`

	// Topic bookkeeping for consensus-service submissions.
	TopicSequenceNumber uint64 `json:"topic_sequence_number,omitempty"`
	TopicRunningHash    string `json:"topic_running_hash,omitempty"`

	// TotalSupply is the token supply after a mint/burn; arbitrary
	// precision, never parsed into a machine integer here.
	TotalSupply json.Number `json:"total_supply,omitempty"`

	ScheduledTransactionID string `json:"scheduled_transaction_id,omitempty"`

	Serials    []uint64        `json:"serials,omitempty"`
	Duplicates []TransactionID `json:"duplicates,omitempty"`
	Children   []TransactionID `json:"children,omitempty"`
}

// ExchangeRate is the native-to-cents rate the network applied.
type ExchangeRate struct {
	NativeEquiv int64 `json:"native_equiv"`
	CentsEquiv  int64 `json:"cents_equiv"`
	Expiration  int64 `json:"expiration"`
}
