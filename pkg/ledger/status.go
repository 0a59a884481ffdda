// Package ledger defines the wire-level transaction model and the status
// codes the Klingnet ledger answers with.
package ledger

// Status is a ledger transaction status code.
type Status string

// Status codes the wallet engine consumes. The set mirrors the node's
// precheck and consensus responses; anything else arrives as-is and is
// treated as a rejection.
const (
	// StatusOK is the general success status.
	StatusOK Status = "OK"

	// StatusInsufficientTxFee: the declared max fee is below the network-
	// computed fee. The signature was accepted before fees were checked.
	StatusInsufficientTxFee Status = "INSUFFICIENT_TX_FEE"

	// StatusInsufficientPayerBalance: the payer cannot cover the fee. As
	// with StatusInsufficientTxFee, authorization already succeeded.
	StatusInsufficientPayerBalance Status = "INSUFFICIENT_PAYER_BALANCE"

	// StatusInvalidSignature: a required signature is missing or does not
	// verify against the account's key.
	StatusInvalidSignature Status = "INVALID_SIGNATURE"

	// StatusInvalidAccount: a referenced account does not exist.
	StatusInvalidAccount Status = "INVALID_ACCOUNT"

	// StatusAccountDeleted: the referenced account was deleted.
	StatusAccountDeleted Status = "ACCOUNT_DELETED"

	// StatusInvalidTransaction: the transaction is malformed or unbalanced.
	StatusInvalidTransaction Status = "INVALID_TRANSACTION"

	// StatusDuplicateTransaction: the transaction ID was already seen.
	StatusDuplicateTransaction Status = "DUPLICATE_TRANSACTION"

	// StatusTokenNotAssociated: the account has not associated the token.
	StatusTokenNotAssociated Status = "TOKEN_NOT_ASSOCIATED"

	// StatusInsufficientTokenBalance: the sender holds too little of the
	// token.
	StatusInsufficientTokenBalance Status = "INSUFFICIENT_TOKEN_BALANCE"

	// StatusReceiptNotFound: the receipt is not (yet) available.
	StatusReceiptNotFound Status = "RECEIPT_NOT_FOUND"

	// StatusBusy: the node is overloaded; resubmit later.
	StatusBusy Status = "BUSY"

	// StatusUnknown: the transaction's outcome is not known.
	StatusUnknown Status = "UNKNOWN"
)

// OK reports whether the status is the success status.
func (s Status) OK() bool {
	return s == StatusOK
}

// FeeExhausted reports whether the transaction failed purely for fee or
// fee-balance reasons. For these two codes the signature had already been
// accepted, which is what the operator probe relies on.
func (s Status) FeeExhausted() bool {
	return s == StatusInsufficientTxFee || s == StatusInsufficientPayerBalance
}

// Retryable reports whether the same request may be re-issued without
// building a new transaction. Only pre-submit node congestion and
// not-yet-available receipts qualify.
func (s Status) Retryable() bool {
	return s == StatusBusy || s == StatusReceiptNotFound || s == StatusUnknown
}

// String returns the status code.
func (s Status) String() string {
	return string(s)
}
