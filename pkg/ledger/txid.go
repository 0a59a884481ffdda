package ledger

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Klingon-tech/klingnet-wallet/pkg/types"
)

// TransactionID identifies a transaction: the paying operator account plus
// the validity-start timestamp, rendered "account@unixNanos".
type TransactionID string

// NewTransactionID builds a transaction ID.
func NewTransactionID(operator types.AccountID, validStart time.Time) TransactionID {
	return TransactionID(fmt.Sprintf("%s@%d", operator, validStart.UTC().UnixNano()))
}

// String returns the transaction ID.
func (id TransactionID) String() string {
	return string(id)
}

// Parse splits the ID into its operator and validity start.
func (id TransactionID) Parse() (types.AccountID, time.Time, error) {
	parts := strings.SplitN(string(id), "@", 2)
	if len(parts) != 2 {
		return "", time.Time{}, fmt.Errorf("malformed transaction id %q", id)
	}
	operator, err := types.ParseAccountID(parts[0])
	if err != nil {
		return "", time.Time{}, fmt.Errorf("transaction id %q: %w", id, err)
	}
	nanos, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("transaction id %q: invalid timestamp: %w", id, err)
	}
	return operator, time.Unix(0, nanos).UTC(), nil
}
