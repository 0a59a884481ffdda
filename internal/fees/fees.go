// Package fees computes the wallet's service fees: a percentage cut taken
// from transfers and rerouted to a collector account, and query cost
// ceilings with a slippage margin.
package fees

import (
	"fmt"

	"github.com/Klingon-tech/klingnet-wallet/pkg/types"
	"github.com/shopspring/decimal"
)

// FeePrecision is the decimal precision query fees are rounded to. It
// matches the native asset's minimum representable unit (10^-8).
const FeePrecision = 8

// transferFeeRoundPlaces is the rounding applied to per-transfer service
// fees, in human display units, before amounts are scaled to raw units.
const transferFeeRoundPlaces = 2

// costSlippage is the margin applied to query cost ceilings: quotes go
// through a price oracle with latency, so the spot price can move between
// quote and execution.
var costSlippage = decimal.RequireFromString("1.05")

var oneHundred = decimal.NewFromInt(100)

// Spec describes how the service fee is taken.
type Spec struct {
	// PercentageCut is the fee percentage, 0-100.
	PercentageCut decimal.Decimal
	// Collector receives the rerouted fee.
	Collector types.AccountID
}

// Validate checks the spec's bounds.
func (s Spec) Validate() error {
	if s.PercentageCut.IsNegative() || s.PercentageCut.GreaterThan(oneHundred) {
		return fmt.Errorf("percentage cut %s out of range [0,100]", s.PercentageCut)
	}
	if s.PercentageCut.IsPositive() && s.Collector.IsZero() {
		return fmt.Errorf("fee cut %s%% configured without a collector account", s.PercentageCut)
	}
	return nil
}

// Enabled reports whether any fee is taken.
func (s Spec) Enabled() bool {
	return s.PercentageCut.IsPositive() && !s.Collector.IsZero()
}

// QueryQuote is the result of QueryFee.
type QueryQuote struct {
	// ServiceFee is the cut owed on the quoted cost.
	ServiceFee decimal.Decimal
	// MaxCost is the spend ceiling to declare: quoted cost plus service
	// fee, padded by the slippage margin.
	MaxCost decimal.Decimal
}

// QueryFee computes the service fee and padded cost ceiling for a query
// whose network cost was quoted as ledgerQuotedCost (in native display
// units). Both results are rounded to FeePrecision decimal places.
func QueryFee(ledgerQuotedCost, percentageCut decimal.Decimal) QueryQuote {
	serviceFee := ledgerQuotedCost.Mul(percentageCut).Div(oneHundred)
	maxCost := ledgerQuotedCost.Add(serviceFee).Mul(costSlippage)
	return QueryQuote{
		ServiceFee: serviceFee.Round(FeePrecision),
		MaxCost:    maxCost.Round(FeePrecision),
	}
}

// TransferFee computes the service fee on a transfer amount (in the
// asset's human display units), rounded to two decimal places. The
// instruction's effective transferred amount is amount minus this fee.
func TransferFee(amount, percentageCut decimal.Decimal) decimal.Decimal {
	return amount.Mul(percentageCut).Div(oneHundred).Round(transferFeeRoundPlaces)
}
