// Package transfer assembles balanced, decimal-scaled, multi-asset transfer
// transactions, deducting and rerouting the service fee per instruction.
package transfer

import (
	"context"
	"fmt"
	"sort"

	"github.com/Klingon-tech/klingnet-wallet/internal/fees"
	"github.com/Klingon-tech/klingnet-wallet/internal/log"
	"github.com/Klingon-tech/klingnet-wallet/pkg/errs"
	"github.com/Klingon-tech/klingnet-wallet/pkg/ledger"
	"github.com/Klingon-tech/klingnet-wallet/pkg/types"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// Instruction is one requested movement of value. Amount is in the asset's
// human display units; the builder resolves decimals and scales it. From,
// when set, requests a delegated (allowance) transfer debiting that account
// instead of the operator.
type Instruction struct {
	Asset  types.AssetID
	From   types.AccountID
	To     types.AccountID
	Amount decimal.Decimal
}

// DecimalsResolver looks up an asset's declared decimal precision. The
// builder calls it once per distinct token asset in a batch; the native
// asset never hits the resolver.
type DecimalsResolver func(ctx context.Context, asset types.AssetID) (uint32, error)

// BalanceSource reports the operator's cached balance for an asset in human
// display units. The second return is false when no cached balance is known.
type BalanceSource interface {
	Balance(asset types.AssetID) (decimal.Decimal, bool)
}

// FeeLedger maps each asset to the total service fee taken from it in one
// batch, in the asset's lowest denomination.
type FeeLedger map[types.AssetID]int64

// Options tune one Build call.
type Options struct {
	Memo   string
	MaxFee uint64

	// AllowUnverifiedBalance proceeds past a cached-balance shortfall.
	// The network is the final authority on balance sufficiency; callers
	// set this only after an explicit user confirmation.
	AllowUnverifiedBalance bool
}

// InsufficientBalanceError reports a cached-balance shortfall found during
// preflight. It is a warning-grade condition: the caller may confirm and
// rebuild with AllowUnverifiedBalance.
type InsufficientBalanceError struct {
	Asset types.AssetID
	Need  decimal.Decimal
	Have  decimal.Decimal
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("cached balance of %s is %s, need %s", e.Asset, e.Have, e.Need)
}

// Builder assembles transfer transactions for one operator account.
type Builder struct {
	operator types.AccountID
	feeSpec  fees.Spec
	resolve  DecimalsResolver
	balances BalanceSource
	logger   zerolog.Logger
}

// NewBuilder creates a builder. balances may be nil to skip the cached
// balance preflight.
func NewBuilder(operator types.AccountID, feeSpec fees.Spec, resolve DecimalsResolver, balances BalanceSource) (*Builder, error) {
	if operator.IsZero() {
		return nil, fmt.Errorf("builder needs an operator account")
	}
	if resolve == nil {
		return nil, fmt.Errorf("builder needs a decimals resolver")
	}
	if err := feeSpec.Validate(); err != nil {
		return nil, fmt.Errorf("fee spec: %w", err)
	}
	return &Builder{
		operator: operator,
		feeSpec:  feeSpec,
		resolve:  resolve,
		balances: balances,
		logger:   log.Transfer,
	}, nil
}

// Build produces one balanced transfer transaction from the instructions,
// plus the per-asset fee ledger. No network submission happens here; all
// failures are pre-flight.
func (b *Builder) Build(ctx context.Context, instructions []Instruction, opts Options) (*ledger.Transaction, FeeLedger, error) {
	const op = "transfer.Build"

	if len(instructions) == 0 {
		return nil, nil, errs.New(errs.ClassValidation, op, "no instructions")
	}
	for i, ins := range instructions {
		if ins.To.IsZero() {
			return nil, nil, errs.New(errs.ClassValidation, op, "instruction %d has no recipient", i).
				WithAsset(ins.Asset.String())
		}
		if !ins.Amount.IsPositive() {
			return nil, nil, errs.New(errs.ClassValidation, op, "instruction %d amount %s is not positive", i, ins.Amount).
				WithAsset(ins.Asset.String()).WithAccount(ins.To.String())
		}
		if _, err := types.ParseAssetID(ins.Asset.String()); err != nil {
			return nil, nil, errs.Wrap(errs.ClassValidation, op, err)
		}
	}

	// Resolve every distinct token's decimals before scaling anything: a
	// late lookup failure must abort the whole batch, native instructions
	// included.
	decimals, err := b.resolveDecimals(ctx, instructions)
	if err != nil {
		return nil, nil, err
	}

	type senderKey struct {
		asset  types.AssetID
		sender types.AccountID
	}

	var credits []ledger.Leg
	debits := make(map[senderKey]int64)
	feeTotals := make(FeeLedger)
	operatorNeeds := make(map[types.AssetID]decimal.Decimal)

	for i, ins := range instructions {
		dec := decimals[ins.Asset]

		fee := decimal.Zero
		if b.feeSpec.Enabled() {
			fee = fees.TransferFee(ins.Amount, b.feeSpec.PercentageCut)
		}
		effective := ins.Amount.Sub(fee)
		if effective.IsNegative() {
			return nil, nil, errs.New(errs.ClassValidation, op,
				"instruction %d: fee %s exceeds amount %s", i, fee, ins.Amount).
				WithAsset(ins.Asset.String()).WithAccount(ins.To.String())
		}

		effectiveRaw, err := scaleToRaw(effective, dec)
		if err != nil {
			return nil, nil, errs.Wrap(errs.ClassValidation, op, err).WithAsset(ins.Asset.String())
		}
		feeRaw, err := scaleToRaw(fee, dec)
		if err != nil {
			return nil, nil, errs.Wrap(errs.ClassValidation, op, err).WithAsset(ins.Asset.String())
		}

		sender := b.operator
		if !ins.From.IsZero() {
			sender = ins.From
		}

		credits = append(credits, ledger.Leg{Asset: ins.Asset, Account: ins.To, Amount: effectiveRaw})
		if feeRaw > 0 {
			credits = append(credits, ledger.Leg{Asset: ins.Asset, Account: b.feeSpec.Collector, Amount: feeRaw})
			feeTotals[ins.Asset] += feeRaw
		}
		debits[senderKey{ins.Asset, sender}] -= effectiveRaw + feeRaw

		if sender == b.operator {
			operatorNeeds[ins.Asset] = operatorNeeds[ins.Asset].Add(ins.Amount)
		}
	}

	// Cached-balance preflight for the operator's own debits. A shortfall
	// is a warning, not a ledger error; the network decides for real.
	if b.balances != nil && !opts.AllowUnverifiedBalance {
		for asset, need := range operatorNeeds {
			have, known := b.balances.Balance(asset)
			if known && have.LessThan(need) {
				cause := &InsufficientBalanceError{Asset: asset, Need: need, Have: have}
				return nil, nil, errs.Wrap(errs.ClassValidation, op, cause).
					WithAsset(asset.String()).WithAccount(b.operator.String())
			}
		}
	}

	// One aggregated debit per (asset, sender), in deterministic order so
	// signing bytes are stable.
	keys := make([]senderKey, 0, len(debits))
	for k := range debits {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].asset != keys[j].asset {
			return keys[i].asset < keys[j].asset
		}
		return keys[i].sender < keys[j].sender
	})

	legs := credits
	for _, k := range keys {
		legs = append(legs, ledger.Leg{Asset: k.asset, Account: k.sender, Amount: debits[k]})
	}

	tx := ledger.NewTransaction(ledger.Body{
		Kind:      ledger.KindTransfer,
		Operator:  b.operator,
		MaxFee:    opts.MaxFee,
		Memo:      opts.Memo,
		Transfers: legs,
	})
	if err := tx.ValidateBalanced(); err != nil {
		// The debits are computed as the negated credit sums, so an
		// imbalance here is a defect in this builder.
		return nil, nil, errs.Wrap(errs.ClassInvariant, op, err).WithAccount(b.operator.String())
	}

	b.logger.Debug().
		Int("instructions", len(instructions)).
		Int("legs", len(legs)).
		Str("operator", b.operator.String()).
		Msg("transfer built")

	return tx, feeTotals, nil
}

// resolveDecimals returns the decimal precision for every distinct asset in
// the batch. Token lookups run concurrently; all must succeed before any
// amount is scaled.
func (b *Builder) resolveDecimals(ctx context.Context, instructions []Instruction) (map[types.AssetID]uint32, error) {
	const op = "transfer.Build"

	distinct := make([]types.AssetID, 0, len(instructions))
	seen := make(map[types.AssetID]bool)
	for _, ins := range instructions {
		if !seen[ins.Asset] {
			seen[ins.Asset] = true
			distinct = append(distinct, ins.Asset)
		}
	}

	resolved := make([]uint32, len(distinct))
	g, gctx := errgroup.WithContext(ctx)
	for i, asset := range distinct {
		if asset.IsNative() {
			resolved[i] = types.NativeDecimals
			continue
		}
		i, asset := i, asset
		g.Go(func() error {
			dec, err := b.resolve(gctx, asset)
			if err != nil {
				return fmt.Errorf("resolve decimals for %s: %w", asset, err)
			}
			resolved[i] = dec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		// Never default a token's decimals: a silent zero would misscale
		// amounts by orders of magnitude.
		return nil, errs.Wrap(errs.ClassValidation, op, err)
	}

	out := make(map[types.AssetID]uint32, len(distinct))
	for i, asset := range distinct {
		out[asset] = resolved[i]
	}
	return out, nil
}

// scaleToRaw converts a human display amount to the asset's lowest
// denomination: round(amount * 10^decimals).
func scaleToRaw(amount decimal.Decimal, decimals uint32) (int64, error) {
	scaled := amount.Shift(int32(decimals)).Round(0)
	if !scaled.BigInt().IsInt64() {
		return 0, fmt.Errorf("amount %s at %d decimals overflows 64 bits", amount, decimals)
	}
	raw := scaled.IntPart()
	if raw < 0 {
		return 0, fmt.Errorf("amount %s at %d decimals is negative", amount, decimals)
	}
	return raw, nil
}
