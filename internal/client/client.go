// Package client exposes the wallet's public ledger operations for one
// verified operator identity: transfers, token association, staking,
// allowances, account deletion, and read queries.
//
// Construct a Client only for a key that passed operator verification (see
// internal/probe and internal/connector); nothing here re-checks it.
package client

import (
	"context"
	"fmt"
	"time"

	"github.com/Klingon-tech/klingnet-wallet/internal/fees"
	"github.com/Klingon-tech/klingnet-wallet/internal/log"
	"github.com/Klingon-tech/klingnet-wallet/internal/mirror"
	"github.com/Klingon-tech/klingnet-wallet/internal/nodeclient"
	"github.com/Klingon-tech/klingnet-wallet/internal/transfer"
	"github.com/Klingon-tech/klingnet-wallet/pkg/errs"
	"github.com/Klingon-tech/klingnet-wallet/pkg/keys"
	"github.com/Klingon-tech/klingnet-wallet/pkg/ledger"
	"github.com/Klingon-tech/klingnet-wallet/pkg/types"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// defaultMaxFee is the fee ceiling attached when the caller does not name
// one: 2 native units in raw denomination.
const defaultMaxFee uint64 = 2 * 100_000_000

// NodeAPI is the slice of the consensus node client the Client uses.
type NodeAPI interface {
	Submit(ctx context.Context, tx *ledger.Transaction) (ledger.Status, error)
	Receipt(ctx context.Context, id ledger.TransactionID) (*ledger.Receipt, error)
	QueryCost(ctx context.Context, query string) (decimal.Decimal, error)
	Balance(ctx context.Context, account types.AccountID) (*nodeclient.BalanceResult, error)
}

// MirrorAPI is the slice of the mirror client the Client uses.
type MirrorAPI interface {
	Account(ctx context.Context, ref string) (*mirror.AccountInfo, error)
	Decimals(ctx context.Context, asset types.AssetID) (uint32, error)
}

// Client wraps one verified operator identity and a network connection.
type Client struct {
	operator types.AccountID
	signer   keys.Signer
	node     NodeAPI
	mirror   MirrorAPI
	feeSpec  fees.Spec
	logger   zerolog.Logger
}

// New creates a ledger client for a verified operator.
func New(operator types.AccountID, signer keys.Signer, node NodeAPI, m MirrorAPI, feeSpec fees.Spec) (*Client, error) {
	if operator.IsZero() {
		return nil, fmt.Errorf("client needs an operator account")
	}
	if signer == nil {
		return nil, fmt.Errorf("client needs a signer")
	}
	if node == nil {
		return nil, fmt.Errorf("client needs a node connection")
	}
	if err := feeSpec.Validate(); err != nil {
		return nil, fmt.Errorf("fee spec: %w", err)
	}
	return &Client{
		operator: operator,
		signer:   signer,
		node:     node,
		mirror:   m,
		feeSpec:  feeSpec,
		logger:   log.Client.With().Str("operator", operator.String()).Logger(),
	}, nil
}

// Operator returns the client's account.
func (c *Client) Operator() types.AccountID {
	return c.operator
}

// Transfer builds, signs, and submits one balanced multi-asset transfer,
// deducting the service fee per instruction, and returns the normalized
// receipt.
func (c *Client) Transfer(ctx context.Context, instructions []transfer.Instruction, opts transfer.Options) (*TxReceipt, error) {
	const op = "client.Transfer"

	builder, err := transfer.NewBuilder(c.operator, c.feeSpec, c.resolveDecimals, c.cachedBalances(ctx))
	if err != nil {
		return nil, errs.Wrap(errs.ClassValidation, op, err).WithAccount(c.operator.String())
	}
	if opts.MaxFee == 0 {
		opts.MaxFee = defaultMaxFee
	}

	tx, feeLedger, err := builder.Build(ctx, instructions, opts)
	if err != nil {
		return nil, err
	}
	for asset, fee := range feeLedger {
		c.logger.Debug().
			Str("asset", asset.String()).
			Int64("fee_raw", fee).
			Msg("service fee deducted")
	}

	return c.execute(ctx, op, tx)
}

// AssociateAssets opts the operator's account into holding the given
// tokens.
func (c *Client) AssociateAssets(ctx context.Context, assets []types.AssetID) (*TxReceipt, error) {
	const op = "client.AssociateAssets"

	if len(assets) == 0 {
		return nil, errs.New(errs.ClassValidation, op, "no assets").WithAccount(c.operator.String())
	}
	for _, asset := range assets {
		if asset.IsNative() {
			return nil, errs.New(errs.ClassValidation, op, "the native asset needs no association").
				WithAccount(c.operator.String()).WithAsset(asset.String())
		}
		if _, err := asset.TokenID(); err != nil {
			return nil, errs.Wrap(errs.ClassValidation, op, err).WithAsset(asset.String())
		}
	}

	tx := ledger.NewTransaction(ledger.Body{
		Kind:      ledger.KindAssociate,
		Operator:  c.operator,
		MaxFee:    defaultMaxFee,
		Associate: assets,
	})
	return c.execute(ctx, op, tx)
}

// Stake elects a staking target for the operator's account: a node, a
// delegate account, or neither to clear the election.
func (c *Client) Stake(ctx context.Context, target ledger.StakeTarget) (*TxReceipt, error) {
	const op = "client.Stake"

	if target.NodeID != nil && target.Delegate != nil {
		return nil, errs.New(errs.ClassValidation, op, "stake to a node or a delegate, not both").
			WithAccount(c.operator.String())
	}

	tx := ledger.NewTransaction(ledger.Body{
		Kind:     ledger.KindStake,
		Operator: c.operator,
		MaxFee:   defaultMaxFee,
		Stake:    &target,
	})
	return c.execute(ctx, op, tx)
}

// ApproveAllowance authorizes a spender over the operator's holdings:
// a native or token amount, or an entire NFT collection via AllSerials.
func (c *Client) ApproveAllowance(ctx context.Context, allowance ledger.Allowance) (*TxReceipt, error) {
	const op = "client.ApproveAllowance"

	if allowance.Spender.IsZero() {
		return nil, errs.New(errs.ClassValidation, op, "allowance needs a spender").
			WithAccount(c.operator.String())
	}
	if !allowance.AllSerials && allowance.Amount <= 0 {
		return nil, errs.New(errs.ClassValidation, op, "allowance amount %d is not positive", allowance.Amount).
			WithAccount(c.operator.String()).WithAsset(allowance.Asset.String())
	}

	tx := ledger.NewTransaction(ledger.Body{
		Kind:      ledger.KindAllowanceApprove,
		Operator:  c.operator,
		MaxFee:    defaultMaxFee,
		Allowance: &allowance,
	})
	return c.execute(ctx, op, tx)
}

// RevokeAllowance removes a previously granted allowance on an asset. A
// zero spender revokes for all spenders of that asset.
func (c *Client) RevokeAllowance(ctx context.Context, asset types.AssetID, spender types.AccountID) (*TxReceipt, error) {
	const op = "client.RevokeAllowance"

	tx := ledger.NewTransaction(ledger.Body{
		Kind:     ledger.KindAllowanceRevoke,
		Operator: c.operator,
		MaxFee:   defaultMaxFee,
		Allowance: &ledger.Allowance{
			Asset:   asset,
			Spender: spender,
		},
	})
	return c.execute(ctx, op, tx)
}

// DeleteAccount removes the operator's account, moving any remaining
// balance to transferTo. Irreversible on the ledger.
func (c *Client) DeleteAccount(ctx context.Context, transferTo types.AccountID) (*TxReceipt, error) {
	const op = "client.DeleteAccount"

	if transferTo.IsZero() {
		return nil, errs.New(errs.ClassValidation, op, "deletion needs a beneficiary account").
			WithAccount(c.operator.String())
	}
	if transferTo == c.operator {
		return nil, errs.New(errs.ClassValidation, op, "cannot transfer a deleted account's balance to itself").
			WithAccount(c.operator.String())
	}

	tx := ledger.NewTransaction(ledger.Body{
		Kind:       ledger.KindAccountDelete,
		Operator:   c.operator,
		MaxFee:     defaultMaxFee,
		TransferTo: &transferTo,
	})
	return c.execute(ctx, op, tx)
}

// AccountInfo looks up any account by ID, alias, or address via the mirror.
func (c *Client) AccountInfo(ctx context.Context, ref string) (*mirror.AccountInfo, error) {
	const op = "client.AccountInfo"

	if c.mirror == nil {
		return nil, errs.New(errs.ClassValidation, op, "no mirror configured")
	}
	info, err := c.mirror.Account(ctx, ref)
	if err != nil {
		return nil, errs.Wrap(errs.ClassTransient, op, err).WithAccount(ref)
	}
	return info, nil
}

// Balance returns the operator's native balance in display units.
func (c *Client) Balance(ctx context.Context) (decimal.Decimal, error) {
	const op = "client.Balance"

	res, err := c.node.Balance(ctx, c.operator)
	if err != nil {
		return decimal.Zero, errs.Wrap(errs.ClassTransient, op, err).WithAccount(c.operator.String())
	}
	return decimal.New(int64(res.Balance), -types.NativeDecimals), nil
}

// QuoteQuery asks the node what a query costs and applies the service fee
// and slippage ceiling.
func (c *Client) QuoteQuery(ctx context.Context, query string) (fees.QueryQuote, error) {
	const op = "client.QuoteQuery"

	cost, err := c.node.QueryCost(ctx, query)
	if err != nil {
		return fees.QueryQuote{}, errs.Wrap(errs.ClassTransient, op, err).WithAccount(c.operator.String())
	}
	return fees.QueryFee(cost, c.feeSpec.PercentageCut), nil
}

// execute freezes, signs, submits, and confirms one mutating transaction.
// The contract is fire-and-poll: once submitted, an abandoned call may
// still commit on the network, so callers must reconcile an unknown
// outcome via queries, never by blind resubmission.
func (c *Client) execute(ctx context.Context, op string, tx *ledger.Transaction) (*TxReceipt, error) {
	if err := tx.Freeze("", time.Now()); err != nil {
		return nil, errs.Wrap(errs.ClassValidation, op, err).WithAccount(c.operator.String())
	}
	if err := tx.SignWith(ctx, c.signer, 0); err != nil {
		return nil, errs.Wrap(errs.ClassValidation, op, err).WithAccount(c.operator.String())
	}

	status, err := c.node.Submit(ctx, tx)
	if err != nil {
		return nil, errs.Wrap(errs.ClassTransient, op, err).WithAccount(c.operator.String())
	}
	if status.Retryable() {
		return nil, errs.New(errs.ClassTransient, op, "node busy").
			WithAccount(c.operator.String()).WithStatus(status.String())
	}
	if !status.OK() {
		return nil, errs.New(errs.ClassNetworkRejection, op, "precheck rejected %s", tx.ID()).
			WithAccount(c.operator.String()).WithStatus(status.String())
	}

	raw, err := c.node.Receipt(ctx, tx.ID())
	if err != nil {
		// Submitted but unconfirmed: unknown-but-possibly-committed.
		return nil, errs.Wrap(errs.ClassTransient, op, err).WithAccount(c.operator.String())
	}
	if !raw.Status.OK() {
		return nil, errs.New(errs.ClassNetworkRejection, op, "transaction %s failed", tx.ID()).
			WithAccount(c.operator.String()).WithStatus(raw.Status.String())
	}

	receipt, err := Normalize(raw)
	if err != nil {
		return nil, errs.Wrap(errs.ClassInvariant, op, err).WithAccount(c.operator.String())
	}

	c.logger.Info().
		Str("op", op).
		Str("tx", tx.ID().String()).
		Str("status", receipt.Status).
		Msg("transaction confirmed")

	return receipt, nil
}

// resolveDecimals is the transfer builder's decimals callback, backed by
// the mirror's token metadata.
func (c *Client) resolveDecimals(ctx context.Context, asset types.AssetID) (uint32, error) {
	if c.mirror == nil {
		return 0, fmt.Errorf("no mirror configured for token decimals lookup")
	}
	return c.mirror.Decimals(ctx, asset)
}

// cachedBalances snapshots the operator's balances for the builder's
// preflight check. A failed snapshot disables the preflight rather than
// failing the transfer; the network remains the final authority.
func (c *Client) cachedBalances(ctx context.Context) transfer.BalanceSource {
	res, err := c.node.Balance(ctx, c.operator)
	if err != nil {
		c.logger.Warn().Err(err).Msg("balance snapshot unavailable, skipping preflight")
		return nil
	}
	return &balanceSnapshot{
		native: res.Balance,
		tokens: res.Tokens,
		decimals: func(asset types.AssetID) (uint32, bool) {
			d, err := c.resolveDecimals(ctx, asset)
			if err != nil {
				c.logger.Warn().Err(err).Str("asset", asset.String()).
					Msg("token decimals unavailable, preflight skips asset")
				return 0, false
			}
			return d, true
		},
	}
}

// balanceSnapshot adapts one node balance answer to the builder's
// BalanceSource. Token balances arrive in raw units and are converted to
// display units through the mirror's decimals. A token absent from the
// snapshot, or one whose decimals cannot be resolved, reports unknown
// and leaves the check to the network.
type balanceSnapshot struct {
	native   uint64
	tokens   map[types.AssetID]int64
	decimals func(types.AssetID) (uint32, bool)
}

// Balance reports the cached display-unit balance for an asset.
func (s *balanceSnapshot) Balance(asset types.AssetID) (decimal.Decimal, bool) {
	if asset.IsNative() {
		return decimal.New(int64(s.native), -types.NativeDecimals), true
	}
	raw, ok := s.tokens[asset]
	if !ok {
		return decimal.Zero, false
	}
	d, ok := s.decimals(asset)
	if !ok {
		return decimal.Zero, false
	}
	return decimal.New(raw, -int32(d)), true
}
