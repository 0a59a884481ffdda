// Package probe verifies that a supplied key genuinely controls a claimed
// account before the key is ever trusted for real transfers.
//
// The probe is a zero-cost cryptographic check: it submits a self-transfer
// of zero units whose declared max fee (1 raw unit) is far below any real
// network fee. A fee-related rejection proves the signature was accepted —
// the transaction would have succeeded with an adequate fee — while any
// other rejection proves the key does not control the account. The
// transaction can never actually execute, so nothing is spent.
package probe

import (
	"context"
	"fmt"
	"time"

	"github.com/Klingon-tech/klingnet-wallet/internal/log"
	"github.com/Klingon-tech/klingnet-wallet/pkg/errs"
	"github.com/Klingon-tech/klingnet-wallet/pkg/keys"
	"github.com/Klingon-tech/klingnet-wallet/pkg/ledger"
	"github.com/Klingon-tech/klingnet-wallet/pkg/types"
	"github.com/rs/zerolog"
)

// probeMaxFee is the deliberately inadequate fee ceiling, in raw native
// units. Real network fees are many orders of magnitude higher.
const probeMaxFee = 1

// Outcome classifies a verification attempt.
type Outcome uint8

const (
	// OutcomeVerified: the key signs for the account.
	OutcomeVerified Outcome = iota + 1
	// OutcomeCurveMismatch: the key's curve differs from the account's
	// on-ledger key. Detected by the connector before submission.
	OutcomeCurveMismatch
	// OutcomeKeyMismatch: the ledger rejected the signature for a
	// non-fee reason; the key does not control the account.
	OutcomeKeyMismatch
	// OutcomeUnexpectedSuccess: the underfunded probe succeeded. This
	// must never happen and is treated as a fatal invariant violation.
	OutcomeUnexpectedSuccess
	// OutcomeTransient: the probe could not reach the network; nothing
	// is known about the key. Retry belongs to the caller.
	OutcomeTransient
)

// String returns the outcome name.
func (o Outcome) String() string {
	switch o {
	case OutcomeVerified:
		return "verified"
	case OutcomeCurveMismatch:
		return "curve_mismatch"
	case OutcomeKeyMismatch:
		return "key_does_not_control_account"
	case OutcomeUnexpectedSuccess:
		return "unexpected_success"
	case OutcomeTransient:
		return "transient_failure"
	default:
		return "unknown"
	}
}

// Result is the verification outcome plus the ledger status that produced
// it (empty for transport failures).
type Result struct {
	Outcome Outcome
	Status  ledger.Status
}

// Verified reports whether the key may be trusted for real operations.
func (r Result) Verified() bool {
	return r.Outcome == OutcomeVerified
}

// Submitter is the slice of the node client the prober uses.
type Submitter interface {
	Submit(ctx context.Context, tx *ledger.Transaction) (ledger.Status, error)
}

// Prober runs operator key verification against one node.
type Prober struct {
	node   Submitter
	logger zerolog.Logger
}

// New creates a prober.
func New(node Submitter) *Prober {
	return &Prober{node: node, logger: log.Probe}
}

// Verify submits the probe transaction signed with the supplied key and
// classifies the node's answer. The probe is submitted exactly once: a
// retry after an unexpected success would be a fee-bearing duplicate, so
// any retry decision is the caller's.
//
// The returned error is non-nil only for the fatal and transient outcomes;
// OutcomeKeyMismatch is a definitive (error-free) answer.
func (p *Prober) Verify(ctx context.Context, account types.AccountID, signer keys.Signer) (Result, error) {
	const op = "probe.Verify"

	tx, err := p.buildProbe(ctx, account, signer)
	if err != nil {
		return Result{Outcome: OutcomeKeyMismatch}, errs.Wrap(errs.ClassVerification, op, err).
			WithAccount(account.String())
	}

	status, err := p.node.Submit(ctx, tx)
	if err != nil {
		return Result{Outcome: OutcomeTransient}, errs.Wrap(errs.ClassTransient, op, err).
			WithAccount(account.String())
	}

	p.logger.Debug().
		Str("account", account.String()).
		Str("status", status.String()).
		Msg("probe answered")

	switch {
	case status.FeeExhausted():
		// Failing for a fee reason proves the signature was accepted.
		return Result{Outcome: OutcomeVerified, Status: status}, nil
	case status.OK():
		// An intentionally underfunded transaction must never succeed.
		return Result{Outcome: OutcomeUnexpectedSuccess, Status: status},
			errs.New(errs.ClassInvariant, op,
				"underfunded probe for account %s was accepted by the network", account).
				WithAccount(account.String()).WithStatus(status.String())
	default:
		return Result{Outcome: OutcomeKeyMismatch, Status: status}, nil
	}
}

// buildProbe assembles and signs the zero-value self-transfer.
func (p *Prober) buildProbe(ctx context.Context, account types.AccountID, signer keys.Signer) (*ledger.Transaction, error) {
	tx := ledger.NewTransaction(ledger.Body{
		Kind:     ledger.KindTransfer,
		Operator: account,
		MaxFee:   probeMaxFee,
		Transfers: []ledger.Leg{
			{Asset: types.AssetNative, Account: account, Amount: 0},
		},
	})
	if err := tx.Freeze("", time.Now()); err != nil {
		return nil, fmt.Errorf("freeze probe: %w", err)
	}
	if err := tx.SignWith(ctx, signer, 0); err != nil {
		return nil, fmt.Errorf("sign probe: %w", err)
	}
	return tx, nil
}
