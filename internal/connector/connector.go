// Package connector orchestrates account discovery and import: it resolves
// the claimed account on the mirror, verifies the supplied key with the
// operator probe, and only then persists the account and hands out a
// usable ledger client.
package connector

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Klingon-tech/klingnet-wallet/internal/client"
	"github.com/Klingon-tech/klingnet-wallet/internal/fees"
	"github.com/Klingon-tech/klingnet-wallet/internal/log"
	"github.com/Klingon-tech/klingnet-wallet/internal/mirror"
	"github.com/Klingon-tech/klingnet-wallet/internal/probe"
	"github.com/Klingon-tech/klingnet-wallet/internal/statestore"
	"github.com/Klingon-tech/klingnet-wallet/pkg/crypto"
	"github.com/Klingon-tech/klingnet-wallet/pkg/errs"
	"github.com/Klingon-tech/klingnet-wallet/pkg/keys"
	"github.com/Klingon-tech/klingnet-wallet/pkg/types"
	"github.com/rs/zerolog"
)

// Confirmer presents a yes/no decision to a human and returns the answer.
// A false answer or an error aborts the operation before any further
// network mutation.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) (bool, error)
}

// Verifier is the operator probe's contract.
type Verifier interface {
	Verify(ctx context.Context, account types.AccountID, signer keys.Signer) (probe.Result, error)
}

// AccountRecord is one imported account in the persisted state blob.
type AccountRecord struct {
	AccountID  types.AccountID `json:"account_id"`
	Address    types.Address   `json:"address"`
	Curve      crypto.Curve    `json:"curve"`
	PublicKey  string          `json:"public_key"`
	ImportedAt time.Time       `json:"imported_at"`
}

// State is the connector's persisted per-network state. The state store
// treats it as an opaque blob; this package owns the schema.
type State struct {
	Accounts map[types.AccountID]AccountRecord `json:"accounts"`
}

// Connector wires the import pipeline together for one network.
type Connector struct {
	network   string
	node      client.NodeAPI
	mirror    *mirror.Client
	verifier  Verifier
	store     *statestore.Store
	confirmer Confirmer
	feeSpec   fees.Spec
	logger    zerolog.Logger
}

// New creates a connector.
func New(network string, node client.NodeAPI, m *mirror.Client, verifier Verifier, store *statestore.Store, confirmer Confirmer, feeSpec fees.Spec) (*Connector, error) {
	if network == "" {
		return nil, fmt.Errorf("connector needs a network name")
	}
	if node == nil || m == nil || verifier == nil || store == nil {
		return nil, fmt.Errorf("connector needs node, mirror, verifier, and store")
	}
	if err := feeSpec.Validate(); err != nil {
		return nil, fmt.Errorf("fee spec: %w", err)
	}
	return &Connector{
		network:   network,
		node:      node,
		mirror:    m,
		verifier:  verifier,
		store:     store,
		confirmer: confirmer,
		feeSpec:   feeSpec,
		logger:    log.Connector.With().Str("network", network).Logger(),
	}, nil
}

// Connect imports an account: ref is an account ID, alias, or address; the
// signer holds the claimed key. On success the account record is persisted
// (and, for extractable keys, the key material sealed under passphrase)
// and a ready ledger client is returned.
//
// Nothing is persisted unless the probe returns Verified.
func (c *Connector) Connect(ctx context.Context, ref string, signer keys.Signer, passphrase []byte) (*client.Client, error) {
	const op = "connector.Connect"

	info, err := c.mirror.Account(ctx, ref)
	if err != nil {
		if errors.Is(err, mirror.ErrUnavailable) {
			return nil, errs.Wrap(errs.ClassTransient, op, err).WithAccount(ref)
		}
		return nil, errs.Wrap(errs.ClassValidation, op, err).WithAccount(ref)
	}
	if info.Deleted {
		return nil, errs.New(errs.ClassValidation, op, "account %s is deleted", info.AccountID).
			WithAccount(info.AccountID.String())
	}

	// The curve is immutable per account: a key on the wrong curve can
	// never sign for it, so don't bother the network.
	if info.Key.Curve != signer.Curve() {
		return nil, errs.New(errs.ClassVerification, op,
			"account %s uses %s but the supplied key is %s (%s)",
			info.AccountID, info.Key.Curve, signer.Curve(), probe.OutcomeCurveMismatch).
			WithAccount(info.AccountID.String())
	}

	pub, ok := signer.PublicKey(0)
	if !ok {
		return nil, errs.New(errs.ClassValidation, op, "signer has no canonical public key").
			WithAccount(info.AccountID.String())
	}

	if c.confirmer != nil {
		prompt := fmt.Sprintf("Import account %s (%s) on %s?", info.AccountID, info.Address, c.network)
		ok, err := c.confirmer.Confirm(ctx, prompt)
		if err != nil {
			return nil, errs.Wrap(errs.ClassUserDeclined, op, err).WithAccount(info.AccountID.String())
		}
		if !ok {
			return nil, errs.New(errs.ClassUserDeclined, op, "import declined").
				WithAccount(info.AccountID.String())
		}
	}

	result, err := c.verifier.Verify(ctx, info.AccountID, signer)
	if err != nil {
		// Invariant and transient failures surface as-is.
		return nil, err
	}
	if !result.Verified() {
		return nil, errs.New(errs.ClassVerification, op, "key verification failed (%s)", result.Outcome).
			WithAccount(info.AccountID.String()).WithStatus(result.Status.String())
	}

	// The key is verified; a failure here is local storage, not bad input.
	if err := c.persist(info, signer, pub, passphrase); err != nil {
		return nil, errs.Wrap(errs.ClassTransient, op, err).WithAccount(info.AccountID.String())
	}

	c.logger.Info().
		Str("account", info.AccountID.String()).
		Str("curve", signer.Curve().String()).
		Msg("account imported")

	return client.New(info.AccountID, signer, c.node, c.mirror, c.feeSpec)
}

// Resume rebuilds a ledger client for a previously imported account with
// extractable key material, unsealing it with the passphrase. The key was
// probe-verified at import; the record's public key pins it.
func (c *Connector) Resume(ctx context.Context, account types.AccountID, passphrase []byte) (*client.Client, error) {
	const op = "connector.Resume"

	state, err := c.loadState()
	if err != nil {
		return nil, errs.Wrap(errs.ClassValidation, op, err).WithAccount(account.String())
	}
	record, ok := state.Accounts[account]
	if !ok {
		return nil, errs.New(errs.ClassValidation, op, "account %s is not imported", account).
			WithAccount(account.String())
	}

	secret, err := c.store.OpenKey(c.network, account, passphrase)
	if err != nil {
		return nil, errs.Wrap(errs.ClassValidation, op, err).WithAccount(account.String())
	}
	signer, err := keys.SoftwareSignerFromBytes(record.Curve, secret)
	for i := range secret {
		secret[i] = 0
	}
	if err != nil {
		return nil, errs.Wrap(errs.ClassValidation, op, err).WithAccount(account.String())
	}

	pub, _ := signer.PublicKey(0)
	if hex.EncodeToString(pub) != record.PublicKey {
		return nil, errs.New(errs.ClassVerification, op, "stored key does not match the imported record").
			WithAccount(account.String())
	}

	return client.New(account, signer, c.node, c.mirror, c.feeSpec)
}

// Accounts lists the imported account records.
func (c *Connector) Accounts() ([]AccountRecord, error) {
	state, err := c.loadState()
	if err != nil {
		return nil, err
	}
	records := make([]AccountRecord, 0, len(state.Accounts))
	for _, r := range state.Accounts {
		records = append(records, r)
	}
	return records, nil
}

// Forget removes an account's record and sealed key material.
func (c *Connector) Forget(account types.AccountID) error {
	state, err := c.loadState()
	if err != nil {
		return err
	}
	if _, ok := state.Accounts[account]; !ok {
		return fmt.Errorf("account %s is not imported", account)
	}
	delete(state.Accounts, account)
	if err := c.saveState(state); err != nil {
		return err
	}
	if has, _ := c.store.HasKey(c.network, account); has {
		return c.store.DeleteKey(c.network, account)
	}
	return nil
}

// persist records the verified account and seals its key material.
func (c *Connector) persist(info *mirror.AccountInfo, signer keys.Signer, pub []byte, passphrase []byte) error {
	state, err := c.loadState()
	if err != nil {
		return err
	}
	state.Accounts[info.AccountID] = AccountRecord{
		AccountID:  info.AccountID,
		Address:    info.Address,
		Curve:      signer.Curve(),
		PublicKey:  hex.EncodeToString(pub),
		ImportedAt: time.Now().UTC(),
	}
	if err := c.saveState(state); err != nil {
		return err
	}

	if signer.HasPrivateKey() && len(passphrase) > 0 {
		key, ok := signer.PrivateKey(0)
		if !ok {
			return fmt.Errorf("signer reports a private key but exposes none")
		}
		secret := key.Serialize()
		err := c.store.SealKey(c.network, info.AccountID, secret, passphrase)
		for i := range secret {
			secret[i] = 0
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (c *Connector) loadState() (*State, error) {
	blob, err := c.store.GetState(c.network)
	if errors.Is(err, statestore.ErrNotFound) {
		return &State{Accounts: make(map[types.AccountID]AccountRecord)}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load state: %w", err)
	}
	var state State
	if err := json.Unmarshal(blob, &state); err != nil {
		return nil, fmt.Errorf("parse state: %w", err)
	}
	if state.Accounts == nil {
		state.Accounts = make(map[types.AccountID]AccountRecord)
	}
	return &state, nil
}

func (c *Connector) saveState(state *State) error {
	blob, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	return c.store.PutState(c.network, blob)
}
