package statestore

import (
	"fmt"

	"github.com/Klingon-tech/klingnet-wallet/internal/log"
	"github.com/Klingon-tech/klingnet-wallet/pkg/types"
	"github.com/rs/zerolog"
)

// Key layout:
//
//	state/<network>                the opaque JSON state blob
//	key/<network>/<account>        sealed operator key material
const (
	statePrefix = "state/"
	keyPrefix   = "key/"
)

// Store persists per-network wallet state. The state blob is opaque here:
// callers own its schema, the store only gets and puts bytes. Key material
// is sealed with the owner's passphrase before it touches disk; the store
// never sees a plaintext secret beyond the Seal/Open call.
type Store struct {
	db     DB
	params SealParams
	logger zerolog.Logger
}

// New creates a store over a key-value database.
func New(db DB) *Store {
	return &Store{
		db:     db,
		params: DefaultSealParams(),
		logger: log.Store,
	}
}

// GetState returns the opaque state blob for a network, or ErrNotFound.
func (s *Store) GetState(network string) ([]byte, error) {
	blob, err := s.db.Get([]byte(statePrefix + network))
	if err != nil {
		return nil, err
	}
	return blob, nil
}

// PutState stores the opaque state blob for a network.
func (s *Store) PutState(network string, blob []byte) error {
	if err := s.db.Put([]byte(statePrefix+network), blob); err != nil {
		return fmt.Errorf("put state for %s: %w", network, err)
	}
	s.logger.Debug().Str("network", network).Int("bytes", len(blob)).Msg("state persisted")
	return nil
}

// SealKey seals and stores an account's secret key material.
func (s *Store) SealKey(network string, account types.AccountID, secret, passphrase []byte) error {
	sealed, err := Seal(secret, passphrase, s.params)
	if err != nil {
		return fmt.Errorf("seal key for %s: %w", account, err)
	}
	if err := s.db.Put(s.keyKey(network, account), sealed); err != nil {
		return fmt.Errorf("store key for %s: %w", account, err)
	}
	s.logger.Debug().Str("network", network).Str("account", account.String()).Msg("key material sealed")
	return nil
}

// OpenKey retrieves and unseals an account's secret key material.
func (s *Store) OpenKey(network string, account types.AccountID, passphrase []byte) ([]byte, error) {
	sealed, err := s.db.Get(s.keyKey(network, account))
	if err != nil {
		return nil, err
	}
	secret, err := Open(sealed, passphrase)
	if err != nil {
		return nil, fmt.Errorf("open key for %s: %w", account, err)
	}
	return secret, nil
}

// HasKey reports whether key material is stored for an account.
func (s *Store) HasKey(network string, account types.AccountID) (bool, error) {
	return s.db.Has(s.keyKey(network, account))
}

// DeleteKey removes an account's sealed key material.
func (s *Store) DeleteKey(network string, account types.AccountID) error {
	if err := s.db.Delete(s.keyKey(network, account)); err != nil {
		return fmt.Errorf("delete key for %s: %w", account, err)
	}
	return nil
}

// ListKeys returns the accounts with sealed key material on a network.
func (s *Store) ListKeys(network string) ([]types.AccountID, error) {
	prefix := keyPrefix + network + "/"
	var accounts []types.AccountID
	err := s.db.ForEach([]byte(prefix), func(key, _ []byte) error {
		accounts = append(accounts, types.AccountID(key[len(prefix):]))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list keys for %s: %w", network, err)
	}
	return accounts, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) keyKey(network string, account types.AccountID) []byte {
	return []byte(keyPrefix + network + "/" + account.String())
}
