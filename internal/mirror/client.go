// Package mirror provides a read-only client for the ledger indexer: a
// REST service exposing historical and current state without consensus
// queries.
//
// Any non-2xx answer is reported as ErrUnavailable. The mirror does not let
// callers distinguish "no such resource" from a transient outage; callers
// that care must decide for themselves.
package mirror

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/Klingon-tech/klingnet-wallet/pkg/crypto"
	"github.com/Klingon-tech/klingnet-wallet/pkg/ledger"
	"github.com/Klingon-tech/klingnet-wallet/pkg/types"
	"github.com/shopspring/decimal"
)

// ErrUnavailable is returned for any non-2xx mirror response.
var ErrUnavailable = errors.New("mirror unavailable")

// Client is a REST client for one mirror endpoint.
type Client struct {
	base string
	http *http.Client
}

// New creates a mirror client targeting the given base URL.
func New(base string) *Client {
	return NewWithTimeout(base, 10*time.Second)
}

// NewWithTimeout creates a mirror client with a custom HTTP timeout.
func NewWithTimeout(base string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		base: base,
		http: &http.Client{Timeout: timeout},
	}
}

// AccountKey is the on-ledger key record for an account.
type AccountKey struct {
	Curve     crypto.Curve `json:"curve"`
	PublicKey string       `json:"public_key"`
}

// TokenBalance is one token holding in an account record.
type TokenBalance struct {
	Token   types.AssetID `json:"token"`
	Balance int64         `json:"balance"`
}

// AccountInfo is the mirror's account record.
type AccountInfo struct {
	AccountID types.AccountID `json:"account_id"`
	Alias     string          `json:"alias,omitempty"`
	Address   types.Address   `json:"address"`
	Key       AccountKey      `json:"key"`
	Balance   uint64          `json:"balance"`
	Tokens    []TokenBalance  `json:"tokens,omitempty"`
	Memo      string          `json:"memo,omitempty"`
	Deleted   bool            `json:"deleted,omitempty"`
	StakeNode *uint64         `json:"stake_node,omitempty"`
	StakeTo   types.AccountID `json:"stake_to,omitempty"`
}

// TokenInfo is the mirror's token metadata record.
type TokenInfo struct {
	TokenID     types.TokenID `json:"token_id"`
	Name        string        `json:"name"`
	Symbol      string        `json:"symbol"`
	Decimals    uint32        `json:"decimals"`
	TotalSupply json.Number   `json:"total_supply"`
	Type        string        `json:"type"` // "fungible" or "nft"
}

// NodeInfo is one consensus node's staking metadata.
type NodeInfo struct {
	NodeID      uint64          `json:"node_id"`
	Account     types.AccountID `json:"account"`
	Description string          `json:"description,omitempty"`
	MinStake    json.Number     `json:"min_stake"`
	MaxStake    json.Number     `json:"max_stake"`
	StakeTotal  json.Number     `json:"stake_total"`
	RewardRate  decimal.Decimal `json:"reward_rate"`
}

// TxRecord is one entry of an account's transaction history.
type TxRecord struct {
	ID        ledger.TransactionID `json:"id"`
	Kind      string               `json:"kind"`
	Status    ledger.Status        `json:"status"`
	Timestamp time.Time            `json:"timestamp"`
	Memo      string               `json:"memo,omitempty"`
	Transfers []ledger.Leg         `json:"transfers,omitempty"`
	Fee       uint64               `json:"fee"`
}

// get fetches a JSON document. Any non-2xx status maps to ErrUnavailable.
func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: GET %s returned %d", ErrUnavailable, path, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read body: %v", ErrUnavailable, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// Account looks up an account by ID, alias, or address string. The mirror
// resolves whichever form is supplied.
func (c *Client) Account(ctx context.Context, ref string) (*AccountInfo, error) {
	if ref == "" {
		return nil, fmt.Errorf("empty account reference")
	}
	var info AccountInfo
	if err := c.get(ctx, "/api/v1/accounts/"+url.PathEscape(ref), &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// Token fetches a token's metadata.
func (c *Client) Token(ctx context.Context, asset types.AssetID) (*TokenInfo, error) {
	id, err := asset.TokenID()
	if err != nil {
		return nil, err
	}
	var info TokenInfo
	if err := c.get(ctx, "/api/v1/tokens/"+id.String(), &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// Decimals fetches a token's declared decimal precision. It is the
// DecimalsResolver the transfer builder plugs in.
func (c *Client) Decimals(ctx context.Context, asset types.AssetID) (uint32, error) {
	info, err := c.Token(ctx, asset)
	if err != nil {
		return 0, err
	}
	return info.Decimals, nil
}

// Nodes lists the network's consensus nodes with staking metadata.
func (c *Client) Nodes(ctx context.Context) ([]NodeInfo, error) {
	var out struct {
		Nodes []NodeInfo `json:"nodes"`
	}
	if err := c.get(ctx, "/api/v1/network/nodes", &out); err != nil {
		return nil, err
	}
	return out.Nodes, nil
}

// Transactions fetches an account's most recent transactions, newest first.
func (c *Client) Transactions(ctx context.Context, account types.AccountID, limit int) ([]TxRecord, error) {
	if limit <= 0 {
		limit = 25
	}
	var out struct {
		Transactions []TxRecord `json:"transactions"`
	}
	path := fmt.Sprintf("/api/v1/transactions?account=%s&limit=%d", url.QueryEscape(account.String()), limit)
	if err := c.get(ctx, path, &out); err != nil {
		return nil, err
	}
	return out.Transactions, nil
}
