// Package nodeclient provides a JSON-RPC 2.0 client for consensus nodes:
// transaction submission, receipt retrieval, and priced queries.
package nodeclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Klingon-tech/klingnet-wallet/pkg/errs"
	"github.com/Klingon-tech/klingnet-wallet/pkg/ledger"
	"github.com/Klingon-tech/klingnet-wallet/pkg/types"
	"github.com/shopspring/decimal"
)

// Client is a JSON-RPC 2.0 HTTP client for one consensus node.
type Client struct {
	endpoint string
	http     *http.Client

	receiptPollInterval time.Duration
	receiptTimeout      time.Duration
}

// New creates a new node client targeting the given endpoint URL.
func New(endpoint string) *Client {
	return NewWithTimeout(endpoint, 10*time.Second)
}

// NewWithTimeout creates a new node client with a custom HTTP timeout.
func NewWithTimeout(endpoint string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		endpoint: endpoint,
		http: &http.Client{
			Timeout: timeout,
		},
		receiptPollInterval: 500 * time.Millisecond,
		receiptTimeout:      30 * time.Second,
	}
}

// request is a JSON-RPC 2.0 request.
type request struct {
	JSONRPC string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params,omitempty"`
	ID      int         `json:"id"`
}

// response is a JSON-RPC 2.0 response.
type response struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
	ID      int             `json:"id"`
}

// rpcError is a JSON-RPC 2.0 error.
type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// RPCError is returned when the node responds with a protocol-level error.
type RPCError struct {
	Code    int
	Message string
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// Call invokes a JSON-RPC method and unmarshals the result into the
// provided pointer. Transport failures are classified transient; protocol
// errors come back as *RPCError.
func (c *Client) Call(ctx context.Context, method string, params, result interface{}) error {
	req := request{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
		ID:      1,
	}

	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return errs.Wrap(errs.ClassTransient, "node."+method, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return errs.Wrap(errs.ClassTransient, "node."+method, err)
	}

	var rpcResp response
	if err := json.Unmarshal(data, &rpcResp); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	if rpcResp.Error != nil {
		return &RPCError{
			Code:    rpcResp.Error.Code,
			Message: rpcResp.Error.Message,
		}
	}

	if result != nil && rpcResp.Result != nil {
		if err := json.Unmarshal(rpcResp.Result, result); err != nil {
			return fmt.Errorf("decode result: %w", err)
		}
	}

	return nil
}

// submitResult is the node's answer to tx_submit: the precheck status.
type submitResult struct {
	Status ledger.Status `json:"status"`
}

// Submit sends a signed transaction and returns the node's precheck
// status. A returned status is a definitive node answer; an error means
// the outcome is unknown.
func (c *Client) Submit(ctx context.Context, tx *ledger.Transaction) (ledger.Status, error) {
	if !tx.Frozen() {
		return "", fmt.Errorf("submit unfrozen transaction")
	}
	if len(tx.Signatures) == 0 {
		return "", fmt.Errorf("submit unsigned transaction")
	}
	var res submitResult
	if err := c.Call(ctx, "tx_submit", tx, &res); err != nil {
		return "", fmt.Errorf("submit %s: %w", tx.ID(), err)
	}
	if res.Status == "" {
		return "", fmt.Errorf("submit %s: node returned no status", tx.ID())
	}
	return res.Status, nil
}

// receiptParams addresses a receipt lookup.
type receiptParams struct {
	ID ledger.TransactionID `json:"id"`
}

// Receipt polls the node for a transaction's receipt until it is final,
// the per-client receipt timeout lapses, or ctx is done. Polling retries
// only the not-yet-available statuses; everything else is final.
func (c *Client) Receipt(ctx context.Context, id ledger.TransactionID) (*ledger.Receipt, error) {
	deadline := time.Now().Add(c.receiptTimeout)

	for {
		var receipt ledger.Receipt
		err := c.Call(ctx, "tx_receipt", receiptParams{ID: id}, &receipt)
		if err == nil {
			if receipt.Status == "" {
				return nil, fmt.Errorf("receipt %s: node returned no status", id)
			}
			if !receipt.Status.Retryable() {
				return &receipt, nil
			}
		} else if !errs.IsTransient(err) {
			return nil, fmt.Errorf("receipt %s: %w", id, err)
		}

		if time.Now().After(deadline) {
			return nil, errs.New(errs.ClassTransient, "node.tx_receipt",
				"receipt for %s not available within %s", id, c.receiptTimeout)
		}
		select {
		case <-ctx.Done():
			return nil, errs.Wrap(errs.ClassTransient, "node.tx_receipt", ctx.Err())
		case <-time.After(c.receiptPollInterval):
		}
	}
}

// costParams addresses a query cost quote.
type costParams struct {
	Query string `json:"query"`
}

// costResult carries a quoted cost in native display units.
type costResult struct {
	Cost decimal.Decimal `json:"cost"`
}

// QueryCost asks the node what the named query currently costs, in native
// display units.
func (c *Client) QueryCost(ctx context.Context, query string) (decimal.Decimal, error) {
	var res costResult
	if err := c.Call(ctx, "query_cost", costParams{Query: query}, &res); err != nil {
		return decimal.Zero, fmt.Errorf("query cost for %s: %w", query, err)
	}
	return res.Cost, nil
}

// balanceParams addresses a balance lookup.
type balanceParams struct {
	Account types.AccountID `json:"account"`
}

// BalanceResult is an account's native balance in raw units plus its token
// holdings.
type BalanceResult struct {
	Balance uint64                  `json:"balance"`
	Tokens  map[types.AssetID]int64 `json:"tokens,omitempty"`
}

// Balance fetches an account's current balances from consensus state.
func (c *Client) Balance(ctx context.Context, account types.AccountID) (*BalanceResult, error) {
	var res BalanceResult
	if err := c.Call(ctx, "account_balance", balanceParams{Account: account}, &res); err != nil {
		return nil, fmt.Errorf("balance of %s: %w", account, err)
	}
	return &res, nil
}
