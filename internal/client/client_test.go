package client

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Klingon-tech/klingnet-wallet/internal/fees"
	"github.com/Klingon-tech/klingnet-wallet/internal/mirror"
	"github.com/Klingon-tech/klingnet-wallet/internal/nodeclient"
	"github.com/Klingon-tech/klingnet-wallet/internal/transfer"
	"github.com/Klingon-tech/klingnet-wallet/pkg/crypto"
	"github.com/Klingon-tech/klingnet-wallet/pkg/errs"
	"github.com/Klingon-tech/klingnet-wallet/pkg/keys"
	"github.com/Klingon-tech/klingnet-wallet/pkg/ledger"
	"github.com/Klingon-tech/klingnet-wallet/pkg/types"
	"github.com/shopspring/decimal"
)

const testOperator types.AccountID = "1001"

func parseTime(t *testing.T, s string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		t.Fatalf("bad time %q: %v", s, err)
	}
	return ts
}

// fakeNode scripts the node's answers and records submissions.
type fakeNode struct {
	submitStatus  ledger.Status
	submitErr     error
	receipt       *ledger.Receipt
	receiptErr    error
	queryCost     decimal.Decimal
	queryCostErr  error
	balance       *nodeclient.BalanceResult
	balanceErr    error
	submitted     []*ledger.Transaction
	receiptCalled int
}

func (n *fakeNode) Submit(_ context.Context, tx *ledger.Transaction) (ledger.Status, error) {
	n.submitted = append(n.submitted, tx)
	return n.submitStatus, n.submitErr
}

func (n *fakeNode) Receipt(_ context.Context, _ ledger.TransactionID) (*ledger.Receipt, error) {
	n.receiptCalled++
	return n.receipt, n.receiptErr
}

func (n *fakeNode) QueryCost(_ context.Context, _ string) (decimal.Decimal, error) {
	return n.queryCost, n.queryCostErr
}

func (n *fakeNode) Balance(_ context.Context, _ types.AccountID) (*nodeclient.BalanceResult, error) {
	return n.balance, n.balanceErr
}

// fakeMirror serves canned account and decimals answers.
type fakeMirror struct {
	account  *mirror.AccountInfo
	err      error
	decimals map[types.AssetID]uint32
}

func (m *fakeMirror) Account(_ context.Context, _ string) (*mirror.AccountInfo, error) {
	return m.account, m.err
}

func (m *fakeMirror) Decimals(_ context.Context, asset types.AssetID) (uint32, error) {
	if m.err != nil {
		return 0, m.err
	}
	d, ok := m.decimals[asset]
	if !ok {
		return 0, errors.New("unknown token")
	}
	return d, nil
}

func okNode() *fakeNode {
	return &fakeNode{
		submitStatus: ledger.StatusOK,
		receipt:      &ledger.Receipt{Status: ledger.StatusOK},
		balance:      &nodeclient.BalanceResult{Balance: 100_000_000_000},
	}
}

func newTestClient(t *testing.T, node *fakeNode, m MirrorAPI) *Client {
	t.Helper()
	key, err := crypto.GenerateKey(crypto.CurveEd25519)
	if err != nil {
		t.Fatalf("GenerateKey() error: %v", err)
	}
	signer, err := keys.NewSoftwareSigner(key)
	if err != nil {
		t.Fatalf("NewSoftwareSigner() error: %v", err)
	}
	c, err := New(testOperator, signer, node, m, fees.Spec{})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return c
}

func TestNew_Invalid(t *testing.T) {
	key, _ := crypto.GenerateKey(crypto.CurveEd25519)
	signer, _ := keys.NewSoftwareSigner(key)
	node := okNode()

	if _, err := New("", signer, node, nil, fees.Spec{}); err == nil {
		t.Error("missing operator should be rejected")
	}
	if _, err := New(testOperator, nil, node, nil, fees.Spec{}); err == nil {
		t.Error("missing signer should be rejected")
	}
	if _, err := New(testOperator, signer, nil, nil, fees.Spec{}); err == nil {
		t.Error("missing node should be rejected")
	}
	bad := fees.Spec{PercentageCut: decimal.NewFromInt(3)}
	if _, err := New(testOperator, signer, node, nil, bad); err == nil {
		t.Error("fee cut without collector should be rejected")
	}
}

func TestTransfer_SubmitsSignedFrozenTransaction(t *testing.T) {
	node := okNode()
	c := newTestClient(t, node, &fakeMirror{})

	receipt, err := c.Transfer(context.Background(), []transfer.Instruction{
		{Asset: types.AssetNative, To: "2002", Amount: decimal.NewFromInt(10)},
	}, transfer.Options{})
	if err != nil {
		t.Fatalf("Transfer() error: %v", err)
	}
	if receipt.Status != "OK" {
		t.Errorf("receipt status = %q", receipt.Status)
	}

	if len(node.submitted) != 1 {
		t.Fatalf("submissions = %d, want 1", len(node.submitted))
	}
	tx := node.submitted[0]
	if !tx.Frozen() {
		t.Error("submitted transaction must be frozen")
	}
	if len(tx.Signatures) != 1 {
		t.Fatalf("signatures = %d, want 1", len(tx.Signatures))
	}
	sig := tx.Signatures[0]
	if !crypto.VerifySignature(sig.Curve, tx.SigningBytes(), sig.Sig, sig.PublicKey) {
		t.Error("signature does not verify")
	}
	if tx.Body.MaxFee != defaultMaxFee {
		t.Errorf("max fee = %d, want default %d", tx.Body.MaxFee, defaultMaxFee)
	}
	if node.receiptCalled != 1 {
		t.Errorf("receipt polls = %d, want 1", node.receiptCalled)
	}
}

func TestTransfer_InsufficientCachedBalance(t *testing.T) {
	node := okNode()
	node.balance = &nodeclient.BalanceResult{Balance: 100_000_000} // 1 native
	c := newTestClient(t, node, &fakeMirror{})

	_, err := c.Transfer(context.Background(), []transfer.Instruction{
		{Asset: types.AssetNative, To: "2002", Amount: decimal.NewFromInt(10)},
	}, transfer.Options{})
	if err == nil {
		t.Fatal("Transfer() should fail the cached-balance preflight")
	}
	var ib *transfer.InsufficientBalanceError
	if !errors.As(err, &ib) {
		t.Fatalf("error should wrap InsufficientBalanceError, got %v", err)
	}
	if len(node.submitted) != 0 {
		t.Error("nothing may be submitted after a failed preflight")
	}

	// The caller confirms and retries past the stale snapshot.
	if _, err := c.Transfer(context.Background(), []transfer.Instruction{
		{Asset: types.AssetNative, To: "2002", Amount: decimal.NewFromInt(10)},
	}, transfer.Options{AllowUnverifiedBalance: true}); err != nil {
		t.Errorf("Transfer() with AllowUnverifiedBalance error: %v", err)
	}
}

func TestTransfer_BalanceSnapshotFailureSkipsPreflight(t *testing.T) {
	node := okNode()
	node.balanceErr = errors.New("node busy")
	c := newTestClient(t, node, &fakeMirror{})

	if _, err := c.Transfer(context.Background(), []transfer.Instruction{
		{Asset: types.AssetNative, To: "2002", Amount: decimal.NewFromInt(10)},
	}, transfer.Options{}); err != nil {
		t.Errorf("an unavailable balance snapshot must not fail the transfer: %v", err)
	}
}

func TestTransfer_InsufficientTokenBalance(t *testing.T) {
	token := types.AssetID("aa11bb22cc33dd44ee55ff667788990011223344556677889900aabbccddeeff")
	node := okNode()
	node.balance = &nodeclient.BalanceResult{
		Balance: 100_000_000_000,
		Tokens:  map[types.AssetID]int64{token: 150}, // 1.50 at 2 decimals
	}
	c := newTestClient(t, node, &fakeMirror{decimals: map[types.AssetID]uint32{token: 2}})

	_, err := c.Transfer(context.Background(), []transfer.Instruction{
		{Asset: token, To: "2002", Amount: decimal.NewFromInt(5)},
	}, transfer.Options{})
	if err == nil {
		t.Fatal("Transfer() should fail the cached token balance preflight")
	}
	var ib *transfer.InsufficientBalanceError
	if !errors.As(err, &ib) {
		t.Fatalf("error should wrap InsufficientBalanceError, got %v", err)
	}
	if len(node.submitted) != 0 {
		t.Error("nothing may be submitted after a failed preflight")
	}

	// Within the held balance the transfer goes through.
	if _, err := c.Transfer(context.Background(), []transfer.Instruction{
		{Asset: token, To: "2002", Amount: decimal.NewFromInt(1)},
	}, transfer.Options{}); err != nil {
		t.Errorf("Transfer() within the token balance error: %v", err)
	}
}

func TestTransfer_UnknownTokenBalanceSkipsPreflight(t *testing.T) {
	token := types.AssetID("aa11bb22cc33dd44ee55ff667788990011223344556677889900aabbccddeeff")
	node := okNode() // snapshot holds no tokens
	c := newTestClient(t, node, &fakeMirror{decimals: map[types.AssetID]uint32{token: 2}})

	if _, err := c.Transfer(context.Background(), []transfer.Instruction{
		{Asset: token, To: "2002", Amount: decimal.NewFromInt(5)},
	}, transfer.Options{}); err != nil {
		t.Errorf("a token missing from the snapshot must not fail the transfer: %v", err)
	}
}

func TestExecute_Failures(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*fakeNode)
		wantClass errs.Class
	}{
		{
			"transport failure",
			func(n *fakeNode) { n.submitErr = errors.New("connection reset") },
			errs.ClassTransient,
		},
		{
			"node busy",
			func(n *fakeNode) { n.submitStatus = ledger.StatusBusy },
			errs.ClassTransient,
		},
		{
			"precheck rejection",
			func(n *fakeNode) { n.submitStatus = ledger.StatusInvalidSignature },
			errs.ClassNetworkRejection,
		},
		{
			"receipt unavailable",
			func(n *fakeNode) { n.receiptErr = errors.New("timeout") },
			errs.ClassTransient,
		},
		{
			"consensus rejection",
			func(n *fakeNode) { n.receipt = &ledger.Receipt{Status: ledger.StatusTokenNotAssociated} },
			errs.ClassNetworkRejection,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node := okNode()
			tt.mutate(node)
			c := newTestClient(t, node, &fakeMirror{})

			_, err := c.Transfer(context.Background(), []transfer.Instruction{
				{Asset: types.AssetNative, To: "2002", Amount: decimal.NewFromInt(1)},
			}, transfer.Options{})
			if err == nil {
				t.Fatal("Transfer() should have failed")
			}
			if got := errs.ClassOf(err); got != tt.wantClass {
				t.Errorf("error class = %v, want %v", got, tt.wantClass)
			}
		})
	}
}

func TestAssociateAssets(t *testing.T) {
	token := types.AssetID("aa11bb22cc33dd44ee55ff667788990011223344556677889900aabbccddeeff")

	t.Run("valid", func(t *testing.T) {
		node := okNode()
		c := newTestClient(t, node, &fakeMirror{})
		if _, err := c.AssociateAssets(context.Background(), []types.AssetID{token}); err != nil {
			t.Fatalf("AssociateAssets() error: %v", err)
		}
		tx := node.submitted[0]
		if tx.Body.Kind != ledger.KindAssociate || len(tx.Body.Associate) != 1 {
			t.Errorf("body = %+v", tx.Body)
		}
	})

	t.Run("rejections", func(t *testing.T) {
		c := newTestClient(t, okNode(), &fakeMirror{})
		if _, err := c.AssociateAssets(context.Background(), nil); err == nil {
			t.Error("empty asset list should be rejected")
		}
		if _, err := c.AssociateAssets(context.Background(), []types.AssetID{types.AssetNative}); err == nil {
			t.Error("native asset should be rejected")
		}
		if _, err := c.AssociateAssets(context.Background(), []types.AssetID{"bogus"}); err == nil {
			t.Error("malformed token id should be rejected")
		}
	})
}

func TestStake(t *testing.T) {
	nodeID := uint64(3)
	delegate := types.AccountID("2002")

	t.Run("to node", func(t *testing.T) {
		node := okNode()
		c := newTestClient(t, node, &fakeMirror{})
		if _, err := c.Stake(context.Background(), ledger.StakeTarget{NodeID: &nodeID}); err != nil {
			t.Fatalf("Stake() error: %v", err)
		}
		if node.submitted[0].Body.Kind != ledger.KindStake {
			t.Error("wrong body kind")
		}
	})

	t.Run("clear election", func(t *testing.T) {
		c := newTestClient(t, okNode(), &fakeMirror{})
		if _, err := c.Stake(context.Background(), ledger.StakeTarget{}); err != nil {
			t.Errorf("clearing the election should be valid: %v", err)
		}
	})

	t.Run("both targets rejected", func(t *testing.T) {
		c := newTestClient(t, okNode(), &fakeMirror{})
		_, err := c.Stake(context.Background(), ledger.StakeTarget{NodeID: &nodeID, Delegate: &delegate})
		if errs.ClassOf(err) != errs.ClassValidation {
			t.Errorf("error = %v, want validation", err)
		}
	})
}

func TestAllowances(t *testing.T) {
	t.Run("approve", func(t *testing.T) {
		node := okNode()
		c := newTestClient(t, node, &fakeMirror{})
		_, err := c.ApproveAllowance(context.Background(), ledger.Allowance{
			Asset:   types.AssetNative,
			Spender: "2002",
			Amount:  500,
		})
		if err != nil {
			t.Fatalf("ApproveAllowance() error: %v", err)
		}
		if node.submitted[0].Body.Kind != ledger.KindAllowanceApprove {
			t.Error("wrong body kind")
		}
	})

	t.Run("approve rejections", func(t *testing.T) {
		c := newTestClient(t, okNode(), &fakeMirror{})
		if _, err := c.ApproveAllowance(context.Background(), ledger.Allowance{Amount: 5}); err == nil {
			t.Error("missing spender should be rejected")
		}
		if _, err := c.ApproveAllowance(context.Background(), ledger.Allowance{Spender: "2002"}); err == nil {
			t.Error("zero amount without AllSerials should be rejected")
		}
	})

	t.Run("approve all serials", func(t *testing.T) {
		c := newTestClient(t, okNode(), &fakeMirror{})
		_, err := c.ApproveAllowance(context.Background(), ledger.Allowance{
			Asset:      types.AssetID("aa11bb22cc33dd44ee55ff667788990011223344556677889900aabbccddeeff"),
			Spender:    "2002",
			AllSerials: true,
		})
		if err != nil {
			t.Errorf("collection-wide allowance needs no amount: %v", err)
		}
	})

	t.Run("revoke", func(t *testing.T) {
		node := okNode()
		c := newTestClient(t, node, &fakeMirror{})
		if _, err := c.RevokeAllowance(context.Background(), types.AssetNative, "2002"); err != nil {
			t.Fatalf("RevokeAllowance() error: %v", err)
		}
		if node.submitted[0].Body.Kind != ledger.KindAllowanceRevoke {
			t.Error("wrong body kind")
		}
	})
}

func TestDeleteAccount(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		node := okNode()
		c := newTestClient(t, node, &fakeMirror{})
		if _, err := c.DeleteAccount(context.Background(), "2002"); err != nil {
			t.Fatalf("DeleteAccount() error: %v", err)
		}
		tx := node.submitted[0]
		if tx.Body.Kind != ledger.KindAccountDelete || *tx.Body.TransferTo != "2002" {
			t.Errorf("body = %+v", tx.Body)
		}
	})

	t.Run("rejections", func(t *testing.T) {
		c := newTestClient(t, okNode(), &fakeMirror{})
		if _, err := c.DeleteAccount(context.Background(), ""); err == nil {
			t.Error("missing beneficiary should be rejected")
		}
		if _, err := c.DeleteAccount(context.Background(), testOperator); err == nil {
			t.Error("self-beneficiary should be rejected")
		}
	})
}

func TestBalance(t *testing.T) {
	node := okNode()
	node.balance = &nodeclient.BalanceResult{Balance: 123_456_789}
	c := newTestClient(t, node, &fakeMirror{})

	got, err := c.Balance(context.Background())
	if err != nil {
		t.Fatalf("Balance() error: %v", err)
	}
	if want := decimal.RequireFromString("1.23456789"); !got.Equal(want) {
		t.Errorf("balance = %s, want %s", got, want)
	}
}

func TestQuoteQuery(t *testing.T) {
	node := okNode()
	node.queryCost = decimal.NewFromInt(2)
	c := newTestClient(t, node, &fakeMirror{})

	quote, err := c.QuoteQuery(context.Background(), "account_info")
	if err != nil {
		t.Fatalf("QuoteQuery() error: %v", err)
	}
	// Zero fee spec: fee 0, max = 2 * 1.05.
	if !quote.ServiceFee.IsZero() {
		t.Errorf("service fee = %s, want 0", quote.ServiceFee)
	}
	if want := decimal.RequireFromString("2.1"); !quote.MaxCost.Equal(want) {
		t.Errorf("max cost = %s, want %s", quote.MaxCost, want)
	}
}

func TestAccountInfo(t *testing.T) {
	info := &mirror.AccountInfo{AccountID: "2002"}
	c := newTestClient(t, okNode(), &fakeMirror{account: info})

	got, err := c.AccountInfo(context.Background(), "2002")
	if err != nil {
		t.Fatalf("AccountInfo() error: %v", err)
	}
	if got.AccountID != "2002" {
		t.Errorf("account = %q", got.AccountID)
	}

	noMirror := newTestClient(t, okNode(), nil)
	if _, err := noMirror.AccountInfo(context.Background(), "2002"); err == nil {
		t.Error("missing mirror should be rejected")
	}
}
