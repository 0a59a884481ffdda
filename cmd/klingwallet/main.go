// klingwallet is a command-line wallet for the Klingnet ledger.
package main

import (
	"bufio"
	"context"
	"encoding/hex"
	"flag"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/Klingon-tech/klingnet-wallet/config"
	"github.com/Klingon-tech/klingnet-wallet/internal/client"
	"github.com/Klingon-tech/klingnet-wallet/internal/connector"
	"github.com/Klingon-tech/klingnet-wallet/internal/fees"
	"github.com/Klingon-tech/klingnet-wallet/internal/log"
	"github.com/Klingon-tech/klingnet-wallet/internal/mirror"
	"github.com/Klingon-tech/klingnet-wallet/internal/nodeclient"
	"github.com/Klingon-tech/klingnet-wallet/internal/probe"
	"github.com/Klingon-tech/klingnet-wallet/internal/statestore"
	"github.com/Klingon-tech/klingnet-wallet/internal/transfer"
	"github.com/Klingon-tech/klingnet-wallet/pkg/crypto"
	"github.com/Klingon-tech/klingnet-wallet/pkg/keys"
	"github.com/Klingon-tech/klingnet-wallet/pkg/ledger"
	"github.com/Klingon-tech/klingnet-wallet/pkg/types"
	"github.com/shopspring/decimal"
	"golang.org/x/term"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	// Parse global flags that appear before the subcommand.
	network := "mainnet"
	dataDir := ""
	configPath := ""
	nodeURL := ""
	mirrorURL := ""

	args := os.Args[1:]
	for len(args) > 0 {
		switch {
		case args[0] == "--network" && len(args) > 1:
			network = args[1]
			args = args[2:]
		case strings.HasPrefix(args[0], "--network="):
			network = args[0][len("--network="):]
			args = args[1:]
		case args[0] == "--datadir" && len(args) > 1:
			dataDir = args[1]
			args = args[2:]
		case strings.HasPrefix(args[0], "--datadir="):
			dataDir = args[0][len("--datadir="):]
			args = args[1:]
		case args[0] == "--config" && len(args) > 1:
			configPath = args[1]
			args = args[2:]
		case strings.HasPrefix(args[0], "--config="):
			configPath = args[0][len("--config="):]
			args = args[1:]
		case args[0] == "--node" && len(args) > 1:
			nodeURL = args[1]
			args = args[2:]
		case strings.HasPrefix(args[0], "--node="):
			nodeURL = args[0][len("--node="):]
			args = args[1:]
		case args[0] == "--mirror" && len(args) > 1:
			mirrorURL = args[1]
			args = args[2:]
		case strings.HasPrefix(args[0], "--mirror="):
			mirrorURL = args[0][len("--mirror="):]
			args = args[1:]
		default:
			goto dispatch
		}
	}

dispatch:
	if len(args) == 0 {
		usage()
		os.Exit(1)
	}

	cfg, err := config.Load(dataDir, config.NetworkType(network), configPath)
	if err != nil {
		fatal("load config: %v", err)
	}
	if nodeURL != "" {
		cfg.Node.URL = nodeURL
	}
	if mirrorURL != "" {
		cfg.Mirror.URL = mirrorURL
	}

	// Set address HRP based on network.
	if cfg.Network == config.Testnet {
		types.SetAddressHRP(types.TestnetHRP)
	} else {
		types.SetAddressHRP(types.MainnetHRP)
	}

	if err := log.Init(cfg.Log.Level, cfg.Log.JSON, cfg.Log.File); err != nil {
		fatal("init logging: %v", err)
	}

	cmd := args[0]
	cmdArgs := args[1:]

	switch cmd {
	case "import":
		cmdImport(cfg, cmdArgs)
	case "accounts":
		cmdAccounts(cfg)
	case "forget":
		cmdForget(cfg, cmdArgs)
	case "info":
		cmdInfo(cfg, cmdArgs)
	case "balance":
		cmdBalance(cfg, cmdArgs)
	case "transfer":
		cmdTransfer(cfg, cmdArgs)
	case "associate":
		cmdAssociate(cfg, cmdArgs)
	case "stake":
		cmdStake(cfg, cmdArgs)
	case "allowance":
		cmdAllowance(cfg, cmdArgs)
	case "delete-account":
		cmdDeleteAccount(cfg, cmdArgs)
	case "history":
		cmdHistory(cfg, cmdArgs)
	case "quote":
		cmdQuote(cfg, cmdArgs)
	case "token":
		cmdToken(cfg, cmdArgs)
	case "help", "--help", "-h":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: klingwallet [global flags] <command> [flags]

Global flags:
  --network <net>     mainnet (default) or testnet
  --datadir <path>    Data directory (default: ~/.klingwallet)
  --config <path>     Config file path (default: <datadir>/klingwallet.conf)
  --node <url>        Consensus node endpoint
  --mirror <url>      Mirror endpoint

Commands:
  import --account <ref> --curve <ed25519|secp256k1> [--key <hex> | --mnemonic "..."]
                                  Verify a key against an account and import it
  accounts                        List imported accounts
  forget <account>                Remove an imported account and its key

  info <account|alias|address>    Show on-ledger account details
  balance --account <id>          Show the operator's native balance
  transfer --account <id> --to <id> --amount <amt> [--asset <id>] [--from <id>]
           [--memo <m>] [--max-fee <raw>] [--force]
                                  Transfer native or token units
  associate --account <id> --assets <tok1,tok2>
                                  Associate token assets with the operator
  stake --account <id> [--node-id <n> | --to <account>]
                                  Set or clear the staking target
  allowance approve --account <id> --spender <id> --amount <raw> [--asset <id>]
  allowance revoke --account <id> --spender <id> [--asset <id>]
                                  Manage spending allowances
  delete-account --account <id> --transfer-to <id>
                                  Delete the operator account
  history --account <id> [--limit <n>]
                                  Show recent transactions
  quote --account <id> --query <name>
                                  Show the cost quote for a paid query
  token info <token_id>           Show token metadata
`)
}

// ── wiring ──────────────────────────────────────────────────────────────

// session holds the wired components for one command invocation.
type session struct {
	conn  *connector.Connector
	store *statestore.Store
}

func (s *session) close() {
	if s.store != nil {
		s.store.Close()
	}
}

func openSession(cfg *config.Config) *session {
	db, err := statestore.NewBadger(cfg.StoreDir())
	if err != nil {
		fatal("open store: %v", err)
	}
	store := statestore.New(db)

	node := nodeclient.NewWithTimeout(cfg.Node.URL, cfg.Node.Timeout)
	mir := mirror.NewWithTimeout(cfg.Mirror.URL, cfg.Mirror.Timeout)

	spec, err := feeSpec(cfg)
	if err != nil {
		store.Close()
		fatal("fee config: %v", err)
	}

	conn, err := connector.New(string(cfg.Network), node, mir, probe.New(node), store, terminalConfirmer{}, spec)
	if err != nil {
		store.Close()
		fatal("wire connector: %v", err)
	}
	return &session{conn: conn, store: store}
}

func feeSpec(cfg *config.Config) (fees.Spec, error) {
	spec := fees.Spec{PercentageCut: decimal.Zero}
	if cfg.Fee.PercentageCut != "" {
		cut, err := decimal.NewFromString(cfg.Fee.PercentageCut)
		if err != nil {
			return spec, fmt.Errorf("fee.cut: %w", err)
		}
		spec.PercentageCut = cut
	}
	if cfg.Fee.Collector != "" {
		collector, err := types.ParseAccountID(cfg.Fee.Collector)
		if err != nil {
			return spec, fmt.Errorf("fee.collector: %w", err)
		}
		spec.Collector = collector
	}
	return spec, spec.Validate()
}

// unlock resumes a previously imported account.
func unlock(s *session, account string) *client.Client {
	id, err := types.ParseAccountID(account)
	if err != nil {
		fatal("invalid account: %v", err)
	}
	passphrase, err := readPassword("Enter passphrase: ")
	if err != nil {
		fatal("read passphrase: %v", err)
	}
	c, err := s.conn.Resume(context.Background(), id, passphrase)
	if err != nil {
		fatal("unlock account: %v", err)
	}
	return c
}

// ── import ──────────────────────────────────────────────────────────────

func cmdImport(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	account := fs.String("account", "", "Account ID, alias, or address")
	curveName := fs.String("curve", "ed25519", "Key curve: ed25519 or secp256k1")
	keyHex := fs.String("key", "", "Private key as hex (prompted if omitted)")
	mnemonic := fs.String("mnemonic", "", "BIP-39 mnemonic instead of a raw key")
	fs.Parse(args)

	if *account == "" {
		fatal("Usage: klingwallet import --account <ref> --curve <ed25519|secp256k1> [--key <hex> | --mnemonic \"...\"]")
	}
	curve, err := crypto.ParseCurve(*curveName)
	if err != nil {
		fatal("%v", err)
	}

	var signer keys.Signer
	switch {
	case *mnemonic != "":
		hd, err := keys.HDSignerFromMnemonic(curve, *mnemonic, "", 0)
		if err != nil {
			fatal("derive from mnemonic: %v", err)
		}
		signer = hd
	default:
		raw := *keyHex
		if raw == "" {
			secret, err := readPassword("Enter private key (hex): ")
			if err != nil {
				fatal("read key: %v", err)
			}
			raw = strings.TrimSpace(string(secret))
		}
		secret, err := hex.DecodeString(strings.TrimPrefix(raw, "0x"))
		if err != nil {
			fatal("key must be hex")
		}
		sw, err := keys.SoftwareSignerFromBytes(curve, secret)
		for i := range secret {
			secret[i] = 0
		}
		if err != nil {
			fatal("load key: %v", err)
		}
		signer = sw
	}

	passphrase, err := readPassword("New passphrase (protects the stored key): ")
	if err != nil {
		fatal("read passphrase: %v", err)
	}
	confirm, err := readPassword("Confirm passphrase: ")
	if err != nil {
		fatal("read passphrase: %v", err)
	}
	if string(passphrase) != string(confirm) {
		fatal("passphrases do not match")
	}

	s := openSession(cfg)
	defer s.close()

	c, err := s.conn.Connect(context.Background(), *account, signer, passphrase)
	if err != nil {
		fatal("import: %v", err)
	}
	fmt.Printf("Imported account %s\n", c.Operator())
}

// ── accounts / forget ───────────────────────────────────────────────────

func cmdAccounts(cfg *config.Config) {
	s := openSession(cfg)
	defer s.close()

	records, err := s.conn.Accounts()
	if err != nil {
		fatal("list accounts: %v", err)
	}
	if len(records) == 0 {
		fmt.Println("No accounts imported.")
		return
	}
	for _, r := range records {
		fmt.Printf("%s  %s  %s  imported %s\n",
			r.AccountID, r.Curve, r.Address, r.ImportedAt.Format("2006-01-02"))
	}
}

func cmdForget(cfg *config.Config, args []string) {
	if len(args) < 1 {
		fatal("Usage: klingwallet forget <account>")
	}
	id, err := types.ParseAccountID(args[0])
	if err != nil {
		fatal("invalid account: %v", err)
	}

	s := openSession(cfg)
	defer s.close()

	if err := s.conn.Forget(id); err != nil {
		fatal("forget: %v", err)
	}
	fmt.Printf("Forgot account %s\n", id)
}

// ── info / balance ──────────────────────────────────────────────────────

func cmdInfo(cfg *config.Config, args []string) {
	if len(args) < 1 {
		fatal("Usage: klingwallet info <account|alias|address>")
	}

	mir := mirror.NewWithTimeout(cfg.Mirror.URL, cfg.Mirror.Timeout)
	info, err := mir.Account(context.Background(), args[0])
	if err != nil {
		fatal("account lookup: %v", err)
	}

	fmt.Printf("Account:  %s\n", info.AccountID)
	if info.Alias != "" {
		fmt.Printf("Alias:    %s\n", info.Alias)
	}
	fmt.Printf("Address:  %s\n", info.Address)
	fmt.Printf("Curve:    %s\n", info.Key.Curve)
	fmt.Printf("Balance:  %s KNT\n", formatNative(info.Balance))
	for _, t := range info.Tokens {
		fmt.Printf("  Token %s: %d raw units\n", t.Token, t.Balance)
	}
	if info.Memo != "" {
		fmt.Printf("Memo:     %s\n", info.Memo)
	}
	if info.StakeNode != nil {
		fmt.Printf("Staked:   node %d\n", *info.StakeNode)
	}
	if info.StakeTo != "" {
		fmt.Printf("Staked:   delegated to %s\n", info.StakeTo)
	}
	if info.Deleted {
		fmt.Println("Status:   DELETED")
	}
}

func cmdBalance(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("balance", flag.ExitOnError)
	account := fs.String("account", "", "Imported account ID")
	fs.Parse(args)

	if *account == "" {
		fatal("Usage: klingwallet balance --account <id>")
	}

	s := openSession(cfg)
	defer s.close()
	c := unlock(s, *account)

	bal, err := c.Balance(context.Background())
	if err != nil {
		fatal("balance: %v", err)
	}
	fmt.Printf("Balance: %s KNT\n", bal)
}

// ── transfer ────────────────────────────────────────────────────────────

func cmdTransfer(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("transfer", flag.ExitOnError)
	account := fs.String("account", "", "Imported account ID (operator)")
	to := fs.String("to", "", "Recipient account ID")
	amountStr := fs.String("amount", "", "Amount in human units (e.g. 1.5)")
	asset := fs.String("asset", "", "Token ID (default: native)")
	from := fs.String("from", "", "Debit this account via allowance instead of the operator")
	memo := fs.String("memo", "", "Transaction memo")
	maxFee := fs.Uint64("max-fee", 0, "Fee ceiling in raw native units")
	force := fs.Bool("force", false, "Proceed past a cached-balance shortfall")
	fs.Parse(args)

	if *account == "" || *to == "" || *amountStr == "" {
		fatal("Usage: klingwallet transfer --account <id> --to <id> --amount <amt> [--asset <id>] [--from <id>] [--memo <m>] [--max-fee <raw>] [--force]")
	}

	amount, err := decimal.NewFromString(*amountStr)
	if err != nil {
		fatal("invalid amount: %v", err)
	}
	toID, err := types.ParseAccountID(*to)
	if err != nil {
		fatal("invalid recipient: %v", err)
	}

	instr := transfer.Instruction{
		Asset:  types.AssetNative,
		To:     toID,
		Amount: amount,
	}
	if *asset != "" {
		a, err := types.ParseAssetID(*asset)
		if err != nil {
			fatal("invalid asset: %v", err)
		}
		instr.Asset = a
	}
	if *from != "" {
		fromID, err := types.ParseAccountID(*from)
		if err != nil {
			fatal("invalid from account: %v", err)
		}
		instr.From = fromID
	}

	s := openSession(cfg)
	defer s.close()
	c := unlock(s, *account)

	receipt, err := c.Transfer(context.Background(), []transfer.Instruction{instr}, transfer.Options{
		Memo:                   *memo,
		MaxFee:                 *maxFee,
		AllowUnverifiedBalance: *force,
	})
	if err != nil {
		fatal("transfer: %v", err)
	}
	fmt.Printf("Status: %s\n", receipt.Status)
}

// ── associate ───────────────────────────────────────────────────────────

func cmdAssociate(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("associate", flag.ExitOnError)
	account := fs.String("account", "", "Imported account ID")
	assetList := fs.String("assets", "", "Comma-separated token IDs")
	fs.Parse(args)

	if *account == "" || *assetList == "" {
		fatal("Usage: klingwallet associate --account <id> --assets <tok1,tok2>")
	}

	var assets []types.AssetID
	for _, part := range strings.Split(*assetList, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		a, err := types.ParseAssetID(part)
		if err != nil {
			fatal("invalid asset %q: %v", part, err)
		}
		assets = append(assets, a)
	}

	s := openSession(cfg)
	defer s.close()
	c := unlock(s, *account)

	receipt, err := c.AssociateAssets(context.Background(), assets)
	if err != nil {
		fatal("associate: %v", err)
	}
	fmt.Printf("Status: %s\n", receipt.Status)
}

// ── stake ───────────────────────────────────────────────────────────────

func cmdStake(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("stake", flag.ExitOnError)
	account := fs.String("account", "", "Imported account ID")
	nodeID := fs.Int64("node-id", -1, "Consensus node ID to stake to")
	delegate := fs.String("to", "", "Account to delegate stake to")
	fs.Parse(args)

	if *account == "" {
		fatal("Usage: klingwallet stake --account <id> [--node-id <n> | --to <account>]")
	}
	if *nodeID >= 0 && *delegate != "" {
		fatal("stake target is either --node-id or --to, not both")
	}

	var target ledger.StakeTarget
	if *nodeID >= 0 {
		n := uint64(*nodeID)
		target.NodeID = &n
	}
	if *delegate != "" {
		id, err := types.ParseAccountID(*delegate)
		if err != nil {
			fatal("invalid delegate account: %v", err)
		}
		target.Delegate = &id
	}

	s := openSession(cfg)
	defer s.close()
	c := unlock(s, *account)

	receipt, err := c.Stake(context.Background(), target)
	if err != nil {
		fatal("stake: %v", err)
	}
	fmt.Printf("Status: %s\n", receipt.Status)
}

// ── allowance ───────────────────────────────────────────────────────────

func cmdAllowance(cfg *config.Config, args []string) {
	if len(args) < 1 {
		fatal("Usage: klingwallet allowance <approve|revoke> [flags]")
	}

	switch args[0] {
	case "approve":
		cmdAllowanceApprove(cfg, args[1:])
	case "revoke":
		cmdAllowanceRevoke(cfg, args[1:])
	default:
		fatal("Unknown allowance command: %s", args[0])
	}
}

func cmdAllowanceApprove(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("allowance approve", flag.ExitOnError)
	account := fs.String("account", "", "Imported account ID")
	spender := fs.String("spender", "", "Account allowed to spend")
	amount := fs.Int64("amount", 0, "Allowance in raw units")
	asset := fs.String("asset", "", "Token ID (default: native)")
	fs.Parse(args)

	if *account == "" || *spender == "" || *amount <= 0 {
		fatal("Usage: klingwallet allowance approve --account <id> --spender <id> --amount <raw> [--asset <id>]")
	}
	spenderID, err := types.ParseAccountID(*spender)
	if err != nil {
		fatal("invalid spender: %v", err)
	}

	allowance := ledger.Allowance{
		Asset:   types.AssetNative,
		Spender: spenderID,
		Amount:  *amount,
	}
	if *asset != "" {
		a, err := types.ParseAssetID(*asset)
		if err != nil {
			fatal("invalid asset: %v", err)
		}
		allowance.Asset = a
	}

	s := openSession(cfg)
	defer s.close()
	c := unlock(s, *account)

	receipt, err := c.ApproveAllowance(context.Background(), allowance)
	if err != nil {
		fatal("approve allowance: %v", err)
	}
	fmt.Printf("Status: %s\n", receipt.Status)
}

func cmdAllowanceRevoke(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("allowance revoke", flag.ExitOnError)
	account := fs.String("account", "", "Imported account ID")
	spender := fs.String("spender", "", "Account to revoke")
	asset := fs.String("asset", "", "Token ID (default: native)")
	fs.Parse(args)

	if *account == "" || *spender == "" {
		fatal("Usage: klingwallet allowance revoke --account <id> --spender <id> [--asset <id>]")
	}
	spenderID, err := types.ParseAccountID(*spender)
	if err != nil {
		fatal("invalid spender: %v", err)
	}

	assetID := types.AssetNative
	if *asset != "" {
		a, err := types.ParseAssetID(*asset)
		if err != nil {
			fatal("invalid asset: %v", err)
		}
		assetID = a
	}

	s := openSession(cfg)
	defer s.close()
	c := unlock(s, *account)

	receipt, err := c.RevokeAllowance(context.Background(), assetID, spenderID)
	if err != nil {
		fatal("revoke allowance: %v", err)
	}
	fmt.Printf("Status: %s\n", receipt.Status)
}

// ── delete-account ──────────────────────────────────────────────────────

func cmdDeleteAccount(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("delete-account", flag.ExitOnError)
	account := fs.String("account", "", "Imported account ID")
	transferTo := fs.String("transfer-to", "", "Account that receives the remaining balance")
	fs.Parse(args)

	if *account == "" || *transferTo == "" {
		fatal("Usage: klingwallet delete-account --account <id> --transfer-to <id>")
	}
	toID, err := types.ParseAccountID(*transferTo)
	if err != nil {
		fatal("invalid transfer-to account: %v", err)
	}

	if !confirmStdin(fmt.Sprintf("Delete account %s and move its balance to %s? This cannot be undone.", *account, toID)) {
		fatal("aborted")
	}

	s := openSession(cfg)
	defer s.close()
	c := unlock(s, *account)

	receipt, err := c.DeleteAccount(context.Background(), toID)
	if err != nil {
		fatal("delete account: %v", err)
	}
	fmt.Printf("Status: %s\n", receipt.Status)

	// The on-ledger account is gone; drop the local record too.
	if err := s.conn.Forget(c.Operator()); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: forget local record: %v\n", err)
	}
}

// ── history / quote / token ─────────────────────────────────────────────

func cmdHistory(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	account := fs.String("account", "", "Account ID")
	limit := fs.Int("limit", 25, "Maximum records")
	fs.Parse(args)

	if *account == "" {
		fatal("Usage: klingwallet history --account <id> [--limit <n>]")
	}
	id, err := types.ParseAccountID(*account)
	if err != nil {
		fatal("invalid account: %v", err)
	}

	mir := mirror.NewWithTimeout(cfg.Mirror.URL, cfg.Mirror.Timeout)
	records, err := mir.Transactions(context.Background(), id, *limit)
	if err != nil {
		fatal("history: %v", err)
	}
	if len(records) == 0 {
		fmt.Println("No transactions.")
		return
	}
	for _, r := range records {
		fmt.Printf("%s  %-18s %-24s %s\n",
			r.Timestamp.Format("2006-01-02 15:04:05"), r.Kind, r.Status, r.ID)
	}
}

func cmdQuote(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("quote", flag.ExitOnError)
	account := fs.String("account", "", "Imported account ID")
	query := fs.String("query", "", "Query name (e.g. getAccountRecords)")
	fs.Parse(args)

	if *account == "" || *query == "" {
		fatal("Usage: klingwallet quote --account <id> --query <name>")
	}

	s := openSession(cfg)
	defer s.close()
	c := unlock(s, *account)

	quote, err := c.QuoteQuery(context.Background(), *query)
	if err != nil {
		fatal("quote: %v", err)
	}
	fmt.Printf("Service fee: %s KNT\n", quote.ServiceFee)
	fmt.Printf("Max cost:    %s KNT\n", quote.MaxCost)
}

func cmdToken(cfg *config.Config, args []string) {
	if len(args) < 2 || args[0] != "info" {
		fatal("Usage: klingwallet token info <token_id>")
	}
	tok, err := types.ParseAssetID(args[1])
	if err != nil {
		fatal("invalid token: %v", err)
	}

	mir := mirror.NewWithTimeout(cfg.Mirror.URL, cfg.Mirror.Timeout)
	info, err := mir.Token(context.Background(), tok)
	if err != nil {
		fatal("token lookup: %v", err)
	}

	fmt.Printf("Token:    %s\n", info.TokenID)
	fmt.Printf("Name:     %s\n", info.Name)
	fmt.Printf("Symbol:   %s\n", info.Symbol)
	fmt.Printf("Decimals: %d\n", info.Decimals)
	fmt.Printf("Supply:   %s\n", info.TotalSupply)
}

// ── helpers ─────────────────────────────────────────────────────────────

// terminalConfirmer asks yes/no questions on the controlling terminal.
type terminalConfirmer struct{}

func (terminalConfirmer) Confirm(_ context.Context, prompt string) (bool, error) {
	return confirmStdin(prompt), nil
}

func confirmStdin(prompt string) bool {
	fmt.Fprintf(os.Stderr, "%s [y/N]: ", prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

// formatNative converts raw native units to a human-readable decimal string.
func formatNative(raw uint64) string {
	return decimal.New(int64(raw), -types.NativeDecimals).String()
}

func readPassword(prompt string) ([]byte, error) {
	fmt.Fprint(os.Stderr, prompt)
	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr) // newline after hidden input
	if err != nil {
		return nil, err
	}
	return password, nil
}

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
