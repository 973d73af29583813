package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"strconv"
	"strings"

	"inscribechain/config"
	"inscribechain/crypto"
	"inscribechain/native/bank"
	"inscribechain/native/custody"
	"inscribechain/native/inscriptions"
	"inscribechain/native/orderbook"
	"inscribechain/state/inscriptionstate"
	"inscribechain/storage"
)

var (
	dataDir    = envOr("INS_DATA_DIR", "./ins-data")
	configPath = envOr("INS_CONFIG", "./protocol.toml")
)

func envOr(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}

func main() {
	args := os.Args[1:]
	if len(args) < 1 {
		printUsage()
		return
	}

	command := args[0]
	switch command {
	case "generate-key":
		if len(args) < 2 {
			fmt.Println("Error: Please provide a key file path.")
			printUsage()
			return
		}
		generateKey(args[1])
	case "create":
		if len(args) < 3 {
			fmt.Println("Error: Please provide a key file and a params file.")
			printUsage()
			return
		}
		withEngines(func(h *host) error { return h.create(args[1], args[2]) })
	case "fill":
		if len(args) < 4 {
			fmt.Println("Error: Please provide a key file, an inscription id and a fraction in bps.")
			printUsage()
			return
		}
		withEngines(func(h *host) error { return h.fill(args[1], args[2], args[3]) })
	case "repay":
		if len(args) < 3 {
			fmt.Println("Error: Please provide a key file and an inscription id.")
			printUsage()
			return
		}
		withEngines(func(h *host) error { return h.repay(args[1], args[2]) })
	case "liquidate":
		if len(args) < 3 {
			fmt.Println("Error: Please provide a key file and an inscription id.")
			printUsage()
			return
		}
		withEngines(func(h *host) error { return h.liquidate(args[1], args[2]) })
	case "redeem":
		if len(args) < 4 {
			fmt.Println("Error: Please provide a key file, an inscription id and a share amount.")
			printUsage()
			return
		}
		withEngines(func(h *host) error { return h.redeem(args[1], args[2], args[3]) })
	case "cancel":
		if len(args) < 3 {
			fmt.Println("Error: Please provide a key file and an inscription id.")
			printUsage()
			return
		}
		withEngines(func(h *host) error { return h.cancel(args[1], args[2]) })
	case "inspect":
		if len(args) < 2 {
			fmt.Println("Error: Please provide an inscription id.")
			printUsage()
			return
		}
		withEngines(func(h *host) error { return h.inspect(args[1]) })
	case "sign-order":
		if len(args) < 3 {
			fmt.Println("Error: Please provide a key file and an order file.")
			printUsage()
			return
		}
		signOrder(args[1], args[2])
	case "fill-order":
		if len(args) < 5 {
			fmt.Println("Error: Please provide a key file, an order file, a signature and a fraction in bps.")
			printUsage()
			return
		}
		withEngines(func(h *host) error { return h.fillOrder(args[1], args[2], args[3], args[4]) })
	case "cancel-orders-below":
		if len(args) < 3 {
			fmt.Println("Error: Please provide a key file and a minimum nonce.")
			printUsage()
			return
		}
		withEngines(func(h *host) error { return h.cancelOrdersBelow(args[1], args[2]) })
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
	}
}

func printUsage() {
	fmt.Println("Usage: ins-cli <command> [arguments]")
	fmt.Println("Environment: INS_DATA_DIR (LevelDB directory), INS_CONFIG (protocol TOML)")
	fmt.Println("Commands:")
	fmt.Println("  generate-key <file>                                  Create a new key and print its address")
	fmt.Println("  create <key-file> <params.json>                      Post a new inscription")
	fmt.Println("  fill <key-file> <id> <bps>                           Fund an inscription")
	fmt.Println("  repay <key-file> <id>                                Repay inside the window")
	fmt.Println("  liquidate <key-file> <id>                            Seize collateral after the window")
	fmt.Println("  redeem <key-file> <id> <shares>                      Burn shares against custody")
	fmt.Println("  cancel <key-file> <id>                               Cancel an unfilled inscription")
	fmt.Println("  inspect <id>                                         Print the stored record")
	fmt.Println("  sign-order <key-file> <order.json>                   Print the order hash and signature")
	fmt.Println("  fill-order <key-file> <order.json> <sig-hex> <bps>   Settle a signed order")
	fmt.Println("  cancel-orders-below <key-file> <nonce>               Bulk-cancel orders under a nonce")
}

// host bundles the wired engines for one CLI invocation.
type host struct {
	inscriptions *inscriptions.Engine
	orders       *orderbook.Engine
	close        func()
}

func withEngines(fn func(*host) error) {
	file, err := config.LoadFile(configPath)
	if err != nil {
		fatal(err)
	}
	cfg, err := config.Init(file)
	if err != nil {
		fatal(err)
	}
	db, err := storage.NewLevelDB(dataDir)
	if err != nil {
		fatal(err)
	}
	defer db.Close()

	state := inscriptionstate.New(db)
	ledger := bank.NewLedger(state)

	engine := inscriptions.NewEngine(cfg.Owner())
	engine.SetState(state)
	engine.SetCollaborators(ledger, ledger, custody.NewFactory())
	engine.SetConfig(cfg)

	orders := orderbook.NewEngine(engine, engine.Guard())
	orders.SetState(state)
	orders.SetPauses(cfg)

	h := &host{inscriptions: engine, orders: orders}
	if err := fn(h); err != nil {
		fatal(err)
	}
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "Error:", err)
	os.Exit(1)
}

func generateKey(path string) {
	key, err := crypto.GeneratePrivateKey()
	if err != nil {
		fatal(err)
	}
	encoded := hex.EncodeToString(key.Bytes())
	if err := os.WriteFile(path, []byte(encoded), 0o600); err != nil {
		fatal(err)
	}
	fmt.Println("Key saved to", path)
	fmt.Println("Address:", key.PubKey().Address().String())
}

func loadKey(path string) (*crypto.PrivateKey, [20]byte, error) {
	var addr [20]byte
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, addr, err
	}
	decoded, err := hex.DecodeString(strings.TrimSpace(string(raw)))
	if err != nil {
		return nil, addr, fmt.Errorf("invalid key file: %w", err)
	}
	key, err := crypto.PrivateKeyFromBytes(decoded)
	if err != nil {
		return nil, addr, err
	}
	copy(addr[:], key.PubKey().Address().Bytes())
	return key, addr, nil
}

func parseID(encoded string) ([32]byte, error) {
	var id [32]byte
	raw, err := hex.DecodeString(strings.TrimPrefix(encoded, "0x"))
	if err != nil {
		return id, fmt.Errorf("invalid inscription id: %w", err)
	}
	if len(raw) != 32 {
		return id, fmt.Errorf("inscription id must be 32 bytes, got %d", len(raw))
	}
	copy(id[:], raw)
	return id, nil
}

func parseBps(value string) (uint64, error) {
	bps, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid basis points: %w", err)
	}
	return bps, nil
}

// assetFile mirrors inscriptions.AssetDescriptor for JSON input.
type assetFile struct {
	Resource string `json:"resource"`
	Kind     string `json:"kind"`
	Amount   string `json:"amount"`
	ID       uint64 `json:"id"`
}

type createFile struct {
	AsBorrower  bool        `json:"asBorrower"`
	Duration    int64       `json:"duration"`
	Deadline    int64       `json:"deadline"`
	MultiLender bool        `json:"multiLender"`
	Debt        []assetFile `json:"debt"`
	Interest    []assetFile `json:"interest"`
	Collateral  []assetFile `json:"collateral"`
}

func parseKind(name string) (inscriptions.AssetKind, error) {
	switch strings.ToLower(name) {
	case "fungible":
		return inscriptions.AssetFungible, nil
	case "nonfungible":
		return inscriptions.AssetNonFungible, nil
	case "semifungible":
		return inscriptions.AssetSemiFungible, nil
	case "vaultshare":
		return inscriptions.AssetVaultShare, nil
	default:
		return 0, fmt.Errorf("unknown asset kind %q", name)
	}
}

func parseAssets(files []assetFile) ([]inscriptions.AssetDescriptor, error) {
	out := make([]inscriptions.AssetDescriptor, 0, len(files))
	for _, f := range files {
		kind, err := parseKind(f.Kind)
		if err != nil {
			return nil, err
		}
		asset := inscriptions.AssetDescriptor{Resource: f.Resource, Kind: kind, ID: f.ID}
		if f.Amount != "" {
			amount, ok := new(big.Int).SetString(f.Amount, 10)
			if !ok {
				return nil, fmt.Errorf("invalid amount %q for %s", f.Amount, f.Resource)
			}
			asset.Amount = amount
		}
		out = append(out, asset)
	}
	return out, nil
}

func (h *host) create(keyPath, paramsPath string) error {
	_, caller, err := loadKey(keyPath)
	if err != nil {
		return err
	}
	raw, err := os.ReadFile(paramsPath)
	if err != nil {
		return err
	}
	var file createFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return fmt.Errorf("invalid params file: %w", err)
	}
	params := inscriptions.CreateParams{
		AsBorrower:  file.AsBorrower,
		Duration:    file.Duration,
		Deadline:    file.Deadline,
		MultiLender: file.MultiLender,
	}
	if params.Debt, err = parseAssets(file.Debt); err != nil {
		return err
	}
	if params.Interest, err = parseAssets(file.Interest); err != nil {
		return err
	}
	if params.Collateral, err = parseAssets(file.Collateral); err != nil {
		return err
	}
	ins, err := h.inscriptions.Create(caller, params)
	if err != nil {
		return err
	}
	fmt.Println("Inscription created:", hex.EncodeToString(ins.ID[:]))
	return nil
}

func (h *host) fill(keyPath, idHex, bpsArg string) error {
	_, caller, err := loadKey(keyPath)
	if err != nil {
		return err
	}
	id, err := parseID(idHex)
	if err != nil {
		return err
	}
	bps, err := parseBps(bpsArg)
	if err != nil {
		return err
	}
	if err := h.inscriptions.Fill(id, caller, bps); err != nil {
		return err
	}
	fmt.Println("Filled.")
	return nil
}

func (h *host) repay(keyPath, idHex string) error {
	_, caller, err := loadKey(keyPath)
	if err != nil {
		return err
	}
	id, err := parseID(idHex)
	if err != nil {
		return err
	}
	if err := h.inscriptions.Repay(id, caller); err != nil {
		return err
	}
	fmt.Println("Repaid.")
	return nil
}

func (h *host) liquidate(keyPath, idHex string) error {
	_, caller, err := loadKey(keyPath)
	if err != nil {
		return err
	}
	id, err := parseID(idHex)
	if err != nil {
		return err
	}
	if err := h.inscriptions.Liquidate(id, caller); err != nil {
		return err
	}
	fmt.Println("Liquidated.")
	return nil
}

func (h *host) redeem(keyPath, idHex, sharesArg string) error {
	_, caller, err := loadKey(keyPath)
	if err != nil {
		return err
	}
	id, err := parseID(idHex)
	if err != nil {
		return err
	}
	shares, ok := new(big.Int).SetString(sharesArg, 10)
	if !ok {
		return fmt.Errorf("invalid share amount %q", sharesArg)
	}
	if err := h.inscriptions.Redeem(id, caller, shares); err != nil {
		return err
	}
	fmt.Println("Redeemed.")
	return nil
}

func (h *host) cancel(keyPath, idHex string) error {
	_, caller, err := loadKey(keyPath)
	if err != nil {
		return err
	}
	id, err := parseID(idHex)
	if err != nil {
		return err
	}
	if err := h.inscriptions.Cancel(id, caller); err != nil {
		return err
	}
	fmt.Println("Cancelled.")
	return nil
}

func (h *host) inspect(idHex string) error {
	id, err := parseID(idHex)
	if err != nil {
		return err
	}
	ins, err := h.inscriptions.Inscription(id)
	if err != nil {
		return err
	}
	out, err := json.MarshalIndent(ins, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

// orderFile mirrors orderbook.SignedOrder for JSON input. Addresses are
// bech32, the inscription id is hex.
type orderFile struct {
	Maker         string `json:"maker"`
	AllowedTaker  string `json:"allowedTaker"`
	InscriptionID string `json:"inscriptionId"`
	TotalBps      uint64 `json:"totalBps"`
	Deadline      int64  `json:"deadline"`
	Nonce         uint64 `json:"nonce"`
	MinFillBps    uint64 `json:"minFillBps"`
}

func loadOrder(path string) (orderbook.SignedOrder, error) {
	var order orderbook.SignedOrder
	raw, err := os.ReadFile(path)
	if err != nil {
		return order, err
	}
	var file orderFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return order, fmt.Errorf("invalid order file: %w", err)
	}
	maker, err := crypto.DecodeAddress(file.Maker)
	if err != nil {
		return order, fmt.Errorf("maker: %w", err)
	}
	copy(order.Maker[:], maker.Bytes())
	if file.AllowedTaker != "" {
		taker, err := crypto.DecodeAddress(file.AllowedTaker)
		if err != nil {
			return order, fmt.Errorf("allowed taker: %w", err)
		}
		copy(order.AllowedTaker[:], taker.Bytes())
	}
	if order.InscriptionID, err = parseID(file.InscriptionID); err != nil {
		return order, err
	}
	order.TotalBps = file.TotalBps
	order.Deadline = file.Deadline
	order.Nonce = file.Nonce
	order.MinFillBps = file.MinFillBps
	return order, nil
}

func signOrder(keyPath, orderPath string) {
	key, _, err := loadKey(keyPath)
	if err != nil {
		fatal(err)
	}
	order, err := loadOrder(orderPath)
	if err != nil {
		fatal(err)
	}
	digest := order.Hash()
	sig, err := key.Sign(digest[:])
	if err != nil {
		fatal(err)
	}
	fmt.Println("Order hash:", hex.EncodeToString(digest[:]))
	fmt.Println("Signature:", hex.EncodeToString(sig))
}

func (h *host) fillOrder(keyPath, orderPath, sigHex, bpsArg string) error {
	_, taker, err := loadKey(keyPath)
	if err != nil {
		return err
	}
	order, err := loadOrder(orderPath)
	if err != nil {
		return err
	}
	sig, err := hex.DecodeString(strings.TrimPrefix(sigHex, "0x"))
	if err != nil {
		return fmt.Errorf("invalid signature: %w", err)
	}
	bps, err := parseBps(bpsArg)
	if err != nil {
		return err
	}
	if err := h.orders.FillOrder(order, sig, taker, bps); err != nil {
		return err
	}
	rec, err := h.orders.OrderState(order.Hash())
	if err != nil {
		return err
	}
	fmt.Printf("Order filled: %d/%d bps settled.\n", rec.FilledBps, order.TotalBps)
	return nil
}

func (h *host) cancelOrdersBelow(keyPath, nonceArg string) error {
	_, maker, err := loadKey(keyPath)
	if err != nil {
		return err
	}
	nonce, err := strconv.ParseUint(nonceArg, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid nonce: %w", err)
	}
	if err := h.orders.CancelOrdersBelow(maker, nonce); err != nil {
		return err
	}
	fmt.Println("Minimum valid nonce raised to", nonce)
	return nil
}
