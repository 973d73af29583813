package bank

import (
	"bytes"
	"encoding/json"
	"errors"
	"math/big"
	"testing"

	"inscribechain/core/types"
	"inscribechain/native/inscriptions"
)

// mockAccounts hands out copies the way a real state backend would, so a
// mutation that skips PutAccount is lost.
type mockAccounts struct {
	accounts map[[20]byte][]byte
}

func newMockAccounts() *mockAccounts {
	return &mockAccounts{accounts: make(map[[20]byte][]byte)}
}

func (m *mockAccounts) GetAccount(addr [20]byte) (*types.Account, error) {
	raw, ok := m.accounts[addr]
	if !ok {
		return (&types.Account{}).EnsureMaps(), nil
	}
	acc := &types.Account{}
	if err := json.Unmarshal(raw, acc); err != nil {
		return nil, err
	}
	return acc.EnsureMaps(), nil
}

func (m *mockAccounts) PutAccount(addr [20]byte, account *types.Account) error {
	raw, err := json.Marshal(account)
	if err != nil {
		return err
	}
	m.accounts[addr] = raw
	return nil
}

var (
	aliceAddr = [20]byte{0x0A}
	bobAddr   = [20]byte{0x0B}
)

func fungible(resource string, amount int64) inscriptions.AssetDescriptor {
	return inscriptions.AssetDescriptor{Resource: resource, Kind: inscriptions.AssetFungible, Amount: big.NewInt(amount)}
}

func item(resource string, id uint64) inscriptions.AssetDescriptor {
	return inscriptions.AssetDescriptor{Resource: resource, Kind: inscriptions.AssetNonFungible, ID: id}
}

func newTestLedger(t *testing.T) *Ledger {
	t.Helper()
	return NewLedger(newMockAccounts())
}

func TestTransferFungible(t *testing.T) {
	ledger := newTestLedger(t)
	if err := ledger.Mint(aliceAddr, fungible("gold", 1_000)); err != nil {
		t.Fatalf("Mint: %v", err)
	}
	if err := ledger.Transfer(fungible("gold", 1_001), aliceAddr, bobAddr); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("overdraw: got %v, want ErrInsufficientBalance", err)
	}
	if err := ledger.Transfer(fungible("gold", 400), aliceAddr, bobAddr); err != nil {
		t.Fatalf("Transfer: %v", err)
	}
	got, err := ledger.BalanceOf(bobAddr, "gold")
	if err != nil {
		t.Fatalf("BalanceOf: %v", err)
	}
	if got.Cmp(big.NewInt(400)) != 0 {
		t.Fatalf("bob = %s, want 400", got)
	}
	got, _ = ledger.BalanceOf(aliceAddr, "gold")
	if got.Cmp(big.NewInt(600)) != 0 {
		t.Fatalf("alice = %s, want 600", got)
	}
}

func TestSelfTransferDoesNotInflate(t *testing.T) {
	ledger := newTestLedger(t)
	if err := ledger.Mint(aliceAddr, fungible("gold", 100)); err != nil {
		t.Fatalf("Mint: %v", err)
	}
	if err := ledger.Transfer(fungible("gold", 100), aliceAddr, aliceAddr); err != nil {
		t.Fatalf("self transfer: %v", err)
	}
	got, _ := ledger.BalanceOf(aliceAddr, "gold")
	if got.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("balance = %s, want 100", got)
	}
	if err := ledger.Transfer(fungible("gold", 101), aliceAddr, aliceAddr); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("self overdraw: got %v, want ErrInsufficientBalance", err)
	}
}

func TestTransferNonFungible(t *testing.T) {
	ledger := newTestLedger(t)
	if err := ledger.Mint(aliceAddr, item("deed", 7)); err != nil {
		t.Fatalf("Mint: %v", err)
	}
	if err := ledger.Transfer(item("deed", 8), aliceAddr, bobAddr); !errors.Is(err, ErrItemNotHeld) {
		t.Fatalf("missing item: got %v, want ErrItemNotHeld", err)
	}
	if err := ledger.Transfer(item("deed", 7), aliceAddr, bobAddr); err != nil {
		t.Fatalf("Transfer: %v", err)
	}
	holds, err := ledger.HoldsItem(bobAddr, "deed", 7)
	if err != nil {
		t.Fatalf("HoldsItem: %v", err)
	}
	if !holds {
		t.Fatalf("bob does not hold the item")
	}
	holds, _ = ledger.HoldsItem(aliceAddr, "deed", 7)
	if holds {
		t.Fatalf("alice still holds the item")
	}
	// The sender can no longer move it.
	if err := ledger.Transfer(item("deed", 7), aliceAddr, bobAddr); !errors.Is(err, ErrItemNotHeld) {
		t.Fatalf("double spend: got %v, want ErrItemNotHeld", err)
	}
}

func TestTransferSemiFungible(t *testing.T) {
	ledger := newTestLedger(t)
	asset := inscriptions.AssetDescriptor{Resource: "shards", Kind: inscriptions.AssetSemiFungible, Amount: big.NewInt(10), ID: 3}
	if err := ledger.Mint(aliceAddr, asset); err != nil {
		t.Fatalf("Mint: %v", err)
	}
	move := asset
	move.Amount = big.NewInt(4)
	if err := ledger.Transfer(move, aliceAddr, bobAddr); err != nil {
		t.Fatalf("Transfer: %v", err)
	}
	// Same resource under a different id is a distinct balance.
	otherID := move
	otherID.ID = 4
	if err := ledger.Transfer(otherID, aliceAddr, bobAddr); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("cross-id transfer: got %v, want ErrInsufficientBalance", err)
	}
}

func TestMintOwnershipToken(t *testing.T) {
	ledger := newTestLedger(t)
	id := [32]byte{0xAA}
	if err := ledger.MintOwnershipToken(aliceAddr, id); err != nil {
		t.Fatalf("MintOwnershipToken: %v", err)
	}
	state := ledger.state.(*mockAccounts)
	acc, err := state.GetAccount(aliceAddr)
	if err != nil {
		t.Fatalf("GetAccount: %v", err)
	}
	if len(acc.OwnershipTokens) != 1 || !bytes.Equal(acc.OwnershipTokens[0], id[:]) {
		t.Fatalf("ownership token not recorded: %x", acc.OwnershipTokens)
	}
}
