package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"inscribechain/crypto"
)

var (
	owner    = [20]byte{0x01}
	treasury = [20]byte{0x02}
	vault    = [20]byte{0x03}
	stranger = [20]byte{0x04}
)

func newTestProtocol(t *testing.T) *Protocol {
	t.Helper()
	p, err := New(owner, treasury, vault, 250)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return p
}

func TestNewValidation(t *testing.T) {
	if _, err := New(owner, [20]byte{}, vault, 250); !errors.Is(err, ErrZeroTreasury) {
		t.Fatalf("got %v, want ErrZeroTreasury", err)
	}
	if _, err := New(owner, treasury, vault, 10_001); !errors.Is(err, ErrFeeOutOfRange) {
		t.Fatalf("got %v, want ErrFeeOutOfRange", err)
	}
}

func TestOwnerGatedMutation(t *testing.T) {
	p := newTestProtocol(t)
	if err := p.SetFeeBps(stranger, 100); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("got %v, want ErrNotOwner", err)
	}
	if err := p.SetFeeBps(owner, 10_001); !errors.Is(err, ErrFeeOutOfRange) {
		t.Fatalf("got %v, want ErrFeeOutOfRange", err)
	}
	if err := p.SetFeeBps(owner, 100); err != nil {
		t.Fatalf("SetFeeBps: %v", err)
	}
	if got := p.FeeBps(); got != 100 {
		t.Fatalf("fee = %d, want 100", got)
	}

	if err := p.SetTreasury(stranger, stranger); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("got %v, want ErrNotOwner", err)
	}
	if err := p.SetTreasury(owner, [20]byte{}); !errors.Is(err, ErrZeroTreasury) {
		t.Fatalf("got %v, want ErrZeroTreasury", err)
	}
	if err := p.SetTreasury(owner, stranger); err != nil {
		t.Fatalf("SetTreasury: %v", err)
	}
	if p.Treasury() != stranger {
		t.Fatalf("treasury not updated")
	}
}

func TestPauseSwitches(t *testing.T) {
	p := newTestProtocol(t)
	if p.IsPaused("inscriptions") {
		t.Fatalf("module paused by default")
	}
	if err := p.SetPaused(stranger, "inscriptions", true); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("got %v, want ErrNotOwner", err)
	}
	if err := p.SetPaused(owner, "inscriptions", true); err != nil {
		t.Fatalf("SetPaused: %v", err)
	}
	if !p.IsPaused("inscriptions") {
		t.Fatalf("pause did not take effect")
	}
	if p.IsPaused("orderbook") {
		t.Fatalf("pause leaked across modules")
	}
	if err := p.SetPaused(owner, "inscriptions", false); err != nil {
		t.Fatalf("SetPaused: %v", err)
	}
	if p.IsPaused("inscriptions") {
		t.Fatalf("unpause did not take effect")
	}
}

func TestLoadFileAndInit(t *testing.T) {
	bech := func(b byte) string {
		raw := make([]byte, 20)
		for i := range raw {
			raw[i] = b
		}
		return crypto.NewAddress(crypto.InsPrefix, raw).String()
	}
	path := filepath.Join(t.TempDir(), "protocol.toml")
	contents := `Owner = "` + bech(0x01) + `"
Treasury = "` + bech(0x02) + `"
ProtocolVault = "` + bech(0x03) + `"
FeeBps = 125

[Paused]
orderbook = true
`
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	file, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	p, err := Init(file)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	if p.FeeBps() != 125 {
		t.Fatalf("fee = %d, want 125", p.FeeBps())
	}
	if !p.IsPaused("orderbook") || p.IsPaused("inscriptions") {
		t.Fatalf("pause map not loaded")
	}
	want := [20]byte{}
	for i := range want {
		want[i] = 0x02
	}
	if p.Treasury() != want {
		t.Fatalf("treasury not decoded")
	}
}

func TestInitRejectsBadAddresses(t *testing.T) {
	if _, err := Init(nil); !errors.Is(err, ErrNotInitialised) {
		t.Fatalf("got %v, want ErrNotInitialised", err)
	}
	if _, err := Init(&File{Owner: "not-bech32"}); err == nil {
		t.Fatalf("bad owner address accepted")
	}
}
