package config

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"

	"inscribechain/crypto"
)

var (
	ErrNotOwner       = errors.New("config: caller is not the owner")
	ErrFeeOutOfRange  = errors.New("config: fee bps out of range")
	ErrZeroTreasury   = errors.New("config: treasury address required")
	ErrNotInitialised = errors.New("config: protocol record not initialised")
)

var zeroAddress [20]byte

// File is the on-disk TOML representation of the protocol configuration.
// Addresses are bech32-encoded strings; Init decodes and validates them.
type File struct {
	Owner         string          `toml:"Owner"`
	Treasury      string          `toml:"Treasury"`
	ProtocolVault string          `toml:"ProtocolVault"`
	FeeBps        uint64          `toml:"FeeBps"`
	Paused        map[string]bool `toml:"Paused"`
}

// LoadFile reads a TOML protocol configuration from disk.
func LoadFile(path string) (*File, error) {
	cfg := &File{}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// Protocol is the process-wide configuration record shared by the engines:
// treasury address, protocol fee rate, vault address and per-module pause
// switches. Mutation is owner-gated; reads are safe for concurrent use by the
// host even though the engines themselves run single-threaded.
type Protocol struct {
	mu       sync.RWMutex
	owner    [20]byte
	treasury [20]byte
	vault    [20]byte
	feeBps   uint64
	paused   map[string]bool
}

// Init builds the runtime record from a decoded file. This is the explicit
// initialisation step; engines receive the returned handle rather than
// reading ambient globals.
func Init(file *File) (*Protocol, error) {
	if file == nil {
		return nil, ErrNotInitialised
	}
	owner, err := decodeAddr(file.Owner)
	if err != nil {
		return nil, fmt.Errorf("config: owner: %w", err)
	}
	treasury, err := decodeAddr(file.Treasury)
	if err != nil {
		return nil, fmt.Errorf("config: treasury: %w", err)
	}
	vault, err := decodeAddr(file.ProtocolVault)
	if err != nil {
		return nil, fmt.Errorf("config: protocol vault: %w", err)
	}
	p, err := New(owner, treasury, vault, file.FeeBps)
	if err != nil {
		return nil, err
	}
	for module, paused := range file.Paused {
		p.paused[strings.TrimSpace(module)] = paused
	}
	return p, nil
}

// New constructs a protocol record directly from decoded values.
func New(owner, treasury, vault [20]byte, feeBps uint64) (*Protocol, error) {
	if treasury == zeroAddress {
		return nil, ErrZeroTreasury
	}
	if feeBps > 10_000 {
		return nil, ErrFeeOutOfRange
	}
	return &Protocol{
		owner:    owner,
		treasury: treasury,
		vault:    vault,
		feeBps:   feeBps,
		paused:   make(map[string]bool),
	}, nil
}

func decodeAddr(encoded string) ([20]byte, error) {
	var out [20]byte
	trimmed := strings.TrimSpace(encoded)
	if trimmed == "" {
		return out, fmt.Errorf("address required")
	}
	addr, err := crypto.DecodeAddress(trimmed)
	if err != nil {
		return out, err
	}
	copy(out[:], addr.Bytes())
	return out, nil
}

// Owner returns the governance address allowed to mutate the record.
func (p *Protocol) Owner() [20]byte {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.owner
}

// Treasury returns the fee-share recipient address.
func (p *Protocol) Treasury() [20]byte {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.treasury
}

// ProtocolVault returns the address holding protocol custody (repayments,
// seized collateral, instant-swap collateral).
func (p *Protocol) ProtocolVault() [20]byte {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.vault
}

// FeeBps returns the protocol fee rate in basis points.
func (p *Protocol) FeeBps() uint64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.feeBps
}

// SetFeeBps updates the protocol fee rate. Owner only, capped at 10000.
func (p *Protocol) SetFeeBps(caller [20]byte, bps uint64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if caller != p.owner {
		return ErrNotOwner
	}
	if bps > 10_000 {
		return ErrFeeOutOfRange
	}
	p.feeBps = bps
	return nil
}

// SetTreasury updates the fee-share recipient. Owner only.
func (p *Protocol) SetTreasury(caller, treasury [20]byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if caller != p.owner {
		return ErrNotOwner
	}
	if treasury == zeroAddress {
		return ErrZeroTreasury
	}
	p.treasury = treasury
	return nil
}

// SetPaused toggles the pause switch for a module. Owner only.
func (p *Protocol) SetPaused(caller [20]byte, module string, paused bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if caller != p.owner {
		return ErrNotOwner
	}
	p.paused[strings.TrimSpace(module)] = paused
	return nil
}

// IsPaused implements common.PauseView for the engines.
func (p *Protocol) IsPaused(module string) bool {
	if p == nil {
		return false
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.paused[module]
}
