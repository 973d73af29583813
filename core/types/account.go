package types

import "math/big"

// Account tracks the balances held by a single address. Fungible and
// vault-share balances are keyed by resource address, non-fungible holdings by
// resource address and item id, semi-fungible holdings by both with an amount.
type Account struct {
	Nonce           uint64              `json:"nonce"`
	Fungible        map[string]*big.Int `json:"fungible,omitempty"`
	NonFungible     map[string][]uint64 `json:"nonFungible,omitempty"`
	SemiFungible    map[string]*big.Int `json:"semiFungible,omitempty"`
	OwnershipTokens [][]byte            `json:"ownershipTokens,omitempty"`
}

// EnsureMaps initialises any nil balance maps so callers can mutate the
// account without nil checks.
func (a *Account) EnsureMaps() *Account {
	if a == nil {
		a = &Account{}
	}
	if a.Fungible == nil {
		a.Fungible = make(map[string]*big.Int)
	}
	if a.NonFungible == nil {
		a.NonFungible = make(map[string][]uint64)
	}
	if a.SemiFungible == nil {
		a.SemiFungible = make(map[string]*big.Int)
	}
	return a
}
