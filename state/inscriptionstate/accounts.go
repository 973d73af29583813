package inscriptionstate

import (
	"encoding/json"
	"errors"
	"fmt"

	"inscribechain/core/types"
	"inscribechain/storage"
)

var accountPrefix = []byte("ins/account/")

// Accounts are stored as JSON rather than RLP: the balance maps have no
// stable RLP form, and the Account type already carries JSON tags for the
// read APIs.

// GetAccount loads an account, returning an empty account when none exists.
func (s *State) GetAccount(addr [20]byte) (*types.Account, error) {
	raw, err := s.get(key(accountPrefix, addr[:]))
	if errors.Is(err, storage.ErrNotFound) {
		return (&types.Account{}).EnsureMaps(), nil
	}
	if err != nil {
		return nil, err
	}
	acc := &types.Account{}
	if err := json.Unmarshal(raw, acc); err != nil {
		return nil, fmt.Errorf("inscriptionstate: decode account: %w", err)
	}
	return acc.EnsureMaps(), nil
}

// PutAccount stores an account.
func (s *State) PutAccount(addr [20]byte, account *types.Account) error {
	if account == nil {
		return fmt.Errorf("inscriptionstate: nil account")
	}
	raw, err := json.Marshal(account)
	if err != nil {
		return fmt.Errorf("inscriptionstate: encode account: %w", err)
	}
	return s.put(key(accountPrefix, addr[:]), raw)
}
