package inscriptions

import "math/big"

// shareState is the slice of the state backend the share ledger needs.
type shareState interface {
	ShareBalance(id [32]byte, holder [20]byte) (*big.Int, error)
	SetShareBalance(id [32]byte, holder [20]byte, balance *big.Int) error
	ShareTotalSupply(id [32]byte) (*big.Int, error)
	SetShareTotalSupply(id [32]byte, supply *big.Int) error
}

// ShareLedger is the per-inscription fungible claim-token registry. Mint and
// Burn always move total supply together with the holder balance, so the
// sum-of-balances invariant cannot be broken by a partial write.
type ShareLedger struct {
	state shareState
}

// NewShareLedger constructs a ledger bound to the provided state backend.
func NewShareLedger(state shareState) *ShareLedger {
	return &ShareLedger{state: state}
}

// BalanceOf returns the holder's share balance for an inscription.
func (l *ShareLedger) BalanceOf(id [32]byte, holder [20]byte) (*big.Int, error) {
	if l == nil || l.state == nil {
		return nil, ErrNilState
	}
	balance, err := l.state.ShareBalance(id, holder)
	if err != nil {
		return nil, err
	}
	if balance == nil {
		return big.NewInt(0), nil
	}
	return new(big.Int).Set(balance), nil
}

// TotalSupply returns the outstanding shares for an inscription.
func (l *ShareLedger) TotalSupply(id [32]byte) (*big.Int, error) {
	if l == nil || l.state == nil {
		return nil, ErrNilState
	}
	supply, err := l.state.ShareTotalSupply(id)
	if err != nil {
		return nil, err
	}
	if supply == nil {
		return big.NewInt(0), nil
	}
	return new(big.Int).Set(supply), nil
}

// Mint credits shares to a holder and grows total supply by the same amount.
func (l *ShareLedger) Mint(id [32]byte, holder [20]byte, amount *big.Int) error {
	if l == nil || l.state == nil {
		return ErrNilState
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrZeroShares
	}
	balance, err := l.BalanceOf(id, holder)
	if err != nil {
		return err
	}
	supply, err := l.TotalSupply(id)
	if err != nil {
		return err
	}
	if err := l.state.SetShareBalance(id, holder, new(big.Int).Add(balance, amount)); err != nil {
		return err
	}
	return l.state.SetShareTotalSupply(id, new(big.Int).Add(supply, amount))
}

// Burn debits shares from a holder and shrinks total supply by the same
// amount. Burning more than the holder owns fails without mutating state.
func (l *ShareLedger) Burn(id [32]byte, holder [20]byte, amount *big.Int) error {
	if l == nil || l.state == nil {
		return ErrNilState
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrZeroShares
	}
	balance, err := l.BalanceOf(id, holder)
	if err != nil {
		return err
	}
	if balance.Cmp(amount) < 0 {
		return ErrInsufficientShare
	}
	supply, err := l.TotalSupply(id)
	if err != nil {
		return err
	}
	if err := l.state.SetShareBalance(id, holder, new(big.Int).Sub(balance, amount)); err != nil {
		return err
	}
	return l.state.SetShareTotalSupply(id, new(big.Int).Sub(supply, amount))
}
