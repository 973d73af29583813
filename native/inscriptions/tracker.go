package inscriptions

import (
	"errors"
	"math/big"
)

var (
	errNegativeCredit = errors.New("balance tracker: credit must be positive")
	errTrackerDebit   = errors.New("balance tracker: debit exceeds tracked balance")
)

// trackerState is the slice of the state backend the balance tracker needs.
type trackerState interface {
	TrackedBalance(id [32]byte, category AssetCategory, slot int) (*big.Int, error)
	SetTrackedBalance(id [32]byte, category AssetCategory, slot int, amount *big.Int) error
}

// BalanceTracker is the per-(inscription, slot, category) ledger of amounts
// actually held in protocol custody. Every credit and debit names the owning
// inscription, so funds custodied for one agreement can never be read through
// another agreement's redemption path, even when many inscriptions share the
// same underlying resource.
type BalanceTracker struct {
	state trackerState
}

// NewBalanceTracker constructs a tracker bound to the provided state backend.
func NewBalanceTracker(state trackerState) *BalanceTracker {
	return &BalanceTracker{state: state}
}

// Balance returns the tracked custody amount for one asset slot.
func (t *BalanceTracker) Balance(id [32]byte, category AssetCategory, slot int) (*big.Int, error) {
	if t == nil || t.state == nil {
		return nil, ErrNilState
	}
	amount, err := t.state.TrackedBalance(id, category, slot)
	if err != nil {
		return nil, err
	}
	if amount == nil {
		return big.NewInt(0), nil
	}
	return new(big.Int).Set(amount), nil
}

// Credit records custody received on a repayment pull, liquidation pull, or
// swap collection.
func (t *BalanceTracker) Credit(id [32]byte, category AssetCategory, slot int, amount *big.Int) error {
	if t == nil || t.state == nil {
		return ErrNilState
	}
	if amount == nil || amount.Sign() <= 0 {
		return errNegativeCredit
	}
	current, err := t.Balance(id, category, slot)
	if err != nil {
		return err
	}
	return t.state.SetTrackedBalance(id, category, slot, new(big.Int).Add(current, amount))
}

// Debit releases custody during a redemption payout. Debiting below zero is an
// invariant violation and fails without mutating state.
func (t *BalanceTracker) Debit(id [32]byte, category AssetCategory, slot int, amount *big.Int) error {
	if t == nil || t.state == nil {
		return ErrNilState
	}
	if amount == nil || amount.Sign() <= 0 {
		return errNegativeCredit
	}
	current, err := t.Balance(id, category, slot)
	if err != nil {
		return err
	}
	if current.Cmp(amount) < 0 {
		return errTrackerDebit
	}
	return t.state.SetTrackedBalance(id, category, slot, new(big.Int).Sub(current, amount))
}

// Zero clears a slot in one step. Used for the non-fungible first-redeemer
// payout, where the whole item leaves custody at once.
func (t *BalanceTracker) Zero(id [32]byte, category AssetCategory, slot int) error {
	if t == nil || t.state == nil {
		return ErrNilState
	}
	return t.state.SetTrackedBalance(id, category, slot, big.NewInt(0))
}
