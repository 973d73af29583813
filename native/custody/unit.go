// Package custody implements the per-inscription escrow unit: a custody
// holder that starts in a locked state and only executes operations named on
// an explicit allow-list until the owning protocol unlocks it.
package custody

import "errors"

var (
	ErrNotOwner      = errors.New("custody unit: caller is not the owning protocol")
	ErrLockedOp      = errors.New("custody unit: operation not on allow-list while locked")
	ErrCodeWhileLock = errors.New("custody unit: code declaration rejected while locked")
	ErrNilOperation  = errors.New("custody unit: operation identifier required")
)

// Well-known operation identifiers checked against the allow-list.
const (
	OpTransferFungible     = "transfer/fungible"
	OpTransferNonFungible  = "transfer/nonfungible"
	OpTransferSemiFungible = "transfer/semifungible"
	OpTransferVaultShare   = "transfer/vaultshare"
	OpDeclareCode          = "code/declare"
)

// Unit is the lock/allow-list state machine for one inscription's collateral.
// Locked is the initial state; Unlocked is terminal and one-way. The owner is
// the protocol engine address, the only actor allowed to force-withdraw,
// unlock, or edit the allow-list.
type Unit struct {
	address     [20]byte
	inscription [32]byte
	owner       [20]byte
	locked      bool
	allowed     map[string]struct{}
}

// NewUnit provisions a locked unit owned by the protocol for one inscription.
func NewUnit(address [20]byte, inscriptionID [32]byte, owner [20]byte) *Unit {
	return &Unit{
		address:     address,
		inscription: inscriptionID,
		owner:       owner,
		locked:      true,
		allowed:     make(map[string]struct{}),
	}
}

// Address returns the custody address holding this unit's assets.
func (u *Unit) Address() [20]byte { return u.address }

// Inscription returns the id of the owning agreement.
func (u *Unit) Inscription() [32]byte { return u.inscription }

// Locked reports whether the unit is still in lockdown.
func (u *Unit) Locked() bool { return u != nil && u.locked }

// Allow adds an operation identifier to the allow-list. Owner only.
func (u *Unit) Allow(caller [20]byte, op string) error {
	if err := u.requireOwner(caller); err != nil {
		return err
	}
	if op == "" {
		return ErrNilOperation
	}
	u.allowed[op] = struct{}{}
	return nil
}

// Disallow removes an operation identifier from the allow-list. Owner only.
func (u *Unit) Disallow(caller [20]byte, op string) error {
	if err := u.requireOwner(caller); err != nil {
		return err
	}
	delete(u.allowed, op)
	return nil
}

// Unlock flips the unit to its terminal unlocked state. Owner only, one-way.
func (u *Unit) Unlock(caller [20]byte) error {
	if err := u.requireOwner(caller); err != nil {
		return err
	}
	u.locked = false
	return nil
}

// Admit checks whether an operation may run under the current lock state.
// This is an allow-list, not a block-list: while locked, anything not
// explicitly listed is rejected, so an operation introduced by a new token
// standard cannot slip through unnoticed.
func (u *Unit) Admit(op string) error {
	if u == nil {
		return ErrLockedOp
	}
	if op == "" {
		return ErrNilOperation
	}
	if op == OpDeclareCode && u.locked {
		return ErrCodeWhileLock
	}
	if !u.locked {
		return nil
	}
	if _, ok := u.allowed[op]; !ok {
		return ErrLockedOp
	}
	return nil
}

// Execute re-checks admission immediately before running fn. Callers are
// expected to have called Admit when the operation entered, so the allow-list
// is consulted twice per operation; a bypass of the admission check alone
// cannot reach fn.
func (u *Unit) Execute(op string, fn func() error) error {
	if fn == nil {
		return ErrNilOperation
	}
	if err := u.Admit(op); err != nil {
		return err
	}
	return fn()
}

// ForceWithdraw lets the owning protocol pull custody out of the unit,
// bypassing the allow-list. The actual asset movement is performed by the
// supplied transfer callback so the unit stays agnostic of token plumbing.
func (u *Unit) ForceWithdraw(caller [20]byte, transfer func(from [20]byte) error) error {
	if err := u.requireOwner(caller); err != nil {
		return err
	}
	if transfer == nil {
		return ErrNilOperation
	}
	return transfer(u.address)
}

func (u *Unit) requireOwner(caller [20]byte) error {
	if u == nil || caller != u.owner {
		return ErrNotOwner
	}
	return nil
}
