package common

import "errors"

// ErrReentrantCall is returned when a guarded operation is entered while
// another guarded operation is still in flight.
var ErrReentrantCall = errors.New("reentrant call rejected")

// CallGuard is the shared critical-section flag for state-mutating operations.
// All engines that mutate shared ledgers must run their operations through the
// same guard instance so a cross-engine reentry is rejected, not just a
// same-function one.
type CallGuard struct {
	entered bool
}

// NewCallGuard returns an unlocked guard.
func NewCallGuard() *CallGuard { return &CallGuard{} }

// Run executes fn inside the critical section. A nested call through the same
// guard fails with ErrReentrantCall before fn is invoked.
func (g *CallGuard) Run(fn func() error) error {
	if g == nil {
		return fn()
	}
	if g.entered {
		return ErrReentrantCall
	}
	g.entered = true
	defer func() { g.entered = false }()
	return fn()
}
