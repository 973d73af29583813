package common

// StateTxn is implemented by state backends that can buffer one operation's
// writes. Begin opens a fresh buffer, Commit flushes it in a single batch and
// Discard drops it. The engines drive the cycle around every mutating
// operation, so a mid-operation failure leaves no partial writes behind.
type StateTxn interface {
	Begin()
	Commit() error
	Discard()
}

// Transact runs fn inside a state transaction when the backend supports one.
// Backends that do not implement StateTxn run fn directly and are themselves
// responsible for applying writes atomically.
func Transact(state any, fn func() error) error {
	tx, ok := state.(StateTxn)
	if !ok {
		return fn()
	}
	tx.Begin()
	if err := fn(); err != nil {
		tx.Discard()
		return err
	}
	return tx.Commit()
}
