package custody

import "sort"

// UnitRecord is the serialisable snapshot of a unit, used by state backends
// to persist custody state between operations.
type UnitRecord struct {
	Address     [20]byte
	Inscription [32]byte
	Owner       [20]byte
	Locked      bool
	Allowed     []string
}

// Snapshot captures the unit's current state. The allow-list is sorted so the
// encoding is deterministic.
func (u *Unit) Snapshot() *UnitRecord {
	if u == nil {
		return nil
	}
	allowed := make([]string, 0, len(u.allowed))
	for op := range u.allowed {
		allowed = append(allowed, op)
	}
	sort.Strings(allowed)
	return &UnitRecord{
		Address:     u.address,
		Inscription: u.inscription,
		Owner:       u.owner,
		Locked:      u.locked,
		Allowed:     allowed,
	}
}

// FromRecord rebuilds a unit from a stored snapshot.
func FromRecord(rec *UnitRecord) *Unit {
	if rec == nil {
		return nil
	}
	unit := &Unit{
		address:     rec.Address,
		inscription: rec.Inscription,
		owner:       rec.Owner,
		locked:      rec.Locked,
		allowed:     make(map[string]struct{}, len(rec.Allowed)),
	}
	for _, op := range rec.Allowed {
		unit.allowed[op] = struct{}{}
	}
	return unit
}
