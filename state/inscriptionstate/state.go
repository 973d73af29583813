// Package inscriptionstate persists the protocol's records in a key-value
// store using RLP encoding. It implements the state interfaces consumed by
// the inscription and orderbook engines, so the same engine code runs over a
// test MemDB and a LevelDB data directory.
package inscriptionstate

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"

	"inscribechain/native/custody"
	"inscribechain/native/inscriptions"
	"inscribechain/native/orderbook"
	"inscribechain/storage"
)

var (
	inscriptionPrefix = []byte("ins/record/")
	sharePrefix       = []byte("ins/share/")
	shareSupplyPrefix = []byte("ins/share-supply/")
	trackedPrefix     = []byte("ins/tracked/")
	escrowUnitPrefix  = []byte("ins/escrow/")
	orderPrefix       = []byte("ins/order/")
	makerNoncePrefix  = []byte("ins/maker-nonce/")
)

// State is the storage-backed implementation of the engine state interfaces.
// When an engine opens a transaction via Begin, writes collect in an overlay
// that reads see immediately; Commit flushes the overlay through a single
// database batch and Discard drops it.
type State struct {
	db      storage.Database
	overlay map[string]writeEntry
}

type writeEntry struct {
	value   []byte
	deleted bool
}

// New constructs a state layer over the provided database.
func New(db storage.Database) *State {
	return &State{db: db}
}

// Begin opens a fresh write buffer, implementing the engines' per-operation
// transaction contract.
func (s *State) Begin() {
	s.overlay = make(map[string]writeEntry)
}

// Commit flushes the buffered writes in one database batch.
func (s *State) Commit() error {
	overlay := s.overlay
	s.overlay = nil
	if len(overlay) == 0 {
		return nil
	}
	batch := s.db.NewBatch()
	for k, entry := range overlay {
		if entry.deleted {
			batch.Delete([]byte(k))
			continue
		}
		batch.Put([]byte(k), entry.value)
	}
	return batch.Write()
}

// Discard drops the buffered writes.
func (s *State) Discard() {
	s.overlay = nil
}

func (s *State) get(k []byte) ([]byte, error) {
	if entry, ok := s.overlay[string(k)]; ok {
		if entry.deleted {
			return nil, storage.ErrNotFound
		}
		return append([]byte(nil), entry.value...), nil
	}
	return s.db.Get(k)
}

func (s *State) put(k, v []byte) error {
	if s.overlay != nil {
		s.overlay[string(k)] = writeEntry{value: append([]byte(nil), v...)}
		return nil
	}
	return s.db.Put(k, v)
}

func (s *State) delete(k []byte) error {
	if s.overlay != nil {
		s.overlay[string(k)] = writeEntry{deleted: true}
		return nil
	}
	return s.db.Delete(k)
}

func key(prefix []byte, parts ...[]byte) []byte {
	out := append([]byte(nil), prefix...)
	for _, part := range parts {
		out = append(out, part...)
		out = append(out, '/')
	}
	return out
}

func (s *State) getRLP(k []byte, out interface{}) (bool, error) {
	raw, err := s.get(k)
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := rlp.DecodeBytes(raw, out); err != nil {
		return false, fmt.Errorf("inscriptionstate: decode %q: %w", k, err)
	}
	return true, nil
}

func (s *State) putRLP(k []byte, value interface{}) error {
	raw, err := rlp.EncodeToBytes(value)
	if err != nil {
		return fmt.Errorf("inscriptionstate: encode %q: %w", k, err)
	}
	return s.put(k, raw)
}

// --- Inscription records ---

type storedAsset struct {
	Resource string
	Kind     uint8
	Amount   *big.Int
	ID       uint64
}

type storedInscription struct {
	ID                [32]byte
	Borrower          [20]byte
	Lender            [20]byte
	CreatorIsBorrower bool
	Duration          uint64
	Deadline          uint64
	CreatedAt         uint64
	SignedAt          uint64
	IssuedBps         uint64
	Repaid            bool
	Liquidated        bool
	MultiLender       bool
	Debt              []storedAsset
	Interest          []storedAsset
	Collateral        []storedAsset
}

func storeAssets(assets []inscriptions.AssetDescriptor) []storedAsset {
	out := make([]storedAsset, len(assets))
	for i, asset := range assets {
		amount := asset.Amount
		if amount == nil {
			amount = big.NewInt(0)
		}
		out[i] = storedAsset{
			Resource: asset.Resource,
			Kind:     uint8(asset.Kind),
			Amount:   new(big.Int).Set(amount),
			ID:       asset.ID,
		}
	}
	return out
}

func loadAssets(stored []storedAsset) []inscriptions.AssetDescriptor {
	out := make([]inscriptions.AssetDescriptor, len(stored))
	for i, asset := range stored {
		out[i] = inscriptions.AssetDescriptor{
			Resource: asset.Resource,
			Kind:     inscriptions.AssetKind(asset.Kind),
			Amount:   asset.Amount,
			ID:       asset.ID,
		}
	}
	return out
}

// InscriptionPut persists an inscription record.
func (s *State) InscriptionPut(ins *inscriptions.Inscription) error {
	if ins == nil {
		return fmt.Errorf("inscriptionstate: nil inscription")
	}
	stored := &storedInscription{
		ID:                ins.ID,
		Borrower:          ins.Borrower,
		Lender:            ins.Lender,
		CreatorIsBorrower: ins.CreatorIsBorrower,
		Duration:          uint64(ins.Duration),
		Deadline:          uint64(ins.Deadline),
		CreatedAt:         uint64(ins.CreatedAt),
		SignedAt:          uint64(ins.SignedAt),
		IssuedBps:         ins.IssuedBps,
		Repaid:            ins.Repaid,
		Liquidated:        ins.Liquidated,
		MultiLender:       ins.MultiLender,
		Debt:              storeAssets(ins.Debt),
		Interest:          storeAssets(ins.Interest),
		Collateral:        storeAssets(ins.Collateral),
	}
	return s.putRLP(key(inscriptionPrefix, ins.ID[:]), stored)
}

// InscriptionGet loads an inscription record.
func (s *State) InscriptionGet(id [32]byte) (*inscriptions.Inscription, bool) {
	var stored storedInscription
	ok, err := s.getRLP(key(inscriptionPrefix, id[:]), &stored)
	if err != nil || !ok {
		return nil, false
	}
	return &inscriptions.Inscription{
		ID:                stored.ID,
		Borrower:          stored.Borrower,
		Lender:            stored.Lender,
		CreatorIsBorrower: stored.CreatorIsBorrower,
		Duration:          int64(stored.Duration),
		Deadline:          int64(stored.Deadline),
		CreatedAt:         int64(stored.CreatedAt),
		SignedAt:          int64(stored.SignedAt),
		IssuedBps:         stored.IssuedBps,
		Repaid:            stored.Repaid,
		Liquidated:        stored.Liquidated,
		MultiLender:       stored.MultiLender,
		Debt:              loadAssets(stored.Debt),
		Interest:          loadAssets(stored.Interest),
		Collateral:        loadAssets(stored.Collateral),
	}, true
}

// InscriptionDelete clears a cancelled inscription record.
func (s *State) InscriptionDelete(id [32]byte) error {
	return s.delete(key(inscriptionPrefix, id[:]))
}

// --- Share ledger ---

// ShareBalance returns the holder's claim-share balance.
func (s *State) ShareBalance(id [32]byte, holder [20]byte) (*big.Int, error) {
	balance := new(big.Int)
	ok, err := s.getRLP(key(sharePrefix, id[:], holder[:]), balance)
	if err != nil {
		return nil, err
	}
	if !ok {
		return big.NewInt(0), nil
	}
	return balance, nil
}

// SetShareBalance stores the holder's claim-share balance.
func (s *State) SetShareBalance(id [32]byte, holder [20]byte, balance *big.Int) error {
	if balance == nil {
		balance = big.NewInt(0)
	}
	return s.putRLP(key(sharePrefix, id[:], holder[:]), balance)
}

// ShareTotalSupply returns the outstanding supply for an inscription.
func (s *State) ShareTotalSupply(id [32]byte) (*big.Int, error) {
	supply := new(big.Int)
	ok, err := s.getRLP(key(shareSupplyPrefix, id[:]), supply)
	if err != nil {
		return nil, err
	}
	if !ok {
		return big.NewInt(0), nil
	}
	return supply, nil
}

// SetShareTotalSupply stores the outstanding supply for an inscription.
func (s *State) SetShareTotalSupply(id [32]byte, supply *big.Int) error {
	if supply == nil {
		supply = big.NewInt(0)
	}
	return s.putRLP(key(shareSupplyPrefix, id[:]), supply)
}

// --- Balance tracker ---

func trackedKey(id [32]byte, category inscriptions.AssetCategory, slot int) []byte {
	return key(trackedPrefix, id[:], []byte{byte(category)}, []byte{byte(slot)})
}

// TrackedBalance returns the custody amount for one asset slot.
func (s *State) TrackedBalance(id [32]byte, category inscriptions.AssetCategory, slot int) (*big.Int, error) {
	amount := new(big.Int)
	ok, err := s.getRLP(trackedKey(id, category, slot), amount)
	if err != nil {
		return nil, err
	}
	if !ok {
		return big.NewInt(0), nil
	}
	return amount, nil
}

// SetTrackedBalance stores the custody amount for one asset slot.
func (s *State) SetTrackedBalance(id [32]byte, category inscriptions.AssetCategory, slot int, amount *big.Int) error {
	if amount == nil {
		amount = big.NewInt(0)
	}
	return s.putRLP(trackedKey(id, category, slot), amount)
}

// --- Escrow units ---

// EscrowUnitPut persists the custody unit snapshot for an inscription.
func (s *State) EscrowUnitPut(rec *custody.UnitRecord) error {
	if rec == nil {
		return fmt.Errorf("inscriptionstate: nil escrow unit record")
	}
	return s.putRLP(key(escrowUnitPrefix, rec.Inscription[:]), rec)
}

// EscrowUnitGet loads the custody unit snapshot for an inscription.
func (s *State) EscrowUnitGet(id [32]byte) (*custody.UnitRecord, bool) {
	rec := &custody.UnitRecord{}
	ok, err := s.getRLP(key(escrowUnitPrefix, id[:]), rec)
	if err != nil || !ok {
		return nil, false
	}
	return rec, true
}

// --- Orderbook ---

type storedOrderRecord struct {
	Registered bool
	Cancelled  bool
	FilledBps  uint64
}

// OrderRecordGet loads the derived state for an order hash.
func (s *State) OrderRecordGet(hash [32]byte) (*orderbook.OrderRecord, bool) {
	var stored storedOrderRecord
	ok, err := s.getRLP(key(orderPrefix, hash[:]), &stored)
	if err != nil || !ok {
		return nil, false
	}
	return &orderbook.OrderRecord{
		Registered: stored.Registered,
		Cancelled:  stored.Cancelled,
		FilledBps:  stored.FilledBps,
	}, true
}

// OrderRecordPut stores the derived state for an order hash.
func (s *State) OrderRecordPut(hash [32]byte, rec *orderbook.OrderRecord) error {
	if rec == nil {
		return fmt.Errorf("inscriptionstate: nil order record")
	}
	return s.putRLP(key(orderPrefix, hash[:]), &storedOrderRecord{
		Registered: rec.Registered,
		Cancelled:  rec.Cancelled,
		FilledBps:  rec.FilledBps,
	})
}

// MakerMinNonce returns the maker's bulk-cancellation floor.
func (s *State) MakerMinNonce(maker [20]byte) (uint64, error) {
	var nonce uint64
	ok, err := s.getRLP(key(makerNoncePrefix, maker[:]), &nonce)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}
	return nonce, nil
}

// SetMakerMinNonce stores the maker's bulk-cancellation floor.
func (s *State) SetMakerMinNonce(maker [20]byte, nonce uint64) error {
	return s.putRLP(key(makerNoncePrefix, maker[:]), nonce)
}
