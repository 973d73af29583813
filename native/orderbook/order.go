// Package orderbook implements the gas-deferred entry path into the fill
// routine: makers sign orders off-chain, takers settle them on-chain with
// partial fills, per-order cancellation and per-maker bulk cancellation.
package orderbook

import (
	"encoding/hex"
	"fmt"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"inscribechain/crypto"
)

// OrderDomainV1 is the canonical-hash domain tag for the first signed order
// version.
const OrderDomainV1 = "INS_ORDER_V1"

// SignedOrder is the off-chain artifact a maker authorises. On-chain state is
// the derived OrderRecord keyed by the order hash.
type SignedOrder struct {
	Maker         [20]byte
	AllowedTaker  [20]byte
	InscriptionID [32]byte
	TotalBps      uint64
	Deadline      int64
	Nonce         uint64
	MinFillBps    uint64
}

// Hash computes the canonical message digest the maker signs. The payload is
// a pipe-delimited rendering of every order field under the version domain,
// matching what off-chain signers produce.
func (o SignedOrder) Hash() [32]byte {
	payload := fmt.Sprintf("%s|maker=%s|taker=%s|inscription=%s|total=%d|deadline=%d|nonce=%d|minFill=%d",
		OrderDomainV1,
		hex.EncodeToString(o.Maker[:]),
		hex.EncodeToString(o.AllowedTaker[:]),
		hex.EncodeToString(o.InscriptionID[:]),
		o.TotalBps,
		o.Deadline,
		o.Nonce,
		o.MinFillBps,
	)
	return ethcrypto.Keccak256Hash([]byte(payload))
}

// VerifySignature checks a 65-byte recoverable signature over the order's
// canonical hash against the maker address. Pure: callers decide separately
// whether to record the order as registered.
func VerifySignature(order SignedOrder, sig []byte) error {
	digest := order.Hash()
	recovered, err := crypto.RecoverAddress(digest[:], sig)
	if err != nil {
		return ErrBadSignature
	}
	if recovered != order.Maker {
		return ErrBadSignature
	}
	return nil
}

// OrderRecord is the per-order-hash state derived on-chain.
type OrderRecord struct {
	Registered bool
	Cancelled  bool
	FilledBps  uint64
}

// Clone returns a copy of the record.
func (r *OrderRecord) Clone() *OrderRecord {
	if r == nil {
		return nil
	}
	clone := *r
	return &clone
}
