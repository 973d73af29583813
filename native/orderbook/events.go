package orderbook

import (
	"encoding/hex"
	"strconv"

	"inscribechain/core/types"
)

const (
	EventTypeOrderFilled    = "orderbook.order.filled"
	EventTypeOrderCancelled = "orderbook.order.cancelled"
	EventTypeNonceRaised    = "orderbook.nonce.raised"
)

// NewOrderFilledEvent returns the fill notification emitted after a
// successful settlement.
func NewOrderFilledEvent(order SignedOrder, hash [32]byte, taker [20]byte, requestedBps, filledBps uint64) *types.Event {
	return &types.Event{
		Type: EventTypeOrderFilled,
		Attributes: map[string]string{
			"orderHash":    hex.EncodeToString(hash[:]),
			"maker":        hex.EncodeToString(order.Maker[:]),
			"taker":        hex.EncodeToString(taker[:]),
			"inscription":  hex.EncodeToString(order.InscriptionID[:]),
			"requestedBps": strconv.FormatUint(requestedBps, 10),
			"filledBps":    strconv.FormatUint(filledBps, 10),
		},
	}
}

// NewOrderCancelledEvent returns the payload for a per-order cancellation.
func NewOrderCancelledEvent(order SignedOrder, hash [32]byte) *types.Event {
	return &types.Event{
		Type: EventTypeOrderCancelled,
		Attributes: map[string]string{
			"orderHash": hex.EncodeToString(hash[:]),
			"maker":     hex.EncodeToString(order.Maker[:]),
		},
	}
}

// NewNonceRaisedEvent returns the payload for a bulk cancellation.
func NewNonceRaisedEvent(maker [20]byte, minNonce uint64) *types.Event {
	return &types.Event{
		Type: EventTypeNonceRaised,
		Attributes: map[string]string{
			"maker":    hex.EncodeToString(maker[:]),
			"minNonce": strconv.FormatUint(minNonce, 10),
		},
	}
}
