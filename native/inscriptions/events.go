package inscriptions

import (
	"encoding/hex"
	"math/big"
	"strconv"

	"inscribechain/core/types"
)

const (
	EventTypeCreated    = "inscriptions.created"
	EventTypeFilled     = "inscriptions.filled"
	EventTypeRepaid     = "inscriptions.repaid"
	EventTypeLiquidated = "inscriptions.liquidated"
	EventTypeRedeemed   = "inscriptions.redeemed"
	EventTypeCancelled  = "inscriptions.cancelled"
)

func baseAttributes(ins *Inscription) map[string]string {
	attrs := map[string]string{
		"id":          hex.EncodeToString(ins.ID[:]),
		"issuedBps":   strconv.FormatUint(ins.IssuedBps, 10),
		"multiLender": strconv.FormatBool(ins.MultiLender),
	}
	if ins.Borrower != zeroAddress {
		attrs["borrower"] = hex.EncodeToString(ins.Borrower[:])
	}
	if ins.Lender != zeroAddress {
		attrs["lender"] = hex.EncodeToString(ins.Lender[:])
	}
	return attrs
}

// NewCreatedEvent returns the canonical payload for a newly posted
// inscription.
func NewCreatedEvent(ins *Inscription) *types.Event {
	return &types.Event{Type: EventTypeCreated, Attributes: baseAttributes(ins)}
}

// NewFilledEvent returns the payload emitted after a successful fill.
func NewFilledEvent(ins *Inscription, filler [20]byte, requestedBps uint64) *types.Event {
	attrs := baseAttributes(ins)
	attrs["filler"] = hex.EncodeToString(filler[:])
	attrs["requestedBps"] = strconv.FormatUint(requestedBps, 10)
	return &types.Event{Type: EventTypeFilled, Attributes: attrs}
}

// NewRepaidEvent returns the payload emitted when the borrower settles.
func NewRepaidEvent(ins *Inscription) *types.Event {
	return &types.Event{Type: EventTypeRepaid, Attributes: baseAttributes(ins)}
}

// NewLiquidatedEvent returns the payload emitted when collateral is seized.
func NewLiquidatedEvent(ins *Inscription) *types.Event {
	return &types.Event{Type: EventTypeLiquidated, Attributes: baseAttributes(ins)}
}

// NewRedeemedEvent returns the payload emitted when a holder burns shares for
// their payout.
func NewRedeemedEvent(ins *Inscription, holder [20]byte, shares *big.Int) *types.Event {
	attrs := baseAttributes(ins)
	attrs["holder"] = hex.EncodeToString(holder[:])
	if shares != nil {
		attrs["shares"] = shares.String()
	}
	return &types.Event{Type: EventTypeRedeemed, Attributes: attrs}
}

// NewCancelledEvent returns the payload emitted when an unfilled inscription
// is cleared by its creator.
func NewCancelledEvent(ins *Inscription) *types.Event {
	return &types.Event{Type: EventTypeCancelled, Attributes: baseAttributes(ins)}
}
