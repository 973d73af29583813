package orderbook

import (
	"errors"
	"time"

	"inscribechain/core/events"
	"inscribechain/core/types"
	"inscribechain/native/common"
)

const moduleName = "orderbook"

var (
	ErrNilState       = errors.New("orderbook engine: state not configured")
	ErrNilFiller      = errors.New("orderbook engine: inscription filler not configured")
	ErrSelfTrade      = errors.New("orderbook engine: taker cannot be the maker")
	ErrTakerMismatch  = errors.New("orderbook engine: taker not allowed by the order")
	ErrOrderExpired   = errors.New("orderbook engine: order deadline passed")
	ErrNonceTooLow    = errors.New("orderbook engine: nonce below maker minimum")
	ErrOrderCancelled = errors.New("orderbook engine: order cancelled")
	ErrBelowMinFill   = errors.New("orderbook engine: fill below order minimum")
	ErrOverfill       = errors.New("orderbook engine: fill exceeds order total")
	ErrBadSignature   = errors.New("orderbook engine: maker signature invalid")
	ErrNotMaker       = errors.New("orderbook engine: caller is not the maker")
	ErrNonceRatchet   = errors.New("orderbook engine: minimum nonce can only increase")
)

// engineState is the persistence surface for derived order state.
type engineState interface {
	OrderRecordGet(hash [32]byte) (*OrderRecord, bool)
	OrderRecordPut(hash [32]byte, rec *OrderRecord) error
	MakerMinNonce(maker [20]byte) (uint64, error)
	SetMakerMinNonce(maker [20]byte, nonce uint64) error
}

// InscriptionFiller is the slice of the inscription engine the orderbook
// settles through. FillLocked assumes the caller already holds the shared
// call guard.
type InscriptionFiller interface {
	FillLocked(id [32]byte, filler [20]byte, requestedBps uint64) error
}

// Engine matches signed orders into inscription fills. It shares the
// inscription engine's reentrancy guard so the two engines form one critical
// section: a reentry from a fill-triggered transfer into any guarded
// operation of either engine is rejected.
type Engine struct {
	state   engineState
	filler  InscriptionFiller
	guard   *common.CallGuard
	pauses  common.PauseView
	emitter events.Emitter
	nowFn   func() int64
}

type orderEvent struct {
	evt *types.Event
}

func (e orderEvent) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e orderEvent) Event() *types.Event { return e.evt }

// NewEngine constructs a matching engine settling through the provided filler
// and joining the provided call guard.
func NewEngine(filler InscriptionFiller, guard *common.CallGuard) *Engine {
	if guard == nil {
		guard = common.NewCallGuard()
	}
	return &Engine{
		filler:  filler,
		guard:   guard,
		emitter: events.NoopEmitter{},
		nowFn:   func() int64 { return time.Now().Unix() },
	}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetPauses wires the module pause switches.
func (e *Engine) SetPauses(p common.PauseView) {
	if e == nil {
		return
	}
	e.pauses = p
}

// SetEmitter configures the event emitter. Passing nil resets to a no-op.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetNowFunc overrides the time source, primarily used in tests.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

func (e *Engine) emit(evt *types.Event) {
	if e == nil || e.emitter == nil || evt == nil {
		return
	}
	e.emitter.Emit(orderEvent{evt: evt})
}

func (e *Engine) now() int64 {
	if e == nil || e.nowFn == nil {
		return time.Now().Unix()
	}
	return e.nowFn()
}

func (e *Engine) guarded(fn func() error) error {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	if err := common.Guard(e.pauses, moduleName); err != nil {
		return err
	}
	return e.guard.Run(func() error {
		return common.Transact(e.state, fn)
	})
}

// FillOrder settles requestedBps of a signed order for the taker. The checks
// run in a fixed order; each failure is a hard stop. The maker's signature is
// verified exactly once per order hash, on the first successful fill — later
// fills skip verification because cancellation and nonce checks still run
// every time.
func (e *Engine) FillOrder(order SignedOrder, sig []byte, taker [20]byte, requestedBps uint64) error {
	return e.guarded(func() error {
		if e.filler == nil {
			return ErrNilFiller
		}
		if taker == order.Maker {
			return ErrSelfTrade
		}
		var zero [20]byte
		if order.AllowedTaker != zero && taker != order.AllowedTaker {
			return ErrTakerMismatch
		}
		if e.now() > order.Deadline {
			return ErrOrderExpired
		}
		minNonce, err := e.state.MakerMinNonce(order.Maker)
		if err != nil {
			return err
		}
		if order.Nonce < minNonce {
			return ErrNonceTooLow
		}
		hash := order.Hash()
		rec, ok := e.state.OrderRecordGet(hash)
		if !ok {
			rec = &OrderRecord{}
		}
		if rec.Cancelled {
			return ErrOrderCancelled
		}
		if order.MinFillBps > 0 && requestedBps < order.MinFillBps {
			return ErrBelowMinFill
		}
		// FilledBps never exceeds TotalBps, so the remainder cannot wrap;
		// summing FilledBps and requestedBps could.
		if requestedBps > order.TotalBps-rec.FilledBps {
			return ErrOverfill
		}
		if !rec.Registered {
			if err := VerifySignature(order, sig); err != nil {
				return err
			}
			rec.Registered = true
		}
		if err := e.filler.FillLocked(order.InscriptionID, taker, requestedBps); err != nil {
			return err
		}
		rec.FilledBps += requestedBps
		if err := e.state.OrderRecordPut(hash, rec); err != nil {
			return err
		}
		e.emit(NewOrderFilledEvent(order, hash, taker, requestedBps, rec.FilledBps))
		return nil
	})
}

// CancelOrder marks a single order hash as cancelled. Maker only.
func (e *Engine) CancelOrder(order SignedOrder, caller [20]byte) error {
	return e.guarded(func() error {
		if caller != order.Maker {
			return ErrNotMaker
		}
		hash := order.Hash()
		rec, ok := e.state.OrderRecordGet(hash)
		if !ok {
			rec = &OrderRecord{}
		}
		if rec.Cancelled {
			return nil
		}
		rec.Cancelled = true
		if err := e.state.OrderRecordPut(hash, rec); err != nil {
			return err
		}
		e.emit(NewOrderCancelledEvent(order, hash))
		return nil
	})
}

// CancelOrdersBelow raises the maker's minimum valid nonce, invalidating
// every not-yet-filled order signed with a lower nonce in one step. The
// minimum only ratchets upward; lowering it would resurrect bulk-cancelled
// orders.
func (e *Engine) CancelOrdersBelow(maker [20]byte, minNonce uint64) error {
	return e.guarded(func() error {
		current, err := e.state.MakerMinNonce(maker)
		if err != nil {
			return err
		}
		if minNonce < current {
			return ErrNonceRatchet
		}
		if err := e.state.SetMakerMinNonce(maker, minNonce); err != nil {
			return err
		}
		e.emit(NewNonceRaisedEvent(maker, minNonce))
		return nil
	})
}

// --- Read accessors ---

// OrderState returns the derived record for an order hash. Orders never seen
// on-chain report a zero record.
func (e *Engine) OrderState(hash [32]byte) (*OrderRecord, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	rec, ok := e.state.OrderRecordGet(hash)
	if !ok {
		return &OrderRecord{}, nil
	}
	return rec.Clone(), nil
}

// MinValidNonce returns the maker's bulk-cancellation floor.
func (e *Engine) MinValidNonce(maker [20]byte) (uint64, error) {
	if e == nil || e.state == nil {
		return 0, ErrNilState
	}
	return e.state.MakerMinNonce(maker)
}
