package inscriptions

import (
	"errors"
	"math/big"
	"time"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"

	"inscribechain/config"
	"inscribechain/core/events"
	"inscribechain/core/types"
	"inscribechain/native/common"
	"inscribechain/native/custody"
)

const moduleName = "inscriptions"

var (
	errNilConfig      = errors.New("inscription engine: protocol config not configured")
	errNilTokens      = errors.New("inscription engine: token mover not configured")
	errNilMinter      = errors.New("inscription engine: ownership minter not configured")
	errNilProvisioner = errors.New("inscription engine: escrow provisioner not configured")
	errNoEscrowUnit   = errors.New("inscription engine: escrow unit missing")
)

// engineState is the persistence surface the engine requires. Backends that
// implement common.StateTxn get per-operation write buffering from the
// engine; any other backend must apply writes atomically itself, because the
// engine never issues compensating writes on failure.
type engineState interface {
	shareState
	trackerState
	InscriptionGet(id [32]byte) (*Inscription, bool)
	InscriptionPut(*Inscription) error
	InscriptionDelete(id [32]byte) error
	EscrowUnitPut(rec *custody.UnitRecord) error
	EscrowUnitGet(id [32]byte) (*custody.UnitRecord, bool)
}

// TokenMover is the external transfer primitive. The descriptor carries the
// already-scaled amount; implementations fail loudly on insufficient balance.
type TokenMover interface {
	Transfer(asset AssetDescriptor, from, to [20]byte) error
}

// OwnershipMinter mints the per-inscription ownership token on first fill.
type OwnershipMinter interface {
	MintOwnershipToken(owner [20]byte, id [32]byte) error
}

// EscrowProvisioner provisions one isolated custody unit per inscription.
type EscrowProvisioner interface {
	ProvisionEscrow(owner [20]byte, inscriptionID [32]byte) (*custody.Unit, error)
}

// CreateParams captures the caller-supplied definition of a new inscription.
type CreateParams struct {
	AsBorrower  bool
	Duration    int64
	Deadline    int64
	MultiLender bool
	Debt        []AssetDescriptor
	Interest    []AssetDescriptor
	Collateral  []AssetDescriptor
}

// Engine orchestrates the inscription lifecycle: create, fill, repay,
// liquidate, redeem and cancel. All mutating operations run through a shared
// reentrancy guard; a nested entry into any guarded operation, including the
// orderbook engine when it shares the same guard, is rejected.
type Engine struct {
	state         engineState
	tokens        TokenMover
	minter        OwnershipMinter
	provisioner   EscrowProvisioner
	shares        *ShareLedger
	tracker       *BalanceTracker
	cfg           *config.Protocol
	guard         *common.CallGuard
	emitter       events.Emitter
	nowFn         func() int64
	moduleAddress [20]byte
}

type inscriptionEvent struct {
	evt *types.Event
}

func (e inscriptionEvent) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e inscriptionEvent) Event() *types.Event { return e.evt }

// NewEngine constructs an engine identified by the protocol module address,
// which owns every provisioned custody unit.
func NewEngine(moduleAddr [20]byte) *Engine {
	return &Engine{
		guard:         common.NewCallGuard(),
		emitter:       events.NoopEmitter{},
		nowFn:         func() int64 { return time.Now().Unix() },
		moduleAddress: moduleAddr,
	}
}

// SetState wires the engine to the external persistence layer.
func (e *Engine) SetState(state engineState) {
	e.state = state
	e.shares = NewShareLedger(state)
	e.tracker = NewBalanceTracker(state)
}

// SetCollaborators wires the excluded external components the engine calls
// out to: the transfer primitive, the ownership-token minter and the
// escrow factory.
func (e *Engine) SetCollaborators(tokens TokenMover, minter OwnershipMinter, provisioner EscrowProvisioner) {
	e.tokens = tokens
	e.minter = minter
	e.provisioner = provisioner
}

// SetConfig hands the engine the process-wide protocol configuration record.
func (e *Engine) SetConfig(cfg *config.Protocol) { e.cfg = cfg }

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

// Guard exposes the shared reentrancy guard so sibling engines (the signed
// order matching engine) can join the same critical section.
func (e *Engine) Guard() *common.CallGuard { return e.guard }

func (e *Engine) emit(evt *types.Event) {
	if e == nil || e.emitter == nil || evt == nil {
		return
	}
	e.emitter.Emit(inscriptionEvent{evt: evt})
}

func (e *Engine) now() int64 {
	if e == nil || e.nowFn == nil {
		return time.Now().Unix()
	}
	return e.nowFn()
}

func (e *Engine) checkWired() error {
	switch {
	case e == nil || e.state == nil:
		return ErrNilState
	case e.cfg == nil:
		return errNilConfig
	case e.tokens == nil:
		return errNilTokens
	default:
		return nil
	}
}

// guarded runs fn inside the shared critical section after the pause check.
// When the state backend buffers writes, the whole operation commits or
// discards as one unit.
func (e *Engine) guarded(fn func() error) error {
	if err := e.checkWired(); err != nil {
		return err
	}
	if err := common.Guard(e.cfg, moduleName); err != nil {
		return err
	}
	return e.guard.Run(func() error {
		return common.Transact(e.state, fn)
	})
}

// Create validates and persists a new single-sided inscription. The id is
// derived from the role-assigned parties, the terms and the creation time, so
// two structurally identical requests in different seconds get distinct ids.
func (e *Engine) Create(creator [20]byte, params CreateParams) (*Inscription, error) {
	var out *Inscription
	err := e.guarded(func() error {
		now := e.now()
		if len(params.Debt) == 0 {
			return ErrEmptyDebt
		}
		if len(params.Collateral) == 0 {
			return ErrEmptyCollateral
		}
		if params.Deadline <= now {
			return ErrDeadlinePassed
		}
		if params.MultiLender && params.Duration == 0 {
			return ErrMultiLenderSwap
		}
		if err := validateLeg(params.Debt, CategoryDebt, params.MultiLender); err != nil {
			return err
		}
		if err := validateLeg(params.Interest, CategoryInterest, params.MultiLender); err != nil {
			return err
		}
		if err := validateLeg(params.Collateral, CategoryCollateral, params.MultiLender); err != nil {
			return err
		}
		ins := &Inscription{
			CreatorIsBorrower: params.AsBorrower,
			Duration:          params.Duration,
			Deadline:          params.Deadline,
			CreatedAt:         now,
			MultiLender:       params.MultiLender,
			Debt:              cloneAssets(params.Debt),
			Interest:          cloneAssets(params.Interest),
			Collateral:        cloneAssets(params.Collateral),
		}
		if params.AsBorrower {
			ins.Borrower = creator
		} else {
			ins.Lender = creator
		}
		id, err := deriveID(ins)
		if err != nil {
			return err
		}
		ins.ID = id
		if _, exists := e.state.InscriptionGet(ins.ID); exists {
			return ErrAlreadyExists
		}
		if err := e.state.InscriptionPut(ins); err != nil {
			return err
		}
		out = ins.Clone()
		e.emit(NewCreatedEvent(ins))
		return nil
	})
	return out, err
}

// idPreimage is the hashed input for the inscription identifier. RLP framing
// length-prefixes every field, so no two distinct debt lists can share an
// encoding.
type idPreimage struct {
	Borrower  [20]byte
	Lender    [20]byte
	Duration  uint64
	Deadline  uint64
	CreatedAt uint64
	Debt      []idAsset
}

type idAsset struct {
	Resource string
	Kind     uint8
	Amount   *big.Int
	ID       uint64
}

// deriveID computes the deterministic inscription identifier. The creation
// timestamp is part of the preimage so repeated identical requests do not
// collide across seconds.
func deriveID(ins *Inscription) ([32]byte, error) {
	pre := idPreimage{
		Borrower:  ins.Borrower,
		Lender:    ins.Lender,
		Duration:  uint64(ins.Duration),
		Deadline:  uint64(ins.Deadline),
		CreatedAt: uint64(ins.CreatedAt),
		Debt:      make([]idAsset, len(ins.Debt)),
	}
	for i, asset := range ins.Debt {
		amount := asset.Amount
		if amount == nil {
			amount = big.NewInt(0)
		}
		pre.Debt[i] = idAsset{
			Resource: asset.Resource,
			Kind:     uint8(asset.Kind),
			Amount:   amount,
			ID:       asset.ID,
		}
	}
	enc, err := rlp.EncodeToBytes(&pre)
	if err != nil {
		return [32]byte{}, err
	}
	return ethcrypto.Keccak256Hash(enc), nil
}

// Cancel clears an inscription that has never been filled. Only the original
// creator may cancel.
func (e *Engine) Cancel(id [32]byte, caller [20]byte) error {
	return e.guarded(func() error {
		ins, ok := e.state.InscriptionGet(id)
		if !ok {
			return ErrNotFound
		}
		if caller != ins.Creator() {
			return ErrNotCreator
		}
		if ins.IssuedBps != 0 {
			return ErrNotCancellable
		}
		if err := e.state.InscriptionDelete(id); err != nil {
			return err
		}
		e.emit(NewCancelledEvent(ins))
		return nil
	})
}

// Fill funds an inscription. Single-lender inscriptions always fill 100% in
// one shot regardless of requestedBps; multi-lender inscriptions fill the
// requested fraction. Both the direct signing path and the matching engine
// funnel into this routine.
func (e *Engine) Fill(id [32]byte, filler [20]byte, requestedBps uint64) error {
	return e.guarded(func() error {
		return e.fillLocked(id, filler, requestedBps)
	})
}

// FillLocked runs the fill routine for a caller that already holds the shared
// call guard, such as the matching engine settling a signed order. The caller
// also owns the surrounding state transaction.
func (e *Engine) FillLocked(id [32]byte, filler [20]byte, requestedBps uint64) error {
	if err := e.checkWired(); err != nil {
		return err
	}
	if err := common.Guard(e.cfg, moduleName); err != nil {
		return err
	}
	return e.fillLocked(id, filler, requestedBps)
}

func (e *Engine) fillLocked(id [32]byte, filler [20]byte, requestedBps uint64) error {
	ins, ok := e.state.InscriptionGet(id)
	if !ok {
		return ErrNotFound
	}
	if !ins.MultiLender && ins.Signed() {
		return ErrAlreadySigned
	}
	if ins.Repaid {
		return ErrAlreadyRepaid
	}
	if ins.Liquidated {
		return ErrAlreadyLiquidated
	}
	now := e.now()
	if now > ins.Deadline {
		return ErrDeadlinePassed
	}
	if ins.MultiLender {
		// A zero-fraction fill would still trigger first-fill side effects
		// with no funding, wedging the agreement for a real lender.
		if requestedBps == 0 {
			return ErrZeroFill
		}
		// Compare against the remainder rather than summing: IssuedBps never
		// exceeds the denominator, so the subtraction cannot wrap, while a
		// huge requestedBps would wrap the sum past the bound.
		if requestedBps > basisPointDenominator-ins.IssuedBps {
			return ErrExceedsRemainder
		}
	} else {
		requestedBps = basisPointDenominator
	}

	supply, err := e.shares.TotalSupply(id)
	if err != nil {
		return err
	}
	minted := sharesForFill(requestedBps, supply, ins.IssuedBps)
	fee := feeShares(minted, e.cfg.FeeBps())

	firstFill := !ins.Signed()
	if firstFill {
		if ins.CreatorIsBorrower {
			ins.Lender = filler
		} else {
			ins.Borrower = filler
		}
		ins.SignedAt = now
		if ins.Duration == 0 {
			// Instant swap: collateral is custodied in the protocol vault
			// and the counterparty can redeem without waiting.
			ins.Liquidated = true
		}
	}
	lenderOfFill := filler
	if !ins.CreatorIsBorrower {
		lenderOfFill = ins.Lender
	}
	ins.IssuedBps += requestedBps

	// Commit the engine's own state transition before any external transfer.
	if err := e.state.InscriptionPut(ins); err != nil {
		return err
	}
	if err := e.shares.Mint(id, lenderOfFill, minted); err != nil {
		return err
	}
	if fee.Sign() > 0 {
		if err := e.shares.Mint(id, e.cfg.Treasury(), fee); err != nil {
			return err
		}
	}

	if firstFill {
		if e.minter == nil {
			return errNilMinter
		}
		if err := e.minter.MintOwnershipToken(ins.Borrower, id); err != nil {
			return err
		}
		if ins.Duration != 0 {
			if e.provisioner == nil {
				return errNilProvisioner
			}
			unit, err := e.provisioner.ProvisionEscrow(e.moduleAddress, id)
			if err != nil {
				return err
			}
			if err := e.state.EscrowUnitPut(unit.Snapshot()); err != nil {
				return err
			}
		}
	}

	for _, asset := range ins.Debt {
		scaled := asset.Clone()
		scaled.Amount = scaleByFraction(asset.Amount, requestedBps)
		if scaled.Amount.Sign() == 0 {
			continue
		}
		if err := e.tokens.Transfer(scaled, lenderOfFill, ins.Borrower); err != nil {
			return err
		}
	}

	if err := e.collectCollateral(ins, firstFill, requestedBps); err != nil {
		return err
	}
	e.emit(NewFilledEvent(ins, filler, requestedBps))
	return nil
}

// collectCollateral moves the fill's collateral slice from the borrower into
// custody: the dedicated escrow unit for timed loans, the protocol vault for
// instant swaps. Non-fungible collateral moves in full on the first fill
// only; later multi-lender fills share the claim on the already-moved item.
func (e *Engine) collectCollateral(ins *Inscription, firstFill bool, requestedBps uint64) error {
	instantSwap := ins.Duration == 0
	var destination [20]byte
	if instantSwap {
		destination = e.cfg.ProtocolVault()
	} else {
		rec, ok := e.state.EscrowUnitGet(ins.ID)
		if !ok {
			return errNoEscrowUnit
		}
		destination = rec.Address
	}
	for slot, asset := range ins.Collateral {
		moved := asset.Clone()
		if asset.Kind == AssetNonFungible {
			if !firstFill {
				continue
			}
		} else {
			moved.Amount = scaleByFraction(asset.Amount, requestedBps)
			if moved.Amount.Sign() == 0 {
				continue
			}
		}
		if err := e.tokens.Transfer(moved, ins.Borrower, destination); err != nil {
			return err
		}
		if instantSwap {
			if err := e.tracker.Credit(ins.ID, CategoryCollateral, slot, trackedAmount(moved)); err != nil {
				return err
			}
		}
	}
	return nil
}

// trackedAmount maps a moved asset onto the tracker scale. Non-fungible items
// are tracked as a presence marker of one.
func trackedAmount(asset AssetDescriptor) *big.Int {
	if asset.Kind == AssetNonFungible {
		return big.NewInt(1)
	}
	return new(big.Int).Set(asset.Amount)
}

// Repay settles the loan. Only the assigned borrower may repay, only inside
// the window [signedAt, signedAt+duration], and only the actually-funded
// fraction of debt and interest is owed.
func (e *Engine) Repay(id [32]byte, caller [20]byte) error {
	return e.guarded(func() error {
		ins, ok := e.state.InscriptionGet(id)
		if !ok {
			return ErrNotFound
		}
		if ins.Repaid {
			return ErrAlreadyRepaid
		}
		if ins.Liquidated {
			return ErrAlreadyLiquidated
		}
		if !ins.Signed() {
			return ErrNotYetSigned
		}
		if caller != ins.Borrower {
			return ErrNotBorrower
		}
		now := e.now()
		if now < ins.SignedAt {
			return ErrTooEarly
		}
		if now > ins.SignedAt+ins.Duration {
			return ErrWindowClosed
		}

		ins.Repaid = true
		if err := e.state.InscriptionPut(ins); err != nil {
			return err
		}

		if err := e.pullScaled(ins, ins.Debt, CategoryDebt, caller); err != nil {
			return err
		}
		if err := e.pullScaled(ins, ins.Interest, CategoryInterest, caller); err != nil {
			return err
		}

		if rec, ok := e.state.EscrowUnitGet(id); ok {
			unit := custody.FromRecord(rec)
			if err := unit.Unlock(e.moduleAddress); err != nil {
				return err
			}
			if err := e.state.EscrowUnitPut(unit.Snapshot()); err != nil {
				return err
			}
		}
		e.emit(NewRepaidEvent(ins))
		return nil
	})
}

// pullScaled transfers each slot of a leg from the payer into the protocol
// vault, scaled by the issued fraction, and credits the balance tracker for
// the owning inscription.
func (e *Engine) pullScaled(ins *Inscription, leg []AssetDescriptor, category AssetCategory, payer [20]byte) error {
	vault := e.cfg.ProtocolVault()
	for slot, asset := range leg {
		scaled := asset.Clone()
		scaled.Amount = scaleByFraction(asset.Amount, ins.IssuedBps)
		if scaled.Amount.Sign() == 0 {
			continue
		}
		if err := e.tokens.Transfer(scaled, payer, vault); err != nil {
			return err
		}
		if err := e.tracker.Credit(ins.ID, category, slot, scaled.Amount); err != nil {
			return err
		}
	}
	return nil
}

// Liquidate seizes collateral after the repayment window closes. Anyone may
// trigger it; fungible amounts are scaled by the issued fraction so a
// partially-filled agreement only seizes the proportionally-locked amount.
func (e *Engine) Liquidate(id [32]byte, caller [20]byte) error {
	return e.guarded(func() error {
		ins, ok := e.state.InscriptionGet(id)
		if !ok {
			return ErrNotFound
		}
		if ins.Repaid {
			return ErrAlreadyRepaid
		}
		if ins.Liquidated {
			return ErrAlreadyLiquidated
		}
		if !ins.Signed() {
			return ErrNotYetSigned
		}
		if e.now() <= ins.SignedAt+ins.Duration {
			return ErrNotYetLiquidatable
		}

		ins.Liquidated = true
		if err := e.state.InscriptionPut(ins); err != nil {
			return err
		}

		rec, ok := e.state.EscrowUnitGet(id)
		if !ok {
			return errNoEscrowUnit
		}
		unit := custody.FromRecord(rec)
		vault := e.cfg.ProtocolVault()
		err := unit.ForceWithdraw(e.moduleAddress, func(from [20]byte) error {
			for slot, asset := range ins.Collateral {
				seized := asset.Clone()
				if asset.Kind != AssetNonFungible {
					seized.Amount = scaleByFraction(asset.Amount, ins.IssuedBps)
					if seized.Amount.Sign() == 0 {
						continue
					}
				}
				if err := e.tokens.Transfer(seized, from, vault); err != nil {
					return err
				}
				if err := e.tracker.Credit(id, CategoryCollateral, slot, trackedAmount(seized)); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return err
		}
		e.emit(NewLiquidatedEvent(ins))
		return nil
	})
}

// Redeem burns claim shares against a settled inscription and pays out the
// holder's pro-rata slice of tracked custody. Tracked balances already
// reflect the funded fraction, so no basis-point conversion is reapplied.
func (e *Engine) Redeem(id [32]byte, holder [20]byte, shareAmount *big.Int) error {
	return e.guarded(func() error {
		ins, ok := e.state.InscriptionGet(id)
		if !ok {
			return ErrNotFound
		}
		if !ins.Settled() {
			return ErrNotSettled
		}
		if shareAmount == nil || shareAmount.Sign() <= 0 {
			return ErrZeroShares
		}
		balance, err := e.shares.BalanceOf(id, holder)
		if err != nil {
			return err
		}
		if balance.Cmp(shareAmount) < 0 {
			return ErrInsufficientShare
		}
		supply, err := e.shares.TotalSupply(id)
		if err != nil {
			return err
		}

		type payout struct {
			asset AssetDescriptor
			cat   AssetCategory
			slot  int
			whole bool
		}
		var payouts []payout
		collect := func(leg []AssetDescriptor, cat AssetCategory) error {
			for slot, asset := range leg {
				tracked, err := e.tracker.Balance(id, cat, slot)
				if err != nil {
					return err
				}
				if tracked.Sign() == 0 {
					continue
				}
				if asset.Kind == AssetNonFungible {
					// First redeemer with any share balance takes the whole
					// item; indivisibility makes a fairer split impossible.
					payouts = append(payouts, payout{asset: asset.Clone(), cat: cat, slot: slot, whole: true})
					continue
				}
				out := asset.Clone()
				out.Amount = redeemAmount(tracked, shareAmount, supply)
				if out.Amount.Sign() == 0 {
					continue
				}
				payouts = append(payouts, payout{asset: out, cat: cat, slot: slot})
			}
			return nil
		}
		if ins.Repaid {
			if err := collect(ins.Debt, CategoryDebt); err != nil {
				return err
			}
			if err := collect(ins.Interest, CategoryInterest); err != nil {
				return err
			}
		} else {
			if err := collect(ins.Collateral, CategoryCollateral); err != nil {
				return err
			}
		}

		// Burn before paying out so a reentrant observer can never see the
		// old share balance next to the new custody balance.
		if err := e.shares.Burn(id, holder, shareAmount); err != nil {
			return err
		}
		vault := e.cfg.ProtocolVault()
		for _, p := range payouts {
			if p.whole {
				if err := e.tracker.Zero(id, p.cat, p.slot); err != nil {
					return err
				}
			} else {
				if err := e.tracker.Debit(id, p.cat, p.slot, p.asset.Amount); err != nil {
					return err
				}
			}
			if err := e.tokens.Transfer(p.asset, vault, holder); err != nil {
				return err
			}
		}
		e.emit(NewRedeemedEvent(ins, holder, shareAmount))
		return nil
	})
}

// --- Read accessors ---

// Inscription returns a copy of the stored record.
func (e *Engine) Inscription(id [32]byte) (*Inscription, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	ins, ok := e.state.InscriptionGet(id)
	if !ok {
		return nil, ErrNotFound
	}
	return ins.Clone(), nil
}

// EscrowUnit returns the custody unit snapshot provisioned for an
// inscription, if any.
func (e *Engine) EscrowUnit(id [32]byte) (*custody.UnitRecord, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	rec, ok := e.state.EscrowUnitGet(id)
	if !ok {
		return nil, errNoEscrowUnit
	}
	return rec, nil
}

// PreviewShares returns the shares a fill of the given fraction would mint at
// the current supply, before fees.
func (e *Engine) PreviewShares(id [32]byte, fractionBps uint64) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	ins, ok := e.state.InscriptionGet(id)
	if !ok {
		return nil, ErrNotFound
	}
	supply, err := e.shares.TotalSupply(id)
	if err != nil {
		return nil, err
	}
	return sharesForFill(fractionBps, supply, ins.IssuedBps), nil
}

// ShareBalanceOf returns the claim-share balance of a holder.
func (e *Engine) ShareBalanceOf(id [32]byte, holder [20]byte) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	return e.shares.BalanceOf(id, holder)
}

// TrackedBalanceOf returns the custody amount held for one asset slot.
func (e *Engine) TrackedBalanceOf(id [32]byte, category AssetCategory, slot int) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	return e.tracker.Balance(id, category, slot)
}
