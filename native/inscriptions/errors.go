package inscriptions

import "errors"

// Validation errors: rejected before any state mutation, non-retryable
// without changing the input.
var (
	ErrNilState         = errors.New("inscription engine: state not configured")
	ErrNilResource      = errors.New("inscription engine: asset resource reference required")
	ErrUnknownAssetKind = errors.New("inscription engine: unknown asset kind")
	ErrZeroAmount       = errors.New("inscription engine: asset amount must be positive")
	ErrEmptyDebt        = errors.New("inscription engine: debt leg must not be empty")
	ErrEmptyCollateral  = errors.New("inscription engine: collateral leg must not be empty")
	ErrTooManyAssets    = errors.New("inscription engine: too many asset entries")
	ErrIndivisibleAsset = errors.New("inscription engine: asset kind not divisible for this leg")
	ErrZeroFill         = errors.New("inscription engine: fill fraction must be positive")
	ErrZeroShares       = errors.New("inscription engine: share amount must be positive")
	ErrMultiLenderSwap  = errors.New("inscription engine: instant swap cannot be multi-lender")
)

// State errors: wrong lifecycle stage, caller must wait or pick a different
// operation.
var (
	ErrNotFound          = errors.New("inscription engine: inscription not found")
	ErrAlreadyExists     = errors.New("inscription engine: inscription already exists")
	ErrAlreadySigned     = errors.New("inscription engine: inscription already signed")
	ErrAlreadyRepaid     = errors.New("inscription engine: inscription already repaid")
	ErrAlreadyLiquidated = errors.New("inscription engine: inscription already liquidated")
	ErrNotYetSigned      = errors.New("inscription engine: inscription has not been signed")
	ErrNotCancellable    = errors.New("inscription engine: inscription has active fills")
	ErrNotSettled        = errors.New("inscription engine: inscription not repaid or liquidated")
	ErrExceedsRemainder  = errors.New("inscription engine: fill exceeds remaining fraction")
	ErrInsufficientShare = errors.New("inscription engine: share balance too low")
)

// Authorization errors: wrong caller, never retried.
var (
	ErrNotCreator  = errors.New("inscription engine: caller is not the creator")
	ErrNotBorrower = errors.New("inscription engine: caller is not the borrower")
)

// Timing errors: caller-visible and time-dependent.
var (
	ErrDeadlinePassed     = errors.New("inscription engine: offer deadline passed")
	ErrTooEarly           = errors.New("inscription engine: repayment window not open")
	ErrWindowClosed       = errors.New("inscription engine: repayment window closed")
	ErrNotYetLiquidatable = errors.New("inscription engine: repayment window still open")
)
