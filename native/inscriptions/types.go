package inscriptions

import (
	"fmt"
	"math/big"
)

// AssetKind enumerates the transferable resource classes the protocol can
// custody. The set is closed so dispatch sites stay exhaustive.
type AssetKind uint8

const (
	AssetFungible AssetKind = iota
	AssetNonFungible
	AssetSemiFungible
	AssetVaultShare
)

// Valid reports whether the kind value is within the supported range.
func (k AssetKind) Valid() bool {
	switch k {
	case AssetFungible, AssetNonFungible, AssetSemiFungible, AssetVaultShare:
		return true
	default:
		return false
	}
}

// String returns the canonical lowercase name for the kind.
func (k AssetKind) String() string {
	switch k {
	case AssetFungible:
		return "fungible"
	case AssetNonFungible:
		return "nonfungible"
	case AssetSemiFungible:
		return "semifungible"
	case AssetVaultShare:
		return "vaultshare"
	default:
		return fmt.Sprintf("assetkind(%d)", uint8(k))
	}
}

// Scalable reports whether amounts of this kind can be split pro-rata. A
// non-fungible item is indivisible and must always move whole.
func (k AssetKind) Scalable() bool {
	return k != AssetNonFungible
}

// AssetCategory identifies which leg of an inscription an asset slot belongs
// to. The balance tracker keys custody amounts by category so a repayment can
// never be confused with seized collateral.
type AssetCategory uint8

const (
	CategoryDebt AssetCategory = iota
	CategoryInterest
	CategoryCollateral
)

// String returns the canonical lowercase name for the category.
func (c AssetCategory) String() string {
	switch c {
	case CategoryDebt:
		return "debt"
	case CategoryInterest:
		return "interest"
	case CategoryCollateral:
		return "collateral"
	default:
		return fmt.Sprintf("assetcategory(%d)", uint8(c))
	}
}

// AssetDescriptor is a typed reference to a transferable resource. Amount is
// meaningful for every kind except AssetNonFungible, which is addressed by ID
// alone.
type AssetDescriptor struct {
	Resource string
	Kind     AssetKind
	Amount   *big.Int
	ID       uint64
}

// Clone returns a deep copy of the descriptor.
func (a AssetDescriptor) Clone() AssetDescriptor {
	clone := a
	if a.Amount != nil {
		clone.Amount = new(big.Int).Set(a.Amount)
	}
	return clone
}

// Validate checks the structural invariants shared by every asset slot:
// a non-empty resource reference, a known kind, and a positive amount for
// every kind that carries one.
func (a AssetDescriptor) Validate() error {
	if a.Resource == "" {
		return ErrNilResource
	}
	if !a.Kind.Valid() {
		return fmt.Errorf("%w: %d", ErrUnknownAssetKind, uint8(a.Kind))
	}
	if a.Kind == AssetNonFungible {
		return nil
	}
	if a.Amount == nil || a.Amount.Sign() <= 0 {
		return ErrZeroAmount
	}
	return nil
}

const (
	// maxAssetEntries caps the slots per leg so a create call cannot be used
	// to bloat state or make later per-slot loops unbounded.
	maxAssetEntries = 10
	// basisPointDenominator is the fill-fraction scale.
	basisPointDenominator = 10_000
)

// Inscription is a single borrow/lend or OTC-swap agreement record. Exactly
// one of Borrower/Lender is set at creation; the other is assigned on the
// first fill. IssuedBps only ever grows and never exceeds 10000. Repaid and
// Liquidated are mutually exclusive one-way latches.
type Inscription struct {
	ID                [32]byte
	Borrower          [20]byte
	Lender            [20]byte
	CreatorIsBorrower bool
	Duration          int64
	Deadline          int64
	CreatedAt         int64
	SignedAt          int64
	IssuedBps         uint64
	Repaid            bool
	Liquidated        bool
	MultiLender       bool
	Debt              []AssetDescriptor
	Interest          []AssetDescriptor
	Collateral        []AssetDescriptor
}

// Clone returns a deep copy so callers can mutate the copy without affecting
// the stored instance.
func (ins *Inscription) Clone() *Inscription {
	if ins == nil {
		return nil
	}
	clone := *ins
	clone.Debt = cloneAssets(ins.Debt)
	clone.Interest = cloneAssets(ins.Interest)
	clone.Collateral = cloneAssets(ins.Collateral)
	return &clone
}

func cloneAssets(assets []AssetDescriptor) []AssetDescriptor {
	if assets == nil {
		return nil
	}
	out := make([]AssetDescriptor, len(assets))
	for i := range assets {
		out[i] = assets[i].Clone()
	}
	return out
}

var zeroAddress [20]byte

// Creator returns the party that originally posted the inscription.
func (ins *Inscription) Creator() [20]byte {
	if ins == nil {
		return zeroAddress
	}
	if ins.CreatorIsBorrower {
		return ins.Borrower
	}
	return ins.Lender
}

// Signed reports whether the inscription has received at least one fill.
func (ins *Inscription) Signed() bool {
	return ins != nil && ins.SignedAt != 0
}

// Settled reports whether the agreement has reached a terminal payout state.
func (ins *Inscription) Settled() bool {
	return ins != nil && (ins.Repaid || ins.Liquidated)
}

// validateLeg applies the per-leg structural rules from the create path.
// Debt and interest entries must stay pro-rata divisible; multi-lender
// collateral must as well, since an indivisible item cannot be apportioned
// across lenders.
func validateLeg(assets []AssetDescriptor, category AssetCategory, multiLender bool) error {
	if len(assets) > maxAssetEntries {
		return fmt.Errorf("%w: %s has %d entries", ErrTooManyAssets, category, len(assets))
	}
	for _, asset := range assets {
		if err := asset.Validate(); err != nil {
			return err
		}
		switch category {
		case CategoryDebt, CategoryInterest:
			if asset.Kind != AssetFungible && asset.Kind != AssetVaultShare {
				return fmt.Errorf("%w: %s cannot hold %s assets", ErrIndivisibleAsset, category, asset.Kind)
			}
		case CategoryCollateral:
			if multiLender && (asset.Kind == AssetNonFungible || asset.Kind == AssetSemiFungible) {
				return fmt.Errorf("%w: multi-lender collateral cannot hold %s assets", ErrIndivisibleAsset, asset.Kind)
			}
		}
	}
	return nil
}
