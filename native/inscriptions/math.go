package inscriptions

import "math/big"

var (
	basisPoints = big.NewInt(basisPointDenominator)
	// shareOffset is the virtual offset added to total supply in the share
	// conversion. It dominates the ratio at low supply, so a donation made
	// directly to the custody address cannot meaningfully move the share
	// price against the first filler.
	shareOffset = mustBigInt("10000000000000000") // 1e16
)

func mustBigInt(value string) *big.Int {
	v, ok := new(big.Int).SetString(value, 10)
	if !ok {
		panic("invalid big integer constant")
	}
	return v
}

// sharesForFill converts a fill fraction into claim shares at the current
// supply. All division is floor division; rounding always favours the
// protocol.
func sharesForFill(fractionBps uint64, totalSupply *big.Int, priorBps uint64) *big.Int {
	if fractionBps == 0 {
		return big.NewInt(0)
	}
	supply := totalSupply
	if supply == nil {
		supply = big.NewInt(0)
	}
	denom := priorBps
	if denom == 0 {
		denom = 1
	}
	shares := new(big.Int).Add(supply, shareOffset)
	shares.Mul(shares, new(big.Int).SetUint64(fractionBps))
	return shares.Quo(shares, new(big.Int).SetUint64(denom))
}

// feeShares computes the treasury cut of a share mint.
func feeShares(shares *big.Int, feeBps uint64) *big.Int {
	if shares == nil || shares.Sign() <= 0 || feeBps == 0 {
		return big.NewInt(0)
	}
	fee := new(big.Int).Mul(shares, new(big.Int).SetUint64(feeBps))
	return fee.Quo(fee, basisPoints)
}

// scaleByFraction scales an amount by a basis-point fraction with floor
// division.
func scaleByFraction(value *big.Int, bps uint64) *big.Int {
	if value == nil || value.Sign() <= 0 || bps == 0 {
		return big.NewInt(0)
	}
	scaled := new(big.Int).Mul(value, new(big.Int).SetUint64(bps))
	return scaled.Quo(scaled, basisPoints)
}

// redeemAmount computes the payout for a share burn against a tracked custody
// balance. The tracked balance already reflects whatever fraction was funded,
// so no basis-point conversion is reapplied here.
func redeemAmount(tracked, shares, totalSupply *big.Int) *big.Int {
	if tracked == nil || tracked.Sign() <= 0 || shares == nil || shares.Sign() <= 0 {
		return big.NewInt(0)
	}
	if totalSupply == nil || totalSupply.Sign() <= 0 {
		return big.NewInt(0)
	}
	out := new(big.Int).Mul(tracked, shares)
	return out.Quo(out, totalSupply)
}
