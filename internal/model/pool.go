package model

// PoolVariant discriminates the two pool record shapes. It is stored in the
// packed record and decoded exactly once; decoding never probes by trial.
type PoolVariant uint8

const (
	// VariantTwoToken is a symmetric pool of two custody-held assets.
	VariantTwoToken PoolVariant = 0
	// VariantNativePaired pairs the chain-native asset (reserve A, held by
	// the pool account itself) with one custody-held asset (reserve B).
	VariantNativePaired PoolVariant = 1
)

// PoolRecord is the persistent state of one trading pair.
type PoolRecord struct {
	Variant          PoolVariant
	AssetA           AssetID
	AssetB           AssetID
	DerivationSalt   uint8
	ReserveA         uint64
	ReserveB         uint64
	TotalShareSupply uint64
	FeeAccruedA      uint64
	FeeAccruedB      uint64
	FeeTreasury      Address

	// TokenMint is the custody-held asset of a native-paired pool, kept
	// alongside AssetB in the packed layout. Zero for the two-token
	// variant.
	TokenMint AssetID
}

// IsInitialized reports whether the record has been populated by InitPool.
func (p *PoolRecord) IsInitialized() bool {
	return !p.AssetA.IsZero()
}

// ReservesFor returns (reserveIn, reserveOut) for the given direction.
func (p *PoolRecord) ReservesFor(aToB bool) (uint64, uint64) {
	if aToB {
		return p.ReserveA, p.ReserveB
	}
	return p.ReserveB, p.ReserveA
}

// Side reports which reserve slot holds the given asset: true for A,
// false for B. The second result is false when the asset is not part of
// the pool.
func (p *PoolRecord) Side(asset AssetID) (bool, bool) {
	switch asset {
	case p.AssetA:
		return true, true
	case p.AssetB:
		return false, true
	default:
		return false, false
	}
}
