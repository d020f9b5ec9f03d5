// Package derive computes deterministic custody and record addresses.
// An address is never chosen freely by a caller: it is the Keccak-256
// digest of a fixed label, the seed material, and a one-byte salt. The
// salt is itself content-derived and stored in the pool record so the
// address can be re-derived and verified on every operation.
package derive

import (
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"

	"swapcore/internal/model"
)

// Seed labels for the derivable addresses of a pool.
const (
	LabelPool            = "pool"
	LabelVault           = "vault"
	LabelShareMint       = "share_mint"
	LabelNativePool      = "native_pool"
	LabelNativeVault     = "native_vault"
	LabelNativeShareMint = "native_share_mint"
)

// Derive returns the address for label+seeds along with the salt used.
func Derive(label string, seeds ...[]byte) (model.Address, uint8) {
	material := make([][]byte, 0, len(seeds)+1)
	material = append(material, []byte(label))
	material = append(material, seeds...)
	salt := crypto.Keccak256(material...)[31]
	return DeriveWithSalt(label, salt, seeds...), salt
}

// DeriveWithSalt recomputes the address for a known salt, e.g. the one
// stored in a pool record.
func DeriveWithSalt(label string, salt uint8, seeds ...[]byte) model.Address {
	material := make([][]byte, 0, len(seeds)+2)
	material = append(material, []byte(label))
	material = append(material, seeds...)
	material = append(material, []byte{salt})

	var addr model.Address
	copy(addr[:], crypto.Keccak256(material...))
	return addr
}

// Verify checks a caller-supplied address against its re-derivation and
// fails with ErrInvalidSeeds on mismatch.
func Verify(supplied model.Address, label string, seeds ...[]byte) (uint8, error) {
	derived, salt := Derive(label, seeds...)
	if derived != supplied {
		return 0, fmt.Errorf("%s address %s does not match derivation: %w", label, supplied, model.ErrInvalidSeeds)
	}
	return salt, nil
}

// PoolAddress derives the record address for an asset pair. A pair
// containing the native asset lands in the native-paired address space
// keyed by the paired token mint alone.
func PoolAddress(assetA, assetB model.AssetID) (model.Address, uint8) {
	if assetA == model.NativeAssetID {
		return Derive(LabelNativePool, assetB[:])
	}
	if assetB == model.NativeAssetID {
		return Derive(LabelNativePool, assetA[:])
	}
	return Derive(LabelPool, assetA[:], assetB[:])
}
