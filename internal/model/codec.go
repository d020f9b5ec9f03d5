package model

import (
	"encoding/binary"
	"fmt"
)

// Packed layout, little-endian throughout:
//
//	version u8 | variant u8 | asset_a [32] | asset_b [32] | salt u8 |
//	reserve_a u64 | reserve_b u64 | share_supply u64 |
//	fee_accrued_a u64 | fee_accrued_b u64 | fee_treasury [32] |
//	token_mint [32]  (native-paired only)
const (
	recordVersion = 1

	headerLen       = 2
	twoTokenBodyLen = 32 + 32 + 1 + 8 + 8 + 8 + 8 + 8 + 32
	nativeBodyLen   = twoTokenBodyLen + 32

	// TwoTokenRecordLen is the packed size of a two-token pool record.
	TwoTokenRecordLen = headerLen + twoTokenBodyLen
	// NativePairedRecordLen is the packed size of a native-paired record.
	NativePairedRecordLen = headerLen + nativeBodyLen
)

// PackedLen returns the packed size of the record for its variant.
func (p *PoolRecord) PackedLen() int {
	if p.Variant == VariantNativePaired {
		return NativePairedRecordLen
	}
	return TwoTokenRecordLen
}

// Pack serializes the record into a fresh buffer.
func (p *PoolRecord) Pack() []byte {
	buf := make([]byte, p.PackedLen())
	// PackInto on a correctly sized buffer cannot fail.
	_ = p.PackInto(buf)
	return buf
}

// PackInto writes the record into dst, which must be at least PackedLen
// bytes. A short buffer fails with ErrInvalidAccountData.
func (p *PoolRecord) PackInto(dst []byte) error {
	if len(dst) < p.PackedLen() {
		return fmt.Errorf("pack pool record: buffer %d < %d: %w", len(dst), p.PackedLen(), ErrInvalidAccountData)
	}
	dst[0] = recordVersion
	dst[1] = byte(p.Variant)
	off := headerLen
	off += copy(dst[off:], p.AssetA[:])
	off += copy(dst[off:], p.AssetB[:])
	dst[off] = p.DerivationSalt
	off++
	for _, v := range [...]uint64{p.ReserveA, p.ReserveB, p.TotalShareSupply, p.FeeAccruedA, p.FeeAccruedB} {
		binary.LittleEndian.PutUint64(dst[off:], v)
		off += 8
	}
	off += copy(dst[off:], p.FeeTreasury[:])
	if p.Variant == VariantNativePaired {
		copy(dst[off:], p.TokenMint[:])
	}
	return nil
}

// UnpackPoolRecord decodes a packed record. The variant is read from the
// stored discriminant; decode success is never used to infer the shape.
func UnpackPoolRecord(src []byte) (PoolRecord, error) {
	var p PoolRecord
	if len(src) < headerLen {
		return p, fmt.Errorf("unpack pool record: short buffer %d: %w", len(src), ErrInvalidAccountData)
	}
	if src[0] != recordVersion {
		return p, fmt.Errorf("unpack pool record: unknown version %d: %w", src[0], ErrInvalidAccountData)
	}
	p.Variant = PoolVariant(src[1])
	switch p.Variant {
	case VariantTwoToken:
		if len(src) < TwoTokenRecordLen {
			return p, fmt.Errorf("unpack pool record: buffer %d < %d: %w", len(src), TwoTokenRecordLen, ErrInvalidAccountData)
		}
	case VariantNativePaired:
		if len(src) < NativePairedRecordLen {
			return p, fmt.Errorf("unpack pool record: buffer %d < %d: %w", len(src), NativePairedRecordLen, ErrInvalidAccountData)
		}
	default:
		return p, fmt.Errorf("unpack pool record: unknown variant %d: %w", src[1], ErrInvalidAccountData)
	}

	off := headerLen
	off += copy(p.AssetA[:], src[off:])
	off += copy(p.AssetB[:], src[off:])
	p.DerivationSalt = src[off]
	off++
	for _, field := range [...]*uint64{&p.ReserveA, &p.ReserveB, &p.TotalShareSupply, &p.FeeAccruedA, &p.FeeAccruedB} {
		*field = binary.LittleEndian.Uint64(src[off:])
		off += 8
	}
	off += copy(p.FeeTreasury[:], src[off:])
	if p.Variant == VariantNativePaired {
		copy(p.TokenMint[:], src[off:])
	}
	return p, nil
}
