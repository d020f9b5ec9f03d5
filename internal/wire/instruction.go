// Package wire decodes and encodes the request payloads handed to the
// dispatch layer. All integers are fixed-width little-endian; a request is
// a one-byte tag followed by the operation payload.
package wire

import (
	"encoding/binary"
	"fmt"

	"swapcore/internal/model"
)

// Request tags.
const (
	TagInitPool uint8 = iota
	TagAddLiquidity
	TagRemoveLiquidity
	TagSwap
	TagMultihopSwap
	TagMultihopSwapWithPath
	TagCollectFees
	TagWithdrawFees
	TagSetFeeTreasury
)

// Instruction is one decoded request payload.
type Instruction interface {
	Tag() uint8
}

type InitPool struct {
	AmountA uint64
	AmountB uint64
}

type AddLiquidity struct {
	AmountA uint64
	AmountB uint64
}

type RemoveLiquidity struct {
	LPAmount uint64
}

type Swap struct {
	AmountIn      uint64
	DirectionAToB bool
}

type MultihopSwap struct {
	AmountIn         uint64
	MinimumAmountOut uint64
}

type MultihopSwapWithPath struct {
	AmountIn         uint64
	MinimumAmountOut uint64
	Path             []model.AssetID
}

type CollectFees struct {
	Pool model.Address
}

type WithdrawFees struct {
	Pool    model.Address
	AmountA uint64
	AmountB uint64
}

type SetFeeTreasury struct {
	Pool     model.Address
	Treasury model.Address
}

func (InitPool) Tag() uint8             { return TagInitPool }
func (AddLiquidity) Tag() uint8         { return TagAddLiquidity }
func (RemoveLiquidity) Tag() uint8      { return TagRemoveLiquidity }
func (Swap) Tag() uint8                 { return TagSwap }
func (MultihopSwap) Tag() uint8         { return TagMultihopSwap }
func (MultihopSwapWithPath) Tag() uint8 { return TagMultihopSwapWithPath }
func (CollectFees) Tag() uint8          { return TagCollectFees }
func (WithdrawFees) Tag() uint8         { return TagWithdrawFees }
func (SetFeeTreasury) Tag() uint8       { return TagSetFeeTreasury }

type reader struct {
	buf []byte
	off int
}

func (r *reader) u8() (uint8, error) {
	if r.off+1 > len(r.buf) {
		return 0, model.ErrInvalidInstructionData
	}
	v := r.buf[r.off]
	r.off++
	return v, nil
}

func (r *reader) u32() (uint32, error) {
	if r.off+4 > len(r.buf) {
		return 0, model.ErrInvalidInstructionData
	}
	v := binary.LittleEndian.Uint32(r.buf[r.off:])
	r.off += 4
	return v, nil
}

func (r *reader) u64() (uint64, error) {
	if r.off+8 > len(r.buf) {
		return 0, model.ErrInvalidInstructionData
	}
	v := binary.LittleEndian.Uint64(r.buf[r.off:])
	r.off += 8
	return v, nil
}

func (r *reader) bytes32() ([32]byte, error) {
	var v [32]byte
	if r.off+32 > len(r.buf) {
		return v, model.ErrInvalidInstructionData
	}
	copy(v[:], r.buf[r.off:])
	r.off += 32
	return v, nil
}

func (r *reader) boolean() (bool, error) {
	v, err := r.u8()
	if err != nil {
		return false, err
	}
	switch v {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, model.ErrInvalidInstructionData
	}
}

func (r *reader) done() error {
	if r.off != len(r.buf) {
		return model.ErrInvalidInstructionData
	}
	return nil
}

// Decode parses one wire request. Truncated or trailing bytes and unknown
// tags fail with ErrInvalidInstructionData.
func Decode(data []byte) (Instruction, error) {
	r := &reader{buf: data}
	tag, err := r.u8()
	if err != nil {
		return nil, fmt.Errorf("decode request: %w", err)
	}

	var (
		instr  Instruction
		decErr error
	)
	switch tag {
	case TagInitPool:
		instr, decErr = decodeAmountPair(r, func(a, b uint64) Instruction { return InitPool{AmountA: a, AmountB: b} })
	case TagAddLiquidity:
		instr, decErr = decodeAmountPair(r, func(a, b uint64) Instruction { return AddLiquidity{AmountA: a, AmountB: b} })
	case TagRemoveLiquidity:
		var lp uint64
		if lp, decErr = r.u64(); decErr == nil {
			instr = RemoveLiquidity{LPAmount: lp}
		}
	case TagSwap:
		instr, decErr = decodeSwap(r)
	case TagMultihopSwap:
		instr, decErr = decodeAmountPair(r, func(a, b uint64) Instruction {
			return MultihopSwap{AmountIn: a, MinimumAmountOut: b}
		})
	case TagMultihopSwapWithPath:
		instr, decErr = decodeMultihopWithPath(r)
	case TagCollectFees:
		var pool [32]byte
		if pool, decErr = r.bytes32(); decErr == nil {
			instr = CollectFees{Pool: model.Address(pool)}
		}
	case TagWithdrawFees:
		instr, decErr = decodeWithdrawFees(r)
	case TagSetFeeTreasury:
		instr, decErr = decodeSetFeeTreasury(r)
	default:
		return nil, fmt.Errorf("decode request: unknown tag %d: %w", tag, model.ErrInvalidInstructionData)
	}

	if decErr != nil {
		return nil, fmt.Errorf("decode request tag %d: %w", tag, decErr)
	}
	if err := r.done(); err != nil {
		return nil, fmt.Errorf("decode request tag %d: trailing bytes: %w", tag, err)
	}
	return instr, nil
}

func decodeAmountPair(r *reader, build func(a, b uint64) Instruction) (Instruction, error) {
	a, err := r.u64()
	if err != nil {
		return nil, err
	}
	b, err := r.u64()
	if err != nil {
		return nil, err
	}
	return build(a, b), nil
}

func decodeSwap(r *reader) (Instruction, error) {
	amountIn, err := r.u64()
	if err != nil {
		return nil, err
	}
	aToB, err := r.boolean()
	if err != nil {
		return nil, err
	}
	return Swap{AmountIn: amountIn, DirectionAToB: aToB}, nil
}

func decodeMultihopWithPath(r *reader) (Instruction, error) {
	amountIn, err := r.u64()
	if err != nil {
		return nil, err
	}
	minOut, err := r.u64()
	if err != nil {
		return nil, err
	}
	count, err := r.u32()
	if err != nil {
		return nil, err
	}
	// A path element is 32 bytes; reject counts the buffer cannot hold.
	if int(count) > (len(r.buf)-r.off)/32 {
		return nil, model.ErrInvalidInstructionData
	}
	path := make([]model.AssetID, 0, count)
	for i := uint32(0); i < count; i++ {
		raw, err := r.bytes32()
		if err != nil {
			return nil, err
		}
		path = append(path, model.AssetID(raw))
	}
	return MultihopSwapWithPath{AmountIn: amountIn, MinimumAmountOut: minOut, Path: path}, nil
}

func decodeWithdrawFees(r *reader) (Instruction, error) {
	pool, err := r.bytes32()
	if err != nil {
		return nil, err
	}
	amountA, err := r.u64()
	if err != nil {
		return nil, err
	}
	amountB, err := r.u64()
	if err != nil {
		return nil, err
	}
	return WithdrawFees{Pool: model.Address(pool), AmountA: amountA, AmountB: amountB}, nil
}

func decodeSetFeeTreasury(r *reader) (Instruction, error) {
	pool, err := r.bytes32()
	if err != nil {
		return nil, err
	}
	treasury, err := r.bytes32()
	if err != nil {
		return nil, err
	}
	return SetFeeTreasury{Pool: model.Address(pool), Treasury: model.Address(treasury)}, nil
}

// Encode serializes an instruction into its wire form.
func Encode(instr Instruction) []byte {
	w := []byte{instr.Tag()}
	switch in := instr.(type) {
	case InitPool:
		w = appendU64(w, in.AmountA, in.AmountB)
	case AddLiquidity:
		w = appendU64(w, in.AmountA, in.AmountB)
	case RemoveLiquidity:
		w = appendU64(w, in.LPAmount)
	case Swap:
		w = appendU64(w, in.AmountIn)
		w = appendBool(w, in.DirectionAToB)
	case MultihopSwap:
		w = appendU64(w, in.AmountIn, in.MinimumAmountOut)
	case MultihopSwapWithPath:
		w = appendU64(w, in.AmountIn, in.MinimumAmountOut)
		w = binary.LittleEndian.AppendUint32(w, uint32(len(in.Path)))
		for _, id := range in.Path {
			w = append(w, id.Bytes()...)
		}
	case CollectFees:
		w = append(w, in.Pool.Bytes()...)
	case WithdrawFees:
		w = append(w, in.Pool.Bytes()...)
		w = appendU64(w, in.AmountA, in.AmountB)
	case SetFeeTreasury:
		w = append(w, in.Pool.Bytes()...)
		w = append(w, in.Treasury.Bytes()...)
	}
	return w
}

func appendU64(buf []byte, values ...uint64) []byte {
	for _, v := range values {
		buf = binary.LittleEndian.AppendUint64(buf, v)
	}
	return buf
}

func appendBool(buf []byte, v bool) []byte {
	if v {
		return append(buf, 1)
	}
	return append(buf, 0)
}
