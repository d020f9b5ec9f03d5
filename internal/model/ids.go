package model

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// AssetID is an opaque 32-byte asset identifier.
type AssetID [32]byte

// Address is an opaque 32-byte custody or storage address.
type Address [32]byte

// NativeAssetID symbolically denotes the chain-native asset inside a pool
// record, mirroring the wrapped-native mint convention.
var NativeAssetID = AssetID{'n', 'a', 't', 'i', 'v', 'e'}

// IsZero reports whether the identifier is the all-zero value.
func (a AssetID) IsZero() bool {
	return a == AssetID{}
}

// Bytes returns the identifier as a byte slice, for use as seed material.
func (a AssetID) Bytes() []byte {
	return a[:]
}

func (a AssetID) String() string {
	return hex.EncodeToString(a[:])
}

// IsZero reports whether the address is the all-zero value.
func (a Address) IsZero() bool {
	return a == Address{}
}

// Bytes returns the address as a byte slice, for use as seed material.
func (a Address) Bytes() []byte {
	return a[:]
}

func (a Address) String() string {
	return hex.EncodeToString(a[:])
}

// ParseAssetID decodes a 64-char hex string, with or without 0x prefix.
func ParseAssetID(s string) (AssetID, error) {
	var id AssetID
	b, err := parseHex32(s)
	if err != nil {
		return id, fmt.Errorf("asset id: %w", err)
	}
	copy(id[:], b)
	return id, nil
}

// ParseAddress decodes a 64-char hex string, with or without 0x prefix.
func ParseAddress(s string) (Address, error) {
	var addr Address
	b, err := parseHex32(s)
	if err != nil {
		return addr, fmt.Errorf("address: %w", err)
	}
	copy(addr[:], b)
	return addr, nil
}

func parseHex32(s string) ([]byte, error) {
	s = strings.TrimPrefix(s, "0x")
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, err
	}
	if len(b) != 32 {
		return nil, fmt.Errorf("expected 32 bytes, got %d", len(b))
	}
	return b, nil
}
