// Package store persists pool records keyed by their derived addresses.
package store

import "swapcore/internal/model"

// Store reads and writes pool records at derived addresses.
type Store interface {
	Get(addr model.Address) (model.PoolRecord, error)
	Put(addr model.Address, rec model.PoolRecord) error
	Exists(addr model.Address) bool
}
