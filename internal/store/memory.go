package store

import (
	"fmt"
	"sync"

	"swapcore/internal/model"
)

// Memory is an in-process arena of packed pool records. Records are kept
// in packed form so every read and write goes through the canonical
// byte-exact codec, the same as the fixed-layout record storage it stands
// in for.
type Memory struct {
	mu    sync.Mutex
	pools map[model.Address][]byte
}

func NewMemory() *Memory {
	return &Memory{pools: make(map[model.Address][]byte)}
}

// Get decodes the record at addr. A missing or corrupt record fails with
// ErrInvalidAccountData.
func (m *Memory) Get(addr model.Address) (model.PoolRecord, error) {
	m.mu.Lock()
	raw, ok := m.pools[addr]
	m.mu.Unlock()

	if !ok {
		return model.PoolRecord{}, fmt.Errorf("pool %s not found: %w", addr, model.ErrInvalidAccountData)
	}
	rec, err := model.UnpackPoolRecord(raw)
	if err != nil {
		return model.PoolRecord{}, fmt.Errorf("pool %s: %w", addr, err)
	}
	return rec, nil
}

// Put packs and stores the record at addr.
func (m *Memory) Put(addr model.Address, rec model.PoolRecord) error {
	buf := make([]byte, rec.PackedLen())
	if err := rec.PackInto(buf); err != nil {
		return fmt.Errorf("pool %s: %w", addr, err)
	}

	m.mu.Lock()
	m.pools[addr] = buf
	m.mu.Unlock()
	return nil
}

// Exists reports whether a record is stored at addr.
func (m *Memory) Exists(addr model.Address) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.pools[addr]
	return ok
}

// Addresses returns the addresses of all stored pools.
func (m *Memory) Addresses() []model.Address {
	m.mu.Lock()
	defer m.mu.Unlock()

	addrs := make([]model.Address, 0, len(m.pools))
	for addr := range m.pools {
		addrs = append(addrs, addr)
	}
	return addrs
}

// Snapshot captures the packed state of every pool for rollback.
type Snapshot map[model.Address][]byte

// Snapshot returns a deep copy of the arena.
func (m *Memory) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := make(Snapshot, len(m.pools))
	for addr, raw := range m.pools {
		snap[addr] = append([]byte(nil), raw...)
	}
	return snap
}

// Restore replaces the arena with a previously taken snapshot.
func (m *Memory) Restore(snap Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.pools = make(map[model.Address][]byte, len(snap))
	for addr, raw := range snap {
		m.pools[addr] = append([]byte(nil), raw...)
	}
}
