// Package journal records the outcome of applied operations.
package journal

import (
	"time"

	"swapcore/internal/engine"
)

// Entry is one applied (or rejected) operation.
type Entry struct {
	Seq       uint64         `json:"seq"`
	AppliedAt time.Time      `json:"applied_at"`
	Receipt   engine.Receipt `json:"receipt"`
	Error     string         `json:"error,omitempty"`
}

// Journal defines a sink for operation entries.
type Journal interface {
	PutEntryBatch(entries []Entry) error
}
