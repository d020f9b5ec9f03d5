// Package runner applies a JSONL operation stream to the engine,
// journaling receipts and checkpointing progress so an interrupted run
// can resume without reapplying operations.
package runner

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"swapcore/internal/engine"
	"swapcore/internal/journal"
	"swapcore/internal/store"
	"swapcore/internal/store/postgres"
)

// RunConfig holds runtime settings for the op-stream runner.
type RunConfig struct {
	In                string
	BatchSize         int
	CheckpointPath    string
	CheckpointEnabled bool
	SnapshotName      string
}

// SnapshotSink persists pool snapshots out of process after each batch.
type SnapshotSink interface {
	UpsertPools(ctx context.Context, snapshots []postgres.PoolSnapshot) error
	SaveState(ctx context.Context, name string, applied uint64) error
}

// Runner streams operations from a file and applies them to the engine.
type Runner struct {
	cfg        RunConfig
	eng        *engine.Engine
	pools      *store.Memory
	journal    journal.Journal
	snapshots  SnapshotSink
	logger     *zap.Logger
	seen       map[uint64]struct{}
	checkpoint *CheckpointStore
}

// NewRunner builds a Runner with its dependencies. The snapshot sink is
// optional.
func NewRunner(cfg RunConfig, eng *engine.Engine, pools *store.Memory, sink journal.Journal, snapshots SnapshotSink, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		cfg:        cfg,
		eng:        eng,
		pools:      pools,
		journal:    sink,
		snapshots:  snapshots,
		logger:     logger,
		seen:       make(map[uint64]struct{}),
		checkpoint: NewCheckpointStore(cfg.CheckpointPath, cfg.CheckpointEnabled),
	}
}

// Run executes the apply loop.
func (r *Runner) Run(ctx context.Context) error {
	if r.eng == nil {
		return fmt.Errorf("engine is nil")
	}
	if r.journal == nil {
		return fmt.Errorf("journal is nil")
	}
	if r.cfg.BatchSize <= 0 {
		return fmt.Errorf("batch size must be greater than zero")
	}

	var resumeAfter uint64
	if r.checkpoint != nil {
		cp, ok, err := r.checkpoint.Load()
		if err != nil {
			return err
		}
		if ok {
			resumeAfter = cp.LastAppliedSeq
			r.logger.Info("resume from checkpoint", zap.Uint64("last_applied", resumeAfter))
		}
	}

	file, err := os.Open(r.cfg.In)
	if err != nil {
		return fmt.Errorf("open op stream: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 1<<16), 1<<20)

	var (
		entries  []journal.Entry
		lastSeq  uint64
		applied  int
		rejected int
	)
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var op Op
		if err := json.Unmarshal(line, &op); err != nil {
			return fmt.Errorf("parse op: %w", err)
		}
		if op.Seq <= resumeAfter || r.isDuplicate(op.Seq) {
			continue
		}

		entry := journal.Entry{Seq: op.Seq, AppliedAt: time.Now().UTC()}
		rcpt, err := r.apply(op)
		if err != nil {
			entry.Error = err.Error()
			rejected++
			r.logger.Warn("op rejected", zap.Uint64("seq", op.Seq), zap.Error(err))
		} else {
			entry.Receipt = rcpt
			applied++
		}
		entries = append(entries, entry)
		lastSeq = op.Seq

		if len(entries) >= r.cfg.BatchSize {
			if err := r.flush(ctx, entries, lastSeq); err != nil {
				return err
			}
			entries = entries[:0]
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read op stream: %w", err)
	}

	if len(entries) > 0 {
		if err := r.flush(ctx, entries, lastSeq); err != nil {
			return err
		}
	}

	r.logger.Info("run complete", zap.Int("applied", applied), zap.Int("rejected", rejected))
	return nil
}

func (r *Runner) apply(op Op) (engine.Receipt, error) {
	instr, err := op.Instruction()
	if err != nil {
		return engine.Receipt{}, err
	}
	meta, err := op.Accounts.Meta()
	if err != nil {
		return engine.Receipt{}, fmt.Errorf("op %d: %w", op.Seq, err)
	}
	return r.eng.Dispatch(instr, meta)
}

func (r *Runner) flush(ctx context.Context, entries []journal.Entry, lastSeq uint64) error {
	if err := r.journal.PutEntryBatch(entries); err != nil {
		return fmt.Errorf("journal entries: %w", err)
	}
	if r.checkpoint != nil {
		if err := r.checkpoint.Save(lastSeq); err != nil {
			return err
		}
	}
	if r.snapshots != nil {
		if err := r.snapshotPools(ctx, lastSeq); err != nil {
			return err
		}
	}
	r.logger.Info("batch complete", zap.Int("entries", len(entries)), zap.Uint64("last_seq", lastSeq))
	return nil
}

func (r *Runner) snapshotPools(ctx context.Context, lastSeq uint64) error {
	if r.pools == nil {
		return fmt.Errorf("pool store is nil")
	}
	addrs := r.pools.Addresses()
	snapshots := make([]postgres.PoolSnapshot, 0, len(addrs))
	for _, addr := range addrs {
		rec, err := r.pools.Get(addr)
		if err != nil {
			return fmt.Errorf("snapshot pool %s: %w", addr, err)
		}
		snapshots = append(snapshots, postgres.PoolSnapshot{Address: addr, Record: rec})
	}
	if err := r.snapshots.UpsertPools(ctx, snapshots); err != nil {
		return fmt.Errorf("upsert pools: %w", err)
	}
	if err := r.snapshots.SaveState(ctx, r.cfg.SnapshotName, lastSeq); err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	return nil
}

func (r *Runner) isDuplicate(seq uint64) bool {
	if _, ok := r.seen[seq]; ok {
		return true
	}
	r.seen[seq] = struct{}{}
	return false
}
