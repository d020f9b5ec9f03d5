package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"swapcore/internal/model"
)

// Store persists pool-state snapshots out of process.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// PoolSnapshot pairs a pool record with its derived address.
type PoolSnapshot struct {
	Address model.Address
	Record  model.PoolRecord
}

// poolRow builds the parameter list for one snapshot upsert. Reserves,
// share supply and fee counters are full-range uint64, so they go over
// the wire as decimal text into numeric columns rather than through an
// int64 cast that would flip values above MaxInt64 negative.
func poolRow(snap PoolSnapshot) []any {
	rec := snap.Record
	return []any{
		snap.Address.String(),
		int16(rec.Variant),
		rec.AssetA.String(),
		rec.AssetB.String(),
		int16(rec.DerivationSalt),
		strconv.FormatUint(rec.ReserveA, 10),
		strconv.FormatUint(rec.ReserveB, 10),
		strconv.FormatUint(rec.TotalShareSupply, 10),
		strconv.FormatUint(rec.FeeAccruedA, 10),
		strconv.FormatUint(rec.FeeAccruedB, 10),
		rec.FeeTreasury.String(),
		rec.TokenMint.String(),
	}
}

// UpsertPools inserts or updates pool snapshots.
func (s *Store) UpsertPools(ctx context.Context, snapshots []PoolSnapshot) error {
	if len(snapshots) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, snap := range snapshots {
		batch.Queue(`
			INSERT INTO pools (
				address, variant, asset_a, asset_b, derivation_salt,
				reserve_a, reserve_b, share_supply, fee_accrued_a, fee_accrued_b,
				fee_treasury, token_mint, created_at, updated_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,now(),now())
			ON CONFLICT (address)
			DO UPDATE SET
				reserve_a = EXCLUDED.reserve_a,
				reserve_b = EXCLUDED.reserve_b,
				share_supply = EXCLUDED.share_supply,
				fee_accrued_a = EXCLUDED.fee_accrued_a,
				fee_accrued_b = EXCLUDED.fee_accrued_b,
				fee_treasury = EXCLUDED.fee_treasury,
				updated_at = now()
		`, poolRow(snap)...)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range snapshots {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// LoadState returns the number of applied operations recorded for a name.
func (s *Store) LoadState(ctx context.Context, name string) (uint64, bool, error) {
	if name == "" {
		return 0, false, fmt.Errorf("state name required")
	}
	var applied uint64
	row := s.pool.QueryRow(ctx, `SELECT applied_ops FROM runner_state WHERE name=$1`, name)
	if err := row.Scan(&applied); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return applied, true, nil
}

// SaveState upserts the applied-operation count for a name.
func (s *Store) SaveState(ctx context.Context, name string, applied uint64) error {
	if name == "" {
		return fmt.Errorf("state name required")
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO runner_state (name, applied_ops, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (name) DO UPDATE
		SET applied_ops = EXCLUDED.applied_ops, updated_at = now()
	`, name, applied)
	return err
}
