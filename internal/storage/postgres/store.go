package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"feeManager/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS tick_records (
	pool_id    TEXT           NOT NULL,
	tick       INTEGER        NOT NULL,
	liquidity  NUMERIC(39, 0) NOT NULL,
	fee        BIGINT         NOT NULL,
	updated_at TIMESTAMPTZ    NOT NULL DEFAULT now(),
	PRIMARY KEY (pool_id, tick)
);
CREATE TABLE IF NOT EXISTS shields (
	pool_id    TEXT           NOT NULL,
	token_id   NUMERIC(78, 0) NOT NULL,
	tick_lower INTEGER        NOT NULL,
	tick_upper INTEGER        NOT NULL,
	owner      TEXT           NOT NULL,
	created_at TIMESTAMPTZ    NOT NULL DEFAULT now(),
	PRIMARY KEY (pool_id, token_id)
);
CREATE TABLE IF NOT EXISTS fee_manager_state (
	name       TEXT        PRIMARY KEY,
	position   TEXT        NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// Store provides Postgres persistence for tick records.
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

// Migrate creates the tables if they are missing.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// GetTick loads one tick record.
func (s *Store) GetTick(ctx context.Context, poolID common.Hash, tick int32) (model.TickRecord, bool, error) {
	var liquidity string
	var fee int64
	row := s.pool.QueryRow(ctx, `
		SELECT liquidity::text, fee FROM tick_records WHERE pool_id=$1 AND tick=$2
	`, poolID.Hex(), tick)
	if err := row.Scan(&liquidity, &fee); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.TickRecord{}, false, nil
		}
		return model.TickRecord{}, false, err
	}
	return buildRecord(poolID, tick, liquidity, fee)
}

// PutTick inserts or replaces one tick record.
func (s *Store) PutTick(ctx context.Context, record model.TickRecord) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO tick_records (pool_id, tick, liquidity, fee, updated_at)
		VALUES ($1, $2, $3::numeric, $4, now())
		ON CONFLICT (pool_id, tick) DO UPDATE
		SET liquidity = EXCLUDED.liquidity, fee = EXCLUDED.fee, updated_at = now()
	`,
		record.PoolID.Hex(),
		record.Tick,
		record.LiquidityOrZero().Dec(),
		int64(record.Fee),
	)
	return err
}

// ListTicks returns a pool's records ordered by tick.
func (s *Store) ListTicks(ctx context.Context, poolID common.Hash) ([]model.TickRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT tick, liquidity::text, fee FROM tick_records WHERE pool_id=$1 ORDER BY tick
	`, poolID.Hex())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.TickRecord, 0)
	for rows.Next() {
		var tick int32
		var liquidity string
		var fee int64
		if err := rows.Scan(&tick, &liquidity, &fee); err != nil {
			return nil, err
		}
		record, _, err := buildRecord(poolID, tick, liquidity, fee)
		if err != nil {
			return nil, err
		}
		out = append(out, record)
	}
	return out, rows.Err()
}

// PutShield inserts or replaces a shield registration.
func (s *Store) PutShield(ctx context.Context, shield model.Shield) error {
	if shield.TokenID == nil {
		return fmt.Errorf("shield token id is required")
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO shields (pool_id, token_id, tick_lower, tick_upper, owner)
		VALUES ($1, $2::numeric, $3, $4, $5)
		ON CONFLICT (pool_id, token_id) DO UPDATE
		SET tick_lower = EXCLUDED.tick_lower, tick_upper = EXCLUDED.tick_upper, owner = EXCLUDED.owner
	`,
		shield.PoolID.Hex(),
		shield.TokenID.Dec(),
		shield.TickLower,
		shield.TickUpper,
		shield.Owner.Hex(),
	)
	return err
}

// OutOfRangeShields returns the pool's shields whose range excludes tick.
func (s *Store) OutOfRangeShields(ctx context.Context, poolID common.Hash, tick int32, limit int) ([]model.Shield, error) {
	query := `
		SELECT token_id::text, tick_lower, tick_upper, owner FROM shields
		WHERE pool_id=$1 AND (tick_lower > $2 OR tick_upper < $2)
		ORDER BY token_id
	`
	args := []interface{}{poolID.Hex(), tick}
	if limit > 0 {
		query += " LIMIT $3"
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Shield, 0)
	for rows.Next() {
		var tokenID, owner string
		var tickLower, tickUpper int32
		if err := rows.Scan(&tokenID, &tickLower, &tickUpper, &owner); err != nil {
			return nil, err
		}
		id, err := uint256.FromDecimal(tokenID)
		if err != nil {
			return nil, fmt.Errorf("shield token id %q: %w", tokenID, err)
		}
		out = append(out, model.Shield{
			PoolID:    poolID,
			TokenID:   id,
			TickLower: tickLower,
			TickUpper: tickUpper,
			Owner:     common.HexToAddress(owner),
		})
	}
	return out, rows.Err()
}

// LoadState returns the saved position for a name.
func (s *Store) LoadState(ctx context.Context, name string) (string, bool, error) {
	if name == "" {
		return "", false, fmt.Errorf("state name required")
	}
	var position string
	row := s.pool.QueryRow(ctx, `SELECT position FROM fee_manager_state WHERE name=$1`, name)
	if err := row.Scan(&position); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, err
	}
	return position, true, nil
}

// SaveState upserts the position for a name.
func (s *Store) SaveState(ctx context.Context, name string, position string) error {
	if name == "" {
		return fmt.Errorf("state name required")
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO fee_manager_state (name, position, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (name) DO UPDATE
		SET position = EXCLUDED.position, updated_at = now()
	`, name, position)
	return err
}

func buildRecord(poolID common.Hash, tick int32, liquidity string, fee int64) (model.TickRecord, bool, error) {
	liq, err := uint256.FromDecimal(liquidity)
	if err != nil {
		return model.TickRecord{}, false, fmt.Errorf("tick %d liquidity %q: %w", tick, liquidity, err)
	}
	if fee < 0 || fee > int64(^uint32(0)) {
		return model.TickRecord{}, false, fmt.Errorf("tick %d fee out of range: %d", tick, fee)
	}
	return model.TickRecord{
		PoolID:    poolID,
		Tick:      tick,
		Liquidity: liq,
		Fee:       uint32(fee),
	}, true, nil
}
