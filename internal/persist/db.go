package persist

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/l1jgo/rpgcore/internal/config"
	"github.com/l1jgo/rpgcore/internal/state"
)

// PGStore keeps map states in PostgreSQL, one row per entity.
type PGStore struct {
	Pool    *pgxpool.Pool
	log     *zap.Logger
	timeout time.Duration
}

// NewPGStore connects, pings and migrates the schema.
func NewPGStore(ctx context.Context, cfg config.DatabaseConfig, timeout time.Duration, log *zap.Logger) (*PGStore, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	poolCfg.MaxConns = int32(cfg.MaxOpenConns)
	poolCfg.MinConns = int32(cfg.MaxIdleConns)
	poolCfg.MaxConnLifetime = cfg.ConnMaxLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect to db: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	if err := RunMigrations(ctx, pool, log); err != nil {
		pool.Close()
		return nil, err
	}
	return &PGStore{Pool: pool, log: log, timeout: timeout}, nil
}

func (s *PGStore) Load(ctx context.Context, key string) (state.States, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	rows, err := s.Pool.Query(ctx,
		`SELECT entity_id, payload FROM map_state WHERE map_key = $1`, key)
	if err != nil {
		return nil, fmt.Errorf("query map state %s: %w", key, err)
	}
	defer rows.Close()

	states := make(state.States)
	for rows.Next() {
		var (
			id      int32
			payload []byte
		)
		if err := rows.Scan(&id, &payload); err != nil {
			return nil, fmt.Errorf("scan map state %s: %w", key, err)
		}
		st, err := state.UnmarshalSnapshot(payload)
		if err != nil {
			return nil, fmt.Errorf("map state %s entity %d: %w", key, id, err)
		}
		states[int(id)] = st
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read map state %s: %w", key, err)
	}
	return states, nil
}

// Save replaces all rows of the map in one transaction.
func (s *PGStore) Save(ctx context.Context, key string, states state.States) error {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("map state begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM map_state WHERE map_key = $1`, key); err != nil {
		return fmt.Errorf("map state clear %s: %w", key, err)
	}
	batch := &pgx.Batch{}
	for id, st := range states {
		if st == nil {
			continue
		}
		payload, err := state.MarshalSnapshot(st)
		if err != nil {
			return err
		}
		batch.Queue(
			`INSERT INTO map_state (map_key, entity_id, payload, updated_at)
			 VALUES ($1, $2, $3, NOW())`,
			key, int32(id), payload)
	}
	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("map state insert %s: %w", key, err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("map state commit %s: %w", key, err)
	}
	s.log.Debug("儲存地圖狀態", zap.String("key", key), zap.Int("entities", batch.Len()))
	return nil
}

func (s *PGStore) Close() error {
	s.Pool.Close()
	return nil
}

var _ Store = (*PGStore)(nil)
