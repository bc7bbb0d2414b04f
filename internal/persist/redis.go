package persist

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/l1jgo/rpgcore/internal/state"
)

// RedisStore keeps each map in one hash: field = entity id, value = the
// YAML snapshot of its state.
type RedisStore struct {
	client  *redis.Client
	prefix  string
	log     *zap.Logger
	timeout time.Duration
}

// NewRedisStore wraps an existing client. prefix is prepended to every key.
func NewRedisStore(client *redis.Client, prefix string, timeout time.Duration, log *zap.Logger) *RedisStore {
	return &RedisStore{client: client, prefix: prefix, log: log, timeout: timeout}
}

// DialRedis connects to addr and checks the connection.
func DialRedis(ctx context.Context, addr string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, DB: db})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return client, nil
}

func (s *RedisStore) key(k string) string { return s.prefix + k }

func (s *RedisStore) Load(ctx context.Context, key string) (state.States, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	fields, err := s.client.HGetAll(ctx, s.key(key)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis load %s: %w", key, err)
	}
	states := make(state.States, len(fields))
	for f, v := range fields {
		id, err := strconv.Atoi(f)
		if err != nil {
			s.log.Warn("忽略無效的狀態欄位", zap.String("key", key), zap.String("field", f))
			continue
		}
		st, err := state.UnmarshalSnapshot([]byte(v))
		if err != nil {
			return nil, fmt.Errorf("redis state %s entity %d: %w", key, id, err)
		}
		states[id] = st
	}
	return states, nil
}

// Save replaces the hash in a MULTI/EXEC block.
func (s *RedisStore) Save(ctx context.Context, key string, states state.States) error {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	values := make([]any, 0, 2*len(states))
	for id, st := range states {
		if st == nil {
			continue
		}
		payload, err := state.MarshalSnapshot(st)
		if err != nil {
			return err
		}
		values = append(values, strconv.Itoa(id), payload)
	}
	k := s.key(key)
	_, err := s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, k)
		if len(values) > 0 {
			p.HSet(ctx, k, values...)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis save %s: %w", key, err)
	}
	s.log.Debug("儲存地圖狀態", zap.String("key", k), zap.Int("entities", len(values)/2))
	return nil
}

func (s *RedisStore) Close() error { return s.client.Close() }

var _ Store = (*RedisStore)(nil)
