package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisStore implements KV on a Redis server shared by every replica.
type RedisStore struct {
	rdb *redis.Client
	log *zap.Logger
}

type RedisConfig struct {
	Addr     string
	DB       int
	Password string
}

func NewRedis(cfg RedisConfig, log *zap.Logger) *RedisStore {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		DB:       cfg.DB,
		Password: cfg.Password,
	})
	return &RedisStore{rdb: rdb, log: log}
}

func (c *RedisStore) Ping(ctx context.Context) error {
	err := c.rdb.Ping(ctx).Err()
	if err != nil {
		c.log.Warn("PING failed", zap.Error(err))
	}
	return err
}

func (c *RedisStore) Close() error {
	if c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}

func (c *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		c.log.Debug("GET miss", zap.String("key", key))
		return nil, ErrNotFound
	}
	if err != nil {
		c.log.Warn("GET failed", zap.String("key", key), zap.Error(err))
		return nil, err
	}
	c.log.Debug("GET hit", zap.String("key", key), zap.Int("bytes", len(b)))
	return b, nil
}

func (c *RedisStore) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	err := c.rdb.Set(ctx, key, value, ttl).Err()
	if err != nil {
		c.log.Warn("SET failed", zap.String("key", key), zap.Error(err))
	} else {
		c.log.Debug("SET ok", zap.String("key", key), zap.Duration("ttl", ttl))
	}
	return err
}

func (c *RedisStore) Delete(ctx context.Context, key string) error {
	n, err := c.rdb.Del(ctx, key).Result()
	if err != nil {
		c.log.Warn("DEL failed", zap.String("key", key), zap.Error(err))
	} else {
		c.log.Debug("DEL ok", zap.String("key", key), zap.Int64("deleted", n))
	}
	return err
}

// SetIfAbsent issues SET key value NX PX ttl.
func (c *RedisStore) SetIfAbsent(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	ok, err := c.rdb.SetNX(ctx, key, value, ttl).Result()
	switch {
	case err != nil:
		c.log.Warn("SETNX failed", zap.String("key", key), zap.Error(err))
	case ok:
		c.log.Debug("SETNX ok", zap.String("key", key), zap.Duration("ttl", ttl))
	default:
		c.log.Debug("SETNX skipped (already exists)", zap.String("key", key))
	}
	return ok, err
}

func (c *RedisStore) Expire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := c.rdb.Expire(ctx, key, ttl).Result()
	if err != nil {
		c.log.Warn("EXPIRE failed", zap.String("key", key), zap.Error(err))
	}
	return ok, err
}
