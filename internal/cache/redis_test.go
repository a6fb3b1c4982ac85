package cache

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap/zaptest"
)

// Needs a live server: REDIS_ADDR=localhost:6379 go test ./internal/cache
func TestRedisStore(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	ctx := context.Background()
	rs := NewRedis(RedisConfig{Addr: addr, DB: 15}, zaptest.NewLogger(t))
	defer rs.Close()

	if err := rs.Ping(ctx); err != nil {
		t.Fatalf("Ping failed: %v", err)
	}

	key := "clockverse:test:" + uuid.NewString()
	defer rs.Delete(ctx, key)

	if _, err := rs.Get(ctx, key); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get missing: %v", err)
	}
	ok, err := rs.SetIfAbsent(ctx, key, []byte("a"), time.Minute)
	if err != nil || !ok {
		t.Fatalf("SetIfAbsent = %v, %v", ok, err)
	}
	ok, err = rs.SetIfAbsent(ctx, key, []byte("b"), time.Minute)
	if err != nil || ok {
		t.Fatalf("second SetIfAbsent = %v, %v", ok, err)
	}
	if err := rs.Put(ctx, key, []byte("c"), time.Minute); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	v, err := rs.Get(ctx, key)
	if err != nil || string(v) != "c" {
		t.Errorf("Get = %q, %v", v, err)
	}
	if ok, err := rs.Expire(ctx, key, time.Hour); err != nil || !ok {
		t.Errorf("Expire = %v, %v", ok, err)
	}
}
