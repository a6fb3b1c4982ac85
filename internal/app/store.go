package app

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/leonardcser/clockverse/internal/cache"
	"github.com/leonardcser/clockverse/internal/config"
)

// DaemonBinary is the executable started when no cache daemon is listening.
const DaemonBinary = "clockverse-cache"

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// OpenStore returns the shared store selected by CACHE_BACKEND. The returned
// closer must be called on shutdown.
func OpenStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (cache.KV, io.Closer, error) {
	switch cfg.CacheBackend {
	case config.BackendRedis:
		rs := cache.NewRedis(cache.RedisConfig{Addr: cfg.RedisAddr, DB: cfg.RedisDB, Password: cfg.RedisPassword}, log.Named("redis"))
		pctx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		if err := rs.Ping(pctx); err != nil {
			_ = rs.Close()
			return nil, nil, fmt.Errorf("redis %s: %w", cfg.RedisAddr, err)
		}
		return rs, rs, nil
	case config.BackendBolt:
		if err := os.MkdirAll(filepath.Dir(cfg.CacheDB), 0o755); err != nil {
			return nil, nil, err
		}
		st, err := cache.Open(cfg.CacheDB, cache.Options{Bucket: cfg.KeyPrefix, DefaultTTL: cfg.DataTTL})
		if err != nil {
			return nil, nil, fmt.Errorf("open %s: %w", cfg.CacheDB, err)
		}
		return st, st, nil
	default:
		c, err := connectDaemon(ctx, cfg.CacheSock, log)
		if err != nil {
			return nil, nil, err
		}
		return c, nopCloser{}, nil
	}
}

// connectDaemon connects to the cache daemon, starting it if needed.
func connectDaemon(ctx context.Context, sock string, log *zap.Logger) (*cache.Client, error) {
	log.Info("connecting to cache daemon", zap.String("sock", sock))
	c, err := connectCache(ctx, sock)
	if err == nil {
		return c, nil
	}
	log.Warn("cache daemon not reachable, starting it", zap.Error(err))
	if startErr := startCacheDaemon(sock); startErr != nil {
		log.Error("failed to start cache daemon", zap.Error(startErr))
	}

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if c, err = connectCache(ctx, sock); err == nil {
			log.Info("connected to cache daemon")
			return c, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(200 * time.Millisecond):
		}
	}
	return nil, fmt.Errorf("cache daemon at %s: %w", sock, err)
}

func connectCache(ctx context.Context, sock string) (*cache.Client, error) {
	var d net.Dialer
	dctx, cancel := context.WithTimeout(ctx, 200*time.Millisecond)
	defer cancel()
	conn, err := d.DialContext(dctx, "unix", sock)
	if err != nil {
		return nil, err
	}
	_ = conn.Close()
	return cache.NewClient(sock), nil
}

// startCacheDaemon looks for the daemon next to this executable, then on
// PATH, then in the working directory.
func startCacheDaemon(sock string) error {
	var candidates []string
	if exePath, err := os.Executable(); err == nil {
		candidates = append(candidates, filepath.Join(filepath.Dir(exePath), DaemonBinary))
	}
	if path, err := exec.LookPath(DaemonBinary); err == nil {
		candidates = append(candidates, path)
	}
	candidates = append(candidates, "./"+DaemonBinary)

	for _, bin := range candidates {
		if _, err := os.Stat(bin); err != nil {
			continue
		}
		cmd := exec.Command(bin)
		cmd.Env = append(os.Environ(), "CACHE_SOCK="+sock)
		return cmd.Start()
	}
	return exec.ErrNotFound
}
