package main

import (
	"context"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"go.uber.org/zap"

	"github.com/leonardcser/clockverse/internal/cache"
	"github.com/leonardcser/clockverse/internal/config"
	"github.com/leonardcser/clockverse/internal/logger"
)

func main() {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		panic(err)
	}
	if err := logger.InitFromEnv(); err != nil {
		panic(err)
	}
	defer logger.Close()
	log := logger.Named("cache-daemon")

	sock, db := cfg.CacheSock, cfg.CacheDB

	// Ensure socket dir exists and remove stale socket
	_ = os.MkdirAll(filepath.Dir(sock), 0o755)
	_ = os.MkdirAll(filepath.Dir(db), 0o755)
	_ = os.Remove(sock)

	l, err := net.Listen("unix", sock)
	if err != nil {
		log.Fatal("listen", zap.String("sock", sock), zap.Error(err))
	}
	_ = os.Chmod(sock, 0o600)

	store, err := cache.Open(db, cache.Options{Bucket: cfg.KeyPrefix, DefaultTTL: cfg.DataTTL})
	if err != nil {
		_ = l.Close()
		log.Fatal("open store", zap.String("db", db), zap.Error(err))
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("serving", zap.String("sock", sock), zap.String("db", db))
	if err := cache.Serve(ctx, l, store, log); err != nil {
		log.Error("serve", zap.Error(err))
	}
	_ = os.Remove(sock)
}
