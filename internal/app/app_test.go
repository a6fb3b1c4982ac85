package app

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/leonardcser/clockverse/internal/bucket"
	"github.com/leonardcser/clockverse/internal/cache"
	"github.com/leonardcser/clockverse/internal/config"
	"github.com/leonardcser/clockverse/internal/content"
	"github.com/leonardcser/clockverse/internal/coordinator"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		CacheBackend:  config.BackendBolt,
		CacheDB:       filepath.Join(t.TempDir(), "db", "cache.bbolt"),
		BucketWidth:   time.Minute,
		DataTTL:       2 * time.Minute,
		LockTTL:       5 * time.Second,
		KeyPrefix:     "verse",
		WaitInterval:  5 * time.Millisecond,
		WaitBudget:    100 * time.Millisecond,
		Poets:         []string{"Sylvia Plath"},
		ServeDefaults: true,
	}
}

func TestNewServiceWithoutProviders(t *testing.T) {
	cfg := testConfig(t)
	log := zaptest.NewLogger(t)
	kv, closer, err := OpenStore(context.Background(), cfg, log)
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}
	defer closer.Close()

	svc := NewService(cfg, kv, log)
	resp, err := svc.Current(context.Background(), bucket.Params{})
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if resp.Outcome != coordinator.Fallback {
		t.Errorf("outcome %s, want fallback", resp.Outcome)
	}
	if resp.Record.Text != content.Defaults().Text {
		t.Errorf("text = %q", resp.Record.Text)
	}
	if err := svc.Ready(context.Background()); err != nil {
		t.Errorf("Ready: %v", err)
	}
}

func TestOpenStoreDaemon(t *testing.T) {
	dir, err := os.MkdirTemp("", "cv")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.RemoveAll(dir) })
	sock := filepath.Join(dir, "c.sock")

	st, err := cache.Open(filepath.Join(dir, "c.bbolt"), cache.Options{})
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()
	l, err := net.Listen("unix", sock)
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	log := zaptest.NewLogger(t)
	go func() { _ = cache.Serve(ctx, l, st, log) }()

	cfg := testConfig(t)
	cfg.CacheBackend = config.BackendDaemon
	cfg.CacheSock = sock
	kv, closer, err := OpenStore(context.Background(), cfg, log)
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}
	defer closer.Close()

	ok, err := kv.SetIfAbsent(context.Background(), "k", []byte("v"), time.Minute)
	if err != nil || !ok {
		t.Fatalf("SetIfAbsent through daemon = %v, %v", ok, err)
	}
	if v, err := st.Get(context.Background(), "k"); err != nil || string(v) != "v" {
		t.Errorf("daemon store has %q, %v", v, err)
	}
}
