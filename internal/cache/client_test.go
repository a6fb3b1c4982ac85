package cache

import (
	"context"
	"errors"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"
)

// startDaemon serves a fresh store on a short socket path.
func startDaemon(t *testing.T) *Client {
	t.Helper()
	dir, err := os.MkdirTemp("", "cv")
	if err != nil {
		t.Fatalf("MkdirTemp: %v", err)
	}
	t.Cleanup(func() { _ = os.RemoveAll(dir) })

	sock := filepath.Join(dir, "c.sock")
	l, err := net.Listen("unix", sock)
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	store := openTestStore(t, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = Serve(ctx, l, store, zaptest.NewLogger(t))
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return NewClient(sock).WithTimeout(2 * time.Second)
}

func TestClientRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := startDaemon(t)

	if err := c.Ping(ctx); err != nil {
		t.Fatalf("Ping: %v", err)
	}
	if _, err := c.Get(ctx, "k"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get missing: got %v, want ErrNotFound", err)
	}
	if err := c.Put(ctx, "k", []byte(`{"poem":"A"}`), time.Minute); err != nil {
		t.Fatalf("Put: %v", err)
	}
	v, err := c.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(v) != `{"poem":"A"}` {
		t.Errorf("Get = %s", v)
	}
	if ok, err := c.Expire(ctx, "k", time.Hour); err != nil || !ok {
		t.Errorf("Expire = %v, %v", ok, err)
	}
	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := c.Get(ctx, "k"); !IsMiss(err) {
		t.Errorf("Get after delete: %v", err)
	}
}

func TestClientSetIfAbsent(t *testing.T) {
	ctx := context.Background()
	c := startDaemon(t)

	ok, err := c.SetIfAbsent(ctx, "lock", []byte("owner-1"), time.Minute)
	if err != nil || !ok {
		t.Fatalf("first SetIfAbsent = %v, %v", ok, err)
	}
	ok, err = c.SetIfAbsent(ctx, "lock", []byte("owner-2"), time.Minute)
	if err != nil || ok {
		t.Fatalf("second SetIfAbsent = %v, %v", ok, err)
	}
}

func TestClientDaemonDown(t *testing.T) {
	c := NewClient(filepath.Join(t.TempDir(), "nobody.sock"))
	_, err := c.Get(context.Background(), "k")
	if err == nil {
		t.Fatal("expected dial error")
	}
	if IsMiss(err) {
		t.Error("dial failure must not look like a miss")
	}
}
