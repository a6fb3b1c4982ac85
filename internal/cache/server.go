package cache

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"time"

	"go.uber.org/zap"
)

// SweepInterval is how often the daemon drops expired keys.
const SweepInterval = time.Minute

type sweeper interface {
	Sweep() (int, error)
}

// Serve answers protocol requests on l until ctx is cancelled. Each
// connection may carry any number of requests.
func Serve(ctx context.Context, l net.Listener, kv KV, log *zap.Logger) error {
	go func() {
		<-ctx.Done()
		_ = l.Close()
	}()
	if sw, ok := kv.(sweeper); ok {
		go sweepLoop(ctx, sw, log)
	}

	for {
		conn, err := l.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				return err
			}
			log.Warn("accept failed", zap.Error(err))
			continue
		}
		go handleConn(ctx, conn, kv)
	}
}

func handleConn(ctx context.Context, conn net.Conn, kv KV) {
	defer conn.Close()
	dec := json.NewDecoder(conn)
	enc := json.NewEncoder(conn)
	for {
		var req Request
		if err := dec.Decode(&req); err != nil {
			return
		}
		_ = enc.Encode(dispatch(ctx, kv, req))
	}
}

func dispatch(ctx context.Context, kv KV, req Request) Response {
	ttl := time.Duration(req.TTLMilli) * time.Millisecond
	switch req.Op {
	case opGet:
		v, err := kv.Get(ctx, req.Key)
		if err != nil {
			return Response{Error: err.Error()}
		}
		return Response{OK: true, Value: v}
	case opPut:
		if err := kv.Put(ctx, req.Key, req.Value, ttl); err != nil {
			return Response{Error: err.Error()}
		}
		return Response{OK: true}
	case opDelete:
		if err := kv.Delete(ctx, req.Key); err != nil {
			return Response{Error: err.Error()}
		}
		return Response{OK: true}
	case opSetNX:
		created, err := kv.SetIfAbsent(ctx, req.Key, req.Value, ttl)
		if err != nil {
			return Response{Error: err.Error()}
		}
		return Response{OK: true, Created: created}
	case opExpire:
		found, err := kv.Expire(ctx, req.Key, ttl)
		if err != nil {
			return Response{Error: err.Error()}
		}
		return Response{OK: true, Created: found}
	case opPing:
		if p, ok := kv.(Pinger); ok {
			if err := p.Ping(ctx); err != nil {
				return Response{Error: err.Error()}
			}
		}
		return Response{OK: true}
	default:
		return Response{Error: "unknown op"}
	}
}

func sweepLoop(ctx context.Context, sw sweeper, log *zap.Logger) {
	ticker := time.NewTicker(SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := sw.Sweep()
			if err != nil {
				log.Warn("sweep failed", zap.Error(err))
				continue
			}
			if n > 0 {
				log.Debug("swept expired keys", zap.Int("removed", n))
			}
		}
	}
}
