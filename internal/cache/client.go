package cache

import (
	"context"
	"encoding/json"
	"net"
	"time"
)

const defaultClientTimeout = 500 * time.Millisecond

// Client implements KV over a Unix socket served by the cache daemon.
type Client struct {
	socketPath string
	timeout    time.Duration
}

func NewClient(socketPath string) *Client {
	return &Client{socketPath: socketPath, timeout: defaultClientTimeout}
}

// WithTimeout bounds every round trip, on top of any context deadline.
func (c *Client) WithTimeout(d time.Duration) *Client {
	if d > 0 {
		c.timeout = d
	}
	return c
}

func (c *Client) roundTrip(ctx context.Context, req Request) (Response, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", c.socketPath)
	if err != nil {
		return Response{}, err
	}
	defer conn.Close()
	if dl, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(dl)
	}

	if err := json.NewEncoder(conn).Encode(&req); err != nil {
		return Response{}, err
	}
	var resp Response
	if err := json.NewDecoder(conn).Decode(&resp); err != nil {
		return Response{}, err
	}
	if !resp.OK {
		return resp, remoteError(resp.Error)
	}
	return resp, nil
}

func (c *Client) Get(ctx context.Context, key string) ([]byte, error) {
	resp, err := c.roundTrip(ctx, Request{Op: opGet, Key: key})
	if err != nil {
		return nil, err
	}
	return append([]byte(nil), resp.Value...), nil
}

func (c *Client) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	_, err := c.roundTrip(ctx, Request{Op: opPut, Key: key, Value: value, TTLMilli: ttl.Milliseconds()})
	return err
}

func (c *Client) Delete(ctx context.Context, key string) error {
	_, err := c.roundTrip(ctx, Request{Op: opDelete, Key: key})
	return err
}

func (c *Client) SetIfAbsent(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	resp, err := c.roundTrip(ctx, Request{Op: opSetNX, Key: key, Value: value, TTLMilli: ttl.Milliseconds()})
	if err != nil {
		return false, err
	}
	return resp.Created, nil
}

func (c *Client) Expire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	resp, err := c.roundTrip(ctx, Request{Op: opExpire, Key: key, TTLMilli: ttl.Milliseconds()})
	if err != nil {
		return false, err
	}
	return resp.Created, nil
}

func (c *Client) Ping(ctx context.Context) error {
	_, err := c.roundTrip(ctx, Request{Op: opPing})
	return err
}

// remoteError maps daemon error strings back to the package sentinels.
func remoteError(msg string) error {
	switch msg {
	case ErrNotFound.Error():
		return ErrNotFound
	case ErrExpired.Error():
		return ErrExpired
	}
	return &simpleError{s: msg}
}

type simpleError struct{ s string }

func (e *simpleError) Error() string { return e.s }
