package cache

// Simple JSON protocol for the cache daemon over a Unix domain socket.
// One request -> one response using json.Encoder/Decoder per connection.

const (
	opGet    = "get"
	opPut    = "put"
	opDelete = "delete"
	opSetNX  = "setnx"
	opExpire = "expire"
	opPing   = "ping"
)

type Request struct {
	Op       string `json:"op"` // "get" | "put" | "delete" | "setnx" | "expire" | "ping"
	Key      string `json:"key"`
	Value    []byte `json:"value,omitempty"`
	TTLMilli int64  `json:"ttl_ms,omitempty"`
}

type Response struct {
	OK      bool   `json:"ok"`
	Value   []byte `json:"value,omitempty"`
	Created bool   `json:"created,omitempty"`
	Error   string `json:"error,omitempty"`
}
