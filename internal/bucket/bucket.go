// Package bucket derives cache and lock keys from coarse time windows.
//
// Derive is a pure function of (now truncated to Width, Params): every
// process serving the same minute computes the same keys without talking to
// anyone, and two distinct buckets never share a key.
package bucket

import (
	"errors"
	"fmt"
	"hash/fnv"
	"net/url"
	"strings"
	"time"
	_ "time/tzdata"
)

// DefaultWidth is the bucket size the display refreshes on.
const DefaultWidth = time.Minute

const lockSuffix = "|lock"

// Params are the client-supplied inputs that split a bucket further.
type Params struct {
	TimeZone string
	Variant  string
}

// Keys identify one bucket in the shared store.
type Keys struct {
	Data string
	Lock string
	// Start is the bucket start in the client's zone.
	Start time.Time
}

// Policy holds the bucket width and the TTL for each key class.
type Policy struct {
	Width   time.Duration
	Prefix  string
	DataTTL time.Duration
	LockTTL time.Duration
	Poets   []string
}

// Validate checks the TTL relationships the coordinator relies on.
func (p Policy) Validate() error {
	if p.Width <= 0 {
		return errors.New("bucket: width must be positive")
	}
	if p.DataTTL < p.Width {
		return fmt.Errorf("bucket: data ttl %s shorter than width %s", p.DataTTL, p.Width)
	}
	if p.LockTTL <= 0 {
		return errors.New("bucket: lock ttl must be positive")
	}
	return nil
}

// Derive computes the keys for the bucket containing now.
func (p Policy) Derive(now time.Time, params Params) Keys {
	loc := location(params.TimeZone)
	width := p.Width
	if width <= 0 {
		width = DefaultWidth
	}
	start := now.Truncate(width).In(loc)

	// The offset keeps the repeated hour of a DST fall-back apart.
	layout := "2006-01-02T15:04Z07:00"
	switch {
	case width%time.Second != 0:
		layout = "2006-01-02T15:04:05.000000000Z07:00"
	case width%time.Minute != 0:
		layout = "2006-01-02T15:04:05Z07:00"
	}

	var sb strings.Builder
	sb.WriteString(p.Prefix)
	sb.WriteByte('|')
	sb.WriteString(start.Format(layout))
	sb.WriteByte('|')
	sb.WriteString(url.QueryEscape(loc.String()))
	sb.WriteByte('|')
	sb.WriteString(url.QueryEscape(params.Variant))
	data := sb.String()

	return Keys{Data: data, Lock: LockKey(data), Start: start}
}

// LockKey returns the lock key guarding a data key.
func LockKey(dataKey string) string { return dataKey + lockSuffix }

// Poet picks the poet for a bucket. The pick depends only on the data key,
// so concurrent producers across processes agree on it.
func (p Policy) Poet(k Keys) string {
	if len(p.Poets) == 0 {
		return ""
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(k.Data))
	return p.Poets[h.Sum32()%uint32(len(p.Poets))]
}

// Remaining is how long the bucket starting at start stays current.
func (p Policy) Remaining(now, start time.Time) time.Duration {
	left := start.Add(p.Width).Sub(now)
	if left < 0 {
		return 0
	}
	return left
}

func location(name string) *time.Location {
	if name == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}
