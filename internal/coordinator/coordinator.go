// Package coordinator makes sure each bucket is generated once across every
// process sharing the cache store.
//
// A call to Resolve walks this state machine:
//
//	CHECK_CACHE -> HIT | TRY_LOCK
//	TRY_LOCK    -> PRODUCE | WAIT
//	PRODUCE     -> PUBLISH | FALLBACK
//	WAIT        -> HIT | TIMEOUT
//
// The only mutual exclusion is the lock key taken with KV.SetIfAbsent; no
// in-process lock is held while suspended.
package coordinator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/leonardcser/clockverse/internal/bucket"
	"github.com/leonardcser/clockverse/internal/cache"
	"github.com/leonardcser/clockverse/internal/content"
	"github.com/leonardcser/clockverse/internal/provider"
)

// storeTimeout bounds writes that must happen after the caller gave up.
const storeTimeout = 2 * time.Second

// Outcome is the terminal state a Resolve call ended in.
type Outcome int

const (
	Hit Outcome = iota + 1
	Published
	Fallback
	TimedOut
)

func (o Outcome) String() string {
	switch o {
	case Hit:
		return "hit"
	case Published:
		return "published"
	case Fallback:
		return "fallback"
	case TimedOut:
		return "timeout"
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// Resolution is the result of one Resolve call. Record may lack text when
// Outcome is Fallback or TimedOut; the assembler fills the gaps. Err is set
// only for conditions the boundary may want to report: a provider rate
// limit, or the caller's own deadline.
type Resolution struct {
	Record  content.Record
	Outcome Outcome
	Err     error
}

type Config struct {
	DataTTL        time.Duration
	LockTTL        time.Duration
	Wait           Wait
	ProduceTimeout time.Duration
}

type Coordinator struct {
	kv     cache.KV
	text   provider.TextGenerator
	images provider.ImageFetcher
	cfg    Config
	log    *zap.Logger
}

func New(kv cache.KV, text provider.TextGenerator, images provider.ImageFetcher, cfg Config, log *zap.Logger) *Coordinator {
	return &Coordinator{kv: kv, text: text, images: images, cfg: cfg, log: log}
}

// Resolve returns the record for the bucket identified by keys, producing it
// if this caller wins the lock.
//
// When the wait budget runs out the caller makes exactly one more attempt at
// the lock, which succeeds only if the producer's lock has expired. If that
// attempt fails too, Resolve returns TimedOut with an empty record.
func (c *Coordinator) Resolve(ctx context.Context, keys bucket.Keys, req content.Request) Resolution {
	log := c.log.With(zap.String("key", keys.Data))

	if rec, ok := c.lookup(ctx, log, keys.Data); ok {
		return Resolution{Record: rec, Outcome: Hit}
	}

	if res, ok := c.tryProduce(ctx, log, keys, req); ok {
		return res
	}

	log.Debug("lock held elsewhere, waiting")
	r := poll(ctx, c.cfg.Wait, func(ctx context.Context) (content.Record, bool) {
		return c.lookup(ctx, log, keys.Data)
	})
	if r.hit {
		return Resolution{Record: r.record, Outcome: Hit}
	}
	if err := ctx.Err(); err != nil {
		log.Info("deadline reached while waiting", zap.Error(err))
		return Resolution{Outcome: TimedOut, Err: err}
	}

	if res, ok := c.tryProduce(ctx, log, keys, req); ok {
		log.Info("took over expired lock")
		return res
	}
	log.Info("wait budget exhausted", zap.Duration("budget", c.cfg.Wait.Budget))
	return Resolution{Outcome: TimedOut}
}

// lookup treats every failure as a miss: absent, expired, unreachable store
// and undecodable payloads alike.
func (c *Coordinator) lookup(ctx context.Context, log *zap.Logger, key string) (content.Record, bool) {
	b, err := c.kv.Get(ctx, key)
	if err != nil {
		if !cache.IsMiss(err) && ctx.Err() == nil {
			log.Warn("cache unavailable, treating as miss", zap.Error(err))
		}
		return content.Record{}, false
	}
	var rec content.Record
	if err := json.Unmarshal(b, &rec); err != nil || !rec.HasText() {
		log.Warn("discarding unreadable cache entry", zap.Error(err))
		return content.Record{}, false
	}
	return rec, true
}

// tryProduce reports false only on lock contention. A store failure on the
// lock means nobody can be sure they are alone, so it ends in Fallback
// without calling any provider.
func (c *Coordinator) tryProduce(ctx context.Context, log *zap.Logger, keys bucket.Keys, req content.Request) (Resolution, bool) {
	token := uuid.NewString()
	acquired, err := c.kv.SetIfAbsent(ctx, keys.Lock, []byte(token), c.cfg.LockTTL)
	if err != nil {
		log.Warn("cannot take lock, serving fallback", zap.Error(err))
		res := Resolution{Outcome: Fallback}
		if ctx.Err() != nil {
			res.Err = ctx.Err()
		}
		return res, true
	}
	if !acquired {
		return Resolution{}, false
	}
	log = log.With(zap.String("lock_token", token))
	// A producer may have published and released between our miss and our lock.
	if rec, ok := c.lookup(ctx, log, keys.Data); ok {
		c.release(ctx, log, keys.Lock, token)
		return Resolution{Record: rec, Outcome: Hit}, true
	}
	return c.produce(ctx, log, keys, req, token), true
}

func (c *Coordinator) produce(ctx context.Context, log *zap.Logger, keys bucket.Keys, req content.Request, token string) Resolution {
	defer c.release(ctx, log, keys.Lock, token)

	pctx := ctx
	if c.cfg.ProduceTimeout > 0 {
		var cancel context.CancelFunc
		pctx, cancel = context.WithTimeout(ctx, c.cfg.ProduceTimeout)
		defer cancel()
	}

	imgCh := make(chan *content.Image, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				log.Error("image provider panicked", zap.Any("panic", p))
				imgCh <- nil
			}
		}()
		img, _ := c.images.FetchImage(pctx)
		imgCh <- img
	}()

	poem, textErr := c.text.GenerateText(pctx, req)

	var img *content.Image
	select {
	case img = <-imgCh:
	default:
		// A finished fetch wins over an expired deadline.
		select {
		case img = <-imgCh:
		case <-pctx.Done():
		}
	}

	if textErr != nil {
		log.Warn("text generation failed, nothing cached", zap.Error(textErr))
		res := Resolution{Record: content.NewRecord(content.Poem{}, img), Outcome: Fallback}
		switch {
		case errors.Is(textErr, content.ErrRateLimited):
			res.Err = content.ErrRateLimited
		case ctx.Err() != nil:
			res.Err = ctx.Err()
		}
		return res
	}

	rec := content.NewRecord(poem, img)
	b, err := json.Marshal(rec)
	if err != nil {
		log.Error("encode record", zap.Error(err))
		return Resolution{Record: rec, Outcome: Fallback}
	}
	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), storeTimeout)
	defer cancel()
	if err := c.kv.Put(wctx, keys.Data, b, c.cfg.DataTTL); err != nil {
		log.Warn("publish failed", zap.Error(err))
		return Resolution{Record: rec, Outcome: Fallback}
	}
	log.Info("published", zap.Bool("image", rec.HasImage()), zap.String("poet", rec.Poet))
	return Resolution{Record: rec, Outcome: Published}
}

// release drops the lock if it still carries our token. It runs on every
// exit from produce, including panics and expired deadlines.
func (c *Coordinator) release(ctx context.Context, log *zap.Logger, lockKey, token string) {
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), storeTimeout)
	defer cancel()

	if v, err := c.kv.Get(rctx, lockKey); err == nil && string(v) != token {
		log.Warn("lock taken over by another producer, leaving it")
		return
	}
	if err := c.kv.Delete(rctx, lockKey); err != nil {
		log.Warn("release lock failed, waiting for ttl", zap.Error(err), zap.Duration("lock_ttl", c.cfg.LockTTL))
	}
}

// Ping checks the shared store when it supports health checks.
func (c *Coordinator) Ping(ctx context.Context) error {
	if p, ok := c.kv.(cache.Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}
