package coordinator

import (
	"context"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/leonardcser/clockverse/internal/content"
)

// Wait bounds how long a caller that lost the lock race keeps polling.
type Wait struct {
	// Interval is the first delay between polls.
	Interval time.Duration
	// MaxInterval caps the exponential growth of the delay.
	MaxInterval time.Duration
	// Budget is the total time spent waiting before giving up.
	Budget time.Duration
}

// DefaultWait matches the 500 ms steps and ~10 s ceiling the display was
// tuned against.
func DefaultWait() Wait {
	return Wait{Interval: 500 * time.Millisecond, MaxInterval: 2 * time.Second, Budget: 10 * time.Second}
}

func (w Wait) delay(attempt int) time.Duration {
	if w.Interval <= 0 {
		w.Interval = 100 * time.Millisecond
	}
	ceil := w.MaxInterval
	if ceil < w.Interval {
		ceil = w.Interval
	}
	return retryablehttp.DefaultBackoff(w.Interval, ceil, attempt, nil)
}

// pollResult is either a hit carrying the record or a timeout.
type pollResult struct {
	record content.Record
	hit    bool
}

func hit(r content.Record) pollResult { return pollResult{record: r, hit: true} }

var timedOut = pollResult{}

// poll calls probe on a capped exponential schedule until it reports a hit,
// the budget runs out, or ctx is done. It never sleeps past the budget.
func poll(ctx context.Context, w Wait, probe func(context.Context) (content.Record, bool)) pollResult {
	deadline := time.Now().Add(w.Budget)
	for attempt := 0; ; attempt++ {
		left := time.Until(deadline)
		if left <= 0 {
			return timedOut
		}
		d := w.delay(attempt)
		if d > left {
			d = left
		}
		t := time.NewTimer(d)
		select {
		case <-ctx.Done():
			t.Stop()
			return timedOut
		case <-t.C:
		}
		if r, ok := probe(ctx); ok {
			return hit(r)
		}
	}
}
