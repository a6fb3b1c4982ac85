package coordinator

import (
	"context"
	"testing"
	"time"

	"github.com/leonardcser/clockverse/internal/content"
)

func TestPollHit(t *testing.T) {
	calls := 0
	w := Wait{Interval: time.Millisecond, MaxInterval: 4 * time.Millisecond, Budget: time.Second}
	r := poll(context.Background(), w, func(context.Context) (content.Record, bool) {
		calls++
		if calls < 3 {
			return content.Record{}, false
		}
		return content.NewRecord(content.Poem{Text: "A"}, nil), true
	})
	if !r.hit || r.record.Text != "A" {
		t.Errorf("poll = %+v", r)
	}
	if calls != 3 {
		t.Errorf("probe called %d times", calls)
	}
}

func TestPollBudget(t *testing.T) {
	w := Wait{Interval: 10 * time.Millisecond, MaxInterval: 30 * time.Millisecond, Budget: 100 * time.Millisecond}
	start := time.Now()
	r := poll(context.Background(), w, func(context.Context) (content.Record, bool) {
		return content.Record{}, false
	})
	elapsed := time.Since(start)
	if r.hit {
		t.Fatal("unexpected hit")
	}
	if elapsed < w.Budget || elapsed > w.Budget+100*time.Millisecond {
		t.Errorf("poll returned after %s, budget %s", elapsed, w.Budget)
	}
}

func TestPollContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	start := time.Now()
	r := poll(ctx, Wait{Interval: 5 * time.Millisecond, MaxInterval: 5 * time.Millisecond, Budget: 10 * time.Second},
		func(context.Context) (content.Record, bool) { return content.Record{}, false })
	if r.hit || time.Since(start) > time.Second {
		t.Errorf("poll ignored cancellation: %+v after %s", r, time.Since(start))
	}
}

func TestWaitDelayCapped(t *testing.T) {
	w := Wait{Interval: 500 * time.Millisecond, MaxInterval: 2 * time.Second}
	want := []time.Duration{500 * time.Millisecond, time.Second, 2 * time.Second, 2 * time.Second, 2 * time.Second}
	for i, d := range want {
		if got := w.delay(i); got != d {
			t.Errorf("delay(%d) = %s, want %s", i, got, d)
		}
	}
	if DefaultWait().Budget != 10*time.Second {
		t.Error("default budget changed")
	}
}
