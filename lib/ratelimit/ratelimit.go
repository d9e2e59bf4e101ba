package ratelimit

import (
	"context"
	"log/slog"
	"time"

	"github.com/mazen160/go-random"
)

// Limiter pauses the crawl for a uniformly random duration in
// [Min, Max] before each outbound request, so the request interval has
// no fixed fingerprint for the portal's anti-scraping defenses to key
// on.
type Limiter struct {
	Min time.Duration
	Max time.Duration
}

// Default matches the portal's observed tolerance.
var Default = Limiter{Min: time.Second, Max: time.Second * 10}

func (l Limiter) delay() time.Duration {
	min, max := l.Min, l.Max
	if max < min {
		min, max = max, min
	}
	if max == min {
		return min
	}
	ms, err := random.IntRange(0, int((max-min)/time.Millisecond)+1)
	if err != nil {
		return min
	}
	return min + time.Duration(ms)*time.Millisecond
}

// Wait blocks for the drawn delay, returning early if the context is
// cancelled.
func (l Limiter) Wait(ctx context.Context) {
	d := l.delay()
	slog.DebugContext(ctx, "sleeping", "seconds", d.Seconds())

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}
