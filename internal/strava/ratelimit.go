package strava

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Strava's default application limits. The short window resets on the
// quarter hour, the daily window at midnight UTC.
const (
	defaultShortLimit  = 100
	defaultDailyLimit  = 1000
	shortWindow        = 15 * time.Minute
	defaultMinInterval = 150 * time.Millisecond
)

// window is one request budget that empties at a fixed boundary
type window struct {
	limit    int
	used     int
	resetsAt time.Time
	next     func(now time.Time) time.Time
}

func (w *window) roll(now time.Time) {
	if !now.Before(w.resetsAt) {
		w.used = 0
		w.resetsAt = w.next(now)
	}
}

func (w *window) exhausted() bool { return w.used >= w.limit }

func (w *window) remaining() int {
	if w.used >= w.limit {
		return 0
	}
	return w.limit - w.used
}

func nextQuarterHour(now time.Time) time.Time {
	return now.UTC().Truncate(shortWindow).Add(shortWindow)
}

func nextMidnightUTC(now time.Time) time.Time {
	y, m, d := now.UTC().Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, time.UTC)
}

// RateLimiter tracks the Strava request budgets and spaces out requests.
// Usage reported by Strava in response headers overrides the local count.
type RateLimiter struct {
	mu    sync.Mutex
	short window
	daily window
	pacer *rate.Limiter
	now   func() time.Time
}

// NewRateLimiter creates a limiter with Strava's default limits
func NewRateLimiter() *RateLimiter {
	return NewRateLimiterWithLimits(defaultShortLimit, defaultDailyLimit, defaultMinInterval)
}

// NewRateLimiterWithLimits creates a limiter with custom budgets; a zero
// minInterval disables request spacing
func NewRateLimiterWithLimits(shortLimit, dailyLimit int, minInterval time.Duration) *RateLimiter {
	r := &RateLimiter{
		short: window{limit: shortLimit, next: nextQuarterHour},
		daily: window{limit: dailyLimit, next: nextMidnightUTC},
		pacer: rate.NewLimiter(rate.Every(minInterval), 1),
		now:   time.Now,
	}
	now := r.now()
	r.short.resetsAt = r.short.next(now)
	r.daily.resetsAt = r.daily.next(now)
	return r
}

// Wait reserves one request, sleeping until a window resets when a budget is
// spent. It returns ctx.Err() if ctx ends first.
func (r *RateLimiter) Wait(ctx context.Context) error {
	for {
		r.mu.Lock()
		now := r.now()
		r.short.roll(now)
		r.daily.roll(now)

		var resetAt time.Time
		switch {
		case r.daily.exhausted():
			resetAt = r.daily.resetsAt
		case r.short.exhausted():
			resetAt = r.short.resetsAt
		default:
			r.short.used++
			r.daily.used++
			r.mu.Unlock()
			return r.pacer.Wait(ctx)
		}
		r.mu.Unlock()

		timer := time.NewTimer(resetAt.Sub(now) + time.Millisecond)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
	}
}

// UpdateFromHeaders applies X-RateLimit-Limit and X-RateLimit-Usage, each
// formatted "short,daily"
func (r *RateLimiter) UpdateFromHeaders(h http.Header) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if short, daily, ok := parsePair(h.Get("X-RateLimit-Limit")); ok {
		r.short.limit, r.daily.limit = short, daily
	}
	if short, daily, ok := parsePair(h.Get("X-RateLimit-Usage")); ok {
		r.short.used, r.daily.used = short, daily
	}
}

func parsePair(v string) (int, int, bool) {
	first, second, found := strings.Cut(v, ",")
	if !found {
		return 0, 0, false
	}
	a, err := strconv.Atoi(strings.TrimSpace(first))
	if err != nil {
		return 0, 0, false
	}
	b, err := strconv.Atoi(strings.TrimSpace(second))
	if err != nil {
		return 0, 0, false
	}
	return a, b, true
}

// Status returns the requests left in each window
func (r *RateLimiter) Status() (shortRemaining, dailyRemaining int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	r.short.roll(now)
	r.daily.roll(now)
	return r.short.remaining(), r.daily.remaining()
}

// Usage returns the requests counted in each window
func (r *RateLimiter) Usage() (shortUsage, dailyUsage int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.short.used, r.daily.used
}
