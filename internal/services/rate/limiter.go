package rate

import (
	"context"
	"fmt"
	"strings"
	"time"
)

type Counter interface {
	Hit(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
	Forget(ctx context.Context, keys ...string) error
}

type window struct {
	name  string
	size  time.Duration
	limit int64
}

// Limiter caps attempts per subject over several fixed windows at once.
// A window with a zero limit is not tracked.
type Limiter struct {
	counter Counter
	scope   string
	windows []window
}

func NewLimiter(counter Counter, scope string, perMinute, per10Sec int) *Limiter {
	l := &Limiter{counter: counter, scope: scope}
	if perMinute > 0 {
		l.windows = append(l.windows, window{name: "1m", size: time.Minute, limit: int64(perMinute)})
	}
	if per10Sec > 0 {
		l.windows = append(l.windows, window{name: "10s", size: 10 * time.Second, limit: int64(per10Sec)})
	}
	return l
}

// Allow records an attempt. A blocked attempt reports the seconds until
// every exceeded window has closed.
func (l *Limiter) Allow(ctx context.Context, subject string) (int64, bool, error) {
	subject = normalizeSubject(subject)
	if subject == "" {
		return 0, false, fmt.Errorf("invalid rate subject")
	}
	if l.counter == nil {
		return 0, false, fmt.Errorf("rate limiter store is nil")
	}

	var wait time.Duration
	for _, w := range l.windows {
		count, left, err := l.counter.Hit(ctx, l.key(w, subject), w.size)
		if err != nil {
			return 0, false, err
		}
		if count > w.limit && left > wait {
			wait = left
		}
	}
	if wait > 0 {
		return ceilSeconds(wait), false, nil
	}
	return 0, true, nil
}

// Reset forgets the attempts of subject, e.g. after a successful login.
func (l *Limiter) Reset(ctx context.Context, subject string) error {
	subject = normalizeSubject(subject)
	if subject == "" || l.counter == nil || len(l.windows) == 0 {
		return nil
	}
	keys := make([]string, 0, len(l.windows))
	for _, w := range l.windows {
		keys = append(keys, l.key(w, subject))
	}
	return l.counter.Forget(ctx, keys...)
}

func (l *Limiter) key(w window, subject string) string {
	return "rate:" + l.scope + ":" + w.name + ":" + subject
}

func normalizeSubject(subject string) string {
	return strings.ToLower(strings.TrimSpace(subject))
}

func ceilSeconds(d time.Duration) int64 {
	sec := int64((d + time.Second - 1) / time.Second)
	if sec < 1 {
		sec = 1
	}
	return sec
}
