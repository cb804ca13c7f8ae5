package analyses

import (
	"sync"
	"time"
)

const pollLimitWindow = time.Second

// pollLimiter allows one status poll per client and run per window.
type pollLimiter struct {
	mu      sync.Mutex
	lastHit map[string]time.Time
	now     func() time.Time
	window  time.Duration
}

func newPollLimiter(window time.Duration, now func() time.Time) *pollLimiter {
	if now == nil {
		now = time.Now
	}
	if window <= 0 {
		window = pollLimitWindow
	}
	return &pollLimiter{
		lastHit: make(map[string]time.Time),
		now:     now,
		window:  window,
	}
}

func (l *pollLimiter) Allow(client, runID string) bool {
	if l == nil {
		return true
	}
	key := client + "|" + runID
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()
	if last, ok := l.lastHit[key]; ok && now.Sub(last) < l.window {
		return false
	}
	l.lastHit[key] = now
	if len(l.lastHit) > 10000 {
		l.pruneLocked(now)
	}
	return true
}

func (l *pollLimiter) pruneLocked(now time.Time) {
	for key, last := range l.lastHit {
		if now.Sub(last) >= l.window {
			delete(l.lastHit, key)
		}
	}
}

func (l *pollLimiter) RetryAfterSeconds() int {
	if l == nil {
		return int(pollLimitWindow.Seconds())
	}
	return max(1, int(l.window.Seconds()))
}
