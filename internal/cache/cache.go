package cache

import (
	"context"
	"errors"
	"math"
	"sort"
	"sync"
	"time"

	rcron "github.com/robfig/cron/v3"

	"steam-insights-backend/internal/shared/metrics"
	"steam-insights-backend/internal/shared/telemetry"
)

// DefaultSweepSchedule runs the expiry sweep hourly.
const DefaultSweepSchedule = "@every 1h"

type entry struct {
	key       string
	op        OpType
	subject   string
	payload   any
	createdAt time.Time
	expiresAt time.Time
}

// Cache is an in-memory TTL cache for expensive, deterministic-per-input
// results. It is safe for concurrent use. Entries are replaced, never mutated.
type Cache struct {
	mu      sync.Mutex
	entries map[string]entry
	ttls    map[OpType]time.Duration
	now     func() time.Time

	hits   uint64
	misses uint64
	saves  uint64

	sweeper *rcron.Cron
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

// WithTTLs merges overrides into the default TTL table.
func WithTTLs(overrides map[OpType]time.Duration) Option {
	return func(c *Cache) {
		for op, ttl := range overrides {
			if ttl > 0 {
				c.ttls[op] = ttl
			}
		}
	}
}

// New constructs an empty cache.
func New(opts ...Option) *Cache {
	c := &Cache{
		entries: make(map[string]entry),
		ttls:    DefaultTTLs(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// TTL returns the default time-to-live for op.
func (c *Cache) TTL(op OpType) time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ttlLocked(op)
}

// TTLs returns a copy of the effective TTL table.
func (c *Cache) TTLs() map[OpType]time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[OpType]time.Duration, len(c.ttls))
	for op, ttl := range c.ttls {
		out[op] = ttl
	}
	return out
}

func (c *Cache) ttlLocked(op OpType) time.Duration {
	if ttl, ok := c.ttls[op]; ok {
		return ttl
	}
	return FallbackTTL
}

// Get returns the live payload stored for (op, subject, opts). Expired
// entries are removed and reported as misses, as are malformed options.
func (c *Cache) Get(op OpType, subject string, opts Options) (any, bool) {
	key, err := Key(op, subject, opts)
	if err != nil {
		logMalformed("cache.get", op, subject, err)
		c.recordMiss()
		return nil, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		c.misses++
		metrics.IncCacheMiss()
		return nil, false
	}
	if c.now().After(e.expiresAt) {
		delete(c.entries, key)
		c.misses++
		metrics.IncCacheMiss()
		return nil, false
	}
	c.hits++
	metrics.IncCacheHit()
	return e.payload, true
}

// Set stores payload with the operation's default TTL.
func (c *Cache) Set(op OpType, subject string, opts Options, payload any) {
	c.store(op, subject, opts, payload, 0)
}

// SetTTL stores payload with an explicit TTL. A non-positive ttl falls back
// to the operation default.
func (c *Cache) SetTTL(op OpType, subject string, opts Options, payload any, ttl time.Duration) {
	c.store(op, subject, opts, payload, ttl)
}

func (c *Cache) store(op OpType, subject string, opts Options, payload any, ttl time.Duration) {
	key, err := Key(op, subject, opts)
	if err != nil {
		logMalformed("cache.set", op, subject, err)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if ttl <= 0 {
		ttl = c.ttlLocked(op)
	}
	now := c.now()
	c.entries[key] = entry{
		key:       key,
		op:        op,
		subject:   subject,
		payload:   payload,
		createdAt: now,
		expiresAt: now.Add(ttl),
	}
	c.saves++
	metrics.IncCacheSave()
}

// Remove deletes the entry for (op, subject, opts) if present.
func (c *Cache) Remove(op OpType, subject string, opts Options) bool {
	key, err := Key(op, subject, opts)
	if err != nil {
		logMalformed("cache.remove", op, subject, err)
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[key]; !ok {
		return false
	}
	delete(c.entries, key)
	return true
}

// RemoveSubject deletes every entry for op and subject regardless of options.
func (c *Cache) RemoveSubject(op OpType, subject string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	for key, e := range c.entries {
		if e.op == op && e.subject == subject {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// Sweep deletes entries whose expiry is in the past and returns the count.
func (c *Cache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	removed := 0
	for key, e := range c.entries {
		if e.expiresAt.Before(now) {
			delete(c.entries, key)
			removed++
		}
	}
	if removed > 0 {
		metrics.AddCacheEvictions(removed)
	}
	return removed
}

// Clear drops all entries. Counters are kept.
func (c *Cache) Clear() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := len(c.entries)
	c.entries = make(map[string]entry)
	return n
}

// Len returns the number of stored entries, live or not yet swept.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// EntryInfo describes one stored entry.
type EntryInfo struct {
	Key                 string `json:"key"`
	Type                OpType `json:"type"`
	Subject             string `json:"subject"`
	AgeSeconds          int64  `json:"ageSeconds"`
	TTLRemainingSeconds int64  `json:"ttlRemainingSeconds"`
}

// Stats is a point-in-time snapshot of cache counters and contents.
type Stats struct {
	Hits      uint64      `json:"hits"`
	Misses    uint64      `json:"misses"`
	Saves     uint64      `json:"saves"`
	HitRate   float64     `json:"hitRate"`
	CacheSize int         `json:"cacheSize"`
	Entries   []EntryInfo `json:"entries"`
}

// Stats reports cumulative counters, the hit rate as a percentage with two
// decimals, and per-entry metadata ordered by key.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	out := Stats{
		Hits:      c.hits,
		Misses:    c.misses,
		Saves:     c.saves,
		CacheSize: len(c.entries),
		Entries:   make([]EntryInfo, 0, len(c.entries)),
	}
	if total := c.hits + c.misses; total > 0 {
		out.HitRate = math.Round(float64(c.hits)/float64(total)*10000) / 100
	}
	for _, e := range c.entries {
		remaining := e.expiresAt.Sub(now)
		if remaining < 0 {
			remaining = 0
		}
		out.Entries = append(out.Entries, EntryInfo{
			Key:                 e.key,
			Type:                e.op,
			Subject:             e.subject,
			AgeSeconds:          int64(now.Sub(e.createdAt) / time.Second),
			TTLRemainingSeconds: int64(remaining / time.Second),
		})
	}
	sort.Slice(out.Entries, func(i, j int) bool {
		return out.Entries[i].Key < out.Entries[j].Key
	})
	return out
}

func (c *Cache) recordMiss() {
	c.mu.Lock()
	c.misses++
	c.mu.Unlock()
	metrics.IncCacheMiss()
}

// StartSweeper schedules Sweep on a cron schedule such as "@every 1h".
func (c *Cache) StartSweeper(schedule string) error {
	if schedule == "" {
		schedule = DefaultSweepSchedule
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sweeper != nil {
		return errors.New("cache sweeper already running")
	}
	sweeper := rcron.New()
	if _, err := sweeper.AddFunc(schedule, func() {
		removed := c.Sweep()
		telemetry.Info("cache.sweep", map[string]any{
			"removed":    removed,
			"cache_size": c.Len(),
		})
	}); err != nil {
		return err
	}
	sweeper.Start()
	c.sweeper = sweeper
	return nil
}

// Shutdown stops the sweeper and waits for a running sweep to finish.
func (c *Cache) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	sweeper := c.sweeper
	c.sweeper = nil
	c.mu.Unlock()
	if sweeper == nil {
		return nil
	}
	done := sweeper.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func logMalformed(event string, op OpType, subject string, err error) {
	telemetry.Warn(event+".malformed_options", map[string]any{
		"op":      string(op),
		"subject": subject,
		"error":   err.Error(),
	})
}
