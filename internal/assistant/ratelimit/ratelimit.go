// Package ratelimit implements per-client fixed-window admission control.
//
// The window algorithm is deliberately approximate: a burst straddling a
// window boundary can admit up to twice the configured maximum. That is the
// accepted price of O(1) state per key; do not replace it with a sliding log.
package ratelimit

import (
	"hash/fnv"
	"sync"
	"time"
)

const shardCount = 16

// Defaults applied when the corresponding option is zero.
const (
	DefaultWindow = 60 * time.Second
	DefaultMax    = 10
)

// Record is the per-key window state. One record per active key, created
// lazily and mutated in place.
type Record struct {
	Count       int
	WindowStart time.Time
}

// Decision is the outcome of one admission check.
type Decision struct {
	OK         bool
	RetryAfter time.Duration
}

type shard struct {
	mu      sync.Mutex
	records map[string]*Record
}

// Limiter is an explicitly-lifetimed store rather than module-level state, so
// tests and multi-tenant wiring can hold isolated instances. Keys shard across
// independent mutexes to keep unrelated clients from serializing on one lock.
type Limiter struct {
	window time.Duration
	max    int
	shards [shardCount]*shard
	now    func() time.Time

	sweepStop chan struct{}
	sweepOnce sync.Once
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithClock overrides the time source. Test hook.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) { l.now = now }
}

// New creates a limiter with the given window length and per-window maximum.
func New(window time.Duration, max int, opts ...Option) *Limiter {
	if window <= 0 {
		window = DefaultWindow
	}
	if max <= 0 {
		max = DefaultMax
	}
	l := &Limiter{
		window: window,
		max:    max,
		now:    time.Now,
	}
	for i := range l.shards {
		l.shards[i] = &shard{records: make(map[string]*Record)}
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Limiter) shardFor(key string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return l.shards[h.Sum32()%shardCount]
}

// Admit records one request for key and decides whether it fits the current
// window. The read-increment-compare sequence holds the shard lock so
// concurrent requests from the same client cannot race past the limit.
func (l *Limiter) Admit(key string) Decision {
	now := l.now()
	s := l.shardFor(key)

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[key]
	if !ok {
		rec = &Record{WindowStart: now}
		s.records[key] = rec
	}
	if now.Sub(rec.WindowStart) > l.window {
		rec.Count = 0
		rec.WindowStart = now
	}
	rec.Count++
	if rec.Count > l.max {
		retry := l.window - now.Sub(rec.WindowStart)
		if retry < 0 {
			retry = 0
		}
		return Decision{OK: false, RetryAfter: retry}
	}
	return Decision{OK: true}
}

// Sweep drops records whose window expired at least one full extra window ago
// and returns how many were evicted. Normal admission never deletes records;
// this bounds memory for long-lived processes.
func (l *Limiter) Sweep() int {
	now := l.now()
	evicted := 0
	for _, s := range l.shards {
		s.mu.Lock()
		for key, rec := range s.records {
			if now.Sub(rec.WindowStart) > 2*l.window {
				delete(s.records, key)
				evicted++
			}
		}
		s.mu.Unlock()
	}
	return evicted
}

// StartSweeper runs Sweep on the given interval until Stop is called.
func (l *Limiter) StartSweeper(interval time.Duration) {
	if interval <= 0 {
		return
	}
	l.sweepStop = make(chan struct{})
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				l.Sweep()
			case <-l.sweepStop:
				return
			}
		}
	}()
}

// Stop terminates the sweeper goroutine, if one is running.
func (l *Limiter) Stop() {
	if l.sweepStop == nil {
		return
	}
	l.sweepOnce.Do(func() { close(l.sweepStop) })
}

// Len reports the number of tracked keys across all shards.
func (l *Limiter) Len() int {
	n := 0
	for _, s := range l.shards {
		s.mu.Lock()
		n += len(s.records)
		s.mu.Unlock()
	}
	return n
}
