// Package ratelimit keeps one token-bucket limiter per client key.
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// limiterItem is a limiter with the last time its key was seen
type limiterItem struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Store is a thread-safe map of per-key limiters. Keys idle for longer than
// the TTL are evicted by a background sweep.
type Store struct {
	data  map[string]*limiterItem
	mutex sync.Mutex

	limit rate.Limit
	burst int
	ttl   time.Duration

	now  func() time.Time
	stop chan struct{}
	once sync.Once
}

// NewStore creates a store handing out limiters that allow perMinute
// requests per key, with a burst of the same size.
func NewStore(perMinute int, ttl time.Duration) *Store {
	if perMinute < 1 {
		perMinute = 1
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}

	s := &Store{
		data:  make(map[string]*limiterItem),
		limit: rate.Limit(float64(perMinute) / 60.0),
		burst: perMinute,
		ttl:   ttl,
		now:   time.Now,
		stop:  make(chan struct{}),
	}

	go s.cleanupExpired(ttl)

	return s
}

// Allow reports whether key may make another request now
func (s *Store) Allow(key string) bool {
	return s.get(key).Allow()
}

func (s *Store) get(key string) *rate.Limiter {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	item, exists := s.data[key]
	if !exists {
		item = &limiterItem{limiter: rate.NewLimiter(s.limit, s.burst)}
		s.data[key] = item
	}
	item.lastSeen = s.now()
	return item.limiter
}

// Evict removes keys not seen within the TTL and returns how many went
func (s *Store) Evict() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	cutoff := s.now().Add(-s.ttl)
	removed := 0
	for key, item := range s.data {
		if item.lastSeen.Before(cutoff) {
			delete(s.data, key)
			removed++
		}
	}
	return removed
}

// cleanupExpired sweeps idle keys until Stop is called
func (s *Store) cleanupExpired(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Evict()
		case <-s.stop:
			return
		}
	}
}

// Stop ends the background sweep. It is safe to call more than once.
func (s *Store) Stop() {
	s.once.Do(func() { close(s.stop) })
}

// Size returns the number of tracked keys
func (s *Store) Size() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return len(s.data)
}
