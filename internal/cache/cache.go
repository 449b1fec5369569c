// Package cache holds per-agent recommendation caches. Entries live for
// a configured TTL and are swept periodically; state is process-lifetime
// only, never persisted.
package cache

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/polyedge/polyedge/models"
)

const (
	DefaultTTL           = 5 * time.Minute
	DefaultSweepInterval = 60 * time.Second
)

type entry struct {
	rec      models.AgentRecommendation
	storedAt time.Time
}

// Store is a TTL-bound recommendation cache keyed by market identifier.
type Store struct {
	mu      sync.Mutex
	entries map[string]entry
	ttl     time.Duration
	hits    int64
	stop    chan struct{}
	now     func() time.Time
	logger  zerolog.Logger
}

// New creates a Store for one agent and starts its background sweeper.
// Call Close to stop the sweeper.
func New(agent string, ttl, sweepInterval time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if sweepInterval <= 0 {
		sweepInterval = DefaultSweepInterval
	}

	s := &Store{
		entries: make(map[string]entry),
		ttl:     ttl,
		stop:    make(chan struct{}),
		now:     time.Now,
		logger:  log.With().Str("component", "cache").Str("agent", agent).Logger(),
	}

	go s.sweepLoop(sweepInterval)
	return s
}

// Get returns the cached recommendation for marketID. Entries older than
// the TTL are treated as absent.
func (s *Store) Get(marketID string) (models.AgentRecommendation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[marketID]
	if !ok {
		return models.AgentRecommendation{}, false
	}
	if s.now().Sub(e.storedAt) > s.ttl {
		delete(s.entries, marketID)
		return models.AgentRecommendation{}, false
	}
	s.hits++
	return e.rec, true
}

// Put stores a recommendation for marketID, replacing any prior entry.
func (s *Store) Put(marketID string, rec models.AgentRecommendation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[marketID] = entry{rec: rec, storedAt: s.now()}
}

// Len returns the number of entries, including not-yet-swept stale ones.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Stats returns a snapshot of the cache.
func (s *Store) Stats() models.CacheStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return models.CacheStats{Size: len(s.entries), Hits: s.hits}
}

// Close stops the background sweeper.
func (s *Store) Close() {
	close(s.stop)
}

func (s *Store) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := s.sweep(); n > 0 {
				s.logger.Debug().Int("evicted", n).Msg("Swept stale cache entries")
			}
		case <-s.stop:
			return
		}
	}
}

func (s *Store) sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	evicted := 0
	for id, e := range s.entries {
		if now.Sub(e.storedAt) > s.ttl {
			delete(s.entries, id)
			evicted++
		}
	}
	return evicted
}
