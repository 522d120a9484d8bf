package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// LimiterStore keeps one token bucket per client key. Buckets idle for
// longer than the TTL are dropped by a background loop.
type LimiterStore struct {
	mu        sync.Mutex
	entries   map[string]*limiterEntry
	rps       rate.Limit
	burst     int
	ttl       time.Duration
	logger    *zap.Logger
	stopChan  chan struct{}
	stopOnce  sync.Once
	cleanupWg sync.WaitGroup
}

// NewLimiterStore starts the cleanup goroutine. Call Stop to end it.
func NewLimiterStore(rps float64, burst int, ttl time.Duration, logger *zap.Logger) *LimiterStore {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	s := &LimiterStore{
		entries:  make(map[string]*limiterEntry),
		rps:      rate.Limit(rps),
		burst:    burst,
		ttl:      ttl,
		logger:   logger,
		stopChan: make(chan struct{}),
	}

	s.cleanupWg.Add(1)
	go s.cleanupLoop(max(ttl/2, time.Second))
	return s
}

// Get returns the bucket for key, creating it on first use.
func (s *LimiterStore) Get(key string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(s.rps, s.burst)}
		s.entries[key] = e
	}
	e.lastSeen = time.Now()
	return e.limiter
}

func (s *LimiterStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *LimiterStore) cleanupLoop(every time.Duration) {
	defer s.cleanupWg.Done()

	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.cleanup(time.Now())
		case <-s.stopChan:
			return
		}
	}
}

func (s *LimiterStore) cleanup(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	expired := 0
	for key, e := range s.entries {
		if now.Sub(e.lastSeen) > s.ttl {
			delete(s.entries, key)
			expired++
		}
	}
	if expired > 0 {
		s.logger.Debug("Dropped idle rate limiters", zap.Int("count", expired))
	}
}

// Stop ends the cleanup goroutine. It is safe to call more than once.
func (s *LimiterStore) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopChan)
		s.cleanupWg.Wait()
		s.logger.Info("Rate limiter store stopped")
	})
}

// ClientIP keys requests by remote host.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// RateLimit rejects requests over the per-key budget with 429.
func RateLimit(store *LimiterStore, key func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !store.Get(key(r)).Allow() {
				w.Header().Set("Retry-After", "1")
				writeError(w, http.StatusTooManyRequests, "too many requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
