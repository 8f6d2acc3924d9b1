package cache

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Cache defines the key/value contract the analytics layer depends on.
type Cache interface {
	Get(key string) (any, bool)
	Set(key string, data any, ttl time.Duration)
	Has(key string) bool
	Delete(key string) bool
	DeletePattern(pattern string) int
	Size() int
}

var _ Cache = (*Store)(nil)

// TTL tiers. Windows still accumulating transactions use the short tiers;
// closed historical windows can use the long ones.
const (
	TTLShort    = 60 * time.Second
	TTLMedium   = 300 * time.Second
	TTLLong     = 1800 * time.Second
	TTLVeryLong = 3600 * time.Second
	TTLDay      = 86400 * time.Second
)

// Manager handles cache lifecycle and cleanup
type Manager struct {
	caches      []Cleaner
	logger      *slog.Logger
	startOnce   sync.Once
	started     atomic.Bool
	stopOnce    sync.Once
	stopCleanup chan struct{}
	cleanupDone chan struct{}
}

// Cleaner interface for caches that support cleanup
type Cleaner interface {
	CleanExpired() int
}

// NewManager creates a new cache manager
func NewManager(logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		caches:      make([]Cleaner, 0),
		logger:      logger,
		stopCleanup: make(chan struct{}),
		cleanupDone: make(chan struct{}),
	}
}

// Register adds a cache to the manager for cleanup. Call before StartCleanup.
func (m *Manager) Register(cache Cleaner) {
	m.caches = append(m.caches, cache)
}

// StartCleanup begins periodic cleanup of all registered caches. Only the
// first call starts a sweep loop.
func (m *Manager) StartCleanup(interval time.Duration) {
	m.startOnce.Do(func() {
		m.started.Store(true)
		go m.cleanup(interval)
	})
}

func (m *Manager) cleanup(interval time.Duration) {
	defer close(m.cleanupDone)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if cleaned := m.Sweep(); cleaned > 0 {
				m.logger.Debug("Cleaned expired cache entries", "count", cleaned)
			}
		case <-m.stopCleanup:
			return
		}
	}
}

// Sweep runs one cleanup pass over every registered cache.
func (m *Manager) Sweep() int {
	total := 0
	for _, c := range m.caches {
		total += c.CleanExpired()
	}
	return total
}

// Stop gracefully stops the cleanup routine. Without a prior StartCleanup it
// returns immediately.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() {
		close(m.stopCleanup)
		if m.started.Load() {
			<-m.cleanupDone
		}
	})
}
