package cache

import (
	"container/list"
	"context"
	"regexp"
	"strings"
	"sync"
	"time"
)

// Store is a process-local key/value cache with a TTL per entry and an
// optional LRU bound on the number of entries. It is safe for concurrent use.
type Store struct {
	mu         sync.Mutex
	maxEntries int // 0 means unbounded
	items      map[string]*list.Element
	lru        *list.List
	now        func() time.Time
}

type cacheItem struct {
	key       string
	data      any
	expiresAt time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithMaxEntries bounds the store; the least recently used entry is evicted on overflow.
func WithMaxEntries(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxEntries = n
		}
	}
}

// WithClock overrides the time source, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// NewStore creates an empty cache.
func NewStore(opts ...Option) *Store {
	s := &Store{
		items: make(map[string]*list.Element),
		lru:   list.New(),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the value for key. Expired entries are removed and reported as absent.
func (s *Store) Get(key string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	elem, exists := s.items[key]
	if !exists {
		return nil, false
	}

	item := elem.Value.(*cacheItem)
	if s.now().After(item.expiresAt) {
		s.removeElement(elem)
		return nil, false
	}

	s.lru.MoveToFront(elem)
	return item.data, true
}

// Has reports whether key holds an unexpired value, with the same eviction as Get.
func (s *Store) Has(key string) bool {
	_, ok := s.Get(key)
	return ok
}

// Set stores data under key until now+ttl.
func (s *Store) Set(key string, data any, ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item := &cacheItem{
		key:       key,
		data:      data,
		expiresAt: s.now().Add(ttl),
	}

	if elem, exists := s.items[key]; exists {
		elem.Value = item
		s.lru.MoveToFront(elem)
		return
	}

	elem := s.lru.PushFront(item)
	s.items[key] = elem

	if s.maxEntries > 0 && s.lru.Len() > s.maxEntries {
		if oldest := s.lru.Back(); oldest != nil {
			s.removeElement(oldest)
		}
	}
}

// Delete removes key and reports whether it was present.
func (s *Store) Delete(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	elem, exists := s.items[key]
	if !exists {
		return false
	}
	s.removeElement(elem)
	return true
}

// DeletePattern removes every key matching a glob where "*" matches any run
// of characters, and returns the number of entries removed.
func (s *Store) DeletePattern(pattern string) int {
	re := globToRegexp(pattern)

	s.mu.Lock()
	defer s.mu.Unlock()

	var toRemove []*list.Element
	for key, elem := range s.items {
		if re.MatchString(key) {
			toRemove = append(toRemove, elem)
		}
	}
	for _, elem := range toRemove {
		s.removeElement(elem)
	}
	return len(toRemove)
}

// Clear drops every entry.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = make(map[string]*list.Element)
	s.lru.Init()
}

// CleanExpired removes all expired entries and returns count of removed items
func (s *Store) CleanExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	var toRemove []*list.Element

	for elem := s.lru.Front(); elem != nil; elem = elem.Next() {
		if now.After(elem.Value.(*cacheItem).expiresAt) {
			toRemove = append(toRemove, elem)
		}
	}

	for _, elem := range toRemove {
		s.removeElement(elem)
	}

	return len(toRemove)
}

// Size returns the current number of items in the cache, expired or not.
func (s *Store) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

func (s *Store) removeElement(elem *list.Element) {
	item := elem.Value.(*cacheItem)
	delete(s.items, item.key)
	s.lru.Remove(elem)
}

// GetOrSet returns the cached value for key when present and of type T;
// otherwise it runs factory, caches a successful result for ttl and returns it.
// Concurrent misses may each run factory. Factory errors are returned and not cached.
func GetOrSet[T any](ctx context.Context, s *Store, key string, ttl time.Duration, factory func(context.Context) (T, error)) (T, error) {
	if s != nil {
		if v, ok := s.Get(key); ok {
			if typed, ok := v.(T); ok {
				return typed, nil
			}
		}
	}

	value, err := factory(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	if s != nil {
		s.Set(key, value, ttl)
	}
	return value, nil
}

func globToRegexp(pattern string) *regexp.Regexp {
	parts := strings.Split(pattern, "*")
	for i, p := range parts {
		parts[i] = regexp.QuoteMeta(p)
	}
	return regexp.MustCompile("^" + strings.Join(parts, ".*") + "$")
}
